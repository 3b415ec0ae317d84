// Package auth verifies the bearer tokens issued by the platform API.
// Tokens are a base64url JSON payload plus an HMAC-SHA256 signature,
// joined by a dot. This service only verifies; issuance lives in the
// platform API (IssueToken exists for tests and local tooling).
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"codepair/realtime/internal/rbac"
)

// Identity is the result of a successful verification.
type Identity struct {
	SubjectID   string
	DisplayName string
	Role        string
}

type Claims struct {
	Sub  string `json:"sub"`
	Name string `json:"name"`
	Role string `json:"role"`
	Exp  int64  `json:"exp"`
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

// Verifier validates bearer credentials against a shared secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a credential and returns the identity it
// carries. Unknown or missing role claims normalize to GUEST.
func (v *Verifier) Verify(token string) (Identity, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return Identity{}, ErrInvalidToken
	}
	payload := parts[0]
	signature := parts[1]

	expected := sign(v.secret, payload)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return Identity{}, ErrInvalidToken
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	var claims Claims
	if err := json.Unmarshal(decoded, &claims); err != nil {
		return Identity{}, ErrInvalidToken
	}
	if claims.Sub == "" || claims.Exp == 0 {
		return Identity{}, ErrInvalidToken
	}
	if time.Now().Unix() >= claims.Exp {
		return Identity{}, ErrExpiredToken
	}

	return Identity{
		SubjectID:   claims.Sub,
		DisplayName: claims.Name,
		Role:        string(rbac.Normalize(claims.Role)),
	}, nil
}

// IssueToken signs claims with the given secret.
func IssueToken(secret string, claims Claims) (string, error) {
	payloadBytes, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(payloadBytes)
	return payload + "." + sign([]byte(secret), payload), nil
}

func sign(secret []byte, payload string) string {
	sum := hmac.New(sha256.New, secret)
	_, _ = sum.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(sum.Sum(nil))
}
