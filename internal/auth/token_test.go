package auth

import (
	"strings"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	v := NewVerifier("secret")
	issued, err := IssueToken("secret", Claims{
		Sub:  "user-1",
		Name: "Avery",
		Role: "INTERVIEWER",
		Exp:  time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	id, err := v.Verify(issued)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if id.SubjectID != "user-1" || id.DisplayName != "Avery" || id.Role != "INTERVIEWER" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	v := NewVerifier("secret")
	issued, err := IssueToken("secret", Claims{
		Sub: "user-1",
		Exp: time.Now().Add(-time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if _, err := v.Verify(issued); err != ErrExpiredToken {
		t.Fatalf("Verify() error = %v, want ErrExpiredToken", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issued, err := IssueToken("other", Claims{
		Sub: "user-1",
		Exp: time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if _, err := NewVerifier("secret").Verify(issued); err != ErrInvalidToken {
		t.Fatalf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsMalformed(t *testing.T) {
	v := NewVerifier("secret")
	for _, token := range []string{"", "nodot", "a.b.c", "!!!.sig"} {
		if _, err := v.Verify(token); err == nil {
			t.Fatalf("Verify(%q) succeeded, want error", token)
		}
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	v := NewVerifier("secret")
	issued, err := IssueToken("secret", Claims{
		Sub: "user-1",
		Exp: time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	other, err := IssueToken("secret", Claims{
		Sub: "user-2",
		Exp: time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	forged := strings.Split(other, ".")[0] + "." + strings.Split(issued, ".")[1]
	if _, err := v.Verify(forged); err != ErrInvalidToken {
		t.Fatalf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyDefaultsRole(t *testing.T) {
	v := NewVerifier("secret")
	issued, err := IssueToken("secret", Claims{
		Sub: "user-1",
		Exp: time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	id, err := v.Verify(issued)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if id.Role != "GUEST" {
		t.Fatalf("Role = %q, want GUEST", id.Role)
	}
}
