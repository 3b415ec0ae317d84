package auth

import (
	"net/http"
	"strings"
)

// BearerToken extracts the credential a client supplies at connect time:
// the Authorization header, or the token query parameter for browser
// WebSocket clients that cannot set headers.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
