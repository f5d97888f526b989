package jwt

import (
	"net/http"
	"strings"
)

// TokenFromRequest reads the token from the "token" query parameter, which
// browsers use for WebSocket upgrades, or from a Bearer Authorization header.
func TokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
