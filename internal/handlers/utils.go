package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jason-s-yu/rankboard/internal/auth"
	"github.com/jason-s-yu/rankboard/internal/registry"
)

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

// callerIdentity resolves the caller's registry identity from the auth_token
// cookie. The core only ever sees the explicit identity resolved here.
func callerIdentity(r *http.Request) (uuid.UUID, error) {
	cookie := r.Header.Get("Cookie")
	if !strings.Contains(cookie, "auth_token=") {
		return uuid.Nil, errors.New("missing auth_token")
	}
	token := extractCookieToken(cookie, "auth_token")
	return auth.IdentityFromToken(token)
}

// writeRegistryError maps core errors onto HTTP statuses.
func writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrNotRegistered):
		http.Error(w, "identity is not registered", http.StatusNotFound)
	case errors.Is(err, registry.ErrAlreadyRegistered):
		http.Error(w, "identity is already registered", http.StatusConflict)
	case errors.Is(err, registry.ErrInvalidValue):
		http.Error(w, "value must be non-negative", http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
