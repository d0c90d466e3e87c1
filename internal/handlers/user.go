package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jason-s-yu/rankboard/internal/auth"
)

type sessionRequest struct {
	AccessKey string `json:"access_key"`
	Identity  string `json:"identity,omitempty"`
}

type sessionResponse struct {
	Token    string    `json:"token"`
	Identity uuid.UUID `json:"identity"`
}

// SessionHandler issues a session token binding the caller to a registry
// identity. The caller presents the operator access key; if no identity is
// supplied a fresh one is generated. The token is also set as an auth_token
// cookie, which the mutation endpoints read.
//
// Request payload:
//
//	{
//	  "access_key": "...",
//	  "identity": "optional uuid"
//	}
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AccessKeyHash == "" {
			http.Error(w, "session issuance disabled", http.StatusForbidden)
			return
		}

		var req sessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request payload", http.StatusBadRequest)
			return
		}

		match, err := auth.VerifyAccessKey(req.AccessKey, s.AccessKeyHash)
		if err != nil || !match {
			s.Logger.Warnf("failed access key verification: %v", err)
			http.Error(w, "authentication failed", http.StatusForbidden)
			return
		}

		identity := uuid.New()
		if req.Identity != "" {
			identity, err = uuid.Parse(req.Identity)
			if err != nil {
				http.Error(w, "invalid identity format", http.StatusBadRequest)
				return
			}
		}

		token, err := auth.CreateSessionToken(identity)
		if err != nil {
			http.Error(w, "failed to create session token", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "auth_token",
			Value:    token,
			HttpOnly: true,
			Path:     "/",
			MaxAge:   auth.TOKEN_EXPIRE_TIME_SEC,
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sessionResponse{Token: token, Identity: identity})
	}
}

// RegisterHandler creates the caller's registry record.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := callerIdentity(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}

		var req struct {
			DisplayName string `json:"display_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}

		if err := s.Registry.Register(r.Context(), identity, req.DisplayName); err != nil {
			writeRegistryError(w, err)
			return
		}

		u, err := s.Registry.GetUser(identity)
		if err != nil {
			writeRegistryError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(u)
	}
}

// LoginHandler asserts the caller's logged-in flag. Calling while already
// logged in succeeds; the registry carries no double-login guard.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := callerIdentity(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		if err := s.Registry.Login(r.Context(), identity); err != nil {
			writeRegistryError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// LogoutHandler clears the caller's logged-in flag.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := callerIdentity(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}
		if err := s.Registry.Logout(r.Context(), identity); err != nil {
			writeRegistryError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// UpdateBalanceHandler overwrites the caller's balance with the supplied
// value; the new balance replaces the old one, it is not added.
func (s *Server) UpdateBalanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := callerIdentity(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}

		var req struct {
			NewBalance int64 `json:"new_balance"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}

		if err := s.Registry.UpdateBalance(r.Context(), identity, req.NewBalance); err != nil {
			writeRegistryError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// UpdatePointsHandler overwrites the caller's point total and re-ranks the
// leaderboard in the same step.
func (s *Server) UpdatePointsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := callerIdentity(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusForbidden)
			return
		}

		var req struct {
			NewPoints int64 `json:"new_points"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}

		if err := s.Registry.UpdatePoints(r.Context(), identity, req.NewPoints); err != nil {
			writeRegistryError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// UserReadHandler serves the read-only accessors under /users/{identity}:
// the bare path returns the full record, and the subpaths /balance, /points,
// /logged-in, and /position return the individual fields.
func (s *Server) UserReadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/users/"), "/")
		if len(pathParts) < 1 || pathParts[0] == "" {
			http.Error(w, "missing identity", http.StatusBadRequest)
			return
		}
		identity, err := uuid.Parse(pathParts[0])
		if err != nil {
			http.Error(w, "invalid identity", http.StatusBadRequest)
			return
		}

		field := ""
		if len(pathParts) > 1 {
			field = pathParts[1]
		}

		var payload interface{}
		switch field {
		case "":
			payload, err = s.Registry.GetUser(identity)
		case "balance":
			var balance int64
			balance, err = s.Registry.GetBalance(identity)
			payload = map[string]int64{"balance": balance}
		case "points":
			var points int64
			points, err = s.Registry.GetUserPoints(identity)
			payload = map[string]int64{"points": points}
		case "logged-in":
			var loggedIn bool
			loggedIn, err = s.Registry.IsLoggedIn(identity)
			payload = map[string]bool{"logged_in": loggedIn}
		case "position":
			var pos int
			pos, err = s.Registry.PositionOf(identity)
			payload = map[string]int{"position": pos}
		default:
			http.Error(w, "unknown field", http.StatusNotFound)
			return
		}
		if err != nil {
			writeRegistryError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}
}
