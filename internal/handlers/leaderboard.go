package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

type leaderboardResponse struct {
	Identities []uuid.UUID `json:"identities"`
	Points     []int64     `json:"points"`
}

// LeaderboardHandler returns the full ranking as parallel identity and point
// arrays, most points first, ties by registration order.
func (s *Server) LeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		entries := s.Registry.Leaderboard()
		resp := leaderboardResponse{
			Identities: make([]uuid.UUID, len(entries)),
			Points:     make([]int64, len(entries)),
		}
		for i, e := range entries {
			resp.Identities[i] = e.Identity
			resp.Points[i] = e.Points
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}
