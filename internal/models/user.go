package models

import "github.com/google/uuid"

// UserRecord is the canonical registry entry for one identity. Exactly one
// record exists per registered identity; the identity and display name are
// fixed at registration, the remaining fields are overwritten by updates.
type UserRecord struct {
	Identity    uuid.UUID `json:"identity"`
	DisplayName string    `json:"display_name"`
	Balance     int64     `json:"balance"`
	LoggedIn    bool      `json:"logged_in"`
	Points      int64     `json:"points"`
}

// LeaderboardEntry is one row of the points ranking, most points first.
// Rank is 1-based. Ties on points are ordered by registration order,
// earliest first.
type LeaderboardEntry struct {
	Rank     int       `json:"rank"`
	Identity uuid.UUID `json:"identity"`
	Points   int64     `json:"points"`
}
