// internal/events/event.go
package events

import (
	"time"

	"github.com/google/uuid"
)

// Type names one kind of registry notification.
type Type string

const (
	TypeUserRegistered    Type = "user_registered"
	TypeUserLoggedIn      Type = "user_logged_in"
	TypeUserLoggedOut     Type = "user_logged_out"
	TypeBalanceUpdated    Type = "balance_updated"
	TypeUserPointsUpdated Type = "user_points_updated"
)

// Event is one identity-scoped notification. Events are fire-and-forget:
// observers must read authoritative state back through the registry
// accessors, never reconstruct it from the event stream.
type Event struct {
	Type      Type                   `json:"type"`
	Identity  uuid.UUID              `json:"identity"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

func newEvent(t Type, identity uuid.UUID, payload map[string]interface{}) Event {
	return Event{
		Type:      t,
		Identity:  identity,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
}

// UserRegistered carries the display name chosen at registration.
func UserRegistered(identity uuid.UUID, displayName string) Event {
	return newEvent(TypeUserRegistered, identity, map[string]interface{}{
		"display_name": displayName,
	})
}

// UserLoggedIn marks a login-state assertion to true.
func UserLoggedIn(identity uuid.UUID) Event {
	return newEvent(TypeUserLoggedIn, identity, nil)
}

// UserLoggedOut marks a login-state assertion to false.
func UserLoggedOut(identity uuid.UUID) Event {
	return newEvent(TypeUserLoggedOut, identity, nil)
}

// BalanceUpdated carries the full new balance, not a delta.
func BalanceUpdated(identity uuid.UUID, newBalance int64) Event {
	return newEvent(TypeBalanceUpdated, identity, map[string]interface{}{
		"new_balance": newBalance,
	})
}

// UserPointsUpdated carries the full new point total, not a delta.
func UserPointsUpdated(identity uuid.UUID, totalPoints int64) Event {
	return newEvent(TypeUserPointsUpdated, identity, map[string]interface{}{
		"total_points": totalPoints,
	})
}
