// internal/registry/registry.go
package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/rankboard/internal/events"
	"github.com/jason-s-yu/rankboard/internal/leaderboard"
	"github.com/jason-s-yu/rankboard/internal/models"
)

var (
	// ErrAlreadyRegistered is returned when registering an identity that
	// already holds a record.
	ErrAlreadyRegistered = errors.New("identity is already registered")

	// ErrNotRegistered is returned by every operation that targets an
	// identity with no record.
	ErrNotRegistered = errors.New("identity is not registered")

	// ErrInvalidValue is returned when a negative balance or point total is
	// supplied at the boundary.
	ErrInvalidValue = errors.New("balance and points must be non-negative")
)

// Snapshotter persists user records as a restart snapshot. The in-memory
// registry stays authoritative; snapshot failures are logged, never rolled
// back into the caller's result.
type Snapshotter interface {
	InsertUser(ctx context.Context, u models.UserRecord) error
	UpdateUser(ctx context.Context, u models.UserRecord) error
}

// Registry owns the canonical record for every registered identity together
// with the points-ranked leaderboard over them. A single admission mutex
// serializes every operation, mutation or read, so each call observes a
// fully-applied prior state; the leaderboard re-rank for a points change
// happens inside the same critical section as the record write.
//
// The leaderboard index is mutated only through Register and UpdatePoints,
// which keeps its membership identical to the record set at all times.
type Registry struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*models.UserRecord
	index   *leaderboard.Index
	emitter events.Emitter
	snap    Snapshotter
	logger  *logrus.Logger
}

// New returns an empty registry. emitter and snap may be nil to disable
// notifications or persistence respectively.
func New(emitter events.Emitter, snap Snapshotter, logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.New()
	}
	return &Registry{
		users:   make(map[uuid.UUID]*models.UserRecord),
		index:   leaderboard.NewIndex(),
		emitter: emitter,
		snap:    snap,
		logger:  logger,
	}
}

// Register creates the record for a new identity with zero balance, zero
// points, and logged-out state, and appends it to the leaderboard behind
// every existing entry.
func (r *Registry) Register(ctx context.Context, identity uuid.UUID, displayName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[identity]; exists {
		return ErrAlreadyRegistered
	}

	u := &models.UserRecord{Identity: identity, DisplayName: displayName}
	r.users[identity] = u
	if err := r.index.Insert(identity); err != nil {
		// Unreachable while the index is only fed from this method.
		r.logger.WithField("identity", identity).Errorf("leaderboard insert failed: %v", err)
	}

	if r.snap != nil {
		if err := r.snap.InsertUser(ctx, *u); err != nil {
			r.logger.WithField("identity", identity).Warnf("failed to snapshot new user: %v", err)
		}
	}
	r.emit(events.UserRegistered(identity, displayName))
	return nil
}

// Login asserts the identity's logged-in flag. Calling while already logged
// in succeeds and re-asserts the flag; the registry deliberately carries no
// double-login guard.
func (r *Registry) Login(ctx context.Context, identity uuid.UUID) error {
	return r.setLoggedIn(ctx, identity, true)
}

// Logout clears the identity's logged-in flag, with the same
// no-guard semantics as Login.
func (r *Registry) Logout(ctx context.Context, identity uuid.UUID) error {
	return r.setLoggedIn(ctx, identity, false)
}

func (r *Registry) setLoggedIn(ctx context.Context, identity uuid.UUID, loggedIn bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.users[identity]
	if !exists {
		return ErrNotRegistered
	}
	u.LoggedIn = loggedIn

	r.persistUpdate(ctx, *u)
	if loggedIn {
		r.emit(events.UserLoggedIn(identity))
	} else {
		r.emit(events.UserLoggedOut(identity))
	}
	return nil
}

// UpdateBalance overwrites the identity's balance with newBalance. The value
// replaces the old balance outright; it is not added to it.
func (r *Registry) UpdateBalance(ctx context.Context, identity uuid.UUID, newBalance int64) error {
	if newBalance < 0 {
		return ErrInvalidValue
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.users[identity]
	if !exists {
		return ErrNotRegistered
	}
	u.Balance = newBalance

	r.persistUpdate(ctx, *u)
	r.emit(events.BalanceUpdated(identity, newBalance))
	return nil
}

// UpdatePoints overwrites the identity's point total and immediately
// relocates its leaderboard entry. The record write and the re-rank are one
// atomic step under the admission lock.
func (r *Registry) UpdatePoints(ctx context.Context, identity uuid.UUID, newPoints int64) error {
	if newPoints < 0 {
		return ErrInvalidValue
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.users[identity]
	if !exists {
		return ErrNotRegistered
	}
	u.Points = newPoints
	if err := r.index.UpdateRank(identity, newPoints); err != nil {
		// Unreachable: membership is kept in lockstep with the record set.
		r.logger.WithField("identity", identity).Errorf("leaderboard re-rank failed: %v", err)
	}

	r.persistUpdate(ctx, *u)
	r.emit(events.UserPointsUpdated(identity, newPoints))
	return nil
}

// GetUser returns a copy of the identity's record.
func (r *Registry) GetUser(identity uuid.UUID) (models.UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.users[identity]
	if !exists {
		return models.UserRecord{}, ErrNotRegistered
	}
	return *u, nil
}

// GetBalance returns the identity's current balance.
func (r *Registry) GetBalance(identity uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.users[identity]
	if !exists {
		return 0, ErrNotRegistered
	}
	return u.Balance, nil
}

// GetUserPoints returns the identity's current point total.
func (r *Registry) GetUserPoints(identity uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.users[identity]
	if !exists {
		return 0, ErrNotRegistered
	}
	return u.Points, nil
}

// IsLoggedIn returns the identity's login state.
func (r *Registry) IsLoggedIn(identity uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.users[identity]
	if !exists {
		return false, ErrNotRegistered
	}
	return u.LoggedIn, nil
}

// Leaderboard returns the full ranking snapshot, most points first.
func (r *Registry) Leaderboard() []models.LeaderboardEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index.Leaderboard()
}

// PositionOf returns the identity's 1-based leaderboard rank.
func (r *Registry) PositionOf(identity uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[identity]; !exists {
		return 0, ErrNotRegistered
	}
	pos, err := r.index.PositionOf(identity)
	if err != nil {
		return 0, ErrNotRegistered
	}
	return pos, nil
}

// Count returns the number of registered identities.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// Load rebuilds the registry from snapshot records. Records must arrive in
// registration order so the leaderboard tie-break is reconstructed exactly.
// Load is for boot time only, before the registry is serving.
func (r *Registry) Load(records []models.UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range records {
		if _, exists := r.users[rec.Identity]; exists {
			return ErrAlreadyRegistered
		}
		u := rec
		r.users[rec.Identity] = &u
		if err := r.index.Insert(rec.Identity); err != nil {
			return err
		}
		if rec.Points != 0 {
			if err := r.index.UpdateRank(rec.Identity, rec.Points); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Registry) persistUpdate(ctx context.Context, u models.UserRecord) {
	if r.snap == nil {
		return
	}
	if err := r.snap.UpdateUser(ctx, u); err != nil {
		r.logger.WithField("identity", u.Identity).Warnf("failed to snapshot user update: %v", err)
	}
}

func (r *Registry) emit(ev events.Event) {
	if r.emitter == nil {
		return
	}
	r.emitter.Emit(ev)
}
