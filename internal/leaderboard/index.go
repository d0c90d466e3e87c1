// internal/leaderboard/index.go
package leaderboard

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/rankboard/internal/models"
)

// ErrNotRanked indicates an identity with no entry in the index. The registry
// keeps its membership in lockstep with the index, so a caller going through
// the registry should never see this.
var ErrNotRanked = errors.New("identity is not in the leaderboard index")

// ErrAlreadyRanked indicates a second Insert for the same identity.
var ErrAlreadyRanked = errors.New("identity is already in the leaderboard index")

// Index maintains the descending-points ordering over every registered
// identity. Entries are inserted once, at zero points, and relocated in place
// on every points change; there is no removal path. Ties on points order by
// registration sequence, so a newly inserted identity never outranks an
// existing one at the same total, and repeated updates cannot reshuffle tied
// entries.
//
// Index is not safe for concurrent use; the registry serializes access.
type Index struct {
	list    *skiplist
	keys    map[uuid.UUID]rankKey
	nextSeq uint64
}

// NewIndex returns an empty leaderboard index.
func NewIndex() *Index {
	return &Index{
		list: newSkiplist(time.Now().UnixNano()),
		keys: make(map[uuid.UUID]rankKey),
	}
}

// Insert adds an identity at zero points, placed after every existing entry.
func (idx *Index) Insert(identity uuid.UUID) error {
	if _, exists := idx.keys[identity]; exists {
		return ErrAlreadyRanked
	}
	k := rankKey{points: 0, seq: idx.nextSeq}
	idx.nextSeq++
	idx.keys[identity] = k
	idx.list.insert(k, identity)
	return nil
}

// UpdateRank relocates an identity's entry to the position its new point
// total demands, leaving all other entries' relative order untouched. The
// registration sequence is carried over so the tie-break stays stable.
func (idx *Index) UpdateRank(identity uuid.UUID, newPoints int64) error {
	old, exists := idx.keys[identity]
	if !exists {
		return ErrNotRanked
	}
	if old.points == newPoints {
		return nil
	}
	idx.list.remove(old)
	k := rankKey{points: newPoints, seq: old.seq}
	idx.keys[identity] = k
	idx.list.insert(k, identity)
	return nil
}

// PositionOf returns the identity's 1-based rank in the current ordering.
func (idx *Index) PositionOf(identity uuid.UUID) (int, error) {
	k, exists := idx.keys[identity]
	if !exists {
		return 0, ErrNotRanked
	}
	return idx.list.rank(k), nil
}

// Leaderboard returns the full ranking, most points first, as a fresh slice.
// The result is a snapshot; later updates do not disturb it.
func (idx *Index) Leaderboard() []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, idx.list.length)
	idx.list.walk(func(k rankKey, identity uuid.UUID) bool {
		entries = append(entries, models.LeaderboardEntry{
			Rank:     len(entries) + 1,
			Identity: identity,
			Points:   k.points,
		})
		return true
	})
	return entries
}

// Len returns the number of ranked identities.
func (idx *Index) Len() int {
	return idx.list.length
}
