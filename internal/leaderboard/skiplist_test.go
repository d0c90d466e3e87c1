// internal/leaderboard/skiplist_test.go
package leaderboard

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSkiplistOrderingAndRanks(t *testing.T) {
	s := newSkiplist(1)

	keys := []rankKey{
		{points: 10, seq: 0},
		{points: 10, seq: 1},
		{points: 50, seq: 2},
		{points: 0, seq: 3},
		{points: 50, seq: 0},
	}
	for _, k := range keys {
		s.insert(k, uuid.New())
	}
	require.Equal(t, 5, s.length)

	// Expected order: 50/0, 50/2, 10/0, 10/1, 0/3.
	expected := []rankKey{
		{points: 50, seq: 0},
		{points: 50, seq: 2},
		{points: 10, seq: 0},
		{points: 10, seq: 1},
		{points: 0, seq: 3},
	}
	var got []rankKey
	s.walk(func(k rankKey, _ uuid.UUID) bool {
		got = append(got, k)
		return true
	})
	require.Equal(t, expected, got)

	for i, k := range expected {
		require.Equal(t, i+1, s.rank(k), "key %+v", k)
	}
}

func TestSkiplistRemove(t *testing.T) {
	s := newSkiplist(2)
	a := rankKey{points: 5, seq: 0}
	b := rankKey{points: 3, seq: 1}
	s.insert(a, uuid.New())
	s.insert(b, uuid.New())

	require.False(t, s.remove(rankKey{points: 99, seq: 0}))
	require.True(t, s.remove(a))
	require.False(t, s.remove(a))
	require.Equal(t, 1, s.length)
	require.Equal(t, 1, s.rank(b))
	require.Equal(t, 0, s.rank(a))
}

func TestSkiplistWalkEarlyStop(t *testing.T) {
	s := newSkiplist(3)
	for i := 0; i < 10; i++ {
		s.insert(rankKey{points: int64(i), seq: uint64(i)}, uuid.New())
	}
	n := 0
	s.walk(func(rankKey, uuid.UUID) bool {
		n++
		return n < 3
	})
	require.Equal(t, 3, n)
}

// TestSkiplistRandomAgainstOracle hammers insert/remove/rank with random keys
// and checks every result against a sorted-slice oracle.
func TestSkiplistRandomAgainstOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	s := newSkiplist(12)

	var keys []rankKey
	var seq uint64

	sortedKeys := func() []rankKey {
		sorted := make([]rankKey, len(keys))
		copy(sorted, keys)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].before(sorted[j]) })
		return sorted
	}

	for step := 0; step < 5000; step++ {
		if len(keys) == 0 || rng.Intn(3) > 0 {
			k := rankKey{points: int64(rng.Intn(50)), seq: seq}
			seq++
			s.insert(k, uuid.New())
			keys = append(keys, k)
		} else {
			i := rng.Intn(len(keys))
			k := keys[i]
			require.True(t, s.remove(k))
			keys = append(keys[:i], keys[i+1:]...)
		}

		if step%250 == 0 {
			require.Equal(t, len(keys), s.length)
			for i, k := range sortedKeys() {
				require.Equal(t, i+1, s.rank(k))
			}
		}
	}
}
