// internal/leaderboard/skiplist.go
package leaderboard

import (
	"math/rand"

	"github.com/google/uuid"
)

const (
	maxLevel    = 32
	levelChance = 0.25
)

// rankKey is the total ordering the index maintains: more points first, and
// among equal points the earlier registration sequence first. The sequence is
// assigned once at registration and never changes, so the tie-break survives
// any number of remove/reinsert cycles.
type rankKey struct {
	points int64
	seq    uint64
}

// before reports whether a orders ahead of b in the leaderboard.
func (a rankKey) before(b rankKey) bool {
	if a.points != b.points {
		return a.points > b.points
	}
	return a.seq < b.seq
}

type skipNode struct {
	key      rankKey
	identity uuid.UUID
	next     []*skipNode
	// width[i] is the number of level-0 links skipped by next[i],
	// counting the landing node. Summing widths along a search path
	// yields the node's 1-based rank.
	width []int
}

// skiplist is an indexable skip list over rankKeys. Insert, remove, and rank
// are O(log n) expected; a full in-order walk is O(n) over level 0.
type skiplist struct {
	head   *skipNode
	level  int
	length int
	rng    *rand.Rand
}

func newSkiplist(seed int64) *skiplist {
	return &skiplist{
		head: &skipNode{
			next:  make([]*skipNode, maxLevel),
			width: make([]int, maxLevel),
		},
		level: 1,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (s *skiplist) randomLevel() int {
	lvl := 1
	for lvl < maxLevel && s.rng.Float64() < levelChance {
		lvl++
	}
	return lvl
}

// insert adds a node for the given key. Keys are unique by construction
// (every identity holds exactly one (points, seq) pair at a time).
func (s *skiplist) insert(k rankKey, identity uuid.UUID) {
	update := make([]*skipNode, maxLevel)
	rank := make([]int, maxLevel)

	x := s.head
	for i := s.level - 1; i >= 0; i-- {
		if i == s.level-1 {
			rank[i] = 0
		} else {
			rank[i] = rank[i+1]
		}
		for x.next[i] != nil && x.next[i].key.before(k) {
			rank[i] += x.width[i]
			x = x.next[i]
		}
		update[i] = x
	}

	lvl := s.randomLevel()
	if lvl > s.level {
		for i := s.level; i < lvl; i++ {
			rank[i] = 0
			update[i] = s.head
			update[i].width[i] = s.length
		}
		s.level = lvl
	}

	n := &skipNode{
		key:      k,
		identity: identity,
		next:     make([]*skipNode, lvl),
		width:    make([]int, lvl),
	}
	for i := 0; i < lvl; i++ {
		n.next[i] = update[i].next[i]
		update[i].next[i] = n
		n.width[i] = update[i].width[i] - (rank[0] - rank[i])
		update[i].width[i] = (rank[0] - rank[i]) + 1
	}
	for i := lvl; i < s.level; i++ {
		update[i].width[i]++
	}
	s.length++
}

// remove deletes the node with the given key, returning false if absent.
func (s *skiplist) remove(k rankKey) bool {
	update := make([]*skipNode, maxLevel)

	x := s.head
	for i := s.level - 1; i >= 0; i-- {
		for x.next[i] != nil && x.next[i].key.before(k) {
			x = x.next[i]
		}
		update[i] = x
	}

	x = x.next[0]
	if x == nil || x.key != k {
		return false
	}
	for i := 0; i < s.level; i++ {
		if update[i].next[i] == x {
			update[i].width[i] += x.width[i] - 1
			update[i].next[i] = x.next[i]
		} else {
			update[i].width[i]--
		}
	}
	for s.level > 1 && s.head.next[s.level-1] == nil {
		s.level--
	}
	s.length--
	return true
}

// rank returns the 1-based position of the node with the given key, or 0 if
// the key is not present.
func (s *skiplist) rank(k rankKey) int {
	x := s.head
	r := 0
	for i := s.level - 1; i >= 0; i-- {
		for x.next[i] != nil && !k.before(x.next[i].key) {
			r += x.width[i]
			x = x.next[i]
		}
		if x != s.head && x.key == k {
			return r
		}
	}
	return 0
}

// walk calls fn for every node in leaderboard order. fn returning false
// stops the walk early.
func (s *skiplist) walk(fn func(k rankKey, identity uuid.UUID) bool) {
	for x := s.head.next[0]; x != nil; x = x.next[0] {
		if !fn(x.key, x.identity) {
			return
		}
	}
}
