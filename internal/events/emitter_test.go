// internal/events/emitter_test.go
package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanoutDeliversInOrder(t *testing.T) {
	f := NewFanout(nil)
	sub, cancel := f.Subscribe(8)
	defer cancel()

	id := uuid.New()
	f.Emit(UserRegistered(id, "Alice"))
	f.Emit(UserLoggedIn(id))
	f.Emit(BalanceUpdated(id, 100))

	ev := <-sub
	assert.Equal(t, TypeUserRegistered, ev.Type)
	assert.Equal(t, id, ev.Identity)
	assert.Equal(t, "Alice", ev.Payload["display_name"])

	ev = <-sub
	assert.Equal(t, TypeUserLoggedIn, ev.Type)
	assert.Nil(t, ev.Payload)

	ev = <-sub
	assert.Equal(t, TypeBalanceUpdated, ev.Type)
	assert.Equal(t, int64(100), ev.Payload["new_balance"])
}

func TestFanoutMultipleSubscribers(t *testing.T) {
	f := NewFanout(nil)
	sub1, cancel1 := f.Subscribe(4)
	sub2, cancel2 := f.Subscribe(4)
	defer cancel1()
	defer cancel2()

	id := uuid.New()
	f.Emit(UserPointsUpdated(id, 50))

	ev1 := <-sub1
	ev2 := <-sub2
	assert.Equal(t, TypeUserPointsUpdated, ev1.Type)
	assert.Equal(t, TypeUserPointsUpdated, ev2.Type)
	assert.Equal(t, int64(50), ev1.Payload["total_points"])
}

func TestFanoutDropsWhenSubscriberFull(t *testing.T) {
	f := NewFanout(nil)
	sub, cancel := f.Subscribe(1)
	defer cancel()

	id := uuid.New()
	f.Emit(UserLoggedIn(id))
	f.Emit(UserLoggedOut(id)) // buffer full, dropped

	ev := <-sub
	assert.Equal(t, TypeUserLoggedIn, ev.Type)
	select {
	case ev := <-sub:
		t.Fatalf("expected no second event, got %v", ev.Type)
	default:
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	f := NewFanout(nil)
	sub, cancel := f.Subscribe(1)

	cancel()
	cancel() // second cancel is a no-op

	_, open := <-sub
	require.False(t, open)

	// Emitting after cancel must not panic or deliver.
	f.Emit(UserLoggedIn(uuid.New()))
}
