// internal/events/emitter.go
package events

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Emitter receives one notification per applied mutation, in the same order
// the mutations were serialized. Emit must not block the caller.
type Emitter interface {
	Emit(ev Event)
}

// Fanout delivers events to any number of subscriber channels. A subscriber
// that falls behind has events dropped rather than stalling the registry;
// the registry's admission lock is held while Emit runs, so a blocking send
// here would serialize every caller behind the slowest observer.
type Fanout struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	logger *logrus.Logger
}

// NewFanout returns a Fanout with no subscribers.
func NewFanout(logger *logrus.Logger) *Fanout {
	if logger == nil {
		logger = logrus.New()
	}
	return &Fanout{
		subs:   make(map[int]chan Event),
		logger: logger,
	}
}

// Subscribe registers a new observer channel with the given buffer size and
// returns it along with a cancel function. Cancel closes the channel; the
// observer must stop reading after calling it.
func (f *Fanout) Subscribe(buffer int) (<-chan Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	ch := make(chan Event, buffer)
	f.subs[id] = ch

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Emit sends the event to every subscriber without blocking. Events dropped
// for a full subscriber are logged and lost; state is always re-readable
// through the registry.
func (f *Fanout) Emit(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, ch := range f.subs {
		select {
		case ch <- ev:
		default:
			f.logger.WithFields(logrus.Fields{
				"subscriber": id,
				"type":       ev.Type,
				"identity":   ev.Identity,
			}).Warn("event subscriber full, dropping event")
		}
	}
}
