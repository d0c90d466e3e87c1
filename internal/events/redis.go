// internal/events/redis.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list external consumers drain for registry
// notifications.
var DefaultQueueName = "rankboard_events"

// Publisher pushes registry events onto a Redis list so out-of-process
// observers (indexers, bots, dashboards) can consume them at their own pace.
type Publisher struct {
	rdb    *redis.Client
	queue  string
	logger *logrus.Logger
}

// NewPublisher connects a Redis client and verifies it with a short ping.
func NewPublisher(addr string, db int, queue string, logger *logrus.Logger) (*Publisher, error) {
	if queue == "" {
		queue = DefaultQueueName
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &Publisher{rdb: rdb, queue: queue, logger: logger}, nil
}

// Run drains the given subscription into the Redis queue until ctx is done.
// A single goroutine does all pushes, so queue order matches emit order.
// Push failures are logged and skipped; the stream is fire-and-forget.
func (p *Publisher) Run(ctx context.Context, evs <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-evs:
			if !ok {
				return
			}
			if err := p.publish(ctx, ev); err != nil {
				p.logger.WithFields(logrus.Fields{
					"type":     ev.Type,
					"identity": ev.Identity,
				}).Warnf("failed to publish event: %v", err)
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}
