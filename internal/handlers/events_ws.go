// internal/handlers/events_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/rankboard/internal/events"
)

// subscriberBuffer is the per-observer event backlog. A client that cannot
// drain this many events has further events dropped, not queued.
const subscriberBuffer = 64

// EventsWSHandler streams registry notifications to a websocket observer.
// The feed is fire-and-forget and ordered identically to the serialized
// mutation order; observers must read state back through the accessors.
func EventsWSHandler(logger *logrus.Logger, srv *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"events"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "events" {
			c.Close(BadSubprotocolError, "client must speak the events subprotocol")
			return
		}

		sub, cancelSub := srv.Events.Subscribe(subscriberBuffer)
		defer cancelSub()

		logger.Infof("Event observer connected from %s", remoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Reads are only consumed to detect the client going away.
		go func() {
			defer cancel()
			for {
				if _, _, err := c.Read(ctx); err != nil {
					return
				}
			}
		}()

		writeEvents(ctx, c, sub, logger, remoteAddr)
	}
}

// writeEvents marshals each event as JSON text until the subscription or the
// connection ends.
func writeEvents(ctx context.Context, c *websocket.Conn, sub <-chan events.Event, logger *logrus.Logger, remoteAddr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Infof("Event observer %s context done", remoteAddr)
			c.Close(websocket.StatusNormalClosure, "bye")
			return
		case ev, ok := <-sub:
			if !ok {
				c.Close(websocket.StatusNormalClosure, "feed closed")
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warnf("failed to marshal event for %s: %v", remoteAddr, err)
				continue
			}
			if err := c.Write(ctx, websocket.MessageText, data); err != nil {
				logger.Infof("Event observer %s write failed: %v", remoteAddr, err)
				return
			}
		}
	}
}
