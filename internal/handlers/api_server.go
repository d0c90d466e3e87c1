// internal/handlers/api_server.go
package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/rankboard/internal/events"
	"github.com/jason-s-yu/rankboard/internal/registry"
)

// Server bundles the registry core with its boundary collaborators. Handlers
// are methods returning http.HandlerFunc so routes can be wired in main.
type Server struct {
	Registry *registry.Registry
	Events   *events.Fanout
	Logger   *logrus.Logger

	// AccessKeyHash is the argon2id-encoded operator access key. Session
	// issuance is refused when it is empty.
	AccessKeyHash string
}

// NewServer wires a Server around an existing registry and event fanout.
func NewServer(reg *registry.Registry, ev *events.Fanout, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	return &Server{
		Registry: reg,
		Events:   ev,
		Logger:   logger,
	}
}
