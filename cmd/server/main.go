// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/rankboard/internal/auth"
	"github.com/jason-s-yu/rankboard/internal/database"
	"github.com/jason-s-yu/rankboard/internal/events"
	"github.com/jason-s-yu/rankboard/internal/handlers"
	"github.com/jason-s-yu/rankboard/internal/middleware"
	"github.com/jason-s-yu/rankboard/internal/registry"
)

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	ctx := context.Background()

	fanout := events.NewFanout(logger)

	// Snapshot store is optional: without DATABASE_URL the registry runs
	// memory-only and state does not survive a restart.
	var snap registry.Snapshotter
	var store *database.Store
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		var err error
		store, err = database.Connect(ctx, dsn)
		if err != nil {
			log.Fatalf("db connect error: %v", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatalf("failed to ensure schema: %v", err)
		}
		snap = store
	}

	reg := registry.New(fanout, snap, logger)
	if store != nil {
		records, err := store.LoadUsers(ctx)
		if err != nil {
			log.Fatalf("failed to load user snapshot: %v", err)
		}
		if err := reg.Load(records); err != nil {
			log.Fatalf("failed to rebuild registry: %v", err)
		}
		logger.Infof("Rebuilt registry with %d users", reg.Count())
	}

	// Redis queue publisher is optional too; it drains its own fanout
	// subscription so the registry never blocks on the network.
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		dbIdx, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
		pub, err := events.NewPublisher(addr, dbIdx, os.Getenv("EVENTS_QUEUE_NAME"), logger)
		if err != nil {
			log.Fatalf("redis connect error: %v", err)
		}
		sub, _ := fanout.Subscribe(1024)
		go pub.Run(ctx, sub)
	}

	srv := handlers.NewServer(reg, fanout, logger)
	if key := os.Getenv("REGISTRY_ACCESS_KEY"); key != "" {
		hash, err := auth.HashAccessKey(key, auth.Params)
		if err != nil {
			log.Fatalf("failed to hash access key: %v", err)
		}
		srv.AccessKeyHash = hash
	} else {
		logger.Warn("REGISTRY_ACCESS_KEY not set; session issuance is disabled")
	}

	mux := http.NewServeMux()
	logmw := middleware.LogMiddleware(logger)

	// session issuance
	mux.Handle("/session", logmw(srv.SessionHandler()))

	// mutation endpoints (identity from session token)
	mux.Handle("/user/register", logmw(srv.RegisterHandler()))
	mux.Handle("/user/login", logmw(srv.LoginHandler()))
	mux.Handle("/user/logout", logmw(srv.LogoutHandler()))
	mux.Handle("/user/balance", logmw(srv.UpdateBalanceHandler()))
	mux.Handle("/user/points", logmw(srv.UpdatePointsHandler()))

	// read endpoints
	mux.Handle("/users/", logmw(srv.UserReadHandler()))
	mux.Handle("/leaderboard", logmw(srv.LeaderboardHandler()))

	// event observer feed
	mux.Handle("/events/ws", logmw(handlers.EventsWSHandler(logger, srv)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
