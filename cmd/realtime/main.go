package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"

	"codepair/realtime/internal/auth"
	"codepair/realtime/internal/config"
	"codepair/realtime/internal/doc"
	"codepair/realtime/internal/docsync"
	"codepair/realtime/internal/presence"
	"codepair/realtime/internal/server"
	"codepair/realtime/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	var (
		sessions store.SessionStore
		ping     func(context.Context) error
		closeFn  func() error
	)
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for session code storage")
		redisStore, err := store.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		sessions, ping, closeFn = redisStore, redisStore.Ping, redisStore.Close
	} else {
		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		sessions, ping, closeFn = pgStore, pgStore.Ping, pgStore.Close
	}
	defer closeFn()

	registry := doc.NewRegistry(doc.Options{
		Store:         sessions,
		Clock:         clock.New(),
		FlushInterval: cfg.FlushInterval,
		EvictAfter:    cfg.EvictAfter,
		LoadTimeout:   cfg.LoadTimeout,
	})
	verifier := auth.NewVerifier(cfg.JWTSecret)

	handler := server.New(
		docsync.NewHandler(registry, verifier, cfg.RequireSyncAuth, cfg.FrontendOrigin),
		presence.NewHandler(presence.NewHub(), verifier, cfg.FrontendOrigin),
		ping,
	)

	// No read/write timeouts: both channels are long-lived websockets.
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Realtime server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	// Persist whatever the debounce windows were still holding.
	registry.FlushAll()
}
