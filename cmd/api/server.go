package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/MatteoGuidii/MoneyMosaic-sub000/internal/interfaces/scheduler"
)

// StartServer creates and starts the HTTP server in a background goroutine.
func StartServer(addr string, handler http.Handler) *http.Server {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("HTTP server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	return srv
}

// GracefulShutdown stops the scheduler, the HTTP server and telemetry in order.
func GracefulShutdown(srv *http.Server, sched *scheduler.Scheduler, telemetryShutdown func(context.Context) error, timeout time.Duration) {
	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Scheduler first so no new sync jobs start while the server drains.
	if sched != nil {
		sched.Shutdown(timeout)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	if telemetryShutdown != nil {
		if err := telemetryShutdown(ctx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}

	log.Println("Server stopped")
}
