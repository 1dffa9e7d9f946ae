package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schoolyard.org/internal/httpapi"
	"schoolyard.org/internal/obs"
	"schoolyard.org/internal/school"
	"schoolyard.org/internal/store/pg"
)

var version = "0.3.0"

func main() {
	obs.Init()

	addr := os.Getenv("SCHOOLYARD_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	// With a DSN the API runs on PostgreSQL; without one it falls back to
	// the in-memory store, which is enough for local development.
	var (
		store school.Store
		db    *sql.DB
	)
	if dsn := os.Getenv("SCHOOLYARD_PG_DSN"); dsn != "" {
		pgStore, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		store = pgStore
		db = pgStore.DB()
	} else {
		log.Print("SCHOOLYARD_PG_DSN not set, using in-memory store")
		store = school.NewInMemory()
	}

	api, err := httpapi.New(httpapi.Config{
		Store:   store,
		Ready:   httpapi.ReadyProbe{DB: db},
		Version: version,
	})
	if err != nil {
		log.Fatalf("init api: %v", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting schoolyard-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
