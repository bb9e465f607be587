package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"picotask-rush-backend/pkg/config"
	"picotask-rush-backend/pkg/database"
	"picotask-rush-backend/pkg/notify"
	"picotask-rush-backend/pkg/payments"
	"picotask-rush-backend/pkg/router"
)

func main() {
	cfg := config.GetCached()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	store, err := newStore(cfg)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	defer store.Close()

	intents := payments.NewStripeClient(cfg.StripeSecretKey)

	dispatcher := notify.NewDispatcher(notify.NewNotifier(cfg), 4)
	defer dispatcher.StopWait()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg, store, intents, dispatcher),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("PicoTask Rush running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// newStore backs the service with Postgres when a DSN is configured,
// otherwise with the in-memory store for local development.
func newStore(cfg *config.Config) (database.Store, error) {
	if cfg.PostgresDSN == "" {
		log.Println("POSTGRES_DSN not set, using in-memory store")
		return database.NewMemoryStore(), nil
	}

	if err := database.RunMigrations(cfg.PostgresDSN); err != nil {
		return nil, err
	}
	return database.NewPostgresStore(cfg.PostgresDSN)
}
