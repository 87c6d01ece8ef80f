package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"goperm/adapters/fit"
	"goperm/adapters/postgres"
	"goperm/internal/api"
	"goperm/internal/config"
	"goperm/internal/migration"
	"goperm/internal/permutation"
	"goperm/ports"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var repo ports.RunRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := migration.NewRunner().Run(context.Background(), db); err != nil {
			log.Fatalf("Migrations failed: %v", err)
		}
		repo = postgres.NewRunRepository(db)
		log.Printf("[API] run storage enabled")
	} else {
		log.Printf("[API] DATABASE_URL not set, running without run storage")
	}

	tester := permutation.New(fit.NewFitter(), permutation.Config{
		Seed:    cfg.Run.Seed,
		Workers: cfg.Run.Workers,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: api.NewServer(tester, repo).Handler(),
	}

	go func() {
		log.Printf("[API] listening on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("[API] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[API] shutdown error: %v", err)
	}
}
