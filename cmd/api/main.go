package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"endpoint-monitor/config"
	"endpoint-monitor/internals/app"
	"endpoint-monitor/internals/server"
	"endpoint-monitor/pkg/db"
	"endpoint-monitor/pkg/logger"

	"golang.org/x/sync/errgroup"
)

func main() {
	// Load envs
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "env.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	// ctx is cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Base/global logger
	log := logger.Init(cfg)
	log.Info().Msg("logger initialized")

	// Initialize DB Pool
	dbPool, err := db.ConnectToDB(ctx, &cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize db pool")
	}
	log.Info().Msg("database pool initialized")

	// Inject Dependencies
	container, err := app.NewContainer(ctx, dbPool, cfg, log)
	if err != nil {
		dbPool.Close()
		log.Fatal().Err(err).Msg("failed to initialize dependencies")
	}
	log.Info().Msg("dependencies initialized")

	// event workers and the check scheduler
	container.Start()

	router := app.RegisterRoutes(container)
	srv := server.New(fmt.Sprintf(":%d", cfg.Port), router, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutdown signal received")

		// 30s budget for the HTTP server, the in-flight tick and the infra
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// 1. Stop HTTP server (stop accepting requests)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}

		// 2. Shutdown background workers & infra
		return container.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("service stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("graceful shutdown complete")
}
