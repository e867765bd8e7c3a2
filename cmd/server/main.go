package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/MegaGrindStone/legalaid-web/internal/handlers"
	"github.com/MegaGrindStone/legalaid-web/internal/services"
)

const sessionSweepInterval = time.Minute

func main() {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatal(fmt.Errorf("error getting user config dir: %w", err))
	}

	cfgFilePath := flag.String("config", filepath.Join(cfgDir, "legalaid", "config.yaml"), "path to the config file")
	flag.Parse()

	cfg, err := loadConfig(*cfgFilePath)
	if err != nil {
		log.Fatal(err)
	}

	h, err := cfg.Log.handler()
	if err != nil {
		log.Fatal(err)
	}
	logger := slog.New(h)

	backend := services.NewBackend(cfg.BackendURL, cfg.BackendTimeout, logger)
	sessions := services.NewMemorySessions(cfg.SessionTTL, logger)

	m, err := handlers.NewMain(backend, sessions, handlers.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		RecordingLimit: cfg.RecordingLimit,
	}, logger)
	if err != nil {
		panic(err)
	}

	router, err := m.Routes()
	if err != nil {
		panic(err)
	}

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	go sessions.Run(sweepCtx, sessionSweepInterval)

	// Create custom server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv.RegisterOnShutdown(sweepCancel)

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("Server starting",
			slog.String("port", cfg.Port),
			slog.String("backendURL", cfg.BackendURL))
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt/terminate signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("Server error", slog.String("err", err.Error()))

	case sig := <-shutdown:
		logger.Info("Start shutdown", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Gracefully shutdown the server
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", slog.String("err", err.Error()))
			if err := srv.Close(); err != nil {
				logger.Error("Forcing server close", slog.String("err", err.Error()))
			}
		}
	}
}
