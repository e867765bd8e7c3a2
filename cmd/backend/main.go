package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/MegaGrindStone/legalaid-web/internal/assistant"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Failed to load .env file: %v", err)
	}

	cfgDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatal(fmt.Errorf("error getting user config dir: %w", err))
	}

	cfgFilePath := flag.String("config", filepath.Join(cfgDir, "legalaid", "backend.yaml"), "path to the config file")
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

	llm, err := cfg.LLM.llm(cfg.SystemPrompt, logger)
	if err != nil {
		log.Fatal(fmt.Errorf("error creating llm: %w", err))
	}
	transcriber, err := cfg.Transcriber.transcriber(logger)
	if err != nil {
		log.Fatal(fmt.Errorf("error creating transcriber: %w", err))
	}

	s := assistant.NewServer(llm, transcriber, cfg.MaxAudioBytes, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("Backend starting", slog.String("port", cfg.Port))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("Server error", slog.String("err", err.Error()))

	case sig := <-shutdown:
		logger.Info("Start shutdown", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", slog.String("err", err.Error()))
			if err := srv.Close(); err != nil {
				logger.Error("Forcing server close", slog.String("err", err.Error()))
			}
		}
	}
}
