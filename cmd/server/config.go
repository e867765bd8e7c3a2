package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type config struct {
	Port           string        `yaml:"port"`
	BackendURL     string        `yaml:"backendURL"`
	BackendTimeout time.Duration `yaml:"backendTimeout"`
	MaxUploadBytes int64         `yaml:"maxUploadBytes"`
	RecordingLimit time.Duration `yaml:"recordingLimit"`
	SessionTTL     time.Duration `yaml:"sessionTTL"`
	Log            logConfig     `yaml:"log"`
}

type logConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaultConfig() config {
	return config{
		Port:           "8080",
		BackendURL:     "http://localhost:8000",
		BackendTimeout: 60 * time.Second,
		MaxUploadBytes: 10 << 20,
		RecordingLimit: 30 * time.Second,
		SessionTTL:     2 * time.Hour,
		Log: logConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// loadConfig reads the YAML file at path on top of the defaults. A missing file is not an error.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return config{}, fmt.Errorf("error opening config file: %w", err)
	default:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return config{}, fmt.Errorf("error decoding config file: %w", err)
		}
	}

	if u := os.Getenv("LEGALAID_BACKEND_URL"); u != "" {
		cfg.BackendURL = u
	}
	if cfg.Port == "" {
		return config{}, fmt.Errorf("port is required")
	}

	return cfg, nil
}

func (l logConfig) handler() (slog.Handler, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(l.Format) {
	case "", "text":
		return slog.NewTextHandler(os.Stderr, opts), nil
	case "json":
		return slog.NewJSONHandler(os.Stderr, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", l.Format)
	}
}
