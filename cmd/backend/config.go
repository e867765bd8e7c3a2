package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/MegaGrindStone/legalaid-web/internal/assistant"
	"github.com/MegaGrindStone/legalaid-web/internal/services"
	"gopkg.in/yaml.v3"
)

type llmConfig interface {
	llm(systemPrompt string, logger *slog.Logger) (assistant.LLM, error)
}

// BaseLLMConfig contains the common fields for all LLM configurations.
type BaseLLMConfig struct {
	Provider   string                 `yaml:"provider"`
	Model      string                 `yaml:"model"`
	Parameters services.LLMParameters `yaml:"parameters"`
}

type config struct {
	Port          string
	SystemPrompt  string
	MaxAudioBytes int64
	LLM           llmConfig
	Transcriber   *transcriberConfig
	Log           logConfig
}

type ollamaConfig struct {
	BaseLLMConfig `yaml:",inline"`
	Host          string `yaml:"host"`
}

type openaiConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
	BaseURL       string `yaml:"baseURL"`
}

type geminiConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
}

type anthropicConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
}

type openrouterConfig struct {
	BaseLLMConfig `yaml:",inline"`
	APIKey        string `yaml:"apiKey"`
}

type transcriberConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
	APIKey   string `yaml:"apiKey"`
	BaseURL  string `yaml:"baseURL"`
}

type logConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	defaultPort         = "8000"
	defaultOllamaModel  = "llama3.2"
	defaultSystemPrompt = "You are a legal information assistant for college students. " +
		"You give general legal information, not legal advice."
)

func (c *config) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig struct {
		Port          string             `yaml:"port"`
		SystemPrompt  string             `yaml:"systemPrompt"`
		MaxAudioBytes int64              `yaml:"maxAudioBytes"`
		LLM           map[string]any     `yaml:"llm"`
		Transcriber   *transcriberConfig `yaml:"transcriber"`
		Log           logConfig          `yaml:"log"`
	}

	if err := value.Decode(&rawConfig); err != nil {
		return err
	}

	c.Port = rawConfig.Port
	c.SystemPrompt = rawConfig.SystemPrompt
	c.MaxAudioBytes = rawConfig.MaxAudioBytes
	c.Transcriber = rawConfig.Transcriber
	c.Log = rawConfig.Log

	if rawConfig.LLM == nil {
		return nil
	}

	llmProvider, ok := rawConfig.LLM["provider"].(string)
	if !ok {
		return fmt.Errorf("llm provider is required")
	}

	llmRawYAML, err := yaml.Marshal(rawConfig.LLM)
	if err != nil {
		return err
	}

	var llm llmConfig
	switch llmProvider {
	case "ollama":
		llm = &ollamaConfig{}
	case "openai":
		llm = &openaiConfig{}
	case "gemini":
		llm = &geminiConfig{}
	case "anthropic":
		llm = &anthropicConfig{}
	case "openrouter":
		llm = &openrouterConfig{}
	default:
		return fmt.Errorf("unknown llm provider: %s", llmProvider)
	}

	if err := yaml.Unmarshal(llmRawYAML, llm); err != nil {
		return err
	}

	c.LLM = llm

	return nil
}

// loadConfig reads the YAML file at path and fills in defaults. A missing file leaves everything at
// its default: a local Ollama model and no transcriber.
func loadConfig(path string) (config, error) {
	var cfg config

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

	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	if cfg.MaxAudioBytes <= 0 {
		cfg.MaxAudioBytes = assistant.DefaultMaxAudioBytes
	}
	if cfg.LLM == nil {
		cfg.LLM = &ollamaConfig{BaseLLMConfig: BaseLLMConfig{Provider: "ollama", Model: defaultOllamaModel}}
	}
	if cfg.Transcriber == nil && os.Getenv("OPENAI_API_KEY") != "" {
		cfg.Transcriber = &transcriberConfig{Provider: "openai"}
	}

	return cfg, nil
}

func envFallback(value, key string) string {
	if value != "" {
		return value
	}
	return os.Getenv(key)
}

func (o ollamaConfig) llm(systemPrompt string, logger *slog.Logger) (assistant.LLM, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	return services.NewOllama(envFallback(o.Host, "OLLAMA_HOST"), o.Model, systemPrompt, o.Parameters, logger)
}

func (o openaiConfig) llm(systemPrompt string, logger *slog.Logger) (assistant.LLM, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	apiKey := envFallback(o.APIKey, "OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	return services.NewOpenAI(apiKey, o.BaseURL, o.Model, systemPrompt, o.Parameters, logger), nil
}

func (g geminiConfig) llm(systemPrompt string, logger *slog.Logger) (assistant.LLM, error) {
	if g.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	apiKey := envFallback(g.APIKey, "GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	return services.NewOpenAI(apiKey, services.GeminiOpenAIEndpoint, g.Model, systemPrompt, g.Parameters, logger), nil
}

func (a anthropicConfig) llm(systemPrompt string, logger *slog.Logger) (assistant.LLM, error) {
	if a.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	apiKey := envFallback(a.APIKey, "ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	return services.NewAnthropic(apiKey, a.Model, systemPrompt, a.Parameters, logger), nil
}

func (o openrouterConfig) llm(systemPrompt string, logger *slog.Logger) (assistant.LLM, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	apiKey := envFallback(o.APIKey, "OPENROUTER_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("openrouter api key is required")
	}
	return services.NewOpenRouter(apiKey, o.Model, systemPrompt, o.Parameters, logger), nil
}

// transcriber returns nil when no transcriber is configured, the backend then answers 503 on
// /api/transcribe.
func (t *transcriberConfig) transcriber(logger *slog.Logger) (assistant.Transcriber, error) {
	if t == nil {
		return nil, nil
	}

	switch t.Provider {
	case "", "openai":
		apiKey := envFallback(t.APIKey, "OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("openai api key is required for transcription")
		}
		return services.NewWhisperTranscriber(apiKey, t.BaseURL, t.Model, t.Language, logger), nil
	default:
		return nil, fmt.Errorf("unknown transcriber provider: %s", t.Provider)
	}
}

func (l logConfig) handler() (slog.Handler, error) {
	level := slog.LevelInfo
	if l.Level != "" {
		if err := level.UnmarshalText([]byte(l.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", l.Level, err)
		}
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
