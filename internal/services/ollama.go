package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// Ollama generates assistant replies with a model served by an Ollama instance.
type Ollama struct {
	host         string
	model        string
	systemPrompt string

	params LLMParameters

	client *api.Client

	logger *slog.Logger
}

// DefaultOllamaHost is the address a local Ollama server listens on.
const DefaultOllamaHost = "http://127.0.0.1:11434"

// NewOllama creates a new Ollama instance with the specified host URL and model name. The host
// parameter should be a valid URL pointing to an Ollama server; an empty host selects
// DefaultOllamaHost.
func NewOllama(host, model, systemPrompt string, params LLMParameters, logger *slog.Logger) (Ollama, error) {
	if host == "" {
		host = DefaultOllamaHost
	}
	u, err := url.Parse(host)
	if err != nil {
		return Ollama{}, fmt.Errorf("invalid ollama host %q: %w", host, err)
	}

	return Ollama{
		host:         host,
		model:        model,
		systemPrompt: systemPrompt,
		params:       params,
		client:       api.NewClient(u, &http.Client{}),
		logger:       logger.With(slog.String("module", "ollama")),
	}, nil
}

// Chat streams the model's answer to prompt. The iterator yields response chunks as they arrive and
// stops early if the consumer stops iterating.
func (o Ollama) Chat(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var msgs []api.Message
		if o.systemPrompt != "" {
			msgs = append(msgs, api.Message{
				Role:    "system",
				Content: o.systemPrompt,
			})
		}
		msgs = append(msgs, api.Message{
			Role:    "user",
			Content: prompt,
		})

		t := true
		req := api.ChatRequest{
			Model:    o.model,
			Messages: msgs,
			Stream:   &t,
			Options:  o.options(),
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		if err := o.client.Chat(ctx, &req, func(res api.ChatResponse) error {
			if !yield(res.Message.Content, nil) {
				cancel()
			}
			return nil
		}); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			yield("", fmt.Errorf("error sending request: %w", err))
		}
	}
}

func (o Ollama) options() map[string]any {
	opts := map[string]any{}
	if o.params.Temperature != nil {
		opts["temperature"] = *o.params.Temperature
	}
	if o.params.TopP != nil {
		opts["top_p"] = *o.params.TopP
	}
	if o.params.MaxTokens > 0 {
		opts["num_predict"] = o.params.MaxTokens
	}
	if len(opts) == 0 {
		return nil
	}
	return opts
}
