package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"

	"github.com/tmaxmax/go-sse"
)

// Anthropic provides an interface to the Anthropic API for large language model interactions. It
// streams message completions and yields the text deltas.
type Anthropic struct {
	apiKey       string
	model        string
	systemPrompt string
	endpoint     string

	params LLMParameters

	client *http.Client

	logger *slog.Logger
}

type anthropicChatRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float32           `json:"temperature,omitempty"`
	TopP        *float32           `json:"top_p,omitempty"`
	Stream      bool               `json:"stream"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicStreamResponse struct {
	Type  string `json:"type"`
	Delta struct {
		Text string `json:"text"`
	} `json:"delta"`
}

type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

const (
	anthropicAPIEndpoint = "https://api.anthropic.com/v1"

	anthropicDefaultMaxTokens = 1024
)

// NewAnthropic creates a new Anthropic instance with the specified API key, model name and system
// prompt. The max token limit defaults to 1024 when params leave it unset.
func NewAnthropic(apiKey, model, systemPrompt string, params LLMParameters, logger *slog.Logger) Anthropic {
	return Anthropic{
		apiKey:       apiKey,
		model:        model,
		systemPrompt: systemPrompt,
		endpoint:     anthropicAPIEndpoint,
		params:       params,
		client:       &http.Client{},
		logger:       logger.With(slog.String("module", "anthropic")),
	}
}

// WithEndpoint returns a copy of a that talks to endpoint instead of the public API.
func (a Anthropic) WithEndpoint(endpoint string) Anthropic {
	a.endpoint = endpoint
	return a
}

// Chat streams responses from the Anthropic API for prompt. It returns an iterator that yields
// response chunks and potential errors. The context can be used to cancel ongoing requests.
func (a Anthropic) Chat(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		maxTokens := a.params.MaxTokens
		if maxTokens <= 0 {
			maxTokens = anthropicDefaultMaxTokens
		}

		reqBody := anthropicChatRequest{
			Model: a.model,
			Messages: []anthropicMessage{
				{
					Role:    "user",
					Content: prompt,
				},
			},
			Stream:      true,
			System:      a.systemPrompt,
			MaxTokens:   maxTokens,
			Temperature: a.params.Temperature,
			TopP:        a.params.TopP,
		}

		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			yield("", fmt.Errorf("error marshaling request: %w", err))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			a.endpoint+"/messages", bytes.NewBuffer(jsonBody))
		if err != nil {
			yield("", fmt.Errorf("error creating request: %w", err))
			return
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", a.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")

		resp, err := a.client.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			yield("", fmt.Errorf("error sending request: %w", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			yield("", fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body)))
			return
		}

		for ev, err := range sse.Read(resp.Body, nil) {
			if err != nil {
				yield("", fmt.Errorf("error reading response: %w", err))
				return
			}
			switch ev.Type {
			case "error":
				var e anthropicError
				if err := json.Unmarshal([]byte(ev.Data), &e); err != nil {
					yield("", fmt.Errorf("error unmarshaling error: %w", err))
					return
				}
				yield("", fmt.Errorf("anthropic error %s: %s", e.Error.Type, e.Error.Message))
				return
			case "message_stop":
				return
			case "content_block_delta":
				var res anthropicStreamResponse
				if err := json.Unmarshal([]byte(ev.Data), &res); err != nil {
					yield("", fmt.Errorf("error unmarshaling response: %w", err))
					return
				}
				if !yield(res.Delta.Text, nil) {
					return
				}
			default:
				a.logger.Debug("Skipping event", slog.String("type", ev.Type))
				continue
			}
		}
	}
}
