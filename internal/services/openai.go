package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAI generates assistant replies through an OpenAI-compatible chat completion API. Pointing the
// base URL at another compatible endpoint (Gemini, a local gateway) reuses the same client.
type OpenAI struct {
	model        string
	systemPrompt string

	params LLMParameters

	client *goopenai.Client

	logger *slog.Logger
}

// WhisperTranscriber turns recordings into text with an OpenAI-compatible transcription API.
type WhisperTranscriber struct {
	model    string
	language string

	client *goopenai.Client

	logger *slog.Logger
}

// GeminiOpenAIEndpoint is Google's OpenAI-compatible endpoint for Gemini models.
const GeminiOpenAIEndpoint = "https://generativelanguage.googleapis.com/v1beta/openai/"

func newOpenAIClient(apiKey, baseURL string) *goopenai.Client {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return goopenai.NewClientWithConfig(cfg)
}

// NewOpenAI creates a new OpenAI instance with the specified API key, base URL, model name, and system prompt.
// An empty base URL selects the official OpenAI endpoint.
func NewOpenAI(apiKey, baseURL, model, systemPrompt string, params LLMParameters, logger *slog.Logger) OpenAI {
	return OpenAI{
		model:        model,
		systemPrompt: systemPrompt,
		params:       params,
		client:       newOpenAIClient(apiKey, baseURL),
		logger:       logger.With(slog.String("module", "openai")),
	}
}

// Chat is a wrapper around the OpenAI streaming chat completion API.
func (o OpenAI) Chat(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		req := o.chatRequest(prompt)

		o.logger.Debug("Request", slog.String("model", req.Model), slog.Int("promptLength", len(prompt)))

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		stream, err := o.client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			yield("", fmt.Errorf("error sending request: %w", err))
			return
		}
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				if errors.Is(err, context.Canceled) {
					return
				}
				yield("", fmt.Errorf("error receiving response: %w", err))
				return
			}

			if len(response.Choices) == 0 {
				continue
			}

			if content := response.Choices[0].Delta.Content; content != "" {
				if !yield(content, nil) {
					return
				}
			}
		}
	}
}

func (o OpenAI) chatRequest(prompt string) goopenai.ChatCompletionRequest {
	var msgs []goopenai.ChatCompletionMessage
	if o.systemPrompt != "" {
		msgs = append(msgs, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: o.systemPrompt,
		})
	}
	msgs = append(msgs, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := goopenai.ChatCompletionRequest{
		Model:    o.model,
		Messages: msgs,
		Stream:   true,
	}

	if o.params.Temperature != nil {
		req.Temperature = *o.params.Temperature
	}
	if o.params.TopP != nil {
		req.TopP = *o.params.TopP
	}
	if o.params.MaxTokens > 0 {
		req.MaxTokens = o.params.MaxTokens
	}

	return req
}

// NewWhisperTranscriber creates a transcriber for the given model. An empty model selects whisper-1
// and an empty language lets the service detect it.
func NewWhisperTranscriber(apiKey, baseURL, model, language string, logger *slog.Logger) WhisperTranscriber {
	if model == "" {
		model = goopenai.Whisper1
	}
	return WhisperTranscriber{
		model:    model,
		language: language,
		client:   newOpenAIClient(apiKey, baseURL),
		logger:   logger.With(slog.String("module", "whisper")),
	}
}

// Transcribe sends the recording to the transcription API. filename only hints the audio format.
func (w WhisperTranscriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if filename == "" {
		filename = "recording.wav"
	}

	res, err := w.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    w.model,
		FilePath: filename,
		Reader:   audio,
		Language: w.language,
	})
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}

	w.logger.Debug("Transcription", slog.String("text", res.Text))

	return res.Text, nil
}
