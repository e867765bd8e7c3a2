package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/MegaGrindStone/legalaid-web/internal/models"
)

// Backend is the HTTP client of the legal assistant backend. Every call is a single attempt; failures
// are returned to the caller as is.
type Backend struct {
	baseURL string

	client *http.Client

	logger *slog.Logger
}

// BackendError is returned when the backend answers with a non-2xx status.
type BackendError struct {
	StatusCode int
	Detail     string
}

// ErrEmptyResponse is returned when the backend answers a chat request without any text.
var ErrEmptyResponse = errors.New("no response received from AI")

const (
	chatPath       = "/api/chat"
	transcribePath = "/api/transcribe"

	unknownErrorDetail = "Unknown error"
)

// NewBackend creates a client for the backend at baseURL. A zero timeout leaves requests bounded only
// by their context.
func NewBackend(baseURL string, timeout time.Duration, logger *slog.Logger) Backend {
	return Backend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With(slog.String("module", "backend")),
	}
}

func (e *BackendError) Error() string {
	return e.Detail
}

// Chat sends the student's message together with the flattened conversation so far and returns the
// assistant's reply.
func (b Backend) Chat(ctx context.Context, req models.ChatRequest) (string, error) {
	return b.chat(ctx, req)
}

// QueryTopic asks the backend to open the conversation about a predefined topic.
func (b Backend) QueryTopic(ctx context.Context, req models.TopicRequest) (string, error) {
	return b.chat(ctx, req)
}

func (b Backend) chat(ctx context.Context, body any) (string, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	b.logger.Debug("Request Body", slog.String("body", string(jsonBody)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+chatPath, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var res models.ChatResponse
	if err := b.do(req, &res); err != nil {
		return "", err
	}
	if res.Response == "" {
		return "", ErrEmptyResponse
	}

	return res.Response, nil
}

// Transcribe uploads a recording as the multipart field "audio_data" and returns the recognized text.
func (b Backend) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if filename == "" {
		filename = "recording.webm"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(models.AudioFormField, filename)
	if err != nil {
		return "", fmt.Errorf("error creating form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("error copying audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("error closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+transcribePath, &body)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var res models.TranscribeResponse
	if err := b.do(req, &res); err != nil {
		return "", err
	}

	return res.Transcription, nil
}

func (b Backend) do(req *http.Request, out any) error {
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	b.logger.Debug("Response",
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return backendError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}

	return nil
}

func backendError(resp *http.Response) error {
	e := &BackendError{
		StatusCode: resp.StatusCode,
		Detail:     unknownErrorDetail,
	}

	var body models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Detail != "" {
		e.Detail = body.Detail
	}

	return e
}
