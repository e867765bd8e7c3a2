// Package assistant implements the legal assistant backend consumed by the web UI: a chat endpoint
// that wraps the student's words into a legal-assistant prompt and a transcription endpoint for voice
// input.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/MegaGrindStone/legalaid-web/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// LLM generates a reply for a fully built prompt, streaming it in chunks.
type LLM interface {
	Chat(ctx context.Context, prompt string) iter.Seq2[string, error]
}

// Transcriber turns a recording into text. filename carries the extension of the audio format.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// Server serves the backend API.
type Server struct {
	llm         LLM
	transcriber Transcriber

	maxAudioBytes int64
	now           func() time.Time

	logger *slog.Logger
}

type chatRequest struct {
	Message             string `json:"message"`
	ConversationHistory string `json:"conversation_history"`
	TopicID             string `json:"topicId"`
	Description         string `json:"description"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

const errLoggerKey = "err"

// DefaultMaxAudioBytes bounds the size of an uploaded recording.
const DefaultMaxAudioBytes = 10 << 20

// NewServer creates the backend API. transcriber may be nil, in which case /api/transcribe answers
// 503. A non-positive maxAudioBytes selects DefaultMaxAudioBytes.
func NewServer(llm LLM, transcriber Transcriber, maxAudioBytes int64, logger *slog.Logger) *Server {
	if maxAudioBytes <= 0 {
		maxAudioBytes = DefaultMaxAudioBytes
	}
	return &Server{
		llm:           llm,
		transcriber:   transcriber,
		maxAudioBytes: maxAudioBytes,
		now:           time.Now,
		logger:        logger.With(slog.String("module", "assistant")),
	}
}

// Routes returns the HTTP handler of the API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/", s.handleHealth)
	r.Route("/api", func(api chi.Router) {
		api.Post("/chat", s.handleChat)
		api.Post("/transcribe", s.handleTranscribe)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{Status: "ok", Message: "Server is running"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Topic selections arrive with an empty message; the topic description stands in for it.
	message := req.Message
	if strings.TrimSpace(message) == "" {
		message = req.Description
	}
	if strings.TrimSpace(message) == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	s.logger.Info("Received chat request",
		slog.String("message", message),
		slog.String("topicId", req.TopicID),
		slog.Int("historyLength", len(req.ConversationHistory)))

	prompt := ContextPrompt(message, req.ConversationHistory, s.now())

	reply, err := collect(r.Context(), s.llm.Chat(r.Context(), prompt))
	if err != nil {
		s.logger.Error("Error in chat endpoint", slog.String(errLoggerKey, err.Error()))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, models.ChatResponse{Response: reply})
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if s.transcriber == nil {
		respondError(w, http.StatusServiceUnavailable, "transcription is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxAudioBytes)

	audio, filename, err := s.readAudio(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "audio data is too large")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Info("Received audio data for transcription",
		slog.String("filename", filename),
		slog.Int("size", len(audio)))

	text, err := s.transcriber.Transcribe(r.Context(), bytes.NewReader(audio), filename)
	if err != nil {
		s.logger.Error("Error in transcribe endpoint", slog.String(errLoggerKey, err.Error()))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, models.TranscribeResponse{Transcription: text})
}

// readAudio accepts either a multipart form carrying the audio_data field or a raw audio body.
func (s *Server) readAudio(r *http.Request) ([]byte, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		audio    []byte
		filename string
		err      error
	)
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(s.maxAudioBytes); err != nil {
			return nil, "", fmt.Errorf("failed to parse multipart form: %w", err)
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile(models.AudioFormField)
		if err != nil {
			return nil, "", fmt.Errorf("%s file is required", models.AudioFormField)
		}
		defer file.Close()

		audio, err = io.ReadAll(file)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read audio: %w", err)
		}
		filename = header.Filename
		if filename == "" || filename == "blob" {
			filename = audioFilename(header.Header.Get("Content-Type"))
		}
	} else {
		audio, err = io.ReadAll(r.Body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read audio: %w", err)
		}
		filename = audioFilename(mediaType)
	}

	if len(audio) == 0 {
		return nil, "", errors.New("audio data is required")
	}

	return audio, filename, nil
}

// audioFilename maps an audio media type to a file name whose extension the transcriber recognizes.
// Unknown types are treated as WAV.
func audioFilename(contentType string) string {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "audio/webm", "video/webm":
		return "recording.webm"
	case "audio/ogg":
		return "recording.ogg"
	case "audio/mpeg", "audio/mp3":
		return "recording.mp3"
	case "audio/mp4", "audio/x-m4a":
		return "recording.m4a"
	default:
		return "recording.wav"
	}
}

func collect(ctx context.Context, it iter.Seq2[string, error]) (string, error) {
	var sb strings.Builder
	for chunk, err := range it {
		if err != nil {
			return "", err
		}
		sb.WriteString(chunk)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, models.ErrorResponse{Detail: detail})
}
