package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MegaGrindStone/legalaid-web/internal/models"
	"github.com/MegaGrindStone/legalaid-web/internal/services"
)

const (
	chatFailedBanner    = "Failed to get response from AI"
	emptyResponseBanner = "No response received from AI"
)

// HandleSend processes a chat message submitted through the "message" form field.
//
// Blank messages change nothing and never reach the backend. Otherwise the user's message is appended
// to the transcript immediately, the input is cleared, and the conversation so far (without the new
// message) is sent along as plain-text context. The reply is appended on success; on failure the error
// banner is set and exactly one apology message is appended.
func (m Main) HandleSend(w http.ResponseWriter, r *http.Request) {
	s, err := m.session(w, r)
	if err != nil {
		m.logger.Error("Failed to resolve session", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	text := r.FormValue("message")
	if strings.TrimSpace(text) == "" {
		m.respond(w, r, s, http.StatusOK)
		return
	}

	if err := s.TryBeginOn(models.StepChat); err != nil {
		m.respond(w, r, s, http.StatusConflict)
		return
	}

	prior := s.History()
	voice := s.TakeDraft(text)
	s.SetError("")
	s.Append(models.NewUserMessage(text, voice))
	m.reply(r.Context(), s, text, prior)
	s.End()

	m.respond(w, r, s, http.StatusOK)
}

// HandleChatVoice transcribes a recording made on the chat screen and places the text in the message
// input. It does not send the message.
func (m Main) HandleChatVoice(w http.ResponseWriter, r *http.Request) {
	s, err := m.session(w, r)
	if err != nil {
		m.logger.Error("Failed to resolve session", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := s.TryBeginOn(models.StepChat); err != nil {
		m.respond(w, r, s, http.StatusConflict)
		return
	}

	text, err := m.transcribe(w, r)
	if err != nil {
		m.logger.Error("Error transcribing audio", slog.String(errLoggerKey, err.Error()))
		s.SetError(models.TranscriptionFailedBanner)
	} else {
		s.SetError("")
		s.SetDraft(text, true)
	}
	s.End()

	m.respond(w, r, s, http.StatusOK)
}

// reply sends text to the backend with prior as conversation context and appends the outcome to the
// transcript. The caller must hold the session's request slot.
func (m Main) reply(ctx context.Context, s *models.Session, text string, prior []models.ChatMessage) {
	res, err := m.backend.Chat(ctx, models.ChatRequest{
		Message:             text,
		ConversationHistory: models.ConversationHistory(prior),
	})
	if err != nil {
		m.logger.Error("Error in chat exchange",
			slog.String("sessionID", s.ID),
			slog.String(errLoggerKey, err.Error()))
		s.SetError(bannerText(err))
		s.Append(models.NewAIMessage(models.ChatApology))
		return
	}

	s.Append(models.NewAIMessage(res))
}

// transcribe reads the "audio_data" field of a multipart request and relays it to the backend.
func (m Main) transcribe(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, m.maxUploadBytes)

	file, header, err := r.FormFile(models.AudioFormField)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", models.AudioFormField, err)
	}
	defer file.Close()

	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	text, err := m.backend.Transcribe(r.Context(), file, header.Filename)
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty transcription")
	}

	return text, nil
}

func bannerText(err error) string {
	var be *services.BackendError
	switch {
	case errors.As(err, &be):
		return be.Detail
	case errors.Is(err, services.ErrEmptyResponse):
		return emptyResponseBanner
	default:
		return chatFailedBanner
	}
}
