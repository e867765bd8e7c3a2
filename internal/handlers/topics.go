package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MegaGrindStone/legalaid-web/internal/models"
)

// HandleSelectTopic opens the conversation for one of the predefined topics. It asks the backend about
// the topic once, stores the answer as the first assistant message and moves the session to the chat
// screen. A backend failure is only logged and the student stays on the topic screen.
//
// The handler expects a "topic_id" form field naming one of models.Topics.
func (m Main) HandleSelectTopic(w http.ResponseWriter, r *http.Request) {
	s, err := m.session(w, r)
	if err != nil {
		m.logger.Error("Failed to resolve session", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	topic, ok := models.FindTopic(r.FormValue("topic_id"))
	if !ok {
		m.logger.Error("Unknown topic", slog.String("topicID", r.FormValue("topic_id")))
		http.Error(w, "Unknown topic", http.StatusNotFound)
		return
	}

	if err := s.TryBeginOn(models.StepTopics); err != nil {
		m.respond(w, r, s, http.StatusConflict)
		return
	}

	reply, err := m.backend.QueryTopic(r.Context(), models.TopicRequest{
		TopicID:     topic.ID,
		Description: topic.Description,
	})
	if err != nil {
		m.logger.Error("Error querying topic",
			slog.String("topicID", topic.ID),
			slog.String(errLoggerKey, err.Error()))
	} else {
		s.Append(models.NewAIMessage(reply))
		m.enterChat(r.Context(), s, topic.ID, reply, false)
	}
	s.End()

	m.respond(w, r, s, http.StatusOK)
}

// HandleSearch starts a chat from a question typed on the topic screen. Blank questions are ignored.
func (m Main) HandleSearch(w http.ResponseWriter, r *http.Request) {
	s, err := m.session(w, r)
	if err != nil {
		m.logger.Error("Failed to resolve session", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	query := r.FormValue("query")
	if strings.TrimSpace(query) == "" {
		m.respond(w, r, s, http.StatusOK)
		return
	}

	if err := s.TryBeginOn(models.StepTopics); err != nil {
		m.respond(w, r, s, http.StatusConflict)
		return
	}
	m.enterChat(r.Context(), s, models.CustomQueryTopicID, query, false)
	s.End()

	m.respond(w, r, s, http.StatusOK)
}

// HandleTopicVoice starts a chat from a spoken question. The recording arrives as the multipart
// field "audio_data" and is relayed to the backend for transcription; the text is then handled like a
// typed question. A failed transcription appends an assistant error message instead.
func (m Main) HandleTopicVoice(w http.ResponseWriter, r *http.Request) {
	s, err := m.session(w, r)
	if err != nil {
		m.logger.Error("Failed to resolve session", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := s.TryBeginOn(models.StepTopics); err != nil {
		m.respond(w, r, s, http.StatusConflict)
		return
	}

	text, err := m.transcribe(w, r)
	if err != nil {
		m.logger.Error("Error transcribing voice query", slog.String(errLoggerKey, err.Error()))
		s.Append(models.NewAIMessage(models.TranscriptionApology))
	} else {
		m.enterChat(r.Context(), s, models.CustomQueryTopicID, text, true)
	}
	s.End()

	m.respond(w, r, s, http.StatusOK)
}

// enterChat moves the session to the chat screen. A fresh conversation has its initial query sent
// right away; a custom query that could not be seeded is left in the input for the student to send.
// The caller must hold the session's request slot.
func (m Main) enterChat(ctx context.Context, s *models.Session, topicID, query string, voice bool) {
	s.Select(topicID, query, voice)

	if text, ok := s.SeedInitialQuery(); ok {
		m.reply(ctx, s, text, nil)
		return
	}
	if topicID == models.CustomQueryTopicID {
		s.SetDraft(query, voice)
	}
}
