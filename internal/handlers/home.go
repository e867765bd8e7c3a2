package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MegaGrindStone/legalaid-web/internal/models"
)

type message struct {
	IsAI      bool
	Text      string
	HTML      template.HTML
	Timestamp string
	Time      string
	IsVoice   bool
}

type resource struct {
	models.Resource
	PhoneURL template.URL
}

type homePageData struct {
	Step models.Step

	Topics    []models.Topic
	Resources []resource

	TopicID      string
	TopicHeading string
	TopicTitle   string
	Messages     []message
	LastAnswer   template.HTML

	Draft   string
	Error   string
	Loading bool

	RecordingSeconds int
	MicDeniedText    string
	TranscribeText   string
}

const messageTimeLayout = "3:04:05 PM"

// HandleHome renders the page for the screen the session is currently on. Visitors without a session
// see the topic screen; their session is created by the first action they take.
func (m Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	s, ok := m.lookupSession(r)
	if !ok {
		s = models.NewSession("")
	}

	m.render(w, "home.html", s, http.StatusOK)
}

// HandleCompleteChat leaves the chat for the local resources screen.
func (m Main) HandleCompleteChat(w http.ResponseWriter, r *http.Request) {
	m.advance(w, r, models.StepChat, models.StepResources)
}

// HandleCompleteResources leaves the local resources for the action steps screen.
func (m Main) HandleCompleteResources(w http.ResponseWriter, r *http.Request) {
	m.advance(w, r, models.StepResources, models.StepActions)
}

// HandleReset clears the transcript and goes back to topic selection.
func (m Main) HandleReset(w http.ResponseWriter, r *http.Request) {
	s, err := m.session(w, r)
	if err != nil {
		m.logger.Error("Failed to resolve session", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := s.TryBegin(); err != nil {
		m.respond(w, r, s, http.StatusConflict)
		return
	}
	s.Reset()
	s.End()

	m.respond(w, r, s, http.StatusOK)
}

// HandleHealth reports that the UI server is up.
func (m Main) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// advance moves the session from one screen to the next.
func (m Main) advance(w http.ResponseWriter, r *http.Request, from, to models.Step) {
	s, err := m.session(w, r)
	if err != nil {
		m.logger.Error("Failed to resolve session", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := s.TryBeginOn(from); err != nil {
		m.respond(w, r, s, http.StatusConflict)
		return
	}
	s.Advance(to)
	s.End()

	m.respond(w, r, s, http.StatusOK)
}

func (m Main) pageData(v models.SessionView) (homePageData, error) {
	data := homePageData{
		Step:             v.Step,
		Topics:           models.Topics(),
		Resources:        resourceViews(models.Resources()),
		TopicID:          v.TopicID,
		TopicHeading:     topicHeading(v.TopicID),
		TopicTitle:       topicTitle(v.TopicID),
		Draft:            v.Draft,
		Error:            v.ErrorBanner,
		Loading:          v.Loading,
		RecordingSeconds: int(m.recordingLimit / time.Second),
		MicDeniedText:    models.MicrophoneDeniedBanner,
		TranscribeText:   models.TranscriptionFailedBanner,
	}

	data.Messages = make([]message, len(v.History))
	for i, msg := range v.History {
		mv, err := messageView(msg)
		if err != nil {
			return homePageData{}, err
		}
		data.Messages[i] = mv
		if mv.IsAI {
			data.LastAnswer = mv.HTML
		}
	}

	return data, nil
}

func messageView(msg models.ChatMessage) (message, error) {
	mv := message{
		IsAI:      msg.Type == models.MessageTypeAI,
		Text:      msg.Content,
		Timestamp: msg.Timestamp.Format(time.RFC3339),
		Time:      msg.Timestamp.Local().Format(messageTimeLayout),
		IsVoice:   msg.IsVoice,
	}
	if mv.IsAI {
		html, err := models.RenderMarkdown(msg.Content)
		if err != nil {
			return message{}, err
		}
		mv.HTML = html
	}
	return mv, nil
}

func resourceViews(rs []models.Resource) []resource {
	views := make([]resource, len(rs))
	for i, r := range rs {
		views[i] = resource{Resource: r, PhoneURL: phoneURL(r.Phone)}
	}
	return views
}

// phoneURL builds a tel: link from a display number, keeping only digits and a leading plus.
func phoneURL(phone string) template.URL {
	digits := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '+' {
			return r
		}
		return -1
	}, phone)
	return template.URL("tel:" + digits)
}

// topicHeading formats a topic id for the chat header, "tenant-rights" becomes "TENANT RIGHTS".
func topicHeading(topicID string) string {
	return strings.ToUpper(strings.ReplaceAll(topicID, "-", " "))
}

func topicTitle(topicID string) string {
	if t, ok := models.FindTopic(topicID); ok {
		return t.Title
	}
	return "Your Question"
}
