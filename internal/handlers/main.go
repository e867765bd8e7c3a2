package handlers

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	legalaid "github.com/MegaGrindStone/legalaid-web"
	"github.com/MegaGrindStone/legalaid-web/internal/models"
)

// Backend is the legal assistant service the UI forwards every request to. Intent classification,
// reply generation and transcription all happen behind it.
type Backend interface {
	Chat(ctx context.Context, req models.ChatRequest) (string, error)
	QueryTopic(ctx context.Context, req models.TopicRequest) (string, error)
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// Sessions defines where the flow state of each browser lives. Session returns an error for unknown
// or expired ids.
type Sessions interface {
	NewSession(ctx context.Context) (*models.Session, error)
	Session(ctx context.Context, id string) (*models.Session, error)
}

// Options tunes the UI handlers.
type Options struct {
	// MaxUploadBytes bounds the size of a voice recording accepted from the browser.
	MaxUploadBytes int64
	// RecordingLimit is how long the browser records before stopping on its own.
	RecordingLimit time.Duration
}

// Main serves the pages of the legal assistant: topic selection, chat, local resources and action
// steps. It renders HTML on the server and keeps the flow of every browser in a Session.
type Main struct {
	templates *template.Template

	backend  Backend
	sessions Sessions

	maxUploadBytes int64
	recordingLimit time.Duration

	logger *slog.Logger
}

const (
	errLoggerKey = "err"

	sessionCookieName = "legalaid_session"

	// fetchHeader is set by static/app.js; such requests get the re-rendered screen instead of a
	// redirect.
	fetchHeader = "X-Requested-With"
	fetchValue  = "fetch"

	defaultMaxUploadBytes = 10 << 20
	defaultRecordingLimit = 30 * time.Second
)

// NewMain creates a new Main instance with the provided Backend and Sessions implementations. It parses
// the required HTML templates from the embedded filesystem.
func NewMain(backend Backend, sessions Sessions, opts Options, logger *slog.Logger) (Main, error) {
	// We parse templates from three distinct directories to separate layout, pages, and partial views
	tmpl, err := template.ParseFS(
		legalaid.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return Main{}, fmt.Errorf("failed to parse templates: %w", err)
	}

	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.RecordingLimit <= 0 {
		opts.RecordingLimit = defaultRecordingLimit
	}

	return Main{
		templates:      tmpl,
		backend:        backend,
		sessions:       sessions,
		maxUploadBytes: opts.MaxUploadBytes,
		recordingLimit: opts.RecordingLimit,
		logger:         logger.With(slog.String("module", "handlers")),
	}, nil
}

// lookupSession returns the session named by the request cookie, if it is still live.
func (m Main) lookupSession(r *http.Request) (*models.Session, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil, false
	}

	s, err := m.sessions.Session(r.Context(), c.Value)
	if err != nil {
		m.logger.Debug("Session not usable",
			slog.String("sessionID", c.Value),
			slog.String(errLoggerKey, err.Error()))
		return nil, false
	}
	return s, true
}

// session returns the session named by the request cookie, creating a new one (and setting the
// cookie) when there is none or it has expired.
func (m Main) session(w http.ResponseWriter, r *http.Request) (*models.Session, error) {
	if s, ok := m.lookupSession(r); ok {
		return s, nil
	}

	s, err := m.sessions.NewSession(r.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return s, nil
}

// respond finishes a screen action: script-driven requests get the re-rendered screen with status,
// plain form posts are redirected back to the page.
func (m Main) respond(w http.ResponseWriter, r *http.Request, s *models.Session, status int) {
	if r.Header.Get(fetchHeader) != fetchValue {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	m.render(w, "screen", s, status)
}

func (m Main) render(w http.ResponseWriter, name string, s *models.Session, status int) {
	data, err := m.pageData(s.View())
	if err != nil {
		m.logger.Error("Failed to prepare page data",
			slog.String("sessionID", s.ID),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// We render into a buffer first so a template failure can still produce a clean 500
	var buf bytes.Buffer
	if err := m.templates.ExecuteTemplate(&buf, name, data); err != nil {
		m.logger.Error("Failed to execute template",
			slog.String("template", name),
			slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
