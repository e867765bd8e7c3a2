package handlers

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	legalaid "github.com/MegaGrindStone/legalaid-web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes wires the UI pages, screen actions and embedded static assets into one handler.
func (m Main) Routes() (http.Handler, error) {
	staticFS, err := fs.Sub(legalaid.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to open static files: %w", err)
	}
	fileServer := http.FileServer(http.FS(staticFS))

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(m.logRequests)
	r.Use(middleware.Recoverer)

	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	r.Get("/", m.HandleHome)
	r.Get("/healthz", m.HandleHealth)

	r.Route("/topics", func(tr chi.Router) {
		tr.Post("/select", m.HandleSelectTopic)
		tr.Post("/search", m.HandleSearch)
		tr.Post("/voice", m.HandleTopicVoice)
	})
	r.Route("/chat", func(cr chi.Router) {
		cr.Post("/send", m.HandleSend)
		cr.Post("/voice", m.HandleChatVoice)
		cr.Post("/complete", m.HandleCompleteChat)
	})
	r.Post("/resources/complete", m.HandleCompleteResources)
	r.Post("/reset", m.HandleReset)

	return r, nil
}

func (m Main) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		m.logger.Debug("Handled request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("requestID", middleware.GetReqID(r.Context())),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)))
	})
}
