package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/MegaGrindStone/legalaid-web/internal/models"
	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session id is unknown or its session has expired.
var ErrSessionNotFound = errors.New("session not found")

// MemorySessions keeps the flow state of every browser in memory. Nothing outlives the process.
type MemorySessions struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session

	ttl time.Duration

	logger *slog.Logger
}

// NewMemorySessions creates an empty session store. Sessions without activity for longer than ttl
// are dropped by Run.
func NewMemorySessions(ttl time.Duration, logger *slog.Logger) *MemorySessions {
	return &MemorySessions{
		sessions: make(map[string]*models.Session),
		ttl:      ttl,
		logger:   logger.With(slog.String("module", "sessions")),
	}
}

// NewSession provisions a session positioned on the topic screen.
func (m *MemorySessions) NewSession(_ context.Context) (*models.Session, error) {
	s := models.NewSession(uuid.NewString())

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return s, nil
}

// Session retrieves a session by identifier and records the access.
func (m *MemorySessions) Session(_ context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	s.Touch(time.Now())
	return s, nil
}

// Len returns the number of live sessions.
func (m *MemorySessions) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

// Sweep drops sessions idle since before now minus the store's ttl and returns how many were removed.
func (m *MemorySessions) Sweep(now time.Time) int {
	cutoff := now.Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.IdleSince(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done.
func (m *MemorySessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.Sweep(now); n > 0 {
				m.logger.Debug("Expired sessions removed", slog.Int("count", n))
			}
		}
	}
}
