package models

import (
	"errors"
	"slices"
	"sync"
	"time"
)

// Step is the screen a session is currently on.
type Step string

const (
	StepTopics    Step = "topics"
	StepChat      Step = "chat"
	StepResources Step = "resources"
	StepActions   Step = "actions"
)

// ErrBusy is returned by Session.TryBegin when another request of the same session is still waiting
// for the backend.
var ErrBusy = errors.New("a request is already in progress")

// ErrWrongStep is returned by Session.TryBeginOn when the session is on another screen than the
// action belongs to.
var ErrWrongStep = errors.New("action is not available on the current screen")

// Session holds the flow state of one browser: the screen it is on, the chosen topic and the shared
// transcript. All methods are safe for concurrent use.
type Session struct {
	ID string

	mu             sync.Mutex
	step           Step
	topicID        string
	initialQuery   string
	initialVoice   bool
	hasSentInitial bool
	history        []ChatMessage
	draft          string
	draftVoice     bool
	errorBanner    string
	loading        bool
	lastSeen       time.Time
}

// SessionView is an immutable snapshot of a session used for rendering.
type SessionView struct {
	ID          string
	Step        Step
	TopicID     string
	History     []ChatMessage
	Draft       string
	ErrorBanner string
	Loading     bool
}

// NewSession returns a session positioned on the topic screen.
func NewSession(id string) *Session {
	return &Session{
		ID:       id,
		step:     StepTopics,
		lastSeen: time.Now(),
	}
}

// TryBegin marks the session as waiting for the backend. It returns ErrBusy if a request is already
// in flight. Every successful call must be paired with End.
func (s *Session) TryBegin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading {
		return ErrBusy
	}
	s.loading = true
	return nil
}

// TryBeginOn is TryBegin for actions that belong to one screen. It returns ErrWrongStep, without
// marking the session as loading, when the session is not on step.
func (s *Session) TryBeginOn(step Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading {
		return ErrBusy
	}
	if s.step != step {
		return ErrWrongStep
	}
	s.loading = true
	return nil
}

// End clears the loading flag set by TryBegin.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = false
}

// Touch records activity on the session.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = now
}

// IdleSince reports whether the session has seen no activity after t.
func (s *Session) IdleSince(t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.loading && s.lastSeen.Before(t)
}

// Append adds messages to the end of the transcript.
func (s *Session) Append(msgs ...ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, msgs...)
}

// History returns a copy of the transcript.
func (s *Session) History() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.history)
}

// Select moves the session to the chat screen for the given topic. initialQuery is either the
// student's own question (custom queries) or the assistant's answer to a topic selection.
func (s *Session) Select(topicID, initialQuery string, voice bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.step = StepChat
	s.topicID = topicID
	s.initialQuery = initialQuery
	s.initialVoice = voice
	s.hasSentInitial = false
	s.errorBanner = ""
}

// SeedInitialQuery appends the initial query as the first user message when the transcript is still
// empty and the query has not been sent yet. It returns the query and true when the caller must now
// send it to the backend; a query is handed out at most once.
func (s *Session) SeedInitialQuery() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialQuery == "" || len(s.history) > 0 || s.hasSentInitial {
		return "", false
	}
	s.hasSentInitial = true
	s.history = append(s.history, NewUserMessage(s.initialQuery, s.initialVoice))
	return s.initialQuery, true
}

// SetDraft replaces the content of the chat input. voice marks a draft that came from a
// transcription.
func (s *Session) SetDraft(draft string, voice bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft = draft
	s.draftVoice = voice
}

// TakeDraft clears the chat input and reports whether text matches a transcribed draft.
func (s *Session) TakeDraft(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	voice := s.draftVoice && s.draft == text
	s.draft = ""
	s.draftVoice = false
	return voice
}

// SetError sets the banner shown above the transcript. An empty string hides it.
func (s *Session) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errorBanner = msg
}

// Advance moves the session to the given screen.
func (s *Session) Advance(step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.step = step
	s.errorBanner = ""
}

// Reset returns the session to the topic screen with an empty transcript.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.step = StepTopics
	s.topicID = ""
	s.initialQuery = ""
	s.initialVoice = false
	s.hasSentInitial = false
	s.history = nil
	s.draft = ""
	s.draftVoice = false
	s.errorBanner = ""
}

// View returns a snapshot of the session.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionView{
		ID:          s.ID,
		Step:        s.step,
		TopicID:     s.topicID,
		History:     slices.Clone(s.history),
		Draft:       s.draft,
		ErrorBanner: s.errorBanner,
		Loading:     s.loading,
	}
}
