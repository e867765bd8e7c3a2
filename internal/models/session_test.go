package models_test

import (
	"errors"
	"testing"
	"time"

	"github.com/MegaGrindStone/legalaid-web/internal/models"
)

func TestSessionTryBegin(t *testing.T) {
	s := models.NewSession("s1")

	if err := s.TryBegin(); err != nil {
		t.Fatalf("TryBegin() error = %v", err)
	}
	if !s.View().Loading {
		t.Error("session should be loading after TryBegin()")
	}
	if err := s.TryBegin(); !errors.Is(err, models.ErrBusy) {
		t.Errorf("second TryBegin() error = %v, want %v", err, models.ErrBusy)
	}

	s.End()
	if err := s.TryBegin(); err != nil {
		t.Errorf("TryBegin() after End() error = %v", err)
	}
}

func TestSessionTryBeginOn(t *testing.T) {
	s := models.NewSession("s1")

	if err := s.TryBeginOn(models.StepChat); !errors.Is(err, models.ErrWrongStep) {
		t.Fatalf("TryBeginOn(chat) on topics error = %v, want %v", err, models.ErrWrongStep)
	}
	if s.View().Loading {
		t.Error("a rejected TryBeginOn() must not mark the session as loading")
	}

	if err := s.TryBeginOn(models.StepTopics); err != nil {
		t.Fatalf("TryBeginOn(topics) error = %v", err)
	}
	if err := s.TryBeginOn(models.StepTopics); !errors.Is(err, models.ErrBusy) {
		t.Errorf("TryBeginOn() while loading error = %v, want %v", err, models.ErrBusy)
	}
	s.End()
}

func TestSessionSeedInitialQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		prepare  func(s *models.Session)
		wantOK   bool
		wantSize int
	}{
		{
			name:     "Fresh conversation",
			query:    "My landlord won't fix the heater",
			wantOK:   true,
			wantSize: 1,
		},
		{
			name:     "Empty query",
			query:    "",
			wantOK:   false,
			wantSize: 0,
		},
		{
			name:  "History already present",
			query: "Can I protest on campus?",
			prepare: func(s *models.Session) {
				s.Append(models.NewAIMessage("Hello"))
			},
			wantOK:   false,
			wantSize: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := models.NewSession("s1")
			if tt.prepare != nil {
				tt.prepare(s)
			}
			s.Select(models.CustomQueryTopicID, tt.query, true)

			text, ok := s.SeedInitialQuery()
			if ok != tt.wantOK {
				t.Fatalf("SeedInitialQuery() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && text != tt.query {
				t.Errorf("SeedInitialQuery() = %q, want %q", text, tt.query)
			}
			if n := len(s.History()); n != tt.wantSize {
				t.Errorf("history = %d messages, want %d", n, tt.wantSize)
			}
			if ok && !s.History()[0].IsVoice {
				t.Error("seeded message should keep the voice flag")
			}
		})
	}
}

func TestSessionSeedInitialQueryOnce(t *testing.T) {
	s := models.NewSession("s1")
	s.Select(models.CustomQueryTopicID, "What do I do after a crash?", false)

	if _, ok := s.SeedInitialQuery(); !ok {
		t.Fatal("first SeedInitialQuery() should succeed")
	}
	if _, ok := s.SeedInitialQuery(); ok {
		t.Error("second SeedInitialQuery() should not hand out the query again")
	}
	if n := len(s.History()); n != 1 {
		t.Errorf("history = %d messages, want 1", n)
	}
}

func TestSessionTakeDraft(t *testing.T) {
	s := models.NewSession("s1")

	s.SetDraft("transcribed text", true)
	if !s.TakeDraft("transcribed text") {
		t.Error("TakeDraft() should report a voice draft sent unchanged")
	}
	if d := s.View().Draft; d != "" {
		t.Errorf("draft = %q, want empty", d)
	}

	s.SetDraft("transcribed text", true)
	if s.TakeDraft("edited text") {
		t.Error("TakeDraft() should not report an edited draft as voice")
	}
}

func TestSessionAdvanceAndReset(t *testing.T) {
	s := models.NewSession("s1")
	s.Select("car-accident", "answer", false)
	s.Append(models.NewAIMessage("answer"))
	s.SetError("boom")

	s.Advance(models.StepResources)
	v := s.View()
	if v.Step != models.StepResources || v.ErrorBanner != "" {
		t.Errorf("after Advance() step = %q banner = %q", v.Step, v.ErrorBanner)
	}
	if len(v.History) != 1 {
		t.Errorf("Advance() should keep the history, got %d messages", len(v.History))
	}

	s.SetDraft("draft", false)
	s.Reset()
	v = s.View()
	if v.Step != models.StepTopics || v.TopicID != "" || len(v.History) != 0 || v.Draft != "" {
		t.Errorf("after Reset() view = %+v", v)
	}
}

func TestSessionIdleSince(t *testing.T) {
	s := models.NewSession("s1")
	now := time.Now()
	s.Touch(now)

	if s.IdleSince(now.Add(-time.Minute)) {
		t.Error("session touched after the cutoff should not be idle")
	}
	if !s.IdleSince(now.Add(time.Minute)) {
		t.Error("session touched before the cutoff should be idle")
	}

	if err := s.TryBegin(); err != nil {
		t.Fatal(err)
	}
	if s.IdleSince(now.Add(time.Minute)) {
		t.Error("a loading session should never be idle")
	}
}

func TestSessionViewIsSnapshot(t *testing.T) {
	s := models.NewSession("s1")
	s.Append(models.NewUserMessage("one", false))

	v := s.View()
	s.Append(models.NewAIMessage("two"))

	if len(v.History) != 1 {
		t.Errorf("view history = %d messages, want 1", len(v.History))
	}
}
