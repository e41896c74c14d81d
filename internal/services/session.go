package services

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"alfredoptarigan/resume-matcher/internal/models"
)

const sessionTTL = 24 * time.Hour

// Session is the UI-observable state of one user's analyses.
type Session struct {
	ID        string
	Analyzing bool
	Stage     models.AnalysisStage
	Outcome   *AnalysisOutcome
	Message   string
	UpdatedAt time.Time
}

// SessionTracker owns the in-progress flag of every session. A session can
// run one analysis at a time.
type SessionTracker struct {
	mu       sync.Mutex
	sessions map[string]*Session
	notifier SessionNotifier
	now      func() time.Time
}

func NewSessionTracker(notifier SessionNotifier) *SessionTracker {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &SessionTracker{
		sessions: make(map[string]*Session),
		notifier: notifier,
		now:      time.Now,
	}
}

// TryAcquire sets the in-progress flag and clears the previous outcome. It
// returns false if the flag is already set.
func (t *SessionTracker) TryAcquire(id string) bool {
	t.mu.Lock()
	t.pruneLocked()
	s := t.sessionLocked(id)
	if s.Analyzing {
		t.mu.Unlock()
		return false
	}
	s.Analyzing = true
	s.Stage = models.StageValidating
	s.Outcome = nil
	s.Message = ""
	s.UpdatedAt = t.now()
	snapshot := *s
	t.mu.Unlock()

	t.publish(snapshot)
	return true
}

// Release clears the in-progress flag.
func (t *SessionTracker) Release(id string) {
	t.update(id, func(s *Session) {
		s.Analyzing = false
		s.Stage = models.StageIdle
	})
}

func (t *SessionTracker) SetStage(id string, stage models.AnalysisStage) {
	t.update(id, func(s *Session) {
		s.Stage = stage
	})
}

func (t *SessionTracker) Complete(id string, outcome *AnalysisOutcome) {
	t.update(id, func(s *Session) {
		s.Outcome = outcome
		s.Message = ""
	})
}

func (t *SessionTracker) Fail(id string, message string) {
	t.update(id, func(s *Session) {
		s.Outcome = nil
		s.Message = message
	})
}

// Get returns a copy of the session state.
func (t *SessionTracker) Get(id string) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[id]
	if !ok {
		return Session{ID: id, Stage: models.StageIdle}, false
	}
	return *s, true
}

func (t *SessionTracker) IsAnalyzing(id string) bool {
	s, _ := t.Get(id)
	return s.Analyzing
}

func (t *SessionTracker) update(id string, fn func(s *Session)) {
	t.mu.Lock()
	s := t.sessionLocked(id)
	fn(s)
	s.UpdatedAt = t.now()
	snapshot := *s
	t.mu.Unlock()

	t.publish(snapshot)
}

func (t *SessionTracker) sessionLocked(id string) *Session {
	s, ok := t.sessions[id]
	if !ok {
		// The tracker outlives requests, so it keeps its own copy of the key.
		id = strings.Clone(id)
		s = &Session{ID: id, Stage: models.StageIdle, UpdatedAt: t.now()}
		t.sessions[id] = s
	}
	return s
}

func (t *SessionTracker) pruneLocked() {
	cutoff := t.now().Add(-sessionTTL)
	for id, s := range t.sessions {
		if !s.Analyzing && s.UpdatedAt.Before(cutoff) {
			delete(t.sessions, id)
		}
	}
}

func (t *SessionTracker) publish(s Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := t.notifier.Publish(ctx, s); err != nil {
		log.Printf("⚠️  Failed to publish session update for %s: %v\n", s.ID, err)
	}
}

// SessionView projects a session into its API representation.
func SessionView(s Session) models.SessionResponse {
	resp := models.SessionResponse{
		ID:        s.ID,
		Analyzing: s.Analyzing,
		Stage:     string(s.Stage),
		Message:   s.Message,
	}
	if s.Outcome != nil {
		resp.Result = &models.AnalysisData{
			ScorePercent: models.RoundPercent(s.Outcome.ScorePercent),
			Suggestions:  s.Outcome.Suggestions,
		}
	}
	return resp
}
