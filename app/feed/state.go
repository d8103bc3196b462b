package feed

import (
	"log/slog"
	"sync"
	"time"
)

// Notice is the latest "using fallback" signal for the notification layer.
type Notice struct {
	UsingFallback bool      `json:"using_fallback"`
	Reason        string    `json:"reason,omitempty"`
	At            time.Time `json:"at"`
}

// State owns the current story collection. A collection is only ever
// replaced as a whole.
type State struct {
	mu         sync.RWMutex
	collection Collection
	notice     Notice
	ready      bool
}

var _ Notifier = (*State)(nil)

func NewState() *State {
	return &State{}
}

func (s *State) Replace(c Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collection = c
	s.ready = true

	slog.Info("Story collection replaced", "stories", len(c.Stories), "fallback", c.Fallback)
}

// Snapshot returns the current collection and whether any load has completed.
func (s *State) Snapshot() (Collection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection, s.ready
}

func (s *State) Notify(usingFallback bool, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = Notice{UsingFallback: usingFallback, Reason: reason, At: time.Now().UTC()}
}

func (s *State) Notice() Notice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notice
}
