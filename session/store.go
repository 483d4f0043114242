package session

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store keeps every live session in memory
type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*Controller
	converter  Converter
	jobs       JobTracker
	defaultDPI int
	now        func() time.Time
}

// NewStore creates an empty store. jobs may be nil.
func NewStore(converter Converter, jobs JobTracker, defaultDPI int) *Store {
	return &Store{
		sessions:   make(map[string]*Controller),
		converter:  converter,
		jobs:       jobs,
		defaultDPI: defaultDPI,
		now:        time.Now,
	}
}

// Create starts a new session
func (s *Store) Create() *Controller {
	c := NewController(ulid.Make().String(), s.converter, s.jobs, s.defaultDPI)
	c.now = s.now
	c.touch()

	s.mu.Lock()
	s.sessions[c.id] = c
	s.mu.Unlock()

	Logger.Debug("Session created", "session", c.id)
	return c
}

// Get looks up a session by ID
func (s *Store) Get(id string) (*Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// Delete drops a session and everything it holds
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Len is the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions unused for longer than idle and returns how many were removed
func (s *Store) Sweep(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, c := range s.sessions {
		if c.LastUsed().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		Logger.Info("Swept idle sessions", "removed", removed, "remaining", len(s.sessions))
	}
	return removed
}
