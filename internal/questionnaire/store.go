package questionnaire

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrSessionExists is returned when a candidate already has a session.
	ErrSessionExists = errors.New("session already exists")
	// ErrNoSession is returned when a candidate has no live session.
	ErrNoSession = errors.New("no session")
)

// Store keeps sessions keyed by candidate id. Work on one session is
// serialized by that session's own lock; different candidates never wait for
// each other beyond the short map lookup.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*slot
}

type slot struct {
	mu      sync.Mutex
	session *Session
	removed bool
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*slot)}
}

// Create registers a new session.
func (s *Store) Create(session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; ok {
		return ErrSessionExists
	}
	s.sessions[session.ID] = &slot{session: session}
	return nil
}

// With runs fn while holding the lock of the session with the given id.
func (s *Store) With(id string, fn func(*Session) error) error {
	s.mu.Lock()
	sl, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return ErrNoSession
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	// Taken while we were waiting for the lock.
	if sl.removed {
		return ErrNoSession
	}
	return fn(sl.session)
}

// Take removes the session and returns it. It waits for any in-flight With on
// the same session to finish.
func (s *Store) Take(id string) (*Session, bool) {
	s.mu.Lock()
	sl, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.removed = true
	return sl.session, true
}

// TakeIf removes and returns the session only when cond holds for it. cond
// runs under the session lock, so no event can slip in between the check and
// the removal.
func (s *Store) TakeIf(id string, cond func(*Session) bool) (*Session, bool) {
	s.mu.Lock()
	sl, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.removed || !cond(sl.session) {
		return nil, false
	}

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	sl.removed = true
	return sl.session, true
}

// Idle returns ids of sessions not updated since before. Sessions busy with
// an in-flight event are not idle and are skipped.
func (s *Store) Idle(before time.Time) []string {
	s.mu.Lock()
	slots := make(map[string]*slot, len(s.sessions))
	for id, sl := range s.sessions {
		slots[id] = sl
	}
	s.mu.Unlock()

	var ids []string
	for id, sl := range slots {
		if !sl.mu.TryLock() {
			continue
		}
		if !sl.removed && sl.session.UpdatedAt.Before(before) {
			ids = append(ids, id)
		}
		sl.mu.Unlock()
	}

	sort.Strings(ids)
	return ids
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
