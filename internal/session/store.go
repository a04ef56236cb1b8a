package session

import (
	"errors"
	"sync"
)

// ErrSessionActive is returned when a call id is already claimed by a live
// connection.
var ErrSessionActive = errors.New("session already active for call")

type Options struct {
	HistoryMax      int
	HistoryKeep     int
	DefaultLanguage string
}

// Store maps call ids to their live sessions. Only the map itself is guarded;
// each session is mutated by its owning connection alone.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	opts     Options
}

type entry struct {
	sess    *Session
	claimed bool
	once    sync.Once
}

func NewStore(opts Options) *Store {
	if opts.HistoryMax <= 0 {
		opts.HistoryMax = 20
	}
	if opts.HistoryKeep <= 0 || opts.HistoryKeep > opts.HistoryMax {
		opts.HistoryKeep = opts.HistoryMax
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "english"
	}
	return &Store{
		sessions: make(map[string]*entry),
		opts:     opts,
	}
}

// GetOrCreate returns the session for callID, creating a fresh one in
// COLLECTING state if none exists. It does not claim the session; live
// connections go through Acquire.
func (s *Store) GetOrCreate(callID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[callID]; ok {
		return e.sess
	}
	e := &entry{sess: newSession(callID, s.opts)}
	s.sessions[callID] = e
	return e.sess
}

// Acquire claims the session for callID on behalf of one connection. A
// second claim while the first is live fails with ErrSessionActive and
// leaves the existing session untouched. The returned release func removes
// the session; it is idempotent and never removes a later claim's session.
func (s *Store) Acquire(callID string) (*Session, func(), error) {
	s.mu.Lock()
	e, ok := s.sessions[callID]
	if ok && e.claimed {
		s.mu.Unlock()
		return nil, nil, ErrSessionActive
	}
	if !ok {
		e = &entry{sess: newSession(callID, s.opts)}
		s.sessions[callID] = e
	}
	e.claimed = true
	s.mu.Unlock()

	release := func() {
		e.once.Do(func() {
			s.mu.Lock()
			if s.sessions[callID] == e {
				delete(s.sessions, callID)
			}
			s.mu.Unlock()
		})
	}
	return e.sess, release, nil
}

// Get returns the live session for callID, if any.
func (s *Store) Get(callID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[callID]
	if !ok {
		return nil, false
	}
	return e.sess, true
}

// Remove deletes all state for callID regardless of any claim. Removing an
// absent id is a no-op. Connections use the release func from Acquire, which
// cannot remove a later claim.
func (s *Store) Remove(callID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, callID)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
