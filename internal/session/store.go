package session

import (
	"sort"
	"sync"
)

// Store is a thread-safe registry of sessions keyed by document name.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Get returns the session for key, or nil.
func (s *Store) Get(key string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[key]
}

// Put registers or replaces a session.
func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Key()] = sess
}

// Upsert sets the source for key, creating the session on first sight.
func (s *Store) Upsert(key, source string) *Session {
	s.mu.Lock()
	sess, ok := s.sessions[key]
	if !ok {
		sess = New(key, source)
		s.sessions[key] = sess
		s.mu.Unlock()
		return sess
	}
	s.mu.Unlock()
	sess.SetSource(source)
	return sess
}

// Keys lists registered document keys, sorted.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.sessions))
	for k := range s.sessions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
