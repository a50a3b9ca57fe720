package memory

import (
	"sync"

	"quizterios-service/internal/app"
)

// SessionStore keeps one game session per connected client, keyed by the
// connection's session id.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[string]*app.Session{}}
}

// GetOrCreate returns the live session for id, creating a fresh game in the
// start phase on first use.
func (s *SessionStore) GetOrCreate(id string) *app.Session {
	if session, ok := s.Get(id); ok {
		return session
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check: another caller may have created it between the two locks.
	if session, ok := s.sessions[id]; ok {
		return session
	}
	session := app.NewSession(id)
	s.sessions[id] = session
	return session
}

func (s *SessionStore) Get(id string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	return session, ok
}

// Delete forgets the session. Unknown ids are ignored.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
