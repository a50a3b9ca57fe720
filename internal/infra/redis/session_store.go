package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"quizterios-service/internal/app"
	"quizterios-service/internal/infra/memory"
)

const sessionKeyPrefix = "quizterios:session:"

// SessionStore serves game sessions from process memory and mirrors a
// liveness marker per session into Redis so live games can be counted
// across instances (SCAN quizterios:session:*).
// Markers expire after ttl without activity; every lookup refreshes them.
type SessionStore struct {
	local  *memory.SessionStore
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		local:  memory.NewSessionStore(),
		client: client,
		ttl:    ttl,
	}
}

func (s *SessionStore) GetOrCreate(sessionID string) *app.Session {
	session, existed := s.local.Get(sessionID)
	if !existed {
		session = s.local.GetOrCreate(sessionID)
	}
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), sessionKey(sessionID), session.CreatedAt().UTC().Format(time.RFC3339), s.ttl).Err()
	return session
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	session, ok := s.local.Get(sessionID)
	if ok {
		_ = s.client.Expire(context.Background(), sessionKey(sessionID), s.ttl).Err()
	}
	return session, ok
}

func (s *SessionStore) Delete(sessionID string) {
	if _, ok := s.local.Get(sessionID); !ok {
		return
	}
	s.local.Delete(sessionID)
	_ = s.client.Del(context.Background(), sessionKey(sessionID)).Err()
}

// Len counts the sessions served by this instance only.
func (s *SessionStore) Len() int {
	return s.local.Len()
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}
