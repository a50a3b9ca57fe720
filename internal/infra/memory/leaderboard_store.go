package memory

import (
	"context"
	"sync"

	"quizterios-service/internal/domain"
)

// LeaderboardStore keeps the serialized leaderboard in process memory, one
// value under domain.LeaderboardKey, the same shape the persistent stores use.
type LeaderboardStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{data: make(map[string][]byte)}
}

// NewLeaderboardStoreWithValue seeds the raw stored value (useful for tests/demos).
func NewLeaderboardStoreWithValue(raw []byte) *LeaderboardStore {
	s := NewLeaderboardStore()
	s.data[domain.LeaderboardKey] = append([]byte(nil), raw...)
	return s
}

func (s *LeaderboardStore) Load(_ context.Context) (domain.Leaderboard, error) {
	s.mu.RLock()
	raw := s.data[domain.LeaderboardKey]
	s.mu.RUnlock()
	return domain.DecodeLeaderboard(raw)
}

func (s *LeaderboardStore) Save(_ context.Context, lb domain.Leaderboard) error {
	raw, err := domain.EncodeLeaderboard(lb)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[domain.LeaderboardKey] = raw
	s.mu.Unlock()
	return nil
}

// Insert merges entry into the stored leaderboard under the store lock and
// returns the result.
func (s *LeaderboardStore) Insert(_ context.Context, entry domain.LeaderboardEntry) (domain.Leaderboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := domain.InsertIntoStored(s.data[domain.LeaderboardKey], entry)
	raw, err := domain.EncodeLeaderboard(next)
	if err != nil {
		return nil, err
	}
	s.data[domain.LeaderboardKey] = raw
	return next, nil
}

// Clear removes the stored leaderboard.
func (s *LeaderboardStore) Clear(_ context.Context) error {
	s.mu.Lock()
	delete(s.data, domain.LeaderboardKey)
	s.mu.Unlock()
	return nil
}
