package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quizterios-service/internal/domain"
)

// LeaderboardStore keeps the whole leaderboard as one JSON string:
// SET quizterios-leaderboard <json>
type LeaderboardStore struct {
	client *redis.Client
	key    string
}

func NewLeaderboardStore(client *redis.Client) *LeaderboardStore {
	return &LeaderboardStore{client: client, key: domain.LeaderboardKey}
}

func (s *LeaderboardStore) Load(ctx context.Context) (domain.Leaderboard, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Leaderboard{}, nil
	}
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("%w: redis get: %w", domain.ErrStorage, err)
	}
	return domain.DecodeLeaderboard(raw)
}

// Save replaces the stored value; there is no incremental append.
func (s *LeaderboardStore) Save(ctx context.Context, lb domain.Leaderboard) error {
	raw, err := domain.EncodeLeaderboard(lb)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %w", domain.ErrStorage, err)
	}
	return nil
}

// maxInsertAttempts bounds optimistic retries when another instance writes
// the leaderboard between WATCH and EXEC.
const maxInsertAttempts = 8

// Insert merges entry into the stored leaderboard with WATCH/MULTI so
// entries written by other instances are never overwritten.
func (s *LeaderboardStore) Insert(ctx context.Context, entry domain.LeaderboardEntry) (domain.Leaderboard, error) {
	var next domain.Leaderboard
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, s.key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		next = domain.InsertIntoStored(raw, entry)
		data, err := domain.EncodeLeaderboard(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, s.key)
		switch {
		case err == nil:
			return next, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, domain.ErrStorage):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: redis insert: %w", domain.ErrStorage, err)
		}
	}
	return nil, fmt.Errorf("%w: redis insert: gave up after %d conflicting writes", domain.ErrStorage, maxInsertAttempts)
}

func (s *LeaderboardStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: redis del: %w", domain.ErrStorage, err)
	}
	return nil
}
