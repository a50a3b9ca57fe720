package redis

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizterios-service/internal/domain"
)

func TestLeaderboardStorePersistsInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewLeaderboardStore(newClient(mr))

	lb, err := store.Load(ctx)
	if err != nil || len(lb) != 0 {
		t.Fatalf("expected empty leaderboard on missing key, got %+v err=%v", lb, err)
	}

	want := domain.InsertEntry(nil, domain.LeaderboardEntry{PlayerName: "Ana", Score: 2, DateLabel: "01/06/2025", CreatedAtMs: 10})
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, err := mr.Get(domain.LeaderboardKey)
	if err != nil {
		t.Fatalf("expected key in redis: %v", err)
	}
	if raw != `[{"name":"Ana","score":2,"date":"01/06/2025","timestamp":10}]` {
		t.Fatalf("unexpected stored value %s", raw)
	}

	got, err := store.Load(ctx)
	if err != nil || len(got) != 1 || got[0] != want[0] {
		t.Fatalf("unexpected loaded leaderboard %+v err=%v", got, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists(domain.LeaderboardKey) {
		t.Fatalf("expected key removed")
	}
}

func TestLeaderboardStoreCorruptValue(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	if err := mr.Set(domain.LeaderboardKey, "{broken"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store := NewLeaderboardStore(newClient(mr))
	if _, err := store.Load(context.Background()); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestLeaderboardStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	store := NewLeaderboardStore(client)
	if err := store.Save(context.Background(), domain.Leaderboard{}); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
