package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreMirrorsLiveness(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	session := store.GetOrCreate("s-1")
	if !mr.Exists("quizterios:session:s-1") {
		t.Fatalf("expected liveness marker")
	}
	if ttl := mr.TTL("quizterios:session:s-1"); ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %v", ttl)
	}

	mr.FastForward(40 * time.Second)
	if got, ok := store.Get("s-1"); !ok || got != session {
		t.Fatalf("expected local session")
	}
	if ttl := mr.TTL("quizterios:session:s-1"); ttl != time.Minute {
		t.Fatalf("expected lookup to refresh ttl, got %v", ttl)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}

	store.Delete("s-1")
	if mr.Exists("quizterios:session:s-1") {
		t.Fatalf("expected marker removed")
	}
	if _, ok := store.Get("s-1"); ok {
		t.Fatalf("expected local session removed")
	}
}

func TestSessionStoreSurvivesRedisOutage(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	store := NewSessionStore(client, time.Minute)
	mr.Close()

	session := store.GetOrCreate("s-1")
	if got, ok := store.Get("s-1"); !ok || got != session {
		t.Fatalf("expected session served from memory while redis is down")
	}
}
