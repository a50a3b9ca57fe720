package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFileWithEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: "9000"
sqlite:
  path: data/quizterios.db
gemini:
  model: gemini-2.5-pro
  timeout: 10s
leaderboard:
  locale: en-US
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GEMINI_API_KEY", "k-123")
	t.Setenv("PORT", "9100")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9100" {
		t.Fatalf("expected env port override, got %s", cfg.Server.Port)
	}
	if cfg.Gemini.APIKey != "k-123" || cfg.Gemini.Model != "gemini-2.5-pro" {
		t.Fatalf("unexpected gemini config %+v", cfg.Gemini)
	}
	if cfg.LeaderboardBackend() != BackendSQLite {
		t.Fatalf("expected sqlite backend inferred, got %s", cfg.LeaderboardBackend())
	}
	if TTLDuration(cfg.Gemini.Timeout, time.Minute) != 10*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.Gemini.Timeout)
	}
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("LEADERBOARD_BACKEND", "Redis")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LeaderboardBackend() != BackendRedis {
		t.Fatalf("expected redis backend, got %s", cfg.LeaderboardBackend())
	}
	if cfg.Gemini.APIKey != "" {
		t.Fatalf("expected no api key")
	}
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("REDIS_DB", "not-an-int")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestBackendDefaultsToMemory(t *testing.T) {
	if got := (Config{}).LeaderboardBackend(); got != BackendMemory {
		t.Fatalf("expected memory, got %s", got)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if TTLDuration("", time.Second) != time.Second || TTLDuration("bogus", time.Second) != time.Second {
		t.Fatalf("expected fallback")
	}
}
