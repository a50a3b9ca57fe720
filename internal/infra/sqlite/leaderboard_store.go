// Package sqlite provides a SQLite-backed key/value leaderboard store for
// single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"quizterios-service/internal/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
)`

// LeaderboardStore persists the serialized leaderboard under one key.
type LeaderboardStore struct {
	sqlDB *sql.DB
	key   string
}

// Open opens (or creates) the database file and ensures the schema.
func Open(path string) (*LeaderboardStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if err := os.MkdirAll(filepath.Dir(filepath.Clean(path)), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &LeaderboardStore{sqlDB: sqlDB, key: domain.LeaderboardKey}, nil
}

// Close closes the SQLite handle.
func (s *LeaderboardStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *LeaderboardStore) Load(ctx context.Context) (domain.Leaderboard, error) {
	var raw []byte
	err := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, s.key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Leaderboard{}, nil
	}
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("%w: read leaderboard: %w", domain.ErrStorage, err)
	}
	return domain.DecodeLeaderboard(raw)
}

const upsertSQL = `INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`

func (s *LeaderboardStore) Save(ctx context.Context, lb domain.Leaderboard) error {
	raw, err := domain.EncodeLeaderboard(lb)
	if err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, upsertSQL, s.key, raw); err != nil {
		return fmt.Errorf("%w: write leaderboard: %w", domain.ErrStorage, err)
	}
	return nil
}

// Insert reads, merges and writes the leaderboard in one immediate
// transaction, so concurrent writers on the same file serialize.
func (s *LeaderboardStore) Insert(ctx context.Context, entry domain.LeaderboardEntry) (domain.Leaderboard, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin insert: %w", domain.ErrStorage, err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw []byte
	err = tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, s.key).Scan(&raw)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: read leaderboard: %w", domain.ErrStorage, err)
	}
	next := domain.InsertIntoStored(raw, entry)
	data, err := domain.EncodeLeaderboard(next)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, upsertSQL, s.key, data); err != nil {
		return nil, fmt.Errorf("%w: write leaderboard: %w", domain.ErrStorage, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit insert: %w", domain.ErrStorage, err)
	}
	return next, nil
}

func (s *LeaderboardStore) Clear(ctx context.Context) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, s.key); err != nil {
		return fmt.Errorf("%w: clear leaderboard: %w", domain.ErrStorage, err)
	}
	return nil
}
