package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizterios-service/internal/domain"
)

// LeaderboardStore keeps one row per leaderboard position. Save rewrites the
// whole table in a single transaction so readers never see a partial board.
type LeaderboardStore struct {
	pool *pgxpool.Pool
}

func NewLeaderboardStore(pool *pgxpool.Pool) *LeaderboardStore {
	return &LeaderboardStore{pool: pool}
}

func (s *LeaderboardStore) Load(ctx context.Context) (domain.Leaderboard, error) {
	lb, err := loadRows(ctx, s.pool)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Normalize(lb), nil
}

func (s *LeaderboardStore) Save(ctx context.Context, lb domain.Leaderboard) error {
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		return writeRows(ctx, tx, lb)
	})
	if err != nil {
		return fmt.Errorf("%w: save leaderboard: %w", domain.ErrStorage, err)
	}
	return nil
}

// leaderboardLockID keys the transaction-scoped advisory lock that
// serializes leaderboard writers across instances.
const leaderboardLockID = 0x717a74 // "qzt"

// Insert merges entry with the stored rows under an advisory lock, so
// concurrent instances never drop each other's entries.
func (s *LeaderboardStore) Insert(ctx context.Context, entry domain.LeaderboardEntry) (domain.Leaderboard, error) {
	var next domain.Leaderboard
	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(leaderboardLockID)); err != nil {
			return err
		}
		current, err := loadRows(ctx, tx)
		if err != nil {
			return err
		}
		next = domain.InsertEntry(current, entry)
		return writeRows(ctx, tx, next)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: insert leaderboard entry: %w", domain.ErrStorage, err)
	}
	return next, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func loadRows(ctx context.Context, q querier) (domain.Leaderboard, error) {
	rows, err := q.Query(ctx, `SELECT player_name, score, date_label, created_at_ms FROM leaderboard_entries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%w: load leaderboard: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	lb := domain.Leaderboard{}
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.PlayerName, &e.Score, &e.DateLabel, &e.CreatedAtMs); err != nil {
			return nil, fmt.Errorf("%w: scan leaderboard entry: %w", domain.ErrStorage, err)
		}
		lb = append(lb, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate leaderboard: %w", domain.ErrStorage, err)
	}
	return lb, nil
}

func writeRows(ctx context.Context, tx pgx.Tx, lb domain.Leaderboard) error {
	if _, err := tx.Exec(ctx, `DELETE FROM leaderboard_entries`); err != nil {
		return err
	}
	for i, e := range lb {
		if _, err := tx.Exec(ctx,
			`INSERT INTO leaderboard_entries (position, player_name, score, date_label, created_at_ms) VALUES ($1, $2, $3, $4, $5)`,
			i, e.PlayerName, e.Score, e.DateLabel, e.CreatedAtMs,
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *LeaderboardStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM leaderboard_entries`); err != nil {
		return fmt.Errorf("%w: clear leaderboard: %w", domain.ErrStorage, err)
	}
	return nil
}
