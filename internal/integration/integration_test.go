package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quizterios-service/internal/app"
	"quizterios-service/internal/domain"
	pgstore "quizterios-service/internal/infra/postgres"
	pgmigrations "quizterios-service/internal/infra/postgres/migrations"
	infraredis "quizterios-service/internal/infra/redis"
)

type fixedQuestions struct{}

func (fixedQuestions) NextQuestion(context.Context) (domain.Question, error) {
	return domain.Question{
		Topic: "Ciência",
		Text:  "Qual é o símbolo químico da água?",
		Choices: map[domain.ChoiceKey]string{
			domain.ChoiceA: "H2O",
			domain.ChoiceB: "CO2",
			domain.ChoiceC: "O2",
			domain.ChoiceD: "NaCl",
		},
		Correct:     domain.ChoiceA,
		Explanation: "Dois hidrogênios e um oxigênio.",
	}, nil
}

func TestPostgresLeaderboardRoundTrip(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	migrateSchema(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := pgstore.NewLeaderboardStore(pool)
	lb, err := store.Load(ctx)
	if err != nil || len(lb) != 0 {
		t.Fatalf("expected empty board, got %+v err=%v", lb, err)
	}

	var board domain.Leaderboard
	for i := 0; i < 12; i++ {
		board = domain.InsertEntry(board, domain.LeaderboardEntry{
			PlayerName:  fmt.Sprintf("p%d", i),
			Score:       i % 4,
			DateLabel:   "01/06/2025",
			CreatedAtMs: int64(1000 + i),
		})
	}
	if err := store.Save(ctx, board); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != domain.LeaderboardSize || !domain.IsSorted(got) {
		t.Fatalf("unexpected board %+v", got)
	}
	for i := range board {
		if got[i] != board[i] {
			t.Fatalf("entry %d differs: %+v vs %+v", i, got[i], board[i])
		}
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, _ := store.Load(ctx); len(got) != 0 {
		t.Fatalf("expected cleared board, got %+v", got)
	}

	// Concurrent inserts from separate pools model separate instances.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			other, err := pgxpool.Connect(ctx, pgURL)
			if err != nil {
				t.Errorf("connect pg: %v", err)
				return
			}
			defer other.Close()
			entry := domain.LeaderboardEntry{PlayerName: fmt.Sprintf("i%d", i), Score: i, DateLabel: "01/06/2025", CreatedAtMs: int64(i)}
			if _, err := pgstore.NewLeaderboardStore(other).Insert(ctx, entry); err != nil {
				t.Errorf("insert %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()
	if got, _ := store.Load(ctx); len(got) != 4 || !domain.IsSorted(got) {
		t.Fatalf("expected 4 merged entries, got %+v", got)
	}
}

func TestGameEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()
	migrateSchema(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	store := pgstore.NewLeaderboardStore(pool)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	service := app.NewGameService(ctx, sessions, store, fixedQuestions{}, app.Options{})

	service.Open("s1")
	if _, err := service.Start(ctx, "s1", "Alice"); err != nil {
		t.Fatalf("start: %v", err)
	}
	service.Wait()
	if _, err := service.Select(ctx, "s1", domain.ChoiceA); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, _, err := service.Confirm(ctx, "s1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := service.Next(ctx, "s1"); err != nil {
		t.Fatalf("next: %v", err)
	}
	service.Wait()
	if _, err := service.Select(ctx, "s1", domain.ChoiceB); err != nil {
		t.Fatalf("select: %v", err)
	}
	res, snap, err := service.Confirm(ctx, "s1")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if res.Correct || snap.Phase != domain.PhaseGameOver || snap.FinalScore != 1 {
		t.Fatalf("expected game over with score 1, got %+v / %+v", res, snap)
	}

	persisted, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(persisted) != 1 || persisted[0].PlayerName != "Alice" || persisted[0].Score != 1 {
		t.Fatalf("unexpected persisted board %+v", persisted)
	}

	// A fresh service sees the board written by the first one.
	other := app.NewGameService(ctx, infraredis.NewSessionStore(redisClient, time.Minute), store, fixedQuestions{}, app.Options{})
	if lb := other.Leaderboard(); len(lb) != 1 || lb[0].PlayerName != "Alice" {
		t.Fatalf("expected leaderboard reloaded on startup, got %+v", lb)
	}

	service.Close("s1")
	if n, err := redisClient.Exists(ctx, "quizterios:session:s1").Result(); err != nil || n != 0 {
		t.Fatalf("expected session key removed, n=%d err=%v", n, err)
	}
}

func migrateSchema(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	return fmt.Sprintf("redis://%s:%s", host, port.Port()), func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
