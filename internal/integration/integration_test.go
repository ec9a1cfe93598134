package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/domain"
	pgstore "quiz-room-service/internal/infra/postgres"
	pgmigrations "quiz-room-service/internal/infra/postgres/migrations"
	infraredis "quiz-room-service/internal/infra/redis"
	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// roomRecorder is a transport that answers every round correctly on behalf
// of one participant, from inside PublishRound.
type roomRecorder struct {
	mu       sync.Mutex
	service  *app.QuizService
	texts    []string
	finished chan struct{}
}

func (r *roomRecorder) PublishRound(_ context.Context, _ string, round domain.Round) (string, error) {
	r.service.HandleResponse(domain.Response{
		RoundID:         round.ID,
		ParticipantID:   "u1",
		ParticipantName: "Alice",
		ChosenIndex:     round.CorrectIndex,
	})
	return round.ID, nil
}

func (r *roomRecorder) SendText(_ context.Context, _ string, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	if strings.HasPrefix(text, "🏆 RESULTS") {
		close(r.finished)
	}
	return nil
}

func TestQuizPlayedFromPostgresWithRedisSessions(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL := startPostgres(t, ctx)
	redisClient := startRedis(t, ctx)

	applyMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	store := pgstore.NewQuizStore(pool)

	if err := store.Put(ctx, sampleQuiz()); err != nil {
		t.Fatalf("put quiz: %v", err)
	}

	cfg := app.DefaultServiceConfig()
	cfg.Game.Grace = 0
	cfg.Game.StartDelay = 0
	recorder := &roomRecorder{finished: make(chan struct{})}
	noWait := func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	service := app.NewQuizService(store, infraredis.NewSessionStore(redisClient, time.Minute), recorder, cfg, app.WithWait(noWait))
	recorder.service = service
	defer service.Close()

	if err := service.StartQuiz(ctx, "room-1", "run_quiz-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if quizID, err := redisClient.Get(ctx, "quiz:room:room-1").Result(); err != nil || quizID != "quiz-1" {
		t.Fatalf("expected liveness key for quiz-1, got %q (%v)", quizID, err)
	}
	if err := service.ConfirmStart(ctx, "room-1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	select {
	case <-recorder.finished:
	case <-time.After(10 * time.Second):
		t.Fatalf("quiz did not finish")
	}

	recorder.mu.Lock()
	results := recorder.texts[len(recorder.texts)-1]
	recorder.mu.Unlock()
	if !strings.Contains(results, "1. Alice - 2") {
		t.Fatalf("unexpected results %q", results)
	}
}

func TestPostgresQuizStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL := startPostgres(t, ctx)
	applyMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	store := pgstore.NewQuizStore(pool)

	if _, err := store.Get(ctx, "quiz-1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}

	quiz := sampleQuiz()
	if err := store.Put(ctx, quiz); err != nil {
		t.Fatalf("put: %v", err)
	}
	quiz.Name = "Renamed"
	if err := store.Put(ctx, quiz); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 1 || all["quiz-1"].Name != "Renamed" || len(all["quiz-1"].Questions) != 2 {
		t.Fatalf("unexpected quizzes %+v", all)
	}

	removed, err := store.Delete(ctx, "quiz-1")
	if err != nil || !removed {
		t.Fatalf("delete: removed=%v err=%v", removed, err)
	}
	removed, err = store.Delete(ctx, "quiz-1")
	if err != nil || removed {
		t.Fatalf("second delete: removed=%v err=%v", removed, err)
	}
}

// startContainer runs image and returns the host:port of its first exposed
// port. The test is skipped when Docker is unreachable.
func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest) string {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", req.Image, err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("%s host: %v", req.Image, err)
	}
	port, err := container.MappedPort(ctx, nat.Port(req.ExposedPorts[0]))
	if err != nil {
		t.Fatalf("%s port: %v", req.Image, err)
	}
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func startPostgres(t *testing.T, ctx context.Context) string {
	addr := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	})
	return fmt.Sprintf("postgres://quiz:quizpass@%s/quizdb?sslmode=disable", addr)
}

func startRedis(t *testing.T, ctx context.Context) *goredis.Client {
	addr := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	})
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	return client
}

func applyMigrations(t *testing.T, ctx context.Context, dsn string) {
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

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:                 "quiz-1",
		Name:               "Arithmetic",
		SecondsPerQuestion: 5,
		Author:             "Alice",
		AuthorID:           "u1",
		CreatedAt:          time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC),
		Questions: []domain.Question{
			{Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectIndex: 1},
			{Prompt: "What is 3 * 3?", Options: []string{"9", "6"}, CorrectIndex: 0},
		},
	}
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
