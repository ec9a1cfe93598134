package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/config"
	filestore "quiz-room-service/internal/infra/file"
	"quiz-room-service/internal/infra/memory"
	pgstore "quiz-room-service/internal/infra/postgres"
	redisstore "quiz-room-service/internal/infra/redis"
	transport "quiz-room-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz room server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	quizzes, closeStore, err := openQuizStore(ctx, cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeStore()

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 2*time.Hour))
	} else {
		sessions = memory.NewSessionStore()
	}

	hub := transport.NewHub()
	service := app.NewQuizService(quizzes, sessions, hub, cfg.Service())
	defer service.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", transport.NewWSHandler(service, hub).ServeWS)
	mux.HandleFunc("/api/quizzes", transport.NewQuizHandler(service).ServeFind)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("starting quiz room service on :%s (store: %s)", finalPort, cfg.Store.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openQuizStore picks the quiz store backend. The returned func releases
// whatever the backend holds open.
func openQuizStore(ctx context.Context, cfg config.Config, redisClient *redis.Client) (app.QuizStore, func(), error) {
	noop := func() {}
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return memory.NewQuizStore(), noop, nil
	case config.BackendRedis:
		return redisstore.NewQuizStore(redisClient), noop, nil
	case config.BackendPostgres:
		if err := runMigrations(ctx, cfg.Postgres.URL); err != nil {
			return nil, noop, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, noop, err
		}
		return pgstore.NewQuizStore(pool), pool.Close, nil
	default:
		return filestore.NewQuizStore(cfg.Store.Path), noop, nil
	}
}
