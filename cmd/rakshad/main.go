package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/raksha/internal/config"
	"github.com/felixgeelhaar/raksha/internal/content"
	"github.com/felixgeelhaar/raksha/internal/daemon"
	"github.com/felixgeelhaar/raksha/internal/domain"
	"github.com/felixgeelhaar/raksha/internal/lesson"
	"github.com/felixgeelhaar/raksha/internal/queue"
	"github.com/felixgeelhaar/raksha/internal/reward"
	"github.com/felixgeelhaar/raksha/internal/storage/postgres"
	"github.com/felixgeelhaar/raksha/internal/storage/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	setupLogging(cfg.Debug)

	// Course catalog: embedded defaults, optionally layered with a
	// directory of authored course packs.
	registry := content.NewRegistry()
	if err := registry.LoadDefaults(); err != nil {
		return fmt.Errorf("load embedded courses: %w", err)
	}
	if cfg.CoursesPath != "" {
		if err := registry.LoadDir(cfg.CoursesPath); err != nil {
			return fmt.Errorf("load courses from %s: %w", cfg.CoursesPath, err)
		}
	}
	slog.Info("course catalog loaded", "courses", len(registry.List()))

	st, closeStores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	dispatcher := domain.NewEventDispatcher()
	ledger := reward.NewLedger(st.profiles, st.progress, st.completions, st.badges, registry)
	ledger.SetDispatcher(dispatcher)

	if cfg.RabbitMQURL != "" {
		conn, err := queue.NewConnection(cfg.RabbitMQURL)
		if err != nil {
			// The broker is a notification channel, not a dependency;
			// awards still apply without it.
			slog.Warn("rabbitmq unavailable, event publishing disabled", "error", err)
		} else {
			defer conn.Close()
			queue.NewPublisher(conn).Attach(dispatcher)
		}
	}

	lessons := lesson.NewService(lesson.NewStore(), registry, ledger)

	server := daemon.NewServer(cfg, daemon.Services{
		Catalog:  registry,
		Lessons:  lessons,
		Profiles: st.profiles,
		Progress: st.progress,
		Badges:   st.badges,
	})

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		slog.Info("received signal, shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		close(done)
	}()

	if err := server.Start(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	slog.Info("daemon stopped")
	return nil
}

// profileStore is the union of what the ledger and the API need from the
// profile backend; both SQLite and PostgreSQL stores satisfy it.
type profileStore interface {
	Get(ctx context.Context, learnerID uuid.UUID) (*domain.Profile, error)
	Save(ctx context.Context, p *domain.Profile) error
	Top(ctx context.Context, limit int) ([]*domain.Profile, error)
}

type progressStore interface {
	Get(ctx context.Context, learnerID uuid.UUID, courseID string) (*domain.CourseProgress, error)
	Upsert(ctx context.Context, p *domain.CourseProgress) error
	ByLearner(ctx context.Context, learnerID uuid.UUID) ([]*domain.CourseProgress, error)
}

type badgeStore interface {
	Held(ctx context.Context, learnerID uuid.UUID) (map[string]bool, error)
	Award(ctx context.Context, e domain.EarnedBadge) error
	ByLearner(ctx context.Context, learnerID uuid.UUID) ([]domain.EarnedBadge, error)
}

type stores struct {
	profiles    profileStore
	progress    progressStore
	completions reward.CompletionLog
	badges      badgeStore
}

func openStores(cfg *config.Config) (*stores, func(), error) {
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		slog.Info("storage ready", "backend", "postgres")
		return &stores{
			profiles:    postgres.NewProfileStore(pool),
			progress:    postgres.NewProgressStore(pool),
			completions: postgres.NewCompletionLog(pool),
			badges:      postgres.NewBadgeStore(pool),
		}, pool.Close, nil

	default:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		slog.Info("storage ready", "backend", "sqlite", "path", cfg.SQLitePath)
		return &stores{
			profiles:    sqlite.NewProfileStore(db),
			progress:    sqlite.NewProgressStore(db),
			completions: sqlite.NewCompletionLog(db),
			badges:      sqlite.NewBadgeStore(db),
		}, func() { db.Close() }, nil
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
