package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"paytrack/internal/amqp"
	"paytrack/internal/cache"
	"paytrack/internal/log"
	"paytrack/internal/postgres"
	"paytrack/internal/redis"
	"paytrack/internal/remote"
	"paytrack/internal/remote/cached"
	"paytrack/internal/remote/memory"
	"paytrack/internal/services"
	"paytrack/internal/storage"
)

const cacheCleanupInterval = time.Minute

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger.With(log.FieldComponent, log.ComponentBackend),
	}
}

// cleanups runs registered closers in reverse order.
type cleanups []func() error

func (c cleanups) run() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CreateBackend builds base storage, then the list cache, then the
// event publisher, outermost last.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var closers cleanups
	fail := func(err error) (*BackendResult, error) {
		if cerr := closers.run(); cerr != nil {
			f.logger.Warn("Cleanup after failed backend init", log.FieldError, cerr)
		}
		return nil, err
	}

	svc, err := f.createBase(ctx, config, &closers)
	if err != nil {
		return fail(err)
	}

	result := &BackendResult{}

	svc, result.CacheKind, err = f.wrapCache(ctx, config, svc, &closers)
	if err != nil {
		return fail(err)
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			// Entries still persist; only the ledger export misses events
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			closers = append(closers, client.Close)
			svc = services.NewEntryService(svc, client, f.logger)
			result.Publishing = true
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	result.Service = svc
	result.Cleanup = closers.run

	f.logger.Info("Backend ready",
		log.FieldBackend, config.Type,
		"cache", result.CacheKind,
		"events", result.Publishing)
	return result, nil
}

func (f *DefaultFactory) createBase(ctx context.Context, config Config, closers *cleanups) (remote.EntryService, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		*closers = append(*closers, repo.Close)
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, nil

	case PostgresBackend:
		if err := postgres.RunMigrations(config.DatabaseURL); err != nil {
			return nil, fmt.Errorf("failed to migrate PostgreSQL: %w", err)
		}
		db, err := postgres.NewPool(ctx, postgres.Config{URL: config.DatabaseURL})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL pool: %w", err)
		}
		*closers = append(*closers, func() error { db.Close(); return nil })
		f.logger.Info("Initialized PostgreSQL backend")
		return postgres.NewEntryRepository(db.Pool), nil

	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) wrapCache(ctx context.Context, config Config, svc remote.EntryService, closers *cleanups) (remote.EntryService, string, error) {
	switch {
	case config.RedisURL != "":
		client, err := redis.NewClient(ctx, config.RedisURL)
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize Redis cache: %w", err)
		}
		*closers = append(*closers, client.Close)
		return cached.New(svc, redis.NewCache(client, config.CacheTTL, f.logger), f.logger), "redis", nil

	case config.CacheTTL > 0:
		list := cache.NewEntryList(config.CacheSize, config.CacheTTL)
		manager := cache.NewManager(f.logger)
		manager.Register(list.LRU())
		manager.StartCleanup(cacheCleanupInterval)
		*closers = append(*closers, func() error { manager.Stop(); return nil })
		return cached.New(svc, list, f.logger), "lru", nil

	default:
		return svc, "none", nil
	}
}

// Migrate applies schema migrations for the configured backend without
// building the rest of the stack.
func Migrate(config Config) error {
	switch config.Type {
	case SQLiteBackend:
		// Opening the repository creates the directory and migrates
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return err
		}
		return repo.Close()
	case PostgresBackend:
		return postgres.RunMigrations(config.DatabaseURL)
	case MemoryBackend:
		return nil
	default:
		return fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
