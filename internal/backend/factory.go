package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetr/internal/adapters"
	"budgetr/internal/storage"
	"budgetr/internal/store"
	"budgetr/internal/store/memory"
	"budgetr/internal/store/postgres"
	"budgetr/internal/store/redis"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	// openRemote is replaced in tests.
	openRemote func(ctx context.Context, url string) (remoteStore, error)
}

type remoteStore interface {
	store.RecordStore
	Ping(ctx context.Context) error
	Close()
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		openRemote: func(ctx context.Context, url string) (remoteStore, error) {
			return postgres.Open(ctx, url)
		},
	}
}

// CreateBackend builds the local store, the optional hosted store in front of
// it, and the settings store. A hosted store that cannot be reached at
// startup is skipped with a warning; an unreachable Redis is an error.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res := &BackendResult{}
	var cleanups []CleanupFunc
	var pings []PingFunc
	fail := func(err error) (*BackendResult, error) {
		runCleanups(cleanups)
		return nil, err
	}

	var localSettings store.SettingsStore
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		cleanups = append(cleanups, repo.Close)
		pings = append(pings, repo.Ping)
		res.Records = repo
		localSettings = repo.Settings()
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	case MemoryBackend:
		mem, err := f.createMemoryStore(config.SeedFile)
		if err != nil {
			return fail(err)
		}
		res.Records = mem
		localSettings = mem.Settings()
	}

	if config.RemoteDatabaseURL != "" {
		remote, err := f.openRemote(ctx, config.RemoteDatabaseURL)
		if err != nil {
			if ctx.Err() != nil {
				return fail(ctx.Err())
			}
			f.logger.Warn("Remote record store unavailable, using local store only", "error", err)
		} else {
			cleanups = append(cleanups, func() error { remote.Close(); return nil })
			pings = append(pings, remote.Ping)
			res.Records = adapters.NewFallbackStore(remote, res.Records)
			res.Remote = true
			f.logger.Info("Initialized remote record store with local fallback")
		}
	}

	switch config.Settings {
	case RedisSettings:
		rs := redis.NewSettingsStore(config.RedisAddr, config.RedisKey)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return fail(fmt.Errorf("failed to connect to Redis settings store: %w", err))
		}
		cleanups = append(cleanups, rs.Close)
		pings = append(pings, rs.Ping)
		res.Settings = rs
		f.logger.Info("Initialized Redis settings store", "addr", config.RedisAddr)
	default:
		res.Settings = localSettings
	}

	res.Ping = func(ctx context.Context) error {
		var errs []error
		for _, p := range pings {
			if err := p(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	res.Cleanup = func() error { return runCleanups(cleanups) }
	return res, nil
}

func (f *DefaultFactory) createMemoryStore(seedFile string) (*memory.Store, error) {
	if seedFile == "" {
		f.logger.Info("Initialized memory backend")
		return memory.New(), nil
	}
	mem, err := memory.NewFromFile(seedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed file: %w", err)
	}
	f.logger.Info("Initialized memory backend", "seed_file", seedFile)
	return mem, nil
}

// runCleanups releases resources in reverse order of acquisition.
func runCleanups(cleanups []CleanupFunc) error {
	var errs []error
	for i := len(cleanups) - 1; i >= 0; i-- {
		if err := cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
