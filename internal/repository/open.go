package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docparser/internal/common"
)

// NewJobRepository opens the journal backend selected by cfg.Driver.
func NewJobRepository(ctx context.Context, cfg common.JournalConfig, logger *slog.Logger) (JobRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryJobRepository(logger), nil
	case "sqlite":
		return OpenSQLite(ctx, cfg.DSN, logger)
	case "postgres":
		pool, err := Open(ctx, Config{DSN: cfg.DSN, DialTimeout: 10 * time.Second}, logger)
		if err != nil {
			return nil, err
		}
		if err := HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
			pool.Close()
			return nil, err
		}
		repo, err := NewPostgresJobRepository(ctx, pool, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown journal driver %q", cfg.Driver)
	}
}
