// Package backend selects and constructs the snapshot repository named by
// the configuration.
package backend

import (
	"fmt"

	"giardino/internal/config"
	"giardino/internal/log"
	"giardino/internal/storage"
)

type Type string

const (
	Memory Type = "memory"
	SQLite Type = "sqlite"
	Redis  Type = "redis"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite, Redis:
		return true
	default:
		return false
	}
}

// Result bundles the constructed repository with its cleanup function.
type Result struct {
	Repository storage.Repository
	Cleanup    func() error
}

// New builds the repository for cfg.StateBackend.
func New(cfg *config.Config, logger *log.Logger) (*Result, error) {
	t := Type(cfg.StateBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid state backend: %s", cfg.StateBackend)
	}

	switch t {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite repository: %w", err)
		}
		logger.Info("Initialized SQLite state backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Repository: repo, Cleanup: repo.Close}, nil

	case Redis:
		repo, err := storage.NewRedisRepository(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("initialize redis repository: %w", err)
		}
		logger.Info("Initialized Redis state backend", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return &Result{Repository: repo, Cleanup: repo.Close}, nil

	default:
		repo := storage.NewMemoryRepository()
		logger.Info("Initialized in-memory state backend")
		return &Result{Repository: repo, Cleanup: repo.Close}, nil
	}
}
