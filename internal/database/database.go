// Package database persists the registry working copy.
package database

import (
	"context"
	"fmt"
	"time"

	"facility-planner/internal/config"
	"facility-planner/internal/models"
	"facility-planner/internal/registry"
)

// Store is implemented by every backend
type Store interface {
	registry.Persister
	InitSchema() error
	Close() error
	CreateDeleteLogs(ctx context.Context, logs []models.DeleteLog) error
	RecentDeleteLogs(ctx context.Context, limit int) ([]models.DeleteLog, error)
	DeleteStats(ctx context.Context, since time.Time) (*DeleteStats, error)
}

// DeleteStats summarizes the delete log
type DeleteStats struct {
	Total    int64            `json:"total_deleted"`
	ByReason map[string]int64 `json:"by_reason"`
	Recent   int64            `json:"deleted_recently"`
}

// Open connects to the configured backend and creates its schema
func Open(cfg config.DatabaseConfig) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Type {
	case "mysql":
		store, err = NewGormDB(cfg.MySQL)
	case "postgres":
		store, err = NewDB(cfg.Postgres)
	case "sqlite", "":
		store, err = NewSQLiteDB(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown database type %q", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Type, err)
	}
	if err := store.InitSchema(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}
