package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"musicthumb/internal/models"
)

// SudoerStore persists the single sudoer document.
type SudoerStore interface {
	FindSudoers(ctx context.Context) ([]int64, error)
	UpsertSudoers(ctx context.Context, ids []int64) error
	Ping(ctx context.Context) error
	Close()
}

var ErrUnsupportedURL = errors.New("unsupported database url scheme")

type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendMongo    Backend = "mongodb"
)

func BackendOf(url string) (Backend, error) {
	switch {
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return BackendMongo, nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return BackendPostgres, nil
	default:
		return "", ErrUnsupportedURL
	}
}

// Open connects to the store named by cfg.DatabaseURL. It fails if the
// server cannot be reached or rejects the credentials.
func Open(ctx context.Context, cfg *models.Config) (SudoerStore, error) {
	const op = "storage.Open"

	backend, err := BackendOf(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	switch backend {
	case BackendMongo:
		return NewMongoStore(ctx, cfg.DatabaseURL, cfg.DatabaseName)
	default:
		return NewStorage(ctx, cfg.DatabaseURL, cfg.MigrationsDir)
	}
}
