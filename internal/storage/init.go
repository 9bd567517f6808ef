// internal/storage/init.go
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

func runMigrations(db *sql.DB, dir string) error {
	const op = "storage.migrations"

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := goose.Up(db, dir)
	if err != nil {
		if errors.Is(err, goose.ErrNoNextVersion) {
			logrus.Info("No migrations to apply.")
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	logrus.Info("Database migrations applied successfully.")
	return nil
}
