package postgres

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var ErrMigrationFailed = errors.New("migration failed")

type Direction string

const (
	MigrateUp   Direction = "up"
	MigrateDown Direction = "down"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case MigrateUp, MigrateDown:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("%w: unknown direction %q, expected up or down", ErrMigrationFailed, s)
	}
}

// MigratePool runs Migrate over a database/sql handle borrowed from the pool.
// The pool itself stays open.
func MigratePool(pool *pgxpool.Pool, direction Direction, logger *slog.Logger) error {
	return Migrate(stdlib.OpenDBFromPool(pool), direction, logger)
}

// Migrate applies the embedded schema migrations and closes db when done.
// ErrNoChange is not an error.
func Migrate(db *sql.DB, direction Direction, logger *slog.Logger) error {
	fsDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		db.Close()
		return fmt.Errorf("%w: could not create migration file driver: %w", ErrMigrationFailed, err)
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("%w: could not get database driver: %w", ErrMigrationFailed, err)
	}

	m, err := migrate.NewWithInstance("iofs", fsDriver, "postgres", driver)
	if err != nil {
		db.Close()
		return fmt.Errorf("%w: could not create new migration instance: %w", ErrMigrationFailed, err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("Failed to close migrator", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	switch direction {
	case MigrateUp:
		err = m.Up()
	case MigrateDown:
		err = m.Down()
	default:
		return fmt.Errorf("%w: unknown direction %q", ErrMigrationFailed, direction)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w: could not migrate %s: %w", ErrMigrationFailed, direction, err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		logger.Warn("Could not read schema version after migration", "error", verr)
	} else {
		logger.Info("Database migrations applied", "direction", direction, "version", version, "dirty", dirty)
	}
	return nil
}
