package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// DefaultMigrationsDir is resolved against the working directory.
const DefaultMigrationsDir = "migrations"

func newMigrator(databaseURL, dir string) (*migrate.Migrate, func(), error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationsPath, err := filepath.Abs(dir)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to resolve migrations directory: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", filepath.ToSlash(migrationsPath)),
		"postgres",
		driver,
	)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create migration instance: %w", err)
	}

	cleanup := func() {
		m.Close()
	}
	return m, cleanup, nil
}

// RunMigrations applies every pending migration in dir.
func RunMigrations(databaseURL, dir string) error {
	m, cleanup, err := newMigrator(databaseURL, dir)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// RollbackMigrations reverts the given number of migrations.
func RollbackMigrations(databaseURL, dir string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}

	m, cleanup, err := newMigrator(databaseURL, dir)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	return nil
}

// CreateMigration writes an empty up/down pair and returns their paths.
func CreateMigration(dir, name string) (string, string, error) {
	if name == "" {
		return "", "", errors.New("migration name is required")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create migrations directory: %w", err)
	}

	timestamp := time.Now().UTC().Format("20060102150405")
	upFile := filepath.Join(dir, fmt.Sprintf("%s_%s.up.sql", timestamp, name))
	downFile := filepath.Join(dir, fmt.Sprintf("%s_%s.down.sql", timestamp, name))

	if err := os.WriteFile(upFile, []byte("-- Add your UP migration here\n"), 0644); err != nil {
		return "", "", fmt.Errorf("failed to create up migration file: %w", err)
	}

	if err := os.WriteFile(downFile, []byte("-- Add your DOWN migration here\n"), 0644); err != nil {
		return "", "", fmt.Errorf("failed to create down migration file: %w", err)
	}

	return upFile, downFile, nil
}
