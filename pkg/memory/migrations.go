package memory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

const migrationsLogPrefix = "memory:migrations"

// LoadMigrationFiles reads all .sql files from dir, sorted by name, and
// returns their contents.
func LoadMigrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to read migration dir %s: %w", migrationsLogPrefix, dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sql" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var out []string
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to read %s: %w", migrationsLogPrefix, path, err)
		}
		out = append(out, string(data))
	}
	slog.Info(fmt.Sprintf("%s - Loaded %d migration files from %s", migrationsLogPrefix, len(out), dir))
	return out, nil
}

// RunMigrations applies SQL migration files in order against the document
// store.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, migrationFiles []string) error {
	slog.Info(fmt.Sprintf("%s - Running %d migrations", migrationsLogPrefix, len(migrationFiles)))
	for _, sqlText := range migrationFiles {
		if _, err := pool.Exec(ctx, sqlText); err != nil {
			return fmt.Errorf("%s - migration failed: %w", migrationsLogPrefix, err)
		}
	}
	slog.Info(fmt.Sprintf("%s - Migrations complete", migrationsLogPrefix))
	return nil
}

// MigrationStatus reports whether the interactions table exists.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool, migrationPath string) error {
	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = 'interactions')`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%s - failed to check schema: %w", migrationsLogPrefix, err)
	}

	files, err := LoadMigrationFiles(migrationPath)
	if err != nil {
		return fmt.Errorf("%s - load migration list: %w", migrationsLogPrefix, err)
	}

	if exists {
		fmt.Printf("Migration status: applied (schema present, %d migration files in %s)\n", len(files), migrationPath)
	} else {
		fmt.Printf("Migration status: not applied (run 'gateway migrate up'). %d migration files in %s\n", len(files), migrationPath)
	}
	return nil
}

// ClearInteractions truncates the interactions table; the schema is
// preserved.
func ClearInteractions(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `TRUNCATE TABLE interactions RESTART IDENTITY`); err != nil {
		return fmt.Errorf("%s - truncate failed: %w", migrationsLogPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Cleared interactions", migrationsLogPrefix))
	return nil
}
