package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"path"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// every migration is idempotent (IF NOT EXISTS), so they are replayed in name order on start-up.
func migrationFiles(dir string) ([]string, error) {
	entries, err := migrationsFS.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, path.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	return files, nil
}

func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	files, err := migrationFiles("migrations/postgres")
	if err != nil {
		return fmt.Errorf("listing migrations: %w", err)
	}

	for _, name := range files {
		slog.Debug("applying migration", "file", name)

		stmt, err := migrationsFS.ReadFile(name)
		if err != nil {
			return err
		}

		if _, err := pool.Exec(ctx, string(stmt)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	return nil
}

func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	files, err := migrationFiles("migrations/sqlite")
	if err != nil {
		return fmt.Errorf("listing migrations: %w", err)
	}

	for _, name := range files {
		slog.Debug("applying migration", "file", name)

		stmt, err := migrationsFS.ReadFile(name)
		if err != nil {
			return err
		}

		if _, err := db.ExecContext(ctx, string(stmt)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	return nil
}
