package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// migrationLockID is the pg advisory lock key held while migrating.
const migrationLockID = 7462839

// Migration is one NNN_description.sql file.
type Migration struct {
	Version  string
	Filename string
	Checksum string
	SQL      string
}

// LoadMigrations reads *.sql from fsys in filename order. Filenames must look like
// NNN_description.sql and versions must be unique.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var out []Migration
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		name := entry.Name()
		version, _, ok := strings.Cut(name, "_")
		if !ok || version == "" {
			return nil, fmt.Errorf("invalid migration filename %s: expected NNN_description.sql", name)
		}
		if seen[version] {
			return nil, fmt.Errorf("duplicate migration version %s", version)
		}
		seen[version] = true

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		sum := sha256.Sum256(body)
		out = append(out, Migration{
			Version:  version,
			Filename: name,
			Checksum: hex.EncodeToString(sum[:]),
			SQL:      string(body),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

// Migrate applies pending migrations, each in its own transaction, under an advisory
// lock. An applied migration whose checksum changed is an error. Returns the number
// of migrations applied.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrations []Migration, log *zap.Logger) (int, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire connection for lock: %w", err)
	}
	defer conn.Release()

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", migrationLockID).Scan(&locked); err != nil {
		return 0, fmt.Errorf("failed to query advisory lock: %w", err)
	}
	if !locked {
		return 0, errors.New("another migrator is currently running")
	}
	defer conn.Exec(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", migrationLockID)

	if _, err := conn.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	checksum TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`); err != nil {
		return 0, fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	applied := 0
	for _, m := range migrations {
		var existing string
		err := conn.QueryRow(ctx, "SELECT checksum FROM schema_migrations WHERE version = $1", m.Version).Scan(&existing)
		switch {
		case err == nil:
			if existing != m.Checksum {
				return applied, fmt.Errorf("checksum mismatch for %s: recorded %s, file %s", m.Filename, existing, m.Checksum)
			}
			log.Debug("migration already applied", zap.String("file", m.Filename))
			continue
		case !errors.Is(err, pgx.ErrNoRows):
			return applied, fmt.Errorf("failed to query schema_migrations for %s: %w", m.Filename, err)
		}

		if err := applyMigration(ctx, conn.Conn(), m); err != nil {
			return applied, err
		}
		log.Info("migration applied", zap.String("file", m.Filename))
		applied++
	}
	return applied, nil
}

func applyMigration(ctx context.Context, conn *pgx.Conn, m Migration) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", m.Filename, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, m.SQL); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", m.Filename, err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version, filename, checksum) VALUES ($1, $2, $3)",
		m.Version, m.Filename, m.Checksum,
	); err != nil {
		return fmt.Errorf("failed to insert migration record for %s: %w", m.Filename, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", m.Filename, err)
	}
	return nil
}
