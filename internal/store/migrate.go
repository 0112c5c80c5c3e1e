package store

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"media-indexer/internal/logging"
	"media-indexer/internal/metrics"
)

// Migration is one versioned schema script.
type Migration struct {
	Version int
	Name    string
	Script  string
}

// LoadMigrations reads every "NNNN_name.sql" file under dir in fsys.
// The numeric prefix is the version. Results are sorted ascending.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			return nil, fmt.Errorf("migration %q lacks a version prefix", name)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %q has a non-numeric version: %w", name, err)
		}
		script, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %q: %w", name, err)
		}
		migrations = append(migrations, Migration{
			Version: version,
			Name:    name,
			Script:  string(script),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version == migrations[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d (%s, %s)",
				migrations[i].Version, migrations[i-1].Name, migrations[i].Name)
		}
	}
	return migrations, nil
}

// Migrate applies every migration with a version greater than the
// ledger maximum, in ascending order, one transaction per script. Any
// failure aborts the sequence; the ledger reflects exactly the versions
// that committed.
func (d *DB) Migrate(ctx context.Context, migrations []Migration) error {
	if err := d.ensureLedger(ctx); err != nil {
		return err
	}

	current, err := d.ledgerVersion(ctx)
	if err != nil {
		return err
	}
	logging.Info("Schema version: %d", current)

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		logging.Info("Applying migration %s (version %d)", m.Name, m.Version)
		err := d.WithTx(ctx, func(s Session) error {
			if _, err := s.Exec(ctx, m.Script); err != nil {
				return fmt.Errorf("migration %s failed: %w", m.Name, err)
			}
			if _, err := s.Exec(ctx,
				"INSERT INTO schema_version(version) VALUES (?)", m.Version); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", m.Name, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		metrics.DBMigrationsApplied.Inc()
		logging.Info("Migration %s applied", m.Name)
	}
	return nil
}

func (d *DB) ensureLedger(ctx context.Context) error {
	rows, err := d.Query(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	exists := rows.Next()
	closeErr := rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}
	if exists {
		return nil
	}

	logging.Info("Creating schema_version ledger")
	_, err = d.Exec(ctx,
		"CREATE TABLE schema_version (version INTEGER PRIMARY KEY, applied_at DATETIME DEFAULT CURRENT_TIMESTAMP)")
	if err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}
	return nil
}

// ledgerVersion returns the highest applied version, or -1 when the
// ledger is empty.
func (d *DB) ledgerVersion(ctx context.Context) (int, error) {
	version := -1
	err := d.QueryRow(ctx,
		"SELECT COALESCE(MAX(version), -1) AS version FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
