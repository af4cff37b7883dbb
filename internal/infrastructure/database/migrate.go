package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"
)

// Source holds the migration scripts, one pair per version at its root:
//
//	YYYYMMDD_HHMMSS_name.up.sql
//	YYYYMMDD_HHMMSS_name.down.sql
//
// The migrations package sets it from an embedded directory at init, so a
// binary that imports that package carries its schema. A nil Source means
// there is nothing to migrate.
var Source fs.FS

// Migration is one versioned schema change.
type Migration struct {
	Version string
	Name    string
	Up      string
	Down    string
}

// MigrationState is a migration together with when it was applied.
type MigrationState struct {
	Version   string
	Name      string
	AppliedAt time.Time // zero while pending
}

// Applied reports whether the migration has been applied.
func (s MigrationState) Applied() bool {
	return !s.AppliedAt.IsZero()
}

const createSchemaTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TEXT NOT NULL
)`

// Migrate applies every pending migration in version order and returns the
// ones it applied. Each migration commits on its own, so a failure leaves
// earlier ones in place and a later Migrate resumes at the failed version.
func (db *DB) Migrate(ctx context.Context) ([]Migration, error) {
	all, err := loadMigrations(Source)
	if err != nil {
		return nil, err
	}
	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	var done []Migration
	for _, m := range all {
		if _, ok := applied[m.Version]; ok {
			continue
		}
		err := db.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.Up); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
				m.Version, time.Now().UTC().Format(time.RFC3339))
			return err
		})
		if err != nil {
			return done, fmt.Errorf("applying migration %s (%s): %w", m.Version, m.Name, err)
		}
		done = append(done, m)
	}
	return done, nil
}

// Rollback reverts the most recently applied migration and returns it.
func (db *DB) Rollback(ctx context.Context) (Migration, error) {
	all, err := loadMigrations(Source)
	if err != nil {
		return Migration{}, err
	}
	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return Migration{}, err
	}
	if len(applied) == 0 {
		return Migration{}, ErrNothingToRollback
	}

	latest := ""
	for v := range applied {
		latest = max(latest, v)
	}
	i := slices.IndexFunc(all, func(m Migration) bool { return m.Version == latest })
	if i < 0 {
		return Migration{}, fmt.Errorf("%w: %s", ErrUnknownMigration, latest)
	}
	m := all[i]
	if strings.TrimSpace(m.Down) == "" {
		return Migration{}, fmt.Errorf("%w: %s (%s)", ErrNoDownScript, m.Version, m.Name)
	}

	err = db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, m.Down); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = ?", m.Version)
		return err
	})
	if err != nil {
		return Migration{}, fmt.Errorf("rolling back %s (%s): %w", m.Version, m.Name, err)
	}
	return m, nil
}

// MigrationStatus lists every known migration in version order with its
// applied time. A version recorded in the database but absent from Source
// is listed too, with an empty name.
func (db *DB) MigrationStatus(ctx context.Context) ([]MigrationState, error) {
	all, err := loadMigrations(Source)
	if err != nil {
		return nil, err
	}
	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	states := make([]MigrationState, 0, len(all))
	for _, m := range all {
		states = append(states, MigrationState{Version: m.Version, Name: m.Name, AppliedAt: applied[m.Version]})
		delete(applied, m.Version)
	}
	for v, at := range applied {
		states = append(states, MigrationState{Version: v, AppliedAt: at})
	}
	slices.SortFunc(states, func(a, b MigrationState) int { return strings.Compare(a.Version, b.Version) })
	return states, nil
}

// appliedVersions creates the bookkeeping table when needed and returns
// the applied versions with their timestamps.
func (db *DB) appliedVersions(ctx context.Context) (map[string]time.Time, error) {
	if _, err := db.ExecContext(ctx, createSchemaTable); err != nil {
		return nil, fmt.Errorf("creating schema_migrations: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version, applied_at FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("querying schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]time.Time)
	for rows.Next() {
		var version, at string
		if err := rows.Scan(&version, &at); err != nil {
			return nil, fmt.Errorf("scanning schema_migrations: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return nil, fmt.Errorf("migration %s: bad applied_at %q: %w", version, at, err)
		}
		applied[version] = ts
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading schema_migrations: %w", err)
	}
	return applied, nil
}

// loadMigrations reads the scripts at the root of fsys. Files that do not
// follow the naming scheme are ignored; a down script without an up script
// is an error.
func loadMigrations(fsys fs.FS) ([]Migration, error) {
	if fsys == nil {
		return nil, nil
	}
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}

	byVersion := make(map[string]*Migration)
	for _, file := range names {
		version, name, up, ok := parseFilename(file)
		if !ok {
			continue
		}
		body, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		m := byVersion[version]
		if m == nil {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}
		if up {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" {
			return nil, fmt.Errorf("migration %s (%s) has a down script but no up script", m.Version, m.Name)
		}
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b Migration) int { return strings.Compare(a.Version, b.Version) })
	return out, nil
}

// parseFilename splits "20260301_090000_catalog.up.sql" into its version
// "20260301_090000", name "catalog" and direction.
func parseFilename(file string) (version, name string, up, ok bool) {
	base, found := strings.CutSuffix(file, ".sql")
	if !found {
		return "", "", false, false
	}
	if base, found = strings.CutSuffix(base, ".up"); found {
		up = true
	} else if base, found = strings.CutSuffix(base, ".down"); !found {
		return "", "", false, false
	}

	parts := strings.SplitN(base, "_", 3)
	if len(parts) != 3 || len(parts[0]) != 8 || len(parts[1]) != 6 || parts[2] == "" {
		return "", "", false, false
	}
	for _, r := range parts[0] + parts[1] {
		if r < '0' || r > '9' {
			return "", "", false, false
		}
	}
	return parts[0] + "_" + parts[1], parts[2], up, true
}
