package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database schema migration.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations is the ordered list of all database migrations.
var migrations = []Migration{
	{
		Version:     1,
		Description: "Condition assessments",
		SQL: `
CREATE TABLE IF NOT EXISTS condition_assessments (
    id TEXT PRIMARY KEY,
    property_id TEXT NOT NULL,
    scenario TEXT NOT NULL DEFAULT 'all',
    overall_rating TEXT,
    overall_score INTEGER NOT NULL DEFAULT 0,
    risk_level TEXT,
    summary TEXT,
    scenario_context TEXT,
    systems TEXT,
    recommended_actions TEXT,
    recorded_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assessments_property ON condition_assessments(property_id, recorded_at DESC);
CREATE INDEX IF NOT EXISTS idx_assessments_scenario ON condition_assessments(property_id, scenario, recorded_at DESC);
`,
	},
	{
		Version:     2,
		Description: "Due-diligence checklist items",
		SQL: `
CREATE TABLE IF NOT EXISTS checklist_items (
    id TEXT PRIMARY KEY,
    property_id TEXT NOT NULL,
    category TEXT NOT NULL,
    title TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    development_scenario TEXT NOT NULL DEFAULT 'all',
    priority TEXT NOT NULL DEFAULT 'medium',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checklist_property ON checklist_items(property_id);
`,
	},
	{
		Version:     3,
		Description: "Property captures with embedded quick analysis",
		SQL: `
CREATE TABLE IF NOT EXISTS property_captures (
    property_id TEXT PRIMARY KEY,
    address TEXT,
    zoning TEXT,
    site_area_sqm REAL,
    amenities TEXT,
    heritage_listed BOOLEAN NOT NULL DEFAULT 0,
    quick_analysis TEXT,
    captured_at TIMESTAMP NOT NULL
);
`,
	},
}

// MigrationVersion represents a record of an applied migration.
type MigrationVersion struct {
	Version   int
	AppliedAt time.Time
}

// ApplyMigrations applies all pending migrations in one serializable
// transaction so concurrent openers of the same file don't race.
func (s *Store) ApplyMigrations(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin exclusive transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := tx.QueryContext(ctx, `SELECT version FROM schema_version`)
	if err != nil {
		return fmt.Errorf("query schema versions: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate versions: %w", err)
	}
	rows.Close()

	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", migration.Version, migration.Description, err)
		}

		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, migration.Version); err != nil {
			return fmt.Errorf("record migration %d: %w", migration.Version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}

	return nil
}

// GetAppliedVersions retrieves all applied migration versions.
func (s *Store) GetAppliedVersions(ctx context.Context) ([]*MigrationVersion, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version, applied_at FROM schema_version ORDER BY version ASC`)
	if err != nil {
		return nil, fmt.Errorf("query schema versions: %w", err)
	}
	defer rows.Close()

	var versions []*MigrationVersion
	for rows.Next() {
		v := &MigrationVersion{}
		if err := rows.Scan(&v.Version, &v.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}

	return versions, nil
}

// GetLatestVersion returns the latest applied migration version.
func (s *Store) GetLatestVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("query latest version: %w", err)
	}
	return version, nil
}
