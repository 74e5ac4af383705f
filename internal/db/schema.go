package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		bed        TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS readings (
		id         TEXT PRIMARY KEY,
		patient_id TEXT NOT NULL REFERENCES patients(id),
		metric     TEXT NOT NULL,
		value      DOUBLE PRECISION NOT NULL,
		unit       TEXT NOT NULL DEFAULT '',
		timestamp  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_readings_patient_timestamp ON readings (patient_id, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS files (
		id          TEXT PRIMARY KEY,
		patient_id  TEXT NOT NULL REFERENCES patients(id),
		file_name   TEXT NOT NULL,
		file_type   TEXT NOT NULL DEFAULT 'unknown',
		storage_url TEXT NOT NULL,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_files_patient_uploaded ON files (patient_id, uploaded_at DESC)`,
}

// TIMESTAMP columns make go-sqlite3 hand back time.Time values.
var sqliteSchema = []string{
	`PRAGMA foreign_keys = ON`,
	`CREATE TABLE IF NOT EXISTS patients (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		bed        TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS readings (
		id         TEXT PRIMARY KEY,
		patient_id TEXT NOT NULL REFERENCES patients(id),
		metric     TEXT NOT NULL,
		value      REAL NOT NULL,
		unit       TEXT NOT NULL DEFAULT '',
		timestamp  TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_readings_patient_timestamp ON readings (patient_id, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS files (
		id          TEXT PRIMARY KEY,
		patient_id  TEXT NOT NULL REFERENCES patients(id),
		file_name   TEXT NOT NULL,
		file_type   TEXT NOT NULL DEFAULT 'unknown',
		storage_url TEXT NOT NULL,
		uploaded_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_files_patient_uploaded ON files (patient_id, uploaded_at DESC)`,
}

// MigratePostgres applies the schema to a PostgreSQL database
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	for i, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return i, fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return len(postgresSchema), nil
}

// MigrateSQLite applies the schema to a SQLite database
func MigrateSQLite(ctx context.Context, conn *sql.DB) (int, error) {
	for i, stmt := range sqliteSchema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return i, fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return len(sqliteSchema), nil
}
