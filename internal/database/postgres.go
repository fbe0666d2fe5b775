package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/erikstalman/med-claim-navigator-sub000/internal/config"
)

func NewPostgresPool(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	if cfg.MaxOpen > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpen)
	}
	poolConfig.MinConns = int32(cfg.MaxIdle)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.HealthCheckPeriod = 30 * time.Second

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return pool, nil
}

// mirrorSchema mirrors users, cases and documents relationally. Enum types are
// created once; CREATE TYPE has no IF NOT EXISTS form.
var mirrorSchema = []string{
	`DO $$ BEGIN
		CREATE TYPE user_role AS ENUM ('admin', 'doctor', 'system-admin');
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN
		CREATE TYPE case_status AS ENUM ('pending-evaluation', 'under-review', 'completed', 'rejected');
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN
		CREATE TYPE case_priority AS ENUM ('low', 'medium', 'high');
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN
		CREATE TYPE document_category AS ENUM ('medical-records', 'imaging', 'legal', 'insurance', 'correspondence', 'other');
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS users (
		id             TEXT PRIMARY KEY,
		email          TEXT NOT NULL UNIQUE,
		name           TEXT NOT NULL,
		role           user_role NOT NULL,
		is_active      BOOLEAN NOT NULL DEFAULT TRUE,
		specialization TEXT,
		license_number TEXT,
		last_login     TIMESTAMPTZ,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS patient_cases (
		id                TEXT PRIMARY KEY,
		patient_name      TEXT NOT NULL,
		accident_date     TEXT,
		submission_date   TEXT,
		status            case_status NOT NULL,
		priority          case_priority NOT NULL,
		injury_type       TEXT,
		doctor_id         TEXT REFERENCES users(id) ON DELETE SET NULL,
		admin_id          TEXT REFERENCES users(id) ON DELETE SET NULL,
		claim_amount      NUMERIC(14, 2) NOT NULL DEFAULT 0,
		documents_count   INTEGER NOT NULL DEFAULT 0,
		evaluation_status TEXT NOT NULL DEFAULT 'pending',
		created_by        TEXT,
		last_updated      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id          TEXT PRIMARY KEY,
		case_id     TEXT NOT NULL REFERENCES patient_cases(id) ON DELETE CASCADE,
		uploaded_by TEXT REFERENCES users(id) ON DELETE SET NULL,
		name        TEXT NOT NULL,
		type        TEXT NOT NULL,
		size_bytes  BIGINT NOT NULL DEFAULT 0,
		pages       INTEGER NOT NULL DEFAULT 1,
		category    document_category NOT NULL,
		file_path   TEXT,
		upload_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_patient_cases_doctor ON patient_cases (doctor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_case ON documents (case_id)`,
}

func EnsureMirrorSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range mirrorSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("mirror schema: %w", err)
		}
	}
	return nil
}
