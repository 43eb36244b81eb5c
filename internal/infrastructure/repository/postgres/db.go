package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS garages (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	company_name TEXT,
	logo_url TEXT,
	company_address JSONB NOT NULL DEFAULT '{}'::jsonb,
	company_phone TEXT,
	company_email TEXT,
	plan_type TEXT,
	trial_ends_at TIMESTAMPTZ,
	is_subscription_active BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS profiles (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	full_name TEXT,
	active_garage_id TEXT REFERENCES garages(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS claims (
	id TEXT PRIMARY KEY,
	garage_id TEXT NOT NULL REFERENCES garages(id) ON DELETE CASCADE,
	reference TEXT,
	status TEXT NOT NULL,
	vehicle_data JSONB NOT NULL DEFAULT '{}'::jsonb,
	client_data JSONB NOT NULL DEFAULT '{}'::jsonb,
	insurance_details JSONB NOT NULL DEFAULT '{}'::jsonb,
	ai_report JSONB,
	manual_adjustments JSONB,
	images JSONB NOT NULL DEFAULT '[]'::jsonb,
	pdf_url TEXT,
	created_by TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ,
	CONSTRAINT claims_completed_has_pdf CHECK (status <> 'completed' OR (pdf_url IS NOT NULL AND completed_at IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_claims_garage_created ON claims(garage_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_claims_status ON claims(status);

CREATE TABLE IF NOT EXISTS claim_history (
	id TEXT PRIMARY KEY,
	claim_id TEXT NOT NULL REFERENCES claims(id) ON DELETE CASCADE,
	action TEXT NOT NULL,
	description TEXT NOT NULL,
	user_name TEXT,
	user_email TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_claim_history_claim ON claim_history(claim_id, created_at DESC);
`

// EnsureSchema creates the tables used by the service when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent api startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2025061001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
