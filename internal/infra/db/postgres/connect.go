package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

// ensureSchema creates the three pipeline tables on startup.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS review_files (
  id UUID PRIMARY KEY,
  owner_id VARCHAR(128) NOT NULL,
  filename VARCHAR(255) NOT NULL,
  storage_key VARCHAR(512) NOT NULL,
  content_sha256 CHAR(64) NOT NULL,
  size_bytes BIGINT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  CONSTRAINT uq_files_owner_sha256 UNIQUE (owner_id, content_sha256)
);`,
		`CREATE INDEX IF NOT EXISTS idx_files_owner ON review_files (owner_id);`,
		`CREATE TABLE IF NOT EXISTS review_analyses (
  id UUID PRIMARY KEY,
  owner_id VARCHAR(128) NOT NULL,
  file_id UUID NOT NULL REFERENCES review_files(id) ON DELETE CASCADE,
  status VARCHAR(16) NOT NULL,
  strategy_label VARCHAR(64) NOT NULL,
  rules_version VARCHAR(64) NULL,
  result_json JSONB NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_owner ON review_analyses (owner_id);`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_file ON review_analyses (file_id);`,
		`CREATE TABLE IF NOT EXISTS review_findings (
  id UUID PRIMARY KEY,
  analysis_id UUID NOT NULL REFERENCES review_analyses(id) ON DELETE CASCADE,
  slide_number INT NOT NULL,
  category VARCHAR(64) NOT NULL,
  basis TEXT NOT NULL,
  issue TEXT NOT NULL,
  suggestion TEXT NOT NULL,
  correction_type VARCHAR(16) NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_findings_analysis ON review_findings (analysis_id);`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
