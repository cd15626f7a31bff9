package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
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

// ensureSchema creates the three pipeline tables on startup. Cascade rules
// live in the FKs so a file delete wipes its analyses and findings.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS review_files (
  id CHAR(36) PRIMARY KEY,
  owner_id VARCHAR(128) NOT NULL,
  filename VARCHAR(255) NOT NULL,
  storage_key VARCHAR(512) NOT NULL,
  content_sha256 CHAR(64) NOT NULL,
  size_bytes BIGINT NOT NULL,
  created_at DATETIME(6) NOT NULL,
  UNIQUE KEY uq_files_owner_sha256 (owner_id, content_sha256),
  KEY idx_files_owner (owner_id)
);`,
		`CREATE TABLE IF NOT EXISTS review_analyses (
  id CHAR(36) PRIMARY KEY,
  owner_id VARCHAR(128) NOT NULL,
  file_id CHAR(36) NOT NULL,
  status VARCHAR(16) NOT NULL,
  strategy_label VARCHAR(64) NOT NULL,
  rules_version VARCHAR(64) NULL,
  result_json JSON NOT NULL,
  created_at DATETIME(6) NOT NULL,
  KEY idx_analyses_owner (owner_id),
  KEY idx_analyses_file (file_id),
  CONSTRAINT fk_analyses_file FOREIGN KEY (file_id)
    REFERENCES review_files(id) ON DELETE CASCADE
);`,
		`CREATE TABLE IF NOT EXISTS review_findings (
  id CHAR(36) PRIMARY KEY,
  analysis_id CHAR(36) NOT NULL,
  slide_number INT NOT NULL,
  category VARCHAR(64) NOT NULL,
  basis TEXT NOT NULL,
  issue TEXT NOT NULL,
  suggestion TEXT NOT NULL,
  correction_type VARCHAR(16) NOT NULL,
  KEY idx_findings_analysis (analysis_id),
  CONSTRAINT fk_findings_analysis FOREIGN KEY (analysis_id)
    REFERENCES review_analyses(id) ON DELETE CASCADE
);`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
