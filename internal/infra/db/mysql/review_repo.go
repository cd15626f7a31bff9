package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domfiles "github.com/bryanwahyu/slide-review/internal/domain/files"
	domain "github.com/bryanwahyu/slide-review/internal/domain/reviews"
)

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const analysisCols = `id, owner_id, file_id, status, strategy_label, rules_version, result_json, created_at`
const findingCols = `id, analysis_id, slide_number, category, basis, issue, suggestion, correction_type`

// RecordAnalysis commits the analysis row plus all finding rows in one
// transaction; a failure anywhere rolls everything back.
func (r *ReviewRepository) RecordAnalysis(ctx context.Context, a *domain.Analysis, findings []*domain.Finding) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const qa = `
INSERT INTO review_analyses
  (id, owner_id, file_id, status, strategy_label, rules_version, result_json, created_at)
VALUES (?,?,?,?,?,?,?,?);
`
	if _, err := tx.ExecContext(ctx, qa,
		a.ID, a.OwnerID, a.FileID, a.Status, a.StrategyLabel,
		nullIfEmpty(a.RulesVersion), a.ResultJSON, a.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert analysis %s: %w", a.ID, err)
	}

	const qf = `
INSERT INTO review_findings
  (id, analysis_id, slide_number, category, basis, issue, suggestion, correction_type)
VALUES (?,?,?,?,?,?,?,?);
`
	for _, f := range findings {
		if _, err := tx.ExecContext(ctx, qf,
			f.ID, f.AnalysisID, f.SlideNumber, f.Category, f.Basis, f.Issue, f.Suggestion, f.CorrectionType,
		); err != nil {
			return fmt.Errorf("insert finding %s: %w", f.ID, err)
		}
	}
	return tx.Commit()
}

// GetAnalysis by ID + owner, with its current findings
func (r *ReviewRepository) GetAnalysis(ctx context.Context, owner string, id domain.AnalysisID) (*domain.Analysis, []*domain.Finding, error) {
	const q = `
SELECT ` + analysisCols + `
FROM review_analyses
WHERE owner_id=? AND id=? LIMIT 1;
`
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, q, owner, id))
	if err != nil {
		return nil, nil, err
	}
	findings, err := r.findingsFor(ctx, a.ID)
	if err != nil {
		return nil, nil, err
	}
	return a, findings, nil
}

// ListAnalyses for one file, newest first
func (r *ReviewRepository) ListAnalyses(ctx context.Context, owner string, fileID domfiles.FileID) ([]*domain.Analysis, error) {
	const q = `
SELECT ` + analysisCols + `
FROM review_analyses
WHERE owner_id=? AND file_id=?
ORDER BY created_at DESC, id DESC;
`
	rows, err := r.db.QueryContext(ctx, q, owner, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Analysis
	for rows.Next() {
		a, err := scanAnalysisRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// LatestAnalysis is the most recent run for a file
func (r *ReviewRepository) LatestAnalysis(ctx context.Context, owner string, fileID domfiles.FileID) (*domain.Analysis, []*domain.Finding, error) {
	const q = `
SELECT ` + analysisCols + `
FROM review_analyses
WHERE owner_id=? AND file_id=?
ORDER BY created_at DESC, id DESC
LIMIT 1;
`
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, q, owner, fileID))
	if err != nil {
		return nil, nil, err
	}
	findings, err := r.findingsFor(ctx, a.ID)
	if err != nil {
		return nil, nil, err
	}
	return a, findings, nil
}

// InsertFinding appends a finding to an analysis the owner can reach.
func (r *ReviewRepository) InsertFinding(ctx context.Context, owner string, f *domain.Finding) error {
	// Ownership is transitive: finding -> analysis -> owner_id copied from
	// the file. A foreign analysis answers not-found, never forbidden.
	const check = `SELECT 1 FROM review_analyses WHERE owner_id=? AND id=? LIMIT 1;`
	var one int
	if err := r.db.QueryRowContext(ctx, check, owner, f.AnalysisID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	const q = `
INSERT INTO review_findings
  (id, analysis_id, slide_number, category, basis, issue, suggestion, correction_type)
VALUES (?,?,?,?,?,?,?,?);
`
	_, err := r.db.ExecContext(ctx, q,
		f.ID, f.AnalysisID, f.SlideNumber, f.Category, f.Basis, f.Issue, f.Suggestion, f.CorrectionType,
	)
	return err
}

// PatchFinding loads the row owner-scoped, applies the non-nil fields and
// writes it back. Applying the same patch twice is a no-op the second time.
func (r *ReviewRepository) PatchFinding(ctx context.Context, owner string, id domain.FindingID, p domain.FindingPatch) (*domain.Finding, error) {
	const sel = `
SELECT f.id, f.analysis_id, f.slide_number, f.category, f.basis, f.issue, f.suggestion, f.correction_type
FROM review_findings f
JOIN review_analyses a ON a.id = f.analysis_id
WHERE f.id=? AND a.owner_id=?
LIMIT 1;
`
	var f domain.Finding
	if err := r.db.QueryRowContext(ctx, sel, id, owner).Scan(
		&f.ID, &f.AnalysisID, &f.SlideNumber, &f.Category, &f.Basis, &f.Issue, &f.Suggestion, &f.CorrectionType,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	p.Apply(&f)

	const upd = `
UPDATE review_findings
SET slide_number=?, category=?, basis=?, issue=?, suggestion=?, correction_type=?
WHERE id=?;
`
	if _, err := r.db.ExecContext(ctx, upd,
		f.SlideNumber, f.Category, f.Basis, f.Issue, f.Suggestion, f.CorrectionType, f.ID,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

// DeleteFinding removes one finding the owner can reach.
func (r *ReviewRepository) DeleteFinding(ctx context.Context, owner string, id domain.FindingID) error {
	const q = `
DELETE f FROM review_findings f
JOIN review_analyses a ON a.id = f.analysis_id
WHERE f.id=? AND a.owner_id=?;
`
	res, err := r.db.ExecContext(ctx, q, id, owner)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ReviewRepository) findingsFor(ctx context.Context, id domain.AnalysisID) ([]*domain.Finding, error) {
	const q = `
SELECT ` + findingCols + `
FROM review_findings
WHERE analysis_id=?
ORDER BY slide_number ASC, id ASC;
`
	rows, err := r.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Finding
	for rows.Next() {
		var f domain.Finding
		if err := rows.Scan(&f.ID, &f.AnalysisID, &f.SlideNumber, &f.Category, &f.Basis, &f.Issue, &f.Suggestion, &f.CorrectionType); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysisFrom(sc rowScanner) (*domain.Analysis, error) {
	var a domain.Analysis
	var rules sql.NullString
	if err := sc.Scan(&a.ID, &a.OwnerID, &a.FileID, &a.Status, &a.StrategyLabel, &rules, &a.ResultJSON, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.RulesVersion = rules.String
	return &a, nil
}

func scanAnalysis(row *sql.Row) (*domain.Analysis, error) {
	a, err := scanAnalysisFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func scanAnalysisRows(rows *sql.Rows) (*domain.Analysis, error) {
	return scanAnalysisFrom(rows)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
