package mysql

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/bryanwahyu/slide-review/internal/domain/files"
)

type FileRepository struct {
	db *sql.DB
}

func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

// Save inserts a file row. The unique key on (owner_id, content_sha256)
// is the atomic dedup point for concurrent ingests of the same bytes.
func (r *FileRepository) Save(ctx context.Context, f *domain.File) error {
	const q = `
INSERT INTO review_files
  (id, owner_id, filename, storage_key, content_sha256, size_bytes, created_at)
VALUES (?,?,?,?,?,?,?);
`
	_, err := r.db.ExecContext(ctx, q,
		f.ID, f.OwnerID, f.Filename, f.StorageKey, f.SHA256, f.SizeBytes, f.CreatedAt,
	)
	return err
}

// Get by ID + owner
func (r *FileRepository) Get(ctx context.Context, owner string, id domain.FileID) (*domain.File, error) {
	const q = `
SELECT id, owner_id, filename, storage_key, content_sha256, size_bytes, created_at
FROM review_files
WHERE owner_id=? AND id=? LIMIT 1;
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, owner, id))
}

// FindByDigest looks up a file by its content digest within one owner.
func (r *FileRepository) FindByDigest(ctx context.Context, owner, sha256 string) (*domain.File, error) {
	const q = `
SELECT id, owner_id, filename, storage_key, content_sha256, size_bytes, created_at
FROM review_files
WHERE owner_id=? AND content_sha256=? LIMIT 1;
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, owner, sha256))
}

// List files per owner, newest first
func (r *FileRepository) List(ctx context.Context, owner string) ([]*domain.File, error) {
	const q = `
SELECT id, owner_id, filename, storage_key, content_sha256, size_bytes, created_at
FROM review_files
WHERE owner_id=? ORDER BY created_at DESC, id DESC;
`
	rows, err := r.db.QueryContext(ctx, q, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.File
	for rows.Next() {
		var f domain.File
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.Filename, &f.StorageKey, &f.SHA256, &f.SizeBytes, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

// Delete removes the row; dependent analyses and findings cascade via FK.
func (r *FileRepository) Delete(ctx context.Context, owner string, id domain.FileID) error {
	const q = `DELETE FROM review_files WHERE owner_id=? AND id=?;`
	res, err := r.db.ExecContext(ctx, q, owner, id)
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

func (r *FileRepository) scanOne(row *sql.Row) (*domain.File, error) {
	var f domain.File
	if err := row.Scan(&f.ID, &f.OwnerID, &f.Filename, &f.StorageKey, &f.SHA256, &f.SizeBytes, &f.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}
