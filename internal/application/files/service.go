package files

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/bryanwahyu/slide-review/internal/application"
	"github.com/bryanwahyu/slide-review/internal/domain/deck"
	domain "github.com/bryanwahyu/slide-review/internal/domain/files"
)

// Service implements use-cases untuk File ingest dan lifecycle.
// Safe for concurrent use; the (owner, sha256) unique constraint in the
// repository is the only cross-request coordination point.
type Service struct {
	Repo  domain.Repository
	Store domain.ContentStore
	Clock application.Clock
}

// Ingest registers uploaded bytes for an owner: digest, duplicate check,
// blob write, row insert. A re-upload of identical bytes by the same owner
// returns a DuplicateError carrying the existing id; it never silently
// overwrites. If the row insert fails after the blob write, the blob is
// deleted best-effort so no orphan survives the request.
func (s *Service) Ingest(ctx context.Context, ownerID, filename string, raw []byte) (*domain.File, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".pptx") {
		return nil, fmt.Errorf("ingest %q: %w", filename, domain.ErrUnsupportedType)
	}

	sum := sha256.Sum256(raw)
	digest := hex.EncodeToString(sum[:])

	existing, err := s.Repo.FindByDigest(ctx, ownerID, digest)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("ingest: duplicate lookup: %w", err)
	}
	if existing != nil {
		return nil, &domain.DuplicateError{ExistingID: existing.ID}
	}

	key := StorageKey(ownerID, filename)
	if err := s.Store.Put(ctx, key, raw, "application/vnd.openxmlformats-officedocument.presentationml.presentation"); err != nil {
		return nil, fmt.Errorf("ingest: store put %s: %w", key, err)
	}

	f := &domain.File{
		ID:         domain.FileID(uuid.New().String()),
		OwnerID:    ownerID,
		Filename:   filename,
		StorageKey: key,
		SHA256:     digest,
		SizeBytes:  int64(len(raw)),
		CreatedAt:  s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, f); err != nil {
		// The concurrent-ingest race resolves here: the constraint lets
		// exactly one insert win, the loser reports the duplicate.
		if dup, derr := s.Repo.FindByDigest(ctx, ownerID, digest); derr == nil && dup != nil {
			// Same filename means the winner's row references the key we
			// just wrote; the bytes are identical, so the object is still
			// correct and must survive.
			if dup.StorageKey != key {
				s.cleanupBlob(key)
			}
			return nil, &domain.DuplicateError{ExistingID: dup.ID}
		}
		s.cleanupBlob(key)
		return nil, fmt.Errorf("ingest: persist file row: %w", err)
	}
	return f, nil
}

func (s *Service) cleanupBlob(key string) {
	if err := s.Store.Delete(context.Background(), key); err != nil {
		log.Printf("ingest cleanup: leaving orphan object key=%s err=%v", key, err)
	}
}

// Get returns one file for the owner.
func (s *Service) Get(ctx context.Context, ownerID string, id domain.FileID) (*domain.File, error) {
	return s.Repo.Get(ctx, ownerID, id)
}

// List returns the owner's files, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]*domain.File, error) {
	return s.Repo.List(ctx, ownerID)
}

// Delete removes the blob (best-effort) and the row; analyses and findings
// cascade with the row.
func (s *Service) Delete(ctx context.Context, ownerID string, id domain.FileID) error {
	f, err := s.Repo.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, f.StorageKey); err != nil {
		log.Printf("file delete: blob removal failed key=%s err=%v", f.StorageKey, err)
	}
	if err := s.Repo.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete file %s: %w", id, err)
	}
	return nil
}

// ReadText fetches the stored deck and returns its structured text form.
func (s *Service) ReadText(ctx context.Context, ownerID string, id domain.FileID) (string, error) {
	f, err := s.Repo.Get(ctx, ownerID, id)
	if err != nil {
		return "", err
	}
	raw, err := s.Store.Get(ctx, f.StorageKey)
	if err != nil {
		return "", fmt.Errorf("read file %s: store get %s: %w", id, f.StorageKey, err)
	}
	text, err := deck.Convert(raw)
	if err != nil {
		return "", fmt.Errorf("read file %s: %w", id, err)
	}
	return text, nil
}

// StorageKey derives the blob key from owner and original filename,
// mirroring the <owner>/<filename> layout of the bucket.
func StorageKey(ownerID, filename string) string {
	return ownerID + "/" + path.Base(filename)
}
