package files

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/slide-review/internal/domain/files"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeRepo struct {
	rows    map[files.FileID]*files.File
	saveErr error
	// missNextFind makes the next FindByDigest report not-found, mimicking
	// a concurrent insert that lands between the pre-check and Save.
	missNextFind bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[files.FileID]*files.File{}}
}

func (r *fakeRepo) Save(_ context.Context, f *files.File) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	for _, row := range r.rows {
		if row.OwnerID == f.OwnerID && row.SHA256 == f.SHA256 {
			return errors.New("unique constraint violation")
		}
	}
	cp := *f
	r.rows[f.ID] = &cp
	return nil
}

func (r *fakeRepo) Get(_ context.Context, owner string, id files.FileID) (*files.File, error) {
	f, ok := r.rows[id]
	if !ok || f.OwnerID != owner {
		return nil, files.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeRepo) FindByDigest(_ context.Context, owner, digest string) (*files.File, error) {
	if r.missNextFind {
		r.missNextFind = false
		return nil, files.ErrNotFound
	}
	for _, f := range r.rows {
		if f.OwnerID == owner && f.SHA256 == digest {
			cp := *f
			return &cp, nil
		}
	}
	return nil, files.ErrNotFound
}

func (r *fakeRepo) List(_ context.Context, owner string) ([]*files.File, error) {
	var out []*files.File
	for _, f := range r.rows {
		if f.OwnerID == owner {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) Delete(_ context.Context, owner string, id files.FileID) error {
	f, ok := r.rows[id]
	if !ok || f.OwnerID != owner {
		return files.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type fakeStore struct {
	objects map[string][]byte
	putErr  error
}

func newFakeStore() *fakeStore { return &fakeStore{objects: map[string][]byte{}} }

func (s *fakeStore) Put(_ context.Context, key string, data []byte, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

func (s *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, files.ErrNotFoundInStore
	}
	return data, nil
}

func (s *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func newService(repo *fakeRepo, store *fakeStore) *Service {
	return &Service{
		Repo:  repo,
		Store: store,
		Clock: fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
}

// minimalDeck builds a pptx archive with one text run per given slide body.
func minimalDeck(t *testing.T, texts ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("ppt/presentation.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"/>`))
	require.NoError(t, err)
	for i, text := range texts {
		w, err := zw.Create(zipSlideName(i + 1))
		require.NoError(t, err)
		_, err = w.Write([]byte(
			`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
				` xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
				`<a:t>` + text + `</a:t></p:sld>`))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func zipSlideName(n int) string {
	return "ppt/slides/slide" + string(rune('0'+n)) + ".xml"
}

func TestIngestStoresBlobAndRow(t *testing.T) {
	repo, store := newFakeRepo(), newFakeStore()
	svc := newService(repo, store)
	raw := minimalDeck(t, "hello")

	f, err := svc.Ingest(context.Background(), "owner-a", "deck.pptx", raw)
	require.NoError(t, err)

	sum := sha256.Sum256(raw)
	assert.Equal(t, hex.EncodeToString(sum[:]), f.SHA256)
	assert.Equal(t, int64(len(raw)), f.SizeBytes)
	assert.Equal(t, "owner-a/deck.pptx", f.StorageKey)
	assert.NotEmpty(t, f.ID)

	stored, err := store.Get(context.Background(), f.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, raw, stored)
	_, err = repo.Get(context.Background(), "owner-a", f.ID)
	require.NoError(t, err)
}

func TestIngestRejectsNonPptx(t *testing.T) {
	svc := newService(newFakeRepo(), newFakeStore())
	_, err := svc.Ingest(context.Background(), "owner-a", "report.pdf", []byte("x"))
	assert.ErrorIs(t, err, files.ErrUnsupportedType)
}

func TestIngestSameBytesSameOwnerIsDuplicate(t *testing.T) {
	repo, store := newFakeRepo(), newFakeStore()
	svc := newService(repo, store)
	raw := minimalDeck(t, "same")

	first, err := svc.Ingest(context.Background(), "owner-a", "deck.pptx", raw)
	require.NoError(t, err)

	// Same content under a different name still collides: identity is
	// (owner, digest), not the filename.
	_, err = svc.Ingest(context.Background(), "owner-a", "renamed.pptx", raw)
	var dup *files.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.ID, dup.ExistingID)
	assert.Len(t, repo.rows, 1)
}

func TestIngestSameBytesDifferentOwnersBothSucceed(t *testing.T) {
	repo, store := newFakeRepo(), newFakeStore()
	svc := newService(repo, store)
	raw := minimalDeck(t, "shared")

	a, err := svc.Ingest(context.Background(), "owner-a", "deck.pptx", raw)
	require.NoError(t, err)
	b, err := svc.Ingest(context.Background(), "owner-b", "deck.pptx", raw)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.SHA256, b.SHA256)
	assert.Len(t, repo.rows, 2)
}

func TestIngestRaceLoserGetsDuplicateAndCleansBlob(t *testing.T) {
	repo, store := newFakeRepo(), newFakeStore()
	svc := newService(repo, store)
	raw := minimalDeck(t, "raced")

	winner, err := svc.Ingest(context.Background(), "owner-a", "deck.pptx", raw)
	require.NoError(t, err)

	// Simulate the loser: its pre-check misses, its insert hits the
	// constraint, and the re-check resolves to the winner.
	repo.missNextFind = true
	loserKey := StorageKey("owner-a", "other-name.pptx")
	_, err = svc.Ingest(context.Background(), "owner-a", "other-name.pptx", raw)

	var dup *files.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, winner.ID, dup.ExistingID)
	exists, _ := store.Exists(context.Background(), loserKey)
	assert.False(t, exists, "loser's blob must not survive")
}

func TestIngestRaceSameFilenameKeepsWinnerBlob(t *testing.T) {
	repo, store := newFakeRepo(), newFakeStore()
	svc := newService(repo, store)
	raw := minimalDeck(t, "raced twice")

	winner, err := svc.Ingest(context.Background(), "owner-a", "deck.pptx", raw)
	require.NoError(t, err)

	// Same filename: the loser rewrites the winner's key with identical
	// bytes, so its cleanup must leave the object in place.
	repo.missNextFind = true
	_, err = svc.Ingest(context.Background(), "owner-a", "deck.pptx", raw)

	var dup *files.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, winner.ID, dup.ExistingID)
	exists, _ := store.Exists(context.Background(), winner.StorageKey)
	assert.True(t, exists, "winner's blob must survive the loser's cleanup")

	// the surviving row still reads back
	text, err := svc.ReadText(context.Background(), "owner-a", winner.ID)
	require.NoError(t, err)
	assert.Contains(t, text, "raced twice")
}

func TestDeleteRemovesBlobAndRow(t *testing.T) {
	repo, store := newFakeRepo(), newFakeStore()
	svc := newService(repo, store)
	raw := minimalDeck(t, "bye")

	f, err := svc.Ingest(context.Background(), "owner-a", "deck.pptx", raw)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "owner-a", f.ID))
	_, err = repo.Get(context.Background(), "owner-a", f.ID)
	assert.ErrorIs(t, err, files.ErrNotFound)
	exists, _ := store.Exists(context.Background(), f.StorageKey)
	assert.False(t, exists)
}

func TestDeleteForeignFileLooksAbsent(t *testing.T) {
	repo, store := newFakeRepo(), newFakeStore()
	svc := newService(repo, store)
	f, err := svc.Ingest(context.Background(), "owner-a", "deck.pptx", minimalDeck(t, "mine"))
	require.NoError(t, err)

	err = svc.Delete(context.Background(), "owner-b", f.ID)
	assert.ErrorIs(t, err, files.ErrNotFound)
	// untouched
	_, err = repo.Get(context.Background(), "owner-a", f.ID)
	require.NoError(t, err)
}

func TestReadTextConvertsStoredDeck(t *testing.T) {
	repo, store := newFakeRepo(), newFakeStore()
	svc := newService(repo, store)
	f, err := svc.Ingest(context.Background(), "owner-a", "deck.pptx", minimalDeck(t, "hello world"))
	require.NoError(t, err)

	text, err := svc.ReadText(context.Background(), "owner-a", f.ID)
	require.NoError(t, err)
	assert.Equal(t, "[slide 1]\n  - hello world", text)
}

func TestStorageKeyStripsDirectories(t *testing.T) {
	assert.Equal(t, "o/deck.pptx", StorageKey("o", "../../deck.pptx"))
}
