package files

import "context"

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, f *File) error
	Get(ctx context.Context, owner string, id FileID) (*File, error)
	FindByDigest(ctx context.Context, owner, sha256 string) (*File, error)
	List(ctx context.Context, owner string) ([]*File, error)
	// Delete removes the row; analyses and findings go with it (FK cascade).
	Delete(ctx context.Context, owner string, id FileID) error
}

// ContentStore port (interface untuk blob storage)
type ContentStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	// Delete is best-effort; a missing object is not an error.
	Delete(ctx context.Context, key string) error
}
