package files

import (
	"time"
)

// FileID tipe untuk File
type FileID string

// Aggregate Root: File — one uploaded deck owned by a single user.
// (owner_id, sha256) is unique: the same bytes can only be registered once per owner.
type File struct {
	ID         FileID    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Filename   string    `json:"filename"`
	StorageKey string    `json:"storage_key"`
	SHA256     string    `json:"sha256"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
}
