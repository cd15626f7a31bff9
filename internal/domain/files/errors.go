package files

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the file does not exist for the acting owner.
// Owner mismatch deliberately looks the same so ids cannot be probed.
var ErrNotFound = errors.New("file not found")

// ErrNotFoundInStore indicates the object is gone from the content store.
var ErrNotFoundInStore = errors.New("object not found in content store")

// ErrUnsupportedType rejects uploads that are not .pptx presentations.
var ErrUnsupportedType = errors.New("only .pptx files are supported")

// DuplicateError is returned when the same bytes were already ingested by
// the same owner. It carries the existing id so the caller can reuse it.
type DuplicateError struct {
	ExistingID FileID
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate content: already registered as file %s", e.ExistingID)
}
