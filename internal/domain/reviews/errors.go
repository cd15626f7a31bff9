package reviews

import (
	"errors"
	"fmt"
)

// ErrNotFound covers a missing analysis/finding and an owner mismatch on
// mutating paths: both answer "not found" so existence never leaks.
var ErrNotFound = errors.New("analysis not found")

// ErrAccessDenied is what repositories may signal internally on an owner
// mismatch; services collapse it to ErrNotFound before it leaves the core.
var ErrAccessDenied = errors.New("access denied")

// ErrSlideNumber rejects findings pointing at slide 0 or below.
var ErrSlideNumber = errors.New("slide_number must be >= 1")

// ErrEmptyPatch rejects a patch that supplies no fields.
var ErrEmptyPatch = errors.New("patch contains no fields")

// InvalidModeError rejects an unknown analysis mode before any work runs.
type InvalidModeError struct {
	Requested string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid analysis mode %q (want auto, stub or external)", e.Requested)
}
