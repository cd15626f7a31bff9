package ai

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// CapabilityError wraps any failure of the external strategy, including
// timeouts. auto mode treats it as the fallback trigger; external mode
// surfaces it as a hard error.
type CapabilityError struct {
	Strategy string
	Err      error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("analysis strategy %s failed: %v", e.Strategy, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }
