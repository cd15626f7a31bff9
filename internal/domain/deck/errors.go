package deck

import "fmt"

// ConversionError marks malformed or corrupt deck input. Conversion is
// all-or-nothing: a partially readable deck still fails with this error.
type ConversionError struct {
	Cause error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("deck conversion failed: %v", e.Cause)
}

func (e *ConversionError) Unwrap() error { return e.Cause }
