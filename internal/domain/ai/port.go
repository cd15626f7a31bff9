package ai

import (
	"context"

	"github.com/bryanwahyu/slide-review/internal/domain/reviews"
)

// Strategy turns a structured deck text into findings. Implementations:
// the external model client and the deterministic stub.
type Strategy interface {
	// Label names the strategy actually producing the result (e.g. the
	// model name, or "stub"). Recorded on the Analysis row for auditing.
	Label() string
	Analyze(ctx context.Context, deckText, rules string) ([]reviews.Finding, error)
}
