package stub

import (
	"context"

	"github.com/bryanwahyu/slide-review/internal/domain/reviews"
)

// Strategy is the deterministic analysis strategy: pure, total, never
// fails. It backs stub mode and the auto-mode fallback, so callers always
// get a valid finding list even when the model is unavailable.
type Strategy struct{}

func New() *Strategy { return &Strategy{} }

func (*Strategy) Label() string { return reviews.StrategyStub }

// Analyze ignores the deck content beyond receiving it and returns one
// fixed sample finding. Correction type is left empty on purpose: the
// dispatcher's normalize stage owns the defaulting.
func (*Strategy) Analyze(_ context.Context, _ string, _ string) ([]reviews.Finding, error) {
	return []reviews.Finding{
		{
			SlideNumber: 1,
			Category:    "wording",
			Basis:       "1",
			Issue:       "Sample: the phrasing is overly assertive.",
			Suggestion:  "Sample: soften the claim or cite a source.",
		},
	}, nil
}
