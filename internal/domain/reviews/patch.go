package reviews

// FindingPatch carries partial updates for a Finding. Nil fields are left
// unchanged, so an omitted field can never clear a value. Applying the
// same patch twice yields the same row.
type FindingPatch struct {
	SlideNumber    *int            `json:"slide_number"`
	Category       *string         `json:"category"`
	Basis          *string         `json:"basis"`
	Issue          *string         `json:"issue"`
	Suggestion     *string         `json:"suggestion"`
	CorrectionType *CorrectionType `json:"correction_type"`
}

// IsZero reports whether the patch changes nothing.
func (p FindingPatch) IsZero() bool {
	return p.SlideNumber == nil && p.Category == nil && p.Basis == nil &&
		p.Issue == nil && p.Suggestion == nil && p.CorrectionType == nil
}

// Apply writes the non-nil fields onto f.
func (p FindingPatch) Apply(f *Finding) {
	if p.SlideNumber != nil {
		f.SlideNumber = *p.SlideNumber
	}
	if p.Category != nil {
		f.Category = *p.Category
	}
	if p.Basis != nil {
		f.Basis = *p.Basis
	}
	if p.Issue != nil {
		f.Issue = *p.Issue
	}
	if p.Suggestion != nil {
		f.Suggestion = *p.Suggestion
	}
	if p.CorrectionType != nil {
		f.CorrectionType = *p.CorrectionType
	}
}
