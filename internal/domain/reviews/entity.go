package reviews

import (
	"time"

	"github.com/bryanwahyu/slide-review/internal/domain/files"
)

// AnalysisID tipe untuk Analysis
type AnalysisID string

// FindingID tipe untuk Finding
type FindingID string

// Status enum
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// CorrectionType enum
type CorrectionType string

const (
	CorrectionRequired CorrectionType = "required"
	CorrectionOptional CorrectionType = "optional"
)

// StrategyStub is the label recorded when the deterministic strategy
// produced the result, whether requested or reached via fallback.
const StrategyStub = "stub"

// Finding is one reviewable issue tied to a slide.
type Finding struct {
	ID             FindingID      `json:"id"`
	AnalysisID     AnalysisID     `json:"analysis_id"`
	SlideNumber    int            `json:"slide_number"`
	Category       string         `json:"category"`
	Basis          string         `json:"basis"`
	Issue          string         `json:"issue"`
	Suggestion     string         `json:"suggestion"`
	CorrectionType CorrectionType `json:"correction_type"`
}

// Aggregate Root: Analysis — one pipeline run against a File.
// ResultJSON is the write-once snapshot of the findings as produced at
// analysis time; later edits to Finding rows never touch it.
type Analysis struct {
	ID            AnalysisID   `json:"id"`
	OwnerID       string       `json:"owner_id"`
	FileID        files.FileID `json:"file_id"`
	Status        Status       `json:"status"`
	StrategyLabel string       `json:"strategy_label"`
	RulesVersion  string       `json:"rules_version,omitempty"`
	ResultJSON    string       `json:"result_json"`
	CreatedAt     time.Time    `json:"created_at"`
}
