package reviews

import (
	"context"

	"github.com/bryanwahyu/slide-review/internal/domain/files"
)

// Repository port (interface untuk persistence).
// Every method is owner-scoped; rows reachable only through another owner
// behave exactly like absent rows.
type Repository interface {
	// RecordAnalysis commits the analysis row and all finding rows in one
	// transaction; on error nothing is persisted.
	RecordAnalysis(ctx context.Context, a *Analysis, findings []*Finding) error

	GetAnalysis(ctx context.Context, owner string, id AnalysisID) (*Analysis, []*Finding, error)
	ListAnalyses(ctx context.Context, owner string, fileID files.FileID) ([]*Analysis, error)
	LatestAnalysis(ctx context.Context, owner string, fileID files.FileID) (*Analysis, []*Finding, error)

	InsertFinding(ctx context.Context, owner string, f *Finding) error
	PatchFinding(ctx context.Context, owner string, id FindingID, p FindingPatch) (*Finding, error)
	DeleteFinding(ctx context.Context, owner string, id FindingID) error
}
