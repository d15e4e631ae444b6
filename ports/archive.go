package ports

import (
	"context"

	"biotriage/domain/triage"
)

// ResultArchivePort persists completed triage results for later retrieval.
// Archiving is best-effort: failures never abort an analysis.
type ResultArchivePort interface {
	SaveResult(ctx context.Context, result *triage.Result) error
}
