package ports

import (
	"context"

	"biotriage/domain/enrichment"
	"biotriage/domain/program"
)

// InterpretationRequest carries the scored triage output that conditions the
// reasoning oracle. AdvisoryNotes are the assay-specific rule notes.
type InterpretationRequest struct {
	Context       enrichment.Context `json:"experiment_context"`
	Programs      []program.Program  `json:"top_programs"`
	TopTerms      []enrichment.Term  `json:"top_terms"`
	AdvisoryNotes []string           `json:"advisory_notes,omitempty"`
}

// ReasoningOraclePort is the external interpretation service: text in, text
// out, no guaranteed structure, possibly slow or unavailable. The caller
// bounds the call with a context deadline.
type ReasoningOraclePort interface {
	Interpret(ctx context.Context, req InterpretationRequest) (string, error)
}
