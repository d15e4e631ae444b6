package triage

import (
	"time"

	"biotriage/domain/core"
	"biotriage/domain/enrichment"
	"biotriage/domain/narrative"
	"biotriage/domain/program"
)

// Warning codes attached to a Result when a recoverable step degraded.
const (
	WarnNarrativeIncomplete = "NARRATIVE_INCOMPLETE"
	WarnOracleTimeout       = "ORACLE_TIMEOUT"
	WarnOracleUnavailable   = "ORACLE_UNAVAILABLE"
)

// Disagreement records a qualitative conflict between the narrative text and
// the scorer's own classification of a program.
type Disagreement struct {
	ProgramID string `json:"program_id"`
	Reason    string `json:"reason"`
}

// Result is the single output object of one analysis. It is owned by the
// report layer for the lifetime of the request and not persisted beyond it
// unless an archive is configured.
type Result struct {
	AnalysisID core.AnalysisID    `json:"analysis_id"`
	Context    enrichment.Context `json:"context"`

	// Programs ranked by aggregate score desc, ties broken by label.
	Programs []program.Program `json:"programs"`

	// TopTerms is the flat term ranking consumed by the Top Terms view.
	TopTerms []enrichment.Term `json:"top_terms"`

	NarrativeText string              `json:"narrative_text,omitempty"`
	Narrative     []narrative.Section `json:"narrative_sections"`
	Disagreements []Disagreement      `json:"disagreements"`

	Warnings  []string  `json:"warnings,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasWarning reports whether a warning code is present.
func (r *Result) HasWarning(code string) bool {
	for _, w := range r.Warnings {
		if w == code {
			return true
		}
	}
	return false
}
