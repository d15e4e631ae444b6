package report

import (
	"sort"
	"time"

	"biotriage/domain/core"
	"biotriage/domain/enrichment"
	"biotriage/domain/narrative"
	"biotriage/domain/program"
	"biotriage/domain/triage"
)

// topTermLimit caps the flat term ranking in the result.
const topTermLimit = 50

// Assembler folds the pipeline outputs into the single analysis result.
type Assembler struct{}

// New creates an Assembler.
func New() *Assembler {
	return &Assembler{}
}

// Assemble builds the final Result. Programs are ranked by aggregate score
// descending with label tie-break; top terms by rank score descending with
// name tie-break. A non-empty narrative that yielded no sections gets the
// NARRATIVE_INCOMPLETE warning: the text survives raw, but the structured
// views are missing it.
func (a *Assembler) Assemble(
	id core.AnalysisID,
	ctx enrichment.Context,
	programs []program.Program,
	terms []enrichment.Term,
	narrativeText string,
	sections []narrative.Section,
	disagreements []triage.Disagreement,
	warnings []string,
) *triage.Result {
	ranked := make([]program.Program, len(programs))
	copy(ranked, programs)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].AggregateScore != ranked[j].AggregateScore {
			return ranked[i].AggregateScore > ranked[j].AggregateScore
		}
		return ranked[i].Label < ranked[j].Label
	})

	if narrativeText != "" && len(sections) == 0 {
		warnings = appendWarning(warnings, triage.WarnNarrativeIncomplete)
	}
	if sections == nil {
		sections = []narrative.Section{}
	}
	if disagreements == nil {
		disagreements = []triage.Disagreement{}
	}

	return &triage.Result{
		AnalysisID:    id,
		Context:       ctx,
		Programs:      ranked,
		TopTerms:      topTerms(terms, topTermLimit),
		NarrativeText: narrativeText,
		Narrative:     sections,
		Disagreements: disagreements,
		Warnings:      warnings,
		CreatedAt:     time.Now().UTC(),
	}
}

func topTerms(terms []enrichment.Term, limit int) []enrichment.Term {
	ranked := make([]enrichment.Term, len(terms))
	copy(ranked, terms)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].RankScore() != ranked[j].RankScore() {
			return ranked[i].RankScore() > ranked[j].RankScore()
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func appendWarning(warnings []string, code string) []string {
	for _, w := range warnings {
		if w == code {
			return warnings
		}
	}
	return append(warnings, code)
}
