package program

import (
	"biotriage/domain/enrichment"
)

// Classification places a program on the driver/reactive/artifact axis
type Classification string

const (
	Driver    Classification = "driver"
	Reactive  Classification = "reactive"
	Artifact  Classification = "artifact"
	Ambiguous Classification = "ambiguous"
)

// TissuePlausibility records whether a program is expected in the sampled
// tissue/cell type
type TissuePlausibility string

const (
	Plausible   TissuePlausibility = "plausible"
	Implausible TissuePlausibility = "implausible"
	Unknown     TissuePlausibility = "unknown"
)

// Program is a cluster of enrichment terms judged to represent one coherent
// biological mechanism. Created by the clusterer, refined exactly once by the
// scorer, immutable thereafter.
type Program struct {
	ID      string            `json:"id"`
	Label   string            `json:"label"`
	Tag     string            `json:"tag,omitempty"` // canonical rule tag, empty when untagged
	Members []enrichment.Term `json:"members"`

	// TopGenes are the frequency-weighted most recurrent member genes.
	TopGenes []string `json:"top_genes,omitempty"`

	// Scorer outputs.
	AggregateScore     float64            `json:"aggregate_score"`
	Classification     Classification     `json:"classification"`
	MatchedRules       []string           `json:"matched_rules,omitempty"`
	ConfounderScore    float64            `json:"confounder_score"`
	TissuePlausibility TissuePlausibility `json:"tissue_plausibility"`
	GrowthAxis         bool               `json:"growth_axis,omitempty"`
	GrowthOverride     bool               `json:"growth_override,omitempty"`
}

// SeedTerm returns the highest-ranking member term, with a lexicographic
// term-name tie-break so labeling is reproducible across runs.
func (p Program) SeedTerm() enrichment.Term {
	if len(p.Members) == 0 {
		return enrichment.Term{}
	}
	best := p.Members[0]
	for _, m := range p.Members[1:] {
		if m.RankScore() > best.RankScore() ||
			(m.RankScore() == best.RankScore() && m.Name < best.Name) {
			best = m
		}
	}
	return best
}
