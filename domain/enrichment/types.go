package enrichment

// Term is one enriched gene set row in canonical form.
// Terms are immutable once parsed: the normalizer is the only writer.
type Term struct {
	Name          string   `json:"term"`
	GeneSet       string   `json:"gene_set,omitempty"` // source library, e.g. "GO_Biological_Process_2023"
	PValue        float64  `json:"p_value"`
	AdjustedP     float64  `json:"adjusted_p_value"`
	OddsRatio     float64  `json:"odds_ratio,omitempty"`
	CombinedScore float64  `json:"combined_score,omitempty"`
	Genes         []string `json:"genes"`
	OverlapK      int      `json:"overlap_k"`
	OverlapN      int      `json:"overlap_n,omitempty"`

	// PreScore is the stats-aware 0-100 pre-score computed at parse time.
	// It filters junk before any biological interpretation happens.
	PreScore float64  `json:"pre_score"`
	Flags    []string `json:"flags,omitempty"`
}

// RankScore is the value used when ranking terms across a dataset.
// CombinedScore is preferred; PreScore covers exports without one.
func (t Term) RankScore() float64 {
	if t.CombinedScore > 0 {
		return t.CombinedScore
	}
	return t.PreScore
}

// GeneSetKey identifies a term for deduplication purposes.
func (t Term) GeneSetKey() string {
	return t.Name + "\x00" + t.GeneSet
}

// Per-term flags attached by the normalizer.
const (
	FlagTinyOverlap      = "tiny_overlap"
	FlagWeakStats        = "weak_stats"
	FlagGenericTermSmall = "generic_term_small_overlap"
)
