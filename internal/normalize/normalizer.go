package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"biotriage/domain/enrichment"
	"biotriage/internal/errors"
	"biotriage/ports"
)

// Column aliases tolerant of Enrichr-style export headers. Matching is
// case-insensitive and tried in order.
var columnAliases = map[string][]string{
	"term":           {"Term", "pathway", "name"},
	"gene_set":       {"Gene_set", "Gene set", "library", "source"},
	"overlap":        {"Overlap"},
	"pval":           {"P.value", "pvalue", "P-value", "Pval", "p_val"},
	"padj":           {"Adjusted.P.value", "Adjusted P-value", "Adjusted.P-val", "FDR", "qvalue", "padj"},
	"odds_ratio":     {"Odds.Ratio", "Odds Ratio", "odds_ratio", "OR"},
	"combined_score": {"Combined.Score", "Combined Score", "combined_score"},
	"genes":          {"Genes", "overlap_genes", "gene_list"},
}

var geneSplitRe = regexp.MustCompile(`[;,]\s*`)

// Generic GO-style term prefixes that are near-meaningless with a tiny
// overlap.
var genericTermMarkers = []string{"metabolic process", "regulation of", "cellular process"}

// Normalizer turns raw enrichment tables into canonical terms. It is a pure
// transform: one instance per request, no shared state.
type Normalizer struct{}

// New creates a Normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Normalize parses a raw table into enrichment terms.
//
// Fails with MALFORMED_INPUT when the term, genes or p-value columns cannot
// be located, and EMPTY_DATASET when no usable rows remain after filtering
// rows with non-numeric p-values or empty gene overlaps. Rows sharing
// (term, gene set source) are deduplicated keeping the lowest adjusted p.
func (n *Normalizer) Normalize(table *ports.RawTable) ([]enrichment.Term, error) {
	if table == nil || len(table.Headers) == 0 {
		return nil, errors.MalformedInput("empty table: no header row")
	}

	cols := resolveColumns(table.Headers)

	var missing []string
	if cols["term"] < 0 {
		missing = append(missing, "term")
	}
	if cols["genes"] < 0 {
		missing = append(missing, "genes")
	}
	if cols["padj"] < 0 && cols["pval"] < 0 {
		missing = append(missing, "p-value")
	}
	if len(missing) > 0 {
		return nil, errors.MalformedInputf("missing required columns %v; found %v", missing, table.Headers)
	}

	terms := make([]enrichment.Term, 0, len(table.Rows))
	for _, row := range table.Rows {
		t, ok := parseRow(row, cols)
		if !ok {
			continue
		}
		terms = append(terms, t)
	}
	if len(terms) == 0 {
		return nil, errors.EmptyDataset("no usable rows after filtering non-numeric p-values and empty gene overlaps")
	}

	return dedupe(terms), nil
}

// resolveColumns maps each logical column to a header index, or -1.
func resolveColumns(headers []string) map[string]int {
	lower := make(map[string]int, len(headers))
	for i, h := range headers {
		lower[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cols := make(map[string]int, len(columnAliases))
	for key, aliases := range columnAliases {
		cols[key] = -1
		for _, a := range aliases {
			if idx, ok := lower[strings.ToLower(a)]; ok {
				cols[key] = idx
				break
			}
		}
	}
	return cols
}

func parseRow(row []string, cols map[string]int) (enrichment.Term, bool) {
	term := strings.TrimSpace(cell(row, cols["term"]))
	if term == "" {
		return enrichment.Term{}, false
	}

	genes := parseGenes(cell(row, cols["genes"]))
	if len(genes) == 0 {
		return enrichment.Term{}, false // overlapping_genes must be non-empty
	}

	padj, padjOK := parseFloat(cell(row, cols["padj"]))
	pval, pvalOK := parseFloat(cell(row, cols["pval"]))
	if !padjOK && !pvalOK {
		return enrichment.Term{}, false
	}
	// Fall back across the two p-value columns when one is absent.
	if !padjOK {
		padj = pval
	}
	if !pvalOK {
		pval = padj
	}
	if padj < 0 || padj > 1 {
		return enrichment.Term{}, false
	}

	oddsRatio, _ := parseFloat(cell(row, cols["odds_ratio"]))
	combined, _ := parseFloat(cell(row, cols["combined_score"]))

	k, n := parseOverlap(cell(row, cols["overlap"]))
	if k == 0 {
		k = len(genes)
	}

	t := enrichment.Term{
		Name:          term,
		GeneSet:       strings.TrimSpace(cell(row, cols["gene_set"])),
		PValue:        pval,
		AdjustedP:     padj,
		OddsRatio:     oddsRatio,
		CombinedScore: combined,
		Genes:         genes,
		OverlapK:      k,
		OverlapN:      n,
	}
	t.PreScore = preScore(padj, oddsRatio, combined, k)
	t.Flags = rowFlags(t)
	return t, true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseOverlap parses the Enrichr "3/171" overlap notation into (k, n).
func parseOverlap(s string) (int, int) {
	s = strings.TrimSpace(s)
	left, right, ok := strings.Cut(s, "/")
	if !ok {
		return 0, 0
	}
	k, err1 := strconv.Atoi(strings.TrimSpace(left))
	n, err2 := strconv.Atoi(strings.TrimSpace(right))
	if err1 != nil || err2 != nil || k < 0 || n < 0 {
		return 0, 0
	}
	return k, n
}

// parseGenes splits an Enrichr "GENE1;GENE2;GENE3" list, deduplicating while
// preserving order.
func parseGenes(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := geneSplitRe.Split(s, -1)
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, g := range parts {
		g = strings.TrimSpace(g)
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, strings.ToUpper(g))
	}
	return out
}

// dedupe keeps the lowest adjusted p-value per (term, gene set source),
// preserving first-seen order.
func dedupe(terms []enrichment.Term) []enrichment.Term {
	byKey := make(map[string]int, len(terms))
	out := make([]enrichment.Term, 0, len(terms))
	for _, t := range terms {
		key := t.GeneSetKey()
		if idx, ok := byKey[key]; ok {
			if t.AdjustedP < out[idx].AdjustedP {
				out[idx] = t
			}
			continue
		}
		byKey[key] = len(out)
		out = append(out, t)
	}
	return out
}

// preScore is the stats-aware 0-100 pre-score: an adjusted-p backbone with
// capped odds-ratio and combined-score lift, gated by overlap size. It keeps
// junk rows from dominating before biological interpretation.
func preScore(padj, oddsRatio, combined float64, overlapK int) float64 {
	stat := -math.Log10(math.Max(padj, 1e-300))
	orTerm := clamp(math.Log1p(math.Max(oddsRatio, 0)), 0, 6)
	csTerm := clamp(math.Log1p(math.Max(combined, 0)), 0, 8)
	ow := overlapWeight(overlapK)

	raw := (1.2*stat + 0.9*orTerm + 0.6*csTerm) * (0.35 + 0.65*ow)
	return clamp(raw*8, 0, 100)
}

// overlapWeight penalizes tiny overlaps hard, then saturates:
// 1 gene => ~0.28, 3 => ~0.63, 8+ => ~1.0.
func overlapWeight(k int) float64 {
	if k <= 0 {
		return 0
	}
	return clamp(1-math.Exp(-float64(k)/3), 0, 1)
}

func rowFlags(t enrichment.Term) []string {
	var flags []string
	if t.OverlapK <= 2 {
		flags = append(flags, enrichment.FlagTinyOverlap)
	}
	if t.AdjustedP > 0.2 {
		flags = append(flags, enrichment.FlagWeakStats)
	}
	if t.OverlapK <= 2 {
		low := strings.ToLower(t.Name)
		for _, marker := range genericTermMarkers {
			if strings.Contains(low, marker) {
				flags = append(flags, enrichment.FlagGenericTermSmall)
				break
			}
		}
	}
	return flags
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
