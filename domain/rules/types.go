package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"biotriage/domain/enrichment"
)

// Category classifies what kind of confounding a rule describes
type Category string

const (
	CategoryComposition       Category = "composition"
	CategoryTechnicalArtifact Category = "technical-artifact"
	CategoryStressResponse    Category = "stress-response"
	CategoryDevelopmental     Category = "developmental"
	CategoryReactiveGrowth    Category = "reactive-growth"
)

func validCategory(c Category) bool {
	switch c {
	case CategoryComposition, CategoryTechnicalArtifact, CategoryStressResponse,
		CategoryDevelopmental, CategoryReactiveGrowth:
		return true
	}
	return false
}

// ProgramRule identifies a canonical biological program by term keywords and
// gene-family regexes. The clusterer uses tags as an extra linking signal and
// the scorer uses GrowthAxis for the growth/proliferation override.
type ProgramRule struct {
	Tag          string   `yaml:"tag"`
	TermKeywords []string `yaml:"term_keywords"`
	GenePatterns []string `yaml:"gene_patterns"`
	GrowthAxis   bool     `yaml:"growth_axis,omitempty"`

	geneRes []*regexp.Regexp
}

// ConfounderRule maps assay/tissue/marker context to a confounder category
// and severity. Rules are static configuration: loaded once, never mutated.
type ConfounderRule struct {
	ID           string                 `yaml:"id"`
	Assays       []enrichment.AssayKind `yaml:"assays,omitempty"`  // empty = applies to every assay
	Tissues      []string               `yaml:"tissues,omitempty"` // optional tissue substring filter
	TermPatterns []string               `yaml:"term_patterns,omitempty"`
	GenePatterns []string               `yaml:"gene_patterns,omitempty"`
	Category     Category               `yaml:"category"`
	Severity     float64                `yaml:"severity"`
	Note         string                 `yaml:"note,omitempty"` // advisory text surfaced to the reasoning prompt

	geneRes []*regexp.Regexp
}

// TissueRule encodes a plausibility prior: programs matching TermKeywords are
// only expected in tissues matching TissueKeywords.
type TissueRule struct {
	ID             string   `yaml:"id"`
	TermKeywords   []string `yaml:"term_keywords"`
	TissueKeywords []string `yaml:"tissue_keywords"`
	Penalty        float64  `yaml:"penalty"`
}

// Base is the full declarative rule catalogue.
type Base struct {
	Programs         []ProgramRule    `yaml:"programs"`
	Confounders      []ConfounderRule `yaml:"confounders"`
	Tissues          []TissueRule     `yaml:"tissues"`
	GrowthVocabulary []string         `yaml:"growth_vocabulary"`
}

// compile validates the catalogue and compiles all gene regexes.
func (b *Base) compile() error {
	seen := make(map[string]bool)
	for i := range b.Programs {
		p := &b.Programs[i]
		if p.Tag == "" {
			return fmt.Errorf("program rule %d: missing tag", i)
		}
		res, err := compilePatterns(p.GenePatterns)
		if err != nil {
			return fmt.Errorf("program rule %q: %w", p.Tag, err)
		}
		p.geneRes = res
	}
	for i := range b.Confounders {
		c := &b.Confounders[i]
		if c.ID == "" {
			return fmt.Errorf("confounder rule %d: missing id", i)
		}
		if seen[c.ID] {
			return fmt.Errorf("confounder rule %q: duplicate id", c.ID)
		}
		seen[c.ID] = true
		if !validCategory(c.Category) {
			return fmt.Errorf("confounder rule %q: unknown category %q", c.ID, c.Category)
		}
		if c.Severity <= 0 || c.Severity > 1 {
			return fmt.Errorf("confounder rule %q: severity %v outside (0,1]", c.ID, c.Severity)
		}
		if len(c.TermPatterns) == 0 && len(c.GenePatterns) == 0 {
			return fmt.Errorf("confounder rule %q: no trigger markers", c.ID)
		}
		res, err := compilePatterns(c.GenePatterns)
		if err != nil {
			return fmt.Errorf("confounder rule %q: %w", c.ID, err)
		}
		c.geneRes = res
	}
	for i := range b.Tissues {
		t := &b.Tissues[i]
		if t.ID == "" {
			return fmt.Errorf("tissue rule %d: missing id", i)
		}
		if t.Penalty <= 0 || t.Penalty > 1 {
			return fmt.Errorf("tissue rule %q: penalty %v outside (0,1]", t.ID, t.Penalty)
		}
	}
	return nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("bad gene pattern %q: %w", p, err)
		}
		res = append(res, re)
	}
	return res, nil
}

// Index is the immutable runtime view of a rule Base, keyed by assay kind.
// Safe for concurrent reads; never mutated after construction.
type Index struct {
	base       *Base
	byAssay    map[enrichment.AssayKind][]*ConfounderRule
	universal  []*ConfounderRule // rules with no assay filter
	growthVoc  []string
	programTag map[string]*ProgramRule
}

// NewIndex compiles a Base into an Index. Any invalid rule fails the whole
// load: the rule base must be valid before requests are served.
func NewIndex(b *Base) (*Index, error) {
	if b == nil {
		return nil, fmt.Errorf("nil rule base")
	}
	if err := b.compile(); err != nil {
		return nil, err
	}

	ix := &Index{
		base:       b,
		byAssay:    make(map[enrichment.AssayKind][]*ConfounderRule),
		programTag: make(map[string]*ProgramRule),
	}
	for i := range b.Confounders {
		c := &b.Confounders[i]
		if len(c.Assays) == 0 {
			ix.universal = append(ix.universal, c)
			continue
		}
		for _, a := range c.Assays {
			ix.byAssay[a] = append(ix.byAssay[a], c)
		}
	}
	for i := range b.Programs {
		ix.programTag[b.Programs[i].Tag] = &b.Programs[i]
	}
	for _, v := range b.GrowthVocabulary {
		ix.growthVoc = append(ix.growthVoc, strings.ToLower(v))
	}
	return ix, nil
}

// TagAssignment is the outcome of assigning a term to a program rule.
type TagAssignment struct {
	Tag        string
	GrowthAxis bool
	Support    float64
}

// Assignment thresholds and weights, ported from the deterministic
// program-bucketing heuristic.
const (
	tagSupportThreshold = 0.30
	tagTermWeight       = 0.55
	tagGeneWeight       = 0.45
	geneFracSaturation  = 0.35
)

// AssignTag deterministically assigns a term to the best-supported program
// tag, or returns an empty assignment when no rule clears the threshold.
func (ix *Index) AssignTag(termName string, genes []string) TagAssignment {
	best := TagAssignment{}
	t := normText(termName)

	for i := range ix.base.Programs {
		p := &ix.base.Programs[i]

		hits := 0
		for _, kw := range p.TermKeywords {
			if strings.Contains(t, kw) {
				hits++
			}
		}
		geneHits := countGeneHits(genes, p.geneRes)
		geneFrac := 0.0
		if len(genes) > 0 {
			geneFrac = float64(geneHits) / float64(len(genes))
		}

		termComponent := clip01(float64(hits) / 2.0)
		geneComponent := clip01(geneFrac / geneFracSaturation)
		support := tagTermWeight*termComponent + tagGeneWeight*geneComponent

		if support >= tagSupportThreshold && support > best.Support {
			best = TagAssignment{Tag: p.Tag, GrowthAxis: p.GrowthAxis, Support: support}
		}
	}
	return best
}

// GrowthAxisTag reports whether a program tag is growth/proliferation-like.
func (ix *Index) GrowthAxisTag(tag string) bool {
	p, ok := ix.programTag[tag]
	return ok && p.GrowthAxis
}

// ConfounderMatch records one triggered confounder rule.
type ConfounderMatch struct {
	RuleID   string
	Category Category
	Severity float64
	Note     string
}

// MatchConfounders tests every rule applicable to the assay (and tissue, when
// the rule is tissue-scoped) against the program's member terms and genes.
func (ix *Index) MatchConfounders(assay enrichment.AssayKind, tissueText string, termNames []string, genes []string) []ConfounderMatch {
	candidates := make([]*ConfounderRule, 0, len(ix.universal)+len(ix.byAssay[assay]))
	candidates = append(candidates, ix.universal...)
	candidates = append(candidates, ix.byAssay[assay]...)

	normTerms := make([]string, len(termNames))
	for i, n := range termNames {
		normTerms[i] = normText(n)
	}

	var matches []ConfounderMatch
	for _, c := range candidates {
		if len(c.Tissues) > 0 && !containsAny(tissueText, c.Tissues) {
			continue
		}
		if c.triggers(normTerms, genes) {
			matches = append(matches, ConfounderMatch{
				RuleID:   c.ID,
				Category: c.Category,
				Severity: c.Severity,
				Note:     c.Note,
			})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].RuleID < matches[j].RuleID })
	return matches
}

func (c *ConfounderRule) triggers(normTerms []string, genes []string) bool {
	for _, pattern := range c.TermPatterns {
		for _, t := range normTerms {
			if strings.Contains(t, pattern) {
				return true
			}
		}
	}
	return countGeneHits(genes, c.geneRes) > 0
}

// AdvisoryNotes returns the notes of all rules applicable to an assay, used
// to condition the reasoning prompt. Deduplicated, stable order.
func (ix *Index) AdvisoryNotes(assay enrichment.AssayKind) []string {
	var notes []string
	seen := make(map[string]bool)
	add := func(rs []*ConfounderRule) {
		for _, r := range rs {
			if r.Note != "" && !seen[r.Note] {
				seen[r.Note] = true
				notes = append(notes, r.Note)
			}
		}
	}
	add(ix.universal)
	add(ix.byAssay[assay])
	return notes
}

// TissueCheck evaluates the plausibility priors for a program against the
// sampled tissue/cell type. It returns the triggered rule id and penalty, or
// ("", 0) when the program is plausible or no prior applies.
func (ix *Index) TissueCheck(termNames []string, tissueText string) (string, float64) {
	normTerms := make([]string, len(termNames))
	for i, n := range termNames {
		normTerms[i] = normText(n)
	}

	bestID, bestPenalty := "", 0.0
	for i := range ix.base.Tissues {
		t := &ix.base.Tissues[i]
		matched := false
		for _, kw := range t.TermKeywords {
			for _, n := range normTerms {
				if strings.Contains(n, kw) {
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
		if !matched {
			continue
		}
		if containsAny(tissueText, t.TissueKeywords) {
			continue // expected in this tissue
		}
		if t.Penalty > bestPenalty {
			bestID, bestPenalty = t.ID, t.Penalty
		}
	}
	return bestID, bestPenalty
}

// HasTissuePrior reports whether any plausibility prior applies to the terms
// at all, regardless of the sampled tissue.
func (ix *Index) HasTissuePrior(termNames []string) bool {
	normTerms := make([]string, len(termNames))
	for i, n := range termNames {
		normTerms[i] = normText(n)
	}
	for i := range ix.base.Tissues {
		for _, kw := range ix.base.Tissues[i].TermKeywords {
			for _, n := range normTerms {
				if strings.Contains(n, kw) {
					return true
				}
			}
		}
	}
	return false
}

// PhenotypeImpliesGrowth tests the phenotype description against the
// configured growth vocabulary.
func (ix *Index) PhenotypeImpliesGrowth(phenotype string) bool {
	p := normText(phenotype)
	if p == "" {
		return false
	}
	// "no proliferation" style negations defeat a naive substring test.
	for _, kw := range ix.growthVoc {
		idx := strings.Index(p, kw)
		if idx < 0 {
			continue
		}
		if negatedAt(p, idx) {
			continue
		}
		return true
	}
	return false
}

var negations = []string{"no ", "not ", "without ", "non-", "absent "}

func negatedAt(text string, idx int) bool {
	prefix := text[:idx]
	for _, neg := range negations {
		if strings.HasSuffix(prefix, neg) {
			return true
		}
	}
	return false
}

func countGeneHits(genes []string, res []*regexp.Regexp) int {
	if len(genes) == 0 || len(res) == 0 {
		return 0
	}
	hits := 0
	for _, g := range genes {
		for _, re := range res {
			if re.MatchString(g) {
				hits++
				break
			}
		}
	}
	return hits
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func normText(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

func clip01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
