package score

import (
	"math"

	"github.com/montanaflynn/stats"

	"biotriage/domain/enrichment"
	"biotriage/domain/program"
	"biotriage/domain/rules"
)

// Classification thresholds on the aggregate score.
const (
	driverThreshold    = 0.66
	ambiguousThreshold = 0.33
)

// Growth-axis bias applied when the stated phenotype does or does not imply
// growth. Growth programs are the usual false-positive trap: proliferation
// signatures appear in nearly every perturbation, so they only get credit
// when the phenotype actually is growth.
const (
	growthConcordantBias = 0.20
	growthDiscordantBias = -0.15
)

// Scorer computes aggregate scores and classifications for clustered
// programs. It is deterministic: same programs, same context, same output.
type Scorer struct {
	index *rules.Index
}

// New creates a Scorer over a rule index.
func New(index *rules.Index) *Scorer {
	return &Scorer{index: index}
}

// Score refines programs in place: aggregate score, matched confounder rules,
// tissue plausibility, and classification. Program order is preserved; the
// assembler re-ranks afterwards.
func (s *Scorer) Score(programs []program.Program, ctx enrichment.Context) {
	growthPhenotype := s.index.PhenotypeImpliesGrowth(ctx.Phenotype)

	for i := range programs {
		s.scoreProgram(&programs[i], ctx, growthPhenotype)
	}
}

func (s *Scorer) scoreProgram(p *program.Program, ctx enrichment.Context, growthPhenotype bool) {
	base := baseScore(p.Members)
	termNames := memberNames(p.Members)
	genes := memberGenes(p.Members)

	// Growth-axis override. A growth program under a growth phenotype is
	// expected biology, not a confounder: the reactive-growth rules are
	// suppressed and the program gets concordance credit.
	bias := 0.0
	if p.GrowthAxis {
		if growthPhenotype {
			bias = growthConcordantBias
			p.GrowthOverride = true
		} else if ctx.Phenotype != "" {
			bias = growthDiscordantBias
		}
	}

	matches := s.index.MatchConfounders(ctx.Assay, ctx.TissueText(), termNames, genes)
	if p.GrowthOverride {
		matches = dropCategory(matches, rules.CategoryReactiveGrowth)
	}
	confounderScore := highestSeverity(matches)
	for _, m := range matches {
		p.MatchedRules = append(p.MatchedRules, m.RuleID)
	}
	p.ConfounderScore = confounderScore

	// Tissue plausibility prior.
	tissuePenalty := 0.0
	p.TissuePlausibility = program.Unknown
	if ctx.HasTissue() && s.index.HasTissuePrior(termNames) {
		ruleID, penalty := s.index.TissueCheck(termNames, ctx.TissueText())
		if penalty > 0 {
			p.TissuePlausibility = program.Implausible
			p.MatchedRules = append(p.MatchedRules, ruleID)
			tissuePenalty = penalty
		} else {
			p.TissuePlausibility = program.Plausible
		}
	}

	p.AggregateScore = clip01(base + bias - confounderScore - tissuePenalty)
	p.Classification = classify(p)
}

func classify(p *program.Program) program.Classification {
	// An out-of-tissue program is an artifact no matter how strong its
	// statistics, unless the growth override vouched for it.
	if p.TissuePlausibility == program.Implausible && !p.GrowthOverride {
		return program.Artifact
	}
	switch {
	case p.AggregateScore >= driverThreshold:
		return program.Driver
	case p.AggregateScore >= ambiguousThreshold:
		return program.Ambiguous
	default:
		return program.Reactive
	}
}

// baseScore maps the program's mean member rank score (combined-score scale)
// onto [0,1] with log damping, so one extreme term cannot saturate a program.
func baseScore(members []enrichment.Term) float64 {
	if len(members) == 0 {
		return 0
	}
	scores := make([]float64, len(members))
	for i, m := range members {
		scores[i] = m.RankScore()
	}
	mean, err := stats.Mean(scores)
	if err != nil {
		return 0
	}
	return clip01(math.Log1p(math.Max(mean, 0)) / 8)
}

// highestSeverity returns the severity of the single worst matched rule.
// Matches do not stack: the program is discounted for its best alternative
// explanation, while every matched rule id is still reported.
func highestSeverity(matches []rules.ConfounderMatch) float64 {
	worst := 0.0
	for _, m := range matches {
		if m.Severity > worst {
			worst = m.Severity
		}
	}
	return worst
}

func dropCategory(matches []rules.ConfounderMatch, cat rules.Category) []rules.ConfounderMatch {
	out := matches[:0]
	for _, m := range matches {
		if m.Category != cat {
			out = append(out, m)
		}
	}
	return out
}

func memberNames(members []enrichment.Term) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return names
}

func memberGenes(members []enrichment.Term) []string {
	seen := make(map[string]bool)
	var genes []string
	for _, m := range members {
		for _, g := range m.Genes {
			if !seen[g] {
				seen[g] = true
				genes = append(genes, g)
			}
		}
	}
	return genes
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
