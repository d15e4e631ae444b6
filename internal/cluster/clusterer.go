package cluster

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"biotriage/domain/enrichment"
	"biotriage/domain/program"
	"biotriage/domain/rules"
)

// Config tunes the clustering pass.
type Config struct {
	// JaccardThreshold is the minimum gene-overlap similarity that links two
	// terms into the same program.
	JaccardThreshold float64

	// MaxTerms caps the graph size. Terms beyond the cap (after ranking by
	// RankScore) are dropped before clustering; enrichment exports can run to
	// tens of thousands of redundant GO rows.
	MaxTerms int
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{JaccardThreshold: 0.3, MaxTerms: 4000}
}

// Clusterer groups enrichment terms into candidate biological programs by
// building a term graph and taking its connected components. Two terms are
// linked when their gene overlap clears the Jaccard threshold, or when the
// rule base assigns both the same non-empty program tag.
type Clusterer struct {
	config Config
	index  *rules.Index
}

// New creates a Clusterer over a rule index.
func New(config Config, index *rules.Index) *Clusterer {
	if config.JaccardThreshold <= 0 {
		config.JaccardThreshold = 0.3
	}
	if config.MaxTerms <= 0 {
		config.MaxTerms = 4000
	}
	return &Clusterer{config: config, index: index}
}

// termNode wraps a term for the gonum graph.
type termNode struct {
	id   int64
	term enrichment.Term
	tag  rules.TagAssignment
}

func (n termNode) ID() int64 { return n.id }

// Cluster partitions terms into programs. Every input term lands in exactly
// one program; singletons are kept. Output ordering, program IDs, member
// ordering, and labels are all deterministic for a given input.
func (c *Clusterer) Cluster(terms []enrichment.Term) []program.Program {
	if len(terms) == 0 {
		return nil
	}

	terms = capTerms(terms, c.config.MaxTerms)

	g := simple.NewUndirectedGraph()
	nodes := make([]termNode, len(terms))
	geneSets := make([]map[string]bool, len(terms))
	for i, t := range terms {
		nodes[i] = termNode{
			id:   int64(i),
			term: t,
			tag:  c.index.AssignTag(t.Name, t.Genes),
		}
		g.AddNode(nodes[i])
		geneSets[i] = toSet(t.Genes)
	}

	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			if c.linked(nodes[i], nodes[j], geneSets[i], geneSets[j]) {
				g.SetEdge(g.NewEdge(nodes[i], nodes[j]))
			}
		}
	}

	components := topo.ConnectedComponents(g)

	programs := make([]program.Program, 0, len(components))
	for _, comp := range components {
		programs = append(programs, c.buildProgram(comp))
	}

	// Strongest program first; label breaks score ties.
	sort.Slice(programs, func(i, j int) bool {
		si, sj := maxRank(programs[i]), maxRank(programs[j])
		if si != sj {
			return si > sj
		}
		if programs[i].Label != programs[j].Label {
			return programs[i].Label < programs[j].Label
		}
		return programs[i].Members[0].Name < programs[j].Members[0].Name
	})
	for i := range programs {
		programs[i].ID = fmt.Sprintf("P%03d", i+1)
	}
	return programs
}

func (c *Clusterer) linked(a, b termNode, genesA, genesB map[string]bool) bool {
	if a.tag.Tag != "" && a.tag.Tag == b.tag.Tag {
		return true
	}
	return jaccard(genesA, genesB) >= c.config.JaccardThreshold
}

func (c *Clusterer) buildProgram(nodes []graph.Node) program.Program {
	tns := make([]termNode, 0, len(nodes))
	for _, n := range nodes {
		tns = append(tns, n.(termNode))
	}
	sort.Slice(tns, func(i, j int) bool {
		if tns[i].term.RankScore() != tns[j].term.RankScore() {
			return tns[i].term.RankScore() > tns[j].term.RankScore()
		}
		return tns[i].term.Name < tns[j].term.Name
	})

	members := make([]enrichment.Term, len(tns))
	for i, tn := range tns {
		members[i] = tn.term
	}

	// The seed (top-ranked member) names the program: its own tag when the
	// rule base assigned one, its raw term name otherwise. Jaccard-linked
	// neighbors never relabel a program over its seed.
	p := program.Program{
		Members:  members,
		Tag:      tns[0].tag.Tag,
		TopGenes: topGenes(members, 25),
	}
	if p.Tag != "" {
		p.Label = p.Tag
		p.GrowthAxis = c.index.GrowthAxisTag(p.Tag)
	} else {
		p.Label = p.SeedTerm().Name
	}
	return p
}

// topGenes ranks member genes by recurrence across member terms, weighting
// each occurrence by the member's rank score so genes from strong terms rise.
func topGenes(members []enrichment.Term, limit int) []string {
	weight := make(map[string]float64)
	for _, m := range members {
		w := 1 + m.RankScore()/100
		for _, g := range m.Genes {
			weight[g] += w
		}
	}

	genes := make([]string, 0, len(weight))
	for g := range weight {
		genes = append(genes, g)
	}
	sort.Slice(genes, func(i, j int) bool {
		if weight[genes[i]] != weight[genes[j]] {
			return weight[genes[i]] > weight[genes[j]]
		}
		return genes[i] < genes[j]
	})
	if len(genes) > limit {
		genes = genes[:limit]
	}
	return genes
}

func capTerms(terms []enrichment.Term, max int) []enrichment.Term {
	if len(terms) <= max {
		return terms
	}
	capped := make([]enrichment.Term, len(terms))
	copy(capped, terms)
	sort.Slice(capped, func(i, j int) bool {
		if capped[i].RankScore() != capped[j].RankScore() {
			return capped[i].RankScore() > capped[j].RankScore()
		}
		return capped[i].Name < capped[j].Name
	})
	return capped[:max]
}

func maxRank(p program.Program) float64 {
	best := 0.0
	for _, m := range p.Members {
		if m.RankScore() > best {
			best = m.RankScore()
		}
	}
	return best
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for g := range small {
		if large[g] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func toSet(genes []string) map[string]bool {
	s := make(map[string]bool, len(genes))
	for _, g := range genes {
		s[g] = true
	}
	return s
}
