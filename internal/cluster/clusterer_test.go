package cluster

import (
	"reflect"
	"testing"

	"biotriage/domain/enrichment"
	"biotriage/domain/rules"
)

func testClusterer(t *testing.T) *Clusterer {
	t.Helper()
	ix, err := rules.NewIndex(rules.DefaultBase())
	if err != nil {
		t.Fatalf("rule index: %v", err)
	}
	return New(DefaultConfig(), ix)
}

func term(name string, combined float64, genes ...string) enrichment.Term {
	return enrichment.Term{Name: name, CombinedScore: combined, Genes: genes}
}

func TestClusterByGeneOverlap(t *testing.T) {
	c := testClusterer(t)

	programs := c.Cluster([]enrichment.Term{
		term("alpha pathway", 100, "G1", "G2", "G3"),
		term("beta pathway", 90, "G2", "G3", "G4"), // jaccard 0.5 with alpha
		term("gamma pathway", 50, "X1", "X2"),      // disjoint singleton
	})

	if len(programs) != 2 {
		t.Fatalf("expected 2 programs, got %d", len(programs))
	}
	if len(programs[0].Members) != 2 || programs[0].Members[0].Name != "alpha pathway" {
		t.Fatalf("expected alpha+beta program first, got %+v", programs[0])
	}
	if programs[0].ID != "P001" || programs[1].ID != "P002" {
		t.Fatalf("unexpected program ids: %s, %s", programs[0].ID, programs[1].ID)
	}
	if programs[0].Label != "alpha pathway" {
		t.Fatalf("untagged program should be labeled by seed term, got %q", programs[0].Label)
	}
	if len(programs[1].Members) != 1 {
		t.Fatal("singleton term must survive as its own program")
	}
}

func TestClusterBySharedTag(t *testing.T) {
	c := testClusterer(t)

	// Zero gene overlap, but both resolve to the MITO_OXPHOS tag.
	programs := c.Cluster([]enrichment.Term{
		term("oxidative phosphorylation", 120, "NDUFA1", "NDUFA2"),
		term("mitochondrial electron transport", 80, "COX5A", "ATP5F1"),
	})

	if len(programs) != 1 {
		t.Fatalf("expected tag-linked terms in one program, got %d", len(programs))
	}
	p := programs[0]
	if p.Tag != "MITO_OXPHOS" || p.Label != "MITO_OXPHOS" {
		t.Fatalf("expected MITO_OXPHOS tag and label, got tag=%q label=%q", p.Tag, p.Label)
	}
	if p.GrowthAxis {
		t.Fatal("MITO_OXPHOS is not a growth-axis program")
	}
}

func TestClusterLabelFollowsSeedTerm(t *testing.T) {
	c := testClusterer(t)

	// An untagged top-scoring term Jaccard-linked to a tagged weaker one:
	// the seed names the program, tagged neighbors do not relabel it.
	programs := c.Cluster([]enrichment.Term{
		term("alpha signature", 500, "G1", "G2", "G3"),
		term("mitochondrial electron transport", 100, "G1", "G2", "NDUFA1"),
	})

	if len(programs) != 1 {
		t.Fatalf("expected one linked program, got %d", len(programs))
	}
	p := programs[0]
	if p.SeedTerm().Name != "alpha signature" {
		t.Fatalf("expected alpha signature as seed, got %q", p.SeedTerm().Name)
	}
	if p.Label != "alpha signature" || p.Tag != "" {
		t.Fatalf("expected untagged seed label, got label=%q tag=%q", p.Label, p.Tag)
	}
}

func TestClusterPartitionsInput(t *testing.T) {
	c := testClusterer(t)

	input := []enrichment.Term{
		term("oxidative phosphorylation respiratory chain", 300, "NDUFA1", "MT-CO1"),
		term("mitochondrial electron transport", 250, "COX5A", "ATP5F1"),
		term("cell cycle mitotic g2m", 220, "MKI67", "TOP2A", "CCNB1"),
		term("dna replication e2f checkpoint", 180, "PCNA", "MCM2"),
		term("alpha pathway", 150, "G1", "G2", "G3"),
		term("beta pathway", 120, "G2", "G3", "G4"),
		term("gamma pathway", 90, "X1", "X2"),
		term("delta pathway", 60, "Y1", "Y2", "Y3"),
	}

	programs := c.Cluster(input)

	// Every input term lands in exactly one program, none dropped.
	counts := make(map[string]int)
	for _, p := range programs {
		for _, m := range p.Members {
			counts[m.Name]++
		}
	}
	if len(counts) != len(input) {
		t.Fatalf("expected %d distinct terms across programs, got %d", len(input), len(counts))
	}
	for _, in := range input {
		if counts[in.Name] != 1 {
			t.Fatalf("term %q appears %d times across programs", in.Name, counts[in.Name])
		}
	}
}

func TestClusterDeterministic(t *testing.T) {
	c := testClusterer(t)

	input := []enrichment.Term{
		term("alpha pathway", 100, "G1", "G2", "G3"),
		term("beta pathway", 100, "G2", "G3", "G4"),
		term("gamma pathway", 100, "X1", "X2"),
		term("delta pathway", 100, "X1", "X2", "X3"),
	}

	first := c.Cluster(input)
	second := c.Cluster(input)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("clustering must be deterministic for identical input")
	}
}

func TestClusterTopGenes(t *testing.T) {
	c := testClusterer(t)

	programs := c.Cluster([]enrichment.Term{
		term("alpha pathway", 100, "G1", "G2"),
		term("beta pathway", 90, "G1", "G3"),
	})

	if len(programs) != 1 {
		t.Fatalf("expected one program, got %d", len(programs))
	}
	// G1 appears in both members and must rank first.
	if len(programs[0].TopGenes) == 0 || programs[0].TopGenes[0] != "G1" {
		t.Fatalf("expected G1 as top gene, got %v", programs[0].TopGenes)
	}
}
