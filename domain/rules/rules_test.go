package rules

import (
	"testing"

	"biotriage/domain/enrichment"
)

func hasRule(matches []ConfounderMatch, id string) bool {
	for _, m := range matches {
		if m.RuleID == id {
			return true
		}
	}
	return false
}

func mustIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := NewIndex(DefaultBase())
	if err != nil {
		t.Fatalf("default rule base failed to compile: %v", err)
	}
	return ix
}

func TestAssignTagByTermAndGenes(t *testing.T) {
	ix := mustIndex(t)

	got := ix.AssignTag("oxidative phosphorylation", []string{"MT-CO1", "NDUFA1", "COX5A"})
	if got.Tag != "MITO_OXPHOS" {
		t.Fatalf("expected MITO_OXPHOS, got %q (support %.2f)", got.Tag, got.Support)
	}
	if got.GrowthAxis {
		t.Fatal("MITO_OXPHOS must not be a growth-axis tag")
	}

	got = ix.AssignTag("mitotic cell cycle G2M checkpoint", []string{"MKI67", "TOP2A", "CCNB1"})
	if got.Tag != "CELL_CYCLE_PROLIFERATION" || !got.GrowthAxis {
		t.Fatalf("expected growth-axis CELL_CYCLE_PROLIFERATION, got %+v", got)
	}
}

func TestAssignTagBelowThreshold(t *testing.T) {
	ix := mustIndex(t)

	got := ix.AssignTag("some unrelated pathway", []string{"ZZZ1", "ZZZ2"})
	if got.Tag != "" {
		t.Fatalf("expected no tag, got %q", got.Tag)
	}
}

func TestMatchConfoundersAssayScoped(t *testing.T) {
	ix := mustIndex(t)

	terms := []string{"oxidative phosphorylation"}
	genes := []string{"MT-CO1", "MT-ND1"}

	matches := ix.MatchConfounders(enrichment.AssayScRNASeq, "liver", terms, genes)
	if !hasRule(matches, "mito-qc") {
		t.Fatalf("expected mito-qc for scRNA-seq, got %+v", matches)
	}

	// mito-qc is scoped to rnaseq/scrnaseq; ATAC must not trigger it.
	matches = ix.MatchConfounders(enrichment.AssayATACSeq, "liver", terms, genes)
	if hasRule(matches, "mito-qc") {
		t.Fatalf("mito-qc must not fire for ATAC-seq, got %+v", matches)
	}
}

func TestPhenotypeImpliesGrowthNegation(t *testing.T) {
	ix := mustIndex(t)

	cases := map[string]bool{
		"tumor growth":                      true,
		"clonal expansion after treatment":  true,
		"regenerating liver":                true,
		"acute inflammation, no proliferation": false,
		"non-proliferative state":           false,
		"fibrosis without growth":           false,
		"hepatic steatosis":                 false,
		"":                                  false,
	}
	for phenotype, want := range cases {
		if got := ix.PhenotypeImpliesGrowth(phenotype); got != want {
			t.Errorf("PhenotypeImpliesGrowth(%q) = %v, want %v", phenotype, got, want)
		}
	}
}

func TestTissueCheck(t *testing.T) {
	ix := mustIndex(t)

	terms := []string{"synaptic signaling", "axon guidance"}

	// Neural terms out of a liver sample trigger the prior.
	id, penalty := ix.TissueCheck(terms, "liver hepatocyte")
	if id != "neural-out-of-context" || penalty != 0.6 {
		t.Fatalf("expected neural prior with penalty 0.6, got %q %.2f", id, penalty)
	}

	// Same terms in brain are expected.
	id, penalty = ix.TissueCheck(terms, "brain cortex")
	if id != "" || penalty != 0 {
		t.Fatalf("expected no penalty in brain, got %q %.2f", id, penalty)
	}

	if !ix.HasTissuePrior(terms) {
		t.Fatal("expected a tissue prior to apply to synaptic terms")
	}
	if ix.HasTissuePrior([]string{"glycolysis"}) {
		t.Fatal("no tissue prior should apply to glycolysis")
	}
}

func TestAdvisoryNotesDeduplicated(t *testing.T) {
	ix := mustIndex(t)

	notes := ix.AdvisoryNotes(enrichment.AssayScRNASeq)
	if len(notes) == 0 {
		t.Fatal("expected advisory notes for scRNA-seq")
	}
	seen := map[string]bool{}
	for _, n := range notes {
		if seen[n] {
			t.Fatalf("duplicate advisory note: %q", n)
		}
		seen[n] = true
	}
}

func TestNewIndexRejectsBadRules(t *testing.T) {
	base := DefaultBase()
	base.Confounders = append(base.Confounders, ConfounderRule{
		ID:           "bad-severity",
		TermPatterns: []string{"x"},
		Category:     CategoryComposition,
		Severity:     1.5,
	})
	if _, err := NewIndex(base); err == nil {
		t.Fatal("expected severity validation to fail")
	}

	base = DefaultBase()
	base.Confounders = append(base.Confounders, base.Confounders[0])
	if _, err := NewIndex(base); err == nil {
		t.Fatal("expected duplicate id validation to fail")
	}
}
