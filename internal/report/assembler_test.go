package report

import (
	"strings"
	"testing"

	"biotriage/domain/core"
	"biotriage/domain/enrichment"
	"biotriage/domain/narrative"
	"biotriage/domain/program"
	"biotriage/domain/triage"
)

func sampleResultInput() ([]program.Program, []enrichment.Term) {
	programs := []program.Program{
		{ID: "P002", Label: "MITO_OXPHOS", AggregateScore: 0.15, Classification: program.Reactive,
			Members: []enrichment.Term{{Name: "oxidative phosphorylation", CombinedScore: 200}}},
		{ID: "P001", Label: "ECM_FIBROSIS", AggregateScore: 0.59, Classification: program.Ambiguous,
			Members: []enrichment.Term{{Name: "collagen fibril organization", CombinedScore: 120}}},
	}
	terms := []enrichment.Term{
		{Name: "collagen fibril organization", CombinedScore: 120, AdjustedP: 2e-5},
		{Name: "oxidative phosphorylation", CombinedScore: 200, AdjustedP: 1e-6},
	}
	return programs, terms
}

func TestAssembleRanksProgramsAndTerms(t *testing.T) {
	a := New()
	programs, terms := sampleResultInput()

	result := a.Assemble(core.NewAnalysisID(), enrichment.Context{}, programs, terms, "", nil, nil, nil)

	if result.Programs[0].Label != "ECM_FIBROSIS" {
		t.Fatalf("expected highest aggregate first, got %s", result.Programs[0].Label)
	}
	if result.TopTerms[0].Name != "oxidative phosphorylation" {
		t.Fatalf("expected highest rank score first, got %s", result.TopTerms[0].Name)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("no narrative, no warnings expected: %v", result.Warnings)
	}
	if result.Narrative == nil || result.Disagreements == nil {
		t.Fatal("narrative and disagreements must be non-nil for JSON consumers")
	}
}

func TestAssembleNarrativeIncompleteWarning(t *testing.T) {
	a := New()
	programs, terms := sampleResultInput()

	result := a.Assemble(core.NewAnalysisID(), enrichment.Context{}, programs, terms,
		"some narrative text that yielded nothing", nil, nil, nil)

	if !result.HasWarning(triage.WarnNarrativeIncomplete) {
		t.Fatalf("expected %s warning, got %v", triage.WarnNarrativeIncomplete, result.Warnings)
	}
	if result.NarrativeText == "" {
		t.Fatal("raw narrative text must survive even when extraction fails")
	}

	// With sections present the warning is not added.
	result = a.Assemble(core.NewAnalysisID(), enrichment.Context{}, programs, terms,
		"narrative", []narrative.Section{{Category: narrative.SectionDriver, Text: "x", Confidence: 0.8}}, nil, nil)
	if result.HasWarning(triage.WarnNarrativeIncomplete) {
		t.Fatal("warning must not fire when sections were extracted")
	}
}

func TestRenderMarkdownAndReportFile(t *testing.T) {
	a := New()
	programs, terms := sampleResultInput()

	result := a.Assemble(core.NewAnalysisID(), enrichment.Context{Tissue: "liver", Phenotype: "fibrosis"},
		programs, terms, "", nil, nil, []string{triage.WarnOracleTimeout})

	md := RenderMarkdown(result)
	for _, want := range []string{
		"# Enrichment Triage Report",
		"ECM_FIBROSIS",
		"## Top Terms",
		"ORACLE_TIMEOUT",
		"**Phenotype:** fibrosis",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q", want)
		}
	}

	html := string(RenderHTML(result))
	if !strings.Contains(html, "<table") {
		t.Fatal("expected rendered HTML tables")
	}

	dir := t.TempDir()
	name, err := WriteReport(dir, result)
	if err != nil {
		t.Fatalf("write report: %v", err)
	}
	if !strings.HasSuffix(name, ".html") {
		t.Fatalf("unexpected report name %q", name)
	}
}
