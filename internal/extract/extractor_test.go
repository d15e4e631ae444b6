package extract

import (
	"testing"

	"biotriage/domain/narrative"
	"biotriage/domain/program"
)

func TestExtractEmptyAndGarbled(t *testing.T) {
	e := New()

	sections, disagreements := e.Extract("", nil)
	if sections != nil || disagreements != nil {
		t.Fatal("empty text must yield nothing")
	}

	// Garbled input must never panic and may yield nothing.
	sections, _ = e.Extract("\x00\xff ~~~ ???? 12345", nil)
	if len(sections) != 0 {
		t.Fatalf("garbled text should yield no sections, got %d", len(sections))
	}
}

func TestExtractHeadedSections(t *testing.T) {
	e := New()

	text := "Likely drivers:\n" +
		"- The ECM FIBROSIS program is plausibly causal given the fibrosis phenotype.\n\n" +
		"Follow-up experiments:\n" +
		"- Validate COL1A1 induction by qPCR in an independent cohort."

	sections, _ := e.Extract(text, nil)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d: %+v", len(sections), sections)
	}
	if sections[0].Category != narrative.SectionDriver {
		t.Fatalf("expected driver section first, got %s", sections[0].Category)
	}
	if sections[1].Category != narrative.SectionFollowUp {
		t.Fatalf("expected follow-up section, got %s", sections[1].Category)
	}
}

func TestExtractJSONInput(t *testing.T) {
	e := New()

	text := `{"drivers": ["The fibrosis program is plausibly causal."], "next": "Validate with qPCR."}`
	sections, _ := e.Extract(text, nil)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections from JSON leaves, got %d: %+v", len(sections), sections)
	}
	if sections[0].Category != narrative.SectionDriver {
		t.Fatalf("expected driver, got %s", sections[0].Category)
	}
	if sections[1].Category != narrative.SectionFollowUp {
		t.Fatalf("expected follow-up, got %s", sections[1].Category)
	}
}

func TestExtractReactiveBeforeDriverPrecedence(t *testing.T) {
	e := New()

	// Mentions "driver" but argues reactive; must land in the reactive bucket.
	sections, _ := e.Extract("This program is likely reactive rather than a driver.", nil)
	if len(sections) != 1 || sections[0].Category != narrative.SectionReactive {
		t.Fatalf("expected reactive section, got %+v", sections)
	}
}

func TestExtractDisagreementOncePerProgram(t *testing.T) {
	e := New()

	programs := []program.Program{
		{ID: "P001", Label: "MITO_OXPHOS", Classification: program.Reactive},
		{ID: "P002", Label: "ECM_FIBROSIS", Classification: program.Driver},
	}

	text := "The MITO OXPHOS program looks like a genuine driver of the phenotype.\n\n" +
		"Again, MITO OXPHOS is plausibly causal here.\n\n" +
		"ECM FIBROSIS is the primary program and plausibly causal."

	_, disagreements := e.Extract(text, programs)
	if len(disagreements) != 1 {
		t.Fatalf("expected exactly one disagreement, got %+v", disagreements)
	}
	if disagreements[0].ProgramID != "P001" {
		t.Fatalf("expected disagreement on P001, got %s", disagreements[0].ProgramID)
	}
}

func TestExtractNoDisagreementWhenConcordant(t *testing.T) {
	e := New()

	programs := []program.Program{
		{ID: "P001", Label: "ECM_FIBROSIS", Classification: program.Driver},
	}
	_, disagreements := e.Extract("ECM FIBROSIS is plausibly causal for the phenotype.", programs)
	if len(disagreements) != 0 {
		t.Fatalf("concordant narrative must yield no disagreements, got %+v", disagreements)
	}
}
