package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"biotriage/domain/narrative"
	"biotriage/domain/program"
	"biotriage/domain/triage"
)

// RenderMarkdown renders a triage result as a standalone markdown report.
func RenderMarkdown(r *triage.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Enrichment Triage Report\n\n")
	fmt.Fprintf(&b, "**Analysis:** `%s`  \n", r.AnalysisID)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", r.CreatedAt.Format("2006-01-02 15:04 UTC"))

	b.WriteString("## Experiment Context\n\n")
	writeContextRow(&b, "Organism", r.Context.Organism)
	writeContextRow(&b, "Tissue", r.Context.Tissue)
	writeContextRow(&b, "Cell type", r.Context.CellType)
	writeContextRow(&b, "Assay", string(r.Context.Assay))
	writeContextRow(&b, "Perturbation", r.Context.Perturbation)
	writeContextRow(&b, "Timepoint", r.Context.Timepoint)
	writeContextRow(&b, "Phenotype", r.Context.Phenotype)
	b.WriteString("\n")

	if len(r.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- `%s`\n", w)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Programs\n\n")
	b.WriteString("| # | Program | Classification | Score | Confounders | Tissue | Members |\n")
	b.WriteString("|---|---------|----------------|-------|-------------|--------|--------|\n")
	for _, p := range r.Programs {
		rules := "-"
		if len(p.MatchedRules) > 0 {
			rules = strings.Join(p.MatchedRules, ", ")
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %.2f | %s | %s | %d |\n",
			p.ID, p.Label, p.Classification, p.AggregateScore, rules, p.TissuePlausibility, len(p.Members))
	}
	b.WriteString("\n")

	for _, p := range r.Programs {
		fmt.Fprintf(&b, "### %s — %s\n\n", p.ID, p.Label)
		fmt.Fprintf(&b, "Classified **%s** (aggregate %.2f, confounder discount %.2f).\n\n",
			p.Classification, p.AggregateScore, p.ConfounderScore)
		if p.GrowthOverride {
			b.WriteString("Growth-axis program concordant with a growth phenotype; reactive-growth confounders suppressed.\n\n")
		}
		if len(p.TopGenes) > 0 {
			fmt.Fprintf(&b, "Top genes: %s\n\n", strings.Join(capList(p.TopGenes, 12), ", "))
		}
		fmt.Fprintf(&b, "Member terms (%d):\n\n", len(p.Members))
		for _, m := range capList(termNames(p), 8) {
			fmt.Fprintf(&b, "- %s\n", m)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Top Terms\n\n")
	b.WriteString("| Term | Adj. p | Odds ratio | Combined | Genes |\n")
	b.WriteString("|------|--------|------------|----------|-------|\n")
	for _, t := range r.TopTerms {
		fmt.Fprintf(&b, "| %s | %.2e | %.2f | %.1f | %d |\n",
			t.Name, t.AdjustedP, t.OddsRatio, t.CombinedScore, len(t.Genes))
	}
	b.WriteString("\n")

	if len(r.Narrative) > 0 {
		b.WriteString("## Interpretation\n\n")
		for _, cat := range []narrative.Category{
			narrative.SectionDriver, narrative.SectionReactive,
			narrative.SectionConfounder, narrative.SectionFollowUp,
		} {
			wrote := false
			for _, s := range r.Narrative {
				if s.Category != cat {
					continue
				}
				if !wrote {
					fmt.Fprintf(&b, "### %s\n\n", sectionTitle(cat))
					wrote = true
				}
				fmt.Fprintf(&b, "- %s\n", s.Text)
			}
			if wrote {
				b.WriteString("\n")
			}
		}
	}

	if len(r.Disagreements) > 0 {
		b.WriteString("## Disagreements\n\n")
		for _, d := range r.Disagreements {
			fmt.Fprintf(&b, "- **%s**: %s\n", d.ProgramID, d.Reason)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// RenderHTML converts the markdown report into a self-contained HTML page.
func RenderHTML(r *triage.Result) []byte {
	md := RenderMarkdown(r)

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{
		Title: fmt.Sprintf("Triage %s", r.AnalysisID),
		Flags: html.CompletePage,
	})
	return markdown.Render(doc, renderer)
}

// WriteReport writes the HTML report into dir and returns the file name.
func WriteReport(dir string, r *triage.Result) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}
	name := fmt.Sprintf("triage_%s.html", r.AnalysisID)
	if err := os.WriteFile(filepath.Join(dir, name), RenderHTML(r), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return name, nil
}

func writeContextRow(b *strings.Builder, key, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "- **%s:** %s\n", key, value)
}

func sectionTitle(cat narrative.Category) string {
	switch cat {
	case narrative.SectionDriver:
		return "Likely drivers"
	case narrative.SectionReactive:
		return "Likely reactive"
	case narrative.SectionConfounder:
		return "Confounders and artifacts"
	case narrative.SectionFollowUp:
		return "Follow-up experiments"
	}
	return string(cat)
}

func termNames(p program.Program) []string {
	names := make([]string, len(p.Members))
	for i, m := range p.Members {
		names[i] = m.Name
	}
	return names
}

func capList(ss []string, n int) []string {
	if len(ss) > n {
		return ss[:n]
	}
	return ss
}
