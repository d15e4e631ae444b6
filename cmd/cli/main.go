package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"biotriage/adapters/llm"
	"biotriage/adapters/rules"
	"biotriage/app"
	"biotriage/domain/enrichment"
	"biotriage/internal/report"
	"biotriage/ports"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "biotriage",
		Short: "Gene-set enrichment triage from the command line",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newRulesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var (
		organism, tissue, cellType, assay string
		perturbation, timepoint           string
		phenotype                         string
		ruleFile, format                  string
		useOracle                         bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [enrichment-file]",
		Short: "Run triage over an enrichment export (CSV/TSV/XLSX)",
		Long: `Run the full triage pipeline offline and print the result.

Example: biotriage analyze results.csv --assay scrnaseq --tissue liver --phenotype "fibrosis after CCl4"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			index, err := rules.Load(ruleFile)
			if err != nil {
				return err
			}

			var oracle ports.ReasoningOraclePort
			if useOracle {
				oracle, err = llm.NewOracleAdapter(llm.Config{
					Model:       getenvDefault("LLM_MODEL", "gpt-5"),
					APIKey:      os.Getenv("OPENAI_API_KEY"),
					BaseURL:     os.Getenv("LLM_BASE_URL"),
					Temperature: 1.0,
					MaxTokens:   4000,
					Timeout:     3 * time.Minute,
				})
				if err != nil {
					return fmt.Errorf("oracle setup: %w", err)
				}
			}

			svc := app.NewTriageService(app.Config{
				MaxConcurrent: 1,
				OracleTimeout: 3 * time.Minute,
			}, index, oracle, nil)

			ectx := enrichment.Context{
				Organism:     organism,
				Tissue:       tissue,
				CellType:     cellType,
				Assay:        enrichment.NormalizeAssay(assay),
				Perturbation: perturbation,
				Timepoint:    timepoint,
				Phenotype:    phenotype,
			}

			result, err := svc.Analyze(cmd.Context(), f, path, ectx)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			default:
				fmt.Print(report.RenderMarkdown(result))
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&organism, "organism", "", "Organism (e.g. human, mouse)")
	cmd.Flags().StringVar(&tissue, "tissue", "", "Tissue sampled")
	cmd.Flags().StringVar(&cellType, "cell-type", "", "Cell type, if known")
	cmd.Flags().StringVar(&assay, "assay", "", "Assay kind (rnaseq, scrnaseq, atacseq, ...)")
	cmd.Flags().StringVar(&perturbation, "perturbation", "", "Perturbation applied")
	cmd.Flags().StringVar(&timepoint, "timepoint", "", "Timepoint sampled")
	cmd.Flags().StringVar(&phenotype, "phenotype", "", "Observed phenotype description")
	cmd.Flags().StringVar(&ruleFile, "rules", "", "Optional YAML rule file extending the defaults")
	cmd.Flags().StringVar(&format, "format", "markdown", "Output format: markdown or json")
	cmd.Flags().BoolVar(&useOracle, "oracle", false, "Enable LLM narrative interpretation (needs OPENAI_API_KEY)")
	return cmd
}

func newRulesCmd() *cobra.Command {
	var ruleFile string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Validate and summarize the effective rule base",
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := rules.Load(ruleFile)
			if err != nil {
				return err
			}
			for _, assay := range []enrichment.AssayKind{
				enrichment.AssayRNASeq, enrichment.AssayScRNASeq, enrichment.AssayATACSeq,
				enrichment.AssayMiRNASeq, enrichment.AssayMethylation, enrichment.AssayGWAS,
				enrichment.AssayPerturbSeq,
			} {
				notes := index.AdvisoryNotes(assay)
				fmt.Printf("%s: %d advisory notes\n", assay, len(notes))
			}
			fmt.Println("rule base OK")
			return nil
		},
	}

	cmd.Flags().StringVar(&ruleFile, "rules", "", "Optional YAML rule file extending the defaults")
	return cmd
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
