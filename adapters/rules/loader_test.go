package rules

import (
	"os"
	"path/filepath"
	"testing"

	"biotriage/domain/enrichment"
	"biotriage/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	index, err := Load("")
	if err != nil {
		t.Fatalf("default rule base must load: %v", err)
	}
	matches := index.MatchConfounders(enrichment.AssayScRNASeq, "", []string{"oxidative phosphorylation"}, nil)
	if len(matches) == 0 {
		t.Fatal("expected built-in mito-qc rule to fire")
	}
}

func TestLoadMissingFileIsFatal(t *testing.T) {
	_, err := Load("/nonexistent/rules.yaml")
	if err == nil {
		t.Fatal("expected error for missing rule file")
	}
	if code := errors.GetCode(err); code != errors.CodeRuleBaseLoad {
		t.Fatalf("expected RULEBASE_LOAD, got %s", code)
	}
}

func TestLoadInvalidYAMLIsFatal(t *testing.T) {
	path := writeTempRules(t, "confounders: [not, a, mapping")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if code := errors.GetCode(err); code != errors.CodeRuleBaseLoad {
		t.Fatalf("expected RULEBASE_LOAD, got %s", code)
	}
}

func TestLoadInvalidRuleIsFatal(t *testing.T) {
	path := writeTempRules(t, `
confounders:
  - id: broken
    term_patterns: ["x"]
    category: composition
    severity: 7.0
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error for severity outside (0,1]")
	}
	if code := errors.GetCode(err); code != errors.CodeRuleBaseLoad {
		t.Fatalf("expected RULEBASE_LOAD, got %s", code)
	}
}

func TestLoadFileOverridesBuiltin(t *testing.T) {
	path := writeTempRules(t, `
confounders:
  - id: mito-qc
    assays: [scrnaseq]
    term_patterns: ["mitochond", "oxidative phosphorylation"]
    category: composition
    severity: 0.9
`)
	index, err := Load(path)
	if err != nil {
		t.Fatalf("merged rule base must load: %v", err)
	}

	matches := index.MatchConfounders(enrichment.AssayScRNASeq, "", []string{"oxidative phosphorylation"}, nil)
	found := false
	for _, m := range matches {
		if m.RuleID == "mito-qc" {
			found = true
			if m.Severity != 0.9 {
				t.Fatalf("expected overridden severity 0.9, got %.2f", m.Severity)
			}
		}
	}
	if !found {
		t.Fatal("expected mito-qc to still fire after override")
	}
}

func writeTempRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp rules: %v", err)
	}
	return path
}
