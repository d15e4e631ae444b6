package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biotriage/domain/enrichment"
	"biotriage/domain/program"
	"biotriage/domain/rules"
	"biotriage/domain/triage"
	"biotriage/internal/errors"
	"biotriage/ports"
)

const sampleCSV = `Term,Overlap,P.value,Adjusted.P.value,Odds.Ratio,Combined.Score,Genes
oxidative phosphorylation,5/120,1e-8,1e-6,4.2,210.5,MT-CO1;MT-ND1;MT-ATP6;NDUFA1;COX5A
mitochondrial respiratory chain complex,4/80,1e-7,5e-6,3.8,150.0,MT-CO2;MT-ND2;NDUFB2;UQCRC1
collagen fibril organization,4/40,1e-6,2e-5,5.0,120.0,COL1A1;COL1A2;COL3A1;FN1
extracellular matrix organization,6/200,1e-5,1e-4,3.0,95.0,COL1A1;COL5A1;FN1;SPARC;POSTN;ITGA5
`

// fakeOracle implements ReasoningOraclePort with canned behavior.
type fakeOracle struct {
	text string
	err  error
}

func (f *fakeOracle) Interpret(ctx context.Context, req ports.InterpretationRequest) (string, error) {
	return f.text, f.err
}

func testService(t *testing.T, oracle ports.ReasoningOraclePort) *TriageService {
	t.Helper()
	index, err := rules.NewIndex(rules.DefaultBase())
	require.NoError(t, err)
	return NewTriageService(Config{
		MaxConcurrent: 2,
		OracleTimeout: time.Second,
	}, index, oracle, nil)
}

func liverContext() enrichment.Context {
	return enrichment.Context{
		Organism:  "mouse",
		Tissue:    "liver",
		Assay:     enrichment.AssayScRNASeq,
		Phenotype: "hepatic steatosis",
	}
}

func TestAnalyzePipelineWithoutOracle(t *testing.T) {
	svc := testService(t, nil)

	result, err := svc.Analyze(context.Background(), strings.NewReader(sampleCSV), "export.csv", liverContext())
	require.NoError(t, err)
	require.Len(t, result.Programs, 2)

	// ECM program scores higher than the QC-discounted mito program.
	assert.Equal(t, "ECM_FIBROSIS", result.Programs[0].Tag)
	assert.Equal(t, "MITO_OXPHOS", result.Programs[1].Tag)

	mito := result.Programs[1]
	assert.Equal(t, program.Reactive, mito.Classification)
	assert.Contains(t, mito.MatchedRules, "mito-qc")

	assert.Equal(t, "oxidative phosphorylation", result.TopTerms[0].Name)
	assert.Empty(t, result.Warnings)
	assert.Empty(t, result.NarrativeText)
	assert.False(t, result.AnalysisID.String() == "")
}

func TestAnalyzeMalformedInput(t *testing.T) {
	svc := testService(t, nil)

	_, err := svc.Analyze(context.Background(), strings.NewReader("Foo,Bar\n1,2\n"), "export.csv", liverContext())
	require.Error(t, err)
	assert.Equal(t, errors.CodeMalformedInput, errors.GetCode(err))
}

func TestAnalyzeOracleTimeoutDegrades(t *testing.T) {
	svc := testService(t, &fakeOracle{err: errors.OracleTimeout(context.DeadlineExceeded)})

	result, err := svc.Analyze(context.Background(), strings.NewReader(sampleCSV), "export.csv", liverContext())
	require.NoError(t, err, "oracle failure must not abort the analysis")

	assert.True(t, result.HasWarning(triage.WarnOracleTimeout))
	assert.Empty(t, result.NarrativeText)
	assert.Len(t, result.Programs, 2, "structured result survives oracle loss")
}

func TestAnalyzeOracleUnavailableDegrades(t *testing.T) {
	svc := testService(t, &fakeOracle{err: errors.OracleUnavailable(context.Canceled)})

	result, err := svc.Analyze(context.Background(), strings.NewReader(sampleCSV), "export.csv", liverContext())
	require.NoError(t, err)
	assert.True(t, result.HasWarning(triage.WarnOracleUnavailable))
}

func TestAnalyzeNarrativeExtraction(t *testing.T) {
	text := "Likely drivers:\n- The ECM FIBROSIS program is plausibly causal for the steatosis phenotype.\n\n" +
		"Follow-up experiments:\n- Validate COL1A1 by qPCR."
	svc := testService(t, &fakeOracle{text: text})

	result, err := svc.Analyze(context.Background(), strings.NewReader(sampleCSV), "export.csv", liverContext())
	require.NoError(t, err)

	assert.Equal(t, text, result.NarrativeText)
	require.NotEmpty(t, result.Narrative)
	assert.False(t, result.HasWarning(triage.WarnNarrativeIncomplete))
}

func TestAnalyzeGarbledNarrativeWarns(t *testing.T) {
	svc := testService(t, &fakeOracle{text: "zzzz qqqq ####"})

	result, err := svc.Analyze(context.Background(), strings.NewReader(sampleCSV), "export.csv", liverContext())
	require.NoError(t, err)

	assert.True(t, result.HasWarning(triage.WarnNarrativeIncomplete))
	assert.Equal(t, "zzzz qqqq ####", result.NarrativeText, "raw text is preserved")
	assert.Empty(t, result.Narrative)
}
