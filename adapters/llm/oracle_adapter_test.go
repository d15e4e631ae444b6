package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"biotriage/domain/enrichment"
	"biotriage/domain/program"
	apperrors "biotriage/internal/errors"
	"biotriage/ports"
)

func testRequest() ports.InterpretationRequest {
	return ports.InterpretationRequest{
		Context: enrichment.Context{
			Tissue:    "liver",
			Assay:     enrichment.AssayScRNASeq,
			Phenotype: "fibrosis",
		},
		Programs: []program.Program{
			{ID: "P001", Label: "ECM_FIBROSIS", Classification: program.Ambiguous, AggregateScore: 0.59},
		},
		AdvisoryNotes: []string{"Check per-sample mito fraction before interpreting."},
	}
}

func TestInterpretSuccessFirstAttempt(t *testing.T) {
	mock := &MockLLMClient{Response: "Likely driver: ECM_FIBROSIS."}
	adapter := NewOracleAdapterWithClient(Config{Model: "gpt-5", MaxTokens: 100}, mock)

	text, err := adapter.Interpret(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("interpret: %v", err)
	}
	if text != "Likely driver: ECM_FIBROSIS." {
		t.Fatalf("unexpected text: %q", text)
	}
	if mock.Calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.Calls)
	}
}

func TestInterpretRetriesOnceThenUnavailable(t *testing.T) {
	mock := &MockLLMClient{Error: errors.New("connection reset")}
	adapter := NewOracleAdapterWithClient(Config{Model: "gpt-5"}, mock)

	_, err := adapter.Interpret(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error after both attempts fail")
	}
	if code := apperrors.GetCode(err); code != apperrors.CodeOracleUnavailable {
		t.Fatalf("expected ORACLE_UNAVAILABLE, got %s", code)
	}
	if mock.Calls != 2 {
		t.Fatalf("expected exactly one retry (2 calls), got %d", mock.Calls)
	}
}

func TestInterpretDeadlineClassifiedAsTimeout(t *testing.T) {
	mock := &MockLLMClient{Error: context.DeadlineExceeded}
	adapter := NewOracleAdapterWithClient(Config{Model: "gpt-5"}, mock)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond) // deadline passes

	_, err := adapter.Interpret(ctx, testRequest())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if code := apperrors.GetCode(err); code != apperrors.CodeOracleTimeout {
		t.Fatalf("expected ORACLE_TIMEOUT, got %s", code)
	}
	if mock.Calls != 1 {
		t.Fatalf("no retry after the deadline, got %d calls", mock.Calls)
	}
}

func TestBuildPromptCarriesPayloadAndNotes(t *testing.T) {
	prompt, err := buildPrompt(testRequest())
	if err != nil {
		t.Fatalf("build prompt: %v", err)
	}
	for _, want := range []string{
		"ECM_FIBROSIS",
		"fibrosis",
		"Check per-sample mito fraction",
		"Disagreements",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}
