package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"biotriage/internal/errors"
	"biotriage/ports"
)

// OracleAdapter implements ReasoningOraclePort against a chat-completion LLM.
// Calls are bounded by the caller's context deadline and retried once on
// transient failure.
type OracleAdapter struct {
	config Config
	client LLMClient
}

// NewOracleAdapter creates a reasoning-oracle adapter.
func NewOracleAdapter(config Config) (*OracleAdapter, error) {
	client, err := newLLMClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return &OracleAdapter{config: config, client: client}, nil
}

// NewOracleAdapterWithClient injects a client directly, for tests.
func NewOracleAdapterWithClient(config Config, client LLMClient) *OracleAdapter {
	return &OracleAdapter{config: config, client: client}
}

// Interpret asks the oracle for a free-text triage narrative. One retry on
// failure, unless the context is already done. Errors are classified into
// ORACLE_TIMEOUT (deadline hit) and ORACLE_UNAVAILABLE (everything else) so
// the service layer can degrade with the right warning.
func (a *OracleAdapter) Interpret(ctx context.Context, req ports.InterpretationRequest) (string, error) {
	prompt, err := buildPrompt(req)
	if err != nil {
		return "", errors.OracleUnavailable(err)
	}

	text, err := a.client.ChatCompletion(ctx, a.config.Model, prompt, a.config.MaxTokens)
	if err == nil {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", classify(ctx, err)
	}

	log.Printf("[Oracle] First attempt failed, retrying once: %v", err)
	// Brief pause before the retry; transient 5xx and connection resets
	// usually clear immediately.
	select {
	case <-time.After(500 * time.Millisecond):
	case <-ctx.Done():
		return "", classify(ctx, ctx.Err())
	}

	text, err = a.client.ChatCompletion(ctx, a.config.Model, prompt, a.config.MaxTokens)
	if err != nil {
		return "", classify(ctx, err)
	}
	return text, nil
}

func classify(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.OracleTimeout(err)
	}
	return errors.OracleUnavailable(err)
}

// buildPrompt serializes the scored triage state into the interpretation
// prompt. The payload is JSON so the oracle sees exact scores and rule ids
// rather than a lossy prose rendering.
func buildPrompt(req ports.InterpretationRequest) (string, error) {
	payload, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal interpretation payload: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are reviewing a gene-set enrichment triage result.\n")
	b.WriteString("The experiment context, clustered biological programs (with deterministic\n")
	b.WriteString("classifications and matched confounder rules), and top enriched terms follow as JSON.\n\n")
	b.WriteString(string(payload))
	b.WriteString("\n\nWrite a short interpretation with these sections:\n")
	b.WriteString("1. Likely drivers: programs plausibly causal for the stated phenotype, and why.\n")
	b.WriteString("2. Likely reactive or confounded: programs better explained by stress, composition, or technical artifacts.\n")
	b.WriteString("3. Disagreements: where you disagree with a deterministic classification, name the program and say why.\n")
	b.WriteString("4. Follow-up experiments: concrete next steps to discriminate driver from reactive.\n")
	if len(req.AdvisoryNotes) > 0 {
		b.WriteString("\nAssay-specific cautions to weigh:\n")
		for _, n := range req.AdvisoryNotes {
			b.WriteString("- ")
			b.WriteString(n)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nBe specific about program labels. Plain text or simple JSON are both fine.\n")
	return b.String(), nil
}
