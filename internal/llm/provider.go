// Package llm generates an optional prose narrative for a run report. The
// narrative is commentary only: it never changes table contents, and a
// provider failure never fails a run.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/okarpov/athanor/internal/model"
)

// Provider turns a run report into a short narrative.
type Provider interface {
	Name() string
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)
}

// SummarizeRequest is the input for narrative generation.
type SummarizeRequest struct {
	Report *model.RunReport

	// Prompt overrides the default prompt when set.
	Prompt string

	Model     string
	MaxTokens int
}

// SummarizeResponse is the generated narrative.
type SummarizeResponse struct {
	Summary    string
	Model      string
	TokensUsed int
}

// NewProvider builds the provider named in the configuration. An empty
// provider name disables narration.
func NewProvider(cfg model.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		return NewOpenAIProvider(cfg)
	default:
		return nil, model.Configf("unknown llm provider %q (want openai)", cfg.Provider)
	}
}

// BuildPrompt renders the default narration prompt. The report markdown is
// the only evidence the model sees; the rules keep it from editorializing
// about the underlying science.
func BuildPrompt(report *model.RunReport) string {
	var b strings.Builder

	b.WriteString(`You are summarizing the outcome of a batch run that collected
compound annotations from public chemistry databases.

RULES:
1. Describe only what the report below states: row counts, failures,
   unresolved identifiers, cancellation.
2. Do not interpret the biology or chemistry of any annotation.
3. If searches failed or identifiers went unresolved, say so plainly.
4. Keep it to 3-5 sentences.

`)
	b.WriteString(report.Markdown())
	fmt.Fprintf(&b, "\nTotals: %d rows, %d failures.\n", report.TotalRows(), report.TotalFailures())
	return b.String()
}
