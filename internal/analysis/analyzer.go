package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dialcoach/dialcoach/internal/domain"
	"github.com/dialcoach/dialcoach/internal/prompt"
)

// Analysis kinds accepted by Analyze.
const (
	KindCoaching  = "coaching"
	KindExtract   = "extract"
	KindSentiment = "sentiment"
)

// CallContext carries optional call metadata into the coaching prompt.
type CallContext struct {
	ScenarioName string
	Situation    string
	CompanyName  string
	CallDuration float64
}

// Analyzer sends transcripts (or scraped text) to the LLM and parses the
// structured reply.
type Analyzer struct {
	llm LLMClient
}

// NewAnalyzer creates an analyzer over the given LLM client.
func NewAnalyzer(llm LLMClient) *Analyzer {
	return &Analyzer{llm: llm}
}

// Analyze dispatches to the prompt builder for kind, runs the completion and
// extracts the JSON payload. Malformed model output is NOT an error: the
// reply comes back as {"raw": ..., "parseError": true} so callers can
// degrade to showing raw text instead of crashing.
func (a *Analyzer) Analyze(ctx context.Context, text, kind string, callCtx CallContext) (map[string]any, error) {
	var p prompt.Pair
	switch kind {
	case KindCoaching:
		p = prompt.BuildCoachingPrompt(text, prompt.CoachingContext{
			ScenarioName: callCtx.ScenarioName,
			Situation:    callCtx.Situation,
			CompanyName:  callCtx.CompanyName,
			CallDuration: callCtx.CallDuration,
		})
	case KindExtract:
		p = prompt.BuildIntelligencePrompt(text)
	case KindSentiment:
		p = prompt.BuildSentimentPrompt(text)
	default:
		return nil, fmt.Errorf("%w: unknown analysis type %q", domain.ErrValidation, kind)
	}

	content, err := a.llm.Complete(ctx, p.System, p.User)
	if err != nil {
		return nil, err
	}

	obj, ok := ExtractStructured(content)
	if !ok {
		slog.Warn("LLM reply was not valid JSON", "kind", kind, "length", len(content))
		return map[string]any{"raw": content, "parseError": true}, nil
	}
	return obj, nil
}
