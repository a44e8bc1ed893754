// Package evaluate checks the compliance rules against an analysed Act.
package evaluate

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/actcheck/internal/llm"
	"github.com/ppiankov/actcheck/internal/model"
)

// Evaluator strategy names accepted in configuration
const (
	KindHeuristic = "heuristic"
	KindLLM       = "llm"
)

// Evaluator produces one RuleCheck per rule, in rule order
type Evaluator interface {
	// Name returns the strategy name
	Name() string

	// Evaluate checks every rule. text is the full Act text and sections the
	// extracted sections; a strategy may ignore either.
	Evaluate(ctx context.Context, text string, sections model.Sections) ([]model.RuleCheck, error)
}

// New selects an evaluator by name
func New(kind string, provider llm.Provider, opts JudgeOptions) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindHeuristic:
		return NewHeuristicEvaluator(nil), nil
	case KindLLM, "judge":
		if provider == nil {
			return nil, fmt.Errorf("evaluator %q requires an LLM provider", kind)
		}
		return NewJudgeEvaluator(provider, nil, opts), nil
	default:
		return nil, fmt.Errorf("unknown evaluator: %s (supported: %s, %s)", kind, KindHeuristic, KindLLM)
	}
}
