package evaluate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/actcheck/internal/model"
	"github.com/ppiankov/actcheck/internal/rules"
)

const (
	minContentChars  = 10
	evidenceChars    = 180
	passConfidence   = 95
	failConfidence   = 40
	evidenceEllipsis = "..."
)

// HeuristicEvaluator passes a rule when its bound section has more than ten
// characters of content. It never looks at the full text and makes no calls.
type HeuristicEvaluator struct {
	rules []rules.Rule
}

// NewHeuristicEvaluator creates a heuristic evaluator; nil uses the default rules
func NewHeuristicEvaluator(rs []rules.Rule) *HeuristicEvaluator {
	if rs == nil {
		rs = rules.Default()
	}
	return &HeuristicEvaluator{rules: rs}
}

// Name returns the strategy name
func (e *HeuristicEvaluator) Name() string {
	return KindHeuristic
}

// Evaluate checks every rule against sections
func (e *HeuristicEvaluator) Evaluate(ctx context.Context, text string, sections model.Sections) ([]model.RuleCheck, error) {
	checks := make([]model.RuleCheck, 0, len(e.rules))
	for _, r := range e.rules {
		checks = append(checks, checkField(r, sections[r.Field]))
	}
	return checks, nil
}

func checkField(r rules.Rule, value any) model.RuleCheck {
	content := Flatten(value)
	if utf8.RuneCountInString(strings.TrimSpace(content)) > minContentChars {
		return model.RuleCheck{
			Rule:       r.Text,
			Status:     model.StatusPass,
			Evidence:   prefix(content, evidenceChars) + evidenceEllipsis,
			Confidence: passConfidence,
		}
	}
	return model.RuleCheck{
		Rule:       r.Text,
		Status:     model.StatusFail,
		Evidence:   "",
		Confidence: failConfidence,
	}
}

// Flatten turns a section value into plain text. Objects contribute their
// values in key order and lists their items, joined with single spaces.
func Flatten(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, Flatten(v[k]))
		}
		return strings.Join(parts, " ")
	case model.Sections:
		return Flatten(map[string]any(v))
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, Flatten(item))
		}
		return strings.Join(parts, " ")
	case []string:
		return strings.Join(v, " ")
	default:
		return fmt.Sprint(v)
	}
}

// prefix returns the first n characters of s
func prefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
