// Package rules holds the fixed compliance rule set checked against every Act.
package rules

import "github.com/ppiankov/actcheck/internal/model"

// Rule is one compliance requirement bound to the section that evidences it
type Rule struct {
	Text  string // Human-readable rule, copied verbatim into every RuleCheck
	Field string // Section key the heuristic evaluator reads
}

var defaultRules = []Rule{
	{Text: "Act must define key terms", Field: model.SectionDefinitions},
	{Text: "Act must specify eligibility criteria", Field: model.SectionEligibility},
	{Text: "Act must specify responsibilities of the administering authority", Field: model.SectionResponsibilities},
	{Text: "Act must include enforcement or penalties", Field: model.SectionPenalties},
	{Text: "Act must include payment calculation or entitlement structure", Field: model.SectionPayments},
	{Text: "Act must include record-keeping or reporting requirements", Field: model.SectionRecordKeeping},
}

// Default returns a copy of the rule set in evaluation order
func Default() []Rule {
	out := make([]Rule, len(defaultRules))
	copy(out, defaultRules)
	return out
}

// Lookup finds a rule by its text
func Lookup(text string) (Rule, bool) {
	for _, r := range defaultRules {
		if r.Text == text {
			return r, true
		}
	}
	return Rule{}, false
}
