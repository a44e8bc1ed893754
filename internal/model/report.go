package model

// Report is the complete output of one analysis run.
// The JSON keys are the public contract of the output artifact.
type Report struct {
	Summary    string      `json:"summary"`     // Free-text bullet summary from the model
	Sections   Sections    `json:"sections"`    // Extracted legislative sections
	RuleChecks []RuleCheck `json:"rule_checks"` // One result per rule, in rule order
}

// Sections maps the fixed section keys to the content the model extracted.
// Values are usually strings but the model may nest objects; they are kept as-is.
// On failure the map holds a single "error" key instead.
type Sections map[string]any

// Section keys requested from the model
const (
	SectionDefinitions      = "definitions"
	SectionObligations      = "obligations"
	SectionResponsibilities = "responsibilities"
	SectionEligibility      = "eligibility"
	SectionPayments         = "payments"
	SectionPenalties        = "penalties"
	SectionRecordKeeping    = "record_keeping"

	// SectionError is the only key present when extraction failed
	SectionError = "error"
)

// SectionKeys lists the section keys in template order
var SectionKeys = []string{
	SectionDefinitions,
	SectionObligations,
	SectionResponsibilities,
	SectionEligibility,
	SectionPayments,
	SectionPenalties,
	SectionRecordKeeping,
}

// ErrorSections returns the sentinel mapping used when extraction failed
func ErrorSections(message string) Sections {
	return Sections{SectionError: message}
}

// Err returns the error message if this is a sentinel mapping
func (s Sections) Err() (string, bool) {
	if len(s) != 1 {
		return "", false
	}
	msg, ok := s[SectionError].(string)
	return msg, ok
}

// RuleCheck is the verdict for one compliance rule
type RuleCheck struct {
	Rule       string `json:"rule"`
	Status     Status `json:"status"`
	Evidence   string `json:"evidence"`
	Confidence int    `json:"confidence"` // 0-100, a fixed constant or a model claim; not calibrated
}

// Status is the pass/fail outcome of a rule check
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	return s == StatusPass || s == StatusFail
}

// Passed counts passing rule checks
func (r *Report) Passed() int {
	n := 0
	for _, rc := range r.RuleChecks {
		if rc.Status == StatusPass {
			n++
		}
	}
	return n
}
