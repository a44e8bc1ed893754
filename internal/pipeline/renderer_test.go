package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ppiankov/actcheck/internal/model"
)

func sampleReport() *model.Report {
	return &model.Report{
		Summary: "- Purpose: replaces legacy benefits\n- Eligibility: claimants aged 18+ <see s.4> & residents",
		Sections: model.Sections{
			"definitions":      "“claimant” means a person who makes a claim",
			"obligations":      map[string]any{"claimant": "report changes", "employer": "supply earnings"},
			"responsibilities": "",
			"eligibility":      []any{"aged 18", "resident in Great Britain"},
			"payments":         "",
			"penalties":        "",
			"record_keeping":   "",
		},
		RuleChecks: []model.RuleCheck{
			{Rule: "Act must define key terms", Status: model.StatusPass, Evidence: "“claimant” means...", Confidence: 95},
			{Rule: "Act must include enforcement or penalties", Status: model.StatusFail, Evidence: "", Confidence: 40},
		},
	}
}

func TestEncodeJSON_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeJSON(&buf, sampleReport()); err != nil {
		t.Fatalf("EncodeJSON failed: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "\n    \"summary\": ") {
		t.Errorf("expected 4-space indentation:\n%s", out)
	}
	if !strings.Contains(out, "“claimant”") {
		t.Error("expected non-ASCII characters unescaped")
	}
	if !strings.Contains(out, "<see s.4> & residents") {
		t.Error("expected HTML characters unescaped")
	}

	// Key order follows the report contract
	summary := strings.Index(out, `"summary"`)
	sections := strings.Index(out, `"sections"`)
	checks := strings.Index(out, `"rule_checks"`)
	if !(summary < sections && sections < checks) {
		t.Errorf("unexpected key order:\n%s", out)
	}
}

func TestEncodeJSON_RoundTrip(t *testing.T) {
	report := sampleReport()

	var buf bytes.Buffer
	if err := EncodeJSON(&buf, report); err != nil {
		t.Fatal(err)
	}

	var decoded model.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if !reflect.DeepEqual(&decoded, report) {
		t.Errorf("round trip changed the report:\n got %#v\nwant %#v", decoded, *report)
	}
}

func TestRenderJSON_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "final_output.json")

	if err := NewRenderer(&bytes.Buffer{}).RenderJSON(sampleReport(), path); err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("invalid JSON written: %v", err)
	}
	if len(raw) != 3 {
		t.Errorf("expected exactly 3 top-level keys, got %d", len(raw))
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the output file, found %d entries", len(entries))
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleReport())

	for _, want := range []string{
		"## Summary",
		"### Definitions",
		"### Record Keeping",
		"report changes supply earnings",
		"aged 18 resident in Great Britain",
		"_Not found._",
		"## Rule Checks (1/2 passed)",
		"| Act must define key terms | pass | 95 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestMarkdown_ErrorSections(t *testing.T) {
	report := sampleReport()
	report.Sections = model.ErrorSections("Invalid JSON returned from model")

	md := Markdown(report)
	if !strings.Contains(md, "> Invalid JSON returned from model") {
		t.Errorf("expected error note:\n%s", md)
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).RenderSummary(sampleReport())

	out := buf.String()
	if !strings.Contains(out, "Rule checks: 1/2 passed") {
		t.Errorf("unexpected summary: %s", out)
	}
	if !strings.Contains(out, "✗ Act must include enforcement or penalties (40)") {
		t.Errorf("expected failing rule line: %s", out)
	}
}
