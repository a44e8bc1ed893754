package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/actcheck/internal/model"
)

// mockAnalyzer implements Analyzer
type mockAnalyzer struct {
	failOn string
}

func (m *mockAnalyzer) Analyze(ctx context.Context, input string) (*model.Report, error) {
	time.Sleep(5 * time.Millisecond)
	if input == m.failOn {
		return nil, errors.New("analyze error")
	}
	return &model.Report{Summary: "summary of " + input}, nil
}

func TestBatchProcessor_ProcessInputs(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{failOn: "b.pdf"}, 2)

	inputs := []string{"a.pdf", "b.pdf", "c.pdf"}
	results := processor.ProcessInputs(context.Background(), inputs)

	if len(results) != len(inputs) {
		t.Fatalf("expected %d results, got %d", len(inputs), len(results))
	}

	for i, r := range results {
		if r.Input != inputs[i] {
			t.Errorf("result %d: expected input %s, got %s", i, inputs[i], r.Input)
		}
	}

	if results[1].Error == nil {
		t.Error("expected error for b.pdf")
	}
	if results[0].Error != nil || results[0].Report.Summary != "summary of a.pdf" {
		t.Errorf("unexpected result for a.pdf: %+v", results[0])
	}
}

func TestBatchProcessor_ProcessInputs_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{}, 2)
	if results := processor.ProcessInputs(context.Background(), nil); len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadInputsFromFile(t *testing.T) {
	content := `
# Acts to check
acts/universal-credit.pdf
https://www.legislation.gov.uk/ukpga/2025/22/data.pdf

acts/universal-credit.pdf
`
	path := filepath.Join(t.TempDir(), "acts.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	inputs, err := ReadInputsFromFile(path)
	if err != nil {
		t.Fatalf("ReadInputsFromFile failed: %v", err)
	}

	expected := []string{
		"acts/universal-credit.pdf",
		"https://www.legislation.gov.uk/ukpga/2025/22/data.pdf",
	}
	if strings.Join(inputs, ",") != strings.Join(expected, ",") {
		t.Errorf("expected %v, got %v", expected, inputs)
	}
}

func TestListActs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.PDF", "notes.md", "c.html"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.pdf"), 0755); err != nil {
		t.Fatal(err)
	}

	acts, err := ListActs(dir)
	if err != nil {
		t.Fatalf("ListActs failed: %v", err)
	}

	var names []string
	for _, a := range acts {
		names = append(names, filepath.Base(a))
	}
	if got := strings.Join(names, ","); got != "a.PDF,b.pdf,c.html" {
		t.Errorf("unexpected acts: %s", got)
	}
}

func TestBatchProcessor_ProcessPath_Directory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"one.pdf", "two.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	processor := NewBatchProcessor(&mockAnalyzer{}, 2)
	results, err := processor.ProcessPath(context.Background(), dir)
	if err != nil {
		t.Fatalf("ProcessPath failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessPath_Missing(t *testing.T) {
	processor := NewBatchProcessor(&mockAnalyzer{}, 2)
	if _, err := processor.ProcessPath(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing path")
	}
}
