package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/actcheck/internal/evaluate"
	"github.com/ppiankov/actcheck/internal/model"
)

// Renderer writes reports to files and terminals
type Renderer struct {
	out io.Writer // Destination of the short run summary
}

// NewRenderer creates a renderer printing summaries to out
func NewRenderer(out io.Writer) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{out: out}
}

// EncodeJSON writes the report as UTF-8 JSON with 4-space indentation.
// Non-ASCII and HTML characters are written as-is.
func EncodeJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(report)
}

// RenderJSON writes the report to path
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error {
		return EncodeJSON(w, report)
	})
}

// RenderMarkdown writes a human-readable report to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, Markdown(report))
		return err
	})
}

// RenderSummary prints pass/fail counts and per-rule status
func (r *Renderer) RenderSummary(report *model.Report) {
	total := len(report.RuleChecks)
	passed := report.Passed()

	fmt.Fprintf(r.out, "\nRule checks: %d/%d passed\n", passed, total)
	for _, rc := range report.RuleChecks {
		mark := "✓"
		if rc.Status != model.StatusPass {
			mark = "✗"
		}
		fmt.Fprintf(r.out, "  %s %s (%d)\n", mark, rc.Rule, rc.Confidence)
	}
	if msg, isErr := report.Sections.Err(); isErr {
		fmt.Fprintf(r.out, "Sections: %s\n", msg)
	}
}

// Markdown formats a report for reading
func Markdown(report *model.Report) string {
	var sb strings.Builder

	sb.WriteString("# Act Analysis\n\n")

	sb.WriteString("## Summary\n\n")
	if report.Summary == "" {
		sb.WriteString("_No summary._\n\n")
	} else {
		sb.WriteString(report.Summary)
		sb.WriteString("\n\n")
	}

	sb.WriteString("## Sections\n\n")
	if msg, isErr := report.Sections.Err(); isErr {
		fmt.Fprintf(&sb, "> %s\n\n", msg)
	} else {
		for _, key := range sectionOrder(report.Sections) {
			content := strings.TrimSpace(evaluate.Flatten(report.Sections[key]))
			if content == "" {
				content = "_Not found._"
			}
			fmt.Fprintf(&sb, "### %s\n\n%s\n\n", sectionTitle(key), content)
		}
	}

	fmt.Fprintf(&sb, "## Rule Checks (%d/%d passed)\n\n", report.Passed(), len(report.RuleChecks))
	sb.WriteString("| Rule | Status | Confidence | Evidence |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, rc := range report.RuleChecks {
		fmt.Fprintf(&sb, "| %s | %s | %d | %s |\n", rc.Rule, rc.Status, rc.Confidence, tableCell(rc.Evidence))
	}

	return sb.String()
}

// sectionOrder lists the known keys in template order, then any extras sorted
func sectionOrder(sections model.Sections) []string {
	known := make(map[string]bool, len(model.SectionKeys))
	keys := make([]string, 0, len(sections))
	for _, k := range model.SectionKeys {
		known[k] = true
		if _, ok := sections[k]; ok {
			keys = append(keys, k)
		}
	}

	var extra []string
	for k := range sections {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

func sectionTitle(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func tableCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}

// writeFile creates parent directories and writes through a temp file
func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
