package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"golang.org/x/net/html"

	"github.com/ppiankov/actcheck/internal/extract"
	"github.com/ppiankov/actcheck/internal/extract/adapters"
	"github.com/ppiankov/actcheck/internal/llm"
	"github.com/ppiankov/actcheck/internal/model"
)

const sectionsResponse = `{
	"definitions": "Universal Credit means a benefit administered by the Secretary of State",
	"obligations": "",
	"responsibilities": "",
	"eligibility": "",
	"payments": "The standard allowance is uprated annually",
	"penalties": "",
	"record_keeping": ""
}`

// stageProvider answers by recognising which stage built the prompt
type stageProvider struct {
	mu       sync.Mutex
	sections string
	calls    int
	err      error
}

func (p *stageProvider) Name() string { return "stage" }

func (p *stageProvider) IsAvailable(ctx context.Context) bool { return true }

func (p *stageProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}
	switch {
	case strings.Contains(req.Prompt, "legal analysis assistant"):
		return &llm.CompletionResponse{Text: "  - Purpose: one benefit\n"}, nil
	case strings.Contains(req.Prompt, "Extract:"):
		return &llm.CompletionResponse{Text: p.sections}, nil
	default:
		return &llm.CompletionResponse{Text: `{"status": "pass", "evidence": "s.1", "confidence": 80}`}, nil
	}
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.LLM.MaxRetries = 0
	return cfg
}

func newTestPipeline(t *testing.T, cfg *model.Config, provider llm.Provider) (*Pipeline, *bytes.Buffer) {
	t.Helper()
	p, err := NewWithProvider(cfg, provider)
	if err != nil {
		t.Fatalf("NewWithProvider failed: %v", err)
	}
	var progress bytes.Buffer
	p.SetProgress(&progress)
	p.SetSummaryOutput(&bytes.Buffer{})
	return p, &progress
}

func TestRunBytes_Heuristic(t *testing.T) {
	provider := &stageProvider{sections: sectionsResponse}
	p, progress := newTestPipeline(t, testConfig(), provider)

	report, err := p.RunBytes(context.Background(), "act.txt", []byte("Universal Credit Act 2025"))
	if err != nil {
		t.Fatalf("RunBytes failed: %v", err)
	}

	if report.Summary != "  - Purpose: one benefit\n" {
		t.Errorf("unexpected summary: %q", report.Summary)
	}
	if len(report.Sections) != 7 {
		t.Errorf("expected 7 sections, got %v", report.Sections)
	}
	if len(report.RuleChecks) != 6 {
		t.Fatalf("expected 6 rule checks, got %d", len(report.RuleChecks))
	}
	if report.RuleChecks[0].Status != model.StatusPass || report.RuleChecks[4].Status != model.StatusPass {
		t.Errorf("expected definitions and payments to pass: %+v", report.RuleChecks)
	}
	if report.Passed() != 2 {
		t.Errorf("expected 2 passing checks, got %d", report.Passed())
	}
	if provider.calls != 2 {
		t.Errorf("heuristic run should make 2 model calls, got %d", provider.calls)
	}

	for _, stage := range []string{"Extracting TEXT...", "Summarizing...", "Extracting sections...", "Running rule checks..."} {
		if !strings.Contains(progress.String(), stage) {
			t.Errorf("missing progress line %q in %q", stage, progress.String())
		}
	}
}

func TestRunBytes_Judge(t *testing.T) {
	cfg := testConfig()
	cfg.Evaluator = "llm"
	cfg.Concurrency.JudgeWorkers = 3
	provider := &stageProvider{sections: sectionsResponse}
	p, _ := newTestPipeline(t, cfg, provider)

	report, err := p.RunBytes(context.Background(), "act.txt", []byte("Universal Credit Act 2025"))
	if err != nil {
		t.Fatalf("RunBytes failed: %v", err)
	}

	if provider.calls != 8 {
		t.Errorf("judge run should make 8 model calls, got %d", provider.calls)
	}
	for _, rc := range report.RuleChecks {
		if rc.Status != model.StatusPass || rc.Confidence != 80 {
			t.Errorf("unexpected judgment: %+v", rc)
		}
	}
}

func TestRunBytes_InvalidSectionsContinues(t *testing.T) {
	provider := &stageProvider{sections: "```json\n{}\n```"}
	p, _ := newTestPipeline(t, testConfig(), provider)

	report, err := p.RunBytes(context.Background(), "act.txt", []byte("Act"))
	if err != nil {
		t.Fatalf("RunBytes failed: %v", err)
	}

	if msg, isErr := report.Sections.Err(); !isErr || msg != "Invalid JSON returned from model" {
		t.Errorf("expected error sections, got %v", report.Sections)
	}
	if report.Passed() != 0 {
		t.Errorf("expected every rule to fail, got %d passing", report.Passed())
	}
}

func TestRunBytes_ProviderErrorAborts(t *testing.T) {
	provider := &stageProvider{err: &llm.APIError{Provider: "stage", StatusCode: 401, Message: "invalid key"}}
	p, _ := newTestPipeline(t, testConfig(), provider)

	report, err := p.RunBytes(context.Background(), "act.txt", []byte("Act"))
	if err == nil {
		t.Fatal("expected error")
	}
	if report != nil {
		t.Error("no partial report expected")
	}
	if provider.calls != 1 {
		t.Errorf("permanent failure should not be retried, got %d calls", provider.calls)
	}
}

func TestRunBytes_CorruptPDF(t *testing.T) {
	provider := &stageProvider{sections: sectionsResponse}
	p, _ := newTestPipeline(t, testConfig(), provider)

	_, err := p.RunBytes(context.Background(), "act.pdf", []byte("not really a pdf"))
	if !errors.Is(err, extract.ErrNotPDF) {
		t.Errorf("expected ErrNotPDF, got %v", err)
	}
	if provider.calls != 0 {
		t.Error("model should not be called when extraction fails")
	}
}

func TestRun_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "act.html")
	if err := os.WriteFile(path, []byte("<html><body><p>Universal Credit Act 2025</p></body></html>"), 0644); err != nil {
		t.Fatal(err)
	}

	p, progress := newTestPipeline(t, testConfig(), &stageProvider{sections: sectionsResponse})
	if _, err := p.Run(context.Background(), path); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(progress.String(), "Extracting HTML...") {
		t.Errorf("expected HTML extraction, got %q", progress.String())
	}
}

func TestRun_MissingFile(t *testing.T) {
	p, _ := newTestPipeline(t, testConfig(), &stageProvider{sections: sectionsResponse})
	if _, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestAnalyze_URL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprint(w, "Universal Credit Act 2025")
	}))
	defer server.Close()

	p, progress := newTestPipeline(t, testConfig(), &stageProvider{sections: sectionsResponse})
	report, err := p.Analyze(context.Background(), server.URL+"/ukpga/2025/22")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(report.RuleChecks) != 6 {
		t.Errorf("expected 6 rule checks, got %d", len(report.RuleChecks))
	}
	if !strings.Contains(progress.String(), "Extracting TEXT...") {
		t.Errorf("expected text extraction, got %q", progress.String())
	}
}

// followAdapter sends every HTML page to a fixed document
type followAdapter struct {
	target string
}

func (a *followAdapter) Name() string { return "follow" }

func (a *followAdapter) CanHandle(pageURL *url.URL, contentType string) bool {
	return strings.HasPrefix(contentType, "text/html")
}

func (a *followAdapter) ResolveDocument(doc *html.Node, pageURL *url.URL) (string, bool) {
	return a.target, true
}

func TestRunURL_FollowsLandingPage(t *testing.T) {
	var actFetched bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			w.WriteHeader(http.StatusNotFound)
		case "/ukpga/2025/22":
			w.Header().Set("Content-Type", "text/html")
			_, _ = fmt.Fprint(w, "<html><body><main>Landing page</main></body></html>")
		case "/ukpga/2025/22/act.txt":
			actFetched = true
			w.Header().Set("Content-Type", "text/plain")
			_, _ = fmt.Fprint(w, "Universal Credit Act 2025")
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	p, progress := newTestPipeline(t, testConfig(), &stageProvider{sections: sectionsResponse})
	p.adapters = &adapters.Registry{}
	p.adapters.Register(&followAdapter{target: server.URL + "/ukpga/2025/22/act.txt"})

	if _, err := p.RunURL(context.Background(), server.URL+"/ukpga/2025/22"); err != nil {
		t.Fatalf("RunURL failed: %v", err)
	}
	if !actFetched {
		t.Error("expected the linked document to be fetched")
	}
	if !strings.Contains(progress.String(), "Extracting TEXT...") {
		t.Errorf("expected the text document to be analyzed, got %q", progress.String())
	}
}

func TestRunURL_FollowFailureFallsBackToPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ukpga/2025/22" {
			w.Header().Set("Content-Type", "text/html")
			_, _ = fmt.Fprint(w, "<html><body><main>Universal Credit Act 2025</main></body></html>")
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	p, progress := newTestPipeline(t, testConfig(), &stageProvider{sections: sectionsResponse})
	p.adapters = &adapters.Registry{}
	p.adapters.Register(&followAdapter{target: server.URL + "/missing.pdf"})

	if _, err := p.RunURL(context.Background(), server.URL+"/ukpga/2025/22"); err != nil {
		t.Fatalf("RunURL failed: %v", err)
	}
	out := progress.String()
	if !strings.Contains(out, "analyzing the page instead") || !strings.Contains(out, "Extracting HTML...") {
		t.Errorf("expected fallback to the HTML page, got %q", out)
	}
}

func TestNewWithProvider_UnknownEvaluator(t *testing.T) {
	cfg := testConfig()
	cfg.Evaluator = "coin-flip"
	if _, err := NewWithProvider(cfg, &stageProvider{}); err == nil {
		t.Error("expected error for unknown evaluator")
	}
}

func TestIsURL(t *testing.T) {
	if !IsURL("https://www.legislation.gov.uk/ukpga/2025/22") || IsURL("ukpga_20250022_en.pdf") {
		t.Error("unexpected IsURL result")
	}
}
