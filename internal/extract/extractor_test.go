package extract

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRegistry_ForName(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name     string
		data     string
		expected string
	}{
		{"act.pdf", "garbage", "pdf"},
		{"ACT.PDF", "garbage", "pdf"},
		{"act.html", "plain words", "html"},
		{"act.txt", "<html><body>x</body></html>", "text"},
		{"upload", "<!DOCTYPE html><html><body><p>Act</p></body></html>", "html"},
		{"upload", "Universal Credit Act 2025\nSection 1", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.expected, func(t *testing.T) {
			ex, err := r.ForName(tt.name, []byte(tt.data))
			if err != nil {
				t.Fatalf("ForName failed: %v", err)
			}
			if ex.Name() != tt.expected {
				t.Errorf("expected %s extractor, got %s", tt.expected, ex.Name())
			}
		})
	}
}

func TestRegistry_Detect_PDF(t *testing.T) {
	ex, err := NewRegistry().Detect(buildPDF([]string{"x"}))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if ex.Name() != "pdf" {
		t.Errorf("expected pdf extractor, got %s", ex.Name())
	}
}

func TestRegistry_Detect_Unsupported(t *testing.T) {
	// PNG signature
	data := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	_, err := NewRegistry().Detect(data)
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestRegistry_ExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "act.txt")
	if err := os.WriteFile(path, []byte("Section 1\r\nSection 2"), 0644); err != nil {
		t.Fatal(err)
	}

	text, err := NewRegistry().ExtractFile(path)
	if err != nil {
		t.Fatalf("ExtractFile failed: %v", err)
	}
	if text != "Section 1\nSection 2\n" {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestRegistry_ExtractFile_Missing(t *testing.T) {
	_, err := NewRegistry().ExtractFile(filepath.Join(t.TempDir(), "missing.pdf"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if errors.Is(err, ErrNotPDF) {
		t.Error("a missing file is not an invalid PDF")
	}
}

func TestRegistry_ExtractFile_CorruptPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "act.pdf")
	if err := os.WriteFile(path, []byte("Universal Credit Act"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewRegistry().ExtractFile(path)
	if !errors.Is(err, ErrNotPDF) {
		t.Errorf("expected ErrNotPDF, got %v", err)
	}
}

func TestIsPDF(t *testing.T) {
	if !IsPDF(buildPDF([]string{"x"})) {
		t.Error("expected generated PDF to sniff as PDF")
	}
	if IsPDF([]byte("hello")) {
		t.Error("plain text should not sniff as PDF")
	}
}

func TestHTMLExtractor_MainContent(t *testing.T) {
	page := `<!DOCTYPE html>
<html>
<head><title>Universal Credit Act 2025</title><style>p{color:red}</style></head>
<body>
  <nav><a href="/">Home</a></nav>
  <main>
    <h1>Universal Credit Act 2025</h1>
    <p>1 <b>Interpretation</b></p>
    <p>In this Act   "claimant" means a person who claims.</p>
    <script>track()</script>
  </main>
  <footer>Crown copyright</footer>
</body>
</html>`

	text, err := NewHTMLExtractor().Extract([]byte(page))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	expected := "Universal Credit Act 2025\n1 Interpretation\nIn this Act \"claimant\" means a person who claims.\n"
	if text != expected {
		t.Errorf("unexpected text:\n%q\nwant:\n%q", text, expected)
	}
}

func TestHTMLExtractor_FallsBackToBody(t *testing.T) {
	page := `<html><body><div>Section 1</div><div>Section 2</div><footer>skip</footer></body></html>`

	text, err := NewHTMLExtractor().Extract([]byte(page))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if text != "Section 1\nSection 2\n" {
		t.Errorf("unexpected text: %q", text)
	}
	if strings.Contains(text, "skip") {
		t.Error("footer text should be skipped")
	}
}

func TestTextExtractor(t *testing.T) {
	text, _ := NewTextExtractor().Extract([]byte(""))
	if text != "" {
		t.Errorf("empty input should stay empty, got %q", text)
	}

	text, _ = NewTextExtractor().Extract([]byte("already\n"))
	if text != "already\n" {
		t.Errorf("unexpected text: %q", text)
	}
}
