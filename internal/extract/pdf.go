package extract

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts per-page plain text from PDF documents
type PDFExtractor struct{}

// NewPDFExtractor creates a new PDF extractor
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Name returns the extractor name
func (e *PDFExtractor) Name() string {
	return "pdf"
}

// Extract concatenates the text of every page in page order.
// Each page with text contributes its text followed by one newline;
// pages without extractable text contribute nothing.
func (e *PDFExtractor) Extract(data []byte) (text string, err error) {
	// The PDF library panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrNotPDF, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotPDF, err)
	}

	return joinPages(&pdfPages{reader: r}), nil
}

// ExtractFile reads and extracts the PDF at path
func (e *PDFExtractor) ExtractFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return e.Extract(data)
}

// pageSource yields the text of numbered pages (1-based)
type pageSource interface {
	NumPage() int
	PageText(i int) (string, error)
}

type pdfPages struct {
	reader *pdf.Reader
}

func (p *pdfPages) NumPage() int {
	return p.reader.NumPage()
}

func (p *pdfPages) PageText(i int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d: %v", i, r)
		}
	}()

	page := p.reader.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	// The library opens every page with a line break
	return strings.Trim(text, "\n"), nil
}

// joinPages builds the Act text; unreadable pages count as empty
func joinPages(src pageSource) string {
	var sb strings.Builder
	for i := 1; i <= src.NumPage(); i++ {
		text, err := src.PageText(i)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String()
}
