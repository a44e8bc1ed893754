package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrNotPDF is returned when a document that must be a PDF cannot be opened as one
	ErrNotPDF = errors.New("not a valid PDF")

	// ErrUnsupportedType is returned for documents no extractor handles
	ErrUnsupportedType = errors.New("unsupported document type")
)

// Extractor turns a document into the plain Act text
type Extractor interface {
	// Name returns the extractor name
	Name() string

	// Extract returns the document text
	Extract(data []byte) (string, error)
}

// Registry picks an extractor for a document
type Registry struct {
	pdf  Extractor
	html Extractor
	text Extractor
}

// NewRegistry creates a registry with the built-in extractors
func NewRegistry() *Registry {
	return &Registry{
		pdf:  NewPDFExtractor(),
		html: NewHTMLExtractor(),
		text: NewTextExtractor(),
	}
}

// ForName picks an extractor by file extension, falling back to content sniffing.
// A .pdf name always selects the PDF extractor so that a corrupt PDF fails loudly
// instead of being read as text.
func (r *Registry) ForName(name string, data []byte) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return r.pdf, nil
	case ".html", ".htm", ".xhtml":
		return r.html, nil
	case ".txt":
		return r.text, nil
	}
	return r.Detect(data)
}

// Detect picks an extractor from the sniffed MIME type
func (r *Registry) Detect(data []byte) (Extractor, error) {
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("application/pdf"):
		return r.pdf, nil
	case mt.Is("text/html"), mt.Is("application/xhtml+xml"):
		return r.html, nil
	case mt.Is("text/plain"):
		return r.text, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
}

// ExtractBytes extracts text from an in-memory document
func (r *Registry) ExtractBytes(name string, data []byte) (string, error) {
	ex, err := r.ForName(name, data)
	if err != nil {
		return "", err
	}
	return ex.Extract(data)
}

// ExtractFile extracts text from a document on disk
func (r *Registry) ExtractFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return r.ExtractBytes(path, data)
}

// IsPDF reports whether data sniffs as a PDF document
func IsPDF(data []byte) bool {
	return mimetype.Detect(data).Is("application/pdf")
}
