package extract

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLExtractor extracts the visible text of Acts published as web pages
// (legislation.gov.uk and similar). Navigation chrome is skipped and block
// elements become line breaks.
type HTMLExtractor struct {
	skip  map[atom.Atom]bool
	block map[atom.Atom]bool
}

// NewHTMLExtractor creates a new HTML extractor
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{
		skip: map[atom.Atom]bool{
			atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Iframe: true,
			atom.Nav: true, atom.Header: true, atom.Footer: true, atom.Form: true,
			atom.Button: true, atom.Svg: true, atom.Template: true, atom.Head: true,
		},
		block: map[atom.Atom]bool{
			atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
			atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
			atom.Li: true, atom.Ul: true, atom.Ol: true, atom.Dd: true, atom.Dt: true,
			atom.Tr: true, atom.Table: true, atom.Br: true, atom.Blockquote: true, atom.Pre: true,
		},
	}
}

// Name returns the extractor name
func (e *HTMLExtractor) Name() string {
	return "html"
}

// Extract returns one line per block of visible text
func (e *HTMLExtractor) Extract(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var buf strings.Builder
	e.walk(mainContent(doc), &buf)

	var out strings.Builder
	for _, line := range strings.Split(buf.String(), "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		out.WriteString(line)
		out.WriteString("\n")
	}
	return out.String(), nil
}

func (e *HTMLExtractor) walk(n *html.Node, buf *strings.Builder) {
	if n.Type == html.ElementNode && e.skip[n.DataAtom] {
		return
	}

	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
		buf.WriteString(" ")
		return
	}

	isBlock := n.Type == html.ElementNode && e.block[n.DataAtom]
	if isBlock {
		buf.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.walk(c, buf)
	}
	if isBlock {
		buf.WriteString("\n")
	}
}

// mainContent prefers <main>, then <article> or role=main, then the whole document
func mainContent(doc *html.Node) *html.Node {
	if n := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Main
	}); n != nil {
		return n
	}
	if n := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode &&
			(n.DataAtom == atom.Article || attr(n, "role") == "main")
	}); n != nil {
		return n
	}
	return doc
}

func findFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	if predicate(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, predicate); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
