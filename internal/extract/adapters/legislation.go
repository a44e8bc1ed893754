package adapters

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// actPathPattern matches /{type}/{year}/{number}, e.g. /ukpga/2025/22/contents
var actPathPattern = regexp.MustCompile(`^/([a-z]+)/(\d{4})/(\d+)(?:/|$)`)

// LegislationAdapter resolves legislation.gov.uk Act pages to the
// printed PDF of the Act
type LegislationAdapter struct {
	domains map[string]bool
}

// NewLegislationAdapter creates a new legislation.gov.uk adapter
func NewLegislationAdapter() *LegislationAdapter {
	return &LegislationAdapter{
		domains: map[string]bool{
			"legislation.gov.uk": true,
		},
	}
}

// Name returns the adapter name
func (a *LegislationAdapter) Name() string {
	return "legislation.gov.uk"
}

// CanHandle accepts HTML pages served by legislation.gov.uk
func (a *LegislationAdapter) CanHandle(pageURL *url.URL, contentType string) bool {
	return hostMatches(pageURL.Host, a.domains) && isHTML(contentType)
}

// ResolveDocument prefers the PDF the page links to and otherwise
// builds the conventional PDF location from the Act's path
func (a *LegislationAdapter) ResolveDocument(doc *html.Node, pageURL *url.URL) (string, bool) {
	want := ""
	if name, ok := ActPDFName(pageURL.Path); ok {
		want = name
	}

	links := findAll(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "a" && getAttribute(n, "href") != ""
	})

	var first string
	for _, link := range links {
		ref, err := url.Parse(strings.TrimSpace(getAttribute(link, "href")))
		if err != nil {
			continue
		}
		abs := pageURL.ResolveReference(ref)
		if !strings.EqualFold(path.Ext(abs.Path), ".pdf") || !strings.Contains(abs.Path, "/pdfs/") {
			continue
		}
		abs.Fragment = ""
		if want != "" && path.Base(abs.Path) == want {
			return abs.String(), true
		}
		if first == "" {
			first = abs.String()
		}
	}
	if first != "" {
		return first, true
	}

	return ActPDFURL(pageURL)
}

// ActPDFName returns the print PDF file name for an Act path:
// /ukpga/2025/22 -> ukpga_20250022_en.pdf
func ActPDFName(actPath string) (string, bool) {
	m := actPathPattern.FindStringSubmatch(actPath)
	if m == nil {
		return "", false
	}
	number, err := strconv.Atoi(m[3])
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s_%s%04d_en.pdf", m[1], m[2], number), true
}

// ActPDFURL builds the print PDF URL for an Act page URL
func ActPDFURL(pageURL *url.URL) (string, bool) {
	m := actPathPattern.FindStringSubmatch(pageURL.Path)
	if m == nil {
		return "", false
	}
	name, _ := ActPDFName(pageURL.Path)
	u := url.URL{
		Scheme: pageURL.Scheme,
		Host:   pageURL.Host,
		Path:   fmt.Sprintf("/%s/%s/%s/pdfs/%s", m[1], m[2], m[3], name),
	}
	return u.String(), true
}
