package adapters

import (
	"bytes"
	"mime"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Adapter recognizes a publisher's Act landing page and finds the
// document that should be analyzed instead of the page itself
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter can handle the given URL/content
	CanHandle(pageURL *url.URL, contentType string) bool

	// ResolveDocument returns the absolute URL of the Act document
	ResolveDocument(doc *html.Node, pageURL *url.URL) (string, bool)
}

// Registry manages publisher adapters
type Registry struct {
	adapters []Adapter
}

// NewRegistry creates a new adapter registry
func NewRegistry() *Registry {
	registry := &Registry{}

	// Register built-in adapters
	registry.Register(NewLegislationAdapter())

	return registry
}

// Register registers a new adapter
func (r *Registry) Register(adapter Adapter) {
	r.adapters = append(r.adapters, adapter)
}

// FindAdapter returns the first adapter that handles the page, or nil
func (r *Registry) FindAdapter(pageURL *url.URL, contentType string) Adapter {
	for _, adapter := range r.adapters {
		if adapter.CanHandle(pageURL, contentType) {
			return adapter
		}
	}
	return nil
}

// Resolve returns the Act document linked from an HTML landing page.
// It reports false when no adapter applies or the page links nothing
// better than itself.
func (r *Registry) Resolve(pageURL, contentType string, body []byte) (string, bool) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	adapter := r.FindAdapter(u, contentType)
	if adapter == nil {
		return "", false
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", false
	}
	target, ok := adapter.ResolveDocument(doc, u)
	if !ok || target == u.String() {
		return "", false
	}
	return target, true
}

// isHTML reports whether a Content-Type header names an HTML document
func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// getAttribute gets an attribute value from a node
func getAttribute(n *html.Node, attrKey string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrKey {
			return attr.Val
		}
	}
	return ""
}

// findAll finds all nodes matching a predicate
func findAll(n *html.Node, predicate func(*html.Node) bool) []*html.Node {
	var results []*html.Node

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if predicate(node) {
			results = append(results, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return results
}

func hostMatches(host string, domains map[string]bool) bool {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	return domains[host]
}
