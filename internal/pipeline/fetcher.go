package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/ppiankov/actcheck/internal/util"
)

// fetchSleepFunc waits between download attempts (injectable for tests)
var fetchSleepFunc = util.SleepContext

const fetchAttempts = 3

// ErrDisallowed is returned when robots.txt forbids downloading an Act
var ErrDisallowed = errors.New("disallowed by robots.txt")

// ErrTooLarge is returned when a download exceeds the size limit
var ErrTooLarge = errors.New("document exceeds size limit")

// Fetcher downloads Acts published on the web
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker // nil when robots.txt is not consulted
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, respectRobots bool, httpProxy, httpsProxy, noProxy string) *Fetcher {
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(httpProxy, httpsProxy, noProxy),
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}

	f := &Fetcher{
		httpClient: client,
		userAgent:  userAgent,
		maxBytes:   maxBytes,
	}
	if respectRobots {
		f.robots = util.NewRobotsChecker(userAgent, client)
	}
	return f
}

// FetchResult is a downloaded Act
type FetchResult struct {
	Data        []byte
	Name        string // File name derived from the final URL, used to pick an extractor
	ContentType string
	FinalURL    string
}

// FetchWithRetry downloads rawURL, retrying 429 and 5xx responses
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			if err := fetchSleepFunc(ctx, time.Duration(1<<uint(attempt-1))*time.Second); err != nil {
				return nil, fmt.Errorf("%w (last error: %v)", err, lastErr)
			}
		}

		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err

		var se *statusError
		if !errors.As(err, &se) || !se.transient() || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// Fetch downloads rawURL once
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("invalid URL: %s", rawURL)
	}

	if f.robots != nil {
		allowed, err := f.robots.Allowed(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/pdf,text/html;q=0.9,text/plain;q=0.8,*/*;q=0.5")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, status: resp.Status}
	}

	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	reader := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if f.maxBytes > 0 && int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBytes)
	}

	finalURL := resp.Request.URL
	contentType := resp.Header.Get("Content-Type")

	return &FetchResult{
		Data:        body,
		Name:        documentName(finalURL, contentType),
		ContentType: contentType,
		FinalURL:    finalURL.String(),
	}, nil
}

type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.code, e.status)
}

func (e *statusError) transient() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// documentName returns the last path segment, adding an extension from
// the content type when the URL has none (legislation.gov.uk serves
// /ukpga/2025/22 as HTML)
func documentName(u *url.URL, contentType string) string {
	name := path.Base(strings.TrimSuffix(u.Path, "/"))
	if name == "." || name == "/" || name == "" {
		name = u.Host
	}
	if path.Ext(name) != "" {
		return name
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "application/pdf":
		return name + ".pdf"
	case "text/html", "application/xhtml+xml":
		return name + ".html"
	case "text/plain":
		return name + ".txt"
	}
	return name
}
