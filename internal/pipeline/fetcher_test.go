package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchWithRetry_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = fmt.Fprint(w, "%PDF-1.4 fake")
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	result, err := fetcher.FetchWithRetry(context.Background(), server.URL+"/ukpga/2025/22/data.pdf")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(result.Data) != "%PDF-1.4 fake" {
		t.Errorf("Unexpected body: %s", result.Data)
	}
	if result.Name != "data.pdf" {
		t.Errorf("Unexpected name: %s", result.Name)
	}
}

func TestFetchWithRetry_TransientThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html>OK</html>")
	}))
	defer server.Close()

	// Override sleep for fast tests
	origSleep := fetchSleepFunc
	fetchSleepFunc = func(ctx context.Context, d time.Duration) error { return nil }
	defer func() { fetchSleepFunc = origSleep }()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	result, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if string(result.Data) != "<html>OK</html>" {
		t.Errorf("Unexpected body: %s", result.Data)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_CancelledDuringBackoff(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	origSleep := fetchSleepFunc
	fetchSleepFunc = func(ctx context.Context, d time.Duration) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}
	defer func() { fetchSleepFunc = origSleep }()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	start := time.Now()
	_, err := fetcher.FetchWithRetry(ctx, server.URL)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt before cancellation, got %d", attempts.Load())
	}
	if time.Since(start) > time.Second {
		t.Errorf("Backoff did not stop on cancellation")
	}
}

func TestFetchWithRetry_PermanentFailure(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	origSleep := fetchSleepFunc
	fetchSleepFunc = func(ctx context.Context, d time.Duration) error { return nil }
	defer func() { fetchSleepFunc = origSleep }()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1<<20, false, "", "", "")
	_, err := fetcher.FetchWithRetry(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}
	// 404 is not retryable, so should fail immediately
	if got := err.Error(); got != "unexpected status: 404 404 Not Found" {
		t.Errorf("Unexpected error: %s", got)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts.Load())
	}
}

func TestFetch_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, strings.Repeat("x", 2048))
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "test-agent", 1024, false, "", "", "")
	_, err := fetcher.Fetch(context.Background(), server.URL+"/act.txt")
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}
}

func TestFetch_RobotsDisallowed(t *testing.T) {
	var actHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /\n")
			return
		}
		actHits.Add(1)
	}))
	defer server.Close()

	fetcher := NewFetcher(5*time.Second, "actcheck/0.1", 1<<20, true, "", "", "")
	_, err := fetcher.Fetch(context.Background(), server.URL+"/act.pdf")
	if !errors.Is(err, ErrDisallowed) {
		t.Errorf("Expected ErrDisallowed, got %v", err)
	}
	if actHits.Load() != 0 {
		t.Error("Act should not be requested when robots.txt disallows it")
	}
}

func TestFetch_InvalidURL(t *testing.T) {
	fetcher := NewFetcher(time.Second, "test-agent", 1<<20, false, "", "", "")
	if _, err := fetcher.Fetch(context.Background(), "ftp://example.com/act.pdf"); err == nil {
		t.Error("Expected error for non-http URL")
	}
}

func TestDocumentName(t *testing.T) {
	tests := []struct {
		rawURL      string
		contentType string
		expected    string
	}{
		{"https://www.legislation.gov.uk/ukpga/2025/22/pdfs/ukpga_20250022_en.pdf", "application/pdf", "ukpga_20250022_en.pdf"},
		{"https://www.legislation.gov.uk/ukpga/2025/22", "text/html; charset=utf-8", "22.html"},
		{"https://www.legislation.gov.uk/ukpga/2025/22/", "application/pdf", "22.pdf"},
		{"https://example.com/", "text/plain", "example.com"},
		{"https://example.com/act", "application/octet-stream", "act"},
	}

	for _, tt := range tests {
		u, err := url.Parse(tt.rawURL)
		if err != nil {
			t.Fatal(err)
		}
		if got := documentName(u, tt.contentType); got != tt.expected {
			t.Errorf("documentName(%s, %s) = %s, want %s", tt.rawURL, tt.contentType, got, tt.expected)
		}
	}
}
