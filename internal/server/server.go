// Package server exposes the analysis pipeline as a browser upload service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ppiankov/actcheck/internal/model"
	"github.com/ppiankov/actcheck/internal/worker"
)

// multipart parts above this size spill to per-request temp files
const multipartMemory = 8 << 20

// Runner analyzes one uploaded document
type Runner interface {
	RunBytes(ctx context.Context, name string, data []byte) (*model.Report, error)
}

// Server handles uploads; each request works on its own copy of the document
type Server struct {
	cfg      model.ServerConfig
	runner   Runner
	sem      *semaphore.Weighted
	limiters *worker.Limiter // per client IP; nil disables rate limiting
	trusted  []netip.Prefix
	handler  http.Handler
}

// New creates a server running uploads through runner
func New(cfg model.ServerConfig, runner Runner) *Server {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}

	s := &Server{
		cfg:    cfg,
		runner: runner,
		sem:    semaphore.NewWeighted(cfg.MaxConcurrent),
	}
	s.trusted = parseTrustedProxies(cfg.TrustedProxies)
	if cfg.RequestsPerMinute > 0 {
		s.limiters = worker.NewLimiter(float64(cfg.RequestsPerMinute)/60, cfg.RequestsPerMinute)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /analyze", s.withRateLimit(s.withConcurrencyLimit(s.handleAnalyze)))

	s.handler = withRequestID(withLogging(withRecovery(mux)))
	return s
}

// Handler returns the root handler with middlewares applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}

	if s.limiters != nil {
		go s.forgetLimiters(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("actcheck listening on %s (max concurrent: %d)\n", s.cfg.Addr, s.cfg.MaxConcurrent)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// forgetLimiters drops idle client limiters periodically
func (s *Server) forgetLimiters(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiters.Forget()
		}
	}
}

// parseTrustedProxies accepts bare addresses and CIDR prefixes; bad entries are skipped
func parseTrustedProxies(entries []string) []netip.Prefix {
	var prefixes []netip.Prefix
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: ignoring trusted proxy %q: %v\n", entry, err)
			continue
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes
}
