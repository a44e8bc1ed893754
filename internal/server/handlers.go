package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/ppiankov/actcheck/internal/analyze"
	"github.com/ppiankov/actcheck/internal/extract"
	"github.com/ppiankov/actcheck/internal/llm"
	"github.com/ppiankov/actcheck/internal/pipeline"
)

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Act Analyzer</title>
</head>
<body>
<h1>Act Analyzer</h1>
<p>Upload a PDF and get structured JSON output (summary + sections + rule checks).</p>
<form action="/analyze" method="post" enctype="multipart/form-data">
<input type="file" name="pdf" accept="application/pdf,.pdf" required>
<button type="submit">Analyze</button>
</form>
</body>
</html>
`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErr(w, http.StatusRequestEntityTooLarge, "too_large",
				fmt.Sprintf("Upload exceeds %d bytes", s.cfg.MaxUploadBytes))
			return
		}
		writeErr(w, http.StatusBadRequest, "bad_request", "Expected a multipart form with a pdf field")
		return
	}
	// Removes any temp files the multipart reader created for this request
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("pdf")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "validation_failed", "pdf file required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "bad_request", sanitizeError(err))
		return
	}
	if !extract.IsPDF(data) {
		writeErr(w, http.StatusUnsupportedMediaType, "unsupported_type", "Only PDF uploads are accepted")
		return
	}

	ctx := r.Context()
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	report, err := s.runner.RunBytes(ctx, uploadName(header.Filename), data)
	if err != nil {
		status, code := classify(err)
		fmt.Fprintf(os.Stderr, "[%s] analyze failed: %v\n", requestID(r), err)
		writeErr(w, status, code, sanitizeError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="final_output.json"`)
	w.WriteHeader(http.StatusOK)
	_ = pipeline.EncodeJSON(w, report)
}

// uploadName keeps the extractor choice on PDF whatever the client called the file
func uploadName(filename string) string {
	if strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return filename
	}
	return "upload.pdf"
}

func classify(err error) (int, string) {
	var apiErr *llm.APIError
	switch {
	case errors.Is(err, extract.ErrNotPDF):
		return http.StatusUnprocessableEntity, "invalid_pdf"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, "cancelled"
	case errors.As(err, &apiErr), llm.IsTransient(err):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// maxErrorRunes caps error messages returned to clients
const maxErrorRunes = 300

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = strings.ReplaceAll(msg, os.TempDir(), "[tmp]")
	if cut, truncated := analyze.Truncate(msg, maxErrorRunes); truncated {
		msg = cut + "..."
	}
	return msg
}
