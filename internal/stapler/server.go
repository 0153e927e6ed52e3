package stapler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// maxBodyBytes caps the JSON request bodies this API accepts. The PDFs
// themselves never pass through this server, only their names and keys.
const maxBodyBytes = 1 << 20

// Server implements the PDF upload and merge HTTP API.
type Server struct {
	Config Config
}

// NewServer fills in defaults for zero-valued tunables and returns a new
// Server. Bucket, region, and store are deliberately not validated here;
// they are checked per request so the server can come up misconfigured and
// still answer preflights and health probes.
func NewServer(cfg Config) (*Server, error) {

	if cfg.MaxUploadFiles <= 0 {
		cfg.MaxUploadFiles = 50
	}

	if cfg.MinMergeFiles <= 0 {
		cfg.MinMergeFiles = 1
	}

	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 100 * 1024 * 1024
	}

	if cfg.CredentialTTL <= 0 {
		cfg.CredentialTTL = time.Hour
	}

	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 4
	}

	if cfg.CORSAllowOrigin == "" {
		cfg.CORSAllowOrigin = "*"
	}

	if cfg.SanitizePolicy == "" {
		cfg.SanitizePolicy = SanitizeReplace
	}

	if cfg.SanitizePolicy != SanitizeReplace && cfg.SanitizePolicy != SanitizeStrip {
		return nil, fmt.Errorf("unknown sanitize policy %q", cfg.SanitizePolicy)
	}

	return &Server{Config: cfg}, nil
}

// writeJSON encodes v as JSON and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Encode JSON response", "err", err)
	}
}

// writeError maps err onto the JSON error envelope. Errors that are not an
// *Error become a generic 500. In production, 5xx messages are replaced with
// a fixed string; the full error stays in the logs either way.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = &Error{
			Status:  http.StatusInternalServerError,
			Code:    "InternalError",
			Message: err.Error(),
		}
	}

	if apiErr.Status >= http.StatusInternalServerError {
		slog.Error("Request failed", "code", apiErr.Code, "err", err)
	}

	message := apiErr.Message
	if apiErr.Status >= http.StatusInternalServerError && s.Config.Production() {
		message = "An internal server error occurred."
	}

	writeJSON(w, apiErr.Status, ErrorResponse{Error: message})
}

// decodeJSON decodes the request body into v, rejecting bodies over
// maxBodyBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return NewValidationError("request body is not valid JSON")
	}

	return nil
}

// handleHealth implements GET /healthz. It reports degraded rather than ok
// when the configured bucket cannot be reached.
func (s *Server) handleHealth(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if err := s.Config.Check(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unconfigured"})
		return
	}

	exists, err := s.Config.Store.BucketExists(ctx)
	if err != nil || !exists {
		slog.Warn("Health probe failed", "bucket", s.Config.Bucket, "err", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded"})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleNotFound answers requests for paths outside the API surface.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "endpoint not found"})
}
