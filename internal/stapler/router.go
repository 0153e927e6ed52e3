package stapler

import (
	"net/http"
)

// Handler returns an http.Handler implementing the upload and merge API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		s.handleIssueUploads(ctx, w, r)
	})
	mux.HandleFunc("POST /merge", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		s.handleMerge(ctx, w, r)
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		s.handleHealth(ctx, w, r)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.handleNotFound(w, r)
	})

	// Add middleware
	handler := s.CORS(mux)
	handler = LogRequest(handler)
	handler = s.Recoverer(handler)
	return handler
}
