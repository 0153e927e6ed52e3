package stapler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"stapler/internal/pdf"
)

// handleMerge implements POST /merge. The requested keys are validated
// before anything is fetched, the merge attempt runs, and the source objects
// are removed whether or not the merge succeeded. Only then is the outcome
// written.
func (s *Server) handleMerge(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if err := s.Config.Check(); err != nil {
		s.writeError(w, err)
		return
	}

	var req MergeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	if len(req.FileKeys) < s.Config.MinMergeFiles {
		s.writeError(w, NewValidationError(fmt.Sprintf(
			"at least %d 'fileKeys' are required to merge", s.Config.MinMergeFiles)))
		return
	}

	// Refuse keys outside the uploads prefix before a single fetch or
	// delete happens.
	for _, key := range req.FileKeys {
		if !strings.HasPrefix(key, UploadsPrefix) {
			s.writeError(w, NewAccessDeniedError("access denied: invalid file key"))
			return
		}
	}

	resp, mergeErr := s.merge(ctx, req.FileKeys)

	// The source objects are removed after every merge attempt, failed ones
	// included. Failures here are logged and never change the outcome.
	for _, failure := range s.Config.Store.RemoveObjects(ctx, req.FileKeys) {
		slog.Warn("Failed to delete source object", "key", failure.Key, "err", failure.Err)
	}

	if mergeErr != nil {
		s.writeError(w, mergeErr)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// merge fetches the source objects, concatenates their pages in key order,
// stores the result under a fresh merged key, and returns the response
// carrying the presigned download URL.
func (s *Server) merge(ctx context.Context, keys []string) (*MergeResponse, error) {
	docs, err := s.fetchObjects(ctx, keys)
	if err != nil {
		return nil, err
	}

	merger := pdf.NewMerger()
	defer merger.Close()

	for i, doc := range docs {
		if err := merger.Append(doc); err != nil {
			return nil, NewCorruptDocumentError(fmt.Sprintf("file %q is not a valid PDF", keys[i]), err)
		}
	}

	var buf bytes.Buffer
	if err := merger.Merge(&buf); err != nil {
		return nil, NewCorruptDocumentError("could not assemble the merged document", err)
	}

	mergedID := uuid.NewString()
	mergedKey := MergedPrefix + mergedID + ".pdf"

	if err := s.Config.Store.PutObject(ctx, mergedKey, &buf, int64(buf.Len()), pdfContentType); err != nil {
		return nil, NewStorageError("could not store the merged document", err)
	}

	downloadName := fmt.Sprintf("stapler-merged-%s.pdf", mergedID)
	downloadURL, err := s.Config.Store.PresignDownload(ctx, mergedKey, s.Config.CredentialTTL, downloadName)
	if err != nil {
		return nil, NewStorageError("could not create a download credential", err)
	}

	slog.Info("Merged documents", "files", len(keys), "pages", merger.Pages(), "key", mergedKey)

	return &MergeResponse{
		Message:     "PDFs merged successfully!",
		DownloadURL: downloadURL,
	}, nil
}

// fetchObjects downloads every key into memory, a few at a time. The
// returned slice is indexed like keys, so concatenation order follows the
// caller's key order no matter which fetch finishes first.
func (s *Server) fetchObjects(ctx context.Context, keys []string) ([][]byte, error) {
	docs := make([][]byte, len(keys))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.Config.FetchConcurrency)

	for i, key := range keys {
		eg.Go(func() error {
			obj, err := s.Config.Store.GetObject(ctx, key)
			if err != nil {
				return NewStorageError(fmt.Sprintf("could not fetch file %q", key), err)
			}
			defer obj.Close()

			data, err := io.ReadAll(obj)
			if err != nil {
				return NewStorageError(fmt.Sprintf("could not read file %q", key), err)
			}

			docs[i] = data
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return docs, nil
}
