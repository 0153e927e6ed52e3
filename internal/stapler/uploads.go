package stapler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"stapler/internal/storage"
)

// handleIssueUploads implements POST /upload. It allocates one batch
// identifier shared by the whole call and returns, per file name, the
// storage key and a presigned POST credential constrained to a single PDF
// upload. No object is created here; the client uploads directly to storage.
func (s *Server) handleIssueUploads(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if err := s.Config.Check(); err != nil {
		s.writeError(w, err)
		return
	}

	var req IssueUploadsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	if len(req.FileNames) < 1 || len(req.FileNames) > s.Config.MaxUploadFiles {
		s.writeError(w, NewValidationError(fmt.Sprintf(
			"'fileNames' must be a list of 1 to %d file names", s.Config.MaxUploadFiles)))
		return
	}

	batchID := uuid.NewString()

	constraints := storage.UploadConstraints{
		ContentType: pdfContentType,
		MinSize:     1,
		MaxSize:     s.Config.MaxFileSize,
		Expiry:      s.Config.CredentialTTL,
	}

	uploads := make([]UploadEntry, 0, len(req.FileNames))
	for _, fileName := range req.FileNames {
		key := UploadsPrefix + batchID + "/" + SanitizeFileName(fileName, s.Config.SanitizePolicy)

		post, err := s.Config.Store.PresignUpload(ctx, key, constraints)
		if err != nil {
			s.writeError(w, NewStorageError(fmt.Sprintf("could not create an upload credential for %q", fileName), err))
			return
		}

		uploads = append(uploads, UploadEntry{
			OriginalFileName: fileName,
			Key:              key,
			PostDetails:      PostDetails{URL: post.URL, Fields: post.Fields},
		})
	}

	slog.Info("Issued upload credentials", "batch", batchID, "files", len(uploads))
	writeJSON(w, http.StatusOK, IssueUploadsResponse{Uploads: uploads})
}
