package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by GetObject when the requested key does not exist.
var ErrNotFound = errors.New("object not found")

// PresignedPost carries everything a client needs to perform one direct
// upload: the target URL and the exact form fields that must accompany the
// file in the POST body.
type PresignedPost struct {
	URL    string
	Fields map[string]string
}

// UploadConstraints bound what a presigned upload may create: the exact
// content type, an inclusive byte-size range, and how long the credential
// stays valid.
type UploadConstraints struct {
	ContentType string
	MinSize     int64
	MaxSize     int64
	Expiry      time.Duration
}

// RemoveFailure records a single key that could not be deleted during a
// batch removal.
type RemoveFailure struct {
	Key string
	Err error
}

// ObjectStore is the object-storage surface the service depends on. All
// implementations are bound to a single bucket chosen at construction time.
type ObjectStore interface {
	// PresignUpload issues a time-limited credential allowing a client to
	// create exactly one object at key, subject to the given constraints.
	// No object is created by this call.
	PresignUpload(ctx context.Context, key string, c UploadConstraints) (*PresignedPost, error)

	// PresignDownload issues a time-limited URL for reading the object at
	// key. A non-empty downloadName asks the store to serve the object as
	// an attachment with that filename instead of displaying it inline.
	PresignDownload(ctx context.Context, key string, expiry time.Duration, downloadName string) (string, error)

	// GetObject retrieves the object stored at key. A missing key is
	// reported as ErrNotFound from this call, not deferred to the first
	// Read. The caller owns the returned reader and must close it.
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)

	// PutObject stores size bytes read from r at key with the given
	// content type.
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// RemoveObjects deletes the given keys, best effort: a failure on one
	// key never aborts the rest. Keys that do not exist are not an error.
	// The returned slice holds one entry per key that could not be
	// removed and is empty on full success.
	RemoveObjects(ctx context.Context, keys []string) []RemoveFailure

	// BucketExists reports whether the configured bucket is reachable and
	// present.
	BucketExists(ctx context.Context) (bool, error)
}
