package stapler

import (
	"strings"
	"time"

	"stapler/internal/storage"
)

// Object key prefixes separating pre-merge inputs from published results.
const (
	UploadsPrefix = "uploads/"
	MergedPrefix  = "merged/"
)

// pdfContentType is the only content type accepted for uploads and the type
// published for merged documents.
const pdfContentType = "application/pdf"

// Sanitization policies for client-supplied file names.
const (
	SanitizeReplace = "replace"
	SanitizeStrip   = "strip"
)

// Config holds the runtime configuration for the Server. Fields without an
// env tag are wired up in code.
type Config struct {
	Bucket           string        `env:"S3_BUCKET_NAME"`
	Region           string        `env:"S3_REGION"`
	Environment      string        `env:"ENVIRONMENT_NAME" envDefault:"development"`
	MaxUploadFiles   int           `env:"MAX_UPLOAD_FILES" envDefault:"50"`
	MinMergeFiles    int           `env:"MIN_MERGE_FILES" envDefault:"1"`
	MaxFileSize      int64         `env:"MAX_FILE_SIZE_BYTES" envDefault:"104857600"`
	CredentialTTL    time.Duration `env:"CREDENTIAL_TTL" envDefault:"1h"`
	SanitizePolicy   string        `env:"SANITIZE_POLICY" envDefault:"replace"`
	FetchConcurrency int           `env:"FETCH_CONCURRENCY" envDefault:"4"`
	CORSAllowOrigin  string        `env:"CORS_ALLOW_ORIGIN" envDefault:"*"`

	Store storage.ObjectStore
}

// Production reports whether error responses must hide internal detail.
func (c Config) Production() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Check reports a ConfigurationError if anything required to serve requests
// is missing. It runs once per request, after CORS handling, so that a
// misconfigured deployment still answers preflights.
func (c Config) Check() error {
	if c.Bucket == "" {
		return NewConfigurationError("server configuration incomplete: S3_BUCKET_NAME is not set")
	}
	if c.Region == "" {
		return NewConfigurationError("server configuration incomplete: S3_REGION is not set")
	}
	if c.Store == nil {
		return NewConfigurationError("server configuration incomplete: no object store")
	}
	return nil
}
