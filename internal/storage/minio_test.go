package storage_test

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"stapler/internal/storage"

	"github.com/stretchr/testify/require"
)

// newMinioStore returns a store pointing at a local endpoint. Presign
// operations are computed entirely client-side (the region is set
// explicitly), so these tests never touch the network.
func newMinioStore(t *testing.T) *storage.MinioStore {
	t.Helper()

	store, err := storage.NewMinioStore(storage.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		UseSSL:    false,
		Bucket:    "stapler-test",
		Region:    "us-east-1",
	})
	require.NoError(t, err, "NewMinioStore error")
	return store
}

func TestNewMinioStoreRequiresBucket(t *testing.T) {
	t.Parallel()

	_, err := storage.NewMinioStore(storage.MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.Error(t, err, "expected error for empty bucket")
}

func TestMinioStorePresignUpload(t *testing.T) {
	t.Parallel()

	store := newMinioStore(t)

	key := "uploads/batch-1/report.pdf"
	post, err := store.PresignUpload(t.Context(), key, storage.UploadConstraints{
		ContentType: "application/pdf",
		MinSize:     1,
		MaxSize:     100 << 20,
		Expiry:      time.Hour,
	})
	require.NoError(t, err, "PresignUpload error")

	require.Contains(t, post.URL, "/stapler-test", "post URL should target the bucket")
	require.Equal(t, key, post.Fields["key"], "key form field")
	require.Equal(t, "application/pdf", post.Fields["Content-Type"], "content type form field")
	require.NotEmpty(t, post.Fields["x-amz-signature"], "signature form field")

	// The signed policy document carries the constraints the storage
	// service will enforce on the upload itself.
	policyJSON, err := base64.StdEncoding.DecodeString(post.Fields["policy"])
	require.NoError(t, err, "decoding policy form field")

	var policy struct {
		Expiration time.Time `json:"expiration"`
		Conditions []any     `json:"conditions"`
	}
	require.NoError(t, json.Unmarshal(policyJSON, &policy), "parsing policy document")

	require.WithinDuration(t, time.Now().UTC().Add(time.Hour), policy.Expiration, time.Minute,
		"policy expiration")
	require.Contains(t, policy.Conditions,
		[]any{"eq", "$Content-Type", "application/pdf"}, "content type condition")
	require.Contains(t, policy.Conditions,
		[]any{"content-length-range", float64(1), float64(100 << 20)}, "size range condition")
}

func TestMinioStorePresignUploadInvalidConstraints(t *testing.T) {
	t.Parallel()

	store := newMinioStore(t)

	tests := []struct {
		name string
		c    storage.UploadConstraints
	}{
		{
			name: "zero expiry",
			c:    storage.UploadConstraints{ContentType: "application/pdf", MinSize: 1, MaxSize: 10},
		},
		{
			name: "inverted size range",
			c:    storage.UploadConstraints{ContentType: "application/pdf", MinSize: 10, MaxSize: 1, Expiry: time.Hour},
		},
		{
			name: "negative minimum",
			c:    storage.UploadConstraints{ContentType: "application/pdf", MinSize: -1, MaxSize: 10, Expiry: time.Hour},
		},
	}

	for _, tc := range tests {
		// capture range variable
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := store.PresignUpload(t.Context(), "uploads/b/f.pdf", tc.c)
			require.Error(t, err, "expected constraint error")
		})
	}
}

func TestMinioStorePresignDownload(t *testing.T) {
	t.Parallel()

	store := newMinioStore(t)

	signed, err := store.PresignDownload(t.Context(), "merged/abc.pdf", time.Hour, "stapler-merged-abc.pdf")
	require.NoError(t, err, "PresignDownload error")

	parsed, err := url.Parse(signed)
	require.NoError(t, err, "parsing presigned URL")
	require.Contains(t, parsed.Path, "/stapler-test/merged/abc.pdf", "URL path")

	query := parsed.Query()
	require.Equal(t, "3600", query.Get("X-Amz-Expires"), "expiry query parameter")
	require.NotEmpty(t, query.Get("X-Amz-Signature"), "signature query parameter")
	require.Equal(t, `attachment; filename="stapler-merged-abc.pdf"`,
		query.Get("response-content-disposition"), "disposition query parameter")
}

func TestMinioStorePresignDownloadWithoutName(t *testing.T) {
	t.Parallel()

	store := newMinioStore(t)

	signed, err := store.PresignDownload(t.Context(), "merged/abc.pdf", time.Hour, "")
	require.NoError(t, err, "PresignDownload error")

	parsed, err := url.Parse(signed)
	require.NoError(t, err, "parsing presigned URL")
	require.Empty(t, parsed.Query().Get("response-content-disposition"),
		"disposition should be absent without a download name")
}

func TestMinioStorePresignDownloadZeroExpiry(t *testing.T) {
	t.Parallel()

	store := newMinioStore(t)

	_, err := store.PresignDownload(t.Context(), "merged/abc.pdf", 0, "")
	require.Error(t, err, "expected error for zero expiry")
}
