package storage_test

import (
	"bytes"
	"io"
	"net/url"
	"testing"
	"time"

	"stapler/internal/storage"

	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutAndGet(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore("https://objects.test/stapler")
	payload := []byte("%PDF-1.4 pretend")

	err := store.PutObject(t.Context(), "uploads/b/doc.pdf", bytes.NewReader(payload), int64(len(payload)), "application/pdf")
	require.NoError(t, err, "PutObject error")
	require.Equal(t, "application/pdf", store.ContentType("uploads/b/doc.pdf"), "recorded content type")

	rc, err := store.GetObject(t.Context(), "uploads/b/doc.pdf")
	require.NoError(t, err, "GetObject error")
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err, "reading object")
	require.Equal(t, payload, got, "payload mismatch")
}

func TestMemoryStoreGetMissing(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore("https://objects.test/stapler")

	_, err := store.GetObject(t.Context(), "uploads/nope.pdf")
	require.ErrorIs(t, err, storage.ErrNotFound, "expected ErrNotFound")
}

func TestMemoryStorePutSizeMismatch(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore("https://objects.test/stapler")

	err := store.PutObject(t.Context(), "k", bytes.NewReader([]byte("abc")), 7, "application/pdf")
	require.Error(t, err, "expected size mismatch error")
}

func TestMemoryStoreRemoveObjects(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore("https://objects.test/stapler")
	for _, key := range []string{"uploads/b/one.pdf", "uploads/b/two.pdf"} {
		require.NoError(t,
			store.PutObject(t.Context(), key, bytes.NewReader([]byte("x")), 1, "application/pdf"),
			"seeding %s", key)
	}

	// Removing a mix of present and absent keys succeeds for all of them.
	failures := store.RemoveObjects(t.Context(), []string{"uploads/b/one.pdf", "uploads/b/missing.pdf"})
	require.Empty(t, failures, "RemoveObjects failures")
	require.Equal(t, []string{"uploads/b/two.pdf"}, store.Keys(), "remaining keys")
}

func TestMemoryStorePresignUpload(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore("https://objects.test/stapler")

	post, err := store.PresignUpload(t.Context(), "uploads/b/doc.pdf", storage.UploadConstraints{
		ContentType: "application/pdf",
		MinSize:     1,
		MaxSize:     100,
		Expiry:      time.Hour,
	})
	require.NoError(t, err, "PresignUpload error")
	require.Equal(t, "https://objects.test/stapler", post.URL, "post URL")
	require.Equal(t, "uploads/b/doc.pdf", post.Fields["key"], "key field")
	require.Equal(t, "application/pdf", post.Fields["Content-Type"], "content type field")

	_, err = store.PresignUpload(t.Context(), "k", storage.UploadConstraints{MinSize: 5, MaxSize: 1, Expiry: time.Hour})
	require.Error(t, err, "expected error for inverted size range")
}

func TestMemoryStorePresignDownload(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore("https://objects.test/stapler")

	signed, err := store.PresignDownload(t.Context(), "merged/out.pdf", time.Hour, "stapler-merged-out.pdf")
	require.NoError(t, err, "PresignDownload error")

	parsed, err := url.Parse(signed)
	require.NoError(t, err, "parsing URL")
	require.Contains(t, parsed.Path, "merged/out.pdf", "URL path")
	require.Equal(t, "3600", parsed.Query().Get("X-Amz-Expires"), "expiry parameter")
	require.Contains(t, parsed.Query().Get("response-content-disposition"), "stapler-merged-out.pdf", "disposition parameter")
}
