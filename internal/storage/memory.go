package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStore is an ObjectStore held entirely in memory. It backs tests and
// local development; presign operations fabricate URLs against a fixed base
// URL instead of signing anything.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
}

// NewMemoryStore creates an empty MemoryStore whose fabricated presigned
// URLs are rooted at baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		baseURL: baseURL,
	}
}

func (s *MemoryStore) PresignUpload(_ context.Context, key string, c UploadConstraints) (*PresignedPost, error) {
	if c.Expiry <= 0 {
		return nil, errors.New("upload credential expiry must be positive")
	}
	if c.MinSize < 0 || c.MaxSize < c.MinSize {
		return nil, fmt.Errorf("invalid size range [%d, %d]", c.MinSize, c.MaxSize)
	}

	return &PresignedPost{
		URL: s.baseURL,
		Fields: map[string]string{
			"key":          key,
			"Content-Type": c.ContentType,
		},
	}, nil
}

func (s *MemoryStore) PresignDownload(_ context.Context, key string, expiry time.Duration, downloadName string) (string, error) {
	if expiry <= 0 {
		return "", errors.New("download credential expiry must be positive")
	}

	params := make(url.Values)
	params.Set("X-Amz-Expires", fmt.Sprintf("%d", int(expiry.Seconds())))
	if downloadName != "" {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	}

	return s.baseURL + "/" + key + "?" + params.Encode(), nil
}

func (s *MemoryStore) GetObject(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *MemoryStore) PutObject(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read payload for %q: %w", key, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("payload for %q is %d bytes, expected %d", key, len(data), size)
	}

	s.mu.Lock()
	s.objects[key] = memoryObject{data: data, contentType: contentType}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) RemoveObjects(_ context.Context, keys []string) []RemoveFailure {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Removing a key that does not exist succeeds, matching S3 semantics.
	for _, key := range keys {
		delete(s.objects, key)
	}
	return nil
}

func (s *MemoryStore) BucketExists(context.Context) (bool, error) {
	return true, nil
}

// Keys returns every stored key in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ContentType returns the content type recorded for key, or "" when the key
// is absent.
func (s *MemoryStore) ContentType(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[key].contentType
}
