package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig holds the connection settings for an S3-compatible endpoint.
// Endpoint, credentials, and the SSL switch come from the environment;
// Bucket and Region are forwarded from the service configuration.
type MinioConfig struct {
	Endpoint  string `env:"S3_ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"S3_ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string `env:"S3_SECRET_KEY" envDefault:"minioadmin"`
	UseSSL    bool   `env:"S3_USE_SSL" envDefault:"false"`

	Bucket string
	Region string
}

// MinioStore is an ObjectStore backed by any S3-compatible endpoint via the
// MinIO client. The region is set explicitly on the client so that presign
// operations never need a bucket-location round-trip.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore creates a MinioStore bound to cfg.Bucket.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket must not be empty")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioStore) PresignUpload(ctx context.Context, key string, c UploadConstraints) (*PresignedPost, error) {
	if c.Expiry <= 0 {
		return nil, errors.New("upload credential expiry must be positive")
	}

	policy := minio.NewPostPolicy()
	if err := policy.SetBucket(s.bucket); err != nil {
		return nil, fmt.Errorf("set policy bucket: %w", err)
	}
	if err := policy.SetKey(key); err != nil {
		return nil, fmt.Errorf("set policy key: %w", err)
	}
	if err := policy.SetExpires(time.Now().UTC().Add(c.Expiry)); err != nil {
		return nil, fmt.Errorf("set policy expiry: %w", err)
	}
	if err := policy.SetContentType(c.ContentType); err != nil {
		return nil, fmt.Errorf("set policy content type: %w", err)
	}
	if err := policy.SetContentLengthRange(c.MinSize, c.MaxSize); err != nil {
		return nil, fmt.Errorf("set policy length range: %w", err)
	}

	target, fields, err := s.client.PresignedPostPolicy(ctx, policy)
	if err != nil {
		return nil, fmt.Errorf("presign upload for %q: %w", key, err)
	}

	return &PresignedPost{URL: target.String(), Fields: fields}, nil
}

func (s *MinioStore) PresignDownload(ctx context.Context, key string, expiry time.Duration, downloadName string) (string, error) {
	if expiry <= 0 {
		return "", errors.New("download credential expiry must be positive")
	}

	params := make(url.Values)
	if downloadName != "" {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	}

	signed, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, params)
	if err != nil {
		return "", fmt.Errorf("presign download for %q: %w", key, err)
	}

	return signed.String(), nil
}

func (s *MinioStore) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w", key, err)
	}

	// The client defers the actual request until the first read; Stat
	// forces it so a missing key is reported here.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("stat object %q: %w", key, err)
	}

	return obj, nil
}

func (s *MinioStore) PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

func (s *MinioStore) RemoveObjects(ctx context.Context, keys []string) []RemoveFailure {
	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		objectsCh <- minio.ObjectInfo{Key: key}
	}
	close(objectsCh)

	var failures []RemoveFailure
	for rmErr := range s.client.RemoveObjects(ctx, s.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		failures = append(failures, RemoveFailure{Key: rmErr.ObjectName, Err: rmErr.Err})
	}
	return failures
}

func (s *MinioStore) BucketExists(ctx context.Context) (bool, error) {
	return s.client.BucketExists(ctx, s.bucket)
}
