// Package objectstore writes transfer snapshots to shared S3-compatible
// storage and signs time-limited read URLs for them. Warehouse loaders use
// the same bucket as a staging area for COPY statements.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store is the object storage surface the transfer engine needs.
type Store interface {
	// Upload streams r into a new object under prefix and returns its key.
	Upload(ctx context.Context, r io.Reader, prefix, extension string) (string, error)
	// Sign returns a time-limited GET URL for an existing key.
	Sign(ctx context.Context, key string) (string, error)
	// Remove deletes an object. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// Options configures the S3-compatible client.
type Options struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	SignTTL         time.Duration
}

// MinioStore is the production Store backed by any S3-compatible endpoint.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	signTTL time.Duration
}

var _ Store = (*MinioStore)(nil)

func NewMinioStore(opts Options) (*MinioStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}
	return &MinioStore{client: client, bucket: opts.Bucket, signTTL: opts.SignTTL}, nil
}

func (s *MinioStore) Upload(ctx context.Context, r io.Reader, prefix, extension string) (string, error) {
	key := newKey(prefix, extension)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, -1, minio.PutObjectOptions{
		ContentType: contentTypeFor(extension),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %q: %w", key, err)
	}
	return key, nil
}

func (s *MinioStore) Sign(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.signTTL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to sign %q: %w", key, err)
	}
	return u.String(), nil
}

func (s *MinioStore) Remove(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %q: %w", key, err)
	}
	return nil
}

func newKey(prefix, extension string) string {
	key := uuid.NewString() + extension
	if prefix != "" {
		key = strings.TrimSuffix(prefix, "/") + "/" + key
	}
	return key
}

func contentTypeFor(extension string) string {
	switch {
	case strings.HasSuffix(extension, ".gz"):
		return "application/gzip"
	case strings.HasSuffix(extension, ".csv"):
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
