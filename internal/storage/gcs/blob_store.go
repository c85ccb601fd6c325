// Package gcs publishes rendered pages to a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// DefaultCacheControl keeps CDNs from serving a stale archive page.
const DefaultCacheControl = "no-cache, max-age=0"

// Config captures the bucket the pages are written to.
type Config struct {
	Bucket       string
	CacheControl string
}

// BlobStore writes objects to a configured GCS bucket.
type BlobStore struct {
	client       *storage.Client
	bucket       string
	cacheControl string
}

// New creates a GCS-backed blob store around an existing client.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	cacheControl := cfg.CacheControl
	if cacheControl == "" {
		cacheControl = DefaultCacheControl
	}
	return &BlobStore{
		client:       client,
		bucket:       cfg.Bucket,
		cacheControl: cacheControl,
	}, nil
}

// PutObject uploads data to path and returns a gs:// URI. A failed copy
// aborts the upload so no partial object is committed.
func (s *BlobStore) PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error) {
	name := strings.TrimLeft(strings.TrimSpace(path), "/")
	if name == "" {
		return "", fmt.Errorf("path is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writer := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	writer.CacheControl = s.cacheControl
	if contentType != "" {
		writer.ContentType = contentType
	}
	if _, err := io.Copy(writer, r); err != nil {
		cancel()
		return "", errors.Join(fmt.Errorf("copy object: %w", err), writer.Close())
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, name), nil
}

// Close releases the underlying client.
func (s *BlobStore) Close() error {
	return s.client.Close()
}
