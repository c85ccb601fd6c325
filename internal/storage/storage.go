// Package storage selects the blob store the rendered archive page is written to.
package storage

import (
	"context"
	"fmt"
	"io"

	gcsclient "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/JakeFAU/archivist/internal/config"
	"github.com/JakeFAU/archivist/internal/storage/gcs"
	"github.com/JakeFAU/archivist/internal/storage/local"
	"github.com/JakeFAU/archivist/internal/storage/memory"
)

// ContentTypeHTML is used for rendered pages.
const ContentTypeHTML = "text/html; charset=utf-8"

// BlobStore persists one object and returns its URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// New builds the blob store named by cfg.Kind. Client options are only used
// by the GCS store.
func New(ctx context.Context, cfg config.SinkConfig, opts ...option.ClientOption) (BlobStore, error) {
	switch cfg.Kind {
	case config.SinkMemory:
		return memory.NewBlobStore(), nil
	case config.SinkLocal:
		store, err := local.New(local.Config{BaseDir: cfg.LocalDir})
		if err != nil {
			return nil, fmt.Errorf("init local store: %w", err)
		}
		return store, nil
	case config.SinkGCS:
		client, err := gcsclient.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		store, err := gcs.New(client, gcs.Config{Bucket: cfg.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("init gcs store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown sink kind: %s", cfg.Kind)
	}
}
