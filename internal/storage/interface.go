package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the interface for the durable, URL-addressable
// object store holding generated thumbnail images.
type ObjectStorage interface {
	// EnsureBucket verifies the bucket exists, creating it where the
	// backing service allows it. Called once at startup.
	EnsureBucket(ctx context.Context) error

	// Upload uploads an object to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// GetURL returns the public URL for accessing an object
	GetURL(key string) string

	// Delete deletes an object from storage
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)
}
