package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStorage defines the object storage operations used for fridge photos.
type ObjectStorage interface {
	// EnsureBucket verifies the bucket exists, creating it where the provider allows
	EnsureBucket(ctx context.Context) error

	// Upload uploads an object to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// PresignGetURL returns a URL that allows reading the object until ttl elapses
	PresignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Delete deletes an object from storage
	Delete(ctx context.Context, key string) error
}
