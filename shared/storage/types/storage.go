// Package types holds the object storage contracts implemented by the
// fs and s3 adapters.
package types

import (
	"context"
	"io"
	"time"
)

// ObjectMetadata represents metadata associated with stored objects
type ObjectMetadata struct {
	ContentType     string
	ContentLength   int64
	ContentEncoding string
	CacheControl    string
	LastModified    time.Time
	ETag            string
	UserMetadata    map[string]string
}

// ObjectInfo represents information about a stored object
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
}

// ObjectStorage abstracts the underlying storage implementation so the
// local filesystem and S3 can be swapped. An empty bucket selects the
// adapter's default bucket (the base directory for fs).
type ObjectStorage interface {
	// Put stores an object, replacing any previous content
	Put(ctx context.Context, bucket, key string, reader io.Reader, metadata ObjectMetadata) error

	// Get retrieves an object. Returns ErrObjectNotFound when absent.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// GetWithMetadata retrieves an object along with its metadata
	GetWithMetadata(ctx context.Context, bucket, key string) (io.ReadCloser, *ObjectMetadata, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, bucket, key string) error

	// Exists checks if an object exists
	Exists(ctx context.Context, bucket, key string) (bool, error)

	// List returns the objects whose key starts with prefix
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
}

// LocalObjectStorage is an ObjectStorage whose objects are plain files,
// so external tools can write to them directly.
type LocalObjectStorage interface {
	ObjectStorage

	// Path returns the filesystem path backing the object
	Path(bucket, key string) (string, error)
}
