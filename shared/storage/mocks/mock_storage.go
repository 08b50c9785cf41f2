// Package mocks provides testify mocks for the storage contracts
package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"vidcatalog/shared/storage/types"
)

// MockObjectStorage is a mock implementation of types.ObjectStorage
type MockObjectStorage struct {
	mock.Mock
}

// Put mocks the Put method. The reader is drained so callers holding
// files can close them.
func (m *MockObjectStorage) Put(ctx context.Context, bucket, key string, reader io.Reader, metadata types.ObjectMetadata) error {
	if reader != nil {
		_, _ = io.Copy(io.Discard, reader)
	}
	args := m.Called(ctx, bucket, key, reader, metadata)
	return args.Error(0)
}

// Get mocks the Get method
func (m *MockObjectStorage) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, key)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

// GetWithMetadata mocks the GetWithMetadata method
func (m *MockObjectStorage) GetWithMetadata(ctx context.Context, bucket, key string) (io.ReadCloser, *types.ObjectMetadata, error) {
	args := m.Called(ctx, bucket, key)
	var rc io.ReadCloser
	if v, ok := args.Get(0).(io.ReadCloser); ok {
		rc = v
	}
	var meta *types.ObjectMetadata
	if v, ok := args.Get(1).(*types.ObjectMetadata); ok {
		meta = v
	}
	return rc, meta, args.Error(2)
}

// Delete mocks the Delete method
func (m *MockObjectStorage) Delete(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}

// Exists mocks the Exists method
func (m *MockObjectStorage) Exists(ctx context.Context, bucket, key string) (bool, error) {
	args := m.Called(ctx, bucket, key)
	return args.Bool(0), args.Error(1)
}

// List mocks the List method
func (m *MockObjectStorage) List(ctx context.Context, bucket, prefix string) ([]types.ObjectInfo, error) {
	args := m.Called(ctx, bucket, prefix)
	if objects, ok := args.Get(0).([]types.ObjectInfo); ok {
		return objects, args.Error(1)
	}
	return nil, args.Error(1)
}
