// Package mocks provides testify mocks for the downloader ports
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"vidcatalog/workers/downloader/internal/extractor"
)

// MockGateway is a mock implementation of extractor.Gateway
type MockGateway struct {
	mock.Mock
}

// Resolve mocks the Resolve method
func (m *MockGateway) Resolve(ctx context.Context, url string) (extractor.Metadata, error) {
	args := m.Called(ctx, url)
	meta, _ := args.Get(0).(extractor.Metadata)
	return meta, args.Error(1)
}

// Fetch mocks the Fetch method
func (m *MockGateway) Fetch(ctx context.Context, req extractor.FetchRequest) (extractor.Metadata, error) {
	args := m.Called(ctx, req)
	meta, _ := args.Get(0).(extractor.Metadata)
	return meta, args.Error(1)
}
