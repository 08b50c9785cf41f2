package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"vidcatalog/workers/downloader/internal/domain"
)

// MockCatalog is a mock implementation of service.Catalog
type MockCatalog struct {
	mock.Mock
}

// List mocks the List method
func (m *MockCatalog) List(ctx context.Context) ([]domain.VideoRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]domain.VideoRecord)
	return records, args.Error(1)
}

// Get mocks the Get method
func (m *MockCatalog) Get(ctx context.Context, id string) (domain.VideoRecord, bool, error) {
	args := m.Called(ctx, id)
	rec, _ := args.Get(0).(domain.VideoRecord)
	return rec, args.Bool(1), args.Error(2)
}

// Append mocks the Append method
func (m *MockCatalog) Append(ctx context.Context, rec domain.VideoRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// Remove mocks the Remove method
func (m *MockCatalog) Remove(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
