package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockQdrantService is a mock implementation of services.QdrantService.
type MockQdrantService struct {
	mock.Mock
}

func (m *MockQdrantService) CollectionExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockQdrantService) CreateCollection(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockQdrantService) UpsertDocument(ctx context.Context, collection, docID string, payload map[string]interface{}, embedding []float32) error {
	args := m.Called(ctx, collection, docID, payload, embedding)
	return args.Error(0)
}
