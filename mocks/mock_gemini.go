package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockGeminiService is a mock implementation of services.GeminiService.
type MockGeminiService struct {
	mock.Mock
}

func (m *MockGeminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockGeminiService) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	args := m.Called(ctx, prompt, temperature)
	return args.String(0), args.Error(1)
}

func (m *MockGeminiService) GenerateTextWithRetry(ctx context.Context, prompt string, temperature float32, maxRetries int) (string, error) {
	args := m.Called(ctx, prompt, temperature, maxRetries)
	return args.String(0), args.Error(1)
}
