package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"alfredoptarigan/resume-matcher/internal/services"
)

// MockSessionNotifier is a mock implementation of services.SessionNotifier.
type MockSessionNotifier struct {
	mock.Mock
}

func (m *MockSessionNotifier) Publish(ctx context.Context, session services.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}
