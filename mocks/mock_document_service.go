package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"alfredoptarigan/resume-matcher/internal/services"
)

// MockDocumentService is a mock implementation of services.DocumentService.
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) IngestResume(ctx context.Context, file services.DocumentFile) (*services.ResumeDocument, error) {
	args := m.Called(ctx, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ResumeDocument), args.Error(1)
}

func (m *MockDocumentService) CreateIndex(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockDocumentService) IndexDocument(ctx context.Context, indexName, documentID string) error {
	args := m.Called(ctx, indexName, documentID)
	return args.Error(0)
}

func (m *MockDocumentService) IngestJobDescription(ctx context.Context, file services.DocumentFile) (*services.JobDescriptionDocument, error) {
	args := m.Called(ctx, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.JobDescriptionDocument), args.Error(1)
}

func (m *MockDocumentService) ComputeMatch(ctx context.Context, resumeID, jobDescriptionID string) (*services.MatchResult, error) {
	args := m.Called(ctx, resumeID, jobDescriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.MatchResult), args.Error(1)
}

func (m *MockDocumentService) SuggestSkills(ctx context.Context, skills []string) ([]string, error) {
	args := m.Called(ctx, skills)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
