package mocks

import (
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
)

// MockAnalysisRepository is a mock implementation of repositories.AnalysisRepository.
type MockAnalysisRepository struct {
	mock.Mock
}

func (m *MockAnalysisRepository) Create(analysis *models.Analysis) error {
	args := m.Called(analysis)
	return args.Error(0)
}

func (m *MockAnalysisRepository) FindByID(id uuid.UUID) (*models.Analysis, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Analysis), args.Error(1)
}

func (m *MockAnalysisRepository) FindActiveBySession(sessionID string) (*models.Analysis, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Analysis), args.Error(1)
}

func (m *MockAnalysisRepository) Claim(id uuid.UUID) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *MockAnalysisRepository) UpdateStage(id uuid.UUID, stage models.AnalysisStage) error {
	args := m.Called(id, stage)
	return args.Error(0)
}

func (m *MockAnalysisRepository) UpdateDocuments(id uuid.UUID, resumeDocID, jobDescriptionDocID *string) error {
	args := m.Called(id, resumeDocID, jobDescriptionDocID)
	return args.Error(0)
}

func (m *MockAnalysisRepository) UpdateResult(id uuid.UUID, result *repositories.AnalysisUpdateData) error {
	args := m.Called(id, result)
	return args.Error(0)
}

func (m *MockAnalysisRepository) UpdateError(id uuid.UUID, kind, errorMsg string) error {
	args := m.Called(id, kind, errorMsg)
	return args.Error(0)
}

func (m *MockAnalysisRepository) FindPendingJobs(limit int) ([]models.Analysis, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Analysis), args.Error(1)
}
