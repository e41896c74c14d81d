package services_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"alfredoptarigan/resume-matcher/internal/services"
)

func TestRemoteError_Is(t *testing.T) {
	quota := services.NewRemoteError("ingest resume", services.KindQuotaExceeded, 429, errors.New("limit"))
	missing := services.NewRemoteError("index document", services.KindIndexNotFound, 404, errors.New("no index"))
	other := services.NewRemoteError("compute match", "", 500, errors.New("boom"))

	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", quota), services.ErrQuotaExceeded)
	assert.NotErrorIs(t, quota, services.ErrIndexNotFound)
	assert.ErrorIs(t, missing, services.ErrIndexNotFound)
	assert.NotErrorIs(t, missing, services.ErrQuotaExceeded)
	assert.Equal(t, services.KindUnclassified, other.Kind)
	assert.NotErrorIs(t, other, services.ErrQuotaExceeded)
	assert.Contains(t, other.Error(), "status 500")
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, services.KindQuotaExceeded, services.ClassifyError(
		fmt.Errorf("failed to ingest resume: %w", services.NewRemoteError("ingest resume", services.KindQuotaExceeded, 429, errors.New("x")))))
	assert.Equal(t, services.KindIndexNotFound, services.ClassifyError(
		services.NewRemoteError("index document", services.KindIndexNotFound, 404, errors.New("x"))))
	assert.Equal(t, services.KindUnclassified, services.ClassifyError(errors.New("plain")))
	assert.Equal(t, services.KindUnclassified, services.ClassifyError(services.ErrDescriptionTooShort))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{services.ErrMissingFile, "Please upload your resume."},
		{services.ErrDescriptionTooShort, "Job description must be at least 30 characters long."},
		{services.ErrDescriptionTooLong, "Job description cannot be longer than 2000 characters."},
		{fmt.Errorf("%w: image/png", services.ErrUnsupportedFileType), "Only PDF and DOCX resumes are supported."},
		{services.NewRemoteError("suggest skills", services.KindQuotaExceeded, 429, errors.New("x")), services.QuotaExceededMessage},
		{services.NewRemoteError("index document", services.KindIndexNotFound, 404, errors.New("x")), services.AnalysisFailedMessage},
		{errors.New("anything else"), services.AnalysisFailedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, services.UserMessage(tt.err))
		})
	}
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, services.IsValidationError(services.ErrMissingFile))
	assert.True(t, services.IsValidationError(fmt.Errorf("%w: x", services.ErrUnsupportedFileType)))
	assert.False(t, services.IsValidationError(services.ErrAnalysisInProgress))
	assert.False(t, services.IsValidationError(services.NewRemoteError("op", services.KindQuotaExceeded, 429, errors.New("x"))))
}
