package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/resume-matcher/internal/models"
)

type AnalysisRepository interface {
	Create(analysis *models.Analysis) error
	FindByID(id uuid.UUID) (*models.Analysis, error)
	FindActiveBySession(sessionID string) (*models.Analysis, error)
	Claim(id uuid.UUID) (bool, error)
	UpdateStage(id uuid.UUID, stage models.AnalysisStage) error
	UpdateDocuments(id uuid.UUID, resumeDocID, jobDescriptionDocID *string) error
	UpdateResult(id uuid.UUID, result *AnalysisUpdateData) error
	UpdateError(id uuid.UUID, kind, errorMsg string) error
	FindPendingJobs(limit int) ([]models.Analysis, error)
}

type AnalysisUpdateData struct {
	ScorePercent *float64
	Suggestions  []string
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Create(analysis *models.Analysis) error {
	if err := r.db.Create(analysis).Error; err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

func (r *analysisRepository) FindByID(id uuid.UUID) (*models.Analysis, error) {
	var analysis models.Analysis
	if err := r.db.Where("id = ?", id).First(&analysis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}
	return &analysis, nil
}

// FindActiveBySession returns the queued or processing analysis of a session.
func (r *analysisRepository) FindActiveBySession(sessionID string) (*models.Analysis, error) {
	var analysis models.Analysis
	err := r.db.
		Where("session_id = ? AND status IN ?", sessionID, []models.AnalysisStatus{models.StatusQueued, models.StatusProcessing}).
		Order("created_at ASC").
		First(&analysis).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("active analysis for session %s: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find active analysis: %w", err)
	}
	return &analysis, nil
}

// Claim moves a queued analysis to processing. It reports false when another
// worker already picked it up.
func (r *analysisRepository) Claim(id uuid.UUID) (bool, error) {
	result := r.db.Model(&models.Analysis{}).
		Where("id = ? AND status = ?", id, models.StatusQueued).
		Updates(map[string]interface{}{
			"status":     models.StatusProcessing,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to claim analysis: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *analysisRepository) UpdateStage(id uuid.UUID, stage models.AnalysisStage) error {
	return r.update(id, map[string]interface{}{
		"stage":      stage,
		"updated_at": time.Now(),
	})
}

func (r *analysisRepository) UpdateDocuments(id uuid.UUID, resumeDocID, jobDescriptionDocID *string) error {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if resumeDocID != nil {
		updates["resume_document_id"] = *resumeDocID
	}
	if jobDescriptionDocID != nil {
		updates["job_description_document_id"] = *jobDescriptionDocID
	}
	return r.update(id, updates)
}

func (r *analysisRepository) UpdateResult(id uuid.UUID, data *AnalysisUpdateData) error {
	updates := map[string]interface{}{
		"status":     models.StatusCompleted,
		"stage":      models.StageDone,
		"updated_at": time.Now(),
	}

	if data.ScorePercent != nil {
		updates["score_percent"] = *data.ScorePercent
	}
	if data.Suggestions != nil {
		updates["suggestions"] = gorm.Expr("?::jsonb", jsonText(data.Suggestions))
	}

	return r.update(id, updates)
}

func (r *analysisRepository) UpdateError(id uuid.UUID, kind, errorMsg string) error {
	return r.update(id, map[string]interface{}{
		"status":        models.StatusFailed,
		"stage":         models.StageFailed,
		"error_kind":    kind,
		"error_message": errorMsg,
		"updated_at":    time.Now(),
	})
}

func (r *analysisRepository) FindPendingJobs(limit int) ([]models.Analysis, error) {
	var analyses []models.Analysis
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&analyses).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return analyses, nil
}

func (r *analysisRepository) update(id uuid.UUID, updates map[string]interface{}) error {
	result := r.db.Model(&models.Analysis{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update analysis: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}

	return nil
}

func jsonText(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
