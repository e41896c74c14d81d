package models

import (
	"time"

	"github.com/google/uuid"
)

type AnalysisStatus string

const (
	StatusQueued     AnalysisStatus = "queued"
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusFailed     AnalysisStatus = "failed"
)

// AnalysisStage is a state of the analysis workflow.
type AnalysisStage string

const (
	StageIdle                    AnalysisStage = "idle"
	StageValidating              AnalysisStage = "validating"
	StageUploadingResume         AnalysisStage = "uploading_resume"
	StageIndexing                AnalysisStage = "indexing"
	StageIndexingRetry           AnalysisStage = "indexing_retry"
	StageUploadingJobDescription AnalysisStage = "uploading_job_description"
	StageMatching                AnalysisStage = "matching"
	StageSuggesting              AnalysisStage = "suggesting"
	StageDone                    AnalysisStage = "done"
	StageFailed                  AnalysisStage = "failed"
)

type Analysis struct {
	ID                       uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SessionID                string         `gorm:"type:text;index" json:"session_id"`
	Status                   AnalysisStatus `gorm:"not null;default:'queued'" json:"status"`
	Stage                    AnalysisStage  `gorm:"type:text;not null;default:'idle'" json:"stage"`
	ResumeKey                string         `gorm:"type:text" json:"-"`
	ResumeFilename           string         `gorm:"type:text" json:"resume_filename"`
	ResumeContentType        string         `gorm:"type:text" json:"resume_content_type"`
	JobDescription           string         `gorm:"type:text" json:"job_description"`
	ResumeDocumentID         *string        `gorm:"type:text" json:"resume_document_id,omitempty"`
	JobDescriptionDocumentID *string        `gorm:"type:text" json:"job_description_document_id,omitempty"`
	ScorePercent             *float64       `gorm:"type:decimal(5,2)" json:"score_percent,omitempty"`
	Suggestions              []string       `gorm:"type:jsonb;serializer:json" json:"suggestions,omitempty"`
	ErrorKind                *string        `gorm:"type:text" json:"error_kind,omitempty"`
	ErrorMessage             *string        `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt                time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt                time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Analysis) TableName() string {
	return "analyses"
}
