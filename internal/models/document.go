package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DocumentKindResume         = "resume"
	DocumentKindJobDescription = "job_description"
)

// DocumentSkill is a skill mention; Parsed is nil when it could not be normalized.
type DocumentSkill struct {
	Name   string  `json:"name"`
	Parsed *string `json:"parsed"`
}

// ParsedDocument is a document ingested by the self-hosted document provider.
type ParsedDocument struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Kind        string          `gorm:"type:text;not null" json:"kind"`
	Filename    string          `gorm:"type:text" json:"filename"`
	ContentType string          `gorm:"type:text" json:"content_type"`
	Text        string          `gorm:"type:text" json:"-"`
	Skills      []DocumentSkill `gorm:"type:jsonb;serializer:json" json:"skills"`
	Embedding   []float32       `gorm:"type:jsonb;serializer:json" json:"-"`
	CreatedAt   time.Time       `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (d *ParsedDocument) TableName() string {
	return "parsed_documents"
}
