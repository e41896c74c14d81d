package services

import (
	"context"
)

const (
	ContentTypePDF       = "application/pdf"
	ContentTypeDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypePlainText = "text/plain"
)

// DocumentFile is a document handed to the Document Service for ingestion.
type DocumentFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Skill is a skill extracted by the Document Service. Parsed is nil when the
// service could not normalize the raw mention.
type Skill struct {
	Name   string
	Parsed *string
}

type ResumeDocument struct {
	ID     string
	Skills []Skill
}

type JobDescriptionDocument struct {
	ID     string
	Skills []Skill
}

type MatchResult struct {
	Score float64
}

// DocumentService parses, indexes and matches documents. Failed calls return
// a *RemoteError.
type DocumentService interface {
	IngestResume(ctx context.Context, file DocumentFile) (*ResumeDocument, error)
	CreateIndex(ctx context.Context, name string) error
	IndexDocument(ctx context.Context, indexName, documentID string) error
	IngestJobDescription(ctx context.Context, file DocumentFile) (*JobDescriptionDocument, error)
	ComputeMatch(ctx context.Context, resumeID, jobDescriptionID string) (*MatchResult, error)
	SuggestSkills(ctx context.Context, skills []string) ([]string, error)
}

// ParsedSkills returns the parsed value of every skill that has one, in order.
func ParsedSkills(skills []Skill) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if s.Parsed == nil {
			continue
		}
		out = append(out, *s.Parsed)
	}
	return out
}
