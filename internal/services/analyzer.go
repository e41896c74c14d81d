package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"unicode/utf8"

	"alfredoptarigan/resume-matcher/internal/models"
)

const (
	MinJobDescriptionLength = 30
	MaxJobDescriptionLength = 2000
)

const jobDescriptionFilename = "job_description.txt"

// AnalysisRequest is one submission of the analysis form.
type AnalysisRequest struct {
	SessionID      string
	Resume         *DocumentFile
	JobDescription string
}

// AnalysisOutcome is the result shown to the user. Suggestions is nil when the
// job description yielded no skills.
type AnalysisOutcome struct {
	ScorePercent             *float64
	Suggestions              []string
	ResumeDocumentID         string
	JobDescriptionDocumentID string
}

// StageObserver is notified of every workflow transition of a single run.
type StageObserver func(stage models.AnalysisStage)

type Analyzer interface {
	Validate(req AnalysisRequest) error
	Analyze(ctx context.Context, req AnalysisRequest, observe StageObserver) (*AnalysisOutcome, error)
}

type analyzer struct {
	documents DocumentService
	sessions  *SessionTracker
	indexName string
}

func NewAnalyzer(documents DocumentService, sessions *SessionTracker, indexName string) Analyzer {
	if sessions == nil {
		sessions = NewSessionTracker(nil)
	}
	return &analyzer{
		documents: documents,
		sessions:  sessions,
		indexName: indexName,
	}
}

// Validate checks the request without contacting the document service.
func (a *analyzer) Validate(req AnalysisRequest) error {
	if req.Resume == nil || len(req.Resume.Data) == 0 {
		return ErrMissingFile
	}

	length := utf8.RuneCountInString(req.JobDescription)
	if length < MinJobDescriptionLength {
		return ErrDescriptionTooShort
	}
	if length > MaxJobDescriptionLength {
		return ErrDescriptionTooLong
	}

	return nil
}

// Analyze runs the full workflow for one request. The session's in-progress
// flag is held for the whole run and released on every return path.
func (a *analyzer) Analyze(ctx context.Context, req AnalysisRequest, observe StageObserver) (*AnalysisOutcome, error) {
	if observe != nil {
		observe(models.StageValidating)
	}
	if err := a.Validate(req); err != nil {
		if observe != nil {
			observe(models.StageFailed)
		}
		return nil, err
	}

	if !a.sessions.TryAcquire(req.SessionID) {
		return nil, ErrAnalysisInProgress
	}
	defer a.sessions.Release(req.SessionID)

	step := func(stage models.AnalysisStage) {
		a.sessions.SetStage(req.SessionID, stage)
		if observe != nil {
			observe(stage)
		}
	}

	outcome, err := a.run(ctx, req, step)
	if err != nil {
		step(models.StageFailed)
		a.sessions.Fail(req.SessionID, UserMessage(err))
		log.Printf("❌ Analysis failed for session %s (%s): %v\n", req.SessionID, ClassifyError(err), err)
		return nil, err
	}

	step(models.StageDone)
	a.sessions.Complete(req.SessionID, outcome)
	log.Printf("✅ Analysis completed for session %s: score %.2f\n", req.SessionID, *outcome.ScorePercent)
	return outcome, nil
}

func (a *analyzer) run(ctx context.Context, req AnalysisRequest, step StageObserver) (*AnalysisOutcome, error) {
	step(models.StageUploadingResume)
	resume, err := a.documents.IngestResume(ctx, *req.Resume)
	if err != nil {
		return nil, fmt.Errorf("failed to ingest resume: %w", err)
	}

	if err := a.indexResume(ctx, resume.ID, step); err != nil {
		return nil, err
	}

	step(models.StageUploadingJobDescription)
	jobDescription, err := a.documents.IngestJobDescription(ctx, DocumentFile{
		Name:        jobDescriptionFilename,
		ContentType: ContentTypePlainText,
		Data:        []byte(req.JobDescription),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ingest job description: %w", err)
	}

	step(models.StageMatching)
	match, err := a.documents.ComputeMatch(ctx, resume.ID, jobDescription.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute match: %w", err)
	}

	score := ScorePercent(match)
	outcome := &AnalysisOutcome{
		ScorePercent:             &score,
		ResumeDocumentID:         resume.ID,
		JobDescriptionDocumentID: jobDescription.ID,
	}

	if len(jobDescription.Skills) > 0 {
		step(models.StageSuggesting)
		suggestions, err := a.documents.SuggestSkills(ctx, ParsedSkills(jobDescription.Skills))
		if err != nil {
			return nil, fmt.Errorf("failed to suggest skills: %w", err)
		}
		if suggestions == nil {
			suggestions = []string{}
		}
		outcome.Suggestions = suggestions
	}

	return outcome, nil
}

// indexResume adds the resume to the index. A missing index is created and
// indexing is retried exactly once; every other failure is returned as is.
func (a *analyzer) indexResume(ctx context.Context, resumeID string, step StageObserver) error {
	step(models.StageIndexing)
	err := a.documents.IndexDocument(ctx, a.indexName, resumeID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrIndexNotFound) {
		return fmt.Errorf("failed to index resume: %w", err)
	}

	log.Printf("⚠️  Index '%s' not found, creating it\n", a.indexName)
	step(models.StageIndexingRetry)
	if err := a.documents.CreateIndex(ctx, a.indexName); err != nil {
		return fmt.Errorf("failed to create index %s: %w", a.indexName, err)
	}
	if err := a.documents.IndexDocument(ctx, a.indexName, resumeID); err != nil {
		return fmt.Errorf("failed to index resume after creating index: %w", err)
	}

	return nil
}

// ScorePercent converts a match score in [0, 1] to a percentage. A nil result
// counts as zero.
func ScorePercent(match *MatchResult) float64 {
	if match == nil {
		return 0
	}
	return match.Score * 100
}
