package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
)

// AnalysisRunner executes a queued analysis record.
type AnalysisRunner interface {
	RunAnalysis(ctx context.Context, analysisID uuid.UUID) error
}

type analysisRunner struct {
	analysisRepo repositories.AnalysisRepository
	storage      StorageService
	analyzer     Analyzer
}

func NewAnalysisRunner(
	analysisRepo repositories.AnalysisRepository,
	storage StorageService,
	analyzer Analyzer,
) AnalysisRunner {
	return &analysisRunner{
		analysisRepo: analysisRepo,
		storage:      storage,
		analyzer:     analyzer,
	}
}

// RunAnalysis implements AnalysisRunner. Records that are no longer queued
// are skipped; every claimed record ends completed or failed.
func (r *analysisRunner) RunAnalysis(ctx context.Context, analysisID uuid.UUID) error {
	claimed, err := r.analysisRepo.Claim(analysisID)
	if err != nil {
		return fmt.Errorf("failed to claim analysis: %w", err)
	}
	if !claimed {
		log.Printf("⏭️  Analysis %s already claimed, skipping\n", analysisID)
		return nil
	}

	log.Printf("🔄 Starting analysis for job ID: %s\n", analysisID)

	analysis, err := r.analysisRepo.FindByID(analysisID)
	if err != nil {
		r.fail(analysisID, err)
		return fmt.Errorf("failed to get analysis: %w", err)
	}

	// The upload is only needed for this run, whatever its outcome.
	defer func() {
		if err := r.storage.Delete(ctx, analysis.ResumeKey); err != nil {
			log.Printf("⚠️  Failed to delete stored resume %s: %v\n", analysis.ResumeKey, err)
		}
	}()

	data, err := r.storage.Read(ctx, analysis.ResumeKey)
	if err != nil {
		r.fail(analysisID, err)
		return fmt.Errorf("failed to read resume: %w", err)
	}

	req := AnalysisRequest{
		SessionID: analysis.SessionID,
		Resume: &DocumentFile{
			Name:        analysis.ResumeFilename,
			ContentType: analysis.ResumeContentType,
			Data:        data,
		},
		JobDescription: analysis.JobDescription,
	}

	observe := func(stage models.AnalysisStage) {
		if err := r.analysisRepo.UpdateStage(analysisID, stage); err != nil {
			log.Printf("⚠️  Failed to record stage %s for %s: %v\n", stage, analysisID, err)
		}
	}

	outcome, err := r.analyzer.Analyze(ctx, req, observe)
	if err != nil {
		r.fail(analysisID, err)
		return fmt.Errorf("analysis failed: %w", err)
	}

	log.Println("💾 Saving analysis results...")
	if err := r.analysisRepo.UpdateDocuments(analysisID, &outcome.ResumeDocumentID, &outcome.JobDescriptionDocumentID); err != nil {
		log.Printf("⚠️  Failed to save document ids for %s: %v\n", analysisID, err)
	}

	updateData := &repositories.AnalysisUpdateData{
		ScorePercent: outcome.ScorePercent,
		Suggestions:  outcome.Suggestions,
	}
	if err := r.analysisRepo.UpdateResult(analysisID, updateData); err != nil {
		r.fail(analysisID, err)
		return fmt.Errorf("failed to save results: %w", err)
	}

	log.Printf("✅ Analysis completed successfully for job ID: %s\n", analysisID)
	return nil
}

func (r *analysisRunner) fail(analysisID uuid.UUID, cause error) {
	if err := r.analysisRepo.UpdateError(analysisID, string(ClassifyError(cause)), UserMessage(cause)); err != nil {
		log.Printf("⚠️  Failed to record error for %s: %v\n", analysisID, err)
	}
}
