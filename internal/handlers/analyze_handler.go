package handlers

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
	"alfredoptarigan/resume-matcher/internal/services"
)

var errFileTooLarge = errors.New("resume file too large")

type AnalysisHandler struct {
	analyzer     services.Analyzer
	analysisRepo repositories.AnalysisRepository
	storage      services.StorageService
	worker       services.Worker
	maxFileSize  int64
}

func NewAnalysisHandler(
	analyzer services.Analyzer,
	analysisRepo repositories.AnalysisRepository,
	storage services.StorageService,
	worker services.Worker,
	maxFileSize int64,
) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer:     analyzer,
		analysisRepo: analysisRepo,
		storage:      storage,
		worker:       worker,
		maxFileSize:  maxFileSize,
	}
}

// HandleAnalyze handles POST /analyze and runs the analysis in the request.
func (h *AnalysisHandler) HandleAnalyze(c *fiber.Ctx) error {
	req, err := h.readRequest(c)
	if err != nil {
		return h.respondError(c, err)
	}

	outcome, err := h.analyzer.Analyze(c.UserContext(), req, nil)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(models.AnalyzeResponse{
		SessionID:    req.SessionID,
		ScorePercent: models.RoundPercent(outcome.ScorePercent),
		Suggestions:  outcome.Suggestions,
	})
}

// HandleSubmit handles POST /analyses and queues the analysis for the worker.
func (h *AnalysisHandler) HandleSubmit(c *fiber.Ctx) error {
	req, err := h.readRequest(c)
	if err != nil {
		return h.respondError(c, err)
	}

	if err := h.analyzer.Validate(req); err != nil {
		return h.respondError(c, err)
	}

	if _, err := h.analysisRepo.FindActiveBySession(req.SessionID); err == nil {
		return h.respondError(c, services.ErrAnalysisInProgress)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check running analyses",
		})
	}

	key, err := h.storage.Save(c.UserContext(), req.Resume.Name, req.Resume.Data)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store resume",
		})
	}

	analysis := &models.Analysis{
		ID:                uuid.New(),
		SessionID:         req.SessionID,
		Status:            models.StatusQueued,
		Stage:             models.StageIdle,
		ResumeKey:         key,
		ResumeFilename:    req.Resume.Name,
		ResumeContentType: req.Resume.ContentType,
		JobDescription:    req.JobDescription,
	}

	if err := h.analysisRepo.Create(analysis); err != nil {
		// Cleanup stored resume if database insert fails
		_ = h.storage.Delete(c.UserContext(), key)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create analysis job",
		})
	}

	h.worker.EnqueueJob(analysis.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.SubmitResponse{
		ID:        analysis.ID.String(),
		SessionID: analysis.SessionID,
		Status:    string(models.StatusQueued),
	})
}

// readRequest collects the form fields. A missing resume is left for
// validation to report.
func (h *AnalysisHandler) readRequest(c *fiber.Ctx) (services.AnalysisRequest, error) {
	req := services.AnalysisRequest{
		SessionID:      sessionID(c),
		JobDescription: utils.CopyString(c.FormValue("job_description")),
	}

	fileHeader, err := c.FormFile("resume")
	if err != nil {
		return req, nil
	}

	if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
		return req, errFileTooLarge
	}

	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".pdf", ".docx":
	default:
		return req, services.ErrUnsupportedFileType
	}

	src, err := fileHeader.Open()
	if err != nil {
		return req, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return req, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	req.Resume = &services.DocumentFile{
		Name:        fileHeader.Filename,
		ContentType: services.DetectContentType(fileHeader.Filename, fileHeader.Header.Get("Content-Type")),
		Data:        data,
	}
	return req, nil
}

func (h *AnalysisHandler) respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errFileTooLarge):
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("Resume file too large. Max size: %d bytes", h.maxFileSize),
		})
	case services.IsValidationError(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": services.UserMessage(err),
		})
	case errors.Is(err, services.ErrAnalysisInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": services.UserMessage(err),
		})
	case errors.Is(err, services.ErrQuotaExceeded):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": services.QuotaExceededMessage,
		})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": services.AnalysisFailedMessage,
		})
	}
}

// sessionID reads the caller's session from the form or the X-Session-ID
// header, generating one when neither is set. Fiber values point into the
// request buffer, so the id is copied before it outlives the request.
func sessionID(c *fiber.Ctx) string {
	if id := strings.TrimSpace(c.FormValue("session_id")); id != "" {
		return utils.CopyString(id)
	}
	if id := strings.TrimSpace(c.Get("X-Session-ID")); id != "" {
		return utils.CopyString(id)
	}
	return uuid.New().String()
}
