package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-matcher/internal/handlers"
	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
	"alfredoptarigan/resume-matcher/internal/services"
	"alfredoptarigan/resume-matcher/mocks"
)

const (
	testSession = "session-1"
	testJD      = "We are hiring a backend engineer with Go, PostgreSQL and Kubernetes experience."
)

type testServer struct {
	app      *fiber.App
	docs     *mocks.MockDocumentService
	repo     *mocks.MockAnalysisRepository
	storage  *mocks.MockStorageService
	worker   *mocks.MockWorker
	sessions *services.SessionTracker
}

func newTestServer(maxFileSize int64) *testServer {
	s := &testServer{
		app:      fiber.New(),
		docs:     new(mocks.MockDocumentService),
		repo:     new(mocks.MockAnalysisRepository),
		storage:  new(mocks.MockStorageService),
		worker:   new(mocks.MockWorker),
		sessions: services.NewSessionTracker(nil),
	}

	analyzer := services.NewAnalyzer(s.docs, s.sessions, "my-index")
	handlers.RegisterRoutes(
		s.app,
		handlers.NewAnalysisHandler(analyzer, s.repo, s.storage, s.worker, maxFileSize),
		handlers.NewResultHandler(s.repo),
		handlers.NewSessionHandler(s.sessions),
	)
	return s
}

type form struct {
	sessionID      string
	jobDescription string
	filename       string
	content        []byte
}

func multipartRequest(t *testing.T, path string, f form) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if f.sessionID != "" {
		require.NoError(t, writer.WriteField("session_id", f.sessionID))
	}
	require.NoError(t, writer.WriteField("job_description", f.jobDescription))
	if f.filename != "" {
		part, err := writer.CreateFormFile("resume", f.filename)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func validForm() form {
	return form{
		sessionID:      testSession,
		jobDescription: testJD,
		filename:       "cv.pdf",
		content:        []byte("%PDF-1.4 resume"),
	}
}

func decode(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), string(data))
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	decode(t, resp, &body)
	return body["error"]
}

func TestHandleAnalyze_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(f *form)
		maxFileSize int64
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "missing resume",
			mutate:      func(f *form) { f.filename = "" },
			wantStatus:  fiber.StatusBadRequest,
			wantMessage: "Please upload your resume.",
		},
		{
			name:        "short job description",
			mutate:      func(f *form) { f.jobDescription = "Go dev" },
			wantStatus:  fiber.StatusBadRequest,
			wantMessage: "Job description must be at least 30 characters long.",
		},
		{
			name:        "long job description",
			mutate:      func(f *form) { f.jobDescription = strings.Repeat("a", 2001) },
			wantStatus:  fiber.StatusBadRequest,
			wantMessage: "Job description cannot be longer than 2000 characters.",
		},
		{
			name:        "unsupported file type",
			mutate:      func(f *form) { f.filename = "cv.png" },
			wantStatus:  fiber.StatusBadRequest,
			wantMessage: "Only PDF and DOCX resumes are supported.",
		},
		{
			name:        "file too large",
			mutate:      func(f *form) { f.content = bytes.Repeat([]byte("x"), 64) },
			maxFileSize: 32,
			wantStatus:  fiber.StatusRequestEntityTooLarge,
			wantMessage: "Resume file too large. Max size: 32 bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(tt.maxFileSize)
			f := validForm()
			tt.mutate(&f)

			resp, err := s.app.Test(multipartRequest(t, "/api/v1/analyze", f), -1)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantMessage, errorMessage(t, resp))
			s.docs.AssertNotCalled(t, "IngestResume", mock.Anything, mock.Anything)
		})
	}
}

func TestHandleAnalyze_Success(t *testing.T) {
	s := newTestServer(1024)

	s.docs.On("IngestResume", mock.Anything, mock.MatchedBy(func(f services.DocumentFile) bool {
		return f.Name == "cv.pdf" && f.ContentType == services.ContentTypePDF
	})).Return(&services.ResumeDocument{ID: "r1"}, nil).Once()
	s.docs.On("IndexDocument", mock.Anything, "my-index", "r1").Return(nil).Once()
	s.docs.On("IngestJobDescription", mock.Anything, mock.Anything).Return(&services.JobDescriptionDocument{
		ID:     "j1",
		Skills: []services.Skill{{Name: "golang", Parsed: strPtr("Go")}},
	}, nil).Once()
	s.docs.On("ComputeMatch", mock.Anything, "r1", "j1").Return(&services.MatchResult{Score: 0.812549}, nil).Once()
	s.docs.On("SuggestSkills", mock.Anything, []string{"Go"}).Return([]string{"Docker"}, nil).Once()

	resp, err := s.app.Test(multipartRequest(t, "/api/v1/analyze", validForm()), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body models.AnalyzeResponse
	decode(t, resp, &body)
	assert.Equal(t, testSession, body.SessionID)
	require.NotNil(t, body.ScorePercent)
	assert.Equal(t, 81.25, *body.ScorePercent)
	assert.Equal(t, []string{"Docker"}, body.Suggestions)
	assert.False(t, s.sessions.IsAnalyzing(testSession))
	s.docs.AssertExpectations(t)
}

func TestHandleAnalyze_RemoteFailures(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "quota",
			err:         services.NewRemoteError("ingest resume", services.KindQuotaExceeded, 429, errors.New("no_parsing_credits")),
			wantStatus:  fiber.StatusTooManyRequests,
			wantMessage: services.QuotaExceededMessage,
		},
		{
			name:        "unclassified",
			err:         services.NewRemoteError("ingest resume", services.KindUnclassified, 500, errors.New("boom")),
			wantStatus:  fiber.StatusBadGateway,
			wantMessage: services.AnalysisFailedMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(1024)
			s.docs.On("IngestResume", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			resp, err := s.app.Test(multipartRequest(t, "/api/v1/analyze", validForm()), -1)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantMessage, errorMessage(t, resp))
			assert.False(t, s.sessions.IsAnalyzing(testSession))
		})
	}
}

func TestHandleAnalyze_SessionBusy(t *testing.T) {
	s := newTestServer(1024)
	require.True(t, s.sessions.TryAcquire(testSession))

	resp, err := s.app.Test(multipartRequest(t, "/api/v1/analyze", validForm()), -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	s.docs.AssertNotCalled(t, "IngestResume", mock.Anything, mock.Anything)
}

func TestHandleSubmit_Queued(t *testing.T) {
	s := newTestServer(1024)
	f := validForm()

	s.repo.On("FindActiveBySession", testSession).Return(nil, fmt.Errorf("session %s: %w", testSession, repositories.ErrNotFound)).Once()
	s.storage.On("Save", mock.Anything, "cv.pdf", f.content).Return("resume_x.pdf", nil).Once()
	s.repo.On("Create", mock.MatchedBy(func(a *models.Analysis) bool {
		return a.SessionID == testSession &&
			a.Status == models.StatusQueued &&
			a.ResumeKey == "resume_x.pdf" &&
			a.ResumeContentType == services.ContentTypePDF &&
			a.JobDescription == testJD
	})).Return(nil).Once()
	s.worker.On("EnqueueJob", mock.AnythingOfType("uuid.UUID")).Return().Once()

	resp, err := s.app.Test(multipartRequest(t, "/api/v1/analyses", f), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var body models.SubmitResponse
	decode(t, resp, &body)
	assert.Equal(t, "queued", body.Status)
	assert.Equal(t, testSession, body.SessionID)
	_, parseErr := uuid.Parse(body.ID)
	assert.NoError(t, parseErr)
	s.repo.AssertExpectations(t)
	s.worker.AssertExpectations(t)
}

func TestHandleSubmit_ActiveAnalysis(t *testing.T) {
	s := newTestServer(1024)
	s.repo.On("FindActiveBySession", testSession).Return(&models.Analysis{ID: uuid.New()}, nil).Once()

	resp, err := s.app.Test(multipartRequest(t, "/api/v1/analyses", validForm()), -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	s.storage.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleSubmit_InvalidInputIsNotStored(t *testing.T) {
	s := newTestServer(1024)
	f := validForm()
	f.jobDescription = "too short"

	resp, err := s.app.Test(multipartRequest(t, "/api/v1/analyses", f), -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	s.repo.AssertNotCalled(t, "FindActiveBySession", mock.Anything)
	s.storage.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleSubmit_CreateFailureRemovesStoredResume(t *testing.T) {
	s := newTestServer(1024)

	s.repo.On("FindActiveBySession", testSession).Return(nil, repositories.ErrNotFound).Once()
	s.storage.On("Save", mock.Anything, "cv.pdf", mock.Anything).Return("resume_x.pdf", nil).Once()
	s.repo.On("Create", mock.Anything).Return(errors.New("db down")).Once()
	s.storage.On("Delete", mock.Anything, "resume_x.pdf").Return(nil).Once()

	resp, err := s.app.Test(multipartRequest(t, "/api/v1/analyses", validForm()), -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	s.storage.AssertExpectations(t)
	s.worker.AssertNotCalled(t, "EnqueueJob", mock.Anything)
}

func TestHandleGetResult(t *testing.T) {
	score := 64.5
	kind := "quota_exceeded"
	message := services.QuotaExceededMessage
	completedID, failedID, missingID := uuid.New(), uuid.New(), uuid.New()

	s := newTestServer(1024)
	s.repo.On("FindByID", completedID).Return(&models.Analysis{
		ID:           completedID,
		Status:       models.StatusCompleted,
		Stage:        models.StageDone,
		ScorePercent: &score,
		Suggestions:  []string{"Docker"},
	}, nil)
	s.repo.On("FindByID", failedID).Return(&models.Analysis{
		ID:           failedID,
		Status:       models.StatusFailed,
		Stage:        models.StageFailed,
		ErrorKind:    &kind,
		ErrorMessage: &message,
	}, nil)
	s.repo.On("FindByID", missingID).Return(nil, fmt.Errorf("analysis %s: %w", missingID, repositories.ErrNotFound))

	t.Run("completed", func(t *testing.T) {
		resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+completedID.String(), nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body models.ResultResponse
		decode(t, resp, &body)
		assert.Equal(t, "completed", body.Status)
		require.NotNil(t, body.Result)
		assert.Equal(t, 64.5, *body.Result.ScorePercent)
		assert.Equal(t, []string{"Docker"}, body.Result.Suggestions)
		assert.Nil(t, body.ErrorKind)
	})

	t.Run("failed", func(t *testing.T) {
		resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+failedID.String(), nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body models.ResultResponse
		decode(t, resp, &body)
		assert.Equal(t, "failed", body.Status)
		assert.Nil(t, body.Result)
		require.NotNil(t, body.ErrorKind)
		assert.Equal(t, "quota_exceeded", *body.ErrorKind)
		assert.Equal(t, services.QuotaExceededMessage, *body.ErrorMessage)
	})

	t.Run("not found", func(t *testing.T) {
		resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+missingID.String(), nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/analyses/not-a-uuid", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestHandleGetSession(t *testing.T) {
	s := newTestServer(1024)
	require.True(t, s.sessions.TryAcquire(testSession))
	s.sessions.SetStage(testSession, models.StageMatching)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+testSession, nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body models.SessionResponse
	decode(t, resp, &body)
	assert.Equal(t, testSession, body.ID)
	assert.True(t, body.Analyzing)
	assert.Equal(t, "matching", body.Stage)
}

func TestHandleGetSession_Unknown(t *testing.T) {
	s := newTestServer(1024)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/nobody", nil), -1)
	require.NoError(t, err)

	var body models.SessionResponse
	decode(t, resp, &body)
	assert.False(t, body.Analyzing)
	assert.Nil(t, body.Result)
}

func TestHealth(t *testing.T) {
	s := newTestServer(1024)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), -1)
	require.NoError(t, err)

	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
}

func strPtr(s string) *string { return &s }

func TestHandleAnalyze_HeaderSessionsOutliveTheRequest(t *testing.T) {
	s := newTestServer(1024)
	s.docs.On("IngestResume", mock.Anything, mock.Anything).
		Return(nil, services.NewRemoteError("ingest resume", services.KindUnclassified, 500, errors.New("boom")))

	ids := []string{
		"alpha-00000000-0000-0000-0000-000000000001",
		"bravo-00000000-0000-0000-0000-000000000002",
		"charl-00000000-0000-0000-0000-000000000003",
	}

	for _, id := range ids {
		f := validForm()
		f.sessionID = ""
		req := multipartRequest(t, "/api/v1/analyze", f)
		req.Header.Set("X-Session-ID", id)

		resp, err := s.app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	}

	for _, id := range ids {
		session, found := s.sessions.Get(id)
		require.True(t, found, id)
		assert.Equal(t, id, session.ID)
		assert.False(t, session.Analyzing)
		assert.Equal(t, services.AnalysisFailedMessage, session.Message)

		resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id, nil), -1)
		require.NoError(t, err)

		var body models.SessionResponse
		decode(t, resp, &body)
		assert.Equal(t, id, body.ID)
		assert.Equal(t, services.AnalysisFailedMessage, body.Message)
	}
}
