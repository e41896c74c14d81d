package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
	"alfredoptarigan/resume-matcher/internal/services"
	"alfredoptarigan/resume-matcher/mocks"
)

type localFixture struct {
	repo   *mocks.MockDocumentRepository
	gemini *mocks.MockGeminiService
	qdrant *mocks.MockQdrantService
	svc    services.DocumentService
}

func newLocalFixture() *localFixture {
	f := &localFixture{
		repo:   new(mocks.MockDocumentRepository),
		gemini: new(mocks.MockGeminiService),
		qdrant: new(mocks.MockQdrantService),
	}
	f.svc = services.NewLocalDocumentService(f.repo, f.gemini, f.qdrant, 2)
	return f
}

func TestLocal_IngestJobDescription(t *testing.T) {
	f := newLocalFixture()
	ctx := context.Background()

	f.gemini.On("GenerateEmbedding", ctx, mock.Anything).Return([]float32{0.1, 0.2, 0.3}, nil)
	f.gemini.On("GenerateTextWithRetry", ctx, mock.Anything, float32(0.1), 2).
		Return("```json\n{\"skills\":[{\"name\":\"golang\",\"parsed\":\"Go\"},{\"name\":\"grit\",\"parsed\":null}]}\n```", nil).Once()
	f.repo.On("Create", mock.MatchedBy(func(d *models.ParsedDocument) bool {
		return d.Kind == models.DocumentKindJobDescription &&
			d.ContentType == services.ContentTypePlainText &&
			d.ID != uuid.Nil &&
			len(d.Embedding) == 3
	})).Return(nil).Once()

	doc, err := f.svc.IngestJobDescription(ctx, services.DocumentFile{
		Name:        "job_description.txt",
		ContentType: services.ContentTypePlainText,
		Data:        []byte("Backend engineer. Go and PostgreSQL required."),
	})

	require.NoError(t, err)
	_, parseErr := uuid.Parse(doc.ID)
	assert.NoError(t, parseErr)
	require.Len(t, doc.Skills, 2)
	assert.Equal(t, "Go", *doc.Skills[0].Parsed)
	assert.Nil(t, doc.Skills[1].Parsed)
	f.repo.AssertExpectations(t)
}

func TestLocal_IngestResume_GeminiQuotaIsQuotaExceeded(t *testing.T) {
	f := newLocalFixture()
	ctx := context.Background()

	quotaErr := fmt.Errorf("failed to generate embedding: %w", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"})
	f.gemini.On("GenerateEmbedding", ctx, mock.Anything).Return(nil, quotaErr).Once()

	_, err := f.svc.IngestResume(ctx, services.DocumentFile{
		Name:        "cv.txt",
		ContentType: services.ContentTypePlainText,
		Data:        []byte("Go developer"),
	})

	assert.ErrorIs(t, err, services.ErrQuotaExceeded)
	f.repo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestLocal_IngestResume_UnsupportedFile(t *testing.T) {
	f := newLocalFixture()

	_, err := f.svc.IngestResume(context.Background(), services.DocumentFile{
		Name:        "cv.png",
		ContentType: "image/png",
		Data:        []byte{1, 2, 3},
	})

	assert.ErrorIs(t, err, services.ErrUnsupportedFileType)
	f.gemini.AssertNotCalled(t, "GenerateEmbedding", mock.Anything, mock.Anything)
}

func TestLocal_IndexDocument_MissingCollection(t *testing.T) {
	f := newLocalFixture()
	ctx := context.Background()

	f.qdrant.On("CollectionExists", ctx, "my-index").Return(false, nil).Once()

	err := f.svc.IndexDocument(ctx, "my-index", uuid.NewString())

	assert.ErrorIs(t, err, services.ErrIndexNotFound)
	f.qdrant.AssertNotCalled(t, "UpsertDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLocal_IndexDocument_Upserts(t *testing.T) {
	f := newLocalFixture()
	ctx := context.Background()
	id := uuid.New()
	doc := &models.ParsedDocument{
		ID:        id,
		Kind:      models.DocumentKindResume,
		Filename:  "cv.pdf",
		Embedding: []float32{1, 0},
	}

	f.qdrant.On("CollectionExists", ctx, "my-index").Return(true, nil).Once()
	f.repo.On("FindByID", id).Return(doc, nil).Once()
	f.qdrant.On("UpsertDocument", ctx, "my-index", id.String(),
		map[string]interface{}{"kind": "resume", "file_name": "cv.pdf"}, []float32{1, 0}).Return(nil).Once()

	require.NoError(t, f.svc.IndexDocument(ctx, "my-index", id.String()))
	f.qdrant.AssertExpectations(t)
}

func TestLocal_IndexDocument_UnknownDocument(t *testing.T) {
	f := newLocalFixture()
	ctx := context.Background()
	id := uuid.New()

	f.qdrant.On("CollectionExists", ctx, "my-index").Return(true, nil).Once()
	f.repo.On("FindByID", id).Return(nil, fmt.Errorf("document %s: %w", id, repositories.ErrNotFound)).Once()

	err := f.svc.IndexDocument(ctx, "my-index", id.String())

	require.Error(t, err)
	assert.Equal(t, services.KindUnclassified, services.ClassifyError(err))
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestLocal_CreateIndex(t *testing.T) {
	f := newLocalFixture()
	ctx := context.Background()

	f.qdrant.On("CreateCollection", ctx, "my-index").Return(nil).Once()
	require.NoError(t, f.svc.CreateIndex(ctx, "my-index"))

	f.qdrant.On("CreateCollection", ctx, "broken").Return(errors.New("unavailable")).Once()
	assert.Error(t, f.svc.CreateIndex(ctx, "broken"))
}

func TestLocal_ComputeMatch(t *testing.T) {
	f := newLocalFixture()
	resumeID, jdID := uuid.New(), uuid.New()

	f.repo.On("FindByID", resumeID).Return(&models.ParsedDocument{
		ID:        resumeID,
		Text:      "Go developer who also writes SQL",
		Embedding: []float32{1, 0},
	}, nil).Once()
	f.repo.On("FindByID", jdID).Return(&models.ParsedDocument{
		ID:        jdID,
		Embedding: []float32{1, 0},
		Skills: []models.DocumentSkill{
			{Name: "golang", Parsed: strPtr("Go")},
			{Name: "sql"},
			{Name: "rust"},
			{Name: "kafka"},
		},
	}, nil).Once()

	match, err := f.svc.ComputeMatch(context.Background(), resumeID.String(), jdID.String())

	require.NoError(t, err)
	// similarity 1, two of four skills covered
	assert.InDelta(t, 0.7+0.3*0.5, match.Score, 1e-9)
}

func TestLocal_ComputeMatch_InvalidID(t *testing.T) {
	f := newLocalFixture()

	_, err := f.svc.ComputeMatch(context.Background(), "not-a-uuid", uuid.NewString())

	assert.Error(t, err)
}

func TestMatchScore(t *testing.T) {
	tests := []struct {
		name   string
		resume *models.ParsedDocument
		jd     *models.ParsedDocument
		want   float64
	}{
		{
			name:   "identical vectors, no job skills",
			resume: &models.ParsedDocument{Embedding: []float32{0.5, 0.5}},
			jd:     &models.ParsedDocument{Embedding: []float32{0.5, 0.5}},
			want:   0.7,
		},
		{
			name:   "opposite vectors clamp to zero",
			resume: &models.ParsedDocument{Embedding: []float32{1, 0}},
			jd:     &models.ParsedDocument{Embedding: []float32{-1, 0}},
			want:   0,
		},
		{
			name:   "missing embedding, full coverage",
			resume: &models.ParsedDocument{Skills: []models.DocumentSkill{{Name: "Go"}}},
			jd:     &models.ParsedDocument{Skills: []models.DocumentSkill{{Name: "go"}}},
			want:   0.3,
		},
		{
			name:   "perfect match",
			resume: &models.ParsedDocument{Embedding: []float32{1, 2}, Skills: []models.DocumentSkill{{Name: "Go"}}},
			jd:     &models.ParsedDocument{Embedding: []float32{2, 4}, Skills: []models.DocumentSkill{{Name: "golang", Parsed: strPtr("go")}}},
			want:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, services.MatchScore(tt.resume, tt.jd), 1e-6)
		})
	}
}

func TestLocal_SuggestSkills(t *testing.T) {
	f := newLocalFixture()
	ctx := context.Background()

	f.gemini.On("GenerateTextWithRetry", ctx, mock.Anything, float32(0.4), 2).
		Return(`{"suggestions":["Docker","go","Docker","  gRPC "]}`, nil).Once()

	got, err := f.svc.SuggestSkills(ctx, []string{"Go"})

	require.NoError(t, err)
	assert.Equal(t, []string{"Docker", "gRPC"}, got)
}

func TestLocal_SuggestSkills_EmptyInput(t *testing.T) {
	f := newLocalFixture()

	got, err := f.svc.SuggestSkills(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, got)
	f.gemini.AssertNotCalled(t, "GenerateTextWithRetry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
