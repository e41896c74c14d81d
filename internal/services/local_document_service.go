package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"alfredoptarigan/resume-matcher/internal/models"
	"alfredoptarigan/resume-matcher/internal/repositories"
)

const (
	embeddingChunkSize    = 2000
	embeddingChunkOverlap = 200
	maxEmbeddingChunks    = 8

	similarityWeight = 0.7
	coverageWeight   = 0.3
)

type localDocumentService struct {
	docRepo    repositories.DocumentRepository
	gemini     GeminiService
	qdrant     QdrantService
	extractor  TextExtractor
	chunker    TextChunker
	prompts    *PromptBuilder
	maxRetries int
}

// NewLocalDocumentService creates a self-hosted DocumentService: documents are
// parsed and embedded with Gemini, stored in Postgres and indexed in Qdrant.
func NewLocalDocumentService(
	docRepo repositories.DocumentRepository,
	gemini GeminiService,
	qdrant QdrantService,
	maxRetries int,
) DocumentService {
	return &localDocumentService{
		docRepo:    docRepo,
		gemini:     gemini,
		qdrant:     qdrant,
		extractor:  NewTextExtractor(),
		chunker:    NewTextChunker(),
		prompts:    NewPromptBuilder(),
		maxRetries: maxRetries,
	}
}

type extractedSkills struct {
	Skills []struct {
		Name   string  `json:"name"`
		Parsed *string `json:"parsed"`
	} `json:"skills"`
}

// IngestResume implements DocumentService.
func (l *localDocumentService) IngestResume(ctx context.Context, file DocumentFile) (*ResumeDocument, error) {
	doc, err := l.ingest(ctx, "ingest resume", models.DocumentKindResume, file)
	if err != nil {
		return nil, err
	}
	return &ResumeDocument{ID: doc.ID.String(), Skills: toSkills(doc.Skills)}, nil
}

// IngestJobDescription implements DocumentService.
func (l *localDocumentService) IngestJobDescription(ctx context.Context, file DocumentFile) (*JobDescriptionDocument, error) {
	doc, err := l.ingest(ctx, "ingest job description", models.DocumentKindJobDescription, file)
	if err != nil {
		return nil, err
	}
	return &JobDescriptionDocument{ID: doc.ID.String(), Skills: toSkills(doc.Skills)}, nil
}

// CreateIndex implements DocumentService.
func (l *localDocumentService) CreateIndex(ctx context.Context, name string) error {
	if err := l.qdrant.CreateCollection(ctx, name); err != nil {
		return NewRemoteError("create index", KindUnclassified, 0, err)
	}
	return nil
}

// IndexDocument implements DocumentService. It fails with index_not_found when
// the collection has not been created yet.
func (l *localDocumentService) IndexDocument(ctx context.Context, indexName, documentID string) error {
	const op = "index document"

	exists, err := l.qdrant.CollectionExists(ctx, indexName)
	if err != nil {
		return NewRemoteError(op, KindUnclassified, 0, err)
	}
	if !exists {
		return NewRemoteError(op, KindIndexNotFound, http.StatusNotFound, fmt.Errorf("index %s does not exist", indexName))
	}

	doc, err := l.findDocument(op, documentID)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"kind":      doc.Kind,
		"file_name": doc.Filename,
	}
	if err := l.qdrant.UpsertDocument(ctx, indexName, doc.ID.String(), payload, doc.Embedding); err != nil {
		return NewRemoteError(op, KindUnclassified, 0, err)
	}

	log.Printf("📌 Document %s indexed into '%s'\n", doc.ID, indexName)
	return nil
}

// ComputeMatch implements DocumentService.
func (l *localDocumentService) ComputeMatch(ctx context.Context, resumeID, jobDescriptionID string) (*MatchResult, error) {
	const op = "compute match"

	resume, err := l.findDocument(op, resumeID)
	if err != nil {
		return nil, err
	}
	jobDescription, err := l.findDocument(op, jobDescriptionID)
	if err != nil {
		return nil, err
	}

	return &MatchResult{Score: MatchScore(resume, jobDescription)}, nil
}

// SuggestSkills implements DocumentService.
func (l *localDocumentService) SuggestSkills(ctx context.Context, skills []string) ([]string, error) {
	const op = "suggest skills"

	if len(skills) == 0 {
		return []string{}, nil
	}

	prompt := l.prompts.BuildSkillSuggestionPrompt(skills)
	response, err := l.gemini.GenerateTextWithRetry(ctx, prompt, 0.4, l.maxRetries)
	if err != nil {
		return nil, geminiRemoteError(op, err)
	}

	suggestions, err := normalizeSuggestions([]byte(extractJSON(response)))
	if err != nil {
		return nil, NewRemoteError(op, KindUnclassified, 0, err)
	}

	known := make(map[string]bool, len(skills))
	for _, s := range skills {
		known[strings.ToLower(strings.TrimSpace(s))] = true
	}

	out := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || known[key] {
			continue
		}
		known[key] = true
		out = append(out, strings.TrimSpace(s))
	}
	return out, nil
}

func (l *localDocumentService) ingest(ctx context.Context, op, kind string, file DocumentFile) (*models.ParsedDocument, error) {
	log.Printf("📄 Parsing %s %s...\n", strings.ReplaceAll(kind, "_", " "), file.Name)
	text, err := l.extractor.ExtractText(file)
	if err != nil {
		return nil, NewRemoteError(op, KindUnclassified, 0, err)
	}

	embedding, err := l.embed(ctx, text)
	if err != nil {
		return nil, geminiRemoteError(op, err)
	}

	skills, err := l.extractSkills(ctx, text, kind)
	if err != nil {
		return nil, geminiRemoteError(op, err)
	}

	doc := &models.ParsedDocument{
		ID:          uuid.New(),
		Kind:        kind,
		Filename:    file.Name,
		ContentType: DetectContentType(file.Name, file.ContentType),
		Text:        text,
		Skills:      skills,
		Embedding:   embedding,
	}
	if err := l.docRepo.Create(doc); err != nil {
		return nil, NewRemoteError(op, KindUnclassified, 0, err)
	}

	log.Printf("✅ %s %s stored with %d skills\n", kind, doc.ID, len(skills))
	return doc, nil
}

// embed returns the mean embedding of the document's chunks.
func (l *localDocumentService) embed(ctx context.Context, text string) ([]float32, error) {
	chunks := l.chunker.ChunkText(text, embeddingChunkSize, embeddingChunkOverlap)
	if len(chunks) > maxEmbeddingChunks {
		chunks = chunks[:maxEmbeddingChunks]
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("nothing to embed")
	}

	var sum []float32
	for _, chunk := range chunks {
		vector, err := l.gemini.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return nil, err
		}
		if sum == nil {
			sum = make([]float32, len(vector))
		}
		if len(vector) != len(sum) {
			return nil, fmt.Errorf("embedding size changed from %d to %d", len(sum), len(vector))
		}
		for i, v := range vector {
			sum[i] += v
		}
	}

	n := float32(len(chunks))
	for i := range sum {
		sum[i] /= n
	}
	return sum, nil
}

func (l *localDocumentService) extractSkills(ctx context.Context, text, kind string) ([]models.DocumentSkill, error) {
	prompt := l.prompts.BuildSkillExtractionPrompt(text, kind)
	response, err := l.gemini.GenerateTextWithRetry(ctx, prompt, 0.1, l.maxRetries)
	if err != nil {
		return nil, err
	}

	var result extractedSkills
	if err := parseJSONResponse(response, &result); err != nil {
		return nil, err
	}

	skills := make([]models.DocumentSkill, 0, len(result.Skills))
	for _, s := range result.Skills {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			continue
		}
		parsed := s.Parsed
		if parsed != nil {
			trimmed := strings.TrimSpace(*parsed)
			if trimmed == "" || strings.EqualFold(trimmed, "null") {
				parsed = nil
			} else {
				parsed = &trimmed
			}
		}
		skills = append(skills, models.DocumentSkill{Name: name, Parsed: parsed})
	}
	return skills, nil
}

func (l *localDocumentService) findDocument(op, documentID string) (*models.ParsedDocument, error) {
	id, err := uuid.Parse(documentID)
	if err != nil {
		return nil, NewRemoteError(op, KindUnclassified, http.StatusBadRequest, fmt.Errorf("invalid document id %q: %w", documentID, err))
	}

	doc, err := l.docRepo.FindByID(id)
	if err != nil {
		return nil, NewRemoteError(op, KindUnclassified, http.StatusNotFound, err)
	}
	return doc, nil
}

// MatchScore combines embedding similarity with the share of job skills the
// resume covers. Without job skills only the similarity term counts.
func MatchScore(resume, jobDescription *models.ParsedDocument) float64 {
	similarity := clamp01(cosineSimilarity(resume.Embedding, jobDescription.Embedding))

	required := skillKeys(jobDescription.Skills)
	if len(required) == 0 {
		return similarityWeight * similarity
	}

	have := make(map[string]bool)
	for _, key := range skillKeys(resume.Skills) {
		have[key] = true
	}
	resumeText := strings.ToLower(resume.Text)

	covered := 0
	for _, key := range required {
		if have[key] || strings.Contains(resumeText, key) {
			covered++
		}
	}

	coverage := float64(covered) / float64(len(required))
	return similarityWeight*similarity + coverageWeight*coverage
}

func skillKeys(skills []models.DocumentSkill) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, s := range skills {
		value := s.Name
		if s.Parsed != nil {
			value = *s.Parsed
		}
		key := strings.ToLower(strings.TrimSpace(value))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func toSkills(skills []models.DocumentSkill) []Skill {
	out := make([]Skill, 0, len(skills))
	for _, s := range skills {
		out = append(out, Skill{Name: s.Name, Parsed: s.Parsed})
	}
	return out
}

func geminiRemoteError(op string, err error) *RemoteError {
	if IsGeminiQuotaError(err) {
		return NewRemoteError(op, KindQuotaExceeded, http.StatusTooManyRequests, err)
	}
	return NewRemoteError(op, KindUnclassified, 0, err)
}
