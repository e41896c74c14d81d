package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const quotaErrorCode = "no_parsing_credits"

type affindaService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewAffindaService creates a DocumentService backed by the Affinda REST API.
func NewAffindaService(baseURL, apiKey string, timeout time.Duration) DocumentService {
	if baseURL == "" {
		baseURL = "https://api.affinda.com"
	}
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &affindaService{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// affindaDocument is the part of a resume or job description response we use.
type affindaDocument struct {
	Meta struct {
		Identifier string `json:"identifier"`
	} `json:"meta"`
	Data struct {
		Skills []affindaSkill `json:"skills"`
	} `json:"data"`
}

type affindaSkill struct {
	Name   string          `json:"name"`
	Parsed json.RawMessage `json:"parsed"`
}

type affindaErrorBody struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
	Errors []struct {
		Attr   string `json:"attr"`
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// IngestResume implements DocumentService.
func (a *affindaService) IngestResume(ctx context.Context, file DocumentFile) (*ResumeDocument, error) {
	const op = "ingest resume"

	body, err := a.upload(ctx, op, "/v2/resumes", file)
	if err != nil {
		return nil, err
	}

	doc, err := decodeDocument(op, body)
	if err != nil {
		return nil, err
	}

	log.Printf("📄 Resume ingested: %s (%d skills)\n", doc.Meta.Identifier, len(doc.Data.Skills))
	return &ResumeDocument{ID: doc.Meta.Identifier, Skills: normalizeSkills(doc.Data.Skills)}, nil
}

// CreateIndex implements DocumentService. An index that already exists counts as created.
func (a *affindaService) CreateIndex(ctx context.Context, name string) error {
	const op = "create index"

	_, err := a.sendJSON(ctx, op, http.MethodPost, "/v2/index", nil, map[string]string{
		"name":    name,
		"docType": "resumes",
	})
	if err != nil {
		var remote *RemoteError
		if errors.As(err, &remote) && remote.StatusCode == http.StatusConflict {
			log.Printf("✅ Index '%s' already exists\n", name)
			return nil
		}
		return err
	}

	log.Printf("✅ Index '%s' created\n", name)
	return nil
}

// IndexDocument implements DocumentService.
func (a *affindaService) IndexDocument(ctx context.Context, indexName, documentID string) error {
	const op = "index document"

	path := fmt.Sprintf("/v2/index/%s/documents", url.PathEscape(indexName))
	_, err := a.sendJSON(ctx, op, http.MethodPost, path, nil, map[string]string{
		"document": documentID,
	})
	if err != nil {
		var remote *RemoteError
		if errors.As(err, &remote) && remote.StatusCode == http.StatusNotFound && remote.Kind == KindUnclassified {
			remote.Kind = KindIndexNotFound
		}
		return err
	}

	return nil
}

// IngestJobDescription implements DocumentService.
func (a *affindaService) IngestJobDescription(ctx context.Context, file DocumentFile) (*JobDescriptionDocument, error) {
	const op = "ingest job description"

	body, err := a.upload(ctx, op, "/v2/job_descriptions", file)
	if err != nil {
		return nil, err
	}

	doc, err := decodeDocument(op, body)
	if err != nil {
		return nil, err
	}

	log.Printf("📄 Job description ingested: %s (%d skills)\n", doc.Meta.Identifier, len(doc.Data.Skills))
	return &JobDescriptionDocument{ID: doc.Meta.Identifier, Skills: normalizeSkills(doc.Data.Skills)}, nil
}

// ComputeMatch implements DocumentService.
func (a *affindaService) ComputeMatch(ctx context.Context, resumeID, jobDescriptionID string) (*MatchResult, error) {
	const op = "compute match"

	query := url.Values{}
	query.Set("resume", resumeID)
	query.Set("job_description", jobDescriptionID)

	body, err := a.sendJSON(ctx, op, http.MethodGet, "/v2/resume_search/match", query, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Score *float64 `json:"score"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewRemoteError(op, KindUnclassified, 0, fmt.Errorf("decoding response: %w", err))
	}

	result := &MatchResult{}
	if resp.Score != nil {
		result.Score = *resp.Score
	}
	return result, nil
}

// SuggestSkills implements DocumentService.
func (a *affindaService) SuggestSkills(ctx context.Context, skills []string) ([]string, error) {
	const op = "suggest skills"

	query := url.Values{}
	for _, skill := range skills {
		query.Add("skills", skill)
	}

	body, err := a.sendJSON(ctx, op, http.MethodGet, "/v2/resume_search/suggestion_skill", query, nil)
	if err != nil {
		return nil, err
	}

	suggestions, err := normalizeSuggestions(body)
	if err != nil {
		return nil, NewRemoteError(op, KindUnclassified, 0, err)
	}
	return suggestions, nil
}

func (a *affindaService) upload(ctx context.Context, op, path string, file DocumentFile) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, NewRemoteError(op, KindUnclassified, 0, fmt.Errorf("creating form file: %w", err))
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, NewRemoteError(op, KindUnclassified, 0, fmt.Errorf("writing form file: %w", err))
	}
	if err := writer.WriteField("wait", "true"); err != nil {
		return nil, NewRemoteError(op, KindUnclassified, 0, fmt.Errorf("writing form field: %w", err))
	}
	if err := writer.Close(); err != nil {
		return nil, NewRemoteError(op, KindUnclassified, 0, fmt.Errorf("closing form: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, &buf)
	if err != nil {
		return nil, NewRemoteError(op, KindUnclassified, 0, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return a.do(op, req)
}

func (a *affindaService) sendJSON(ctx context.Context, op, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	endpoint := a.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, NewRemoteError(op, KindUnclassified, 0, fmt.Errorf("marshaling request: %w", err))
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, NewRemoteError(op, KindUnclassified, 0, fmt.Errorf("creating request: %w", err))
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return a.do(op, req)
}

func (a *affindaService) do(op string, req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, NewRemoteError(op, KindUnclassified, 0, fmt.Errorf("calling affinda API: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewRemoteError(op, KindUnclassified, resp.StatusCode, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyAffindaError(op, resp.StatusCode, body)
	}

	return body, nil
}

// classifyAffindaError turns an error response into a *RemoteError. Quota
// exhaustion is recognized by its error code or by HTTP 429.
func classifyAffindaError(op string, status int, body []byte) *RemoteError {
	kind := KindUnclassified
	if status == http.StatusTooManyRequests {
		kind = KindQuotaExceeded
	}

	detail := truncate(strings.TrimSpace(string(body)), 500)

	var parsed affindaErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Detail != "" {
			detail = parsed.Detail
		}
		for _, e := range parsed.Errors {
			if e.Code == quotaErrorCode {
				kind = KindQuotaExceeded
			}
			if parsed.Detail == "" && e.Detail != "" {
				detail = e.Detail
			}
		}
	}

	return NewRemoteError(op, kind, status, fmt.Errorf("affinda API error: %s", detail))
}

func decodeDocument(op string, body []byte) (*affindaDocument, error) {
	var doc affindaDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, NewRemoteError(op, KindUnclassified, 0, fmt.Errorf("decoding response: %w", err))
	}
	if doc.Meta.Identifier == "" {
		return nil, NewRemoteError(op, KindUnclassified, 0, fmt.Errorf("response has no document identifier"))
	}
	return &doc, nil
}

func normalizeSkills(raw []affindaSkill) []Skill {
	skills := make([]Skill, 0, len(raw))
	for _, s := range raw {
		skills = append(skills, Skill{Name: s.Name, Parsed: parsedSkillValue(s.Parsed)})
	}
	return skills
}

// parsedSkillValue accepts a string, an object carrying name or value, or null.
func parsedSkillValue(raw json.RawMessage) *string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return &s
	}

	var obj struct {
		Name  *string         `json:"name"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil
	}
	if obj.Name != nil && *obj.Name != "" {
		return obj.Name
	}
	if len(obj.Value) > 0 {
		var value string
		if err := json.Unmarshal(obj.Value, &value); err == nil {
			return &value
		}
	}
	return nil
}

// normalizeSuggestions coerces every suggestion response shape the API has
// been seen to return into an ordered list of strings.
func normalizeSuggestions(body []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []string{}, nil
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decoding suggestions: %w", err)
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if value, ok := suggestionValue(item); ok {
				out = append(out, value)
			}
		}
		return out, nil
	case '{':
		var wrapper struct {
			Body        json.RawMessage `json:"body"`
			Suggestions json.RawMessage `json:"suggestions"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("decoding suggestions: %w", err)
		}
		if len(wrapper.Body) > 0 {
			return normalizeSuggestions(wrapper.Body)
		}
		if len(wrapper.Suggestions) > 0 {
			return normalizeSuggestions(wrapper.Suggestions)
		}
		return []string{}, nil
	default:
		return nil, fmt.Errorf("unexpected suggestions payload: %s", truncate(string(trimmed), 200))
	}
}

func suggestionValue(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}

	var obj struct {
		Skill string `json:"skill"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", false
	}
	if obj.Skill != "" {
		return obj.Skill, true
	}
	return obj.Name, obj.Name != ""
}

// truncate keeps at most maxLen runes of s.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	count := 0
	for i := range s {
		if count == maxLen {
			return s[:i] + "..."
		}
		count++
	}
	return s
}
