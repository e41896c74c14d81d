package models

import "math"

type AnalyzeResponse struct {
	SessionID    string   `json:"session_id"`
	ScorePercent *float64 `json:"score_percent"`
	Suggestions  []string `json:"suggestions,omitempty"`
}

type SubmitResponse struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

type ResultResponse struct {
	ID           string        `json:"id"`
	Status       string        `json:"status"`
	Stage        string        `json:"stage"`
	Result       *AnalysisData `json:"result,omitempty"`
	ErrorKind    *string       `json:"error_kind,omitempty"`
	ErrorMessage *string       `json:"error_message,omitempty"`
}

type AnalysisData struct {
	ScorePercent *float64 `json:"score_percent"`
	Suggestions  []string `json:"suggestions,omitempty"`
}

type SessionResponse struct {
	ID        string        `json:"id"`
	Analyzing bool          `json:"analyzing"`
	Stage     string        `json:"stage"`
	Result    *AnalysisData `json:"result,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// RoundPercent rounds a score percentage to two decimals for display.
func RoundPercent(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := math.Round(*p*100) / 100
	return &v
}
