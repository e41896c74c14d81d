package services

import (
	"encoding/json"
	"fmt"
	"strings"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildSkillExtractionPrompt asks for the skills mentioned in a resume or job description.
func (pb *PromptBuilder) BuildSkillExtractionPrompt(documentText, documentKind string) string {
	return fmt.Sprintf(`You are an expert technical recruiter extracting skills from a %s.

DOCUMENT:
%s

List every professional skill the document mentions: programming languages, frameworks, tools,
platforms, methodologies and relevant soft skills.

Return your response in the following JSON format:
{
  "skills": [
    {"name": "<skill as written in the document>", "parsed": "<canonical skill name, or null if unsure>"}
  ]
}

Keep the order in which the skills appear. Do not invent skills that are not in the document.`,
		strings.ReplaceAll(documentKind, "_", " "), documentText)
}

// BuildSkillSuggestionPrompt asks for skills worth adding to a resume targeting the given job skills.
func (pb *PromptBuilder) BuildSkillSuggestionPrompt(jobSkills []string) string {
	return fmt.Sprintf(`You are a career coach helping a candidate tailor their resume.

SKILLS REQUIRED BY THE JOB:
%s

Suggest related skills the candidate should learn or highlight on their resume to be a
stronger match for this job. Prefer concrete, commonly requested skills.

Return your response in the following JSON format:
{
  "suggestions": ["<skill>", "<skill>"]
}

Return at most 10 suggestions, most relevant first.`,
		"- "+strings.Join(jobSkills, "\n- "))
}

// parseJSONResponse decodes an LLM response that may be wrapped in markdown.
func parseJSONResponse(response string, target interface{}) error {
	jsonStr := extractJSON(response)

	if err := json.Unmarshal([]byte(jsonStr), target); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w\nResponse: %s", err, truncate(response, 500))
	}

	return nil
}

// extractJSON tries to extract JSON from text that might contain markdown or other formatting
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")
	endObj := strings.LastIndex(text, "}")
	endArr := strings.LastIndex(text, "]")

	if startObj != -1 && endObj != -1 && endObj > startObj && (startArr == -1 || startObj < startArr) {
		return text[startObj : endObj+1]
	} else if startArr != -1 && endArr != -1 && endArr > startArr {
		return text[startArr : endArr+1]
	}

	return strings.TrimSpace(text)
}
