package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/remedyhq/remedy/internal/types"
)

// fixDraft is the JSON shape the synthesis prompt asks the model for
type fixDraft struct {
	Changes     []types.FileChange `json:"changes"`
	TestPlan    []string           `json:"test_plan"`
	RiskLevel   types.RiskLevel    `json:"risk_level"`
	Concerns    []string           `json:"concerns"`
	Mitigations []string           `json:"mitigations"`
}

// extractJSON pulls the first JSON object or array out of a model response,
// tolerating markdown fences and prose around it.
func extractJSON(text string) (string, error) {
	cleaned := strings.TrimSpace(text)
	if idx := strings.Index(cleaned, "```json"); idx >= 0 {
		cleaned = cleaned[idx+len("```json"):]
		if end := strings.Index(cleaned, "```"); end >= 0 {
			cleaned = cleaned[:end]
		}
		return strings.TrimSpace(cleaned), nil
	}
	if idx := strings.Index(cleaned, "```"); idx >= 0 {
		cleaned = cleaned[idx+3:]
		if end := strings.Index(cleaned, "```"); end >= 0 {
			cleaned = cleaned[:end]
		}
		return strings.TrimSpace(cleaned), nil
	}

	start := strings.IndexAny(cleaned, "[{")
	if start < 0 {
		return "", fmt.Errorf("no JSON found in response")
	}
	open := cleaned[start]
	var closer byte = '}'
	if open == '[' {
		closer = ']'
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(cleaned); i++ {
		c := cleaned[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && c == open:
			depth++
		case !inString && c == closer:
			depth--
			if depth == 0 {
				return cleaned[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unterminated JSON in response")
}

// parseFindings decodes the analysis response into findings
func parseFindings(text string) ([]types.Finding, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}
	var findings []types.Finding
	if err := json.Unmarshal([]byte(raw), &findings); err != nil {
		return nil, fmt.Errorf("failed to decode findings: %w", err)
	}
	return findings, nil
}

// parseFixDraft decodes the synthesis response
func parseFixDraft(text string) (*fixDraft, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}
	var draft fixDraft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("failed to decode fix draft: %w", err)
	}
	return &draft, nil
}
