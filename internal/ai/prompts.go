package ai

import (
	"fmt"
	"strings"

	"github.com/remedyhq/remedy/internal/types"
)

// analysisPrompt asks the model to diagnose an anomaly into findings
func analysisPrompt(anomaly types.Anomaly) string {
	var b strings.Builder
	b.WriteString("You are diagnosing a production anomaly in a codebase.\n\n")
	fmt.Fprintf(&b, "Anomaly id: %s\nType: %s\n", anomaly.ID, anomaly.Type)
	if anomaly.AffectedEndpoint != "" {
		fmt.Fprintf(&b, "Affected endpoint: %s\n", anomaly.AffectedEndpoint)
	}
	b.WriteString(`
Respond with ONLY a JSON array of findings. Each finding:
{
  "file_path": "relative/path.go",
  "issue_type": "missing_file" | "syntax_error" | "type_error" | "logic_error" | "import_error",
  "description": "what is wrong",
  "line_number": 0,
  "context": "the current content being replaced, when known",
  "suggested_fix": "replacement content, when known",
  "confidence": 0-100,
  "risk_level": "low" | "medium" | "high"
}

Return an empty array if nothing actionable can be identified.
`)
	return b.String()
}

// synthesisPrompt asks the model to turn findings into a concrete fix
func synthesisPrompt(mission *types.Mission, findings []types.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mission: %s\n\nDiagnosed findings:\n", mission.Goal)
	for i, f := range findings {
		fmt.Fprintf(&b, "%d. %s in %s (confidence %d, risk %s): %s\n",
			i+1, f.IssueType, f.FilePath, f.Confidence, f.RiskLevel, f.Description)
	}
	b.WriteString(`
Produce a single coherent fix. Respond with ONLY a JSON object:
{
  "changes": [{"path": "...", "operation": "create"|"modify"|"delete", "original_content": "...", "new_content": "...", "reasoning": "..."}],
  "test_plan": ["step", ...],
  "risk_level": "low" | "medium" | "high",
  "concerns": ["...", ...],
  "mitigations": ["...", ...]
}

Rules: modify operations must include the exact original_content being
replaced. Include a non-empty test_plan whenever changes is non-empty.
`)
	return b.String()
}
