// Package synthesizer turns analyzer findings into a single coherent fix.
package synthesizer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/remedyhq/remedy/internal/types"
)

// Synthesizer produces a reviewable fix from one or more findings
type Synthesizer interface {
	Synthesize(ctx context.Context, mission *types.Mission, findings []types.Finding) (*types.Fix, error)
}

// Template is the built-in synthesizer. Each remediable issue type maps to a
// templated change; aggregate risk is the maximum across contributing
// findings.
type Template struct {
	logger *slog.Logger
}

// NewTemplate creates the built-in template synthesizer
func NewTemplate(logger *slog.Logger) *Template {
	if logger == nil {
		logger = slog.Default()
	}
	return &Template{logger: logger}
}

// Synthesize builds a fix addressing the given findings. Findings are never
// mutated; the fix carries its own copy for audit.
func (s *Template) Synthesize(ctx context.Context, mission *types.Mission, findings []types.Finding) (*types.Fix, error) {
	if mission == nil {
		return nil, fmt.Errorf("mission is required")
	}
	if len(findings) == 0 {
		return nil, fmt.Errorf("cannot synthesize a fix from zero findings")
	}

	fix := &types.Fix{
		ID:         uuid.New().String(),
		MissionRef: mission.Anomaly.ID,
		Findings:   make([]types.Finding, len(findings)),
		Status:     types.FixGenerated,
		CreatedAt:  time.Now(),
	}
	copy(fix.Findings, findings)

	level := types.RiskLow
	var concerns []string
	for i := range findings {
		f := &findings[i]
		change, ok := changeFor(f)
		if ok {
			fix.Changes = append(fix.Changes, change)
		} else {
			concerns = append(concerns, fmt.Sprintf("%s in %s has no automated remediation", f.IssueType, f.FilePath))
		}
		level = types.MaxRisk(level, f.RiskLevel)
		if f.Confidence < 75 {
			concerns = append(concerns, fmt.Sprintf("low analyzer confidence (%d) for %s", f.Confidence, f.FilePath))
		}
	}

	fix.RiskAssessment = types.RiskAssessment{
		Level:    level,
		Concerns: concerns,
		Mitigations: []string{
			"changes are applied only after the decision gate clears them",
			"modify operations verify on-disk content before writing",
			"version control provides rollback for any applied change",
		},
	}

	if len(fix.Changes) > 0 {
		fix.TestPlan = testPlan(mission, fix.Changes)
	}

	s.logger.Info("fix synthesized",
		"fix", fix.ID,
		"mission", mission.Key,
		"changes", len(fix.Changes),
		"risk", fix.RiskAssessment.Level)

	if err := fix.Validate(); err != nil {
		return nil, fmt.Errorf("synthesized fix is invalid: %w", err)
	}
	return fix, nil
}

// changeFor maps a finding to its templated file operation. Logic errors are
// reported but not auto-remediated; they surface as concerns instead.
func changeFor(f *types.Finding) (types.FileChange, bool) {
	switch f.IssueType {
	case types.IssueMissingFile:
		return types.FileChange{
			Path:       f.FilePath,
			Operation:  types.OpCreate,
			NewContent: stubFor(f),
			Reasoning:  fmt.Sprintf("recreate missing file implicated by: %s", f.Description),
		}, true
	case types.IssueImportError, types.IssueSyntaxError, types.IssueTypeError:
		// Modifying safely requires knowing both the current content and
		// the replacement; without either the finding stays a concern.
		if f.Context == "" || f.SuggestedFix == "" {
			return types.FileChange{}, false
		}
		return types.FileChange{
			Path:            f.FilePath,
			Operation:       types.OpModify,
			OriginalContent: f.Context,
			NewContent:      f.SuggestedFix,
			Reasoning:       fmt.Sprintf("repair %s: %s", f.IssueType, f.Description),
		}, true
	}
	return types.FileChange{}, false
}

// stubFor renders the placeholder content for a recreated file
func stubFor(f *types.Finding) string {
	if f.SuggestedFix != "" {
		return f.SuggestedFix
	}
	return fmt.Sprintf("// %s\n// Recreated by the remediation pipeline; flesh out before relying on it.\n", f.FilePath)
}

// testPlan enumerates the verification steps for a set of changes. Steps are
// human-readable; the pipeline never executes them itself.
func testPlan(mission *types.Mission, changes []types.FileChange) []string {
	plan := make([]string, 0, len(changes)+2)
	for _, c := range changes {
		plan = append(plan, fmt.Sprintf("verify %s after %s", c.Path, c.Operation))
	}
	if mission.Anomaly.AffectedEndpoint != "" {
		plan = append(plan, fmt.Sprintf("probe %s and confirm the anomaly is gone", mission.Anomaly.AffectedEndpoint))
	}
	plan = append(plan, "run the project test suite")
	return plan
}
