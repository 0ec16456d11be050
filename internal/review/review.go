// Package review builds the human-review artifact for fixes the decision
// gate declines to auto-apply, and defines the routing port the external
// code-review system implements.
package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/remedyhq/remedy/internal/types"
)

// Router is the boundary to the external review-routing collaborator
type Router interface {
	SubmitForReview(ctx context.Context, fixID, title, body string) error
}

// Title renders the review title for a fix
func Title(mission *types.Mission, fix *types.Fix) string {
	return fmt.Sprintf("[remedy] %s (%s)", mission.Goal, fix.MissionRef)
}

// Body renders the deterministic review body: mission goal, enumerated
// findings, enumerated changes with reasoning, risk summary, and the test
// plan as a checklist. Identical inputs always render identical bodies.
func Body(mission *types.Mission, fix *types.Fix, aggregateConfidence float64, reason string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Mission\n\n%s\n\n", mission.Goal)
	fmt.Fprintf(&b, "Anomaly: `%s` (%s)", mission.Anomaly.ID, mission.Anomaly.Type)
	if mission.Anomaly.AffectedEndpoint != "" {
		fmt.Fprintf(&b, " affecting `%s`", mission.Anomaly.AffectedEndpoint)
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "## Findings (%d)\n\n", len(fix.Findings))
	for i, f := range fix.Findings {
		fmt.Fprintf(&b, "%d. **%s** in `%s` (confidence %d, risk %s)", i+1, f.IssueType, f.FilePath, f.Confidence, f.RiskLevel)
		if f.Description != "" {
			fmt.Fprintf(&b, ": %s", f.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Proposed changes (%d)\n\n", len(fix.Changes))
	if len(fix.Changes) == 0 {
		b.WriteString("No automated changes; analysis only. See findings above.\n")
	}
	for i, c := range fix.Changes {
		fmt.Fprintf(&b, "%d. `%s` %s: %s\n", i+1, c.Operation, c.Path, c.Reasoning)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## Risk\n\nLevel: **%s**, aggregate confidence %.1f\n", fix.RiskAssessment.Level, aggregateConfidence)
	if reason != "" {
		fmt.Fprintf(&b, "Routed for review: %s\n", reason)
	}
	for _, c := range fix.RiskAssessment.Concerns {
		fmt.Fprintf(&b, "- concern: %s\n", c)
	}
	for _, m := range fix.RiskAssessment.Mitigations {
		fmt.Fprintf(&b, "- mitigation: %s\n", m)
	}
	b.WriteString("\n")

	b.WriteString("## Test plan\n\n")
	if len(fix.TestPlan) == 0 {
		b.WriteString("- [ ] confirm the anomaly is resolved\n")
	}
	for _, step := range fix.TestPlan {
		fmt.Fprintf(&b, "- [ ] %s\n", step)
	}

	return b.String()
}
