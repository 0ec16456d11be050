package types

import (
	"fmt"
	"strings"
	"time"
)

// Fix represents a synthesized, reviewable remediation derived from one or
// more findings.
type Fix struct {
	ID             string         `json:"id"`
	MissionRef     string         `json:"mission_ref"` // anomaly id the fix addresses
	Findings       []Finding      `json:"findings"`
	Changes        []FileChange   `json:"changes"`
	TestPlan       []string       `json:"test_plan"`
	RiskAssessment RiskAssessment `json:"risk_assessment"`
	Status         FixStatus      `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Validate checks if the fix has valid field values
func (f *Fix) Validate() error {
	if strings.TrimSpace(f.ID) == "" {
		return fmt.Errorf("fix id is required")
	}
	if len(f.Findings) == 0 {
		return fmt.Errorf("fix must reference at least one finding")
	}
	if !f.Status.IsValid() {
		return fmt.Errorf("invalid fix status: %s", f.Status)
	}
	if !f.RiskAssessment.Level.IsValid() {
		return fmt.Errorf("invalid risk assessment level: %s", f.RiskAssessment.Level)
	}
	if len(f.Changes) > 0 && len(f.TestPlan) == 0 {
		return fmt.Errorf("test plan is required when fix has changes")
	}
	for i := range f.Changes {
		if err := f.Changes[i].Validate(); err != nil {
			return fmt.Errorf("change %d: %w", i, err)
		}
	}
	return nil
}

// FileChange is a single file operation within a fix. Changes are applied in
// the order they appear on the fix.
type FileChange struct {
	Path            string   `json:"path"`
	Operation       ChangeOp `json:"operation"`
	OriginalContent string   `json:"original_content,omitempty"`
	NewContent      string   `json:"new_content,omitempty"`
	Reasoning       string   `json:"reasoning"`
}

// Validate checks if the change has valid field values
func (c *FileChange) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("path is required")
	}
	if !c.Operation.IsValid() {
		return fmt.Errorf("invalid operation: %s", c.Operation)
	}
	if c.Operation == OpModify && c.OriginalContent == "" {
		return fmt.Errorf("original content is required for modify operations")
	}
	return nil
}

// ChangeOp identifies the kind of file operation
type ChangeOp string

const (
	OpCreate ChangeOp = "create"
	OpModify ChangeOp = "modify"
	OpDelete ChangeOp = "delete"
)

// IsValid checks if the operation value is valid
func (o ChangeOp) IsValid() bool {
	switch o {
	case OpCreate, OpModify, OpDelete:
		return true
	}
	return false
}

// RiskAssessment aggregates risk across all findings a fix addresses
type RiskAssessment struct {
	Level       RiskLevel `json:"level"`
	Concerns    []string  `json:"concerns,omitempty"`
	Mitigations []string  `json:"mitigations,omitempty"`
}

// FixStatus represents the lifecycle state of a fix
type FixStatus string

const (
	FixGenerated FixStatus = "generated"
	FixApplied   FixStatus = "applied"
	FixTested    FixStatus = "tested"
	FixDeployed  FixStatus = "deployed"
	FixReverted  FixStatus = "reverted"
	FixFailed    FixStatus = "failed"
)

// IsValid checks if the fix status value is valid
func (s FixStatus) IsValid() bool {
	switch s {
	case FixGenerated, FixApplied, FixTested, FixDeployed, FixReverted, FixFailed:
		return true
	}
	return false
}

// fixStatusRank orders the monotonic portion of the fix lifecycle
func fixStatusRank(s FixStatus) int {
	switch s {
	case FixGenerated:
		return 0
	case FixApplied:
		return 1
	case FixTested:
		return 2
	case FixDeployed:
		return 3
	}
	return -1
}

// CanTransition reports whether a fix may move from its current status to
// the target. Transitions are monotonic along
// generated -> applied -> tested -> deployed; failed is reachable from any
// non-terminal state; reverted is an explicit exit from applied or tested.
func (s FixStatus) CanTransition(to FixStatus) bool {
	if !to.IsValid() || s == to {
		return false
	}
	switch to {
	case FixFailed:
		return s == FixGenerated || s == FixApplied || s == FixTested
	case FixReverted:
		return s == FixApplied || s == FixTested
	case FixGenerated:
		return false
	}
	from, target := fixStatusRank(s), fixStatusRank(to)
	return from >= 0 && target == from+1
}

// AverageConfidence returns the mean confidence across the fix's findings,
// or 0 for a fix with no findings.
func (f *Fix) AverageConfidence() float64 {
	if len(f.Findings) == 0 {
		return 0
	}
	total := 0
	for _, finding := range f.Findings {
		total += finding.Confidence
	}
	return float64(total) / float64(len(f.Findings))
}

// FilesChanged returns the number of distinct paths touched by the fix
func (f *Fix) FilesChanged() int {
	seen := make(map[string]struct{}, len(f.Changes))
	for _, c := range f.Changes {
		seen[c.Path] = struct{}{}
	}
	return len(seen)
}
