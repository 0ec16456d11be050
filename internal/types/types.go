package types

import (
	"fmt"
	"strings"
	"time"
)

// Mission represents one unit of remediation work tied to a detected anomaly.
type Mission struct {
	Key         string        `json:"key"`
	Goal        string        `json:"goal"`
	Priority    Priority      `json:"priority"`
	Anomaly     Anomaly       `json:"anomaly"`
	Status      MissionStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// Validate checks if the mission has valid field values
func (m *Mission) Validate() error {
	if strings.TrimSpace(m.Key) == "" {
		return fmt.Errorf("mission key is required")
	}
	if strings.TrimSpace(m.Goal) == "" {
		return fmt.Errorf("mission goal is required")
	}
	if !m.Priority.IsValid() {
		return fmt.Errorf("invalid priority: %s", m.Priority)
	}
	if !m.Status.IsValid() {
		return fmt.Errorf("invalid mission status: %s", m.Status)
	}
	if m.Anomaly.ID == "" {
		return fmt.Errorf("anomaly id is required")
	}
	return nil
}

// IsTerminal reports whether the mission has reached a final state
func (m *Mission) IsTerminal() bool {
	return m.Status == MissionCompleted || m.Status == MissionFailed
}

// Anomaly is the reference to the triggering anomaly record. The detector
// that produces it is an external collaborator; only these fields are
// meaningful to the pipeline.
type Anomaly struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	AffectedEndpoint string `json:"affected_endpoint,omitempty"`
}

// MissionStatus represents the current state of a mission
type MissionStatus string

const (
	MissionPending   MissionStatus = "pending"
	MissionAnalyzing MissionStatus = "analyzing"
	MissionFixing    MissionStatus = "fixing"
	// MissionTesting is set by downstream collaborators only; the
	// orchestrator never drives a transition through it.
	MissionTesting   MissionStatus = "testing"
	MissionCompleted MissionStatus = "completed"
	MissionFailed    MissionStatus = "failed"
)

// IsValid checks if the status value is valid
func (s MissionStatus) IsValid() bool {
	switch s {
	case MissionPending, MissionAnalyzing, MissionFixing, MissionTesting, MissionCompleted, MissionFailed:
		return true
	}
	return false
}

// Priority categorizes mission urgency
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// IsValid checks if the priority value is valid
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Finding represents one diagnosed root-cause candidate produced by the
// analyzer. Findings are immutable once produced.
type Finding struct {
	FilePath     string    `json:"file_path"`
	IssueType    IssueType `json:"issue_type"`
	Description  string    `json:"description"`
	LineNumber   int       `json:"line_number,omitempty"`
	Context      string    `json:"context,omitempty"`
	SuggestedFix string    `json:"suggested_fix,omitempty"`
	Confidence   int       `json:"confidence"`
	RiskLevel    RiskLevel `json:"risk_level"`
}

// Validate checks if the finding has valid field values
func (f *Finding) Validate() error {
	if strings.TrimSpace(f.FilePath) == "" {
		return fmt.Errorf("file path is required")
	}
	if !f.IssueType.IsValid() {
		return fmt.Errorf("invalid issue type: %s", f.IssueType)
	}
	if f.Confidence < 0 || f.Confidence > 100 {
		return fmt.Errorf("confidence must be between 0 and 100 (got %d)", f.Confidence)
	}
	if !f.RiskLevel.IsValid() {
		return fmt.Errorf("invalid risk level: %s", f.RiskLevel)
	}
	return nil
}

// IssueType categorizes the kind of diagnosed issue
type IssueType string

const (
	IssueMissingFile IssueType = "missing_file"
	IssueSyntaxError IssueType = "syntax_error"
	IssueTypeError   IssueType = "type_error"
	IssueLogicError  IssueType = "logic_error"
	IssueImportError IssueType = "import_error"
)

// IsValid checks if the issue type value is valid
func (t IssueType) IsValid() bool {
	switch t {
	case IssueMissingFile, IssueSyntaxError, IssueTypeError, IssueLogicError, IssueImportError:
		return true
	}
	return false
}

// RiskLevel categorizes how dangerous it is to act on a finding or fix
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// IsValid checks if the risk level value is valid
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// Severity returns an ordering for risk aggregation: low < medium < high.
// Unknown levels rank above high so malformed input is treated conservatively.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	}
	return 3
}

// MaxRisk returns the higher of two risk levels
func MaxRisk(a, b RiskLevel) RiskLevel {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}
