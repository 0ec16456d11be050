package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMission() *Mission {
	return &Mission{
		Key:      "healing_mission:m-1",
		Goal:     "restore /api/x",
		Priority: PriorityHigh,
		Anomaly:  Anomaly{ID: "anom-1", Type: "endpoint_failure", AffectedEndpoint: "/api/x"},
		Status:   MissionPending,
		CreatedAt: time.Now(),
	}
}

func TestMissionValidate(t *testing.T) {
	m := validMission()
	require.NoError(t, m.Validate())

	m.Key = ""
	assert.Error(t, m.Validate())

	m = validMission()
	m.Goal = "   "
	assert.Error(t, m.Validate())

	m = validMission()
	m.Priority = "urgent"
	assert.Error(t, m.Validate())

	m = validMission()
	m.Status = "paused"
	assert.Error(t, m.Validate())

	m = validMission()
	m.Anomaly.ID = ""
	assert.Error(t, m.Validate())
}

func TestMissionIsTerminal(t *testing.T) {
	m := validMission()
	assert.False(t, m.IsTerminal())

	m.Status = MissionCompleted
	assert.True(t, m.IsTerminal())

	m.Status = MissionFailed
	assert.True(t, m.IsTerminal())

	m.Status = MissionTesting
	assert.False(t, m.IsTerminal())
}

func TestFindingValidate(t *testing.T) {
	f := Finding{
		FilePath:    "api/handler.go",
		IssueType:   IssueLogicError,
		Description: "nil map write",
		Confidence:  90,
		RiskLevel:   RiskLow,
	}
	require.NoError(t, f.Validate())

	f.Confidence = 101
	assert.Error(t, f.Validate())

	f.Confidence = -1
	assert.Error(t, f.Validate())

	f.Confidence = 90
	f.IssueType = "weird"
	assert.Error(t, f.Validate())
}

func TestRiskSeverityOrdering(t *testing.T) {
	assert.Less(t, RiskLow.Severity(), RiskMedium.Severity())
	assert.Less(t, RiskMedium.Severity(), RiskHigh.Severity())
	// Unknown levels are treated as worse than high
	assert.Greater(t, RiskLevel("unknown").Severity(), RiskHigh.Severity())

	assert.Equal(t, RiskHigh, MaxRisk(RiskLow, RiskHigh))
	assert.Equal(t, RiskHigh, MaxRisk(RiskHigh, RiskMedium))
	assert.Equal(t, RiskMedium, MaxRisk(RiskMedium, RiskLow))
}

func validFix() *Fix {
	return &Fix{
		ID:         "fix-1",
		MissionRef: "anom-1",
		Findings: []Finding{{
			FilePath:   "api/handler.go",
			IssueType:  IssueLogicError,
			Confidence: 95,
			RiskLevel:  RiskLow,
		}},
		Changes: []FileChange{{
			Path:      "api/handler.go",
			Operation: OpModify,
			OriginalContent: "old",
			NewContent:      "new",
			Reasoning:       "guard nil map",
		}},
		TestPlan:       []string{"run handler tests"},
		RiskAssessment: RiskAssessment{Level: RiskLow},
		Status:         FixGenerated,
		CreatedAt:      time.Now(),
	}
}

func TestFixValidate(t *testing.T) {
	f := validFix()
	require.NoError(t, f.Validate())

	f.Findings = nil
	assert.Error(t, f.Validate(), "fix must reference at least one finding")

	f = validFix()
	f.TestPlan = nil
	assert.Error(t, f.Validate(), "changes without a test plan are invalid")

	f = validFix()
	f.Changes[0].OriginalContent = ""
	assert.Error(t, f.Validate(), "modify requires original content")

	f = validFix()
	f.Changes = nil
	f.TestPlan = nil
	assert.NoError(t, f.Validate(), "a no-change fix needs no test plan")
}

func TestFixStatusTransitions(t *testing.T) {
	// Monotonic forward path
	assert.True(t, FixGenerated.CanTransition(FixApplied))
	assert.True(t, FixApplied.CanTransition(FixTested))
	assert.True(t, FixTested.CanTransition(FixDeployed))

	// No skipping or regressing
	assert.False(t, FixGenerated.CanTransition(FixTested))
	assert.False(t, FixApplied.CanTransition(FixGenerated))
	assert.False(t, FixDeployed.CanTransition(FixApplied))

	// Failed is reachable from non-terminal states
	assert.True(t, FixGenerated.CanTransition(FixFailed))
	assert.True(t, FixApplied.CanTransition(FixFailed))
	assert.False(t, FixReverted.CanTransition(FixFailed))

	// Reverted only exits applied or tested
	assert.True(t, FixApplied.CanTransition(FixReverted))
	assert.True(t, FixTested.CanTransition(FixReverted))
	assert.False(t, FixGenerated.CanTransition(FixReverted))
	assert.False(t, FixDeployed.CanTransition(FixReverted))
}

func TestFixAggregates(t *testing.T) {
	f := validFix()
	f.Findings = append(f.Findings, Finding{
		FilePath:   "api/routes.go",
		IssueType:  IssueImportError,
		Confidence: 85,
		RiskLevel:  RiskLow,
	})
	assert.InDelta(t, 90.0, f.AverageConfidence(), 0.001)

	f.Changes = append(f.Changes, FileChange{
		Path:      "api/handler.go", // same path twice
		Operation: OpModify,
		OriginalContent: "x",
		Reasoning:       "second pass",
	})
	assert.Equal(t, 1, f.FilesChanged())

	empty := &Fix{}
	assert.Equal(t, 0.0, empty.AverageConfidence())
}
