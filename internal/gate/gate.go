// Package gate decides whether a synthesized fix is safe for unattended
// application. Evaluation is a pure function over the fix; routing a fix to
// human review is designed behavior, not an error.
package gate

import (
	"fmt"

	"github.com/remedyhq/remedy/internal/types"
)

// Outcome is the gate's verdict on a fix
type Outcome string

const (
	AutoApply   Outcome = "auto_apply"
	HumanReview Outcome = "human_review"
)

// Default thresholds. Both gates must clear AND the aggregate risk must be
// low for unattended application; a single weak finding forces review even
// when the mean alone would pass.
const (
	DefaultAutoApplyThreshold      = 95.0
	DefaultHighConfidenceThreshold = 85
)

// Thresholds configures the gate
type Thresholds struct {
	// AutoApplyThreshold is the minimum risk-adjusted aggregate
	// confidence for unattended application.
	AutoApplyThreshold float64
	// HighConfidenceThreshold is the per-finding confidence floor
	HighConfidenceThreshold int
}

// DefaultThresholds returns the standard conservative thresholds
func DefaultThresholds() Thresholds {
	return Thresholds{
		AutoApplyThreshold:      DefaultAutoApplyThreshold,
		HighConfidenceThreshold: DefaultHighConfidenceThreshold,
	}
}

// Decision carries the verdict and the numbers behind it for audit
type Decision struct {
	Outcome             Outcome `json:"outcome"`
	AggregateConfidence float64 `json:"aggregate_confidence"`
	Reason              string  `json:"reason"`
}

// AutoApproved reports whether the decision clears unattended application
func (d Decision) AutoApproved() bool {
	return d.Outcome == AutoApply
}

// riskAdjustment penalizes the aggregate confidence by assessed risk
func riskAdjustment(level types.RiskLevel) float64 {
	switch level {
	case types.RiskLow:
		return 0
	case types.RiskMedium:
		return -10
	}
	// High and anything unrecognized take the full penalty
	return -20
}

// AggregateConfidence computes the risk-adjusted mean finding confidence,
// clamped to [0, 100].
func AggregateConfidence(fix *types.Fix) float64 {
	agg := fix.AverageConfidence() + riskAdjustment(fix.RiskAssessment.Level)
	if agg < 0 {
		return 0
	}
	if agg > 100 {
		return 100
	}
	return agg
}

// Evaluate decides AUTO_APPLY vs HUMAN_REVIEW for a fix using the default
// thresholds.
func Evaluate(fix *types.Fix) Decision {
	return EvaluateWith(fix, DefaultThresholds())
}

// EvaluateWith decides AUTO_APPLY vs HUMAN_REVIEW using explicit thresholds
func EvaluateWith(fix *types.Fix, th Thresholds) Decision {
	agg := AggregateConfidence(fix)

	if fix.RiskAssessment.Level != types.RiskLow {
		return Decision{
			Outcome:             HumanReview,
			AggregateConfidence: agg,
			Reason:              fmt.Sprintf("aggregate risk is %s; only low-risk fixes auto-apply", fix.RiskAssessment.Level),
		}
	}

	for _, f := range fix.Findings {
		if f.Confidence < th.HighConfidenceThreshold {
			return Decision{
				Outcome:             HumanReview,
				AggregateConfidence: agg,
				Reason: fmt.Sprintf("finding for %s has confidence %d, below the %d floor",
					f.FilePath, f.Confidence, th.HighConfidenceThreshold),
			}
		}
	}

	if agg < th.AutoApplyThreshold {
		return Decision{
			Outcome:             HumanReview,
			AggregateConfidence: agg,
			Reason: fmt.Sprintf("aggregate confidence %.1f is below the %.1f auto-apply threshold",
				agg, th.AutoApplyThreshold),
		}
	}

	return Decision{
		Outcome:             AutoApply,
		AggregateConfidence: agg,
		Reason:              "low risk, all findings high confidence, aggregate cleared",
	}
}
