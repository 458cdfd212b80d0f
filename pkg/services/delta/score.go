package delta

import (
	"github.com/de-tools/governance-atlas/pkg/models/domain"
)

// Trend verdict contract, version 1. Changing any of these values changes
// verdicts for stored snapshot pairs, so bump ScoreVersion with them.
const (
	ScoreVersion = 1

	// WeightEnforcement applies to enforced / total.
	WeightEnforcement = 0.40
	// WeightCompliance applies to 1 - (assignments with non-compliant resources) / total.
	WeightCompliance = 0.40
	// WeightRiskCoverage applies to (High security impact with Default enforcement) / total.
	WeightRiskCoverage = 0.20

	// Tolerance is the composite movement needed before a trend is reported.
	Tolerance = 0.02
)

// CompositeScore computes the posture score of one snapshot. An empty snapshot scores zero.
func CompositeScore(s domain.Snapshot) domain.PostureScore {
	total := len(s.Assignments)
	if total == 0 {
		return domain.PostureScore{}
	}

	var enforced, nonCompliant, covered int
	for _, a := range s.Assignments {
		if a.Record.Enforced() {
			enforced++
			if a.Score.SecurityImpact == domain.ImpactHigh {
				covered++
			}
		}
		if a.Record.FieldKnown(domain.FieldNonCompliantResources) && a.Record.NonCompliantResources > 0 {
			nonCompliant++
		}
	}

	n := float64(total)
	score := domain.PostureScore{
		EnforcementRate: float64(enforced) / n,
		ComplianceRate:  1 - float64(nonCompliant)/n,
		RiskCoverage:    float64(covered) / n,
	}
	score.Composite = WeightEnforcement*score.EnforcementRate +
		WeightCompliance*score.ComplianceRate +
		WeightRiskCoverage*score.RiskCoverage
	return score
}

// Verdict compares two composite scores using Tolerance.
func Verdict(previous, current domain.PostureScore) domain.Trend {
	switch d := current.Composite - previous.Composite; {
	case d > Tolerance:
		return domain.TrendImproving
	case d < -Tolerance:
		return domain.TrendDegrading
	default:
		return domain.TrendStable
	}
}
