package domain

import (
	"fmt"
	"strings"
	"time"
)

type Trend string

const (
	TrendImproving Trend = "IMPROVING"
	TrendStable    Trend = "STABLE"
	TrendDegrading Trend = "DEGRADING"
)

// ValueUnavailable marks a previous value absent from an older snapshot schema.
const ValueUnavailable = "<unavailable>"

type FieldChange struct {
	Field    string
	Previous string
	Current  string
}

type AssignmentChange struct {
	Key      string
	Name     string
	Scope    string
	Previous PolicyAssignmentRecord
	Current  PolicyAssignmentRecord
	Changes  []FieldChange
}

type EffectShift struct {
	Effect   Effect
	Previous int
	Current  int
	Delta    int
}

type EffectShifts []EffectShift

func (s EffectShifts) String() string {
	parts := make([]string, 0, len(s))
	for _, shift := range s {
		parts = append(parts, fmt.Sprintf("%+d %s", shift.Delta, shift.Effect))
	}
	return strings.Join(parts, ", ")
}

type ExemptionDelta struct {
	New     []ExemptionRecord
	Removed []ExemptionRecord
}

type PostureScore struct {
	EnforcementRate float64
	ComplianceRate  float64
	RiskCoverage    float64
	Composite       float64
}

type DeltaReport struct {
	PreviousTimestamp time.Time
	CurrentTimestamp  time.Time

	NewAssignments     []ScoredAssignment
	RemovedAssignments []ScoredAssignment
	ChangedAssignments []AssignmentChange
	EffectShifts       EffectShifts
	Exemptions         ExemptionDelta

	PreviousScore PostureScore
	CurrentScore  PostureScore
	Trend         Trend
}
