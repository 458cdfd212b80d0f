package api

import "time"

type FieldChange struct {
	Field    string `json:"field"`
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

type AssignmentChange struct {
	Key     string        `json:"key"`
	Name    string        `json:"name"`
	Scope   string        `json:"scope"`
	Changes []FieldChange `json:"changes"`
}

type EffectShift struct {
	Effect   string `json:"effect"`
	Previous int    `json:"previous"`
	Current  int    `json:"current"`
	Delta    int    `json:"delta"`
}

type PostureScore struct {
	EnforcementRate float64 `json:"enforcement_rate"`
	ComplianceRate  float64 `json:"compliance_rate"`
	RiskCoverage    float64 `json:"risk_coverage"`
	Composite       float64 `json:"composite"`
}

type DeltaReport struct {
	PreviousTimestamp  time.Time          `json:"previous_timestamp"`
	CurrentTimestamp   time.Time          `json:"current_timestamp"`
	NewAssignments     []ScoredAssignment `json:"new_assignments"`
	RemovedAssignments []ScoredAssignment `json:"removed_assignments"`
	ChangedAssignments []AssignmentChange `json:"changed_assignments"`
	EffectShifts       []EffectShift      `json:"effect_shifts"`
	EffectShiftSummary string             `json:"effect_shift_summary"`
	NewExemptions      []Exemption        `json:"new_exemptions"`
	RemovedExemptions  []Exemption        `json:"removed_exemptions"`
	PreviousScore      PostureScore       `json:"previous_score"`
	CurrentScore       PostureScore       `json:"current_score"`
	Trend              string             `json:"trend"`
}

type DeltaRequest struct {
	Previous Snapshot `json:"previous" yaml:"previous"`
	Current  Snapshot `json:"current" yaml:"current"`
}
