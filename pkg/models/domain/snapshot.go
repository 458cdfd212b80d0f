package domain

import "time"

// Snapshot is the full output of one assessment run. It is never mutated once built.
type Snapshot struct {
	ID              string
	SourceTimestamp time.Time
	Assignments     []ScoredAssignment
	Exemptions      []ExemptionRecord
	TestResults     []TestResult
}
