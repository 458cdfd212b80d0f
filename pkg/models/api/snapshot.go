package api

import "time"

// SnapshotSchemaVersion is written into every persisted snapshot.
const SnapshotSchemaVersion = 1

type Exemption struct {
	ID          string     `json:"id" yaml:"id" validate:"required"`
	DisplayName string     `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Category    string     `json:"category,omitempty" yaml:"category,omitempty" validate:"omitempty,oneof=Waiver Mitigated"`
	ScopeType   string     `json:"scope_type,omitempty" yaml:"scope_type,omitempty" validate:"omitempty,oneof=ManagementGroup Subscription ResourceGroup Resource"`
	ScopeName   string     `json:"scope_name,omitempty" yaml:"scope_name,omitempty"`
	Coverage    string     `json:"coverage,omitempty" yaml:"coverage,omitempty" validate:"omitempty,oneof=Full Partial"`
	ExpiresOn   *time.Time `json:"expires_on,omitempty" yaml:"expires_on,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
}

type TestResult struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type Snapshot struct {
	SchemaVersion   int                `json:"schema_version"`
	ID              string             `json:"id,omitempty"`
	SourceTimestamp time.Time          `json:"source_timestamp"`
	Assignments     []ScoredAssignment `json:"assignments"`
	Exemptions      []Exemption        `json:"exemptions"`
	TestResults     []TestResult       `json:"test_results"`
}

type SnapshotHeader struct {
	ID              string    `json:"id"`
	SourceTimestamp time.Time `json:"source_timestamp"`
	CreatedAt       time.Time `json:"created_at"`
	SchemaVersion   int       `json:"schema_version"`
	Assignments     int       `json:"assignments"`
	Exemptions      int       `json:"exemptions"`
	TestResults     int       `json:"test_results"`
}
