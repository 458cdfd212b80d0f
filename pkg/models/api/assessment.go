package api

import "time"

type ControlGroup struct {
	ID       string   `json:"id,omitempty" yaml:"id,omitempty"`
	Name     string   `json:"name" yaml:"name" validate:"required"`
	Controls []string `json:"controls" yaml:"controls"`
}

type ExposureFinding struct {
	Resource string `json:"resource" yaml:"resource"`
	PublicIP string `json:"public_ip,omitempty" yaml:"public_ip,omitempty"`
	Port     int    `json:"port" yaml:"port" validate:"gte=0,lte=65535"`
	Protocol string `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	Source   string `json:"source" yaml:"source"`
}

type VulnerabilityFinding struct {
	ID       string  `json:"id" yaml:"id"`
	Resource string  `json:"resource,omitempty" yaml:"resource,omitempty"`
	CVSS     float64 `json:"cvss" yaml:"cvss" validate:"gte=0,lte=10"`
	AgeDays  int     `json:"age_days" yaml:"age_days" validate:"gte=0"`
}

type PatchFacts struct {
	Vulnerabilities     []VulnerabilityFinding `json:"vulnerabilities" yaml:"vulnerabilities" validate:"dive"`
	UnsupportedSoftware []string               `json:"unsupported_software" yaml:"unsupported_software"`
}

type IdentityFacts struct {
	ConditionalAccessMFA bool     `json:"conditional_access_mfa" yaml:"conditional_access_mfa"`
	LegacyAuthBlocked    bool     `json:"legacy_auth_blocked" yaml:"legacy_auth_blocked"`
	AdminsWithoutMFA     []string `json:"admins_without_mfa" yaml:"admins_without_mfa"`
	UsersWithoutMFA      []string `json:"users_without_mfa" yaml:"users_without_mfa"`
}

type RoleAssignment struct {
	Principal string `json:"principal" yaml:"principal"`
	Role      string `json:"role" yaml:"role"`
	Scope     string `json:"scope" yaml:"scope"`
	Guest     bool   `json:"guest,omitempty" yaml:"guest,omitempty"`
}

type ExposureFacts struct {
	Findings []ExposureFinding `json:"findings" yaml:"findings" validate:"dive"`
}

type MalwareFacts struct {
	UnprotectedMachines []string `json:"unprotected_machines" yaml:"unprotected_machines"`
}

type AccessFacts struct {
	PrivilegedAssignments []RoleAssignment `json:"privileged_assignments" yaml:"privileged_assignments"`
}

// ScenarioFacts carry collected phase-2 findings. Omitted sections are reported as not collected.
type ScenarioFacts struct {
	Exposure *ExposureFacts `json:"exposure,omitempty" yaml:"exposure,omitempty"`
	Patching *PatchFacts    `json:"patching,omitempty" yaml:"patching,omitempty"`
	Malware  *MalwareFacts  `json:"malware,omitempty" yaml:"malware,omitempty"`
	Identity *IdentityFacts `json:"identity,omitempty" yaml:"identity,omitempty"`
	Access   *AccessFacts   `json:"access,omitempty" yaml:"access,omitempty"`
}

// AssessmentRequest is the collected tenant state for one assessment run.
type AssessmentRequest struct {
	SourceTimestamp time.Time      `json:"source_timestamp" yaml:"source_timestamp"`
	InitiativeName  string         `json:"initiative_name" yaml:"initiative_name"`
	InitiativeFound bool           `json:"initiative_found" yaml:"initiative_found"`
	ControlGroups   []ControlGroup `json:"control_groups" yaml:"control_groups" validate:"dive"`
	Assignments     []Assignment   `json:"assignments" yaml:"assignments" validate:"dive"`
	// Exemptions without a scope get it from their resource id
	Exemptions []Exemption    `json:"exemptions" yaml:"exemptions" validate:"dive"`
	Facts      ScenarioFacts `json:"facts" yaml:"facts"`
}

type ControlStatus struct {
	Control    string `json:"control"`
	State      string `json:"state"`
	Assignment string `json:"assignment,omitempty"`
	MatchedBy  string `json:"matched_by,omitempty"`
	Matches    int    `json:"matches,omitempty"`
}

type GroupCompliance struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Total       int             `json:"total"`
	Enforced    int             `json:"enforced"`
	NotEnforced int             `json:"not_enforced"`
	Missing     int             `json:"missing"`
	Coverage    float64         `json:"coverage"`
	Controls    []ControlStatus `json:"controls"`
}

type AssessmentResponse struct {
	Snapshot   Snapshot          `json:"snapshot"`
	Compliance []GroupCompliance `json:"compliance"`
	Counts     map[string]int    `json:"counts"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
