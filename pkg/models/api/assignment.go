package api

// Assignment is the wire form of a policy assignment. Pointer fields are absent
// from payloads written before the field existed.
type Assignment struct {
	Name                  string  `json:"name" yaml:"name" validate:"required"`
	DisplayName           string  `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	DefinitionName        string  `json:"definition_name,omitempty" yaml:"definition_name,omitempty"`
	PolicyType            string  `json:"policy_type,omitempty" yaml:"policy_type,omitempty"`
	Category              *string `json:"category,omitempty" yaml:"category,omitempty"`
	EffectType            *string `json:"effect_type,omitempty" yaml:"effect_type,omitempty"`
	EffectSummary         string  `json:"effect_summary,omitempty" yaml:"effect_summary,omitempty"`
	EnforcementMode       *string `json:"enforcement_mode,omitempty" yaml:"enforcement_mode,omitempty"`
	ScopeType             string  `json:"scope_type,omitempty" yaml:"scope_type,omitempty" validate:"omitempty,oneof=ManagementGroup Subscription ResourceGroup Resource"`
	ScopeName             string  `json:"scope_name" yaml:"scope_name"`
	NonCompliantResources *int    `json:"non_compliant_resources,omitempty" yaml:"non_compliant_resources,omitempty" validate:"omitempty,gte=0"`
	NonCompliantPolicies  *int    `json:"non_compliant_policies,omitempty" yaml:"non_compliant_policies,omitempty" validate:"omitempty,gte=0"`
	ExemptionCount        *int    `json:"exemption_count,omitempty" yaml:"exemption_count,omitempty" validate:"omitempty,gte=0"`
}

type ImpactScore struct {
	SecurityImpact      string `json:"security_impact"`
	CostImpact          string `json:"cost_impact"`
	ComplianceImpact    string `json:"compliance_impact"`
	OperationalOverhead string `json:"operational_overhead"`
	RiskLevel           string `json:"risk_level"`
	Recommendation      string `json:"recommendation,omitempty"`
}

type ScoredAssignment struct {
	Assignment
	Key   string      `json:"key"`
	Score ImpactScore `json:"score"`
}

type ClassifyRequest struct {
	Assignments []Assignment `json:"assignments" yaml:"assignments" validate:"required,dive"`
}

type ClassifyResponse struct {
	Assignments []ScoredAssignment `json:"assignments"`
}
