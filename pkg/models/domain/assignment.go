package domain

import "strings"

type PolicyType string

const (
	PolicyTypePolicy     PolicyType = "Policy"
	PolicyTypeInitiative PolicyType = "Initiative"
)

type Effect string

const (
	EffectDeny              Effect = "Deny"
	EffectAudit             Effect = "Audit"
	EffectAuditIfNotExists  Effect = "AuditIfNotExists"
	EffectDeployIfNotExists Effect = "DeployIfNotExists"
	EffectModify            Effect = "Modify"
	EffectDisabled          Effect = "Disabled"
	EffectParameterised     Effect = "Parameterised"
	EffectMultiple          Effect = "Multiple"
)

// Variable reports whether the effect is resolved per member policy rather than fixed.
func (e Effect) Variable() bool {
	return e == EffectParameterised || e == EffectMultiple
}

type EnforcementMode string

const (
	EnforcementDefault      EnforcementMode = "Default"
	EnforcementDoNotEnforce EnforcementMode = "DoNotEnforce"
)

type ScopeType string

const (
	ScopeManagementGroup ScopeType = "ManagementGroup"
	ScopeSubscription    ScopeType = "Subscription"
	ScopeResourceGroup   ScopeType = "ResourceGroup"
	ScopeResource        ScopeType = "Resource"
)

// Field names used for change tracking and for UnknownFields.
const (
	FieldEffect                = "effectType"
	FieldEnforcementMode       = "enforcementMode"
	FieldNonCompliantResources = "nonCompliantResources"
	FieldNonCompliantPolicies  = "nonCompliantPolicies"
	FieldCategory              = "category"
	FieldExemptionCount        = "exemptionCount"
)

// PolicyAssignmentRecord is a normalized policy assignment with its definition metadata already resolved.
type PolicyAssignmentRecord struct {
	Name                  string
	DisplayName           string // resolved display name, never a definition id
	DefinitionName        string // used for compliance matching only
	PolicyType            PolicyType
	Category              string
	Effect                Effect
	EffectSummary         string // "Deny, Audit, DeployIfNotExists" for initiatives
	EnforcementMode       EnforcementMode
	ScopeType             ScopeType
	ScopeName             string
	NonCompliantResources int
	NonCompliantPolicies  int
	ExemptionCount        int

	// UnknownFields lists fields the source payload did not carry (older snapshot schema).
	UnknownFields []string
}

// Scope renders the assignment scope used in composite keys.
func (r PolicyAssignmentRecord) Scope() string {
	return FormatScope(r.ScopeType, r.ScopeName)
}

func (r PolicyAssignmentRecord) Key() string {
	return CompositeKey(r.Name, r.Scope())
}

func (r PolicyAssignmentRecord) Enforced() bool {
	return r.EnforcementMode != EnforcementDoNotEnforce
}

func (r PolicyAssignmentRecord) FieldKnown(field string) bool {
	for _, f := range r.UnknownFields {
		if f == field {
			return false
		}
	}
	return true
}

// ScoredAssignment pairs an input record with its classification.
type ScoredAssignment struct {
	Record PolicyAssignmentRecord
	Score  ImpactScore
}

// CompositeKey disambiguates identically named entities at different scopes.
func CompositeKey(name, scope string) string {
	return name + "|||" + scope
}

func FormatScope(scopeType ScopeType, scopeName string) string {
	if scopeType == "" {
		return scopeName
	}
	return string(scopeType) + ":" + scopeName
}

// ParseEffect maps free-form effect text to a known effect. Unknown text is returned as-is.
func ParseEffect(s string) Effect {
	s = strings.TrimSpace(s)
	for _, e := range []Effect{
		EffectDeny, EffectAudit, EffectAuditIfNotExists, EffectDeployIfNotExists,
		EffectModify, EffectDisabled, EffectParameterised, EffectMultiple,
	} {
		if strings.EqualFold(s, string(e)) {
			return e
		}
	}
	return Effect(s)
}
