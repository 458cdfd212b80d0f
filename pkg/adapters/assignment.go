package adapters

import (
	"strings"

	"github.com/de-tools/governance-atlas/pkg/models/api"
	"github.com/de-tools/governance-atlas/pkg/models/domain"
)

// MapAssignmentApiToDomain converts a wire assignment. Absent optional fields are
// left at their zero value and listed in UnknownFields.
func MapAssignmentApiToDomain(a api.Assignment) domain.PolicyAssignmentRecord {
	r := domain.PolicyAssignmentRecord{
		Name:           a.Name,
		DisplayName:    a.DisplayName,
		DefinitionName: a.DefinitionName,
		PolicyType:     mapPolicyType(a.PolicyType),
		EffectSummary:  a.EffectSummary,
		ScopeType:      domain.ScopeType(a.ScopeType),
		ScopeName:      a.ScopeName,
	}

	if a.EffectType != nil {
		r.Effect = domain.ParseEffect(*a.EffectType)
	} else {
		r.UnknownFields = append(r.UnknownFields, domain.FieldEffect)
	}
	if a.EnforcementMode != nil {
		r.EnforcementMode = mapEnforcementMode(*a.EnforcementMode)
	} else {
		r.EnforcementMode = domain.EnforcementDefault
		r.UnknownFields = append(r.UnknownFields, domain.FieldEnforcementMode)
	}
	if a.NonCompliantResources != nil {
		r.NonCompliantResources = *a.NonCompliantResources
	} else {
		r.UnknownFields = append(r.UnknownFields, domain.FieldNonCompliantResources)
	}
	if a.NonCompliantPolicies != nil {
		r.NonCompliantPolicies = *a.NonCompliantPolicies
	} else {
		r.UnknownFields = append(r.UnknownFields, domain.FieldNonCompliantPolicies)
	}
	if a.Category != nil {
		r.Category = *a.Category
	} else {
		r.UnknownFields = append(r.UnknownFields, domain.FieldCategory)
	}
	if a.ExemptionCount != nil {
		r.ExemptionCount = *a.ExemptionCount
	} else {
		r.UnknownFields = append(r.UnknownFields, domain.FieldExemptionCount)
	}

	return r
}

func MapAssignmentDomainToApi(r domain.PolicyAssignmentRecord) api.Assignment {
	a := api.Assignment{
		Name:           r.Name,
		DisplayName:    r.DisplayName,
		DefinitionName: r.DefinitionName,
		PolicyType:     string(r.PolicyType),
		EffectSummary:  r.EffectSummary,
		ScopeType:      string(r.ScopeType),
		ScopeName:      r.ScopeName,
	}

	if r.FieldKnown(domain.FieldEffect) {
		a.EffectType = ptr(string(r.Effect))
	}
	if r.FieldKnown(domain.FieldEnforcementMode) {
		a.EnforcementMode = ptr(string(r.EnforcementMode))
	}
	if r.FieldKnown(domain.FieldNonCompliantResources) {
		a.NonCompliantResources = ptr(r.NonCompliantResources)
	}
	if r.FieldKnown(domain.FieldNonCompliantPolicies) {
		a.NonCompliantPolicies = ptr(r.NonCompliantPolicies)
	}
	if r.FieldKnown(domain.FieldCategory) {
		a.Category = ptr(r.Category)
	}
	if r.FieldKnown(domain.FieldExemptionCount) {
		a.ExemptionCount = ptr(r.ExemptionCount)
	}

	return a
}

func MapAssignmentsApiToDomain(items []api.Assignment) []domain.PolicyAssignmentRecord {
	res := make([]domain.PolicyAssignmentRecord, 0, len(items))
	for _, a := range items {
		res = append(res, MapAssignmentApiToDomain(a))
	}
	return res
}

func MapImpactScoreDomainToApi(s domain.ImpactScore) api.ImpactScore {
	return api.ImpactScore{
		SecurityImpact:      s.SecurityImpact.String(),
		CostImpact:          s.CostImpact.String(),
		ComplianceImpact:    s.ComplianceImpact.String(),
		OperationalOverhead: s.OperationalOverhead.String(),
		RiskLevel:           s.RiskLevel.String(),
		Recommendation:      s.Recommendation,
	}
}

// MapImpactScoreApiToDomain replaces each missing or unrecognised level with the
// matching level of domain.DefaultImpactScore and returns the names of those fields.
func MapImpactScoreApiToDomain(s api.ImpactScore) (domain.ImpactScore, []string) {
	var (
		res      = domain.DefaultImpactScore()
		fallback []string
	)
	impact := func(field, v string, dst *domain.ImpactLevel) {
		if l, err := domain.ParseImpactLevel(v); err == nil {
			*dst = l
			return
		}
		fallback = append(fallback, field)
	}
	impact("security_impact", s.SecurityImpact, &res.SecurityImpact)
	impact("cost_impact", s.CostImpact, &res.CostImpact)
	impact("compliance_impact", s.ComplianceImpact, &res.ComplianceImpact)
	impact("operational_overhead", s.OperationalOverhead, &res.OperationalOverhead)
	if r, err := domain.ParseRiskLevel(s.RiskLevel); err == nil {
		res.RiskLevel = r
	} else {
		fallback = append(fallback, "risk_level")
	}
	res.Recommendation = s.Recommendation
	return res, fallback
}

func MapScoredAssignmentDomainToApi(a domain.ScoredAssignment) api.ScoredAssignment {
	return api.ScoredAssignment{
		Assignment: MapAssignmentDomainToApi(a.Record),
		Key:        a.Record.Key(),
		Score:      MapImpactScoreDomainToApi(a.Score),
	}
}

func MapScoredAssignmentsDomainToApi(items []domain.ScoredAssignment) []api.ScoredAssignment {
	res := make([]api.ScoredAssignment, 0, len(items))
	for _, a := range items {
		res = append(res, MapScoredAssignmentDomainToApi(a))
	}
	return res
}

// mapPolicyType leaves an absent type empty.
func mapPolicyType(s string) domain.PolicyType {
	switch {
	case s == "":
		return ""
	case strings.EqualFold(s, string(domain.PolicyTypeInitiative)), strings.EqualFold(s, "PolicySet"):
		return domain.PolicyTypeInitiative
	default:
		return domain.PolicyTypePolicy
	}
}

func mapEnforcementMode(s string) domain.EnforcementMode {
	if strings.EqualFold(s, string(domain.EnforcementDoNotEnforce)) {
		return domain.EnforcementDoNotEnforce
	}
	return domain.EnforcementDefault
}

func ptr[T any](v T) *T {
	return &v
}
