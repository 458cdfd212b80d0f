package adapters

import (
	"github.com/de-tools/governance-atlas/pkg/models/api"
	"github.com/de-tools/governance-atlas/pkg/models/domain"
)

func MapPostureScoreDomainToApi(s domain.PostureScore) api.PostureScore {
	return api.PostureScore{
		EnforcementRate: s.EnforcementRate,
		ComplianceRate:  s.ComplianceRate,
		RiskCoverage:    s.RiskCoverage,
		Composite:       s.Composite,
	}
}

func MapDeltaReportDomainToApi(r domain.DeltaReport) api.DeltaReport {
	res := api.DeltaReport{
		PreviousTimestamp:  r.PreviousTimestamp,
		CurrentTimestamp:   r.CurrentTimestamp,
		NewAssignments:     MapScoredAssignmentsDomainToApi(r.NewAssignments),
		RemovedAssignments: MapScoredAssignmentsDomainToApi(r.RemovedAssignments),
		ChangedAssignments: make([]api.AssignmentChange, 0, len(r.ChangedAssignments)),
		EffectShifts:       make([]api.EffectShift, 0, len(r.EffectShifts)),
		EffectShiftSummary: r.EffectShifts.String(),
		NewExemptions:      MapExemptionsDomainToApi(r.Exemptions.New),
		RemovedExemptions:  MapExemptionsDomainToApi(r.Exemptions.Removed),
		PreviousScore:      MapPostureScoreDomainToApi(r.PreviousScore),
		CurrentScore:       MapPostureScoreDomainToApi(r.CurrentScore),
		Trend:              string(r.Trend),
	}
	for _, c := range r.ChangedAssignments {
		changes := make([]api.FieldChange, 0, len(c.Changes))
		for _, fc := range c.Changes {
			changes = append(changes, api.FieldChange{Field: fc.Field, Previous: fc.Previous, Current: fc.Current})
		}
		res.ChangedAssignments = append(res.ChangedAssignments, api.AssignmentChange{
			Key:     c.Key,
			Name:    c.Name,
			Scope:   c.Scope,
			Changes: changes,
		})
	}
	for _, s := range r.EffectShifts {
		res.EffectShifts = append(res.EffectShifts, api.EffectShift{
			Effect:   string(s.Effect),
			Previous: s.Previous,
			Current:  s.Current,
			Delta:    s.Delta,
		})
	}
	return res
}
