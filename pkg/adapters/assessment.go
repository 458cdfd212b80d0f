package adapters

import (
	"github.com/de-tools/governance-atlas/pkg/models/api"
	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/services/checks"
	"github.com/de-tools/governance-atlas/pkg/services/compliance"
)

func MapControlGroupsApiToDomain(groups []api.ControlGroup) []domain.ControlGroup {
	res := make([]domain.ControlGroup, 0, len(groups))
	for _, g := range groups {
		res = append(res, domain.ControlGroup{
			ID:       g.ID,
			Name:     g.Name,
			Controls: append([]string(nil), g.Controls...),
		})
	}
	return res
}

func MapGroupComplianceDomainToApi(gc compliance.GroupCompliance) api.GroupCompliance {
	summary := gc.Summary()
	res := api.GroupCompliance{
		ID:          gc.Group.Key(),
		Name:        gc.Group.Name,
		Total:       summary.Total,
		Enforced:    summary.Enforced,
		NotEnforced: summary.NotEnforced,
		Missing:     summary.Missing,
		Coverage:    summary.Coverage(),
		Controls:    make([]api.ControlStatus, 0, len(gc.Statuses)),
	}
	for _, s := range gc.Statuses {
		cs := api.ControlStatus{
			Control:   s.Control,
			State:     string(s.State),
			MatchedBy: s.MatchedBy,
			Matches:   s.Matches,
		}
		if s.Assignment != nil {
			cs.Assignment = s.Assignment.Record.Key()
		}
		res.Controls = append(res.Controls, cs)
	}
	return res
}

func MapComplianceDomainToApi(items []compliance.GroupCompliance) []api.GroupCompliance {
	res := make([]api.GroupCompliance, 0, len(items))
	for _, gc := range items {
		res = append(res, MapGroupComplianceDomainToApi(gc))
	}
	return res
}

// MapScenarioFactsApiToDomain keeps omitted sections nil so their subtests skip.
func MapScenarioFactsApiToDomain(f api.ScenarioFacts) checks.ScenarioFacts {
	var res checks.ScenarioFacts

	if f.Exposure != nil {
		exposure := &checks.ExposureFacts{Findings: make([]checks.ExposureFinding, 0, len(f.Exposure.Findings))}
		for _, e := range f.Exposure.Findings {
			exposure.Findings = append(exposure.Findings, checks.ExposureFinding{
				Resource: e.Resource,
				PublicIP: e.PublicIP,
				Port:     e.Port,
				Protocol: e.Protocol,
				Source:   e.Source,
			})
		}
		res.Exposure = exposure
	}

	if f.Patching != nil {
		patching := &checks.PatchFacts{
			Vulnerabilities:     make([]checks.VulnerabilityFinding, 0, len(f.Patching.Vulnerabilities)),
			UnsupportedSoftware: append([]string(nil), f.Patching.UnsupportedSoftware...),
		}
		for _, v := range f.Patching.Vulnerabilities {
			patching.Vulnerabilities = append(patching.Vulnerabilities, checks.VulnerabilityFinding{
				ID:       v.ID,
				Resource: v.Resource,
				CVSS:     v.CVSS,
				AgeDays:  v.AgeDays,
			})
		}
		res.Patching = patching
	}

	if f.Malware != nil {
		res.Malware = &checks.MalwareFacts{UnprotectedMachines: append([]string(nil), f.Malware.UnprotectedMachines...)}
	}

	if f.Identity != nil {
		res.Identity = &checks.IdentityFacts{
			ConditionalAccessMFA: f.Identity.ConditionalAccessMFA,
			LegacyAuthBlocked:    f.Identity.LegacyAuthBlocked,
			AdminsWithoutMFA:     append([]string(nil), f.Identity.AdminsWithoutMFA...),
			UsersWithoutMFA:      append([]string(nil), f.Identity.UsersWithoutMFA...),
		}
	}

	if f.Access != nil {
		access := &checks.AccessFacts{PrivilegedAssignments: make([]checks.RoleAssignment, 0, len(f.Access.PrivilegedAssignments))}
		for _, ra := range f.Access.PrivilegedAssignments {
			access.PrivilegedAssignments = append(access.PrivilegedAssignments, checks.RoleAssignment{
				Principal: ra.Principal,
				Role:      ra.Role,
				Scope:     ra.Scope,
				Guest:     ra.Guest,
			})
		}
		res.Access = access
	}

	return res
}

func MapTestCountsDomainToApi(counts map[domain.TestStatus]int) map[string]int {
	res := make(map[string]int, len(counts))
	for st, n := range counts {
		res[string(st)] = n
	}
	return res
}
