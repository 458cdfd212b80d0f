package assessment

import (
	"strings"

	"github.com/de-tools/governance-atlas/pkg/adapters"
	"github.com/de-tools/governance-atlas/pkg/models/api"
	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/services/exemption"
)

// InputFromRequest converts collected tenant state. An exemption without a scope
// whose id is an ARM resource id gets its scope from the id.
func InputFromRequest(req api.AssessmentRequest) Input {
	exemptions := make([]domain.ExemptionRecord, 0, len(req.Exemptions))
	for _, e := range req.Exemptions {
		if e.ScopeName == "" && strings.HasPrefix(e.ID, "/") {
			exemptions = append(exemptions, exemption.FromResourceID(e.ID, exemption.Properties{
				DisplayName: e.DisplayName,
				Category:    e.Category,
				Coverage:    domain.ExemptionCoverage(e.Coverage),
				ExpiresOn:   e.ExpiresOn,
				Description: e.Description,
			}))
			continue
		}
		exemptions = append(exemptions, adapters.MapExemptionApiToDomain(e))
	}

	return Input{
		SourceTimestamp: req.SourceTimestamp,
		InitiativeName:  req.InitiativeName,
		InitiativeFound: req.InitiativeFound,
		Groups:          adapters.MapControlGroupsApiToDomain(req.ControlGroups),
		Assignments:     adapters.MapAssignmentsApiToDomain(req.Assignments),
		Exemptions:      exemptions,
		Facts:           adapters.MapScenarioFactsApiToDomain(req.Facts),
	}
}
