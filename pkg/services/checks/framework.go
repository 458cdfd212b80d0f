package checks

import (
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/services/compliance"
	"github.com/de-tools/governance-atlas/pkg/services/exemption"
)

const (
	CheckInitiativeExists   = "P1.01"
	CheckInitiativeAssigned = "P1.02"
	CheckControlGroupPrefix = "P1.03."
	CheckComplianceState    = "P1.04"
	CheckExemptionReview    = "P1.05"
)

// FrameworkFacts is everything the phase-1 checks read. Collaborators gather it.
type FrameworkFacts struct {
	InitiativeName       string
	InitiativeFound      bool
	InitiativeAssignment *domain.ScoredAssignment // nil when not assigned anywhere
	Compliance           []compliance.GroupCompliance
	Exemptions           []domain.ExemptionRecord
	AsOf                 time.Time
	ExpiryWarning        time.Duration
}

// FrameworkCatalog builds the phase-1 checks for the given control groups.
// Groups without controls get no check.
func FrameworkCatalog(groups []domain.ControlGroup) (*Catalog, error) {
	checks := []Check{
		{
			ID:       CheckInitiativeExists,
			Name:     "Initiative definition exists",
			Evaluate: evaluateInitiativeExists,
		},
		{
			ID:        CheckInitiativeAssigned,
			Name:      "Initiative is assigned",
			DependsOn: []string{CheckInitiativeExists},
			Evaluate:  evaluateInitiativeAssigned,
		},
	}

	seen := map[string]struct{}{}
	for _, g := range groups {
		groupID := g.Key()
		if _, dup := seen[groupID]; dup || len(g.Controls) == 0 {
			continue
		}
		seen[groupID] = struct{}{}
		checks = append(checks, Check{
			ID:        CheckControlGroupPrefix + groupID,
			Name:      fmt.Sprintf("Control group: %s", g.Name),
			DependsOn: []string{CheckInitiativeExists},
			Evaluate: func(f FrameworkFacts) (domain.TestStatus, string) {
				return evaluateControlGroup(f, groupID)
			},
		})
	}

	checks = append(checks,
		Check{
			ID:        CheckComplianceState,
			Name:      "Initiative compliance state",
			DependsOn: []string{CheckInitiativeAssigned},
			Evaluate:  evaluateComplianceState,
		},
		Check{
			ID:       CheckExemptionReview,
			Name:     "Exemption review",
			Evaluate: evaluateExemptions,
		},
	)

	return NewCatalog(checks)
}

func evaluateInitiativeExists(f FrameworkFacts) (domain.TestStatus, string) {
	if !f.InitiativeFound {
		return domain.TestFail, fmt.Sprintf("Initiative %q was not found in the tenant.", f.InitiativeName)
	}
	return domain.TestPass, fmt.Sprintf("Initiative %q found.", f.InitiativeName)
}

func evaluateInitiativeAssigned(f FrameworkFacts) (domain.TestStatus, string) {
	a := f.InitiativeAssignment
	if a == nil {
		return domain.TestFail, fmt.Sprintf("Initiative %q is not assigned at any scope.", f.InitiativeName)
	}
	if !a.Record.Enforced() {
		return domain.TestWarn, fmt.Sprintf("Initiative assigned at %s in DoNotEnforce mode.", a.Record.Scope())
	}
	return domain.TestPass, fmt.Sprintf("Initiative assigned at %s.", a.Record.Scope())
}

func evaluateControlGroup(f FrameworkFacts, groupID string) (domain.TestStatus, string) {
	for _, gc := range f.Compliance {
		if gc.Group.Key() != groupID {
			continue
		}
		s := gc.Summary()
		switch {
		case s.Missing > 0:
			return domain.TestFail, fmt.Sprintf("%d of %d controls missing: %s.", s.Missing, s.Total, strings.Join(controlsIn(gc, domain.ComplianceMissing), ", "))
		case s.NotEnforced > 0:
			return domain.TestWarn, fmt.Sprintf("%d of %d controls deployed but not enforced: %s.", s.NotEnforced, s.Total, strings.Join(controlsIn(gc, domain.ComplianceNotEnforced), ", "))
		default:
			return domain.TestPass, fmt.Sprintf("All %d controls deployed and enforced.", s.Total)
		}
	}
	return domain.TestSkip, "No compliance data for this control group."
}

func controlsIn(gc compliance.GroupCompliance, state domain.ComplianceState) []string {
	var out []string
	for _, st := range gc.Statuses {
		if st.State == state {
			out = append(out, st.Control)
		}
	}
	return out
}

func evaluateComplianceState(f FrameworkFacts) (domain.TestStatus, string) {
	a := f.InitiativeAssignment
	if a == nil {
		return domain.TestSkip, "Initiative assignment unavailable."
	}
	r := a.Record
	if r.NonCompliantResources > 0 {
		return domain.TestFail, fmt.Sprintf("%d non-compliant resources across %d policies.", r.NonCompliantResources, r.NonCompliantPolicies)
	}
	if r.NonCompliantPolicies > 0 {
		return domain.TestWarn, fmt.Sprintf("%d policies report non-compliance without resource counts.", r.NonCompliantPolicies)
	}
	return domain.TestPass, "No non-compliant resources."
}

func evaluateExemptions(f FrameworkFacts) (domain.TestStatus, string) {
	if len(f.Exemptions) == 0 {
		return domain.TestPass, "No policy exemptions in scope."
	}

	var expired, expiring []string
	for _, e := range f.Exemptions {
		switch {
		case exemption.Expired(e, f.AsOf):
			expired = append(expired, e.DisplayName)
		case exemption.ExpiresWithin(e, f.AsOf, f.ExpiryWarning):
			expiring = append(expiring, e.DisplayName)
		}
	}

	if len(expired) == 0 && len(expiring) == 0 {
		return domain.TestPass, fmt.Sprintf("%d exemptions, none expired or expiring.", len(f.Exemptions))
	}

	var parts []string
	if len(expired) > 0 {
		parts = append(parts, fmt.Sprintf("expired: %s", strings.Join(expired, ", ")))
	}
	if len(expiring) > 0 {
		parts = append(parts, fmt.Sprintf("expiring soon: %s", strings.Join(expiring, ", ")))
	}
	return domain.TestWarn, fmt.Sprintf("%d exemptions need review (%s).", len(expired)+len(expiring), strings.Join(parts, "; "))
}
