package checks

import (
	"context"
	"testing"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/services/compliance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusByID(results []domain.TestResult) map[string]domain.TestStatus {
	out := make(map[string]domain.TestStatus, len(results))
	for _, r := range results {
		out[r.ID] = r.Status
	}
	return out
}

func TestNewCatalog(t *testing.T) {
	noop := func(FrameworkFacts) (domain.TestStatus, string) { return domain.TestPass, "" }

	t.Run("topological order keeps declaration order", func(t *testing.T) {
		catalog, err := NewCatalog([]Check{
			{ID: "c", DependsOn: []string{"b"}, Evaluate: noop},
			{ID: "a", Evaluate: noop},
			{ID: "b", DependsOn: []string{"a"}, Evaluate: noop},
			{ID: "d", Evaluate: noop},
		})
		require.NoError(t, err)

		var ids []string
		for _, c := range catalog.Checks() {
			ids = append(ids, c.ID)
		}
		assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
	})

	t.Run("cycle", func(t *testing.T) {
		_, err := NewCatalog([]Check{
			{ID: "a", DependsOn: []string{"b"}, Evaluate: noop},
			{ID: "b", DependsOn: []string{"a"}, Evaluate: noop},
		})
		assert.Error(t, err)
	})

	t.Run("unknown dependency", func(t *testing.T) {
		_, err := NewCatalog([]Check{{ID: "a", DependsOn: []string{"missing"}, Evaluate: noop}})
		assert.Error(t, err)
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := NewCatalog([]Check{{ID: "a", Evaluate: noop}, {ID: "a", Evaluate: noop}})
		assert.Error(t, err)
	})
}

func TestCatalog_SkipCascades(t *testing.T) {
	called := map[string]bool{}
	eval := func(id string, st domain.TestStatus) func(FrameworkFacts) (domain.TestStatus, string) {
		return func(FrameworkFacts) (domain.TestStatus, string) {
			called[id] = true
			return st, ""
		}
	}

	catalog, err := NewCatalog([]Check{
		{ID: "root", Evaluate: eval("root", domain.TestFail)},
		{ID: "child", DependsOn: []string{"root"}, Evaluate: eval("child", domain.TestPass)},
		{ID: "grandchild", DependsOn: []string{"child"}, Evaluate: eval("grandchild", domain.TestPass)},
		{ID: "warned", Evaluate: eval("warned", domain.TestWarn)},
		{ID: "after-warn", DependsOn: []string{"warned"}, Evaluate: eval("after-warn", domain.TestPass)},
	})
	require.NoError(t, err)

	got := statusByID(catalog.Run(context.Background(), FrameworkFacts{}))
	assert.Equal(t, domain.TestFail, got["root"])
	assert.Equal(t, domain.TestSkip, got["child"])
	assert.Equal(t, domain.TestSkip, got["grandchild"])
	assert.Equal(t, domain.TestPass, got["after-warn"])
	assert.False(t, called["child"])
	assert.False(t, called["grandchild"])
}

func frameworkGroups() []domain.ControlGroup {
	return []domain.ControlGroup{
		{ID: "fw", Name: "Firewalls & Internet Gateways", Controls: []string{"Management ports should be closed"}},
		{ID: "sc", Name: "Secure Configuration", Controls: []string{"Require TLS 1.2"}},
		{ID: "none", Name: "Placeholder"},
	}
}

func TestFrameworkCatalog_InitiativeMissing(t *testing.T) {
	catalog, err := FrameworkCatalog(frameworkGroups())
	require.NoError(t, err)

	results := catalog.Run(context.Background(), FrameworkFacts{InitiativeName: "UK OFFICIAL", InitiativeFound: false})
	got := statusByID(results)

	assert.Equal(t, domain.TestFail, got[CheckInitiativeExists])
	for _, id := range []string{CheckInitiativeAssigned, CheckControlGroupPrefix + "fw", CheckControlGroupPrefix + "sc", CheckComplianceState} {
		assert.Equal(t, domain.TestSkip, got[id], id)
	}
	assert.Equal(t, domain.TestPass, got[CheckExemptionReview])
	_, hasPlaceholder := got[CheckControlGroupPrefix+"none"]
	assert.False(t, hasPlaceholder)
}

func TestFrameworkCatalog_Evaluations(t *testing.T) {
	groups := frameworkGroups()
	initiative := domain.ScoredAssignment{Record: domain.PolicyAssignmentRecord{
		Name:                  "UK-OFFICIAL",
		EnforcementMode:       domain.EnforcementDefault,
		ScopeType:             domain.ScopeManagementGroup,
		ScopeName:             "root",
		NonCompliantResources: 4,
		NonCompliantPolicies:  2,
	}}
	ports := domain.ScoredAssignment{Record: domain.PolicyAssignmentRecord{
		Name: "Deny-MgmtPorts", DisplayName: "Management ports should be closed", EnforcementMode: domain.EnforcementDoNotEnforce,
	}}

	asOf := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	expired := asOf.Add(-24 * time.Hour)

	facts := FrameworkFacts{
		InitiativeName:       "UK OFFICIAL",
		InitiativeFound:      true,
		InitiativeAssignment: &initiative,
		Compliance:           compliance.MapCompliance(context.Background(), groups, []domain.ScoredAssignment{ports}),
		Exemptions:           []domain.ExemptionRecord{{ID: "ex1", DisplayName: "legacy", ExpiresOn: &expired}},
		AsOf:                 asOf,
		ExpiryWarning:        30 * 24 * time.Hour,
	}

	catalog, err := FrameworkCatalog(groups)
	require.NoError(t, err)
	results := catalog.Run(context.Background(), facts)
	got := statusByID(results)

	assert.Equal(t, domain.TestPass, got[CheckInitiativeExists])
	assert.Equal(t, domain.TestPass, got[CheckInitiativeAssigned])
	assert.Equal(t, domain.TestWarn, got[CheckControlGroupPrefix+"fw"])
	assert.Equal(t, domain.TestFail, got[CheckControlGroupPrefix+"sc"])
	assert.Equal(t, domain.TestFail, got[CheckComplianceState])
	assert.Equal(t, domain.TestWarn, got[CheckExemptionReview])

	for _, r := range results {
		assert.True(t, r.Status.Terminal(), r.ID)
		assert.NotEmpty(t, r.Detail, r.ID)
	}
}

func TestFrameworkCatalog_NotAssigned(t *testing.T) {
	catalog, err := FrameworkCatalog(nil)
	require.NoError(t, err)

	got := statusByID(catalog.Run(context.Background(), FrameworkFacts{InitiativeFound: true}))
	assert.Equal(t, domain.TestFail, got[CheckInitiativeAssigned])
	assert.Equal(t, domain.TestSkip, got[CheckComplianceState])
}
