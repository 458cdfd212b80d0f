package assessment

import (
	"context"
	"testing"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/services/checks"
	"github.com/de-tools/governance-atlas/pkg/services/impact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) Service {
	classifier, err := impact.NewDefaultClassifier()
	require.NoError(t, err)
	svc, err := NewService(classifier, DefaultSettings())
	require.NoError(t, err)
	return svc
}

func tenantInput() Input {
	return Input{
		SourceTimestamp: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		InitiativeName:  "UK OFFICIAL and UK NHS",
		InitiativeFound: true,
		Groups: []domain.ControlGroup{
			{ID: "boundary", Name: "Boundary firewalls", Controls: []string{"Deny public IP addresses", "Network Watcher should be enabled"}},
		},
		Assignments: []domain.PolicyAssignmentRecord{
			{
				Name:            "uk-official",
				DisplayName:     "UK OFFICIAL and UK NHS",
				PolicyType:      domain.PolicyTypeInitiative,
				Category:        "Regulatory Compliance",
				Effect:          domain.EffectParameterised,
				EnforcementMode: domain.EnforcementDefault,
				ScopeType:       domain.ScopeManagementGroup,
				ScopeName:       "root",
			},
			{
				Name:            "Deny-PublicIP",
				DisplayName:     "Deny public IP addresses",
				PolicyType:      domain.PolicyTypePolicy,
				Category:        "Network",
				Effect:          domain.EffectDeny,
				EnforcementMode: domain.EnforcementDefault,
				ScopeType:       domain.ScopeManagementGroup,
				ScopeName:       "corp",
			},
		},
		Facts: checks.ScenarioFacts{
			Identity: &checks.IdentityFacts{ConditionalAccessMFA: true, LegacyAuthBlocked: true},
		},
	}
}

func TestService_Run(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Run(context.Background(), tenantInput())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), res.Snapshot.SourceTimestamp)
	require.Len(t, res.Snapshot.Assignments, 2)
	assert.Equal(t, "Deny-PublicIP", res.Snapshot.Assignments[1].Record.Name)
	assert.Equal(t, domain.ImpactHigh, res.Snapshot.Assignments[1].Score.SecurityImpact)

	require.Len(t, res.Compliance, 1)
	summary := res.Compliance[0].Summary()
	assert.Equal(t, 1, summary.Enforced)
	assert.Equal(t, 1, summary.Missing)

	statuses := map[string]domain.TestStatus{}
	for _, tr := range res.Snapshot.TestResults {
		statuses[tr.ID] = tr.Status
	}
	assert.Equal(t, domain.TestPass, statuses[checks.CheckInitiativeExists])
	assert.Equal(t, domain.TestPass, statuses[checks.CheckInitiativeAssigned])
	assert.Equal(t, domain.TestFail, statuses[checks.CheckControlGroupPrefix+"boundary"])
	assert.Equal(t, domain.TestPass, statuses["TC4.1"])
	assert.Equal(t, domain.TestSkip, statuses["TC1.1"])
	assert.Len(t, res.Snapshot.TestResults, len(res.Tests.Flatten()))
}

func TestService_Compare(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	prev, err := svc.Run(ctx, tenantInput())
	require.NoError(t, err)

	in := tenantInput()
	in.SourceTimestamp = in.SourceTimestamp.Add(7 * 24 * time.Hour)
	in.Assignments[1].NonCompliantResources = 5
	cur, err := svc.Run(ctx, in)
	require.NoError(t, err)

	report := svc.Compare(ctx, prev.Snapshot, cur.Snapshot)
	require.Len(t, report.ChangedAssignments, 1)
	assert.Equal(t, []domain.FieldChange{{Field: domain.FieldNonCompliantResources, Previous: "0", Current: "5"}},
		report.ChangedAssignments[0].Changes)
	assert.Equal(t, domain.TrendDegrading, report.Trend)
}

func TestFindInitiative(t *testing.T) {
	mk := func(name string, mode domain.EnforcementMode, pt domain.PolicyType) domain.ScoredAssignment {
		return domain.ScoredAssignment{Record: domain.PolicyAssignmentRecord{
			Name: name, DisplayName: "CIS Benchmark", PolicyType: pt, EnforcementMode: mode,
		}}
	}
	assignments := []domain.ScoredAssignment{
		mk("policy", domain.EnforcementDefault, domain.PolicyTypePolicy),
		mk("audit-only", domain.EnforcementDoNotEnforce, domain.PolicyTypeInitiative),
		mk("enforced", domain.EnforcementDefault, domain.PolicyTypeInitiative),
	}

	got := findInitiative(assignments, "cis benchmark")
	require.NotNil(t, got)
	assert.Equal(t, "enforced", got.Record.Name)

	got = findInitiative(assignments[:2], "CIS Benchmark")
	require.NotNil(t, got)
	assert.Equal(t, "audit-only", got.Record.Name)

	assert.Nil(t, findInitiative(assignments, ""))
	assert.Nil(t, findInitiative(assignments, "NIST"))
}

func TestNewService_NilClassifier(t *testing.T) {
	_, err := NewService(nil, DefaultSettings())
	assert.Error(t, err)
}
