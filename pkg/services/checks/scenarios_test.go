package checks

import (
	"context"
	"testing"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subtestStatus(t *testing.T, results []CaseResult, id string) domain.TestStatus {
	t.Helper()
	for _, c := range results {
		for _, s := range c.Subtests {
			if s.ID == id {
				return s.Status
			}
		}
	}
	t.Fatalf("subtest %s not found", id)
	return domain.TestNotRun
}

func TestRunScenarios_PatchThresholds(t *testing.T) {
	thresholds := DefaultScenarioThresholds()

	tests := []struct {
		name   string
		vulns  []VulnerabilityFinding
		expect domain.TestStatus
	}{
		{"no findings", nil, domain.TestPass},
		{"below cvss threshold", []VulnerabilityFinding{{ID: "CVE-1", CVSS: 6.9, AgeDays: 90}}, domain.TestPass},
		{"critical within window", []VulnerabilityFinding{{ID: "CVE-2", CVSS: 7.0, AgeDays: 14}}, domain.TestWarn},
		{"critical overdue", []VulnerabilityFinding{{ID: "CVE-3", CVSS: 9.8, AgeDays: 15}}, domain.TestFail},
		{"mixed", []VulnerabilityFinding{{ID: "CVE-4", CVSS: 8.1, AgeDays: 3}, {ID: "CVE-5", CVSS: 7.5, AgeDays: 30}}, domain.TestFail},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			facts := ScenarioFacts{Patching: &PatchFacts{Vulnerabilities: tc.vulns}}
			results := RunScenarios(context.Background(), ScenarioCatalog(), facts, thresholds)
			assert.Equal(t, tc.expect, subtestStatus(t, results, "TC2.1"))
		})
	}
}

func TestRunScenarios_ManualSubtests(t *testing.T) {
	results := RunScenarios(context.Background(), ScenarioCatalog(), ScenarioFacts{}, DefaultScenarioThresholds())

	for _, c := range results {
		for _, s := range c.Subtests {
			if _, manual := manualSubtests[s.ID]; manual {
				assert.Equal(t, domain.TestManual, s.Status, s.ID)
			} else {
				assert.Equal(t, domain.TestSkip, s.Status, "%s without facts", s.ID)
			}
		}
		assert.Equal(t, domain.TestManual, c.Status, c.ID)
	}
}

func TestRunScenarios_FullFacts(t *testing.T) {
	facts := ScenarioFacts{
		Exposure: &ExposureFacts{Findings: []ExposureFinding{
			{Resource: "vm-jump", Port: 3389, Source: "Internet"},
			{Resource: "app-gw", Port: 443, Source: "*"},
			{Resource: "vm-internal", Port: 22, Source: "10.0.0.0/8"},
		}},
		Patching: &PatchFacts{},
		Malware:  &MalwareFacts{},
		Identity: &IdentityFacts{ConditionalAccessMFA: true, LegacyAuthBlocked: true, UsersWithoutMFA: []string{"bob"}},
		Access: &AccessFacts{PrivilegedAssignments: []RoleAssignment{
			{Principal: "a", Role: "Owner", Scope: "/subscriptions/1"},
			{Principal: "b", Role: "Owner", Scope: "/subscriptions/1"},
			{Principal: "c", Role: "owner", Scope: "/subscriptions/1"},
			{Principal: "d", Role: "Owner", Scope: "/subscriptions/1"},
		}},
	}

	results := RunScenarios(context.Background(), ScenarioCatalog(), facts, DefaultScenarioThresholds())
	require.Len(t, results, 5)

	assert.Equal(t, domain.TestFail, subtestStatus(t, results, "TC1.1"))
	assert.Equal(t, domain.TestWarn, subtestStatus(t, results, "TC1.2"))
	assert.Equal(t, domain.TestPass, subtestStatus(t, results, "TC2.2"))
	assert.Equal(t, domain.TestPass, subtestStatus(t, results, "TC3.1"))
	assert.Equal(t, domain.TestWarn, subtestStatus(t, results, "TC4.1"))
	assert.Equal(t, domain.TestPass, subtestStatus(t, results, "TC4.2"))
	assert.Equal(t, domain.TestPass, subtestStatus(t, results, "TC5.1"))
	assert.Equal(t, domain.TestWarn, subtestStatus(t, results, "TC5.2"))

	assert.Equal(t, domain.TestFail, results[0].Status)
	assert.Equal(t, domain.TestManual, results[1].Status)
	assert.Equal(t, domain.TestWarn, results[3].Status)
	assert.Equal(t, "1 FAIL, 1 WARN, 1 MANUAL", results[0].Detail)
}

func TestAggregate(t *testing.T) {
	r := func(statuses ...domain.TestStatus) []domain.TestResult {
		out := make([]domain.TestResult, 0, len(statuses))
		for _, s := range statuses {
			out = append(out, domain.TestResult{Status: s})
		}
		return out
	}

	assert.Equal(t, domain.TestSkip, Aggregate(nil))
	assert.Equal(t, domain.TestPass, Aggregate(r(domain.TestPass, domain.TestSkip)))
	assert.Equal(t, domain.TestManual, Aggregate(r(domain.TestPass, domain.TestManual)))
	assert.Equal(t, domain.TestWarn, Aggregate(r(domain.TestManual, domain.TestWarn, domain.TestPass)))
	assert.Equal(t, domain.TestFail, Aggregate(r(domain.TestWarn, domain.TestFail)))
}

func TestOrchestrate(t *testing.T) {
	res, err := Orchestrate(context.Background(), Input{
		Groups:     frameworkGroups(),
		Framework:  FrameworkFacts{InitiativeFound: false},
		Thresholds: DefaultScenarioThresholds(),
	})
	require.NoError(t, err)

	flat := res.Flatten()
	// two populated groups give six framework checks; five cases carry three subtests each
	assert.Len(t, res.Framework, 6)
	assert.Len(t, flat, 6+5*4)
	assert.Equal(t, CheckInitiativeExists, flat[0].ID)
	assert.Equal(t, "TC1", flat[6].ID)
	assert.Equal(t, "TC1.1", flat[7].ID)

	counts := res.Counts()
	assert.Equal(t, 1, counts[domain.TestFail])
	assert.Equal(t, 6+5, counts[domain.TestManual])
}
