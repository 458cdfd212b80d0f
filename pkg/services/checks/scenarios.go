package checks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

// manualSubtests need physical or interactive verification and are always MANUAL.
var manualSubtests = map[string]struct{}{
	"TC1.3": {},
	"TC2.3": {},
	"TC3.2": {},
	"TC3.3": {},
	"TC4.3": {},
	"TC5.3": {},
}

type Subtest struct {
	ID       string
	Name     string
	Evaluate func(ScenarioFacts, ScenarioThresholds) (domain.TestStatus, string)
}

// Manual reports whether the subtest belongs to the fixed manual set.
func (s Subtest) Manual() bool {
	_, ok := manualSubtests[s.ID]
	return ok
}

type TestCase struct {
	ID       string
	Name     string
	Subtests []Subtest
}

type CaseResult struct {
	domain.TestResult
	Subtests []domain.TestResult
}

const manualDetail = "Requires manual verification by the assessor."

// ScenarioCatalog returns the phase-2 test cases in report order.
func ScenarioCatalog() []TestCase {
	return []TestCase{
		{
			ID:   "TC1",
			Name: "Remote vulnerability assessment",
			Subtests: []Subtest{
				{ID: "TC1.1", Name: "Management ports not exposed to the internet", Evaluate: evaluateManagementPorts},
				{ID: "TC1.2", Name: "Internet-facing endpoints reviewed", Evaluate: evaluatePublicEndpoints},
				{ID: "TC1.3", Name: "External scan by approved scanner"},
			},
		},
		{
			ID:   "TC2",
			Name: "Patching and vulnerability management",
			Subtests: []Subtest{
				{ID: "TC2.1", Name: "High-risk vulnerabilities patched within window", Evaluate: evaluatePatchWindow},
				{ID: "TC2.2", Name: "No unsupported software", Evaluate: evaluateUnsupportedSoftware},
				{ID: "TC2.3", Name: "Authenticated scan of sampled devices"},
			},
		},
		{
			ID:   "TC3",
			Name: "Malware protection",
			Subtests: []Subtest{
				{ID: "TC3.1", Name: "Endpoint protection coverage", Evaluate: evaluateEndpointProtection},
				{ID: "TC3.2", Name: "Malicious email attachments blocked"},
				{ID: "TC3.3", Name: "Malicious website downloads blocked"},
			},
		},
		{
			ID:   "TC4",
			Name: "Multi-factor authentication",
			Subtests: []Subtest{
				{ID: "TC4.1", Name: "MFA enforced by conditional access", Evaluate: evaluateMFA},
				{ID: "TC4.2", Name: "Legacy authentication blocked", Evaluate: evaluateLegacyAuth},
				{ID: "TC4.3", Name: "Interactive sign-in prompts for MFA"},
			},
		},
		{
			ID:   "TC5",
			Name: "Account separation",
			Subtests: []Subtest{
				{ID: "TC5.1", Name: "No guest accounts with privileged roles", Evaluate: evaluateGuestPrivilege},
				{ID: "TC5.2", Name: "Owner count within limit", Evaluate: evaluateOwnerCount},
				{ID: "TC5.3", Name: "Administrative accounts separate from daily use"},
			},
		},
	}
}

// RunScenarios evaluates every test case. Cases are independent; subtests run in order.
func RunScenarios(ctx context.Context, cases []TestCase, facts ScenarioFacts, thresholds ScenarioThresholds) []CaseResult {
	logger := zerolog.Ctx(ctx)
	results := make([]CaseResult, 0, len(cases))

	for _, tc := range cases {
		cr := CaseResult{
			TestResult: domain.TestResult{ID: tc.ID, Name: tc.Name},
			Subtests:   make([]domain.TestResult, 0, len(tc.Subtests)),
		}

		for _, st := range tc.Subtests {
			res := domain.TestResult{ID: st.ID, Name: st.Name}
			switch {
			case st.Manual():
				res.Status, res.Detail = domain.TestManual, manualDetail
			case st.Evaluate == nil:
				res.Status, res.Detail = domain.TestSkip, "No evaluation defined."
			default:
				res.Status, res.Detail = st.Evaluate(facts, thresholds)
			}
			cr.Subtests = append(cr.Subtests, res)
		}

		cr.Status = Aggregate(cr.Subtests)
		cr.Detail = caseDetail(cr.Subtests)
		logger.Debug().Str("case", tc.ID).Str("status", string(cr.Status)).Msg("test case evaluated")
		results = append(results, cr)
	}

	return results
}

var statusRank = map[domain.TestStatus]int{
	domain.TestSkip:   1,
	domain.TestPass:   2,
	domain.TestManual: 3,
	domain.TestWarn:   4,
	domain.TestFail:   5,
}

// Aggregate returns the most severe status: FAIL > WARN > MANUAL > PASS > SKIP.
func Aggregate(results []domain.TestResult) domain.TestStatus {
	worst := domain.TestSkip
	for _, r := range results {
		if statusRank[r.Status] > statusRank[worst] {
			worst = r.Status
		}
	}
	return worst
}

func caseDetail(subtests []domain.TestResult) string {
	counts := map[domain.TestStatus]int{}
	for _, s := range subtests {
		counts[s.Status]++
	}
	var parts []string
	for _, st := range []domain.TestStatus{domain.TestPass, domain.TestFail, domain.TestWarn, domain.TestManual, domain.TestSkip} {
		if n := counts[st]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, st))
		}
	}
	return strings.Join(parts, ", ")
}

const notCollected = "Facts not collected."

func internetSource(source string) bool {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "*", "internet", "any", "0.0.0.0/0", "::/0":
		return true
	default:
		return false
	}
}

func evaluateManagementPorts(f ScenarioFacts, t ScenarioThresholds) (domain.TestStatus, string) {
	if f.Exposure == nil {
		return domain.TestSkip, notCollected
	}
	var exposed []string
	for _, finding := range f.Exposure.Findings {
		if internetSource(finding.Source) && containsPort(t.ManagementPorts, finding.Port) {
			exposed = append(exposed, fmt.Sprintf("%s:%d", finding.Resource, finding.Port))
		}
	}
	if len(exposed) > 0 {
		return domain.TestFail, fmt.Sprintf("Management ports open to the internet: %s.", strings.Join(exposed, ", "))
	}
	return domain.TestPass, "No management ports reachable from the internet."
}

func evaluatePublicEndpoints(f ScenarioFacts, t ScenarioThresholds) (domain.TestStatus, string) {
	if f.Exposure == nil {
		return domain.TestSkip, notCollected
	}
	var open []string
	for _, finding := range f.Exposure.Findings {
		if internetSource(finding.Source) && !containsPort(t.ManagementPorts, finding.Port) {
			open = append(open, fmt.Sprintf("%s:%d", finding.Resource, finding.Port))
		}
	}
	if len(open) > 0 {
		return domain.TestWarn, fmt.Sprintf("%d internet-facing ports need justification: %s.", len(open), strings.Join(open, ", "))
	}
	return domain.TestPass, "No other internet-facing ports."
}

func containsPort(ports []int, port int) bool {
	for _, p := range ports {
		if p == port {
			return true
		}
	}
	return false
}

func evaluatePatchWindow(f ScenarioFacts, t ScenarioThresholds) (domain.TestStatus, string) {
	if f.Patching == nil {
		return domain.TestSkip, notCollected
	}
	var overdue, recent []string
	for _, v := range f.Patching.Vulnerabilities {
		if v.CVSS < t.CriticalCVSS {
			continue
		}
		if v.AgeDays > t.PatchWindowDays {
			overdue = append(overdue, v.ID)
		} else {
			recent = append(recent, v.ID)
		}
	}
	switch {
	case len(overdue) > 0:
		return domain.TestFail, fmt.Sprintf("%d vulnerabilities with CVSS >= %.1f unpatched for more than %d days: %s.",
			len(overdue), t.CriticalCVSS, t.PatchWindowDays, strings.Join(overdue, ", "))
	case len(recent) > 0:
		return domain.TestWarn, fmt.Sprintf("%d vulnerabilities with CVSS >= %.1f still within the %d day window: %s.",
			len(recent), t.CriticalCVSS, t.PatchWindowDays, strings.Join(recent, ", "))
	default:
		return domain.TestPass, fmt.Sprintf("No vulnerabilities with CVSS >= %.1f.", t.CriticalCVSS)
	}
}

func evaluateUnsupportedSoftware(f ScenarioFacts, _ ScenarioThresholds) (domain.TestStatus, string) {
	if f.Patching == nil {
		return domain.TestSkip, notCollected
	}
	if len(f.Patching.UnsupportedSoftware) > 0 {
		return domain.TestFail, fmt.Sprintf("Unsupported software found: %s.", strings.Join(f.Patching.UnsupportedSoftware, ", "))
	}
	return domain.TestPass, "All software is vendor supported."
}

func evaluateEndpointProtection(f ScenarioFacts, _ ScenarioThresholds) (domain.TestStatus, string) {
	if f.Malware == nil {
		return domain.TestSkip, notCollected
	}
	if n := len(f.Malware.UnprotectedMachines); n > 0 {
		return domain.TestFail, fmt.Sprintf("%d machines without endpoint protection: %s.", n, strings.Join(f.Malware.UnprotectedMachines, ", "))
	}
	return domain.TestPass, "All machines report endpoint protection."
}

func evaluateMFA(f ScenarioFacts, _ ScenarioThresholds) (domain.TestStatus, string) {
	if f.Identity == nil {
		return domain.TestSkip, notCollected
	}
	id := f.Identity
	switch {
	case !id.ConditionalAccessMFA:
		return domain.TestFail, "No enabled conditional access policy requires MFA."
	case len(id.AdminsWithoutMFA) > 0:
		return domain.TestFail, fmt.Sprintf("Administrators without MFA: %s.", strings.Join(id.AdminsWithoutMFA, ", "))
	case len(id.UsersWithoutMFA) > 0:
		return domain.TestWarn, fmt.Sprintf("%d users not registered for MFA.", len(id.UsersWithoutMFA))
	default:
		return domain.TestPass, "MFA enforced for all accounts."
	}
}

func evaluateLegacyAuth(f ScenarioFacts, _ ScenarioThresholds) (domain.TestStatus, string) {
	if f.Identity == nil {
		return domain.TestSkip, notCollected
	}
	if !f.Identity.LegacyAuthBlocked {
		return domain.TestFail, "Legacy authentication protocols are not blocked."
	}
	return domain.TestPass, "Legacy authentication blocked."
}

func evaluateGuestPrivilege(f ScenarioFacts, _ ScenarioThresholds) (domain.TestStatus, string) {
	if f.Access == nil {
		return domain.TestSkip, notCollected
	}
	var guests []string
	for _, ra := range f.Access.PrivilegedAssignments {
		if ra.Guest {
			guests = append(guests, fmt.Sprintf("%s (%s)", ra.Principal, ra.Role))
		}
	}
	if len(guests) > 0 {
		return domain.TestFail, fmt.Sprintf("Guest accounts hold privileged roles: %s.", strings.Join(guests, ", "))
	}
	return domain.TestPass, "No guest accounts hold privileged roles."
}

func evaluateOwnerCount(f ScenarioFacts, t ScenarioThresholds) (domain.TestStatus, string) {
	if f.Access == nil {
		return domain.TestSkip, notCollected
	}
	owners := map[string]int{}
	for _, ra := range f.Access.PrivilegedAssignments {
		if strings.EqualFold(ra.Role, "Owner") {
			owners[ra.Scope]++
		}
	}
	var over []string
	for scope, n := range owners {
		if n > t.MaxSubscriptionOwners {
			over = append(over, fmt.Sprintf("%s (%d)", scope, n))
		}
	}
	if len(over) > 0 {
		sort.Strings(over)
		return domain.TestWarn, fmt.Sprintf("Scopes with more than %d owners: %s.", t.MaxSubscriptionOwners, strings.Join(over, ", "))
	}
	return domain.TestPass, fmt.Sprintf("All scopes have at most %d owners.", t.MaxSubscriptionOwners)
}
