package checks

// ScenarioFacts are the phase-2 query results. A nil payload means the query was not run.
type ScenarioFacts struct {
	Exposure *ExposureFacts
	Patching *PatchFacts
	Malware  *MalwareFacts
	Identity *IdentityFacts
	Access   *AccessFacts
}

type ExposureFinding struct {
	Resource string
	PublicIP string
	Port     int
	Protocol string
	Source   string // NSG rule source prefix
}

type ExposureFacts struct {
	Findings []ExposureFinding
}

type VulnerabilityFinding struct {
	ID       string
	Resource string
	CVSS     float64
	AgeDays  int
}

type PatchFacts struct {
	Vulnerabilities     []VulnerabilityFinding
	UnsupportedSoftware []string
}

type MalwareFacts struct {
	UnprotectedMachines []string
}

type IdentityFacts struct {
	ConditionalAccessMFA bool
	LegacyAuthBlocked    bool
	AdminsWithoutMFA     []string
	UsersWithoutMFA      []string
}

type RoleAssignment struct {
	Principal string
	Role      string
	Scope     string
	Guest     bool
}

type AccessFacts struct {
	PrivilegedAssignments []RoleAssignment
}

// ScenarioThresholds contains the limits phase-2 findings are judged against.
type ScenarioThresholds struct {
	// CriticalCVSS is the score at or above which a vulnerability counts (default: 7.0)
	CriticalCVSS float64
	// PatchWindowDays is how long a critical vulnerability may stay open (default: 14)
	PatchWindowDays int
	// ManagementPorts must never be reachable from the internet (default: 22, 3389)
	ManagementPorts []int
	// MaxSubscriptionOwners is the owner count per scope above which a warning is raised (default: 3)
	MaxSubscriptionOwners int
}

func DefaultScenarioThresholds() ScenarioThresholds {
	return ScenarioThresholds{
		CriticalCVSS:          7.0,
		PatchWindowDays:       14,
		ManagementPorts:       []int{22, 3389},
		MaxSubscriptionOwners: 3,
	}
}
