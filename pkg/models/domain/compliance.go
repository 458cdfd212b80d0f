package domain

// ControlGroup is a compliance bucket backed by an initiative definition.
type ControlGroup struct {
	ID       string
	Name     string   // "Firewalls & Internet Gateways"
	Controls []string // required control display names, in definition order
}

// Key identifies the group, falling back to its name when the source had no id.
func (g ControlGroup) Key() string {
	if g.ID != "" {
		return g.ID
	}
	return g.Name
}

type ComplianceState string

const (
	ComplianceEnforced    ComplianceState = "Deployed+Enforced"
	ComplianceNotEnforced ComplianceState = "Deployed+NotEnforced"
	ComplianceMissing     ComplianceState = "Missing"
)

type PolicyComplianceStatus struct {
	Control    string
	State      ComplianceState
	Assignment *ScoredAssignment // nil when Missing
	MatchedBy  string            // displayName, assignmentName or definitionName
	Matches    int
}

func (s PolicyComplianceStatus) Deployed() bool {
	return s.State != ComplianceMissing
}
