package domain

import (
	"fmt"
	"strings"
)

type ImpactLevel int

const (
	ImpactNone ImpactLevel = iota
	ImpactLow
	ImpactMedium
	ImpactHigh
)

func (l ImpactLevel) String() string {
	switch l {
	case ImpactNone:
		return "None"
	case ImpactLow:
		return "Low"
	case ImpactMedium:
		return "Medium"
	case ImpactHigh:
		return "High"
	default:
		return fmt.Sprintf("ImpactLevel(%d)", int(l))
	}
}

// ParseImpactLevel is case-insensitive; unknown text yields an error.
func ParseImpactLevel(s string) (ImpactLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return ImpactNone, nil
	case "low":
		return ImpactLow, nil
	case "medium":
		return ImpactMedium, nil
	case "high":
		return ImpactHigh, nil
	default:
		return ImpactNone, fmt.Errorf("unknown impact level %q", s)
	}
}

func MaxImpact(a, b ImpactLevel) ImpactLevel {
	if a > b {
		return a
	}
	return b
}

type RiskLevel int

const (
	RiskLow RiskLevel = iota + 1
	RiskMedium
	RiskHigh
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "Low"
	case RiskMedium:
		return "Medium"
	case RiskHigh:
		return "High"
	default:
		return fmt.Sprintf("RiskLevel(%d)", int(r))
	}
}

func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, nil
	case "medium":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	default:
		return RiskMedium, fmt.Errorf("unknown risk level %q", s)
	}
}

// ImpactScore is the multi-dimensional operational impact of one assignment.
type ImpactScore struct {
	SecurityImpact      ImpactLevel
	CostImpact          ImpactLevel
	ComplianceImpact    ImpactLevel
	OperationalOverhead ImpactLevel
	RiskLevel           RiskLevel
	Recommendation      string
}

// DefaultImpactScore is the conservative score given when nothing better is known.
func DefaultImpactScore() ImpactScore {
	return ImpactScore{
		SecurityImpact:      ImpactMedium,
		CostImpact:          ImpactLow,
		ComplianceImpact:    ImpactMedium,
		OperationalOverhead: ImpactLow,
		RiskLevel:           RiskLow,
	}
}
