package domain

import "time"

type ExemptionCategory string

const (
	ExemptionWaiver    ExemptionCategory = "Waiver"
	ExemptionMitigated ExemptionCategory = "Mitigated"
)

type ExemptionCoverage string

const (
	CoverageFull    ExemptionCoverage = "Full"
	CoveragePartial ExemptionCoverage = "Partial"
)

type ExemptionRecord struct {
	ID          string
	DisplayName string
	Category    ExemptionCategory
	ScopeType   ScopeType
	ScopeName   string
	Coverage    ExemptionCoverage
	ExpiresOn   *time.Time
	Description string
}

func (e ExemptionRecord) Scope() string {
	return FormatScope(e.ScopeType, e.ScopeName)
}

func (e ExemptionRecord) Key() string {
	return CompositeKey(e.ID, e.Scope())
}
