package checks

import (
	"context"
	"fmt"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

// Check is one sequential framework test. Evaluate is only called once every
// check in DependsOn has passed or warned.
type Check struct {
	ID        string
	Name      string
	DependsOn []string
	Evaluate  func(FrameworkFacts) (domain.TestStatus, string)
}

// Catalog is a validated set of checks in evaluation order.
type Catalog struct {
	order []Check
}

// NewCatalog orders checks topologically, keeping declaration order among
// independent checks. Unknown dependencies, duplicate ids and cycles are errors.
func NewCatalog(checks []Check) (*Catalog, error) {
	index := make(map[string]int, len(checks))
	for i, c := range checks {
		if c.ID == "" {
			return nil, fmt.Errorf("check at position %d has no id", i)
		}
		if _, exists := index[c.ID]; exists {
			return nil, fmt.Errorf("duplicate check id: %s", c.ID)
		}
		index[c.ID] = i
	}

	pending := make([]int, len(checks))
	dependents := make([][]int, len(checks))
	for i, c := range checks {
		for _, dep := range c.DependsOn {
			j, ok := index[dep]
			if !ok {
				return nil, fmt.Errorf("check %s depends on unknown check %s", c.ID, dep)
			}
			pending[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	done := make([]bool, len(checks))
	order := make([]Check, 0, len(checks))
	for len(order) < len(checks) {
		next := -1
		for i := range checks {
			if !done[i] && pending[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, fmt.Errorf("dependency cycle among framework checks")
		}
		done[next] = true
		order = append(order, checks[next])
		for _, d := range dependents[next] {
			pending[d]--
		}
	}

	return &Catalog{order: order}, nil
}

// Checks returns the checks in evaluation order.
func (c *Catalog) Checks() []Check {
	return append([]Check(nil), c.order...)
}

// Run evaluates the catalog once. A check whose prerequisite did not pass or warn
// is reported as SKIP without being evaluated, which cascades to its own dependents.
func (c *Catalog) Run(ctx context.Context, facts FrameworkFacts) []domain.TestResult {
	logger := zerolog.Ctx(ctx)
	statuses := make(map[string]domain.TestStatus, len(c.order))
	results := make([]domain.TestResult, 0, len(c.order))

	for _, check := range c.order {
		result := domain.TestResult{ID: check.ID, Name: check.Name, Status: domain.TestNotRun}

		for _, dep := range check.DependsOn {
			if st := statuses[dep]; !satisfied(st) {
				result.Status = domain.TestSkip
				result.Detail = fmt.Sprintf("Prerequisite %s reported %s.", dep, st)
				logger.Debug().
					Str("check", check.ID).
					Str("prerequisite", dep).
					Str("prerequisite_status", string(st)).
					Msg("skipping framework check")
				break
			}
		}

		if result.Status == domain.TestNotRun {
			result.Status, result.Detail = check.Evaluate(facts)
			if !result.Status.Terminal() {
				result.Status = domain.TestSkip
			}
		}

		statuses[check.ID] = result.Status
		results = append(results, result)
	}

	return results
}

func satisfied(s domain.TestStatus) bool {
	return s == domain.TestPass || s == domain.TestWarn
}
