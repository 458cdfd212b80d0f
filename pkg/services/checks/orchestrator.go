package checks

import (
	"context"
	"fmt"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
)

type Input struct {
	Groups     []domain.ControlGroup
	Framework  FrameworkFacts
	Scenario   ScenarioFacts
	Thresholds ScenarioThresholds
}

type Result struct {
	Framework []domain.TestResult
	Cases     []CaseResult
}

// Flatten lists framework results, then each case followed by its subtests.
func (r Result) Flatten() []domain.TestResult {
	out := make([]domain.TestResult, 0, len(r.Framework)+len(r.Cases)*4)
	out = append(out, r.Framework...)
	for _, c := range r.Cases {
		out = append(out, c.TestResult)
		out = append(out, c.Subtests...)
	}
	return out
}

func (r Result) Counts() map[domain.TestStatus]int {
	counts := map[domain.TestStatus]int{}
	for _, t := range r.Flatten() {
		counts[t.Status]++
	}
	return counts
}

// Orchestrate runs phase 1 then phase 2.
func Orchestrate(ctx context.Context, in Input) (Result, error) {
	catalog, err := FrameworkCatalog(in.Groups)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build framework catalog: %w", err)
	}

	return Result{
		Framework: catalog.Run(ctx, in.Framework),
		Cases:     RunScenarios(ctx, ScenarioCatalog(), in.Scenario, in.Thresholds),
	}, nil
}
