package compliance

import (
	"context"
	"strings"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

const (
	MatchedByDisplayName    = "displayName"
	MatchedByAssignmentName = "assignmentName"
	MatchedByDefinitionName = "definitionName"
)

// GroupCompliance holds the per-control status of one control group.
type GroupCompliance struct {
	Group    domain.ControlGroup
	Statuses []domain.PolicyComplianceStatus
}

type GroupSummary struct {
	Total       int
	Enforced    int
	NotEnforced int
	Missing     int
}

// Coverage is the share of controls deployed and enforced.
func (s GroupSummary) Coverage() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Enforced) / float64(s.Total)
}

func (g GroupCompliance) Summary() GroupSummary {
	var s GroupSummary
	for _, st := range g.Statuses {
		s.Total++
		switch st.State {
		case domain.ComplianceEnforced:
			s.Enforced++
		case domain.ComplianceNotEnforced:
			s.NotEnforced++
		default:
			s.Missing++
		}
	}
	return s
}

// Lookup returns the statuses of the group with the given id.
func Lookup(results []GroupCompliance, groupID string) ([]domain.PolicyComplianceStatus, bool) {
	for _, r := range results {
		if r.Group.Key() == groupID {
			return r.Statuses, true
		}
	}
	return nil, false
}

// MapCompliance resolves every required control of every group against the assignments.
//
// Output follows the order of groups and of controls within each group. A control is
// matched case-insensitively on display name first, then assignment name, then
// definition name; among several assignments matching at the same level the first one
// in input order (retrieval order) wins. Groups without controls are skipped.
func MapCompliance(
	ctx context.Context,
	groups []domain.ControlGroup,
	assignments []domain.ScoredAssignment,
) []GroupCompliance {
	logger := zerolog.Ctx(ctx)
	results := make([]GroupCompliance, 0, len(groups))

	for _, group := range groups {
		if len(group.Controls) == 0 {
			continue
		}

		gc := GroupCompliance{
			Group:    group,
			Statuses: make([]domain.PolicyComplianceStatus, 0, len(group.Controls)),
		}

		for _, control := range group.Controls {
			if strings.TrimSpace(control) == "" {
				continue
			}
			status := resolveControl(control, assignments)
			if status.Matches > 1 {
				logger.Info().
					Str("group", group.Name).
					Str("control", control).
					Int("matches", status.Matches).
					Str("selected", status.Assignment.Record.Key()).
					Msg("multiple assignments match control; using first in retrieval order")
			}
			gc.Statuses = append(gc.Statuses, status)
		}

		results = append(results, gc)
	}

	return results
}

func resolveControl(control string, assignments []domain.ScoredAssignment) domain.PolicyComplianceStatus {
	status := domain.PolicyComplianceStatus{
		Control: control,
		State:   domain.ComplianceMissing,
	}

	fields := []struct {
		name  string
		value func(domain.PolicyAssignmentRecord) string
	}{
		{MatchedByDisplayName, func(r domain.PolicyAssignmentRecord) string { return r.DisplayName }},
		{MatchedByAssignmentName, func(r domain.PolicyAssignmentRecord) string { return r.Name }},
		{MatchedByDefinitionName, func(r domain.PolicyAssignmentRecord) string { return r.DefinitionName }},
	}

	for _, field := range fields {
		var first *domain.ScoredAssignment
		matches := 0
		for i := range assignments {
			value := strings.TrimSpace(field.value(assignments[i].Record))
			if value == "" || !strings.EqualFold(value, strings.TrimSpace(control)) {
				continue
			}
			matches++
			if first == nil {
				first = &assignments[i]
			}
		}
		if first == nil {
			continue
		}

		status.Assignment = first
		status.MatchedBy = field.name
		status.Matches = matches
		status.State = domain.ComplianceEnforced
		if !first.Record.Enforced() {
			status.State = domain.ComplianceNotEnforced
		}
		return status
	}

	return status
}
