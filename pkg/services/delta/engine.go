package delta

import (
	"context"
	"sort"
	"strconv"

	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

type field struct {
	name  string
	value func(domain.PolicyAssignmentRecord) string
}

// trackedFields are compared in this order for assignments present in both snapshots.
var trackedFields = []field{
	{domain.FieldEffect, func(r domain.PolicyAssignmentRecord) string { return string(r.Effect) }},
	{domain.FieldEnforcementMode, func(r domain.PolicyAssignmentRecord) string { return string(r.EnforcementMode) }},
	{domain.FieldNonCompliantResources, func(r domain.PolicyAssignmentRecord) string { return strconv.Itoa(r.NonCompliantResources) }},
	{domain.FieldNonCompliantPolicies, func(r domain.PolicyAssignmentRecord) string { return strconv.Itoa(r.NonCompliantPolicies) }},
	{domain.FieldCategory, func(r domain.PolicyAssignmentRecord) string { return r.Category }},
	{domain.FieldExemptionCount, func(r domain.PolicyAssignmentRecord) string { return strconv.Itoa(r.ExemptionCount) }},
}

// Diff compares two snapshots by composite key. New assignments follow the order of
// current, removed ones the order of previous. When a key repeats inside one snapshot
// the first occurrence is used.
func Diff(ctx context.Context, previous, current domain.Snapshot) domain.DeltaReport {
	logger := zerolog.Ctx(ctx)

	prevIdx := indexAssignments(ctx, previous.Assignments)
	curIdx := indexAssignments(ctx, current.Assignments)

	report := domain.DeltaReport{
		PreviousTimestamp: previous.SourceTimestamp,
		CurrentTimestamp:  current.SourceTimestamp,
	}

	for _, a := range uniqueAssignments(current.Assignments) {
		key := a.Record.Key()
		prev, ok := prevIdx[key]
		if !ok {
			report.NewAssignments = append(report.NewAssignments, a)
			continue
		}
		if changes := compareRecords(prev.Record, a.Record); len(changes) > 0 {
			report.ChangedAssignments = append(report.ChangedAssignments, domain.AssignmentChange{
				Key:      key,
				Name:     a.Record.Name,
				Scope:    a.Record.Scope(),
				Previous: prev.Record,
				Current:  a.Record,
				Changes:  changes,
			})
		}
	}
	for _, a := range uniqueAssignments(previous.Assignments) {
		if _, ok := curIdx[a.Record.Key()]; !ok {
			report.RemovedAssignments = append(report.RemovedAssignments, a)
		}
	}

	report.EffectShifts = effectShifts(previous.Assignments, current.Assignments)
	report.Exemptions = diffExemptions(previous.Exemptions, current.Exemptions)

	report.PreviousScore = CompositeScore(previous)
	report.CurrentScore = CompositeScore(current)
	report.Trend = Verdict(report.PreviousScore, report.CurrentScore)

	logger.Info().
		Int("new", len(report.NewAssignments)).
		Int("removed", len(report.RemovedAssignments)).
		Int("changed", len(report.ChangedAssignments)).
		Str("effect_shifts", report.EffectShifts.String()).
		Str("trend", string(report.Trend)).
		Msg("snapshot delta computed")

	return report
}

func indexAssignments(ctx context.Context, assignments []domain.ScoredAssignment) map[string]domain.ScoredAssignment {
	idx := make(map[string]domain.ScoredAssignment, len(assignments))
	for _, a := range assignments {
		key := a.Record.Key()
		if _, dup := idx[key]; dup {
			zerolog.Ctx(ctx).Info().Str("key", key).Msg("duplicate assignment key in snapshot, keeping first")
			continue
		}
		idx[key] = a
	}
	return idx
}

func uniqueAssignments(assignments []domain.ScoredAssignment) []domain.ScoredAssignment {
	seen := make(map[string]struct{}, len(assignments))
	out := make([]domain.ScoredAssignment, 0, len(assignments))
	for _, a := range assignments {
		key := a.Record.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}

// compareRecords lists differing tracked fields. A field one side does not carry
// is reported with that side marked unavailable; a field neither side carries is ignored.
func compareRecords(prev, cur domain.PolicyAssignmentRecord) []domain.FieldChange {
	var changes []domain.FieldChange
	for _, f := range trackedFields {
		prevKnown, curKnown := prev.FieldKnown(f.name), cur.FieldKnown(f.name)
		if !prevKnown && !curKnown {
			continue
		}

		change := domain.FieldChange{Field: f.name, Previous: domain.ValueUnavailable, Current: domain.ValueUnavailable}
		if prevKnown {
			change.Previous = f.value(prev)
		}
		if curKnown {
			change.Current = f.value(cur)
		}
		if change.Previous != change.Current {
			changes = append(changes, change)
		}
	}
	return changes
}

// effectShifts returns non-zero histogram deltas, largest increase first, ties by effect name.
func effectShifts(previous, current []domain.ScoredAssignment) domain.EffectShifts {
	prev := histogram(previous)
	cur := histogram(current)

	effects := make(map[domain.Effect]struct{}, len(prev)+len(cur))
	for e := range prev {
		effects[e] = struct{}{}
	}
	for e := range cur {
		effects[e] = struct{}{}
	}

	var shifts domain.EffectShifts
	for e := range effects {
		if d := cur[e] - prev[e]; d != 0 {
			shifts = append(shifts, domain.EffectShift{Effect: e, Previous: prev[e], Current: cur[e], Delta: d})
		}
	}
	sort.Slice(shifts, func(i, j int) bool {
		if shifts[i].Delta != shifts[j].Delta {
			return shifts[i].Delta > shifts[j].Delta
		}
		return shifts[i].Effect < shifts[j].Effect
	})
	return shifts
}

func histogram(assignments []domain.ScoredAssignment) map[domain.Effect]int {
	h := map[domain.Effect]int{}
	for _, a := range assignments {
		if a.Record.FieldKnown(domain.FieldEffect) {
			h[a.Record.Effect]++
		}
	}
	return h
}

func diffExemptions(previous, current []domain.ExemptionRecord) domain.ExemptionDelta {
	prevKeys := make(map[string]struct{}, len(previous))
	for _, e := range previous {
		prevKeys[e.Key()] = struct{}{}
	}
	curKeys := make(map[string]struct{}, len(current))
	for _, e := range current {
		curKeys[e.Key()] = struct{}{}
	}

	var out domain.ExemptionDelta
	seen := map[string]struct{}{}
	for _, e := range current {
		k := e.Key()
		if _, ok := prevKeys[k]; ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out.New = append(out.New, e)
	}
	seen = map[string]struct{}{}
	for _, e := range previous {
		k := e.Key()
		if _, ok := curKeys[k]; ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out.Removed = append(out.Removed, e)
	}
	return out
}
