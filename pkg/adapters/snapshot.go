package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/de-tools/governance-atlas/pkg/models/api"
	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/models/store"

	"github.com/rs/zerolog"
)

func MapExemptionDomainToApi(e domain.ExemptionRecord) api.Exemption {
	return api.Exemption{
		ID:          e.ID,
		DisplayName: e.DisplayName,
		Category:    string(e.Category),
		ScopeType:   string(e.ScopeType),
		ScopeName:   e.ScopeName,
		Coverage:    string(e.Coverage),
		ExpiresOn:   e.ExpiresOn,
		Description: e.Description,
	}
}

// MapExemptionApiToDomain keeps category and coverage as given, empty included.
func MapExemptionApiToDomain(e api.Exemption) domain.ExemptionRecord {
	return domain.ExemptionRecord{
		ID:          e.ID,
		DisplayName: e.DisplayName,
		Category:    domain.ExemptionCategory(e.Category),
		ScopeType:   domain.ScopeType(e.ScopeType),
		ScopeName:   e.ScopeName,
		Coverage:    domain.ExemptionCoverage(e.Coverage),
		ExpiresOn:   e.ExpiresOn,
		Description: e.Description,
	}
}

func MapExemptionsDomainToApi(items []domain.ExemptionRecord) []api.Exemption {
	res := make([]api.Exemption, 0, len(items))
	for _, e := range items {
		res = append(res, MapExemptionDomainToApi(e))
	}
	return res
}

func MapTestResultDomainToApi(t domain.TestResult) api.TestResult {
	return api.TestResult{
		ID:     t.ID,
		Name:   t.Name,
		Status: string(t.Status),
		Detail: t.Detail,
	}
}

func MapTestResultsDomainToApi(items []domain.TestResult) []api.TestResult {
	res := make([]api.TestResult, 0, len(items))
	for _, t := range items {
		res = append(res, MapTestResultDomainToApi(t))
	}
	return res
}

func MapSnapshotDomainToApi(s domain.Snapshot) api.Snapshot {
	return api.Snapshot{
		SchemaVersion:   api.SnapshotSchemaVersion,
		ID:              s.ID,
		SourceTimestamp: s.SourceTimestamp,
		Assignments:     MapScoredAssignmentsDomainToApi(s.Assignments),
		Exemptions:      MapExemptionsDomainToApi(s.Exemptions),
		TestResults:     MapTestResultsDomainToApi(s.TestResults),
	}
}

// MapSnapshotApiToDomain rejects documents written by a newer schema. Score levels
// it cannot read fall back to the default score.
func MapSnapshotApiToDomain(ctx context.Context, s api.Snapshot) (domain.Snapshot, error) {
	if s.SchemaVersion > api.SnapshotSchemaVersion {
		return domain.Snapshot{}, fmt.Errorf("unsupported snapshot schema version %d", s.SchemaVersion)
	}

	res := domain.Snapshot{
		ID:              s.ID,
		SourceTimestamp: s.SourceTimestamp,
		Assignments:     make([]domain.ScoredAssignment, 0, len(s.Assignments)),
		Exemptions:      make([]domain.ExemptionRecord, 0, len(s.Exemptions)),
		TestResults:     make([]domain.TestResult, 0, len(s.TestResults)),
	}
	for _, a := range s.Assignments {
		score, fallback := MapImpactScoreApiToDomain(a.Score)
		if len(fallback) > 0 {
			zerolog.Ctx(ctx).Info().
				Str("snapshot", s.ID).
				Str("assignment", a.Name).
				Strs("fields", fallback).
				Msg("score levels unreadable, using default")
		}
		res.Assignments = append(res.Assignments, domain.ScoredAssignment{
			Record: MapAssignmentApiToDomain(a.Assignment),
			Score:  score,
		})
	}
	for _, e := range s.Exemptions {
		res.Exemptions = append(res.Exemptions, MapExemptionApiToDomain(e))
	}
	for _, t := range s.TestResults {
		res.TestResults = append(res.TestResults, domain.TestResult{
			ID:     t.ID,
			Name:   t.Name,
			Status: domain.TestStatus(t.Status),
			Detail: t.Detail,
		})
	}
	return res, nil
}

func MapSnapshotDomainToStore(s domain.Snapshot) (store.Snapshot, error) {
	payload, err := json.Marshal(MapSnapshotDomainToApi(s))
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return store.Snapshot{
		ID:              s.ID,
		SourceTimestamp: s.SourceTimestamp,
		SchemaVersion:   api.SnapshotSchemaVersion,
		AssignmentCount: len(s.Assignments),
		ExemptionCount:  len(s.Exemptions),
		TestCount:       len(s.TestResults),
		Payload:         payload,
	}, nil
}

func MapSnapshotStoreToDomain(ctx context.Context, s store.Snapshot) (domain.Snapshot, error) {
	var doc api.Snapshot
	if err := json.Unmarshal(s.Payload, &doc); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to unmarshal snapshot %s: %w", s.ID, err)
	}
	// the row id is authoritative; payloads written before saving carry none
	doc.ID = s.ID
	return MapSnapshotApiToDomain(ctx, doc)
}

func MapSnapshotHeaderStoreToApi(h store.SnapshotHeader) api.SnapshotHeader {
	return api.SnapshotHeader{
		ID:              h.ID,
		SourceTimestamp: h.SourceTimestamp,
		CreatedAt:       h.CreatedAt,
		SchemaVersion:   h.SchemaVersion,
		Assignments:     h.AssignmentCount,
		Exemptions:      h.ExemptionCount,
		TestResults:     h.TestCount,
	}
}
