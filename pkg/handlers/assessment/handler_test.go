package assessment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/de-tools/governance-atlas/pkg/models/api"
	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/models/store"
	"github.com/de-tools/governance-atlas/pkg/services/assessment"
	"github.com/de-tools/governance-atlas/pkg/services/impact"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockArchive struct {
	mock.Mock
}

func (m *mockArchive) Record(ctx context.Context, s domain.Snapshot) (domain.Snapshot, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(domain.Snapshot), args.Error(1)
}

func (m *mockArchive) Load(ctx context.Context, id string) (domain.Snapshot, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Snapshot), args.Error(1)
}

func (m *mockArchive) List(ctx context.Context, limit int) ([]store.SnapshotHeader, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]store.SnapshotHeader), args.Error(1)
}

func (m *mockArchive) Delta(ctx context.Context, id, previousID string) (domain.DeltaReport, error) {
	args := m.Called(ctx, id, previousID)
	return args.Get(0).(domain.DeltaReport), args.Error(1)
}

func setup(t *testing.T) (*chi.Mux, *mockArchive) {
	classifier, err := impact.NewDefaultClassifier()
	require.NoError(t, err)
	svc, err := assessment.NewService(classifier, assessment.DefaultSettings())
	require.NoError(t, err)

	archive := new(mockArchive)
	h := NewHandler(svc, archive)

	r := chi.NewRouter()
	r.Post("/classify", h.Classify)
	r.Post("/assessments", h.CreateAssessment)
	r.Post("/delta", h.CompareSnapshots)
	r.Get("/snapshots", h.ListSnapshots)
	r.Get("/snapshots/{id}", h.GetSnapshot)
	r.Get("/snapshots/{id}/delta", h.GetSnapshotDelta)
	return r, archive
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHandler_Classify(t *testing.T) {
	router, _ := setup(t)
	disabled := "Disabled"

	t.Run("scores assignments", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/classify", api.ClassifyRequest{Assignments: []api.Assignment{
			{Name: "Audit-Tags", EffectType: &disabled, ScopeType: "Subscription", ScopeName: "sub-1"},
		}})
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decodeBody[api.ClassifyResponse](t, rec)
		require.Len(t, resp.Assignments, 1)
		assert.Equal(t, "Audit-Tags|||Subscription:sub-1", resp.Assignments[0].Key)
		assert.Equal(t, "None", resp.Assignments[0].Score.SecurityImpact)
		assert.Equal(t, "High", resp.Assignments[0].Score.RiskLevel)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/classify", "{")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/classify", api.ClassifyRequest{Assignments: []api.Assignment{{ScopeName: "x"}}})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeBody[api.ErrorResponse](t, rec).Error, "Name")
	})
}

func TestHandler_CreateAssessment(t *testing.T) {
	router, archive := setup(t)
	deny, mode := "Deny", "Default"

	archive.On("Record", mock.Anything, mock.AnythingOfType("domain.Snapshot")).
		Return(domain.Snapshot{ID: "snap-42"}, nil).Once()

	rec := do(t, router, http.MethodPost, "/assessments", api.AssessmentRequest{
		SourceTimestamp: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		InitiativeName:  "UK OFFICIAL",
		ControlGroups:   []api.ControlGroup{{ID: "fw", Name: "Firewalls", Controls: []string{"Deny public IP addresses"}}},
		Assignments: []api.Assignment{{
			Name: "Deny-PublicIP", DisplayName: "Deny public IP addresses",
			EffectType: &deny, EnforcementMode: &mode, ScopeName: "/mg/A",
		}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeBody[api.AssessmentResponse](t, rec)
	assert.Equal(t, "snap-42", resp.Snapshot.ID)
	assert.Equal(t, api.SnapshotSchemaVersion, resp.Snapshot.SchemaVersion)
	require.Len(t, resp.Compliance, 1)
	assert.Equal(t, 1, resp.Compliance[0].Enforced)
	assert.Equal(t, 1, resp.Counts["FAIL"])
	archive.AssertExpectations(t)
}

func TestHandler_CreateAssessment_RecordFails(t *testing.T) {
	router, archive := setup(t)
	archive.On("Record", mock.Anything, mock.Anything).Return(domain.Snapshot{}, errors.New("disk full"))

	rec := do(t, router, http.MethodPost, "/assessments", api.AssessmentRequest{})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandler_Snapshots(t *testing.T) {
	router, archive := setup(t)
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	archive.On("List", mock.Anything, 50).Return([]store.SnapshotHeader{{ID: "b", SourceTimestamp: ts}}, nil)
	archive.On("List", mock.Anything, 5).Return([]store.SnapshotHeader{}, nil)
	archive.On("Load", mock.Anything, "b").Return(domain.Snapshot{ID: "b", SourceTimestamp: ts}, nil)
	archive.On("Load", mock.Anything, "zzz").Return(domain.Snapshot{}, store.ErrSnapshotNotFound)
	archive.On("Load", mock.Anything, "broken").Return(domain.Snapshot{}, errors.New("bad payload"))
	archive.On("Delta", mock.Anything, "b", "").Return(domain.DeltaReport{Trend: domain.TrendStable}, nil)
	archive.On("Delta", mock.Anything, "a", "").Return(domain.DeltaReport{}, assessment.ErrNoPreviousSnapshot)
	archive.On("Delta", mock.Anything, "b", "a").Return(domain.DeltaReport{Trend: domain.TrendImproving}, nil)

	tests := []struct {
		name   string
		path   string
		status int
		check  func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{"list default limit", "/snapshots", http.StatusOK, func(t *testing.T, rec *httptest.ResponseRecorder) {
			headers := decodeBody[[]api.SnapshotHeader](t, rec)
			require.Len(t, headers, 1)
			assert.Equal(t, "b", headers[0].ID)
		}},
		{"list with limit", "/snapshots?limit=5", http.StatusOK, nil},
		{"list bad limit", "/snapshots?limit=-1", http.StatusBadRequest, nil},
		{"get", "/snapshots/b", http.StatusOK, func(t *testing.T, rec *httptest.ResponseRecorder) {
			snap := decodeBody[api.Snapshot](t, rec)
			assert.Equal(t, "b", snap.ID)
			assert.Equal(t, ts, snap.SourceTimestamp)
		}},
		{"get missing", "/snapshots/zzz", http.StatusNotFound, nil},
		{"get failure", "/snapshots/broken", http.StatusInternalServerError, nil},
		{"delta implicit", "/snapshots/b/delta", http.StatusOK, func(t *testing.T, rec *httptest.ResponseRecorder) {
			assert.Equal(t, "STABLE", decodeBody[api.DeltaReport](t, rec).Trend)
		}},
		{"delta explicit", "/snapshots/b/delta?previous=a", http.StatusOK, func(t *testing.T, rec *httptest.ResponseRecorder) {
			assert.Equal(t, "IMPROVING", decodeBody[api.DeltaReport](t, rec).Trend)
		}},
		{"delta without predecessor", "/snapshots/a/delta", http.StatusConflict, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, tc.path, nil)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tc.check != nil {
				tc.check(t, rec)
			}
		})
	}
}

func TestHandler_CompareSnapshots(t *testing.T) {
	router, _ := setup(t)
	zero, five, deny, mode := 0, 5, "Deny", "Default"

	snapshot := func(nonCompliant *int) api.Snapshot {
		return api.Snapshot{
			SchemaVersion: api.SnapshotSchemaVersion,
			Assignments: []api.ScoredAssignment{{
				Assignment: api.Assignment{
					Name: "Deny-PublicIP", ScopeName: "/mg/A", EffectType: &deny, EnforcementMode: &mode,
					NonCompliantResources: nonCompliant,
				},
				Score: api.ImpactScore{SecurityImpact: "High", CostImpact: "Low", ComplianceImpact: "High", OperationalOverhead: "Low", RiskLevel: "Low"},
			}},
		}
	}

	t.Run("degrading", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/delta", api.DeltaRequest{Previous: snapshot(&zero), Current: snapshot(&five)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		report := decodeBody[api.DeltaReport](t, rec)
		require.Len(t, report.ChangedAssignments, 1)
		assert.Equal(t, []api.FieldChange{{Field: "nonCompliantResources", Previous: "0", Current: "5"}}, report.ChangedAssignments[0].Changes)
		assert.Equal(t, "DEGRADING", report.Trend)
	})

	t.Run("field absent from previous", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/delta", api.DeltaRequest{Previous: snapshot(nil), Current: snapshot(&five)})
		require.Equal(t, http.StatusOK, rec.Code)

		report := decodeBody[api.DeltaReport](t, rec)
		require.Len(t, report.ChangedAssignments, 1)
		assert.Contains(t, report.ChangedAssignments[0].Changes, api.FieldChange{
			Field: "nonCompliantResources", Previous: domain.ValueUnavailable, Current: "5",
		})
	})

	t.Run("score without levels", func(t *testing.T) {
		prev := snapshot(&zero)
		prev.Assignments[0].Score.OperationalOverhead = ""
		prev.Assignments[0].Score.RiskLevel = "Extreme"
		rec := do(t, router, http.MethodPost, "/delta", api.DeltaRequest{Previous: prev, Current: snapshot(&five)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		report := decodeBody[api.DeltaReport](t, rec)
		require.Len(t, report.ChangedAssignments, 1)
		assert.Equal(t, "DEGRADING", report.Trend)
	})

	t.Run("newer schema", func(t *testing.T) {
		prev := snapshot(&zero)
		prev.SchemaVersion = api.SnapshotSchemaVersion + 1
		rec := do(t, router, http.MethodPost, "/delta", api.DeltaRequest{Previous: prev, Current: snapshot(&five)})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
