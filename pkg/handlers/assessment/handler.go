package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/de-tools/governance-atlas/pkg/adapters"
	"github.com/de-tools/governance-atlas/pkg/models/api"
	"github.com/de-tools/governance-atlas/pkg/models/domain"
	"github.com/de-tools/governance-atlas/pkg/models/store"
	"github.com/de-tools/governance-atlas/pkg/server/metrics"
	"github.com/de-tools/governance-atlas/pkg/services/assessment"
	"github.com/de-tools/governance-atlas/pkg/services/delta"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const (
	defaultListLimit = 50
	maxBodyBytes     = 16 << 20
)

// Archive is the snapshot persistence the handler needs.
type Archive interface {
	Record(ctx context.Context, snapshot domain.Snapshot) (domain.Snapshot, error)
	Load(ctx context.Context, id string) (domain.Snapshot, error)
	List(ctx context.Context, limit int) ([]store.SnapshotHeader, error)
	Delta(ctx context.Context, id, previousID string) (domain.DeltaReport, error)
}

type Handler struct {
	service assessment.Service
	archive Archive
}

func NewHandler(service assessment.Service, archive Archive) *Handler {
	return &Handler{
		service: service,
		archive: archive,
	}
}

func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var req api.ClassifyRequest
	if !decode(w, r, &req) {
		return
	}

	scored := h.service.Classify(r.Context(), adapters.MapAssignmentsApiToDomain(req.Assignments))
	respond(w, r, http.StatusOK, api.ClassifyResponse{
		Assignments: adapters.MapScoredAssignmentsDomainToApi(scored),
	})
}

func (h *Handler) CreateAssessment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var req api.AssessmentRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.service.Run(ctx, assessment.InputFromRequest(req))
	if err != nil {
		logger.Error().Err(err).Msg("failed to run assessment")
		fail(w, r, http.StatusInternalServerError, "assessment failed")
		return
	}

	snapshot, err := h.archive.Record(ctx, result.Snapshot)
	if err != nil {
		logger.Error().Err(err).Msg("failed to record snapshot")
		fail(w, r, http.StatusInternalServerError, "failed to record snapshot")
		return
	}

	counts := result.Tests.Counts()
	metrics.ObserveAssessment(counts, delta.CompositeScore(snapshot))
	logger.Info().Str("snapshot", snapshot.ID).Msg("assessment recorded")

	respond(w, r, http.StatusCreated, api.AssessmentResponse{
		Snapshot:   adapters.MapSnapshotDomainToApi(snapshot),
		Compliance: adapters.MapComplianceDomainToApi(result.Compliance),
		Counts:     adapters.MapTestCountsDomainToApi(counts),
	})
}

func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			fail(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	headers, err := h.archive.List(ctx, limit)
	if err != nil {
		logger.Error().Err(err).Msg("failed to list snapshots")
		fail(w, r, http.StatusInternalServerError, "failed to list snapshots")
		return
	}

	response := make([]api.SnapshotHeader, 0, len(headers))
	for _, hdr := range headers {
		response = append(response, adapters.MapSnapshotHeaderStoreToApi(hdr))
	}
	respond(w, r, http.StatusOK, response)
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	snapshot, err := h.archive.Load(ctx, id)
	if err != nil {
		h.storeError(w, r, err, id)
		return
	}
	respond(w, r, http.StatusOK, adapters.MapSnapshotDomainToApi(snapshot))
}

func (h *Handler) GetSnapshotDelta(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	report, err := h.archive.Delta(ctx, id, r.URL.Query().Get("previous"))
	if errors.Is(err, assessment.ErrNoPreviousSnapshot) {
		fail(w, r, http.StatusConflict, "snapshot has no predecessor")
		return
	}
	if err != nil {
		h.storeError(w, r, err, id)
		return
	}

	metrics.ObserveDelta(report.Trend)
	respond(w, r, http.StatusOK, adapters.MapDeltaReportDomainToApi(report))
}

func (h *Handler) CompareSnapshots(w http.ResponseWriter, r *http.Request) {
	var req api.DeltaRequest
	if !decode(w, r, &req) {
		return
	}

	previous, err := adapters.MapSnapshotApiToDomain(r.Context(), req.Previous)
	if err != nil {
		fail(w, r, http.StatusBadRequest, "previous: "+err.Error())
		return
	}
	current, err := adapters.MapSnapshotApiToDomain(r.Context(), req.Current)
	if err != nil {
		fail(w, r, http.StatusBadRequest, "current: "+err.Error())
		return
	}

	report := h.service.Compare(r.Context(), previous, current)
	metrics.ObserveDelta(report.Trend)
	respond(w, r, http.StatusOK, adapters.MapDeltaReportDomainToApi(report))
}

func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error, id string) {
	if errors.Is(err, store.ErrSnapshotNotFound) {
		fail(w, r, http.StatusNotFound, "snapshot not found")
		return
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Str("snapshot", id).Msg("failed to load snapshot")
	fail(w, r, http.StatusInternalServerError, "failed to load snapshot")
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		fail(w, r, http.StatusBadRequest, "malformed request body")
		return false
	}
	if err := api.Validate(v); err != nil {
		fail(w, r, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

func fail(w http.ResponseWriter, r *http.Request, status int, message string) {
	respond(w, r, status, api.ErrorResponse{Error: message})
}

func respond(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}
