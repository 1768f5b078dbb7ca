package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/Harshitk-cp/relspace/internal/domain"
	"github.com/Harshitk-cp/relspace/internal/service"
	"github.com/go-chi/chi/v5"
)

const (
	defaultSimilarDistance = 0.5
	defaultSimilarLimit    = 10
	maxSimilarLimit        = 100
)

type QueryHandler struct {
	edges        *service.EdgeService
	hyperedges   *service.HyperEdgeService
	space        *service.SpaceService
	tessellation *service.TessellationService
}

func NewQueryHandler(edges *service.EdgeService, hyperedges *service.HyperEdgeService, space *service.SpaceService, tessellation *service.TessellationService) *QueryHandler {
	return &QueryHandler{edges: edges, hyperedges: hyperedges, space: space, tessellation: tessellation}
}

type edgeResponse struct {
	*domain.EdgeConcept
	QualityPoint domain.QualityPoint `json:"quality_point"`
}

func (h *QueryHandler) GetEdge(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseRelationshipID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid edge id")
		return
	}

	edge, err := h.edges.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get edge")
		return
	}
	writeJSON(w, http.StatusOK, edgeResponse{EdgeConcept: edge, QualityPoint: edge.QualityPointAt(domain.SystemClock())})
}

func (h *QueryHandler) EdgeEvents(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseRelationshipID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid edge id")
		return
	}

	events, err := h.edges.History(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get edge events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

func (h *QueryHandler) GetHyperEdge(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseRelationshipID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hyperedge id")
		return
	}

	hyperedge, err := h.hyperedges.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get hyperedge")
		return
	}
	writeJSON(w, http.StatusOK, hyperedge)
}

func (h *QueryHandler) HyperEdgeEvents(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseRelationshipID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hyperedge id")
		return
	}

	events, err := h.hyperedges.History(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get hyperedge events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

// Similar finds edges near a probe point. The probe is either an existing
// edge (edge_id) or explicit coordinates; omitted coordinates default to
// 0.5. formality accepts a level name or a number. weights selects a
// preset and forces the in-memory search.
func (h *QueryHandler) Similar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	maxDistance := defaultSimilarDistance
	if v := q.Get("max_distance"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil || d < 0 {
			writeError(w, http.StatusBadRequest, "invalid max_distance")
			return
		}
		maxDistance = d
	}

	limit := defaultSimilarLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxSimilarLimit)
	}

	probe, err := h.probePoint(r)
	if err != nil {
		writeDomainError(w, err, "failed to read probe")
		return
	}

	var results []domain.SimilarEdge
	if preset := q.Get("weights"); preset != "" {
		weights, ok := domain.WeightPresets[preset]
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown weights preset "+preset)
			return
		}
		results = h.space.FindSimilarWeighted(probe, maxDistance, weights(), limit)
	} else {
		results, err = h.edges.FindSimilar(r.Context(), probe, maxDistance, limit)
		if err != nil {
			writeDomainError(w, err, "failed to find similar edges")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"probe":   probe,
		"results": results,
		"count":   len(results),
	})
}

func (h *QueryHandler) probePoint(r *http.Request) (domain.QualityPoint, error) {
	q := r.URL.Query()
	if v := q.Get("edge_id"); v != "" {
		id, err := domain.ParseRelationshipID(v)
		if err != nil {
			return domain.QualityPoint{}, fmt.Errorf("%w: edge_id %q", domain.ErrInvalidRelationship, v)
		}
		edge, ok := h.space.Edge(id)
		if !ok {
			return domain.QualityPoint{}, service.ErrRelationshipNotFound
		}
		return edge.QualityPointAt(domain.SystemClock()), nil
	}

	coord := func(name string) (float64, error) {
		v := q.Get(name)
		if v == "" {
			return 0.5, nil
		}
		if name == "formality" && domain.ValidFormality(v) {
			return domain.Formality(v).Float(), nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return 0, domain.QualityOutOfRangeError(name + " = " + v)
		}
		return f, nil
	}

	var a [5]float64
	for i, name := range []string{"strength", "trust", "formality", "duration", "reciprocity"} {
		f, err := coord(name)
		if err != nil {
			return domain.QualityPoint{}, err
		}
		a[i] = f
	}
	return domain.QualityPointFromArray(a), nil
}

func (h *QueryHandler) Active(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"edges":      h.space.ActiveEdges(),
		"hyperedges": h.space.ActiveHyperEdges(),
	})
}

// Between lists edges from a to b, plus b to a for symmetric categories.
// Both ends are given as "type:id".
func (h *QueryHandler) Between(w http.ResponseWriter, r *http.Request) {
	a, err := domain.ParseEntityRef(r.URL.Query().Get("a"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid a: "+err.Error())
		return
	}
	b, err := domain.ParseEntityRef(r.URL.Query().Get("b"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid b: "+err.Error())
		return
	}

	edges := h.space.EdgesBetween(a, b)
	writeJSON(w, http.StatusOK, map[string]any{"edges": edges, "count": len(edges)})
}

// Involving lists every edge and hyperedge an entity takes part in.
func (h *QueryHandler) Involving(w http.ResponseWriter, r *http.Request) {
	ref, err := domain.ParseEntityRef(r.URL.Query().Get("entity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entity: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"edges":      h.space.EdgesInvolving(ref),
		"hyperedges": h.space.HyperEdgesInvolving(ref),
	})
}

// Tessellation returns the current tessellation, computing it first if the
// space changed since the last run.
func (h *QueryHandler) Tessellation(w http.ResponseWriter, r *http.Request) {
	t, err := h.tessellation.Run(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute tessellation")
		return
	}
	if t == nil {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "space changed during tessellation, retry")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *QueryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.space.Stats())
}

func (h *QueryHandler) Dimensions(w http.ResponseWriter, r *http.Request) {
	presets := make(map[string]domain.QualityWeights, len(domain.WeightPresets))
	names := make([]string, 0, len(domain.WeightPresets))
	for name, weights := range domain.WeightPresets {
		presets[name] = weights()
		names = append(names, name)
	}
	sort.Strings(names)

	writeJSON(w, http.StatusOK, map[string]any{
		"dimensions":       domain.QualityDimensions(),
		"weight_presets":   presets,
		"preset_names":     names,
		"max_distance":     domain.MaxQualityDistance,
		"formality_levels": domain.FormalityLevels,
	})
}
