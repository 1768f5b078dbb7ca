package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/Harshitk-cp/relspace/internal/domain"
	"github.com/Harshitk-cp/relspace/internal/service"
	"github.com/go-chi/chi/v5"
)

type CommandHandler struct {
	edges      *service.EdgeService
	hyperedges *service.HyperEdgeService
}

func NewCommandHandler(edges *service.EdgeService, hyperedges *service.HyperEdgeService) *CommandHandler {
	return &CommandHandler{edges: edges, hyperedges: hyperedges}
}

type commandDecoder func(io.Reader) (domain.Command, error)

func decodeAs[T domain.Command](body io.Reader) (domain.Command, error) {
	var cmd T
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cmd); err != nil {
		return nil, err
	}
	return cmd, nil
}

var edgeCommands = map[string]commandDecoder{
	domain.CommandCreateEdge:            decodeAs[domain.CreateEdge],
	domain.CommandActivateEdge:          decodeAs[domain.ActivateEdge],
	domain.CommandSuspendEdge:           decodeAs[domain.SuspendEdge],
	domain.CommandResumeEdge:            decodeAs[domain.ResumeEdge],
	domain.CommandTerminateEdge:         decodeAs[domain.TerminateEdge],
	domain.CommandRejectEdge:            decodeAs[domain.RejectEdge],
	domain.CommandUpdateEdgeQuality:     decodeAs[domain.UpdateEdgeQuality],
	domain.CommandAddEdgeEvidence:       decodeAs[domain.AddEdgeEvidence],
	domain.CommandProgressEdgeKnowledge: decodeAs[domain.ProgressEdgeKnowledge],
	domain.CommandUpdateEdgeProperty:    decodeAs[domain.UpdateEdgeProperty],
}

var hyperEdgeCommands = map[string]commandDecoder{
	domain.CommandCreateHyperEdge:        decodeAs[domain.CreateHyperEdge],
	domain.CommandActivateHyperEdge:      decodeAs[domain.ActivateHyperEdge],
	domain.CommandAddParticipant:         decodeAs[domain.AddParticipant],
	domain.CommandRemoveParticipant:      decodeAs[domain.RemoveParticipant],
	domain.CommandChangeParticipantRole:  decodeAs[domain.ChangeParticipantRole],
	domain.CommandRestructureHyperEdge:   decodeAs[domain.BeginRestructuring],
	domain.CommandTerminateHyperEdge:     decodeAs[domain.TerminateHyperEdge],
	domain.CommandUpdateHyperEdgeQuality: decodeAs[domain.UpdateHyperEdgeQuality],
}

// Handle accepts a command posted to /commands/{kind}. The kind matches the
// trailing token of the command subject.
func (h *CommandHandler) Handle(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	if decode, ok := edgeCommands[kind]; ok {
		cmd, err := decode(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		result, err := h.edges.Handle(r.Context(), cmd)
		if err != nil {
			writeDomainError(w, err, "failed to handle "+kind)
			return
		}
		writeJSON(w, commandStatus(kind), result)
		return
	}

	if decode, ok := hyperEdgeCommands[kind]; ok {
		cmd, err := decode(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		result, err := h.hyperedges.Handle(r.Context(), cmd)
		if err != nil {
			writeDomainError(w, err, "failed to handle "+kind)
			return
		}
		writeJSON(w, commandStatus(kind), result)
		return
	}

	writeError(w, http.StatusNotFound, "unknown command "+kind)
}

func commandStatus(kind string) int {
	if kind == domain.CommandCreateEdge || kind == domain.CommandCreateHyperEdge {
		return http.StatusCreated
	}
	return http.StatusOK
}
