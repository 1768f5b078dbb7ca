package service

import (
	"errors"
	"time"

	"github.com/Harshitk-cp/relspace/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// commandsTotal counts handled commands.
	// Labels: command (create_edge, add_participant, ...), outcome (applied, noop, rejected, conflict, error)
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relspace",
		Subsystem: "commands",
		Name:      "total",
		Help:      "Relationship commands handled, by outcome",
	}, []string{"command", "outcome"})

	commandLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "relspace",
		Subsystem: "commands",
		Name:      "duration_seconds",
		Help:      "Time to decide and persist a relationship command",
		Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"command"})

	// eventsAppended counts events written to the event store.
	// Labels: event_type
	eventsAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relspace",
		Subsystem: "events",
		Name:      "appended_total",
		Help:      "Domain events appended to the event store",
	}, []string{"event_type"})

	spaceRelationships = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "relspace",
		Subsystem: "space",
		Name:      "relationships",
		Help:      "Relationships held in the in-memory space",
	}, []string{"kind"})

	tessellationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relspace",
		Subsystem: "tessellation",
		Name:      "runs_total",
		Help:      "Tessellation recomputations, by status",
	}, []string{"status"})

	tessellationCells = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "relspace",
		Subsystem: "tessellation",
		Name:      "cells",
		Help:      "Cells in the most recent tessellation",
	})
)

const (
	outcomeApplied  = "applied"
	outcomeNoop     = "noop"
	outcomeRejected = "rejected"
	outcomeConflict = "conflict"
	outcomeError    = "error"
)

func commandOutcome(applied bool, err error) string {
	switch {
	case err == nil && applied:
		return outcomeApplied
	case err == nil:
		return outcomeNoop
	case errors.Is(err, ErrVersionConflict):
		return outcomeConflict
	case errors.Is(err, domain.ErrInvalidRelationship),
		errors.Is(err, domain.ErrInvalidStateTransition),
		errors.Is(err, domain.ErrInsufficientParticipants),
		errors.Is(err, domain.ErrQualityOutOfRange),
		errors.Is(err, domain.ErrEntityNotFound),
		errors.Is(err, ErrRelationshipNotFound):
		return outcomeRejected
	default:
		return outcomeError
	}
}

func observeCommand(kind string, start time.Time, applied bool, err error) {
	commandsTotal.WithLabelValues(kind, commandOutcome(applied, err)).Inc()
	commandLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
