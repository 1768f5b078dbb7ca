package domain

import (
	"encoding/json"
	"fmt"
)

type AggregateKind string

const (
	AggregateEdge      AggregateKind = "edge"
	AggregateHyperEdge AggregateKind = "hyperedge"
)

// EventEnvelope is the self-describing wire form of an event.
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func decodeAs[T Event](data []byte) (Event, error) {
	var e T
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return e, nil
}

var eventDecoders = map[string]func([]byte) (Event, error){
	"EdgeCreated":             decodeAs[EdgeCreated],
	"EdgeActivated":           decodeAs[EdgeActivated],
	"EdgeSuspended":           decodeAs[EdgeSuspended],
	"EdgeTerminated":          decodeAs[EdgeTerminated],
	"EdgeRejected":            decodeAs[EdgeRejected],
	"EdgeQualityUpdated":      decodeAs[EdgeQualityUpdated],
	"EdgeEvidenceAdded":       decodeAs[EdgeEvidenceAdded],
	"EdgeKnowledgeProgressed": decodeAs[EdgeKnowledgeProgressed],
	"EdgePropertyUpdated":     decodeAs[EdgePropertyUpdated],
	"HyperEdgeCreated":        decodeAs[HyperEdgeCreated],
	"HyperEdgeActivated":      decodeAs[HyperEdgeActivated],
	"ParticipantAdded":        decodeAs[ParticipantAdded],
	"ParticipantRemoved":      decodeAs[ParticipantRemoved],
	"ParticipantRoleChanged":  decodeAs[ParticipantRoleChanged],
	"RestructuringStarted":    decodeAs[RestructuringStarted],
	"HyperEdgeTerminated":     decodeAs[HyperEdgeTerminated],
	"HyperEdgeQualityUpdated": decodeAs[HyperEdgeQualityUpdated],
}

func KindOf(e Event) AggregateKind {
	if _, ok := e.(HyperEdgeEvent); ok {
		return AggregateHyperEdge
	}
	return AggregateEdge
}

// DecodeEvent rebuilds an event from its type name and JSON payload.
func DecodeEvent(eventType string, data []byte) (Event, error) {
	dec, ok := eventDecoders[eventType]
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
	e, err := dec(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", eventType, err)
	}
	return e, nil
}

func MarshalEvent(e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.EventType(), err)
	}
	return json.Marshal(EventEnvelope{Type: e.EventType(), Data: data})
}

func UnmarshalEvent(b []byte) (Event, error) {
	var env EventEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	return DecodeEvent(env.Type, env.Data)
}

func UnmarshalEdgeEvent(b []byte) (EdgeEvent, error) {
	e, err := UnmarshalEvent(b)
	if err != nil {
		return nil, err
	}
	ee, ok := e.(EdgeEvent)
	if !ok {
		return nil, fmt.Errorf("%s is not an edge event", e.EventType())
	}
	return ee, nil
}

func UnmarshalHyperEdgeEvent(b []byte) (HyperEdgeEvent, error) {
	e, err := UnmarshalEvent(b)
	if err != nil {
		return nil, err
	}
	he, ok := e.(HyperEdgeEvent)
	if !ok {
		return nil, fmt.Errorf("%s is not a hyperedge event", e.EventType())
	}
	return he, nil
}
