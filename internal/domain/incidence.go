package domain

import (
	"encoding/json"
	"sort"
	"time"
)

type ParticipantEntry struct {
	EntityRef EntityRef       `json:"entity_ref"`
	Role      ParticipantRole `json:"role"`
	Weight    float64         `json:"weight"`
	JoinedAt  time.Time       `json:"joined_at"`
}

// IncidenceMatrix is the sparse participant set of a hyperedge, keyed by
// the string form of each EntityRef. The zero value is an empty matrix.
type IncidenceMatrix struct {
	entries map[string]ParticipantEntry
}

func NewIncidenceMatrix() IncidenceMatrix {
	return IncidenceMatrix{entries: make(map[string]ParticipantEntry)}
}

// Add inserts or replaces the entry for ref. Weight is clamped to [0,1].
func (m *IncidenceMatrix) Add(ref EntityRef, role ParticipantRole, weight float64, at time.Time) {
	if m.entries == nil {
		m.entries = make(map[string]ParticipantEntry)
	}
	m.entries[ref.String()] = ParticipantEntry{
		EntityRef: ref,
		Role:      role,
		Weight:    clampUnit(weight),
		JoinedAt:  at,
	}
}

func (m *IncidenceMatrix) Remove(ref EntityRef) (ParticipantEntry, bool) {
	key := ref.String()
	e, ok := m.entries[key]
	if ok {
		delete(m.entries, key)
	}
	return e, ok
}

// ChangeRole re-adds ref under a new role, keeping its weight. JoinedAt is
// reset to at.
func (m *IncidenceMatrix) ChangeRole(ref EntityRef, role ParticipantRole, at time.Time) bool {
	e, ok := m.Remove(ref)
	if !ok {
		return false
	}
	m.Add(e.EntityRef, role, e.Weight, at)
	return true
}

func (m IncidenceMatrix) Get(ref EntityRef) (ParticipantEntry, bool) {
	e, ok := m.entries[ref.String()]
	return e, ok
}

func (m IncidenceMatrix) Contains(ref EntityRef) bool {
	_, ok := m.entries[ref.String()]
	return ok
}

func (m IncidenceMatrix) Count() int {
	return len(m.entries)
}

// Participants returns all entries ordered by key.
func (m IncidenceMatrix) Participants() []ParticipantEntry {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]ParticipantEntry, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.entries[k])
	}
	return out
}

func (m IncidenceMatrix) WithRole(role ParticipantRole) []ParticipantEntry {
	var out []ParticipantEntry
	for _, e := range m.Participants() {
		if e.Role == role {
			out = append(out, e)
		}
	}
	return out
}

func (m IncidenceMatrix) Clone() IncidenceMatrix {
	out := IncidenceMatrix{entries: make(map[string]ParticipantEntry, len(m.entries))}
	for k, v := range m.entries {
		out.entries[k] = v
	}
	return out
}

func (m IncidenceMatrix) Equal(o IncidenceMatrix) bool {
	if len(m.entries) != len(o.entries) {
		return false
	}
	for k, a := range m.entries {
		b, ok := o.entries[k]
		if !ok || !a.EntityRef.Equal(b.EntityRef) || a.Role != b.Role || a.Weight != b.Weight || !a.JoinedAt.Equal(b.JoinedAt) {
			return false
		}
	}
	return true
}

func (m IncidenceMatrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Participants())
}

func (m *IncidenceMatrix) UnmarshalJSON(b []byte) error {
	var entries []ParticipantEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return err
	}
	*m = NewIncidenceMatrix()
	for _, e := range entries {
		m.Add(e.EntityRef, e.Role, e.Weight, e.JoinedAt)
	}
	return nil
}
