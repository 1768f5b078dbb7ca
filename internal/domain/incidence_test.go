package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestIncidenceMatrix(t *testing.T) {
	var m IncidenceMatrix
	if m.Count() != 0 {
		t.Fatal("zero value should be empty")
	}

	m.Add(PersonRef(aliceID), RoleLeader, 1.5, t0)
	m.Add(PersonRef(bobID), RoleMember, -0.2, t0)
	m.Add(PersonRef(aliceID).WithVersion(2), RoleMember, 0.5, t0)

	if m.Count() != 3 {
		t.Errorf("pinned and unpinned refs are distinct participants, count = %d", m.Count())
	}

	e, ok := m.Get(PersonRef(aliceID))
	if !ok || e.Weight != 1 {
		t.Errorf("weight should clamp to 1, got %+v", e)
	}
	e, _ = m.Get(PersonRef(bobID))
	if e.Weight != 0 {
		t.Errorf("weight should clamp to 0, got %v", e.Weight)
	}

	if got := len(m.WithRole(RoleMember)); got != 2 {
		t.Errorf("WithRole(member) = %d", got)
	}

	if _, ok := m.Remove(PersonRef(carolID)); ok {
		t.Error("removing a stranger should report false")
	}
	if _, ok := m.Remove(PersonRef(bobID)); !ok || m.Contains(PersonRef(bobID)) {
		t.Error("bob should be removed")
	}
}

func TestIncidenceMatrix_CloneIsIndependent(t *testing.T) {
	m := NewIncidenceMatrix()
	m.Add(PersonRef(aliceID), RoleMember, 0.5, t0)

	c := m.Clone()
	c.Add(PersonRef(bobID), RoleMember, 0.5, t0)
	c.ChangeRole(PersonRef(aliceID), RoleLeader, t0.Add(time.Hour))

	if m.Count() != 1 {
		t.Error("clone shares storage with the original")
	}
	if e, _ := m.Get(PersonRef(aliceID)); e.Role != RoleMember {
		t.Error("role change leaked into the original")
	}
	if m.Equal(c) {
		t.Error("diverged matrices should not be equal")
	}
}

func TestIncidenceMatrix_JSON(t *testing.T) {
	m := NewIncidenceMatrix()
	m.Add(PersonRef(bobID), RoleMember, 0.4, t0)
	m.Add(OrganizationRef(acmeID).WithCID("bafyacme"), RoleStakeholder, 0.8, t0)

	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back IncidenceMatrix
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !m.Equal(back) {
		t.Errorf("round trip changed the matrix: %s", b)
	}

	ps := back.Participants()
	if len(ps) != 2 || ps[0].EntityRef.Type != EntityTypeOrganization {
		t.Errorf("participants should be ordered by key, got %+v", ps)
	}
}
