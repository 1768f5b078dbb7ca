package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

var (
	aliceID = uuid.MustParse("0190a0e4-0000-7000-8000-000000000001")
	acmeID  = uuid.MustParse("0190a0e4-0000-7000-8000-000000000002")
	bobID   = uuid.MustParse("0190a0e4-0000-7000-8000-000000000003")
	carolID = uuid.MustParse("0190a0e4-0000-7000-8000-000000000004")
)

func TestEntityRef_String(t *testing.T) {
	ref := PersonRef(aliceID)
	if got := ref.String(); got != "person:"+aliceID.String() {
		t.Errorf("String() = %s", got)
	}

	pinned := ref.WithCID("bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi")
	if !strings.HasSuffix(pinned.String(), "@bafybeig") {
		t.Errorf("cid should be abbreviated to 8 chars: %s", pinned.String())
	}

	versioned := ref.WithVersion(3)
	if !strings.HasSuffix(versioned.String(), "@v3") {
		t.Errorf("versioned ref = %s", versioned.String())
	}

	short := ref.WithCID("abc")
	if !strings.HasSuffix(short.String(), "@abc") {
		t.Errorf("short cid should render whole: %s", short.String())
	}

	custom := NewEntityRef(CustomEntityType("team"), aliceID)
	if !strings.HasPrefix(custom.String(), "custom:") {
		t.Errorf("custom ref = %s", custom.String())
	}
}

func TestEntityRef_Pinning(t *testing.T) {
	ref := OrganizationRef(acmeID)
	if ref.IsPinned() {
		t.Error("plain ref should not be pinned")
	}
	if !ref.WithCID("bafy").IsPinned() {
		t.Error("cid ref should be pinned")
	}
	if !ref.WithVersion(1).IsPinned() {
		t.Error("versioned ref should be pinned")
	}
	both := ref.WithCID("bafy").WithVersion(2)
	if both.CID == nil || both.Version == nil {
		t.Error("cid and version should coexist")
	}
	if ref.CID != nil {
		t.Error("WithCID must not mutate the original ref")
	}
}

func TestEntityRef_Equal(t *testing.T) {
	a := PersonRef(aliceID).WithVersion(1)
	if !a.Equal(PersonRef(aliceID).WithVersion(1)) {
		t.Error("expected equal refs")
	}
	if a.Equal(PersonRef(aliceID).WithVersion(2)) {
		t.Error("different versions should not be equal")
	}
	if a.Equal(PersonRef(aliceID)) {
		t.Error("pinned and unpinned should not be equal")
	}
	if PersonRef(aliceID).Equal(AgentRef(aliceID)) {
		t.Error("different types should not be equal")
	}
}

func TestEntityRef_Subject(t *testing.T) {
	tests := []struct {
		ref      EntityRef
		expected string
	}{
		{PersonRef(aliceID), "person.query.get." + aliceID.String()},
		{OrganizationRef(acmeID), "organization.query.get." + acmeID.String()},
		{NewEntityRef(CustomEntityType("team"), bobID), "custom.query.get." + bobID.String()},
	}

	for _, tt := range tests {
		if got := tt.ref.Subject(); got != tt.expected {
			t.Errorf("Subject() = %s, expected %s", got, tt.expected)
		}
	}
}

func TestEntityRef_Validate(t *testing.T) {
	if err := PersonRef(aliceID).Validate(); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	if err := PersonRef(uuid.Nil).Validate(); !errors.Is(err, ErrInvalidRelationship) {
		t.Errorf("expected invalid relationship for nil id, got %v", err)
	}
	if err := NewEntityRef("spaceship", aliceID).Validate(); !errors.Is(err, ErrInvalidRelationship) {
		t.Errorf("expected invalid relationship for unknown type, got %v", err)
	}
}

func TestRelationshipCategory(t *testing.T) {
	tests := []struct {
		category  RelationshipCategory
		formality Formality
		symmetric bool
		display   string
		group     CategoryGroup
	}{
		{CategoryEmployment, FormalityContractual, false, "employment", GroupOrganizational},
		{CategoryOwnership, FormalityLegal, false, "ownership", GroupOrganizational},
		{CategoryFriendship, FormalityInformal, true, "friendship", GroupSocial},
		{CategoryProfessionalContact, FormalitySemiFormal, true, "professional contact", GroupSocial},
		{CategoryPartOf, FormalityFormal, false, "part of", GroupStructural},
		{CategoryPrecedes, FormalityFormal, false, "precedes", GroupTemporal},
		{CategoryDerivesFrom, FormalityFormal, false, "derives from", GroupKnowledge},
		{CustomCategory("sponsors"), FormalityFormal, false, "sponsors", GroupCustom},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			if got := tt.category.DefaultFormality(); got != tt.formality {
				t.Errorf("DefaultFormality = %s, expected %s", got, tt.formality)
			}
			if got := tt.category.IsSymmetric(); got != tt.symmetric {
				t.Errorf("IsSymmetric = %v", got)
			}
			if got := tt.category.DisplayName(); got != tt.display {
				t.Errorf("DisplayName = %q", got)
			}
			if got := tt.category.Group(); got != tt.group {
				t.Errorf("Group = %s", got)
			}
			if tt.category.AllowsReflexive() {
				t.Error("no category should allow reflexive relationships")
			}
			if !ValidCategory(string(tt.category)) {
				t.Error("expected category to be valid")
			}
		})
	}

	if ValidCategory("custom:") || ValidCategory("rivalry") {
		t.Error("empty custom and unknown categories should be invalid")
	}
}

func TestValidityPeriod(t *testing.T) {
	v := OngoingFrom(t0)
	if !v.IsActiveAt(t0) {
		t.Error("period should be active at its start")
	}
	if v.IsActiveAt(t0.Add(-time.Second)) {
		t.Error("period should not be active before its start")
	}
	if _, ok := v.DurationDays(); ok {
		t.Error("ongoing period has no total duration")
	}

	end := t0.Add(10 * 24 * time.Hour)
	ended := v.End(end, "contract ended")
	if v.EndsAt != nil {
		t.Error("End must not mutate the receiver")
	}
	if ended.IsActiveAt(end) {
		t.Error("period should not be active at its end")
	}
	if !ended.HasEndedAt(end) {
		t.Error("period should have ended at its end")
	}
	if days, ok := ended.DurationDays(); !ok || days != 10 {
		t.Errorf("DurationDays = %d, %v", days, ok)
	}

	again := ended.End(end.Add(time.Hour), "second end")
	if !again.EndsAt.Equal(end) || *again.EndReason != "contract ended" {
		t.Error("an ended period must keep its original end")
	}

	early := v.End(t0.Add(-time.Hour), "backdated")
	if !early.EndsAt.Equal(t0) {
		t.Errorf("end before start should clamp to start, got %v", early.EndsAt)
	}
}

func TestValidityPeriod_FixedTerm(t *testing.T) {
	v := FixedTerm(t0, t0.Add(-time.Hour))
	if v.EndsAt.Before(v.StartsAt) {
		t.Error("fixed term must not end before it starts")
	}
}

func TestTypedRelationshipID_Erase(t *testing.T) {
	id := NewTypedRelationshipID[PersonKind, OrganizationKind]()
	erased := id.Erase()
	if erased.IsZero() {
		t.Fatal("expected a minted id")
	}

	text, err := id.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(text) != erased.String() {
		t.Errorf("typed id should serialize like the erased id: %s vs %s", text, erased)
	}

	var back TypedRelationshipID[PersonKind, OrganizationKind]
	if err := back.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if back.Erase() != erased {
		t.Error("round trip changed the id")
	}
}

func TestRelationshipID_TimeOrdered(t *testing.T) {
	a := NewRelationshipID()
	time.Sleep(2 * time.Millisecond)
	b := NewRelationshipID()
	if a.String() >= b.String() {
		t.Errorf("ids should sort by creation time: %s >= %s", a, b)
	}
}

func TestParseEntityRef(t *testing.T) {
	tests := []struct {
		in      string
		want    EntityRef
		wantErr bool
	}{
		{"person:" + aliceID.String(), PersonRef(aliceID), false},
		{"custom:vendor:" + acmeID.String(), NewEntityRef(CustomEntityType("vendor"), acmeID), false},
		{"person", EntityRef{}, true},
		{"person:not-a-uuid", EntityRef{}, true},
		{"spaceship:" + aliceID.String(), EntityRef{}, true},
	}

	for _, tt := range tests {
		got, err := ParseEntityRef(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidRelationship) {
				t.Errorf("ParseEntityRef(%q) error = %v", tt.in, err)
			}
			continue
		}
		if err != nil || !got.Equal(tt.want) {
			t.Errorf("ParseEntityRef(%q) = %v, %v", tt.in, got, err)
		}
	}
}
