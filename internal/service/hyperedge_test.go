package service

import (
	"context"
	"testing"

	"github.com/Harshitk-cp/relspace/internal/domain"
	"github.com/Harshitk-cp/relspace/internal/resolver"
	"github.com/Harshitk-cp/relspace/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHyperEdgeService(t *testing.T) (*HyperEdgeService, *SpaceService) {
	t.Helper()
	clock := domain.FixedClock(svcT0)
	space := NewSpaceService("test", clock, zap.NewNop())
	svc := NewHyperEdgeService(store.NewMemoryEventStore(), space, zap.NewNop())
	svc.SetClock(clock)
	return svc, space
}

func TestHyperEdgeService_Lifecycle(t *testing.T) {
	svc, space := newHyperEdgeService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, domain.CreateHyperEdge{
		Name:     "Merger committee",
		Category: domain.CategoryMembership,
		Participants: []domain.ParticipantSpec{
			{Entity: acme, Role: domain.RolePrimary, Weight: 1},
			{Entity: globex, Role: domain.RolePrimary, Weight: 1},
		},
		CreatedBy: "legal",
	})
	require.NoError(t, err)
	h := res.HyperEdge
	assert.Equal(t, domain.HyperEdgeStateForming, h.State)
	assert.Equal(t, 2, h.ParticipantCount())

	res, err = svc.Activate(ctx, domain.ActivateHyperEdge{HyperEdgeID: h.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.HyperEdgeStateActive, res.HyperEdge.State)

	res, err = svc.AddParticipant(ctx, domain.AddParticipant{HyperEdgeID: h.ID, Participant: carol, Role: domain.RoleFacilitator, Weight: 0.5})
	require.NoError(t, err)
	assert.Equal(t, []string{"ParticipantAdded"}, res.Events)

	res, err = svc.ChangeParticipantRole(ctx, domain.ChangeParticipantRole{HyperEdgeID: h.ID, Participant: carol, NewRole: domain.RoleObserver})
	require.NoError(t, err)
	entry, ok := res.HyperEdge.Participants.Get(carol)
	require.True(t, ok)
	assert.Equal(t, domain.RoleObserver, entry.Role)

	_, err = svc.RemoveParticipant(ctx, domain.RemoveParticipant{HyperEdgeID: h.ID, Participant: carol, Reason: "done"})
	require.NoError(t, err)

	_, err = svc.RemoveParticipant(ctx, domain.RemoveParticipant{HyperEdgeID: h.ID, Participant: globex, Reason: "withdrew"})
	assert.ErrorIs(t, err, domain.ErrInsufficientParticipants)

	res, err = svc.BeginRestructuring(ctx, domain.BeginRestructuring{HyperEdgeID: h.ID, Reason: "reorg"})
	require.NoError(t, err)
	assert.Equal(t, domain.HyperEdgeStateRestructuring, res.HyperEdge.State)

	q := domain.NewRelationshipQuality(0.9, 0.6, domain.FormalityLegal, domain.OngoingFrom(svcT0), 0.7)
	res, err = svc.UpdateQuality(ctx, domain.UpdateHyperEdgeQuality{HyperEdgeID: h.ID, Quality: q, Reason: "signed"})
	require.NoError(t, err)
	assert.Equal(t, 0.9, res.HyperEdge.Quality.Strength)

	res, err = svc.Terminate(ctx, domain.TerminateHyperEdge{HyperEdgeID: h.ID, Reason: "merger complete"})
	require.NoError(t, err)
	assert.Equal(t, domain.HyperEdgeStateDissolved, res.HyperEdge.State)

	got, err := svc.Get(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, res.HyperEdge.Version, got.Version)
	assert.Equal(t, domain.HyperEdgeStateDissolved, got.State)

	history, err := svc.History(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, history, int(got.Version)+1)

	cached, ok := space.HyperEdge(h.ID)
	require.True(t, ok)
	assert.Equal(t, got.Version, cached.Version)
}

func TestHyperEdgeService_AddExistingParticipantIsNoop(t *testing.T) {
	svc, _ := newHyperEdgeService(t)
	ctx := context.Background()

	res, err := svc.Create(ctx, domain.CreateHyperEdge{
		Name:         "Book club",
		Category:     domain.CategoryFriendship,
		Participants: []domain.ParticipantSpec{{Entity: alice}, {Entity: bob}},
	})
	require.NoError(t, err)

	again, err := svc.AddParticipant(ctx, domain.AddParticipant{HyperEdgeID: res.HyperEdge.ID, Participant: alice})
	require.NoError(t, err)
	assert.Empty(t, again.Events)
	assert.Equal(t, res.HyperEdge.Version, again.HyperEdge.Version)
}

func TestHyperEdgeService_ResolvesParticipants(t *testing.T) {
	svc, _ := newHyperEdgeService(t)
	r := resolver.NewMockResolver()
	r.MarkMissing(carol)
	svc.SetResolver(r)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateHyperEdge{
		Name:         "Study group",
		Category:     domain.CategoryMembership,
		Participants: []domain.ParticipantSpec{{Entity: alice}, {Entity: carol}},
	})
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)

	res, err := svc.Create(ctx, domain.CreateHyperEdge{
		Name:         "Study group",
		Category:     domain.CategoryMembership,
		Participants: []domain.ParticipantSpec{{Entity: alice}, {Entity: bob}},
	})
	require.NoError(t, err)

	_, err = svc.AddParticipant(ctx, domain.AddParticipant{HyperEdgeID: res.HyperEdge.ID, Participant: carol})
	assert.ErrorIs(t, err, domain.ErrEntityNotFound)

	history, err := svc.History(ctx, res.HyperEdge.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestHyperEdgeService_UsesProfiles(t *testing.T) {
	svc, _ := newHyperEdgeService(t)
	svc.SetProfiles(domain.ProfileSet{
		domain.CategoryMembership: {Strength: 0.1, Trust: 0.2, Formality: domain.FormalityInformal, Reciprocity: 0.3},
	})

	res, err := svc.Create(context.Background(), domain.CreateHyperEdge{Name: "Choir", Category: domain.CategoryMembership})
	require.NoError(t, err)
	assert.Equal(t, 0.1, res.HyperEdge.Quality.Strength)
	assert.Equal(t, domain.FormalityInformal, res.HyperEdge.Quality.Formality)
}

func TestHyperEdgeService_UnknownHyperEdge(t *testing.T) {
	svc, _ := newHyperEdgeService(t)
	_, err := svc.Activate(context.Background(), domain.ActivateHyperEdge{HyperEdgeID: domain.NewRelationshipID()})
	assert.ErrorIs(t, err, ErrRelationshipNotFound)
}
