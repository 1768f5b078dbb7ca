package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Harshitk-cp/relspace/internal/domain"
	"github.com/Harshitk-cp/relspace/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPrototypeTessellator(t *testing.T) {
	tess := NewPrototypeTessellator(domain.FixedClock(svcT0))
	a, b, c := domain.NewRelationshipID(), domain.NewRelationshipID(), domain.NewRelationshipID()

	result, err := tess.Tessellate(context.Background(), []domain.Site{
		{ID: a, Kind: domain.AggregateEdge, Category: domain.CategoryEmployment, Position: domain.Point3{X: 0.8, Y: 0.6, Z: 0.75}},
		{ID: b, Kind: domain.AggregateEdge, Category: domain.CategoryEmployment, Position: domain.Point3{X: 0.6, Y: 0.6, Z: 0.75}},
		{ID: c, Kind: domain.AggregateEdge, Category: domain.CategoryFriendship, Position: domain.Point3{X: 0.5, Y: 0.9, Z: 0}},
	})
	require.NoError(t, err)
	require.Len(t, result.Cells, 2)

	emp := result.Cells[0]
	assert.Equal(t, "employment", emp.Label)
	assert.InDelta(t, 0.7, emp.Generator.X, 1e-9)
	assert.ElementsMatch(t, []domain.RelationshipID{a, b}, emp.Members)

	fr := result.Cells[1]
	assert.Equal(t, "friendship", fr.Label)
	assert.Equal(t, []domain.RelationshipID{c}, fr.Members)
	assert.True(t, result.ComputedAt.Equal(svcT0))
}

func TestPrototypeTessellator_Empty(t *testing.T) {
	result, err := NewPrototypeTessellator(domain.FixedClock(svcT0)).Tessellate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Cells)
}

func TestPrototypeTessellator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPrototypeTessellator(domain.FixedClock(svcT0)).Tessellate(ctx, []domain.Site{{ID: domain.NewRelationshipID()}})
	assert.ErrorIs(t, err, context.Canceled)
}

// countingTessellator records calls and can fail or mutate the space
// mid-run.
type countingTessellator struct {
	inner  domain.Tessellator
	calls  int
	err    error
	during func()
}

func (c *countingTessellator) Tessellate(ctx context.Context, sites []domain.Site) (*domain.VoronoiTessellation, error) {
	c.calls++
	if c.during != nil {
		c.during()
	}
	if c.err != nil || c.inner == nil {
		return nil, c.err
	}
	return c.inner.Tessellate(ctx, sites)
}

func TestTessellationService_Run(t *testing.T) {
	es := store.NewMemoryEventStore()
	space := NewSpaceService("test", domain.FixedClock(svcT0), zap.NewNop())
	employment, _, _ := seedSpace(t, es, space)

	counter := &countingTessellator{inner: NewPrototypeTessellator(domain.FixedClock(svcT0))}
	svc := NewTessellationService(space, counter, zap.NewNop())

	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, space.Stats().Version, first.SpaceVersion)
	assert.Equal(t, space.Stats().ID, first.SpaceID)
	assert.Len(t, first.Cells, 3)
	assert.True(t, space.Stats().Tessellated)

	again, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, 1, counter.calls, "a cached tessellation is reused")

	cell, ok := space.Tessellation().CellFor(employment.Position)
	require.True(t, ok)
	assert.Contains(t, cell.Members, employment.ID)

	space.PutEdge(employment)
	assert.Nil(t, space.Tessellation(), "a write invalidates the cache")
}

func TestTessellationService_DiscardsStaleResult(t *testing.T) {
	es := store.NewMemoryEventStore()
	space := NewSpaceService("test", domain.FixedClock(svcT0), zap.NewNop())
	employment, _, _ := seedSpace(t, es, space)

	counter := &countingTessellator{
		inner:  NewPrototypeTessellator(domain.FixedClock(svcT0)),
		during: func() { space.PutEdge(employment) },
	}
	svc := NewTessellationService(space, counter, zap.NewNop())

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Nil(t, space.Tessellation())
}

func TestTessellationService_Error(t *testing.T) {
	space := NewSpaceService("test", domain.FixedClock(svcT0), zap.NewNop())
	svc := NewTessellationService(space, &countingTessellator{err: errors.New("boom")}, zap.NewNop())

	_, err := svc.Run(context.Background())
	assert.Error(t, err)
}

func TestTessellationService_NilResult(t *testing.T) {
	space := NewSpaceService("test", domain.FixedClock(svcT0), zap.NewNop())
	svc := NewTessellationService(space, &countingTessellator{}, zap.NewNop())

	result, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrSpace)
	assert.Nil(t, result)
	assert.Nil(t, space.Tessellation())
}

func TestTessellationService_StartStop(t *testing.T) {
	space := NewSpaceService("test", domain.FixedClock(svcT0), zap.NewNop())
	seedSpace(t, store.NewMemoryEventStore(), space)

	svc := NewTessellationService(space, NewPrototypeTessellator(domain.FixedClock(svcT0)), zap.NewNop())
	svc.SetInterval(5 * time.Millisecond)
	svc.Start()

	require.Eventually(t, func() bool { return space.Tessellation() != nil }, time.Second, 5*time.Millisecond)
	svc.Stop()
}
