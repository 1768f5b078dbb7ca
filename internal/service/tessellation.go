package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Harshitk-cp/relspace/internal/domain"
	"go.uber.org/zap"
)

const defaultTessellationInterval = 1 * time.Minute

// PrototypeTessellator places one generator per category at the centroid
// of that category's sites, then assigns every site to its nearest
// generator. A site can land in another category's cell when it sits
// closer to that prototype.
type PrototypeTessellator struct {
	clock domain.Clock
}

func NewPrototypeTessellator(clock domain.Clock) *PrototypeTessellator {
	return &PrototypeTessellator{clock: clock}
}

func (t *PrototypeTessellator) Tessellate(ctx context.Context, sites []domain.Site) (*domain.VoronoiTessellation, error) {
	type acc struct {
		sum domain.Point3
		n   int
	}
	groups := make(map[domain.RelationshipCategory]*acc)
	for _, s := range sites {
		a, ok := groups[s.Category]
		if !ok {
			a = &acc{}
			groups[s.Category] = a
		}
		a.sum.X += s.Position.X
		a.sum.Y += s.Position.Y
		a.sum.Z += s.Position.Z
		a.n++
	}

	labels := make([]string, 0, len(groups))
	for c := range groups {
		labels = append(labels, string(c))
	}
	sort.Strings(labels)

	cells := make([]domain.VoronoiCell, 0, len(labels))
	for _, l := range labels {
		a := groups[domain.RelationshipCategory(l)]
		n := float64(a.n)
		cells = append(cells, domain.VoronoiCell{
			Label:     l,
			Generator: domain.Point3{X: a.sum.X / n, Y: a.sum.Y / n, Z: a.sum.Z / n},
			Members:   []domain.RelationshipID{},
		})
	}

	for _, s := range sites {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		best := 0
		for i := 1; i < len(cells); i++ {
			if s.Position.Distance(cells[i].Generator) < s.Position.Distance(cells[best].Generator) {
				best = i
			}
		}
		cells[best].Members = append(cells[best].Members, s.ID)
	}

	return &domain.VoronoiTessellation{Cells: cells, ComputedAt: t.clock.Now()}, nil
}

// TessellationService recomputes the space's tessellation in the
// background whenever a write has invalidated it.
type TessellationService struct {
	space       *SpaceService
	tessellator domain.Tessellator
	logger      *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewTessellationService(space *SpaceService, tessellator domain.Tessellator, logger *zap.Logger) *TessellationService {
	return &TessellationService{
		space:       space,
		tessellator: tessellator,
		logger:      logger,
		interval:    defaultTessellationInterval,
		stopCh:      make(chan struct{}),
	}
}

func (s *TessellationService) SetInterval(d time.Duration) {
	s.interval = d
}

// Start runs the tessellator on a periodic schedule in a background goroutine.
func (s *TessellationService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("tessellation service started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if _, err := s.Run(ctx); err != nil {
					s.logger.Error("tessellation failed", zap.Error(err))
				}
				cancel()
			case <-s.stopCh:
				s.logger.Info("tessellation service stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the service.
func (s *TessellationService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// Run recomputes the tessellation if the cached one is missing and returns
// whichever is current. A result computed against a space that moved on
// meanwhile is discarded and nil is returned.
func (s *TessellationService) Run(ctx context.Context) (*domain.VoronoiTessellation, error) {
	if t := s.space.Tessellation(); t != nil {
		return t, nil
	}

	spaceID, version, sites := s.space.snapshot()
	t, err := s.tessellator.Tessellate(ctx, sites)
	if err != nil {
		tessellationRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	if t == nil {
		tessellationRuns.WithLabelValues("error").Inc()
		return nil, domain.SpaceError(errors.New("tessellator returned no result"))
	}
	t.SpaceID = spaceID
	t.SpaceVersion = version

	if !s.space.setTessellation(t) {
		tessellationRuns.WithLabelValues("stale").Inc()
		s.logger.Debug("discarded stale tessellation", zap.Uint64("version", version))
		return nil, nil
	}

	tessellationRuns.WithLabelValues("ok").Inc()
	tessellationCells.Set(float64(len(t.Cells)))
	s.logger.Info("tessellation computed",
		zap.Uint64("version", version),
		zap.Int("sites", len(sites)),
		zap.Int("cells", len(t.Cells)))
	return t, nil
}
