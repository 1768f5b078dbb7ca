package domain

import (
	"context"
	"time"
)

// Site is one relationship as seen by a tessellator: its projected
// position and enough identity to label the cell it lands in.
type Site struct {
	ID       RelationshipID       `json:"id"`
	Kind     AggregateKind        `json:"kind"`
	Category RelationshipCategory `json:"category"`
	Position Point3               `json:"position"`
}

type VoronoiCell struct {
	Label     string           `json:"label"`
	Generator Point3           `json:"generator"`
	Members   []RelationshipID `json:"members"`
}

// VoronoiTessellation partitions the projected space into cells, each
// holding the sites nearest its generator.
type VoronoiTessellation struct {
	SpaceID      ConceptualSpaceID `json:"space_id"`
	SpaceVersion uint64            `json:"space_version"`
	Cells        []VoronoiCell     `json:"cells"`
	ComputedAt   time.Time         `json:"computed_at"`
}

// CellFor returns the cell whose generator is nearest p.
func (t *VoronoiTessellation) CellFor(p Point3) (VoronoiCell, bool) {
	if t == nil || len(t.Cells) == 0 {
		return VoronoiCell{}, false
	}
	best := 0
	for i := 1; i < len(t.Cells); i++ {
		if p.Distance(t.Cells[i].Generator) < p.Distance(t.Cells[best].Generator) {
			best = i
		}
	}
	return t.Cells[best], true
}

type Tessellator interface {
	Tessellate(ctx context.Context, sites []Site) (*VoronoiTessellation, error)
}
