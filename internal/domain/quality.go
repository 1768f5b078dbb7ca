package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// MaxQualityDistance is the diagonal of the unit 5-cube.
var MaxQualityDistance = math.Sqrt(5)

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// QualityPoint is a position in the five-dimensional relationship quality
// space. Every coordinate is in [0,1].
type QualityPoint struct {
	Strength    float64 `json:"strength"`
	Trust       float64 `json:"trust"`
	Formality   float64 `json:"formality"`
	Duration    float64 `json:"duration"`
	Reciprocity float64 `json:"reciprocity"`
}

func NewQualityPoint(strength, trust, formality, duration, reciprocity float64) QualityPoint {
	return QualityPoint{
		Strength:    clampUnit(strength),
		Trust:       clampUnit(trust),
		Formality:   clampUnit(formality),
		Duration:    clampUnit(duration),
		Reciprocity: clampUnit(reciprocity),
	}
}

func QualityPointFromArray(a [5]float64) QualityPoint {
	return NewQualityPoint(a[0], a[1], a[2], a[3], a[4])
}

// CenterPoint is the middle of the space, 0.5 on every axis.
func CenterPoint() QualityPoint {
	return NewQualityPoint(0.5, 0.5, 0.5, 0.5, 0.5)
}

func (p *QualityPoint) UnmarshalJSON(b []byte) error {
	type raw QualityPoint
	var r raw
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	*p = NewQualityPoint(r.Strength, r.Trust, r.Formality, r.Duration, r.Reciprocity)
	return nil
}

func (p QualityPoint) Array() [5]float64 {
	return [5]float64{p.Strength, p.Trust, p.Formality, p.Duration, p.Reciprocity}
}

func (p QualityPoint) Distance(q QualityPoint) float64 {
	return p.WeightedDistance(q, DefaultWeights())
}

func (p QualityPoint) WeightedDistance(q QualityPoint, w QualityWeights) float64 {
	a, b, ws := p.Array(), q.Array(), w.Array()
	var sum float64
	for i := range a {
		d := ws[i] * (a[i] - b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Lerp moves t of the way from p toward q. t is clamped to [0,1].
func (p QualityPoint) Lerp(q QualityPoint, t float64) QualityPoint {
	t = clampUnit(t)
	a, b := p.Array(), q.Array()
	var out [5]float64
	for i := range a {
		out[i] = a[i] + (b[i]-a[i])*t
	}
	return QualityPointFromArray(out)
}

// Project3 drops duration and reciprocity. The result is for display and
// tessellation only; it does not preserve distances.
func (p QualityPoint) Project3() Point3 {
	return Point3{X: p.Strength, Y: p.Trust, Z: p.Formality}
}

// Similarity maps distance onto [0,1], where 1 means identical points.
func Similarity(a, b QualityPoint) float64 {
	return 1 - math.Min(a.Distance(b)/MaxQualityDistance, 1)
}

// Point3 is a projected position: x=strength, y=trust, z=formality.
type Point3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (p Point3) Distance(q Point3) float64 {
	dx, dy, dz := p.X-q.X, p.Y-q.Y, p.Z-q.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

type QualityWeights struct {
	Strength    float64 `json:"strength"`
	Trust       float64 `json:"trust"`
	Formality   float64 `json:"formality"`
	Duration    float64 `json:"duration"`
	Reciprocity float64 `json:"reciprocity"`
}

func DefaultWeights() QualityWeights {
	return QualityWeights{Strength: 1, Trust: 1, Formality: 1, Duration: 1, Reciprocity: 1}
}

func TrustFocusedWeights() QualityWeights {
	return QualityWeights{Strength: 1.5, Trust: 2.0, Formality: 0.5, Duration: 0.5, Reciprocity: 1.0}
}

func BusinessFocusedWeights() QualityWeights {
	return QualityWeights{Strength: 1.0, Trust: 1.0, Formality: 2.0, Duration: 1.5, Reciprocity: 0.5}
}

func SocialFocusedWeights() QualityWeights {
	return QualityWeights{Strength: 1.0, Trust: 1.5, Formality: 0.5, Duration: 0.5, Reciprocity: 2.0}
}

// WeightPresets maps preset names to their weights.
var WeightPresets = map[string]func() QualityWeights{
	"default":          DefaultWeights,
	"trust_focused":    TrustFocusedWeights,
	"business_focused": BusinessFocusedWeights,
	"social_focused":   SocialFocusedWeights,
}

func (w QualityWeights) Array() [5]float64 {
	return [5]float64{w.Strength, w.Trust, w.Formality, w.Duration, w.Reciprocity}
}

func (w QualityWeights) Validate() error {
	names := [5]string{"strength", "trust", "formality", "duration", "reciprocity"}
	for i, v := range w.Array() {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return QualityOutOfRangeError(fmt.Sprintf("%s weight %v", names[i], v))
		}
	}
	return nil
}

// RelationshipQuality is the domain-level quality profile of a relationship.
// It converts to a QualityPoint with PointAt.
type RelationshipQuality struct {
	Strength    float64        `json:"strength"`
	Trust       float64        `json:"trust"`
	Formality   Formality      `json:"formality"`
	Duration    ValidityPeriod `json:"duration"`
	Reciprocity float64        `json:"reciprocity"`
}

func NewRelationshipQuality(strength, trust float64, formality Formality, duration ValidityPeriod, reciprocity float64) RelationshipQuality {
	if !ValidFormality(string(formality)) {
		formality = FormalityFormal
	}
	return RelationshipQuality{
		Strength:    clampUnit(strength),
		Trust:       clampUnit(trust),
		Formality:   formality,
		Duration:    duration,
		Reciprocity: clampUnit(reciprocity),
	}
}

// UnmarshalJSON clamps the numeric dimensions. Formality and duration are
// kept as sent so Validate can reject them.
func (q *RelationshipQuality) UnmarshalJSON(b []byte) error {
	type raw RelationshipQuality
	var r raw
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	*q = RelationshipQuality{
		Strength:    clampUnit(r.Strength),
		Trust:       clampUnit(r.Trust),
		Formality:   r.Formality,
		Duration:    r.Duration,
		Reciprocity: clampUnit(r.Reciprocity),
	}
	return nil
}

// Validate reports a quality that cannot be placed in the space: an unknown
// formality or a duration with no start.
func (q RelationshipQuality) Validate() error {
	if !ValidFormality(string(q.Formality)) {
		return invalidRelationship("unknown formality %q", q.Formality)
	}
	if q.Duration.StartsAt.IsZero() {
		return invalidRelationship("quality duration is missing starts_at")
	}
	if q.Duration.EndsAt != nil && q.Duration.EndsAt.Before(q.Duration.StartsAt) {
		return invalidRelationship("quality duration ends before it starts")
	}
	return nil
}

// PointAt positions the quality in the space as of now. Duration is the
// period length in years, capped at one: total length once ended, elapsed
// time while ongoing.
func (q RelationshipQuality) PointAt(now time.Time) QualityPoint {
	var days int64
	if q.Duration.HasEndedAt(now) {
		days, _ = q.Duration.DurationDays()
	} else {
		days = wholeDays(now.Sub(q.Duration.StartsAt))
	}
	return NewQualityPoint(
		q.Strength,
		q.Trust,
		q.Formality.Float(),
		math.Min(float64(days)/365.0, 1.0),
		q.Reciprocity,
	)
}

// Position is the projected 3-point. It does not depend on time.
func (q RelationshipQuality) Position() Point3 {
	return Point3{X: q.Strength, Y: q.Trust, Z: q.Formality.Float()}
}

func (q RelationshipQuality) Equal(o RelationshipQuality) bool {
	return q.Strength == o.Strength && q.Trust == o.Trust && q.Formality == o.Formality &&
		q.Reciprocity == o.Reciprocity && q.Duration.Equal(o.Duration)
}

func (q RelationshipQuality) clone() RelationshipQuality {
	q.Duration = q.Duration.clone()
	return q
}

// QualityProfile is the starting quality for a category when a relationship
// is created without one.
type QualityProfile struct {
	Strength    float64   `json:"strength"`
	Trust       float64   `json:"trust"`
	Formality   Formality `json:"formality"`
	Reciprocity float64   `json:"reciprocity"`
}

func (p QualityProfile) Quality(start time.Time) RelationshipQuality {
	return NewRelationshipQuality(p.Strength, p.Trust, p.Formality, OngoingFrom(start), p.Reciprocity)
}

var fallbackProfile = QualityProfile{Strength: 0.5, Trust: 0.5, Formality: FormalityFormal, Reciprocity: 0.5}

var defaultProfiles = map[RelationshipCategory]QualityProfile{
	CategoryEmployment: {Strength: 0.7, Trust: 0.6, Formality: FormalityContractual, Reciprocity: 0.6},
	CategoryFriendship: {Strength: 0.5, Trust: 0.8, Formality: FormalityInformal, Reciprocity: 0.9},
	CategoryMembership: {Strength: 0.5, Trust: 0.5, Formality: FormalityFormal, Reciprocity: 0.5},
}

// ProfileSet overrides the built-in category profiles. A nil set uses the
// built-ins only.
type ProfileSet map[RelationshipCategory]QualityProfile

func (s ProfileSet) For(c RelationshipCategory) QualityProfile {
	if p, ok := s[c]; ok {
		return p
	}
	if p, ok := defaultProfiles[c]; ok {
		return p
	}
	return fallbackProfile
}

func DefaultQualityFor(c RelationshipCategory, start time.Time) RelationshipQuality {
	return ProfileSet(nil).For(c).Quality(start)
}

func DefaultEmploymentQuality(start time.Time) RelationshipQuality {
	return DefaultQualityFor(CategoryEmployment, start)
}

func DefaultFriendshipQuality(start time.Time) RelationshipQuality {
	return DefaultQualityFor(CategoryFriendship, start)
}

func DefaultMembershipQuality(start time.Time) RelationshipQuality {
	return DefaultQualityFor(CategoryMembership, start)
}

func DefaultQuality(start time.Time) RelationshipQuality {
	return fallbackProfile.Quality(start)
}

type DimensionLabel struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// QualityDimension describes one axis of the quality space.
type QualityDimension struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Min         float64          `json:"min"`
	Max         float64          `json:"max"`
	Description string           `json:"description"`
	Labels      []DimensionLabel `json:"labels"`
}

// Label returns the label closest to v.
func (d QualityDimension) Label(v float64) string {
	best, bestDist := "", math.Inf(1)
	for _, l := range d.Labels {
		if dist := math.Abs(l.Value - v); dist < bestDist {
			best, bestDist = l.Label, dist
		}
	}
	return best
}

var qualityDimensions = []QualityDimension{
	{
		ID: "strength", Name: "Strength", Min: 0, Max: 1,
		Description: "How strong or weak the relationship is",
		Labels:      []DimensionLabel{{0, "Weak"}, {0.5, "Moderate"}, {1, "Strong"}},
	},
	{
		ID: "trust", Name: "Trust", Min: 0, Max: 1,
		Description: "Level of trust between entities",
		Labels:      []DimensionLabel{{0, "No Trust"}, {0.5, "Partial Trust"}, {1, "Complete Trust"}},
	},
	{
		ID: "formality", Name: "Formality", Min: 0, Max: 1,
		Description: "Level of formality from informal to legal",
		Labels: []DimensionLabel{
			{0, "Informal"}, {0.25, "Semi-Formal"}, {0.5, "Formal"}, {0.75, "Contractual"}, {1, "Legal"},
		},
	},
	{
		ID: "duration", Name: "Duration", Min: 0, Max: 1,
		Description: "Temporal extent of the relationship",
		Labels: []DimensionLabel{
			{0, "Instantaneous"}, {0.25, "Short-term"}, {0.5, "Medium-term"}, {0.75, "Long-term"}, {1, "Permanent"},
		},
	},
	{
		ID: "reciprocity", Name: "Reciprocity", Min: 0, Max: 1,
		Description: "How mutual or one-sided the relationship is",
		Labels:      []DimensionLabel{{0, "One-sided"}, {0.5, "Partially Mutual"}, {1, "Fully Mutual"}},
	},
}

// QualityDimensions returns the five axes in coordinate order.
func QualityDimensions() []QualityDimension {
	out := make([]QualityDimension, len(qualityDimensions))
	copy(out, qualityDimensions)
	return out
}
