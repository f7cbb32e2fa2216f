package model

import (
	"math"

	"github.com/google/uuid"
)

// Point2D represents a 2D coordinate in mm.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Outline represents a closed polygon as a sequence of 2D points.
// The outline is implicitly closed: the last point connects back to the first.
type Outline []Point2D

// BoundingBox returns the min and max corners of the outline.
func (o Outline) BoundingBox() (min, max Point2D) {
	if len(o) == 0 {
		return Point2D{}, Point2D{}
	}
	min = Point2D{X: o[0].X, Y: o[0].Y}
	max = Point2D{X: o[0].X, Y: o[0].Y}
	for _, p := range o[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}

// Translate shifts all points by dx, dy.
func (o Outline) Translate(dx, dy float64) Outline {
	result := make(Outline, len(o))
	for i, p := range o {
		result[i] = Point2D{X: p.X + dx, Y: p.Y + dy}
	}
	return result
}

// Scale multiplies every coordinate by f.
func (o Outline) Scale(f float64) Outline {
	result := make(Outline, len(o))
	for i, p := range o {
		result[i] = Point2D{X: p.X * f, Y: p.Y * f}
	}
	return result
}

// Area returns the absolute polygon area using the shoelace formula.
func (o Outline) Area() float64 {
	n := len(o)
	if n < 3 {
		return 0
	}
	var area float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += o[i].X * o[j].Y
		area -= o[j].X * o[i].Y
	}
	return math.Abs(area) / 2
}

// Centered translates the outline so its bounding box centre sits on the origin.
func (o Outline) Centered() Outline {
	if len(o) == 0 {
		return o
	}
	min, max := o.BoundingBox()
	return o.Translate(-(min.X+max.X)/2, -(min.Y+max.Y)/2)
}

// DistinctPoints counts the unique points of the outline.
func (o Outline) DistinctPoints() int {
	seen := make(map[Point2D]struct{}, len(o))
	for _, p := range o {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// RectOutline returns a w x d rectangle centred on the origin.
func RectOutline(w, d float64) Outline {
	hw, hd := w/2, d/2
	return Outline{
		{X: -hw, Y: -hd},
		{X: hw, Y: -hd},
		{X: hw, Y: hd},
		{X: -hw, Y: hd},
	}
}

// Object is a printable part to be arranged on the build plate.
// Outline is its footprint seen from above, in object-local mm around the
// object's reference point.
type Object struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Outline  Outline `json:"outline"`
	Fixed    bool    `json:"fixed,omitempty"`    // Already placed; stamped before arranging and never moved
	Position Point2D `json:"position,omitempty"` // Plate position of the reference point (fixed objects)
	Quantity int     `json:"quantity,omitempty"` // Import expansion count; 0 or 1 means a single copy
}

func NewObject(label string, outline Outline) Object {
	return Object{
		ID:       uuid.New().String()[:8],
		Label:    label,
		Outline:  outline,
		Quantity: 1,
	}
}

// Width returns the footprint bounding-box width.
func (o Object) Width() float64 {
	min, max := o.Outline.BoundingBox()
	return max.X - min.X
}

// Depth returns the footprint bounding-box depth.
func (o Object) Depth() float64 {
	min, max := o.Outline.BoundingBox()
	return max.Y - min.Y
}

// ExpandQuantities returns one object per copy. Copies after the first get a
// fresh ID so placements stay distinguishable.
func ExpandQuantities(objects []Object) []Object {
	var expanded []Object
	for _, o := range objects {
		qty := o.Quantity
		if qty < 1 {
			qty = 1
		}
		for i := 0; i < qty; i++ {
			cp := o
			cp.Quantity = 1
			if i > 0 {
				cp.ID = uuid.New().String()[:8]
			}
			expanded = append(expanded, cp)
		}
	}
	return expanded
}

// Plate describes the printable area of a build plate.
type Plate struct {
	Name             string  `json:"name"`
	Width            float64 `json:"width"`             // mm, along X
	Depth            float64 `json:"depth"`             // mm, along Y
	DisallowedMargin float64 `json:"disallowed_margin"` // mm unusable along every edge
}

// Usable returns the plate with the disallowed edge band removed.
func (p Plate) Usable() Plate {
	u := p
	u.Width = p.Width - 2*p.DisallowedMargin
	u.Depth = p.Depth - 2*p.DisallowedMargin
	u.DisallowedMargin = 0
	return u
}

// Area returns the plate area in square mm.
func (p Plate) Area() float64 {
	return p.Width * p.Depth
}

// Contains reports whether a plate-space point lies on the plate.
func (p Plate) Contains(pt Point2D) bool {
	return math.Abs(pt.X) <= p.Width/2 && math.Abs(pt.Y) <= p.Depth/2
}

// Clearance selects which mask is stamped once an object is placed.
type Clearance string

const (
	// ClearanceOffset is the default. The margin-grown search mask is also
	// the stamped one, so the hull is never rasterized and neighbours keep
	// 2x margin apart.
	ClearanceOffset Clearance = "offset"
	// ClearanceHull stamps the bare hull, so neighbours keep 1x margin apart.
	ClearanceHull Clearance = "hull"
)

// Algorithm represents the arrangement algorithm to use.
type Algorithm string

const (
	AlgorithmGreedy  Algorithm = "greedy"  // Largest-first best-spot placement (fast)
	AlgorithmGenetic Algorithm = "genetic" // Genetic search over placement order when greedy leaves objects out
)

// ArrangeSettings holds arrangement tuning.
type ArrangeSettings struct {
	Margin        float64   `json:"margin"`         // Minimum offset around each object in mm
	Scale         float64   `json:"scale"`          // Grid cells per mm
	Step          int       `json:"step"`           // Test every Nth candidate; 1 tests all
	ReusePriority bool      `json:"reuse_priority"` // Start same-size objects at the previous priority
	SortByArea    bool      `json:"sort_by_area"`   // Place largest footprints first
	Clearance     Clearance `json:"clearance"`
	Algorithm     Algorithm `json:"algorithm"`
	ParkSpacing   float64   `json:"park_spacing"` // Distance between parked objects in mm
}

func DefaultSettings() ArrangeSettings {
	return ArrangeSettings{
		Margin:        8,
		Scale:         0.5,
		Step:          1,
		ReusePriority: true,
		SortByArea:    true,
		Clearance:     ClearanceOffset,
		Algorithm:     AlgorithmGreedy,
		ParkSpacing:   20,
	}
}

// Placement is the arrangement outcome for one object.
type Placement struct {
	Object   Object  `json:"object"`
	X        float64 `json:"x"`        // Plate position of the object's reference point (mm)
	Y        float64 `json:"y"`        // Plate position of the object's reference point (mm)
	Priority int     `json:"priority"` // Priority of the chosen grid cell
	Fits     bool    `json:"fits"`     // false = parked off-plate, needs manual attention
}

// ArrangeResult holds the full arrangement outcome.
type ArrangeResult struct {
	Placements  []Placement `json:"placements"`
	Unconverted []Object    `json:"unconverted"` // Footprints that could not be rasterized
}

// Placed returns the placements that fit on the plate.
func (r ArrangeResult) Placed() []Placement {
	var placed []Placement
	for _, p := range r.Placements {
		if p.Fits {
			placed = append(placed, p)
		}
	}
	return placed
}

// NotFit returns the placements that were parked off-plate.
func (r ArrangeResult) NotFit() []Placement {
	var parked []Placement
	for _, p := range r.Placements {
		if !p.Fits {
			parked = append(parked, p)
		}
	}
	return parked
}

// AllFit reports whether every convertible object was placed on the plate.
func (r ArrangeResult) AllFit() bool {
	return len(r.NotFit()) == 0
}

// PlacedArea returns the summed footprint area of placed objects.
func (r ArrangeResult) PlacedArea() float64 {
	var total float64
	for _, p := range r.Placed() {
		total += p.Object.Outline.Area()
	}
	return total
}

// Utilization returns the plate coverage percentage.
func (r ArrangeResult) Utilization(plate Plate) float64 {
	ta := plate.Area()
	if ta == 0 {
		return 0
	}
	return (r.PlacedArea() / ta) * 100.0
}

// ConflictKind classifies a validation finding.
type ConflictKind string

const (
	ConflictOverlap  ConflictKind = "overlap"
	ConflictOffPlate ConflictKind = "off_plate"
)

// Conflict reports a problem found when re-checking an arrangement.
type Conflict struct {
	Kind   ConflictKind `json:"kind"`
	First  string       `json:"first"`            // Label of the first object
	Second string       `json:"second,omitempty"` // Label of the other object for overlaps
	Cells  int          `json:"cells"`            // Number of grid cells involved
}

// Job ties everything together for save/load.
type Job struct {
	Name     string          `json:"name"`
	Plate    Plate           `json:"plate"`
	Objects  []Object        `json:"objects"`
	Fixed    []Object        `json:"fixed"`
	Settings ArrangeSettings `json:"settings"`
	Result   *ArrangeResult  `json:"result,omitempty"`
}

func NewJob() Job {
	return Job{
		Name:     "Untitled",
		Plate:    GetPlateProfile("Generic").Plate(),
		Objects:  []Object{},
		Fixed:    []Object{},
		Settings: DefaultSettings(),
	}
}
