package engine

import (
	"math"

	"github.com/piwi3910/PlateNest/internal/raster"
)

// Spot is the answer to a BestSpot query. Found is false when no anchor fits;
// the other fields are then zero.
type Spot struct {
	CellX, CellY int     // Anchor cell in grid coordinates
	X, Y         float64 // Anchor in plate coordinates (mm, plate centre at the origin)
	Priority     int     // Priority of the anchor cell at query time
	Found        bool
}

// Grid is the occupancy grid covering the build plate plus a margin border on
// every side. The plate centre maps to grid point (Width()/2, Depth()/2).
// A Grid is owned by a single arrangement run and is not safe for concurrent use.
type Grid struct {
	width, depth     int
	scale            float64
	centerX, centerY int

	occupied      []bool
	occupiedCount int

	// Derived state, rebuilt lazily after a stamp.
	dirty    bool
	priority []int
	order    []int // cell indices, best candidate first
	sat      []int // summed-area table of occupancy, (width+1) x (depth+1)

	centerDist []int // static tie-break: squared distance of cell centre to grid centre (x4)
	tieOrder   []int // cell indices sorted by centerDist then row-major index
}

// NewGrid creates an empty grid for a plate of the given size in mm. The grid
// adds margin mm on every side so that a margin-expanded mask can reach the
// plate edge with its hull. A degenerate size yields a 1 x 1 grid.
func NewGrid(plateWidth, plateDepth, margin, scale float64) *Grid {
	if scale <= 0 || math.IsNaN(scale) {
		scale = 1
	}
	margin = math.Max(margin, 0)
	w := max(int(math.Ceil((plateWidth+2*margin)*scale-eps)), 1)
	d := max(int(math.Ceil((plateDepth+2*margin)*scale-eps)), 1)

	g := &Grid{
		width:    w,
		depth:    d,
		scale:    scale,
		centerX:  w / 2,
		centerY:  d / 2,
		occupied: make([]bool, w*d),
		priority: make([]int, w*d),
		order:    make([]int, 0, w*d),
		sat:      make([]int, (w+1)*(d+1)),
		dirty:    true,
	}
	g.buildTieOrder()
	return g
}

// eps absorbs float noise when converting plate sizes into whole cells.
const eps = 1e-7

// Width returns the grid width in cells.
func (g *Grid) Width() int { return g.width }

// Depth returns the grid depth in cells.
func (g *Grid) Depth() int { return g.depth }

// Scale returns the number of cells per mm.
func (g *Grid) Scale() float64 { return g.scale }

// OccupiedCount returns the number of occupied cells.
func (g *Grid) OccupiedCount() int { return g.occupiedCount }

// Occupied reports whether cell (x, y) is occupied. Cells outside the grid
// report false.
func (g *Grid) Occupied(x, y int) bool {
	if !g.inside(x, y) {
		return false
	}
	return g.occupied[y*g.width+x]
}

// Priority returns the desirability of cell (x, y); higher is better. Cells
// outside the grid report 0.
func (g *Grid) Priority(x, y int) int {
	if !g.inside(x, y) {
		return 0
	}
	g.refresh()
	return g.priority[y*g.width+x]
}

// ToPlate converts a grid anchor into plate coordinates in mm.
func (g *Grid) ToPlate(cellX, cellY int) (x, y float64) {
	return float64(cellX-g.centerX) / g.scale, float64(cellY-g.centerY) / g.scale
}

// FromPlate converts plate coordinates in mm into the nearest grid anchor.
func (g *Grid) FromPlate(x, y float64) (cellX, cellY int) {
	return int(math.Round(x*g.scale)) + g.centerX, int(math.Round(y*g.scale)) + g.centerY
}

// Place marks every cell covered by mask, anchored at (cellX, cellY), as
// occupied. Cells falling outside the grid are silently dropped.
func (g *Grid) Place(cellX, cellY int, mask *raster.Mask) {
	if mask == nil {
		return
	}
	for _, c := range mask.Cells() {
		x := cellX + mask.OffsetX() + c.X
		y := cellY + mask.OffsetY() + c.Y
		if !g.inside(x, y) {
			continue
		}
		idx := y*g.width + x
		if !g.occupied[idx] {
			g.occupied[idx] = true
			g.occupiedCount++
		}
	}
	g.dirty = true
}

// PlaceFixed stamps mask at the plate position (x, y) in mm, rounded to the
// nearest cell. Fixed footprints are never removed.
func (g *Grid) PlaceFixed(x, y float64, mask *raster.Mask) {
	cx, cy := g.FromPlate(x, y)
	g.Place(cx, cy, mask)
}

// Fits reports whether mask, anchored at (cellX, cellY), lies fully inside
// the grid without touching an occupied cell.
func (g *Grid) Fits(cellX, cellY int, mask *raster.Mask) bool {
	if mask == nil {
		return false
	}
	g.refresh()
	return g.fits(cellX, cellY, mask)
}

func (g *Grid) fits(cellX, cellY int, mask *raster.Mask) bool {
	x0 := cellX + mask.OffsetX()
	y0 := cellY + mask.OffsetY()
	x1 := x0 + mask.Width()
	y1 := y0 + mask.Height()
	if x0 < 0 || y0 < 0 || x1 > g.width || y1 > g.depth {
		return false
	}
	if g.occupiedIn(x0, y0, x1, y1) == 0 {
		return true
	}
	for j := 0; j < mask.Height(); j++ {
		row := (y0 + j) * g.width
		for i := 0; i < mask.Width(); i++ {
			if mask.At(i, j) && g.occupied[row+x0+i] {
				return false
			}
		}
	}
	return true
}

// BestSpot returns the most desirable anchor at which mask fits. Candidates
// are tried in descending priority, ties going to the cell nearest the grid
// centre and then to the lower row-major index.
//
// A startPriority above zero first restricts the scan to cells whose priority
// does not exceed it and only then falls back to the skipped higher-priority
// cells. A step above one tests every step-th candidate only, trading
// placement quality for speed.
func (g *Grid) BestSpot(mask *raster.Mask, startPriority, step int) Spot {
	if mask == nil || mask.Area() == 0 {
		return Spot{}
	}
	if mask.Width() > g.width || mask.Height() > g.depth {
		return Spot{}
	}
	if step < 1 {
		step = 1
	}
	g.refresh()

	split := 0
	if startPriority > 0 {
		split = g.firstAtOrBelow(startPriority)
	}

	if idx, ok := g.scan(mask, split, len(g.order), step); ok {
		return g.spot(idx)
	}
	if idx, ok := g.scan(mask, 0, split, step); ok {
		return g.spot(idx)
	}
	return Spot{}
}

func (g *Grid) scan(mask *raster.Mask, from, to, step int) (int, bool) {
	for k := from; k < to; k += step {
		idx := g.order[k]
		if g.fits(idx%g.width, idx/g.width, mask) {
			return idx, true
		}
	}
	return 0, false
}

func (g *Grid) spot(idx int) Spot {
	cx, cy := idx%g.width, idx/g.width
	x, y := g.ToPlate(cx, cy)
	return Spot{
		CellX:    cx,
		CellY:    cy,
		X:        x,
		Y:        y,
		Priority: g.priority[idx],
		Found:    true,
	}
}

func (g *Grid) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.depth
}

// occupiedIn counts occupied cells in [x0, x1) x [y0, y1) using the
// summed-area table. The table must be fresh.
func (g *Grid) occupiedIn(x0, y0, x1, y1 int) int {
	s := g.width + 1
	return g.sat[y1*s+x1] - g.sat[y0*s+x1] - g.sat[y1*s+x0] + g.sat[y0*s+x0]
}

// refresh rebuilds the derived fields after the occupancy changed.
func (g *Grid) refresh() {
	if !g.dirty {
		return
	}
	g.buildSAT()
	g.computePriority()
	g.buildOrder()
	g.dirty = false
}

func (g *Grid) buildSAT() {
	s := g.width + 1
	for y := 0; y < g.depth; y++ {
		run := 0
		for x := 0; x < g.width; x++ {
			if g.occupied[y*g.width+x] {
				run++
			}
			g.sat[(y+1)*s+x+1] = g.sat[y*s+x+1] + run
		}
	}
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	c := *g
	c.occupied = append([]bool(nil), g.occupied...)
	c.priority = append([]int(nil), g.priority...)
	c.order = append(make([]int, 0, cap(g.order)), g.order...)
	c.sat = append([]int(nil), g.sat...)
	// The tie order never changes and is shared.
	return &c
}
