// Package raster converts footprint outlines into boolean cell masks that the
// placement grid can stamp and test. One grid cell is one unit after scaling,
// so a scale of 0.5 gives 2 mm cells.
package raster

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"
	"strings"

	"github.com/piwi3910/PlateNest/internal/model"
)

// ErrDegenerate is returned when a footprint cannot be turned into a mask:
// fewer than 3 distinct points, zero area, or no covered cells.
var ErrDegenerate = errors.New("degenerate footprint")

const (
	// eps keeps span samples strictly inside a cell row, and absorbs float
	// noise when rounding to cells, so that edges lying on a cell boundary do
	// not leak into the neighbouring cell.
	eps = 1e-7

	minArea = 1e-12
)

// vec is a point in grid units.
type vec struct {
	x, y float64
}

// Mask is an immutable boolean occupancy mask. Cell (i, j) of the mask sits at
// cell (OffsetX()+i, OffsetY()+j) relative to the footprint's origin.
type Mask struct {
	width, height    int
	offsetX, offsetY int
	cells            []bool
	area             int
}

// Rasterize fills outline (in mm) into a mask at the given scale (cells per mm).
// When margin > 0 the outline is first grown outward by margin mm. The grown
// region always contains the exact offset region; corners are grown as
// axis-aligned squares, matching the axis-aligned cell collision test.
func Rasterize(outline model.Outline, margin, scale float64) (*Mask, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("scale %v: %w", scale, ErrDegenerate)
	}
	if margin < 0 || math.IsNaN(margin) {
		return nil, fmt.Errorf("margin %v: %w", margin, ErrDegenerate)
	}
	if n := outline.DistinctPoints(); n < 3 {
		return nil, fmt.Errorf("%d distinct points: %w", n, ErrDegenerate)
	}
	if outline.Area() <= minArea {
		return nil, fmt.Errorf("zero area outline: %w", ErrDegenerate)
	}

	poly := make([]vec, len(outline))
	for i, p := range outline {
		poly[i] = vec{x: p.X * scale, y: p.Y * scale}
	}

	shapes := [][]vec{poly}
	if margin > 0 {
		shapes = append(shapes, offsetShapes(poly, margin*scale)...)
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range shapes {
		for _, p := range s {
			minX = math.Min(minX, p.x)
			minY = math.Min(minY, p.y)
			maxX = math.Max(maxX, p.x)
			maxY = math.Max(maxY, p.y)
		}
	}

	x0, y0 := floorCell(minX), floorCell(minY)
	x1, y1 := ceilCell(maxX), ceilCell(maxY)
	if x1 <= x0 || y1 <= y0 {
		return nil, fmt.Errorf("empty bounding box: %w", ErrDegenerate)
	}

	m := &Mask{
		width:   x1 - x0,
		height:  y1 - y0,
		offsetX: x0,
		offsetY: y0,
		cells:   make([]bool, (x1-x0)*(y1-y0)),
	}
	for _, s := range shapes {
		m.fill(s)
	}
	for _, c := range m.cells {
		if c {
			m.area++
		}
	}
	if m.area == 0 {
		return nil, fmt.Errorf("no covered cells: %w", ErrDegenerate)
	}
	return m, nil
}

// offsetShapes returns the shapes whose union with the polygon covers the
// polygon grown by r: a rectangle swept along every edge and a 2r square
// centred on every vertex.
func offsetShapes(poly []vec, r float64) [][]vec {
	shapes := make([][]vec, 0, 2*len(poly))
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		dx, dy := b.x-a.x, b.y-a.y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*r, dx/l*r
		shapes = append(shapes, []vec{
			{a.x + nx, a.y + ny},
			{b.x + nx, b.y + ny},
			{b.x - nx, b.y - ny},
			{a.x - nx, a.y - ny},
		})
	}
	for _, p := range poly {
		shapes = append(shapes, []vec{
			{p.x - r, p.y - r},
			{p.x + r, p.y - r},
			{p.x + r, p.y + r},
			{p.x - r, p.y + r},
		})
	}
	return shapes
}

// fill marks every cell whose open interior meets the even-odd interior of poly.
// Per row it fills the spans sampled just inside the row's top and bottom
// edges, then marks the cells each edge passes through inside the row.
func (m *Mask) fill(poly []vec) {
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range poly {
		minY = math.Min(minY, p.y)
		maxY = math.Max(maxY, p.y)
	}
	rowStart := max(floorCell(minY), m.offsetY)
	rowEnd := min(ceilCell(maxY), m.offsetY+m.height)

	var xs []float64
	for row := rowStart; row < rowEnd; row++ {
		top, bottom := float64(row), float64(row+1)

		xs = crossings(poly, top+eps, xs[:0])
		m.fillSpans(row, xs)
		xs = crossings(poly, bottom-eps, xs[:0])
		m.fillSpans(row, xs)

		for i := range poly {
			a, b := poly[i], poly[(i+1)%len(poly)]
			lo, hi := math.Min(a.y, b.y), math.Max(a.y, b.y)
			if lo >= bottom || hi <= top {
				continue
			}
			var xa, xb float64
			if a.y == b.y {
				xa, xb = a.x, b.x
			} else {
				xa = xAt(a, b, math.Max(top, lo))
				xb = xAt(a, b, math.Min(bottom, hi))
			}
			m.markRange(row, math.Min(xa, xb), math.Max(xa, xb))
		}
	}
}

// crossings appends the x coordinates where the polygon boundary crosses the
// horizontal line at y, sorted ascending.
func crossings(poly []vec, y float64, xs []float64) []float64 {
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		if (a.y <= y) != (b.y <= y) {
			xs = append(xs, xAt(a, b, y))
		}
	}
	sort.Float64s(xs)
	return xs
}

func xAt(a, b vec, y float64) float64 {
	return a.x + (y-a.y)*(b.x-a.x)/(b.y-a.y)
}

// fillSpans marks the cells between successive crossing pairs (even-odd rule).
func (m *Mask) fillSpans(row int, xs []float64) {
	for k := 0; k+1 < len(xs); k += 2 {
		m.markRange(row, xs[k], xs[k+1])
	}
}

// markRange marks the cells of row whose open interior overlaps [xmin, xmax].
// A range collapsed onto a cell boundary marks nothing.
func (m *Mask) markRange(row int, xmin, xmax float64) {
	lo := max(floorCell(xmin), m.offsetX)
	hi := min(ceilCell(xmax)-1, m.offsetX+m.width-1)
	j := row - m.offsetY
	if j < 0 || j >= m.height {
		return
	}
	for c := lo; c <= hi; c++ {
		m.cells[j*m.width+(c-m.offsetX)] = true
	}
}

func floorCell(v float64) int {
	return int(math.Floor(v + eps))
}

func ceilCell(v float64) int {
	return int(math.Ceil(v - eps))
}

// ParseMask builds a mask from rows of '#' (covered) and '.' (free) characters.
// Row 0 is the mask's first row. It is meant for tests and debugging.
func ParseMask(offsetX, offsetY int, rows ...string) *Mask {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	m := &Mask{
		width:   width,
		height:  len(rows),
		offsetX: offsetX,
		offsetY: offsetY,
		cells:   make([]bool, width*len(rows)),
	}
	for j, r := range rows {
		for i, ch := range r {
			if ch == '#' {
				m.cells[j*width+i] = true
				m.area++
			}
		}
	}
	return m
}

// Width returns the mask width in cells.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height in cells.
func (m *Mask) Height() int { return m.height }

// OffsetX returns the x cell of mask column 0 relative to the footprint origin.
func (m *Mask) OffsetX() int { return m.offsetX }

// OffsetY returns the y cell of mask row 0 relative to the footprint origin.
func (m *Mask) OffsetY() int { return m.offsetY }

// Area returns the number of covered cells.
func (m *Mask) Area() int { return m.area }

// At reports whether mask cell (i, j) is covered. Out-of-range cells are not.
func (m *Mask) At(i, j int) bool {
	if i < 0 || j < 0 || i >= m.width || j >= m.height {
		return false
	}
	return m.cells[j*m.width+i]
}

// Cells returns the covered cells in row-major order, in mask coordinates.
func (m *Mask) Cells() []image.Point {
	pts := make([]image.Point, 0, m.area)
	for j := 0; j < m.height; j++ {
		for i := 0; i < m.width; i++ {
			if m.cells[j*m.width+i] {
				pts = append(pts, image.Point{X: i, Y: j})
			}
		}
	}
	return pts
}

// Bounds returns the mask rectangle relative to the footprint origin.
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(m.offsetX, m.offsetY, m.offsetX+m.width, m.offsetY+m.height)
}

// String renders the mask with '#' for covered and '.' for free cells.
func (m *Mask) String() string {
	var b strings.Builder
	for j := 0; j < m.height; j++ {
		for i := 0; i < m.width; i++ {
			if m.cells[j*m.width+i] {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
