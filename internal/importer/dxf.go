package importer

import (
	"fmt"
	"math"
	"sort"

	"github.com/piwi3910/PlateNest/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

const (
	joinTolerance = 0.01 // mm between path ends that still connect
	circleChords  = 64   // chords per full turn when flattening curves
)

// path is an open run of points waiting to be joined into a loop.
type path []model.Point2D

func (p path) head() model.Point2D { return p[0] }
func (p path) tail() model.Point2D { return p[len(p)-1] }

func (p path) reversed() path {
	r := make(path, len(p))
	for i, pt := range p {
		r[len(p)-1-i] = pt
	}
	return r
}

// ImportDXF imports footprints from a DXF file drawn in top view.
//
// Closed LWPOLYLINEs, CIRCLEs and loops of LINEs, ARCs and open polylines
// are collected as contours. A contour lying inside another one is a hole or
// pocket of that part and is dropped, so each remaining silhouette becomes
// one Object, largest first, centred on its bounding box.
func ImportDXF(filename string) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(filename)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open DXF file: %v", err))
		return result
	}
	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	contours, open := collectContours(entities, &result)
	loops, leftover := joinPaths(open)
	contours = append(contours, loops...)
	if leftover > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Ignored %d open path(s) that do not form a closed shape", leftover))
	}

	var usable []model.Outline
	for _, c := range contours {
		min, max := c.BoundingBox()
		if w, d := max.X-min.X, max.Y-min.Y; w < joinTolerance || d < joinTolerance {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Skipped degenerate shape (%.2f x %.2f mm)", w, d))
			continue
		}
		usable = append(usable, c)
	}
	if len(usable) == 0 {
		result.Errors = append(result.Errors, "No closed shapes found in DXF file")
		return result
	}

	outer, nested := outerContours(usable)
	if nested > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Ignored %d contour(s) inside other shapes", nested))
	}
	for _, c := range outer {
		label := fmt.Sprintf("DXF Object %d", len(result.Objects)+1)
		result.Objects = append(result.Objects, model.NewObject(label, c.Centered()))
	}
	return result
}

// collectContours flattens every supported entity. Closed shapes come back
// as contours; lines, arcs and open polylines come back as paths.
func collectContours(entities entity.Entities, result *ImportResult) ([]model.Outline, []path) {
	var contours []model.Outline
	var open []path

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			pts := flattenPolyline(e)
			closed := e.Closed || (len(pts) > 2 && near(pts[0], pts[len(pts)-1]))
			if !closed {
				if len(pts) >= 2 {
					open = append(open, path(pts))
				}
				continue
			}
			loop, ok := closeLoop(pts)
			if !ok {
				result.Warnings = append(result.Warnings, "Skipped LWPOLYLINE with fewer than 3 vertices")
				continue
			}
			contours = append(contours, loop)

		case *entity.Circle:
			center := model.Point2D{X: e.Center[0], Y: e.Center[1]}
			if loop, ok := closeLoop(arcPoints(center, e.Radius, 0, 2*math.Pi)); ok {
				contours = append(contours, loop)
			}

		case *entity.Arc:
			center := model.Point2D{X: e.Center[0], Y: e.Center[1]}
			start := e.Angle[0] * math.Pi / 180
			sweep := e.Angle[1]*math.Pi/180 - start
			if sweep <= 0 {
				sweep += 2 * math.Pi
			}
			open = append(open, path(arcPoints(center, e.Radius, start, sweep)))

		case *entity.Line:
			open = append(open, path{
				{X: e.Start[0], Y: e.Start[1]},
				{X: e.End[0], Y: e.End[1]},
			})
		}
	}
	return contours, open
}

// flattenPolyline returns the polyline vertices with every bulged segment
// replaced by points along its arc.
func flattenPolyline(lw *entity.LwPolyline) []model.Point2D {
	n := len(lw.Vertices)
	pts := make([]model.Point2D, 0, n)
	for i, v := range lw.Vertices {
		p := model.Point2D{X: v[0], Y: v[1]}
		pts = append(pts, p)
		if i == n-1 && !lw.Closed {
			break
		}
		bulge := segmentBulge(lw, i)
		if math.Abs(bulge) < 1e-9 {
			continue
		}
		next := lw.Vertices[(i+1)%n]
		arc := bulgeArc(p, model.Point2D{X: next[0], Y: next[1]}, bulge)
		if len(arc) > 2 {
			pts = append(pts, arc[1:len(arc)-1]...)
		}
	}
	return pts
}

// segmentBulge returns the bulge of the segment leaving vertex i. The DXF
// reader files each 42 group under the vertex after the one it follows.
func segmentBulge(lw *entity.LwPolyline, i int) float64 {
	if i+1 >= len(lw.Bulges) {
		return 0
	}
	return lw.Bulges[i+1]
}

// bulgeArc returns the arc from p1 to p2 for a DXF bulge, which is the
// tangent of a quarter of the signed included angle. Positive bulges run
// counter-clockwise.
func bulgeArc(p1, p2 model.Point2D, bulge float64) []model.Point2D {
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	chord := math.Hypot(dx, dy)
	if chord < 1e-9 {
		return []model.Point2D{p1, p2}
	}

	theta := 4 * math.Atan(bulge)
	half := chord / 2
	// Distance from the chord midpoint to the centre along the left normal;
	// negative puts the centre on the right.
	h := half / math.Tan(theta/2)
	center := model.Point2D{
		X: (p1.X+p2.X)/2 - dy/chord*h,
		Y: (p1.Y+p2.Y)/2 + dx/chord*h,
	}
	radius := math.Abs(half / math.Sin(theta/2))
	start := math.Atan2(p1.Y-center.Y, p1.X-center.X)

	pts := arcPoints(center, radius, start, theta)
	pts[len(pts)-1] = p2
	return pts
}

// arcPoints flattens the arc of radius r around c from angle start through
// sweep radians. Both ends are included.
func arcPoints(c model.Point2D, r, start, sweep float64) []model.Point2D {
	n := max(int(math.Ceil(math.Abs(sweep)/(2*math.Pi)*circleChords)), 1)
	pts := make([]model.Point2D, n+1)
	for i := range pts {
		a := start + sweep*float64(i)/float64(n)
		pts[i] = model.Point2D{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)}
	}
	return pts
}

// joinPaths links open paths end to end, reversing them where needed. It
// returns the loops that close and the number of chains that stayed open.
func joinPaths(paths []path) ([]model.Outline, int) {
	var loops []model.Outline
	leftover := 0
	used := make([]bool, len(paths))

	for start := range paths {
		if used[start] {
			continue
		}
		used[start] = true
		chain := append(path(nil), paths[start]...)

		for !isClosed(chain) {
			next, flip := nextPath(paths, used, chain.tail())
			if next < 0 {
				break
			}
			used[next] = true
			p := paths[next]
			if flip {
				p = p.reversed()
			}
			chain = append(chain, p[1:]...)
		}

		loop, ok := closeLoop(chain)
		if !isClosed(chain) || !ok {
			leftover++
			continue
		}
		loops = append(loops, loop)
	}
	return loops, leftover
}

// nextPath finds an unused path touching end. flip is set when the path
// touches with its tail and has to be walked backwards.
func nextPath(paths []path, used []bool, end model.Point2D) (idx int, flip bool) {
	for i, p := range paths {
		if used[i] {
			continue
		}
		if near(p.head(), end) {
			return i, false
		}
		if near(p.tail(), end) {
			return i, true
		}
	}
	return -1, false
}

func isClosed(p path) bool {
	return len(p) > 2 && near(p.head(), p.tail())
}

// closeLoop drops a repeated end point and reports whether enough vertices
// remain to enclose an area.
func closeLoop(pts []model.Point2D) (model.Outline, bool) {
	if len(pts) > 1 && near(pts[0], pts[len(pts)-1]) {
		pts = pts[:len(pts)-1]
	}
	return model.Outline(pts), len(pts) >= 3
}

func near(a, b model.Point2D) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= joinTolerance
}

// outerContours sorts contours largest first and drops every contour lying
// inside a larger one. It returns the silhouettes and the number dropped.
func outerContours(contours []model.Outline) ([]model.Outline, int) {
	sorted := append([]model.Outline(nil), contours...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Area() > sorted[j].Area()
	})

	var outer []model.Outline
	nested := 0
	for i, c := range sorted {
		inside := false
		for _, larger := range sorted[:i] {
			if encloses(larger, c) {
				inside = true
				break
			}
		}
		if inside {
			nested++
			continue
		}
		outer = append(outer, c)
	}
	return outer, nested
}

// encloses reports whether every vertex of inner lies within outer.
func encloses(outer, inner model.Outline) bool {
	omin, omax := outer.BoundingBox()
	imin, imax := inner.BoundingBox()
	if imin.X < omin.X || imin.Y < omin.Y || imax.X > omax.X || imax.Y > omax.Y {
		return false
	}
	for _, p := range inner {
		if !insidePolygon(p, outer) {
			return false
		}
	}
	return true
}

// insidePolygon is the even-odd crossing test.
func insidePolygon(p model.Point2D, poly model.Outline) bool {
	in := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) && p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
	}
	return in
}
