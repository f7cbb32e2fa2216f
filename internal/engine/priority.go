package engine

import (
	"math"
	"sort"
)

// Chamfer weights approximating euclidean distance (x3) on the cell lattice.
const (
	straightCost = 3
	diagonalCost = 4
)

// computePriority fills the priority field with the chamfer distance from every
// cell to the nearest occupied cell or to the outside of the grid. Occupied
// cells get 0.
func (g *Grid) computePriority() {
	w, d := g.width, g.depth
	dist := g.priority
	for i, occ := range g.occupied {
		if occ {
			dist[i] = 0
		} else {
			dist[i] = math.MaxInt32
		}
	}

	// at treats everything outside the grid as an obstacle.
	at := func(x, y int) int {
		if x < 0 || y < 0 || x >= w || y >= d {
			return 0
		}
		return dist[y*w+x]
	}

	for y := 0; y < d; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			v := dist[i]
			v = min(v, at(x-1, y)+straightCost)
			v = min(v, at(x, y-1)+straightCost)
			v = min(v, at(x-1, y-1)+diagonalCost)
			v = min(v, at(x+1, y-1)+diagonalCost)
			dist[i] = v
		}
	}
	for y := d - 1; y >= 0; y-- {
		for x := w - 1; x >= 0; x-- {
			i := y*w + x
			v := dist[i]
			v = min(v, at(x+1, y)+straightCost)
			v = min(v, at(x, y+1)+straightCost)
			v = min(v, at(x+1, y+1)+diagonalCost)
			v = min(v, at(x-1, y+1)+diagonalCost)
			dist[i] = v
		}
	}
}

// buildTieOrder sorts all cells by distance to the grid centre, then by
// row-major index. The order only depends on the grid size.
func (g *Grid) buildTieOrder() {
	w, d := g.width, g.depth
	g.centerDist = make([]int, w*d)
	g.tieOrder = make([]int, w*d)
	for y := 0; y < d; y++ {
		dy := 2*y + 1 - d
		for x := 0; x < w; x++ {
			dx := 2*x + 1 - w
			i := y*w + x
			g.centerDist[i] = dx*dx + dy*dy
			g.tieOrder[i] = i
		}
	}
	sort.SliceStable(g.tieOrder, func(a, b int) bool {
		return g.centerDist[g.tieOrder[a]] < g.centerDist[g.tieOrder[b]]
	})
}

// buildOrder buckets the tie order by priority, highest bucket first, which
// gives the full candidate order without sorting again.
func (g *Grid) buildOrder() {
	maxP := 0
	for _, p := range g.priority {
		maxP = max(maxP, p)
	}
	counts := make([]int, maxP+2)
	for _, p := range g.priority {
		counts[maxP-p+1]++
	}
	for k := 1; k < len(counts); k++ {
		counts[k] += counts[k-1]
	}
	g.order = g.order[:len(g.priority)]
	for _, idx := range g.tieOrder {
		b := maxP - g.priority[idx]
		g.order[counts[b]] = idx
		counts[b]++
	}
}

// firstAtOrBelow returns the position in the candidate order of the first cell
// whose priority does not exceed p.
func (g *Grid) firstAtOrBelow(p int) int {
	return sort.Search(len(g.order), func(k int) bool {
		return g.priority[g.order[k]] <= p
	})
}
