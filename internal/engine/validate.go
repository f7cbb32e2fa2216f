package engine

import (
	"fmt"
	"sort"

	"github.com/piwi3910/PlateNest/internal/model"
	"github.com/piwi3910/PlateNest/internal/raster"
)

// CheckConflicts re-rasterizes the hull of every placed object at its final
// position and reports pairs of objects sharing grid cells and objects whose
// hull leaves the usable plate. Parked objects are ignored. The check is
// independent of the grid the arrangement ran on, so it also catches
// positions edited after arranging.
func CheckConflicts(plate model.Plate, result model.ArrangeResult, settings model.ArrangeSettings) []model.Conflict {
	scale := settings.Scale
	if scale <= 0 {
		scale = model.DefaultSettings().Scale
	}
	usable := plate.Usable()
	grid := NewGrid(usable.Width, usable.Depth, 0, scale)
	w, d := grid.Width(), grid.Depth()
	cx, cy := grid.FromPlate(0, 0)

	owner := make([]int, w*d) // placement index + 1, 0 when free
	overlaps := make(map[[2]int]int)
	var conflicts []model.Conflict

	for k, p := range result.Placements {
		if !p.Fits {
			continue
		}
		hull, err := raster.Rasterize(p.Object.Outline.Translate(p.X, p.Y), 0, grid.Scale())
		if err != nil {
			continue
		}

		outside := 0
		for _, c := range hull.Cells() {
			x := cx + hull.OffsetX() + c.X
			y := cy + hull.OffsetY() + c.Y
			if x < 0 || y < 0 || x >= w || y >= d {
				outside++
				continue
			}
			idx := y*w + x
			switch prev := owner[idx]; {
			case prev == 0:
				owner[idx] = k + 1
			case prev != k+1:
				overlaps[[2]int{prev - 1, k}]++
			}
		}
		if outside > 0 {
			conflicts = append(conflicts, model.Conflict{
				Kind:  model.ConflictOffPlate,
				First: p.Object.Label,
				Cells: outside,
			})
		}
	}

	pairs := make([][2]int, 0, len(overlaps))
	for pair := range overlaps {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	for _, pair := range pairs {
		conflicts = append(conflicts, model.Conflict{
			Kind:   model.ConflictOverlap,
			First:  result.Placements[pair[0]].Object.Label,
			Second: result.Placements[pair[1]].Object.Label,
			Cells:  overlaps[pair],
		})
	}

	return conflicts
}

// FormatConflictWarnings produces human-readable warning messages from conflict data.
func FormatConflictWarnings(conflicts []model.Conflict, scale float64) []string {
	if scale <= 0 {
		scale = model.DefaultSettings().Scale
	}
	cellArea := 1 / (scale * scale)

	var warnings []string
	for _, c := range conflicts {
		var msg string
		switch c.Kind {
		case model.ConflictOverlap:
			msg = fmt.Sprintf("Objects %q and %q overlap (about %.0f mm²)", c.First, c.Second, float64(c.Cells)*cellArea)
		case model.ConflictOffPlate:
			msg = fmt.Sprintf("Object %q extends past the plate edge (about %.0f mm²)", c.First, float64(c.Cells)*cellArea)
		default:
			msg = fmt.Sprintf("Object %q: %s", c.First, c.Kind)
		}
		warnings = append(warnings, msg)
	}
	return warnings
}
