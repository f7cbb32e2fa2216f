package engine

import (
	"testing"

	"github.com/piwi3910/PlateNest/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareMask(side int) *raster.Mask {
	rows := make([]string, side)
	for i := range rows {
		row := make([]byte, side)
		for j := range row {
			row[j] = '#'
		}
		rows[i] = string(row)
	}
	return raster.ParseMask(-side/2, -side/2, rows...)
}

func TestNewGrid_Dimensions(t *testing.T) {
	g := NewGrid(200, 200, 8, 1)
	assert.Equal(t, 216, g.Width())
	assert.Equal(t, 216, g.Depth())

	g = NewGrid(200, 150, 8, 0.5)
	assert.Equal(t, 108, g.Width())
	assert.Equal(t, 83, g.Depth(), "166 mm at 2 mm cells rounds up")

	g = NewGrid(0, -5, 0, 1)
	assert.Equal(t, 1, g.Width())
	assert.Equal(t, 1, g.Depth())
}

func TestNewGrid_Scale(t *testing.T) {
	assert.Equal(t, 0.5, NewGrid(100, 100, 0, 0.5).Scale())

	g := NewGrid(100, 80, 0, 0)
	assert.Equal(t, 1.0, g.Scale(), "non-positive scale falls back to 1 cell per mm")
	assert.Equal(t, 100, g.Width())
	assert.Equal(t, 80, g.Depth())
}

func TestGrid_PlateCoordinates(t *testing.T) {
	g := NewGrid(200, 200, 8, 0.5)

	cx, cy := g.FromPlate(0, 0)
	assert.Equal(t, 54, cx)
	assert.Equal(t, 54, cy)

	cx, cy = g.FromPlate(10, -20)
	assert.Equal(t, 59, cx)
	assert.Equal(t, 44, cy)

	x, y := g.ToPlate(cx, cy)
	assert.InDelta(t, 10.0, x, 1e-9)
	assert.InDelta(t, -20.0, y, 1e-9)
}

func TestGrid_PlaceMarksExactlyTheMask(t *testing.T) {
	g := NewGrid(20, 20, 0, 1)
	m := raster.ParseMask(-1, -1,
		"##.",
		".##",
	)

	g.Place(10, 10, m)

	assert.Equal(t, m.Area(), g.OccupiedCount())
	assert.True(t, g.Occupied(9, 9))
	assert.True(t, g.Occupied(10, 9))
	assert.False(t, g.Occupied(11, 9))
	assert.False(t, g.Occupied(9, 10))
	assert.True(t, g.Occupied(10, 10))
	assert.True(t, g.Occupied(11, 10))
}

func TestGrid_PlaceClipsOutsideCells(t *testing.T) {
	g := NewGrid(20, 20, 0, 1)

	assert.NotPanics(t, func() {
		g.Place(0, 0, squareMask(10))
		g.Place(-100, 500, squareMask(10))
		g.Place(0, 0, nil)
	})
	assert.Equal(t, 25, g.OccupiedCount(), "only the in-grid quarter of the mask is stamped")
	assert.False(t, g.Occupied(-1, 0))
}

func TestGrid_PriorityPrefersDistanceFromObstacles(t *testing.T) {
	g := NewGrid(10, 10, 0, 1)

	assert.Equal(t, 3, g.Priority(0, 0), "border cells are one step from the outside")
	assert.Equal(t, 3, g.Priority(0, 5))
	assert.Equal(t, 15, g.Priority(4, 4))
	assert.Equal(t, 15, g.Priority(5, 5))
	assert.Equal(t, 0, g.Priority(-1, 3))

	g.Place(5, 5, raster.ParseMask(0, 0, "#"))
	assert.Equal(t, 0, g.Priority(5, 5), "occupied cells have no priority")
	assert.Equal(t, 3, g.Priority(6, 5))
	assert.Equal(t, 4, g.Priority(6, 6))
}

func TestBestSpot_EmptyGridPicksCentre(t *testing.T) {
	g := NewGrid(11, 11, 0, 1)

	spot := g.BestSpot(raster.ParseMask(0, 0, "#"), 0, 1)
	require.True(t, spot.Found)
	assert.Equal(t, 5, spot.CellX)
	assert.Equal(t, 5, spot.CellY)
	assert.Equal(t, 18, spot.Priority)
	assert.InDelta(t, 0.0, spot.X, 1e-9)
	assert.InDelta(t, 0.0, spot.Y, 1e-9)
}

func TestBestSpot_NeverOverlaps(t *testing.T) {
	g := NewGrid(60, 40, 0, 1)
	masks := []*raster.Mask{squareMask(12), squareMask(9), squareMask(7), squareMask(7), squareMask(5), squareMask(3)}

	for round := 0; round < 4; round++ {
		for _, m := range masks {
			spot := g.BestSpot(m, 0, 1)
			if !spot.Found {
				continue
			}
			require.True(t, g.Fits(spot.CellX, spot.CellY, m), "returned anchor must fit")
			before := g.OccupiedCount()
			g.Place(spot.CellX, spot.CellY, m)
			assert.Equal(t, before+m.Area(), g.OccupiedCount(), "stamp must not hit occupied cells")
		}
	}
}

func TestBestSpot_TooLargeFails(t *testing.T) {
	g := NewGrid(10, 10, 0, 1)

	spot := g.BestSpot(squareMask(12), 0, 1)
	assert.False(t, spot.Found)
	assert.Equal(t, Spot{}, spot)

	assert.False(t, g.BestSpot(nil, 0, 1).Found)
}

func TestBestSpot_StartPriorityScansLowerCellsFirst(t *testing.T) {
	g := NewGrid(11, 11, 0, 1)

	// Cells with priority 9 form the third ring; (5, 2) is the first of the
	// ring cells nearest the centre in row-major order.
	spot := g.BestSpot(raster.ParseMask(0, 0, "#"), 9, 1)
	require.True(t, spot.Found)
	assert.Equal(t, 9, spot.Priority)
	assert.Equal(t, 5, spot.CellX)
	assert.Equal(t, 2, spot.CellY)
}

func TestBestSpot_StartPriorityFallsBack(t *testing.T) {
	g := NewGrid(11, 11, 0, 1)

	// A 7x7 mask only fits near the centre, above the hinted priority.
	spot := g.BestSpot(squareMask(7), 6, 1)
	require.True(t, spot.Found)
	assert.Equal(t, 5, spot.CellX)
	assert.Equal(t, 5, spot.CellY)
	assert.Equal(t, 18, spot.Priority)
}

func TestBestSpot_StepCanSkipTheOnlySpot(t *testing.T) {
	g := NewGrid(11, 11, 0, 1)
	bar := raster.ParseMask(0, 0, "###########")

	// Only anchors in column 0 fit a full-width bar that starts at its anchor.
	spot := g.BestSpot(bar, 0, 1)
	require.True(t, spot.Found)
	assert.Equal(t, 0, spot.CellX)
	assert.Equal(t, 5, spot.CellY)

	coarse := g.BestSpot(bar, 0, 1000)
	assert.False(t, coarse.Found, "a coarse step only tests the best candidate here")
}

func TestGrid_FitsRejectsOutOfGridAnchors(t *testing.T) {
	g := NewGrid(10, 10, 0, 1)
	m := squareMask(4)

	assert.True(t, g.Fits(2, 2, m))
	assert.False(t, g.Fits(1, 2, m))
	assert.False(t, g.Fits(9, 9, m))
	assert.False(t, g.Fits(5, 5, nil))
}

func TestGrid_PlaceFixedUsesPlateCoordinates(t *testing.T) {
	g := NewGrid(100, 100, 0, 1)
	g.PlaceFixed(-20, 30, raster.ParseMask(0, 0, "#"))

	assert.True(t, g.Occupied(30, 80))
	assert.Equal(t, 1, g.OccupiedCount())
}

func TestGrid_CloneIsIndependent(t *testing.T) {
	g := NewGrid(20, 20, 0, 1)
	g.Place(10, 10, squareMask(4))

	c := g.Clone()
	c.Place(3, 3, squareMask(2))

	assert.Equal(t, 16, g.OccupiedCount())
	assert.Equal(t, 20, c.OccupiedCount())
	assert.False(t, g.Occupied(3, 3))
	assert.True(t, c.Occupied(3, 3))
	assert.Equal(t, g.Priority(0, 0), c.Priority(0, 0))
}
