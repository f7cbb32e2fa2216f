package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/piwi3910/PlateNest/internal/model"
	"github.com/piwi3910/PlateNest/internal/raster"
)

var (
	// ErrInvalidPlate is returned when the usable plate has no area.
	ErrInvalidPlate = errors.New("invalid plate")
	// ErrInvalidSettings is returned for out-of-range arrangement settings.
	ErrInvalidSettings = errors.New("invalid arrange settings")
)

// Arranger places object footprints on a build plate. It only holds immutable
// configuration, so one Arranger may serve concurrent Arrange calls.
type Arranger struct {
	Settings model.ArrangeSettings

	logger  *slog.Logger
	genetic GeneticConfig
	seed    int64
}

// Option configures an Arranger.
type Option func(*Arranger)

// WithLogger sets the logger used for warnings and the run summary.
func WithLogger(l *slog.Logger) Option {
	return func(a *Arranger) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithGeneticConfig overrides the genetic search parameters.
func WithGeneticConfig(cfg GeneticConfig) Option {
	return func(a *Arranger) {
		a.genetic = cfg
	}
}

// WithSeed sets the random seed of the genetic search.
func WithSeed(seed int64) Option {
	return func(a *Arranger) {
		a.seed = seed
	}
}

func New(settings model.ArrangeSettings, opts ...Option) *Arranger {
	a := &Arranger{
		Settings: settings,
		logger:   slog.Default(),
		genetic:  DefaultGeneticConfig(),
		seed:     42,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// item is an object ready for placement.
type item struct {
	object model.Object
	offset *raster.Mask // tested against the grid
	stamp  *raster.Mask // marked once placed
}

// Arrange finds a plate position for every object. Fixed objects are stamped
// first at their Position and never move. Objects whose footprint cannot be
// rasterized are reported in Unconverted; objects that find no spot are
// parked beside the plate with Fits set to false. Placements are returned in
// processing order, largest footprint first unless SortByArea is off.
//
// A cancelled context stops the run between two objects; the placements made
// so far are returned together with the context error.
func (a *Arranger) Arrange(ctx context.Context, plate model.Plate, objects, fixed []model.Object) (model.ArrangeResult, error) {
	result := model.ArrangeResult{
		Placements:  []model.Placement{},
		Unconverted: []model.Object{},
	}

	settings, err := normalizeSettings(a.Settings)
	if err != nil {
		return result, err
	}
	usable := plate.Usable()
	if !(usable.Width > 0 && usable.Depth > 0) {
		return result, fmt.Errorf("%w: usable area %.1fx%.1f mm", ErrInvalidPlate, usable.Width, usable.Depth)
	}

	items, unconverted := a.prepare(objects, settings)
	result.Unconverted = append(result.Unconverted, unconverted...)

	if settings.SortByArea {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].offset.Area() > items[j].offset.Area()
		})
	}

	base := a.newGrid(usable, fixed, settings)

	var placements []model.Placement
	if settings.Algorithm == model.AlgorithmGenetic {
		placements, err = a.arrangeGenetic(ctx, base, items, settings, plate)
	} else {
		placements, err = a.place(ctx, base, items, settings, plate)
	}
	result.Placements = append(result.Placements, placements...)

	a.logger.Info("arrangement finished",
		"plate", plate.Name,
		"algorithm", settings.Algorithm,
		"placed", len(result.Placed()),
		"not_fit", len(result.NotFit()),
		"unconverted", len(result.Unconverted),
	)
	return result, err
}

// normalizeSettings fills zero values with defaults and rejects invalid ones.
func normalizeSettings(s model.ArrangeSettings) (model.ArrangeSettings, error) {
	defaults := model.DefaultSettings()

	if s.Scale <= 0 || math.IsNaN(s.Scale) || math.IsInf(s.Scale, 0) {
		return s, fmt.Errorf("%w: scale must be positive, got %v", ErrInvalidSettings, s.Scale)
	}
	if s.Margin < 0 || math.IsNaN(s.Margin) {
		return s, fmt.Errorf("%w: margin must not be negative, got %v", ErrInvalidSettings, s.Margin)
	}
	if s.Step < 0 {
		return s, fmt.Errorf("%w: step must not be negative, got %d", ErrInvalidSettings, s.Step)
	}
	if s.ParkSpacing < 0 {
		return s, fmt.Errorf("%w: park spacing must not be negative, got %v", ErrInvalidSettings, s.ParkSpacing)
	}
	if s.Step == 0 {
		s.Step = 1
	}
	if s.ParkSpacing == 0 {
		s.ParkSpacing = defaults.ParkSpacing
	}

	switch s.Clearance {
	case "":
		s.Clearance = defaults.Clearance
	case model.ClearanceOffset, model.ClearanceHull:
	default:
		return s, fmt.Errorf("%w: unknown clearance %q", ErrInvalidSettings, s.Clearance)
	}

	switch s.Algorithm {
	case "":
		s.Algorithm = defaults.Algorithm
	case model.AlgorithmGreedy, model.AlgorithmGenetic:
	default:
		return s, fmt.Errorf("%w: unknown algorithm %q", ErrInvalidSettings, s.Algorithm)
	}
	return s, nil
}

// prepare rasterizes the search and stamp masks of every object.
func (a *Arranger) prepare(objects []model.Object, s model.ArrangeSettings) ([]item, []model.Object) {
	items := make([]item, 0, len(objects))
	var unconverted []model.Object
	for _, o := range objects {
		offset, err := raster.Rasterize(o.Outline, s.Margin, s.Scale)
		if err != nil {
			a.logger.Warn("object could not be converted for arranging", "object", o.Label, "id", o.ID, "error", err)
			unconverted = append(unconverted, o)
			continue
		}
		stamp := offset
		if s.Clearance == model.ClearanceHull {
			stamp, err = raster.Rasterize(o.Outline, 0, s.Scale)
			if err != nil {
				a.logger.Warn("object could not be converted for arranging", "object", o.Label, "id", o.ID, "error", err)
				unconverted = append(unconverted, o)
				continue
			}
		}
		items = append(items, item{object: o, offset: offset, stamp: stamp})
	}
	return items, unconverted
}

// newGrid builds the grid for the usable plate with every fixed hull stamped.
// Fixed outlines are rasterized in plate space so fractional positions keep
// the conservative cell rounding.
func (a *Arranger) newGrid(usable model.Plate, fixed []model.Object, s model.ArrangeSettings) *Grid {
	grid := NewGrid(usable.Width, usable.Depth, s.Margin, s.Scale)
	for _, f := range fixed {
		hull, err := raster.Rasterize(f.Outline.Translate(f.Position.X, f.Position.Y), 0, s.Scale)
		if err != nil {
			a.logger.Warn("fixed object ignored", "object", f.Label, "id", f.ID, "error", err)
			continue
		}
		grid.PlaceFixed(0, 0, hull)
	}
	return grid
}

// place runs the greedy placement loop over items in the given order,
// mutating grid.
func (a *Arranger) place(ctx context.Context, grid *Grid, items []item, s model.ArrangeSettings, plate model.Plate) ([]model.Placement, error) {
	placements := make([]model.Placement, 0, len(items))
	lastArea, lastPriority := -1, 0
	parked := 0

	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return placements, err
		}

		// Same-size objects start where the previous one ended up; cells with
		// a higher priority are only tried once the rest is exhausted.
		start := 0
		if s.ReusePriority && it.offset.Area() == lastArea {
			start = lastPriority
		}

		spot := grid.BestSpot(it.offset, start, s.Step)
		if !spot.Found {
			a.logger.Debug("no spot found", "object", it.object.Label, "id", it.object.ID)
			placements = append(placements, model.Placement{
				Object: it.object,
				X:      plate.Width/2 + s.ParkSpacing,
				Y:      -float64(parked) * s.ParkSpacing,
				Fits:   false,
			})
			parked++
			continue
		}

		grid.Place(spot.CellX, spot.CellY, it.stamp)
		lastArea, lastPriority = it.offset.Area(), spot.Priority
		placements = append(placements, model.Placement{
			Object:   it.object,
			X:        spot.X,
			Y:        spot.Y,
			Priority: spot.Priority,
			Fits:     true,
		})
	}
	return placements, nil
}
