package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/piwi3910/PlateNest/internal/model"
)

// ComparisonScenario defines a named set of settings to compare.
type ComparisonScenario struct {
	Name     string
	Settings model.ArrangeSettings
}

// ComparisonResult holds the arrangement result and computed statistics
// for a single scenario.
type ComparisonResult struct {
	Scenario         ComparisonScenario
	Result           model.ArrangeResult
	PlacedCount      int
	NotFitCount      int
	UnconvertedCount int
	Utilization      float64
	Err              error
}

// CompareScenarios arranges the same objects once per scenario and returns the
// results in scenario order. This makes the cost of heuristics such as
// start-priority reuse or a coarse step visible next to an exhaustive search.
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, plate model.Plate, objects, fixed []model.Object, logger *slog.Logger) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		arr := New(scenario.Settings, WithLogger(logger))
		result, err := arr.Arrange(ctx, plate, objects, fixed)

		results = append(results, ComparisonResult{
			Scenario:         scenario,
			Result:           result,
			PlacedCount:      len(result.Placed()),
			NotFitCount:      len(result.NotFit()),
			UnconvertedCount: len(result.Unconverted),
			Utilization:      result.Utilization(plate),
			Err:              err,
		})
	}

	return results
}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current settings, varying key parameters to show what-if alternatives.
func BuildDefaultScenarios(baseSettings model.ArrangeSettings) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:     "Current Settings",
			Settings: baseSettings,
		},
	}

	// Scenario: exhaustive search without the same-size shortcut
	if baseSettings.ReusePriority {
		exhaustive := baseSettings
		exhaustive.ReusePriority = false
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "Exhaustive Search",
			Settings: exhaustive,
		})
	}

	// Scenario: coarse candidate stride
	if baseSettings.Step <= 1 {
		coarse := baseSettings
		coarse.Step = 10
		scenarios = append(scenarios, ComparisonScenario{
			Name:     fmt.Sprintf("Coarse Step %d", coarse.Step),
			Settings: coarse,
		})
	}

	// Scenario: keep insertion order
	if baseSettings.SortByArea {
		unsorted := baseSettings
		unsorted.SortByArea = false
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "Insertion Order",
			Settings: unsorted,
		})
	}

	// Scenario: try the other algorithm
	altAlgo := baseSettings
	if baseSettings.Algorithm == model.AlgorithmGenetic {
		altAlgo.Algorithm = model.AlgorithmGreedy
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "Greedy Algorithm",
			Settings: altAlgo,
		})
	} else {
		altAlgo.Algorithm = model.AlgorithmGenetic
		scenarios = append(scenarios, ComparisonScenario{
			Name:     "Genetic Algorithm",
			Settings: altAlgo,
		})
	}

	return scenarios
}
