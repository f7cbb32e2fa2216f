package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/PlateNest/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportComparisonChart_WritesHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compare.html")
	results := []engine.ComparisonResult{
		{Scenario: engine.ComparisonScenario{Name: "Current Settings"}, PlacedCount: 7, NotFitCount: 1},
		{Scenario: engine.ComparisonScenario{Name: "Exhaustive Search"}, PlacedCount: 8},
		{Scenario: engine.ComparisonScenario{Name: "Broken"}, Err: errors.New("boom")},
	}

	require.NoError(t, ExportComparisonChart(path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.True(t, strings.Contains(html, "Exhaustive Search"))
	assert.False(t, strings.Contains(html, "Broken"), "failed scenarios are not charted")
}

func TestExportComparisonChart_NothingToChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compare.html")
	err := ExportComparisonChart(path, []engine.ComparisonResult{{Err: errors.New("boom")}})
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
