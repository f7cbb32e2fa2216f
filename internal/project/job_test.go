package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/PlateNest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs", "brackets"+JobExtension)

	job := model.NewJob()
	job.Name = "Brackets"
	job.Plate = model.GetPlateProfile("Prusa MK4").Plate()
	job.Objects = []model.Object{model.NewObject("bracket", model.RectOutline(40, 20))}
	clip := model.NewObject("clip", model.RectOutline(10, 10))
	clip.Fixed = true
	clip.Position = model.Point2D{X: -100, Y: 80}
	job.Fixed = []model.Object{clip}
	job.Settings.Margin = 4

	require.NoError(t, SaveJob(path, job))

	loaded, err := LoadJob(path)
	require.NoError(t, err)
	assert.Equal(t, job.Name, loaded.Name)
	assert.Equal(t, job.Plate, loaded.Plate)
	assert.Equal(t, job.Objects, loaded.Objects)
	assert.Equal(t, job.Fixed, loaded.Fixed)
	assert.Equal(t, 4.0, loaded.Settings.Margin)
	assert.Nil(t, loaded.Result)
}

func TestLoadJobFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.json")
	data := `{
		"objects": [{"label": "tri", "outline": [{"x": 0, "y": 0}, {"x": 10, "y": 0}, {"x": 0, "y": 10}]}],
		"fixed": [{"label": "adapter", "outline": [{"x": -5, "y": -5}, {"x": 5, "y": -5}, {"x": 5, "y": 5}]}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	job, err := LoadJob(path)
	require.NoError(t, err)
	assert.Equal(t, "Untitled", job.Name)
	assert.Equal(t, model.DefaultSettings(), job.Settings)
	assert.Equal(t, 200.0, job.Plate.Width)
	require.Len(t, job.Objects, 1)
	assert.Len(t, job.Objects[0].Outline, 3)
	require.Len(t, job.Fixed, 1)
	assert.True(t, job.Fixed[0].Fixed, "entries of the fixed list are always fixed")
}

func TestLoadJobErrors(t *testing.T) {
	_, err := LoadJob(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"objects": 3}`), 0644))
	_, err = LoadJob(path)
	assert.ErrorContains(t, err, "failed to parse job file")
}
