package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/PlateNest/internal/model"
	"github.com/piwi3910/PlateNest/internal/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRun_ArrangesCSVAndWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	parts := writeFile(t, dir, "parts.csv", "Label,Width,Depth,Qty\nBracket,40,20,2\nClip,10,10,1\n")
	cfgPath := filepath.Join(dir, "cfg", "config.json")
	out := filepath.Join(dir, "result.json")
	xlsx := filepath.Join(dir, "result.xlsx")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-config", cfgPath, "-profile", "Prusa MK4", "-margin", "4",
		"-out", out, "-xlsx", xlsx, parts,
	}, &stdout, &stderr)

	require.Equal(t, 0, code, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), "Prusa MK4 (250 x 210 mm): 3 placed, 0 not fitting")
	assert.Equal(t, 2, strings.Count(stdout.String(), "Bracket"))

	file, err := project.ReadResult(out)
	require.NoError(t, err)
	assert.Len(t, file.Result.Placements, 3)
	assert.Equal(t, 4.0, file.Settings.Margin)
	assert.Equal(t, 250.0, file.Plate.Width)

	_, err = os.Stat(xlsx)
	assert.NoError(t, err)

	cfg, err := project.LoadAppConfig(cfgPath)
	require.NoError(t, err)
	require.Len(t, cfg.RecentJobs, 1)
	assert.Equal(t, "parts.csv", filepath.Base(cfg.RecentJobs[0]))
}

func TestRun_ReportsObjectsThatDoNotFit(t *testing.T) {
	dir := t.TempDir()
	parts := writeFile(t, dir, "parts.csv", "Label,Width,Depth\nHuge,400,400\nSmall,10,10\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", filepath.Join(dir, "config.json"), "-width", "100", "-depth", "100", parts}, &stdout, &stderr)

	assert.Equal(t, 3, code)
	assert.Contains(t, stdout.String(), "custom plate (100 x 100 mm): 1 placed, 1 not fitting")
	assert.Contains(t, stdout.String(), "NOT FITTING")
}

func TestRun_LoadsJobFile(t *testing.T) {
	dir := t.TempDir()
	job := model.NewJob()
	job.Plate = model.Plate{Name: "Job Plate", Width: 120, Depth: 80}
	job.Objects = []model.Object{model.NewObject("a", model.RectOutline(20, 20))}
	fixed := model.NewObject("clip", model.RectOutline(10, 10))
	fixed.Position = model.Point2D{X: -50, Y: 30}
	job.Fixed = []model.Object{fixed}
	path := filepath.Join(dir, "job"+project.JobExtension)
	require.NoError(t, project.SaveJob(path, job))

	chart := filepath.Join(dir, "compare.html")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", filepath.Join(dir, "config.json"), "-chart", chart, path}, &stdout, &stderr)

	require.Equal(t, 0, code, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), "Job Plate (120 x 80 mm): 1 placed")
	assert.Contains(t, stdout.String(), "Current Settings")
	assert.Contains(t, stdout.String(), "Exhaustive Search")
	_, err := os.Stat(chart)
	assert.NoError(t, err)
}

func TestRun_UsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 2, run(context.Background(), nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage: platenest")

	stderr.Reset()
	dir := t.TempDir()
	bad := writeFile(t, dir, "parts.stl", "solid")
	assert.Equal(t, 1, run(context.Background(), []string{"-config", filepath.Join(dir, "c.json"), bad}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "unsupported input file type")
}

func TestRun_SavesAndExportsPlateProfile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	parts := writeFile(t, dir, "parts.csv", "Label,Width,Depth\nBox,20,20\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-config", cfgPath, "-width", "300", "-depth", "280", "-save-profile", "Voron 300", parts,
	}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), `saved plate profile "Voron 300"`)
	assert.Contains(t, stdout.String(), "Voron 300 (300 x 280 mm): 1 placed")

	saved, err := project.LoadCustomProfiles(filepath.Join(dir, "plates.json"))
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Voron 300", saved[0].Name)
	assert.Equal(t, 300.0, saved[0].Width)

	exported := filepath.Join(dir, "voron.json")
	stdout.Reset()
	code = run(context.Background(), []string{
		"-config", cfgPath, "-profile", "Voron 300", "-export-profile", exported,
	}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	profile, err := project.ImportProfile(exported)
	require.NoError(t, err)
	assert.Equal(t, "Voron 300", profile.Name)
	assert.Equal(t, 280.0, profile.Depth)
}

func TestRun_ImportsPlateProfile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	src := writeFile(t, dir, "bambu.json", `{"name":"Bambu X1","width":256,"depth":256,"disallowed_margin":2}`)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", cfgPath, "-import-profile", src}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), `imported plate profile "Bambu X1"`)

	parts := writeFile(t, dir, "parts.csv", "Label,Width,Depth\nBox,20,20\n")
	stdout.Reset()
	code = run(context.Background(), []string{"-config", cfgPath, "-profile", "Bambu X1", parts}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), "Bambu X1 (256 x 256 mm): 1 placed")
}

func TestRun_PlateProfileErrors(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	var stdout, stderr bytes.Buffer

	builtIn := writeFile(t, dir, "generic.json", `{"name":"Generic","width":100,"depth":100}`)
	assert.Equal(t, 1, run(context.Background(), []string{"-config", cfgPath, "-import-profile", builtIn}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "built in")

	stderr.Reset()
	out := filepath.Join(dir, "missing.json")
	assert.Equal(t, 1, run(context.Background(), []string{"-config", cfgPath, "-profile", "Nope", "-export-profile", out}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "unknown plate profile")

	assert.Equal(t, 2, run(context.Background(), []string{"-config", cfgPath, "-import-profile", builtIn, "-save-profile", "X"}, &stdout, &stderr))

	stderr.Reset()
	writeFile(t, dir, "plates.json", "[{")
	shared := writeFile(t, dir, "bambu.json", `{"name":"Bambu X1","width":256,"depth":256}`)
	assert.Equal(t, 1, run(context.Background(), []string{"-config", cfgPath, "-import-profile", shared}, &stdout, &stderr))
	data, err := os.ReadFile(filepath.Join(dir, "plates.json"))
	require.NoError(t, err)
	assert.Equal(t, "[{", string(data), "unreadable profile file is left alone")
}

func TestApplyFlags_OnlyExplicitFlagsOverride(t *testing.T) {
	opts, err := parseFlags([]string{"-margin", "2", "-exhaustive", "-algorithm", "genetic", "in.csv"}, &bytes.Buffer{})
	require.NoError(t, err)

	job := model.NewJob()
	job.Settings.Scale = 2
	applyFlags(opts, &job)

	assert.Equal(t, 2.0, job.Settings.Margin)
	assert.Equal(t, 2.0, job.Settings.Scale, "unset flags keep the job value")
	assert.False(t, job.Settings.ReusePriority)
	assert.Equal(t, model.AlgorithmGenetic, job.Settings.Algorithm)
	assert.Equal(t, "Generic", job.Plate.Name)
}
