package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/PlateNest/internal/model"
)

func TestWriteAndReadResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result.json")

	plate := model.GetPlateProfile("Generic").Plate()
	settings := model.DefaultSettings()
	result := model.ArrangeResult{
		Placements: []model.Placement{
			{Object: model.NewObject("A", model.RectOutline(20, 20)), X: -2, Y: 4, Priority: 90, Fits: true},
			{Object: model.NewObject("B", model.RectOutline(300, 20)), X: 120, Y: 0, Fits: false},
		},
	}

	if err := WriteResult(path, plate, settings, result); err != nil {
		t.Fatalf("WriteResult failed: %v", err)
	}

	file, err := ReadResult(path)
	if err != nil {
		t.Fatalf("ReadResult failed: %v", err)
	}
	if file.Version != ResultVersion {
		t.Errorf("expected version %s, got %s", ResultVersion, file.Version)
	}
	if file.CreatedAt == "" {
		t.Error("expected non-empty CreatedAt")
	}
	if file.Plate.Width != 200 {
		t.Errorf("expected plate width 200, got %f", file.Plate.Width)
	}
	if len(file.Result.Placements) != 2 {
		t.Fatalf("expected 2 placements, got %d", len(file.Result.Placements))
	}
	if !file.Result.Placements[0].Fits || file.Result.Placements[1].Fits {
		t.Error("fit flags not preserved")
	}
	if file.Result.Unconverted == nil {
		t.Error("expected Unconverted to be non-nil")
	}
}

func TestReadResultMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	if err := os.WriteFile(path, []byte(`{"result": {}}`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadResult(path); err == nil {
		t.Error("expected error for missing version")
	}
}

func TestReadResultMissingFile(t *testing.T) {
	if _, err := ReadResult(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
