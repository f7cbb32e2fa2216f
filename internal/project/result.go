package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/PlateNest/internal/model"
)

// ResultVersion is written into every result file.
const ResultVersion = "1.0.0"

// ResultFile is the on-disk form of an arrangement: the plate, the settings
// used and the resulting placements.
type ResultFile struct {
	Version   string                `json:"version"`
	CreatedAt string                `json:"created_at"`
	Plate     model.Plate           `json:"plate"`
	Settings  model.ArrangeSettings `json:"settings"`
	Result    model.ArrangeResult   `json:"result"`
}

// WriteResult stores an arrangement result as JSON at the specified path.
func WriteResult(path string, plate model.Plate, settings model.ArrangeSettings, result model.ArrangeResult) error {
	file := ResultFile{
		Version:   ResultVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Plate:     plate,
		Settings:  settings,
		Result:    result,
	}
	if err := writeJSON(path, file); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	return nil
}

// ReadResult reads a result file written by WriteResult.
func ReadResult(path string) (ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ResultFile{}, fmt.Errorf("failed to read result file: %w", err)
	}
	var file ResultFile
	if err := json.Unmarshal(data, &file); err != nil {
		return ResultFile{}, fmt.Errorf("failed to parse result file: %w", err)
	}
	if file.Version == "" {
		return ResultFile{}, fmt.Errorf("invalid result file: missing version field")
	}
	// Ensure slices are never nil
	if file.Result.Placements == nil {
		file.Result.Placements = []model.Placement{}
	}
	if file.Result.Unconverted == nil {
		file.Result.Unconverted = []model.Object{}
	}
	return file, nil
}
