package export

import (
	"fmt"

	"github.com/piwi3910/PlateNest/internal/model"
	"github.com/xuri/excelize/v2"
)

const (
	placementsSheet = "Placements"
	summarySheet    = "Summary"
)

var placementHeaders = []interface{}{"ID", "Label", "Width (mm)", "Depth (mm)", "X (mm)", "Y (mm)", "Priority", "Status"}

// ExportExcel writes the arrangement to an .xlsx workbook with one row per
// object on the "Placements" sheet and plate totals on the "Summary" sheet.
// Unconverted objects are listed after the placements with status
// "not converted".
func ExportExcel(path string, plate model.Plate, result model.ArrangeResult) error {
	if len(result.Placements) == 0 && len(result.Unconverted) == 0 {
		return fmt.Errorf("no objects to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), placementsSheet); err != nil {
		return err
	}
	if err := writePlacementsSheet(f, result); err != nil {
		return fmt.Errorf("failed to write placements: %w", err)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	if err := writeSummarySheet(f, plate, result); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	f.SetActiveSheet(0)
	return f.SaveAs(path)
}

func writePlacementsSheet(f *excelize.File, result model.ArrangeResult) error {
	if err := f.SetSheetRow(placementsSheet, "A1", &placementHeaders); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(placementsSheet, "A1", "H1", bold); err != nil {
		return err
	}

	row := 2
	for _, p := range result.Placements {
		status := "placed"
		if !p.Fits {
			status = "not fitting"
		}
		values := []interface{}{p.Object.ID, p.Object.Label, p.Object.Width(), p.Object.Depth(), p.X, p.Y, p.Priority, status}
		if err := setRow(f, placementsSheet, row, values); err != nil {
			return err
		}
		row++
	}
	for _, o := range result.Unconverted {
		values := []interface{}{o.ID, o.Label, o.Width(), o.Depth(), "", "", "", "not converted"}
		if err := setRow(f, placementsSheet, row, values); err != nil {
			return err
		}
		row++
	}

	return f.SetColWidth(placementsSheet, "A", "H", 14)
}

func writeSummarySheet(f *excelize.File, plate model.Plate, result model.ArrangeResult) error {
	rows := [][]interface{}{
		{"Plate", plateName(plate)},
		{"Plate Width (mm)", plate.Width},
		{"Plate Depth (mm)", plate.Depth},
		{"Disallowed Border (mm)", plate.DisallowedMargin},
		{"Objects Placed", len(result.Placed())},
		{"Objects Not Fitting", len(result.NotFit())},
		{"Objects Not Converted", len(result.Unconverted)},
		{"Footprint Area (mm²)", result.PlacedArea()},
		{"Coverage (%)", result.Utilization(plate)},
	}
	for i, values := range rows {
		if err := setRow(f, summarySheet, i+1, values); err != nil {
			return err
		}
	}
	return f.SetColWidth(summarySheet, "A", "A", 24)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
