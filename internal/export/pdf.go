// Package export writes arrangement results to PDF reports, label sheets and
// spreadsheets.
package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/PlateNest/internal/model"
)

// objectColor represents an RGB color for a placed object.
type objectColor struct {
	R, G, B int
}

var objectColors = []objectColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 25.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// plateCanvas maps plate coordinates (origin at the plate centre, Y up) onto
// the page (origin top-left, Y down).
type plateCanvas struct {
	plate            model.Plate
	scale            float64
	offsetX, offsetY float64
}

func newPlateCanvas(plate model.Plate, drawWidth, drawHeight, left, top float64) plateCanvas {
	scale := math.Min(drawWidth/plate.Width, drawHeight/plate.Depth)
	return plateCanvas{
		plate:   plate,
		scale:   scale,
		offsetX: left + (drawWidth-plate.Width*scale)/2,
		offsetY: top,
	}
}

func (c plateCanvas) point(x, y float64) (float64, float64) {
	return c.offsetX + (x+c.plate.Width/2)*c.scale, c.offsetY + (c.plate.Depth/2-y)*c.scale
}

func (c plateCanvas) width() float64 { return c.plate.Width * c.scale }
func (c plateCanvas) depth() float64 { return c.plate.Depth * c.scale }

// ExportPDF generates a PDF document with the arranged plate on the first page
// and a summary page listing statistics, parked objects and settings.
func ExportPDF(path string, plate model.Plate, result model.ArrangeResult, settings model.ArrangeSettings) error {
	if plate.Width <= 0 || plate.Depth <= 0 {
		return fmt.Errorf("invalid plate size %.1f x %.1f mm", plate.Width, plate.Depth)
	}
	if len(result.Placements) == 0 {
		return fmt.Errorf("no placements to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderPlatePage(pdf, plate, result)

	pdf.AddPage()
	renderSummaryPage(pdf, plate, result, settings)

	return pdf.OutputFileAndClose(path)
}

// renderPlatePage draws the plate and every placed footprint on the current page.
func renderPlatePage(pdf *fpdf.Fpdf, plate model.Plate, result model.ArrangeResult) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Plate: %s (%.0f x %.0f mm)", plateName(plate), plate.Width, plate.Depth)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	placed := result.Placed()
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Placed: %d | Not fitting: %d | Footprint area: %.0f mm² | Coverage: %.1f%%",
		len(placed), len(result.NotFit()), result.PlacedArea(), result.Utilization(plate))
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight
	canvas := newPlateCanvas(plate, drawWidth, drawHeight, marginLeft, drawAreaTop)

	// Plate background
	pdf.SetFillColor(235, 235, 235)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(canvas.offsetX, canvas.offsetY, canvas.width(), canvas.depth(), "FD")

	drawDisallowedBand(pdf, canvas)
	drawCentreMark(pdf, canvas)

	for i, p := range placed {
		col := objectColors[i%len(objectColors)]
		drawFootprint(pdf, canvas, p, col)
	}

	drawDimensionAnnotations(pdf, canvas)
	drawObjectsLegend(pdf, placed, canvas.offsetY+canvas.depth()+6)
}

// drawDisallowedBand renders the unusable border of the plate as hatched strips.
func drawDisallowedBand(pdf *fpdf.Fpdf, c plateCanvas) {
	m := c.plate.DisallowedMargin * c.scale
	if m <= 0 {
		return
	}
	w, d := c.width(), c.depth()
	zones := [][4]float64{
		{c.offsetX, c.offsetY, w, m},
		{c.offsetX, c.offsetY + d - m, w, m},
		{c.offsetX, c.offsetY + m, m, d - 2*m},
		{c.offsetX + w - m, c.offsetY + m, m, d - 2*m},
	}
	for _, z := range zones {
		pdf.SetFillColor(255, 200, 200)
		pdf.SetDrawColor(200, 0, 0)
		pdf.SetLineWidth(0.3)
		pdf.Rect(z[0], z[1], z[2], z[3], "FD")
		drawHatchPattern(pdf, z[0], z[1], z[2], z[3])
	}
}

// drawHatchPattern draws diagonal lines inside a rectangle to indicate exclusion zones.
func drawHatchPattern(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.15)

	spacing := 4.0
	maxDist := w + h

	for d := spacing; d < maxDist; d += spacing {
		x1 := x + math.Max(0, d-h)
		y1 := y + math.Min(h, d)
		x2 := x + math.Min(w, d)
		y2 := y + math.Max(0, d-w)

		pdf.Line(x1, y1, x2, y2)
	}
}

func drawCentreMark(pdf *fpdf.Fpdf, c plateCanvas) {
	x, y := c.point(0, 0)
	pdf.SetDrawColor(150, 150, 150)
	pdf.SetLineWidth(0.2)
	pdf.Line(x-3, y, x+3, y)
	pdf.Line(x, y-3, x, y+3)
}

// drawFootprint fills the object's outline at its placed position.
func drawFootprint(pdf *fpdf.Fpdf, c plateCanvas, p model.Placement, col objectColor) {
	outline := p.Object.Outline.Translate(p.X, p.Y)
	if len(outline) < 3 {
		return
	}
	points := make([]fpdf.PointType, len(outline))
	for i, pt := range outline {
		x, y := c.point(pt.X, pt.Y)
		points[i] = fpdf.PointType{X: x, Y: y}
	}

	pdf.SetFillColor(col.R, col.G, col.B)
	pdf.SetDrawColor(30, 30, 30)
	pdf.SetLineWidth(0.3)
	pdf.Polygon(points, "FD")

	w := p.Object.Width() * c.scale
	h := p.Object.Depth() * c.scale
	if w > 15 && h > 8 {
		pdf.SetFont("Helvetica", "", labelFontSize(w, h))
		pdf.SetTextColor(0, 0, 0)
		label := p.Object.Label
		labelW := pdf.GetStringWidth(label)
		if labelW < w-2 {
			cx, cy := c.point(p.X, p.Y)
			pdf.SetXY(cx-labelW/2, cy-2)
			pdf.CellFormat(labelW, 4, label, "", 0, "C", false, 0, "")
		}
	}
}

// drawDimensionAnnotations adds width and depth labels outside the plate rectangle.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, c plateCanvas) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%.0f mm", c.plate.Width)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(c.offsetX+(c.width()-wLabelW)/2, c.offsetY+c.depth()+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	depthLabel := fmt.Sprintf("%.0f mm", c.plate.Depth)
	midY := c.offsetY + c.depth()/2
	pdf.TransformBegin()
	pdf.TransformRotate(90, c.offsetX-3, midY)
	dLabelW := pdf.GetStringWidth(depthLabel)
	pdf.SetXY(c.offsetX-3-dLabelW/2, midY-2)
	pdf.CellFormat(dLabelW, 4, depthLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawObjectsLegend renders a compact legend of placed objects below the plate.
func drawObjectsLegend(pdf *fpdf.Fpdf, placed []model.Placement, startY float64) {
	if len(placed) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Objects placed:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight

	for i, p := range placed {
		col := objectColors[i%len(objectColors)]
		label := fmt.Sprintf("%s (%.0f, %.0f)", p.Object.Label, p.X, p.Y)
		labelW := pdf.GetStringWidth(label) + 6

		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")

		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

// renderSummaryPage draws the summary page with statistics, the list of
// objects that need attention and the settings used.
func renderSummaryPage(pdf *fpdf.Fpdf, plate model.Plate, result model.ArrangeResult, settings model.ArrangeSettings) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Arrangement Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	summaryItems := []struct {
		label string
		value string
	}{
		{"Objects Placed", fmt.Sprintf("%d", len(result.Placed()))},
		{"Objects Not Fitting", fmt.Sprintf("%d", len(result.NotFit()))},
		{"Objects Not Converted", fmt.Sprintf("%d", len(result.Unconverted))},
		{"Plate Coverage", fmt.Sprintf("%.1f%%", result.Utilization(plate))},
	}
	y = drawKeyValues(pdf, summaryItems, y, 60, 10)

	if notFit := result.NotFit(); len(notFit) > 0 || len(result.Unconverted) > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNING: Objects Needing Attention", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, p := range notFit {
			pdf.SetXY(marginLeft+5, y)
			text := fmt.Sprintf("- %s: %.0f x %.0f mm, parked at (%.0f, %.0f)",
				p.Object.Label, p.Object.Width(), p.Object.Depth(), p.X, p.Y)
			pdf.CellFormat(200, 5, text, "", 0, "L", false, 0, "")
			y += 5
		}
		for _, o := range result.Unconverted {
			pdf.SetXY(marginLeft+5, y)
			text := fmt.Sprintf("- %s: footprint could not be converted", o.Label)
			pdf.CellFormat(200, 5, text, "", 0, "L", false, 0, "")
			y += 5
		}
	}

	y += 8
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Arrange Settings", "", 0, "L", false, 0, "")
	y += 9

	settingsItems := []struct {
		label string
		value string
	}{
		{"Margin", fmt.Sprintf("%.1f mm", settings.Margin)},
		{"Grid Resolution", fmt.Sprintf("%.2f cells/mm", settings.Scale)},
		{"Candidate Step", fmt.Sprintf("%d", settings.Step)},
		{"Clearance", string(settings.Clearance)},
		{"Algorithm", string(settings.Algorithm)},
		{"Disallowed Border", fmt.Sprintf("%.1f mm", plate.DisallowedMargin)},
	}
	drawKeyValues(pdf, settingsItems, y, 50, 9)

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by PlateNest - Build Plate Arranger", "", 0, "C", false, 0, "")
}

func drawKeyValues(pdf *fpdf.Fpdf, items []struct{ label, value string }, y, labelWidth, fontSize float64) float64 {
	pdf.SetFont("Helvetica", "", fontSize)
	for _, item := range items {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(labelWidth, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", fontSize)
		pdf.CellFormat(40, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", fontSize)
		y += 7
	}
	return y
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 8
	case minDim > 20:
		return 7
	default:
		return 6
	}
}

func plateName(plate model.Plate) string {
	if plate.Name == "" {
		return "Custom"
	}
	return plate.Name
}
