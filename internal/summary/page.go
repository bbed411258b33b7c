package summary

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"github.com/hydrotools/antecedent/internal/models"
)

// PageInfo describes the watershed a summary page is for.
type PageInfo struct {
	Latitude        float64
	Longitude       float64
	ObservationDate string
	Scope           models.Scope
	HUC             string // HUC code, or the custom watershed name
	AreaSqMi        float64
}

type rgb struct{ r, g, b int }

var (
	shadeGreen = rgb{127, 204, 127}
	shadeBlue  = rgb{102, 127, 204}
	shadeRed   = rgb{204, 127, 127}
	shadeGrey  = rgb{217, 217, 217}
	shadeWhite = rgb{255, 255, 255}
)

func determinationShade(d string) rgb {
	switch d {
	case ConditionWet:
		return shadeBlue
	case ConditionDry:
		return shadeRed
	default:
		return shadeGreen
	}
}

// WritePage renders the watershed summary to outPath. Returns false with no
// file written when there are no results to summarize.
func WritePage(info PageInfo, results []PointResult, outPath string) (bool, error) {
	parsed := Parse(results)
	if parsed == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return false, fmt.Errorf("ensure output dir: %w", err)
	}

	pdf := fpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(14, 14, 14)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(0, 8, "Antecedent Precipitation - Watershed Sampling Summary", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s (%s) - %.1f sq mi - Observation Date %s",
		info.Scope, info.HUC, info.AreaSqMi, info.ObservationDate), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Site coordinates: %v, %v", info.Latitude, info.Longitude), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Preliminary determination banner.
	shade := determinationShade(parsed.Determination)
	pdf.SetFillColor(shade.r, shade.g, shade.b)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 9, fmt.Sprintf("Preliminary Determination: %s (average score %.2f)",
		parsed.Determination, parsed.AverageScore), "1", 1, "C", true, 0, "")
	pdf.Ln(4)

	// Condition shares as horizontal bars.
	pdf.SetFont("Helvetica", "", 10)
	const barScale = 180.0
	for _, share := range parsed.Shares {
		switch share.Label {
		case ConditionWet:
			pdf.SetFillColor(102, 179, 255)
		case ConditionNormal:
			pdf.SetFillColor(153, 255, 153)
		default:
			pdf.SetFillColor(255, 153, 153)
		}
		pdf.CellFormat(55, 6, share.Label, "", 0, "L", false, 0, "")
		pdf.CellFormat(barScale*share.Fraction, 6, fmt.Sprintf("%.0f%%", share.Fraction*100), "1", 1, "L", true, 0, "")
	}
	pdf.Ln(5)

	// Unique result tuples, most severe wetness first.
	headers := []string{
		"Antecedent Precipitation Score",
		"Antecedent Precipitation Condition",
		"Water Balance Season",
		"Drought Index (PDSI)",
		"# of Points",
	}
	widths := []float64{52, 62, 42, 62, 28}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(shadeGrey.r, shadeGrey.g, shadeGrey.b)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range parsed.Table {
		fill := shadeWhite
		if row.RedFlag {
			fill = shadeRed
		}
		pdf.SetFillColor(fill.r, fill.g, fill.b)
		cells := []string{
			fmt.Sprintf("%.1f", row.Score),
			row.Condition,
			row.Season,
			row.PDSIClass,
			fmt.Sprintf("%d", row.Count),
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 6.5, c, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return false, fmt.Errorf("write summary page: %w", err)
	}
	return true, nil
}
