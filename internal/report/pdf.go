package report

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
)

// WriteChartPDF lays out one landscape page: the chart image on top, a
// two-column detail table underneath, and writes it to outPath.
func WriteChartPDF(img image.Image, rows [][2]string, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode chart: %w", err)
	}

	pdf := fpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("chart", opts, &buf)
	// Letter landscape is 279.4mm wide; keep the chart aspect ratio.
	const imgW = 255.0
	b := img.Bounds()
	imgH := imgW * float64(b.Dy()) / float64(b.Dx())
	pdf.ImageOptions("chart", 12, 14, imgW, imgH, false, opts, 0, "")
	pdf.SetY(16 + imgH)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(70, 5.5, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 5.5, row[1], "", 1, "L", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf %s: %w", outPath, err)
	}
	return nil
}
