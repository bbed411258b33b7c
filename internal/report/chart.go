package report

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ChartData is one point's antecedent precipitation series ready to plot.
// All value slices are aligned with Dates.
type ChartData struct {
	Title    string
	Subtitle string
	YLabel   string

	Dates   []time.Time
	Daily   []float64 // observed daily values
	Rolling []float64 // 30-day rolling totals

	NormalLow  []float64 // 30th percentile of the 30-year record
	NormalHigh []float64 // 70th percentile of the 30-year record

	ObservationDate time.Time

	// YMax fixes the vertical scale; zero means autoscale.
	YMax float64
}

const (
	chartWidth   = 1100
	chartHeight  = 550
	marginLeft   = 70
	marginRight  = 25
	marginTop    = 60
	marginBottom = 50
)

var (
	colorBackground = color.RGBA{255, 255, 255, 255}
	colorAxis       = color.RGBA{40, 40, 40, 255}
	colorGrid       = color.RGBA{225, 225, 225, 255}
	colorDaily      = color.RGBA{70, 130, 180, 255}
	colorRolling    = color.RGBA{178, 34, 34, 255}
	colorNormal     = color.RGBA{160, 200, 160, 255}
	colorMarker     = color.RGBA{20, 20, 20, 255}
	colorText       = color.RGBA{20, 20, 20, 255}
)

// MaxValue returns the largest value the chart will draw, which the processor
// reports upstream as the run's y-max.
func (d ChartData) MaxValue() float64 {
	max := 0.0
	for _, s := range [][]float64{d.Daily, d.Rolling, d.NormalHigh} {
		for _, v := range s {
			if v > max {
				max = v
			}
		}
	}
	return max
}

// RenderChart draws the antecedent precipitation figure as a raster image.
func RenderChart(d ChartData) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, chartWidth, chartHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{colorBackground}, image.Point{}, draw.Src)

	yMax := d.YMax
	if yMax <= 0 {
		yMax = d.MaxValue() * 1.1
	}
	if yMax <= 0 {
		yMax = 1
	}

	plotW := chartWidth - marginLeft - marginRight
	plotH := chartHeight - marginTop - marginBottom
	n := len(d.Dates)

	toX := func(i int) int {
		if n <= 1 {
			return marginLeft
		}
		return marginLeft + i*plotW/(n-1)
	}
	toY := func(v float64) int {
		frac := v / yMax
		if frac > 1 {
			frac = 1
		}
		if frac < 0 {
			frac = 0
		}
		return marginTop + plotH - int(frac*float64(plotH))
	}

	// Horizontal gridlines and y tick labels.
	for tick := 0; tick <= 5; tick++ {
		v := yMax * float64(tick) / 5
		y := toY(v)
		hline(img, marginLeft, chartWidth-marginRight, y, colorGrid)
		drawLabel(img, 8, y+4, fmt.Sprintf("%5.2f", v))
	}

	// Normal range band between the 30th and 70th percentile curves.
	for i := 0; i < n; i++ {
		if i >= len(d.NormalLow) || i >= len(d.NormalHigh) {
			break
		}
		x := toX(i)
		vline(img, x, toY(d.NormalHigh[i]), toY(d.NormalLow[i]), colorNormal)
	}

	// Daily observations as bars.
	for i := 0; i < n && i < len(d.Daily); i++ {
		if d.Daily[i] <= 0 {
			continue
		}
		x := toX(i)
		vline(img, x, toY(d.Daily[i]), toY(0), colorDaily)
	}

	// Rolling totals as a polyline.
	prevSet := false
	var prevX, prevY int
	for i := 0; i < n && i < len(d.Rolling); i++ {
		x, y := toX(i), toY(d.Rolling[i])
		if prevSet {
			line(img, prevX, prevY, x, y, colorRolling)
		}
		prevX, prevY, prevSet = x, y, true
	}

	// Observation date marker.
	for i, date := range d.Dates {
		if sameDay(date, d.ObservationDate) {
			x := toX(i)
			vline(img, x, marginTop, marginTop+plotH, colorMarker)
			break
		}
	}

	// Axes on top of everything else.
	hline(img, marginLeft, chartWidth-marginRight, marginTop+plotH, colorAxis)
	vline(img, marginLeft, marginTop, marginTop+plotH, colorAxis)

	drawLabel(img, marginLeft, 22, d.Title)
	drawLabel(img, marginLeft, 40, d.Subtitle)
	drawLabel(img, 8, marginTop-8, d.YLabel)

	// X tick labels: first, observation, last.
	if n > 0 {
		drawLabel(img, marginLeft, chartHeight-20, d.Dates[0].Format("2006-01-02"))
		last := d.Dates[n-1].Format("2006-01-02")
		drawLabel(img, chartWidth-marginRight-7*len(last), chartHeight-20, last)
	}

	return img
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func hline(img *image.RGBA, x0, x1, y int, c color.Color) {
	for x := x0; x <= x1; x++ {
		img.Set(x, y, c)
	}
}

func vline(img *image.RGBA, x, y0, y1 int, c color.Color) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		img.Set(x, y, c)
	}
}

// line draws with integer Bresenham; charts only need short segments.
func line(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func drawLabel(img *image.RGBA, x, y int, text string) {
	d := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{colorText},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
