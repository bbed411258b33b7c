// Package process runs the antecedent precipitation analysis for one point
// and one date: pick a station, build the rolling totals against the
// 30-year normal range, score the three antecedent windows, and render the
// one-page chart PDF.
package process

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gonum.org/v1/gonum/stat"

	"github.com/hydrotools/antecedent/internal/batch"
	"github.com/hydrotools/antecedent/internal/metrics"
	"github.com/hydrotools/antecedent/internal/models"
	"github.com/hydrotools/antecedent/internal/report"
)

const (
	windowDays   = 30 // one antecedent window
	windowCount  = 3  // windows preceding the observation date
	normalsYears = 30 // record length behind the percentile normal range
	chartDays    = 120
	forecastDays = 10

	stationCandidates = 15
	fetchMaxAge       = 7 * 24 * time.Hour

	// Acceptance thresholds on the fraction of days with observations in
	// the 90-day antecedent span.
	goodCoverage = 0.75
	minCoverage  = 0.5
)

// Condition labels, shared with the summary determination.
const (
	conditionDry    = "Drier than Normal"
	conditionNormal = "Normal Conditions"
	conditionWet    = "Wetter than Normal"
)

// StationSource supplies candidate stations near a point.
type StationSource interface {
	NearestStations(lat, lon float64, limit int) ([]models.Station, error)
}

// DailySource supplies daily observations, fetching them when stale.
type DailySource interface {
	EnsureDaily(ctx context.Context, stationID, element string, maxAge time.Duration) error
	DailyValues(stationID, element string, start, end time.Time) ([]models.DailyValue, error)
}

// PDSISource resolves the drought index for a point and month.
type PDSISource interface {
	Lookup(ctx context.Context, lat, lon float64, year, month int) (float64, string)
}

// Processor implements the per-record analysis for the batch assembler.
type Processor struct {
	stations StationSource
	daily    DailySource
	pdsi     PDSISource
}

func New(stations StationSource, daily DailySource, pdsi PDSISource) *Processor {
	return &Processor{stations: stations, daily: daily, pdsi: pdsi}
}

var _ batch.Processor = (*Processor)(nil)

// Process analyzes one record and writes its chart page. The returned YMax is
// always the variable-scale maximum, even when opts pins the drawn axis.
func (p *Processor) Process(ctx context.Context, rec models.Record, opts batch.ProcessOptions) (*models.Result, error) {
	timer := prometheus.NewTimer(metrics.RecordProcessingSeconds)
	defer timer.ObserveDuration()

	res, err := p.process(ctx, rec, opts)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordsProcessed.WithLabelValues(rec.Parameter.String(), outcome).Inc()
	return res, err
}

func (p *Processor) process(ctx context.Context, rec models.Record, opts batch.ProcessOptions) (*models.Result, error) {
	obs := rec.Time()
	historyStart := obs.AddDate(-normalsYears, 0, -chartDays)

	station, data, err := p.selectStation(ctx, rec, historyStart, obs)
	if err != nil {
		return nil, err
	}
	log.Printf("Using station %s (%s) for %s, %s", station.StationID, station.Name,
		models.FormatCoord(rec.Latitude), models.FormatCoord(rec.Longitude))

	// Score the three antecedent windows against the 30-year normal range.
	weights := []float64{3, 2, 1}
	score := 0.0
	for k := 0; k < windowCount; k++ {
		end := obs.AddDate(0, 0, -windowDays*k)
		total := windowTotal(data, end)
		low, high := normalRange(data, end)
		points := 2.0
		switch {
		case total < low:
			points = 1
		case total > high:
			points = 3
		}
		score += weights[k] * points
	}

	var condition string
	switch {
	case score < 10:
		condition = conditionDry
	case score < 15:
		condition = conditionNormal
	default:
		condition = conditionWet
	}

	season := seasonFor(data, rec.Month)
	pdsiValue, pdsiClass := p.pdsi.Lookup(ctx, rec.Latitude, rec.Longitude, rec.Year, rec.Month)

	chart := p.buildChart(rec, station, data, obs, opts)
	yMax := chart.MaxValue()
	if opts.FixedYMax > 0 {
		chart.YMax = opts.FixedYMax
	}

	pdfPath := runPDFPath(rec, opts.SaveFolder)
	rows := [][2]string{
		{"Coordinates", fmt.Sprintf("%s, %s", models.FormatCoord(rec.Latitude), models.FormatCoord(rec.Longitude))},
		{"Observation Date", rec.Date()},
		{"Weather Station", fmt.Sprintf("%s - %s", station.StationID, station.Name)},
		{"Station Location", fmt.Sprintf("%s, %s (elev %.1f m)",
			models.FormatCoord(station.Latitude), models.FormatCoord(station.Longitude), station.Elevation)},
		{"ARC Score", strconv.FormatFloat(score, 'f', -1, 64)},
		{"Antecedent Precip Condition", condition},
		{"Water Balance Season", season},
		{"Drought Index (PDSI)", fmt.Sprintf("%s - %s", strconv.FormatFloat(pdsiValue, 'f', -1, 64), pdsiClass)},
	}
	if rec.ImageName != "" {
		rows = append(rows, [2]string{"Image", fmt.Sprintf("%s (%s)", rec.ImageName, rec.ImageSource)})
	}

	img := report.RenderChart(chart)
	if err := report.WriteChartPDF(img, rows, pdfPath); err != nil {
		return nil, fmt.Errorf("write chart pdf: %w", err)
	}

	return &models.Result{
		PDFPath:   pdfPath,
		YMax:      yMax,
		Condition: condition,
		Score:     score,
		Season:    season,
		PDSIValue: pdsiValue,
		PDSIClass: pdsiClass,
	}, nil
}

// selectStation walks the nearest inventory stations and takes the first one
// whose 90-day antecedent span is well observed, falling back to the best
// partial candidate above the floor.
func (p *Processor) selectStation(ctx context.Context, rec models.Record, start, end time.Time) (models.Station, map[string]float64, error) {
	element := rec.Parameter.Element()
	candidates, err := p.stations.NearestStations(rec.Latitude, rec.Longitude, stationCandidates)
	if err != nil {
		return models.Station{}, nil, fmt.Errorf("station lookup: %w", err)
	}
	if len(candidates) == 0 {
		return models.Station{}, nil, fmt.Errorf("no stations in inventory near %s, %s",
			models.FormatCoord(rec.Latitude), models.FormatCoord(rec.Longitude))
	}

	recentStart := end.AddDate(0, 0, -(windowDays*windowCount - 1))
	var (
		best     models.Station
		bestData map[string]float64
		bestCov  float64
	)
	for _, st := range candidates {
		if err := p.daily.EnsureDaily(ctx, st.StationID, element, fetchMaxAge); err != nil {
			log.Printf("Station %s unavailable: %v", st.StationID, err)
			continue
		}
		values, err := p.daily.DailyValues(st.StationID, element, start, end)
		if err != nil {
			return models.Station{}, nil, fmt.Errorf("read daily values: %w", err)
		}
		data := toInches(values, rec.Parameter)
		cov := coverage(data, recentStart, end)
		if cov >= goodCoverage {
			return st, data, nil
		}
		if cov > bestCov {
			best, bestData, bestCov = st, data, cov
		}
	}
	if bestCov >= minCoverage {
		log.Printf("Settling for station %s with %.0f%% antecedent coverage", best.StationID, bestCov*100)
		return best, bestData, nil
	}
	return models.Station{}, nil, fmt.Errorf("no nearby station has usable %s data for %s", element, rec.Date())
}

func (p *Processor) buildChart(rec models.Record, station models.Station, data map[string]float64, obs time.Time, opts batch.ProcessOptions) report.ChartData {
	end := obs
	if opts.Forecast {
		end = obs.AddDate(0, 0, forecastDays)
	}
	start := obs.AddDate(0, 0, -(chartDays - 1))

	var chart report.ChartData
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		chart.Dates = append(chart.Dates, d)
		chart.Daily = append(chart.Daily, data[dayKey(d)])
		chart.Rolling = append(chart.Rolling, windowTotal(data, d))
		low, high := normalRange(data, d)
		chart.NormalLow = append(chart.NormalLow, low)
		chart.NormalHigh = append(chart.NormalHigh, high)
	}
	chart.Title = fmt.Sprintf("Antecedent %s - %s, %s", rec.Parameter,
		models.FormatCoord(rec.Latitude), models.FormatCoord(rec.Longitude))
	chart.Subtitle = fmt.Sprintf("Station %s (%s) - Observation Date %s", station.StationID, station.Name, rec.Date())
	chart.YLabel = "inches"
	chart.ObservationDate = obs
	return chart
}

// windowTotal sums the 30 days ending at end. Missing days count as zero.
func windowTotal(data map[string]float64, end time.Time) float64 {
	total := 0.0
	for i := 0; i < windowDays; i++ {
		total += data[dayKey(end.AddDate(0, 0, -i))]
	}
	return total
}

// normalRange returns the 30th and 70th percentiles of the 30-day totals
// ending on the same calendar day over the preceding record.
func normalRange(data map[string]float64, end time.Time) (low, high float64) {
	totals := make([]float64, 0, normalsYears)
	for y := 1; y <= normalsYears; y++ {
		totals = append(totals, windowTotal(data, end.AddDate(-y, 0, 0)))
	}
	sort.Float64s(totals)
	low = stat.Quantile(0.30, stat.Empirical, totals, nil)
	high = stat.Quantile(0.70, stat.Empirical, totals, nil)
	return low, high
}

// seasonFor classifies the observation month as wet or dry season by whether
// it falls in the six wettest calendar months of the station record.
func seasonFor(data map[string]float64, month int) string {
	sums := make([]float64, 13)
	for key, v := range data {
		t, err := time.Parse("2006-01-02", key)
		if err != nil {
			continue
		}
		sums[int(t.Month())] += v
	}
	months := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	sort.Slice(months, func(i, j int) bool { return sums[months[i]] > sums[months[j]] })
	for _, m := range months[:6] {
		if m == month {
			return "Wet Season"
		}
	}
	return "Dry Season"
}

// coverage is the fraction of days in [start, end] with an observation.
func coverage(data map[string]float64, start, end time.Time) float64 {
	days, present := 0, 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days++
		if _, ok := data[dayKey(d)]; ok {
			present++
		}
	}
	if days == 0 {
		return 0
	}
	return float64(present) / float64(days)
}

// toInches indexes daily values by date, converting from GHCN native units.
// PRCP comes in tenths of a millimeter, SNOW and SNWD in millimeters.
func toInches(values []models.DailyValue, p models.Parameter) map[string]float64 {
	divisor := 25.4
	if p == models.ParamRain {
		divisor = 254.0
	}
	data := make(map[string]float64, len(values))
	for _, v := range values {
		data[dayKey(v.Date)] = float64(v.Value) / divisor
	}
	return data
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func runPDFPath(rec models.Record, saveFolder string) string {
	return filepath.Join(saveFolder, "Antecedent", rec.Parameter.FolderName(),
		fmt.Sprintf("%s, %s", models.FormatCoord(rec.Latitude), models.FormatCoord(rec.Longitude)),
		fmt.Sprintf("%s - %s.pdf", rec.Date(), rec.Parameter))
}
