package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/hydrotools/antecedent/internal/metrics"
	"github.com/hydrotools/antecedent/internal/models"
	"github.com/hydrotools/antecedent/internal/summary"
)

// Incremental merge thresholds. Merging thousands of single-page PDFs in one
// pass risks exhausting file handles, so once the pending list passes
// mergeThreshold and more than mergeRemaining records are still coming, the
// pending list collapses into a numbered partial file.
const (
	mergeThreshold = 365
	mergeRemaining = 25
)

// ProcessOptions carries the run-wide settings into a single point analysis.
type ProcessOptions struct {
	SaveFolder        string
	Forecast          bool
	WatershedAnalysis bool
	SamplingPoints    []models.SamplingPoint
	FixedYMax         float64 // 0 means variable scale
}

// Processor produces one report for one record.
type Processor interface {
	Process(ctx context.Context, rec models.Record, opts ProcessOptions) (*models.Result, error)
}

// Merger combines page PDFs into one document.
type Merger interface {
	Merge(inputs []string, out string) error
}

// SummaryWriter renders the watershed overview page.
type SummaryWriter interface {
	WritePage(info summary.PageInfo, results []summary.PointResult, outPath string) (bool, error)
}

// Opener hands a finished artifact to the OS shell.
type Opener interface {
	Open(path string)
}

// Job is one flush of a parameter's queue.
type Job struct {
	Parameter       models.Parameter
	Scope           models.Scope
	Records         []models.Record
	Latitude        float64
	Longitude       float64
	ObservationDate string
	HUC             string
	CustomName      string
	AreaSqMi        float64
	SamplingPoints  []models.SamplingPoint
	SaveFolder      string
	Forecast        bool
	FixedScale      bool
}

// SkippedRecord is a mid-batch failure that was surfaced instead of aborting
// the remaining records.
type SkippedRecord struct {
	Record models.Record
	Err    error
}

// Outcome reports what a flush produced.
type Outcome struct {
	OutputFolder string
	FinalPDF     string
	FixedPDF     string
	CSVPath      string
	Processed    int
	Skipped      []SkippedRecord
	HighestYMax  float64
}

// Assembler drives the batch pipeline: process each record, keep the CSV in
// lock step with the PDF list, merge incrementally, and open the results.
type Assembler struct {
	processor Processor
	merger    Merger
	summaries SummaryWriter
	opener    Opener
}

func NewAssembler(p Processor, m Merger, s SummaryWriter, o Opener) *Assembler {
	return &Assembler{processor: p, merger: m, summaries: s, opener: o}
}

// bundle holds the output paths for one job; naming depends on parameter and
// geographic scope.
type bundle struct {
	folder  string
	final   string
	fixed   string
	csvPath string
	summary string
}

func newBundle(job Job) bundle {
	lat := models.FormatCoord(job.Latitude)
	lon := models.FormatCoord(job.Longitude)
	param := job.Parameter.FolderName()

	if job.Scope == models.ScopeSinglePoint {
		dir := filepath.Join(job.SaveFolder, "Antecedent", param, fmt.Sprintf("%s, %s", lat, lon))
		stem := fmt.Sprintf("(%s, %s) Batch Result", lat, lon)
		return bundle{
			folder:  dir,
			final:   filepath.Join(dir, stem+".pdf"),
			fixed:   filepath.Join(dir, fmt.Sprintf("(%s, %s) Batch Result - Fixed.pdf", lat, lon)),
			csvPath: filepath.Join(dir, stem+".csv"),
		}
	}

	label := job.CustomName
	leaf := job.CustomName
	if job.Scope != models.ScopeCustomPolygon {
		label = "HUC " + job.HUC
		leaf = job.HUC
	}
	dir := filepath.Join(job.SaveFolder, "Antecedent", param, "~Watershed", string(job.Scope), leaf)
	stem := fmt.Sprintf("%s - %s - Batch Result", job.ObservationDate, label)
	return bundle{
		folder:  dir,
		final:   filepath.Join(dir, stem+".pdf"),
		fixed:   filepath.Join(dir, stem+" - Fixed Scale.pdf"),
		csvPath: filepath.Join(dir, stem+".csv"),
		summary: filepath.Join(dir, fmt.Sprintf("%s - %s - Summary Page.pdf", job.ObservationDate, label)),
	}
}

// csvHeader depends on scope: watershed sampling points have no user-supplied
// image attribution, so those columns are dropped.
func csvHeader(scope models.Scope) []string {
	if scope == models.ScopeSinglePoint {
		return []string{"Latitude", "Longitude", "Date", "Image Name", "Image Source",
			"PDSI Value", "PDSI Class", "Season", "ARC Score", "Antecedent Precip Condition"}
	}
	return []string{"Latitude", "Longitude", "Date",
		"PDSI Value", "PDSI Class", "Season", "ARC Score", "Antecedent Precip Condition"}
}

func csvRow(scope models.Scope, rec models.Record, res *models.Result) []string {
	row := []string{
		models.FormatCoord(rec.Latitude),
		models.FormatCoord(rec.Longitude),
		rec.Date(),
	}
	if scope == models.ScopeSinglePoint {
		row = append(row, rec.ImageName, rec.ImageSource)
	}
	return append(row,
		strconv.FormatFloat(res.PDSIValue, 'f', -1, 64),
		res.PDSIClass,
		res.Season,
		strconv.FormatFloat(res.Score, 'f', -1, 64),
		res.Condition,
	)
}

// Flush runs the whole pipeline for one job. Per-record failures are skipped
// and surfaced in the Outcome rather than aborting the remaining records.
func (a *Assembler) Flush(ctx context.Context, job Job) (*Outcome, error) {
	if len(job.Records) == 0 {
		return nil, fmt.Errorf("nothing queued for %s", job.Parameter)
	}
	b := newBundle(job)
	if err := os.MkdirAll(b.folder, 0o755); err != nil {
		return nil, fmt.Errorf("create output folder: %w", err)
	}

	csvFile, err := os.Create(b.csvPath)
	if err != nil {
		return nil, fmt.Errorf("create csv: %w", err)
	}
	w := csv.NewWriter(csvFile)
	w.UseCRLF = runtime.GOOS == "windows"
	if err := w.Write(csvHeader(job.Scope)); err != nil {
		csvFile.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	watershed := job.Scope != models.ScopeSinglePoint
	total := len(job.Records)
	out := &Outcome{OutputFolder: b.folder, CSVPath: b.csvPath}

	var (
		pending     []string
		parts       []string
		partCount   int
		pdfCount    int
		processed   []models.Record
		pointResult []summary.PointResult
	)

	for i, rec := range job.Records {
		if watershed {
			log.Printf("%s watershed analysis - sampling point %d of %d", job.Scope, i+1, total)
		} else {
			log.Printf("Single point batch analysis - date %d of %d", i+1, total)
		}
		res, err := a.processor.Process(ctx, rec, ProcessOptions{
			SaveFolder:        job.SaveFolder,
			Forecast:          job.Forecast,
			WatershedAnalysis: watershed,
			SamplingPoints:    job.SamplingPoints,
		})
		if err != nil {
			log.Printf("Skipping %s (%s, %s): %v", rec.Date(),
				models.FormatCoord(rec.Latitude), models.FormatCoord(rec.Longitude), err)
			out.Skipped = append(out.Skipped, SkippedRecord{Record: rec, Err: err})
			continue
		}
		if res.YMax > out.HighestYMax {
			out.HighestYMax = res.YMax
		}
		if res.PDFPath == "" {
			continue
		}
		processed = append(processed, rec)
		out.Processed++

		if total == 1 {
			// Single run: hand the page straight to the shell, no merge.
			a.opener.Open(res.PDFPath)
			continue
		}

		pending = append(pending, res.PDFPath)
		pdfCount++
		pending, partCount, parts, err = a.maybeMergePart(pending, b.final, total, pdfCount, partCount, parts)
		if err != nil {
			csvFile.Close()
			return out, err
		}
		if err := w.Write(csvRow(job.Scope, rec, res)); err != nil {
			csvFile.Close()
			return out, fmt.Errorf("write csv row: %w", err)
		}
		if watershed {
			pointResult = append(pointResult, summary.PointResult{
				Score:     res.Score,
				Condition: res.Condition,
				Season:    res.Season,
				PDSIClass: res.PDSIClass,
			})
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		csvFile.Close()
		return out, fmt.Errorf("flush csv: %w", err)
	}
	if err := csvFile.Close(); err != nil {
		return out, fmt.Errorf("close csv: %w", err)
	}

	if watershed && len(pointResult) > 0 {
		generated, err := a.summaries.WritePage(summary.PageInfo{
			Latitude:        job.Latitude,
			Longitude:       job.Longitude,
			ObservationDate: job.ObservationDate,
			Scope:           job.Scope,
			HUC:             watershedLabel(job),
			AreaSqMi:        job.AreaSqMi,
		}, pointResult, b.summary)
		if err != nil {
			log.Printf("Watershed summary page failed: %v", err)
		} else if generated {
			pending = append([]string{b.summary}, pending...)
			parts = append(parts, b.summary)
		}
	}

	if len(pending) > 0 {
		if err := a.merger.Merge(pending, b.final); err != nil {
			return out, fmt.Errorf("merge final pdf: %w", err)
		}
		metrics.PDFMergesTotal.WithLabelValues("final").Inc()
		out.FinalPDF = b.final
		log.Printf("Opening batch results CSV in new process...")
		a.opener.Open(b.csvPath)
		log.Printf("Opening final PDF in new process...")
		a.opener.Open(b.final)
		a.opener.Open(b.folder)

		if job.FixedScale && len(processed) > 0 {
			fixedParts, err := a.fixedPass(ctx, job, processed, b, out.HighestYMax)
			if err != nil {
				return out, err
			}
			parts = append(parts, fixedParts...)
			out.FixedPDF = b.fixed
		}
	}

	// Partial files only exist to bound the final merge; best-effort cleanup.
	if len(parts) > 0 {
		log.Printf("Attempting to delete temporary files...")
		for _, part := range parts {
			if err := os.Remove(part); err != nil {
				log.Printf("  could not remove %s: %v", part, err)
			}
		}
	}
	return out, nil
}

// fixedPass re-runs the successfully processed records with the y-axis pinned
// to the run's highest observed value, so every chart in the fixed bundle
// shares one scale. No CSV or summary page is regenerated.
func (a *Assembler) fixedPass(ctx context.Context, job Job, recs []models.Record, b bundle, yMax float64) ([]string, error) {
	var (
		pending   []string
		parts     []string
		partCount int
		pdfCount  int
	)
	total := len(recs)
	for _, rec := range recs {
		log.Printf("Re-running with fixed y-axis value: %s (%s, %s)", rec.Date(),
			models.FormatCoord(rec.Latitude), models.FormatCoord(rec.Longitude))
		res, err := a.processor.Process(ctx, rec, ProcessOptions{
			SaveFolder: job.SaveFolder,
			Forecast:   job.Forecast,
			FixedYMax:  yMax,
		})
		if err != nil {
			log.Printf("Skipping %s on fixed-scale pass: %v", rec.Date(), err)
			continue
		}
		if res.PDFPath == "" {
			continue
		}
		pending = append(pending, res.PDFPath)
		pdfCount++
		pending, partCount, parts, err = a.maybeMergePart(pending, b.fixed, total, pdfCount, partCount, parts)
		if err != nil {
			return parts, err
		}
	}
	if len(pending) == 0 {
		return parts, nil
	}
	if err := a.merger.Merge(pending, b.fixed); err != nil {
		return parts, fmt.Errorf("merge fixed pdf: %w", err)
	}
	metrics.PDFMergesTotal.WithLabelValues("final").Inc()
	log.Printf("Opening fixed-scale PDF in new process...")
	a.opener.Open(b.fixed)
	return parts, nil
}

// maybeMergePart collapses the pending list into "<final> - Part N.pdf" once
// it exceeds mergeThreshold with more than mergeRemaining records still to go.
func (a *Assembler) maybeMergePart(pending []string, finalPath string, total, pdfCount, partCount int, parts []string) ([]string, int, []string, error) {
	if len(pending) <= mergeThreshold || total-pdfCount <= mergeRemaining {
		return pending, partCount, parts, nil
	}
	partCount++
	partPath := fmt.Sprintf("%s - Part %d.pdf", finalPath[:len(finalPath)-len(".pdf")], partCount)
	log.Printf("Merging PDFs to temp file to avoid holding too many open at once...")
	if err := a.merger.Merge(pending, partPath); err != nil {
		return pending, partCount, parts, fmt.Errorf("merge partial pdf: %w", err)
	}
	metrics.PDFMergesTotal.WithLabelValues("partial").Inc()
	parts = append(parts, partPath)
	return []string{partPath}, partCount, parts, nil
}

func watershedLabel(job Job) string {
	if job.Scope == models.ScopeCustomPolygon {
		return job.CustomName
	}
	return job.HUC
}
