// Package cli wires the command tree: validation, queueing, watershed
// sampling, and the batch report pipeline.
package cli

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/hydrotools/antecedent/internal/batch"
	"github.com/hydrotools/antecedent/internal/climdiv"
	"github.com/hydrotools/antecedent/internal/metrics"
	"github.com/hydrotools/antecedent/internal/noaa"
	"github.com/hydrotools/antecedent/internal/opener"
	"github.com/hydrotools/antecedent/internal/process"
	"github.com/hydrotools/antecedent/internal/report"
	"github.com/hydrotools/antecedent/internal/store"
	"github.com/hydrotools/antecedent/internal/summary"
	"github.com/hydrotools/antecedent/internal/validate"
	"github.com/hydrotools/antecedent/internal/watershed"
)

// unreachableMsg is shown instead of starting any processing when the NOAA
// servers cannot be reached; reports generated from a cold cache would be
// silently incomplete.
const unreachableMsg = "NOAA servers could not be reached. Check your connection and try again."

type app struct {
	dbPath      string
	dataDir     string
	saveFolder  string
	divisions   string
	metricsAddr string

	db        *sql.DB
	store     *store.Store
	noaa      *noaa.Client
	climdiv   *climdiv.Client
	queues    *batch.Queues
	assembler *batch.Assembler
	validator *validate.Validator
	sampler   watershed.Sampler
}

// summaryPages adapts the summary package to the assembler's interface.
type summaryPages struct{}

func (summaryPages) WritePage(info summary.PageInfo, results []summary.PointResult, outPath string) (bool, error) {
	return summary.WritePage(info, results, outPath)
}

func (a *app) bootstrap(cmd *cobra.Command, args []string) error {
	// Optional; local overrides for data paths and service URLs.
	_ = godotenv.Load()

	if a.saveFolder == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		a.saveFolder = filepath.Join(home, "Desktop")
		log.Printf("Setting output folder to %s", a.saveFolder)
	}
	if err := os.MkdirAll(filepath.Dir(a.dbPath), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", a.dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	a.db = db

	a.store = store.New(db)
	if err := a.store.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	a.noaa = noaa.New(a.store)
	a.climdiv = climdiv.New(a.dataDir, climdiv.NewShapefileResolver(a.divisions), a.store)
	a.queues = batch.NewQueues()
	a.validator = validate.New()
	a.sampler = watershed.NewWBDSampler()

	processor := process.New(a.store, a.noaa, a.climdiv)
	a.assembler = batch.NewAssembler(processor, report.PDFCPUMerger{}, summaryPages{}, opener.New())

	if a.metricsAddr != "" {
		go func() {
			log.Printf("Serving metrics on %s", a.metricsAddr)
			if err := http.ListenAndServe(a.metricsAddr, metrics.Handler()); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
	}
	return nil
}

func (a *app) shutdown(cmd *cobra.Command, args []string) {
	if a.db != nil {
		a.db.Close()
	}
}

// Execute builds the command tree and runs it.
func Execute() {
	a := &app{}

	root := &cobra.Command{
		Use:   "antecedent",
		Short: "Antecedent precipitation reports from GHCN-Daily observations",
		Long: `Generates antecedent precipitation condition reports for points and
watersheds in the continental United States, using NOAA GHCN-Daily
observations and the Palmer Drought Severity Index.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.bootstrap,
		PersistentPostRun: a.shutdown,
	}

	root.PersistentFlags().StringVar(&a.dbPath, "db", filepath.Join("data", "antecedent.db"), "path to the SQLite cache database")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "data", "directory for downloaded climate division files")
	root.PersistentFlags().StringVar(&a.saveFolder, "save-folder", "", "output folder for reports (default: Desktop)")
	root.PersistentFlags().StringVar(&a.divisions, "divisions", filepath.Join("data", "climate_divisions.shp"), "climate division boundary shapefile")
	root.PersistentFlags().StringVar(&a.metricsAddr, "metrics-addr", "", "listen address for Prometheus metrics (disabled when empty)")

	root.AddCommand(newCalculateCmd(a))
	root.AddCommand(newBatchCmd(a))
	root.AddCommand(newYearsCmd(a))
	root.AddCommand(newStationsCmd(a))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
