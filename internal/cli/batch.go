package cli

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/hydrotools/antecedent/internal/models"
	"github.com/hydrotools/antecedent/internal/validate"
)

// newBatchCmd queues records from a user-supplied CSV and flushes them as one
// single-point batch. Columns: latitude, longitude, year, month, day, and
// optionally image name and image source. The first row is assumed to be a
// header and skipped.
func newBatchCmd(a *app) *cobra.Command {
	var (
		file       string
		parameter  string
		forecast   bool
		fixedScale bool
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate reports for every row of a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := models.ParseParameter(parameter)
			if err != nil {
				return err
			}
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open batch file: %w", err)
			}
			defer f.Close()

			r := csv.NewReader(f)
			r.FieldsPerRecord = -1
			rows, err := r.ReadAll()
			if err != nil {
				return fmt.Errorf("read batch file: %w", err)
			}
			if len(rows) < 2 {
				return fmt.Errorf("%s has no data rows", file)
			}

			var last *validate.Validated
			for i, row := range rows[1:] {
				if len(row) < 5 {
					return fmt.Errorf("row %d has %d fields, want at least 5", i+2, len(row))
				}
				in := validate.Input{
					Parameter: p,
					Latitude:  row[0],
					Longitude: row[1],
					Year:      row[2],
					Month:     row[3],
					Day:       row[4],
					Scope:     models.ScopeSinglePoint,
				}
				if len(row) > 5 {
					in.ImageName = row[5]
				}
				if len(row) > 6 {
					in.ImageSource = row[6]
				}
				v, msgs := a.validator.Validate(in)
				for _, m := range msgs {
					log.Print(m)
				}
				if v == nil {
					return fmt.Errorf("row %d is invalid", i+2)
				}
				if v.BulkYears != 0 {
					return fmt.Errorf("row %d: year spans are not supported in batch files", i+2)
				}
				a.queues.Add(v.Record, true)
				last = v
			}
			return a.runBatch(cmd.Context(), last, forecast, fixedScale)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "CSV file of records to process")
	cmd.Flags().StringVar(&parameter, "parameter", "rain", "rain, snow, or snow-depth")
	cmd.Flags().BoolVar(&forecast, "forecast", false, "extend charts past the observation date")
	cmd.Flags().BoolVar(&fixedScale, "fixed-scale", false, "also produce a fixed y-axis report set")
	cmd.MarkFlagRequired("file")
	return cmd
}
