package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/hydrotools/antecedent/internal/models"
	"github.com/hydrotools/antecedent/internal/validate"
)

type calculateFlags struct {
	parameter   string
	latitude    string
	longitude   string
	year        string
	month       string
	day         string
	imageName   string
	imageSource string
	scope       string
	customName  string
	customFile  string
	forecast    bool
	fixedScale  bool
}

func (f *calculateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.parameter, "parameter", "rain", "rain, snow, or snow-depth")
	cmd.Flags().StringVar(&f.latitude, "lat", "", "latitude in decimal degrees")
	cmd.Flags().StringVar(&f.longitude, "lon", "", "longitude in decimal degrees")
	cmd.Flags().StringVar(&f.year, "year", "", "observation year")
	cmd.Flags().StringVar(&f.month, "month", "", "observation month")
	cmd.Flags().StringVar(&f.day, "day", "", "observation day")
	cmd.Flags().StringVar(&f.imageName, "image-name", "", "aerial image name for the report")
	cmd.Flags().StringVar(&f.imageSource, "image-source", "", "aerial image source for the report")
	cmd.Flags().StringVar(&f.scope, "scope", "single-point", "single-point, huc8, huc10, huc12, or custom-polygon")
	cmd.Flags().StringVar(&f.customName, "custom-name", "", "name for a custom watershed")
	cmd.Flags().StringVar(&f.customFile, "custom-file", "", "custom watershed shapefile")
	cmd.Flags().BoolVar(&f.forecast, "forecast", false, "extend the chart past the observation date")
	cmd.Flags().BoolVar(&f.fixedScale, "fixed-scale", false, "also produce a fixed y-axis report set")
}

func (f *calculateFlags) input() (validate.Input, error) {
	p, err := models.ParseParameter(f.parameter)
	if err != nil {
		return validate.Input{}, err
	}
	scope, err := models.ParseScope(f.scope)
	if err != nil {
		return validate.Input{}, err
	}
	return validate.Input{
		Parameter:   p,
		Latitude:    f.latitude,
		Longitude:   f.longitude,
		Year:        f.year,
		Month:       f.month,
		Day:         f.day,
		ImageName:   f.imageName,
		ImageSource: f.imageSource,
		Scope:       scope,
		CustomName:  f.customName,
		CustomFile:  f.customFile,
	}, nil
}

func newCalculateCmd(a *app) *cobra.Command {
	var flags calculateFlags
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Generate an antecedent precipitation report for a point or watershed",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The reserved bulk years take the legacy field defaults before
			// validation, matching the established batch-sheet behavior.
			forecast, fixedScale := flags.forecast, flags.fixedScale
			switch flags.year {
			case "30":
				flags.applyBulkDefaults("3", "Individual Station Data")
			case "50":
				flags.applyBulkDefaults("1", "")
				forecast = true
				fixedScale = true
			}

			in, err := flags.input()
			if err != nil {
				return err
			}
			v, msgs := a.validator.Validate(in)
			for _, m := range msgs {
				log.Print(m)
			}
			if v == nil {
				return fmt.Errorf("invalid input")
			}

			if v.BulkYears != 0 {
				if err := a.queueBulkYears(in, v.BulkYears); err != nil {
					return err
				}
			} else {
				a.queues.Add(v.Record, false)
			}
			return a.runBatch(cmd.Context(), v, forecast, fixedScale)
		},
	}
	flags.register(cmd)
	return cmd
}

func (f *calculateFlags) applyBulkDefaults(month, imageLabel string) {
	if f.month == "" {
		f.month = month
	}
	if f.day == "" {
		f.day = "15"
	}
	if imageLabel != "" {
		if f.imageName == "" {
			f.imageName = imageLabel
		}
		if f.imageSource == "" {
			f.imageSource = imageLabel
		}
	}
}
