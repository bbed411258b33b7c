package cli

import (
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"
)

// newYearsCmd is the first-class face of the bulk year spans that the year
// field sentinels (30 and 50) reach through calculate.
func newYearsCmd(a *app) *cobra.Command {
	var flags calculateFlags
	var span int
	cmd := &cobra.Command{
		Use:   "years",
		Short: "Generate one report per year over a multi-decade span",
		Long: `Queues one record per year at the given coordinates and flushes them as a
single batch. A 30-year span covers the fixed 2017-1985 comparison range;
a 50-year span walks back from the current year with the forecast window
and a fixed y-axis scale enabled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if span != 30 && span != 50 {
				return fmt.Errorf("--span must be 30 or 50")
			}
			forecast, fixedScale := flags.forecast, flags.fixedScale
			if span == 30 {
				flags.applyBulkDefaults("3", "Individual Station Data")
			} else {
				flags.applyBulkDefaults("1", "")
				forecast = true
				fixedScale = true
			}
			flags.year = strconv.Itoa(span)

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
			if err := a.queueBulkYears(in, span); err != nil {
				return err
			}
			return a.runBatch(cmd.Context(), v, forecast, fixedScale)
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&span, "span", 30, "number of years to cover (30 or 50)")
	return cmd
}
