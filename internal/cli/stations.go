package cli

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
)

func newStationsCmd(a *app) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "stations",
		Short: "Inspect or refresh the cached GHCN-Daily station inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if refresh {
				if !a.noaa.Reachable() {
					return errors.New(unreachableMsg)
				}
				if err := a.noaa.RefreshStations(cmd.Context()); err != nil {
					return err
				}
			}
			count, err := a.store.CountStations()
			if err != nil {
				return err
			}
			log.Printf("%d stations in inventory", count)
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-download the station inventory")
	return cmd
}
