package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/hydrotools/antecedent/internal/batch"
	"github.com/hydrotools/antecedent/internal/models"
	"github.com/hydrotools/antecedent/internal/validate"
	"github.com/hydrotools/antecedent/internal/watershed"
)

// runBatch samples the watershed if one is in scope, then flushes the
// parameter's queue through the assembler.
func (a *app) runBatch(ctx context.Context, v *validate.Validated, forecast, fixedScale bool) error {
	p := v.Record.Parameter
	if v.Scope != models.ScopeSinglePoint && p != models.ParamRain {
		return fmt.Errorf("watershed scales are only available for the rain parameter")
	}
	if !a.noaa.Reachable() {
		return errors.New(unreachableMsg)
	}
	if err := a.noaa.EnsureStations(ctx); err != nil {
		return fmt.Errorf("load station inventory: %w", err)
	}
	job := batch.Job{
		Parameter:       p,
		Scope:           v.Scope,
		Latitude:        v.Record.Latitude,
		Longitude:       v.Record.Longitude,
		ObservationDate: v.Record.Date(),
		CustomName:      v.CustomName,
		SaveFolder:      a.saveFolder,
		Forecast:        forecast,
		FixedScale:      fixedScale,
	}

	if v.Scope != models.ScopeSinglePoint {
		log.Printf("Identifying and sampling watershed (%s)...", v.Scope)
		var (
			sampled *watershed.Sampled
			err     error
		)
		if v.Scope == models.ScopeCustomPolygon {
			sampled, err = a.sampler.SampleShapefile(v.Record.Latitude, v.Record.Longitude, v.CustomFile)
		} else {
			sampled, err = a.sampler.Sample(ctx, v.Record.Latitude, v.Record.Longitude, v.Scope)
		}
		if err != nil {
			return fmt.Errorf("watershed sampling: %w", err)
		}
		recs := make([]models.Record, 0, len(sampled.Points))
		for _, pt := range sampled.Points {
			rec := v.Record
			rec.Latitude = pt.Latitude
			rec.Longitude = pt.Longitude
			recs = append(recs, rec)
		}
		a.queues.Replace(p, recs)
		job.HUC = sampled.HUC
		job.AreaSqMi = sampled.AreaSqMi
		job.SamplingPoints = sampled.Points
	}

	job.Records = a.queues.Records(p)
	outcome, err := a.assembler.Flush(ctx, job)
	if err != nil {
		return err
	}
	a.queues.Clear(p)

	if len(outcome.Skipped) > 0 {
		log.Printf("%d of %d records could not be processed:", len(outcome.Skipped), len(job.Records))
		for _, s := range outcome.Skipped {
			log.Printf("  %s (%s, %s): %v", s.Record.Date(),
				models.FormatCoord(s.Record.Latitude), models.FormatCoord(s.Record.Longitude), s.Err)
		}
	}
	log.Printf("Outputs written to %s", outcome.OutputFolder)
	return nil
}

// queueBulkYears fills the queue with one record per year. The 30-year span
// reproduces the fixed 2017-1985 gridded-data comparison range; the 50-year
// span walks back from the current year.
func (a *app) queueBulkYears(base validate.Input, span int) error {
	var years []int
	if span == 30 {
		for y := 2017; y >= 1985; y-- {
			years = append(years, y)
		}
	} else {
		current := a.validator.Now().Year()
		for i := 0; i < span; i++ {
			years = append(years, current-i)
		}
	}

	queued := 0
	for _, year := range years {
		in := base
		in.Year = strconv.Itoa(year)
		v, msgs := a.validator.Validate(in)
		for _, m := range msgs {
			log.Print(m)
		}
		if v == nil {
			return fmt.Errorf("could not queue year %d", year)
		}
		a.queues.Add(v.Record, false)
		queued++
	}
	log.Printf("Queued %d yearly records", queued)
	return nil
}
