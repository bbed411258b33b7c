// Package validate normalizes raw per-run input fields into a Record,
// reporting every failed rule rather than stopping at the first.
package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hydrotools/antecedent/internal/models"
	"github.com/hydrotools/antecedent/internal/usa"
)

// Input carries the raw string fields as the user entered them.
type Input struct {
	Parameter   models.Parameter
	Latitude    string
	Longitude   string
	Year        string
	Month       string
	Day         string
	ImageName   string
	ImageSource string

	Scope      models.Scope
	CustomName string
	CustomFile string
}

// Validated is the normalized output of a successful validation.
type Validated struct {
	Record models.Record

	// BulkYears is 30 or 50 when the year field carried one of the reserved
	// bulk-generation sentinels, and 0 for a real observation year. When set,
	// Record's date fields are not meaningful.
	BulkYears int

	Scope      models.Scope
	CustomName string
	CustomFile string

	// Clamped is true when the requested date was more recent than the data
	// cutoff and was silently moved back.
	Clamped bool
}

// Validator applies the input rules in a fixed order. The clock is
// injectable so the
// two-day availability clamp is testable.
type Validator struct {
	clock clockwork.Clock
}

func New() *Validator {
	return &Validator{clock: clockwork.NewRealClock()}
}

func NewWithClock(clk clockwork.Clock) *Validator {
	return &Validator{clock: clk}
}

// Now exposes the validator's clock so callers deriving year spans stay
// consistent with the availability clamp.
func (v *Validator) Now() time.Time {
	return v.clock.Now()
}

// Validate checks every rule independently and returns the normalized result
// plus all messages produced along the way. A nil Validated means the input
// was rejected; messages then hold the reasons. On success messages may still
// hold advisory notices (e.g. the date clamp).
func (v *Validator) Validate(in Input) (*Validated, []string) {
	var messages []string
	valid := true
	fail := func(format string, args ...any) {
		messages = append(messages, fmt.Sprintf(format, args...))
		valid = false
	}

	// Stray spaces and line breaks show up when fields are pasted from
	// spreadsheets.
	latStr := scrub(in.Latitude)
	lonStr := scrub(in.Longitude)
	yearStr := scrub(in.Year)
	monthStr := scrub(in.Month)
	dayStr := scrub(in.Day)

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		fail("Latitude must be in decimal degree format!")
	}
	lon, err2 := strconv.ParseFloat(lonStr, 64)
	if err2 != nil {
		fail("Longitude must be in decimal degree format!")
	}
	if err == nil && err2 == nil && !usa.Contains(lat, lon) {
		fail("Coordinates must be within the United States!")
	}

	bulkYears := 0
	year, yerr := strconv.Atoi(yearStr)
	switch {
	case yerr != nil:
		fail("Year must be a number!")
	case year == 30 || year == 50:
		// Reserved bulk-generation sentinels, kept for compatibility with
		// existing batch sheets. Surfaced as an explicit mode instead of a
		// magic year downstream.
		bulkYears = year
	case year < 1900:
		fail("Year must be greater than 1900!")
	}

	month, merr := strconv.Atoi(monthStr)
	if merr != nil {
		fail("Month must be a number!")
	} else {
		if month > 12 {
			fail("Month cannot exceed 12!")
		}
		if month < 1 {
			fail("Month cannot be less than 1!")
		}
	}

	day, derr := strconv.Atoi(dayStr)
	if derr != nil {
		fail("Day must be a number!")
	} else {
		if day > 31 {
			fail("Day cannot exceed 31!")
		}
		if day < 1 {
			fail("Day cannot be less than 1!")
		}
	}

	customName := in.CustomName
	customFile := in.CustomFile
	if customFile != "" {
		if _, err := os.Stat(customFile); err != nil {
			fail("Supplied custom watershed file not found!")
		}
		if strings.EqualFold(filepath.Ext(customFile), ".shp") {
			prj := strings.TrimSuffix(customFile, filepath.Ext(customFile)) + ".prj"
			if _, err := os.Stat(prj); err != nil {
				fail("Supplied custom watershed file lacks required projection (.prj) file!")
			}
		}
		if customName == "" {
			base := filepath.Base(customFile)
			customName = strings.TrimSuffix(base, filepath.Ext(base))
		}
	} else if in.Scope == models.ScopeCustomPolygon {
		fail(`"Custom Polygon" selected but no shapefile provided!`)
	}

	// Watershed analysis is defined for precipitation only; snow records are
	// too sparse across sampling points to summarize.
	if in.Scope != models.ScopeSinglePoint && in.Parameter != models.ParamRain {
		fail(`Watershed scales other than "Single Point" are only available for the Rain parameter!`)
	}

	clamped := false
	if valid && bulkYears == 0 {
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		// time.Date normalizes overflow (June 31 -> July 1); a real calendar
		// date round-trips unchanged.
		if date.Year() != year || int(date.Month()) != month || date.Day() != day {
			fail("%d-%02d-%02d is not a real calendar date!", year, month, day)
		} else {
			// Daily data lags the present by about two days.
			cutoff := v.clock.Now().UTC().AddDate(0, 0, -2)
			cutoff = time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.UTC)
			if date.After(cutoff) {
				year, month, day = cutoff.Year(), int(cutoff.Month()), cutoff.Day()
				clamped = true
				messages = append(messages,
					"Date cannot exceed two days ago due to data availability",
					fmt.Sprintf("  Observation date updated to: %d-%02d-%02d", year, month, day))
			}
		}
	}

	if !valid {
		return nil, messages
	}

	out := &Validated{
		Record: models.Record{
			Parameter:   in.Parameter,
			Latitude:    lat,
			Longitude:   lon,
			Year:        year,
			Month:       month,
			Day:         day,
			ImageName:   in.ImageName,
			ImageSource: in.ImageSource,
		},
		BulkYears:  bulkYears,
		Scope:      in.Scope,
		CustomName: customName,
		CustomFile: customFile,
		Clamped:    clamped,
	}
	return out, messages
}

func scrub(s string) string {
	return strings.NewReplacer(" ", "", "\n", "", "\r", "").Replace(s)
}
