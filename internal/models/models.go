package models

import (
	"fmt"
	"strconv"
	"time"
)

// Parameter identifies which GHCN-Daily element a run analyzes.
type Parameter int

const (
	ParamRain Parameter = iota
	ParamSnow
	ParamSnowDepth
)

// Element returns the GHCN-Daily element code for the parameter.
func (p Parameter) Element() string {
	switch p {
	case ParamSnow:
		return "SNOW"
	case ParamSnowDepth:
		return "SNWD"
	default:
		return "PRCP"
	}
}

func (p Parameter) String() string {
	switch p {
	case ParamSnow:
		return "Snow"
	case ParamSnowDepth:
		return "Snow Depth"
	default:
		return "Rain"
	}
}

// FolderName returns the per-parameter output directory name.
func (p Parameter) FolderName() string {
	switch p {
	case ParamSnow:
		return "Snowfall"
	case ParamSnowDepth:
		return "Snow Depth"
	default:
		return "Rainfall"
	}
}

// ParseParameter maps user input ("rain", "snow", "snow-depth") to a Parameter.
func ParseParameter(s string) (Parameter, error) {
	switch s {
	case "rain", "Rain":
		return ParamRain, nil
	case "snow", "Snow":
		return ParamSnow, nil
	case "snow-depth", "snowdepth", "Snow Depth":
		return ParamSnowDepth, nil
	}
	return ParamRain, fmt.Errorf("unknown parameter %q (want rain, snow, or snow-depth)", s)
}

// Scope is the geographic granularity of an analysis.
type Scope string

const (
	ScopeSinglePoint   Scope = "Single Point"
	ScopeHUC8          Scope = "HUC8"
	ScopeHUC10         Scope = "HUC10"
	ScopeHUC12         Scope = "HUC12"
	ScopeCustomPolygon Scope = "Custom Polygon"
)

// ParseScope maps user input to a Scope.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "point", "single-point", "", string(ScopeSinglePoint):
		return ScopeSinglePoint, nil
	case "huc8", string(ScopeHUC8):
		return ScopeHUC8, nil
	case "huc10", string(ScopeHUC10):
		return ScopeHUC10, nil
	case "huc12", string(ScopeHUC12):
		return ScopeHUC12, nil
	case "custom", "custom-polygon", string(ScopeCustomPolygon):
		return ScopeCustomPolygon, nil
	}
	return ScopeSinglePoint, fmt.Errorf("unknown scope %q", s)
}

// Record is one per-run input: a point, a date, and an optional image
// attribution. The full tuple is the uniqueness key in the batch queues.
type Record struct {
	Parameter   Parameter
	Latitude    float64
	Longitude   float64
	Year        int
	Month       int
	Day         int
	ImageName   string
	ImageSource string
}

// Key returns the canonical tuple key used for duplicate detection.
func (r Record) Key() string {
	return fmt.Sprintf("%s|%s|%s|%d|%02d|%02d|%s|%s",
		r.Parameter.Element(), FormatCoord(r.Latitude), FormatCoord(r.Longitude),
		r.Year, r.Month, r.Day, r.ImageName, r.ImageSource)
}

// Date returns the observation date as YYYY-MM-DD with zero-padded fields.
func (r Record) Date() string {
	return fmt.Sprintf("%d-%02d-%02d", r.Year, r.Month, r.Day)
}

// Time returns the observation date at midnight UTC.
func (r Record) Time() time.Time {
	return time.Date(r.Year, time.Month(r.Month), r.Day, 0, 0, 0, 0, time.UTC)
}

// FormatCoord renders a coordinate the way it appears in output paths.
func FormatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Result is what the per-point processor returns for one Record.
type Result struct {
	PDFPath   string // empty if nothing was generated
	YMax      float64
	Condition string
	Score     float64
	Season    string
	PDSIValue float64
	PDSIClass string
}

// Station is one GHCN-Daily station from the inventory file.
type Station struct {
	StationID string
	Name      string
	Latitude  float64
	Longitude float64
	Elevation float64
	State     string
}

// DailyValue is a single day's reading for one element at one station.
// Value keeps GHCN native units (tenths of mm for PRCP, mm for SNOW/SNWD).
type DailyValue struct {
	StationID string
	Date      time.Time
	Element   string
	Value     int
}

// SamplingPoint is one randomly sampled coordinate inside a watershed.
type SamplingPoint struct {
	Latitude  float64
	Longitude float64
}
