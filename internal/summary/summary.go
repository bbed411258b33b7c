// Package summary aggregates per-point watershed results into the one-page
// overview that gets prepended to batch reports.
package summary

import (
	"math"
	"sort"
	"strings"
)

// Condition labels produced by the per-point processor.
const (
	ConditionWet    = "Wetter than Normal"
	ConditionNormal = "Normal Conditions"
	ConditionDry    = "Drier than Normal"
)

// PointResult is the per-sampling-point tuple the assembler collects.
type PointResult struct {
	Score     float64
	Condition string
	Season    string
	PDSIClass string
}

// ConditionShare is one slice of the condition breakdown chart.
type ConditionShare struct {
	Label    string
	Fraction float64
}

// TableRow is one unique result tuple with its occurrence count.
type TableRow struct {
	PointResult
	Count   int
	RedFlag bool
}

// Parsed is everything the summary page needs, derived from the raw results.
type Parsed struct {
	AverageScore  float64
	Determination string
	Shares        []ConditionShare
	Table         []TableRow
}

// redLabels mark a row for red shading. Matched as substrings because PDSI
// classes can carry a previous-month annotation like "Mild drought (2011-11)".
var redLabels = []string{
	"Dry Season",
	"Mild drought",
	"Moderate drought",
	"Severe drought",
	"Extreme drought",
}

// Parse reduces the per-point results to the preliminary determination, the
// condition shares, and the unique-tuple frequency table sorted by score
// descending. Returns nil for an empty result set.
func Parse(results []PointResult) *Parsed {
	if len(results) == 0 {
		return nil
	}

	var sum float64
	counts := map[string]int{}
	for _, r := range results {
		sum += r.Score
		counts[r.Condition]++
	}
	total := len(results)
	avg := round2(sum / float64(total))

	var determination string
	switch {
	case avg < 10:
		determination = ConditionDry
	case avg < 15:
		determination = ConditionNormal
	default:
		determination = ConditionWet
	}

	var shares []ConditionShare
	for _, label := range []string{ConditionWet, ConditionNormal, ConditionDry} {
		if n := counts[label]; n > 0 {
			shares = append(shares, ConditionShare{
				Label:    label,
				Fraction: round2(float64(n) / float64(total)),
			})
		}
	}

	unique := map[PointResult]int{}
	for _, r := range results {
		unique[r]++
	}
	table := make([]TableRow, 0, len(unique))
	for r, n := range unique {
		table = append(table, TableRow{PointResult: r, Count: n, RedFlag: isRed(r)})
	}
	sort.Slice(table, func(i, j int) bool {
		if table[i].Score != table[j].Score {
			return table[i].Score > table[j].Score
		}
		// Stable presentation for equal scores.
		if table[i].Condition != table[j].Condition {
			return table[i].Condition < table[j].Condition
		}
		if table[i].Season != table[j].Season {
			return table[i].Season < table[j].Season
		}
		return table[i].PDSIClass < table[j].PDSIClass
	})

	return &Parsed{
		AverageScore:  avg,
		Determination: determination,
		Shares:        shares,
		Table:         table,
	}
}

func isRed(r PointResult) bool {
	for _, label := range redLabels {
		if strings.Contains(r.Season, label) || strings.Contains(r.PDSIClass, label) ||
			strings.Contains(r.Condition, label) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
