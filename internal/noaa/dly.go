package noaa

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hydrotools/antecedent/internal/models"
)

// GHCN-Daily .dly layout: 11-char station ID, 4-char year, 2-char month,
// 4-char element, then 31 day slots of VALUE(5) MFLAG(1) QFLAG(1) SFLAG(1).
// ftp.ncei.noaa.gov/pub/data/ghcn/daily/readme.txt
const (
	dlyHeaderLen = 21
	dlyDaySlot   = 8
	dlyMinLen    = dlyHeaderLen + 31*dlyDaySlot

	missingValue = -9999
)

// ParseDly reads a station .dly file and returns the values for one element.
// Missing days (-9999) and days carrying a quality flag are dropped.
func ParseDly(r io.Reader, element string) ([]models.DailyValue, error) {
	var values []models.DailyValue
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 512), 4096)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if len(line) < dlyMinLen {
			if strings.TrimSpace(line) == "" {
				continue
			}
			return nil, fmt.Errorf("dly line %d: short line (%d bytes)", lineNo, len(line))
		}
		if line[17:21] != element {
			continue
		}
		stationID := line[0:11]
		year, err := strconv.Atoi(line[11:15])
		if err != nil {
			return nil, fmt.Errorf("dly line %d: year: %w", lineNo, err)
		}
		month, err := strconv.Atoi(line[15:17])
		if err != nil {
			return nil, fmt.Errorf("dly line %d: month: %w", lineNo, err)
		}
		days := daysInMonth(year, month)
		for day := 1; day <= days; day++ {
			slot := dlyHeaderLen + (day-1)*dlyDaySlot
			raw := strings.TrimSpace(line[slot : slot+5])
			value, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("dly line %d day %d: value %q: %w", lineNo, day, raw, err)
			}
			if value == missingValue {
				continue
			}
			if qflag := line[slot+6]; qflag != ' ' {
				continue
			}
			values = append(values, models.DailyValue{
				StationID: stationID,
				Date:      time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC),
				Element:   element,
				Value:     value,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan dly: %w", err)
	}
	return values, nil
}

func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
