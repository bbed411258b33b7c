package process

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/hydrotools/antecedent/internal/batch"
	"github.com/hydrotools/antecedent/internal/models"
)

type fakeStations struct {
	stations []models.Station
}

func (f *fakeStations) NearestStations(lat, lon float64, limit int) ([]models.Station, error) {
	return f.stations, nil
}

type fakeDaily struct {
	values map[string][]models.DailyValue
}

func (f *fakeDaily) EnsureDaily(ctx context.Context, stationID, element string, maxAge time.Duration) error {
	return nil
}

func (f *fakeDaily) DailyValues(stationID, element string, start, end time.Time) ([]models.DailyValue, error) {
	var out []models.DailyValue
	for _, v := range f.values[stationID] {
		if !v.Date.Before(start) && !v.Date.After(end) {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakePDSI struct{}

func (fakePDSI) Lookup(ctx context.Context, lat, lon float64, year, month int) (float64, string) {
	return -1.2, "Mild drought"
}

// genDaily fills every day in [from, to] with a constant PRCP value, except
// days on or after boost, which get boostValue.
func genDaily(stationID string, from, to, boost time.Time, value, boostValue int) []models.DailyValue {
	var out []models.DailyValue
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		v := value
		if !d.Before(boost) {
			v = boostValue
		}
		out = append(out, models.DailyValue{StationID: stationID, Date: d, Element: "PRCP", Value: v})
	}
	return out
}

func testRecord() models.Record {
	return models.Record{
		Parameter: models.ParamRain,
		Latitude:  38.5,
		Longitude: -121.5,
		Year:      2020, Month: 6, Day: 15,
	}
}

func newTestProcessor(daily *fakeDaily) *Processor {
	stations := &fakeStations{stations: []models.Station{
		{StationID: "USC00000001", Name: "TESTVILLE", Latitude: 38.5, Longitude: -121.5},
	}}
	return New(stations, daily, fakePDSI{})
}

func seriesBounds(obs time.Time) (time.Time, time.Time) {
	return obs.AddDate(-31, 0, 0), obs
}

func TestProcessScoresConditions(t *testing.T) {
	obs := time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)
	from, to := seriesBounds(obs)
	recent := obs.AddDate(0, 0, -119)

	tests := []struct {
		name        string
		recentValue int
		wantScore   float64
		wantCond    string
	}{
		{"wetter than normal", 200, 18, "Wetter than Normal"},
		{"normal", 100, 12, "Normal Conditions"},
		{"drier than normal", 0, 6, "Drier than Normal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			daily := &fakeDaily{values: map[string][]models.DailyValue{
				"USC00000001": genDaily("USC00000001", from, to, recent, 100, tt.recentValue),
			}}
			p := newTestProcessor(daily)

			res, err := p.Process(context.Background(), testRecord(), batch.ProcessOptions{SaveFolder: t.TempDir()})
			if err != nil {
				t.Fatalf("Process: %v", err)
			}
			if res.Score != tt.wantScore {
				t.Errorf("Score = %v, want %v", res.Score, tt.wantScore)
			}
			if res.Condition != tt.wantCond {
				t.Errorf("Condition = %q, want %q", res.Condition, tt.wantCond)
			}
			if res.PDSIClass != "Mild drought" {
				t.Errorf("PDSIClass = %q", res.PDSIClass)
			}
			if _, err := os.Stat(res.PDFPath); err != nil {
				t.Errorf("chart pdf not written: %v", err)
			}
			if res.YMax <= 0 {
				t.Errorf("YMax = %v, want > 0", res.YMax)
			}
		})
	}
}

func TestProcessFallsBackToCoveredStation(t *testing.T) {
	obs := time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)
	from, to := seriesBounds(obs)

	stations := &fakeStations{stations: []models.Station{
		{StationID: "USC00000009", Name: "EMPTY"},
		{StationID: "USC00000001", Name: "TESTVILLE"},
	}}
	daily := &fakeDaily{values: map[string][]models.DailyValue{
		"USC00000001": genDaily("USC00000001", from, to, to.AddDate(0, 0, 1), 100, 100),
	}}
	p := New(stations, daily, fakePDSI{})

	res, err := p.Process(context.Background(), testRecord(), batch.ProcessOptions{SaveFolder: t.TempDir()})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Score != 12 {
		t.Errorf("Score = %v, want 12", res.Score)
	}
}

func TestProcessErrorsWithoutData(t *testing.T) {
	stations := &fakeStations{stations: []models.Station{{StationID: "USC00000009", Name: "EMPTY"}}}
	p := New(stations, &fakeDaily{values: map[string][]models.DailyValue{}}, fakePDSI{})

	_, err := p.Process(context.Background(), testRecord(), batch.ProcessOptions{SaveFolder: t.TempDir()})
	if err == nil {
		t.Fatalf("want error when no station has data")
	}
}

func TestProcessFixedYMaxKeepsVariableMax(t *testing.T) {
	obs := time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)
	from, to := seriesBounds(obs)
	daily := &fakeDaily{values: map[string][]models.DailyValue{
		"USC00000001": genDaily("USC00000001", from, to, to.AddDate(0, 0, 1), 100, 100),
	}}
	p := newTestProcessor(daily)

	variable, err := p.Process(context.Background(), testRecord(), batch.ProcessOptions{SaveFolder: t.TempDir()})
	if err != nil {
		t.Fatalf("variable pass: %v", err)
	}
	fixed, err := p.Process(context.Background(), testRecord(), batch.ProcessOptions{
		SaveFolder: t.TempDir(),
		FixedYMax:  variable.YMax * 4,
	})
	if err != nil {
		t.Fatalf("fixed pass: %v", err)
	}
	if fixed.YMax != variable.YMax {
		t.Errorf("fixed pass YMax = %v, want variable max %v", fixed.YMax, variable.YMax)
	}
}

func TestSeasonFor(t *testing.T) {
	data := map[string]float64{}
	// Wet winter: November through April carry the precipitation.
	for m := 1; m <= 12; m++ {
		v := 0.01
		if m >= 11 || m <= 4 {
			v = 2.0
		}
		for d := 1; d <= 28; d++ {
			data[time.Date(2019, time.Month(m), d, 0, 0, 0, 0, time.UTC).Format("2006-01-02")] = v
		}
	}
	if got := seasonFor(data, 1); got != "Wet Season" {
		t.Errorf("January = %q, want Wet Season", got)
	}
	if got := seasonFor(data, 7); got != "Dry Season" {
		t.Errorf("July = %q, want Dry Season", got)
	}
}

func TestCoverage(t *testing.T) {
	start := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 9)
	data := map[string]float64{}
	for i := 0; i < 5; i++ {
		data[start.AddDate(0, 0, i).Format("2006-01-02")] = 1
	}
	if got := coverage(data, start, end); got != 0.5 {
		t.Errorf("coverage = %v, want 0.5", got)
	}
}

func TestToInchesUnits(t *testing.T) {
	d := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	vals := []models.DailyValue{{Date: d, Value: 254}}

	rain := toInches(vals, models.ParamRain)
	if rain["2020-06-01"] != 1.0 {
		t.Errorf("254 tenths of mm = %v in, want 1", rain["2020-06-01"])
	}
	snow := toInches(vals, models.ParamSnow)
	if snow["2020-06-01"] != 10.0 {
		t.Errorf("254 mm = %v in, want 10", snow["2020-06-01"])
	}
}
