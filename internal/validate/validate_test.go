package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/hydrotools/antecedent/internal/models"
)

func testValidator(t *testing.T) *Validator {
	t.Helper()
	// Fixed "now" well clear of any test date.
	return NewWithClock(clockwork.NewFakeClockAt(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)))
}

func validInput() Input {
	return Input{
		Parameter: models.ParamRain,
		Latitude:  "38.2776",
		Longitude: "-121.8242",
		Year:      "2020",
		Month:     "6",
		Day:       "15",
		Scope:     models.ScopeSinglePoint,
	}
}

func TestValidate_Success(t *testing.T) {
	v := testValidator(t)
	got, msgs := v.Validate(validInput())
	if got == nil {
		t.Fatalf("Validate rejected valid input: %v", msgs)
	}
	if len(msgs) != 0 {
		t.Errorf("messages = %v, want none", msgs)
	}
	if got.Record.Latitude != 38.2776 || got.Record.Longitude != -121.8242 {
		t.Errorf("coords = %v, %v", got.Record.Latitude, got.Record.Longitude)
	}
	if got.Record.Date() != "2020-06-15" {
		t.Errorf("Date() = %q, want 2020-06-15", got.Record.Date())
	}
	if got.BulkYears != 0 {
		t.Errorf("BulkYears = %d, want 0", got.BulkYears)
	}
}

func TestValidate_ScrubsPastedWhitespace(t *testing.T) {
	v := testValidator(t)
	in := validInput()
	in.Latitude = " 38.2776\n"
	in.Month = " 6 "
	got, msgs := v.Validate(in)
	if got == nil {
		t.Fatalf("Validate rejected input with pasted whitespace: %v", msgs)
	}
}

func TestValidate_AllFailuresReported(t *testing.T) {
	v := testValidator(t)
	in := Input{
		Parameter: models.ParamRain,
		Latitude:  "abc",
		Longitude: "xyz",
		Year:      "1850",
		Month:     "13",
		Day:       "32",
		Scope:     models.ScopeSinglePoint,
	}
	got, msgs := v.Validate(in)
	if got != nil {
		t.Fatal("Validate accepted invalid input")
	}
	// Each independent rule must report, not just the first.
	wants := []string{"Latitude", "Longitude", "Year", "Month", "Day"}
	for _, want := range wants {
		found := false
		for _, m := range msgs {
			if strings.Contains(m, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("no message mentioning %s in %v", want, msgs)
		}
	}
}

func TestValidate_OutsideUSA(t *testing.T) {
	v := testValidator(t)
	in := validInput()
	in.Latitude = "51.5"
	in.Longitude = "-0.12"
	got, msgs := v.Validate(in)
	if got != nil {
		t.Fatal("Validate accepted coordinates outside the US")
	}
	if len(msgs) == 0 || !strings.Contains(msgs[0], "United States") {
		t.Errorf("messages = %v", msgs)
	}
}

func TestValidate_BulkYearSentinels(t *testing.T) {
	for _, year := range []string{"30", "50"} {
		t.Run(year, func(t *testing.T) {
			v := testValidator(t)
			in := validInput()
			in.Year = year
			got, msgs := v.Validate(in)
			if got == nil {
				t.Fatalf("Validate rejected sentinel year %s: %v", year, msgs)
			}
			want := 30
			if year == "50" {
				want = 50
			}
			if got.BulkYears != want {
				t.Errorf("BulkYears = %d, want %d", got.BulkYears, want)
			}
		})
	}
}

func TestValidate_NotARealDate(t *testing.T) {
	v := testValidator(t)
	in := validInput()
	in.Month = "6"
	in.Day = "31"
	got, _ := v.Validate(in)
	if got != nil {
		t.Fatal("Validate accepted June 31")
	}

	// Feb 29 on a leap year is real.
	in.Year, in.Month, in.Day = "2020", "2", "29"
	got, msgs := v.Validate(in)
	if got == nil {
		t.Fatalf("Validate rejected 2020-02-29: %v", msgs)
	}

	// ...and not on a common year.
	in.Year = "2019"
	got, _ = v.Validate(in)
	if got != nil {
		t.Fatal("Validate accepted 2019-02-29")
	}
}

func TestValidate_ClampsRecentDates(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	v := NewWithClock(clockwork.NewFakeClockAt(now))

	in := validInput()
	in.Year, in.Month, in.Day = "2026", "8", "29"
	got, msgs := v.Validate(in)
	if got == nil {
		t.Fatalf("Validate rejected clampable date: %v", msgs)
	}
	if !got.Clamped {
		t.Error("Clamped = false, want true")
	}
	if got.Record.Date() != "2026-08-28" {
		t.Errorf("clamped date = %q, want 2026-08-28", got.Record.Date())
	}
	if len(msgs) == 0 {
		t.Error("expected a clamp notice message")
	}

	// Exactly at the cutoff is allowed unchanged.
	in.Day = "28"
	got, _ = v.Validate(in)
	if got == nil {
		t.Fatal("Validate rejected cutoff date")
	}
	if got.Clamped {
		t.Error("cutoff date should not be clamped")
	}
}

func TestValidate_CustomWatershedFile(t *testing.T) {
	v := testValidator(t)

	in := validInput()
	in.Scope = models.ScopeCustomPolygon
	got, msgs := v.Validate(in)
	if got != nil {
		t.Fatal("Validate accepted custom polygon scope with no file")
	}
	if len(msgs) == 0 {
		t.Error("expected a message about the missing shapefile")
	}

	// Missing file path.
	in.CustomFile = filepath.Join(t.TempDir(), "nope.shp")
	if got, _ := v.Validate(in); got != nil {
		t.Fatal("Validate accepted nonexistent shapefile")
	}

	// .shp without sibling .prj.
	dir := t.TempDir()
	shpPath := filepath.Join(dir, "basin.shp")
	if err := os.WriteFile(shpPath, []byte("stub"), 0o644); err != nil {
		t.Fatal(err)
	}
	in.CustomFile = shpPath
	if got, _ := v.Validate(in); got != nil {
		t.Fatal("Validate accepted .shp without .prj")
	}

	// Complete pair; name derived from the file stem.
	if err := os.WriteFile(filepath.Join(dir, "basin.prj"), []byte("stub"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, msgs = v.Validate(in)
	if got == nil {
		t.Fatalf("Validate rejected valid shapefile pair: %v", msgs)
	}
	if got.CustomName != "basin" {
		t.Errorf("CustomName = %q, want basin", got.CustomName)
	}
}

func TestValidate_WatershedRequiresRain(t *testing.T) {
	v := testValidator(t)

	for _, p := range []models.Parameter{models.ParamSnow, models.ParamSnowDepth} {
		in := validInput()
		in.Parameter = p
		in.Scope = models.ScopeHUC8
		got, msgs := v.Validate(in)
		if got != nil {
			t.Fatalf("Validate accepted %s at HUC8 scope", p)
		}
		want := `Watershed scales other than "Single Point" are only available for the Rain parameter!`
		found := false
		for _, m := range msgs {
			if m == want {
				found = true
			}
		}
		if !found {
			t.Errorf("messages %v missing %q", msgs, want)
		}
	}

	// Rain at watershed scope and snow at single-point scope both pass.
	in := validInput()
	in.Scope = models.ScopeHUC8
	if got, msgs := v.Validate(in); got == nil {
		t.Fatalf("Validate rejected rain at HUC8 scope: %v", msgs)
	}
	in = validInput()
	in.Parameter = models.ParamSnow
	if got, msgs := v.Validate(in); got == nil {
		t.Fatalf("Validate rejected snow at single-point scope: %v", msgs)
	}
}
