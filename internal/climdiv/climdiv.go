// Package climdiv downloads and queries NOAA's monthly Palmer Drought
// Severity Index (PDSI) dataset, published per climate division in the
// climdiv-pdsidv file series.
package climdiv

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/jonboulle/clockwork"

	"github.com/hydrotools/antecedent/internal/httputil"
	"github.com/hydrotools/antecedent/internal/store"
)

const (
	DefaultBaseURL = "https://www1.ncdc.noaa.gov/pub/data/cirs/climdiv"

	// A healthy pdsidv file is at least this large; anything smaller is a
	// truncated download and gets deleted and re-fetched.
	minFileSize = 4415776

	// NotAvailable is the dataset's own missing-value marker.
	NotAvailable = -99.99
)

// DivisionResolver maps a coordinate to a 4-digit NOAA climate division code.
type DivisionResolver interface {
	Division(lat, lon float64) (string, error)
}

// Client manages the local pdsidv file and answers PDSI lookups.
type Client struct {
	dir      string
	baseURL  string
	http     *retryablehttp.Client
	store    *store.Store
	clock    clockwork.Clock
	resolver DivisionResolver

	filePath string // current pdsidv file, resolved once per session
}

func New(dir string, resolver DivisionResolver, st *store.Store) *Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = httputil.NewClient()
	rc.RetryMax = 4
	rc.Logger = nil
	return &Client{
		dir:      dir,
		baseURL:  DefaultBaseURL,
		http:     rc,
		store:    st,
		clock:    clockwork.NewRealClock(),
		resolver: resolver,
	}
}

// SetBaseURL overrides the NOAA endpoint (tests point this at a local server).
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// SetClock replaces the wall clock (tests).
func (c *Client) SetClock(clk clockwork.Clock) { c.clock = clk }

// Lookup returns the PDSI value and classification for a point and month.
// PDSI is advisory context on the report, so failures degrade to the
// "Not available" marker instead of aborting the run.
func (c *Client) Lookup(ctx context.Context, lat, lon float64, year, month int) (float64, string) {
	value, class, err := c.lookup(ctx, lat, lon, year, month)
	if err != nil {
		log.Printf("climdiv: PDSI not available: %v", err)
		return NotAvailable, "Not available"
	}
	return value, class
}

func (c *Client) lookup(ctx context.Context, lat, lon float64, year, month int) (float64, string, error) {
	division, err := c.resolver.Division(lat, lon)
	if err != nil {
		return 0, "", fmt.Errorf("resolve climate division: %w", err)
	}
	if len(division) < 4 {
		division = "0" + division
	}

	path, err := c.EnsureCurrentFile(ctx)
	if err != nil {
		return 0, "", err
	}

	monthly, err := c.readYear(path, division, year)
	if err != nil {
		return 0, "", err
	}
	if monthly == nil {
		return 0, "", fmt.Errorf("division %s year %d not present in %s", division, year, filepath.Base(path))
	}

	value := monthly[month-1]
	if value == NotAvailable {
		// Fall back to the previous month, annotating the class so the
		// report shows which month the value actually came from.
		prevYear, prevMonth := year, month-1
		var prev float64
		if prevMonth < 1 {
			prevYear, prevMonth = year-1, 12
			prevMonthly, err := c.readYear(path, division, prevYear)
			if err != nil || prevMonthly == nil {
				return NotAvailable, "Not available", nil
			}
			prev = prevMonthly[11]
		} else {
			prev = monthly[prevMonth-1]
		}
		if prev == NotAvailable {
			return NotAvailable, "Not available", nil
		}
		class := fmt.Sprintf("%s (%d-%02d)", Classify(prev), prevYear, prevMonth)
		return prev, class, nil
	}
	return value, Classify(value), nil
}

func (c *Client) readYear(path, division string, year int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadMonthly(f, division, year)
}

// ReadMonthly scans a pdsidv file for one division and year, returning the 12
// monthly values, or nil if the line is absent. Record layout: 4-digit
// division, 2-digit element (05 = PDSI), 4-digit year, then twelve 7-wide
// value fields.
func ReadMonthly(r io.Reader, division string, year int) ([]float64, error) {
	id := fmt.Sprintf("%s05%d", division, year)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, id) {
			continue
		}
		if len(line) < 11+7*12-1 {
			return nil, fmt.Errorf("pdsidv record for %s too short", id)
		}
		values := make([]float64, 12)
		for i := 0; i < 12; i++ {
			field := strings.TrimSpace(line[11+7*i : 17+7*i])
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("pdsidv record %s month %d: %q: %w", id, i+1, field, err)
			}
			values[i] = v
		}
		return values, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

// Classify maps a PDSI value onto NOAA's wetness/drought classes.
func Classify(v float64) string {
	switch {
	case v == NotAvailable:
		return "Not available"
	case v > 4:
		return "Extreme wetness"
	case v > 2.99:
		return "Severe wetness"
	case v > 1.99:
		return "Moderate wetness"
	case v > 0.99:
		return "Mild wetness"
	case v > 0.49:
		return "Incipient wetness"
	case v > -0.51:
		return "Normal"
	case v > -1.01:
		return "Incipient drought"
	case v > -2.01:
		return "Mild drought"
	case v > -3.01:
		return "Moderate drought"
	case v > -4.01:
		return "Severe drought"
	default:
		return "Extreme drought"
	}
}

// EnsureCurrentFile makes sure the newest pdsidv file is on disk and returns
// its path. The server publishes a new file on the 4th of each month; if this
// month's file is already local and passes the size test, the server is not
// contacted at all.
func (c *Client) EnsureCurrentFile(ctx context.Context) (string, error) {
	if c.filePath != "" {
		return c.filePath, nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure climdiv dir: %w", err)
	}

	thisMonth := c.clock.Now().Format("200601") + "04"
	name := pdsidvName(thisMonth)
	path := filepath.Join(c.dir, name)
	if fileHealthy(path) {
		c.filePath = path
		return path, nil
	}

	procDate, err := c.fetchProcDate(ctx)
	if err != nil {
		return "", err
	}
	name = pdsidvName(procDate)
	path = filepath.Join(c.dir, name)
	if !fileHealthy(path) {
		if err := c.download(ctx, name, path); err != nil {
			return "", err
		}
		if c.store != nil {
			if err := c.store.RecordClimdivFile(name, procDate, c.clock.Now()); err != nil {
				log.Printf("climdiv: record file: %v", err)
			}
		}
	}
	c.sweepStale(procDate)
	c.filePath = path
	return path, nil
}

func pdsidvName(procDate string) string {
	return "climdiv-pdsidv-v1.0.0-" + procDate
}

func fileHealthy(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.Size() < minFileSize {
		// Truncated download from an earlier run.
		os.Remove(path)
		return false
	}
	return true
}

func (c *Client) fetchProcDate(ctx context.Context) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", c.baseURL+"/procdate.txt", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch procdate: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", fmt.Errorf("read procdate: %w", err)
	}
	procDate := strings.TrimSpace(strings.SplitN(string(body), "\n", 2)[0])
	if procDate == "" {
		return "", fmt.Errorf("empty procdate response")
	}
	return procDate, nil
}

func (c *Client) download(ctx context.Context, name, path string) error {
	log.Printf("climdiv: downloading %s...", name)
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", c.baseURL+"/"+name, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("download %s: status %d", name, resp.StatusCode)
	}

	tmp := path + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// sweepStale removes pdsidv files from earlier months.
func (c *Client) sweepStale(procDate string) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if strings.Contains(name, "pdsidv") && !strings.Contains(name, procDate) {
			log.Printf("climdiv: deleting stale %s", name)
			os.Remove(filepath.Join(c.dir, name))
		}
	}
}
