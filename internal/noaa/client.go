package noaa

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hydrotools/antecedent/internal/httputil"
	"github.com/hydrotools/antecedent/internal/metrics"
	"github.com/hydrotools/antecedent/internal/models"
	"github.com/hydrotools/antecedent/internal/store"
)

const (
	DefaultBaseURL = "https://www1.ncdc.noaa.gov/pub/data/ghcn/daily"
	DefaultFTPHost = "ftp.ncei.noaa.gov:21"

	// How long a cached station series stays fresh before re-download.
	DefaultMaxAge = 24 * time.Hour
)

// Client downloads GHCN-Daily data and caches it through the store.
type Client struct {
	store   *store.Store
	http    *http.Client
	baseURL string
	ftpHost string

	// Reachability is probed once and cached for the session; a failed batch
	// does not silently re-probe. InvalidateReachability forces a re-check.
	mu        sync.Mutex
	reachable *bool
}

func New(st *store.Store) *Client {
	return &Client{
		store:   st,
		http:    httputil.NewClient(),
		baseURL: DefaultBaseURL,
		ftpHost: DefaultFTPHost,
	}
}

// SetBaseURL overrides the GHCN endpoint (tests point this at a local server).
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// Reachable reports whether the NOAA server answered the session probe. The
// result is cached for the lifetime of the client.
func (c *Client) Reachable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reachable != nil {
		return *c.reachable
	}
	log.Printf("noaa: testing server at %s", c.baseURL)
	ok := false
	resp, err := c.http.Get(c.baseURL + "/readme.txt")
	if err == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		ok = resp.StatusCode < 300
	}
	if ok {
		log.Printf("noaa: server online")
	} else {
		log.Printf("noaa: server OFFLINE (%v)", err)
	}
	c.reachable = &ok
	return ok
}

// InvalidateReachability clears the cached probe so the next Reachable call
// hits the server again.
func (c *Client) InvalidateReachability() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reachable = nil
}

// EnsureStations loads the GHCN station inventory into the store if it is not
// already present.
func (c *Client) EnsureStations(ctx context.Context) error {
	n, err := c.store.CountStations()
	if err != nil {
		return fmt.Errorf("count stations: %w", err)
	}
	if n > 0 {
		return nil
	}
	return c.RefreshStations(ctx)
}

// RefreshStations downloads and re-loads the full station inventory.
func (c *Client) RefreshStations(ctx context.Context) error {
	log.Printf("noaa: downloading station inventory...")
	body, err := c.fetch(ctx, "/ghcnd-stations.txt", "stations")
	if err != nil {
		return fmt.Errorf("fetch station inventory: %w", err)
	}
	stations, err := ParseStations(bytes.NewReader(body))
	if err != nil {
		return err
	}
	if len(stations) == 0 {
		return fmt.Errorf("station inventory empty")
	}
	if err := c.store.UpsertStations(stations); err != nil {
		return fmt.Errorf("store stations: %w", err)
	}
	log.Printf("noaa: loaded %d stations", len(stations))
	return nil
}

// EnsureDaily guarantees the store holds a fresh copy of one station's series
// for the given element, downloading the .dly file if the cache is stale.
func (c *Client) EnsureDaily(ctx context.Context, stationID, element string, maxAge time.Duration) error {
	last, err := c.store.LastFetch(stationID, element)
	if err != nil {
		return fmt.Errorf("last fetch: %w", err)
	}
	if !last.IsZero() && time.Since(last) < maxAge {
		return nil
	}

	path := "/all/" + stationID + ".dly"
	body, err := c.fetch(ctx, path, "dly")
	if err != nil {
		log.Printf("noaa: https fetch failed for %s, trying FTP mirror: %v", stationID, err)
		body, err = c.fetchFTP("/pub/data/ghcn/daily/all/" + stationID + ".dly")
		if err != nil {
			return fmt.Errorf("fetch %s: %w", stationID, err)
		}
	}

	values, err := ParseDly(bytes.NewReader(body), element)
	if err != nil {
		return fmt.Errorf("parse %s: %w", stationID, err)
	}
	if err := c.store.InsertDailyValues(values); err != nil {
		return fmt.Errorf("store daily values: %w", err)
	}
	if err := c.store.RecordFetch(stationID, element, time.Now()); err != nil {
		return fmt.Errorf("record fetch: %w", err)
	}
	log.Printf("noaa: cached %d %s values for %s", len(values), element, stationID)
	return nil
}

// DailyValues returns the cached series for one station and element.
func (c *Client) DailyValues(stationID, element string, start, end time.Time) ([]models.DailyValue, error) {
	return c.store.GetDailyValues(stationID, element, start, end)
}

func (c *Client) fetch(ctx context.Context, path, endpoint string) ([]byte, error) {
	url := c.baseURL + path

	var body []byte
	operation := func() error {
		start := time.Now()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			metrics.NOAARequestsTotal.WithLabelValues(endpoint, "error").Inc()
			return fmt.Errorf("fetch %s: %w", path, err)
		}
		defer resp.Body.Close()
		metrics.NOAARequestLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		metrics.NOAARequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("fetch %s: status %d", path, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("fetch %s: status %d", path, resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}
