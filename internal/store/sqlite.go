package store

import (
	"database/sql"
	"math"
	"time"

	"github.com/hydrotools/antecedent/internal/models"
)

// Store caches GHCN-Daily station and observation data in SQLite so repeat
// runs against the same point avoid re-downloading multi-decade records.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) UpsertStation(st models.Station) error {
	_, err := s.db.Exec(`
		INSERT INTO stations (station_id, name, latitude, longitude, elevation, state)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_id) DO UPDATE SET
			name = excluded.name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			elevation = excluded.elevation,
			state = excluded.state
	`, st.StationID, st.Name, st.Latitude, st.Longitude, st.Elevation, st.State)
	return err
}

// UpsertStations loads a whole inventory in one transaction.
func (s *Store) UpsertStations(stations []models.Station) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO stations (station_id, name, latitude, longitude, elevation, state)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_id) DO UPDATE SET
			name = excluded.name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			elevation = excluded.elevation,
			state = excluded.state
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, st := range stations {
		if _, err := stmt.Exec(st.StationID, st.Name, st.Latitude, st.Longitude, st.Elevation, st.State); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) CountStations() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM stations`).Scan(&n)
	return n, err
}

// NearestStations returns up to limit stations ordered by distance from the
// given point. The candidate set is pre-filtered to a bounding box so the
// distance sort stays cheap.
func (s *Store) NearestStations(lat, lon float64, limit int) ([]models.Station, error) {
	const boxDegrees = 1.5
	rows, err := s.db.Query(`
		SELECT station_id, name, latitude, longitude, elevation, state
		FROM stations
		WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?
	`, lat-boxDegrees, lat+boxDegrees, lon-boxDegrees, lon+boxDegrees)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.StationID, &st.Name, &st.Latitude, &st.Longitude, &st.Elevation, &st.State); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortByDistance(stations, lat, lon)
	if len(stations) > limit {
		stations = stations[:limit]
	}
	return stations, nil
}

func sortByDistance(stations []models.Station, lat, lon float64) {
	dist := func(st models.Station) float64 {
		dLat := (st.Latitude - lat) * 69.0
		dLon := (st.Longitude - lon) * 69.0 * math.Cos(lat*math.Pi/180)
		return dLat*dLat + dLon*dLon
	}
	for i := 1; i < len(stations); i++ {
		for j := i; j > 0 && dist(stations[j]) < dist(stations[j-1]); j-- {
			stations[j], stations[j-1] = stations[j-1], stations[j]
		}
	}
}

func (s *Store) InsertDailyValues(values []models.DailyValue) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO daily_values (station_id, date, element, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(station_id, date, element) DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, v := range values {
		if _, err := stmt.Exec(v.StationID, v.Date.Format("2006-01-02"), v.Element, v.Value); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// GetDailyValues returns readings for one station and element between start
// and end inclusive, ordered by date.
func (s *Store) GetDailyValues(stationID, element string, start, end time.Time) ([]models.DailyValue, error) {
	rows, err := s.db.Query(`
		SELECT station_id, date, element, value
		FROM daily_values
		WHERE station_id = ? AND element = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, stationID, element, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []models.DailyValue
	for rows.Next() {
		var v models.DailyValue
		var date string
		if err := rows.Scan(&v.StationID, &date, &v.Element, &v.Value); err != nil {
			return nil, err
		}
		v.Date, err = time.Parse("2006-01-02", date)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// LastFetch returns when a station's element series was last downloaded, or
// the zero time if it never was.
func (s *Store) LastFetch(stationID, element string) (time.Time, error) {
	var fetched time.Time
	err := s.db.QueryRow(`
		SELECT fetched_at FROM daily_fetches WHERE station_id = ? AND element = ?
	`, stationID, element).Scan(&fetched)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return fetched, nil
}

func (s *Store) RecordFetch(stationID, element string, at time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO daily_fetches (station_id, element, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(station_id, element) DO UPDATE SET fetched_at = excluded.fetched_at
	`, stationID, element, at.UTC())
	return err
}

// RecordClimdivFile notes which pdsidv file is current on disk.
func (s *Store) RecordClimdivFile(fileName, procDate string, at time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO climdiv_files (file_name, proc_date, downloaded_at)
		VALUES (?, ?, ?)
		ON CONFLICT(file_name) DO UPDATE SET downloaded_at = excluded.downloaded_at
	`, fileName, procDate, at.UTC())
	return err
}
