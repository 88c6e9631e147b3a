// Package storage keeps mission runs on disk. Each run gets a directory
// holding metadata.json and trajectory.csv; index.db is a SQLite index
// over every saved run.
package storage

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/san-kum/aerosim/internal/mission"
)

var ErrNotFound = errors.New("storage: run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	mission     TEXT NOT NULL,
	aircraft    TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	converged   INTEGER NOT NULL,
	segments    INTEGER NOT NULL,
	fuel_burned REAL
);
CREATE INDEX IF NOT EXISTS runs_created_at ON runs (created_at);
`

type Store struct {
	baseDir string
	db      *sql.DB
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Init creates the base directory and opens the run index.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	db, err := sql.Open("sqlite", filepath.Join(s.baseDir, "index.db")+"?_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("open run index: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("create run index: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

type SegmentSummary struct {
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	Status      string   `json:"status"`
	Evaluations int      `json:"evaluations"`
	Residual    *float64 `json:"residual,omitempty"`
	Message     string   `json:"message,omitempty"`
	Error       string   `json:"error,omitempty"`
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Mission   string             `json:"mission"`
	Aircraft  string             `json:"aircraft"`
	Timestamp time.Time          `json:"timestamp"`
	Converged bool               `json:"converged"`
	Segments  []SegmentSummary   `json:"segments"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes a run directory for res and indexes it.
func (s *Store) Save(aircraft string, res *mission.Results, metrics map[string]float64) (string, error) {
	if s.db == nil {
		return "", errors.New("storage: store is not initialized")
	}
	meta := RunMetadata{
		ID:        uuid.NewString(),
		Mission:   res.Mission,
		Aircraft:  aircraft,
		Timestamp: time.Now().UTC(),
		Converged: res.Converged(),
		Metrics:   make(map[string]float64, len(metrics)),
	}
	for k, v := range metrics {
		if finite(v) != nil {
			meta.Metrics[k] = v
		}
	}
	for _, r := range res.Segments {
		sum := SegmentSummary{
			Name:        r.Name,
			Kind:        r.Kind,
			Status:      r.Status(),
			Evaluations: r.Evaluations,
			Residual:    finite(r.Residual),
			Message:     r.Message,
		}
		if r.Err != nil {
			sum.Error = r.Err.Error()
		}
		meta.Segments = append(meta.Segments, sum)
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeTrajectory(filepath.Join(runDir, "trajectory.csv"), NewTrajectory(res)); err != nil {
		return "", err
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, mission, aircraft, created_at, converged, segments, fuel_burned) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Mission, meta.Aircraft, meta.Timestamp.UnixMilli(), meta.Converged, len(meta.Segments), finite(metrics["fuel_burned"]),
	)
	if err != nil {
		return "", fmt.Errorf("index run %s: %w", meta.ID, err)
	}
	return meta.ID, nil
}

// finite returns nil for NaN and infinities, which neither JSON nor the
// index can hold.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RunIndex is one row of the run index.
type RunIndex struct {
	ID         string
	Mission    string
	Aircraft   string
	Timestamp  time.Time
	Converged  bool
	Segments   int
	FuelBurned float64
}

// List returns indexed runs, newest first.
func (s *Store) List() ([]RunIndex, error) {
	if s.db == nil {
		return []RunIndex{}, nil
	}
	rows, err := s.db.Query(`SELECT id, mission, aircraft, created_at, converged, segments, fuel_burned FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunIndex, 0)
	for rows.Next() {
		var r RunIndex
		var created int64
		var fuel sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.Mission, &r.Aircraft, &created, &r.Converged, &r.Segments, &fuel); err != nil {
			return nil, err
		}
		r.Timestamp = time.UnixMilli(created).UTC()
		r.FuelBurned = nan
		if fuel.Valid {
			r.FuelBurned = fuel.Float64
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTrajectory(runID string) (*Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "trajectory.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Trajectory{}, nil
	}

	header := records[0]
	t := &Trajectory{Columns: header[1:]}
	for _, rec := range records[1:] {
		row := make([]float64, len(rec)-1)
		for j, field := range rec[1:] {
			row[j], err = parseField(field)
			if err != nil {
				return nil, fmt.Errorf("trajectory %s: %w", runID, err)
			}
		}
		t.Segments = append(t.Segments, rec[0])
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func parseField(s string) (float64, error) {
	if s == "" {
		return nan, nil
	}
	return strconv.ParseFloat(s, 64)
}
