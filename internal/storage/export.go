package storage

import (
	"encoding/json"
	"io"
	"math"
)

type ExportData struct {
	*RunMetadata
	Columns     []string     `json:"columns"`
	RowSegments []string     `json:"row_segments"`
	Rows        [][]*float64 `json:"rows"`
}

// ExportJSON writes a run's metadata and trajectory as one JSON
// document. Missing values become null.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	traj, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata: meta,
		Columns:     traj.Columns,
		RowSegments: traj.Segments,
		Rows:        make([][]*float64, len(traj.Rows)),
	}
	for i, row := range traj.Rows {
		out := make([]*float64, len(row))
		for j := range row {
			if !math.IsNaN(row[j]) {
				out[j] = &row[j]
			}
		}
		data.Rows[i] = out
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
