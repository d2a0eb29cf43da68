package tracking

import (
	"fmt"

	"backend-trailrecorder/internal/shared/geo"
)

// State is the recorder's on/off state.
type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "recording":
		*s = Recording
	case "idle":
		*s = Idle
	default:
		return fmt.Errorf("unknown recording state %q", text)
	}
	return nil
}

// PathObserver is told about every change to the recorded path. It is
// called with the recorder locked, so it must not call back into the
// recorder and should return quickly.
type PathObserver interface {
	PathChanged(recordingID string, path []geo.Point)
}

type Summary struct {
	RecordingID string  `json:"recording_id"`
	State       State   `json:"state"`
	PointCount  int     `json:"point_count"`
	DistanceKm  float64 `json:"distance_km"`
}

type Snapshot struct {
	Summary
	Points []geo.Point `json:"points"`
}

type ExportResult struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PointCount int    `json:"point_count"`
}

type ImportResult struct {
	PointCount int     `json:"point_count"`
	DistanceKm float64 `json:"distance_km"`
}
