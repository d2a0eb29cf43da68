package tracking

import (
	"errors"
	"sync"

	"backend-trailrecorder/internal/shared/geo"
	"backend-trailrecorder/internal/trackdoc"

	"github.com/google/uuid"
)

var ErrEmptyTrack = errors.New("no track to export")

// Recorder holds the recording state and the points retained while
// recording. All methods are safe for concurrent use.
type Recorder struct {
	mu          sync.Mutex
	state       State
	recordingID string
	epoch       uint64
	track       []geo.Point
	observer    PathObserver
	newID       func() string
}

// NewRecorder returns an idle recorder with an empty track. observer may
// be nil.
func NewRecorder(observer PathObserver) *Recorder {
	return &Recorder{
		observer: observer,
		newID:    uuid.NewString,
	}
}

// Start begins a fresh recording. Any previous track is discarded, even
// when a recording is already in progress.
func (r *Recorder) Start() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = Recording
	r.epoch++
	r.recordingID = r.newID()
	r.track = nil
	r.notify()
	return r.summary()
}

// Stop ends the recording. The track is kept for export.
func (r *Recorder) Stop() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = Idle
	return r.summary()
}

// OnLocationFix appends p when recording and reports whether it was kept.
// Fixes that arrive while idle are dropped.
func (r *Recorder) OnLocationFix(p geo.Point) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Recording {
		return false
	}
	r.track = append(r.track, p)
	r.notify()
	return true
}

// currentEpoch identifies the recording a fix arriving now belongs to.
// Zero means idle.
func (r *Recorder) currentEpoch() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Recording {
		return 0
	}
	return r.epoch
}

// appendStamped appends a fix that arrived during recording epoch, as
// long as no Start has begun a newer recording since. A Stop in between
// does not drop it.
func (r *Recorder) appendStamped(epoch uint64, p geo.Point) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if epoch == 0 || epoch != r.epoch {
		return false
	}
	r.track = append(r.track, p)
	r.notify()
	return true
}

// ExportTrack returns a copy of the current track. It fails with
// ErrEmptyTrack when nothing has been recorded.
func (r *Recorder) ExportTrack() (trackdoc.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.track) == 0 {
		return trackdoc.Document{}, ErrEmptyTrack
	}
	return trackdoc.New(r.track), nil
}

// State reports whether a recording is in progress.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Points returns a copy of the recorded track.
func (r *Recorder) Points() []geo.Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.copyTrack()
}

// Summary reports the recording ID, state, point count and distance.
func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary()
}

// Snapshot is Summary plus a copy of the points, taken atomically.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{Summary: r.summary(), Points: r.copyTrack()}
}

func (r *Recorder) summary() Summary {
	return Summary{
		RecordingID: r.recordingID,
		State:       r.state,
		PointCount:  len(r.track),
		DistanceKm:  geo.PathLengthKm(r.track),
	}
}

func (r *Recorder) copyTrack() []geo.Point {
	out := make([]geo.Point, len(r.track))
	copy(out, r.track)
	return out
}

func (r *Recorder) notify() {
	if r.observer == nil {
		return
	}
	r.observer.PathChanged(r.recordingID, r.copyTrack())
}
