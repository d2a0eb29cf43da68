package tracking

import (
	"context"
	"sync/atomic"

	"backend-trailrecorder/internal/shared/geo"
)

// LocationSampleSink queues fixes from a location provider and hands them
// to the recorder one at a time, in arrival order. Each fix is tagged with
// the recording that was active when it was pushed, so a Start or Stop
// that overtakes the queue cannot move it into another recording or drop
// it. Push blocks while the queue is full.
type LocationSampleSink struct {
	recorder  *Recorder
	fixes     chan stampedFix
	retained  atomic.Int64
	discarded atomic.Int64
}

func NewLocationSampleSink(recorder *Recorder, buffer int) *LocationSampleSink {
	if buffer < 0 {
		buffer = 0
	}
	return &LocationSampleSink{
		recorder: recorder,
		fixes:    make(chan stampedFix, buffer),
	}
}

type stampedFix struct {
	epoch uint64
	point geo.Point
}

// Push queues a fix. Fixes pushed while idle are discarded right away.
// It returns ctx.Err() if the context ends before the fix could be queued.
func (s *LocationSampleSink) Push(ctx context.Context, p geo.Point) error {
	epoch := s.recorder.currentEpoch()
	if epoch == 0 {
		s.discarded.Add(1)
		return nil
	}

	select {
	case s.fixes <- stampedFix{epoch: epoch, point: p}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run forwards queued fixes until ctx is cancelled. Only one Run may be
// active at a time.
func (s *LocationSampleSink) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fix := <-s.fixes:
			s.deliver(fix)
		}
	}
}

func (s *LocationSampleSink) deliver(fix stampedFix) {
	if s.recorder.appendStamped(fix.epoch, fix.point) {
		s.retained.Add(1)
	} else {
		s.discarded.Add(1)
	}
}

type SinkStats struct {
	Queued    int   `json:"queued"`
	Retained  int64 `json:"retained"`
	Discarded int64 `json:"discarded"`
}

func (s *LocationSampleSink) Stats() SinkStats {
	return SinkStats{
		Queued:    len(s.fixes),
		Retained:  s.retained.Load(),
		Discarded: s.discarded.Load(),
	}
}
