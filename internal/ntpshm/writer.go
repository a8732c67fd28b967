package ntpshm

import (
	"sync/atomic"

	"github.com/gnsstimed/gnsstimed/internal/gnsstime"
)

// Metrics receives a count of writes committed to a unit. Implemented by
// internal/telemetry; a nil Metrics is replaced with a no-op.
type Metrics interface {
	SHMWrite(unit string)
}

type noopMetrics struct{}

func (noopMetrics) SHMWrite(string) {}

// Writer commits Timestamps to one attached SHM segment following the
// NTP SHM driver's count-handshake discipline. precision is read fresh on
// every Write, since it tracks the live estimate from internal/precision
// rather than a value fixed at construction.
type Writer struct {
	seg       *Segment
	leap      int32
	precision int32
	metrics   Metrics
	unitLabel string
}

// NewWriter builds a Writer for an already-attached segment. precision is
// the initial estimate; call SetPrecision as better estimates arrive.
func NewWriter(seg *Segment, leap, precision int32, metrics Metrics, unitLabel string) *Writer {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Writer{seg: seg, leap: leap, precision: precision, metrics: metrics, unitLabel: unitLabel}
}

// SetPrecision updates the exponent future Write calls stamp into the
// segment, without disturbing a write already in progress.
func (w *Writer) SetPrecision(p int32) {
	atomic.StoreInt32(&w.precision, p)
}

// Write commits ts to the segment: invalidate, bump count, write every
// field between two fences, bump count again, revalidate.
func (w *Writer) Write(ts gnsstime.Timestamp) {
	r := w.seg.rec
	precision := atomic.LoadInt32(&w.precision)

	atomic.StoreInt32(&r.Valid, 0)
	atomic.AddInt32(&r.Count, 1)

	atomic.StoreInt32(&r.ClockSec, int32(ts.ReferenceSec))
	atomic.StoreInt32(&r.ClockUsec, int32(ts.ReferenceNsec/1000))
	atomic.StoreInt32(&r.ReceiveSec, int32(ts.ReceivedSec))
	atomic.StoreInt32(&r.ReceiveUsec, int32(ts.ReceivedNsec/1000))
	atomic.StoreInt32(&r.Leap, w.leap)
	atomic.StoreInt32(&r.Precision, precision)
	atomic.StoreInt32(&r.Mode, 1)
	atomic.StoreUint32(&r.ClockNsec, ts.ReferenceNsec)
	atomic.StoreUint32(&r.ReceiveNsec, ts.ReceivedNsec)

	atomic.AddInt32(&r.Count, 1)
	atomic.StoreInt32(&r.Valid, 1)

	w.metrics.SHMWrite(w.unitLabel)
}
