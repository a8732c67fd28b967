package ntpshm

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gnsstimed/gnsstimed/internal/gnsstime"
)

const (
	pollInterval     = 10 * time.Millisecond
	committedCooldown = time.Second
)

// Observer polls a SHM segment's count handshake and reports committed
// snapshots as Timestamps. It never trusts the valid flag mid-read,
// relying only on the before/after count comparison.
type Observer struct {
	seg *Segment
}

// NewObserver builds an Observer over an already-attached segment.
func NewObserver(seg *Segment) *Observer {
	return &Observer{seg: seg}
}

// Run polls until ctx is cancelled, sending each consistently-read snapshot
// on the returned channel. The channel is closed when Run returns.
func (o *Observer) Run(ctx context.Context) <-chan gnsstime.Timestamp {
	out := make(chan gnsstime.Timestamp)
	go func() {
		defer close(out)
		o.loop(ctx, out)
	}()
	return out
}

func (o *Observer) loop(ctx context.Context, out chan<- gnsstime.Timestamp) {
	var lastCount int32

	for {
		if ctx.Err() != nil {
			return
		}

		countBefore := atomic.LoadInt32(&o.seg.rec.Count)
		if countBefore == lastCount {
			if !o.wait(ctx, pollInterval) {
				return
			}
			continue
		}

		snap := o.snapshot()
		countAfter := atomic.LoadInt32(&o.seg.rec.Count)

		if countBefore != countAfter {
			// Raced a concurrent write; try again next tick with the
			// count we observed first, matching the original reader.
			lastCount = countBefore
			if !o.wait(ctx, pollInterval) {
				return
			}
			continue
		}

		lastCount = countAfter

		select {
		case out <- snap:
		case <-ctx.Done():
			return
		}

		if !o.wait(ctx, committedCooldown) {
			return
		}
	}
}

func (o *Observer) snapshot() gnsstime.Timestamp {
	r := o.seg.rec
	return gnsstime.Timestamp{
		Leap:          atomic.LoadInt32(&r.Leap),
		ReferenceSec:  int64(atomic.LoadInt32(&r.ClockSec)),
		ReferenceNsec: atomic.LoadUint32(&r.ClockNsec),
		ReceivedSec:   int64(atomic.LoadInt32(&r.ReceiveSec)),
		ReceivedNsec:  atomic.LoadUint32(&r.ReceiveNsec),
	}
}

func (o *Observer) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
