// Package precision estimates the effective granularity of a reference
// clock by watching how its reported nanosecond field actually changes
// from sample to sample, the same tick-detection approach ntpd itself
// uses to fill in its own precision statistic.
package precision

import (
	"context"
	"fmt"
	"math"

	"github.com/gnsstimed/gnsstimed/internal/gnsstime"
)

// Estimator measures a clock's effective tick size and reports it as an
// integer exponent p such that the tick is approximately 2^p seconds.
type Estimator struct {
	maxSamples        uint32
	minChanges        uint32
	minClockIncrement uint32
}

// New builds an Estimator with explicit tuning. maxSamples bounds how many
// samples are read before giving up; minChanges is the number of genuine
// increments to observe before concluding; minClockIncrement is the
// largest diff (in raw ReferenceNsec units) still treated as sampling noise
// rather than a real tick.
func New(maxSamples, minChanges, minClockIncrement uint32) *Estimator {
	return &Estimator{maxSamples: maxSamples, minChanges: minChanges, minClockIncrement: minClockIncrement}
}

// Default matches the tuning used for every GNSS/PPS reference clock:
// 60 samples, 12 changes, and a 86-unit noise floor.
func Default() *Estimator {
	return New(60, 12, 86)
}

// Measure consumes Timestamps from samples until it has enough data (or ctx
// is cancelled) and returns the precision exponent.
func (e *Estimator) Measure(ctx context.Context, samples <-chan gnsstime.Timestamp) (int32, error) {
	tick, err := e.measureTick(ctx, samples)
	if err != nil {
		return 0, err
	}

	var i int32
	for tick <= 1.0 {
		tick *= 2.0
		i--
	}

	if tick-1.0 > 1.0-tick/2.0 {
		i++
	}

	return i, nil
}

func (e *Estimator) measureTick(ctx context.Context, samples <-chan gnsstime.Timestamp) (float64, error) {
	tick := uint32(math.MaxUint32)
	var repeats, maxRepeats, changes, loops uint32

	first, ok := recv(ctx, samples)
	if !ok {
		return 0, fmt.Errorf("precision: unable to retrieve timestamp")
	}
	last := first.ReferenceNsec

	for {
		ts, ok := recv(ctx, samples)
		if !ok {
			break
		}

		val := ts.ReferenceNsec
		diff := val - last
		last = val

		if diff > e.minClockIncrement {
			if repeats > maxRepeats {
				maxRepeats = repeats
			}
			repeats = 0
			changes++
			if diff < tick {
				tick = diff
			}
		} else {
			repeats++
		}

		loops++
		if loops > e.maxSamples || changes > e.minChanges {
			break
		}
	}

	_ = maxRepeats // tracked for parity with the reference algorithm; unused downstream
	return float64(tick) / float64(math.MaxUint32), nil
}

func recv(ctx context.Context, samples <-chan gnsstime.Timestamp) (gnsstime.Timestamp, bool) {
	select {
	case ts, ok := <-samples:
		return ts, ok
	case <-ctx.Done():
		return gnsstime.Timestamp{}, false
	}
}
