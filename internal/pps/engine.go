package pps

import (
	"time"

	"go.uber.org/zap"

	"github.com/gnsstimed/gnsstimed/internal/broadcast"
	"github.com/gnsstimed/gnsstimed/internal/gnsstime"
)

// Metrics receives a count of observed PPS assert edges. Implemented by
// internal/telemetry; a nil Metrics is replaced with a no-op.
type Metrics interface {
	PPSAssert(device string)
}

type noopMetrics struct{}

func (noopMetrics) PPSAssert(string) {}

// Engine owns one open /dev/ppsN device and republishes its assert edges as
// Timestamps. There is no explicit shutdown: dropping the
// last subscriber is the cancellation signal, and the engine's next publish
// attempt observes zero subscribers and closes the device on its own.
type Engine struct {
	name    string
	dev     device
	latest  *broadcast.Latest[gnsstime.Timestamp]
	logger  *zap.Logger
	metrics Metrics
	now     func() time.Time
}

// Open opens path, validates CANWAIT/CAPTUREASSERT, enables CAPTUREASSERT
// and starts the background fetch loop. A non-nil error is always
// device-fatal: the engine never starts.
func Open(path string, logger *zap.Logger, metrics Metrics) (*Engine, error) {
	d, err := openDevice(path)
	if err != nil {
		return nil, &OpenError{Kind: KindCannotOpen, Device: path, Err: err}
	}
	if err := configure(d, path); err != nil {
		d.close()
		return nil, err
	}

	e := newEngine(path, d, logger, metrics)
	go e.run()
	return e, nil
}

func newEngine(name string, d device, logger *zap.Logger, metrics Metrics) *Engine {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Engine{
		name:    name,
		dev:     d,
		latest:  broadcast.NewLatest[gnsstime.Timestamp](),
		logger:  logger.With(zap.String("device", name)),
		metrics: metrics,
		now:     time.Now,
	}
}

// Subscribe returns a handle that always holds the most recently observed
// PPS edge.
func (e *Engine) Subscribe() *broadcast.LatestSubscription[gnsstime.Timestamp] {
	return e.latest.Subscribe()
}

func (e *Engine) run() {
	for {
		d, err := e.dev.fetch()
		if err != nil {
			e.logger.Warn("PPS_FETCH failed", zap.Error(err))
			continue
		}

		received := e.now()
		ts := gnsstime.Timestamp{
			ReferenceSec:  d.Info.AssertTu.Sec,
			ReferenceNsec: uint32(d.Info.AssertTu.Nsec),
			ReceivedSec:   received.Unix(),
			ReceivedNsec:  uint32(received.Nanosecond()),
		}

		e.metrics.PPSAssert(e.name)

		if subs := e.latest.Publish(ts); subs == 0 {
			e.logger.Debug("no PPS observers left, shutting down", zap.String("device", e.name))
			e.dev.close()
			return
		}
	}
}
