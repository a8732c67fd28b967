// Package serialport implements the per-device supervisor:
// it owns a serial port, drives it through an open/run/cooldown state
// machine with exponential backoff, and turns the byte stream into
// broadcast Records via the nmea and driver packages.
package serialport

import (
	"context"
	"errors"
	"io"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/gnsstimed/gnsstimed/internal/broadcast"
	"github.com/gnsstimed/gnsstimed/internal/driver"
	"github.com/gnsstimed/gnsstimed/internal/nmea"
)

// State is one node of the Closed -> Opening -> Running -> Cooldown/Backoff
// cycle a Supervisor drives a device through.
type State int

const (
	StateClosed State = iota
	StateOpening
	StateRunning
	StateCooldown
)

// Metrics receives the supervisor's per-device counters. Implemented by
// internal/telemetry; a nil Metrics is replaced with a no-op.
type Metrics interface {
	MessageReceived(device string)
	ParseError(device string)
	OpenAttempted(device string)
}

type noopMetrics struct{}

func (noopMetrics) MessageReceived(string) {}
func (noopMetrics) ParseError(string)      {}
func (noopMetrics) OpenAttempted(string)   {}

// openFunc abstracts serial.Open so tests can substitute a fake transport.
type openFunc func(Settings) (io.ReadWriteCloser, error)

func defaultOpen(s Settings) (io.ReadWriteCloser, error) {
	port, err := serial.Open(s.Path, s.mode())
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, err
	}
	return port, nil
}

// Supervisor owns one serial device end to end.
type Supervisor struct {
	Name     string
	settings Settings
	driver   driver.Driver
	messages []string // desired sentence ids, see driver.EnumerateMessages
	bus      *broadcast.Bus[nmea.Record]
	logger   *zap.Logger
	metrics  Metrics
	backoff  *backoff
	open     openFunc

	state State
}

// NewSupervisor builds a Supervisor for one configured device.
func NewSupervisor(name string, settings Settings, drv driver.Driver, messages []string, bus *broadcast.Bus[nmea.Record], logger *zap.Logger, metrics Metrics) *Supervisor {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Supervisor{
		Name:     name,
		settings: settings,
		driver:   drv,
		messages: messages,
		bus:      bus,
		logger:   logger.With(zap.String("device", name)),
		metrics:  metrics,
		backoff:  newBackoff(),
		open:     defaultOpen,
		state:    StateClosed,
	}
}

// State reports the supervisor's current lifecycle state.
func (s *Supervisor) State() State {
	return s.state
}

// Run drives the supervisor until ctx is cancelled. It never returns an
// error: every device-transient failure is logged and retried forever
//.
func (s *Supervisor) Run(ctx context.Context) {
	for ctx.Err() == nil {
		s.state = StateOpening
		s.metrics.OpenAttempted(s.Name)

		port, err := s.open(s.settings)
		if err != nil {
			s.logger.Warn("open failed", zap.Error(err))
			if !s.wait(ctx, s.backoff.next()) {
				return
			}
			continue
		}

		s.backoff.reset()
		s.configure(port)

		s.state = StateRunning
		err = s.pump(ctx, port)
		port.Close()

		if ctx.Err() != nil {
			return
		}

		s.logger.Warn("read loop ended, cooling down", zap.Error(err))
		s.state = StateCooldown
		if !s.wait(ctx, s.backoff.next()) {
			return
		}
	}
}

func (s *Supervisor) configure(port io.ReadWriteCloser) {
	settings := s.driver.EnumerateMessages(s.messages)
	frames := s.driver.Configure(settings)
	for _, frame := range frames {
		if _, err := io.WriteString(port, frame); err != nil {
			s.logger.Warn("configuration write failed", zap.Error(err))
		}
	}
}

// pump reads bytes until a permanent error (EOF, i/o error, or excess
// leading garbage) and publishes every decoded Record to the bus.
func (s *Supervisor) pump(ctx context.Context, port io.ReadWriteCloser) error {
	reader := nmea.NewReader(s.driver)
	buf := make([]byte, 4096)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		n, err := port.Read(buf)
		if n > 0 {
			reader.Feed(buf[:n])
			if drainErr := s.drain(reader); drainErr != nil {
				return drainErr
			}
		}
		if err != nil {
			if isTimeout(err) {
				continue
			}
			return err
		}
	}
}

// drain decodes every record currently buffered in reader. A FramingError is
// terminal for the stream: it is reported and returned so pump stops reading
// from this port and Run cools down and reopens.
func (s *Supervisor) drain(reader *nmea.Reader) error {
	for {
		rec, ok, err := reader.Next()
		if err != nil {
			var framingErr *nmea.FramingError
			if errors.As(err, &framingErr) {
				s.metrics.ParseError(s.Name)
				s.logger.Warn("leading garbage limit exceeded", zap.Error(err))
			}
			return err
		}
		if !ok {
			return nil
		}

		s.metrics.MessageReceived(s.Name)
		if rec.Kind() == nmea.KindInvalidChecksum || rec.Kind() == nmea.KindParseError || rec.Kind() == nmea.KindParseFailure {
			s.metrics.ParseError(s.Name)
		}
		s.bus.Publish(rec)
	}
}

func (s *Supervisor) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	var te timeouter
	if errors.As(err, &te) {
		return te.Timeout()
	}
	return false
}
