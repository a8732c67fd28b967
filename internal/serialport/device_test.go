package serialport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gnsstimed/gnsstimed/internal/broadcast"
	"github.com/gnsstimed/gnsstimed/internal/driver"
	"github.com/gnsstimed/gnsstimed/internal/nmea"
)

// fakePort is a minimal io.ReadWriteCloser standing in for an open serial
// device: a fixed read payload followed by io.EOF, and writes captured for
// assertions on the configuration frames a driver sends.
type fakePort struct {
	mu      sync.Mutex
	payload *bytes.Reader
	writes  [][]byte
	closed  bool
}

func newFakePort(payload []byte) *fakePort {
	return &fakePort{payload: bytes.NewReader(payload)}
}

func (p *fakePort) Read(b []byte) (int, error) {
	return p.payload.Read(b)
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := append([]byte(nil), b...)
	p.writes = append(p.writes, cp)
	return len(b), nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

type countingMetrics struct {
	mu       sync.Mutex
	messages int
	errors   int
	opens    int
}

func (m *countingMetrics) MessageReceived(string) { m.mu.Lock(); m.messages++; m.mu.Unlock() }
func (m *countingMetrics) ParseError(string)      { m.mu.Lock(); m.errors++; m.mu.Unlock() }
func (m *countingMetrics) OpenAttempted(string)   { m.mu.Lock(); m.opens++; m.mu.Unlock() }

func testSettings() Settings {
	s, _ := NewSettings(Settings{Path: "/dev/ttyUSB0", BaudRate: 9600, DataBits: 8})
	return s
}

func TestSupervisorPublishesDecodedRecordsThenRetriesAfterEOF(t *testing.T) {
	port := newFakePort([]byte("$EIGAQ,RMC*2B\r\n"))
	attempts := 0

	bus := broadcast.NewBus[nmea.Record](20)
	sub := bus.Subscribe()
	defer sub.Unsubscribe()

	metrics := &countingMetrics{}
	sup := NewSupervisor("test0", testSettings(), driver.Generic{}, nil, bus, zap.NewNop(), metrics)
	sup.open = func(Settings) (io.ReadWriteCloser, error) {
		attempts++
		if attempts == 1 {
			return port, nil
		}
		return nil, errors.New("no more attempts wanted")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	select {
	case rec := <-sub.C():
		poll, ok := rec.(nmea.Poll)
		require.True(t, ok)
		assert.Equal(t, nmea.KindGAQ, poll.Kind())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a record")
	}

	// Let the context run out so the supervisor cools down after EOF and
	// tries to reopen before Run returns.
	<-done

	assert.True(t, port.closed)
	assert.GreaterOrEqual(t, metrics.messages, 1)
	assert.GreaterOrEqual(t, attempts, 2)
}

func TestSupervisorRetriesAfterOpenFailure(t *testing.T) {
	bus := broadcast.NewBus[nmea.Record](20)
	metrics := &countingMetrics{}
	sup := NewSupervisor("test1", testSettings(), driver.Generic{}, nil, bus, zap.NewNop(), metrics)

	var attempts int
	var mu sync.Mutex
	sup.open = func(Settings) (io.ReadWriteCloser, error) {
		mu.Lock()
		attempts++
		mu.Unlock()
		return nil, errors.New("permission denied")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	sup.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, attempts, 1)
	assert.GreaterOrEqual(t, metrics.opens, 1)
}

func TestSupervisorReopensAfterFramingError(t *testing.T) {
	// 165 bytes with no '$' exceeds the leading-garbage limit: drain must
	// surface the FramingError so pump stops reading this port and Run
	// cools down and reopens, rather than looping forever on a stream that
	// can never produce a sentence.
	garbage := bytes.Repeat([]byte("x"), 165)

	var mu sync.Mutex
	var attempts int
	var ports []*fakePort

	bus := broadcast.NewBus[nmea.Record](20)
	metrics := &countingMetrics{}
	sup := NewSupervisor("test2", testSettings(), driver.Generic{}, nil, bus, zap.NewNop(), metrics)
	sup.open = func(Settings) (io.ReadWriteCloser, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		p := newFakePort(garbage)
		ports = append(ports, p)
		return p, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	sup.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, attempts, 2, "supervisor must reopen after a framing error instead of re-reading the same port")
	for _, p := range ports[:len(ports)-1] {
		assert.True(t, p.closed)
	}
	assert.GreaterOrEqual(t, metrics.errors, 1)
}
