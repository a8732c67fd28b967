package pps

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeDevice is an in-memory stand-in for a /dev/ppsN node.
type fakeDevice struct {
	mu sync.Mutex

	cap        int32
	getParamsErr error
	setParamsErr error
	params     params

	fetches    []fdata
	fetchErr   error
	fetchIndex int

	closed bool
}

func (f *fakeDevice) getCap() (int32, error) { return f.cap, nil }

func (f *fakeDevice) getParams() (params, error) {
	if f.getParamsErr != nil {
		return params{}, f.getParamsErr
	}
	return f.params, nil
}

func (f *fakeDevice) setParams(p params) error {
	if f.setParamsErr != nil {
		return f.setParamsErr
	}
	f.mu.Lock()
	f.params = p
	f.mu.Unlock()
	return nil
}

func (f *fakeDevice) fetch() (fdata, error) {
	f.mu.Lock()
	if f.fetchErr != nil {
		f.mu.Unlock()
		return fdata{}, f.fetchErr
	}
	if f.fetchIndex >= len(f.fetches) {
		f.mu.Unlock()
		// Block forever once the scripted fetches are exhausted, just like a
		// real FETCH waiting on an edge that never comes.
		select {}
	}
	d := f.fetches[f.fetchIndex]
	f.fetchIndex++
	f.mu.Unlock()
	return d, nil
}

func (f *fakeDevice) close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeDevice) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestConfigureRequiresCanWaitAndCaptureAssert(t *testing.T) {
	d := &fakeDevice{cap: 0}
	err := configure(d, "/dev/pps0")
	require.Error(t, err)
	var oe *OpenError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, KindCannotWait, oe.Kind)
}

func TestConfigureRequiresCaptureAssertWhenWaitSupported(t *testing.T) {
	d := &fakeDevice{cap: canWait}
	err := configure(d, "/dev/pps0")
	require.Error(t, err)
	var oe *OpenError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, KindCannotCapture, oe.Kind)
}

func TestConfigureEnablesCaptureAssertOnSuccess(t *testing.T) {
	d := &fakeDevice{cap: canWait | captureAssert}
	err := configure(d, "/dev/pps0")
	require.NoError(t, err)
	assert.NotZero(t, d.params.Mode&captureAssert)
}

func TestConfigureSurfacesGetParamsFailure(t *testing.T) {
	d := &fakeDevice{cap: canWait | captureAssert, getParamsErr: errors.New("boom")}
	err := configure(d, "/dev/pps0")
	require.Error(t, err)
	var oe *OpenError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, KindCannotGetParams, oe.Kind)
}

func TestEnginePublishesTimestampFromFetchedAssertTime(t *testing.T) {
	d := &fakeDevice{
		fetches: []fdata{
			{Info: info{AssertTu: ktime{Sec: 1000, Nsec: 250}}},
		},
	}
	e := newEngine("/dev/pps0", d, zap.NewNop(), nil)
	e.now = func() time.Time { return time.Unix(1000, 300) }

	sub := e.Subscribe()
	defer sub.Unsubscribe()
	go e.run()

	select {
	case ts := <-sub.C():
		assert.Equal(t, int64(1000), ts.ReferenceSec)
		assert.Equal(t, uint32(250), ts.ReferenceNsec)
		assert.Equal(t, int64(1000), ts.ReceivedSec)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for PPS timestamp")
	}
}

func TestEngineContinuesAfterFetchError(t *testing.T) {
	d := &fakeDevice{fetchErr: errors.New("PPS_FETCH failed")}
	e := newEngine("/dev/pps0", d, zap.NewNop(), nil)
	sub := e.Subscribe()
	defer sub.Unsubscribe()

	done := make(chan struct{})
	go func() {
		e.run()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("engine should not terminate on repeated FETCH errors")
	case <-time.After(50 * time.Millisecond):
	}
}

type countingMetrics struct {
	mu    sync.Mutex
	count int
}

func (m *countingMetrics) PPSAssert(string) {
	m.mu.Lock()
	m.count++
	m.mu.Unlock()
}

func (m *countingMetrics) asserts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

func TestEngineRecordsMetricPerAssert(t *testing.T) {
	d := &fakeDevice{
		fetches: []fdata{
			{Info: info{AssertTu: ktime{Sec: 1000}}},
			{Info: info{AssertTu: ktime{Sec: 1001}}},
		},
	}
	metrics := &countingMetrics{}
	e := newEngine("/dev/pps0", d, zap.NewNop(), metrics)
	sub := e.Subscribe()
	defer sub.Unsubscribe()
	go e.run()

	require.Eventually(t, func() bool { return metrics.asserts() >= 2 }, time.Second, time.Millisecond)
}

func TestEngineShutsDownAndClosesDeviceWhenLastObserverUnsubscribes(t *testing.T) {
	fetches := make([]fdata, 200)
	for i := range fetches {
		fetches[i] = fdata{Info: info{AssertTu: ktime{Sec: int64(i)}}}
	}
	d := &fakeDevice{fetches: fetches}
	e := newEngine("/dev/pps0", d, zap.NewNop(), nil)

	sub := e.Subscribe()
	go e.run()

	select {
	case <-sub.C():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first PPS timestamp")
	}

	sub.Unsubscribe()

	require.Eventually(t, d.isClosed, time.Second, time.Millisecond)
}
