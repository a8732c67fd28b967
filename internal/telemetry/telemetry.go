// Package telemetry exposes the daemon's Prometheus metrics: per-device
// serial and PPS counters plus the precision exponent gauge, served over
// HTTP through the same Fiber stack the rest of the daemon uses.
package telemetry

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry collects every counter/gauge this daemon exports and implements
// the Metrics interfaces internal/serialport, internal/pps and
// internal/ntpshm expect from their collaborators.
type Registry struct {
	registry *prometheus.Registry

	serialMessages     *prometheus.CounterVec
	serialErrors       *prometheus.CounterVec
	serialOpenAttempts *prometheus.CounterVec
	ppsAssert          *prometheus.CounterVec
	precisionExponent  *prometheus.GaugeVec
	shmWrites          *prometheus.CounterVec
}

// New creates a Registry with every metric pre-registered so /metrics
// reports a zero value instead of omitting a series before its first event.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		registry: reg,
		serialMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gnsstimed_serial_messages_total",
			Help: "NMEA records decoded per device.",
		}, []string{"device"}),
		serialErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gnsstimed_serial_errors_total",
			Help: "Framing, checksum and parse errors per device.",
		}, []string{"device"}),
		serialOpenAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gnsstimed_serial_open_attempts_total",
			Help: "Serial port open attempts per device, including retries.",
		}, []string{"device"}),
		ppsAssert: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gnsstimed_pps_assert_total",
			Help: "PPS assert edges observed per device.",
		}, []string{"device"}),
		precisionExponent: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gnsstimed_precision_exponent",
			Help: "Most recently estimated NTP precision exponent per device.",
		}, []string{"device"}),
		shmWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gnsstimed_shm_writes_total",
			Help: "NTP SHM writes committed per unit.",
		}, []string{"unit"}),
	}
}

// MessageReceived, ParseError and OpenAttempted implement
// serialport.Metrics.
func (r *Registry) MessageReceived(device string) { r.serialMessages.WithLabelValues(device).Inc() }
func (r *Registry) ParseError(device string)      { r.serialErrors.WithLabelValues(device).Inc() }
func (r *Registry) OpenAttempted(device string)   { r.serialOpenAttempts.WithLabelValues(device).Inc() }

// PPSAssert records one PPS edge for device.
func (r *Registry) PPSAssert(device string) { r.ppsAssert.WithLabelValues(device).Inc() }

// PrecisionExponent records the latest precision estimate for device.
func (r *Registry) PrecisionExponent(device string, p int32) {
	r.precisionExponent.WithLabelValues(device).Set(float64(p))
}

// SHMWrite records one committed SHM write for unit.
func (r *Registry) SHMWrite(unit string) { r.shmWrites.WithLabelValues(unit).Inc() }

// Mount registers the /metrics endpoint on app.
func (r *Registry) Mount(app *fiber.App, path string) {
	handler := promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
	app.Get(path, adaptor.HTTPHandler(handler))
}
