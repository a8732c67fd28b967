package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/gnsstimed/gnsstimed/internal/broadcast"
	"github.com/gnsstimed/gnsstimed/internal/config"
	"github.com/gnsstimed/gnsstimed/internal/driver"
	"github.com/gnsstimed/gnsstimed/internal/gnsstime"
	"github.com/gnsstimed/gnsstimed/internal/gpsd"
	"github.com/gnsstimed/gnsstimed/internal/logger"
	"github.com/gnsstimed/gnsstimed/internal/nmea"
	"github.com/gnsstimed/gnsstimed/internal/ntpshm"
	"github.com/gnsstimed/gnsstimed/internal/pps"
	"github.com/gnsstimed/gnsstimed/internal/precision"
	"github.com/gnsstimed/gnsstimed/internal/serialport"
	"github.com/gnsstimed/gnsstimed/internal/telemetry"
)

var version = "0.1.0"

func main() {
	flags := pflag.NewFlagSet("gnsstimed", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to config.toml")
	logLevel := flags.String("log-level", "", "override logger.level")
	deviceOverrides := flags.StringArray("device", nil, "name=path override for a configured device, repeatable")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gnsstimed: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logger.Level = *logLevel
	}
	applyDeviceOverrides(cfg, *deviceOverrides)

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Logger.Level
	logCfg.Format = cfg.Logger.Format
	logCfg.LogDir = cfg.Logger.LogDir
	if err := logger.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "gnsstimed: logger init: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("gnsstimed starting", zap.String("version", version), zap.Int("devices", len(cfg.Device)))

	profileName := config.GetProfileForBoard(config.DetectBoard())
	profile, err := config.LoadProfile(string(profileName))
	if err != nil {
		profile, _ = config.LoadProfile(string(config.ProfileStandard))
	}
	log.Info("concurrency profile selected",
		zap.String("profile", string(profile.Name)),
		zap.Int("broadcast_capacity", profile.BroadcastCapacity),
		zap.Int("max_devices", profile.MaxDevices))

	metrics := telemetry.New()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var sources []gpsd.Source
	for _, dc := range cfg.Device {
		dc := dc
		src, err := startDevice(ctx, dc, profile.BroadcastCapacity, metrics, log)
		if err != nil {
			log.Error("device setup failed, skipping", zap.String("device", dc.Name), zap.Error(err))
			continue
		}
		sources = append(sources, src)
	}

	if cfg.Metrics.Enabled {
		go serveMetrics(ctx, cfg.Metrics.Listen, metrics, log)
	}

	if cfg.Gpsd.Enabled {
		go serveGpsd(ctx, cfg.Gpsd.Listen, sources, log)
	}

	<-ctx.Done()
	log.Info("gnsstimed shutting down")
}

// applyDeviceOverrides applies --device name=path flags on top of the
// loaded config, matching devices by name.
func applyDeviceOverrides(cfg *config.Config, overrides []string) {
	for _, o := range overrides {
		name, path, ok := splitOverride(o)
		if !ok {
			continue
		}
		for i := range cfg.Device {
			if cfg.Device[i].Name == name {
				cfg.Device[i].Path = path
			}
		}
	}
}

func splitOverride(s string) (name, path string, ok bool) {
	for i := range s {
		if s[i] == '=' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

// startDevice wires one configured device end to end: driver selection,
// serial settings, the record bus, the supervisor, and (if configured) the
// PPS engine, precision estimator and SHM writer.
func startDevice(ctx context.Context, dc config.DeviceConfig, busCapacity int, metrics *telemetry.Registry, log *zap.Logger) (gpsd.Source, error) {
	drv, err := selectDriver(dc.GPSType)
	if err != nil {
		return gpsd.Source{}, err
	}

	settings, err := deviceSettings(dc)
	if err != nil {
		return gpsd.Source{}, err
	}

	bus := broadcast.NewBus[nmea.Record](busCapacity)
	deviceLog := logger.WithDevice(dc.Name)
	supervisor := serialport.NewSupervisor(dc.Name, settings, drv, dc.Messages, bus, deviceLog, metrics)
	go supervisor.Run(ctx)

	src := gpsd.Source{Name: dc.Name, Records: bus}

	if dc.PPSDevice != "" {
		engine, err := pps.Open(dc.PPSDevice, deviceLog, metrics)
		if err != nil {
			log.Warn("PPS device unavailable", zap.String("device", dc.Name), zap.Error(err))
		} else {
			src.PPS = broadcast.NewLatest[gnsstime.Timestamp]()
			go relayPPS(ctx, engine, src.PPS)

			var currentPrecision atomicInt32
			src.Precision = currentPrecision.Load
			go runPrecisionLoop(ctx, dc.Name, engine, &currentPrecision, metrics, deviceLog)

			seg, err := ntpshmAttach(dc.NTPUnit)
			if err != nil {
				log.Warn("NTP SHM unit unavailable", zap.String("device", dc.Name), zap.Error(err))
			} else {
				go runSHMWriter(ctx, dc.Name, engine, seg, &currentPrecision, metrics, deviceLog)
			}
		}
	}

	return src, nil
}

func selectDriver(gpsType string) (driver.Driver, error) {
	switch gpsType {
	case "mkt":
		return driver.MKT{}, nil
	case "ublox-nmea":
		return driver.UBloxNMEA{}, nil
	case "generic", "":
		return driver.Generic{}, nil
	default:
		return nil, fmt.Errorf("gnsstimed: unknown gps_type %q", gpsType)
	}
}

// deviceSettings turns the config's "8N1"-style framing string and
// flow_control letter into serialport.Settings.
func deviceSettings(dc config.DeviceConfig) (serialport.Settings, error) {
	if len(dc.Framing) != 3 {
		return serialport.Settings{}, fmt.Errorf("gnsstimed: device %q: invalid framing %q", dc.Name, dc.Framing)
	}
	dataBits, err := strconv.Atoi(string(dc.Framing[0]))
	if err != nil {
		return serialport.Settings{}, fmt.Errorf("gnsstimed: device %q: invalid data bits %q", dc.Name, dc.Framing)
	}

	var parity serialport.Parity
	switch dc.Framing[1] {
	case 'N':
		parity = serialport.ParityNone
	case 'O':
		parity = serialport.ParityOdd
	case 'E':
		parity = serialport.ParityEven
	}

	var stopBits serialport.StopBits
	switch dc.Framing[2] {
	case '1':
		stopBits = serialport.StopBitsOne
	case '2':
		stopBits = serialport.StopBitsTwo
	}

	var flow serialport.FlowControl
	switch dc.FlowControl {
	case "H":
		flow = serialport.FlowControlHardware
	case "S":
		flow = serialport.FlowControlSoftware
	default:
		flow = serialport.FlowControlNone
	}

	return serialport.NewSettings(serialport.Settings{
		Path:        dc.Path,
		BaudRate:    dc.BaudRate,
		DataBits:    serialport.DataBits(dataBits),
		Parity:      parity,
		StopBits:    stopBits,
		FlowControl: flow,
	})
}

// relayPPS forwards an Engine's timestamps onto a second Latest bus shared
// between the gpsd server and the SHM writer, so both can subscribe
// independently of the engine's own internal subscriber bookkeeping.
func relayPPS(ctx context.Context, engine *pps.Engine, out *broadcast.Latest[gnsstime.Timestamp]) {
	sub := engine.Subscribe()
	defer sub.Unsubscribe()
	for {
		select {
		case ts, ok := <-sub.C():
			if !ok {
				return
			}
			out.Publish(ts)
		case <-ctx.Done():
			return
		}
	}
}

func runPrecisionLoop(ctx context.Context, name string, engine *pps.Engine, current *atomicInt32, metrics *telemetry.Registry, log *zap.Logger) {
	est := precision.Default()
	sub := engine.Subscribe()
	defer sub.Unsubscribe()

	for ctx.Err() == nil {
		p, err := est.Measure(ctx, sub.C())
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("precision measurement failed", zap.Error(err))
			continue
		}
		current.Store(p)
		metrics.PrecisionExponent(name, p)
	}
}

// ntpshmAttach attaches the configured SHM unit. Every device that carries a
// pps_device is expected to also carry an ntp_unit, per the sample config.
func ntpshmAttach(unit int) (*ntpshm.Segment, error) {
	return ntpshm.Attach(unit)
}

// runSHMWriter relays PPS edges into the SHM segment, keeping the writer's
// precision in step with the live estimate from runPrecisionLoop.
func runSHMWriter(ctx context.Context, name string, engine *pps.Engine, seg *ntpshm.Segment, current *atomicInt32, metrics *telemetry.Registry, log *zap.Logger) {
	defer seg.Detach()

	w := ntpshm.NewWriter(seg, 0, current.Load(), metrics, name)
	sub := engine.Subscribe()
	defer sub.Unsubscribe()

	for {
		select {
		case ts, ok := <-sub.C():
			if !ok {
				return
			}
			w.SetPrecision(current.Load())
			w.Write(ts)
		case <-ctx.Done():
			return
		}
	}
}

func serveMetrics(ctx context.Context, listen string, metrics *telemetry.Registry, log *zap.Logger) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	metrics.Mount(app, "/metrics")

	go func() {
		<-ctx.Done()
		app.Shutdown()
	}()

	log.Info("metrics server listening", zap.String("addr", listen))
	if err := app.Listen(listen); err != nil {
		log.Error("metrics server stopped", zap.Error(err))
	}
}

func serveGpsd(ctx context.Context, listen string, sources []gpsd.Source, log *zap.Logger) {
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		log.Error("gpsd server failed to bind", zap.String("addr", listen), zap.Error(err))
		return
	}

	server := gpsd.New(sources, log.Named("gpsd"))
	log.Info("gpsd server listening", zap.String("addr", listen))
	if err := server.Serve(ctx, ln); err != nil {
		log.Error("gpsd server stopped", zap.Error(err))
	}
}

// atomicInt32 is the small shared cell the precision loop writes to and the
// gpsd PPS stream and SHM writer both read from.
type atomicInt32 struct{ v int32 }

func (a *atomicInt32) Store(p int32) { atomic.StoreInt32(&a.v, p) }
func (a *atomicInt32) Load() int32   { return atomic.LoadInt32(&a.v) }
