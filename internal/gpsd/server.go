package gpsd

import (
	"context"
	"net"

	"go.uber.org/zap"

	"github.com/gnsstimed/gnsstimed/internal/broadcast"
	"github.com/gnsstimed/gnsstimed/internal/gnsstime"
	"github.com/gnsstimed/gnsstimed/internal/nmea"
)

// Source is one configured device's published streams, as the gpsd server
// sees it: a record bus for TPV, an optional PPS latest-value channel, and
// the device's current precision exponent for the PPS class.
type Source struct {
	Name      string
	Records   *broadcast.Bus[nmea.Record]
	PPS       *broadcast.Latest[gnsstime.Timestamp]
	Precision func() int32
}

// Server accepts TCP clients and streams gpsd-compatible JSON lines built
// from a fixed set of Sources. One goroutine runs the accept loop; one more
// runs per connected client, and one more per device (two for a device with
// PPS) once that client sends ?WATCH={"enable":true}.
type Server struct {
	sources []Source
	logger  *zap.Logger
}

// New builds a Server over the given sources. sources is not copied further
// and must not be mutated after Serve starts.
func New(sources []Source, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{sources: sources, logger: logger}
}

// Serve runs the accept loop until ctx is cancelled or ln.Accept fails.
// Closing ln (which cancellation does) is what unblocks Accept.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.handleClient(ctx, conn)
	}
}

func (s *Server) devicesResponse() Devices {
	devices := make([]Device, 0, len(s.sources))
	for _, src := range s.sources {
		devices = append(devices, Device{Path: src.Name, Native: 1})
	}
	return Devices{Class: "DEVICES", Devices: devices}
}
