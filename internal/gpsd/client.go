package gpsd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gnsstimed/gnsstimed/internal/nmea"
)

// client owns one accepted connection. Writes from the reader goroutine and
// from every per-device streaming goroutine all funnel through send, which
// serializes them onto the wire.
type client struct {
	conn   net.Conn
	mu     sync.Mutex
	enc    *json.Encoder
	logger *zap.Logger
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enc.Encode(v)
}

// handleClient sends the VERSION/DEVICES greeting, then reads commands from
// the client until it disconnects or ctx is cancelled. ?WATCH={"enable":true}
// starts, per source, one goroutine streaming TPV/SKY classes and, for a
// source with PPS, a second one streaming PPS classes; any later
// ?WATCH={"enable":false} (or the connection closing) tears them down.
func (s *Server) handleClient(parent context.Context, conn net.Conn) {
	defer conn.Close()
	logger := s.logger.With(zap.String("client", conn.RemoteAddr().String()))
	c := &client{conn: conn, enc: json.NewEncoder(conn), logger: logger}

	if err := c.send(Version{Class: "VERSION", Release: "gnsstimed", ProtoMajor: protoMajor, ProtoMinor: protoMinor}); err != nil {
		return
	}
	if err := c.send(s.devicesResponse()); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var streaming bool
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		watch, err := parseWatchCommand(line)
		if err != nil {
			_ = c.send(ErrorMessage{Class: "ERROR", Message: err.Error()})
			continue
		}
		if watch == nil {
			_ = c.send(ErrorMessage{Class: "ERROR", Message: "unrecognized command"})
			continue
		}

		if watch.Enable && !streaming {
			streaming = true
			s.startStreaming(ctx, c)
		} else if !watch.Enable && streaming {
			cancel()
			return
		}
		_ = c.send(Watch{Class: "WATCH", Enable: watch.Enable, JSON: true})
	}
}

// parseWatchCommand recognizes a single ?WATCH={...} request line. Anything
// else (?DEVICES, ?POLL, the old text protocol) is out of scope here; a nil,
// nil result means "not a command this server understands".
func parseWatchCommand(line []byte) (*Watch, error) {
	const prefix = "?WATCH="
	if !bytes.HasPrefix(line, []byte(prefix)) {
		return nil, nil
	}
	body := bytes.TrimSuffix(line[len(prefix):], []byte(";"))

	var req struct {
		Enable *bool `json:"enable"`
		JSON   *bool `json:"json"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("malformed ?WATCH body: %w", err)
	}

	w := &Watch{Class: "WATCH"}
	if req.Enable != nil {
		w.Enable = *req.Enable
	}
	if req.JSON != nil {
		w.JSON = *req.JSON
	}
	return w, nil
}

func (s *Server) startStreaming(ctx context.Context, c *client) {
	for _, src := range s.sources {
		src := src
		go streamRecords(ctx, src, c)
		if src.PPS != nil {
			go streamPPS(ctx, src, c)
		}
	}
}

// fix accumulates the most recent GGA/RMC fields seen on one device so a TPV
// can be emitted with whatever subset of position/velocity is currently
// known, rather than only on the sentence that happens to carry all of it.
type fix struct {
	mode  int
	time  string
	lat   *float64
	lon   *float64
	alt   *float64
	speed *float64
	track *float64
}

func (f *fix) apply(rec nmea.Record) bool {
	switch r := rec.(type) {
	case nmea.GGA:
		if r.Position != nil {
			lat, lon := r.Position.Lat, r.Position.Lon
			f.lat, f.lon = &lat, &lon
		}
		f.alt = r.Altitude
		if r.Quality == nmea.FixInvalid {
			f.mode = 1
		} else {
			f.mode = 3
		}
		return true
	case nmea.RMC:
		if r.Position != nil {
			lat, lon := r.Position.Lat, r.Position.Lon
			f.lat, f.lon = &lat, &lon
		}
		speed := r.SpeedKnots * 0.514444
		f.speed = &speed
		f.track = r.Course
		if !r.Status && f.mode < 3 {
			f.mode = 1
		} else if r.Status && f.mode < 3 {
			f.mode = 2
		}
		if t := formatFixTime(r.Date, r.Time); t != "" {
			f.time = t
		}
		return true
	default:
		return false
	}
}

// formatFixTime combines RMC's DDMMYY date with a time-of-day duration into
// an ISO8601 UTC string. Two-digit years are resolved against the 2000s,
// the common convention for receivers built this century.
func formatFixTime(date string, tod time.Duration) string {
	if len(date) != 6 {
		return ""
	}
	dd, err1 := strconv.Atoi(date[0:2])
	mm, err2 := strconv.Atoi(date[2:4])
	yy, err3 := strconv.Atoi(date[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return ""
	}
	day := time.Date(2000+yy, time.Month(mm), dd, 0, 0, 0, 0, time.UTC)
	return day.Add(tod).Format("2006-01-02T15:04:05.000Z")
}

func (f *fix) tpv(device string) TPV {
	return TPV{
		Class:  "TPV",
		Device: device,
		Mode:   f.mode,
		Time:   f.time,
		Lat:    f.lat,
		Lon:    f.lon,
		Alt:    f.alt,
		Speed:  f.speed,
		Track:  f.track,
	}
}

func streamRecords(ctx context.Context, src Source, c *client) {
	sub := src.Records.Subscribe()
	defer sub.Unsubscribe()

	fixState := &fix{}
	skyState := &skyView{}
	for {
		select {
		case rec, ok := <-sub.C():
			if !ok {
				return
			}
			if fixState.apply(rec) {
				if err := c.send(fixState.tpv(src.Name)); err != nil {
					return
				}
			}
			if skyState.apply(rec) {
				if err := c.send(skyState.sky(src.Name)); err != nil {
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// skyView accumulates one GSV group's satellites plus the most recent GSA's
// DOP figures and used-satellite list, emitting a SKY class each time a GSV
// group completes (MessageNum == NumMessages).
type skyView struct {
	pending []nmea.Satellite
	used    map[int]bool
	hdop    *float64
	pdop    *float64
	vdop    *float64
}

func (s *skyView) apply(rec nmea.Record) bool {
	switch r := rec.(type) {
	case nmea.GSA:
		s.hdop, s.pdop, s.vdop = r.HDOP, r.PDOP, r.VDOP
		s.used = make(map[int]bool)
		for _, id := range r.Satellites {
			if id != nil {
				s.used[*id] = true
			}
		}
		return false
	case nmea.GSV:
		if r.MessageNum <= 1 {
			s.pending = nil
		}
		s.pending = append(s.pending, r.Satellites...)
		return r.MessageNum >= r.NumMessages
	default:
		return false
	}
}

func (s *skyView) sky(device string) SKY {
	sats := make([]Satellite, 0, len(s.pending))
	for _, sat := range s.pending {
		sats = append(sats, Satellite{
			PRN:       sat.ID,
			Azimuth:   sat.Azimuth,
			Elevation: sat.Elevation,
			SNR:       sat.CNo,
			Used:      s.used[sat.ID],
		})
	}
	return SKY{
		Class:      "SKY",
		Device:     device,
		HDOP:       s.hdop,
		PDOP:       s.pdop,
		VDOP:       s.vdop,
		Satellites: sats,
	}
}

func streamPPS(ctx context.Context, src Source, c *client) {
	sub := src.PPS.Subscribe()
	defer sub.Unsubscribe()

	for {
		select {
		case ts, ok := <-sub.C():
			if !ok {
				return
			}
			precision := int32(0)
			if src.Precision != nil {
				precision = src.Precision()
			}
			pps := PPS{
				Class:     "PPS",
				Device:    src.Name,
				RealSec:   ts.ReferenceSec,
				RealNsec:  ts.ReferenceNsec,
				ClockSec:  ts.ReceivedSec,
				ClockNsec: ts.ReceivedNsec,
				Precision: precision,
			}
			if err := c.send(pps); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
