package driver

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gnsstimed/gnsstimed/internal/gnsstime"
	"github.com/gnsstimed/gnsstimed/internal/nmea"
)

// ubloxMessages is the fixed set of standard sentences a u-blox NMEA
// receiver can be asked to enable or disable.
var ubloxMessages = []string{
	"DTM", "GBS", "GGA", "GLL", "GNS", "GRS", "GSA", "GST", "GSV",
	"RLM", "RMC", "TXT", "VLW", "VTG", "ZDA",
}

// UBloxNMEA drives u-blox receivers operating in NMEA mode (as opposed to
// the binary UBX protocol, which is out of scope).
type UBloxNMEA struct{}

func (UBloxNMEA) EnumerateMessages(desired []string) []gnsstime.MessageSetting {
	settings := make([]gnsstime.MessageSetting, 0, len(ubloxMessages))

	wantAll := len(desired) == 0
	want := make(map[string]bool, len(desired))
	for _, id := range desired {
		want[id] = true
	}

	for _, id := range ubloxMessages {
		settings = append(settings, gnsstime.MessageSetting{ID: id, Enabled: wantAll || want[id]})
	}

	return settings
}

// Configure renders each setting as a PUBX,40 rate frame:
// only USART1 (rus1) toggles with Enabled, every other rate stays 0.
func (UBloxNMEA) Configure(messages []gnsstime.MessageSetting) []string {
	frames := make([]string, 0, len(messages))
	for _, m := range messages {
		rus1 := 0
		if m.Enabled {
			rus1 = 1
		}
		body := fmt.Sprintf("PUBX,40,%s,0,%d,0,0,0,0", m.ID, rus1)
		frames = append(frames, nmea.Format(body))
	}
	return frames
}

func (UBloxNMEA) ParsePrivate(body string, received time.Time) (nmea.Record, error) {
	fields := strings.Split(body, ",")
	if len(fields) < 2 {
		return nmea.NewParseFailure(received, "PUBX: too few fields"), nil
	}

	switch fields[1] {
	case "00":
		return parseUBXPosition(fields, received)
	case "03":
		return parseUBXSatellites(fields, received)
	case "04":
		return parseUBXTime(fields, received)
	default:
		return nmea.NewUnsupported(received, body), nil
	}
}

func at(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

func ubxFloat(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func ubxInt(s string) int {
	v, _ := strconv.Atoi(strings.TrimSpace(s))
	return v
}

func ubxOptInt(s string) *int {
	if s == "" {
		return nil
	}
	v := ubxInt(s)
	return &v
}

func ubxLatLon(latStr, nsStr, lonStr, ewStr string) *nmea.LatLon {
	if latStr == "" || nsStr == "" || lonStr == "" || ewStr == "" {
		return nil
	}
	if len(latStr) < 2 || len(lonStr) < 3 {
		return nil
	}

	latDeg := ubxFloat(latStr[:2])
	latMin := ubxFloat(latStr[2:])
	lat := latDeg + latMin/60.0
	if nsStr == "S" {
		lat = -lat
	}

	lonDeg := ubxFloat(lonStr[:3])
	lonMin := ubxFloat(lonStr[3:])
	lon := lonDeg + lonMin/60.0
	if ewStr == "W" {
		lon = -lon
	}

	return &nmea.LatLon{Lat: lat, Lon: lon}
}

func ubxTimeOfDay(s string) time.Duration {
	if len(s) < 6 {
		return 0
	}
	hh := ubxInt(s[0:2])
	mm := ubxInt(s[2:4])
	ss := ubxFloat(s[4:])
	return time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute + time.Duration(ss*float64(time.Second))
}

func ubxNavStatus(s string) nmea.UBXNavStatus {
	switch s {
	case "NF":
		return nmea.UBXNavNoFix
	case "DR":
		return nmea.UBXNavDeadReckoning
	case "G2":
		return nmea.UBXNavStandalone2D
	case "G3":
		return nmea.UBXNavStandalone3D
	case "D2":
		return nmea.UBXNavDifferential2D
	case "D3":
		return nmea.UBXNavDifferential3D
	case "RK":
		return nmea.UBXNavCombined
	case "TT":
		return nmea.UBXNavTimeOnly
	default:
		return nmea.UBXNavUnknown
	}
}

// parseUBXPosition decodes a PUBX,00 position report.
func parseUBXPosition(f []string, received time.Time) (nmea.Record, error) {
	if len(f) < 21 {
		return nmea.NewParseFailure(received, "PUBX,00: too few fields"), nil
	}

	p := nmea.UBXPosition{
		Time:               ubxTimeOfDay(at(f, 2)),
		Position:           ubxLatLon(at(f, 3), at(f, 4), at(f, 5), at(f, 6)),
		AltRef:             ubxFloat(at(f, 7)),
		NavStatus:          ubxNavStatus(at(f, 8)),
		NavStatusRaw:       at(f, 8),
		HorizontalAccuracy: ubxFloat(at(f, 9)),
		VerticalAccuracy:   ubxFloat(at(f, 10)),
		SpeedOverGround:    ubxFloat(at(f, 11)),
		CourseOverGround:   ubxFloat(at(f, 12)),
		VerticalVelocity:   ubxFloat(at(f, 13)),
		DiffAge:            ubxOptInt(at(f, 14)),
		HDOP:               ubxFloat(at(f, 15)),
		VDOP:               ubxFloat(at(f, 16)),
		TDOP:               ubxFloat(at(f, 17)),
		NumSats:            ubxInt(at(f, 18)),
	}

	return nmea.NewUBXPosition(received, p), nil
}

// parseUBXSatellites decodes PUBX,03: a satellite count followed by
// 6-field groups of {id, status, azimuth, elevation, cno, lock}.
func parseUBXSatellites(f []string, received time.Time) (nmea.Record, error) {
	if len(f) < 3 {
		return nmea.NewParseFailure(received, "PUBX,03: too few fields"), nil
	}
	rest := f[3:]

	var sats []nmea.UBXSatelliteInfo
	for i := 0; i+6 <= len(rest); i += 6 {
		sats = append(sats, nmea.UBXSatelliteInfo{
			ID:        ubxInt(rest[i]),
			Status:    rest[i+1],
			Azimuth:   ubxInt(rest[i+2]),
			Elevation: ubxInt(rest[i+3]),
			CNo:       ubxInt(rest[i+4]),
			Lock:      ubxInt(rest[i+5]),
		})
	}

	s := nmea.UBXSatellites{NumSats: len(sats), Satellites: sats}
	return nmea.NewUBXSatellites(received, s), nil
}

// parseUBXTime decodes PUBX,04.
func parseUBXTime(f []string, received time.Time) (nmea.Record, error) {
	if len(f) < 9 {
		return nmea.NewParseFailure(received, "PUBX,04: too few fields"), nil
	}

	leapStr := strings.TrimSuffix(at(f, 6), "D")

	t := nmea.UBXTime{
		Time:          ubxTimeOfDay(at(f, 2)),
		Date:          at(f, 3),
		UTCTow:        ubxFloat(at(f, 4)),
		UTCWeek:       ubxInt(at(f, 5)),
		LeapSec:       ubxOptInt(leapStr),
		ClkBias:       ubxFloat(at(f, 7)),
		ClkDrift:      ubxFloat(at(f, 8)),
		TPGranularity: ubxInt(at(f, 9)),
	}

	return nmea.NewUBXTime(received, t), nil
}
