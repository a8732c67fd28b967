package driver

import (
	"strconv"
	"strings"
	"time"

	"github.com/gnsstimed/gnsstimed/internal/gnsstime"
	"github.com/gnsstimed/gnsstimed/internal/nmea"
)

// MKT drives GlobalTop/MediaTek (PMTK) chipsets. It has nothing to
// configure over NMEA; it only decodes the vendor-private PMTK family.
type MKT struct{}

func (MKT) EnumerateMessages(desired []string) []gnsstime.MessageSetting { return nil }

func (MKT) Configure(messages []gnsstime.MessageSetting) []string { return nil }

func (MKT) ParsePrivate(body string, received time.Time) (nmea.Record, error) {
	switch {
	case strings.HasPrefix(body, "PMTK010,"):
		code, err := strconv.ParseUint(strings.TrimPrefix(body, "PMTK010,"), 10, 32)
		if err != nil {
			return nmea.NewParseFailure(received, "PMTK010: "+err.Error()), nil
		}
		return nmea.NewMKTSystemMessage(received, mktSystemMessageKind(uint32(code)), uint32(code)), nil
	case strings.HasPrefix(body, "PMTK011,"):
		return nmea.NewMKTTextMessage(received, strings.TrimPrefix(body, "PMTK011,")), nil
	default:
		return nmea.NewUnsupported(received, body), nil
	}
}

func mktSystemMessageKind(code uint32) nmea.MKTSystemMessageKind {
	switch code {
	case 0:
		return nmea.MKTUnknown
	case 1:
		return nmea.MKTStartup
	case 2:
		return nmea.MKTExtendedPredictionOrbit
	case 3:
		return nmea.MKTNormal
	default:
		return nmea.MKTUnhandled
	}
}
