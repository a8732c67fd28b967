package driver

import (
	"time"

	"github.com/gnsstimed/gnsstimed/internal/gnsstime"
	"github.com/gnsstimed/gnsstimed/internal/nmea"
)

// Generic is the fallback driver for receivers with no known private
// sentence family and nothing to configure.
type Generic struct{}

func (Generic) EnumerateMessages(desired []string) []gnsstime.MessageSetting { return nil }

func (Generic) Configure(messages []gnsstime.MessageSetting) []string { return nil }

func (Generic) ParsePrivate(body string, received time.Time) (nmea.Record, error) {
	return nmea.NewUnsupported(received, body), nil
}
