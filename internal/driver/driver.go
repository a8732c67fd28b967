// Package driver implements the per-receiver configuration and
// private-sentence strategies for Generic, MKT, and u-blox NMEA. Each
// knows which standard sentences to enable, how to serialize that as
// device configuration, and how to decode its own vendor-private NMEA
// sentence family.
package driver

import (
	"time"

	"github.com/gnsstimed/gnsstimed/internal/gnsstime"
	"github.com/gnsstimed/gnsstimed/internal/nmea"
)

// Driver is implemented by every receiver strategy. It satisfies
// nmea.PrivateParser so a Driver can be handed directly to nmea.Parse/Reader.
type Driver interface {
	// EnumerateMessages returns, for every sentence this driver knows how to
	// toggle, whether it should be enabled given the caller's desired set.
	EnumerateMessages(desired []string) []gnsstime.MessageSetting
	// Configure renders the settings as the device's native configuration
	// frames. Drivers with nothing to send return nil.
	Configure(messages []gnsstime.MessageSetting) []string
	ParsePrivate(body string, received time.Time) (nmea.Record, error)
}
