// Package gnsstime holds the small value types shared by every layer of the
// time/NMEA pipeline: the reference/received timestamp pair and the
// per-sentence output configuration handed to a driver.
package gnsstime

import "time"

// Timestamp pairs a reference-clock instant (a PPS edge or a GNSS
// time-of-fix) with the host wall-clock reading taken when that instant was
// observed. Every Timestamp this daemon produces itself carries Leap 0: no
// component derives a real leap indicator.
type Timestamp struct {
	Leap          int32
	ReferenceSec  int64
	ReferenceNsec uint32
	ReceivedSec   int64
	ReceivedNsec  uint32
}

// Now captures the current wall clock as a Timestamp's received half. It is
// used wherever a component needs to stamp "when did we observe this" without
// yet knowing the reference half.
func Now() (sec int64, nsec uint32) {
	t := time.Now()
	return t.Unix(), uint32(t.Nanosecond())
}

// FromReceived builds a Timestamp whose reference fields equal the given
// wall-clock reading, for sources (e.g. a GNSS time-of-fix) that have no
// independent reference clock.
func FromReceived(received time.Time) Timestamp {
	return Timestamp{
		ReferenceSec:  received.Unix(),
		ReferenceNsec: uint32(received.Nanosecond()),
		ReceivedSec:   received.Unix(),
		ReceivedNsec:  uint32(received.Nanosecond()),
	}
}

// MessageSetting is a per-sentence output request handed to a driver's
// Configure at device-configuration time.
type MessageSetting struct {
	ID      string
	Enabled bool
}
