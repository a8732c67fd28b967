// Package gpsd implements a minimal, spec-faithful subset of the
// gpsd-compatible line-delimited JSON protocol: VERSION/DEVICES on
// connect, then TPV, SKY and PPS classes streamed to clients that send
// ?WATCH={"enable":true}. It is a thin wire translation layer with no
// clock-discipline logic of its own; POLL, ?DEVICES management and the
// old wire protocol are not implemented.
package gpsd

// protoMajor/protoMinor mirror the gpsd wire protocol version this server
// claims to speak.
const (
	protoMajor = 3
	protoMinor = 14
)

// Version is the VERSION class sent once a client connects.
type Version struct {
	Class      string `json:"class"`
	Release    string `json:"release"`
	Rev        string `json:"rev"`
	ProtoMajor int    `json:"proto_major"`
	ProtoMinor int    `json:"proto_minor"`
}

// Device is one entry in a DEVICES response.
type Device struct {
	Path   string `json:"path"`
	Native int    `json:"native"`
}

// Devices is the DEVICES class sent once a client connects, listing every
// configured receiver.
type Devices struct {
	Class   string   `json:"class"`
	Devices []Device `json:"devices"`
}

// Watch is both the client's ?WATCH request body and the WATCH
// acknowledgement this server echoes back.
type Watch struct {
	Class  string  `json:"class"`
	Enable bool    `json:"enable"`
	JSON   bool    `json:"json"`
	Device *string `json:"device,omitempty"`
}

// TPV is the gpsd time-position-velocity class, built from the latest
// RMC/GGA fix on one device.
type TPV struct {
	Class string  `json:"class"`
	Device string `json:"device"`
	Mode   int    `json:"mode"` // 0=unknown, 1=no fix, 2=2D, 3=3D
	Time   string `json:"time,omitempty"`
	Lat    *float64 `json:"lat,omitempty"`
	Lon    *float64 `json:"lon,omitempty"`
	Alt    *float64 `json:"altHAE,omitempty"`
	Speed  *float64 `json:"speed,omitempty"`
	Track  *float64 `json:"track,omitempty"`
}

// Satellite is one entry of a SKY class's satellite list, built from a GSV
// slot plus the used/unused flag a matching GSA carries.
type Satellite struct {
	PRN       int  `json:"PRN"`
	Azimuth   *int `json:"az,omitempty"`
	Elevation *int `json:"el,omitempty"`
	SNR       *int `json:"ss,omitempty"`
	Used      bool `json:"used"`
}

// SKY is the gpsd satellite-sky-view class, assembled from the satellites
// of one complete GSV group plus the most recent GSA's DOP figures and
// used-satellite list.
type SKY struct {
	Class      string      `json:"class"`
	Device     string      `json:"device"`
	HDOP       *float64    `json:"hdop,omitempty"`
	PDOP       *float64    `json:"pdop,omitempty"`
	VDOP       *float64    `json:"vdop,omitempty"`
	Satellites []Satellite `json:"satellites"`
}

// PPS is the gpsd PPS class, built from one PPS engine's Timestamp.
type PPS struct {
	Class     string `json:"class"`
	Device    string `json:"device"`
	RealSec   int64  `json:"real_sec"`
	RealNsec  uint32 `json:"real_nsec"`
	ClockSec  int64  `json:"clock_sec"`
	ClockNsec uint32 `json:"clock_nsec"`
	Precision int32  `json:"precision"`
}

// ErrorMessage is sent back for a request this server can't make sense of.
type ErrorMessage struct {
	Class   string `json:"class"`
	Message string `json:"message"`
}
