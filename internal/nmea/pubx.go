package nmea

import "time"

// UBXNavStatus is u-blox's two-letter navigation status code (PUBX,00).
type UBXNavStatus int

const (
	UBXNavNoFix UBXNavStatus = iota
	UBXNavDeadReckoning
	UBXNavStandalone2D
	UBXNavStandalone3D
	UBXNavDifferential2D
	UBXNavDifferential3D
	UBXNavCombined
	UBXNavTimeOnly
	UBXNavUnknown
)

// UBXPosition is the PUBX,00 private position sentence.
type UBXPosition struct {
	base
	Time               time.Duration
	Position           *LatLon
	AltRef             float64
	NavStatus          UBXNavStatus
	NavStatusRaw       string
	HorizontalAccuracy float64
	VerticalAccuracy   float64
	SpeedOverGround    float64
	CourseOverGround   float64
	VerticalVelocity   float64
	DiffAge            *int
	HDOP               float64
	VDOP               float64
	TDOP               float64
	NumSats            int
}

func (UBXPosition) Kind() Kind { return KindPUBXPosition }

// NewUBXPosition builds a PUBX,00 record. Exported so the driver package,
// which decodes the private PUBX family, can construct one without
// reaching into nmea's unexported base field.
func NewUBXPosition(received time.Time, p UBXPosition) UBXPosition {
	p.base = base{received}
	return p
}

// UBXSatelliteInfo is one satellite entry in a PUBX,03 sentence.
type UBXSatelliteInfo struct {
	ID        int
	Status    string
	Azimuth   int
	Elevation int
	CNo       int
	Lock      int
}

// UBXSatellites is the PUBX,03 private satellite-status sentence.
type UBXSatellites struct {
	base
	NumSats    int
	Satellites []UBXSatelliteInfo
}

func (UBXSatellites) Kind() Kind { return KindPUBXSatellites }

// NewUBXSatellites builds a PUBX,03 record.
func NewUBXSatellites(received time.Time, s UBXSatellites) UBXSatellites {
	s.base = base{received}
	return s
}

// UBXTime is the PUBX,04 private time sentence.
type UBXTime struct {
	base
	Time        time.Duration
	Date        string
	UTCTow      float64
	UTCWeek     int
	LeapSec     *int
	ClkBias     float64
	ClkDrift    float64
	TPGranularity int
}

func (UBXTime) Kind() Kind { return KindPUBXTime }

// NewUBXTime builds a PUBX,04 record.
func NewUBXTime(received time.Time, t UBXTime) UBXTime {
	t.base = base{received}
	return t
}
