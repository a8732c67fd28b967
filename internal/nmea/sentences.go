package nmea

import "time"

// Kind discriminates the concrete type behind a Record.
type Kind int

const (
	KindDTM Kind = iota
	KindGAQ
	KindGBQ
	KindGLQ
	KindGNQ
	KindGPQ
	KindGBS
	KindGGA
	KindGLL
	KindGRS
	KindGSA
	KindGST
	KindGSV
	KindRMC
	KindTXT
	KindVLW
	KindVTG
	KindZDA
	KindPUBXPosition
	KindPUBXSatellites
	KindPUBXTime
	KindMKTSystemMessage
	KindMKTTextMessage
	KindInvalidChecksum
	KindParseError
	KindParseFailure
	KindUnsupported
)

// Record is the sum type of every outcome the parser can produce for one
// sentence body: a decoded sentence, a private-family variant, or one of
// the error shapes below.
type Record interface {
	Kind() Kind
	ReceivedAt() time.Time
}

// base is embedded by every concrete record to carry the wall-clock
// "received" timestamp captured by the framer.
type base struct {
	Received time.Time
}

func (b base) ReceivedAt() time.Time { return b.Received }

// NorthSouth is a latitude hemisphere letter.
type NorthSouth int

const (
	North NorthSouth = iota
	South
)

// EastWest is a longitude hemisphere letter.
type EastWest int

const (
	East EastWest = iota
	West
)

// LatLon is a decoded, signed-decimal-degree position. Lat/lon are either
// both present or both absent, so callers model this as a single optional
// pointer rather than two independent ones.
type LatLon struct {
	Lat float64
	Lon float64
}

// FixQuality is GGA's quality field.
type FixQuality int

const (
	FixInvalid FixQuality = iota
	FixAutonomousGNSS
	FixDifferentialGNSS
	FixPPS
	FixRTKFixed
	FixRTKFloat
	FixEstimated
	FixManual
	FixSimulation
)

// GSASatellites holds the 12 optional satellite id slots of a GSA sentence.
type GSASatellites [12]*int

// DTM is a "datum being used" sentence.
type DTM struct {
	base
	Talker    Talker
	Datum     string
	SubDatum  string
	Lat       float64
	NS        NorthSouth
	Lon       float64
	EW        EastWest
	Alt       float64
	RefDatum  string
}

func (DTM) Kind() Kind { return KindDTM }

// GAQ/GBQ/GLQ/GNQ/GPQ are poll sentences requesting another sentence by id.
type Poll struct {
	base
	PollKind  Kind
	Talker    Talker
	MessageID string
}

func (p Poll) Kind() Kind { return p.PollKind }

// GBS is a GNSS satellite fault detection sentence.
type GBS struct {
	base
	Time      *time.Duration
	ErrLat    float64
	ErrLon    float64
	ErrAlt    float64
	SVID      *int
	Prob      *float64
	Bias      *float64
	StdDev    *float64
	System    *string
	Signal    *string
}

func (GBS) Kind() Kind { return KindGBS }

// GGA is the standard position-fix sentence.
type GGA struct {
	base
	Time        time.Duration
	Position    *LatLon
	Quality     FixQuality
	NumSats     int
	HDOP        *float64
	Altitude    *float64
	AltUnit     string
	Sep         *float64
	SepUnit     string
	DiffAge     *float64
	DiffStation *int
}

func (GGA) Kind() Kind { return KindGGA }

// PositionMode is used by GLL, RMC, VTG for the reported solution type.
type PositionMode int

const (
	ModeNoFix PositionMode = iota
	ModeAutonomous
	ModeDifferential
	ModeEstimated
	ModeRTKFloat
	ModeRTKFixed
)

// GLL is a geographic latitude/longitude sentence.
type GLL struct {
	base
	Position     *LatLon
	Time         time.Duration
	Status       bool
	PositionMode PositionMode
}

func (GLL) Kind() Kind { return KindGLL }

// GRS is a GNSS range residuals sentence.
type GRS struct {
	base
	Time             time.Duration
	ResidualsInGGA   bool
	Residuals        [12]*float64
	System           string
	Signal           *string
}

func (GRS) Kind() Kind { return KindGRS }

// GSA is a DOP and active satellites sentence.
type GSA struct {
	base
	OperationMode string
	NavMode       int
	Satellites    GSASatellites
	PDOP          *float64
	HDOP          *float64
	VDOP          *float64
	System        *string
}

func (GSA) Kind() Kind { return KindGSA }

// GST is a pseudorange error statistics sentence.
type GST struct {
	base
	Time        time.Duration
	RangeRMS    *float64
	StdMajor    *float64
	StdMinor    *float64
	Orientation *float64
	StdLat      *float64
	StdLon      *float64
	StdAlt      *float64
}

func (GST) Kind() Kind { return KindGST }

// Satellite is one entry of a GSV message.
type Satellite struct {
	ID         int
	Elevation  *int
	Azimuth    *int
	CNo        *int
}

// GSV is a satellites-in-view sentence, one of a possibly multi-sentence set.
type GSV struct {
	base
	NumMessages int
	MessageNum  int
	NumSats     int
	Satellites  []Satellite
	Signal      *string
}

func (GSV) Kind() Kind { return KindGSV }

// NavStatus is RMC's optional navigational status field.
type NavStatus int

const (
	NavStatusNone NavStatus = iota
	NavStatusSafe
	NavStatusCaution
	NavStatusUnsafe
	NavStatusNotValid
)

// RMC is the recommended-minimum navigation sentence.
type RMC struct {
	base
	Time       time.Duration
	Status     bool
	Position   *LatLon
	SpeedKnots float64
	Course     *float64
	Date       string // DDMMYY, kept as provided
	MagVar     *float64
	MagVarEW   *EastWest
	PositionMode PositionMode
	NavStatus  *NavStatus
}

func (RMC) Kind() Kind { return KindRMC }

// TXT is a free-text transmission sentence, one of a possibly
// multi-sentence set.
type TXT struct {
	base
	NumMessages int
	MessageNum  int
	TextType    int
	Text        string
}

func (TXT) Kind() Kind { return KindTXT }

// VLW is a distance-traveled sentence.
type VLW struct {
	base
	TotalWaterDistance   float64
	TotalWaterUnit       string
	WaterDistance        float64
	WaterUnit            string
	TotalGroundDistance  float64
	TotalGroundUnit      string
	GroundDistance       float64
	GroundUnit           string
}

func (VLW) Kind() Kind { return KindVLW }

// VTG is course-and-speed-over-ground sentence.
type VTG struct {
	base
	CourseTrue     *float64
	CourseTrueUnit string
	CourseMag      *float64
	CourseMagUnit  string
	SpeedKnots     float64
	SpeedKnotsUnit string
	SpeedKmh       float64
	SpeedKmhUnit   string
	PositionMode   PositionMode
}

func (VTG) Kind() Kind { return KindVTG }

// ZDA is a UTC time-and-date sentence. Every field may be absent.
type ZDA struct {
	base
	Time     *time.Duration
	Day      *int
	Month    *int
	Year     *int
	TZHour   int
	TZMinute int
}

func (ZDA) Kind() Kind { return KindZDA }

// InvalidChecksum is the non-fatal outcome produced when a framed
// sentence's checksum does not match.
type InvalidChecksum struct {
	base
	Body       string
	Given      byte
	Calculated byte
}

func (InvalidChecksum) Kind() Kind { return KindInvalidChecksum }

// ParseError wraps a framing-level failure: non-UTF-8 input.
type ParseError struct {
	base
	Text string
}

func (ParseError) Kind() Kind { return KindParseError }

// ParseFailure wraps a parser-level failure: a body that framed and
// checksummed correctly but did not match any known sentence shape.
type ParseFailure struct {
	base
	Text string
}

func (ParseFailure) Kind() Kind { return KindParseFailure }

// NewParseFailure builds a ParseFailure record. Exported so drivers decoding
// private sentence families can report a malformed body the same way the
// standard-sentence dispatcher does.
func NewParseFailure(received time.Time, text string) ParseFailure {
	return ParseFailure{base: base{received}, Text: text}
}

// Unsupported is returned for a syntactically well-formed but unrecognized
// talker+sentence pair.
type Unsupported struct {
	base
	Body string
}

func (Unsupported) Kind() Kind { return KindUnsupported }

// NewUnsupported builds an Unsupported record for a syntactically valid but
// unrecognized private-family body.
func NewUnsupported(received time.Time, body string) Unsupported {
	return Unsupported{base: base{received}, Body: body}
}
