// Package nmea implements the byte-stream sentence framer and the
// sentence-body parser: turning a raw serial byte stream into typed
// Records.
package nmea

import (
	"strings"
	"time"
)

// PrivateParser decodes a PUBX/PMTK private-family body into a Record. It is
// implemented by the active driver (internal/driver) and injected here so
// this package never imports the driver package.
type PrivateParser interface {
	ParsePrivate(body string, received time.Time) (Record, error)
}

// Parse turns a single validated sentence body into a typed Record.
// It never fails: unrecognized but well-formed bodies
// become Unsupported, and anything that does not even look like NMEA
// becomes ParseFailure.
func Parse(body string, received time.Time, driver PrivateParser) Record {
	if strings.HasPrefix(body, "PUBX") || strings.HasPrefix(body, "PMTK") {
		if driver == nil {
			return Unsupported{base: base{received}, Body: body}
		}
		rec, err := driver.ParsePrivate(body, received)
		if err != nil {
			return ParseFailure{base: base{received}, Text: err.Error()}
		}
		return rec
	}

	talker, ok := parseTalker(body)
	if !ok || len(body) < 5 {
		return ParseFailure{base: base{received}, Text: "sentence too short"}
	}

	tag := body[2:5]
	rest := body[5:]
	fields := splitFields(strings.TrimPrefix(rest, ","))
	if rest == "" {
		fields = nil
	}

	b := base{received}

	switch tag {
	case "DTM":
		return parseDTM(b, talker, fields)
	case "GAQ", "GBQ", "GLQ", "GNQ", "GPQ":
		return parsePoll(b, talker, tag, fields)
	case "GBS":
		return parseGBS(b, fields)
	case "GGA":
		return parseGGA(b, fields)
	case "GLL":
		return parseGLL(b, fields)
	case "GRS":
		return parseGRS(b, fields)
	case "GSA":
		return parseGSA(b, fields)
	case "GST":
		return parseGST(b, fields)
	case "GSV":
		return parseGSV(b, fields)
	case "RMC":
		return parseRMC(b, fields)
	case "TXT":
		return parseTXT(b, fields)
	case "VLW":
		return parseVLW(b, fields)
	case "VTG":
		return parseVTG(b, fields)
	case "ZDA":
		return parseZDA(b, fields)
	default:
		return Unsupported{base: b, Body: body}
	}
}

func pollKindFor(tag string) Kind {
	switch tag {
	case "GAQ":
		return KindGAQ
	case "GBQ":
		return KindGBQ
	case "GLQ":
		return KindGLQ
	case "GNQ":
		return KindGNQ
	default:
		return KindGPQ
	}
}

func parsePoll(b base, talker Talker, tag string, fields []string) Record {
	return Poll{base: b, PollKind: pollKindFor(tag), Talker: talker, MessageID: field(fields, 0)}
}

func parseDTM(b base, talker Talker, fields []string) Record {
	lat, err := parseFloat(field(fields, 2))
	if err != nil {
		return ParseFailure{base: b, Text: "DTM: " + err.Error()}
	}
	lon, err := parseFloat(field(fields, 4))
	if err != nil {
		return ParseFailure{base: b, Text: "DTM: " + err.Error()}
	}
	alt, err := parseFloat(field(fields, 6))
	if err != nil {
		return ParseFailure{base: b, Text: "DTM: " + err.Error()}
	}

	ns := North
	if field(fields, 3) == "S" {
		ns = South
	}
	ew := East
	if field(fields, 5) == "W" {
		ew = West
	}

	return DTM{
		base:     b,
		Talker:   talker,
		Datum:    field(fields, 0),
		SubDatum: field(fields, 1),
		Lat:      lat,
		NS:       ns,
		Lon:      lon,
		EW:       ew,
		Alt:      alt,
		RefDatum: field(fields, 7),
	}
}

func parseGBS(b base, f []string) Record {
	t, err := parseOptTimeOfDay(field(f, 0))
	if err != nil {
		return ParseFailure{base: b, Text: "GBS: " + err.Error()}
	}
	errLat, _ := parseFloat(field(f, 1))
	errLon, _ := parseFloat(field(f, 2))
	errAlt, _ := parseFloat(field(f, 3))
	svid, _ := parseOptInt(field(f, 4))
	prob, _ := parseOptFloat(field(f, 5))
	bias, _ := parseOptFloat(field(f, 6))
	stddev, _ := parseOptFloat(field(f, 7))
	var system, signal *string
	if s := field(f, 8); s != "" {
		system = &s
	}
	if s := field(f, 9); s != "" {
		signal = &s
	}

	return GBS{base: b, Time: t, ErrLat: errLat, ErrLon: errLon, ErrAlt: errAlt,
		SVID: svid, Prob: prob, Bias: bias, StdDev: stddev, System: system, Signal: signal}
}

var qualityByCode = map[string]FixQuality{
	"0": FixInvalid, "1": FixAutonomousGNSS, "2": FixDifferentialGNSS,
	"3": FixPPS, "4": FixRTKFixed, "5": FixRTKFloat, "6": FixEstimated,
	"7": FixManual, "8": FixSimulation,
}

func parseGGA(b base, f []string) Record {
	t, err := parseTimeOfDay(field(f, 0))
	if err != nil {
		return ParseFailure{base: b, Text: "GGA: " + err.Error()}
	}

	pos, err := parseLatLon(field(f, 1), field(f, 2), field(f, 3), field(f, 4))
	if err != nil {
		return ParseFailure{base: b, Text: "GGA: " + err.Error()}
	}

	quality := qualityByCode[field(f, 5)]
	nsat, _ := parseInt(field(f, 6))
	hdop, _ := parseOptFloat(field(f, 7))
	alt, _ := parseOptFloat(field(f, 8))
	sep, _ := parseOptFloat(field(f, 10))
	diffAge, _ := parseOptFloat(field(f, 12))
	diffStation, _ := parseOptInt(field(f, 13))

	return GGA{
		base: b, Time: t, Position: pos, Quality: quality, NumSats: nsat,
		HDOP: hdop, Altitude: alt, AltUnit: field(f, 9), Sep: sep, SepUnit: field(f, 11),
		DiffAge: diffAge, DiffStation: diffStation,
	}
}

func positionModeFor(code string) PositionMode {
	switch code {
	case "A":
		return ModeAutonomous
	case "D":
		return ModeDifferential
	case "E":
		return ModeEstimated
	case "F":
		return ModeRTKFloat
	case "R":
		return ModeRTKFixed
	default:
		return ModeNoFix
	}
}

func parseGLL(b base, f []string) Record {
	pos, err := parseLatLon(field(f, 0), field(f, 1), field(f, 2), field(f, 3))
	if err != nil {
		return ParseFailure{base: b, Text: "GLL: " + err.Error()}
	}
	t, err := parseTimeOfDay(field(f, 4))
	if err != nil {
		return ParseFailure{base: b, Text: "GLL: " + err.Error()}
	}

	return GLL{
		base: b, Position: pos, Time: t, Status: field(f, 5) == "A",
		PositionMode: positionModeFor(field(f, 6)),
	}
}

func parseGRS(b base, f []string) Record {
	t, err := parseTimeOfDay(field(f, 0))
	if err != nil {
		return ParseFailure{base: b, Text: "GRS: " + err.Error()}
	}

	var residuals [12]*float64
	for i := 0; i < 12; i++ {
		residuals[i], _ = parseOptFloat(field(f, 2+i))
	}

	var signal *string
	if s := field(f, 15); s != "" {
		signal = &s
	}

	return GRS{
		base: b, Time: t, ResidualsInGGA: field(f, 1) == "1", Residuals: residuals,
		System: field(f, 14), Signal: signal,
	}
}

func parseGSA(b base, f []string) Record {
	navMode, _ := parseInt(field(f, 1))

	var sats GSASatellites
	for i := 0; i < 12; i++ {
		sats[i], _ = parseOptInt(field(f, 2+i))
	}

	pdop, _ := parseOptFloat(field(f, 14))
	hdop, _ := parseOptFloat(field(f, 15))
	vdop, _ := parseOptFloat(field(f, 16))

	var system *string
	if s := field(f, 17); s != "" {
		system = &s
	}

	return GSA{
		base: b, OperationMode: field(f, 0), NavMode: navMode, Satellites: sats,
		PDOP: pdop, HDOP: hdop, VDOP: vdop, System: system,
	}
}

func parseGST(b base, f []string) Record {
	t, err := parseTimeOfDay(field(f, 0))
	if err != nil {
		return ParseFailure{base: b, Text: "GST: " + err.Error()}
	}
	rangeRMS, _ := parseOptFloat(field(f, 1))
	stdMajor, _ := parseOptFloat(field(f, 2))
	stdMinor, _ := parseOptFloat(field(f, 3))
	orientation, _ := parseOptFloat(field(f, 4))
	stdLat, _ := parseOptFloat(field(f, 5))
	stdLon, _ := parseOptFloat(field(f, 6))
	stdAlt, _ := parseOptFloat(field(f, 7))

	return GST{
		base: b, Time: t, RangeRMS: rangeRMS, StdMajor: stdMajor, StdMinor: stdMinor,
		Orientation: orientation, StdLat: stdLat, StdLon: stdLon, StdAlt: stdAlt,
	}
}

func parseGSV(b base, f []string) Record {
	numMsgs, _ := parseInt(field(f, 0))
	msgNum, _ := parseInt(field(f, 1))
	nsat, _ := parseInt(field(f, 2))

	var sats []Satellite
	i := 3
	for i < len(f) {
		id, err := parseInt(field(f, i))
		if err != nil {
			break
		}
		el, _ := parseOptInt(field(f, i+1))
		az, _ := parseOptInt(field(f, i+2))
		cno, _ := parseOptInt(field(f, i+3))
		sats = append(sats, Satellite{ID: id, Elevation: el, Azimuth: az, CNo: cno})
		i += 4
	}

	var signal *string
	if s := field(f, i); s != "" {
		signal = &s
	}

	return GSV{base: b, NumMessages: numMsgs, MessageNum: msgNum, NumSats: nsat, Satellites: sats, Signal: signal}
}

func parseRMC(b base, f []string) Record {
	t, err := parseTimeOfDay(field(f, 0))
	if err != nil {
		return ParseFailure{base: b, Text: "RMC: " + err.Error()}
	}
	pos, err := parseLatLon(field(f, 2), field(f, 3), field(f, 4), field(f, 5))
	if err != nil {
		return ParseFailure{base: b, Text: "RMC: " + err.Error()}
	}
	speed, _ := parseFloat(field(f, 6))
	course, _ := parseOptFloat(field(f, 7))
	magVar, _ := parseOptFloat(field(f, 9))

	var magVarEW *EastWest
	if s := field(f, 10); s != "" {
		ew := East
		if s == "W" {
			ew = West
		}
		magVarEW = &ew
	}

	var navStatus *NavStatus
	if s := field(f, 12); s != "" {
		ns := rmcNavStatus(s)
		navStatus = &ns
	}

	return RMC{
		base: b, Time: t, Status: field(f, 1) == "A", Position: pos, SpeedKnots: speed,
		Course: course, Date: field(f, 8), MagVar: magVar, MagVarEW: magVarEW,
		PositionMode: positionModeFor(field(f, 11)), NavStatus: navStatus,
	}
}

func rmcNavStatus(s string) NavStatus {
	switch s {
	case "S":
		return NavStatusSafe
	case "C":
		return NavStatusCaution
	case "U":
		return NavStatusUnsafe
	case "V":
		return NavStatusNotValid
	default:
		return NavStatusNone
	}
}

func parseTXT(b base, f []string) Record {
	numMsgs, _ := parseInt(field(f, 0))
	msgNum, _ := parseInt(field(f, 1))
	textType, _ := parseInt(field(f, 2))

	return TXT{base: b, NumMessages: numMsgs, MessageNum: msgNum, TextType: textType, Text: field(f, 3)}
}

func parseVLW(b base, f []string) Record {
	totalWater, _ := parseFloat(field(f, 0))
	water, _ := parseFloat(field(f, 2))
	totalGround, _ := parseFloat(field(f, 4))
	ground, _ := parseFloat(field(f, 6))

	return VLW{
		base: b,
		TotalWaterDistance: totalWater, TotalWaterUnit: field(f, 1),
		WaterDistance: water, WaterUnit: field(f, 3),
		TotalGroundDistance: totalGround, TotalGroundUnit: field(f, 5),
		GroundDistance: ground, GroundUnit: field(f, 7),
	}
}

func parseVTG(b base, f []string) Record {
	courseTrue, _ := parseOptFloat(field(f, 0))
	courseMag, _ := parseOptFloat(field(f, 2))
	speedKn, _ := parseFloat(field(f, 4))
	speedKm, _ := parseFloat(field(f, 6))

	return VTG{
		base: b, CourseTrue: courseTrue, CourseTrueUnit: field(f, 1),
		CourseMag: courseMag, CourseMagUnit: field(f, 3),
		SpeedKnots: speedKn, SpeedKnotsUnit: field(f, 5),
		SpeedKmh: speedKm, SpeedKmhUnit: field(f, 7),
		PositionMode: positionModeFor(field(f, 8)),
	}
}

func parseZDA(b base, f []string) Record {
	t, err := parseOptTimeOfDay(field(f, 0))
	if err != nil {
		return ParseFailure{base: b, Text: "ZDA: " + err.Error()}
	}
	day, _ := parseOptInt(field(f, 1))
	month, _ := parseOptInt(field(f, 2))
	year, _ := parseOptInt(field(f, 3))
	tzHour, _ := parseInt(field(f, 4))
	tzMin, _ := parseInt(field(f, 5))

	return ZDA{base: b, Time: t, Day: day, Month: month, Year: year, TZHour: tzHour, TZMinute: tzMin}
}
