package nmea

// Talker identifies the constellation or device class that produced a
// sentence, decoded from the first two characters of the sentence body.
type Talker struct {
	// Kind is one of the well-known talkers, or TalkerUnknown if the two
	// characters did not match any of them.
	Kind TalkerKind
	// Code is always the raw two characters, even for well-known talkers,
	// so callers never need a reverse lookup.
	Code string
}

// TalkerKind enumerates the well-known talker codes.
type TalkerKind int

const (
	TalkerUnknown TalkerKind = iota
	TalkerGPS
	TalkerGLONASS
	TalkerGalileo
	TalkerBeiDou
	TalkerCombination
	TalkerECDIS
)

func (k TalkerKind) String() string {
	switch k {
	case TalkerGPS:
		return "GPS"
	case TalkerGLONASS:
		return "GLONASS"
	case TalkerGalileo:
		return "Galileo"
	case TalkerBeiDou:
		return "BeiDou"
	case TalkerCombination:
		return "Combination"
	case TalkerECDIS:
		return "ECDIS"
	default:
		return "Unknown"
	}
}

// parseTalker decodes the two-character talker prefix of body. It reports ok
// = false if body is shorter than two characters.
func parseTalker(body string) (Talker, bool) {
	if len(body) < 2 {
		return Talker{}, false
	}

	code := body[:2]
	t := Talker{Code: code}

	switch code {
	case "GP":
		t.Kind = TalkerGPS
	case "GL":
		t.Kind = TalkerGLONASS
	case "GA":
		t.Kind = TalkerGalileo
	case "GB":
		t.Kind = TalkerBeiDou
	case "GN":
		t.Kind = TalkerCombination
	case "EI":
		t.Kind = TalkerECDIS
	default:
		t.Kind = TalkerUnknown
	}

	return t, true
}
