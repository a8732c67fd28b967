package nmea

// Reader combines a Framer with the sentence parser, turning a raw serial
// byte stream directly into a sequence of Records.
type Reader struct {
	framer *Framer
	driver PrivateParser
}

// NewReader creates a Reader. driver may be nil, in which case PUBX/PMTK
// bodies decode as Unsupported rather than being forwarded anywhere.
func NewReader(driver PrivateParser) *Reader {
	return &Reader{framer: NewFramer(), driver: driver}
}

// Feed appends newly read bytes to the reader's internal buffer.
func (r *Reader) Feed(b []byte) {
	r.framer.Feed(b)
}

// Next produces the next Record. It returns (nil, false, nil) when more
// input is required, and a non-nil *FramingError only when the leading
// garbage limit was exceeded, which ends the stream.
func (r *Reader) Next() (Record, bool, error) {
	outcome, ok, err := r.framer.Next()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	b := base{outcome.Received}

	switch outcome.Kind {
	case OutcomeInvalidChecksum:
		return InvalidChecksum{base: b, Body: outcome.Body, Given: outcome.Given, Calculated: outcome.Calculated}, true, nil
	case OutcomeParseError:
		return ParseError{base: b, Text: outcome.Text}, true, nil
	case OutcomeValid:
		return Parse(outcome.Body, outcome.Received, r.driver), true, nil
	default:
		return nil, false, nil
	}
}
