package nmea

import "time"

// MKTSystemMessageKind decodes PMTK010's system message code.
type MKTSystemMessageKind int

const (
	MKTUnknown MKTSystemMessageKind = iota
	MKTStartup
	MKTExtendedPredictionOrbit
	MKTNormal
	MKTUnhandled
)

// MKTSystemMessage is the PMTK010 private system-message sentence.
type MKTSystemMessage struct {
	base
	MessageKind MKTSystemMessageKind
	Code        uint32 // raw code, meaningful when MessageKind == MKTUnhandled
}

func (MKTSystemMessage) Kind() Kind { return KindMKTSystemMessage }

// NewMKTSystemMessage builds a PMTK010 record.
func NewMKTSystemMessage(received time.Time, kind MKTSystemMessageKind, code uint32) MKTSystemMessage {
	return MKTSystemMessage{base: base{received}, MessageKind: kind, Code: code}
}

// MKTTextMessage is the PMTK011 private free-text sentence.
type MKTTextMessage struct {
	base
	Text string
}

func (MKTTextMessage) Kind() Kind { return KindMKTTextMessage }

// NewMKTTextMessage builds a PMTK011 record.
func NewMKTTextMessage(received time.Time, text string) MKTTextMessage {
	return MKTTextMessage{base: base{received}, Text: text}
}
