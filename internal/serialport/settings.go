package serialport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// DataBits is the number of data bits per frame. Only 5/6/7/8 are valid
//.
type DataBits int

// Parity is the serial parity setting.
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// StopBits is the number of stop bits per frame.
type StopBits int

const (
	StopBitsOne StopBits = iota
	StopBitsTwo
)

// FlowControl is the serial flow-control discipline.
type FlowControl int

const (
	FlowControlNone FlowControl = iota
	FlowControlHardware
	FlowControlSoftware
)

// readTimeout is a 1 ms read timeout, not a configuration knob.
const readTimeout = time.Millisecond

// Settings describes how to open a serial device. Invalid combinations are
// rejected at construction, never discovered at open time.
type Settings struct {
	Path        string
	BaudRate    int
	DataBits    DataBits
	Parity      Parity
	StopBits    StopBits
	FlowControl FlowControl
}

// InvalidSettingsError is returned by NewSettings for a combination the
// device could never honor.
type InvalidSettingsError struct {
	Field  string
	Reason string
}

func (e *InvalidSettingsError) Error() string {
	return fmt.Sprintf("serialport: invalid %s: %s", e.Field, e.Reason)
}

// NewSettings validates s and returns a typed error for anything that
// cannot be represented on the wire.
func NewSettings(s Settings) (Settings, error) {
	if s.Path == "" {
		return Settings{}, &InvalidSettingsError{Field: "path", Reason: "must not be empty"}
	}
	if s.BaudRate <= 0 {
		return Settings{}, &InvalidSettingsError{Field: "baud_rate", Reason: "must be positive"}
	}
	switch s.DataBits {
	case 5, 6, 7, 8:
	default:
		return Settings{}, &InvalidSettingsError{Field: "data_bits", Reason: "must be 5, 6, 7, or 8"}
	}
	switch s.Parity {
	case ParityNone, ParityOdd, ParityEven:
	default:
		return Settings{}, &InvalidSettingsError{Field: "parity", Reason: "must be none, odd, or even"}
	}
	switch s.StopBits {
	case StopBitsOne, StopBitsTwo:
	default:
		return Settings{}, &InvalidSettingsError{Field: "stop_bits", Reason: "must be 1 or 2"}
	}
	switch s.FlowControl {
	case FlowControlNone, FlowControlHardware, FlowControlSoftware:
	default:
		return Settings{}, &InvalidSettingsError{Field: "flow_control", Reason: "must be none, hardware, or software"}
	}

	return s, nil
}

// mode builds the go.bug.st/serial Mode for s. FlowControl is validated by
// NewSettings but not represented here: serial.Mode has no flow-control
// field in this library, and the package exposes RTS/CTS only as manual
// SetRTS/SetDTR calls on an open Port, not as an open-time negotiation — so
// FlowControlHardware/FlowControlSoftware are accepted configuration values
// that currently have no effect on the wire. See DESIGN.md.
func (s Settings) mode() *serial.Mode {
	mode := &serial.Mode{BaudRate: s.BaudRate}

	switch s.DataBits {
	case 5:
		mode.DataBits = 5
	case 6:
		mode.DataBits = 6
	case 7:
		mode.DataBits = 7
	default:
		mode.DataBits = 8
	}

	switch s.Parity {
	case ParityOdd:
		mode.Parity = serial.OddParity
	case ParityEven:
		mode.Parity = serial.EvenParity
	default:
		mode.Parity = serial.NoParity
	}

	if s.StopBits == StopBitsTwo {
		mode.StopBits = serial.TwoStopBits
	} else {
		mode.StopBits = serial.OneStopBit
	}

	return mode
}
