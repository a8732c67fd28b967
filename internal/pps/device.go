package pps

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// device abstracts the four ioctls an Engine needs so tests can substitute a
// fake kernel without a real /dev/ppsN node.
type device interface {
	getCap() (int32, error)
	getParams() (params, error)
	setParams(params) error
	fetch() (fdata, error)
	close() error
}

type realDevice struct {
	fd int
}

func openDevice(path string) (*realDevice, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &realDevice{fd: fd}, nil
}

func (d *realDevice) getCap() (int32, error)     { return getCap(d.fd) }
func (d *realDevice) getParams() (params, error) { return getParams(d.fd) }
func (d *realDevice) setParams(p params) error   { return setParams(d.fd, p) }
func (d *realDevice) fetch() (fdata, error)      { return fetch(d.fd) }
func (d *realDevice) close() error               { return unix.Close(d.fd) }

// Kind enumerates the PPS-specific members of the construction error enum
// (the serial-settings members live in serialport).
type Kind int

const (
	KindCannotOpen Kind = iota
	KindCannotCapture
	KindCannotWait
	KindCannotGetParams
	KindCannotSetParams
	KindCapabilitiesFailed
)

// OpenError reports why a PPS device could not be brought up; it is always
// fatal to construction.
type OpenError struct {
	Kind   Kind
	Device string
	Err    error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("pps %s: %s", e.Device, e.reason())
}

func (e *OpenError) Unwrap() error { return e.Err }

func (e *OpenError) reason() string {
	switch e.Kind {
	case KindCannotOpen:
		return fmt.Sprintf("cannot open (%v)", e.Err)
	case KindCannotCapture:
		return "device cannot capture assert events"
	case KindCannotWait:
		return "device cannot wait for events"
	case KindCannotGetParams:
		return fmt.Sprintf("cannot get parameters (%v)", e.Err)
	case KindCannotSetParams:
		return fmt.Sprintf("cannot set parameters (%v)", e.Err)
	default:
		return fmt.Sprintf("capability query failed (%v)", e.Err)
	}
}

// configure runs the GETCAP/GETPARAMS/SETPARAMS sequence needed before a
// device will report PPS edges.
func configure(d device, name string) error {
	mode, err := d.getCap()
	if err != nil {
		return &OpenError{Kind: KindCapabilitiesFailed, Device: name, Err: err}
	}
	if mode&canWait == 0 {
		return &OpenError{Kind: KindCannotWait, Device: name}
	}
	if mode&captureAssert == 0 {
		return &OpenError{Kind: KindCannotCapture, Device: name}
	}

	p, err := d.getParams()
	if err != nil {
		return &OpenError{Kind: KindCannotGetParams, Device: name, Err: err}
	}

	p.Mode |= captureAssert
	if err := d.setParams(p); err != nil {
		return &OpenError{Kind: KindCannotSetParams, Device: name, Err: err}
	}

	return nil
}
