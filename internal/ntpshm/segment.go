// Package ntpshm implements the writer/observer sides of the classic NTP
// SHM driver (driver28) contract: a SysV shared segment keyed off
// 0x4e545030 ('NTP0') plus unit, written with a lock-free count handshake
// and polled by an observer that never trusts the valid flag mid-read
//.
package ntpshm

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

const ntpdBase = 0x4e545030

// record mirrors struct ntp_shm (driver28): ten int32 fields, two uint32
// fields, then 8 bytes of padding reserved by the historical NTP layout.
type record struct {
	Mode         int32
	Count        int32
	ClockSec     int32
	ClockUsec    int32
	ReceiveSec   int32
	ReceiveUsec  int32
	Leap         int32
	Precision    int32
	Nsamples     int32
	Valid        int32
	ClockNsec    uint32
	ReceiveNsec  uint32
	_dummy       [8]byte
}

// Segment is one attached NTP SHM unit.
type Segment struct {
	unit int
	id   int
	rec  *record
}

// Attach creates (if absent) and maps the SHM segment for unit, with the
// permissions ntpd itself uses: 0600 for units 0-1, 0666 otherwise
// (units 0/1 are conventionally reserved for ntpd's own reference clocks).
func Attach(unit int) (*Segment, error) {
	perm := 0o666
	if unit <= 1 {
		perm = 0o600
	}

	key := ntpdBase + unit
	id, err := unix.SysvShmGet(key, int(unsafe.Sizeof(record{})), unix.IPC_CREAT|perm)
	if err != nil {
		return nil, fmt.Errorf("ntpshm: shmget unit %d: %w", unit, err)
	}

	addr, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("ntpshm: shmat unit %d: %w", unit, err)
	}

	return &Segment{
		unit: unit,
		id:   id,
		rec:  (*record)(unsafe.Pointer(&addr[0])),
	}, nil
}

// Detach unmaps the segment. It does not remove it: other processes
// (ntpd itself) may still be attached, teardown note.
func (s *Segment) Detach() error {
	slice := unsafe.Slice((*byte)(unsafe.Pointer(s.rec)), unsafe.Sizeof(record{}))
	return unix.SysvShmDetach(slice)
}
