// Package pps drives a kernel PPS (pulse-per-second) character device
// through the Linux ioctl ABI: GETCAP/GETPARAMS at open time, then a
// blocking FETCH per edge.
package pps

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ktime mirrors struct pps_ktime: a PPS-resolution timestamp.
type ktime struct {
	Sec   int64
	Nsec  int32
	Flags uint32
}

// info mirrors struct pps_kinfo, the payload of a FETCH.
type info struct {
	AssertSeq uint32
	ClearSeq  uint32
	AssertTu  ktime
	ClearTu   ktime
	Mode      int32
}

// params mirrors struct pps_kparams, the GETPARAMS/SETPARAMS payload.
type params struct {
	APIVersion  int32
	Mode        int32
	AssertOffTu ktime
	ClearOffTu  ktime
}

// fdata mirrors struct pps_fdata, the FETCH argument: requested info plus a
// timeout (TimeInvalid means "wait forever").
type fdata struct {
	Info    info
	Timeout ktime
}

const (
	timeInvalid     uint32 = 1 << 0
	captureAssert   int32  = 0x01
	canWait         int32  = 0x100
	ioctlMagic      byte   = 'p'
	cmdGetParams    byte   = 0xa1
	cmdSetParams    byte   = 0xa2
	cmdGetCap       byte   = 0xa3
	cmdFetch        byte   = 0xa4
	iocNRBits              = 8
	iocTypeBits            = 8
	iocSizeBits            = 14
	iocDirShift            = iocNRBits + iocTypeBits + iocSizeBits
	iocTypeShift           = iocNRBits
	iocSizeShift           = iocNRBits + iocTypeBits
	iocRead         uintptr = 2
	iocWrite        uintptr = 1
)

// iocNumber reproduces the Linux _IOC/_IOR/_IOW/_IOWR macros so the request
// codes fall directly out of the struct sizes above instead of being
// hand-copied magic numbers.
func iocNumber(dir uintptr, cmd byte, size uintptr) uintptr {
	return dir<<iocDirShift | uintptr(ioctlMagic)<<iocTypeShift | uintptr(cmd) | size<<iocSizeShift
}

var (
	reqGetParams = iocNumber(iocRead, cmdGetParams, unsafe.Sizeof(params{}))
	reqSetParams = iocNumber(iocWrite, cmdSetParams, unsafe.Sizeof(params{}))
	reqGetCap    = iocNumber(iocRead, cmdGetCap, unsafe.Sizeof(int32(0)))
	reqFetch     = iocNumber(iocRead|iocWrite, cmdFetch, unsafe.Sizeof(fdata{}))
)

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func getCap(fd int) (int32, error) {
	var mode int32
	if err := ioctl(fd, reqGetCap, unsafe.Pointer(&mode)); err != nil {
		return 0, fmt.Errorf("PPS_GETCAP: %w", err)
	}
	return mode, nil
}

func getParams(fd int) (params, error) {
	var p params
	if err := ioctl(fd, reqGetParams, unsafe.Pointer(&p)); err != nil {
		return params{}, fmt.Errorf("PPS_GETPARAMS: %w", err)
	}
	return p, nil
}

func setParams(fd int, p params) error {
	if err := ioctl(fd, reqSetParams, unsafe.Pointer(&p)); err != nil {
		return fmt.Errorf("PPS_SETPARAMS: %w", err)
	}
	return nil
}

func fetch(fd int) (fdata, error) {
	d := fdata{Timeout: ktime{Flags: timeInvalid}}
	if err := ioctl(fd, reqFetch, unsafe.Pointer(&d)); err != nil {
		return fdata{}, fmt.Errorf("PPS_FETCH: %w", err)
	}
	return d, nil
}
