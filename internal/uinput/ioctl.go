package uinput

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/tamzrod/padbridge/internal/evdev"
)

// Linux _IOC request encoding.
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocNone  = 0
	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, nr, size uintptr) uintptr {
	const base = uintptr('U') // UINPUT_IOCTL_BASE
	return dir<<iocDirShift | base<<iocTypeShift | nr<<iocNRShift | size<<iocSizeShift
}

// uinput ioctl requests (linux/uinput.h).
var (
	uiDevCreate  = ioc(iocNone, 1, 0)
	uiDevDestroy = ioc(iocNone, 2, 0)
	uiDevSetup   = ioc(iocWrite, 3, unsafe.Sizeof(uinputSetup{}))
	uiAbsSetup   = ioc(iocWrite, 4, unsafe.Sizeof(uinputAbsSetup{}))

	uiSetEvBit  = ioc(iocWrite, 100, unsafe.Sizeof(int32(0)))
	uiSetKeyBit = ioc(iocWrite, 101, unsafe.Sizeof(int32(0)))
	uiSetAbsBit = ioc(iocWrite, 103, unsafe.Sizeof(int32(0)))
	uiSetFFBit  = ioc(iocWrite, 107, unsafe.Sizeof(int32(0)))

	uiBeginFFUpload = ioc(iocRead|iocWrite, 200, unsafe.Sizeof(ffUpload{}))
	uiEndFFUpload   = ioc(iocWrite, 201, unsafe.Sizeof(ffUpload{}))
	uiBeginFFErase  = ioc(iocRead|iocWrite, 202, unsafe.Sizeof(ffErase{}))
	uiEndFFErase    = ioc(iocWrite, 203, unsafe.Sizeof(ffErase{}))
)

// inputID mirrors struct input_id.
type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// uinputSetup mirrors struct uinput_setup.
type uinputSetup struct {
	ID           inputID
	Name         [80]byte
	FFEffectsMax uint32
}

// absInfo mirrors struct input_absinfo.
type absInfo struct {
	Value      int32
	Minimum    int32
	Maximum    int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// uinputAbsSetup mirrors struct uinput_abs_setup.
type uinputAbsSetup struct {
	Code    uint16
	_       [2]byte
	AbsInfo absInfo
}

// ffUpload mirrors struct uinput_ff_upload.
type ffUpload struct {
	RequestID uint32
	Retval    int32
	Effect    evdev.Effect
	Old       evdev.Effect
}

// ffErase mirrors struct uinput_ff_erase.
type ffErase struct {
	RequestID uint32
	Retval    int32
	EffectID  uint32
}

func ioctlPtr(fd uintptr, req uintptr, arg unsafe.Pointer) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg)); errno != 0 {
		return errno
	}
	return nil
}

func ioctlInt(fd uintptr, req uintptr, arg uintptr) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, arg); errno != 0 {
		return errno
	}
	return nil
}
