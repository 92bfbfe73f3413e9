// Package uinput owns the virtual gamepad: device creation and teardown,
// raw event emission, and the force-feedback request plumbing coming back
// from the kernel.
package uinput

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"
	"unsafe"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/tamzrod/padbridge/internal/evdev"
)

const devicePath = "/dev/uinput"

// Config describes the virtual pad to register.
type Config struct {
	Name         string
	Buttons      []uint16 // key codes, deduplicated by the kernel
	FFEffectsMax uint32
	LeftFlat     int32 // flat (deadzone hint) for ABS_X/ABS_Y
	RightFlat    int32 // flat for ABS_Z/ABS_RZ
}

// Device is the open uinput handle.
type Device struct {
	f        *os.File
	requests chan Request
	log      *log.Entry
}

// Stick axis range advertised to the input stack.
const (
	axisMin = -32768
	axisMax = 32767
)

type absSpec struct {
	code     uint16
	min, max int32
	flat     int32
}

func (c Config) axes() []absSpec {
	return []absSpec{
		{evdev.ABS_X, axisMin, axisMax, c.LeftFlat},
		{evdev.ABS_Y, axisMin, axisMax, c.LeftFlat},
		{evdev.ABS_Z, axisMin, axisMax, c.RightFlat},
		{evdev.ABS_RZ, axisMin, axisMax, c.RightFlat},
		{evdev.ABS_HAT0X, -1, 1, 0},
		{evdev.ABS_HAT0Y, -1, 1, 0},
	}
}

// Create registers the virtual pad. It prefers the modern UI_DEV_SETUP path
// and falls back to the legacy uinput_user_dev write on kernels that return
// EINVAL for the setup ioctl.
func Create(cfg Config) (*Device, error) {
	f, err := os.OpenFile(devicePath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("uinput: open %s: %w", devicePath, err)
	}
	d := &Device{
		f:        f,
		requests: make(chan Request, rumbleRequestBacklog),
		log:      log.WithField("component", "uinput"),
	}

	fd := f.Fd()
	for _, ev := range []uintptr{
		uintptr(evdev.EV_KEY), uintptr(evdev.EV_ABS),
		uintptr(evdev.EV_SYN), uintptr(evdev.EV_FF),
	} {
		if err := ioctlInt(fd, uiSetEvBit, ev); err != nil {
			return nil, d.fail("UI_SET_EVBIT", err)
		}
	}
	for _, ff := range []uintptr{uintptr(evdev.FF_RUMBLE), uintptr(evdev.FF_GAIN)} {
		if err := ioctlInt(fd, uiSetFFBit, ff); err != nil {
			return nil, d.fail("UI_SET_FFBIT", err)
		}
	}
	for _, key := range cfg.Buttons {
		if err := ioctlInt(fd, uiSetKeyBit, uintptr(key)); err != nil {
			return nil, d.fail("UI_SET_KEYBIT", err)
		}
	}
	for _, a := range cfg.axes() {
		if err := ioctlInt(fd, uiSetAbsBit, uintptr(a.code)); err != nil {
			return nil, d.fail("UI_SET_ABSBIT", err)
		}
	}

	if err := d.setup(cfg); err != nil {
		return nil, d.fail("device setup", err)
	}

	if err := ioctlInt(fd, uiDevCreate, 0); err != nil {
		return nil, d.fail("UI_DEV_CREATE", err)
	}

	// Give the input stack (and the sticks) a moment to settle before the
	// zeroing burst, like the stock daemon does.
	time.Sleep(time.Second)
	return d, nil
}

func (d *Device) setup(cfg Config) error {
	var setup uinputSetup
	setup.ID = inputID{Bustype: evdev.BUS_USB, Version: 1}
	setup.FFEffectsMax = cfg.FFEffectsMax
	copy(setup.Name[:len(setup.Name)-1], cfg.Name)

	err := ioctlPtr(d.f.Fd(), uiDevSetup, unsafe.Pointer(&setup))
	if err == nil {
		for _, a := range cfg.axes() {
			abs := uinputAbsSetup{
				Code: a.code,
				AbsInfo: absInfo{
					Minimum: a.min,
					Maximum: a.max,
					Flat:    a.flat,
				},
			}
			if err := ioctlPtr(d.f.Fd(), uiAbsSetup, unsafe.Pointer(&abs)); err != nil {
				return fmt.Errorf("UI_ABS_SETUP %#x: %w", a.code, err)
			}
		}
		return nil
	}
	if !errors.Is(err, unix.EINVAL) {
		return fmt.Errorf("UI_DEV_SETUP: %w", err)
	}

	d.log.Debug("UI_DEV_SETUP unsupported, using legacy uinput_user_dev")
	return d.legacySetup(cfg)
}

// legacySetup writes a struct uinput_user_dev for pre-4.5 kernels:
// name[80], input_id, ff_effects_max, then absmax/absmin/absfuzz/absflat
// arrays of 64 int32 each.
func (d *Device) legacySetup(cfg Config) error {
	const (
		absCnt     = 0x40
		nameOff    = 0
		idOff      = 80
		ffMaxOff   = 88
		absMaxOff  = 92
		absMinOff  = absMaxOff + 4*absCnt
		absFuzzOff = absMinOff + 4*absCnt
		absFlatOff = absFuzzOff + 4*absCnt
		legacySize = absFlatOff + 4*absCnt
	)

	buf := make([]byte, legacySize)
	name := cfg.Name
	if len(name) > 79 {
		name = name[:79]
	}
	copy(buf[nameOff:], name)
	binary.LittleEndian.PutUint16(buf[idOff:], evdev.BUS_USB)
	binary.LittleEndian.PutUint16(buf[idOff+6:], 1) // version
	binary.LittleEndian.PutUint32(buf[ffMaxOff:], cfg.FFEffectsMax)

	put := func(off int, code uint16, v int32) {
		binary.LittleEndian.PutUint32(buf[off+4*int(code):], uint32(v))
	}
	for _, a := range cfg.axes() {
		put(absMaxOff, a.code, a.max)
		put(absMinOff, a.code, a.min)
		put(absFlatOff, a.code, a.flat)
	}

	if _, err := d.f.Write(buf); err != nil {
		return fmt.Errorf("legacy setup write: %w", err)
	}
	return nil
}

func (d *Device) fail(stage string, err error) error {
	d.f.Close()
	return fmt.Errorf("uinput: %s: %w", stage, err)
}

// Emit writes one raw input event. A write that cannot complete is a hard
// error; the caller decides whether to log or bail, never to retry.
func (d *Device) Emit(typ, code uint16, value int32) error {
	ev := evdev.NewEvent(typ, code, value).Marshal()
	if _, err := d.f.Write(ev[:]); err != nil {
		return fmt.Errorf("uinput: emit %#x/%#x: %w", typ, code, err)
	}
	return nil
}

// Sync emits the report barrier closing one batch of events.
func (d *Device) Sync() error {
	return d.Emit(evdev.EV_SYN, evdev.SYN_REPORT, 0)
}

// Destroy tears the virtual device down and closes the handle.
func (d *Device) Destroy() error {
	if d.f == nil {
		return nil
	}
	if err := ioctlInt(d.f.Fd(), uiDevDestroy, 0); err != nil {
		d.log.WithError(err).Warn("UI_DEV_DESTROY failed")
	}
	err := d.f.Close()
	d.f = nil
	return err
}
