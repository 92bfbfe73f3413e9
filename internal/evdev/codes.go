// Package evdev carries the subset of linux/input.h and linux/uinput.h
// constants and wire structs the daemon needs. Names follow the kernel
// headers so they can be cross-checked against input-event-codes.h.
package evdev

// Event types.
const (
	EV_SYN uint16 = 0x00
	EV_KEY uint16 = 0x01
	EV_ABS uint16 = 0x03
	EV_FF  uint16 = 0x15

	// EV_UINPUT events are requests from the uinput core to the device
	// owner (FF upload/erase), not real input events.
	EV_UINPUT uint16 = 0x0101
)

const SYN_REPORT uint16 = 0x00

// Gamepad keys.
const (
	BTN_SOUTH  uint16 = 0x130
	BTN_EAST   uint16 = 0x131
	BTN_NORTH  uint16 = 0x133
	BTN_WEST   uint16 = 0x134
	BTN_TL     uint16 = 0x136
	BTN_TR     uint16 = 0x137
	BTN_TL2    uint16 = 0x138
	BTN_TR2    uint16 = 0x139
	BTN_SELECT uint16 = 0x13a
	BTN_START  uint16 = 0x13b
	BTN_MODE   uint16 = 0x13c

	BTN_DPAD_UP    uint16 = 0x220
	BTN_DPAD_DOWN  uint16 = 0x221
	BTN_DPAD_LEFT  uint16 = 0x222
	BTN_DPAD_RIGHT uint16 = 0x223
)

// Absolute axes.
const (
	ABS_X     uint16 = 0x00
	ABS_Y     uint16 = 0x01
	ABS_Z     uint16 = 0x02
	ABS_RZ    uint16 = 0x05
	ABS_HAT0X uint16 = 0x10
	ABS_HAT0Y uint16 = 0x11
)

// Force feedback.
const (
	FF_RUMBLE uint16 = 0x50
	FF_GAIN   uint16 = 0x60
)

// uinput FF request codes (input_event.code when type == EV_UINPUT).
const (
	UI_FF_UPLOAD uint16 = 1
	UI_FF_ERASE  uint16 = 2
)

const BUS_USB uint16 = 0x03
