package mapping

import "github.com/tamzrod/padbridge/internal/evdev"

// HatBits names the four mask bits a revision routes to the synthesized hat.
type HatBits struct {
	Left  uint8
	Right uint8
	Up    uint8
	Down  uint8
}

// HatEvent is a change on one hat axis.
type HatEvent struct {
	Code  uint16 // ABS_HAT0X or ABS_HAT0Y
	Value int32  // -1, 0 or 1
}

// Hat turns D-pad bits into a two-axis digital hat, remembering the last
// emitted state so unchanged axes stay quiet.
type Hat struct {
	bits HatBits
	x, y int32
}

func NewHat(bits HatBits) *Hat {
	return &Hat{bits: bits}
}

// Synthesize derives the hat state from a button mask and returns events for
// the axes that changed. When both bits of one axis are set (invalid on real
// hardware) the negative direction wins.
func (h *Hat) Synthesize(buttons uint8) []HatEvent {
	var x int32
	if buttons&h.bits.Left != 0 {
		x = -1
	} else if buttons&h.bits.Right != 0 {
		x = 1
	}

	var y int32
	if buttons&h.bits.Up != 0 {
		y = -1
	} else if buttons&h.bits.Down != 0 {
		y = 1
	}

	var out []HatEvent
	if x != h.x {
		out = append(out, HatEvent{Code: evdev.ABS_HAT0X, Value: x})
		h.x = x
	}
	if y != h.y {
		out = append(out, HatEvent{Code: evdev.ABS_HAT0Y, Value: y})
		h.y = y
	}
	return out
}

// Reset zeroes the remembered hat position.
func (h *Hat) Reset() {
	h.x, h.y = 0, 0
}
