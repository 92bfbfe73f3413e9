package evdev

import "encoding/binary"

// Trigger mirrors struct ff_trigger.
type Trigger struct {
	Button   uint16
	Interval uint16
}

// Replay mirrors struct ff_replay. Length and Delay are milliseconds.
type Replay struct {
	Length uint16
	Delay  uint16
}

// Effect mirrors struct ff_effect (48 bytes on 64-bit kernels).
//
// The type-specific union is kept as raw bytes; it is 8-byte aligned in the
// kernel struct because ff_periodic_effect ends in a pointer, hence the two
// explicit padding bytes before it.
type Effect struct {
	Type      uint16
	ID        int16
	Direction uint16
	Trigger   Trigger
	Replay    Replay
	_         [2]byte
	U         [32]byte
}

// RumblePayload is the decoded ff_rumble_effect union member.
type RumblePayload struct {
	StrongMagnitude uint16
	WeakMagnitude   uint16
}

// Rumble decodes the union as ff_rumble_effect. Only meaningful when
// Type == FF_RUMBLE.
func (e *Effect) Rumble() RumblePayload {
	return RumblePayload{
		StrongMagnitude: binary.LittleEndian.Uint16(e.U[0:2]),
		WeakMagnitude:   binary.LittleEndian.Uint16(e.U[2:4]),
	}
}

// NewRumble builds an FF_RUMBLE effect with an unassigned id.
func NewRumble(strong, weak, lengthMs uint16) Effect {
	e := Effect{
		Type:   FF_RUMBLE,
		ID:     -1,
		Replay: Replay{Length: lengthMs},
	}
	binary.LittleEndian.PutUint16(e.U[0:2], strong)
	binary.LittleEndian.PutUint16(e.U[2:4], weak)
	return e
}
