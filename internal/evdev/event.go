package evdev

import (
	"encoding/binary"
	"errors"
	"time"
)

// EventSize is sizeof(struct input_event) on 64-bit kernels
// (struct timeval is two 64-bit words there).
const EventSize = 24

// Event mirrors struct input_event.
type Event struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

var errShortEvent = errors.New("evdev: short input_event")

// NewEvent stamps an event with the current wall clock, matching what the
// kernel expects on the uinput write path.
func NewEvent(typ, code uint16, value int32) Event {
	now := time.Now()
	return Event{
		Sec:   now.Unix(),
		Usec:  int64(now.Nanosecond() / 1000),
		Type:  typ,
		Code:  code,
		Value: value,
	}
}

// Marshal encodes the event in kernel byte order.
func (e Event) Marshal() [EventSize]byte {
	var b [EventSize]byte
	binary.LittleEndian.PutUint64(b[0:8], uint64(e.Sec))
	binary.LittleEndian.PutUint64(b[8:16], uint64(e.Usec))
	binary.LittleEndian.PutUint16(b[16:18], e.Type)
	binary.LittleEndian.PutUint16(b[18:20], e.Code)
	binary.LittleEndian.PutUint32(b[20:24], uint32(e.Value))
	return b
}

// UnmarshalEvent decodes one input_event from b.
func UnmarshalEvent(b []byte) (Event, error) {
	if len(b) < EventSize {
		return Event{}, errShortEvent
	}
	return Event{
		Sec:   int64(binary.LittleEndian.Uint64(b[0:8])),
		Usec:  int64(binary.LittleEndian.Uint64(b[8:16])),
		Type:  binary.LittleEndian.Uint16(b[16:18]),
		Code:  binary.LittleEndian.Uint16(b[18:20]),
		Value: int32(binary.LittleEndian.Uint32(b[20:24])),
	}, nil
}
