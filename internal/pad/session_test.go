package pad

import (
	"errors"
	"testing"

	"github.com/tamzrod/padbridge/internal/config"
	"github.com/tamzrod/padbridge/internal/evdev"
	"github.com/tamzrod/padbridge/internal/mapping"
	"github.com/tamzrod/padbridge/internal/serial"
)

type sinkEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

type fakeSink struct {
	events []sinkEvent
	syncs  int
}

func (f *fakeSink) Emit(typ, code uint16, value int32) error {
	f.events = append(f.events, sinkEvent{typ, code, value})
	return nil
}

func (f *fakeSink) Sync() error {
	f.syncs++
	return nil
}

func leftSession() *Session {
	profile, err := mapping.ProfileByName("smart-pro")
	if err != nil {
		panic(err)
	}
	return New(Config{
		Side:        Left,
		Calibration: config.DefaultCalibration(),
		Map:         profile.Left,
		AxisXCode:   evdev.ABS_X,
		AxisYCode:   evdev.ABS_Y,
	}, nil)
}

func rightSession() *Session {
	profile, err := mapping.ProfileByName("smart-pro")
	if err != nil {
		panic(err)
	}
	return New(Config{
		Side:        Right,
		Calibration: config.DefaultCalibration(),
		Map:         profile.Right,
		AxisXCode:   evdev.ABS_Z,
		AxisYCode:   evdev.ABS_RZ,
	}, nil)
}

func centeredPacket() serial.Packet {
	return serial.Packet{X: 2048, Y: 2048}
}

func TestApply_CenteredPacketIsQuiet(t *testing.T) {
	s := leftSession()
	sink := &fakeSink{}
	if dirty := s.Apply(centeredPacket(), sink); dirty {
		t.Fatalf("centered packet marked dirty: %v", sink.events)
	}
	if len(sink.events) != 0 {
		t.Fatalf("centered packet emitted %v", sink.events)
	}
}

func TestApply_AxisDirtyOnlyOnce(t *testing.T) {
	s := leftSession()
	sink := &fakeSink{}

	pkt := serial.Packet{X: 4095, Y: 2048}
	if dirty := s.Apply(pkt, sink); !dirty {
		t.Fatalf("deflected packet not dirty")
	}
	if len(sink.events) != 1 || sink.events[0].Code != evdev.ABS_X {
		t.Fatalf("expected one ABS_X event, got %v", sink.events)
	}
	// smart-pro inverts the stick axes.
	if sink.events[0].Value != -32767 {
		t.Fatalf("ABS_X value %d, want -32767", sink.events[0].Value)
	}

	// Same sample again: no new event.
	sink.events = nil
	if dirty := s.Apply(pkt, sink); dirty || len(sink.events) != 0 {
		t.Fatalf("unchanged axis re-emitted: %v", sink.events)
	}
}

func TestApply_EventOrderAxisButtonsHat(t *testing.T) {
	s := leftSession()
	sink := &fakeSink{}

	pkt := serial.Packet{
		X:       4095,
		Y:       2048,
		Buttons: 0x01 | 0x08, // L1 pressed, hat left
	}
	s.Apply(pkt, sink)

	if len(sink.events) != 3 {
		t.Fatalf("expected 3 events, got %v", sink.events)
	}
	if sink.events[0].Type != evdev.EV_ABS || sink.events[0].Code != evdev.ABS_X {
		t.Fatalf("axes must come first: %v", sink.events)
	}
	if sink.events[1].Type != evdev.EV_KEY || sink.events[1].Code != evdev.BTN_TL {
		t.Fatalf("buttons must come second: %v", sink.events)
	}
	if sink.events[2].Type != evdev.EV_ABS || sink.events[2].Code != evdev.ABS_HAT0X {
		t.Fatalf("hat must come last: %v", sink.events)
	}
}

func TestApply_RightSideHasNoHat(t *testing.T) {
	s := rightSession()
	sink := &fakeSink{}

	// Bits 0x04/0x08 are Y/X buttons on the right side, never hat axes.
	s.Apply(serial.Packet{X: 2048, Y: 2048, Buttons: 0x04 | 0x08}, sink)
	for _, ev := range sink.events {
		if ev.Type == evdev.EV_ABS && (ev.Code == evdev.ABS_HAT0X || ev.Code == evdev.ABS_HAT0Y) {
			t.Fatalf("right side synthesized a hat event: %v", sink.events)
		}
	}
	if len(sink.events) != 2 {
		t.Fatalf("expected Y and X presses, got %v", sink.events)
	}
}

func TestApply_ButtonReleaseAfterReset(t *testing.T) {
	s := leftSession()
	sink := &fakeSink{}

	s.Apply(serial.Packet{X: 2048, Y: 2048, Buttons: 0x01}, sink)
	s.ResetState()
	sink.events = nil

	// After a reset the held button reads as a fresh press.
	s.Apply(serial.Packet{X: 2048, Y: 2048, Buttons: 0x01}, sink)
	if len(sink.events) != 1 || !eventIsPress(sink.events[0], evdev.BTN_TL) {
		t.Fatalf("expected fresh BTN_TL press, got %v", sink.events)
	}
}

func eventIsPress(ev sinkEvent, code uint16) bool {
	return ev.Type == evdev.EV_KEY && ev.Code == code && ev.Value == 1
}

type scriptedTransport struct {
	packets []serial.Packet
	err     error
	closed  bool
}

func (f *scriptedTransport) ReadPacket() (serial.Packet, error) {
	if len(f.packets) > 0 {
		pkt := f.packets[0]
		f.packets = f.packets[1:]
		return pkt, nil
	}
	if f.err != nil {
		return serial.Packet{}, f.err
	}
	return serial.Packet{}, serial.ErrWouldBlock
}

func (f *scriptedTransport) Close() error {
	f.closed = true
	return nil
}

func TestSession_TransportDeathReported(t *testing.T) {
	tr := &scriptedTransport{
		packets: []serial.Packet{centeredPacket()},
		err:     errors.New("tty gone"),
	}
	s := leftSession()
	s.factory = func() (Transport, error) { return tr, nil }

	if err := s.Connect(); err != nil {
		t.Fatalf("Connect err=%v", err)
	}
	<-s.Packets()

	err := <-s.Failed()
	if err == nil {
		t.Fatalf("expected transport error")
	}
	s.MarkDisconnected(err)
	if s.Connected() {
		t.Fatalf("session still connected after MarkDisconnected")
	}
	if !tr.closed {
		t.Fatalf("dead transport not closed")
	}
}

func TestSession_ReconnectRestoresFlow(t *testing.T) {
	attempts := 0
	s := leftSession()
	s.factory = func() (Transport, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("port busy")
		}
		return &scriptedTransport{
			packets: []serial.Packet{centeredPacket()},
			err:     errors.New("drained"),
		}, nil
	}

	if err := s.Connect(); err == nil {
		t.Fatalf("first connect should fail")
	}
	if s.Connected() {
		t.Fatalf("failed connect left session connected")
	}

	if err := s.Connect(); err != nil {
		t.Fatalf("second connect err=%v", err)
	}
	if !s.Connected() {
		t.Fatalf("session not connected after reconnect")
	}
	<-s.Packets() // flow restored
}
