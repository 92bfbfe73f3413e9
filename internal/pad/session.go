// Package pad owns the per-side half-pad sessions: one serial transport,
// one calibration record, and the last observed axis/button/hat state.
package pad

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/padbridge/internal/config"
	"github.com/tamzrod/padbridge/internal/evdev"
	"github.com/tamzrod/padbridge/internal/mapping"
	"github.com/tamzrod/padbridge/internal/serial"
)

// Side identifies which half-pad produced a packet.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// Transport is what the session needs from one open serial pad. ReadPacket
// returns serial.ErrWouldBlock when no full frame is buffered.
type Transport interface {
	ReadPacket() (serial.Packet, error)
	Close() error
}

// Sink receives the translated input events.
type Sink interface {
	Emit(typ, code uint16, value int32) error
	Sync() error
}

// Config wires one session.
type Config struct {
	Side        Side
	Calibration config.Calibration
	Map         mapping.SideMap

	// Axis event codes this side drives (ABS_X/ABS_Y or ABS_Z/ABS_RZ).
	AxisXCode uint16
	AxisYCode uint16
}

// Session is one half-pad. All of its mutable state is owned by the runtime
// goroutine; the read loop only moves packets.
type Session struct {
	cfg     Config
	tracker *mapping.Tracker
	hat     *mapping.Hat

	lastX int16
	lastY int16

	tr        Transport
	factory   func() (Transport, error)
	connected bool

	packets chan serial.Packet
	failed  chan error

	log *log.Entry
}

// New builds a disconnected session; call Connect before use.
func New(cfg Config, factory func() (Transport, error)) *Session {
	s := &Session{
		cfg:     cfg,
		tracker: mapping.NewTracker(cfg.Map.Buttons),
		factory: factory,
		packets: make(chan serial.Packet, 64),
		failed:  make(chan error, 1),
		log:     log.WithField("side", cfg.Side.String()),
	}
	if cfg.Map.Hat != nil {
		s.hat = mapping.NewHat(*cfg.Map.Hat)
	}
	return s
}

// Connect opens the transport and starts the read loop. The first call is
// startup-fatal territory for the caller; later calls are the reconnect
// path and failures just leave the session disconnected.
func (s *Session) Connect() error {
	tr, err := s.factory()
	if err != nil {
		return err
	}
	s.tr = tr
	s.connected = true
	go s.readLoop(tr)
	return nil
}

// Connected reports whether the session has a live transport.
func (s *Session) Connected() bool {
	return s.connected
}

// Side identifies this session's half-pad.
func (s *Session) Side() Side {
	return s.cfg.Side
}

// MarkDisconnected records a transport death and closes the dead handle.
func (s *Session) MarkDisconnected(err error) {
	if !s.connected {
		return
	}
	s.connected = false
	if s.tr != nil {
		s.tr.Close()
		s.tr = nil
	}
	s.log.WithError(err).Warn("transport lost, will reconnect")
}

// Packets is the stream of decoded reports from the read loop.
func (s *Session) Packets() <-chan serial.Packet {
	return s.packets
}

// Failed delivers at most one transport error per connection.
func (s *Session) Failed() <-chan error {
	return s.failed
}

// Close shuts the transport down for good.
func (s *Session) Close() error {
	s.connected = false
	if s.tr == nil {
		return nil
	}
	err := s.tr.Close()
	s.tr = nil
	return err
}

func (s *Session) readLoop(tr Transport) {
	for {
		pkt, err := tr.ReadPacket()
		if err != nil {
			if errors.Is(err, serial.ErrWouldBlock) {
				continue
			}
			select {
			case s.failed <- err:
			default:
			}
			return
		}
		s.packets <- pkt
	}
}

// Apply translates one packet into sink events: axes first (dirty-only),
// then button edges, then the synthesized hat on the side that has one.
// It reports whether anything was emitted so the caller can close the
// batch with a sync barrier.
func (s *Session) Apply(pkt serial.Packet, sink Sink) bool {
	dirty := s.applyAxes(pkt, sink)

	for _, tr := range s.tracker.Diff(pkt.Buttons) {
		var value int32
		if tr.Pressed {
			value = 1
		}
		s.emit(sink, evdev.EV_KEY, tr.Code, value)
		dirty = true
	}

	if s.hat != nil {
		for _, he := range s.hat.Synthesize(pkt.Buttons) {
			s.emit(sink, evdev.EV_ABS, he.Code, he.Value)
			dirty = true
		}
	}
	return dirty
}

func (s *Session) applyAxes(pkt serial.Packet, sink Sink) bool {
	cal := s.cfg.Calibration
	x := mapping.MapAxis(pkt.X, cal.XMin, cal.XMax, cal.XZero, cal.Deadzone, s.cfg.Map.InvertX)
	y := mapping.MapAxis(pkt.Y, cal.YMin, cal.YMax, cal.YZero, cal.Deadzone, s.cfg.Map.InvertY)

	dirty := false
	if x != s.lastX {
		s.emit(sink, evdev.EV_ABS, s.cfg.AxisXCode, int32(x))
		s.lastX = x
		dirty = true
	}
	if y != s.lastY {
		s.emit(sink, evdev.EV_ABS, s.cfg.AxisYCode, int32(y))
		s.lastY = y
		dirty = true
	}
	return dirty
}

func (s *Session) emit(sink Sink, typ, code uint16, value int32) {
	if err := sink.Emit(typ, code, value); err != nil {
		s.log.WithError(err).Error("event write failed")
	}
}

// ResetState zeroes the remembered axis/button/hat state so the next packet
// re-emits everything that differs from neutral. Used after device priming.
func (s *Session) ResetState() {
	s.lastX, s.lastY = 0, 0
	s.tracker.Reset()
	if s.hat != nil {
		s.hat.Reset()
	}
}
