// Package controller runs the main loop: serial packets in, input events
// out, force-feedback requests dispatched, rumble ticked.
package controller

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/tamzrod/padbridge/internal/evdev"
	"github.com/tamzrod/padbridge/internal/mapping"
	"github.com/tamzrod/padbridge/internal/pad"
	"github.com/tamzrod/padbridge/internal/rumble"
	"github.com/tamzrod/padbridge/internal/serial"
	"github.com/tamzrod/padbridge/internal/uinput"
)

// Config wires a runtime. All collaborators are owned by the caller; the
// runtime only drives them.
type Config struct {
	Left    *pad.Session
	Right   *pad.Session
	Engine  *rumble.Engine
	Sink    pad.Sink
	FF      <-chan uinput.Request
	Profile mapping.Profile

	// PollTimeout bounds how long the loop sleeps with no traffic; it is
	// the rumble expiry resolution and the reconnect retry cadence.
	PollTimeout time.Duration
}

type Runtime struct {
	cfg Config
	log *log.Entry
}

func New(cfg Config) *Runtime {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = time.Millisecond
	}
	return &Runtime{
		cfg: cfg,
		log: log.WithField("component", "controller"),
	}
}

// Run drives the loop until ctx is cancelled. Each iteration services the
// sides in fixed order (left, then right), drains the FF control channel,
// retries dead transports, ticks the rumble engine, and closes any emitted
// batch with a sync barrier so one packet lands as one input report.
//
// The runtime goroutine is the sole mutator of session and engine state;
// everything it waits on arrives by channel.
func (r *Runtime) Run(ctx context.Context) error {
	r.prime()

	ticker := time.NewTicker(r.cfg.PollTimeout)
	defer ticker.Stop()

	for {
		var (
			leftPkt  *serial.Packet
			rightPkt *serial.Packet
			ffReq    *uinput.Request
		)

		select {
		case <-ctx.Done():
			r.cfg.Engine.Stop()
			r.log.Info("shutting down")
			return nil
		case <-ticker.C:
		case pkt := <-r.cfg.Left.Packets():
			leftPkt = &pkt
		case pkt := <-r.cfg.Right.Packets():
			rightPkt = &pkt
		case req := <-r.cfg.FF:
			ffReq = &req
		}

		dirty := r.serviceSide(r.cfg.Left, leftPkt)
		dirty = r.serviceSide(r.cfg.Right, rightPkt) || dirty
		r.serviceFF(ffReq)
		r.reconnect()
		r.cfg.Engine.Tick()

		if dirty {
			if err := r.cfg.Sink.Sync(); err != nil {
				r.log.WithError(err).Error("sync barrier write failed")
			}
		}
	}
}

// serviceSide applies the packet that woke the loop (if any for this side)
// and then drains everything else the read loop buffered, so bursty input
// never builds a backlog.
func (r *Runtime) serviceSide(s *pad.Session, woken *serial.Packet) bool {
	select {
	case err := <-s.Failed():
		s.MarkDisconnected(err)
	default:
	}

	dirty := false
	if woken != nil {
		dirty = s.Apply(*woken, r.cfg.Sink)
	}
	for {
		select {
		case pkt := <-s.Packets():
			dirty = s.Apply(pkt, r.cfg.Sink) || dirty
		default:
			return dirty
		}
	}
}

func (r *Runtime) serviceFF(woken *uinput.Request) {
	if woken != nil {
		r.dispatch(*woken)
	}
	for {
		select {
		case req := <-r.cfg.FF:
			r.dispatch(req)
		default:
			return
		}
	}
}

func (r *Runtime) dispatch(req uinput.Request) {
	engine := r.cfg.Engine
	switch req.Kind {
	case uinput.RequestUpload:
		effect := req.Effect
		id, err := engine.Upload(&effect)
		if err != nil {
			r.log.WithError(err).Warn("effect upload rejected")
		}
		req.Reply <- uinput.Reply{Status: errnoStatus(err), EffectID: int32(id)}
	case uinput.RequestErase:
		err := engine.Erase(int(req.EffectID))
		if err != nil {
			r.log.WithError(err).Warn("effect erase rejected")
		}
		req.Reply <- uinput.Reply{Status: errnoStatus(err)}
	case uinput.RequestPlay:
		engine.Play(int(req.EffectID), req.Value)
	case uinput.RequestGain:
		engine.ApplyGain(uint16(req.Value))
	}
}

// errnoStatus maps engine errors onto the negative-errno convention the
// uinput END ioctls expect.
func errnoStatus(err error) int32 {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, rumble.ErrPoolExhausted):
		return -int32(unix.ENOSPC)
	default:
		return -int32(unix.EINVAL)
	}
}

// reconnect retries dead transports, once per iteration, no backoff. A
// half-pad coming back mid-game must start flowing again without restart.
func (r *Runtime) reconnect() {
	for _, s := range []*pad.Session{r.cfg.Left, r.cfg.Right} {
		if s.Connected() {
			continue
		}
		if err := s.Connect(); err != nil {
			continue
		}
		r.log.WithField("side", s.Side().String()).Info("transport reopened")
	}
}

// prime re-asserts the neutral state once after device creation so the
// input stack starts from known-zero axes and released buttons.
func (r *Runtime) prime() {
	axes := []uint16{
		evdev.ABS_X, evdev.ABS_Y, evdev.ABS_Z, evdev.ABS_RZ,
		evdev.ABS_HAT0X, evdev.ABS_HAT0Y,
	}
	for _, code := range axes {
		r.emit(evdev.EV_ABS, code, 0)
	}
	for _, code := range r.cfg.Profile.ButtonCodes() {
		r.emit(evdev.EV_KEY, code, 0)
	}
	if err := r.cfg.Sink.Sync(); err != nil {
		r.log.WithError(err).Error("prime sync failed")
	}
	r.cfg.Left.ResetState()
	r.cfg.Right.ResetState()
}

func (r *Runtime) emit(typ, code uint16, value int32) {
	if err := r.cfg.Sink.Emit(typ, code, value); err != nil {
		r.log.WithError(err).Error("event write failed")
	}
}
