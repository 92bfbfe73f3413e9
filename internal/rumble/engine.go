// Package rumble manages the pool of uploaded force-feedback effects and
// drives the single physical motor behind them.
package rumble

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/padbridge/internal/evdev"
)

// MaxEffects is the slot pool size advertised to the kernel as
// ff_effects_max; slot ids double as the durable effect ids.
const MaxEffects = 8

var (
	// ErrInvalidEffect covers non-rumble uploads and out-of-bounds ids.
	ErrInvalidEffect = errors.New("rumble: invalid effect")
	// ErrPoolExhausted means no free slot was available for an upload.
	ErrPoolExhausted = errors.New("rumble: effect pool exhausted")
)

// Motor is the binary output the engine plays through. Implementations must
// suppress redundant writes; the engine does not.
type Motor interface {
	SetRumble(on bool)
}

type slot struct {
	effect evdev.Effect
	inUse  bool
}

// Engine owns the effect slots and the playback state. It is single-owner
// state: only the runtime goroutine calls into it, so there is no locking.
type Engine struct {
	slots    [MaxEffects]slot
	playing  bool
	current  int // slot driving the motor while playing
	deadline time.Time
	gain     uint16

	motor Motor
	now   func() time.Time
	log   *log.Entry
}

// New returns an idle engine at full gain.
func New(motor Motor) *Engine {
	return &Engine{
		gain:  0xFFFF,
		motor: motor,
		now:   time.Now,
		log:   log.WithField("component", "rumble"),
	}
}

// Upload stores an effect, either into the slot named by effect.ID or into
// the first free slot when ID is negative, and returns the slot id the
// device must echo back to the host as the effect id.
func (e *Engine) Upload(effect *evdev.Effect) (int, error) {
	if effect.Type != evdev.FF_RUMBLE {
		return -1, ErrInvalidEffect
	}

	id := int(effect.ID)
	switch {
	case id < 0:
		id = e.allocate()
		if id < 0 {
			return -1, ErrPoolExhausted
		}
	case id >= MaxEffects:
		return -1, ErrInvalidEffect
	default:
		e.slots[id].inUse = true
	}

	e.slots[id].effect = *effect
	e.slots[id].effect.ID = int16(id)
	return id, nil
}

func (e *Engine) allocate() int {
	for i := range e.slots {
		if !e.slots[i].inUse {
			e.slots[i].inUse = true
			return i
		}
	}
	return -1
}

// Erase frees a slot. Erasing the slot currently driving the motor stops
// playback immediately; the motor must not keep running on a dead effect.
func (e *Engine) Erase(id int) error {
	if id < 0 || id >= MaxEffects {
		return ErrInvalidEffect
	}
	e.slots[id].inUse = false
	if e.playing && e.current == id {
		e.Stop()
	}
	return nil
}

// Play starts or stops playback of an uploaded effect. Stale ids (freed or
// out of bounds) are ignored: hosts legitimately race erase against play.
func (e *Engine) Play(id int, repeat int32) {
	if id < 0 || id >= MaxEffects || !e.slots[id].inUse {
		return
	}

	effect := &e.slots[id].effect
	payload := effect.Rumble()
	mag := payload.StrongMagnitude
	if payload.WeakMagnitude > mag {
		mag = payload.WeakMagnitude
	}
	mag = uint16(uint32(mag) * uint32(e.gain) / 0xFFFF)

	if repeat == 0 || mag == 0 {
		e.Stop()
		return
	}

	reps := uint32(1)
	if repeat > 0 {
		reps = uint32(repeat)
	}
	total := time.Duration(uint32(effect.Replay.Length)*reps) * time.Millisecond

	e.current = id
	e.deadline = e.now().Add(total)
	if !e.playing {
		e.playing = true
		e.motor.SetRumble(true)
		e.log.WithField("effect", id).Debugf("motor on for %v", total)
	}
}

// ApplyGain stores the global gain. Gain zero is a mute: it stops an active
// playback instead of waiting for the next Play.
func (e *Engine) ApplyGain(gain uint16) {
	e.gain = gain
	if gain == 0 && e.playing {
		e.Stop()
	}
}

// Tick expires playback. It is the only path that turns the motor off on
// natural expiry, so stop precision is bounded by the caller's loop cadence.
func (e *Engine) Tick() {
	if !e.playing {
		return
	}
	if !e.now().Before(e.deadline) {
		e.Stop()
	}
}

// Stop halts playback and the motor. Safe to call when already idle.
func (e *Engine) Stop() {
	if !e.playing {
		return
	}
	e.playing = false
	e.motor.SetRumble(false)
	e.log.Debug("motor off")
}

// Playing reports whether an effect is currently driving the motor.
func (e *Engine) Playing() bool {
	return e.playing
}
