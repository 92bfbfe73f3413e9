package rumble

import (
	"errors"
	"testing"
	"time"

	"github.com/tamzrod/padbridge/internal/evdev"
)

type fakeMotor struct {
	on     bool
	writes int
}

func (m *fakeMotor) SetRumble(on bool) {
	m.on = on
	m.writes++
}

// fixed test clock, advanced by hand
func newTestEngine() (*Engine, *fakeMotor, *time.Time) {
	motor := &fakeMotor{}
	now := time.Unix(1000, 0)
	e := New(motor)
	e.now = func() time.Time { return now }
	return e, motor, &now
}

func TestUpload_AllocatesFirstFreeSlot(t *testing.T) {
	e, _, _ := newTestEngine()

	eff := evdev.NewRumble(0x8000, 0, 100)
	id, err := e.Upload(&eff)
	if err != nil {
		t.Fatalf("Upload err=%v", err)
	}
	if id != 0 {
		t.Fatalf("first upload got slot %d, want 0", id)
	}

	eff2 := evdev.NewRumble(0x8000, 0, 100)
	id, err = e.Upload(&eff2)
	if err != nil || id != 1 {
		t.Fatalf("second upload got slot %d err=%v, want 1", id, err)
	}
}

func TestUpload_ExplicitIDOverwrites(t *testing.T) {
	e, _, _ := newTestEngine()

	eff := evdev.NewRumble(0x1000, 0, 50)
	eff.ID = 3
	id, err := e.Upload(&eff)
	if err != nil || id != 3 {
		t.Fatalf("explicit upload got slot %d err=%v, want 3", id, err)
	}

	replacement := evdev.NewRumble(0x2000, 0, 80)
	replacement.ID = 3
	if id, err = e.Upload(&replacement); err != nil || id != 3 {
		t.Fatalf("re-upload got slot %d err=%v, want 3", id, err)
	}
	if got := e.slots[3].effect.Rumble().StrongMagnitude; got != 0x2000 {
		t.Fatalf("re-upload did not overwrite: strong=%#x", got)
	}
}

func TestUpload_RejectsNonRumble(t *testing.T) {
	e, _, _ := newTestEngine()
	eff := evdev.Effect{Type: 0x51, ID: -1} // FF_PERIODIC
	if _, err := e.Upload(&eff); !errors.Is(err, ErrInvalidEffect) {
		t.Fatalf("expected ErrInvalidEffect, got %v", err)
	}
}

func TestUpload_PoolExhausted(t *testing.T) {
	e, _, _ := newTestEngine()
	for i := 0; i < MaxEffects; i++ {
		eff := evdev.NewRumble(1, 0, 10)
		if _, err := e.Upload(&eff); err != nil {
			t.Fatalf("upload %d err=%v", i, err)
		}
	}
	eff := evdev.NewRumble(1, 0, 10)
	if _, err := e.Upload(&eff); !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("expected ErrPoolExhausted, got %v", err)
	}
}

func TestErase_RestoresPoolState(t *testing.T) {
	e, _, _ := newTestEngine()
	eff := evdev.NewRumble(0xFFFF, 0, 100)
	id, _ := e.Upload(&eff)

	if err := e.Erase(id); err != nil {
		t.Fatalf("Erase err=%v", err)
	}
	// Slot must be reusable as the first free slot again.
	next := evdev.NewRumble(0xFFFF, 0, 100)
	if got, _ := e.Upload(&next); got != id {
		t.Fatalf("slot not freed: next upload got %d, want %d", got, id)
	}
}

func TestErase_OutOfBounds(t *testing.T) {
	e, _, _ := newTestEngine()
	if err := e.Erase(MaxEffects); !errors.Is(err, ErrInvalidEffect) {
		t.Fatalf("expected ErrInvalidEffect, got %v", err)
	}
	if err := e.Erase(-1); !errors.Is(err, ErrInvalidEffect) {
		t.Fatalf("expected ErrInvalidEffect, got %v", err)
	}
}

func TestErase_ActiveEffectStopsMotor(t *testing.T) {
	e, motor, _ := newTestEngine()
	eff := evdev.NewRumble(0xFFFF, 0, 100)
	id, _ := e.Upload(&eff)

	e.Play(id, 1)
	if !motor.on {
		t.Fatalf("motor should be on")
	}
	if err := e.Erase(id); err != nil {
		t.Fatalf("Erase err=%v", err)
	}
	if motor.on {
		t.Fatalf("erase of active effect left the motor running")
	}
}

func TestErase_InactiveEffectKeepsMotor(t *testing.T) {
	e, motor, _ := newTestEngine()
	a := evdev.NewRumble(0xFFFF, 0, 100)
	idA, _ := e.Upload(&a)
	b := evdev.NewRumble(0xFFFF, 0, 100)
	idB, _ := e.Upload(&b)

	e.Play(idA, 1)
	if err := e.Erase(idB); err != nil {
		t.Fatalf("Erase err=%v", err)
	}
	if !motor.on {
		t.Fatalf("erasing an idle effect stopped the active one")
	}
}

func TestPlay_RepeatZeroStops(t *testing.T) {
	e, motor, _ := newTestEngine()
	eff := evdev.NewRumble(0xFFFF, 0, 100)
	id, _ := e.Upload(&eff)

	e.Play(id, 1)
	e.Play(id, 0)
	if motor.on {
		t.Fatalf("repeat=0 did not stop the motor")
	}
	// Also a no-op stop from idle.
	e.Play(id, 0)
	if e.Playing() {
		t.Fatalf("engine playing after stop from idle")
	}
}

func TestPlay_StaleIDIgnored(t *testing.T) {
	e, motor, _ := newTestEngine()
	e.Play(5, 1)          // never uploaded
	e.Play(MaxEffects, 1) // out of bounds
	if motor.on || e.Playing() {
		t.Fatalf("stale play started the motor")
	}
}

func TestPlay_WeakMagnitudeCounts(t *testing.T) {
	e, motor, _ := newTestEngine()
	eff := evdev.NewRumble(0, 0x4000, 100) // strong 0, weak set
	id, _ := e.Upload(&eff)
	e.Play(id, 1)
	if !motor.on {
		t.Fatalf("weak-only effect should still drive the motor")
	}
}

func TestPlay_NegativeRepeatMeansOnce(t *testing.T) {
	e, _, now := newTestEngine()
	eff := evdev.NewRumble(0xFFFF, 0, 100)
	id, _ := e.Upload(&eff)

	e.Play(id, -3)
	*now = now.Add(99 * time.Millisecond)
	e.Tick()
	if !e.Playing() {
		t.Fatalf("stopped before single-repeat deadline")
	}
	*now = now.Add(2 * time.Millisecond)
	e.Tick()
	if e.Playing() {
		t.Fatalf("still playing past single-repeat deadline")
	}
}

func TestPlay_GainScalesDeadline(t *testing.T) {
	// strong=0xFFFF, gain=0x7FFF, length=100ms, repeat=2:
	// magnitude stays non-zero, deadline = now+200ms.
	e, motor, now := newTestEngine()
	eff := evdev.NewRumble(0xFFFF, 0, 100)
	id, _ := e.Upload(&eff)

	e.ApplyGain(0x7FFF)
	e.Play(id, 2)
	if !motor.on {
		t.Fatalf("motor should be on")
	}

	*now = now.Add(199 * time.Millisecond)
	e.Tick()
	if !motor.on {
		t.Fatalf("stopped before 200ms deadline")
	}

	*now = now.Add(51 * time.Millisecond) // now+250ms
	e.Tick()
	if motor.on {
		t.Fatalf("motor still on past deadline")
	}
}

func TestPlay_MutedGainStops(t *testing.T) {
	e, motor, _ := newTestEngine()
	eff := evdev.NewRumble(0xFFFF, 0, 100)
	id, _ := e.Upload(&eff)

	e.ApplyGain(0)
	e.Play(id, 1)
	if motor.on {
		t.Fatalf("play at gain 0 started the motor")
	}
}

func TestApplyGain_ZeroWhilePlayingStops(t *testing.T) {
	e, motor, _ := newTestEngine()
	eff := evdev.NewRumble(0xFFFF, 0, 100)
	id, _ := e.Upload(&eff)

	e.Play(id, 1)
	e.ApplyGain(0)
	if motor.on || e.Playing() {
		t.Fatalf("gain 0 did not mute active playback")
	}
}

func TestTick_ExactDeadlineStops(t *testing.T) {
	e, motor, now := newTestEngine()
	eff := evdev.NewRumble(0xFFFF, 0, 100)
	id, _ := e.Upload(&eff)

	e.Play(id, 1)
	*now = now.Add(100 * time.Millisecond)
	e.Tick()
	if motor.on {
		t.Fatalf("tick exactly at deadline must stop the motor")
	}
}

func TestTick_IdleIsNoop(t *testing.T) {
	e, motor, _ := newTestEngine()
	e.Tick()
	if motor.writes != 0 {
		t.Fatalf("idle tick touched the motor")
	}
}
