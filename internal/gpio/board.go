// Package gpio brings up the board lines the stock firmware expects and
// exposes the rumble motor as a binary output.
package gpio

import (
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Pins is the board wiring, overridable from the daemon config.
type Pins struct {
	LeftEnable  int // left half-pad power rail
	RightEnable int // right half-pad power rail
	Rumble      int // motor driver
	DIPSwitch   int // hardware-revision DIP switch, input
	Rail5V      int // 5V rail enable
}

// DefaultPins matches the stock board (Allwinner PD/PH bank numbering).
func DefaultPins() Pins {
	return Pins{
		LeftEnable:  110, // PD14
		RightEnable: 114, // PD18
		Rumble:      227, // PH3
		DIPSwitch:   243, // PH19
		Rail5V:      107, // PD11
	}
}

// Board owns the GPIO lines. The rumble line tracks its last written value
// so redundant writes never reach sysfs; that suppression is part of the
// SetRumble contract, not an optimization the caller may rely on skipping.
type Board struct {
	pins Pins

	rumble      gpio.PinIO
	rumbleOn    bool
	initialized bool

	log *log.Entry
}

func NewBoard(pins Pins) *Board {
	return &Board{
		pins: pins,
		log:  log.WithField("component", "gpio"),
	}
}

// Init performs the one-time bring-up: power rails on, rumble idle, DIP
// switch as input, 5V rail on. Individual line failures are logged and
// skipped; a handheld with a missing rail is still more useful with input
// than without. Idempotent.
func (b *Board) Init() error {
	if b.initialized {
		return nil
	}
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("gpio: host init: %w", err)
	}

	b.output(b.pins.LeftEnable, gpio.High)
	b.output(b.pins.RightEnable, gpio.High)
	b.rumble = b.output(b.pins.Rumble, gpio.Low)
	b.input(b.pins.DIPSwitch)
	b.output(b.pins.Rail5V, gpio.High)

	b.rumbleOn = false
	b.initialized = true
	return nil
}

// SetRumble drives the motor line, suppressing writes that would not change
// its level.
func (b *Board) SetRumble(on bool) {
	if b.rumbleOn == on {
		return
	}
	b.rumbleOn = on
	if b.rumble == nil {
		return
	}
	level := gpio.Low
	if on {
		level = gpio.High
	}
	if err := b.rumble.Out(level); err != nil {
		b.log.WithError(err).Error("rumble line write failed")
	}
}

func (b *Board) output(number int, level gpio.Level) gpio.PinIO {
	pin := b.lookup(number)
	if pin == nil {
		return nil
	}
	if err := pin.Out(level); err != nil {
		b.log.WithError(err).Errorf("GPIO%d: set output failed", number)
		return nil
	}
	return pin
}

func (b *Board) input(number int) {
	pin := b.lookup(number)
	if pin == nil {
		return
	}
	if err := pin.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		b.log.WithError(err).Errorf("GPIO%d: set input failed", number)
	}
}

func (b *Board) lookup(number int) gpio.PinIO {
	// sysfs-backed hosts register plain numbers, SoC drivers register
	// GPIO-prefixed names; try both.
	if pin := gpioreg.ByName(strconv.Itoa(number)); pin != nil {
		return pin
	}
	if pin := gpioreg.ByName(fmt.Sprintf("GPIO%d", number)); pin != nil {
		return pin
	}
	b.log.Errorf("GPIO%d: no such pin", number)
	return nil
}
