// cmd/padbridged/main.go
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/tamzrod/padbridge/internal/config"
	"github.com/tamzrod/padbridge/internal/controller"
	"github.com/tamzrod/padbridge/internal/evdev"
	"github.com/tamzrod/padbridge/internal/gpio"
	"github.com/tamzrod/padbridge/internal/mapping"
	"github.com/tamzrod/padbridge/internal/pad"
	"github.com/tamzrod/padbridge/internal/rumble"
	"github.com/tamzrod/padbridge/internal/serial"
	"github.com/tamzrod/padbridge/internal/uinput"
)

func main() {
	cfgPath := flag.StringP("config", "c", "", "config file (YAML); empty means stock wiring")
	overrideDir := flag.String("override-dir", "", "calibration override directory (wins over all other tiers)")
	verbose := flag.BoolP("verbose", "v", false, "debug logging")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if err := run(*cfgPath, *overrideDir); err != nil {
		log.Fatal(err)
	}
}

func run(cfgPath, overrideDir string) error {

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := config.Validate(&cfg); err != nil {
		return err
	}
	config.Normalize(&cfg)

	profile, err := mapping.ProfileByName(cfg.Controller.Revision)
	if err != nil {
		return err
	}
	log.WithField("revision", profile.Name).Info("starting")

	// --------------------
	// Board bring-up
	// --------------------

	board := gpio.NewBoard(gpio.Pins{
		LeftEnable:  cfg.Controller.GPIO.LeftEnablePin,
		RightEnable: cfg.Controller.GPIO.RightEnablePin,
		Rumble:      cfg.Controller.GPIO.RumblePin,
		DIPSwitch:   cfg.Controller.GPIO.DIPSwitchPin,
		Rail5V:      cfg.Controller.GPIO.Rail5VPin,
	})
	if err := board.Init(); err != nil {
		// Input still works without the motor or the power rails.
		log.WithError(err).Warn("gpio bring-up failed, continuing without it")
	}
	defer board.SetRumble(false)

	// --------------------
	// Calibration (override dir -> stock file -> fallback dir -> built-in)
	// --------------------

	leftCal, leftTier := config.LoadCalibration(
		overrideDir,
		cfg.Controller.Left.CalibrationPrimary,
		cfg.Controller.CalibrationFallbackDir,
		cfg.Controller.Left.CalibrationName,
	)
	rightCal, rightTier := config.LoadCalibration(
		overrideDir,
		cfg.Controller.Right.CalibrationPrimary,
		cfg.Controller.CalibrationFallbackDir,
		cfg.Controller.Right.CalibrationName,
	)
	log.WithFields(log.Fields{"side": "left", "tier": leftTier.String()}).Info("calibration loaded")
	log.WithFields(log.Fields{"side": "right", "tier": rightTier.String()}).Info("calibration loaded")

	// --------------------
	// Virtual device
	// --------------------

	dev, err := uinput.Create(uinput.Config{
		Name:         cfg.Controller.DeviceName,
		Buttons:      profile.ButtonCodes(),
		FFEffectsMax: rumble.MaxEffects,
		LeftFlat:     advertisedFlat(leftCal.Deadzone),
		RightFlat:    advertisedFlat(rightCal.Deadzone),
	})
	if err != nil {
		return err
	}
	defer dev.Destroy()
	go dev.ServeFF()

	// --------------------
	// Half-pad sessions
	// --------------------

	left := pad.New(pad.Config{
		Side:        pad.Left,
		Calibration: leftCal,
		Map:         profile.Left,
		AxisXCode:   evdev.ABS_X,
		AxisYCode:   evdev.ABS_Y,
	}, transportFactory(cfg.Controller.Left.Port))
	right := pad.New(pad.Config{
		Side:        pad.Right,
		Calibration: rightCal,
		Map:         profile.Right,
		AxisXCode:   evdev.ABS_Z,
		AxisYCode:   evdev.ABS_RZ,
	}, transportFactory(cfg.Controller.Right.Port))

	// Both UARTs must open at startup; after that, loss is survivable.
	if err := left.Connect(); err != nil {
		return err
	}
	defer left.Close()
	if err := right.Connect(); err != nil {
		return err
	}
	defer right.Close()

	// --------------------
	// Run until signalled
	// --------------------

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt := controller.New(controller.Config{
		Left:        left,
		Right:       right,
		Engine:      rumble.New(board),
		Sink:        dev,
		FF:          dev.Requests(),
		Profile:     profile,
		PollTimeout: time.Duration(cfg.Controller.PollTimeoutMs) * time.Millisecond,
	})
	return rt.Run(ctx)
}

func transportFactory(port string) func() (pad.Transport, error) {
	return func() (pad.Transport, error) {
		p, err := serial.Open(port)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

// advertisedFlat mirrors the deadzone the axis mapper will actually apply,
// so the input stack's flat hint matches reality.
func advertisedFlat(dz uint16) int32 {
	if dz == 0 {
		dz = mapping.DefaultDeadzone
	}
	if int32(dz) > mapping.AxisMax {
		return mapping.AxisMax
	}
	return int32(dz)
}
