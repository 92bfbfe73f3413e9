package config

import (
	"fmt"

	"github.com/tamzrod/padbridge/internal/mapping"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	c := &cfg.Controller

	if _, err := mapping.ProfileByName(c.Revision); err != nil {
		return fmt.Errorf("config: revision %q unknown (have %v)", c.Revision, mapping.ProfileNames())
	}

	if c.PollTimeoutMs <= 0 {
		return fmt.Errorf("config: poll_timeout_ms must be > 0, got %d", c.PollTimeoutMs)
	}

	if c.Left.Port == "" {
		return fmt.Errorf("config: left.port required")
	}
	if c.Right.Port == "" {
		return fmt.Errorf("config: right.port required")
	}
	if c.Left.Port == c.Right.Port {
		return fmt.Errorf("config: left and right pads share port %q", c.Left.Port)
	}

	for _, p := range []struct {
		side string
		pad  PadConfig
	}{{"left", c.Left}, {"right", c.Right}} {
		if p.pad.CalibrationName == "" {
			return fmt.Errorf("config: %s.calibration_name required", p.side)
		}
	}

	for _, pin := range []struct {
		name  string
		value int
	}{
		{"rumble_pin", c.GPIO.RumblePin},
		{"left_enable_pin", c.GPIO.LeftEnablePin},
		{"right_enable_pin", c.GPIO.RightEnablePin},
		{"dip_switch_pin", c.GPIO.DIPSwitchPin},
		{"rail_5v_pin", c.GPIO.Rail5VPin},
	} {
		if pin.value < 0 {
			return fmt.Errorf("config: gpio.%s must be >= 0, got %d", pin.name, pin.value)
		}
	}

	return nil
}
