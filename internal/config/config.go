// Package config loads the daemon configuration and the per-pad
// calibration records.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Controller ControllerConfig `yaml:"controller"`
}

type ControllerConfig struct {
	DeviceName    string `yaml:"device_name"`
	Revision      string `yaml:"revision"`
	PollTimeoutMs int    `yaml:"poll_timeout_ms"`

	// Third tier of the calibration chain, shared by both sides.
	CalibrationFallbackDir string `yaml:"calibration_fallback_dir"`

	Left  PadConfig  `yaml:"left"`
	Right PadConfig  `yaml:"right"`
	GPIO  GPIOConfig `yaml:"gpio"`
}

// ---- PER-SIDE ----

type PadConfig struct {
	Port string `yaml:"port"`

	// Second tier of the calibration chain (the stock firmware location).
	CalibrationPrimary string `yaml:"calibration_primary"`
	// File name looked up inside the override and fallback directories.
	CalibrationName string `yaml:"calibration_name"`
}

// ---- GPIO ----

type GPIOConfig struct {
	RumblePin      int `yaml:"rumble_pin"`
	LeftEnablePin  int `yaml:"left_enable_pin"`
	RightEnablePin int `yaml:"right_enable_pin"`
	DIPSwitchPin   int `yaml:"dip_switch_pin"`
	Rail5VPin      int `yaml:"rail_5v_pin"`
}

// Default is the stock device wiring; a missing config file means a stock
// device.
func Default() Config {
	return Config{
		Controller: ControllerConfig{
			DeviceName:             "TRIMUI Smart Pro Controller",
			Revision:               "smart-pro",
			PollTimeoutMs:          1,
			CalibrationFallbackDir: "/userdata/system/config/trimui-input",
			Left: PadConfig{
				Port:               "/dev/ttyS4",
				CalibrationPrimary: "/mnt/UDISK/joypad.config",
				CalibrationName:    "joypad.config",
			},
			Right: PadConfig{
				Port:               "/dev/ttyS3",
				CalibrationPrimary: "/mnt/UDISK/joypad_right.config",
				CalibrationName:    "joypad_right.config",
			},
			GPIO: GPIOConfig{
				RumblePin:      227,
				LeftEnablePin:  110,
				RightEnablePin: 114,
				DIPSwitchPin:   243,
				Rail5VPin:      107,
			},
		},
	}
}

// Load reads a config file over the defaults. An empty path means defaults
// only; a named file that cannot be read or parsed is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
