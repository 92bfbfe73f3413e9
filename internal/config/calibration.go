package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Calibration is one pad's axis calibration record. It is immutable for the
// lifetime of a session; edits on disk take effect on restart.
type Calibration struct {
	XMin     uint16
	XMax     uint16
	YMin     uint16
	YMax     uint16
	XZero    uint16
	YZero    uint16
	Deadzone uint16
}

// Tier names which layer of the calibration chain supplied a record.
type Tier int

const (
	TierOverride Tier = iota
	TierPrimary
	TierFallback
	TierDefault
)

func (t Tier) String() string {
	switch t {
	case TierOverride:
		return "override"
	case TierPrimary:
		return "primary"
	case TierFallback:
		return "fallback"
	default:
		return "default"
	}
}

// DefaultCalibration matches the factory sticks: 12-bit ADC centered at
// half scale.
func DefaultCalibration() Calibration {
	return Calibration{
		XMin:     0,
		XMax:     4095,
		YMin:     0,
		YMax:     4095,
		XZero:    2048,
		YZero:    2048,
		Deadzone: 1024,
	}
}

// LoadCalibration walks the chain override dir → primary path → fallback
// dir and returns the first record that parses, or the compiled-in default.
// It never fails; the returned tier tells the caller what it got.
func LoadCalibration(overrideDir, primaryPath, fallbackDir, filename string) (Calibration, Tier) {
	cal := DefaultCalibration()

	if overrideDir != "" {
		if parseCalibrationFile(filepath.Join(overrideDir, filename), &cal) {
			return cal, TierOverride
		}
	}
	if primaryPath != "" && parseCalibrationFile(primaryPath, &cal) {
		return cal, TierPrimary
	}
	if fallbackDir != "" && parseCalibrationFile(filepath.Join(fallbackDir, filename), &cal) {
		return cal, TierFallback
	}
	return DefaultCalibration(), TierDefault
}

// parseCalibrationFile reads a key=value record into cal. It reports true
// only when at least one known key parsed; a present-but-junk file falls
// through to the next tier.
func parseCalibrationFile(path string, cal *Calibration) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	parsed := false
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if applyCalibrationKey(cal, strings.TrimSpace(key), strings.TrimSpace(value)) {
			parsed = true
		}
	}
	return parsed && sc.Err() == nil
}

func applyCalibrationKey(cal *Calibration, key, value string) bool {
	v, err := strconv.ParseUint(value, 10, 16)
	if err != nil {
		return false
	}
	u := uint16(v)
	switch key {
	case "x_min":
		cal.XMin = u
	case "x_max":
		cal.XMax = u
	case "y_min":
		cal.YMin = u
	case "y_max":
		cal.YMax = u
	case "x_zero":
		cal.XZero = u
	case "y_zero":
		cal.YZero = u
	case "deadzone":
		cal.Deadzone = u
	default:
		return false
	}
	return true
}
