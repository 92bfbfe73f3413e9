// Package mapping holds the pure input-translation pieces: ADC-to-axis
// calibration math, button edge tracking, hat synthesis, and the
// per-hardware-revision tables that parameterize them.
package mapping

// Axis output range and the deadzone used when calibration does not
// supply one.
const (
	AxisMin = -32768
	AxisMax = 32767

	DefaultDeadzone = 1024
)

func clampAxis(v int) int16 {
	if v > AxisMax {
		return AxisMax
	}
	if v < AxisMin {
		return AxisMin
	}
	return int16(v)
}

// roundHalfAway rounds to nearest with ties away from zero.
func roundHalfAway(v float64) int {
	if v >= 0 {
		return int(v + 0.5)
	}
	return int(v - 0.5)
}

// MapAxis converts one raw ADC sample into a signed axis value.
//
// The sample is centered on zero and normalized against the half-range on
// its side of center, so asymmetric calibrations work. A zero half-range
// marks an uncalibrated axis and maps to 0. The normalized value is clamped
// to [-1, 1] before scaling and the scaled value is clamped again after the
// deadzone; both clamps are needed to keep drifted calibrations in range.
func MapAxis(raw, min, max, zero, deadzone uint16, invert bool) int16 {
	centered := int32(raw) - int32(zero)
	var halfRange int32
	if centered >= 0 {
		halfRange = int32(max) - int32(zero)
	} else {
		halfRange = int32(zero) - int32(min)
	}
	if halfRange == 0 {
		return 0
	}

	normalized := float64(centered) / float64(halfRange)
	if normalized > 1.0 {
		normalized = 1.0
	}
	if normalized < -1.0 {
		normalized = -1.0
	}

	scale := float64(AxisMax)
	if normalized < 0 {
		scale = -float64(AxisMin)
	}
	value := roundHalfAway(normalized * scale)
	if invert {
		value = -value
	}

	dz := int(deadzone)
	if dz <= 0 {
		dz = DefaultDeadzone
	}
	if dz > AxisMax {
		dz = AxisMax
	}
	if value > -dz && value < dz {
		value = 0
	}
	return clampAxis(value)
}
