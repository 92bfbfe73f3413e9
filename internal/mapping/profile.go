package mapping

import (
	"fmt"

	"github.com/tamzrod/padbridge/internal/evdev"
)

// SideMap is the wiring of one half-pad under a given hardware revision.
type SideMap struct {
	Buttons []ButtonBit
	InvertX bool
	InvertY bool

	// Hat is non-nil on the side whose D-pad bits are synthesized into
	// ABS_HAT0X/Y. Revisions that expose the D-pad as plain buttons leave
	// it nil and carry the bits in Buttons instead.
	Hat *HatBits
}

// Profile is one hardware revision: button tables, per-axis inversion and
// the hat wiring. Both revisions share one runtime; only the tables differ.
type Profile struct {
	Name  string
	Left  SideMap
	Right SideMap
}

// ButtonCodes returns every key code the profile can emit, left table first.
func (p Profile) ButtonCodes() []uint16 {
	var out []uint16
	for _, b := range p.Left.Buttons {
		out = append(out, b.Code)
	}
	for _, b := range p.Right.Buttons {
		out = append(out, b.Code)
	}
	return out
}

// smartPro synthesizes the left D-pad bits into a hat and inverts every
// stick axis (the ADCs are mounted mirrored on this revision).
var smartPro = Profile{
	Name: "smart-pro",
	Left: SideMap{
		Buttons: []ButtonBit{
			{Mask: 0x01, Code: evdev.BTN_TL},   // L1
			{Mask: 0x02, Code: evdev.BTN_TL2},  // L2
			{Mask: 0x80, Code: evdev.BTN_MODE}, // menu
		},
		InvertX: true,
		InvertY: true,
		Hat: &HatBits{
			Up:    0x04,
			Left:  0x08,
			Right: 0x10,
			Down:  0x20,
		},
	},
	Right: SideMap{
		Buttons: []ButtonBit{
			{Mask: 0x10, Code: evdev.BTN_SOUTH},  // B
			{Mask: 0x20, Code: evdev.BTN_EAST},   // A
			{Mask: 0x04, Code: evdev.BTN_NORTH},  // Y
			{Mask: 0x08, Code: evdev.BTN_WEST},   // X
			{Mask: 0x01, Code: evdev.BTN_TR},     // R1
			{Mask: 0x02, Code: evdev.BTN_TR2},    // R2
			{Mask: 0x40, Code: evdev.BTN_SELECT},
			{Mask: 0x80, Code: evdev.BTN_START},
		},
		InvertX: true,
		InvertY: true,
	},
}

// brick exposes the D-pad bits as discrete BTN_DPAD_* keys and only the
// sticks' Y axes are mirrored.
var brick = Profile{
	Name: "brick",
	Left: SideMap{
		Buttons: []ButtonBit{
			{Mask: 0x01, Code: evdev.BTN_TL},
			{Mask: 0x02, Code: evdev.BTN_TL2},
			{Mask: 0x04, Code: evdev.BTN_DPAD_UP},
			{Mask: 0x08, Code: evdev.BTN_DPAD_LEFT},
			{Mask: 0x10, Code: evdev.BTN_DPAD_RIGHT},
			{Mask: 0x20, Code: evdev.BTN_DPAD_DOWN},
			{Mask: 0x80, Code: evdev.BTN_MODE},
		},
		InvertY: true,
	},
	Right: SideMap{
		Buttons: []ButtonBit{
			{Mask: 0x10, Code: evdev.BTN_SOUTH},
			{Mask: 0x20, Code: evdev.BTN_EAST},
			{Mask: 0x04, Code: evdev.BTN_NORTH},
			{Mask: 0x08, Code: evdev.BTN_WEST},
			{Mask: 0x01, Code: evdev.BTN_TR},
			{Mask: 0x02, Code: evdev.BTN_TR2},
			{Mask: 0x40, Code: evdev.BTN_SELECT},
			{Mask: 0x80, Code: evdev.BTN_START},
		},
		InvertY: true,
	},
}

var profiles = map[string]Profile{
	smartPro.Name: smartPro,
	brick.Name:    brick,
}

// ProfileByName looks up a built-in hardware revision.
func ProfileByName(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("mapping: unknown hardware revision %q", name)
	}
	return p, nil
}

// ProfileNames lists the known revisions, for error messages and validation.
func ProfileNames() []string {
	return []string{smartPro.Name, brick.Name}
}
