package mapping

// ButtonBit binds one bit of a half-pad button mask to an evdev key code.
type ButtonBit struct {
	Mask uint8
	Code uint16
}

// Transition is one observed button edge.
type Transition struct {
	Code    uint16
	Pressed bool
}

// Tracker diffs successive button masks of one half-pad against its table.
type Tracker struct {
	table []ButtonBit
	prev  uint8
}

func NewTracker(table []ButtonBit) *Tracker {
	return &Tracker{table: table}
}

// Diff returns the edges between the last stored mask and current, in table
// order, and stores current as the new reference. The unchanged case is the
// common one (it runs every poll tick) and returns immediately.
func (t *Tracker) Diff(current uint8) []Transition {
	prev := t.prev
	t.prev = current
	if prev == current {
		return nil
	}

	var out []Transition
	for _, b := range t.table {
		was := prev&b.Mask != 0
		is := current&b.Mask != 0
		if was == is {
			continue
		}
		out = append(out, Transition{Code: b.Code, Pressed: is})
	}
	return out
}

// Reset forgets the stored mask, treating the next sample as the baseline.
func (t *Tracker) Reset() {
	t.prev = 0
}
