package touch

import "image"

// Filter debounces presence and smooths positions. A press or release is
// only reported after it has been seen on consecutive polls, which hides
// single poll glitches at the cost of one poll of latency on each edge.
type Filter struct {
	// PressStable and ReleaseStable are the number of consecutive polls
	// needed to change the reported state.
	PressStable   int
	ReleaseStable int
	// Deadzone is the movement in pixels, per axis, below which the
	// reported position is held.
	Deadzone int

	pressed  bool
	presses  int
	releases int
	pos      image.Point
}

func NewFilter() *Filter {
	return &Filter{
		PressStable:   2,
		ReleaseStable: 2,
		Deadzone:      3,
	}
}

// Update feeds one poll into the filter and returns the filtered state.
// The position is only meaningful while pressed.
func (f *Filter) Update(pressed bool, p image.Point) (bool, image.Point) {
	if !pressed {
		f.releases++
		f.presses = 0
		if f.pressed && f.releases >= f.ReleaseStable {
			f.pressed = false
		}
		return f.pressed, f.pos
	}
	if !f.pressed {
		f.pos = p
	} else {
		d := p.Sub(f.pos)
		if abs(d.X) > f.Deadzone || abs(d.Y) > f.Deadzone {
			f.pos = f.pos.Mul(3).Add(p).Div(4)
		}
	}
	f.presses++
	f.releases = 0
	if !f.pressed && f.presses >= f.PressStable {
		f.pressed = true
	}
	return f.pressed, f.pos
}

func (f *Filter) Reset() {
	f.pressed = false
	f.presses = 0
	f.releases = 0
	f.pos = image.Point{}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
