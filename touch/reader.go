package touch

import (
	"image"

	tinytouch "tinygo.org/x/drivers/touch"

	"cydtouch.dev/driver/cst820"
)

// Sensor is a source of raw samples, such as a *cst820.Device.
type Sensor interface {
	ReadTouch() (cst820.Sample, error)
}

// State is a touch in display coordinates.
type State struct {
	Pressed bool
	// Pos is only meaningful when Pressed.
	Pos     image.Point
	Gesture cst820.Gesture
}

// Reader is the per-tick read hook of an input device: it samples the
// sensor, maps the sample onto the display and optionally filters it.
type Reader struct {
	sensor Sensor
	mapper Mapper
	filter *Filter
}

var _ tinytouch.Pointer = (*Reader)(nil)

// NewReader returns a Reader. The filter may be nil.
func NewReader(s Sensor, m Mapper, f *Filter) *Reader {
	return &Reader{
		sensor: s,
		mapper: m,
		filter: f,
	}
}

// Read samples the sensor once. Failed samples leave the filter state
// untouched and report a release.
func (r *Reader) Read() (State, error) {
	s, err := r.sensor.ReadTouch()
	if err != nil {
		return State{}, err
	}
	st := State{
		Pressed: s.Pressed,
		Gesture: s.Gesture,
	}
	if s.Pressed {
		st.Pos = r.mapper.Map(s.Pos)
	}
	if r.filter != nil {
		st.Pressed, st.Pos = r.filter.Update(s.Pressed, st.Pos)
	}
	if !st.Pressed {
		st.Pos = image.Point{}
	}
	return st, nil
}

// ReadTouchPoint implements the TinyGo touch.Pointer interface. Z is 1
// while pressed and 0 otherwise.
func (r *Reader) ReadTouchPoint() tinytouch.Point {
	st, err := r.Read()
	if err != nil || !st.Pressed {
		return tinytouch.Point{}
	}
	return tinytouch.Point{X: st.Pos.X, Y: st.Pos.Y, Z: 1}
}
