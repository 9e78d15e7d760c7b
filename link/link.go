// Package link streams touch events to a peer as CBOR frames.
package link

import (
	"fmt"
	"image"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"cydtouch.dev/driver/cst820"
	"cydtouch.dev/input"
)

// Frame is the wire form of an input.Event.
type Frame struct {
	Seq     uint32 `cbor:"1,keyasint"`
	Pressed bool   `cbor:"2,keyasint"`
	X       int    `cbor:"3,keyasint,omitempty"`
	Y       int    `cbor:"4,keyasint,omitempty"`
	Gesture uint8  `cbor:"5,keyasint,omitempty"`
	// Time is in milliseconds since the Unix epoch.
	Time int64 `cbor:"6,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	encMode = em
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
	decMode = dm
}

func frameOf(e input.Event, seq uint32) Frame {
	f := Frame{
		Seq:     seq,
		Pressed: e.Pressed,
		Gesture: uint8(e.Gesture),
	}
	if e.Pressed {
		f.X, f.Y = e.Pos.X, e.Pos.Y
	}
	if !e.Time.IsZero() {
		f.Time = e.Time.UnixMilli()
	}
	return f
}

// Event converts the frame back to an event.
func (f Frame) Event() input.Event {
	e := input.Event{
		Pressed: f.Pressed,
		Pos:     image.Pt(f.X, f.Y),
		Gesture: cst820.Gesture(f.Gesture),
	}
	if f.Time != 0 {
		e.Time = time.UnixMilli(f.Time)
	}
	return e
}

type Encoder struct {
	enc      *cbor.Encoder
	seq      uint32
	failures int
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: encMode.NewEncoder(w)}
}

// Send writes the next frame. Sequence numbers start at 1.
func (e *Encoder) Send(evt input.Event) error {
	e.seq++
	if err := e.enc.Encode(frameOf(evt, e.seq)); err != nil {
		e.failures++
		return fmt.Errorf("link: %w", err)
	}
	e.failures = 0
	return nil
}

// Failures returns the number of sends that failed since the last
// successful one.
func (e *Encoder) Failures() int {
	return e.failures
}

type Decoder struct {
	dec *cbor.Decoder
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: decMode.NewDecoder(r)}
}

// Next reads a frame. It returns io.EOF at the end of the stream.
func (d *Decoder) Next() (Frame, error) {
	var f Frame
	if err := d.dec.Decode(&f); err != nil {
		if err == io.EOF {
			return Frame{}, err
		}
		return Frame{}, fmt.Errorf("link: %w", err)
	}
	return f, nil
}
