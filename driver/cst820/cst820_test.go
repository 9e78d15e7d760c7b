package cst820

import (
	"errors"
	"fmt"
	"image"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

var errNack = errors.New("nack")

// regBus emulates the controller's register file.
type regBus struct {
	regs [256]byte
	ptr  byte
	// stalls is the number of leading transactions that fail.
	stalls int
	// failBurst fails the address phase of coordinate bursts.
	failBurst bool
	txs       int
}

func (b *regBus) Tx(addr uint16, w, r []byte) error {
	b.txs++
	if addr != DefaultAddress {
		return errNack
	}
	if b.stalls > 0 {
		b.stalls--
		return errNack
	}
	if b.failBurst && len(w) == 1 && len(r) == 0 && w[0] == regXposH {
		return errNack
	}
	if len(w) > 0 {
		b.ptr = w[0]
		copy(b.regs[b.ptr:], w[1:])
	}
	for i := range r {
		r[i] = b.regs[b.ptr+byte(i)]
	}
	return nil
}

type logPin struct {
	name string
	log  *[]string
	err  error
}

func (p *logPin) Out(l gpio.Level) error {
	*p.log = append(*p.log, fmt.Sprintf("%s=%s", p.name, l))
	return p.err
}

func newTestDevice(bus Bus, c Config, log *[]string) *Device {
	d := New(bus, c)
	d.sleep = func(dt time.Duration) {
		if log != nil {
			*log = append(*log, "sleep "+dt.String())
		}
	}
	return d
}

func TestConfigure(t *testing.T) {
	c := qt.New(t)
	var log []string
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddress, W: []byte{regGesture}},
			{Addr: DefaultAddress, W: []byte{regDisAutoSleep, 0xff}},
		},
		DontPanic: true,
	}
	d := newTestDevice(bus, Config{
		Reset:     &logPin{name: "rst", log: &log},
		Interrupt: &logPin{name: "int", log: &log},
	}, &log)
	c.Assert(d.Configure(), qt.IsNil)
	c.Assert(bus.Close(), qt.IsNil)
	c.Assert(log, qt.DeepEquals, []string{
		"int=High", "sleep 1ms", "int=Low", "sleep 1ms",
		"rst=Low", "sleep 10ms", "rst=High", "sleep 300ms",
	})
}

func TestConfigureWithoutPins(t *testing.T) {
	c := qt.New(t)
	var log []string
	bus := new(regBus)
	d := newTestDevice(bus, Config{}, &log)
	c.Assert(d.Configure(), qt.IsNil)
	c.Assert(log, qt.HasLen, 0)
	c.Assert(bus.regs[regDisAutoSleep], qt.Equals, byte(0xff))
}

func TestConfigureNotFound(t *testing.T) {
	c := qt.New(t)
	bus := new(regBus)
	d := newTestDevice(bus, Config{Address: 0x38}, nil)
	err := d.Configure()
	c.Assert(err, qt.ErrorIs, ErrNotFound)
	c.Assert(bus.regs[regDisAutoSleep], qt.Equals, byte(0))
}

func TestConfigurePinError(t *testing.T) {
	c := qt.New(t)
	var log []string
	d := newTestDevice(new(regBus), Config{
		Reset: &logPin{name: "rst", log: &log, err: errors.New("busy")},
	}, nil)
	c.Assert(d.Configure(), qt.ErrorMatches, "cst820: reset pin: busy")
}

func TestReadTouch(t *testing.T) {
	c := qt.New(t)
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddress, W: []byte{regFingerNum}, R: []byte{0x01}},
			{Addr: DefaultAddress, W: []byte{regGesture}, R: []byte{0x0b}},
			{Addr: DefaultAddress, W: []byte{regXposH}},
			{Addr: DefaultAddress, R: []byte{0x81, 0x2c, 0x40, 0xef}},
		},
		DontPanic: true,
	}
	d := newTestDevice(bus, Config{}, nil)
	s, err := d.ReadTouch()
	c.Assert(err, qt.IsNil)
	c.Assert(bus.Close(), qt.IsNil)
	c.Assert(s, qt.Equals, Sample{
		Pressed: true,
		Pos:     image.Pt(300, 239),
		Gesture: DoubleTap,
	})
}

func TestDecodePos(t *testing.T) {
	for hi := 0; hi <= 0xff; hi++ {
		for lo := 0; lo <= 0xff; lo++ {
			want := (hi&0x0f)<<8 | lo
			p := decodePos([]byte{byte(hi), byte(lo), byte(hi), byte(lo)})
			if p.X != want || p.Y != want {
				t.Fatalf("decodePos(%#x, %#x) = %v, want (%d,%d)", hi, lo, p, want, want)
			}
			if p.X < 0 || p.X > 4095 {
				t.Fatalf("decodePos(%#x, %#x) = %v out of range", hi, lo, p)
			}
		}
	}
	// X and Y are independent.
	if p := decodePos([]byte{0xf1, 0x02, 0x0e, 0xff}); p != image.Pt(0x102, 0xeff) {
		t.Errorf("decodePos = %v", p)
	}
}

func TestPresence(t *testing.T) {
	bus := new(regBus)
	d := newTestDevice(bus, Config{}, nil)
	for v := 0; v <= 0xff; v++ {
		bus.regs[regFingerNum] = byte(v)
		s, err := d.ReadTouch()
		if err != nil {
			t.Fatal(err)
		}
		if want := v != 0; s.Pressed != want {
			t.Errorf("finger register %#x: pressed %v, want %v", v, s.Pressed, want)
		}
	}
}

func TestGestureDecode(t *testing.T) {
	defined := map[byte]Gesture{
		0x00: NoGesture,
		0x01: SlideDown,
		0x02: SlideUp,
		0x03: SlideLeft,
		0x04: SlideRight,
		0x05: SingleTap,
		0x0b: DoubleTap,
		0x0c: LongPress,
	}
	bus := new(regBus)
	d := newTestDevice(bus, Config{}, nil)
	for v := 0; v <= 0xff; v++ {
		bus.regs[regGesture] = byte(v)
		s, err := d.ReadTouch()
		if err != nil {
			t.Fatal(err)
		}
		want, ok := defined[byte(v)]
		if !ok {
			want = NoGesture
		}
		if s.Gesture != want {
			t.Errorf("gesture register %#x: got %v, want %v", v, s.Gesture, want)
		}
	}
}

func TestParseGesture(t *testing.T) {
	c := qt.New(t)
	for _, g := range []Gesture{NoGesture, SlideDown, SlideUp, SlideLeft, SlideRight, SingleTap, DoubleTap, LongPress} {
		got, err := ParseGesture(g.String())
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.Equals, g)
	}
	_, err := ParseGesture("pinch")
	c.Assert(err, qt.ErrorMatches, `cst820: unknown gesture "pinch"`)
}

func TestBurstFailure(t *testing.T) {
	c := qt.New(t)
	bus := &regBus{failBurst: true}
	bus.regs[regFingerNum] = 1
	bus.regs[regXposH] = 0x01
	d := newTestDevice(bus, Config{}, nil)

	s, err := d.ReadTouch()
	c.Assert(err, qt.ErrorIs, ErrTransaction)
	c.Assert(s, qt.Equals, Sample{})

	buf := []byte{0xaa, 0xbb, 0xcc, 0xdd}
	err = d.readRegs(regXposH, buf)
	c.Assert(err, qt.ErrorIs, ErrTransaction)
	c.Assert(buf, qt.DeepEquals, []byte{0xaa, 0xbb, 0xcc, 0xdd})
}

func TestReadRetries(t *testing.T) {
	c := qt.New(t)
	// A short stall is absorbed by the default budget.
	bus := &regBus{stalls: 3}
	bus.regs[regFingerNum] = 1
	d := newTestDevice(bus, Config{}, nil)
	s, err := d.ReadTouch()
	c.Assert(err, qt.IsNil)
	c.Assert(s.Pressed, qt.IsTrue)

	bus = &regBus{stalls: 1000}
	d = newTestDevice(bus, Config{ReadRetries: 5}, nil)
	_, err = d.ReadTouch()
	c.Assert(err, qt.ErrorIs, ErrTimeout)
	c.Assert(bus.txs, qt.Equals, 5)
}

func TestReadUnbounded(t *testing.T) {
	c := qt.New(t)
	for _, retries := range []int{Unbounded, -7} {
		bus := &regBus{stalls: 500}
		bus.regs[regFingerNum] = 1
		d := newTestDevice(bus, Config{ReadRetries: retries}, nil)
		s, err := d.ReadTouch()
		c.Assert(err, qt.IsNil)
		c.Assert(s.Pressed, qt.IsTrue)
		// 500 stalls, then the finger, gesture and two burst transactions.
		c.Assert(bus.txs, qt.Equals, 504, qt.Commentf("retries %d", retries))
	}
}

func TestReadTimeout(t *testing.T) {
	c := qt.New(t)
	bus := &regBus{stalls: 1 << 30}
	d := newTestDevice(bus, Config{ReadRetries: Unbounded, ReadTimeout: 10 * time.Millisecond}, nil)
	now := time.Unix(0, 0)
	d.now = func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}
	_, err := d.ReadTouch()
	c.Assert(err, qt.ErrorIs, ErrTimeout)
	c.Assert(bus.txs, qt.Equals, 10)
}
