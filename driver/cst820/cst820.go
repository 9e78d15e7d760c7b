// Package cst820 implements a driver for the Hynitron CST820 capacitive
// touch controller, as fitted to the JC2432W328 family of ESP32 boards.
//
// The controller is polled: each ReadTouch performs three bus transactions
// and reports a single finger. The bus must be configured for 400 kHz by
// the caller.
package cst820

import (
	"errors"
	"fmt"
	"image"
	"time"

	"periph.io/x/conn/v3/gpio"
)

type Device struct {
	bus     Bus
	addr    uint16
	reset   Pin
	intr    Pin
	retries int
	timeout time.Duration
	sleep   func(time.Duration)
	now     func() time.Time
	// Room for a register address and a coordinate burst.
	scratch [1 + coordLen]byte
}

// Bus is satisfied by periph.io i2c.Bus and TinyGo drivers.I2C.
type Bus interface {
	Tx(addr uint16, w, r []byte) error
}

// Pin is an output line wired to the controller. periph.io
// gpio.PinOut implementations satisfy it.
type Pin interface {
	Out(l gpio.Level) error
}

type Config struct {
	// Address is the 7-bit bus address. Zero means DefaultAddress.
	Address uint16
	// Reset and Interrupt are optional; nil means not wired.
	Reset     Pin
	Interrupt Pin
	// ReadRetries bounds the attempts of a single register read.
	// Zero means DefaultReadRetries. Unbounded, or any other negative
	// value, retries until the controller answers.
	ReadRetries int
	// ReadTimeout bounds the time spent retrying a single register
	// read. Zero means the retry count is the only bound.
	ReadTimeout time.Duration
}

type Sample struct {
	Pressed bool
	// Pos is in sensor coordinates and only meaningful when Pressed.
	Pos     image.Point
	Gesture Gesture
}

const (
	DefaultAddress = 0x15
	// DefaultReadRetries is far above the one or two extra cycles
	// the controller needs while sampling.
	DefaultReadRetries = 100
	// Unbounded is the canonical negative ReadRetries.
	Unbounded = -1
)

var (
	// ErrTimeout reports a register read that never got an answer.
	ErrTimeout = errors.New("sensor timeout")
	// ErrTransaction reports a failed burst transfer.
	ErrTransaction = errors.New("transaction failed")
	// ErrNotFound reports that nothing acknowledged the device address.
	ErrNotFound = errors.New("device not found")
)

const (
	regGesture      = 0x01
	regFingerNum    = 0x02
	regXposH        = 0x03
	regDisAutoSleep = 0xfe

	coordLen = 4

	// resetBootTime is the minimum time from reset release to the
	// first transaction.
	resetBootTime = 300 * time.Millisecond
)

func New(bus Bus, c Config) *Device {
	d := &Device{
		bus:     bus,
		addr:    c.Address,
		reset:   c.Reset,
		intr:    c.Interrupt,
		retries: c.ReadRetries,
		timeout: c.ReadTimeout,
		sleep:   time.Sleep,
		now:     time.Now,
	}
	if d.addr == 0 {
		d.addr = DefaultAddress
	}
	if d.retries == 0 {
		d.retries = DefaultReadRetries
	}
	return d
}

// Configure wakes and resets the controller, checks that it answers and
// disables its automatic low power mode.
func (d *Device) Configure() error {
	if p := d.intr; p != nil {
		if err := p.Out(gpio.High); err != nil {
			return fmt.Errorf("cst820: interrupt pin: %w", err)
		}
		d.sleep(time.Millisecond)
		if err := p.Out(gpio.Low); err != nil {
			return fmt.Errorf("cst820: interrupt pin: %w", err)
		}
		d.sleep(time.Millisecond)
	}
	if p := d.reset; p != nil {
		if err := p.Out(gpio.Low); err != nil {
			return fmt.Errorf("cst820: reset pin: %w", err)
		}
		d.sleep(10 * time.Millisecond)
		if err := p.Out(gpio.High); err != nil {
			return fmt.Errorf("cst820: reset pin: %w", err)
		}
		d.sleep(resetBootTime)
	}
	if err := d.Probe(); err != nil {
		return err
	}
	// The controller drops touches when allowed to doze.
	if err := d.writeReg(regDisAutoSleep, 0xff); err != nil {
		return fmt.Errorf("cst820: disable auto sleep: %w", err)
	}
	return nil
}

// Probe addresses the controller without reading from it.
func (d *Device) Probe() error {
	req := d.scratch[:1]
	req[0] = regGesture
	if err := d.bus.Tx(d.addr, req, nil); err != nil {
		return fmt.Errorf("cst820: address %#x: %w: %w", d.addr, ErrNotFound, err)
	}
	return nil
}

// ReadTouch samples the finger, gesture and coordinate registers.
func (d *Device) ReadTouch() (Sample, error) {
	fingers, err := d.readReg(regFingerNum)
	if err != nil {
		return Sample{}, err
	}
	g, err := d.readReg(regGesture)
	if err != nil {
		return Sample{}, err
	}
	coords := d.scratch[1 : 1+coordLen]
	if err := d.readRegs(regXposH, coords); err != nil {
		return Sample{}, err
	}
	return Sample{
		Pressed: fingers != 0,
		Pos:     decodePos(coords),
		Gesture: decodeGesture(g),
	}, nil
}

// decodePos decodes the X and Y high nibble, low byte pairs.
func decodePos(b []byte) image.Point {
	return image.Point{
		X: int(b[0]&0x0f)<<8 | int(b[1]),
		Y: int(b[2]&0x0f)<<8 | int(b[3]),
	}
}

// readReg reads a single register with a repeated start. The controller
// occasionally stalls the bus while sampling, so the transaction is
// retried within the configured budget.
func (d *Device) readReg(reg byte) (byte, error) {
	req, resp := d.scratch[:1], d.scratch[1:2]
	req[0] = reg
	var deadline time.Time
	if d.timeout > 0 {
		deadline = d.now().Add(d.timeout)
	}
	var err error
	for attempt := 0; d.retries < 0 || attempt < d.retries; attempt++ {
		if err = d.bus.Tx(d.addr, req, resp); err == nil {
			return resp[0], nil
		}
		if !deadline.IsZero() && !d.now().Before(deadline) {
			break
		}
	}
	return 0, fmt.Errorf("cst820: read %#x: %w: %w", reg, ErrTimeout, err)
}

// readRegs reads len(buf) registers starting at reg. The address phase
// ends with a stop condition. buf is left untouched on failure.
func (d *Device) readRegs(reg byte, buf []byte) error {
	req := d.scratch[:1]
	req[0] = reg
	if err := d.bus.Tx(d.addr, req, nil); err != nil {
		return fmt.Errorf("cst820: read %#x: %w: %w", reg, ErrTransaction, err)
	}
	var tmp [coordLen]byte
	rd := tmp[:len(buf)]
	if err := d.bus.Tx(d.addr, nil, rd); err != nil {
		return fmt.Errorf("cst820: read %#x: %w: %w", reg, ErrTransaction, err)
	}
	copy(buf, rd)
	return nil
}

func (d *Device) writeReg(reg, val byte) error {
	req := d.scratch[:2]
	req[0] = reg
	req[1] = val
	return d.bus.Tx(d.addr, req, nil)
}
