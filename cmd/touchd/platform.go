package main

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"cydtouch.dev/driver/cst820"
)

const busSpeed = 400 * physic.KiloHertz

// Platform holds the host bus and pins wired to the controller.
type Platform struct {
	bus   i2c.BusCloser
	reset gpio.PinIO
	intr  gpio.PinIO
}

func Init(cfg Config) (*Platform, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	bus, err := openBus(cfg.Bus, cfg.SDA, cfg.SCL)
	if err != nil {
		return nil, fmt.Errorf("i2c: %w", err)
	}
	if err := bus.SetSpeed(busSpeed); err != nil {
		bus.Close()
		return nil, fmt.Errorf("i2c: %w", err)
	}
	p := &Platform{bus: bus}
	if p.reset, err = openPin(cfg.Reset); err != nil {
		bus.Close()
		return nil, err
	}
	if p.intr, err = openPin(cfg.Interrupt); err != nil {
		bus.Close()
		return nil, err
	}
	return p, nil
}

// openBus opens the named bus. Without a name, it looks for the bus
// on the sda and scl pins, or opens the default bus if neither is given.
func openBus(name, sda, scl string) (i2c.BusCloser, error) {
	if name != "" || sda == "" && scl == "" {
		return i2creg.Open(name)
	}
	for _, ref := range i2creg.All() {
		b, err := ref.Open()
		if err != nil {
			continue
		}
		if p, ok := b.(i2c.Pins); ok && isPin(p.SDA(), sda) && isPin(p.SCL(), scl) {
			return b, nil
		}
		b.Close()
	}
	return nil, fmt.Errorf("no bus on SDA %q, SCL %q", sda, scl)
}

func isPin(p gpio.PinIO, name string) bool {
	if name == "" {
		return true
	}
	want := gpioreg.ByName(name)
	return p != nil && want != nil && p.Name() == want.Name()
}

func openPin(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio: no pin %q", name)
	}
	return p, nil
}

// Device returns the controller driver on the platform bus.
func (p *Platform) Device(cfg Config) *cst820.Device {
	c := cst820.Config{
		Address:     cfg.Address,
		ReadRetries: cfg.ReadRetries,
		ReadTimeout: cfg.ReadTimeout,
	}
	// Leave absent pins as nil interfaces.
	if p.reset != nil {
		c.Reset = p.reset
	}
	if p.intr != nil {
		c.Interrupt = p.intr
	}
	return cst820.New(p.bus, c)
}

// Wake turns the interrupt line into an input that signals new samples
// on falling edges. It returns nil if no interrupt line is wired.
func (p *Platform) Wake() (gpio.PinIn, error) {
	if p.intr == nil {
		return nil, nil
	}
	if err := p.intr.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("gpio: %s: %w", p.intr.Name(), err)
	}
	return p.intr, nil
}

func (p *Platform) Close() error {
	if p.intr != nil {
		p.intr.Halt()
	}
	return p.bus.Close()
}
