//go:build tinygo

// Command firmware runs on the JC2432W328 board and streams the touches
// of its CST820 controller over the USB serial port.
package main

import (
	"context"
	"io"
	"log/slog"
	"machine"
	"time"

	"periph.io/x/conn/v3/gpio"
	"tinygo.org/x/drivers"

	"cydtouch.dev/driver/cst820"
	"cydtouch.dev/input"
	"cydtouch.dev/link"
	"cydtouch.dev/touch"
	"cydtouch.dev/trace"
)

const (
	pinSDA   = machine.GPIO33
	pinSCL   = machine.GPIO32
	pinReset = machine.GPIO25
	pinInt   = machine.GPIO21
	// pinLED is the red channel of the board's RGB LED, active low.
	pinLED = machine.GPIO4
)

// Output selects the serial output: "cbor" for link frames, "text" for
// status lines. Set with -ldflags='-X main.Output=text'.
var Output = "cbor"

// pin adapts a machine pin to the driver.
type pin machine.Pin

func (p pin) Out(l gpio.Level) error {
	machine.Pin(p).Set(bool(l))
	return nil
}

func main() {
	time.Sleep(time.Second)

	i2c := machine.I2C0
	err := i2c.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       pinSDA,
		SCL:       pinSCL,
	})
	if err != nil {
		halt("i2c: " + err.Error())
	}
	for _, p := range []machine.Pin{pinReset, pinInt} {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
	var bus drivers.I2C = i2c
	dev := cst820.New(bus, cst820.Config{
		Reset:     pin(pinReset),
		Interrupt: pin(pinInt),
	})
	for {
		err := dev.Configure()
		if err == nil {
			break
		}
		if Output == "text" {
			println(err.Error())
		}
		time.Sleep(time.Second)
	}
	pinInt.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	logw := io.Discard
	if Output == "text" {
		logw = machine.Serial
	}
	log := slog.New(slog.NewTextHandler(logw, nil))
	poller := &input.Poller{
		Source: touch.NewReader(dev, touch.DefaultMapper(), touch.NewFilter()),
		Logger: log,
	}
	pinLED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinLED.High()
	events := make(chan input.Event, 4)
	go poller.Run(context.Background(), events)

	enc := link.NewEncoder(machine.Serial)
	for e := range events {
		if Output == "text" {
			println(trace.Status(e))
			continue
		}
		// Frames are dropped while the host is not reading; the LED stays
		// lit until a send succeeds.
		if err := enc.Send(e); err != nil {
			pinLED.Low()
			if n := enc.Failures(); n == 1 || n%1000 == 0 {
				log.Warn("link send failed", "err", err, "failures", n)
			}
			continue
		}
		pinLED.High()
	}
}

func halt(msg string) {
	for {
		println(msg)
		time.Sleep(5 * time.Second)
	}
}
