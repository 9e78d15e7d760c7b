package main

import (
	"fmt"
	"image"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"cydtouch.dev/driver/cst820"
	"cydtouch.dev/touch"
)

type Config struct {
	// Bus is the I2C bus name. If empty, the bus is located by its
	// SDA and SCL pins, falling back to the first bus.
	Bus       string `yaml:"bus"`
	SDA       string `yaml:"sda"`
	SCL       string `yaml:"scl"`
	Reset     string `yaml:"reset"`
	Interrupt string `yaml:"interrupt"`
	Address   uint16 `yaml:"address"`
	// ReadRetries is negative for unbounded retries.
	ReadRetries  int           `yaml:"readRetries"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	Sensor       Size          `yaml:"sensor"`
	Display      Size          `yaml:"display"`
	Orientation  Orientation   `yaml:"orientation"`
	Filter       FilterConfig  `yaml:"filter"`
	PollInterval time.Duration `yaml:"pollInterval"`
	Uinput       string        `yaml:"uinput"`
	Serial       SerialConfig  `yaml:"serial"`
	MQTT         MQTTConfig    `yaml:"mqtt"`
	// Trace is the path of a PNG rendering of the session, written on exit.
	Trace string `yaml:"trace"`
}

type Size struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Orientation struct {
	SwapXY    bool `yaml:"swapXY"`
	FlipX     bool `yaml:"flipX"`
	FlipY     bool `yaml:"flipY"`
	Rotate180 bool `yaml:"rotate180"`
}

type FilterConfig struct {
	Enabled       bool `yaml:"enabled"`
	PressStable   int  `yaml:"pressStable"`
	ReleaseStable int  `yaml:"releaseStable"`
	Deadzone      int  `yaml:"deadzone"`
}

type SerialConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"clientID"`
	Topic    string `yaml:"topic"`
}

// defaultConfig matches the JC2432W328 panel in landscape, with the
// reset and interrupt lines on the same GPIO numbers as the board.
func defaultConfig() Config {
	m := touch.DefaultMapper()
	f := touch.NewFilter()
	return Config{
		Reset:       "GPIO25",
		Interrupt:   "GPIO21",
		Address:     cst820.DefaultAddress,
		ReadRetries: cst820.DefaultReadRetries,
		Sensor:      Size{m.Sensor.X, m.Sensor.Y},
		Display:     Size{m.Display.X, m.Display.Y},
		Orientation: Orientation{
			SwapXY:    m.SwapXY,
			FlipX:     m.FlipX,
			FlipY:     m.FlipY,
			Rotate180: m.Rotate180,
		},
		PollInterval: 10 * time.Millisecond,
		Filter: FilterConfig{
			PressStable:   f.PressStable,
			ReleaseStable: f.ReleaseStable,
			Deadzone:      f.Deadzone,
		},
		MQTT: MQTTConfig{
			ClientID: "touchd",
			Topic:    "cyd/touch",
		},
	}
}

// loadConfig reads a YAML configuration file on top of the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	for _, s := range []struct {
		name string
		size Size
	}{{"sensor", c.Sensor}, {"display", c.Display}} {
		if s.size.Width <= 0 || s.size.Height <= 0 {
			return fmt.Errorf("invalid %s size %dx%d", s.name, s.size.Width, s.size.Height)
		}
	}
	if c.ReadRetries < cst820.Unbounded {
		return fmt.Errorf("invalid readRetries %d, use %d for unbounded", c.ReadRetries, cst820.Unbounded)
	}
	if c.Address == 0 || c.Address > 0x7f {
		return fmt.Errorf("invalid I2C address %#x", c.Address)
	}
	return nil
}

func (c Config) mapper() touch.Mapper {
	return touch.Mapper{
		Sensor:  image.Pt(c.Sensor.Width, c.Sensor.Height),
		Display: image.Pt(c.Display.Width, c.Display.Height),
		Orientation: touch.Orientation{
			SwapXY:    c.Orientation.SwapXY,
			FlipX:     c.Orientation.FlipX,
			FlipY:     c.Orientation.FlipY,
			Rotate180: c.Orientation.Rotate180,
		},
	}
}

// filter returns nil if filtering is disabled.
func (c Config) filter() *touch.Filter {
	if !c.Filter.Enabled {
		return nil
	}
	return &touch.Filter{
		PressStable:   c.Filter.PressStable,
		ReleaseStable: c.Filter.ReleaseStable,
		Deadzone:      c.Filter.Deadzone,
	}
}
