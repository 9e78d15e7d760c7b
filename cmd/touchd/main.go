// Command touchd reads a CST820 capacitive touch controller and forwards
// its touches to a virtual input device, a serial link or an MQTT broker.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dikkadev/prettyslog"

	"cydtouch.dev/input"
	"cydtouch.dev/link"
	"cydtouch.dev/touch"
	"cydtouch.dev/trace"
	"cydtouch.dev/uinput"
)

// Version is set by the Go linker with -ldflags='-X main.Version=...'.
var Version string

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "touchd: %v\n", err)
		os.Exit(2)
	}
}

func run() error {
	var (
		configFile = flag.String("config", "", "YAML configuration file")
		busName    = flag.String("bus", "", "I2C bus name")
		verbose    = flag.Bool("v", false, "log every touch")
	)
	flag.Parse()

	cfg := defaultConfig()
	if *configFile != "" {
		c, err := loadConfig(*configFile)
		if err != nil {
			return err
		}
		cfg = c
	}
	if *busName != "" {
		cfg.Bus = *busName
	}
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(prettyslog.NewPrettyslogHandler("touchd", prettyslog.WithLevel(level)))
	log.Info("starting", "version", Version, "bus", cfg.Bus, "address", cfg.Address)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := Init(cfg)
	if err != nil {
		return err
	}
	defer p.Close()
	dev := p.Device(cfg)
	if err := dev.Configure(); err != nil {
		return err
	}
	wake, err := p.Wake()
	if err != nil {
		log.Warn("interrupt unavailable, polling", "err", err)
		wake = nil
	}

	sinks, err := openSinks(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		for _, s := range sinks {
			if err := s.Close(); err != nil {
				log.Warn("close", "sink", s.name, "err", err)
			}
		}
	}()

	events := make(chan input.Event, 16)
	poller := &input.Poller{
		Source:   touch.NewReader(dev, cfg.mapper(), cfg.filter()),
		Interval: cfg.PollInterval,
		Wake:     wake,
		Logger:   log,
	}
	errs := make(chan error, 1)
	go func() {
		errs <- poller.Run(ctx, events)
	}()
	if err := dbgInit(ctx, events, log); err != nil {
		log.Warn("debug", "err", err)
	}

	var history []input.Event
	for {
		select {
		case e := <-events:
			log.Debug(trace.Status(e), "gesture", e.Gesture)
			for _, s := range sinks {
				if err := s.Send(e); err != nil {
					log.Warn("send", "sink", s.name, "err", err)
				}
			}
			if cfg.Trace != "" {
				history = append(history, e)
			}
		case err := <-errs:
			if cfg.Trace != "" {
				if err := writeTrace(cfg.Trace, cfg.mapper().Display, history); err != nil {
					log.Error("trace", "err", err)
				}
			}
			if errors.Is(err, context.Canceled) {
				log.Info("stopped")
				return nil
			}
			return err
		}
	}
}

// sink is a destination for touch events.
type sink struct {
	name string
	sender
	io.Closer
}

type sender interface {
	Send(e input.Event) error
}

func openSinks(cfg Config, log *slog.Logger) ([]sink, error) {
	var sinks []sink
	closeAll := func() {
		for _, s := range sinks {
			s.Close()
		}
	}
	if cfg.Uinput != "" {
		d, err := uinput.Create(cfg.Uinput, cfg.mapper().Display)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink{"uinput", d, d})
		log.Info("created input device", "name", cfg.Uinput)
	}
	if cfg.Serial.Device != "" {
		port, err := link.OpenSerial(cfg.Serial.Device, cfg.Serial.Baud)
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, sink{"serial", link.NewEncoder(port), port})
		log.Info("streaming to serial port", "device", cfg.Serial.Device)
	}
	if cfg.MQTT.Broker != "" {
		pub, err := link.Dial(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Topic)
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, sink{"mqtt", pub, pub})
		log.Info("publishing", "broker", cfg.MQTT.Broker, "topic", cfg.MQTT.Topic)
	}
	return sinks, nil
}

func writeTrace(path string, size image.Point, history []input.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := trace.WritePNG(f, trace.Render(size, history)); err != nil {
		return err
	}
	return f.Close()
}
