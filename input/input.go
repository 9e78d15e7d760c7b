// Package input polls a touch source and reports changes as events.
package input

import (
	"context"
	"image"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"

	"cydtouch.dev/driver/cst820"
	"cydtouch.dev/touch"
)

type Event struct {
	Pressed bool
	// Pos is in display coordinates, and only valid if Pressed.
	Pos image.Point
	// Gesture is set on the first event that reports it.
	Gesture cst820.Gesture
	Time    time.Time
}

// Source is a per-tick touch reader such as *touch.Reader.
type Source interface {
	Read() (touch.State, error)
}

type Poller struct {
	Source Source
	// Interval is the time between polls. Zero means DefaultInterval.
	Interval time.Duration
	// Wake is an optional input wired to the controller interrupt line.
	// When set, polls follow its edges and happen at least once per
	// Interval.
	Wake   gpio.PinIn
	Logger *slog.Logger
}

const DefaultInterval = 10 * time.Millisecond

// Run polls until ctx is cancelled and sends an event on ch whenever
// the presence, position or gesture changes. Read errors are logged and
// skipped.
func (p *Poller) Run(ctx context.Context, ch chan<- Event) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}
	var ticker *time.Ticker
	if p.Wake == nil {
		ticker = time.NewTicker(interval)
		defer ticker.Stop()
	}
	var (
		last     touch.State
		failures int
	)
	for {
		st, err := p.Source.Read()
		switch {
		case err != nil:
			failures++
			// Don't flood the log from a disconnected controller.
			if failures == 1 || failures%1000 == 0 {
				log.Warn("touch read failed", "err", err, "failures", failures)
			}
		default:
			if failures > 0 {
				log.Info("touch read recovered", "failures", failures)
				failures = 0
			}
			if e, ok := diff(last, st); ok {
				e.Time = time.Now()
				select {
				case ch <- e:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			last = st
		}
		if ticker == nil {
			p.Wake.WaitForEdge(interval)
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// diff reports the event, if any, for the transition from last to st.
func diff(last, st touch.State) (Event, bool) {
	e := Event{Pressed: st.Pressed, Pos: st.Pos}
	changed := st.Pressed != last.Pressed || st.Pressed && st.Pos != last.Pos
	// A gesture code is reported once for as long as it is held.
	if g := st.Gesture; g != cst820.NoGesture && g != last.Gesture {
		e.Gesture = g
		changed = true
	}
	return e, changed
}
