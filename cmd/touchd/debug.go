//go:build debug

package main

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/shlex"

	"cydtouch.dev/driver/cst820"
	"cydtouch.dev/input"
)

// dbgInit reads commands from standard input and injects the
// touches they describe.
func dbgInit(ctx context.Context, ch chan<- input.Event, log *slog.Logger) error {
	go func() {
		if err := runConsole(ctx, os.Stdin, ch, log); err != nil {
			log.Warn("debug: console stopped", "err", err)
		}
	}()
	return nil
}

func runConsole(ctx context.Context, r io.Reader, ch chan<- input.Event, log *slog.Logger) error {
	s := bufio.NewScanner(r)
	for s.Scan() {
		evts, err := debugCommand(s.Text())
		if err != nil {
			log.Warn("debug: " + err.Error())
			continue
		}
		for _, e := range evts {
			e.Time = time.Now()
			select {
			case ch <- e:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return s.Err()
}

// debugCommand parses a console line:
//
//	tap x y
//	press x y
//	release
//	gesture name [x y]
func debugCommand(line string) ([]input.Event, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, nil
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "tap":
		p, err := parsePoint(args)
		if err != nil {
			return nil, fmt.Errorf("tap: %w", err)
		}
		return []input.Event{{Pressed: true, Pos: p}, {}}, nil
	case "press":
		p, err := parsePoint(args)
		if err != nil {
			return nil, fmt.Errorf("press: %w", err)
		}
		return []input.Event{{Pressed: true, Pos: p}}, nil
	case "release":
		return []input.Event{{}}, nil
	case "gesture":
		if len(args) == 0 {
			return nil, fmt.Errorf("gesture: missing name")
		}
		g, err := cst820.ParseGesture(args[0])
		if err != nil {
			return nil, err
		}
		e := input.Event{Gesture: g}
		if len(args) > 1 {
			p, err := parsePoint(args[1:])
			if err != nil {
				return nil, fmt.Errorf("gesture: %w", err)
			}
			e.Pressed, e.Pos = true, p
		}
		return []input.Event{e}, nil
	default:
		return nil, fmt.Errorf("unrecognized command: %s", cmd)
	}
}

func parsePoint(args []string) (image.Point, error) {
	if len(args) != 2 {
		return image.Point{}, fmt.Errorf("want x y, got %q", args)
	}
	x, err := strconv.Atoi(args[0])
	if err != nil {
		return image.Point{}, err
	}
	y, err := strconv.Atoi(args[1])
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(x, y), nil
}
