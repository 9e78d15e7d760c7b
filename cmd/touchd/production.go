//go:build !debug

package main

import (
	"context"
	"log/slog"

	"cydtouch.dev/input"
)

func dbgInit(ctx context.Context, ch chan<- input.Event, log *slog.Logger) error {
	return nil
}
