//go:build !linux

package uinput

import (
	"errors"
	"image"

	"cydtouch.dev/input"
)

type Device struct{}

func Create(name string, size image.Point) (*Device, error) {
	return nil, errors.New("uinput: not supported on this platform")
}

func (d *Device) Send(e input.Event) error {
	return errors.New("uinput: not supported on this platform")
}

func (d *Device) Close() error {
	return nil
}
