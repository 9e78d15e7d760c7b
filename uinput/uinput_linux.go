package uinput

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"cydtouch.dev/input"
)

const devicePath = "/dev/uinput"

// Device is a virtual direct touch device.
type Device struct {
	f       *os.File
	pressed bool
	buf     bytes.Buffer
}

// Create registers a touch device named name covering a display of the
// given size.
func Create(name string, size image.Point) (*Device, error) {
	f, err := os.OpenFile(devicePath, os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("uinput: %w", err)
	}
	fd := f.Fd()
	bits := []struct {
		req, val uintptr
	}{
		{uiSetEvBit, evKey},
		{uiSetKeyBit, btnTouch},
		{uiSetEvBit, evAbs},
		{uiSetAbsBit, absX},
		{uiSetAbsBit, absY},
		{uiSetPropBit, inputPropDirect},
	}
	for _, b := range bits {
		if err := ioctl(fd, b.req, b.val); err != nil {
			f.Close()
			return nil, fmt.Errorf("uinput: set bit %#x: %w", b.val, err)
		}
	}
	for _, a := range []*uinputAbsSetup{newAbsSetup(absX, size.X), newAbsSetup(absY, size.Y)} {
		if err := ioctlPtr(fd, uiAbsSetup, unsafe.Pointer(a)); err != nil {
			f.Close()
			return nil, fmt.Errorf("uinput: axis %#x: %w", a.Code, err)
		}
	}
	if err := ioctlPtr(fd, uiDevSetup, unsafe.Pointer(newSetup(name))); err != nil {
		f.Close()
		return nil, fmt.Errorf("uinput: setup: %w", err)
	}
	if err := ioctl(fd, uiDevCreate, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("uinput: create: %w", err)
	}
	return &Device{f: f}, nil
}

func ioctl(fd, req, arg uintptr) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, arg); errno != 0 {
		return errno
	}
	return nil
}

func ioctlPtr(fd, req uintptr, arg unsafe.Pointer) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg)); errno != 0 {
		return errno
	}
	return nil
}

// Send reports a touch event.
func (d *Device) Send(e input.Event) error {
	evts := events(e, d.pressed)
	if len(evts) == 0 {
		return nil
	}
	t := e.Time
	if t.IsZero() {
		t = time.Now()
	}
	d.buf.Reset()
	if err := encodeEvents(&d.buf, t, evts); err != nil {
		return fmt.Errorf("uinput: %w", err)
	}
	if _, err := d.f.Write(d.buf.Bytes()); err != nil {
		return fmt.Errorf("uinput: %w", err)
	}
	d.pressed = e.Pressed
	return nil
}

func (d *Device) Close() error {
	ioctl(d.f.Fd(), uiDevDestroy, 0)
	return d.f.Close()
}
