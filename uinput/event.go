//go:build linux

// Package uinput exposes touch events as a Linux input device.
package uinput

import (
	"bytes"
	"encoding/binary"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"cydtouch.dev/input"
)

// Event types and codes from linux/input-event-codes.h.
const (
	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03

	synReport = 0x00
	btnTouch  = 0x14a
	absX      = 0x00
	absY      = 0x01

	inputPropDirect = 0x01
	busI2C          = 0x18
)

const maxNameSize = 80

// struct input_event.
type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// struct input_id.
type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// struct uinput_setup.
type uinputSetup struct {
	ID           inputID
	Name         [maxNameSize]byte
	FFEffectsMax uint32
}

// struct input_absinfo.
type inputAbsInfo struct {
	Value      int32
	Minimum    int32
	Maximum    int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// struct uinput_abs_setup.
type uinputAbsSetup struct {
	Code uint16
	_    [2]byte
	Info inputAbsInfo
}

// ioc encodes an ioctl request number like the _IOC macro in
// linux/ioctl.h.
func ioc(dir, typ, nr, size uintptr) uintptr {
	const (
		nrBits   = 8
		typeBits = 8
		sizeBits = 14

		typeShift = nrBits
		sizeShift = typeShift + typeBits
		dirShift  = sizeShift + sizeBits
	)
	return dir<<dirShift | typ<<typeShift | nr | size<<sizeShift
}

const (
	iocNone  = 0
	iocWrite = 1
)

// ioctl requests from linux/uinput.h.
var (
	uiDevCreate  = ioc(iocNone, 'U', 1, 0)
	uiDevDestroy = ioc(iocNone, 'U', 2, 0)
	uiDevSetup   = ioc(iocWrite, 'U', 3, unsafe.Sizeof(uinputSetup{}))
	uiAbsSetup   = ioc(iocWrite, 'U', 4, unsafe.Sizeof(uinputAbsSetup{}))
	uiSetEvBit   = ioc(iocWrite, 'U', 100, unsafe.Sizeof(int32(0)))
	uiSetKeyBit  = ioc(iocWrite, 'U', 101, unsafe.Sizeof(int32(0)))
	uiSetAbsBit  = ioc(iocWrite, 'U', 103, unsafe.Sizeof(int32(0)))
	uiSetPropBit = ioc(iocWrite, 'U', 110, unsafe.Sizeof(int32(0)))
)

// events returns the input events reporting e to a device whose last
// reported contact state was wasPressed. Timestamps are left zero.
func events(e input.Event, wasPressed bool) []inputEvent {
	var evts []inputEvent
	if e.Pressed {
		evts = append(evts,
			inputEvent{Type: evAbs, Code: absX, Value: int32(e.Pos.X)},
			inputEvent{Type: evAbs, Code: absY, Value: int32(e.Pos.Y)},
		)
	}
	if e.Pressed != wasPressed {
		v := int32(0)
		if e.Pressed {
			v = 1
		}
		evts = append(evts, inputEvent{Type: evKey, Code: btnTouch, Value: v})
	}
	if len(evts) == 0 {
		return nil
	}
	return append(evts, inputEvent{Type: evSyn, Code: synReport})
}

// encodeEvents writes evts stamped with t, in the layout read(2) and
// write(2) use on the device.
func encodeEvents(buf *bytes.Buffer, t time.Time, evts []inputEvent) error {
	tv := unix.NsecToTimeval(t.UnixNano())
	for _, e := range evts {
		e.Time = tv
		if err := binary.Write(buf, binary.NativeEndian, &e); err != nil {
			return err
		}
	}
	return nil
}

func newSetup(name string) *uinputSetup {
	s := &uinputSetup{
		ID: inputID{Bustype: busI2C},
	}
	// The last byte stays NUL.
	copy(s.Name[:maxNameSize-1], name)
	return s
}

// newAbsSetup describes an axis covering the given number of pixels.
func newAbsSetup(code uint16, pixels int) *uinputAbsSetup {
	return &uinputAbsSetup{
		Code: code,
		Info: inputAbsInfo{Maximum: int32(pixels - 1)},
	}
}
