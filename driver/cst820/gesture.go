package cst820

import "fmt"

// Gesture is a gesture code reported by the controller.
type Gesture uint8

const (
	NoGesture  Gesture = 0x00
	SlideDown  Gesture = 0x01
	SlideUp    Gesture = 0x02
	SlideLeft  Gesture = 0x03
	SlideRight Gesture = 0x04
	SingleTap  Gesture = 0x05
	DoubleTap  Gesture = 0x0b
	LongPress  Gesture = 0x0c
)

// decodeGesture maps undefined codes to NoGesture.
func decodeGesture(b byte) Gesture {
	switch g := Gesture(b); g {
	case SlideDown, SlideUp, SlideLeft, SlideRight, SingleTap, DoubleTap, LongPress:
		return g
	}
	return NoGesture
}

// ParseGesture is the inverse of Gesture.String.
func ParseGesture(s string) (Gesture, error) {
	for _, g := range []Gesture{NoGesture, SlideDown, SlideUp, SlideLeft, SlideRight, SingleTap, DoubleTap, LongPress} {
		if g.String() == s {
			return g, nil
		}
	}
	return NoGesture, fmt.Errorf("cst820: unknown gesture %q", s)
}

func (g Gesture) String() string {
	switch g {
	case NoGesture:
		return "none"
	case SlideDown:
		return "slidedown"
	case SlideUp:
		return "slideup"
	case SlideLeft:
		return "slideleft"
	case SlideRight:
		return "slideright"
	case SingleTap:
		return "tap"
	case DoubleTap:
		return "doubletap"
	case LongPress:
		return "longpress"
	default:
		return fmt.Sprintf("gesture(%#x)", uint8(g))
	}
}
