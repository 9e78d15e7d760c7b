// Package touch converts raw touch controller samples into display
// coordinates.
package touch

import "image"

// Orientation describes how the sensor axes relate to the display.
// The transforms apply in field order.
type Orientation struct {
	// SwapXY exchanges the sensor axes.
	SwapXY bool
	// FlipX and FlipY mirror an axis across the (swapped) sensor extent.
	FlipX bool
	FlipY bool
	// Rotate180 mirrors both axes across the display extent, for board
	// revisions with the panel mounted upside down.
	Rotate180 bool
}

// Landscape maps a portrait sensor onto a display rotated a quarter turn:
// x = raw.y and y = (sensor width - 1) - raw.x.
var Landscape = Orientation{SwapXY: true, FlipY: true}

type Mapper struct {
	// Sensor is the native extent of the touch sensor.
	Sensor image.Point
	// Display is the extent of the rotated display.
	Display image.Point
	Orientation
}

// DefaultMapper matches the JC2432W328: a 240x320 portrait sensor over a
// 320x240 landscape display.
func DefaultMapper() Mapper {
	return Mapper{
		Sensor:      image.Pt(240, 320),
		Display:     image.Pt(320, 240),
		Orientation: Landscape,
	}
}

// Map transforms a sensor position to the display and clamps the result
// to the display bounds.
func (m Mapper) Map(raw image.Point) image.Point {
	p, ext := raw, m.Sensor
	if m.SwapXY {
		p.X, p.Y = p.Y, p.X
		ext.X, ext.Y = ext.Y, ext.X
	}
	if m.FlipX {
		p.X = ext.X - 1 - p.X
	}
	if m.FlipY {
		p.Y = ext.Y - 1 - p.Y
	}
	if m.Rotate180 {
		p.X = m.Display.X - 1 - p.X
		p.Y = m.Display.Y - 1 - p.Y
	}
	return image.Point{
		X: clamp(p.X, m.Display.X-1),
		Y: clamp(p.Y, m.Display.Y-1),
	}
}

func clamp(v, hi int) int {
	return max(0, min(v, hi))
}
