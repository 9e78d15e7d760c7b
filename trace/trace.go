// Package trace renders touch events for calibrating a mapper
// against a physical panel.
package trace

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"cydtouch.dev/bresenham"
	"cydtouch.dev/driver/cst820"
	"cydtouch.dev/input"
)

var (
	background = color.RGBA{A: 0xff}
	ink        = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	pressInk   = color.RGBA{G: 0xd0, A: 0xff}
	dragInk    = color.RGBA{R: 0x30, G: 0x90, B: 0xff, A: 0xff}
	gestureInk = color.RGBA{R: 0xff, G: 0xc0, A: 0xff}
)

const crossSize = 6

// Status formats the one line touch status shown on the board.
func Status(e input.Event) string {
	if !e.Pressed {
		return "Touch: --"
	}
	return fmt.Sprintf("Touch: %3d,%3d g=%02X", e.Pos.X, e.Pos.Y, uint8(e.Gesture))
}

// Render draws events onto a canvas of the given size: a cross at every
// press, a line along every drag and the labels of gestures. The status
// of the last event is printed in the top left corner.
func Render(size image.Point, events []input.Event) *image.RGBA {
	img := image.NewRGBA(image.Rectangle{Max: size})
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	face := basicfont.Face7x13
	var last input.Event
	for _, e := range events {
		switch {
		case e.Pressed && !last.Pressed:
			cross(img, e.Pos, pressInk)
		case e.Pressed:
			line(img, last.Pos, e.Pos, dragInk)
		}
		if e.Gesture != cst820.NoGesture {
			pos := e.Pos
			if !e.Pressed {
				pos = last.Pos
			}
			text(img, face, pos.Add(image.Pt(crossSize+2, -crossSize)), e.Gesture.String(), gestureInk)
		}
		last = e
	}
	if len(events) > 0 {
		text(img, face, image.Pt(2, face.Ascent+2), Status(last), ink)
	}
	return img
}

func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	return nil
}

func text(dst draw.Image, face font.Face, dot image.Point, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(dot.X, dot.Y),
	}
	d.DrawString(s)
}

func cross(img *image.RGBA, p image.Point, c color.RGBA) {
	line(img, p.Sub(image.Pt(crossSize, 0)), p.Add(image.Pt(crossSize, 0)), c)
	line(img, p.Sub(image.Pt(0, crossSize)), p.Add(image.Pt(0, crossSize)), c)
}

// line draws from p0 to p1 inclusive.
func line(img *image.RGBA, p0, p1 image.Point, c color.RGBA) {
	plot := func(p image.Point) {
		if p.In(img.Rect) {
			img.SetRGBA(p.X, p.Y, c)
		}
	}
	var l bresenham.Line
	dirx, diry, steps := l.Reset(p1.Sub(p0))
	sx, sy := 1, 1
	if dirx == 1 {
		sx = -1
	}
	if diry == 1 {
		sy = -1
	}
	p := p0
	plot(p)
	for range steps {
		dx, dy := l.Step()
		p.X += int(dx) * sx
		p.Y += int(dy) * sy
		plot(p)
	}
}
