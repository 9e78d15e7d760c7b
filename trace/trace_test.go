package trace

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"cydtouch.dev/driver/cst820"
	"cydtouch.dev/input"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		e    input.Event
		want string
	}{
		{input.Event{}, "Touch: --"},
		{input.Event{Pos: image.Pt(5, 5), Gesture: cst820.SingleTap}, "Touch: --"},
		{input.Event{Pressed: true, Pos: image.Pt(7, 42)}, "Touch:   7, 42 g=00"},
		{input.Event{Pressed: true, Pos: image.Pt(319, 239), Gesture: cst820.LongPress}, "Touch: 319,239 g=0C"},
	}
	for _, test := range tests {
		if got := Status(test.e); got != test.want {
			t.Errorf("Status(%+v) = %q, want %q", test.e, got, test.want)
		}
	}
}

func TestLine(t *testing.T) {
	ends := []image.Point{
		image.Pt(0, 0),
		image.Pt(20, 0),
		image.Pt(0, 20),
		image.Pt(20, 7),
		image.Pt(7, 20),
		image.Pt(-20, 7),
		image.Pt(-7, -20),
		image.Pt(13, -13),
	}
	center := image.Pt(30, 30)
	for _, d := range ends {
		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		end := center.Add(d)
		line(img, center, end, ink)
		n := 0
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				if img.RGBAAt(x, y) == ink {
					n++
				}
			}
		}
		if want := max(abs(d.X), abs(d.Y)) + 1; n != want {
			t.Errorf("line to %v set %d pixels, want %d", d, n, want)
		}
		if img.RGBAAt(center.X, center.Y) != ink || img.RGBAAt(end.X, end.Y) != ink {
			t.Errorf("line to %v misses an end point", d)
		}
	}
}

func TestLineClipped(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	line(img, image.Pt(-10, 4), image.Pt(20, 4), ink)
	for x := 0; x < 8; x++ {
		if img.RGBAAt(x, 4) != ink {
			t.Errorf("pixel (%d,4) not drawn", x)
		}
	}
}

func TestRender(t *testing.T) {
	size := image.Pt(320, 240)
	evts := []input.Event{
		{Pressed: true, Pos: image.Pt(100, 120)},
		{Pressed: true, Pos: image.Pt(200, 120)},
		{Pressed: false, Gesture: cst820.SlideRight},
		{Pressed: true, Pos: image.Pt(250, 200)},
	}
	img := Render(size, evts)
	if img.Bounds().Size() != size {
		t.Fatalf("rendered %v, want %v", img.Bounds(), size)
	}
	if got := img.RGBAAt(100, 120-crossSize); got != pressInk {
		t.Errorf("press cross missing, got %v", got)
	}
	if got := img.RGBAAt(150, 120); got != dragInk {
		t.Errorf("drag line missing, got %v", got)
	}
	if got := img.RGBAAt(250+crossSize, 200); got != pressInk {
		t.Errorf("second press cross missing, got %v", got)
	}
	if !inked(img, image.Rect(0, 0, 160, 16)) {
		t.Error("status line missing")
	}
	if !inked(img, image.Rect(200+crossSize+2, 120-crossSize-13, 200+crossSize+2+7*10, 120-crossSize+3)) {
		t.Error("gesture label missing")
	}

	buf := new(bytes.Buffer)
	if err := WritePNG(buf, img); err != nil {
		t.Fatal(err)
	}
	dec, err := png.Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Bounds() != img.Bounds() {
		t.Errorf("decoded %v, want %v", dec.Bounds(), img.Bounds())
	}
}

func inked(img *image.RGBA, r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) != background {
				return true
			}
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
