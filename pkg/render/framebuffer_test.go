package render

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	uv "github.com/charmbracelet/ultraviolet"
)

func TestFramebufferBounds(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	fb.SetPixel(-1, 0, ColorWhite)
	fb.SetPixel(0, 4, ColorWhite)
	fb.SetPixel(3, 3, ColorWhite)

	if got := fb.GetPixel(3, 3); got != ColorWhite {
		t.Errorf("GetPixel(3, 3) = %v, want white", got)
	}
	if got := fb.GetPixel(10, 10); got != (color.RGBA{}) {
		t.Errorf("out of bounds GetPixel = %v, want zero", got)
	}
	lit := 0
	for _, p := range fb.Pixels {
		if p == ColorWhite {
			lit++
		}
	}
	if lit != 1 {
		t.Errorf("%d pixels set, want 1", lit)
	}
}

func TestDrawLine(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 int
		want           int
	}{
		{"horizontal", 0, 2, 7, 2, 8},
		{"vertical", 3, 0, 3, 7, 8},
		{"diagonal", 0, 0, 7, 7, 8},
		{"reversed", 7, 7, 0, 0, 8},
		{"point", 4, 4, 4, 4, 1},
		{"clipped", -10, 4, 20, 4, 8},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fb := NewFramebuffer(8, 8)
			fb.DrawLine(tc.x0, tc.y0, tc.x1, tc.y1, ColorWhite)
			lit := 0
			for _, p := range fb.Pixels {
				if p == ColorWhite {
					lit++
				}
			}
			if lit != tc.want {
				t.Errorf("lit %d pixels, want %d", lit, tc.want)
			}
			if tc.x0 >= 0 && fb.GetPixel(tc.x0, tc.y0) != ColorWhite {
				t.Error("start point not drawn")
			}
		})
	}
}

func TestResize(t *testing.T) {
	fb := NewFramebufferForCells(10, 5)
	if fb.Width != 10 || fb.Height != 10 {
		t.Fatalf("size = %dx%d, want 10x10", fb.Width, fb.Height)
	}
	fb.Resize(4, 2)
	if len(fb.Pixels) != 8 {
		t.Errorf("pixels = %d, want 8", len(fb.Pixels))
	}
	fb.Resize(20, 20)
	if len(fb.Pixels) != 400 {
		t.Errorf("pixels = %d, want 400", len(fb.Pixels))
	}
	fb.Resize(-1, 3)
	if fb.Width != 0 || len(fb.Pixels) != 0 {
		t.Errorf("negative resize = %dx%d", fb.Width, fb.Height)
	}
}

func TestSavePNG(t *testing.T) {
	fb := NewFramebuffer(3, 2)
	fb.Clear(ColorBlack)
	fb.SetPixel(2, 1, ColorWhite)

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := fb.SavePNG(path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("image bounds = %v", b)
	}
	if r, g, b, _ := img.At(2, 1).RGBA(); r != 0xffff || g != 0xffff || b != 0xffff {
		t.Errorf("pixel (2, 1) = %v, want white", img.At(2, 1))
	}
}

func TestDrawToScreen(t *testing.T) {
	fb := NewFramebufferForCells(3, 2)
	fb.Clear(ColorBlack)
	fb.SetPixel(1, 0, ColorWhite) // top half of cell (1, 0)
	fb.SetPixel(2, 3, ColorWhite) // bottom half of cell (2, 1)

	scr := uv.NewScreenBuffer(5, 3)
	fb.Draw(scr, uv.Rect(1, 1, 4, 2))

	if c := scr.CellAt(0, 0); c.Content == "▀" {
		t.Error("drew outside the area")
	}

	top := scr.CellAt(2, 1)
	if top.Content != "▀" || top.Style.Fg != ColorWhite || top.Style.Bg != ColorBlack {
		t.Errorf("cell (2, 1) = %q fg=%v bg=%v", top.Content, top.Style.Fg, top.Style.Bg)
	}
	bottom := scr.CellAt(3, 2)
	if bottom.Style.Fg != ColorBlack || bottom.Style.Bg != ColorWhite {
		t.Errorf("cell (3, 2) fg=%v bg=%v", bottom.Style.Fg, bottom.Style.Bg)
	}
	// The area is wider than the framebuffer.
	if c := scr.CellAt(4, 1); c.Content == "▀" {
		t.Error("drew past the framebuffer width")
	}
}

func TestTransparentPixelsHaveNoColor(t *testing.T) {
	if rgbaToColor(color.RGBA{}) != nil {
		t.Error("transparent pixel mapped to a color")
	}
	if rgbaToColor(ColorWhite) == nil {
		t.Error("opaque pixel mapped to nil")
	}
}
