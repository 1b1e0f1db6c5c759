package app

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/flycam/pkg/camera"
	"github.com/taigrr/flycam/pkg/input"
	"github.com/taigrr/flycam/pkg/math3d"
)

// ANSI styling for the overlay rows.
const (
	reset    = "\x1b[0m"
	bold     = "\x1b[1m"
	dim      = "\x1b[2m"
	bgBlack  = "\x1b[40m"
	fgWhite  = "\x1b[97m"
	fgGreen  = "\x1b[92m"
	fgYellow = "\x1b[93m"
	fgCyan   = "\x1b[96m"
)

// HUD is the text overlay: frame rate, level, pose and held keys.
// It implements uv.Drawable.
type HUD struct {
	Visible bool

	level string

	// Frames are counted per second; the readout eases toward the count.
	frames      int
	windowStart time.Time
	measured    float64
	shown       float64
	shownVel    float64
	spring      harmonica.Spring

	pose     math3d.Pose
	held     [4]bool
	keys     camera.Keys
	releases bool
}

// NewHUD creates an overlay for a level, easing at the given frame rate.
func NewHUD(level string, fps int) *HUD {
	return &HUD{
		Visible: true,
		level:   level,
		// Critically damped so the number never overshoots.
		spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Tick counts one frame at now and advances the readout.
func (h *HUD) Tick(now time.Time) {
	if h.windowStart.IsZero() {
		h.windowStart = now
	}
	h.frames++
	if elapsed := now.Sub(h.windowStart); elapsed >= time.Second {
		h.measured = float64(h.frames) / elapsed.Seconds()
		h.frames = 0
		h.windowStart = now
	}
	h.shown, h.shownVel = h.spring.Update(h.shown, h.shownVel, h.measured)
}

// FPS returns the eased frame rate.
func (h *HUD) FPS() float64 {
	return h.shown
}

// Observe records the camera state to show this frame.
func (h *HUD) Observe(pose math3d.Pose, fl *camera.FreeLook, releases bool) {
	h.pose = pose
	h.releases = releases
	if fl == nil {
		return
	}
	h.keys = fl.Keys()
	for _, name := range []*string{&h.keys.Forward, &h.keys.Back, &h.keys.Left, &h.keys.Right} {
		if id, err := input.ResolveKeyID(*name); err == nil {
			*name = input.KeyName(id)
		}
	}
	for d := range h.held {
		h.held[d] = fl.Held(camera.Direction(d))
	}
}

// Roll returns how far pose is banked around its forward axis, in degrees.
// Looking straight up or down has no defined roll and reports zero.
func Roll(pose math3d.Pose) float64 {
	r, u := pose.Right(), pose.Up()
	if math.Abs(r.Y) < 1e-12 && math.Abs(u.Y) < 1e-12 {
		return 0
	}
	return math.Atan2(r.Y, u.Y) * 180 / math.Pi
}

// Draw implements uv.Drawable: a status row at the top of area and a key
// row at the bottom.
func (h *HUD) Draw(scr uv.Screen, area uv.Rectangle) {
	if !h.Visible || area.Dy() < 1 {
		return
	}

	p, f := h.pose.Position, h.pose.Forward()
	top := bgBlack + fgGreen + fmt.Sprintf(" %.0f FPS ", h.shown) + reset +
		bgBlack + bold + fgWhite + " " + h.level + " " + reset +
		bgBlack + fgCyan + fmt.Sprintf(" pos %.1f,%.1f,%.1f  dir %.2f,%.2f,%.2f ", p.X, p.Y, p.Z, f.X, f.Y, f.Z) + reset +
		bgBlack + fgYellow + fmt.Sprintf(" roll %.0f° ", Roll(h.pose)) + reset
	uv.NewStyledString(top).Draw(scr, uv.Rect(area.Min.X, area.Min.Y, area.Dx(), 1))

	if area.Dy() < 2 {
		return
	}
	names := [4]string{h.keys.Forward, h.keys.Back, h.keys.Left, h.keys.Right}
	var b strings.Builder
	b.WriteString(bgBlack + fgWhite + " ")
	for d, name := range names {
		if h.held[d] {
			b.WriteString(bold + fgYellow + "[" + strings.ToUpper(name) + "]" + reset + bgBlack + fgWhite)
		} else {
			b.WriteString(dim + " " + name + " " + reset + bgBlack + fgWhite)
		}
	}
	mode := "key hold: timeout"
	if h.releases {
		mode = "key hold: release events"
	}
	b.WriteString("  " + dim + mode + "  esc quits, ? hides " + reset)
	uv.NewStyledString(b.String()).Draw(scr, uv.Rect(area.Min.X, area.Max.Y-1, area.Dx(), 1))
}
