package app

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/qmuntal/gltf"

	"github.com/taigrr/flycam/pkg/camera"
	"github.com/taigrr/flycam/pkg/math3d"
	"github.com/taigrr/flycam/pkg/render"
	"github.com/taigrr/flycam/pkg/scene"
)

const eps = 1e-9

// fakeClock advances only when told to.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestContext(t *testing.T, cfg Config) (*Context, *fakeClock) {
	t.Helper()
	clk := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c, err := CreateContext(cfg, nil, WithClock(clk.Now))
	if err != nil {
		t.Fatalf("CreateContext: %v", err)
	}
	return c, clk
}

func levelConfig() Config {
	cfg := DefaultConfig()
	cfg.Eye = math3d.V3(0, 2, 10)
	cfg.Pitch = 0
	cfg.Yaw = 0
	return cfg
}

func mustPose(t *testing.T, c *Context) math3d.Pose {
	t.Helper()
	p, err := c.Pose()
	if err != nil {
		t.Fatalf("Pose: %v", err)
	}
	return p
}

func TestCreateContextDefaults(t *testing.T) {
	c, _ := newTestContext(t, DefaultConfig())

	if name := c.Graph().Name(c.Camera()); name != "camera" {
		t.Errorf("camera entity name = %q", name)
	}
	// Camera plus the built-in level.
	if n := c.Graph().Len(); n != 12 {
		t.Errorf("graph has %d entities, want 12", n)
	}

	p := mustPose(t, c)
	if p.Position.Sub(math3d.V3(0, 1.7, 12)).Len() > eps {
		t.Errorf("start position = %v", p.Position)
	}
	// Pitched down by 8 degrees.
	want := -math.Sin(8 * math.Pi / 180)
	if f := p.Forward(); math.Abs(f.Y-want) > 1e-9 || math.Abs(f.X) > 1e-9 {
		t.Errorf("start forward = %v, want y = %v", f, want)
	}

	fl := c.Controller()
	if fl.MoveSpeed() != 6 || fl.RotationSpeed() != 2 || fl.Entity() != c.Camera() {
		t.Errorf("controller = move %v rot %v entity %v", fl.MoveSpeed(), fl.RotationSpeed(), fl.Entity())
	}
}

func TestCreateContextErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero fps", func(c *Config) { c.FPS = 0 }},
		{"nan eye", func(c *Config) { c.Eye.Y = math.NaN() }},
		{"negative move speed", func(c *Config) { c.MoveSpeed = -1 }},
		{"unknown key", func(c *Config) { c.Keys.Left = "left arrow" }},
		{"missing level", func(c *Config) { c.LevelPath = filepath.Join(t.TempDir(), "missing.gltf") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if c, err := CreateContext(cfg, nil); err == nil {
				t.Errorf("CreateContext succeeded: %+v", c)
			}
		})
	}
}

func TestUpdateMovesWhileKeyHeld(t *testing.T) {
	c, clk := newTestContext(t, levelConfig())

	c.HandleEvent(uv.KeyPressEvent{Code: 'w', Text: "w"})
	for range 2 {
		if err := c.Update(0.5); err != nil {
			t.Fatalf("Update: %v", err)
		}
		clk.advance(100 * time.Millisecond)
	}
	// Two frames at 6 units per second.
	if p := mustPose(t, c); p.Position.Sub(math3d.V3(0, 2, 4)).Len() > 1e-9 {
		t.Fatalf("position after holding w = %v, want (0, 2, 4)", p.Position)
	}

	c.HandleEvent(uv.KeyReleaseEvent{Code: 'w', Text: "w"})
	if err := c.Update(0.5); err != nil {
		t.Fatal(err)
	}
	if err := c.Update(0.5); err != nil {
		t.Fatal(err)
	}
	if p := mustPose(t, c); p.Position.Sub(math3d.V3(0, 2, 4)).Len() > 1e-9 {
		t.Errorf("camera kept moving after release: %v", p.Position)
	}
}

func TestUpdateSynthesizesReleaseWithoutKeyboardEnhancements(t *testing.T) {
	cfg := levelConfig()
	cfg.HoldTimeout = 200 * time.Millisecond
	c, clk := newTestContext(t, cfg)

	c.HandleEvent(uv.KeyPressEvent{Code: 'd', Text: "d"})
	for range 5 {
		clk.advance(100 * time.Millisecond)
		if err := c.Update(0.1); err != nil {
			t.Fatal(err)
		}
	}

	// Held for the two frames before the timeout, then released.
	if p := mustPose(t, c); math.Abs(p.Position.X-1.2) > 1e-9 {
		t.Errorf("x = %v, want 1.2", p.Position.X)
	}
}

func TestPointerLookDirection(t *testing.T) {
	tests := []struct {
		name   string
		invert bool
		wantUp bool
	}{
		{"mouse down looks down", false, false},
		{"inverted mouse down looks up", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := levelConfig()
			cfg.InvertLook = tt.invert
			c, _ := newTestContext(t, cfg)

			c.HandleEvent(uv.MouseMotionEvent{X: 10, Y: 10})
			c.HandleEvent(uv.MouseMotionEvent{X: 12, Y: 11})
			if err := c.Update(0.1); err != nil {
				t.Fatal(err)
			}

			f := mustPose(t, c).Forward()
			if f.X <= 0 {
				t.Errorf("mouse right did not turn right: forward = %v", f)
			}
			if up := f.Y > 0; up != tt.wantUp {
				t.Errorf("forward = %v, looking up = %v, want %v", f, up, tt.wantUp)
			}
		})
	}
}

func TestPointerDeltaIsPerFrame(t *testing.T) {
	c, _ := newTestContext(t, levelConfig())

	c.HandleEvent(uv.MouseMotionEvent{X: 10, Y: 10})
	c.HandleEvent(uv.MouseMotionEvent{X: 11, Y: 11})
	if err := c.Update(0.1); err != nil {
		t.Fatal(err)
	}
	before := mustPose(t, c)

	if err := c.Update(0.1); err != nil {
		t.Fatal(err)
	}
	if after := mustPose(t, c); after != before {
		t.Errorf("pose changed without new pointer motion: %v -> %v", before, after)
	}
}

func TestUpdateMissingTransform(t *testing.T) {
	c, _ := newTestContext(t, levelConfig())
	if err := c.Graph().Destroy(c.Camera()); err != nil {
		t.Fatal(err)
	}

	if err := c.Update(0.1); !errors.Is(err, scene.ErrMissingTransform) {
		t.Errorf("Update = %v, want ErrMissingTransform", err)
	}
	if err := c.Render(render.NewFramebuffer(8, 8)); !errors.Is(err, scene.ErrMissingTransform) {
		t.Errorf("Render = %v, want ErrMissingTransform", err)
	}
}

func TestHandleEventControls(t *testing.T) {
	c, _ := newTestContext(t, levelConfig())

	c.HandleEvent(uv.KeyPressEvent{Code: '?', Text: "?"})
	if c.HUD().Visible {
		t.Error("? did not hide the HUD")
	}
	c.HandleEvent(uv.KeyPressEvent{Code: '?', Text: "?"})
	if !c.HUD().Visible {
		t.Error("? did not show the HUD again")
	}

	start := mustPose(t, c)
	c.HandleEvent(uv.KeyPressEvent{Code: 'w', Text: "w"})
	if err := c.Update(1); err != nil {
		t.Fatal(err)
	}
	c.HandleEvent(uv.KeyPressEvent{Code: 'r', Text: "r"})
	if p := mustPose(t, c); p != start {
		t.Errorf("r did not reset the pose: %v", p)
	}

	if c.Quit() {
		t.Fatal("quit before escape")
	}
	c.HandleEvent(uv.KeyPressEvent{Code: uv.KeyEscape})
	if !c.Quit() {
		t.Error("escape did not request quit")
	}
}

func TestRender(t *testing.T) {
	c, _ := newTestContext(t, DefaultConfig())
	fb := render.NewFramebuffer(120, 80)

	if err := c.Render(fb); err != nil {
		t.Fatalf("Render: %v", err)
	}
	st := c.Stats()
	if st.Shapes == 0 || st.Segments == 0 {
		t.Errorf("stats = %+v, want something drawn", st)
	}

	drawn := 0
	for _, p := range fb.Pixels {
		if p != render.ColorSky {
			drawn++
		}
	}
	if drawn == 0 {
		t.Error("framebuffer is all sky")
	}

	// A resized framebuffer is picked up.
	small := render.NewFramebuffer(40, 20)
	if err := c.Render(small); err != nil {
		t.Fatal(err)
	}
}

func TestDestroy(t *testing.T) {
	c, _ := newTestContext(t, levelConfig())
	g, cam := c.Graph(), c.Camera()

	if err := c.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if _, err := g.Transform(cam); !errors.Is(err, scene.ErrMissingTransform) {
		t.Errorf("camera entity survived Destroy: %v", err)
	}

	if err := c.Update(0.1); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Update = %v, want ErrDestroyed", err)
	}
	if err := c.Render(render.NewFramebuffer(8, 8)); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Render = %v, want ErrDestroyed", err)
	}
	if _, err := c.Pose(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Pose = %v, want ErrDestroyed", err)
	}
	if err := c.Destroy(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("second Destroy = %v, want ErrDestroyed", err)
	}

	// Late events are dropped.
	c.HandleEvent(uv.KeyPressEvent{Code: 'w', Text: "w"})
}

func TestLevelCameraStartPose(t *testing.T) {
	// A quarter turn to the left about +Y.
	s := math.Sqrt(0.5)
	doc := &gltf.Document{
		Scenes: []*gltf.Scene{{Nodes: []int{0}}},
		Nodes: []*gltf.Node{{
			Name:        "spawn",
			Camera:      gltf.Index(0),
			Translation: [3]float64{1, 2, 3},
			Rotation:    [4]float64{0, s, 0, s},
			Scale:       [3]float64{1, 1, 1},
		}},
		Cameras: []*gltf.Camera{{
			Perspective: &gltf.Perspective{Yfov: 1, Znear: 0.1},
		}},
	}
	doc.Scene = gltf.Index(0)

	path := filepath.Join(t.TempDir(), "spawn.gltf")
	if err := gltf.Save(doc, path); err != nil {
		t.Fatalf("save level: %v", err)
	}

	tests := []struct {
		name     string
		useLevel bool
		want     math3d.Vec3
	}{
		{"level camera", true, math3d.V3(1, 2, 3)},
		{"configured eye", false, math3d.V3(0, 2, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := levelConfig()
			cfg.LevelPath = path
			cfg.UseLevelCamera = tt.useLevel
			c, _ := newTestContext(t, cfg)

			p := mustPose(t, c)
			if p.Position.Sub(tt.want).Len() > 1e-9 {
				t.Errorf("position = %v, want %v", p.Position, tt.want)
			}
			if tt.useLevel {
				if f := p.Forward(); f.Sub(math3d.V3(-1, 0, 0)).Len() > 1e-9 {
					t.Errorf("forward = %v, want (-1, 0, 0)", f)
				}
			}
		})
	}
}

func TestResetKeyYieldsToMovementBinding(t *testing.T) {
	cfg := levelConfig()
	cfg.Keys = camera.Keys{Forward: "R", Back: "F", Left: "A", Right: "D"}
	c, _ := newTestContext(t, cfg)

	for range 2 {
		c.HandleEvent(uv.KeyPressEvent{Code: 'r', Text: "r"})
		if err := c.Update(0.1); err != nil {
			t.Fatal(err)
		}
	}

	if !c.Controller().Held(camera.Forward) {
		t.Error("r bound to forward is not held")
	}
	// Two frames of forward motion and no reset in between.
	if p := mustPose(t, c); math.Abs(p.Position.Z-8.8) > 1e-9 {
		t.Errorf("z = %v, want 8.8", p.Position.Z)
	}
}

func TestStartNode(t *testing.T) {
	cfg := levelConfig()
	cfg.StartNode = "tower"
	c, _ := newTestContext(t, cfg)

	if p := mustPose(t, c); p.Position != math3d.V3(0, 4, -16) {
		t.Errorf("position = %v, want the tower at (0, 4, -16)", p.Position)
	}

	cfg.StartNode = "nowhere"
	if _, err := CreateContext(cfg, nil); !errors.Is(err, scene.ErrUnknownEntity) {
		t.Errorf("unknown start node: err = %v, want ErrUnknownEntity", err)
	}
}
