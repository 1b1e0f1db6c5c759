// Package app owns one flycam session: the scene, the loaded level, the
// camera entity with its controller, and the input source feeding it. The
// host creates a Context, feeds it terminal events, calls Update and Render
// once per frame and finally destroys it.
package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/flycam/pkg/camera"
	"github.com/taigrr/flycam/pkg/input"
	"github.com/taigrr/flycam/pkg/level"
	"github.com/taigrr/flycam/pkg/math3d"
	"github.com/taigrr/flycam/pkg/render"
	"github.com/taigrr/flycam/pkg/scene"
)

// ErrDestroyed is returned by a Context after Destroy.
var ErrDestroyed = errors.New("app: context destroyed")

// Option configures a Context.
type Option func(*Context)

// WithClock replaces time.Now as the source of frame timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Context) {
		c.now = now
	}
}

// Context is one running session. It is driven from a single goroutine.
type Context struct {
	cfg Config
	log *log.Logger
	now func() time.Time

	graph      *scene.Graph
	level      *level.Level
	camera     scene.Entity
	start      math3d.Pose
	input      *input.Source
	controller *camera.FreeLook
	moveKeys   map[input.KeyID]bool

	lens render.Lens
	wire *render.Wireframe
	fb   *render.Framebuffer
	hud  *HUD

	quit      bool
	destroyed bool
}

// CreateContext builds a session from cfg. The camera entity is spawned and
// placed first, then the level is loaded around it. A nil logger discards
// output.
func CreateContext(cfg Config, logger *log.Logger, opts ...Option) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	c := &Context{
		cfg:   cfg,
		log:   logger,
		now:   time.Now,
		graph: scene.NewGraph(),
		lens:  render.DefaultLens(),
	}
	for _, opt := range opts {
		opt(c)
	}

	start, err := cfg.startPose()
	if err != nil {
		return nil, err
	}
	// Spawned upright at the eye, then turned.
	c.start = start
	c.camera = c.graph.SpawnAt("camera", math3d.Pose{Position: start.Position, Orientation: math3d.QuatIdentity()})
	ch, _ := c.graph.Transform(c.camera)
	c.graph.SetLocalRotation(ch, start.Orientation)

	if cfg.LevelPath != "" {
		c.level, err = level.Load(cfg.LevelPath, c.graph)
		if err != nil {
			return nil, err
		}
	} else {
		c.level = level.Default(c.graph)
	}
	c.log.Printf("[app] level %q: %d entities", c.level.Name, len(c.level.Entities))

	from := scene.Entity(0)
	switch {
	case cfg.StartNode != "":
		e, ok := c.graph.Lookup(cfg.StartNode)
		if !ok || e == c.camera {
			return nil, fmt.Errorf("start node %q: %w", cfg.StartNode, scene.ErrUnknownEntity)
		}
		from = e
	case cfg.UseLevelCamera && c.level.Camera != 0:
		from = c.level.Camera
	}
	if from != 0 {
		h, err := c.graph.Transform(from)
		if err != nil {
			return nil, fmt.Errorf("start node: %w", err)
		}
		c.start = c.graph.LocalPose(h)
		c.start.Orientation = c.start.Orientation.Normalize()
		c.graph.SetLocalPose(ch, c.start)
		c.log.Printf("[app] starting at %q", c.graph.Name(from))
	}

	c.input = input.NewSource()
	c.input.HoldTimeout = cfg.HoldTimeout

	c.controller, err = camera.New(c.graph, c.input, c.camera, cfg.MoveSpeed, cfg.RotationSpeed, camera.WithKeys(cfg.Keys))
	if err != nil {
		return nil, fmt.Errorf("camera controller: %w", err)
	}
	c.moveKeys = make(map[input.KeyID]bool)
	for _, name := range []string{cfg.Keys.Forward, cfg.Keys.Back, cfg.Keys.Left, cfg.Keys.Right} {
		// Already resolved once by camera.New.
		if id, err := input.ResolveKeyID(name); err == nil {
			c.moveKeys[id] = true
		}
	}

	c.hud = NewHUD(c.level.Name, cfg.FPS)
	c.hud.Visible = cfg.ShowHUD
	return c, nil
}

// HandleEvent feeds a terminal event to the session. Besides movement keys
// it handles escape (quit), ? (HUD) and r (back to the start pose).
func (c *Context) HandleEvent(ev uv.Event) {
	if c.destroyed {
		return
	}
	if kp, ok := ev.(uv.KeyPressEvent); ok && !kp.IsRepeat {
		switch {
		case kp.MatchString("escape", "ctrl+c"):
			c.quit = true
		case kp.MatchString("?", "shift+/"):
			c.hud.Visible = !c.hud.Visible
		case kp.MatchString("r") && !c.moveKeys[input.KeyID('r')]:
			c.Reset()
		}
	}
	if kb, ok := ev.(uv.KeyboardEnhancementsEvent); ok {
		c.log.Printf("[input] keyboard enhancements %#x, releases=%v", kb.Flags, kb.SupportsKeyReleases())
	}
	c.input.HandleEvent(ev, c.now())
}

// Quit reports whether the user asked to leave.
func (c *Context) Quit() bool {
	return c.quit
}

// Reset puts the camera back at its start pose.
func (c *Context) Reset() {
	if h, err := c.graph.Transform(c.camera); err == nil {
		c.graph.SetLocalPose(h, c.start)
	}
}

// Update advances the camera by dt seconds using the input gathered since
// the last frame, then starts a new input frame.
//
// Pointer motion arrives in screen space (right and down are positive). It
// is negated so that moving right turns right and moving up looks up.
func (c *Context) Update(dt float64) error {
	if c.destroyed {
		return ErrDestroyed
	}
	defer c.input.EndFrame(c.now())

	dx, dy := c.input.PointerDelta()
	dx, dy = -dx, -dy
	if c.cfg.InvertLook {
		dy = -dy
	}
	if err := c.controller.Update(dt, dx, dy); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return nil
}

// Render clears fb and draws the level from the camera entity.
func (c *Context) Render(fb *render.Framebuffer) error {
	if c.destroyed {
		return ErrDestroyed
	}
	if fb != c.fb {
		c.fb = fb
		c.wire = render.NewWireframe(c.lens, fb)
	}
	fb.Clear(render.ColorSky)
	if err := c.wire.DrawScene(c.graph, c.camera); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	c.hud.Tick(c.now())
	if pose, err := c.Pose(); err == nil {
		c.hud.Observe(pose, c.controller, c.input.ReportsReleases())
	}
	return nil
}

// HUD returns the overlay to draw over the rendered frame.
func (c *Context) HUD() *HUD {
	return c.hud
}

// Pose returns the camera entity's current pose.
func (c *Context) Pose() (math3d.Pose, error) {
	if c.destroyed {
		return math3d.Pose{}, ErrDestroyed
	}
	h, err := c.graph.Transform(c.camera)
	if err != nil {
		return math3d.Pose{}, err
	}
	return c.graph.LocalPose(h), nil
}

// Stats returns the counters of the last Render.
func (c *Context) Stats() render.Stats {
	if c.wire == nil {
		return render.Stats{}
	}
	return c.wire.Stats()
}

// Controller returns the camera controller.
func (c *Context) Controller() *camera.FreeLook {
	return c.controller
}

// Graph returns the scene graph.
func (c *Context) Graph() *scene.Graph {
	return c.graph
}

// Camera returns the camera entity.
func (c *Context) Camera() scene.Entity {
	return c.camera
}

// Destroy despawns the camera and drops the scene. Every later call on c
// fails with ErrDestroyed.
func (c *Context) Destroy() error {
	if c.destroyed {
		return ErrDestroyed
	}
	if err := c.graph.Destroy(c.camera); err != nil {
		c.log.Printf("[app] destroy camera: %v", err)
	}
	c.destroyed = true
	c.controller = nil
	c.graph = nil
	c.level = nil
	c.wire = nil
	c.fb = nil
	c.log.Printf("[app] context destroyed")
	return nil
}
