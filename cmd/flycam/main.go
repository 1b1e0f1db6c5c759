// flycam - Terminal Free-Look Camera
// Fly through a glTF level (or the built-in one) in your terminal.
//
// Controls:
//
//	Mouse move  - Look around (yaw/pitch)
//	W/A/S/D     - Move forward/left/back/right
//	R           - Back to the start pose
//	?           - Toggle HUD overlay (FPS, level, position, held keys)
//	Esc         - Quit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/flycam/internal/app"
	"github.com/taigrr/flycam/pkg/camera"
	"github.com/taigrr/flycam/pkg/math3d"
	"github.com/taigrr/flycam/pkg/render"
)

var (
	targetFPS   = flag.Int("fps", 60, "Target FPS")
	fixedStep   = flag.Bool("fixed", false, "Advance every frame by exactly 1/fps seconds")
	moveSpeed   = flag.Float64("speed", 6, "Movement speed in units per second")
	lookSpeed   = flag.Float64("look", 2, "Look speed in radians per second per cell of mouse motion")
	keyLayout   = flag.String("keys", "w,s,a,d", "Movement keys (forward,back,left,right)")
	eyePos      = flag.String("eye", "0,1.7,12", "Start position (X,Y,Z)")
	startPitch  = flag.Float64("pitch", -8, "Start pitch in degrees, positive looks up")
	startYaw    = flag.Float64("yaw", 0, "Start yaw in degrees, positive turns left")
	ignoreCam   = flag.Bool("no-level-camera", false, "Ignore the level's camera node")
	startNode   = flag.String("start", "", "Start at the pose of this level node")
	invertLook  = flag.Bool("invert", false, "Invert vertical look")
	holdTimeout = flag.Duration("hold", app.DefaultConfig().HoldTimeout, "Key hold timeout for terminals without key release events (0 disables)")
	logPath     = flag.String("log", "", "Write a debug log to this file")
	noHUD       = flag.Bool("no-hud", false, "Start with the HUD hidden")
	snapshot    = flag.String("snapshot", "", "Render one frame to this PNG file and exit")
	snapSize    = flag.String("size", "320x180", "Snapshot size in pixels (WxH)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "flycam - Terminal Free-Look Camera\n\n")
		fmt.Fprintf(os.Stderr, "Usage: flycam [options] [level.gltf|level.glb]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Mouse move  - Look around\n")
		fmt.Fprintf(os.Stderr, "  W/A/S/D     - Move\n")
		fmt.Fprintf(os.Stderr, "  R           - Back to start\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle HUD overlay\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := configFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := openLog(*logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if *snapshot != "" {
		err = renderSnapshot(cfg, logger, *snapshot, *snapSize)
	} else {
		err = run(cfg, logger)
	}
	if err != nil {
		closeLog()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func configFromFlags() (app.Config, error) {
	cfg := app.DefaultConfig()
	cfg.LevelPath = flag.Arg(0)
	cfg.FPS = *targetFPS
	cfg.FixedStep = *fixedStep
	cfg.MoveSpeed = *moveSpeed
	cfg.RotationSpeed = *lookSpeed
	cfg.Pitch = *startPitch
	cfg.Yaw = *startYaw
	cfg.UseLevelCamera = !*ignoreCam
	cfg.StartNode = *startNode
	cfg.InvertLook = *invertLook
	cfg.HoldTimeout = *holdTimeout
	cfg.ShowHUD = !*noHUD

	var eye math3d.Vec3
	if _, err := fmt.Sscanf(*eyePos, "%g,%g,%g", &eye.X, &eye.Y, &eye.Z); err != nil {
		return cfg, fmt.Errorf("-eye %q: want X,Y,Z: %w", *eyePos, err)
	}
	cfg.Eye = eye

	keys := strings.Split(*keyLayout, ",")
	if len(keys) != 4 {
		return cfg, fmt.Errorf("-keys %q: want four comma separated keys", *keyLayout)
	}
	cfg.Keys = camera.Keys{Forward: keys[0], Back: keys[1], Left: keys[2], Right: keys[3]}

	return cfg, cfg.Validate()
}

func openLog(path string) (*log.Logger, func(), error) {
	if path == "" {
		return log.New(io.Discard, "", 0), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	return log.New(f, "flycam ", log.LstdFlags|log.Lmicroseconds), func() { f.Close() }, nil
}

// renderSnapshot draws the start view without touching the terminal.
func renderSnapshot(cfg app.Config, logger *log.Logger, out, size string) error {
	var w, h int
	if _, err := fmt.Sscanf(size, "%dx%d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return fmt.Errorf("-size %q: want WxH", size)
	}

	ctx, err := app.CreateContext(cfg, logger)
	if err != nil {
		return err
	}
	defer ctx.Destroy()

	fb := render.NewFramebuffer(w, h)
	if err := ctx.Render(fb); err != nil {
		return err
	}
	if err := fb.SavePNG(out); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	st := ctx.Stats()
	fmt.Printf("Wrote %s (%dx%d, %d shapes, %d culled, %d segments)\n",
		filepath.Base(out), w, h, st.Shapes, st.Culled, st.Segments)
	return nil
}

func run(cfg app.Config, logger *log.Logger) error {
	session, err := app.CreateContext(cfg, logger)
	if err != nil {
		return err
	}
	defer session.Destroy()

	term := uv.DefaultTerminal()
	term.SetLogger(logger)

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	fmt.Fprint(os.Stdout, "\x1b[>3u")    // Kitty keyboard: disambiguate + report releases
	fmt.Fprint(os.Stdout, "\x1b[?u")     // Ask which enhancements took
	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[<u")
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fb := render.NewFramebufferForCells(width, height)
	clock := app.NewClock(cfg.FPS, cfg.FixedStep)
	ticker := time.NewTicker(clock.Interval())
	defer ticker.Stop()

	logger.Printf("[app] %dx%d cells, %d fps, fixed step %v", width, height, cfg.FPS, cfg.FixedStep)

	// Events and frames share this goroutine, so the session is never
	// touched concurrently.
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-term.Events():
			if !ok {
				return nil
			}
			if ws, ok := ev.(uv.WindowSizeEvent); ok {
				width, height = ws.Width, ws.Height
				term.Erase()
				term.Resize(width, height)
				fb.Resize(width, height*2)
				continue
			}
			session.HandleEvent(ev)
			if session.Quit() {
				return nil
			}

		case now := <-ticker.C:
			dt := clock.Tick(now)
			if err := session.Update(dt); err != nil {
				if errors.Is(err, app.ErrDestroyed) {
					return nil
				}
				return err
			}
			if err := session.Render(fb); err != nil {
				return err
			}

			area := uv.Rect(0, 0, width, height)
			fb.Draw(term, area)
			session.HUD().Draw(term, area)
			if err := term.Display(); err != nil {
				return fmt.Errorf("display: %w", err)
			}
		}
	}
}
