package app

import (
	"fmt"
	"math"
	"time"

	"github.com/taigrr/flycam/pkg/camera"
	"github.com/taigrr/flycam/pkg/input"
	"github.com/taigrr/flycam/pkg/math3d"
)

// Config is everything the host decides before the first frame.
type Config struct {
	// LevelPath is a .gltf or .glb file. Empty loads the built-in level.
	LevelPath string

	// Eye is the camera start position. Pitch and Yaw are the start
	// orientation in degrees; positive pitch looks up, positive yaw turns
	// left.
	Eye   math3d.Vec3
	Pitch float64
	Yaw   float64

	// UseLevelCamera starts at the level's first camera node, if any,
	// instead of Eye/Pitch/Yaw.
	UseLevelCamera bool

	// StartNode names a level node to start at. It wins over the level
	// camera and fails CreateContext when no such node exists.
	StartNode string

	MoveSpeed     float64 // units per second
	RotationSpeed float64 // radians per second per cell of pointer motion
	InvertLook    bool    // pointer up looks down
	Keys          camera.Keys

	FPS       int
	FixedStep bool // every frame advances 1/FPS seconds regardless of wall time

	// HoldTimeout is how long a key counts as held without autorepeat on
	// terminals that never report releases.
	HoldTimeout time.Duration

	ShowHUD bool
}

// DefaultConfig returns the settings of a plain `flycam` run.
func DefaultConfig() Config {
	return Config{
		Eye:            math3d.V3(0, 1.7, 12),
		Pitch:          -8,
		UseLevelCamera: true,
		MoveSpeed:      6,
		RotationSpeed:  2,
		Keys:           camera.DefaultKeys,
		FPS:            60,
		HoldTimeout:    input.DefaultHoldTimeout,
		ShowHUD:        true,
	}
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if !c.Eye.IsFinite() || math.IsNaN(c.Pitch) || math.IsNaN(c.Yaw) {
		return fmt.Errorf("start pose is not finite")
	}
	if c.HoldTimeout < 0 {
		return fmt.Errorf("hold timeout must not be negative, got %v", c.HoldTimeout)
	}
	return nil
}

// startPose is the camera pose before any level camera is applied: a yaw
// about world up followed by a pitch about the camera's right axis.
func (c Config) startPose() (math3d.Pose, error) {
	yaw, err := math3d.FromAxisAngle(math3d.WorldUp(), c.Yaw*math.Pi/180)
	if err != nil {
		return math3d.Pose{}, fmt.Errorf("start yaw: %w", err)
	}
	pitch, err := math3d.FromAxisAngle(math3d.V3(1, 0, 0), c.Pitch*math.Pi/180)
	if err != nil {
		return math3d.Pose{}, fmt.Errorf("start pitch: %w", err)
	}
	return math3d.Pose{Position: c.Eye, Orientation: math3d.Compose(yaw, pitch)}, nil
}
