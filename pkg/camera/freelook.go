// Package camera implements a first-person free-look controller. Each frame it
// turns the pointer delta into a look rotation and the held direction keys
// into a translation, then writes the new pose back to the scene.
package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/taigrr/flycam/pkg/input"
	"github.com/taigrr/flycam/pkg/math3d"
	"github.com/taigrr/flycam/pkg/scene"
)

var (
	// ErrNegativeDelta is returned by Update for a negative or NaN dt.
	ErrNegativeDelta = errors.New("camera: negative frame delta")

	// ErrInvalidSpeed is returned by New when a speed is not a positive
	// finite number.
	ErrInvalidSpeed = errors.New("camera: speed must be positive and finite")
)

// TransformProvider is the scene access the controller needs.
// *scene.Graph implements it.
type TransformProvider interface {
	Transform(e scene.Entity) (scene.TransformHandle, error)
	LocalPose(h scene.TransformHandle) math3d.Pose
	SetLocalPosition(h scene.TransformHandle, pos math3d.Vec3)
	SetLocalPose(h scene.TransformHandle, pose math3d.Pose)
}

// InputProvider reports key edges for the current frame only.
// *input.Source implements it.
type InputProvider interface {
	ResolveKey(name string) (input.KeyID, error)
	Pressed(id input.KeyID) bool
	Released(id input.KeyID) bool
}

// Direction is one of the four movement keys.
type Direction int

const (
	Forward Direction = iota
	Back
	Left
	Right

	numDirections
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Back:
		return "back"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Keys names the movement keys. Names are resolved through the
// InputProvider when the controller is built.
type Keys struct {
	Forward string
	Back    string
	Left    string
	Right   string
}

// DefaultKeys is the WASD layout.
var DefaultKeys = Keys{Forward: "w", Back: "s", Left: "a", Right: "d"}

func (k Keys) names() [numDirections]string {
	return [numDirections]string{k.Forward, k.Back, k.Left, k.Right}
}

// Option configures a FreeLook.
type Option func(*FreeLook)

// WithKeys replaces the default key names.
func WithKeys(k Keys) Option {
	return func(f *FreeLook) {
		f.keys = k
	}
}

// FreeLook drives the pose of one entity. It keeps a held latch per
// direction key; nothing else persists between updates.
//
// A FreeLook must not be updated from more than one goroutine at a time.
type FreeLook struct {
	transforms TransformProvider
	input      InputProvider
	entity     scene.Entity

	moveSpeed     float64
	rotationSpeed float64

	keys   Keys
	keyIDs [numDirections]input.KeyID
	held   [numDirections]bool
}

// New builds a controller for entity. moveSpeed is in units per second and
// rotationSpeed in radians per second per unit of pointer delta; both must be
// positive. Every key name must resolve, otherwise no controller is returned
// and the error wraps input.ErrUnresolvedKey.
func New(transforms TransformProvider, in InputProvider, entity scene.Entity, moveSpeed, rotationSpeed float64, opts ...Option) (*FreeLook, error) {
	if !validSpeed(moveSpeed) {
		return nil, fmt.Errorf("move speed %v: %w", moveSpeed, ErrInvalidSpeed)
	}
	if !validSpeed(rotationSpeed) {
		return nil, fmt.Errorf("rotation speed %v: %w", rotationSpeed, ErrInvalidSpeed)
	}

	f := &FreeLook{
		transforms:    transforms,
		input:         in,
		entity:        entity,
		moveSpeed:     moveSpeed,
		rotationSpeed: rotationSpeed,
		keys:          DefaultKeys,
	}
	for _, opt := range opts {
		opt(f)
	}

	for d, name := range f.keys.names() {
		id, err := in.ResolveKey(name)
		if err != nil {
			return nil, fmt.Errorf("%s key: %w", Direction(d), err)
		}
		f.keyIDs[d] = id
	}
	return f, nil
}

func validSpeed(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// Update advances the controller by dt seconds with the pointer moved by
// (dx, dy) since the last frame.
//
// The orientation changes only when both dx and dy are non-zero. It gains a
// yaw of dx*rotationSpeed*dt about the world up axis followed by a pitch of
// dy*rotationSpeed*dt about the current right axis, and is written before the
// keys are read. Key latches then take this frame's press edges followed by
// its release edges, so a release wins over a press reported in the same
// frame. Held keys move the entity along the new forward and right axes at
// moveSpeed; simultaneous keys add up.
//
// A missing transform fails with scene.ErrMissingTransform before anything is
// written or any latch changes.
func (f *FreeLook) Update(dt, dx, dy float64) error {
	if !(dt >= 0) {
		return fmt.Errorf("dt %v: %w", dt, ErrNegativeDelta)
	}

	h, err := f.transforms.Transform(f.entity)
	if err != nil {
		return fmt.Errorf("camera update: %w", err)
	}
	pose := f.transforms.LocalPose(h)

	if dx != 0 && dy != 0 {
		orientation, err := f.look(pose, dt, dx, dy)
		if err != nil {
			return fmt.Errorf("camera look: %w", err)
		}
		pose.Orientation = orientation
		f.transforms.SetLocalPose(h, pose)
	}

	for d, id := range f.keyIDs {
		if f.input.Pressed(id) {
			f.held[d] = true
		}
	}
	for d, id := range f.keyIDs {
		if f.input.Released(id) {
			f.held[d] = false
		}
	}

	step := f.moveSpeed * dt
	forward, right := pose.Forward(), pose.Right()
	move := math3d.Zero3()
	if f.held[Forward] {
		move = move.Add(forward.Scale(step))
	}
	if f.held[Back] {
		move = move.Sub(forward.Scale(step))
	}
	if f.held[Right] {
		move = move.Add(right.Scale(step))
	}
	if f.held[Left] {
		move = move.Sub(right.Scale(step))
	}

	f.transforms.SetLocalPosition(h, pose.Position.Add(move))
	return nil
}

// look returns the orientation after one frame of pointer motion.
func (f *FreeLook) look(pose math3d.Pose, dt, dx, dy float64) (math3d.Quat, error) {
	yaw, err := math3d.FromAxisAngle(math3d.WorldUp(), dx*f.rotationSpeed*dt)
	if err != nil {
		return math3d.Quat{}, err
	}
	pitch, err := math3d.FromAxisAngle(pose.Right(), dy*f.rotationSpeed*dt)
	if err != nil {
		return math3d.Quat{}, err
	}
	return math3d.Compose(pose.Orientation, math3d.Compose(yaw, pitch)), nil
}

// Entity returns the entity the controller drives.
func (f *FreeLook) Entity() scene.Entity { return f.entity }

// MoveSpeed returns the translation speed in units per second.
func (f *FreeLook) MoveSpeed() float64 { return f.moveSpeed }

// RotationSpeed returns the look speed in radians per second per unit of
// pointer delta.
func (f *FreeLook) RotationSpeed() float64 { return f.rotationSpeed }

// Keys returns the configured key names.
func (f *FreeLook) Keys() Keys { return f.keys }

// Held reports whether the key for d is latched down.
func (f *FreeLook) Held(d Direction) bool {
	if d < 0 || d >= numDirections {
		return false
	}
	return f.held[d]
}
