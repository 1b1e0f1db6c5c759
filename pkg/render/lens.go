package render

import (
	"math"

	"github.com/taigrr/flycam/pkg/math3d"
)

// Lens holds the projection parameters of the viewer. Position and
// orientation come from the camera entity's pose.
type Lens struct {
	FOV    float64 // Vertical field of view in radians
	Aspect float64 // Width / Height
	Near   float64 // Near clipping plane
	Far    float64 // Far clipping plane
}

// DefaultLens returns a 60 degree lens with a 16:9 aspect.
func DefaultLens() Lens {
	return Lens{
		FOV:    math.Pi / 3,
		Aspect: 16.0 / 9.0,
		Near:   0.1,
		Far:    1000,
	}
}

// Fit sets the aspect ratio from framebuffer dimensions. Half-block pixels
// are roughly square.
func (l *Lens) Fit(width, height int) {
	if width > 0 && height > 0 {
		l.Aspect = float64(width) / float64(height)
	}
}

// Projection returns the perspective projection matrix.
func (l Lens) Projection() math3d.Mat4 {
	return math3d.Perspective(l.FOV, l.Aspect, l.Near, l.Far)
}

// View is a lens placed at a pose, ready to project onto a width x height
// pixel grid.
type View struct {
	ViewProj math3d.Mat4
	Frustum  Frustum
	Width    int
	Height   int
}

// NewView places the lens at eye.
func (l Lens) NewView(eye math3d.Pose, width, height int) View {
	vp := l.Projection().Mul(eye.ViewMatrix())
	return View{
		ViewProj: vp,
		Frustum:  NewFrustumFromMatrix(vp),
		Width:    width,
		Height:   height,
	}
}

// clip-space planes: dot(plane, clip) >= 0 is inside.
var clipPlanes = [6]math3d.Vec4{
	{X: 1, W: 1},  // left: w + x
	{X: -1, W: 1}, // right: w - x
	{Y: 1, W: 1},  // bottom
	{Y: -1, W: 1}, // top
	{Z: 1, W: 1},  // near
	{Z: -1, W: 1}, // far
}

func dot4(a, b math3d.Vec4) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z + a.W*b.W
}

func lerp4(a, b math3d.Vec4, t float64) math3d.Vec4 {
	return math3d.Vec4{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
		W: a.W + (b.W-a.W)*t,
	}
}

// ProjectSegment clips the world-space segment a-b against the view volume
// and returns its screen-space end points. ok is false when nothing of the
// segment is visible. Segments crossing the near plane are cut at it, so
// points behind the eye never wrap around.
func (v View) ProjectSegment(a, b math3d.Vec3) (x0, y0, x1, y1 float64, ok bool) {
	ca := v.ViewProj.MulVec4(math3d.V4FromV3(a, 1))
	cb := v.ViewProj.MulVec4(math3d.V4FromV3(b, 1))

	for _, p := range clipPlanes {
		da, db := dot4(p, ca), dot4(p, cb)
		switch {
		case da < 0 && db < 0:
			return 0, 0, 0, 0, false
		case da < 0:
			ca = lerp4(ca, cb, da/(da-db))
		case db < 0:
			cb = lerp4(cb, ca, db/(db-da))
		}
	}

	x0, y0 = v.toScreen(ca)
	x1, y1 = v.toScreen(cb)
	return x0, y0, x1, y1, true
}

// ProjectPoint maps a world point to screen space. ok is false for points
// outside the view volume.
func (v View) ProjectPoint(p math3d.Vec3) (x, y float64, ok bool) {
	c := v.ViewProj.MulVec4(math3d.V4FromV3(p, 1))
	for _, pl := range clipPlanes {
		if dot4(pl, c) < 0 {
			return 0, 0, false
		}
	}
	x, y = v.toScreen(c)
	return x, y, true
}

func (v View) toScreen(c math3d.Vec4) (x, y float64) {
	ndc := c.PerspectiveDivide()
	x = (ndc.X + 1) * 0.5 * float64(v.Width-1)
	y = (1 - ndc.Y) * 0.5 * float64(v.Height-1) // Y is flipped
	return x, y
}
