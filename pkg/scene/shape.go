package scene

import (
	"image/color"

	"github.com/taigrr/flycam/pkg/math3d"
)

// Segment is a line segment in shape-local space.
type Segment struct {
	A, B math3d.Vec3
}

// Shape is wireframe geometry: line segments in local space and one color.
type Shape struct {
	Segments []Segment
	Color    color.RGBA
}

// NewShape creates an empty shape.
func NewShape(c color.RGBA) *Shape {
	return &Shape{Color: c}
}

// AddSegment appends a segment from a to b.
func (s *Shape) AddSegment(a, b math3d.Vec3) {
	s.Segments = append(s.Segments, Segment{A: a, B: b})
}

// boxEdges index the corners built in NewBoxShape.
var boxEdges = [12][2]int{
	// Back face
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	// Front face
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	// Connecting edges
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// NewBoxShape creates the twelve edges of a box of the given size centered
// on the origin.
func NewBoxShape(size math3d.Vec3, c color.RGBA) *Shape {
	h := size.Scale(0.5)
	corners := [8]math3d.Vec3{
		{X: -h.X, Y: -h.Y, Z: -h.Z},
		{X: h.X, Y: -h.Y, Z: -h.Z},
		{X: h.X, Y: h.Y, Z: -h.Z},
		{X: -h.X, Y: h.Y, Z: -h.Z},
		{X: -h.X, Y: -h.Y, Z: h.Z},
		{X: h.X, Y: -h.Y, Z: h.Z},
		{X: h.X, Y: h.Y, Z: h.Z},
		{X: -h.X, Y: h.Y, Z: h.Z},
	}
	s := NewShape(c)
	for _, e := range boxEdges {
		s.AddSegment(corners[e[0]], corners[e[1]])
	}
	return s
}

// NewGridShape creates a square grid on the local XZ plane, size wide with
// lines every step units.
func NewGridShape(size, step float64, c color.RGBA) *Shape {
	s := NewShape(c)
	if size <= 0 || step <= 0 {
		return s
	}
	half := size / 2
	n := int(size/step + 1e-9)
	for i := 0; i <= n; i++ {
		v := -half + float64(i)*step
		s.AddSegment(math3d.V3(v, 0, -half), math3d.V3(v, 0, half))
		s.AddSegment(math3d.V3(-half, 0, v), math3d.V3(half, 0, v))
	}
	return s
}

// Scaled returns a copy of s with every point scaled component-wise by k.
func (s *Shape) Scaled(k math3d.Vec3) *Shape {
	out := &Shape{Color: s.Color, Segments: make([]Segment, len(s.Segments))}
	for i, seg := range s.Segments {
		out.Segments[i] = Segment{A: seg.A.Mul(k), B: seg.B.Mul(k)}
	}
	return out
}

// Bounds returns the local-space axis-aligned bounds of s. An empty shape
// has zero bounds.
func (s *Shape) Bounds() (lo, hi math3d.Vec3) {
	if len(s.Segments) == 0 {
		return
	}
	lo, hi = s.Segments[0].A, s.Segments[0].A
	for _, seg := range s.Segments {
		lo = lo.Min(seg.A).Min(seg.B)
		hi = hi.Max(seg.A).Max(seg.B)
	}
	return lo, hi
}
