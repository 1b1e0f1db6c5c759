package render

import (
	"fmt"
	"math"

	"github.com/taigrr/flycam/pkg/math3d"
	"github.com/taigrr/flycam/pkg/scene"
)

// Scene is what the wireframe pass reads. *scene.Graph implements it.
type Scene interface {
	Transform(e scene.Entity) (scene.TransformHandle, error)
	LocalPose(h scene.TransformHandle) math3d.Pose
	Each(fn func(e scene.Entity, pose math3d.Pose, shape *scene.Shape))
}

// Stats counts the work done by the last DrawScene.
type Stats struct {
	Shapes   int // shapes drawn
	Culled   int // shapes outside the frustum
	Segments int // segments with a visible part
}

// Wireframe renders scene shapes as lines.
type Wireframe struct {
	Lens  Lens
	fb    *Framebuffer
	stats Stats
}

// NewWireframe creates a new wireframe renderer drawing into fb.
func NewWireframe(lens Lens, fb *Framebuffer) *Wireframe {
	return &Wireframe{
		Lens: lens,
		fb:   fb,
	}
}

// Stats returns the counters of the last DrawScene.
func (w *Wireframe) Stats() Stats {
	return w.stats
}

// DrawScene draws every shape in s as seen from the camera entity. The
// camera's own shape is skipped. The framebuffer is not cleared first.
func (w *Wireframe) DrawScene(s Scene, camera scene.Entity) error {
	h, err := s.Transform(camera)
	if err != nil {
		return fmt.Errorf("draw scene: %w", err)
	}
	w.Lens.Fit(w.fb.Width, w.fb.Height)
	view := w.Lens.NewView(s.LocalPose(h), w.fb.Width, w.fb.Height)

	w.stats = Stats{}
	s.Each(func(e scene.Entity, pose math3d.Pose, shape *scene.Shape) {
		if e == camera || shape == nil || len(shape.Segments) == 0 {
			return
		}
		lo, hi := shape.Bounds()
		model := pose.Matrix()
		if !view.Frustum.IntersectAABB(NewAABB(lo, hi).Transform(model)) {
			w.stats.Culled++
			return
		}
		w.stats.Shapes++
		for _, seg := range shape.Segments {
			if w.DrawLine3D(view, pose.Transform(seg.A), pose.Transform(seg.B), shape.Color) {
				w.stats.Segments++
			}
		}
	})
	return nil
}

// DrawLine3D draws a world-space line through view. It reports whether any
// part of the line was visible.
func (w *Wireframe) DrawLine3D(view View, p1, p2 math3d.Vec3, color Color) bool {
	x1, y1, x2, y2, ok := view.ProjectSegment(p1, p2)
	if !ok {
		return false
	}
	w.fb.DrawLine(round(x1), round(y1), round(x2), round(y2), color)
	return true
}

func round(v float64) int {
	return int(math.Round(v))
}
