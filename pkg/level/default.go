package level

import (
	"image/color"

	"github.com/taigrr/flycam/pkg/math3d"
	"github.com/taigrr/flycam/pkg/scene"
)

var (
	gridColor = color.RGBA{64, 64, 64, 255}
	axisX     = color.RGBA{255, 0, 0, 255}
	axisY     = color.RGBA{0, 255, 0, 255}
	axisZ     = color.RGBA{0, 0, 255, 255}
)

// Default builds the test level: a ground grid, a ring of boxes around the
// origin, a tower and an axis marker. It has no camera node.
func Default(g *scene.Graph) *Level {
	lvl := &Level{Name: "default"}
	add := func(name string, pos math3d.Vec3, shape *scene.Shape) {
		e := g.SpawnAt(name, math3d.Pose{Position: pos, Orientation: math3d.QuatIdentity()})
		// e was just spawned, SetShape cannot fail.
		_ = g.SetShape(e, shape)
		lvl.Entities = append(lvl.Entities, e)
	}

	add("ground", math3d.Zero3(), scene.NewGridShape(40, 2, gridColor))

	positions := []math3d.Vec3{
		{X: 6, Y: 1, Z: 0},
		{X: -6, Y: 1, Z: 0},
		{X: 0, Y: 1, Z: 6},
		{X: 0, Y: 1, Z: -6},
		{X: 8, Y: 1, Z: -8},
		{X: -8, Y: 1, Z: -8},
	}
	for i, p := range positions {
		add("box", p, scene.NewBoxShape(math3d.V3(2, 2, 2), Palette[i%len(Palette)]))
	}
	add("tower", math3d.V3(0, 4, -16), scene.NewBoxShape(math3d.V3(3, 8, 3), Palette[1]))

	axes := scene.NewShape(axisX)
	axes.AddSegment(math3d.Zero3(), math3d.V3(2, 0, 0))
	add("axis-x", math3d.V3(0, 0.01, 0), axes)
	axes = scene.NewShape(axisY)
	axes.AddSegment(math3d.Zero3(), math3d.V3(0, 2, 0))
	add("axis-y", math3d.V3(0, 0.01, 0), axes)
	axes = scene.NewShape(axisZ)
	axes.AddSegment(math3d.Zero3(), math3d.V3(0, 0, 2))
	add("axis-z", math3d.V3(0, 0.01, 0), axes)

	return lvl
}
