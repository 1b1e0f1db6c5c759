// Package scene holds the entities of a flycam world: a name, an optional
// local transform and an optional wireframe shape per entity.
//
// A Graph is not safe for concurrent use. The frame loop owns it.
package scene

import (
	"errors"
	"fmt"

	"github.com/taigrr/flycam/pkg/math3d"
)

var (
	// ErrMissingTransform is returned when an entity has no transform.
	ErrMissingTransform = errors.New("scene: entity has no transform")

	// ErrUnknownEntity is returned for entities that were never spawned or
	// have been destroyed.
	ErrUnknownEntity = errors.New("scene: unknown entity")
)

// Entity is an opaque entity id. The zero Entity is never issued.
type Entity uint32

// TransformHandle addresses the transform component of one entity.
type TransformHandle int

// NoTransform is the handle of an entity without a transform.
const NoTransform TransformHandle = -1

type node struct {
	name      string
	transform TransformHandle
	shape     *Shape
}

type transform struct {
	pose  math3d.Pose
	owner Entity
}

// Graph stores entities and their components.
type Graph struct {
	last       Entity
	nodes      map[Entity]*node
	order      []Entity
	transforms []transform
}

// NewGraph creates an empty scene graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[Entity]*node),
	}
}

// Spawn creates an entity without components.
func (g *Graph) Spawn(name string) Entity {
	g.last++
	e := g.last
	g.nodes[e] = &node{name: name, transform: NoTransform}
	g.order = append(g.order, e)
	return e
}

// SpawnAt creates an entity with a transform at pose.
func (g *Graph) SpawnAt(name string, pose math3d.Pose) Entity {
	e := g.Spawn(name)
	// Cannot fail: e is live and has no transform yet.
	_, _ = g.AddTransform(e, pose)
	return e
}

// AddTransform attaches a transform to e, or resets the existing one.
func (g *Graph) AddTransform(e Entity, pose math3d.Pose) (TransformHandle, error) {
	n, ok := g.nodes[e]
	if !ok {
		return NoTransform, fmt.Errorf("add transform to %d: %w", e, ErrUnknownEntity)
	}
	if n.transform != NoTransform {
		g.transforms[n.transform].pose = pose
		return n.transform, nil
	}
	n.transform = TransformHandle(len(g.transforms))
	g.transforms = append(g.transforms, transform{pose: pose, owner: e})
	return n.transform, nil
}

// Transform returns the handle of e's transform. It fails with
// ErrMissingTransform when e has none, including when e is unknown.
func (g *Graph) Transform(e Entity) (TransformHandle, error) {
	n, ok := g.nodes[e]
	if !ok || n.transform == NoTransform {
		return NoTransform, fmt.Errorf("entity %d: %w", e, ErrMissingTransform)
	}
	return n.transform, nil
}

func (g *Graph) live(h TransformHandle) bool {
	return h >= 0 && int(h) < len(g.transforms) && g.transforms[h].owner != 0
}

// LocalPose returns the pose stored at h. Stale or invalid handles read as
// the identity pose.
func (g *Graph) LocalPose(h TransformHandle) math3d.Pose {
	if !g.live(h) {
		return math3d.IdentityPose()
	}
	return g.transforms[h].pose
}

// SetLocalPose overwrites the pose at h. Writes through stale handles are
// dropped.
func (g *Graph) SetLocalPose(h TransformHandle, pose math3d.Pose) {
	if g.live(h) {
		g.transforms[h].pose = pose
	}
}

// SetLocalPosition overwrites only the position at h.
func (g *Graph) SetLocalPosition(h TransformHandle, pos math3d.Vec3) {
	if g.live(h) {
		g.transforms[h].pose.Position = pos
	}
}

// SetLocalRotation overwrites only the orientation at h.
func (g *Graph) SetLocalRotation(h TransformHandle, q math3d.Quat) {
	if g.live(h) {
		g.transforms[h].pose.Orientation = q
	}
}

// SetShape attaches a wireframe shape to e. A nil shape removes it.
func (g *Graph) SetShape(e Entity, s *Shape) error {
	n, ok := g.nodes[e]
	if !ok {
		return fmt.Errorf("set shape on %d: %w", e, ErrUnknownEntity)
	}
	n.shape = s
	return nil
}

// Shape returns e's shape, or nil.
func (g *Graph) Shape(e Entity) *Shape {
	if n, ok := g.nodes[e]; ok {
		return n.shape
	}
	return nil
}

// Destroy removes e and its components. Its transform handle goes stale.
func (g *Graph) Destroy(e Entity) error {
	n, ok := g.nodes[e]
	if !ok {
		return fmt.Errorf("destroy %d: %w", e, ErrUnknownEntity)
	}
	if n.transform != NoTransform {
		g.transforms[n.transform] = transform{}
	}
	delete(g.nodes, e)
	for i, o := range g.order {
		if o == e {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return nil
}

// Name returns the name e was spawned with.
func (g *Graph) Name(e Entity) string {
	if n, ok := g.nodes[e]; ok {
		return n.name
	}
	return ""
}

// Lookup returns the first live entity spawned with name.
func (g *Graph) Lookup(name string) (Entity, bool) {
	for _, e := range g.order {
		if g.nodes[e].name == name {
			return e, true
		}
	}
	return 0, false
}

// Len returns the number of live entities.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Each calls fn for every live entity that has a transform, in spawn order.
// The shape is nil for entities without one.
func (g *Graph) Each(fn func(e Entity, pose math3d.Pose, shape *Shape)) {
	for _, e := range g.order {
		n := g.nodes[e]
		if n.transform == NoTransform {
			continue
		}
		fn(e, g.transforms[n.transform].pose, n.shape)
	}
}
