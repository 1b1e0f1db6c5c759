// Package level fills a scene graph with wireframe geometry, either from a
// glTF/GLB file or from the built-in test level.
package level

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/flycam/pkg/math3d"
	"github.com/taigrr/flycam/pkg/scene"
)

// ErrNodeCycle is returned for a glTF node hierarchy that is not a tree.
var ErrNodeCycle = errors.New("level: node hierarchy has a cycle")

// Level lists what was added to the graph.
type Level struct {
	Name     string
	Entities []scene.Entity

	// Camera is the first node carrying a glTF camera, or 0.
	Camera scene.Entity
}

// Palette colors meshes without a material.
var Palette = []color.RGBA{
	{255, 255, 255, 255},
	{0, 255, 255, 255},
	{255, 255, 0, 255},
	{255, 0, 255, 255},
	{0, 255, 0, 255},
	{255, 128, 0, 255},
}

// Load opens a .gltf or .glb file and adds its nodes to g.
func Load(path string, g *scene.Graph) (*Level, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	lvl, err := FromDocument(doc, g)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	lvl.Name = filepath.Base(path)
	return lvl, nil
}

// FromDocument adds every node reachable from the document's scene to g.
// Node transforms are flattened into world poses; scale is baked into each
// node's shape.
func FromDocument(doc *gltf.Document, g *scene.Graph) (*Level, error) {
	l := &loader{
		doc:    doc,
		g:      g,
		shapes: make(map[int]*scene.Shape),
		seen:   make(map[int]bool),
		lvl:    &Level{Name: "gltf"},
	}
	for _, root := range rootNodes(doc) {
		if err := l.visit(root, math3d.IdentityPose(), math3d.V3(1, 1, 1)); err != nil {
			return nil, err
		}
	}
	return l.lvl, nil
}

type loader struct {
	doc    *gltf.Document
	g      *scene.Graph
	shapes map[int]*scene.Shape
	seen   map[int]bool
	lvl    *Level
}

// rootNodes returns the nodes of the default scene, or every node that is
// no other node's child when the document has no scenes.
func rootNodes(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		s := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			s = *doc.Scene
		}
		return doc.Scenes[s].Nodes
	}

	child := make(map[int]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			child[c] = true
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !child[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func (l *loader) visit(idx int, parent math3d.Pose, parentScale math3d.Vec3) error {
	if idx < 0 || idx >= len(l.doc.Nodes) {
		return fmt.Errorf("node %d out of range", idx)
	}
	if l.seen[idx] {
		return fmt.Errorf("node %d: %w", idx, ErrNodeCycle)
	}
	l.seen[idx] = true

	node := l.doc.Nodes[idx]
	local, scale := nodeTRS(node)

	// Non-uniform scale under rotation is not a rigid transform; it is
	// approximated per axis.
	local.Position = local.Position.Mul(parentScale)
	world := parent.Then(local)
	worldScale := parentScale.Mul(scale)

	name := node.Name
	if name == "" {
		name = fmt.Sprintf("node%d", idx)
	}
	e := l.g.SpawnAt(name, world)
	l.lvl.Entities = append(l.lvl.Entities, e)

	if node.Camera != nil && l.lvl.Camera == 0 {
		l.lvl.Camera = e
	}

	if node.Mesh != nil {
		shape, err := l.meshShape(*node.Mesh)
		if err != nil {
			return fmt.Errorf("node %q: %w", name, err)
		}
		if len(shape.Segments) > 0 {
			if worldScale != math3d.V3(1, 1, 1) {
				shape = shape.Scaled(worldScale)
			}
			if err := l.g.SetShape(e, shape); err != nil {
				return err
			}
		}
	}

	for _, c := range node.Children {
		if err := l.visit(c, world, worldScale); err != nil {
			return err
		}
	}
	return nil
}

// nodeTRS returns a node's local pose and scale. A node matrix, when set,
// wins over the TRS fields. Zeroed fields from documents built in code read
// as their glTF defaults.
func nodeTRS(n *gltf.Node) (math3d.Pose, math3d.Vec3) {
	if n.Matrix != [16]float64{} && n.Matrix != [16]float64(math3d.Identity()) {
		return math3d.Mat4(n.Matrix).Decompose()
	}

	pose := math3d.Pose{
		Position:    math3d.V3(n.Translation[0], n.Translation[1], n.Translation[2]),
		Orientation: math3d.QuatIdentity(),
	}
	if r := n.Rotation; r != [4]float64{} {
		pose.Orientation = math3d.Quat{X: r[0], Y: r[1], Z: r[2], W: r[3]}.Normalize()
	}
	scale := math3d.V3(1, 1, 1)
	if s := n.Scale; s != [3]float64{} {
		scale = math3d.V3(s[0], s[1], s[2])
	}
	return pose, scale
}

// meshShape turns the triangle primitives of a mesh into an edge list.
// Shared edges are emitted once.
func (l *loader) meshShape(meshIdx int) (*scene.Shape, error) {
	if s, ok := l.shapes[meshIdx]; ok {
		return s, nil
	}
	if meshIdx < 0 || meshIdx >= len(l.doc.Meshes) {
		return nil, fmt.Errorf("mesh %d out of range", meshIdx)
	}
	m := l.doc.Meshes[meshIdx]

	shape := scene.NewShape(Palette[meshIdx%len(Palette)])
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := readPositions(l.doc, posIdx)
		if err != nil {
			return nil, fmt.Errorf("mesh %q: read positions: %w", m.Name, err)
		}

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(l.doc, *prim.Indices)
			if err != nil {
				return nil, fmt.Errorf("mesh %q: read indices: %w", m.Name, err)
			}
		} else {
			// No indices, assume sequential triangles
			indices = make([]int, len(positions)-len(positions)%3)
			for i := range indices {
				indices[i] = i
			}
		}

		if c, ok := l.materialColor(prim.Material); ok {
			shape.Color = c
		}
		if err := addTriangleEdges(shape, positions, indices); err != nil {
			return nil, fmt.Errorf("mesh %q: %w", m.Name, err)
		}
	}

	l.shapes[meshIdx] = shape
	return shape, nil
}

func (l *loader) materialColor(idx *int) (color.RGBA, bool) {
	if idx == nil || *idx < 0 || *idx >= len(l.doc.Materials) {
		return color.RGBA{}, false
	}
	pbr := l.doc.Materials[*idx].PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorFactor == nil {
		return color.RGBA{}, false
	}
	f := *pbr.BaseColorFactor
	to8 := func(v float64) uint8 {
		return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return color.RGBA{to8(f[0]), to8(f[1]), to8(f[2]), 255}, true
}

func addTriangleEdges(shape *scene.Shape, positions []math3d.Vec3, indices []int) error {
	type edge struct{ a, b int }
	seen := make(map[edge]bool)
	add := func(a, b int) {
		if a > b {
			a, b = b, a
		}
		if a == b || seen[edge{a, b}] {
			return
		}
		seen[edge{a, b}] = true
		shape.AddSegment(positions[a], positions[b])
	}

	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		for _, v := range [3]int{a, b, c} {
			if v < 0 || v >= len(positions) {
				return fmt.Errorf("index %d out of range (%d vertices)", v, len(positions))
			}
		}
		add(a, b)
		add(b, c)
		add(c, a)
	}
	return nil
}

// accessor returns accessor idx after checking that its buffer view holds
// every element it claims. Sparse-only accessors have no view to check.
func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	acr := doc.Accessors[idx]
	if acr.BufferView == nil || acr.Count == 0 {
		return acr, nil
	}
	if *acr.BufferView < 0 || *acr.BufferView >= len(doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d out of range", *acr.BufferView)
	}
	view := doc.BufferViews[*acr.BufferView]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer %d out of range", view.Buffer)
	}
	elem := gltf.SizeOfElement(acr.ComponentType, acr.Type)
	stride := view.ByteStride
	if stride == 0 {
		stride = elem
	}
	need := acr.ByteOffset + (acr.Count-1)*stride + elem
	if need > view.ByteLength || view.ByteOffset+view.ByteLength > len(doc.Buffers[view.Buffer].Data) {
		return nil, fmt.Errorf("accessor %d needs %d bytes of a %d byte view", idx, need, view.ByteLength)
	}
	return acr, nil
}

func readPositions(doc *gltf.Document, idx int) ([]math3d.Vec3, error) {
	acr, err := accessor(doc, idx)
	if err != nil {
		return nil, err
	}
	raw, err := modeler.ReadPosition(doc, acr, nil)
	if err != nil {
		return nil, err
	}
	positions := make([]math3d.Vec3, len(raw))
	for i, p := range raw {
		positions[i] = math3d.V3(float64(p[0]), float64(p[1]), float64(p[2]))
	}
	return positions, nil
}

func readIndices(doc *gltf.Document, idx int) ([]int, error) {
	acr, err := accessor(doc, idx)
	if err != nil {
		return nil, err
	}
	raw, err := modeler.ReadIndices(doc, acr, nil)
	if err != nil {
		return nil, err
	}
	indices := make([]int, len(raw))
	for i, v := range raw {
		indices[i] = int(v)
	}
	return indices, nil
}
