package math3d

// Pose is a rigid-body transform: a position plus an orientation.
//
// Axes follow the right-handed convention of Perspective and glTF:
// +X is right, +Y is up and the pose looks down -Z.
type Pose struct {
	Position    Vec3
	Orientation Quat
}

// IdentityPose returns a pose at the origin with no rotation.
func IdentityPose() Pose {
	return Pose{Orientation: QuatIdentity()}
}

// Right returns the pose's local +X axis in world space.
func (p Pose) Right() Vec3 {
	return p.Orientation.Rotate(Vec3{1, 0, 0})
}

// Up returns the pose's local +Y axis in world space.
func (p Pose) Up() Vec3 {
	return p.Orientation.Rotate(Vec3{0, 1, 0})
}

// Forward returns the pose's viewing direction (local -Z) in world space.
func (p Pose) Forward() Vec3 {
	return p.Orientation.Rotate(Vec3{0, 0, -1})
}

// Matrix returns the local-to-world transform T * R.
func (p Pose) Matrix() Mat4 {
	m := p.Orientation.Mat4()
	m.SetTranslation(p.Position)
	return m
}

// ViewMatrix returns the world-to-local transform, the inverse of Matrix.
// Since the pose is rigid this is R^T * T(-position), no general inverse needed.
func (p Pose) ViewMatrix() Mat4 {
	inv := p.Orientation.Conjugate()
	m := inv.Mat4()
	m.SetTranslation(inv.Rotate(p.Position.Negate()))
	return m
}

// Transform maps a point from pose-local space into world space.
func (p Pose) Transform(v Vec3) Vec3 {
	return p.Orientation.Rotate(v).Add(p.Position)
}

// Then returns the pose obtained by placing child inside p, as a scene
// hierarchy does: the child's position is rotated and offset by p and the
// orientations compose.
func (p Pose) Then(child Pose) Pose {
	return Pose{
		Position:    p.Transform(child.Position),
		Orientation: Compose(p.Orientation, child.Orientation),
	}
}
