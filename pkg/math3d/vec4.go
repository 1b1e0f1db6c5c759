package math3d

// Vec4 is a homogeneous coordinate, as produced by a projection matrix.
type Vec4 struct {
	X, Y, Z, W float64
}

// V4FromV3 lifts v with the given w: 1 for points, 0 for directions.
func V4FromV3(v Vec3, w float64) Vec4 {
	return Vec4{v.X, v.Y, v.Z, w}
}

// PerspectiveDivide maps a clip-space point to normalized device
// coordinates. A zero w is left undivided.
func (v Vec4) PerspectiveDivide() Vec3 {
	if v.W == 0 {
		return Vec3{v.X, v.Y, v.Z}
	}
	return Vec3{v.X / v.W, v.Y / v.W, v.Z / v.W}
}
