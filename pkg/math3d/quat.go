package math3d

import (
	"errors"
	"math"
)

// AxisTolerance is how far an axis length may stray from 1 before
// FromAxisAngle rejects it.
const AxisTolerance = 1e-6

var (
	// ErrInvalidAxis is returned when a rotation axis is zero, not finite,
	// or not unit length.
	ErrInvalidAxis = errors.New("math3d: rotation axis must be a unit vector")

	// ErrInvalidAngle is returned when a rotation angle is NaN or infinite.
	ErrInvalidAngle = errors.New("math3d: rotation angle must be finite")
)

// Quat is a rotation quaternion. X, Y, Z hold the vector part and W the
// scalar part. Rotations built by this package are unit length.
type Quat struct {
	X, Y, Z, W float64
}

// QuatIdentity returns the rotation that leaves every vector unchanged.
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// FromAxisAngle builds the rotation of angle radians around axis.
// The axis is not normalized for the caller: a zero or non-unit axis is
// reported as ErrInvalidAxis so the upstream bug stays visible.
func FromAxisAngle(axis Vec3, angle float64) (Quat, error) {
	if !axis.IsFinite() {
		return Quat{}, ErrInvalidAxis
	}
	if math.Abs(axis.Len()-1) > AxisTolerance {
		return Quat{}, ErrInvalidAxis
	}
	if !isFinite(angle) {
		return Quat{}, ErrInvalidAngle
	}

	s, c := math.Sincos(angle / 2)
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: c,
	}, nil
}

// Compose returns the rotation that applies a and then b in the frame
// established by a, i.e. the product a * b. It is associative but not
// commutative. The result is renormalized so that composing once per frame
// never drifts away from unit length.
func Compose(a, b Quat) Quat {
	return a.Mul(b).Normalize()
}

// Mul returns the Hamilton product q * r.
func (q Quat) Mul(r Quat) Quat {
	return Quat{
		X: q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		Y: q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		Z: q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
	}
}

// Conjugate returns the conjugate, which is the inverse of a unit rotation.
func (q Quat) Conjugate() Quat {
	return Quat{-q.X, -q.Y, -q.Z, q.W}
}

// Len returns the quaternion norm.
func (q Quat) Len() float64 {
	return math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// Normalize returns q scaled to unit length.
// The zero quaternion normalizes to the identity.
func (q Quat) Normalize() Quat {
	l := q.Len()
	if l == 0 {
		return QuatIdentity()
	}
	return Quat{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	// v' = v + w*t + u×t with t = 2(u×v), u the vector part.
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// ApproxEqual reports whether q and r describe the same orientation within
// eps per component. q and -q are the same rotation.
func (q Quat) ApproxEqual(r Quat, eps float64) bool {
	same := math.Abs(q.X-r.X) <= eps && math.Abs(q.Y-r.Y) <= eps &&
		math.Abs(q.Z-r.Z) <= eps && math.Abs(q.W-r.W) <= eps
	if same {
		return true
	}
	return math.Abs(q.X+r.X) <= eps && math.Abs(q.Y+r.Y) <= eps &&
		math.Abs(q.Z+r.Z) <= eps && math.Abs(q.W+r.W) <= eps
}

// IsFinite reports whether no component is NaN or infinite.
func (q Quat) IsFinite() bool {
	return isFinite(q.X) && isFinite(q.Y) && isFinite(q.Z) && isFinite(q.W)
}

// Mat4 returns the rotation as a column-major matrix.
func (q Quat) Mat4() Mat4 {
	x, y, z, w := q.X, q.Y, q.Z, q.W
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy), 0,
		2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx), 0,
		2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// QuatFromMat4 returns the rotation held in the upper 3x3 of m. The basis
// columns must be orthonormal; scale has to be divided out first.
func QuatFromMat4(m Mat4) Quat {
	// Row r, column c is m[c*4+r].
	m00, m11, m22 := m[0], m[5], m[10]
	var q Quat
	switch trace := m00 + m11 + m22; {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = Quat{
			X: (m[6] - m[9]) * s,
			Y: (m[8] - m[2]) * s,
			Z: (m[1] - m[4]) * s,
			W: 0.25 / s,
		}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = Quat{
			X: 0.25 * s,
			Y: (m[4] + m[1]) / s,
			Z: (m[8] + m[2]) / s,
			W: (m[6] - m[9]) / s,
		}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = Quat{
			X: (m[4] + m[1]) / s,
			Y: 0.25 * s,
			Z: (m[9] + m[6]) / s,
			W: (m[8] - m[2]) / s,
		}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = Quat{
			X: (m[8] + m[2]) / s,
			Y: (m[9] + m[6]) / s,
			Z: 0.25 * s,
			W: (m[1] - m[4]) / s,
		}
	}
	return q.Normalize()
}
