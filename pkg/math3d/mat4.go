package math3d

import "math"

// Mat4 is a 4x4 matrix in column-major order, the layout glTF node matrices
// use. Element (row r, column c) is m[c*4+r]:
//
//	| 0  4  8  12 |
//	| 1  5  9  13 |
//	| 2  6  10 14 |
//	| 3  7  11 15 |
//
// Columns 0-2 of a transform are the scaled basis axes, column 3 the
// translation.
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translate returns a translation by v.
func Translate(v Vec3) Mat4 {
	m := Identity()
	m.SetTranslation(v)
	return m
}

// Scale returns a per-axis scale by v.
func Scale(v Vec3) Mat4 {
	return Mat4{
		v.X, 0, 0, 0,
		0, v.Y, 0, 0,
		0, 0, v.Z, 0,
		0, 0, 0, 1,
	}
}

// TRS returns T * R * S for a pose and a per-axis scale, the order glTF
// composes node transforms in.
func TRS(p Pose, scale Vec3) Mat4 {
	m := p.Orientation.Mat4()
	for c, s := range [3]float64{scale.X, scale.Y, scale.Z} {
		for r := range 3 {
			m[c*4+r] *= s
		}
	}
	m.SetTranslation(p.Position)
	return m
}

// Perspective returns an OpenGL-style projection looking down -Z. fovy is
// the vertical field of view in radians, aspect is width/height.
func Perspective(fovy, aspect, near, far float64) Mat4 {
	f := 1.0 / math.Tan(fovy/2)
	nf := 1.0 / (near - far)

	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, -1,
		0, 0, 2 * far * near * nf, 0,
	}
}

// Mul returns a * b.
func (a Mat4) Mul(b Mat4) Mat4 {
	var m Mat4
	for col := range 4 {
		for row := range 4 {
			var sum float64
			for k := range 4 {
				sum += a[row+k*4] * b[k+col*4]
			}
			m[row+col*4] = sum
		}
	}
	return m
}

// MulVec3 transforms v as a point (w=1), dividing by the resulting w.
func (m Mat4) MulVec3(v Vec3) Vec3 {
	w := m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]
	if w == 0 {
		w = 1
	}
	return Vec3{
		(m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]) / w,
		(m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]) / w,
		(m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]) / w,
	}
}

// MulVec3Dir transforms v as a direction (w=0).
func (m Mat4) MulVec3Dir(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z,
	}
}

// MulVec4 transforms a homogeneous vector, e.g. a point into clip space.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// Column returns the upper three rows of column c.
func (m Mat4) Column(c int) Vec3 {
	return Vec3{m[c*4], m[c*4+1], m[c*4+2]}
}

// Translation returns column 3.
func (m Mat4) Translation() Vec3 {
	return m.Column(3)
}

// SetTranslation overwrites column 3.
func (m *Mat4) SetTranslation(v Vec3) {
	m[12] = v.X
	m[13] = v.Y
	m[14] = v.Z
}

// Decompose splits an affine T * R * S matrix into a pose and a scale. A
// mirrored basis is reported as a negative X scale. Shear is not recovered.
func (m Mat4) Decompose() (Pose, Vec3) {
	x, y, z := m.Column(0), m.Column(1), m.Column(2)
	scale := Vec3{x.Len(), y.Len(), z.Len()}
	if x.Cross(y).Dot(z) < 0 {
		scale.X = -scale.X
	}

	rot := m
	for c, s := range [3]float64{scale.X, scale.Y, scale.Z} {
		if s == 0 {
			continue
		}
		for r := range 3 {
			rot[c*4+r] /= s
		}
	}
	return Pose{
		Position:    m.Translation(),
		Orientation: QuatFromMat4(rot),
	}, scale
}
