package math3d

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestIdentityPoseBasis(t *testing.T) {
	p := IdentityPose()

	if got := p.Forward(); !got.ApproxEqual(V3(0, 0, -1), eps) {
		t.Errorf("Forward = %v, want (0, 0, -1)", got)
	}
	if got := p.Right(); !got.ApproxEqual(V3(1, 0, 0), eps) {
		t.Errorf("Right = %v, want (1, 0, 0)", got)
	}
	if got := p.Up(); !got.ApproxEqual(V3(0, 1, 0), eps) {
		t.Errorf("Up = %v, want (0, 1, 0)", got)
	}
}

func TestPoseBasisIsOrthonormal(t *testing.T) {
	q := Compose(mustAxisAngle(t, WorldUp(), 0.6), mustAxisAngle(t, V3(1, 0, 0), -0.4))
	p := Pose{Position: V3(1, 2, 3), Orientation: q}

	r, u, f := p.Right(), p.Up(), p.Forward()
	for name, v := range map[string]Vec3{"right": r, "up": u, "forward": f} {
		if math.Abs(v.Len()-1) > eps {
			t.Errorf("%s length = %v, want 1", name, v.Len())
		}
	}
	if math.Abs(r.Dot(u)) > eps || math.Abs(r.Dot(f)) > eps || math.Abs(u.Dot(f)) > eps {
		t.Errorf("basis not orthogonal: r=%v u=%v f=%v", r, u, f)
	}
	// Right-handed with forward = -Z: right × up = -forward.
	if got := r.Cross(u); !got.ApproxEqual(f.Negate(), eps) {
		t.Errorf("right × up = %v, want %v", got, f.Negate())
	}
}

func TestPoseViewMatrixInvertsMatrix(t *testing.T) {
	p := Pose{
		Position:    V3(4, -1, 7),
		Orientation: mustAxisAngle(t, V3(1, 1, 1).Normalize(), 1.9),
	}

	m := p.ViewMatrix().Mul(p.Matrix())
	id := Identity()
	for i := range 16 {
		if math.Abs(m[i]-id[i]) > eps {
			t.Fatalf("View * Model [%d] = %v, want %v", i, m[i], id[i])
		}
	}
}

func TestPoseViewMatrixMatchesLookAt(t *testing.T) {
	// Turned 90° left, a pose at (0, 0, 5) looks down -X.
	p := Pose{Position: V3(0, 0, 5), Orientation: mustAxisAngle(t, WorldUp(), math.Pi/2)}
	want := mgl64.LookAtV(mgl64.Vec3{0, 0, 5}, mgl64.Vec3{-1, 0, 5}, mgl64.Vec3{0, 1, 0})

	got := p.ViewMatrix()
	for i := range 16 {
		if math.Abs(got[i]-want[i]) > eps {
			t.Errorf("ViewMatrix()[%d] = %v, mgl64.LookAtV has %v", i, got[i], want[i])
		}
	}
}

func TestPoseThen(t *testing.T) {
	parent := Pose{Position: V3(10, 0, 0), Orientation: mustAxisAngle(t, WorldUp(), math.Pi/2)}
	child := Pose{Position: V3(0, 0, -2), Orientation: QuatIdentity()}

	got := parent.Then(child)
	if !got.Position.ApproxEqual(V3(8, 0, 0), eps) {
		t.Errorf("Position = %v, want (8, 0, 0)", got.Position)
	}
	if !got.Forward().ApproxEqual(V3(-1, 0, 0), eps) {
		t.Errorf("Forward = %v, want (-1, 0, 0)", got.Forward())
	}
}
