package geometry

import "github.com/chewxy/math32"

// Vector3 is a plain 3-D translation, used only at the SE(3) boundary
// (camera extrinsics, tag world poses, per-tag detections).
type Vector3 struct {
	X, Y, Z float32
}

func (v Vector3) Add(o Vector3) Vector3 { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vector3) Sub(o Vector3) Vector3 { return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Rotation3 is a 3x3 rotation matrix, row-major.
type Rotation3 [3][3]float32

// Identity3 is the identity rotation.
func Identity3() Rotation3 {
	return Rotation3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// RotationZ builds a rotation about the Z (yaw) axis.
func RotationZ(theta float32) Rotation3 {
	s, c := math32.Sin(theta), math32.Cos(theta)
	return Rotation3{
		{c, -s, 0},
		{s, c, 0},
		{0, 0, 1},
	}
}

// Apply rotates v by r.
func (r Rotation3) Apply(v Vector3) Vector3 {
	return Vector3{
		X: r[0][0]*v.X + r[0][1]*v.Y + r[0][2]*v.Z,
		Y: r[1][0]*v.X + r[1][1]*v.Y + r[1][2]*v.Z,
		Z: r[2][0]*v.X + r[2][1]*v.Y + r[2][2]*v.Z,
	}
}

// Transpose returns r^T, which for an orthonormal rotation matrix is
// also r^-1.
func (r Rotation3) Transpose() Rotation3 {
	var out Rotation3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = r[j][i]
		}
	}
	return out
}

// Mul composes two rotations: (r * o).Apply(v) == r.Apply(o.Apply(v)).
func (r Rotation3) Mul(o Rotation3) Rotation3 {
	var out Rotation3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float32
			for k := 0; k < 3; k++ {
				sum += r[i][k] * o[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// Transform3 is an SE(3) rigid transform, used only at the boundary:
// camera extrinsics (robot -> camera), per-tag detections
// (camera -> tag) and the static field map's tag world poses
// (field -> tag).
type Transform3 struct {
	Rotation    Rotation3
	Translation Vector3
}

// Identity3Transform is the identity SE(3) transform.
func Identity3Transform() Transform3 {
	return Transform3{Rotation: Identity3()}
}

// Apply maps a point expressed in t's local frame into the frame t is
// expressed in: p_out = t.Rotation * p_in + t.Translation.
func (t Transform3) Apply(p Vector3) Vector3 {
	return t.Rotation.Apply(p).Add(t.Translation)
}

// Inverse returns t^-1.
func (t Transform3) Inverse() Transform3 {
	rInv := t.Rotation.Transpose()
	return Transform3{
		Rotation:    rInv,
		Translation: Vector3{}.Sub(rInv.Apply(t.Translation)),
	}
}

// Compose returns t * o: applying the result to a point is the same as
// applying o then t.
func (t Transform3) Compose(o Transform3) Transform3 {
	return Transform3{
		Rotation:    t.Rotation.Mul(o.Rotation),
		Translation: t.Rotation.Apply(o.Translation).Add(t.Translation),
	}
}

// ToPose2 projects an SE(3) transform down onto the field plane,
// discarding height and out-of-plane rotation. This is the only place
// an SE(3) value crosses into the smoother's SE(2) state space, per
// spec.md §3 ("internally converted to 2-D when entering the
// smoother").
func (t Transform3) ToPose2() Pose2 {
	// Yaw extracted from the rotation matrix's first column.
	theta := math32.Atan2(t.Rotation[1][0], t.Rotation[0][0])
	return Pose2{X: t.Translation.X, Y: t.Translation.Y, Theta: theta}
}
