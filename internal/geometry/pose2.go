// Package geometry holds the SE(2)/SE(3) primitives the smoother and
// vision pipeline share: Pose2 for in-graph state, Transform3/Rotation3
// for the camera-extrinsic/tag-pose boundary.
package geometry

import "github.com/chewxy/math32"

// Pose2 is a field-frame SE(2) pose: x-forward, y-left,
// theta counter-clockwise-positive (the WPI convention spec.md §3
// names). It is the smoother's state-variable type.
type Pose2 struct {
	X, Y, Theta float32
}

// Tangent is the canonical (dx, dy, dtheta) tangent vector at a Pose2,
// used by Retract/Local.
type Tangent struct {
	DX, DY, DTheta float32
}

func wrapAngle(a float32) float32 {
	for a > math32.Pi {
		a -= 2 * math32.Pi
	}
	for a < -math32.Pi {
		a += 2 * math32.Pi
	}
	return a
}

// Compose returns p * q, composing two SE(2) transforms (q expressed in
// p's frame).
func (p Pose2) Compose(q Pose2) Pose2 {
	s, c := math32.Sin(p.Theta), math32.Cos(p.Theta)
	return Pose2{
		X:     p.X + c*q.X - s*q.Y,
		Y:     p.Y + s*q.X + c*q.Y,
		Theta: wrapAngle(p.Theta + q.Theta),
	}
}

// Inverse returns p^-1.
func (p Pose2) Inverse() Pose2 {
	s, c := math32.Sin(p.Theta), math32.Cos(p.Theta)
	return Pose2{
		X:     -c*p.X - s*p.Y,
		Y:     s*p.X - c*p.Y,
		Theta: wrapAngle(-p.Theta),
	}
}

// Between returns p^-1 * q, the delta that carries p to q expressed in
// p's frame. This is the measurement space for between-factors
// (odometry, gyro).
func (p Pose2) Between(q Pose2) Pose2 {
	return p.Inverse().Compose(q)
}

// Retract applies a tangent-space perturbation to p, returning the
// manifold point p (+) delta. Matches GTSAM's Pose2.retract semantics
// used in original_source's numerical_derivative.py.
func (p Pose2) Retract(delta Tangent) Pose2 {
	return p.Compose(Pose2{X: delta.DX, Y: delta.DY, Theta: delta.DTheta})
}

// Local returns the tangent vector that retracts p to q: the inverse of
// Retract. Matches GTSAM's Pose2.localCoordinates.
func (p Pose2) Local(q Pose2) Tangent {
	d := p.Between(q)
	return Tangent{DX: d.X, DY: d.Y, DTheta: d.Theta}
}

// TransformPoint rotates+translates a point from p's local frame into
// the frame p is expressed in.
func (p Pose2) TransformPoint(x, y float32) (float32, float32) {
	s, c := math32.Sin(p.Theta), math32.Cos(p.Theta)
	return p.X + c*x - s*y, p.Y + s*x + c*y
}

// InverseTransformPoint maps a point expressed in p's outer frame into
// p's local frame.
func (p Pose2) InverseTransformPoint(x, y float32) (float32, float32) {
	dx, dy := x-p.X, y-p.Y
	s, c := math32.Sin(p.Theta), math32.Cos(p.Theta)
	return c*dx + s*dy, -s*dx + c*dy
}
