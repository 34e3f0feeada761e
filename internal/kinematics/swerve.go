// Package kinematics forward-integrates swerve wheel motion into a
// Pose2 delta, the measurement the smoother's odometry between-factor
// consumes (spec.md §4.G.1).
package kinematics

import (
	"github.com/chewxy/math32"
	"github.com/itohio/fieldvision/internal/geometry"
)

const twistEps = 1e-9

// ModulePosition is one swerve module's (distance, steering-angle) pair
// at an instant, matching spec.md §3's SwerveModulePositions.
type ModulePosition struct {
	DistanceM float32
	AngleRad  float32
}

// SwerveModulePositions is the four-module snapshot spec.md §3 names.
type SwerveModulePositions [4]ModulePosition

// ModuleLocation is a module's fixed (x, y) offset from the robot
// center, robot frame, metres.
type ModuleLocation struct {
	X, Y float32
}

// Geometry is the fixed module-location layout a drivetrain is built
// with — front-left, front-right, rear-left, rear-right, matching the
// ordering spec.md's SwerveModulePositions uses.
type Geometry [4]ModuleLocation

// Twist is a body-frame velocity/angular-rate estimate in the interval
// between two module-position snapshots.
type Twist struct {
	DX, DY, DTheta float32
}

// Solve recovers the chassis twist implied by the wheel distance deltas
// between two module-position snapshots, via an unweighted least-squares
// fit over the four modules' displacement vectors (each module's
// distance delta along its heading). This
// generalises
// pkg/core/math/control/kinematics/wheels/internal/rigid.SolveTwist's
// 2-unknown (v, omega) car-like fit to the full 3-unknown (dx, dy,
// dtheta) swerve case, since each module here steers independently
// rather than sharing inner/outer Ackermann angles.
func (g Geometry) Solve(t0, t1 SwerveModulePositions) Twist {
	var (
		ata [3][3]float32
		atb [3]float32
	)
	for i := 0; i < 4; i++ {
		d := t1[i].DistanceM - t0[i].DistanceM
		// Use the midpoint heading of the two snapshots: the module may
		// have rotated in place while travelling this distance.
		heading := midAngle(t0[i].AngleRad, t1[i].AngleRad)
		c, s := math32.Cos(heading), math32.Sin(heading)
		p := g[i]
		// A chassis twist (dx, dy, dtheta) moves this module by
		// (dx - dtheta*p.Y, dy + dtheta*p.X); the module reports that
		// displacement as (d*c, d*s).
		rows := [2][3]float32{{1, 0, -p.Y}, {0, 1, p.X}}
		obs := [2]float32{d * c, d * s}
		for k, row := range rows {
			for r := 0; r < 3; r++ {
				for cIdx := 0; cIdx < 3; cIdx++ {
					ata[r][cIdx] += row[r] * row[cIdx]
				}
				atb[r] += row[r] * obs[k]
			}
		}
	}
	x, ok := solve3(ata, atb)
	if !ok {
		return Twist{}
	}
	return Twist{DX: x[0], DY: x[1], DTheta: x[2]}
}

// midAngle averages two angles on the circle, choosing the shorter arc.
func midAngle(a, b float32) float32 {
	d := b - a
	for d > math32.Pi {
		d -= 2 * math32.Pi
	}
	for d < -math32.Pi {
		d += 2 * math32.Pi
	}
	return a + d/2
}

// solve3 solves a 3x3 symmetric linear system via Cramer's rule; this
// system is small and fixed-size, so a closed-form solve avoids the
// overhead of a general matrix library for every odometry tick (the
// smoother itself, which deals with O(100) variables, is where
// gonum/mat's solver earns its keep — see internal/smoother).
func solve3(a [3][3]float32, b [3]float32) ([3]float32, bool) {
	det := det3(a)
	if math32.Abs(det) < twistEps {
		return [3]float32{}, false
	}
	var x [3]float32
	for col := 0; col < 3; col++ {
		m := a
		for row := 0; row < 3; row++ {
			m[row][col] = b[row]
		}
		x[col] = det3(m) / det
	}
	return x, true
}

func det3(m [3][3]float32) float32 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// ToPoseDelta exponentiates a body-frame twist into an SE(2) pose delta
// (WPILib's Pose2d.exp / Twist2d convention): for small dtheta this is
// just (dx, dy, dtheta); for larger rotation the translation is curved
// along the constant-curvature arc the twist implies.
func (t Twist) ToPoseDelta() (dx, dy, dtheta float32) {
	dtheta = t.DTheta
	if math32.Abs(dtheta) < 1e-9 {
		return t.DX, t.DY, dtheta
	}
	s := math32.Sin(dtheta) / dtheta
	c := (1 - math32.Cos(dtheta)) / dtheta
	return t.DX*s - t.DY*c, t.DX*c + t.DY*s, dtheta
}

// OdometryPoseDelta computes the Pose2 delta the odometry between-
// factor measures (spec.md §4.G's "odometry(...)" operation): the
// chassis twist between two module-position snapshots, exponentiated
// into SE(2).
func (g Geometry) OdometryPoseDelta(t0, t1 SwerveModulePositions) geometry.Pose2 {
	twist := g.Solve(t0, t1)
	dx, dy, dtheta := twist.ToPoseDelta()
	return geometry.Pose2{X: dx, Y: dy, Theta: dtheta}
}

// StandardGeometry is a typical square-ish swerve chassis layout used
// by default when no robot-specific geometry is configured, front-left,
// front-right, rear-left, rear-right.
func StandardGeometry(halfWheelbase, halfTrack float32) Geometry {
	return Geometry{
		{X: halfWheelbase, Y: halfTrack},
		{X: halfWheelbase, Y: -halfTrack},
		{X: -halfWheelbase, Y: halfTrack},
		{X: -halfWheelbase, Y: -halfTrack},
	}
}
