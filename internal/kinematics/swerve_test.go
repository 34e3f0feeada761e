package kinematics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func square() Geometry {
	return StandardGeometry(0.3, 0.3)
}

func TestOdometryStraightLine(t *testing.T) {
	g := square()
	t0 := SwerveModulePositions{
		{DistanceM: 0, AngleRad: 0},
		{DistanceM: 0, AngleRad: 0},
		{DistanceM: 0, AngleRad: 0},
		{DistanceM: 0, AngleRad: 0},
	}
	t1 := SwerveModulePositions{
		{DistanceM: 1, AngleRad: 0},
		{DistanceM: 1, AngleRad: 0},
		{DistanceM: 1, AngleRad: 0},
		{DistanceM: 1, AngleRad: 0},
	}
	delta := g.OdometryPoseDelta(t0, t1)
	require.InDelta(t, 1.0, delta.X, 1e-4)
	require.InDelta(t, 0.0, delta.Y, 1e-4)
	require.InDelta(t, 0.0, delta.Theta, 1e-4)
}

func TestOdometryStrafe(t *testing.T) {
	g := square()
	t0 := SwerveModulePositions{{}, {}, {}, {}}
	t1 := SwerveModulePositions{
		{DistanceM: 1, AngleRad: 1.5707963},
		{DistanceM: 1, AngleRad: 1.5707963},
		{DistanceM: 1, AngleRad: 1.5707963},
		{DistanceM: 1, AngleRad: 1.5707963},
	}
	delta := g.OdometryPoseDelta(t0, t1)
	require.InDelta(t, 0.0, delta.X, 1e-3)
	require.InDelta(t, 1.0, delta.Y, 1e-3)
}

func TestOdometryRotateInPlace(t *testing.T) {
	// Each module points perpendicular to its radius vector so the
	// robot spins in place; for a square chassis that steering angle
	// is 45 degrees + 90 at each corner. Use the simpler check: with
	// all wheels commanded to zero distance, there should be no
	// motion at all, regardless of angle.
	g := square()
	t0 := SwerveModulePositions{
		{DistanceM: 0, AngleRad: 0.78},
		{DistanceM: 0, AngleRad: 2.36},
		{DistanceM: 0, AngleRad: -0.78},
		{DistanceM: 0, AngleRad: -2.36},
	}
	t1 := t0
	delta := g.OdometryPoseDelta(t0, t1)
	require.InDelta(t, 0.0, delta.X, 1e-6)
	require.InDelta(t, 0.0, delta.Y, 1e-6)
	require.InDelta(t, 0.0, delta.Theta, 1e-6)
}
