package factors

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/itohio/fieldvision/internal/geometry"
)

func TestAccelFactorZeroForConstantAcceleration(t *testing.T) {
	// Straight-line motion along x at constant acceleration a, sampled
	// at 20 ms steps starting from rest: x(t) = 0.5*a*t^2.
	const a = float32(1.0)
	const dt = float32(0.02)

	x := func(t float32) float32 { return 0.5 * a * t * t }

	p0 := geometry.Pose2{X: x(0)}
	p1 := geometry.Pose2{X: x(dt)}
	p2 := geometry.Pose2{X: x(2 * dt)}

	f := NewAccelFactor(0, 1, 2, 0, int64(dt*1e6), int64(2*dt*1e6), a, 0)
	residual, jacs := f.Evaluate(map[int64]geometry.Pose2{0: p0, 1: p1, 2: p2})

	require.InDelta(t, 0, residual[0], 1e-2)
	require.InDelta(t, 0, residual[1], 1e-2)
	require.Contains(t, jacs, int64(0))
	require.Contains(t, jacs, int64(1))
	require.Contains(t, jacs, int64(2))
}

func TestAccelFactorNonzeroWhenInconsistent(t *testing.T) {
	f := NewAccelFactor(0, 1, 2, 0, 20_000, 40_000, 1.0, 0)
	p0 := geometry.Pose2{X: 0}
	p1 := geometry.Pose2{X: 0}
	p2 := geometry.Pose2{X: 0} // no motion at all, but a=1 m/s^2 claimed

	residual, _ := f.Evaluate(map[int64]geometry.Pose2{0: p0, 1: p1, 2: p2})
	require.NotEqual(t, float32(0), residual[0])
}
