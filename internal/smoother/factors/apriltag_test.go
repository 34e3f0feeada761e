package factors

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/itohio/fieldvision/internal/camera"
	"github.com/itohio/fieldvision/internal/geometry"
)

func testCalib() camera.Calibration {
	return camera.Calibration{
		Intrinsic: [3][3]float32{
			{600, 0, 320},
			{0, 600, 240},
			{0, 0, 1},
		},
	}
}

func TestAprilTagFactorZeroAtTruePose(t *testing.T) {
	cal := testCalib()
	extrinsic := geometry.Identity3Transform()
	landmark := geometry.Vector3{X: 0, Y: 0, Z: 3}

	pose := geometry.Pose2{} // robot at origin, facing +x
	f := NewAprilTagFactor(42, 320, 240, landmark, extrinsic, cal)

	residual, jacs := f.Evaluate(map[int64]geometry.Pose2{42: pose})
	require.InDelta(t, 0, residual[0], 1e-3)
	require.InDelta(t, 0, residual[1], 1e-3)
	require.Len(t, jacs[42], 6)
}

func TestAprilTagFactorNonzeroWhenOffset(t *testing.T) {
	cal := testCalib()
	extrinsic := geometry.Identity3Transform()
	landmark := geometry.Vector3{X: 0, Y: 0, Z: 3}

	pose := geometry.Pose2{X: 0.5} // moved sideways, off the tag's line of sight
	f := NewAprilTagFactor(1, 320, 240, landmark, extrinsic, cal)

	residual, _ := f.Evaluate(map[int64]geometry.Pose2{1: pose})
	require.NotEqual(t, float32(0), residual[0])
}
