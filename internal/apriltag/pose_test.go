package apriltag

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/itohio/fieldvision/internal/camera"
	"github.com/stretchr/testify/require"
)

func testCalibration() camera.Calibration {
	return camera.Calibration{
		Intrinsic: [3][3]float32{
			{600, 0, 320},
			{0, 600, 240},
			{0, 0, 1},
		},
	}
}

// buildSyntheticDetection constructs a homography and pixel corners
// for a tag rotated by thetaY about the camera-frame Y axis and
// translated by t, with zero lens distortion, so the recovered pose can
// be checked against ground truth exactly.
func buildSyntheticDetection(thetaY float32, t [3]float32, cal camera.Calibration) ([3][3]float32, [8]float32) {
	c, s := math32.Cos(thetaY), math32.Sin(thetaY)
	// Rotation about the camera-frame Y axis, a typical oblique tag view.
	r := [3][3]float32{
		{c, 0, s},
		{0, 1, 0},
		{-s, 0, c},
	}

	fx, fy := cal.Intrinsic[0][0], cal.Intrinsic[1][1]
	cx, cy := cal.Intrinsic[0][2], cal.Intrinsic[1][2]

	col0 := applyRotation(r, [3]float32{1, 0, 0})
	col1 := applyRotation(r, [3]float32{0, 1, 0})

	kCol0 := [3]float32{fx*col0[0] + cx*col0[2], fy*col0[1] + cy*col0[2], col0[2]}
	kCol1 := [3]float32{fx*col1[0] + cx*col1[2], fy*col1[1] + cy*col1[2], col1[2]}
	kT := [3]float32{fx*t[0] + cx*t[2], fy*t[1] + cy*t[2], t[2]}

	h := [3][3]float32{
		{kCol0[0], kCol1[0], kT[0]},
		{kCol0[1], kCol1[1], kT[1]},
		{kCol0[2], kCol1[2], kT[2]},
	}

	corners := tagCorners(TagSizeMeters)
	var pixels [8]float32
	for i, corner := range corners {
		p := applyRotation(r, corner)
		p = [3]float32{p[0] + t[0], p[1] + t[1], p[2] + t[2]}
		pixels[2*i] = fx*(p[0]/p[2]) + cx
		pixels[2*i+1] = fy*(p[1]/p[2]) + cy
	}

	return h, pixels
}

func TestEstimatePoseRecoversFrontalTag(t *testing.T) {
	cal := testCalibration()
	h, pixels := buildSyntheticDetection(0, [3]float32{0, 0, 2}, cal)
	undistorted := undistortCorners(pixels, cal)

	pose := estimatePose(h, undistorted, cal)

	require.InDelta(t, 0, pose.Translation.X, 1e-2)
	require.InDelta(t, 0, pose.Translation.Y, 1e-2)
	require.InDelta(t, 2, pose.Translation.Z, 1e-2)
}

func TestEstimatePoseRecoversTiltedTag(t *testing.T) {
	cal := testCalibration()
	h, pixels := buildSyntheticDetection(0.4, [3]float32{0.3, -0.1, 3}, cal)
	undistorted := undistortCorners(pixels, cal)

	pose := estimatePose(h, undistorted, cal)

	require.InDelta(t, 0.3, pose.Translation.X, 5e-2)
	require.InDelta(t, -0.1, pose.Translation.Y, 5e-2)
	require.InDelta(t, 3, pose.Translation.Z, 5e-2)
}

func TestUndistortPointIdentityWithZeroDistortion(t *testing.T) {
	cal := testCalibration()
	x, y := undistortPoint(320, 240, cal)
	require.InDelta(t, 0, x, 1e-6)
	require.InDelta(t, 0, y, 1e-6)
}
