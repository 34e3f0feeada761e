package factors

import (
	"github.com/itohio/fieldvision/internal/camera"
	"github.com/itohio/fieldvision/internal/geometry"
)

// apriltagSigmaPx is the bearing factor's pixel-noise sigma: loose
// enough to tolerate corner-detection jitter, tight enough that a
// handful of tags dominate odometry drift over a long window
// (spec.md §4.H.4).
const apriltagSigmaPx = 2.0

// minProjectDepth floors the camera-frame depth used during residual
// evaluation so the projection stays finite and differentiable even
// when a perturbed pose briefly puts the tag behind the camera plane.
const minProjectDepth = 1e-3

// aprilTagFactor is the unary bearing-only projection factor: it
// constrains the robot pose at one key against a single detected tag
// corner's pixel location, given the tag's known field pose and the
// camera's fixed extrinsic/intrinsic calibration (spec.md §4.H.4).
// Unlike OdometryFactor/GyroFactor it creates no new landmark variable,
// per spec.md's explicit non-goal against landmark creation: the tag's
// world pose is a constant, not a graph variable.
type aprilTagFactor struct {
	key             int64
	observedX       float32
	observedY       float32
	landmarkField   geometry.Vector3
	cameraExtrinsic geometry.Transform3
	calib           camera.Calibration
}

// NewAprilTagFactor builds the bearing factor for one detected corner
// or center pixel of a known landmark, observed from the named robot
// pose key.
func NewAprilTagFactor(key int64, observedX, observedY float32, landmarkField geometry.Vector3, cameraExtrinsic geometry.Transform3, calib camera.Calibration) Factor {
	return &aprilTagFactor{
		key:             key,
		observedX:       observedX,
		observedY:       observedY,
		landmarkField:   landmarkField,
		cameraExtrinsic: cameraExtrinsic,
		calib:           calib,
	}
}

func (f *aprilTagFactor) Keys() []int64 { return []int64{f.key} }
func (f *aprilTagFactor) Dim() int      { return 2 }

// liftToSE3 embeds a planar robot pose into SE(3) at z=0, the same
// convention internal/geometry.Transform3.ToPose2 discards on the way
// in.
func liftToSE3(p geometry.Pose2) geometry.Transform3 {
	return geometry.Transform3{
		Rotation:    geometry.RotationZ(p.Theta),
		Translation: geometry.Vector3{X: p.X, Y: p.Y, Z: 0},
	}
}

func (f *aprilTagFactor) project(pose geometry.Pose2) (float32, float32) {
	fieldToRobot := liftToSE3(pose)
	fieldToCam := fieldToRobot.Compose(f.cameraExtrinsic)
	camPoint := fieldToCam.Inverse().Apply(f.landmarkField)

	z := camPoint.Z
	if z < minProjectDepth {
		z = minProjectDepth
	}
	px := f.calib.Intrinsic[0][0]*(camPoint.X/z) + f.calib.Intrinsic[0][2]
	py := f.calib.Intrinsic[1][1]*(camPoint.Y/z) + f.calib.Intrinsic[1][2]
	return px, py
}

func (f *aprilTagFactor) residualAt(pose geometry.Pose2) []float32 {
	px, py := f.project(pose)
	return []float32{f.observedX - px, f.observedY - py}
}

func (f *aprilTagFactor) Evaluate(values map[int64]geometry.Pose2) ([]float32, map[int64][]float32) {
	pose := values[f.key]
	residual := f.residualAt(pose)
	j := numericalPoseJacobian(f.residualAt, pose, 2)

	weight := float32(1) / apriltagSigmaPx
	whitenedRes := []float32{residual[0] * weight, residual[1] * weight}
	whitenedJ := make([]float32, len(j))
	for i := range j {
		whitenedJ[i] = j[i] * weight
	}

	return whitenedRes, map[int64][]float32{f.key: whitenedJ}
}
