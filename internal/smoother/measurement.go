package smoother

import (
	"github.com/itohio/fieldvision/internal/camera"
	"github.com/itohio/fieldvision/internal/geometry"
)

// Measurement is the closed tagged-variant sum type spec.md §3 names:
// {OdometryDelta, GyroDelta, AccelTriple, TagPixel}. The unexported
// method seals the set so no caller-defined variant can reach Post.
type Measurement interface {
	isMeasurement()
}

// OdometryDelta is the wheel-odometry between-measurement: the Pose2
// delta already forward-integrated from two swerve module-position
// snapshots (internal/kinematics.Geometry.OdometryPoseDelta).
type OdometryDelta struct {
	T0Us, T1Us int64
	Delta      geometry.Pose2
}

func (OdometryDelta) isMeasurement() {}

// GyroDelta is the integrated-rate-gyro heading change between two
// timestamps.
type GyroDelta struct {
	T0Us, T1Us int64
	DeltaTheta float32
}

func (GyroDelta) isMeasurement() {}

// AccelTriple is a body-frame accelerometer reading at the middle of
// three consecutive state timestamps.
type AccelTriple struct {
	T0Us, T1Us, T2Us int64
	AX, AY           float32
}

func (AccelTriple) isMeasurement() {}

// TagPixel is a single detected tag pixel observation: landmark-id,
// observed pixel, sensor-time, and the observing camera's fixed
// extrinsic/calibration.
type TagPixel struct {
	LandmarkID      int
	PX, PY          float32
	TUs             int64
	CameraExtrinsic geometry.Transform3
	Calib           camera.Calibration
}

func (TagPixel) isMeasurement() {}
