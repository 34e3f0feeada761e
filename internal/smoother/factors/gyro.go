package factors

import "github.com/itohio/fieldvision/internal/geometry"

// gyroSigmaTheta is the gyro between-factor's heading noise, an order
// of magnitude tighter than odometry's since the integrated rate gyro
// has no wheel-slip failure mode (spec.md §4.H.2).
const gyroSigmaTheta = 1e-3

// NewGyroFactor builds a between-factor constraining only the heading
// delta between key0 and key1 to a measured yaw change; x and y are
// left with zero weight, i.e. unconstrained (spec.md §4.H.2:
// "noise on the translation terms is effectively infinite").
func NewGyroFactor(key0, key1 int64, deltaTheta float32) Factor {
	return &betweenFactor{
		key0:     key0,
		key1:     key1,
		measured: geometry.Pose2{Theta: deltaTheta},
		weight:   Weight3{WX: 0, WY: 0, WTheta: 1 / gyroSigmaTheta},
	}
}
