package factors

import "github.com/itohio/fieldvision/internal/geometry"

// odometrySigmaXY and odometrySigmaTheta are the per-tick noise sigmas
// spec.md §4.H.1 assigns to the wheel-odometry between-factor: tight
// enough to dominate short-term but not so tight it overrides the
// camera over a long window.
const (
	odometrySigmaXY    = 0.01
	odometrySigmaTheta = 0.01
)

// NewOdometryFactor builds the between-factor constraining key1's pose
// relative to key0 to the measured chassis-twist delta (spec.md
// §4.H.1). measured is produced upstream by
// internal/kinematics.Geometry.OdometryPoseDelta.
func NewOdometryFactor(key0, key1 int64, measured geometry.Pose2) Factor {
	return &betweenFactor{
		key0:     key0,
		key1:     key1,
		measured: measured,
		weight: Weight3{
			WX:     1 / odometrySigmaXY,
			WY:     1 / odometrySigmaXY,
			WTheta: 1 / odometrySigmaTheta,
		},
	}
}
