package factors

import "github.com/itohio/fieldvision/internal/geometry"

// numericalEps is the central-difference step, matching
// original_source's numerical_derivative.py default and ekalman.go's
// numeric-Jacobian step for the same reason: small enough to stay
// linear, large enough to survive float32 cancellation.
const numericalEps = 1e-5

// numericalPoseJacobian differentiates residual with respect to x's
// tangent at the identity perturbation, by symmetric central
// differences along each of the three basis directions — the
// retract/localCoordinates recipe original_source's
// numerical_derivative.py uses for every custom GTSAM factor.
//
// Returns a resDim x 3 row-major block.
func numericalPoseJacobian(residual func(geometry.Pose2) []float32, x geometry.Pose2, resDim int) []float32 {
	out := make([]float32, resDim*3)
	basis := [3]geometry.Tangent{
		{DX: numericalEps},
		{DY: numericalEps},
		{DTheta: numericalEps},
	}
	for col, d := range basis {
		plus := residual(x.Retract(d))
		neg := geometry.Tangent{DX: -d.DX, DY: -d.DY, DTheta: -d.DTheta}
		minus := residual(x.Retract(neg))
		for row := 0; row < resDim; row++ {
			out[row*3+col] = (plus[row] - minus[row]) / (2 * numericalEps)
		}
	}
	return out
}
