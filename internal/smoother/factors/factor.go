// Package factors implements the smoother's measurement factors
// (spec.md §4.H): odometry-delta and gyro-delta between-factors with
// analytic Jacobians, and accelerometer/apriltag factors with
// numerical Jacobians, all operating on the Pose2 manifold's
// retract/local tangent.
package factors

import "github.com/itohio/fieldvision/internal/geometry"

// Factor is one residual term in the graph: a pure function of the
// current estimate at its keys, returning an already-whitened residual
// and its whitened Jacobian with respect to each key's tangent.
// Factors must be re-entrant under read-only smoother access (spec.md
// §4.H: "every factor is pure").
type Factor interface {
	Keys() []int64
	Dim() int
	// Evaluate returns the whitened residual (length Dim()) and, for
	// every key, the whitened Jacobian block (Dim() rows x 3 columns,
	// row-major) of the residual with respect to that key's
	// (dx, dy, dtheta) tangent.
	Evaluate(values map[int64]geometry.Pose2) (residual []float32, jacobians map[int64][]float32)
}

// Weight3 is a diagonal information weight (the reciprocal of each
// tangent component's standard deviation), applied by multiplying the
// corresponding residual row — an exactly-zero weight renders that
// component unconstrained, modelling spec.md §4.H's "noise on
// translation terms is effectively infinite" for the gyro factor.
type Weight3 struct {
	WX, WY, WTheta float32
}

func (w Weight3) apply(t geometry.Tangent) []float32 {
	return []float32{w.WX * t.DX, w.WY * t.DY, w.WTheta * t.DTheta}
}

// scaleRows multiplies each row i of a Dim() x 3 row-major Jacobian
// block by weights[i].
func scaleRows(j []float32, weights []float32) []float32 {
	out := make([]float32, len(j))
	cols := len(j) / len(weights)
	for i, w := range weights {
		for c := 0; c < cols; c++ {
			out[i*cols+c] = j[i*cols+c] * w
		}
	}
	return out
}
