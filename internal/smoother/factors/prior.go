package factors

import (
	"github.com/chewxy/math32"
	"github.com/itohio/fieldvision/internal/geometry"
)

// priorFactor anchors a single key's pose to a fixed measured value,
// e.g. the smoother's initial pose anchor (spec.md §4.G's Init/Prior
// operations) or a warm-start re-anchor after recovering from
// non-convergence.
type priorFactor struct {
	key      int64
	measured geometry.Pose2
	weight   Weight3
}

// NewPriorFactor builds a unary factor pinning key's pose to measured,
// with independent noise sigmas per tangent component.
func NewPriorFactor(key int64, measured geometry.Pose2, sigmaXY, sigmaTheta float32) Factor {
	return &priorFactor{
		key:      key,
		measured: measured,
		weight:   Weight3{WX: 1 / sigmaXY, WY: 1 / sigmaXY, WTheta: 1 / sigmaTheta},
	}
}

func (f *priorFactor) Keys() []int64 { return []int64{f.key} }
func (f *priorFactor) Dim() int      { return 3 }

func (f *priorFactor) Evaluate(values map[int64]geometry.Pose2) ([]float32, map[int64][]float32) {
	x := values[f.key]
	residual := f.measured.Local(x)

	// Same H1 block betweenFactor derives for Between(x0, x1)'s
	// Jacobian with respect to x1's tangent, with x0 = measured held
	// fixed: cd, sd are cos/sin of the residual's own heading, since
	// residual.Theta == Between(measured, x).Theta.
	cd, sd := math32.Cos(residual.DTheta), math32.Sin(residual.DTheta)
	j := []float32{
		cd, -sd, 0,
		sd, cd, 0,
		0, 0, 1,
	}

	weights := []float32{f.weight.WX, f.weight.WY, f.weight.WTheta}
	res := []float32{residual.DX, residual.DY, residual.DTheta}
	whitenedRes := make([]float32, 3)
	for i, w := range weights {
		whitenedRes[i] = res[i] * w
	}

	return whitenedRes, map[int64][]float32{f.key: scaleRows(j, weights)}
}
