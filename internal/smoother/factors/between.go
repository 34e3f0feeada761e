package factors

import (
	"github.com/chewxy/math32"
	"github.com/itohio/fieldvision/internal/geometry"
)

// betweenFactor constrains the relative pose between two keyed states
// to a measured delta, weighted per tangent component — the shared
// core of OdometryFactor and GyroFactor (spec.md §4.H.1/§4.H.2), which
// differ only in what they measure and how tightly.
type betweenFactor struct {
	key0, key1 int64
	measured   geometry.Pose2
	weight     Weight3
}

func (f *betweenFactor) Keys() []int64 { return []int64{f.key0, f.key1} }
func (f *betweenFactor) Dim() int      { return 3 }

// Evaluate computes the residual measured.Local(predicted) where
// predicted = Between(x0, x1), along with its closed-form Jacobian.
//
// predicted's coordinates are an affine function of x0/x1's own
// Retract-tangent perturbations:
//
//	H0 = [[-1, 0, predicted.Y], [0, -1, -predicted.X], [0, 0, -1]]
//	H1 = [[cd, -sd, 0], [sd, cd, 0], [0, 0, 1]]
//
// where cd, sd = cos/sin(predicted.Theta) — the standard SE(2)
// between-pose Jacobian. Composing with the constant rotation that
// maps predicted's coordinates into the residual (measured fixed,
// so this second stage is linear) gives the full chain-ruled result.
func (f *betweenFactor) Evaluate(values map[int64]geometry.Pose2) ([]float32, map[int64][]float32) {
	x0, x1 := values[f.key0], values[f.key1]
	predicted := x0.Between(x1)
	residual := f.measured.Local(predicted)

	cd, sd := math32.Cos(predicted.Theta), math32.Sin(predicted.Theta)
	h0 := []float32{
		-1, 0, predicted.Y,
		0, -1, -predicted.X,
		0, 0, -1,
	}
	h1 := []float32{
		cd, -sd, 0,
		sd, cd, 0,
		0, 0, 1,
	}

	cm, sm := math32.Cos(f.measured.Theta), math32.Sin(f.measured.Theta)
	jRes := [9]float32{
		cm, sm, 0,
		-sm, cm, 0,
		0, 0, 1,
	}
	j0 := mul3x3(jRes, h0)
	j1 := mul3x3(jRes, h1)

	weights := []float32{f.weight.WX, f.weight.WY, f.weight.WTheta}
	res := []float32{residual.DX, residual.DY, residual.DTheta}
	whitenedRes := make([]float32, 3)
	for i, w := range weights {
		whitenedRes[i] = res[i] * w
	}

	return whitenedRes, map[int64][]float32{
		f.key0: scaleRows(j0, weights),
		f.key1: scaleRows(j1, weights),
	}
}

// mul3x3 multiplies two row-major 3x3 matrices, a*b.
func mul3x3(a [9]float32, b []float32) []float32 {
	out := make([]float32, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float32
			for k := 0; k < 3; k++ {
				sum += a[i*3+k] * b[k*3+j]
			}
			out[i*3+j] = sum
		}
	}
	return out
}
