package factors

import "github.com/itohio/fieldvision/internal/geometry"

// accelSigma is the accelerometer consistency factor's noise sigma,
// loose relative to odometry/gyro since it constrains a second
// derivative and is mostly useful for bridging gaps when the wheels
// and gyro are unavailable (spec.md §4.H.3).
const accelSigma = 0.5

// accelFactor is the ternary constant-acceleration consistency factor
// spec.md §4.H.3 describes: residual = (p2 ⊖ p1) - (p1 ⊖ p0) -
// a*dt^2, evaluated in p1's frame, with numerical Jacobians since the
// residual mixes three poses through two frame rotations.
type accelFactor struct {
	key0, key1, key2 int64
	ax, ay           float32
	dtSeconds        float32 // (t1-t0 + t2-t1) / 2, the nominal sample interval
	weight           Weight3
}

// NewAccelFactor builds the factor. t0Us, t1Us, t2Us are the three
// consecutive state timestamps; ax, ay are the accelerometer reading
// at t1, in the robot's body frame at t1.
func NewAccelFactor(key0, key1, key2 int64, t0Us, t1Us, t2Us int64, ax, ay float32) Factor {
	dt01 := float32(t1Us-t0Us) / 1e6
	dt12 := float32(t2Us-t1Us) / 1e6
	return &accelFactor{
		key0: key0, key1: key1, key2: key2,
		ax: ax, ay: ay,
		dtSeconds: (dt01 + dt12) / 2,
		weight:    Weight3{WX: 1 / accelSigma, WY: 1 / accelSigma},
	}
}

func (f *accelFactor) Keys() []int64 { return []int64{f.key0, f.key1, f.key2} }
func (f *accelFactor) Dim() int      { return 2 }

// rotateIntoFrame rotates a world-frame vector by -theta, expressing it
// in the frame whose heading is theta.
func rotateIntoFrame(theta, x, y float32) (float32, float32) {
	// p.InverseTransformPoint with the translation part zeroed is this
	// same rotation; inlined here since the two cases (vector vs point)
	// shouldn't share a signature that invites conflating them.
	p := geometry.Pose2{Theta: theta}
	return p.InverseTransformPoint(x, y)
}

func (f *accelFactor) residualAt(p0, p1, p2 geometry.Pose2) []float32 {
	worldDelta0X, worldDelta0Y := p1.X-p0.X, p1.Y-p0.Y
	d01x, d01y := rotateIntoFrame(p1.Theta, worldDelta0X, worldDelta0Y)

	d12 := p1.Between(p2)

	dt2 := f.dtSeconds * f.dtSeconds
	return []float32{
		d12.X - d01x - f.ax*dt2,
		d12.Y - d01y - f.ay*dt2,
	}
}

func (f *accelFactor) Evaluate(values map[int64]geometry.Pose2) ([]float32, map[int64][]float32) {
	p0, p1, p2 := values[f.key0], values[f.key1], values[f.key2]
	residual := f.residualAt(p0, p1, p2)

	j0 := numericalPoseJacobian(func(x geometry.Pose2) []float32 { return f.residualAt(x, p1, p2) }, p0, 2)
	j1 := numericalPoseJacobian(func(x geometry.Pose2) []float32 { return f.residualAt(p0, x, p2) }, p1, 2)
	j2 := numericalPoseJacobian(func(x geometry.Pose2) []float32 { return f.residualAt(p0, p1, x) }, p2, 2)

	weights := []float32{f.weight.WX, f.weight.WY}
	whitenedRes := []float32{residual[0] * weights[0], residual[1] * weights[1]}

	return whitenedRes, map[int64][]float32{
		f.key0: scaleRows(j0, weights),
		f.key1: scaleRows(j1, weights),
		f.key2: scaleRows(j2, weights),
	}
}
