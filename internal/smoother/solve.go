package smoother

import (
	"github.com/itohio/fieldvision/internal/geometry"
	"gonum.org/v1/gonum/mat"
)

// convergenceEps is the minimum per-iteration cost reduction below
// which the solve is considered converged (spec.md §4.G: "incremental
// non-linear least-squares ... Gauss-Newton update").
const convergenceEps = 1e-7

// cost returns the sum of squared whitened residuals over every
// factor, evaluated at values.
func (s *Smoother) cost(values map[int64]geometry.Pose2) float64 {
	var total float64
	for _, f := range s.factorList {
		residual, _ := f.Evaluate(values)
		for _, r := range residual {
			total += float64(r) * float64(r)
		}
	}
	return total
}

// solve re-linearizes every factor in the current window at each
// iteration and takes a Gauss-Newton step: solve (J^T J) delta = -J^T r
// for the tangent-space correction, then retract every key by its
// block of delta. This re-solves the whole window each tick rather
// than maintaining a Bayes tree incrementally (spec.md §4.G names
// "iSAM-style" as the algorithm family; no incremental Bayes-tree
// library exists to build on, so this generalises ekalman.go's
// single-step Jacobian-dispatch pattern to a multi-variable batch
// solve instead). A step that would increase the cost is rejected and
// the solve stops, keeping the best iterate found — spec.md §4.G's
// "last converged estimate is retained" on non-convergence.
func (s *Smoother) solve() error {
	if len(s.keys) == 0 {
		return nil
	}

	index := make(map[int64]int, len(s.keys))
	for i, k := range s.keys {
		index[k] = i
	}
	n := len(s.keys) * 3

	best := cloneValues(s.values)
	bestCost := s.cost(best)
	converged := bestCost < convergenceEps

	for iter := 0; iter < s.maxIterations && !converged; iter++ {
		ata := mat.NewDense(n, n, nil)
		atb := mat.NewVecDense(n, nil)

		for _, f := range s.factorList {
			keys := f.Keys()
			complete := true
			for _, k := range keys {
				if _, ok := index[k]; !ok {
					complete = false
					break
				}
			}
			if !complete {
				continue
			}

			residual, jacs := f.Evaluate(best)
			dim := len(residual)

			for _, ka := range keys {
				ja := jacs[ka]
				colA := index[ka] * 3
				for r := 0; r < 3; r++ {
					var sum float64
					for row := 0; row < dim; row++ {
						sum += float64(ja[row*3+r]) * float64(residual[row])
					}
					atb.SetVec(colA+r, atb.AtVec(colA+r)+sum)
				}
				for _, kb := range keys {
					jb := jacs[kb]
					colB := index[kb] * 3
					for r := 0; r < 3; r++ {
						for c := 0; c < 3; c++ {
							var sum float64
							for row := 0; row < dim; row++ {
								sum += float64(ja[row*3+r]) * float64(jb[row*3+c])
							}
							ata.Set(colA+r, colB+c, ata.At(colA+r, colB+c)+sum)
						}
					}
				}
			}
		}

		var delta mat.VecDense
		if err := delta.SolveVec(ata, atb); err != nil {
			break // singular normal equations; keep the best iterate found so far
		}

		trial := cloneValues(best)
		for k, col := range index {
			// Gauss-Newton minimises ||r + J*d||^2, so the descent step
			// is -(J^T J)^-1 J^T r; atb holds +J^T r, hence the negation
			// here rather than at assembly time.
			d := geometry.Tangent{
				DX:     float32(-delta.AtVec(col * 3)),
				DY:     float32(-delta.AtVec(col*3 + 1)),
				DTheta: float32(-delta.AtVec(col*3 + 2)),
			}
			trial[k] = trial[k].Retract(d)
		}

		trialCost := s.cost(trial)
		if trialCost >= bestCost {
			break
		}

		improvement := bestCost - trialCost
		best = trial
		bestCost = trialCost
		if improvement < convergenceEps {
			converged = true
			break
		}
	}

	s.values = best
	if !converged {
		return ErrNotConverged
	}
	return nil
}
