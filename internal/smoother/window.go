package smoother

import "github.com/itohio/fieldvision/internal/smoother/factors"

// marginalPriorSigmaXY/Theta are the noise sigmas given to the prior
// that replaces a binary factor losing exactly one endpoint to
// marginalisation — a deliberately loose approximation of the true
// marginal covariance (spec.md §4.G: "via a linear approximation"),
// since this smoother re-solves the whole window each tick rather than
// maintaining an actual Bayes tree to read a marginal off of.
const (
	marginalPriorSigmaXY    = 0.02
	marginalPriorSigmaTheta = 0.02
)

// marginalize drops every state key older than newest-lagUs, along
// with its factors: a factor exclusively touching marginalised keys is
// dropped outright; a factor with exactly one surviving key is folded
// into a prior on that key anchored at its current solved estimate
// (spec.md §4.G); a factor with more than one surviving key (e.g. an
// AccelTriple losing only its oldest leg) is also dropped, since
// approximating a multi-variable marginal here would need real
// covariance bookkeeping this batch re-solve doesn't keep.
func (s *Smoother) marginalize() {
	if len(s.keys) == 0 {
		return
	}
	newest := s.keys[len(s.keys)-1]
	cutoff := newest - s.lagUs

	evicted := make(map[int64]bool)
	var kept []int64
	for _, k := range s.keys {
		if k < cutoff {
			evicted[k] = true
		} else {
			kept = append(kept, k)
		}
	}
	if len(evicted) == 0 {
		return
	}

	var keptFactors []factors.Factor
	for _, f := range s.factorList {
		var survivors []int64
		for _, k := range f.Keys() {
			if !evicted[k] {
				survivors = append(survivors, k)
			}
		}
		switch len(survivors) {
		case len(f.Keys()):
			keptFactors = append(keptFactors, f)
		case 1:
			k := survivors[0]
			keptFactors = append(keptFactors, factors.NewPriorFactor(k, s.values[k], marginalPriorSigmaXY, marginalPriorSigmaTheta))
		default:
			// 0 survivors, or >1 survivors on a >2-key factor: drop.
		}
	}

	for k := range evicted {
		delete(s.values, k)
	}
	s.keys = kept
	s.factorList = keptFactors
}
