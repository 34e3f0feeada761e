package smoother

import "errors"

// ErrInvalidKey is returned by Update when a queued factor references a
// state key that was never added via AddState (or was already
// marginalised out) — a programmer error, fatal per spec.md §7.
var ErrInvalidKey = errors.New("smoother: factor references unknown state key")

// ErrNotConverged is returned by Update when the Gauss-Newton solve
// does not reduce the residual within maxIterations; the last
// converged estimate is retained (spec.md §4.G "Failure semantics").
var ErrNotConverged = errors.New("smoother: solve did not converge")

// ErrNotPrimed is returned by Update when no Init has been applied yet.
// AddState, Prior and Post return no error.
var ErrNotPrimed = errors.New("smoother: Init has not been called")
