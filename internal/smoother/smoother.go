// Package smoother implements the sliding-window factor-graph
// estimator (spec.md §4.G, "the heart of the design"): a single
// owning goroutine re-solves the current window's Gauss-Newton normal
// equations on every Update, while any number of producer goroutines
// enqueue measurements into a capacity-bounded mailbox.
package smoother

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/itohio/fieldvision/internal/apriltag"
	"github.com/itohio/fieldvision/internal/geometry"
	"github.com/itohio/fieldvision/internal/smoother/factors"
)

type runState int

const (
	stateUninit runState = iota
	statePrimed
	stateLive
)

const (
	defaultMailboxCap    = 256
	defaultMaxIterations = 10

	// initPriorSigmaXY/Theta anchor the t=0 state Init installs: tight
	// enough that the whole trajectory is anchored to it, not so tight
	// that later corrections (e.g. a warm restart) can't move it.
	initPriorSigmaXY    = 1e-3
	initPriorSigmaTheta = 1e-3
)

// ErrUnknownLandmark is returned when a TagPixel measurement names a
// landmark id absent from the smoother's field map.
var ErrUnknownLandmark = fmt.Errorf("smoother: unknown landmark id")

// Smoother is the sliding-window estimator. It is NOT safe for
// concurrent calls to Update/Init — only Post/AddState/Prior (via the
// mailbox) may be called from other goroutines; per spec.md §5 "the
// smoother is not re-entrant", this is documented, not mutex-hidden.
type Smoother struct {
	ID uuid.UUID
	log zerolog.Logger

	mu         sync.Mutex
	mailbox    []func(*Smoother) error
	mailboxCap int
	overflow   int

	runState      runState
	lagUs         int64
	maxIterations int
	fieldMap      *apriltag.FieldMap

	keys       []int64 // ascending
	values     map[int64]geometry.Pose2
	factorList []factors.Factor
}

// New builds a Smoother over a read-only field map, with a sliding
// window of lagUs microseconds.
func New(fieldMap *apriltag.FieldMap, lagUs int64, log zerolog.Logger) *Smoother {
	return &Smoother{
		ID:            uuid.New(),
		log:           log,
		mailboxCap:    defaultMailboxCap,
		maxIterations: defaultMaxIterations,
		fieldMap:      fieldMap,
		lagUs:         lagUs,
		values:        make(map[int64]geometry.Pose2),
	}
}

func (s *Smoother) post(cmd func(*Smoother) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.mailbox) >= s.mailboxCap {
		s.overflow++
		return
	}
	s.mailbox = append(s.mailbox, cmd)
}

func (s *Smoother) drain() []func(*Smoother) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.mailbox
	s.mailbox = nil
	return batch
}

// OverflowCount returns how many Post/AddState/Prior calls were
// dropped because the mailbox was full, since the Smoother was built.
func (s *Smoother) OverflowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overflow
}

// Init adds the first state at t=0 with a tight prior, transitioning
// UNINIT -> PRIMED (spec.md §4.G state machine). A second call is a
// no-op.
func (s *Smoother) Init(priorPose geometry.Pose2) {
	s.post(func(g *Smoother) error { return g.applyInit(priorPose) })
}

// AddState inserts a state variable at tUs with an initial guess; per
// spec.md §9's mirror-image-minimum mitigation, callers should pass
// the previous estimate, not a fixed origin, whenever one is
// available. Re-adding an existing key is a no-op.
func (s *Smoother) AddState(tUs int64, initialGuess geometry.Pose2) {
	s.post(func(g *Smoother) error { return g.applyAddState(tUs, initialGuess) })
}

// Prior adds a unary factor pinning tUs to pose.
func (s *Smoother) Prior(tUs int64, pose geometry.Pose2, sigmaXY, sigmaTheta float32) {
	s.post(func(g *Smoother) error { return g.applyPrior(tUs, pose, sigmaXY, sigmaTheta) })
}

// Post enqueues a sensor measurement (OdometryDelta, GyroDelta,
// AccelTriple or TagPixel) for the next Update.
func (s *Smoother) Post(m Measurement) {
	s.post(func(g *Smoother) error { return g.applyMeasurement(m) })
}

// Result returns a copy of the current MAP estimate over every state
// key in the window.
func (s *Smoother) Result() map[int64]geometry.Pose2 {
	out := make(map[int64]geometry.Pose2, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Keys returns the current window's state keys, ascending.
func (s *Smoother) Keys() []int64 {
	return append([]int64(nil), s.keys...)
}

func (s *Smoother) hasKeys(keys ...int64) bool {
	for _, k := range keys {
		if _, ok := s.values[k]; !ok {
			return false
		}
	}
	return true
}

func (s *Smoother) applyInit(priorPose geometry.Pose2) error {
	if s.runState != stateUninit {
		return nil
	}
	if err := s.applyAddState(0, priorPose); err != nil {
		return err
	}
	s.factorList = append(s.factorList, factors.NewPriorFactor(0, priorPose, initPriorSigmaXY, initPriorSigmaTheta))
	s.runState = statePrimed
	return nil
}

func (s *Smoother) applyAddState(tUs int64, guess geometry.Pose2) error {
	if _, exists := s.values[tUs]; exists {
		return nil
	}
	s.values[tUs] = guess
	idx := sort.Search(len(s.keys), func(i int) bool { return s.keys[i] >= tUs })
	s.keys = append(s.keys, 0)
	copy(s.keys[idx+1:], s.keys[idx:])
	s.keys[idx] = tUs
	return nil
}

func (s *Smoother) applyPrior(tUs int64, pose geometry.Pose2, sigmaXY, sigmaTheta float32) error {
	if !s.hasKeys(tUs) {
		return ErrInvalidKey
	}
	s.factorList = append(s.factorList, factors.NewPriorFactor(tUs, pose, sigmaXY, sigmaTheta))
	return nil
}

func (s *Smoother) applyMeasurement(m Measurement) error {
	switch v := m.(type) {
	case OdometryDelta:
		if !s.hasKeys(v.T0Us, v.T1Us) {
			return ErrInvalidKey
		}
		s.factorList = append(s.factorList, factors.NewOdometryFactor(v.T0Us, v.T1Us, v.Delta))
	case GyroDelta:
		if !s.hasKeys(v.T0Us, v.T1Us) {
			return ErrInvalidKey
		}
		s.factorList = append(s.factorList, factors.NewGyroFactor(v.T0Us, v.T1Us, v.DeltaTheta))
	case AccelTriple:
		if !s.hasKeys(v.T0Us, v.T1Us, v.T2Us) {
			return ErrInvalidKey
		}
		s.factorList = append(s.factorList, factors.NewAccelFactor(v.T0Us, v.T1Us, v.T2Us, v.T0Us, v.T1Us, v.T2Us, v.AX, v.AY))
	case TagPixel:
		landmark, ok := s.fieldMap.Lookup(v.LandmarkID)
		if !ok {
			return ErrUnknownLandmark
		}
		if !s.hasKeys(v.TUs) {
			return ErrInvalidKey
		}
		s.factorList = append(s.factorList, factors.NewAprilTagFactor(v.TUs, v.PX, v.PY, landmark.WorldPose.Translation, v.CameraExtrinsic, v.Calib))
	default:
		return fmt.Errorf("smoother: unrecognised measurement type %T", m)
	}
	return nil
}

// Update drains the mailbox, applies every queued command atomically
// (any ErrInvalidKey/ErrUnknownLandmark rolls the whole tick back), runs
// one incremental Gauss-Newton solve over the current window, and
// slides the window forward. The PRIMED -> LIVE transition happens on
// the first call that reaches the solve step.
func (s *Smoother) Update() error {
	batch := s.drain()

	savedValues := cloneValues(s.values)
	savedFactors := append([]factors.Factor(nil), s.factorList...)
	savedKeys := append([]int64(nil), s.keys...)
	savedState := s.runState

	for _, cmd := range batch {
		if err := cmd(s); err != nil {
			s.values, s.factorList, s.keys, s.runState = savedValues, savedFactors, savedKeys, savedState
			return err
		}
	}

	if s.runState == stateUninit {
		return ErrNotPrimed
	}

	solveErr := s.solve()
	if solveErr != nil {
		s.log.Warn().Err(solveErr).Str("smoother_id", s.ID.String()).Msg("gauss-newton solve did not converge; retaining last estimate")
	}
	if s.runState == statePrimed {
		s.runState = stateLive
	}
	s.marginalize()
	return solveErr
}

func cloneValues(m map[int64]geometry.Pose2) map[int64]geometry.Pose2 {
	out := make(map[int64]geometry.Pose2, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
