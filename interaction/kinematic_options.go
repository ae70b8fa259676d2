package interaction

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"

	"github.com/armature-robotics/interaction/kinematics"
	frame "github.com/armature-robotics/interaction/referenceframe"
	spatial "github.com/armature-robotics/interaction/spatialmath"
)

// StateValidityFn reports whether a candidate state is acceptable, e.g. collision free. A nil
// function accepts everything.
type StateValidityFn func(state *RobotState, group string) bool

// KinematicOptions govern how marker poses are resolved to joint positions with inverse
// kinematics.
type KinematicOptions struct {
	// Timeout bounds how long a single call may spend solving, across all attempts.
	Timeout time.Duration
	// MaxAttempts is how many times solving is retried from a fresh random seed.
	MaxAttempts int
	// MaxIterations is the iteration budget of each underlying solver per attempt.
	MaxIterations int
	// NumSolvers is how many solvers run in parallel per attempt.
	NumSolvers int
	// SolveWeights weigh translation against orientation error when ranking solutions.
	SolveWeights kinematics.SolverDistanceWeights
	// StateValidity, if set, can reject otherwise valid solutions.
	StateValidity StateValidityFn
}

// NewDefaultKinematicOptions returns the options used when none have been set for a group.
func NewDefaultKinematicOptions() KinematicOptions {
	return KinematicOptions{
		Timeout:       500 * time.Millisecond,
		MaxAttempts:   4,
		MaxIterations: 5000,
		NumSolvers:    4,
		SolveWeights:  kinematics.NewDefaultSolverDistanceWeights(),
	}
}

// KinematicOptionsMap holds the default KinematicOptions plus any per-group overrides. It is
// shared between all handlers registered with a RobotInteraction so that adjusting, say, the IK
// timeout applies everywhere at once.
type KinematicOptionsMap struct {
	logger golog.Logger
	clk    clock.Clock

	mu       sync.RWMutex
	defaults KinematicOptions
	options  map[string]KinematicOptions
}

// NewKinematicOptionsMap creates an options map with default options for every group.
func NewKinematicOptionsMap(logger golog.Logger) *KinematicOptionsMap {
	return newKinematicOptionsMapWithClock(logger, clock.New())
}

func newKinematicOptionsMapWithClock(logger golog.Logger, clk clock.Clock) *KinematicOptionsMap {
	return &KinematicOptionsMap{
		logger:   logger,
		clk:      clk,
		defaults: NewDefaultKinematicOptions(),
		options:  map[string]KinematicOptions{},
	}
}

// Options returns the options for the given group, falling back to the defaults if the group has
// no overrides.
func (m *KinematicOptionsMap) Options(group string) KinematicOptions {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.options[group]; ok {
		return o
	}
	return m.defaults
}

// SetOptions sets the options used for a specific group.
func (m *KinematicOptionsMap) SetOptions(group string, o KinematicOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.options[group] = o
}

// DefaultOptions returns the options used for groups without overrides.
func (m *KinematicOptionsMap) DefaultOptions() KinematicOptions {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaults
}

// SetDefaultOptions replaces the options used for groups without overrides.
func (m *KinematicOptionsMap) SetDefaultOptions(o KinematicOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults = o
}

// SetDefaultTimeout sets the solve timeout in the default options.
func (m *KinematicOptionsMap) SetDefaultTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults.Timeout = timeout
}

// SetDefaultMaxAttempts sets the solve attempt count in the default options.
func (m *KinematicOptionsMap) SetDefaultMaxAttempts(attempts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults.MaxAttempts = attempts
}

// SetDefaultStateValidity sets the validity check in the default options.
func (m *KinematicOptionsMap) SetDefaultStateValidity(fn StateValidityFn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults.StateValidity = fn
}

// SetStateFromIK tries to move the named group of the given state so its end effector reaches the
// goal pose, seeding the first attempt from the current positions and later attempts from random
// configurations. The state is only modified if a satisfactory solution is found, and true is
// returned in that case.
func (m *KinematicOptionsMap) SetStateFromIK(ctx context.Context, state *RobotState, group string, goal spatial.Pose) bool {
	o := m.Options(group)

	model, err := state.Model(group)
	if err != nil {
		m.logger.Warnw("cannot solve for unknown group", "group", group, "error", err)
		return false
	}
	seed, err := state.Positions(group)
	if err != nil {
		m.logger.Warnw("cannot read group positions", "group", group, "error", err)
		return false
	}

	solver := kinematics.CreateCombinedIKSolver(model, m.logger, o.NumSolvers)
	solver.SetMaxIterations(o.MaxIterations)
	solver.SetSolveWeights(o.SolveWeights)

	//nolint:gosec
	randSeed := rand.New(rand.NewSource(1))
	start := m.clk.Now()
	for attempt := 0; attempt < o.MaxAttempts; attempt++ {
		// each attempt only gets what is left of the call's budget
		remaining := o.Timeout - m.clk.Now().Sub(start)
		if attempt > 0 && remaining <= 0 {
			break
		}
		attemptCtx, cancel := context.WithTimeout(ctx, remaining)
		solution, err := kinematics.BestSolve(attemptCtx, solver, goal, seed)
		cancel()
		if err != nil {
			m.logger.Debugw("ik attempt failed", "group", group, "attempt", attempt, "error", err)
			seed = frame.RandomFrameInputs(model, randSeed)
			continue
		}
		if o.StateValidity != nil {
			candidate := state.Clone()
			if err := candidate.SetPositions(group, solution); err != nil {
				m.logger.Warnw("cannot apply candidate solution", "group", group, "error", err)
				return false
			}
			if !o.StateValidity(candidate, group) {
				m.logger.Debugw("ik solution rejected by validity check", "group", group, "attempt", attempt)
				seed = frame.RandomFrameInputs(model, randSeed)
				continue
			}
		}
		if err := state.SetPositions(group, solution); err != nil {
			m.logger.Warnw("cannot apply solution", "group", group, "error", err)
			return false
		}
		return true
	}
	return false
}
