package interaction

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	frame "github.com/armature-robotics/interaction/referenceframe"
	spatial "github.com/armature-robotics/interaction/spatialmath"
)

func TestKinematicOptionsMap(t *testing.T) {
	logger := golog.NewTestLogger(t)
	m := NewKinematicOptionsMap(logger)

	defaults := NewDefaultKinematicOptions()
	test.That(t, m.Options("arm"), test.ShouldResemble, defaults)

	override := defaults
	override.MaxAttempts = 9
	m.SetOptions("arm", override)
	test.That(t, m.Options("arm").MaxAttempts, test.ShouldEqual, 9)
	test.That(t, m.Options("other"), test.ShouldResemble, defaults)

	m.SetDefaultTimeout(time.Second)
	m.SetDefaultMaxAttempts(2)
	m.SetDefaultStateValidity(func(*RobotState, string) bool { return false })
	test.That(t, m.Options("other").Timeout, test.ShouldEqual, time.Second)
	test.That(t, m.Options("other").MaxAttempts, test.ShouldEqual, 2)
	test.That(t, m.Options("other").StateValidity, test.ShouldNotBeNil)
	// the per group override is unaffected by default changes
	test.That(t, m.Options("arm").MaxAttempts, test.ShouldEqual, 9)
	test.That(t, m.Options("arm").StateValidity, test.ShouldBeNil)
}

func TestSetStateFromIK(t *testing.T) {
	logger := golog.NewTestLogger(t)
	m := NewKinematicOptionsMap(logger)
	state := NewRobotState(makeTestArm(t))

	goal := spatial.NewPoseFromPoint(r3.Vector{X: 100, Y: 100})
	solved := m.SetStateFromIK(context.Background(), state, "arm", goal)
	test.That(t, solved, test.ShouldBeTrue)

	pose, err := state.Pose("arm")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Point().X, test.ShouldAlmostEqual, 100, 1)
	test.That(t, pose.Point().Y, test.ShouldAlmostEqual, 100, 1)

	solved = m.SetStateFromIK(context.Background(), state, "nosuch", goal)
	test.That(t, solved, test.ShouldBeFalse)
}

func TestSetStateFromIKValidity(t *testing.T) {
	logger := golog.NewTestLogger(t)
	mock := clock.NewMock()
	m := newKinematicOptionsMapWithClock(logger, mock)

	opts := NewDefaultKinematicOptions()
	opts.MaxAttempts = 2
	opts.MaxIterations = 200
	opts.NumSolvers = 2
	var rejected int
	opts.StateValidity = func(state *RobotState, group string) bool {
		rejected++
		return false
	}
	m.SetDefaultOptions(opts)

	state := NewRobotState(makeTestArm(t))
	solved := m.SetStateFromIK(context.Background(), state, "arm", spatial.NewPoseFromPoint(r3.Vector{X: 100, Y: 100}))
	test.That(t, solved, test.ShouldBeFalse)
	test.That(t, rejected, test.ShouldBeGreaterThan, 0)

	// the state was not modified by the rejected solutions
	positions, err := state.Positions("arm")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, positions, test.ShouldResemble, frame.FloatsToInputs([]float64{0, 0}))
}

func TestSetStateFromIKTimeout(t *testing.T) {
	logger := golog.NewTestLogger(t)
	mock := clock.NewMock()
	m := newKinematicOptionsMapWithClock(logger, mock)

	opts := NewDefaultKinematicOptions()
	opts.Timeout = 10 * time.Millisecond
	opts.MaxAttempts = 100
	opts.MaxIterations = 2000
	opts.NumSolvers = 1
	var attempts int
	opts.StateValidity = func(state *RobotState, group string) bool {
		attempts++
		// push the mock clock past the timeout so the attempt loop stops early
		mock.Add(time.Second)
		return false
	}
	m.SetDefaultOptions(opts)

	state := NewRobotState(makeTestArm(t))
	solved := m.SetStateFromIK(context.Background(), state, "arm", spatial.NewPoseFromPoint(r3.Vector{X: 100, Y: 100}))
	test.That(t, solved, test.ShouldBeFalse)
	test.That(t, attempts, test.ShouldEqual, 1)
}

func TestSetStateFromIKTimeoutBudget(t *testing.T) {
	logger := golog.NewTestLogger(t)
	m := NewKinematicOptionsMap(logger)

	opts := NewDefaultKinematicOptions()
	opts.Timeout = 300 * time.Millisecond
	opts.MaxAttempts = 10
	opts.MaxIterations = 1 << 20
	opts.NumSolvers = 2
	m.SetDefaultOptions(opts)

	state := NewRobotState(makeTestArm(t))
	start := time.Now()
	// far outside the arm's reach, so attempts run until their contexts expire; the Timeout
	// bounds the whole call, not each attempt
	solved := m.SetStateFromIK(context.Background(), state, "arm", spatial.NewPoseFromPoint(r3.Vector{X: 2000}))
	test.That(t, solved, test.ShouldBeFalse)
	test.That(t, time.Since(start), test.ShouldBeLessThan, 2*opts.Timeout)
}
