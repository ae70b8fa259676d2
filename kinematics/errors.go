package kinematics

import "github.com/pkg/errors"

// ErrNoSolutions is returned when a solver cannot find any valid solution for the given goal.
var ErrNoSolutions = errors.New("unable to solve for position")

func newBadSeedLengthError(actual, expected int) error {
	return errors.Errorf("seed length does not match model DoF, expected %d but got %d", expected, actual)
}
