package spatialmath

import "github.com/pkg/errors"

// ErrZeroLengthAxis is returned when an axis of rotation has no length.
var ErrZeroLengthAxis = errors.New("cannot use a zero-length vector as an axis of rotation")

func newRotationMatrixInputError(m []float64) error {
	return errors.Errorf("input slice has %d elements, need exactly 9", len(m))
}
