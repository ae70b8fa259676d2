package referenceframe

import "github.com/pkg/errors"

// ErrEmptyStringFrameName denotes an error when a frame name is the empty string.
var ErrEmptyStringFrameName = errors.New("frame with no name may not be used")

// NewFrameMissingError returns an error for when a frame is missing from the frame system.
func NewFrameMissingError(frameName string) error {
	return errors.Errorf("frame with name %q not in frame system", frameName)
}

// NewFrameAlreadyExistsError returns an error for when a frame with the given name already exists.
func NewFrameAlreadyExistsError(frameName string) error {
	return errors.Errorf("frame with name %q already in frame system", frameName)
}

// NewParentFrameMissingError returns an error for when a frame is added to a frame system with a
// parent that does not exist in the system.
func NewParentFrameMissingError(frameName, parentName string) error {
	return errors.Errorf("parent frame %q of frame %q not in frame system", parentName, frameName)
}

// NewMovableFrameError returns an error for when a static pose resolution runs through a frame
// with nonzero degrees of freedom.
func NewMovableFrameError(frameName string) error {
	return errors.Errorf("frame %q has degrees of freedom, only static frames may be used to transform poses", frameName)
}
