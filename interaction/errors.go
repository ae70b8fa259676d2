package interaction

import (
	"github.com/pkg/errors"
)

// ErrFeedbackQueueFull is returned by DispatchFeedback when events arrive faster than they can be
// processed.
var ErrFeedbackQueueFull = errors.New("feedback queue is full")

// ErrNoMenuHandler is returned when menu feedback arrives for a handler without a menu.
var ErrNoMenuHandler = errors.New("no menu handler is set")

func newUnknownGroupError(group string) error {
	return errors.Errorf("no group named %q in the robot state", group)
}

func newJointMissingError(group, jointName string) error {
	return errors.Errorf("no joint named %q in group %q", jointName, group)
}

func newNotAJointError(group, jointName string) error {
	return errors.Errorf("frame %q in group %q is not a single degree of freedom joint", jointName, group)
}

func newMenuEntryMissingError(id uint32) error {
	return errors.Errorf("no menu entry with id %d", id)
}

func newBadMarkerNameError(markerName string) error {
	return errors.Errorf("malformed marker name %q, expected handler/prefix:target", markerName)
}

func newHandlerMissingError(name string) error {
	return errors.Errorf("no handler named %q is registered", name)
}
