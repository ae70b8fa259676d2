package interaction

import (
	"strings"
)

// Marker name prefixes for the different interaction kinds.
const (
	endEffectorMarkerPrefix = "EE:"
	jointMarkerPrefix       = "JJ:"
	genericMarkerPrefix     = "GG:"
)

// Target is implemented by the kinds of marker-driven interactions.
type Target interface {
	// MarkerName returns the name of the marker controlling this target, unique within a Handler.
	MarkerName() string
}

// EndEffector describes an end-effector whose markers drive a kinematic group via inverse kinematics.
type EndEffector struct {
	// Group is the kinematic group (model name) whose joints are moved to satisfy marker poses.
	Group string
	// Tip is the name of the controlled end-effector link.
	Tip string
	// ParentLink is the link the end-effector is attached to, informational for marker placement.
	ParentLink string
}

// MarkerName returns the name of the marker controlling this end-effector.
func (e EndEffector) MarkerName() string {
	return endEffectorMarkerPrefix + e.Tip
}

// Joint describes a single joint directly controlled by a marker.
type Joint struct {
	// Name is the name of the joint frame within the group's kinematic chain.
	Name string
	// Group is the kinematic group the joint belongs to.
	Group string
	// ConnectingLink is the child link of the joint, informational for marker placement.
	ConnectingLink string
}

// MarkerName returns the name of the marker controlling this joint.
func (j Joint) MarkerName() string {
	return jointMarkerPrefix + j.Name
}

// GenericUpdateFn is run with exclusive access to the handler's maintained state and the received
// feedback. It reports whether the state could be updated to match the feedback.
type GenericUpdateFn func(state *RobotState, feedback *Feedback) bool

// Generic describes a marker not tied to a specific joint or end-effector, handled via a callback.
type Generic struct {
	// Name identifies the generic interaction.
	Name string
	// Update is invoked on every feedback event for the marker, with the handler state checked out.
	Update GenericUpdateFn
}

// MarkerName returns the name of the marker for this generic interaction.
func (g Generic) MarkerName() string {
	return genericMarkerPrefix + g.Name
}

// UpdateCallback is called when the RobotState maintained by a handler changes. The caller may,
// for example, redraw the robot at the new state. errorStateChanged is true if updates to the
// robot state have switched from failing to succeeding or the other way around.
type UpdateCallback func(h *Handler, errorStateChanged bool)

// fullMarkerName scopes a target's marker name to a handler, forming the name used on the wire.
func fullMarkerName(handlerName string, t Target) string {
	return handlerName + "/" + t.MarkerName()
}

// splitMarkerName splits a wire marker name into handler name and local marker name.
func splitMarkerName(markerName string) (handlerName, localName string, ok bool) {
	parts := strings.SplitN(markerName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
