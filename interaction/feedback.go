package interaction

import (
	"time"

	spatial "github.com/armature-robotics/interaction/spatialmath"
)

// EventType enumerates the kinds of feedback a marker client can send.
type EventType int

// The feedback event types.
const (
	EventKeepAlive EventType = iota
	EventPoseUpdate
	EventMenuSelect
	EventButtonClick
	EventMouseDown
	EventMouseUp
)

// String returns a human readable name for the event type.
func (e EventType) String() string {
	switch e {
	case EventKeepAlive:
		return "keep_alive"
	case EventPoseUpdate:
		return "pose_update"
	case EventMenuSelect:
		return "menu_select"
	case EventButtonClick:
		return "button_click"
	case EventMouseDown:
		return "mouse_down"
	case EventMouseUp:
		return "mouse_up"
	default:
		return "unknown"
	}
}

// PoseStamped is a pose together with the frame it is expressed in and when it was observed.
type PoseStamped struct {
	Pose  spatial.Pose
	Frame string
	At    time.Time
}

// Feedback is one event from a marker client, e.g. a pose update after a drag or a selection from
// a marker's context menu.
type Feedback struct {
	// MarkerName is the wire name of the marker, scoped to a handler ("handler/EE:tip").
	MarkerName string
	// Client identifies the client session the event came from.
	Client string
	// Event is the kind of feedback.
	Event EventType
	// Pose is the marker pose for pose-update events, nil otherwise.
	Pose spatial.Pose
	// Frame names the reference frame Pose is expressed in.
	Frame string
	// MenuEntryID is the selected entry for menu-select events.
	MenuEntryID uint32
	// At is when the client generated the event.
	At time.Time
}
