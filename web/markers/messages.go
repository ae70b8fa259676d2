package markers

import (
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/armature-robotics/interaction/interaction"
	spatial "github.com/armature-robotics/interaction/spatialmath"
)

// PoseMessage is the wire representation of a pose: millimeters plus an orientation vector in
// degrees.
type PoseMessage struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	OX    float64 `json:"o_x"`
	OY    float64 `json:"o_y"`
	OZ    float64 `json:"o_z"`
	Theta float64 `json:"theta"`
}

// NewPoseMessage converts a pose to its wire representation.
func NewPoseMessage(p spatial.Pose) PoseMessage {
	pt := p.Point()
	ov := p.Orientation().OrientationVectorDegrees()
	return PoseMessage{
		X:     pt.X,
		Y:     pt.Y,
		Z:     pt.Z,
		OX:    ov.OX,
		OY:    ov.OY,
		OZ:    ov.OZ,
		Theta: ov.Theta,
	}
}

// Pose converts the wire representation back to a pose.
func (m PoseMessage) Pose() spatial.Pose {
	return spatial.NewPose(
		r3.Vector{X: m.X, Y: m.Y, Z: m.Z},
		&spatial.OrientationVectorDegrees{OX: m.OX, OY: m.OY, OZ: m.OZ, Theta: m.Theta},
	)
}

var eventTypes = map[string]interaction.EventType{
	interaction.EventKeepAlive.String():   interaction.EventKeepAlive,
	interaction.EventPoseUpdate.String():  interaction.EventPoseUpdate,
	interaction.EventMenuSelect.String():  interaction.EventMenuSelect,
	interaction.EventButtonClick.String(): interaction.EventButtonClick,
	interaction.EventMouseDown.String():   interaction.EventMouseDown,
	interaction.EventMouseUp.String():     interaction.EventMouseUp,
}

// FeedbackMessage is one feedback event as sent by marker clients.
type FeedbackMessage struct {
	MarkerName  string       `json:"marker_name"`
	Client      string       `json:"client,omitempty"`
	Event       string       `json:"event"`
	Pose        *PoseMessage `json:"pose,omitempty"`
	Frame       string       `json:"frame,omitempty"`
	MenuEntryID uint32       `json:"menu_entry_id,omitempty"`
	At          time.Time    `json:"at,omitempty"`
}

// Feedback validates the message and converts it to a feedback event.
func (m *FeedbackMessage) Feedback() (*interaction.Feedback, error) {
	if m.MarkerName == "" {
		return nil, errors.New("feedback is missing a marker name")
	}
	event, ok := eventTypes[m.Event]
	if !ok {
		return nil, errors.Errorf("unknown feedback event %q", m.Event)
	}
	feedback := &interaction.Feedback{
		MarkerName:  m.MarkerName,
		Client:      m.Client,
		Event:       event,
		Frame:       m.Frame,
		MenuEntryID: m.MenuEntryID,
		At:          m.At,
	}
	if m.Pose != nil {
		feedback.Pose = m.Pose.Pose()
	}
	if event == interaction.EventPoseUpdate && feedback.Pose == nil {
		return nil, errors.Errorf("pose update for marker %q is missing a pose", m.MarkerName)
	}
	return feedback, nil
}

// MarkerStatusMessage is the wire representation of one marker, sent to clients for rendering.
type MarkerStatusMessage struct {
	Name            string       `json:"name"`
	Handler         string       `json:"handler"`
	Pose            *PoseMessage `json:"pose,omitempty"`
	InError         bool         `json:"in_error"`
	MeshesVisible   bool         `json:"meshes_visible"`
	ControlsVisible bool         `json:"controls_visible"`
}

// NewMarkerStatusMessage converts a marker status to its wire representation.
func NewMarkerStatusMessage(status interaction.MarkerStatus) MarkerStatusMessage {
	msg := MarkerStatusMessage{
		Name:            status.Name,
		Handler:         status.Handler,
		InError:         status.InError,
		MeshesVisible:   status.MeshesVisible,
		ControlsVisible: status.ControlsVisible,
	}
	if status.Pose != nil {
		pose := NewPoseMessage(status.Pose)
		msg.Pose = &pose
	}
	return msg
}

// SnapshotMessage is a full marker snapshot, pushed periodically to WebSocket clients.
type SnapshotMessage struct {
	Markers []MarkerStatusMessage `json:"markers"`
}
