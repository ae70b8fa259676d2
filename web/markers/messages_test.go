package markers

import (
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/armature-robotics/interaction/interaction"
	spatial "github.com/armature-robotics/interaction/spatialmath"
)

func TestPoseMessageRoundTrip(t *testing.T) {
	pose := spatial.NewPose(
		r3.Vector{X: 1, Y: -2, Z: 300},
		&spatial.R4AA{Theta: 0.5, RY: 1},
	)
	msg := NewPoseMessage(pose)
	back := msg.Pose()
	test.That(t, spatial.PoseAlmostEqual(back, pose), test.ShouldBeTrue)
}

func TestFeedbackMessageConversion(t *testing.T) {
	at := time.Now()
	pose := NewPoseMessage(spatial.NewPoseFromPoint(r3.Vector{X: 5}))
	msg := &FeedbackMessage{
		MarkerName: "right/EE:l2",
		Client:     "viewer-1",
		Event:      "pose_update",
		Pose:       &pose,
		Frame:      "camera",
		At:         at,
	}
	feedback, err := msg.Feedback()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, feedback.MarkerName, test.ShouldEqual, "right/EE:l2")
	test.That(t, feedback.Client, test.ShouldEqual, "viewer-1")
	test.That(t, feedback.Event, test.ShouldEqual, interaction.EventPoseUpdate)
	test.That(t, feedback.Frame, test.ShouldEqual, "camera")
	test.That(t, feedback.At, test.ShouldEqual, at)
	test.That(t, feedback.Pose.Point().X, test.ShouldAlmostEqual, 5)

	menu := &FeedbackMessage{MarkerName: "right/EE:l2", Event: "menu_select", MenuEntryID: 3}
	feedback, err = menu.Feedback()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, feedback.Event, test.ShouldEqual, interaction.EventMenuSelect)
	test.That(t, feedback.MenuEntryID, test.ShouldEqual, uint32(3))
	test.That(t, feedback.Pose, test.ShouldBeNil)
}

func TestFeedbackMessageValidation(t *testing.T) {
	_, err := (&FeedbackMessage{Event: "pose_update"}).Feedback()
	test.That(t, err, test.ShouldNotBeNil)

	_, err = (&FeedbackMessage{MarkerName: "right/EE:l2", Event: "no_such_event"}).Feedback()
	test.That(t, err, test.ShouldNotBeNil)

	// pose updates must carry a pose
	_, err = (&FeedbackMessage{MarkerName: "right/EE:l2", Event: "pose_update"}).Feedback()
	test.That(t, err, test.ShouldNotBeNil)
}

func TestMarkerStatusMessage(t *testing.T) {
	msg := NewMarkerStatusMessage(interaction.MarkerStatus{
		Name:            "right/JJ:j1",
		Handler:         "right",
		InError:         true,
		MeshesVisible:   true,
		ControlsVisible: true,
	})
	test.That(t, msg.Name, test.ShouldEqual, "right/JJ:j1")
	test.That(t, msg.InError, test.ShouldBeTrue)
	test.That(t, msg.Pose, test.ShouldBeNil)
	test.That(t, msg.MeshesVisible, test.ShouldBeTrue)
	test.That(t, msg.ControlsVisible, test.ShouldBeTrue)

	msg = NewMarkerStatusMessage(interaction.MarkerStatus{
		Name:    "right/EE:l2",
		Handler: "right",
		Pose:    spatial.NewPoseFromPoint(r3.Vector{X: 200}),
	})
	test.That(t, msg.Pose, test.ShouldNotBeNil)
	test.That(t, msg.Pose.X, test.ShouldAlmostEqual, 200)
}
