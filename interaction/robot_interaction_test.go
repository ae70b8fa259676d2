package interaction

import (
	"context"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	spatial "github.com/armature-robotics/interaction/spatialmath"
)

func TestDecideActiveComponents(t *testing.T) {
	logger := golog.NewTestLogger(t)
	ri := NewRobotInteraction(logger)
	defer func() {
		test.That(t, ri.Close(context.Background()), test.ShouldBeNil)
	}()

	ri.DecideActiveComponents(NewRobotState(makeTestArm(t)))

	eefs := ri.ActiveEndEffectors()
	test.That(t, len(eefs), test.ShouldEqual, 1)
	test.That(t, eefs[0].Group, test.ShouldEqual, "arm")
	test.That(t, eefs[0].Tip, test.ShouldEqual, "l2")
	test.That(t, eefs[0].ParentLink, test.ShouldEqual, "j2")

	joints := ri.ActiveJoints()
	test.That(t, len(joints), test.ShouldEqual, 2)
	names := map[string]string{}
	for _, joint := range joints {
		names[joint.Name] = joint.ConnectingLink
	}
	test.That(t, names, test.ShouldResemble, map[string]string{"j1": "l1", "j2": "l2"})

	ri.ClearActiveComponents()
	test.That(t, len(ri.ActiveEndEffectors()), test.ShouldEqual, 0)
	test.That(t, len(ri.ActiveJoints()), test.ShouldEqual, 0)
}

func TestHandlerRegistry(t *testing.T) {
	logger := golog.NewTestLogger(t)
	ri := NewRobotInteraction(logger)
	defer func() {
		test.That(t, ri.Close(context.Background()), test.ShouldBeNil)
	}()

	h := newTestHandler(t)
	ri.AddHandler(h)

	got, err := ri.Handler("right")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldEqual, h)

	// registered handlers share the interaction's kinematic options
	test.That(t, h.kinematicOptions(), test.ShouldEqual, ri.KinematicOptionsMap())

	ri.RemoveHandler("right")
	_, err = ri.Handler("right")
	test.That(t, err, test.ShouldNotBeNil)

	// an unregistered handler falls back to private options
	test.That(t, h.kinematicOptions(), test.ShouldNotEqual, ri.KinematicOptionsMap())
}

func waitForUpdate(t *testing.T, updates <-chan struct{}) {
	t.Helper()
	select {
	case <-updates:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a state update")
	}
}

func TestDispatchFeedback(t *testing.T) {
	logger := golog.NewTestLogger(t)
	ri := NewRobotInteraction(logger)
	defer func() {
		test.That(t, ri.Close(context.Background()), test.ShouldBeNil)
	}()

	h := newTestHandler(t)
	ri.AddHandler(h)
	ri.DecideActiveComponents(h.State())

	updates := make(chan struct{}, 10)
	h.SetUpdateCallback(func(*Handler, bool) { updates <- struct{}{} })

	joint := Joint{Group: "arm", Name: "j1"}
	feedback := poseUpdate(FullMarkerName("right", joint), spatial.NewPoseFromOrientation(&spatial.R4AA{Theta: 0.25, RZ: 1}))
	test.That(t, ri.DispatchFeedback(feedback), test.ShouldBeNil)
	waitForUpdate(t, updates)

	positions, err := h.State().Positions("arm")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, positions[0].Value, test.ShouldAlmostEqual, 0.25)
	test.That(t, h.InError(joint), test.ShouldBeFalse)
}

func TestDispatchGenericAndMenu(t *testing.T) {
	logger := golog.NewTestLogger(t)
	ri := NewRobotInteraction(logger)
	defer func() {
		test.That(t, ri.Close(context.Background()), test.ShouldBeNil)
	}()

	h := newTestHandler(t)
	ri.AddHandler(h)

	touched := make(chan *Feedback, 1)
	generic := Generic{Name: "probe", Update: func(state *RobotState, feedback *Feedback) bool {
		touched <- feedback
		return true
	}}
	ri.AddActiveGeneric(generic)

	feedback := &Feedback{MarkerName: FullMarkerName("right", generic), Event: EventButtonClick}
	test.That(t, ri.DispatchFeedback(feedback), test.ShouldBeNil)
	select {
	case got := <-touched:
		test.That(t, got, test.ShouldEqual, feedback)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the generic update")
	}

	menu := NewMenuHandler()
	chosen := make(chan uint32, 1)
	id := menu.Insert("Go home", func(handler *Handler, feedback *Feedback) {
		chosen <- feedback.MenuEntryID
	})
	h.SetMenuHandler(menu)

	test.That(t, ri.DispatchFeedback(&Feedback{
		MarkerName:  FullMarkerName("right", generic),
		Event:       EventMenuSelect,
		MenuEntryID: id,
	}), test.ShouldBeNil)
	select {
	case got := <-chosen:
		test.That(t, got, test.ShouldEqual, id)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the menu selection")
	}
}

func TestMarkerStatuses(t *testing.T) {
	logger := golog.NewTestLogger(t)
	ri := NewRobotInteraction(logger)
	defer func() {
		test.That(t, ri.Close(context.Background()), test.ShouldBeNil)
	}()

	h := newTestHandler(t)
	ri.AddHandler(h)
	ri.DecideActiveComponents(h.State())

	statuses := ri.MarkerStatuses()
	test.That(t, len(statuses), test.ShouldEqual, 3)

	byName := map[string]MarkerStatus{}
	for _, status := range statuses {
		byName[status.Name] = status
	}
	eef, ok := byName["right/EE:l2"]
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, eef.Handler, test.ShouldEqual, "right")
	test.That(t, eef.InError, test.ShouldBeFalse)
	test.That(t, eef.MeshesVisible, test.ShouldBeTrue)
	test.That(t, eef.ControlsVisible, test.ShouldBeTrue)
	// with no feedback yet, the marker sits at the arm's current end effector pose
	test.That(t, eef.Pose, test.ShouldNotBeNil)
	test.That(t, eef.Pose.Point().X, test.ShouldAlmostEqual, 200)

	_, ok = byName["right/JJ:j1"]
	test.That(t, ok, test.ShouldBeTrue)
	_, ok = byName["right/JJ:j2"]
	test.That(t, ok, test.ShouldBeTrue)

	// handler visibility settings flow into the snapshot
	h.SetControlsVisible(false)
	for _, status := range ri.MarkerStatuses() {
		test.That(t, status.MeshesVisible, test.ShouldBeTrue)
		test.That(t, status.ControlsVisible, test.ShouldBeFalse)
	}
}

func TestDispatchBadMarkerNames(t *testing.T) {
	logger := golog.NewTestLogger(t)
	ri := NewRobotInteraction(logger)
	defer func() {
		test.That(t, ri.Close(context.Background()), test.ShouldBeNil)
	}()

	err := ri.processFeedback(context.Background(), &Feedback{MarkerName: "nohandler", Event: EventPoseUpdate})
	test.That(t, err, test.ShouldNotBeNil)

	err = ri.processFeedback(context.Background(), &Feedback{MarkerName: "ghost/JJ:j1", Event: EventPoseUpdate})
	test.That(t, err, test.ShouldNotBeNil)

	h := newTestHandler(t)
	ri.AddHandler(h)
	err = ri.processFeedback(context.Background(), &Feedback{MarkerName: "right/XX:odd", Event: EventPoseUpdate})
	test.That(t, err, test.ShouldNotBeNil)

	// keep alives are dropped silently
	err = ri.processFeedback(context.Background(), &Feedback{MarkerName: "anything", Event: EventKeepAlive})
	test.That(t, err, test.ShouldBeNil)
}
