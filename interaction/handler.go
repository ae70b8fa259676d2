package interaction

import (
	"context"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	frame "github.com/armature-robotics/interaction/referenceframe"
	spatial "github.com/armature-robotics/interaction/spatialmath"
)

// Handler maintains one RobotState and updates it in response to marker feedback. It tracks a
// per-marker error state, per-marker pose offsets, the last pose commanded for each marker, and
// an optional context menu.
//
// All methods are safe for concurrent use. The maintained state is handed out exclusively: a
// feedback handler checks it out, mutates it, and returns it, while State and SetState block
// until no mutation is in flight.
type Handler struct {
	name   string
	logger golog.Logger

	stateMu         sync.Mutex
	stateCond       *sync.Cond
	state           *RobotState
	stateInUse      bool
	container       *RobotInteraction
	localOptions    *KinematicOptionsMap
	planningFrame   string
	transformer     frame.FrameSystem
	meshesVisible   bool
	controlsVisible bool

	callbackMu     sync.Mutex
	updateCallback UpdateCallback
	menuHandler    *MenuHandler

	errorMu    sync.Mutex
	errorState map[string]bool

	poseMu  sync.Mutex
	poseMap map[string]PoseStamped

	offsetMu  sync.Mutex
	offsetMap map[string]spatial.Pose
}

// NewHandler creates a handler maintaining a copy of the given state. Feedback poses are expected
// in the world frame unless a transformer is set with SetTransformer.
func NewHandler(name string, state *RobotState, logger golog.Logger) *Handler {
	h := &Handler{
		name:            name,
		logger:          logger,
		state:           state.Clone(),
		planningFrame:   frame.World,
		meshesVisible:   true,
		controlsVisible: true,
		errorState:      map[string]bool{},
		poseMap:         map[string]PoseStamped{},
		offsetMap:       map[string]spatial.Pose{},
	}
	h.stateCond = sync.NewCond(&h.stateMu)
	return h
}

// Name returns the name of this handler.
func (h *Handler) Name() string {
	return h.name
}

// SetTransformer sets the frame system used to move feedback poses into the planning frame.
// Without one, feedback in any frame other than the planning frame is rejected.
func (h *Handler) SetTransformer(transformer frame.FrameSystem) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	h.transformer = transformer
}

// SetPlanningFrame changes the frame feedback poses are transformed into before use.
func (h *Handler) SetPlanningFrame(name string) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	h.planningFrame = name
}

// PlanningFrame returns the frame feedback poses are resolved in.
func (h *Handler) PlanningFrame() string {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	return h.planningFrame
}

// SetMeshesVisible controls whether clients should draw the robot's meshes alongside this
// handler's markers.
func (h *Handler) SetMeshesVisible(visible bool) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	h.meshesVisible = visible
}

// MeshesVisible reports whether clients should draw the robot's meshes.
func (h *Handler) MeshesVisible() bool {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	return h.meshesVisible
}

// SetControlsVisible controls whether clients should draw the interactive marker controls.
func (h *Handler) SetControlsVisible(visible bool) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	h.controlsVisible = visible
}

// ControlsVisible reports whether clients should draw the interactive marker controls.
func (h *Handler) ControlsVisible() bool {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	return h.controlsVisible
}

// State returns a copy of the maintained state, blocking while the state is checked out by a
// feedback handler.
func (h *Handler) State() *RobotState {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	for h.stateInUse {
		h.stateCond.Wait()
	}
	return h.state.Clone()
}

// SetState replaces the maintained state with a copy of the given one, blocking while the state
// is checked out.
func (h *Handler) SetState(state *RobotState) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	for h.stateInUse {
		h.stateCond.Wait()
	}
	h.state = state.Clone()
}

// checkoutState grants exclusive access to the live maintained state. Every checkout must be
// paired with a returnState.
func (h *Handler) checkoutState() *RobotState {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	for h.stateInUse {
		h.stateCond.Wait()
	}
	h.stateInUse = true
	return h.state
}

// returnState ends exclusive access and wakes anyone waiting in State, SetState, or checkoutState.
func (h *Handler) returnState() {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	h.stateInUse = false
	h.stateCond.Broadcast()
}

// SetUpdateCallback sets the function called whenever the maintained state changes. A nil
// callback disables notification.
func (h *Handler) SetUpdateCallback(callback UpdateCallback) {
	h.callbackMu.Lock()
	defer h.callbackMu.Unlock()
	h.updateCallback = callback
}

// UpdateCallback returns the currently set update callback.
func (h *Handler) UpdateCallback() UpdateCallback {
	h.callbackMu.Lock()
	defer h.callbackMu.Unlock()
	return h.updateCallback
}

func (h *Handler) callUpdate(errorStateChanged bool) {
	callback := h.UpdateCallback()
	if callback == nil {
		return
	}
	callback(h, errorStateChanged)
}

// SetMenuHandler attaches a context menu to this handler's markers.
func (h *Handler) SetMenuHandler(m *MenuHandler) {
	h.callbackMu.Lock()
	defer h.callbackMu.Unlock()
	h.menuHandler = m
}

// MenuHandler returns the attached context menu, nil if none.
func (h *Handler) MenuHandler() *MenuHandler {
	h.callbackMu.Lock()
	defer h.callbackMu.Unlock()
	return h.menuHandler
}

// ClearMenuHandler detaches the context menu.
func (h *Handler) ClearMenuHandler() {
	h.callbackMu.Lock()
	defer h.callbackMu.Unlock()
	h.menuHandler = nil
}

// SetPoseOffset sets the offset between the target and where its marker is drawn. Feedback poses
// for the marker have the offset removed before the target is updated.
func (h *Handler) SetPoseOffset(t Target, offset spatial.Pose) {
	h.offsetMu.Lock()
	defer h.offsetMu.Unlock()
	h.offsetMap[t.MarkerName()] = offset
}

// PoseOffset returns the offset set for the target's marker, if any.
func (h *Handler) PoseOffset(t Target) (spatial.Pose, bool) {
	h.offsetMu.Lock()
	defer h.offsetMu.Unlock()
	offset, ok := h.offsetMap[t.MarkerName()]
	return offset, ok
}

// ClearPoseOffset removes the offset set for the target's marker.
func (h *Handler) ClearPoseOffset(t Target) {
	h.offsetMu.Lock()
	defer h.offsetMu.Unlock()
	delete(h.offsetMap, t.MarkerName())
}

// ClearPoseOffsets removes all pose offsets.
func (h *Handler) ClearPoseOffsets() {
	h.offsetMu.Lock()
	defer h.offsetMu.Unlock()
	h.offsetMap = map[string]spatial.Pose{}
}

// LastMarkerPose returns the last feedback pose recorded for the target's marker, expressed in
// the planning frame with the marker's offset removed.
func (h *Handler) LastMarkerPose(t Target) (PoseStamped, bool) {
	h.poseMu.Lock()
	defer h.poseMu.Unlock()
	pose, ok := h.poseMap[t.MarkerName()]
	return pose, ok
}

// ClearLastMarkerPose forgets the last feedback pose recorded for the target's marker.
func (h *Handler) ClearLastMarkerPose(t Target) {
	h.poseMu.Lock()
	defer h.poseMu.Unlock()
	delete(h.poseMap, t.MarkerName())
}

// ClearLastMarkerPoses forgets all recorded marker poses.
func (h *Handler) ClearLastMarkerPoses() {
	h.poseMu.Lock()
	defer h.poseMu.Unlock()
	h.poseMap = map[string]PoseStamped{}
}

func (h *Handler) setLastMarkerPose(markerName string, pose PoseStamped) {
	h.poseMu.Lock()
	defer h.poseMu.Unlock()
	h.poseMap[markerName] = pose
}

// InError returns whether the last update for the target's marker failed.
func (h *Handler) InError(t Target) bool {
	h.errorMu.Lock()
	defer h.errorMu.Unlock()
	return h.errorState[t.MarkerName()]
}

// ClearError clears the error state for all markers.
func (h *Handler) ClearError() {
	h.errorMu.Lock()
	defer h.errorMu.Unlock()
	h.errorState = map[string]bool{}
}

// setErrorState records whether the last update for the marker failed and reports whether that
// flipped the marker's error state.
func (h *Handler) setErrorState(markerName string, failing bool) bool {
	h.errorMu.Lock()
	defer h.errorMu.Unlock()
	changed := h.errorState[markerName] != failing
	if failing {
		h.errorState[markerName] = true
	} else {
		delete(h.errorState, markerName)
	}
	return changed
}

// setContainer records the RobotInteraction this handler is registered with, giving it access to
// the shared kinematic options.
func (h *Handler) setContainer(ri *RobotInteraction) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	h.container = ri
}

// kinematicOptions returns the options map shared through the containing RobotInteraction, or a
// private one if the handler is used standalone.
func (h *Handler) kinematicOptions() *KinematicOptionsMap {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	if h.container != nil {
		return h.container.KinematicOptionsMap()
	}
	if h.localOptions == nil {
		h.localOptions = NewKinematicOptionsMap(h.logger)
	}
	return h.localOptions
}

// transformFeedbackPose resolves a feedback pose into the planning frame and removes the given
// marker offset.
func (h *Handler) transformFeedbackPose(feedback *Feedback, offset spatial.Pose) (PoseStamped, error) {
	if feedback.Pose == nil {
		return PoseStamped{}, errors.Errorf("feedback for marker %q has no pose", feedback.MarkerName)
	}
	h.stateMu.Lock()
	planningFrame := h.planningFrame
	transformer := h.transformer
	h.stateMu.Unlock()

	pose := feedback.Pose
	if feedback.Frame != "" && feedback.Frame != planningFrame {
		if transformer == nil {
			return PoseStamped{}, errors.Errorf(
				"cannot transform pose from frame %q to planning frame %q without a transformer", feedback.Frame, planningFrame)
		}
		var err error
		pose, err = transformer.TransformPose(pose, feedback.Frame, planningFrame)
		if err != nil {
			return PoseStamped{}, errors.Wrapf(err, "transforming feedback for marker %q", feedback.MarkerName)
		}
	}
	if offset != nil {
		pose = spatial.Compose(pose, spatial.PoseInverse(offset))
	}
	at := feedback.At
	if at.IsZero() {
		at = time.Now()
	}
	return PoseStamped{Pose: pose, Frame: planningFrame, At: at}, nil
}

// HandleEndEffector updates the maintained state from pose-update feedback on an end-effector
// marker, solving inverse kinematics for the end-effector's group. Whether IK succeeded is
// recorded in the marker's error state and the update callback is notified.
func (h *Handler) HandleEndEffector(ctx context.Context, eef EndEffector, feedback *Feedback) error {
	if feedback.Event != EventPoseUpdate {
		return nil
	}
	offset, _ := h.PoseOffset(eef)
	tpose, err := h.transformFeedbackPose(feedback, offset)
	if err != nil {
		return err
	}
	h.setLastMarkerPose(eef.MarkerName(), tpose)

	state := h.checkoutState()
	solved := h.kinematicOptions().SetStateFromIK(ctx, state, eef.Group, tpose.Pose)
	h.returnState()

	changed := h.setErrorState(eef.MarkerName(), !solved)
	h.callUpdate(changed)
	return nil
}

// HandleJoint updates the maintained state from pose-update feedback on a joint marker, applying
// the marker pose directly to the joint's degree of freedom.
func (h *Handler) HandleJoint(ctx context.Context, joint Joint, feedback *Feedback) error {
	if feedback.Event != EventPoseUpdate {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	offset, _ := h.PoseOffset(joint)
	tpose, err := h.transformFeedbackPose(feedback, offset)
	if err != nil {
		return err
	}
	h.setLastMarkerPose(joint.MarkerName(), tpose)

	state := h.checkoutState()
	applyErr := state.SetJointPose(joint.Group, joint.Name, tpose.Pose)
	h.returnState()

	changed := h.setErrorState(joint.MarkerName(), applyErr != nil)
	h.callUpdate(changed)
	return applyErr
}

// HandleGeneric runs a generic interaction's update callback with exclusive access to the
// maintained state, recording whether it succeeded in the marker's error state.
func (h *Handler) HandleGeneric(ctx context.Context, generic Generic, feedback *Feedback) error {
	if generic.Update == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	state := h.checkoutState()
	ok := generic.Update(state, feedback)
	h.returnState()

	changed := h.setErrorState(generic.MarkerName(), !ok)
	h.callUpdate(changed)
	return nil
}

// HandleMenuSelect routes menu-select feedback to the attached menu handler.
func (h *Handler) HandleMenuSelect(feedback *Feedback) error {
	menu := h.MenuHandler()
	if menu == nil {
		return ErrNoMenuHandler
	}
	return menu.HandleFeedback(h, feedback)
}

// SetIKTimeout sets the default IK timeout.
//
// Deprecated: adjust the shared options through KinematicOptionsMap instead.
func (h *Handler) SetIKTimeout(timeout time.Duration) {
	h.kinematicOptions().SetDefaultTimeout(timeout)
}

// SetIKAttempts sets the default number of IK attempts.
//
// Deprecated: adjust the shared options through KinematicOptionsMap instead.
func (h *Handler) SetIKAttempts(attempts int) {
	h.kinematicOptions().SetDefaultMaxAttempts(attempts)
}

// SetStateValidityCallback sets the default validity check applied to IK solutions.
//
// Deprecated: adjust the shared options through KinematicOptionsMap instead.
func (h *Handler) SetStateValidityCallback(fn StateValidityFn) {
	h.kinematicOptions().SetDefaultStateValidity(fn)
}

// KinematicsQueryOptions returns the default IK solve options.
//
// Deprecated: read the shared options through KinematicOptionsMap instead.
func (h *Handler) KinematicsQueryOptions() KinematicOptions {
	return h.kinematicOptions().DefaultOptions()
}

// SetKinematicsQueryOptions replaces the default IK solve options.
//
// Deprecated: adjust the shared options through KinematicOptionsMap instead.
func (h *Handler) SetKinematicsQueryOptions(o KinematicOptions) {
	h.kinematicOptions().SetDefaultOptions(o)
}

// SetKinematicsQueryOptionsForGroup replaces the IK solve options for one group.
//
// Deprecated: adjust the shared options through KinematicOptionsMap instead.
func (h *Handler) SetKinematicsQueryOptionsForGroup(group string, o KinematicOptions) {
	h.kinematicOptions().SetOptions(group, o)
}
