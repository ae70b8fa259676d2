package interaction

import (
	"context"
	"sync"

	"github.com/edaniels/golog"
	goutils "go.viam.com/utils"

	spatial "github.com/armature-robotics/interaction/spatialmath"
)

// feedbackQueueSize bounds how many feedback events may be pending dispatch.
const feedbackQueueSize = 100

// RobotInteraction owns the set of handlers and the active interactions, and dispatches incoming
// marker feedback to them on a background worker. All registered handlers share one
// KinematicOptionsMap.
type RobotInteraction struct {
	logger golog.Logger
	opts   *KinematicOptionsMap

	mu           sync.Mutex
	handlers     map[string]*Handler
	endEffectors map[string]EndEffector
	joints       map[string]Joint
	generics     map[string]Generic

	feedbackChan chan *Feedback
	workers      *goutils.StoppableWorkers
}

// NewRobotInteraction creates a RobotInteraction and starts its dispatch worker. Stop it with
// Close when done.
func NewRobotInteraction(logger golog.Logger) *RobotInteraction {
	ri := &RobotInteraction{
		logger:       logger,
		opts:         NewKinematicOptionsMap(logger),
		handlers:     map[string]*Handler{},
		endEffectors: map[string]EndEffector{},
		joints:       map[string]Joint{},
		generics:     map[string]Generic{},
		feedbackChan: make(chan *Feedback, feedbackQueueSize),
	}
	ri.workers = goutils.NewBackgroundStoppableWorkers(ri.dispatchLoop)
	return ri
}

// KinematicOptionsMap returns the options shared by all registered handlers.
func (ri *RobotInteraction) KinematicOptionsMap() *KinematicOptionsMap {
	return ri.opts
}

// AddHandler registers a handler. Feedback for marker names scoped to the handler's name will be
// routed to it.
func (ri *RobotInteraction) AddHandler(h *Handler) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	ri.handlers[h.Name()] = h
	h.setContainer(ri)
}

// RemoveHandler unregisters the named handler.
func (ri *RobotInteraction) RemoveHandler(name string) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	if h, ok := ri.handlers[name]; ok {
		h.setContainer(nil)
		delete(ri.handlers, name)
	}
}

// Handler returns the registered handler with the given name.
func (ri *RobotInteraction) Handler(name string) (*Handler, error) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	h, ok := ri.handlers[name]
	if !ok {
		return nil, newHandlerMissingError(name)
	}
	return h, nil
}

// DecideActiveComponents derives the end-effector and joint interactions available for the given
// state: one end-effector per group, at the tip of its chain, and one joint interaction per
// movable frame. Previously decided interactions are replaced; generics are kept.
func (ri *RobotInteraction) DecideActiveComponents(state *RobotState) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	ri.endEffectors = map[string]EndEffector{}
	ri.joints = map[string]Joint{}

	for _, group := range state.Groups() {
		model, err := state.Model(group)
		if err != nil {
			continue
		}
		frames := model.ModelFrames()
		if len(frames) == 0 {
			continue
		}

		eef := EndEffector{
			Group: group,
			Tip:   frames[len(frames)-1].Name(),
		}
		if len(frames) > 1 {
			eef.ParentLink = frames[len(frames)-2].Name()
		}
		ri.endEffectors[eef.MarkerName()] = eef

		for i, f := range frames {
			if len(f.DoF()) == 0 {
				continue
			}
			joint := Joint{Name: f.Name(), Group: group}
			if i+1 < len(frames) {
				joint.ConnectingLink = frames[i+1].Name()
			}
			ri.joints[joint.MarkerName()] = joint
		}
	}
}

// AddActiveGeneric registers a generic interaction.
func (ri *RobotInteraction) AddActiveGeneric(g Generic) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	ri.generics[g.MarkerName()] = g
}

// ClearActiveComponents forgets all decided and generic interactions.
func (ri *RobotInteraction) ClearActiveComponents() {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	ri.endEffectors = map[string]EndEffector{}
	ri.joints = map[string]Joint{}
	ri.generics = map[string]Generic{}
}

// ActiveEndEffectors returns the currently decided end-effector interactions.
func (ri *RobotInteraction) ActiveEndEffectors() []EndEffector {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	out := make([]EndEffector, 0, len(ri.endEffectors))
	for _, eef := range ri.endEffectors {
		out = append(out, eef)
	}
	return out
}

// ActiveJoints returns the currently decided joint interactions.
func (ri *RobotInteraction) ActiveJoints() []Joint {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	out := make([]Joint, 0, len(ri.joints))
	for _, joint := range ri.joints {
		out = append(out, joint)
	}
	return out
}

// DispatchFeedback queues one feedback event for processing. It never blocks; if the queue is
// full the event is dropped and ErrFeedbackQueueFull returned.
func (ri *RobotInteraction) DispatchFeedback(feedback *Feedback) error {
	select {
	case ri.feedbackChan <- feedback:
		return nil
	default:
		return ErrFeedbackQueueFull
	}
}

func (ri *RobotInteraction) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case feedback := <-ri.feedbackChan:
			if err := ri.processFeedback(ctx, feedback); err != nil {
				ri.logger.Debugw("feedback not processed", "marker", feedback.MarkerName, "event", feedback.Event, "error", err)
			}
		}
	}
}

// processFeedback routes one feedback event to the right handler and interaction, based on the
// wire marker name ("handler/EE:tip").
func (ri *RobotInteraction) processFeedback(ctx context.Context, feedback *Feedback) error {
	if feedback.Event == EventKeepAlive {
		return nil
	}
	handlerName, localName, ok := splitMarkerName(feedback.MarkerName)
	if !ok {
		return newBadMarkerNameError(feedback.MarkerName)
	}
	h, err := ri.Handler(handlerName)
	if err != nil {
		return err
	}
	if feedback.Event == EventMenuSelect {
		return h.HandleMenuSelect(feedback)
	}

	ri.mu.Lock()
	eef, isEEF := ri.endEffectors[localName]
	joint, isJoint := ri.joints[localName]
	generic, isGeneric := ri.generics[localName]
	ri.mu.Unlock()

	switch {
	case isEEF:
		return h.HandleEndEffector(ctx, eef, feedback)
	case isJoint:
		return h.HandleJoint(ctx, joint, feedback)
	case isGeneric:
		return h.HandleGeneric(ctx, generic, feedback)
	default:
		return newBadMarkerNameError(feedback.MarkerName)
	}
}

// MarkerStatus is a snapshot of one marker for rendering in clients.
type MarkerStatus struct {
	// Name is the wire name of the marker.
	Name string
	// Handler is the name of the handler the marker belongs to.
	Handler string
	// Pose is the marker's pose in the handler's planning frame, nil if not yet known.
	Pose spatial.Pose
	// InError reports whether the last update for this marker failed.
	InError bool
	// MeshesVisible reports whether the handler wants the robot's meshes drawn.
	MeshesVisible bool
	// ControlsVisible reports whether the handler wants the marker controls drawn.
	ControlsVisible bool
}

// MarkerStatuses returns a snapshot of every active marker across all registered handlers. An
// end-effector marker with no recorded feedback pose is placed at the group's current end
// effector pose.
func (ri *RobotInteraction) MarkerStatuses() []MarkerStatus {
	ri.mu.Lock()
	handlers := make([]*Handler, 0, len(ri.handlers))
	for _, h := range ri.handlers {
		handlers = append(handlers, h)
	}
	endEffectors := make([]EndEffector, 0, len(ri.endEffectors))
	for _, eef := range ri.endEffectors {
		endEffectors = append(endEffectors, eef)
	}
	joints := make([]Joint, 0, len(ri.joints))
	for _, joint := range ri.joints {
		joints = append(joints, joint)
	}
	ri.mu.Unlock()

	var statuses []MarkerStatus
	for _, h := range handlers {
		state := h.State()
		meshes := h.MeshesVisible()
		controls := h.ControlsVisible()
		for _, eef := range endEffectors {
			status := MarkerStatus{
				Name:            fullMarkerName(h.Name(), eef),
				Handler:         h.Name(),
				InError:         h.InError(eef),
				MeshesVisible:   meshes,
				ControlsVisible: controls,
			}
			if last, ok := h.LastMarkerPose(eef); ok {
				status.Pose = last.Pose
			} else if pose, err := state.Pose(eef.Group); err == nil {
				status.Pose = pose
			}
			statuses = append(statuses, status)
		}
		for _, joint := range joints {
			status := MarkerStatus{
				Name:            fullMarkerName(h.Name(), joint),
				Handler:         h.Name(),
				InError:         h.InError(joint),
				MeshesVisible:   meshes,
				ControlsVisible: controls,
			}
			if last, ok := h.LastMarkerPose(joint); ok {
				status.Pose = last.Pose
			}
			statuses = append(statuses, status)
		}
	}
	return statuses
}

// Close stops the dispatch worker. Queued feedback that has not yet been processed is dropped.
func (ri *RobotInteraction) Close(ctx context.Context) error {
	ri.workers.Stop()
	return nil
}

// FullMarkerName builds the wire name of a target on the named handler, for constructing
// feedback in clients and tests.
func FullMarkerName(handlerName string, t Target) string {
	return fullMarkerName(handlerName, t)
}
