package referenceframe

import (
	spatial "github.com/armature-robotics/interaction/spatialmath"
)

// World is the string "world", but made into an exported constant.
const World = "world"

// FrameSystem represents a tree of static frames connected to each other, allowing for pose
// transformations between any two frames. It fills the role of a transform service: marker
// feedback can arrive expressed in any known frame and be moved into the planning frame.
type FrameSystem interface {
	// Name returns the name of this FrameSystem.
	Name() string

	// World returns the frame corresponding to the root of the FrameSystem, from which other
	// frames are defined with respect to.
	World() Frame

	// FrameNames returns the names of all of the frames that exist in the FrameSystem.
	FrameNames() []string

	// GetFrame returns the Frame in the FrameSystem corresponding to the given name, nil if absent.
	GetFrame(name string) Frame

	// AddFrame inserts a given Frame into the FrameSystem as a child of the parent Frame.
	AddFrame(frame, parent Frame) error

	// TracebackFrame traces the parentage of the given frame up to the world, and returns the
	// full list of frames in between. The list will include the query frame.
	TracebackFrame(frame Frame) ([]Frame, error)

	// Parent returns the parent Frame for the given Frame in the FrameSystem.
	Parent(frame Frame) (Frame, error)

	// TransformPose takes in a pose expressed in the source frame and converts it to the
	// equivalent pose in the destination frame.
	TransformPose(pose spatial.Pose, src, dst string) (spatial.Pose, error)
}

type simpleFrameSystem struct {
	name    string
	world   Frame
	frames  map[string]Frame
	parents map[Frame]Frame
}

// NewEmptySimpleFrameSystem creates a graph of frames that have a static relationship with
// each other, containing only the world frame.
func NewEmptySimpleFrameSystem(name string) FrameSystem {
	worldFrame := NewZeroStaticFrame(World)
	return &simpleFrameSystem{name, worldFrame, map[string]Frame{}, map[Frame]Frame{}}
}

func (sfs *simpleFrameSystem) Name() string {
	return sfs.name
}

func (sfs *simpleFrameSystem) World() Frame {
	return sfs.world
}

func (sfs *simpleFrameSystem) FrameNames() []string {
	var frameNames []string
	for k := range sfs.frames {
		frameNames = append(frameNames, k)
	}
	return frameNames
}

func (sfs *simpleFrameSystem) frameExists(name string) bool {
	if name == World {
		return true
	}
	_, ok := sfs.frames[name]
	return ok
}

// GetFrame returns the frame given the name of the frame. Returns nil if the frame is not found.
func (sfs *simpleFrameSystem) GetFrame(name string) Frame {
	if !sfs.frameExists(name) {
		return nil
	}
	if name == World {
		return sfs.world
	}
	return sfs.frames[name]
}

// AddFrame sets an already defined Frame into the system.
func (sfs *simpleFrameSystem) AddFrame(frame, parent Frame) error {
	if parent == nil {
		return NewParentFrameMissingError(frame.Name(), "nil")
	}
	if !sfs.frameExists(parent.Name()) {
		return NewParentFrameMissingError(frame.Name(), parent.Name())
	}
	if sfs.frameExists(frame.Name()) {
		return NewFrameAlreadyExistsError(frame.Name())
	}

	sfs.frames[frame.Name()] = frame
	sfs.parents[frame] = parent
	return nil
}

// TracebackFrame traces the parentage of the given frame up to the world and returns the full
// list of frames in between, ordered from the query frame to the world.
func (sfs *simpleFrameSystem) TracebackFrame(query Frame) ([]Frame, error) {
	if !sfs.frameExists(query.Name()) {
		return nil, NewFrameMissingError(query.Name())
	}
	path := []Frame{}
	for next := query; next != sfs.world; {
		path = append(path, next)
		parent, err := sfs.Parent(next)
		if err != nil {
			return nil, err
		}
		next = parent
	}
	return append(path, sfs.world), nil
}

// Parent returns the parent frame of the input referenceframe. nil if input is World.
func (sfs *simpleFrameSystem) Parent(frame Frame) (Frame, error) {
	if !sfs.frameExists(frame.Name()) {
		return nil, NewFrameMissingError(frame.Name())
	}
	if parent, ok := sfs.parents[frame]; ok {
		return parent, nil
	}
	return nil, NewParentFrameMissingError(frame.Name(), "unknown")
}

// TransformPose converts a pose expressed in the src frame into the equivalent pose in dst.
func (sfs *simpleFrameSystem) TransformPose(pose spatial.Pose, src, dst string) (spatial.Pose, error) {
	srcToWorld, err := sfs.poseInWorld(src)
	if err != nil {
		return nil, err
	}
	dstToWorld, err := sfs.poseInWorld(dst)
	if err != nil {
		return nil, err
	}
	// world-relative pose of the input, then re-expressed relative to dst
	return spatial.Compose(spatial.PoseInverse(dstToWorld), spatial.Compose(srcToWorld, pose)), nil
}

// poseInWorld composes the static transforms from the named frame up to the world.
func (sfs *simpleFrameSystem) poseInWorld(name string) (spatial.Pose, error) {
	frame := sfs.GetFrame(name)
	if frame == nil {
		return nil, NewFrameMissingError(name)
	}
	path, err := sfs.TracebackFrame(frame)
	if err != nil {
		return nil, err
	}
	pose := spatial.NewZeroPose()
	// the path is ordered leaf to world; compose from the world down
	for i := len(path) - 1; i >= 0; i-- {
		if len(path[i].DoF()) != 0 {
			return nil, NewMovableFrameError(path[i].Name())
		}
		transform, err := path[i].Transform([]Input{})
		if err != nil {
			return nil, err
		}
		pose = spatial.Compose(pose, transform)
	}
	return pose, nil
}
