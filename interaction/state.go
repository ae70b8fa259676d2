package interaction

import (
	"sort"

	frame "github.com/armature-robotics/interaction/referenceframe"
	spatial "github.com/armature-robotics/interaction/spatialmath"
)

// RobotState holds the kinematic models of a robot's groups and one set of joint positions for
// each. It is the value maintained and mutated by a Handler.
type RobotState struct {
	models    map[string]frame.Model
	positions map[string][]frame.Input
}

// NewRobotState creates a state from the given group models, with every joint at the zero
// position, clamped into its limits.
func NewRobotState(models ...frame.Model) *RobotState {
	state := &RobotState{
		models:    map[string]frame.Model{},
		positions: map[string][]frame.Input{},
	}
	for _, model := range models {
		state.models[model.Name()] = model
		state.positions[model.Name()] = zeroInputs(model)
	}
	return state
}

// zeroInputs returns the all-zero configuration for the model, moved inside the limits of any
// joint whose range excludes zero.
func zeroInputs(model frame.Model) []frame.Input {
	limits := model.DoF()
	inputs := make([]frame.Input, 0, len(limits))
	for _, limit := range limits {
		v := 0.0
		if v < limit.Min {
			v = limit.Min
		}
		if v > limit.Max {
			v = limit.Max
		}
		inputs = append(inputs, frame.Input{Value: v})
	}
	return inputs
}

// Clone returns a deep copy of the state. Models are shared since they are immutable once built.
func (s *RobotState) Clone() *RobotState {
	clone := &RobotState{
		models:    make(map[string]frame.Model, len(s.models)),
		positions: make(map[string][]frame.Input, len(s.positions)),
	}
	for name, model := range s.models {
		clone.models[name] = model
	}
	for name, inputs := range s.positions {
		clone.positions[name] = append([]frame.Input{}, inputs...)
	}
	return clone
}

// Groups returns the sorted names of the groups in the state.
func (s *RobotState) Groups() []string {
	names := make([]string, 0, len(s.models))
	for name := range s.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Model returns the kinematic model of the named group.
func (s *RobotState) Model(group string) (frame.Model, error) {
	model, ok := s.models[group]
	if !ok {
		return nil, newUnknownGroupError(group)
	}
	return model, nil
}

// Positions returns a copy of the joint positions of the named group.
func (s *RobotState) Positions(group string) ([]frame.Input, error) {
	inputs, ok := s.positions[group]
	if !ok {
		return nil, newUnknownGroupError(group)
	}
	return append([]frame.Input{}, inputs...), nil
}

// SetPositions replaces the joint positions of the named group.
func (s *RobotState) SetPositions(group string, inputs []frame.Input) error {
	model, ok := s.models[group]
	if !ok {
		return newUnknownGroupError(group)
	}
	if len(inputs) != len(model.DoF()) {
		return frame.NewIncorrectInputLengthError(len(inputs), len(model.DoF()))
	}
	s.positions[group] = append([]frame.Input{}, inputs...)
	return nil
}

// Pose computes the end effector pose of the named group at the current joint positions.
func (s *RobotState) Pose(group string) (spatial.Pose, error) {
	model, ok := s.models[group]
	if !ok {
		return nil, newUnknownGroupError(group)
	}
	return model.Transform(s.positions[group])
}

// SetJointPose updates the single degree of freedom of the named joint so it best matches the
// given pose. For a rotational joint the pose's orientation is projected onto the joint axis;
// for a translational joint its position is. The value is clamped into the joint's limits.
func (s *RobotState) SetJointPose(group, jointName string, pose spatial.Pose) error {
	model, ok := s.models[group]
	if !ok {
		return newUnknownGroupError(group)
	}

	idx := 0
	for _, f := range model.ModelFrames() {
		dof := len(f.DoF())
		if f.Name() != jointName {
			idx += dof
			continue
		}
		if dof != 1 {
			return newNotAJointError(group, jointName)
		}

		var value float64
		switch joint := f.(type) {
		case frame.Rotational:
			aa := spatial.QuatToR3AA(pose.Orientation().Quaternion())
			axis := joint.RotationalAxis()
			value = aa.RX*axis.X + aa.RY*axis.Y + aa.RZ*axis.Z
		case frame.Translational:
			value = pose.Point().Dot(joint.TranslationalAxis())
		default:
			return newNotAJointError(group, jointName)
		}

		limit := f.DoF()[0]
		if value < limit.Min {
			value = limit.Min
		}
		if value > limit.Max {
			value = limit.Max
		}
		s.positions[group][idx].Value = value
		return nil
	}
	return newJointMissingError(group, jointName)
}
