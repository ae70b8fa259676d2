package referenceframe

import (
	"math/rand"

	spatial "github.com/armature-robotics/interaction/spatialmath"
)

// A Model is a frame representing a kinematic chain, e.g. an arm.
type Model interface {
	Frame
	// ModelFrames returns the ordered list of frames composing the chain, from the base outward.
	ModelFrames() []Frame
	// OperationalDoF returns the number of end effectors.
	OperationalDoF() int
}

// SimpleModel is a model of a serial kinematic chain: a list of frames ordered from the base to
// the end effector, each being either fixed or having a single degree of freedom.
type SimpleModel struct {
	name string
	// OrdTransforms is the list of transforms ordered from the base to the end effector.
	OrdTransforms []Frame
}

// NewSimpleModel constructs a new model.
func NewSimpleModel(name string) *SimpleModel {
	return &SimpleModel{name: name}
}

// Name returns the name of the model.
func (m *SimpleModel) Name() string {
	return m.name
}

// ChangeName changes the name of the model.
func (m *SimpleModel) ChangeName(name string) {
	m.name = name
}

// ModelFrames returns the ordered frames of the chain.
func (m *SimpleModel) ModelFrames() []Frame {
	return m.OrdTransforms
}

// OperationalDoF returns the number of end effectors. A serial chain always has exactly one.
func (m *SimpleModel) OperationalDoF() int {
	return 1
}

// Transform takes a model and a list of joint angles in radians and computes the dual quaternion
// representing the cartesian position of the end effector. This is useful for when conversions
// between quaternions and OV are not needed.
func (m *SimpleModel) Transform(inputs []Input) (spatial.Pose, error) {
	if len(inputs) != len(m.DoF()) {
		return nil, NewIncorrectInputLengthError(len(inputs), len(m.DoF()))
	}

	var err error
	composedTransformation := spatial.NewZeroPose()
	posIdx := 0
	for _, transform := range m.OrdTransforms {
		dof := len(transform.DoF())
		input := inputs[posIdx : posIdx+dof]
		posIdx += dof

		pose, errNew := transform.Transform(input)
		// Fail if inputs are incorrect and pose is nil, but allow querying out-of-bounds positions
		if pose == nil || (errNew != nil && err == nil) {
			err = errNew
		}
		if pose == nil {
			return nil, err
		}
		composedTransformation = spatial.Compose(composedTransformation, pose)
	}
	return composedTransformation, err
}

// DoF returns the number of degrees of freedom within a model.
func (m *SimpleModel) DoF() []Limit {
	limits := make([]Limit, 0, len(m.OrdTransforms))
	for _, transform := range m.OrdTransforms {
		limits = append(limits, transform.DoF()...)
	}
	return limits
}

// AlmostEquals returns true if the only difference between this model and another is floating point inprecision.
func (m *SimpleModel) AlmostEquals(otherFrame Frame) bool {
	other, ok := otherFrame.(*SimpleModel)
	if !ok {
		return false
	}
	if m.name != other.name {
		return false
	}
	if len(m.OrdTransforms) != len(other.OrdTransforms) {
		return false
	}
	for idx, transform := range m.OrdTransforms {
		if !transform.AlmostEquals(other.OrdTransforms[idx]) {
			return false
		}
	}
	return true
}

// GenerateRandomConfiguration generates a list of radian joint positions that are random but valid
// for each joint.
func GenerateRandomConfiguration(m Model, randSeed *rand.Rand) []float64 {
	limits := m.DoF()
	jointPos := make([]float64, 0, len(limits))

	for i := 0; i < len(limits); i++ {
		jointRange := limits[i].Max - limits[i].Min
		newPos := randSeed.Float64()*jointRange + limits[i].Min
		jointPos = append(jointPos, newPos)
	}
	return jointPos
}
