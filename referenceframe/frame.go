// Package referenceframe defines the api and does the math of translating between reference frames.
// Useful for if you have a marker, attached to a gripper, attached to an arm, and need to translate
// the marker's pose into the frame the arm plans in.
package referenceframe

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	spatial "github.com/armature-robotics/interaction/spatialmath"
)

// OOBErrString is a string that all out-of-bounds errors should contain, so that they can be
// checked for distinct from other Transform errors.
const OOBErrString = "input out of bounds"

// Limit represents the limits of motion for a referenceframe.
type Limit struct {
	Min float64
	Max float64
}

func limitsAlmostEqual(a, b []Limit) bool {
	if len(a) != len(b) {
		return false
	}

	const epsilon = 1e-5
	for idx, x := range a {
		if math.Abs(x.Min-b[idx].Min) > epsilon || math.Abs(x.Max-b[idx].Max) > epsilon {
			return false
		}
	}

	return true
}

// RestrictedRandomFrameInputs will produce a list of valid, in-bounds inputs for the frame,
// restricting the range to `lim` percent of the limits.
func RestrictedRandomFrameInputs(m Frame, rSeed *rand.Rand, lim float64) []Input {
	if rSeed == nil {
		//nolint:gosec
		rSeed = rand.New(rand.NewSource(1))
	}
	dof := m.DoF()
	pos := make([]Input, 0, len(dof))
	for _, limit := range dof {
		l, u := limit.Min, limit.Max

		// Default to [-999,999] as range if limits are infinite
		if l == math.Inf(-1) {
			l = -999
		}
		if u == math.Inf(1) {
			u = 999
		}

		jRange := math.Abs(u - l)
		pos = append(pos, Input{lim * (rSeed.Float64()*jRange + l)})
	}
	return pos
}

// RandomFrameInputs will produce a list of valid, in-bounds inputs for the referenceframe.
func RandomFrameInputs(m Frame, rSeed *rand.Rand) []Input {
	return RestrictedRandomFrameInputs(m, rSeed, 1.0)
}

// Frame represents a reference frame, e.g. an arm, a joint, a gripper, a board, etc.
type Frame interface {
	// Name returns the name of the referenceframe.
	Name() string

	// Transform is the pose (rotation and translation) that goes FROM current frame TO parent's referenceframe.
	Transform([]Input) (spatial.Pose, error)

	// DoF will return a slice with length equal to the number of joints/degrees of freedom.
	// Each element describes the min and max movement limit of that joint/degree of freedom.
	// For robot parts that don't move, it returns an empty slice.
	DoF() []Limit

	// AlmostEquals returns if the otherFrame is close to the referenceframe.
	// differences should just be things like floating point imprecision
	AlmostEquals(otherFrame Frame) bool
}

// Rotational is implemented by frames that rotate about a single fixed axis.
type Rotational interface {
	// RotationalAxis returns the unit axis the frame rotates about.
	RotationalAxis() r3.Vector
}

// Translational is implemented by frames that translate along a single fixed axis.
type Translational interface {
	// TranslationalAxis returns the unit axis the frame translates along.
	TranslationalAxis() r3.Vector
}

// a static Frame is a simple coordinate system that encodes a fixed translation and rotation
// from the current Frame to the parent referenceframe.
type staticFrame struct {
	name      string
	transform spatial.Pose
}

// NewStaticFrame creates a frame given a pose relative to its parent. The pose is fixed for all
// time. Pose is not allowed to be nil.
func NewStaticFrame(name string, pose spatial.Pose) (Frame, error) {
	if pose == nil {
		return nil, errors.New("pose is not allowed to be nil")
	}
	return &staticFrame{name, pose}, nil
}

// NewZeroStaticFrame creates a frame with no translation or rotation changes.
func NewZeroStaticFrame(name string) Frame {
	return &staticFrame{name, spatial.NewZeroPose()}
}

// Name returns the name of the frame.
func (sf *staticFrame) Name() string {
	return sf.name
}

// Transform returns the pose associated with this static referenceframe.
func (sf *staticFrame) Transform(input []Input) (spatial.Pose, error) {
	if len(input) != 0 {
		return nil, NewIncorrectInputLengthError(len(input), 0)
	}
	return sf.transform, nil
}

// DoF are the degrees of freedom of the transform. In the staticFrame, it is always zero.
func (sf *staticFrame) DoF() []Limit {
	return []Limit{}
}

func (sf *staticFrame) AlmostEquals(otherFrame Frame) bool {
	other, ok := otherFrame.(*staticFrame)
	return ok && sf.name == other.name && spatial.PoseAlmostEqual(sf.transform, other.transform)
}

// a prismatic Frame is a frame that can translate without rotation in any given direction.
type translationalFrame struct {
	name      string
	transAxis r3.Vector
	limit     []Limit
}

// NewTranslationalFrame creates a frame given a name and the axis in which to translate.
func NewTranslationalFrame(name string, axis r3.Vector, limit Limit) (Frame, error) {
	if spatial.R3VectorAlmostEqual(r3.Vector{}, axis, 1e-8) {
		return nil, spatial.ErrZeroLengthAxis
	}
	return &translationalFrame{
		name:      name,
		transAxis: axis.Normalize(),
		limit:     []Limit{limit},
	}, nil
}

// Name is the name of the frame.
func (pf *translationalFrame) Name() string {
	return pf.name
}

// Transform returns a pose translated by the amount specified in the inputs.
func (pf *translationalFrame) Transform(input []Input) (spatial.Pose, error) {
	err := pf.validInputs(input)
	// We allow out-of-bounds calculations, but will return a non-nil error
	if err != nil && !strings.Contains(err.Error(), OOBErrString) {
		return nil, err
	}
	return spatial.NewPoseFromPoint(pf.transAxis.Mul(input[0].Value)), err
}

// DoF are the degrees of freedom of the transform.
func (pf *translationalFrame) DoF() []Limit {
	return pf.limit
}

// TranslationalAxis returns the axis the frame translates along.
func (pf *translationalFrame) TranslationalAxis() r3.Vector {
	return pf.transAxis
}

func (pf *translationalFrame) AlmostEquals(otherFrame Frame) bool {
	other, ok := otherFrame.(*translationalFrame)
	return ok && pf.name == other.name &&
		limitsAlmostEqual(pf.limit, other.limit) &&
		spatial.R3VectorAlmostEqual(pf.transAxis, other.transAxis, 1e-8)
}

// validInputs checks that the given array of inputs is valid for the frame.
func (pf *translationalFrame) validInputs(inputs []Input) error {
	if len(inputs) != 1 {
		return NewIncorrectInputLengthError(len(inputs), 1)
	}
	if inputs[0].Value < pf.limit[0].Min || inputs[0].Value > pf.limit[0].Max {
		return fmt.Errorf("%s %f needs to be within range [%f, %f]",
			OOBErrString, inputs[0].Value, pf.limit[0].Min, pf.limit[0].Max)
	}
	return nil
}

type rotationalFrame struct {
	name    string
	rotAxis r3.Vector
	limit   []Limit
}

// NewRotationalFrame creates a new rotationalFrame struct.
// A standard revolute joint will have 1 DoF.
func NewRotationalFrame(name string, axis spatial.R4AA, limit Limit) (Frame, error) {
	axis.Normalize()
	return &rotationalFrame{
		name:    name,
		rotAxis: r3.Vector{X: axis.RX, Y: axis.RY, Z: axis.RZ},
		limit:   []Limit{limit},
	}, nil
}

// Name returns the name of the referenceframe.
func (rf *rotationalFrame) Name() string {
	return rf.name
}

// Transform returns the Pose representing the frame's 6DoF motion in space. Requires a slice
// of inputs that has length equal to the degrees of freedom of the referenceframe.
func (rf *rotationalFrame) Transform(input []Input) (spatial.Pose, error) {
	err := rf.validInputs(input)
	// We allow out-of-bounds calculations, but will return a non-nil error
	if err != nil && !strings.Contains(err.Error(), OOBErrString) {
		return nil, err
	}
	// Create a copy of the r4aa for thread safety
	pose := spatial.NewPoseFromOrientation(
		&spatial.R4AA{Theta: input[0].Value, RX: rf.rotAxis.X, RY: rf.rotAxis.Y, RZ: rf.rotAxis.Z},
	)
	return pose, err
}

// DoF returns the number of degrees of freedom that a frame has.
func (rf *rotationalFrame) DoF() []Limit {
	return rf.limit
}

// RotationalAxis returns the axis the frame rotates about.
func (rf *rotationalFrame) RotationalAxis() r3.Vector {
	return rf.rotAxis
}

func (rf *rotationalFrame) AlmostEquals(otherFrame Frame) bool {
	other, ok := otherFrame.(*rotationalFrame)
	return ok && rf.name == other.name &&
		limitsAlmostEqual(rf.limit, other.limit) &&
		spatial.R3VectorAlmostEqual(rf.rotAxis, other.rotAxis, 1e-8)
}

// validInputs checks that the given array of inputs is valid for the frame.
func (rf *rotationalFrame) validInputs(inputs []Input) error {
	if len(inputs) != 1 {
		return NewIncorrectInputLengthError(len(inputs), 1)
	}
	if inputs[0].Value < rf.limit[0].Min || inputs[0].Value > rf.limit[0].Max {
		return fmt.Errorf("%s %.5f needs to be within range [%.5f, %.5f]",
			OOBErrString, inputs[0].Value, rf.limit[0].Min, rf.limit[0].Max)
	}
	return nil
}
