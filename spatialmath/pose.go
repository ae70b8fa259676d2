package spatialmath

import (
	"github.com/golang/geo/r3"
)

// Pose represents a 6dof pose, position and orientation, with respect to the origin.
// The Point() method returns the position in (x, y, z) mm coordinates,
// and the Orientation() method returns an Orientation object, which has methods to parameterize
// the rotation in multiple different representations.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// NewZeroPose returns a pose at (0, 0, 0) with the same orientation as whatever frame it is
// specified in.
func NewZeroPose() Pose {
	return newDualQuaternion()
}

// NewPose takes in a position and orientation and returns a Pose.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return newDualQuaternionFromPoint(p)
	}
	return newDualQuaternionFromPose(p, o)
}

// NewPoseFromPoint takes in a cartesian (x, y, z) and stores it as a vector.
// It will have the same orientation as the frame it is in reference to.
func NewPoseFromPoint(point r3.Vector) Pose {
	return newDualQuaternionFromPoint(point)
}

// NewPoseFromOrientation takes in an orientation and returns a Pose.
// It will have the same position as the frame it is in reference to.
func NewPoseFromOrientation(o Orientation) Pose {
	if o == nil {
		return NewZeroPose()
	}
	return newDualQuaternionFromRotation(o)
}

// NewPoseFromDH creates a pose from denavit hartenberg parameters.
func NewPoseFromDH(a, d, alpha float64) Pose {
	return newDualQuaternionFromDH(a, d, alpha)
}

// Compose treats Poses as functions A(x) and B(x), and produces a new function C(x) = A(B(x)).
// It converts the poses to dual quaternions and multiplies them together, normalizes the transform
// and returns a new Pose.
func Compose(a, b Pose) Pose {
	aq := dualQuaternionFromPose(a)
	result := &dualQuaternion{aq.Transformation(dualQuaternionFromPose(b).Number)}

	// Normalization
	if vecLen := Norm(result.Real); vecLen != 1 {
		result.Real = normalize(result.Real)
	}
	return result
}

// PoseInverse will return the inverse of a pose. So if a given pose p is the pose of A relative to B,
// PoseInverse(p) will give the pose of B relative to A.
func PoseInverse(p Pose) Pose {
	return dualQuaternionFromPose(p).Invert()
}

// PoseBetween returns the difference between two poses, that is, the transform from a to b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// PoseDelta returns the difference between two poses as a six-element array:
// the three cartesian translation deltas followed by an R3 axis angle orientation delta.
func PoseDelta(a, b Pose) []float64 {
	return dualQuaternionFromPose(a).toDeltaR3(dualQuaternionFromPose(b))
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostCoincident(a, b) && OrientationAlmostEqual(a.Orientation(), b.Orientation())
}

// PoseAlmostCoincident will return a bool describing whether 2 poses approximately are at the same
// 3D coordinate location, ignoring orientation.
func PoseAlmostCoincident(a, b Pose) bool {
	return PoseAlmostCoincidentEps(a, b, 1e-5)
}

// PoseAlmostCoincidentEps will return a bool describing whether 2 poses approximately are at the
// same 3D coordinate location as defined by the given epsilon, ignoring orientation.
func PoseAlmostCoincidentEps(a, b Pose, epsilon float64) bool {
	ap := a.Point()
	bp := b.Point()
	return ap.Sub(bp).Norm2() < epsilon*epsilon
}

// Interpolate will return a new pose that is the given percent between the two given poses.
// The position will lerp and the orientation will slerp.
func Interpolate(p1, p2 Pose, by float64) Pose {
	intQ := newDualQuaternion()
	intQ.Real = slerp(p1.Orientation().Quaternion(), p2.Orientation().Quaternion(), by)

	p1p := p1.Point()
	p2p := p2.Point()
	intQ.SetTranslation(r3.Vector{
		X: p1p.X + (p2p.X-p1p.X)*by,
		Y: p1p.Y + (p2p.Y-p1p.Y)*by,
		Z: p1p.Z + (p2p.Z-p1p.Z)*by,
	})
	return intQ
}

// TransformPoint applies a pose as a rigid transformation to a point in space.
func TransformPoint(p Pose, pt r3.Vector) r3.Vector {
	return dualQuaternionFromPose(p).transformPoint(pt)
}
