package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// dualQuaternion defines functions to perform rigid transformations in 3D.
// If you find yourself importing gonum.org/v1/gonum/num/dualquat in some other package, you should
// probably be using these functions instead.
type dualQuaternion struct {
	dualquat.Number
}

// newDualQuaternion returns a pointer to a new dualQuaternion object whose real part is an identity
// quaternion. Since the real part of a dual quaternion should be a unit quaternion, not all zeroes,
// this should be used instead of &dualQuaternion{}.
func newDualQuaternion() *dualQuaternion {
	return &dualQuaternion{dualquat.Number{
		Real: quat.Number{Real: 1},
		Dual: quat.Number{},
	}}
}

// newDualQuaternionFromRotation returns a pointer to a new dualQuaternion object whose rotation
// quaternion is set from a provided orientation.
func newDualQuaternionFromRotation(o Orientation) *dualQuaternion {
	return &dualQuaternion{dualquat.Number{
		Real: normalize(o.Quaternion()),
		Dual: quat.Number{},
	}}
}

// newDualQuaternionFromPoint takes in a point and creates a new dual quaternion representing that
// point translated from the origin, with no rotation.
func newDualQuaternionFromPoint(pt r3.Vector) *dualQuaternion {
	q := newDualQuaternion()
	q.SetTranslation(pt)
	return q
}

// newDualQuaternionFromPose takes in a point and an orientation and creates a new dualQuaternion.
func newDualQuaternionFromPose(pt r3.Vector, o Orientation) *dualQuaternion {
	q := newDualQuaternionFromRotation(o)
	q.SetTranslation(pt)
	return q
}

// newDualQuaternionFromDH returns a pointer to a new dualQuaternion created from a DH parameter.
func newDualQuaternionFromDH(a, d, alpha float64) *dualQuaternion {
	m := mgl64.Ident4()

	m.Set(1, 1, math.Cos(alpha))
	m.Set(1, 2, -1*math.Sin(alpha))

	m.Set(2, 0, 0)
	m.Set(2, 1, math.Sin(alpha))
	m.Set(2, 2, math.Cos(alpha))

	qRot := mgl64.Mat4ToQuat(m)
	q := newDualQuaternion()
	q.Real = quat.Number{Real: qRot.W, Imag: qRot.X(), Jmag: qRot.Y(), Kmag: qRot.Z()}
	q.SetTranslation(r3.Vector{X: a, Y: 0, Z: d})
	return q
}

// dualQuaternionFromPose returns a dual quaternion from any pose, avoiding a copy if the pose is
// already backed by one.
func dualQuaternionFromPose(p Pose) *dualQuaternion {
	if q, ok := p.(*dualQuaternion); ok {
		return q
	}
	return newDualQuaternionFromPose(p.Point(), p.Orientation())
}

// Clone returns a dualQuaternion object identical to this one.
func (q *dualQuaternion) Clone() *dualQuaternion {
	// No need for deep copies here, dual quaternions are primitives all the way down
	return &dualQuaternion{q.Number}
}

// Point returns the translation of the pose as an r3.Vector.
func (q *dualQuaternion) Point() r3.Vector {
	tQuat := q.Translation()
	return r3.Vector{X: tQuat.Dual.Imag, Y: tQuat.Dual.Jmag, Z: tQuat.Dual.Kmag}
}

// Orientation returns the rotation of the pose as an Orientation.
func (q *dualQuaternion) Orientation() Orientation {
	rot := Quaternion(q.Real)
	return &rot
}

// Translation multiplies the dual quaternion by its own conjugate to give a dq where the real part
// is the identity quat and the dual part holds the real world translation.
func (q *dualQuaternion) Translation() dualquat.Number {
	return dualquat.Mul(q.Number, dualquat.Conj(q.Number))
}

// SetTranslation correctly sets the translation quaternion against the rotation.
func (q *dualQuaternion) SetTranslation(pt r3.Vector) {
	q.Dual = quat.Number{Imag: pt.X / 2, Jmag: pt.Y / 2, Kmag: pt.Z / 2}
	q.rotate()
}

// rotate multiplies the dual part of the quaternion by the real part to give the correct rotation.
func (q *dualQuaternion) rotate() {
	q.Dual = quat.Mul(q.Dual, q.Real)
}

// Invert returns a dualQuaternion representing the opposite transformation. So if the input q
// would transform a -> b, the output would transform b -> a.
func (q *dualQuaternion) Invert() *dualQuaternion {
	return &dualQuaternion{dualquat.Number{
		Real: quat.Conj(q.Real),
		Dual: quat.Conj(q.Dual),
	}}
}

// Transformation multiplies the dual quat contained in this dualQuaternion by another dual quat.
func (q *dualQuaternion) Transformation(by dualquat.Number) dualquat.Number {
	// Ensure we are multiplying by a unit dual quaternion
	if vecLen := quat.Abs(by.Real); vecLen != 1 {
		by.Real = quat.Scale(1/vecLen, by.Real)
	}

	return dualquat.Mul(q.Number, by)
}

// transformPoint applies the rigid transformation to a point in space.
func (q *dualQuaternion) transformPoint(pt r3.Vector) r3.Vector {
	p := quat.Number{Imag: pt.X, Jmag: pt.Y, Kmag: pt.Z}
	rotated := quat.Mul(quat.Mul(q.Real, p), quat.Conj(q.Real))
	t := q.Point()
	return r3.Vector{X: rotated.Imag + t.X, Y: rotated.Jmag + t.Y, Z: rotated.Kmag + t.Z}
}

// toDeltaR3 returns the difference between two dualQuaternions as a six-element vector, using an
// R3 angle axis for the orientation difference. We use quaternion/angle axis for this because
// distances are well-defined.
func (q *dualQuaternion) toDeltaR3(other *dualQuaternion) []float64 {
	ret := make([]float64, 6)

	quatBetween := quat.Mul(other.Real, quat.Conj(q.Real))

	otherTrans := other.Point()
	mTrans := q.Point()
	aa := QuatToR3AA(quatBetween)
	ret[0] = otherTrans.X - mTrans.X
	ret[1] = otherTrans.Y - mTrans.Y
	ret[2] = otherTrans.Z - mTrans.Z
	ret[3] = aa.RX
	ret[4] = aa.RY
	ret[5] = aa.RZ
	return ret
}
