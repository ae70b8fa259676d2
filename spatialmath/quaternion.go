package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is an orientation in quaternion representation.
type Quaternion quat.Number

// NewQuaternion returns an Orientation from the given quaternion components. The quaternion is
// normalized, since a rotation quaternion must be a unit quaternion.
func NewQuaternion(w, x, y, z float64) Orientation {
	q := normalize(quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z})
	ret := Quaternion(q)
	return &ret
}

// Quaternion returns orientation in quaternion representation.
func (q *Quaternion) Quaternion() quat.Number {
	return quat.Number(*q)
}

// AxisAngles returns the orientation in axis angle representation.
func (q *Quaternion) AxisAngles() *R4AA {
	return QuatToR4AA(q.Quaternion())
}

// OrientationVectorRadians returns orientation as an orientation vector (in radians).
func (q *Quaternion) OrientationVectorRadians() *OrientationVector {
	return QuatToOV(q.Quaternion())
}

// OrientationVectorDegrees returns orientation as an orientation vector (in degrees).
func (q *Quaternion) OrientationVectorDegrees() *OrientationVectorDegrees {
	return QuatToOV(q.Quaternion()).Degrees()
}

// EulerAngles returns orientation in Euler angle representation.
func (q *Quaternion) EulerAngles() *EulerAngles {
	return QuatToEulerAngles(q.Quaternion())
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (q *Quaternion) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(q.Quaternion())
}

// QuaternionAlmostEqual checks whether two quaternions represent the same orientation,
// allowing for the double cover (q and -q are the same rotation).
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	if quatAlmostEqual(a, b, tol) {
		return true
	}
	return quatAlmostEqual(a, Flip(b), tol)
}

func quatAlmostEqual(a, b quat.Number, tol float64) bool {
	return math.Abs(a.Real-b.Real) < tol &&
		math.Abs(a.Imag-b.Imag) < tol &&
		math.Abs(a.Jmag-b.Jmag) < tol &&
		math.Abs(a.Kmag-b.Kmag) < tol
}

func normalize(q quat.Number) quat.Number {
	length := quat.Abs(q)
	if length == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/length, q)
}

// slerp performs a spherical linear interpolation between two unit quaternions.
func slerp(qN1, qN2 quat.Number, by float64) quat.Number {
	dot := qN1.Real*qN2.Real + qN1.Imag*qN2.Imag + qN1.Jmag*qN2.Jmag + qN1.Kmag*qN2.Kmag
	// Take the short way around the sphere
	if dot < 0 {
		qN2 = Flip(qN2)
		dot = -dot
	}
	if dot > 1-1e-10 {
		// Quaternions are nearly parallel, lerp to avoid dividing by a vanishing sin
		return normalize(quat.Add(quat.Scale(1-by, qN1), quat.Scale(by, qN2)))
	}
	theta0 := math.Acos(dot)
	theta := theta0 * by
	s1 := math.Cos(theta) - dot*math.Sin(theta)/math.Sin(theta0)
	s2 := math.Sin(theta) / math.Sin(theta0)
	return normalize(quat.Add(quat.Scale(s1, qN1), quat.Scale(s2, qN2)))
}
