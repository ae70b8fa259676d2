package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/num/quat"
)

// OrientationVector containing ox, oy, oz, theta represents an orientation vector
// Structured similarly to an angle axis, an orientation vector works differently. Rather than
// representing an orientation with an arbitrary axis and a rotation around it from an origin, an
// orientation vector represents orientation such that the ox/oy/oz components represent the
// point on the cartesian unit sphere at which your end effector is pointing from the origin, and
// that unit vector forms an axis around which theta rotates. This means that incrementing/
// decrementing theta will perform an in-line rotation of the end effector.
type OrientationVector struct {
	Theta float64 `json:"th"`
	OX    float64 `json:"x"`
	OY    float64 `json:"y"`
	OZ    float64 `json:"z"`
}

// OrientationVectorDegrees is the orientation vector between two objects, but expressed in degrees rather than radians.
// Because protobuf is in degrees, this is necessary.
type OrientationVectorDegrees struct {
	Theta float64 `json:"th"`
	OX    float64 `json:"x"`
	OY    float64 `json:"y"`
	OZ    float64 `json:"z"`
}

// NewOrientationVector creates an empty orientation vector pointing along +Z.
func NewOrientationVector() *OrientationVector {
	return &OrientationVector{Theta: 0, OX: 0, OY: 0, OZ: 1}
}

// Degrees converts the orientation vector to degrees.
func (ov *OrientationVector) Degrees() *OrientationVectorDegrees {
	return &OrientationVectorDegrees{Theta: radToDeg * ov.Theta, OX: ov.OX, OY: ov.OY, OZ: ov.OZ}
}

// Radians converts a degree orientation vector to radians.
func (ovd *OrientationVectorDegrees) Radians() *OrientationVector {
	return &OrientationVector{Theta: degToRad * ovd.Theta, OX: ovd.OX, OY: ovd.OY, OZ: ovd.OZ}
}

// Normalize scales the x, y, and z components of an orientation vector to be on the unit sphere.
func (ov *OrientationVector) Normalize() {
	length := math.Sqrt(ov.OX*ov.OX + ov.OY*ov.OY + ov.OZ*ov.OZ)
	if length == 0 {
		ov.OZ = 1
		return
	}
	ov.OX /= length
	ov.OY /= length
	ov.OZ /= length
}

// OrientationVectorRadians returns the orientation vector itself.
func (ov *OrientationVector) OrientationVectorRadians() *OrientationVector {
	return ov
}

// OrientationVectorDegrees returns orientation as an orientation vector (in degrees).
func (ov *OrientationVector) OrientationVectorDegrees() *OrientationVectorDegrees {
	return ov.Degrees()
}

// AxisAngles returns the orientation in axis angle representation.
func (ov *OrientationVector) AxisAngles() *R4AA {
	return QuatToR4AA(ov.Quaternion())
}

// EulerAngles returns orientation in Euler angle representation.
func (ov *OrientationVector) EulerAngles() *EulerAngles {
	return QuatToEulerAngles(ov.Quaternion())
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (ov *OrientationVector) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(ov.Quaternion())
}

// Quaternion returns orientation in quaternion representation.
// The rotation that takes the +Z axis to (OX, OY, OZ) is built from the longitude/latitude of the
// direction vector, then theta spins the end effector about that direction.
func (ov *OrientationVector) Quaternion() quat.Number {
	ov.Normalize()

	lat := math.Acos(ov.OZ)
	lon := 0.0
	if 1-math.Abs(ov.OZ) > angleEpsilon*angleEpsilon {
		lon = math.Atan2(ov.OY, ov.OX)
	}

	qz := func(a float64) quat.Number {
		return quat.Number{Real: math.Cos(a / 2), Kmag: math.Sin(a / 2)}
	}
	qy := func(a float64) quat.Number {
		return quat.Number{Real: math.Cos(a / 2), Jmag: math.Sin(a / 2)}
	}

	return quat.Mul(quat.Mul(qz(lon), qy(lat)), qz(ov.Theta))
}

// OrientationVectorRadians returns orientation as an orientation vector (in radians).
func (ovd *OrientationVectorDegrees) OrientationVectorRadians() *OrientationVector {
	return ovd.Radians()
}

// OrientationVectorDegrees returns the orientation vector itself.
func (ovd *OrientationVectorDegrees) OrientationVectorDegrees() *OrientationVectorDegrees {
	return ovd
}

// AxisAngles returns the orientation in axis angle representation.
func (ovd *OrientationVectorDegrees) AxisAngles() *R4AA {
	return ovd.Radians().AxisAngles()
}

// Quaternion returns orientation in quaternion representation.
func (ovd *OrientationVectorDegrees) Quaternion() quat.Number {
	return ovd.Radians().Quaternion()
}

// EulerAngles returns orientation in Euler angle representation.
func (ovd *OrientationVectorDegrees) EulerAngles() *EulerAngles {
	return ovd.Radians().EulerAngles()
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (ovd *OrientationVectorDegrees) RotationMatrix() *RotationMatrix {
	return ovd.Radians().RotationMatrix()
}

// QuatToOV converts a quaternion to an orientation vector.
func QuatToOV(q quat.Number) *OrientationVector {
	xAxis := quat.Number{Imag: -1}
	zAxis := quat.Number{Kmag: 1}
	ov := &OrientationVector{}
	// Get the transform of our +X and +Z points
	newX := quat.Mul(quat.Mul(q, xAxis), quat.Conj(q))
	newZ := quat.Mul(quat.Mul(q, zAxis), quat.Conj(q))
	ov.OX = newZ.Imag
	ov.OY = newZ.Jmag
	ov.OZ = newZ.Kmag

	// The contents of newX.Kmag are not in radians but we can use angleEpsilon anyway to check how
	// close we are to the pole because it's a convenient small number
	if 1-math.Abs(newZ.Kmag) < angleEpsilon {
		// Special case for when we point directly along the Z axis
		// Get the vector normal to the local-x, global-z, origin plane
		ov.Theta = -math.Atan2(newX.Jmag, -newX.Imag)
		if newZ.Kmag < 0 {
			ov.Theta = -math.Atan2(newX.Jmag, newX.Imag)
		}
	} else {
		v1 := mgl64.Vec3{newZ.Imag, newZ.Jmag, newZ.Kmag}
		v2 := mgl64.Vec3{newX.Imag, newX.Jmag, newX.Kmag}

		// Get the vector normal to the local-x, local-z, origin plane
		norm1 := v1.Cross(v2)

		// Get the vector normal to the global-z, local-z, origin plane
		norm2 := v1.Cross(mgl64.Vec3{zAxis.Imag, zAxis.Jmag, zAxis.Kmag})

		// For theta, we find the angle between the planes defined by local-x, global-z, origin and
		// local-x, local-z, origin
		cosTheta := norm1.Dot(norm2) / (norm1.Len() * norm2.Len())
		// Account for floating point error
		if cosTheta > 1 {
			cosTheta = 1
		}
		if cosTheta < -1 {
			cosTheta = -1
		}

		theta := math.Acos(cosTheta)
		if theta > angleEpsilon {
			// Acos will always produce a positive number, we need to determine directionality of the angle.
			// We rotate newZ by -theta around the newX axis and see if we wind up coplanar with
			// local-x, global-z, origin. If so theta is negative, otherwise positive.
			// An R4AA is a convenient way to rotate a point by an amount around an arbitrary axis.
			aa := R4AA{Theta: -theta, RX: ov.OX, RY: ov.OY, RZ: ov.OZ}
			q2 := aa.ToQuat()
			testZ := quat.Mul(quat.Mul(q2, zAxis), quat.Conj(q2))
			norm3 := v1.Cross(mgl64.Vec3{testZ.Imag, testZ.Jmag, testZ.Kmag})
			cosTest := norm1.Dot(norm3) / (norm1.Len() * norm3.Len())
			if 1-cosTest < angleEpsilon*angleEpsilon {
				ov.Theta = -theta
			} else {
				ov.Theta = theta
			}
		} else {
			ov.Theta = 0
		}
	}

	return ov
}
