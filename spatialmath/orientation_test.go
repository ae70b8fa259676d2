package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestQuatToR4AARoundTrip(t *testing.T) {
	start := &R4AA{Theta: math.Pi / 3, RX: 0, RY: 1, RZ: 0}
	q := start.ToQuat()
	end := QuatToR4AA(q)
	test.That(t, end.Theta, test.ShouldAlmostEqual, start.Theta, 1e-8)
	test.That(t, end.RX, test.ShouldAlmostEqual, start.RX, 1e-8)
	test.That(t, end.RY, test.ShouldAlmostEqual, start.RY, 1e-8)
	test.That(t, end.RZ, test.ShouldAlmostEqual, start.RZ, 1e-8)
}

func TestEulerAnglesRoundTrip(t *testing.T) {
	start := &EulerAngles{Roll: 0.1, Pitch: -0.3, Yaw: 0.7}
	end := QuatToEulerAngles(start.Quaternion())
	test.That(t, end.Roll, test.ShouldAlmostEqual, start.Roll, 1e-8)
	test.That(t, end.Pitch, test.ShouldAlmostEqual, start.Pitch, 1e-8)
	test.That(t, end.Yaw, test.ShouldAlmostEqual, start.Yaw, 1e-8)
}

func TestRotationMatrixRoundTrip(t *testing.T) {
	start := &R4AA{Theta: 1.2, RX: 1, RY: 1, RZ: 0}
	start.Normalize()
	rm := QuatToRotationMatrix(start.ToQuat())
	test.That(t, QuaternionAlmostEqual(rm.Quaternion(), start.ToQuat(), 1e-8), test.ShouldBeTrue)
}

func TestRotationMatrixMul(t *testing.T) {
	rot := &R4AA{Theta: math.Pi / 2, RZ: 1}
	rm := rot.RotationMatrix()
	v := rm.Mul(r3.Vector{X: 1})
	test.That(t, v.X, test.ShouldAlmostEqual, 0, 1e-8)
	test.That(t, v.Y, test.ShouldAlmostEqual, 1, 1e-8)
}

func TestOrientationBetween(t *testing.T) {
	o1 := &R4AA{Theta: math.Pi / 4, RZ: 1}
	o2 := &R4AA{Theta: 3 * math.Pi / 4, RZ: 1}
	diff := OrientationBetween(o1, o2)
	test.That(t, diff.AxisAngles().Theta, test.ShouldAlmostEqual, math.Pi/2, 1e-8)
}

func TestZeroOrientationVector(t *testing.T) {
	ov := QuatToOV(quat.Number{Real: 1})
	test.That(t, ov.OX, test.ShouldAlmostEqual, 0)
	test.That(t, ov.OY, test.ShouldAlmostEqual, 0)
	test.That(t, ov.OZ, test.ShouldAlmostEqual, 1)
	test.That(t, ov.Theta, test.ShouldAlmostEqual, 0)
}

func TestOrientationVectorDirection(t *testing.T) {
	// rotating -90 degrees about X points the end effector along +Y
	o := &R4AA{Theta: -math.Pi / 2, RX: 1}
	ov := QuatToOV(o.ToQuat())
	test.That(t, ov.OX, test.ShouldAlmostEqual, 0, 1e-8)
	test.That(t, ov.OY, test.ShouldAlmostEqual, 1, 1e-8)
	test.That(t, ov.OZ, test.ShouldAlmostEqual, 0, 1e-8)
}

func TestNewQuaternionNormalizes(t *testing.T) {
	o := NewQuaternion(2, 0, 0, 0)
	test.That(t, QuaternionAlmostEqual(o.Quaternion(), quat.Number{Real: 1}, 1e-8), test.ShouldBeTrue)

	o = NewQuaternion(0, 3, 0, 0)
	test.That(t, QuaternionAlmostEqual(o.Quaternion(), quat.Number{Imag: 1}, 1e-8), test.ShouldBeTrue)
}

func TestOrientationInverse(t *testing.T) {
	o := &R4AA{Theta: 1.1, RX: 1, RY: 2, RZ: -1}
	o.Normalize()
	inv := OrientationInverse(o)
	undone := quat.Mul(o.Quaternion(), inv.Quaternion())
	test.That(t, QuaternionAlmostEqual(undone, quat.Number{Real: 1}, 1e-8), test.ShouldBeTrue)
}

func TestQuaternionAlmostEqualFlip(t *testing.T) {
	q := (&R4AA{Theta: 1, RZ: 1}).ToQuat()
	test.That(t, QuaternionAlmostEqual(q, Flip(q), 1e-8), test.ShouldBeTrue)
}
