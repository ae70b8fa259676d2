package referenceframe

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	spatial "github.com/armature-robotics/interaction/spatialmath"
)

func TestSimpleFrameSystem(t *testing.T) {
	fs := NewEmptySimpleFrameSystem("test")
	test.That(t, fs.World().Name(), test.ShouldEqual, World)

	camera, err := NewStaticFrame("camera", spatial.NewPoseFromPoint(r3.Vector{X: 0, Y: 0, Z: 10}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fs.AddFrame(camera, fs.World()), test.ShouldBeNil)

	base, err := NewStaticFrame("base", spatial.NewPoseFromPoint(r3.Vector{X: 5}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fs.AddFrame(base, fs.World()), test.ShouldBeNil)

	// duplicate names are rejected
	dup := NewZeroStaticFrame("camera")
	test.That(t, fs.AddFrame(dup, fs.World()), test.ShouldNotBeNil)

	// unknown parents are rejected
	orphan := NewZeroStaticFrame("orphan")
	test.That(t, fs.AddFrame(orphan, NewZeroStaticFrame("ghost")), test.ShouldNotBeNil)

	test.That(t, fs.GetFrame("camera"), test.ShouldEqual, camera)
	test.That(t, fs.GetFrame("nope"), test.ShouldBeNil)
}

func TestTransformPose(t *testing.T) {
	fs := NewEmptySimpleFrameSystem("test")
	base, err := NewStaticFrame("base", spatial.NewPoseFromPoint(r3.Vector{X: 5}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fs.AddFrame(base, fs.World()), test.ShouldBeNil)

	// a point at the base origin is at x=5 in the world
	pose, err := fs.TransformPose(spatial.NewZeroPose(), "base", World)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Point().X, test.ShouldAlmostEqual, 5)

	// and the reverse
	pose, err = fs.TransformPose(spatial.NewZeroPose(), World, "base")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Point().X, test.ShouldAlmostEqual, -5)

	// unknown frames produce errors
	_, err = fs.TransformPose(spatial.NewZeroPose(), "ghost", World)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTransformPoseNested(t *testing.T) {
	fs := NewEmptySimpleFrameSystem("test")
	base, err := NewStaticFrame("base", spatial.NewPoseFromPoint(r3.Vector{X: 5}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fs.AddFrame(base, fs.World()), test.ShouldBeNil)

	// mast is rotated 90 degrees about Z relative to base
	mast, err := NewStaticFrame("mast", spatial.NewPose(
		r3.Vector{Z: 2}, &spatial.R4AA{Theta: math.Pi / 2, RZ: 1}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fs.AddFrame(mast, base), test.ShouldBeNil)

	// +X in mast coordinates is +Y in world coordinates
	pose, err := fs.TransformPose(spatial.NewPoseFromPoint(r3.Vector{X: 1}), "mast", World)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Point().X, test.ShouldAlmostEqual, 5, 1e-8)
	test.That(t, pose.Point().Y, test.ShouldAlmostEqual, 1, 1e-8)
	test.That(t, pose.Point().Z, test.ShouldAlmostEqual, 2, 1e-8)

	// movable frames cannot be used for static transforms
	joint, err := NewRotationalFrame("joint", spatial.R4AA{RZ: 1}, Limit{Min: -1, Max: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fs.AddFrame(joint, fs.World()), test.ShouldBeNil)
	_, err = fs.TransformPose(spatial.NewZeroPose(), "joint", World)
	test.That(t, err, test.ShouldNotBeNil)
}
