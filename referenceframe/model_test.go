package referenceframe

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	spatial "github.com/armature-robotics/interaction/spatialmath"
)

// a two link planar arm with unit length links, rotating about Z
func make2DOFArm(t *testing.T) *SimpleModel {
	t.Helper()
	model := NewSimpleModel("2dof")
	j1, err := NewRotationalFrame("j1", spatial.R4AA{RZ: 1}, Limit{Min: -math.Pi, Max: math.Pi})
	test.That(t, err, test.ShouldBeNil)
	l1, err := NewStaticFrame("l1", spatial.NewPoseFromPoint(r3.Vector{X: 1}))
	test.That(t, err, test.ShouldBeNil)
	j2, err := NewRotationalFrame("j2", spatial.R4AA{RZ: 1}, Limit{Min: -math.Pi, Max: math.Pi})
	test.That(t, err, test.ShouldBeNil)
	l2, err := NewStaticFrame("l2", spatial.NewPoseFromPoint(r3.Vector{X: 1}))
	test.That(t, err, test.ShouldBeNil)
	model.OrdTransforms = []Frame{j1, l1, j2, l2}
	return model
}

func TestModelTransform(t *testing.T) {
	model := make2DOFArm(t)
	test.That(t, model.DoF(), test.ShouldHaveLength, 2)

	// stretched along the X axis
	pose, err := model.Transform(FloatsToInputs([]float64{0, 0}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Point().X, test.ShouldAlmostEqual, 2, 1e-8)
	test.That(t, pose.Point().Y, test.ShouldAlmostEqual, 0, 1e-8)

	// elbow bent 90 degrees
	pose, err = model.Transform(FloatsToInputs([]float64{0, math.Pi / 2}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Point().X, test.ShouldAlmostEqual, 1, 1e-8)
	test.That(t, pose.Point().Y, test.ShouldAlmostEqual, 1, 1e-8)

	// whole arm rotated 90 degrees
	pose, err = model.Transform(FloatsToInputs([]float64{math.Pi / 2, 0}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Point().X, test.ShouldAlmostEqual, 0, 1e-8)
	test.That(t, pose.Point().Y, test.ShouldAlmostEqual, 2, 1e-8)

	// wrong number of inputs
	_, err = model.Transform(FloatsToInputs([]float64{0}))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestModelAlmostEquals(t *testing.T) {
	m1 := make2DOFArm(t)
	m2 := make2DOFArm(t)
	test.That(t, m1.AlmostEquals(m2), test.ShouldBeTrue)

	m2.OrdTransforms = m2.OrdTransforms[:3]
	test.That(t, m1.AlmostEquals(m2), test.ShouldBeFalse)
}

func TestUnmarshalModelJSON(t *testing.T) {
	jsonData := []byte(`{
		"name": "simple2dof",
		"links": [
			{"id": "upper", "parent": "j1", "translation": {"x": 1, "y": 0, "z": 0}},
			{"id": "forearm", "parent": "j2", "translation": {"x": 1, "y": 0, "z": 0}}
		],
		"joints": [
			{"id": "j1", "type": "revolute", "parent": "world", "axis": {"z": 1}, "min": -180, "max": 180},
			{"id": "j2", "type": "revolute", "parent": "upper", "axis": {"z": 1}, "min": -180, "max": 180}
		]
	}`)
	model, err := UnmarshalModelJSON(jsonData, "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, model.Name(), test.ShouldEqual, "simple2dof")
	test.That(t, model.DoF(), test.ShouldHaveLength, 2)

	pose, err := model.Transform(FloatsToInputs([]float64{0, math.Pi / 2}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Point().X, test.ShouldAlmostEqual, 1, 1e-8)
	test.That(t, pose.Point().Y, test.ShouldAlmostEqual, 1, 1e-8)

	// a broken chain should not parse
	_, err = UnmarshalModelJSON([]byte(`{
		"name": "broken",
		"joints": [{"id": "j1", "type": "revolute", "parent": "nonexistent", "axis": {"z": 1}, "min": -180, "max": 180}]
	}`), "")
	test.That(t, err, test.ShouldNotBeNil)

	// unknown joint types should not parse
	_, err = UnmarshalModelJSON([]byte(`{
		"name": "bad",
		"joints": [{"id": "j1", "type": "helical", "parent": "world", "axis": {"z": 1}, "min": 0, "max": 1}]
	}`), "")
	test.That(t, err, test.ShouldNotBeNil)
}
