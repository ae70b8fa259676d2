package referenceframe

import (
	"encoding/json"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	spatial "github.com/armature-robotics/interaction/spatialmath"
)

// ModelConfig represents all supported fields in a kinematics JSON file.
type ModelConfig struct {
	Name   string        `json:"name"`
	Links  []LinkConfig  `json:"links"`
	Joints []JointConfig `json:"joints"`
}

// LinkConfig is a static link between two joints.
type LinkConfig struct {
	ID          string             `json:"id"`
	Parent      string             `json:"parent"`
	Translation TranslationConfig  `json:"translation"`
	Orientation *OrientationConfig `json:"orientation,omitempty"`
}

// JointConfig is a movable joint in a kinematic chain.
type JointConfig struct {
	ID     string     `json:"id"`
	Type   string     `json:"type"`
	Parent string     `json:"parent"`
	Axis   AxisConfig `json:"axis"`
	Max    float64    `json:"max"` // in mm, or degrees for revolute joints
	Min    float64    `json:"min"`
}

// TranslationConfig is a translation in mm.
type TranslationConfig struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// OrientationConfig is an axis angle with the rotation expressed in degrees.
type OrientationConfig struct {
	Type  string       `json:"type"`
	Value spatial.R4AA `json:"value"`
}

// AxisConfig is the axis of motion of a joint.
type AxisConfig struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

const (
	// RevoluteJoint is the string to use in the "type" field of a joint rotating around its axis.
	RevoluteJoint = "revolute"
	// PrismaticJoint is the string to use in the "type" field of a joint translating along its axis.
	PrismaticJoint = "prismatic"
)

// ParseModelJSONFile will read a given file and parse the contained kinematics JSON data into an
// equivalent Model.
func ParseModelJSONFile(filename, modelName string) (Model, error) {
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read json file")
	}
	return UnmarshalModelJSON(jsonData, modelName)
}

// UnmarshalModelJSON will parse the given JSON data into a kinematics model. modelName sets the
// name of the model, will use the name from the JSON if string is empty.
func UnmarshalModelJSON(jsonData []byte, modelName string) (Model, error) {
	cfg := &ModelConfig{}
	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}
	if modelName != "" {
		cfg.Name = modelName
	}
	return cfg.ParseConfig()
}

// ParseConfig converts the ModelConfig struct into a Model. The kinematic chain is assembled by
// walking the parent references from "world" out to the single chain tip.
func (cfg *ModelConfig) ParseConfig() (Model, error) {
	model := NewSimpleModel(cfg.Name)

	// index elements by parent so the chain can be walked in order
	childByParent := map[string]Frame{}
	nameSet := map[string]struct{}{}

	addChild := func(parent, id string, frame Frame) error {
		if id == "" {
			return ErrEmptyStringFrameName
		}
		if _, ok := nameSet[id]; ok {
			return NewFrameAlreadyExistsError(id)
		}
		nameSet[id] = struct{}{}
		if _, ok := childByParent[parent]; ok {
			return errors.Errorf("more than one frame has parent %q, kinematic chains must not branch", parent)
		}
		childByParent[parent] = frame
		return nil
	}

	for _, link := range cfg.Links {
		pose := spatial.NewPoseFromPoint(r3.Vector{X: link.Translation.X, Y: link.Translation.Y, Z: link.Translation.Z})
		if link.Orientation != nil {
			aa := link.Orientation.Value
			aa.Theta = spatial.DegToRad(aa.Theta)
			pose = spatial.NewPose(pose.Point(), &aa)
		}
		frame, err := NewStaticFrame(link.ID, pose)
		if err != nil {
			return nil, err
		}
		if err := addChild(link.Parent, link.ID, frame); err != nil {
			return nil, err
		}
	}

	for _, joint := range cfg.Joints {
		axis := spatial.R4AA{RX: joint.Axis.X, RY: joint.Axis.Y, RZ: joint.Axis.Z}
		var frame Frame
		var err error
		switch joint.Type {
		case RevoluteJoint:
			frame, err = NewRotationalFrame(joint.ID, axis,
				Limit{Min: spatial.DegToRad(joint.Min), Max: spatial.DegToRad(joint.Max)})
		case PrismaticJoint:
			frame, err = NewTranslationalFrame(joint.ID, r3.Vector{X: joint.Axis.X, Y: joint.Axis.Y, Z: joint.Axis.Z},
				Limit{Min: joint.Min, Max: joint.Max})
		default:
			return nil, errors.Errorf("unsupported joint type detected: %q", joint.Type)
		}
		if err != nil {
			return nil, err
		}
		if err := addChild(joint.Parent, joint.ID, frame); err != nil {
			return nil, err
		}
	}

	// walk from world to the tip
	parent := World
	for len(model.OrdTransforms) < len(nameSet) {
		next, ok := childByParent[parent]
		if !ok {
			return nil, errors.Errorf("kinematic chain is broken, no frame has parent %q", parent)
		}
		model.OrdTransforms = append(model.OrdTransforms, next)
		parent = next.Name()
	}

	return model, nil
}
