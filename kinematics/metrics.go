package kinematics

import (
	spatial "github.com/armature-robotics/interaction/spatialmath"
)

// Metric defines a distance function between two poses.
type Metric interface {
	Distance(from, to spatial.Pose) float64
}

type flexibleMetric struct {
	f func(from, to spatial.Pose) float64
}

func (m *flexibleMetric) Distance(from, to spatial.Pose) float64 {
	return m.f(from, to)
}

// NewBasicMetric wraps a function in a Metric.
func NewBasicMetric(f func(from, to spatial.Pose) float64) Metric {
	return &flexibleMetric{f}
}

// NewSquaredNormMetric is the default distance function between two poses to be used during gradient descent.
func NewSquaredNormMetric() Metric {
	return &flexibleMetric{sqNormDist}
}

func sqNormDist(from, to spatial.Pose) float64 {
	return SquaredNorm(spatial.PoseDelta(from, to))
}
