// Package kinematics provides inverse kinematics solvers for kinematic chain models.
package kinematics

import (
	"context"
	"math"

	"go.viam.com/utils"

	frame "github.com/armature-robotics/interaction/referenceframe"
	spatial "github.com/armature-robotics/interaction/spatialmath"
)

// Motions with swing values less than this are considered good enough to do without looking for better ones.
const goodSwingAmt = 1.1

// InverseKinematics defines an interface which, provided with a goal position and seed inputs, will output all found
// solutions to the provided channel until cancelled or otherwise completes.
type InverseKinematics interface {
	// Solve receives a context, the goal pose, and current joint angles.
	// Found solutions are written to the channel until the context is cancelled or the solver gives up.
	Solve(ctx context.Context, c chan<- []frame.Input, goal spatial.Pose, seed []frame.Input) error
	// Model returns the model the solver is solving for.
	Model() frame.Model
	// SetSolveWeights sets the weights used when measuring distance to the goal.
	SetSolveWeights(weights SolverDistanceWeights)
}

// XYZWeights are the weights to apply to each cartesian or orientation component of a distance.
type XYZWeights struct {
	X float64
	Y float64
	Z float64
}

// SolverDistanceWeights describe the relative importance of translation and orientation error
// when determining whether a solution is close enough to the goal.
type SolverDistanceWeights struct {
	Trans  XYZWeights
	Orient XYZWeights
}

// NewDefaultSolverDistanceWeights returns the default weights used by solvers.
// Orientation components are multiplied by 100 since they are usually small, to avoid drift.
func NewDefaultSolverDistanceWeights() SolverDistanceWeights {
	return SolverDistanceWeights{
		Trans:  XYZWeights{1, 1, 1},
		Orient: XYZWeights{100, 100, 100},
	}
}

// toArray returns the SolverDistanceWeights as a slice with the components in the same order as
// the array returned from PoseDelta.
func (dc *SolverDistanceWeights) toArray() []float64 {
	return []float64{dc.Trans.X, dc.Trans.Y, dc.Trans.Z, dc.Orient.X, dc.Orient.Y, dc.Orient.Z}
}

// SquaredNorm returns the dot product of a vector with itself.
func SquaredNorm(vec []float64) float64 {
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	return norm
}

// WeightedSquaredNorm returns the dot product of a vector with itself, applying the given weights to each piece.
func WeightedSquaredNorm(vec []float64, config SolverDistanceWeights) float64 {
	configArr := config.toArray()
	norm := 0.0
	for i, v := range vec {
		norm += v * v * configArr[i]
	}
	return norm
}

func limitsToArrays(limits []frame.Limit) ([]float64, []float64) {
	var min, max []float64
	for _, limit := range limits {
		min = append(min, limit.Min)
		max = append(max, limit.Max)
	}
	return min, max
}

// calcSwingAmount will calculate the distance from the start position to the halfway point, and also the start
// position to the end position, and return the ratio of the two. If the result >1.0, then the halfway point is
// further from the start position than the end position is, and thus solution searching should continue.
func calcSwingAmount(from, to []frame.Input, model frame.Frame) (float64, error) {
	startPos, err := model.Transform(from)
	if err != nil {
		return math.Inf(1), err
	}
	endPos, err := model.Transform(to)
	if err != nil {
		return math.Inf(1), err
	}
	halfPos, err := model.Transform(frame.InterpolateInputs(from, to, 0.5))
	if err != nil {
		return math.Inf(1), err
	}
	// We also check the one-third position in addition to the halfway position, to correct for motions with
	// 1:2 resonance, where a large swing would nevertheless appear to have a reasonable halfway point.
	thirdPos, err := model.Transform(frame.InterpolateInputs(from, to, 0.333333))
	if err != nil {
		return math.Inf(1), err
	}

	endDist := SquaredNorm(spatial.PoseDelta(startPos, endPos))
	halfDist := SquaredNorm(spatial.PoseDelta(startPos, halfPos)) + SquaredNorm(spatial.PoseDelta(endPos, halfPos))
	thirdDist := SquaredNorm(spatial.PoseDelta(startPos, thirdPos)) + SquaredNorm(spatial.PoseDelta(endPos, thirdPos))

	// Prevent division by 0
	if endDist < 0.1 {
		endDist++
		halfDist++
		thirdDist++
	}

	return halfDist/endDist + thirdDist/endDist, nil
}

// BestSolution will select the best solution from a slice of possible solutions for a given model. "Best" is defined
// such that the interpolated halfway point of the motion is most in line with the movement from start to end.
func BestSolution(seedAngles []frame.Input, solutions [][]frame.Input, model frame.Frame) ([]frame.Input, error) {
	var best []frame.Input
	dist := math.Inf(1)
	for _, solution := range solutions {
		newDist, err := calcSwingAmount(seedAngles, solution, model)
		if err != nil {
			return nil, err
		}
		if newDist < dist {
			dist = newDist
			best = solution
		}
	}
	if best == nil {
		return nil, ErrNoSolutions
	}
	return best, nil
}

// BestSolve runs the given solver to completion and returns the best solution found, ranked by
// how directly the arm would move from the seed to the solution.
func BestSolve(ctx context.Context, solver InverseKinematics, goal spatial.Pose, seed []frame.Input) ([]frame.Input, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	solutionGen := make(chan []frame.Input)
	errChan := make(chan error, 1)
	utils.PanicCapturingGo(func() {
		defer close(solutionGen)
		errChan <- solver.Solve(ctx, solutionGen, goal, seed)
	})

	var solutions [][]frame.Input
	for solution := range solutionGen {
		solutions = append(solutions, solution)
	}
	err := <-errChan

	if len(solutions) == 0 {
		if err != nil {
			return nil, err
		}
		return nil, ErrNoSolutions
	}
	return BestSolution(seed, solutions, solver.Model())
}
