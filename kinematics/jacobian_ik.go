package kinematics

import (
	"context"
	"math"
	"math/rand"

	"github.com/edaniels/golog"
	"gonum.org/v1/gonum/mat"

	frame "github.com/armature-robotics/interaction/referenceframe"
	spatial "github.com/armature-robotics/interaction/spatialmath"
)

// JacobianIK is a damped least squares inverse kinematics solver. It iteratively builds a numeric
// jacobian of the model around the current joint positions and steps towards the goal, with
// random restarts when progress stalls.
type JacobianIK struct {
	id            int
	model         frame.Model
	logger        golog.Logger
	lowerBound    []float64
	upperBound    []float64
	maxIterations int
	epsilon       float64
	jump          float64
	lambda        float64
	solveWeights  SolverDistanceWeights
	randSeed      *rand.Rand
}

// CreateJacobianIKSolver creates a jacobian IK solver for the given model.
func CreateJacobianIKSolver(model frame.Model, logger golog.Logger) *JacobianIK {
	ik := &JacobianIK{id: 0, model: model, logger: logger}
	//nolint:gosec
	ik.randSeed = rand.New(rand.NewSource(1))
	// How close we want to get to the goal
	ik.epsilon = 0.01
	ik.maxIterations = 5000
	ik.lowerBound, ik.upperBound = limitsToArrays(model.DoF())
	// How much to adjust joints to determine slope
	ik.jump = 1e-8
	// Damping factor, trades step size against stability near singularities
	ik.lambda = 0.1
	ik.solveWeights = NewDefaultSolverDistanceWeights()
	return ik
}

// Model returns the model the solver is solving for.
func (ik *JacobianIK) Model() frame.Model {
	return ik.model
}

// SetSolveWeights sets the weights used when measuring distance to the goal.
func (ik *JacobianIK) SetSolveWeights(weights SolverDistanceWeights) {
	ik.solveWeights = weights
}

// SetMaxIterations sets how many iterations the solver will run before giving up.
func (ik *JacobianIK) SetMaxIterations(iterations int) {
	ik.maxIterations = iterations
}

// SetSeed sets the random seed of this solver.
func (ik *JacobianIK) SetSeed(seed int64) {
	//nolint:gosec
	ik.randSeed = rand.New(rand.NewSource(seed))
}

// Solve runs the solver from the seed position, writing the first satisfactory solution found to
// the channel. A non-nil error is returned if no solution could be found before the iteration
// limit, or if the context is cancelled.
func (ik *JacobianIK) Solve(ctx context.Context, c chan<- []frame.Input, goal spatial.Pose, seed []frame.Input) error {
	dof := len(ik.model.DoF())
	if len(seed) != dof {
		return newBadSeedLengthError(len(seed), dof)
	}

	q := ik.clamp(frame.InputsToFloats(seed))
	// Iterations since last improvement; too many and we restart from a random configuration
	stall := 0
	bestDist := math.Inf(1)

	for iteration := 0; iteration < ik.maxIterations; iteration++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		currPos, err := ik.model.Transform(frame.FloatsToInputs(q))
		if err != nil {
			return err
		}
		dx := spatial.PoseDelta(currPos, goal)
		dist := WeightedSquaredNorm(dx, ik.solveWeights)

		if dist < ik.epsilon*ik.epsilon {
			solution := frame.FloatsToInputs(q)
			select {
			case c <- solution:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		}

		if dist < bestDist-1e-12 {
			bestDist = dist
			stall = 0
		} else {
			stall++
		}
		if stall > 75 {
			ik.logger.Debugf("solver %d stalled at distance %f, restarting from a random configuration", ik.id, dist)
			q = ik.clamp(frame.GenerateRandomConfiguration(ik.model, ik.randSeed))
			bestDist = math.Inf(1)
			stall = 0
			continue
		}

		dq, err := ik.step(q, dx)
		if err != nil {
			return err
		}
		for j := range q {
			q[j] += dq[j]
		}
		q = ik.clamp(q)
	}
	return ErrNoSolutions
}

// step computes a damped least squares update towards the goal delta.
// Solves (J^T J + lambda^2 I) dq = J^T dx rather than inverting the jacobian directly, which
// keeps the step bounded near singular configurations.
func (ik *JacobianIK) step(q, dx []float64) ([]float64, error) {
	dof := len(q)
	jac := mat.NewDense(len(dx), dof, nil)

	currPos, err := ik.model.Transform(frame.FloatsToInputs(q))
	if err != nil {
		return nil, err
	}
	for j := 0; j < dof; j++ {
		qj := append([]float64{}, q...)
		qj[j] += ik.jump
		jPos, err := ik.model.Transform(frame.FloatsToInputs(qj))
		if err != nil {
			return nil, err
		}
		delta := spatial.PoseDelta(currPos, jPos)
		for i, d := range delta {
			jac.Set(i, j, d/ik.jump)
		}
	}

	var jtj mat.Dense
	jtj.Mul(jac.T(), jac)
	for i := 0; i < dof; i++ {
		jtj.Set(i, i, jtj.At(i, i)+ik.lambda*ik.lambda)
	}

	var jtdx mat.VecDense
	jtdx.MulVec(jac.T(), mat.NewVecDense(len(dx), dx))

	var dq mat.VecDense
	if err := dq.SolveVec(&jtj, &jtdx); err != nil {
		return nil, err
	}
	return dq.RawVector().Data, nil
}

// clamp returns the joint positions bounded to the model limits.
func (ik *JacobianIK) clamp(q []float64) []float64 {
	for j := range q {
		if lower := ik.lowerBound[j]; q[j] < lower && !math.IsInf(lower, -1) {
			q[j] = lower
		}
		if upper := ik.upperBound[j]; q[j] > upper && !math.IsInf(upper, 1) {
			q[j] = upper
		}
	}
	return q
}
