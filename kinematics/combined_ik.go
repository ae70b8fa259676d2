package kinematics

import (
	"context"
	"sync"

	"github.com/edaniels/golog"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	frame "github.com/armature-robotics/interaction/referenceframe"
	spatial "github.com/armature-robotics/interaction/spatialmath"
)

// CombinedIK defines the fields necessary to run a combined solver.
type CombinedIK struct {
	solvers []*JacobianIK
	model   frame.Model
	logger  golog.Logger
}

// CreateCombinedIKSolver creates a combined parallel IK solver with a number of jacobian solvers equal to the nCPU
// passed in. Each will be given a different random seed. When asked to solve, all solvers will be run in parallel
// and the first valid found solution will cancel the rest.
func CreateCombinedIKSolver(model frame.Model, logger golog.Logger, nCPU int) *CombinedIK {
	ik := &CombinedIK{model: model, logger: logger}
	if nCPU < 1 {
		nCPU = 1
	}
	for i := 1; i <= nCPU; i++ {
		solver := CreateJacobianIKSolver(model, logger)
		solver.id = i
		solver.SetSeed(int64(i * 1000))
		ik.solvers = append(ik.solvers, solver)
	}
	return ik
}

// Model returns the model the solver is solving for.
func (ik *CombinedIK) Model() frame.Model {
	return ik.model
}

// SetSolveWeights sets the solve weights for all child solvers.
func (ik *CombinedIK) SetSolveWeights(weights SolverDistanceWeights) {
	for _, solver := range ik.solvers {
		solver.SetSolveWeights(weights)
	}
}

// SetMaxIterations sets the iteration budget of each child solver.
func (ik *CombinedIK) SetMaxIterations(iterations int) {
	for _, solver := range ik.solvers {
		solver.SetMaxIterations(iterations)
	}
}

// Solve will initiate solving for the given position in all child solvers, seeding with the specified initial joint
// positions. Solutions are written to the channel as they are found.
func (ik *CombinedIK) Solve(ctx context.Context, c chan<- []frame.Input, goal spatial.Pose, seed []frame.Input) error {
	ik.logger.Debugf("starting joint positions: %v", frame.InputsToFloats(seed))

	ctxWithCancel, cancel := context.WithCancel(ctx)
	defer cancel()

	errChan := make(chan error, len(ik.solvers))
	var activeSolvers sync.WaitGroup
	activeSolvers.Add(len(ik.solvers))

	for _, solver := range ik.solvers {
		thisSolver := solver
		utils.PanicCapturingGo(func() {
			defer activeSolvers.Done()
			errChan <- thisSolver.Solve(ctxWithCancel, c, goal, seed)
		})
	}

	solved := false
	var collectedErrs error
	for i := 0; i < len(ik.solvers); i++ {
		err := <-errChan
		if err == nil {
			// One solver has a solution; tell the others to stop looking
			solved = true
			cancel()
		} else {
			collectedErrs = multierr.Combine(collectedErrs, err)
		}
	}
	activeSolvers.Wait()

	if solved {
		return nil
	}
	return collectedErrs
}
