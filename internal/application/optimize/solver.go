package optimize

import (
	"context"
	"sort"
	"time"

	"github.com/wareflow/wareflow-go/internal/domain/shared"
	"github.com/wareflow/wareflow-go/pkg/utils"
)

// Solver is a precedence-respecting greedy solver. The precedence
// constraints (stream order, heavy-first inside a stream, critical boost)
// induce a total order over the tasks, so the schedule is a chain; the
// solver's freedom is the forklift choice per task, which it makes by
// minimal cost with a workload-balance tiebreak.
type Solver struct {
	clock shared.Clock
}

// NewSolver creates a solver.
func NewSolver(clock shared.Clock) *Solver {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Solver{clock: clock}
}

// Solve schedules every task of the problem. It returns StatusInfeasible
// when no forklift is available or a wave deadline cannot be met, and
// StatusFeasible when the budget expired or a warm-start choice displaced
// the cost-minimal one; otherwise StatusOptimal.
func (s *Solver) Solve(ctx context.Context, p Problem) Solution {
	begin := s.clock.Now()
	solution := Solution{Status: StatusOptimal}

	if len(p.Tasks) == 0 {
		solution.SolveTime = s.clock.Now().Sub(begin)
		return solution
	}
	if len(p.Forklifts) == 0 || p.Cost == nil {
		solution.Status = StatusInfeasible
		for _, t := range p.Tasks {
			solution.UnassignedTasks = append(solution.UnassignedTasks, t.TaskID)
		}
		solution.SolveTime = s.clock.Now().Sub(begin)
		return solution
	}

	tasks := orderTasks(p.Tasks)
	workload := make(map[string]float64, len(p.Forklifts))
	deadline := time.Time{}
	if p.Budget > 0 {
		deadline = begin.Add(p.Budget)
	}

	frontier := 0.0
	for i, task := range tasks {
		if ctx.Err() != nil || (!deadline.IsZero() && s.clock.Now().After(deadline)) {
			// Budget expired: return the chain built so far.
			solution.Status = StatusFeasible
			for _, rest := range tasks[i:] {
				solution.UnassignedTasks = append(solution.UnassignedTasks, rest.TaskID)
			}
			break
		}

		forklift, cost, displacedWarm := s.pick(p, task, workload)
		if displacedWarm {
			solution.Status = StatusFeasible
		}

		start := frontier
		end := start + cost
		if task.WaveDeadline != nil && p.Start.Add(time.Duration(end*float64(time.Second))).After(*task.WaveDeadline) {
			solution.Status = StatusInfeasible
			for _, rest := range tasks[i:] {
				solution.UnassignedTasks = append(solution.UnassignedTasks, rest.TaskID)
			}
			break
		}

		solution.Assignments = append(solution.Assignments, PlannedAssignment{
			TaskID:       task.TaskID,
			ForkliftID:   forklift,
			StartOffsetS: start,
			EndOffsetS:   end,
			CostS:        cost,
		})
		workload[forklift] += cost
		solution.TotalTravelS += cost
		frontier = end
	}

	solution.ObjectiveS = solution.TotalTravelS
	solution.WorkloadVariance = workloadVariance(p.Forklifts, workload)
	if p.BalanceWeight > 0 {
		solution.ObjectiveS += p.BalanceWeight * solution.WorkloadVariance
	}
	solution.SolveTime = s.clock.Now().Sub(begin)
	return solution
}

// pick chooses the forklift for the task: the warm-start choice when its
// cost ties the minimum, else minimal cost with lower accumulated workload
// breaking ties.
func (s *Solver) pick(p Problem, task TaskSpec, workload map[string]float64) (forkliftID string, cost float64, displacedWarm bool) {
	bestID := p.Forklifts[0].ForkliftID
	bestCost := p.Cost(task, p.Forklifts[0])
	for _, f := range p.Forklifts[1:] {
		c := p.Cost(task, f)
		if c < bestCost || (c == bestCost && workload[f.ForkliftID] < workload[bestID]) {
			bestID, bestCost = f.ForkliftID, c
		}
	}

	if warm, ok := p.WarmStart[task.TaskID]; ok && warm != bestID {
		for _, f := range p.Forklifts {
			if f.ForkliftID != warm {
				continue
			}
			if c := p.Cost(task, f); c <= bestCost {
				return warm, c, false
			}
			// Warm choice abandoned for a cheaper forklift: the solution
			// deviates from the prior one.
			return bestID, bestCost, true
		}
	}
	return bestID, bestCost, false
}

// orderTasks linearizes the precedence constraints: stream sequence first,
// critical tasks ahead of their stream peers, then descending weight. The
// critical boost never overtakes an earlier stream.
func orderTasks(tasks []TaskSpec) []TaskSpec {
	out := make([]TaskSpec, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StreamSequence != out[j].StreamSequence {
			return out[i].StreamSequence < out[j].StreamSequence
		}
		if out[i].Critical != out[j].Critical {
			return out[i].Critical
		}
		return out[i].WeightKg > out[j].WeightKg
	})
	return out
}

func workloadVariance(forklifts []ForkliftSpec, workload map[string]float64) float64 {
	if len(forklifts) == 0 {
		return 0
	}
	loads := make([]float64, 0, len(forklifts))
	for _, f := range forklifts {
		loads = append(loads, workload[f.ForkliftID])
	}
	return utils.Variance(loads)
}
