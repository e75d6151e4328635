package backtest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wareflow/wareflow-go/internal/application/optimize"
	"github.com/wareflow/wareflow-go/internal/application/predict"
	"github.com/wareflow/wareflow-go/internal/domain/history"
)

// simConfig bounds the counterfactual schedule.
type simConfig struct {
	bufferCapacity int
	shiftLength    time.Duration
}

// simWorker is one worker's cursor through the simulated schedule.
type simWorker struct {
	id          string
	name        string
	role        history.WorkerRole
	day         int
	dayActiveS  float64
	tasks       int
	totalActive float64
}

// simResult is the raw output of one simulation pass.
type simResult struct {
	decisions     []Decision
	events        []ScheduleEvent
	optimizedDays int
	optActiveS    float64
	sourceCounts  map[predict.Source]int
	perDayTasks   map[int]int
	perDayActiveS map[int]float64
	perDayBuffer  map[int]float64
	perWorker     map[string]*simWorker
}

// simulate replays the wave's tasks through a counterfactual schedule: the
// same workers, durations from the predictor in replay mode, the buffer as a
// hard capacity constraint, and tasks pooled across day boundaries so work
// from later days may be pulled earlier. Worker choice per queue comes from
// the same assignment solver the tactical loop runs.
func simulate(ctx context.Context, start time.Time, records []history.TaskActionRecord, predictor *predict.Predictor, solver *optimize.Solver, cfg simConfig) *simResult {
	res := &simResult{
		sourceCounts:  make(map[predict.Source]int),
		perDayTasks:   make(map[int]int),
		perDayActiveS: make(map[int]float64),
		perDayBuffer:  make(map[int]float64),
		perWorker:     make(map[string]*simWorker),
	}

	var repl, dist []history.TaskActionRecord
	for _, r := range records {
		if r.StartedAt == nil || r.CompletedAt == nil {
			continue
		}
		if r.Role == history.RoleForklift {
			repl = append(repl, r)
		} else {
			dist = append(dist, r)
		}
	}
	byStart := func(rs []history.TaskActionRecord) {
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].StartedAt.Before(*rs[j].StartedAt) })
	}
	byStart(repl)
	byStart(dist)

	workers := make(map[history.WorkerRole][]*simWorker)
	for _, r := range append(append([]history.TaskActionRecord{}, repl...), dist...) {
		if _, ok := res.perWorker[r.WorkerID]; ok {
			continue
		}
		w := &simWorker{id: r.WorkerID, name: r.WorkerName, role: r.Role, day: 1}
		res.perWorker[r.WorkerID] = w
		workers[r.Role] = append(workers[r.Role], w)
	}

	estimates := make(map[string]predict.Estimate, len(repl)+len(dist))
	for _, r := range append(append([]history.TaskActionRecord{}, repl...), dist...) {
		estimates[r.ID] = predictor.PredictRecord(r)
	}
	plan := make(map[string]string, len(estimates))
	planAssignments(ctx, solver, repl, workers[history.RoleForklift], estimates, plan)
	planAssignments(ctx, solver, dist, workers[history.RolePicker], estimates, plan)

	buffer := 0
	seq := 0
	stalled := false
	for len(repl) > 0 || len(dist) > 0 {
		role, constraint := nextRole(buffer, cfg.bufferCapacity, len(repl), len(dist))
		var queue *[]history.TaskActionRecord
		if role == history.RoleForklift {
			queue = &repl
		} else {
			queue = &dist
		}
		record := (*queue)[0]
		*queue = (*queue)[1:]

		pool := workers[role]
		if len(pool) == 0 {
			seq++
			res.decisions = append(res.decisions, Decision{
				Seq:        seq,
				Day:        res.optimizedDays,
				Type:       DecisionSkipNoWorker,
				WeightKg:   record.WeightKg,
				Constraint: ConstraintNone,
				Reason:     fmt.Sprintf("no %s available for task %s", role, record.ID),
			})
			continue
		}

		// A full buffer with the distribution queue drained can never make
		// room again: further deliveries are skipped, not forced through.
		if role == history.RoleForklift && cfg.bufferCapacity > 0 && buffer >= cfg.bufferCapacity {
			level := bufferLevel(buffer, cfg.bufferCapacity)
			if !stalled {
				stalled = true
				seq++
				res.decisions = append(res.decisions, Decision{
					Seq:          seq,
					Day:          res.optimizedDays,
					Type:         DecisionBufferWait,
					Constraint:   ConstraintBufferFull,
					BufferBefore: level,
					BufferAfter:  level,
					Reason:       "buffer at capacity with no distribution work left",
				})
			}
			seq++
			res.decisions = append(res.decisions, Decision{
				Seq:          seq,
				Day:          res.optimizedDays,
				Type:         DecisionSkipNoCapacity,
				WeightKg:     record.WeightKg,
				Constraint:   ConstraintBufferFull,
				BufferBefore: level,
				BufferAfter:  level,
				Reason:       fmt.Sprintf("task %s skipped: buffer full and no picker demand", record.ID),
			})
			continue
		}

		worker := res.perWorker[plan[record.ID]]
		if worker == nil || worker.role != role {
			worker = earliestFree(pool)
		}

		estimate := estimates[record.ID]
		res.sourceCounts[estimate.Source]++

		// Roll the worker into the next day when the shift is exhausted.
		if worker.dayActiveS+estimate.DurationS > cfg.shiftLength.Seconds() && worker.dayActiveS > 0 {
			worker.day++
			worker.dayActiveS = 0
		}
		dayStart := start.AddDate(0, 0, worker.day-1)
		eventStart := dayStart.Add(time.Duration(worker.dayActiveS * float64(time.Second)))
		eventEnd := eventStart.Add(time.Duration(estimate.DurationS * float64(time.Second)))

		before := bufferLevel(buffer, cfg.bufferCapacity)
		if role == history.RoleForklift {
			buffer++
		} else if buffer > 0 {
			buffer--
		}
		after := bufferLevel(buffer, cfg.bufferCapacity)

		worker.dayActiveS += estimate.DurationS
		worker.totalActive += estimate.DurationS
		worker.tasks++
		if worker.day > res.optimizedDays {
			res.optimizedDays = worker.day
		}
		res.optActiveS += estimate.DurationS
		res.perDayTasks[worker.day]++
		res.perDayActiveS[worker.day] += estimate.DurationS
		res.perDayBuffer[worker.day] = after

		decisionType := DecisionAssignDist
		reason := fmt.Sprintf("%s %s picks %s from buffer", worker.name, worker.id, record.ProductName)
		if role == history.RoleForklift {
			decisionType = DecisionAssignRepl
			reason = fmt.Sprintf("%s %s replenishes buffer from %s", worker.name, worker.id, record.FromBin)
		}
		seq++
		res.decisions = append(res.decisions, Decision{
			Seq:          seq,
			Day:          worker.day,
			SimTime:      eventStart,
			Type:         decisionType,
			WorkerID:     worker.id,
			WorkerName:   worker.name,
			TaskPriority: int(record.WeightKg * 10),
			DurationS:    estimate.DurationS,
			WeightKg:     record.WeightKg,
			BufferBefore: before,
			BufferAfter:  after,
			Constraint:   constraint,
			Reason:       reason,
		})
		res.events = append(res.events, ScheduleEvent{
			Timeline:    TimelineOptimized,
			WorkerID:    worker.id,
			WorkerName:  worker.name,
			Role:        worker.role,
			Start:       eventStart,
			End:         eventEnd,
			DurationS:   estimate.DurationS,
			ProductName: record.ProductName,
			FromBin:     record.FromBin,
			ToBin:       record.ToBin,
			WeightKg:    record.WeightKg,
			BufferLevel: before,
		})
	}
	return res
}

// planAssignments runs the tactical solver over one queue and records the
// chosen worker per task. Queue order is encoded as the stream sequence, so
// the solver's chain preserves it; costs are the predicted durations, which
// are worker-independent here, leaving the solver its workload balancing.
func planAssignments(ctx context.Context, solver *optimize.Solver, queue []history.TaskActionRecord, pool []*simWorker, estimates map[string]predict.Estimate, plan map[string]string) {
	if solver == nil || len(queue) == 0 || len(pool) == 0 {
		return
	}

	tasks := make([]optimize.TaskSpec, 0, len(queue))
	for i, r := range queue {
		tasks = append(tasks, optimize.TaskSpec{
			TaskID:         r.ID,
			StreamSequence: i + 1,
			WeightKg:       r.WeightKg,
		})
	}
	specs := make([]optimize.ForkliftSpec, 0, len(pool))
	for _, w := range pool {
		specs = append(specs, optimize.ForkliftSpec{ForkliftID: w.id})
	}

	solution := solver.Solve(ctx, optimize.Problem{
		Tasks:     tasks,
		Forklifts: specs,
		Cost: func(task optimize.TaskSpec, _ optimize.ForkliftSpec) float64 {
			return estimates[task.TaskID].DurationS
		},
	})
	for _, a := range solution.Assignments {
		plan[a.TaskID] = a.ForkliftID
	}
}

// nextRole picks which queue to serve given the buffer occupancy: an empty
// buffer forces replenishment, a full one forces distribution, otherwise the
// replenishment queue leads while it lasts.
func nextRole(buffer, capacity, replLeft, distLeft int) (history.WorkerRole, Constraint) {
	switch {
	case replLeft == 0:
		if buffer == 0 {
			return history.RolePicker, ConstraintBufferFull
		}
		return history.RolePicker, ConstraintNone
	case distLeft == 0:
		if buffer >= capacity {
			return history.RoleForklift, ConstraintBufferFull
		}
		return history.RoleForklift, ConstraintNone
	case buffer == 0:
		return history.RoleForklift, ConstraintPrecedence
	case buffer >= capacity:
		return history.RolePicker, ConstraintBufferFull
	default:
		return history.RoleForklift, ConstraintNone
	}
}

func earliestFree(pool []*simWorker) *simWorker {
	best := pool[0]
	for _, w := range pool[1:] {
		if w.day < best.day || (w.day == best.day && w.dayActiveS < best.dayActiveS) ||
			(w.day == best.day && w.dayActiveS == best.dayActiveS && w.id < best.id) {
			best = w
		}
	}
	return best
}

func bufferLevel(buffer, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	return float64(buffer) / float64(capacity)
}
