package steps

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/wareflow/wareflow-go/internal/domain/product"
	"github.com/wareflow/wareflow-go/internal/domain/scheduling"
	"github.com/wareflow/wareflow-go/internal/domain/shared"
	"github.com/wareflow/wareflow-go/internal/domain/warehouse"
)

type taskDispatchContext struct {
	dispatcher  *scheduling.Dispatcher
	forklifts   map[string]*warehouse.Forklift
	tasks       map[string]*scheduling.DeliveryTask
	assignments []scheduling.Assignment
}

func (dc *taskDispatchContext) reset() {
	dc.dispatcher = nil
	dc.forklifts = make(map[string]*warehouse.Forklift)
	dc.tasks = make(map[string]*scheduling.DeliveryTask)
	dc.assignments = nil
}

func (dc *taskDispatchContext) now() time.Time {
	return time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
}

func (dc *taskDispatchContext) aTaskDispatcher() error {
	clock := shared.NewMockClock(dc.now())
	dc.dispatcher = scheduling.NewDispatcher(clock, shared.NewEventBus(clock))
	return nil
}

func (dc *taskDispatchContext) aForkliftAtPosition(id string, positionM int) error {
	forklift, err := warehouse.NewForklift(id, "lift "+id, 1.5, 30)
	if err != nil {
		return err
	}
	forklift.SetPosition(float64(positionM))
	dc.forklifts[id] = forklift
	return nil
}

func (dc *taskDispatchContext) streamWithSequenceHoldsTasks(streamID string, sequence int, table *godog.Table) error {
	var tasks []*scheduling.DeliveryTask
	for i, row := range table.Rows {
		if i == 0 {
			continue // Skip header
		}
		taskID := row.Cells[0].Value
		weightKg, err := strconv.ParseFloat(row.Cells[1].Value, 64)
		if err != nil {
			return err
		}
		distanceM, err := strconv.ParseFloat(row.Cells[2].Value, 64)
		if err != nil {
			return err
		}

		prod, err := product.NewProduct("SKU-"+taskID, "widget", weightKg)
		if err != nil {
			return err
		}
		pallet, err := warehouse.NewPallet("PAL-"+taskID, prod, 1, distanceM)
		if err != nil {
			return err
		}
		task, err := scheduling.NewDeliveryTask(taskID, pallet, dc.now())
		if err != nil {
			return err
		}
		dc.tasks[taskID] = task
		tasks = append(tasks, task)
	}

	stream, err := scheduling.NewTaskStream(streamID, "ORD-"+streamID, sequence, tasks, dc.now())
	if err != nil {
		return err
	}
	return dc.dispatcher.EnqueueStream(stream)
}

func (dc *taskDispatchContext) iDispatchToForklifts(list string) error {
	var pool []*warehouse.Forklift
	for _, id := range strings.Split(list, ",") {
		forklift, ok := dc.forklifts[strings.TrimSpace(id)]
		if !ok {
			return fmt.Errorf("unknown forklift %q", id)
		}
		pool = append(pool, forklift)
	}

	assignments, err := dc.dispatcher.Dispatch(pool)
	if err != nil {
		return err
	}
	dc.assignments = assignments
	return nil
}

func (dc *taskDispatchContext) iCompleteTaskWithForklift(taskID, forkliftID string) error {
	forklift, ok := dc.forklifts[forkliftID]
	if !ok {
		return fmt.Errorf("unknown forklift %q", forkliftID)
	}
	return dc.dispatcher.CompleteTask(taskID, forklift)
}

func (dc *taskDispatchContext) taskShouldBeAssignedToForklift(taskID, forkliftID string) error {
	task, ok := dc.tasks[taskID]
	if !ok {
		return fmt.Errorf("unknown task %q", taskID)
	}
	if task.Status() != scheduling.TaskStatusAssigned {
		return fmt.Errorf("expected task %s to be assigned, got %s", taskID, task.Status())
	}
	if task.AssignedForkliftID() != forkliftID {
		return fmt.Errorf("expected task %s on forklift %s, got %s", taskID, forkliftID, task.AssignedForkliftID())
	}
	for _, a := range dc.assignments {
		if a.TaskID == taskID && a.ForkliftID == forkliftID {
			return nil
		}
	}
	return fmt.Errorf("no assignment of task %s to forklift %s was reported", taskID, forkliftID)
}

func (dc *taskDispatchContext) taskShouldNotBeAssigned(taskID string) error {
	task, ok := dc.tasks[taskID]
	if !ok {
		return fmt.Errorf("unknown task %q", taskID)
	}
	if task.Status() != scheduling.TaskStatusPending {
		return fmt.Errorf("expected task %s to stay pending, got %s", taskID, task.Status())
	}
	return nil
}

func (dc *taskDispatchContext) theCurrentStreamShouldBe(streamID string) error {
	current := dc.dispatcher.CurrentStream()
	if current == nil {
		return fmt.Errorf("expected current stream %s, got none", streamID)
	}
	if current.ID() != streamID {
		return fmt.Errorf("expected current stream %s, got %s", streamID, current.ID())
	}
	return nil
}

func (dc *taskDispatchContext) theDispatcherShouldReport(pending, completed int) error {
	stats := dc.dispatcher.Stats()
	if stats.PendingTasks != pending {
		return fmt.Errorf("expected %d pending tasks, got %d", pending, stats.PendingTasks)
	}
	if stats.CompletedTasks != completed {
		return fmt.Errorf("expected %d completed tasks, got %d", completed, stats.CompletedTasks)
	}
	return nil
}

func InitializeTaskDispatchScenario(sc *godog.ScenarioContext) {
	dc := &taskDispatchContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		dc.reset()
		return ctx, nil
	})

	sc.Step(`^a task dispatcher$`, dc.aTaskDispatcher)
	sc.Step(`^a forklift "([^"]*)" at position (\d+) m$`, dc.aForkliftAtPosition)
	sc.Step(`^stream "([^"]*)" with sequence (\d+) holds tasks:$`, dc.streamWithSequenceHoldsTasks)
	sc.Step(`^I dispatch to forklifts "([^"]*)"$`, dc.iDispatchToForklifts)
	sc.Step(`^I complete task "([^"]*)" with forklift "([^"]*)"$`, dc.iCompleteTaskWithForklift)
	sc.Step(`^task "([^"]*)" should be assigned to forklift "([^"]*)"$`, dc.taskShouldBeAssignedToForklift)
	sc.Step(`^task "([^"]*)" should not be assigned$`, dc.taskShouldNotBeAssigned)
	sc.Step(`^the current stream should be "([^"]*)"$`, dc.theCurrentStreamShouldBe)
	sc.Step(`^the dispatcher should report (\d+) pending and (\d+) completed tasks$`, dc.theDispatcherShouldReport)
}
