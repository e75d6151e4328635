package scheduling

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/wareflow/wareflow-go/internal/domain/shared"
	"github.com/wareflow/wareflow-go/internal/domain/warehouse"
)

// Assignment records one task bound to one forklift during a dispatch pass.
type Assignment struct {
	TaskID     string
	ForkliftID string
	StreamID   string
	WeightKg   float64
}

// DispatcherStats is a point-in-time snapshot of the dispatcher.
type DispatcherStats struct {
	QueuedStreams    int
	CurrentStreamID  string
	PendingTasks     int
	AssignedTasks    int
	CompletedTasks   int
	CompletedStreams int
}

// Dispatcher feeds delivery tasks to forklifts. Streams drain one at a time
// in ascending sequence number; a later stream never yields a task while an
// earlier one still has work. All state is guarded by a single mutex so a
// dispatch pass observes and mutates the queue atomically.
type Dispatcher struct {
	mu               sync.Mutex
	streams          []*TaskStream
	tasksByID        map[string]*DeliveryTask
	completedTasks   int
	completedStreams int
	clock            shared.Clock
	bus              *shared.EventBus
}

// NewDispatcher creates an empty dispatcher. The bus may be nil.
func NewDispatcher(clock shared.Clock, bus *shared.EventBus) *Dispatcher {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Dispatcher{
		tasksByID: make(map[string]*DeliveryTask),
		clock:     clock,
		bus:       bus,
	}
}

// EnqueueStream adds a stream to the queue. Streams with a lower sequence
// number drain first regardless of arrival order.
func (d *Dispatcher) EnqueueStream(stream *TaskStream) error {
	if stream == nil {
		return shared.NewValidationError("stream", "cannot be nil")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.streams {
		if existing.ID() == stream.ID() {
			return shared.NewValidationError("stream", fmt.Sprintf("stream %s already enqueued", stream.ID()))
		}
	}
	for _, task := range stream.Tasks() {
		d.tasksByID[task.ID()] = task
	}
	d.streams = append(d.streams, stream)
	sort.SliceStable(d.streams, func(i, j int) bool {
		return d.streams[i].SequenceNumber() < d.streams[j].SequenceNumber()
	})
	return nil
}

// EnqueueTask wraps an ad-hoc task (e.g. an urgent replenishment outside any
// order) in a singleton stream and enqueues it. The wrapping stream inherits
// the given sequence number.
func (d *Dispatcher) EnqueueTask(task *DeliveryTask, sequenceNumber int) (*TaskStream, error) {
	if task == nil {
		return nil, shared.NewValidationError("task", "cannot be nil")
	}
	stream, err := NewTaskStream(uuid.NewString(), "", sequenceNumber, []*DeliveryTask{task}, d.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := d.EnqueueStream(stream); err != nil {
		return nil, err
	}
	return stream, nil
}

// CurrentStream returns the lowest-sequence stream that still has work, or
// nil when the queue is drained.
func (d *Dispatcher) CurrentStream() *TaskStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentStreamLocked()
}

// currentStreamLocked settles stream statuses and returns the single
// in-progress stream: completed streams are sealed, then the lowest-sequence
// open stream is promoted.
func (d *Dispatcher) currentStreamLocked() *TaskStream {
	for _, stream := range d.streams {
		if stream.Completed() {
			stream.markCompleted()
			continue
		}
		stream.markInProgress(d.clock.Now())
		return stream
	}
	return nil
}

// Dispatch binds pending tasks of the current stream to the available
// forklifts, heaviest task first, nearest-to-storage forklift first. It
// returns the assignments made in this pass.
func (d *Dispatcher) Dispatch(forklifts []*warehouse.Forklift) ([]Assignment, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	stream := d.currentStreamLocked()
	if stream == nil {
		return nil, nil
	}

	var available []*warehouse.Forklift
	for _, f := range forklifts {
		if f.IsAvailable() {
			available = append(available, f)
		}
	}

	var assignments []Assignment
	for _, task := range stream.PendingTasks() {
		if len(available) == 0 {
			break
		}

		// Pick the forklift with the shortest estimated delivery for
		// this task's pallet.
		best := 0
		bestETA := available[0].EstimateDeliveryTime(task.Pallet())
		for i := 1; i < len(available); i++ {
			if eta := available[i].EstimateDeliveryTime(task.Pallet()); eta < bestETA {
				best, bestETA = i, eta
			}
		}
		forklift := available[best]

		eta := d.clock.Now().Add(bestETA)
		if err := task.Assign(forklift.ID(), eta); err != nil {
			return assignments, err
		}
		if err := forklift.AssignTask(task.ID()); err != nil {
			task.Release()
			return assignments, err
		}
		if err := task.Pallet().PickUp(forklift.ID()); err != nil {
			task.Release()
			return assignments, err
		}

		assignments = append(assignments, Assignment{
			TaskID:     task.ID(),
			ForkliftID: forklift.ID(),
			StreamID:   stream.ID(),
			WeightKg:   task.WeightKg(),
		})
		available = append(available[:best], available[best+1:]...)
	}
	return assignments, nil
}

// StartTask marks an assigned task as in progress.
func (d *Dispatcher) StartTask(taskID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	task, ok := d.tasksByID[taskID]
	if !ok {
		return shared.NewValidationError("task_id", fmt.Sprintf("unknown task %s", taskID))
	}
	return task.Start(d.clock.Now())
}

// CompleteTask finishes a task, frees its forklift and, when the task was the
// last open one in its stream, emits a stream-completed event.
func (d *Dispatcher) CompleteTask(taskID string, forklift *warehouse.Forklift) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	task, ok := d.tasksByID[taskID]
	if !ok {
		return shared.NewValidationError("task_id", fmt.Sprintf("unknown task %s", taskID))
	}
	if err := task.Complete(d.clock.Now()); err != nil {
		return err
	}
	d.completedTasks++
	if forklift != nil {
		if err := forklift.CompleteDelivery(); err != nil {
			return err
		}
	}

	if stream := d.streamOfLocked(task.StreamID()); stream != nil && stream.Completed() {
		stream.markCompleted()
		d.completedStreams++
		if d.bus != nil {
			d.bus.Publish(shared.EventTaskStreamCompleted, shared.TaskStreamCompletedPayload{
				StreamID:       stream.ID(),
				SequenceNumber: stream.SequenceNumber(),
				TaskCount:      stream.Size(),
			})
		}
	}
	return nil
}

// ReleaseForkliftTasks returns every task held by the forklift to the pending
// pool, e.g. after the forklift went offline.
func (d *Dispatcher) ReleaseForkliftTasks(forkliftID string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var released []string
	for _, task := range d.tasksByID {
		if task.AssignedForkliftID() == forkliftID {
			task.Release()
			released = append(released, task.ID())
		}
	}
	sort.Strings(released)
	return released
}

// CancelTask aborts a task that has not completed.
func (d *Dispatcher) CancelTask(taskID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	task, ok := d.tasksByID[taskID]
	if !ok {
		return shared.NewValidationError("task_id", fmt.Sprintf("unknown task %s", taskID))
	}
	return task.Cancel()
}

// Stats returns a snapshot of queue depth and progress counters.
func (d *Dispatcher) Stats() DispatcherStats {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats := DispatcherStats{
		CompletedTasks:   d.completedTasks,
		CompletedStreams: d.completedStreams,
	}
	for _, stream := range d.streams {
		if !stream.Completed() {
			stats.QueuedStreams++
		}
	}
	if current := d.currentStreamLocked(); current != nil {
		stats.CurrentStreamID = current.ID()
	}
	for _, task := range d.tasksByID {
		switch task.Status() {
		case TaskStatusPending:
			stats.PendingTasks++
		case TaskStatusAssigned, TaskStatusInProgress:
			stats.AssignedTasks++
		}
	}
	return stats
}

func (d *Dispatcher) streamOfLocked(streamID string) *TaskStream {
	for _, stream := range d.streams {
		if stream.ID() == streamID {
			return stream
		}
	}
	return nil
}
