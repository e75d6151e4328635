package scheduling

import (
	"sort"
	"time"

	"github.com/wareflow/wareflow-go/internal/domain/shared"
)

// StreamStatus is the lifecycle state of a task stream.
type StreamStatus string

const (
	StreamStatusPending    StreamStatus = "PENDING"
	StreamStatusInProgress StreamStatus = "IN_PROGRESS"
	StreamStatusCompleted  StreamStatus = "COMPLETED"
	StreamStatusCancelled  StreamStatus = "CANCELLED"
)

// TaskStream is an ordered batch of delivery tasks serving one order. Streams
// are consumed strictly by sequence number; inside a stream tasks are handed
// out heaviest-first so heavy pallets end up at the bottom of the stack.
type TaskStream struct {
	id             string
	orderID        string
	sequenceNumber int
	tasks          []*DeliveryTask
	status         StreamStatus
	createdAt      time.Time
	startedAt      *time.Time
}

// NewTaskStream creates a pending stream and binds every task to it,
// preserving the caller's order as each task's sequence-in-stream.
func NewTaskStream(id, orderID string, sequenceNumber int, tasks []*DeliveryTask, now time.Time) (*TaskStream, error) {
	if id == "" {
		return nil, shared.NewValidationError("id", "cannot be empty")
	}
	if len(tasks) == 0 {
		return nil, shared.NewValidationError("tasks", "stream cannot be empty")
	}

	for i, task := range tasks {
		task.bindToStream(id, i)
	}
	return &TaskStream{
		id:             id,
		orderID:        orderID,
		sequenceNumber: sequenceNumber,
		tasks:          tasks,
		status:         StreamStatusPending,
		createdAt:      now,
	}, nil
}

func (s *TaskStream) ID() string           { return s.id }
func (s *TaskStream) OrderID() string      { return s.orderID }
func (s *TaskStream) SequenceNumber() int  { return s.sequenceNumber }
func (s *TaskStream) Status() StreamStatus { return s.status }
func (s *TaskStream) CreatedAt() time.Time { return s.createdAt }
func (s *TaskStream) StartedAt() *time.Time { return s.startedAt }

// markInProgress is called by the dispatcher when the stream becomes current.
func (s *TaskStream) markInProgress(now time.Time) {
	if s.status == StreamStatusPending {
		s.status = StreamStatusInProgress
		s.startedAt = &now
	}
}

// markCompleted is called by the dispatcher once every task has terminated.
func (s *TaskStream) markCompleted() {
	if s.status != StreamStatusCancelled {
		s.status = StreamStatusCompleted
	}
}

// Tasks returns a snapshot of all tasks in the stream.
func (s *TaskStream) Tasks() []*DeliveryTask {
	out := make([]*DeliveryTask, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Size returns the total number of tasks in the stream.
func (s *TaskStream) Size() int { return len(s.tasks) }

// PendingTasks returns the not-yet-assigned tasks ordered by descending
// pallet weight, sequence-in-stream on ties. The ordering is recomputed on
// every call: a cancelled or released task changes the next pick.
func (s *TaskStream) PendingTasks() []*DeliveryTask {
	var pending []*DeliveryTask
	for _, task := range s.tasks {
		if task.Status() == TaskStatusPending {
			pending = append(pending, task)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].WeightKg() != pending[j].WeightKg() {
			return pending[i].WeightKg() > pending[j].WeightKg()
		}
		return pending[i].SequenceInStream() < pending[j].SequenceInStream()
	})
	return pending
}

// NextTask returns the heaviest pending task, or nil when none remain.
func (s *TaskStream) NextTask() *DeliveryTask {
	pending := s.PendingTasks()
	if len(pending) == 0 {
		return nil
	}
	return pending[0]
}

// Completed reports whether every task in the stream has reached a terminal
// status.
func (s *TaskStream) Completed() bool {
	if s.status == StreamStatusCancelled {
		return true
	}
	for _, task := range s.tasks {
		switch task.Status() {
		case TaskStatusCompleted, TaskStatusCancelled:
		default:
			return false
		}
	}
	return true
}

// Cancel aborts the stream and every non-terminal task in it.
func (s *TaskStream) Cancel() {
	for _, task := range s.tasks {
		if task.Status() != TaskStatusCompleted && task.Status() != TaskStatusCancelled {
			_ = task.Cancel()
		}
	}
	s.status = StreamStatusCancelled
}

// Progress returns completed and total task counts.
func (s *TaskStream) Progress() (completed, total int) {
	for _, task := range s.tasks {
		if task.Status() == TaskStatusCompleted {
			completed++
		}
	}
	return completed, len(s.tasks)
}
