package scheduling

import (
	"time"

	"github.com/wareflow/wareflow-go/internal/domain/shared"
	"github.com/wareflow/wareflow-go/internal/domain/warehouse"
)

// TaskStatus is the lifecycle state of a delivery task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusAssigned   TaskStatus = "ASSIGNED"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// DeliveryTask moves one pallet from storage into the buffer. Tasks belong
// to at most one stream (by id, to avoid an ownership cycle) and are bound
// to at most one forklift at a time.
type DeliveryTask struct {
	id                  string
	pallet              *warehouse.Pallet
	status              TaskStatus
	assignedForkliftID  string
	streamID            string
	sequenceInStream    int
	priority            int
	createdAt           time.Time
	startedAt           *time.Time
	completedAt         *time.Time
	estimatedCompletion *time.Time
}

// NewDeliveryTask creates a pending task for the pallet. Priority mirrors
// the pallet's weight-derived product priority.
func NewDeliveryTask(id string, pallet *warehouse.Pallet, now time.Time) (*DeliveryTask, error) {
	if id == "" {
		return nil, shared.NewValidationError("id", "cannot be empty")
	}
	if pallet == nil {
		return nil, shared.NewValidationError("pallet", "cannot be nil")
	}

	return &DeliveryTask{
		id:        id,
		pallet:    pallet,
		status:    TaskStatusPending,
		priority:  pallet.Product().Priority(),
		createdAt: now,
	}, nil
}

func (t *DeliveryTask) ID() string                      { return t.id }
func (t *DeliveryTask) Pallet() *warehouse.Pallet       { return t.pallet }
func (t *DeliveryTask) Status() TaskStatus              { return t.status }
func (t *DeliveryTask) AssignedForkliftID() string      { return t.assignedForkliftID }
func (t *DeliveryTask) StreamID() string                { return t.streamID }
func (t *DeliveryTask) SequenceInStream() int           { return t.sequenceInStream }
func (t *DeliveryTask) Priority() int                   { return t.priority }
func (t *DeliveryTask) CreatedAt() time.Time            { return t.createdAt }
func (t *DeliveryTask) StartedAt() *time.Time           { return t.startedAt }
func (t *DeliveryTask) CompletedAt() *time.Time         { return t.completedAt }
func (t *DeliveryTask) EstimatedCompletion() *time.Time { return t.estimatedCompletion }

// WeightKg is the total weight of the task's pallet, which orders tasks
// within a stream (heavy-on-bottom).
func (t *DeliveryTask) WeightKg() float64 { return t.pallet.TotalWeightKg() }

// SetPriority overrides the weight-derived priority (e.g. a critical-state
// boost from the controller).
func (t *DeliveryTask) SetPriority(priority int) { t.priority = priority }

// bindToStream is called by the stream when the task is admitted.
func (t *DeliveryTask) bindToStream(streamID string, sequence int) {
	t.streamID = streamID
	t.sequenceInStream = sequence
}

// Assign binds the task to a forklift. Fails if the task is not Pending or
// is already held by a forklift (dispatch atomicity).
func (t *DeliveryTask) Assign(forkliftID string, estimatedCompletion time.Time) error {
	if t.assignedForkliftID != "" {
		return shared.NewTaskAlreadyAssignedError(t.id, t.assignedForkliftID)
	}
	if t.status != TaskStatusPending {
		return shared.NewInvalidTransitionError("task "+t.id, string(t.status), string(TaskStatusAssigned))
	}
	t.assignedForkliftID = forkliftID
	t.status = TaskStatusAssigned
	t.estimatedCompletion = &estimatedCompletion
	return nil
}

// Start marks the task in progress.
func (t *DeliveryTask) Start(now time.Time) error {
	if t.status != TaskStatusAssigned {
		return shared.NewInvalidTransitionError("task "+t.id, string(t.status), string(TaskStatusInProgress))
	}
	t.status = TaskStatusInProgress
	t.startedAt = &now
	return nil
}

// Complete marks the task done and releases the forklift binding.
func (t *DeliveryTask) Complete(now time.Time) error {
	if t.status != TaskStatusAssigned && t.status != TaskStatusInProgress {
		return shared.NewInvalidTransitionError("task "+t.id, string(t.status), string(TaskStatusCompleted))
	}
	if t.startedAt == nil {
		t.startedAt = &now
	}
	t.status = TaskStatusCompleted
	t.completedAt = &now
	t.assignedForkliftID = ""
	return nil
}

// Cancel aborts a task that has not completed. The forklift binding is
// released.
func (t *DeliveryTask) Cancel() error {
	if t.status == TaskStatusCompleted {
		return shared.NewInvalidTransitionError("task "+t.id, string(t.status), string(TaskStatusCancelled))
	}
	t.status = TaskStatusCancelled
	t.assignedForkliftID = ""
	return nil
}

// Release returns an assigned task to the pending pool, e.g. when its
// forklift goes offline mid-dispatch.
func (t *DeliveryTask) Release() {
	if t.status == TaskStatusAssigned || t.status == TaskStatusInProgress {
		t.status = TaskStatusPending
		t.assignedForkliftID = ""
		t.startedAt = nil
		t.estimatedCompletion = nil
	}
}
