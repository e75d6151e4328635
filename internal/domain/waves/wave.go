package waves

import (
	"time"

	"github.com/wareflow/wareflow-go/internal/domain/scheduling"
	"github.com/wareflow/wareflow-go/internal/domain/shared"
)

// WaveStatus is the lifecycle state of a wave. Transitions are monotone:
// a wave never regresses, and Completed is terminal.
type WaveStatus string

const (
	WaveStatusPending    WaveStatus = "PENDING"
	WaveStatusInProgress WaveStatus = "IN_PROGRESS"
	WaveStatusCompleted  WaveStatus = "COMPLETED"
	WaveStatusOverdue    WaveStatus = "OVERDUE"
)

// Wave is a batch of orders scheduled to start together, one task stream per
// order, bounded by a deadline.
type Wave struct {
	id             string
	sequenceNumber int
	orders         []*Order
	streams        []*scheduling.TaskStream
	status         WaveStatus
	createdAt      time.Time
	deadline       time.Time
	startTime      *time.Time
	completedAt    *time.Time
}

func newWave(id string, sequenceNumber int, orders []*Order, streams []*scheduling.TaskStream, createdAt, deadline time.Time) *Wave {
	return &Wave{
		id:             id,
		sequenceNumber: sequenceNumber,
		orders:         orders,
		streams:        streams,
		status:         WaveStatusPending,
		createdAt:      createdAt,
		deadline:       deadline,
	}
}

func (w *Wave) ID() string             { return w.id }
func (w *Wave) SequenceNumber() int    { return w.sequenceNumber }
func (w *Wave) Status() WaveStatus     { return w.status }
func (w *Wave) CreatedAt() time.Time   { return w.createdAt }
func (w *Wave) Deadline() time.Time    { return w.deadline }
func (w *Wave) StartTime() *time.Time  { return w.startTime }
func (w *Wave) CompletedAt() *time.Time { return w.completedAt }

// Orders returns a snapshot of the wave's orders.
func (w *Wave) Orders() []*Order {
	out := make([]*Order, len(w.orders))
	copy(out, w.orders)
	return out
}

// Streams returns a snapshot of the wave's task streams.
func (w *Wave) Streams() []*scheduling.TaskStream {
	out := make([]*scheduling.TaskStream, len(w.streams))
	copy(out, w.streams)
	return out
}

// TaskCount is the total number of delivery tasks across all streams.
func (w *Wave) TaskCount() int {
	total := 0
	for _, stream := range w.streams {
		total += stream.Size()
	}
	return total
}

// Start moves a pending or overdue wave into progress.
func (w *Wave) Start(now time.Time) error {
	if w.status != WaveStatusPending && w.status != WaveStatusOverdue {
		return shared.NewInvalidTransitionError("wave "+w.id, string(w.status), string(WaveStatusInProgress))
	}
	w.status = WaveStatusInProgress
	w.startTime = &now
	return nil
}

// Refresh re-derives the wave status from its streams and the clock:
// Completed once every stream is done, Overdue when the deadline passed
// before completion. Completed never regresses.
func (w *Wave) Refresh(now time.Time) WaveStatus {
	if w.status == WaveStatusCompleted {
		return w.status
	}

	if w.allStreamsCompleted() {
		w.status = WaveStatusCompleted
		w.completedAt = &now
		return w.status
	}
	if now.After(w.deadline) {
		w.status = WaveStatusOverdue
	}
	return w.status
}

func (w *Wave) allStreamsCompleted() bool {
	if len(w.streams) == 0 {
		return false
	}
	for _, stream := range w.streams {
		if !stream.Completed() {
			return false
		}
	}
	return true
}
