package scheduling_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-go/internal/domain/scheduling"
	"github.com/wareflow/wareflow-go/internal/domain/shared"
	"github.com/wareflow/wareflow-go/internal/domain/warehouse"
)

func newDispatcher(t *testing.T) (*scheduling.Dispatcher, *shared.EventBus) {
	t.Helper()
	clock := shared.NewMockClock(testTime())
	bus := shared.NewEventBus(clock)
	return scheduling.NewDispatcher(clock, bus), bus
}

func newForklift(t *testing.T, id string, positionM float64) *warehouse.Forklift {
	t.Helper()
	forklift, err := warehouse.NewForklift(id, "lift "+id, 1.5, 30)
	require.NoError(t, err)
	forklift.SetPosition(positionM)
	return forklift
}

func TestDispatcher_EnqueueStreamRejectsDuplicates(t *testing.T) {
	dispatcher, _ := newDispatcher(t)
	stream := newStream(t, "S1", newTask(t, "T1", 1))

	require.NoError(t, dispatcher.EnqueueStream(stream))
	assert.Error(t, dispatcher.EnqueueStream(stream))
}

func TestDispatcher_StreamsDrainBySequenceNumber(t *testing.T) {
	dispatcher, _ := newDispatcher(t)
	late, err := scheduling.NewTaskStream("S2", "ORD-2", 2, []*scheduling.DeliveryTask{newTask(t, "T2", 1)}, testTime())
	require.NoError(t, err)
	early, err := scheduling.NewTaskStream("S1", "ORD-1", 1, []*scheduling.DeliveryTask{newTask(t, "T1", 1)}, testTime())
	require.NoError(t, err)

	// Arrival order does not matter; sequence number does.
	require.NoError(t, dispatcher.EnqueueStream(late))
	require.NoError(t, dispatcher.EnqueueStream(early))

	current := dispatcher.CurrentStream()
	require.NotNil(t, current)
	assert.Equal(t, "S1", current.ID())
	assert.Equal(t, scheduling.StreamStatusInProgress, current.Status())
}

func TestDispatcher_DispatchHeaviestTaskFirst(t *testing.T) {
	dispatcher, _ := newDispatcher(t)
	light := newTask(t, "T1", 1)
	heavy := newTask(t, "T2", 9)
	require.NoError(t, dispatcher.EnqueueStream(newStream(t, "S1", light, heavy)))

	assignments, err := dispatcher.Dispatch([]*warehouse.Forklift{newForklift(t, "F1", 0)})

	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "T2", assignments[0].TaskID)
	assert.Equal(t, "F1", assignments[0].ForkliftID)
	assert.Equal(t, scheduling.TaskStatusAssigned, heavy.Status())
	assert.Equal(t, scheduling.TaskStatusPending, light.Status())
	assert.Equal(t, "F1", heavy.Pallet().CarrierForkliftID())
}

func TestDispatcher_DispatchPicksClosestForklift(t *testing.T) {
	dispatcher, _ := newDispatcher(t)
	task := newTask(t, "T1", 1) // pallet stored at 50 m
	require.NoError(t, dispatcher.EnqueueStream(newStream(t, "S1", task)))

	far := newForklift(t, "F-far", 200)
	near := newForklift(t, "F-near", 40)

	assignments, err := dispatcher.Dispatch([]*warehouse.Forklift{far, near})

	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "F-near", assignments[0].ForkliftID)
	assert.True(t, far.IsAvailable())
}

func TestDispatcher_DispatchSkipsBusyForklifts(t *testing.T) {
	dispatcher, _ := newDispatcher(t)
	require.NoError(t, dispatcher.EnqueueStream(newStream(t, "S1", newTask(t, "T1", 1))))
	busy := newForklift(t, "F1", 0)
	require.NoError(t, busy.AssignTask("other"))

	assignments, err := dispatcher.Dispatch([]*warehouse.Forklift{busy})

	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestDispatcher_LaterStreamWaitsForEarlier(t *testing.T) {
	dispatcher, _ := newDispatcher(t)
	first, err := scheduling.NewTaskStream("S1", "ORD-1", 1, []*scheduling.DeliveryTask{newTask(t, "T1", 1)}, testTime())
	require.NoError(t, err)
	second, err := scheduling.NewTaskStream("S2", "ORD-2", 2, []*scheduling.DeliveryTask{newTask(t, "T2", 1)}, testTime())
	require.NoError(t, err)
	require.NoError(t, dispatcher.EnqueueStream(first))
	require.NoError(t, dispatcher.EnqueueStream(second))

	// Two idle forklifts, but only the first stream's task goes out.
	assignments, err := dispatcher.Dispatch([]*warehouse.Forklift{
		newForklift(t, "F1", 0),
		newForklift(t, "F2", 0),
	})

	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "T1", assignments[0].TaskID)
}

func TestDispatcher_CompleteTaskAdvancesStream(t *testing.T) {
	dispatcher, bus := newDispatcher(t)
	var completed []shared.TaskStreamCompletedPayload
	bus.Subscribe(shared.EventTaskStreamCompleted, func(e shared.Event) {
		completed = append(completed, e.Payload.(shared.TaskStreamCompletedPayload))
	})

	first, err := scheduling.NewTaskStream("S1", "ORD-1", 1, []*scheduling.DeliveryTask{newTask(t, "T1", 1)}, testTime())
	require.NoError(t, err)
	second, err := scheduling.NewTaskStream("S2", "ORD-2", 2, []*scheduling.DeliveryTask{newTask(t, "T2", 1)}, testTime())
	require.NoError(t, err)
	require.NoError(t, dispatcher.EnqueueStream(first))
	require.NoError(t, dispatcher.EnqueueStream(second))

	forklift := newForklift(t, "F1", 0)
	assignments, err := dispatcher.Dispatch([]*warehouse.Forklift{forklift})
	require.NoError(t, err)
	require.Len(t, assignments, 1)

	require.NoError(t, dispatcher.StartTask("T1"))
	require.NoError(t, dispatcher.CompleteTask("T1", forklift))

	require.Len(t, completed, 1)
	assert.Equal(t, "S1", completed[0].StreamID)
	assert.Equal(t, 1, completed[0].SequenceNumber)
	assert.Equal(t, 1, completed[0].TaskCount)
	assert.True(t, forklift.IsAvailable())

	current := dispatcher.CurrentStream()
	require.NotNil(t, current)
	assert.Equal(t, "S2", current.ID())
}

func TestDispatcher_ReleaseForkliftTasks(t *testing.T) {
	dispatcher, _ := newDispatcher(t)
	task := newTask(t, "T1", 1)
	require.NoError(t, dispatcher.EnqueueStream(newStream(t, "S1", task)))
	forklift := newForklift(t, "F1", 0)
	_, err := dispatcher.Dispatch([]*warehouse.Forklift{forklift})
	require.NoError(t, err)

	released := dispatcher.ReleaseForkliftTasks("F1")

	assert.Equal(t, []string{"T1"}, released)
	assert.Equal(t, scheduling.TaskStatusPending, task.Status())
	assert.Empty(t, dispatcher.ReleaseForkliftTasks("F1"))
}

func TestDispatcher_EnqueueTaskWrapsSingletonStream(t *testing.T) {
	dispatcher, _ := newDispatcher(t)

	stream, err := dispatcher.EnqueueTask(newTask(t, "T1", 1), 0)

	require.NoError(t, err)
	assert.Equal(t, 1, stream.Size())
	assert.Equal(t, 0, stream.SequenceNumber())

	current := dispatcher.CurrentStream()
	require.NotNil(t, current)
	assert.Equal(t, stream.ID(), current.ID())
}

func TestDispatcher_UnknownTaskOperations(t *testing.T) {
	dispatcher, _ := newDispatcher(t)

	assert.Error(t, dispatcher.StartTask("nope"))
	assert.Error(t, dispatcher.CompleteTask("nope", nil))
	assert.Error(t, dispatcher.CancelTask("nope"))
}

func TestDispatcher_Stats(t *testing.T) {
	dispatcher, _ := newDispatcher(t)
	light := newTask(t, "T1", 1)
	heavy := newTask(t, "T2", 5)
	require.NoError(t, dispatcher.EnqueueStream(newStream(t, "S1", light, heavy)))

	forklift := newForklift(t, "F1", 0)
	_, err := dispatcher.Dispatch([]*warehouse.Forklift{forklift})
	require.NoError(t, err)
	require.NoError(t, dispatcher.CompleteTask("T2", forklift))

	stats := dispatcher.Stats()
	assert.Equal(t, 1, stats.QueuedStreams)
	assert.Equal(t, "S1", stats.CurrentStreamID)
	assert.Equal(t, 1, stats.PendingTasks)
	assert.Equal(t, 0, stats.AssignedTasks)
	assert.Equal(t, 1, stats.CompletedTasks)
	assert.Equal(t, 0, stats.CompletedStreams)
}
