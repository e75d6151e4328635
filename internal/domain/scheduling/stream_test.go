package scheduling_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-go/internal/domain/scheduling"
)

func newStream(t *testing.T, id string, tasks ...*scheduling.DeliveryTask) *scheduling.TaskStream {
	t.Helper()
	stream, err := scheduling.NewTaskStream(id, "ORD-1", 1, tasks, testTime())
	require.NoError(t, err)
	return stream
}

func TestNewTaskStream_Validation(t *testing.T) {
	_, err := scheduling.NewTaskStream("", "ORD-1", 1, nil, testTime())
	assert.Error(t, err)

	_, err = scheduling.NewTaskStream("S1", "ORD-1", 1, nil, testTime())
	assert.Error(t, err)
}

func TestTaskStream_BindsTasks(t *testing.T) {
	first := newTask(t, "T1", 1)
	second := newTask(t, "T2", 2)

	stream := newStream(t, "S1", first, second)

	assert.Equal(t, "S1", first.StreamID())
	assert.Equal(t, 0, first.SequenceInStream())
	assert.Equal(t, 1, second.SequenceInStream())
	assert.Equal(t, 2, stream.Size())
}

func TestTaskStream_PendingTasksHeaviestFirst(t *testing.T) {
	light := newTask(t, "T1", 1)
	heavy := newTask(t, "T2", 5)
	alsoHeavy := newTask(t, "T3", 5) // tie breaks by sequence in stream

	stream := newStream(t, "S1", light, heavy, alsoHeavy)

	pending := stream.PendingTasks()
	require.Len(t, pending, 3)
	assert.Equal(t, "T2", pending[0].ID())
	assert.Equal(t, "T3", pending[1].ID())
	assert.Equal(t, "T1", pending[2].ID())
	assert.Equal(t, "T2", stream.NextTask().ID())
}

func TestTaskStream_PendingExcludesAssigned(t *testing.T) {
	light := newTask(t, "T1", 1)
	heavy := newTask(t, "T2", 5)
	stream := newStream(t, "S1", light, heavy)

	require.NoError(t, heavy.Assign("F1", testTime()))

	pending := stream.PendingTasks()
	require.Len(t, pending, 1)
	assert.Equal(t, "T1", pending[0].ID())
}

func TestTaskStream_Completed(t *testing.T) {
	first := newTask(t, "T1", 1)
	second := newTask(t, "T2", 2)
	stream := newStream(t, "S1", first, second)
	require.False(t, stream.Completed())

	require.NoError(t, first.Assign("F1", testTime()))
	require.NoError(t, first.Complete(testTime()))
	require.False(t, stream.Completed())

	// A cancelled task is terminal too.
	require.NoError(t, second.Cancel())
	assert.True(t, stream.Completed())
}

func TestTaskStream_CancelAbortsOpenTasks(t *testing.T) {
	first := newTask(t, "T1", 1)
	second := newTask(t, "T2", 2)
	require.NoError(t, first.Assign("F1", testTime()))
	require.NoError(t, first.Complete(testTime()))
	stream := newStream(t, "S1", first, second)

	stream.Cancel()

	assert.Equal(t, scheduling.StreamStatusCancelled, stream.Status())
	assert.Equal(t, scheduling.TaskStatusCompleted, first.Status())
	assert.Equal(t, scheduling.TaskStatusCancelled, second.Status())
	assert.True(t, stream.Completed())
}

func TestTaskStream_Progress(t *testing.T) {
	first := newTask(t, "T1", 1)
	second := newTask(t, "T2", 2)
	stream := newStream(t, "S1", first, second)

	require.NoError(t, first.Assign("F1", testTime()))
	require.NoError(t, first.Complete(testTime()))

	completed, total := stream.Progress()
	assert.Equal(t, 1, completed)
	assert.Equal(t, 2, total)
}
