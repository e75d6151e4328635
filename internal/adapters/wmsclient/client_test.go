package wmsclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wareflow/wareflow-go/internal/adapters/wmsclient"
	"github.com/wareflow/wareflow-go/internal/domain/shared"
	"github.com/wareflow/wareflow-go/internal/domain/wms"
)

func testTime() time.Time {
	return time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
}

func newClient(t *testing.T, baseURL string, clock shared.Clock) *wmsclient.Client {
	t.Helper()
	return wmsclient.NewWithConfig(baseURL, "secret", 1000, 3, time.Millisecond, clock)
}

func TestClient_TasksPagesAndAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v1/tasks", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("after_id"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"id": 43, "wave_number": 7, "worker_id": "F1", "role": "FORKLIFT", "status": 3},
			},
			"last_id":  43,
			"has_more": true,
		})
	}))
	defer server.Close()

	client := newClient(t, server.URL, shared.NewMockClock(testTime()))
	page, err := client.Tasks(context.Background(), 42, 2)

	require.NoError(t, err)
	assert.True(t, page.HasMore)
	assert.Equal(t, int64(43), page.LastID)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(43), page.Items[0].ID)
	assert.Equal(t, 7, page.Items[0].WaveNumber)
	assert.Equal(t, wms.WireCompleted, page.Items[0].Status)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"items": []interface{}{}})
	}))
	defer server.Close()

	client := newClient(t, server.URL, shared.NewMockClock(testTime()))
	_, err := client.Workers(context.Background(), 0, 10)

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_HonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"items": []interface{}{}})
	}))
	defer server.Close()

	clock := shared.NewMockClock(testTime())
	client := newClient(t, server.URL, clock)
	_, err := client.Zones(context.Background(), 0, 10)

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	// The 429 backoff came from the Retry-After header, not the base delay.
	assert.Equal(t, testTime().Add(7*time.Second), clock.Now())
}

func TestClient_ClientErrorsDoNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newClient(t, server.URL, shared.NewMockClock(testTime()))
	_, err := client.Buffer(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_CreateTaskPostsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/tasks", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "STORAGE", body["from_zone"])
		assert.Equal(t, "BUFFER", body["to_zone"])
		assert.Equal(t, "PAL-1", body["pallet_id"])
		assert.Equal(t, float64(wms.PriorityHigh), body["priority"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{"task_id": 99})
	}))
	defer server.Close()

	client := newClient(t, server.URL, shared.NewMockClock(testTime()))
	taskID, err := client.CreateTask(context.Background(), wms.CreateTaskRequest{
		FromZone: "STORAGE",
		FromSlot: "01D-02-15-03",
		ToZone:   "BUFFER",
		ToSlot:   "B-01",
		PalletID: "PAL-1",
		Priority: wms.PriorityHigh,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(99), taskID)
}
