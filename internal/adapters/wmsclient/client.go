// Package wmsclient is the HTTP implementation of the WMS port.
package wmsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/wareflow/wareflow-go/internal/domain/shared"
	"github.com/wareflow/wareflow-go/internal/domain/wms"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 5
	defaultBackoffBase = time.Second
)

// Client talks to the WMS HTTP API. Requests are rate limited and retried
// with exponential backoff plus jitter; 429 responses honor Retry-After.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	baseURL     string
	apiKey      string
	maxRetries  int
	backoffBase time.Duration
	clock       shared.Clock
}

var _ wms.Client = (*Client)(nil)

// New creates a client with the default rate limit of 10 req/s, burst 10.
func New(baseURL, apiKey string) *Client {
	return NewWithConfig(baseURL, apiKey, 10, defaultMaxRetries, defaultBackoffBase, nil)
}

// NewWithConfig creates a client with explicit limits. A nil clock selects
// the real clock.
func NewWithConfig(baseURL, apiKey string, reqPerSec float64, maxRetries int, backoffBase time.Duration, clock shared.Clock) *Client {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		rateLimiter: rate.NewLimiter(rate.Limit(reqPerSec), int(reqPerSec)),
		baseURL:     baseURL,
		apiKey:      apiKey,
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
		clock:       clock,
	}
}

type taskPageResponse struct {
	Items   []taskItem `json:"items"`
	LastID  int64      `json:"last_id"`
	HasMore bool       `json:"has_more"`
}

type taskItem struct {
	ID          int64      `json:"id"`
	WaveNumber  int        `json:"wave_number"`
	WorkerID    string     `json:"worker_id"`
	WorkerName  string     `json:"worker_name"`
	Role        string     `json:"role"`
	Template    string     `json:"template"`
	BasisNumber string     `json:"basis_number"`
	FromBin     string     `json:"from_bin"`
	ToBin       string     `json:"to_bin"`
	ProductSKU  string     `json:"product_sku"`
	ProductName string     `json:"product_name"`
	WeightKg    float64    `json:"weight_kg"`
	Quantity    int        `json:"quantity"`
	LineCount   int        `json:"line_count"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Status      int        `json:"status"`
	Failure     string     `json:"failure_reason"`
}

// Tasks reads one page of task rows after the cursor.
func (c *Client) Tasks(ctx context.Context, afterID int64, limit int) (wms.Page[wms.TaskRow], error) {
	var resp taskPageResponse
	if err := c.get(ctx, pagedPath("/api/v1/tasks", afterID, limit), &resp); err != nil {
		return wms.Page[wms.TaskRow]{}, err
	}

	page := wms.Page[wms.TaskRow]{LastID: resp.LastID, HasMore: resp.HasMore}
	for _, item := range resp.Items {
		page.Items = append(page.Items, wms.TaskRow{
			ID:          item.ID,
			WaveNumber:  item.WaveNumber,
			WorkerID:    item.WorkerID,
			WorkerName:  item.WorkerName,
			Role:        item.Role,
			Template:    item.Template,
			BasisNumber: item.BasisNumber,
			FromBin:     item.FromBin,
			ToBin:       item.ToBin,
			ProductSKU:  item.ProductSKU,
			ProductName: item.ProductName,
			WeightKg:    item.WeightKg,
			Quantity:    item.Quantity,
			LineCount:   item.LineCount,
			CreatedAt:   item.CreatedAt,
			StartedAt:   item.StartedAt,
			CompletedAt: item.CompletedAt,
			Status:      wms.WireTaskStatus(item.Status),
			Failure:     item.Failure,
		})
	}
	return page, nil
}

// Workers reads one page of worker master data after the cursor.
func (c *Client) Workers(ctx context.Context, afterID int64, limit int) (wms.Page[wms.WorkerRow], error) {
	var resp struct {
		Items   []wms.WorkerRow `json:"items"`
		LastID  int64           `json:"last_id"`
		HasMore bool            `json:"has_more"`
	}
	if err := c.get(ctx, pagedPath("/api/v1/workers", afterID, limit), &resp); err != nil {
		return wms.Page[wms.WorkerRow]{}, err
	}
	return wms.Page[wms.WorkerRow]{Items: resp.Items, LastID: resp.LastID, HasMore: resp.HasMore}, nil
}

// Zones reads one page of zone master data after the cursor.
func (c *Client) Zones(ctx context.Context, afterID int64, limit int) (wms.Page[wms.ZoneRow], error) {
	var resp struct {
		Items   []wms.ZoneRow `json:"items"`
		LastID  int64         `json:"last_id"`
		HasMore bool          `json:"has_more"`
	}
	if err := c.get(ctx, pagedPath("/api/v1/zones", afterID, limit), &resp); err != nil {
		return wms.Page[wms.ZoneRow]{}, err
	}
	return wms.Page[wms.ZoneRow]{Items: resp.Items, LastID: resp.LastID, HasMore: resp.HasMore}, nil
}

// Cells reads one page of cell master data after the cursor.
func (c *Client) Cells(ctx context.Context, afterID int64, limit int) (wms.Page[wms.CellRow], error) {
	var resp struct {
		Items   []wms.CellRow `json:"items"`
		LastID  int64         `json:"last_id"`
		HasMore bool          `json:"has_more"`
	}
	if err := c.get(ctx, pagedPath("/api/v1/cells", afterID, limit), &resp); err != nil {
		return wms.Page[wms.CellRow]{}, err
	}
	return wms.Page[wms.CellRow]{Items: resp.Items, LastID: resp.LastID, HasMore: resp.HasMore}, nil
}

// Products reads one page of product master data after the cursor.
func (c *Client) Products(ctx context.Context, afterID int64, limit int) (wms.Page[wms.ProductRow], error) {
	var resp struct {
		Items   []wms.ProductRow `json:"items"`
		LastID  int64            `json:"last_id"`
		HasMore bool             `json:"has_more"`
	}
	if err := c.get(ctx, pagedPath("/api/v1/products", afterID, limit), &resp); err != nil {
		return wms.Page[wms.ProductRow]{}, err
	}
	return wms.Page[wms.ProductRow]{Items: resp.Items, LastID: resp.LastID, HasMore: resp.HasMore}, nil
}

// Pickers reads the current picker states.
func (c *Client) Pickers(ctx context.Context) ([]wms.PickerStatus, error) {
	var resp struct {
		Items []wms.PickerStatus `json:"items"`
	}
	if err := c.get(ctx, "/api/v1/pickers/current", &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Forklifts reads the current forklift states.
func (c *Client) Forklifts(ctx context.Context) ([]wms.ForkliftStatus, error) {
	var resp struct {
		Items []wms.ForkliftStatus `json:"items"`
	}
	if err := c.get(ctx, "/api/v1/forklifts/current", &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Buffer reads the current buffer state.
func (c *Client) Buffer(ctx context.Context) (wms.BufferStatus, error) {
	var resp wms.BufferStatus
	if err := c.get(ctx, "/api/v1/buffer/current", &resp); err != nil {
		return wms.BufferStatus{}, err
	}
	return resp, nil
}

// CreateTask creates a pallet movement task and returns its WMS id.
func (c *Client) CreateTask(ctx context.Context, req wms.CreateTaskRequest) (int64, error) {
	body := map[string]interface{}{
		"from_zone": req.FromZone,
		"from_slot": req.FromSlot,
		"to_zone":   req.ToZone,
		"to_slot":   req.ToSlot,
		"pallet_id": req.PalletID,
		"priority":  int(req.Priority),
	}
	var resp struct {
		TaskID int64 `json:"task_id"`
	}
	if err := c.request(ctx, http.MethodPost, "/api/v1/tasks", body, &resp); err != nil {
		return 0, err
	}
	return resp.TaskID, nil
}

// UpdateTaskStatus sets the wire status of a task.
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID int64, status wms.WireTaskStatus) error {
	body := map[string]interface{}{"status": int(status)}
	path := fmt.Sprintf("/api/v1/tasks/%d/status", taskID)
	return c.request(ctx, http.MethodPut, path, body, nil)
}

// ConfirmPalletDelivery acknowledges a pallet's arrival in the buffer.
func (c *Client) ConfirmPalletDelivery(ctx context.Context, palletID string) error {
	path := fmt.Sprintf("/api/v1/pallets/%s/delivered", url.PathEscape(palletID))
	return c.request(ctx, http.MethodPost, path, nil, nil)
}

// ConfirmPalletConsumed acknowledges a pallet leaving the buffer.
func (c *Client) ConfirmPalletConsumed(ctx context.Context, palletID string) error {
	path := fmt.Sprintf("/api/v1/pallets/%s/consumed", url.PathEscape(palletID))
	return c.request(ctx, http.MethodPost, path, nil, nil)
}

// UpdateForkliftStatus sets a forklift's state.
func (c *Client) UpdateForkliftStatus(ctx context.Context, forkliftID, state string) error {
	body := map[string]interface{}{"state": state}
	path := fmt.Sprintf("/api/v1/forklifts/%s/status", url.PathEscape(forkliftID))
	return c.request(ctx, http.MethodPut, path, body, nil)
}

func pagedPath(path string, afterID int64, limit int) string {
	return fmt.Sprintf("%s?after_id=%d&limit=%d", path, afterID, limit)
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.request(ctx, http.MethodGet, path, nil, result)
}

// addJitter spreads retries between 50% and 150% of the base delay.
func addJitter(d time.Duration) time.Duration {
	jitter := 0.5 + rand.Float64()
	return time.Duration(float64(d) * jitter)
}

// request performs one HTTP call with rate limiting and exponential backoff
// retries. Network errors, 429 and 5xx responses retry; other statuses fail
// immediately.
func (c *Client) request(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	fullURL := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		var reqBody io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("failed to marshal request body: %w", err)
			}
			reqBody = bytes.NewBuffer(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("network error: %w", err)
			if attempt >= c.maxRetries {
				break
			}
			if ctx.Err() != nil {
				return fmt.Errorf("context cancelled: %w", ctx.Err())
			}
			c.clock.Sleep(addJitter(c.backoffBase * time.Duration(1<<attempt)))
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("failed to read response: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("wms returned %d: %s", resp.StatusCode, string(respBody))
			if attempt >= c.maxRetries {
				break
			}
			if ctx.Err() != nil {
				return fmt.Errorf("context cancelled: %w", ctx.Err())
			}
			delay := addJitter(c.backoffBase * time.Duration(1<<attempt))
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if seconds, err := strconv.Atoi(retryAfter); err == nil {
					delay = time.Duration(seconds) * time.Second
				}
			}
			c.clock.Sleep(delay)
			continue
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("wms returned %d: %s", resp.StatusCode, string(respBody))
		}

		if result != nil {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	}
	return fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}
