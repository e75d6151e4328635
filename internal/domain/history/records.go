// Package history holds the append-only action log records and the
// aggregates derived from them.
package history

import (
	"time"

	"github.com/wareflow/wareflow-go/internal/domain/shared"
)

// WorkerRole distinguishes the two kinds of logged workers.
type WorkerRole string

const (
	RolePicker   WorkerRole = "PICKER"
	RoleForklift WorkerRole = "FORKLIFT"
)

// TaskActionRecord is one completed physical action from the WMS log. Rows
// are identified by a stable UUID: re-ingesting the same id is a no-op apart
// from refreshing the mutable execution fields.
type TaskActionRecord struct {
	ID            string
	WmsTaskID     int64
	WaveNumber    int
	WorkerID      string
	WorkerName    string
	Role          WorkerRole
	Template      string
	BasisNumber   string
	FromBin       string
	ToBin         string
	ProductSKU    string
	ProductName   string
	WeightKg      float64
	Quantity      int
	LineCount     int
	CreatedAt     time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	Status        string
	DurationS     float64
	FailureReason string
}

// FromZone extracts the zone code from the origin bin.
func (r TaskActionRecord) FromZone() string { return shared.ZoneFromBinCode(r.FromBin) }

// ToZone extracts the zone code from the destination bin.
func (r TaskActionRecord) ToZone() string { return shared.ZoneFromBinCode(r.ToBin) }

// Day returns the calendar day the action started on (UTC), falling back to
// the creation time when the start is unknown.
func (r TaskActionRecord) Day() time.Time {
	t := r.CreatedAt
	if r.StartedAt != nil {
		t = *r.StartedAt
	}
	return t.UTC().Truncate(24 * time.Hour)
}

// BufferSnapshot is one periodic observation of the buffer zone. Snapshots
// are keyed by time; a second write at the same instant replaces the row.
type BufferSnapshot struct {
	Time            time.Time
	BufferLevel     float64
	BufferState     string
	PalletsCount    int
	ActiveForklifts int
	ActivePickers   int
	ConsumptionRate float64
	DeliveryRate    float64
	QueueLength     int
	PendingTasks    int
}

// WorkerRecord aggregates one worker's logged actions.
type WorkerRecord struct {
	WorkerID        string
	WorkerName      string
	Role            WorkerRole
	TaskCount       int
	AvgDurationS    float64
	MedianDurationS float64
	StdDevS         float64
	P90DurationS    float64
	TasksPerHour    float64
	FirstActivity   time.Time
	LastActivity    time.Time
}

// RouteStatistics aggregates forklift travel between two zones, with IQR
// outlier trimming applied before the normalized moments are computed.
type RouteStatistics struct {
	FromZone           string
	ToZone             string
	Trips              int
	NormalizedTrips    int
	AvgDurationS       float64
	MedianDurationS    float64
	StdDevS            float64
	LowerBoundS        float64
	UpperBoundS        float64
	OutliersRemoved    int
	PredictedDurationS float64
	Confidence         float64
}

// PickerProductStats aggregates one picker's throughput on one product.
type PickerProductStats struct {
	PickerID     string
	PickerName   string
	ProductSKU   string
	ProductName  string
	Observations int
	LinesPerMin  float64
	UnitsPerMin  float64
	KgPerMin     float64
	AvgDurationS float64
	Confidence   float64
}

// WorkerTransitionStats is the median switchover gap between one worker's
// successive same-day actions, restricted to gaps in (0, 10 min).
type WorkerTransitionStats struct {
	WorkerID     string
	WorkerName   string
	Role         WorkerRole
	MedianGapS   float64
	Observations int
}

// RouteTrainingRow is a route observation flattened for predictor training.
type RouteTrainingRow struct {
	FromZone  string
	ToZone    string
	WeightKg  float64
	Quantity  int
	Hour      int
	Weekday   int
	DurationS float64
}

// PickerTrainingRow is a pick observation flattened for predictor training.
type PickerTrainingRow struct {
	PickerID   string
	ProductSKU string
	WeightKg   float64
	Quantity   int
	LineCount  int
	Hour       int
	Weekday    int
	DurationS  float64
}
