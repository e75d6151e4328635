package backtest

import (
	"sort"
	"time"

	"github.com/wareflow/wareflow-go/internal/domain/history"
)

// factTimeline is the observed schedule reconstructed from the action log.
type factTimeline struct {
	records    []history.TaskActionRecord
	events     []ScheduleEvent
	days       []time.Time
	wallClockS float64
	activeS    float64
	// perDayActiveS maps day start to last_end - first_start within the day.
	perDayActiveS map[time.Time]float64
	perDayTasks   map[time.Time]int
	perWorker     map[string]*workerFact
}

type workerFact struct {
	id      string
	name    string
	role    history.WorkerRole
	tasks   int
	activeS float64
}

// buildFactTimeline orders the records by start time and derives wall clock,
// per-day active spans and per-worker totals.
func buildFactTimeline(records []history.TaskActionRecord) *factTimeline {
	usable := make([]history.TaskActionRecord, 0, len(records))
	for _, r := range records {
		if r.StartedAt != nil && r.CompletedAt != nil {
			usable = append(usable, r)
		}
	}
	sort.SliceStable(usable, func(i, j int) bool {
		return usable[i].StartedAt.Before(*usable[j].StartedAt)
	})

	ft := &factTimeline{
		records:       usable,
		perDayActiveS: make(map[time.Time]float64),
		perDayTasks:   make(map[time.Time]int),
		perWorker:     make(map[string]*workerFact),
	}
	if len(usable) == 0 {
		return ft
	}

	type daySpan struct{ first, last time.Time }
	spans := make(map[time.Time]*daySpan)
	lastEndByWorkerDay := make(map[string]time.Time)

	for _, r := range usable {
		day := r.Day()
		span, ok := spans[day]
		if !ok {
			span = &daySpan{first: *r.StartedAt, last: *r.CompletedAt}
			spans[day] = span
			ft.days = append(ft.days, day)
		} else {
			if r.StartedAt.Before(span.first) {
				span.first = *r.StartedAt
			}
			if r.CompletedAt.After(span.last) {
				span.last = *r.CompletedAt
			}
		}
		ft.perDayTasks[day]++

		worker, ok := ft.perWorker[r.WorkerID]
		if !ok {
			worker = &workerFact{id: r.WorkerID, name: r.WorkerName, role: r.Role}
			ft.perWorker[r.WorkerID] = worker
		}
		worker.tasks++
		worker.activeS += r.DurationS

		transition := 0.0
		wdKey := r.WorkerID + "|" + day.Format("2006-01-02")
		if prev, ok := lastEndByWorkerDay[wdKey]; ok {
			if gap := r.StartedAt.Sub(prev).Seconds(); gap > 0 {
				transition = gap
			}
		}
		lastEndByWorkerDay[wdKey] = *r.CompletedAt

		ft.events = append(ft.events, ScheduleEvent{
			Timeline:    TimelineFact,
			WorkerID:    r.WorkerID,
			WorkerName:  r.WorkerName,
			Role:        r.Role,
			Start:       *r.StartedAt,
			End:         *r.CompletedAt,
			DurationS:   r.DurationS,
			ProductName: r.ProductName,
			FromBin:     r.FromBin,
			ToBin:       r.ToBin,
			WeightKg:    r.WeightKg,
			TransitionS: transition,
		})
	}

	sort.Slice(ft.days, func(i, j int) bool { return ft.days[i].Before(ft.days[j]) })
	first := *usable[0].StartedAt
	last := first
	for _, r := range usable {
		if r.CompletedAt.After(last) {
			last = *r.CompletedAt
		}
	}
	ft.wallClockS = last.Sub(first).Seconds()
	for day, span := range spans {
		active := span.last.Sub(span.first).Seconds()
		ft.perDayActiveS[day] = active
		ft.activeS += active
	}
	return ft
}
