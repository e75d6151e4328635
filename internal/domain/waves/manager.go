package waves

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wareflow/wareflow-go/internal/domain/scheduling"
	"github.com/wareflow/wareflow-go/internal/domain/shared"
	"github.com/wareflow/wareflow-go/internal/domain/warehouse"
)

// Settings bound wave sizing and deadlines.
type Settings struct {
	// Duration is the window between wave creation and its deadline.
	Duration time.Duration
	// SafetyMargin is added on top of the travel estimate in LeadTime.
	SafetyMargin time.Duration
	// MaxPalletsPerWave caps the total pallets a single wave may claim.
	MaxPalletsPerWave int
}

// Manager creates waves from orders, derives one heavy-first task stream per
// order, and tracks wave deadlines. Stream sequence numbers are issued from a
// single monotone counter so streams of later waves always sort after
// earlier ones.
type Manager struct {
	mu        sync.Mutex
	settings  Settings
	clock     shared.Clock
	waves     []*Wave
	waveSeq   int
	streamSeq int
}

// NewManager creates a wave manager.
func NewManager(settings Settings, clock shared.Clock) *Manager {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Manager{settings: settings, clock: clock}
}

// CreateWave builds a wave from the orders, claiming pallets from
// availablePallets by SKU. Each order becomes one stream whose tasks are
// ordered heaviest first. Orders whose demand cannot be met from the
// available pallets fail the whole wave.
func (m *Manager) CreateWave(orders []*Order, availablePallets []*warehouse.Pallet) (*Wave, error) {
	if len(orders) == 0 {
		return nil, shared.NewValidationError("orders", "wave needs at least one order")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	pool := palletPool(availablePallets)
	claimed := 0

	var streams []*scheduling.TaskStream
	for _, order := range orders {
		pallets, err := pool.claim(order)
		if err != nil {
			return nil, err
		}
		if m.settings.MaxPalletsPerWave > 0 && claimed+len(pallets) > m.settings.MaxPalletsPerWave {
			return nil, shared.NewValidationError("orders",
				fmt.Sprintf("wave exceeds pallet cap %d", m.settings.MaxPalletsPerWave))
		}
		claimed += len(pallets)

		// Heaviest pallets first: the stream's fixed internal sequence
		// is the heavy-on-bottom stacking order.
		sort.SliceStable(pallets, func(i, j int) bool {
			return pallets[i].TotalWeightKg() > pallets[j].TotalWeightKg()
		})

		tasks := make([]*scheduling.DeliveryTask, 0, len(pallets))
		for _, pallet := range pallets {
			task, err := scheduling.NewDeliveryTask(uuid.NewString(), pallet, now)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, task)
		}

		m.streamSeq++
		stream, err := scheduling.NewTaskStream(uuid.NewString(), order.ID(), m.streamSeq, tasks, now)
		if err != nil {
			return nil, err
		}
		streams = append(streams, stream)
	}

	m.waveSeq++
	wave := newWave(uuid.NewString(), m.waveSeq, orders, streams, now, now.Add(m.settings.Duration))
	m.waves = append(m.waves, wave)
	return wave, nil
}

// NextPendingWave returns the pending wave with the earliest deadline, or nil.
func (m *Manager) NextPendingWave() *Wave {
	m.mu.Lock()
	defer m.mu.Unlock()

	var next *Wave
	for _, wave := range m.waves {
		if wave.Status() != WaveStatusPending {
			continue
		}
		if next == nil || wave.Deadline().Before(next.Deadline()) {
			next = wave
		}
	}
	return next
}

// Start moves the wave into progress.
func (m *Manager) Start(wave *Wave) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return wave.Start(m.clock.Now())
}

// UpdateStatuses refreshes every wave against the clock and returns the waves
// whose status changed.
func (m *Manager) UpdateStatuses() []*Wave {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	var changed []*Wave
	for _, wave := range m.waves {
		before := wave.Status()
		if wave.Refresh(now) != before {
			changed = append(changed, wave)
		}
	}
	return changed
}

// Waves returns a snapshot of all managed waves in creation order.
func (m *Manager) Waves() []*Wave {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Wave, len(m.waves))
	copy(out, m.waves)
	return out
}

// WaveBySequence returns the wave with the sequence number, or nil.
func (m *Manager) WaveBySequence(sequenceNumber int) *Wave {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, wave := range m.waves {
		if wave.SequenceNumber() == sequenceNumber {
			return wave
		}
	}
	return nil
}

// LeadTime estimates the wall-clock a wave needs: the farthest pallet's
// travel at the mean forklift speed, plus the safety margin.
func (m *Manager) LeadTime(wave *Wave, forklifts []*warehouse.Forklift) time.Duration {
	maxDistance := 0.0
	for _, stream := range wave.Streams() {
		for _, task := range stream.Tasks() {
			if d := task.Pallet().StorageDistanceM(); d > maxDistance {
				maxDistance = d
			}
		}
	}

	avgSpeed := 0.0
	for _, f := range forklifts {
		avgSpeed += f.SpeedMPerS()
	}
	if len(forklifts) == 0 || avgSpeed == 0 {
		return m.settings.SafetyMargin
	}
	avgSpeed /= float64(len(forklifts))

	travel := time.Duration(maxDistance / avgSpeed * float64(time.Second))
	return travel + m.settings.SafetyMargin
}

// pool indexes pallets by SKU for claim-by-demand allocation.
type pool struct {
	bySKU map[string][]*warehouse.Pallet
}

func palletPool(pallets []*warehouse.Pallet) *pool {
	p := &pool{bySKU: make(map[string][]*warehouse.Pallet)}
	for _, pallet := range pallets {
		sku := pallet.Product().SKU()
		p.bySKU[sku] = append(p.bySKU[sku], pallet)
	}
	return p
}

// claim removes enough pallets from the pool to cover every line of the
// order. Demand is counted in units; pallets are claimed whole.
func (p *pool) claim(order *Order) ([]*warehouse.Pallet, error) {
	var claimed []*warehouse.Pallet
	for _, line := range order.Lines() {
		remaining := line.Quantity
		pallets := p.bySKU[line.SKU]
		taken := 0
		for _, pallet := range pallets {
			if remaining <= 0 {
				break
			}
			claimed = append(claimed, pallet)
			remaining -= pallet.Quantity()
			taken++
		}
		if remaining > 0 {
			return nil, shared.NewValidationError("orders",
				fmt.Sprintf("order %s: not enough pallets for sku %s (short %d units)", order.ID(), line.SKU, remaining))
		}
		p.bySKU[line.SKU] = pallets[taken:]
	}
	return claimed, nil
}
