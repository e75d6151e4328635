package warehouse

import (
	"sort"
	"sync"

	"github.com/wareflow/wareflow-go/internal/domain/shared"
)

// BufferZone is the bounded staging area between storage and picking.
// It is a single shared resource: every operation takes the zone mutex.
//
// Invariants:
//   - pallet count never exceeds capacity
//   - every pallet held has location == Buffer
type BufferZone struct {
	mu       sync.Mutex
	capacity int
	pallets  map[string]*Pallet
}

// NewBufferZone creates an empty buffer with the given slot capacity.
func NewBufferZone(capacity int) (*BufferZone, error) {
	if capacity <= 0 {
		return nil, shared.NewValidationError("capacity", "must be positive")
	}
	return &BufferZone{
		capacity: capacity,
		pallets:  make(map[string]*Pallet),
	}, nil
}

// Capacity returns the fixed slot count.
func (b *BufferZone) Capacity() int { return b.capacity }

// Count returns the number of pallets currently buffered.
func (b *BufferZone) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pallets)
}

// FillLevel returns the occupancy fraction in [0, 1].
func (b *BufferZone) FillLevel() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return float64(len(b.pallets)) / float64(b.capacity)
}

// FreeSlots returns the number of unoccupied slots.
func (b *BufferZone) FreeSlots() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity - len(b.pallets)
}

// Insert places a pallet into a free slot. Fails when the buffer is full.
// The pallet must already be in (or moving to) the Buffer location.
func (b *BufferZone) Insert(pallet *Pallet) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pallets) >= b.capacity {
		return shared.NewBufferFullError(b.capacity)
	}
	if pallet.Location() != PalletLocationBuffer {
		if err := pallet.MoveTo(PalletLocationBuffer); err != nil {
			return err
		}
	}
	b.pallets[pallet.ID()] = pallet
	return nil
}

// Take removes and returns the pallet with the given id.
func (b *BufferZone) Take(palletID string) (*Pallet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pallet, ok := b.pallets[palletID]
	if !ok {
		return nil, shared.NewPalletNotFoundError(palletID)
	}
	delete(b.pallets, palletID)
	return pallet, nil
}

// TakeHeaviest removes and returns the pallet with the largest total weight.
// Heavy-on-bottom: pickers drain the buffer heaviest-first. Equal weights
// break toward the lower pallet id.
func (b *BufferZone) TakeHeaviest() (*Pallet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pallets) == 0 {
		return nil, shared.NewPalletNotFoundError("(heaviest)")
	}

	var heaviest *Pallet
	for _, pallet := range b.pallets {
		if heaviest == nil || pallet.TotalWeightKg() > heaviest.TotalWeightKg() ||
			(pallet.TotalWeightKg() == heaviest.TotalWeightKg() && pallet.ID() < heaviest.ID()) {
			heaviest = pallet
		}
	}
	delete(b.pallets, heaviest.ID())
	return heaviest, nil
}

// PalletsByWeight returns the buffered pallets sorted by descending total
// weight. The returned slice is a snapshot.
func (b *BufferZone) PalletsByWeight() []*Pallet {
	b.mu.Lock()
	defer b.mu.Unlock()

	snapshot := make([]*Pallet, 0, len(b.pallets))
	for _, pallet := range b.pallets {
		snapshot = append(snapshot, pallet)
	}
	sort.Slice(snapshot, func(i, j int) bool {
		if snapshot[i].TotalWeightKg() != snapshot[j].TotalWeightKg() {
			return snapshot[i].TotalWeightKg() > snapshot[j].TotalWeightKg()
		}
		return snapshot[i].ID() < snapshot[j].ID()
	})
	return snapshot
}
