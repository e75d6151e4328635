package warehouse

import (
	"math"
	"sync"

	"github.com/wareflow/wareflow-go/internal/domain/shared"
)

// StorageZone is the unbounded collection of pallets waiting for
// replenishment, annotated with their distance from the buffer.
type StorageZone struct {
	mu      sync.Mutex
	pallets map[string]*Pallet
}

// NewStorageZone creates an empty storage zone.
func NewStorageZone() *StorageZone {
	return &StorageZone{pallets: make(map[string]*Pallet)}
}

// Count returns the number of stored pallets.
func (s *StorageZone) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pallets)
}

// Add ingests a pallet into storage.
func (s *StorageZone) Add(pallet *Pallet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pallets[pallet.ID()] = pallet
}

// Take removes and returns the pallet with the given id.
func (s *StorageZone) Take(palletID string) (*Pallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pallet, ok := s.pallets[palletID]
	if !ok {
		return nil, shared.NewPalletNotFoundError(palletID)
	}
	delete(s.pallets, palletID)
	return pallet, nil
}

// Nearest returns the stored pallet closest to the given position without
// removing it. Returns nil when storage is empty.
func (s *StorageZone) Nearest(positionM float64) *Pallet {
	s.mu.Lock()
	defer s.mu.Unlock()

	var nearest *Pallet
	best := math.MaxFloat64
	for _, pallet := range s.pallets {
		distance := math.Abs(pallet.StorageDistanceM() - positionM)
		if distance < best {
			best = distance
			nearest = pallet
		}
	}
	return nearest
}
