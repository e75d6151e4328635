package warehouse

import (
	"github.com/wareflow/wareflow-go/internal/domain/product"
	"github.com/wareflow/wareflow-go/internal/domain/shared"
)

// PalletLocation tracks where a pallet is along its lifecycle:
// Storage -> InTransit -> Buffer -> Picking -> Completed.
type PalletLocation string

const (
	PalletLocationStorage   PalletLocation = "STORAGE"
	PalletLocationInTransit PalletLocation = "IN_TRANSIT"
	PalletLocationBuffer    PalletLocation = "BUFFER"
	PalletLocationPicking   PalletLocation = "PICKING"
	PalletLocationCompleted PalletLocation = "COMPLETED"
)

// validPalletMoves encodes the forward-only pallet lifecycle.
var validPalletMoves = map[PalletLocation]PalletLocation{
	PalletLocationStorage:   PalletLocationInTransit,
	PalletLocationInTransit: PalletLocationBuffer,
	PalletLocationBuffer:    PalletLocationPicking,
	PalletLocationPicking:   PalletLocationCompleted,
}

// Pallet is a mono-product load unit. Created by storage ingestion,
// destroyed after reaching Completed.
type Pallet struct {
	id                string
	product           *product.Product
	quantity          int
	storageDistanceM  float64
	location          PalletLocation
	carrierForkliftID string
}

// NewPallet creates a pallet in the storage zone.
func NewPallet(id string, prod *product.Product, quantity int, storageDistanceM float64) (*Pallet, error) {
	if id == "" {
		return nil, shared.NewValidationError("id", "cannot be empty")
	}
	if prod == nil {
		return nil, shared.NewValidationError("product", "cannot be nil")
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError("quantity", "must be positive")
	}

	return &Pallet{
		id:               id,
		product:          prod,
		quantity:         quantity,
		storageDistanceM: storageDistanceM,
		location:         PalletLocationStorage,
	}, nil
}

func (p *Pallet) ID() string                { return p.id }
func (p *Pallet) Product() *product.Product { return p.product }
func (p *Pallet) Quantity() int             { return p.quantity }
func (p *Pallet) StorageDistanceM() float64 { return p.storageDistanceM }
func (p *Pallet) Location() PalletLocation  { return p.location }

// CarrierForkliftID returns the forklift exclusively holding this pallet
// while it is in transit, or "" otherwise.
func (p *Pallet) CarrierForkliftID() string { return p.carrierForkliftID }

// TotalWeightKg is the unit weight multiplied by the pallet quantity.
func (p *Pallet) TotalWeightKg() float64 {
	return p.product.WeightKg() * float64(p.quantity)
}

// MoveTo advances the pallet one step along its lifecycle.
func (p *Pallet) MoveTo(target PalletLocation) error {
	if validPalletMoves[p.location] != target {
		return shared.NewInvalidTransitionError("pallet "+p.id, string(p.location), string(target))
	}
	if target != PalletLocationInTransit {
		p.carrierForkliftID = ""
	}
	p.location = target
	return nil
}

// PickUp moves the pallet into transit, held exclusively by one forklift.
func (p *Pallet) PickUp(forkliftID string) error {
	if err := p.MoveTo(PalletLocationInTransit); err != nil {
		return err
	}
	p.carrierForkliftID = forkliftID
	return nil
}
