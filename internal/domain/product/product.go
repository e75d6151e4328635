package product

import (
	"github.com/wareflow/wareflow-go/internal/domain/shared"
)

// WeightCategory buckets products by unit weight. The thresholds are the
// operational defaults; deployments with different goods profiles can
// override them through the buffer configuration group.
type WeightCategory string

const (
	WeightCategoryLight  WeightCategory = "LIGHT"
	WeightCategoryMedium WeightCategory = "MEDIUM"
	WeightCategoryHeavy  WeightCategory = "HEAVY"

	// DefaultLightMaxKg is the exclusive upper bound of the Light category.
	DefaultLightMaxKg = 5.0
	// DefaultHeavyMinKg is the inclusive lower bound of the Heavy category.
	DefaultHeavyMinKg = 20.0
)

// CategoryForWeight maps a unit weight to its category using the given
// thresholds. lightMax is exclusive, heavyMin inclusive.
func CategoryForWeight(weightKg, lightMax, heavyMin float64) WeightCategory {
	switch {
	case weightKg < lightMax:
		return WeightCategoryLight
	case weightKg >= heavyMin:
		return WeightCategoryHeavy
	default:
		return WeightCategoryMedium
	}
}

// Product is an immutable catalog entry. Weight drives both the category and
// the default picking priority (heavier goods are picked first so lighter
// goods end up on top).
type Product struct {
	sku      string
	name     string
	weightKg float64
	category WeightCategory
	priority int
}

// NewProduct creates a product with the default weight-category thresholds
// and the weight-derived priority floor(weight * 10).
func NewProduct(sku, name string, weightKg float64) (*Product, error) {
	return NewProductWithThresholds(sku, name, weightKg, DefaultLightMaxKg, DefaultHeavyMinKg)
}

// NewProductWithThresholds creates a product with explicit category
// thresholds.
func NewProductWithThresholds(sku, name string, weightKg, lightMax, heavyMin float64) (*Product, error) {
	if sku == "" {
		return nil, shared.NewValidationError("sku", "cannot be empty")
	}
	if weightKg < 0 {
		// Schema invariant: negative weights are clamped, not rejected.
		weightKg = 0
	}

	return &Product{
		sku:      sku,
		name:     name,
		weightKg: weightKg,
		category: CategoryForWeight(weightKg, lightMax, heavyMin),
		priority: int(weightKg * 10),
	}, nil
}

func (p *Product) SKU() string              { return p.sku }
func (p *Product) Name() string             { return p.name }
func (p *Product) WeightKg() float64        { return p.weightKg }
func (p *Product) Category() WeightCategory { return p.category }

// Priority is the picking priority derived from weight; higher means the
// product must be placed into an order earlier.
func (p *Product) Priority() int { return p.priority }
