package waves

import "github.com/wareflow/wareflow-go/internal/domain/shared"

// OrderLine is one SKU demand within an order.
type OrderLine struct {
	SKU      string
	Quantity int
}

// Order is a customer order to be fulfilled by one task stream within a wave.
type Order struct {
	id    string
	lines []OrderLine
}

// NewOrder creates an order. Every line must name a SKU with a positive
// quantity.
func NewOrder(id string, lines []OrderLine) (*Order, error) {
	if id == "" {
		return nil, shared.NewValidationError("id", "cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("lines", "order cannot be empty")
	}
	for _, line := range lines {
		if line.SKU == "" {
			return nil, shared.NewValidationError("sku", "cannot be empty")
		}
		if line.Quantity <= 0 {
			return nil, shared.NewValidationError("quantity", "must be positive")
		}
	}
	return &Order{id: id, lines: lines}, nil
}

func (o *Order) ID() string { return o.id }

// Lines returns a snapshot of the order lines.
func (o *Order) Lines() []OrderLine {
	out := make([]OrderLine, len(o.lines))
	copy(out, o.lines)
	return out
}

// TotalQuantity sums the demanded units across all lines.
func (o *Order) TotalQuantity() int {
	total := 0
	for _, line := range o.lines {
		total += line.Quantity
	}
	return total
}
