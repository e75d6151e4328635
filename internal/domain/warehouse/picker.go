package warehouse

import "github.com/wareflow/wareflow-go/internal/domain/shared"

// PickerState is the operational state of a picker.
type PickerState string

const (
	PickerStateIdle    PickerState = "IDLE"
	PickerStatePicking PickerState = "PICKING"
	PickerStateWaiting PickerState = "WAITING"
	PickerStateBreak   PickerState = "BREAK"
	PickerStateOffline PickerState = "OFFLINE"
)

// Picker drains the buffer into order cells. Pickers never own pallets
// beyond the pick currently in progress.
type Picker struct {
	id                    string
	name                  string
	state                 PickerState
	avgRate               float64 // long-run lines per minute
	currentRate           float64 // lines per minute over the recent window
	palletConsumptionRate float64 // pallets per hour
}

// NewPicker creates an idle picker.
func NewPicker(id, name string, avgRate float64) (*Picker, error) {
	if id == "" {
		return nil, shared.NewValidationError("id", "cannot be empty")
	}
	if avgRate < 0 {
		return nil, shared.NewValidationError("avg_rate", "cannot be negative")
	}

	return &Picker{
		id:      id,
		name:    name,
		state:   PickerStateIdle,
		avgRate: avgRate,
	}, nil
}

func (p *Picker) ID() string                     { return p.id }
func (p *Picker) Name() string                   { return p.name }
func (p *Picker) State() PickerState             { return p.state }
func (p *Picker) AvgRate() float64               { return p.avgRate }
func (p *Picker) CurrentRate() float64           { return p.currentRate }
func (p *Picker) PalletConsumptionRate() float64 { return p.palletConsumptionRate }

// IsActive reports whether the picker counts toward consumption capacity.
func (p *Picker) IsActive() bool {
	return p.state == PickerStateIdle || p.state == PickerStatePicking || p.state == PickerStateWaiting
}

// SetState moves the picker to a new operational state.
func (p *Picker) SetState(state PickerState) {
	p.state = state
}

// ObserveRates updates the measured picking and consumption rates.
func (p *Picker) ObserveRates(currentRate, palletConsumptionRate float64) {
	p.currentRate = currentRate
	p.palletConsumptionRate = palletConsumptionRate
}
