package buffer

import (
	"github.com/wareflow/wareflow-go/internal/domain/queueing"
	"github.com/wareflow/wareflow-go/internal/domain/warehouse"
)

// deliveryRateGain scales the consumption-matching term of the required
// delivery rate per state: starve states push harder, overflow backs off.
var deliveryRateGain = map[State]float64{
	StateCritical: 3.0,
	StateLow:      1.5,
	StateNormal:   1.0,
	StateOverflow: 0.5,
}

// palletDeficitFloor is the minimum pallet request per state, so that a
// starving buffer always asks for something even when the raw deficit
// rounds to zero.
var palletDeficitFloor = map[State]int{
	StateCritical: 5,
	StateLow:      3,
	StateNormal:   1,
	StateOverflow: 0,
}

// Controller converts the observed buffer level and consumption rate into a
// required delivery rate, a pallet deficit and a recommended forklift count.
// It drives the state machine and keeps the last observation for the
// pallet-deficit computation.
type Controller struct {
	machine         *StateMachine
	capacity        int
	level           float64
	consumptionRate float64 // pallets per hour
	queueBands      queueing.Bands
}

// NewController creates a controller over a fresh state machine.
func NewController(machine *StateMachine, capacity int, queueBands queueing.Bands) *Controller {
	return &Controller{
		machine:    machine,
		capacity:   capacity,
		queueBands: queueBands,
	}
}

// Machine exposes the underlying state machine.
func (c *Controller) Machine() *StateMachine { return c.machine }

// State returns the current buffer state.
func (c *Controller) State() State { return c.machine.State() }

// TargetLevel is the midpoint of the low and high thresholds: the center of
// the safe operating band.
func (c *Controller) TargetLevel() float64 {
	t := c.machine.Thresholds()
	return (t.Low + t.High) / 2
}

// Update feeds a new observation of the buffer into the controller and the
// state machine, returning the resulting state.
func (c *Controller) Update(zone *warehouse.BufferZone, consumptionRate float64) State {
	c.level = zone.FillLevel()
	c.consumptionRate = consumptionRate
	return c.machine.Update(c.level)
}

// UpdateLevel is Update for callers that observe the level directly (e.g.
// from a WMS snapshot) rather than through a local buffer zone.
func (c *Controller) UpdateLevel(level, consumptionRate float64) State {
	c.level = level
	c.consumptionRate = consumptionRate
	return c.machine.Update(level)
}

// RequiredDeliveryRate returns the delivery rate (pallets per hour) needed
// to hold the buffer at its target level given the consumption rate:
// the state-gained consumption plus a proportional correction toward the
// target, floored at zero.
func (c *Controller) RequiredDeliveryRate(consumptionRate float64) float64 {
	gain := deliveryRateGain[c.machine.State()]
	rate := consumptionRate*gain + (c.TargetLevel()-c.level)*consumptionRate*2
	if rate < 0 {
		return 0
	}
	return rate
}

// PalletsToRequest returns the number of pallets to pull from storage to
// close the gap to the target level, never less than the per-state floor.
func (c *Controller) PalletsToRequest() int {
	deficit := int((c.TargetLevel() - c.level) * float64(c.capacity))
	floor := palletDeficitFloor[c.machine.State()]
	if deficit < floor {
		return floor
	}
	return deficit
}

// RecommendedForkliftCount maps the current state to an active forklift
// count out of total.
func (c *Controller) RecommendedForkliftCount(total int) int {
	return c.machine.RecommendedForkliftCount(total)
}

// UrgentDeliveryRequired reports whether the buffer is in a state that
// demands immediate replenishment.
func (c *Controller) UrgentDeliveryRequired() bool {
	return c.machine.State() == StateCritical
}

// QueueAnalysis models the replenishment pipeline as an M/M/c queue with
// the required delivery rate as arrival rate and the per-forklift delivery
// rate as service rate, returning utilisation warnings per the configured
// bands.
func (c *Controller) QueueAnalysis(activeForklifts int, perForkliftRatePerHour float64) queueing.Analysis {
	arrival := c.RequiredDeliveryRate(c.consumptionRate)
	return queueing.Analyze(arrival, perForkliftRatePerHour, activeForklifts, c.queueBands)
}
