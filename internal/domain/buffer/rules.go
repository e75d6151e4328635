package buffer

import "sort"

// BufferFact is the buffer-side snapshot a rule evaluation runs against.
type BufferFact struct {
	FillLevel       float64
	State           State
	PendingTasks    int
	IdleForklifts   int
	ConsumptionRate float64 // pallets per hour
}

// ForkliftFact is the per-forklift snapshot a rule evaluation runs against.
type ForkliftFact struct {
	ForkliftID string
	Idle       bool
	Offline    bool
}

// ActionType classifies a recommendation produced by the rule engine.
type ActionType string

const (
	ActionUrgentDelivery      ActionType = "URGENT_DELIVERY"
	ActionRequestPallets      ActionType = "REQUEST_PALLETS"
	ActionDeactivateForklifts ActionType = "DEACTIVATE_FORKLIFTS"
)

// RecommendedAction is one prioritized recommendation. Consumers drain
// actions in strict priority order; ties preserve rule insertion order.
type RecommendedAction struct {
	Type      ActionType
	Priority  int
	Reason    string
	Pallets   int
	Forklifts []string // forklifts to activate, or to keep for a deactivation
	KeepCount int      // for DeactivateForklifts: how many to keep active
}

// Rule matches the current facts and, when it fires, yields an action.
type Rule struct {
	Name string
	When func(BufferFact, []ForkliftFact) bool
	Then func(BufferFact, []ForkliftFact) RecommendedAction
}

// highConsumptionPalletsPerHour is the probing threshold above which the
// engine pre-requests pallets even in Normal state.
const highConsumptionPalletsPerHour = 150.0

// Engine is a stateless forward evaluator over a closed, static rule set.
// Facts and actions from a prior cycle are never retained.
type Engine struct {
	rules []Rule
}

// NewEngine creates the engine with the production rule set.
func NewEngine() *Engine {
	return &Engine{rules: productionRules()}
}

// Evaluate matches every rule against the facts and returns the fired
// actions sorted by descending priority, insertion order on ties.
func (e *Engine) Evaluate(fact BufferFact, forklifts []ForkliftFact) []RecommendedAction {
	var actions []RecommendedAction
	for _, rule := range e.rules {
		if rule.When(fact, forklifts) {
			actions = append(actions, rule.Then(fact, forklifts))
		}
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Priority > actions[j].Priority
	})
	return actions
}

func productionRules() []Rule {
	return []Rule{
		{
			Name: "critical-urgent-delivery",
			When: func(f BufferFact, _ []ForkliftFact) bool {
				return f.State == StateCritical
			},
			Then: func(f BufferFact, forklifts []ForkliftFact) RecommendedAction {
				return RecommendedAction{
					Type:      ActionUrgentDelivery,
					Priority:  100,
					Reason:    "buffer critical: immediate replenishment required",
					Pallets:   10,
					Forklifts: allOnline(forklifts),
				}
			},
		},
		{
			Name: "low-with-idle-forklifts",
			When: func(f BufferFact, _ []ForkliftFact) bool {
				return f.State == StateLow && f.IdleForklifts > 0
			},
			Then: func(f BufferFact, forklifts []ForkliftFact) RecommendedAction {
				pallets := 2 * f.IdleForklifts
				if pallets < 3 {
					pallets = 3
				}
				return RecommendedAction{
					Type:      ActionRequestPallets,
					Priority:  75,
					Reason:    "buffer low and idle forklifts available",
					Pallets:   pallets,
					Forklifts: idle(forklifts),
				}
			},
		},
		{
			Name: "high-consumption-probe",
			When: func(f BufferFact, _ []ForkliftFact) bool {
				return f.State == StateNormal &&
					f.ConsumptionRate > highConsumptionPalletsPerHour &&
					f.FillLevel < 0.5
			},
			Then: func(f BufferFact, _ []ForkliftFact) RecommendedAction {
				return RecommendedAction{
					Type:     ActionRequestPallets,
					Priority: 60,
					Reason:   "high consumption with level under half: pre-request pallets",
					Pallets:  5,
				}
			},
		},
		{
			Name: "overflow-retire-forklifts",
			When: func(f BufferFact, _ []ForkliftFact) bool {
				return f.State == StateOverflow
			},
			Then: func(f BufferFact, forklifts []ForkliftFact) RecommendedAction {
				return RecommendedAction{
					Type:      ActionDeactivateForklifts,
					Priority:  50,
					Reason:    "buffer overflowing: retire forklifts",
					KeepCount: 1,
				}
			},
		},
	}
}

func allOnline(forklifts []ForkliftFact) []string {
	var ids []string
	for _, f := range forklifts {
		if !f.Offline {
			ids = append(ids, f.ForkliftID)
		}
	}
	return ids
}

func idle(forklifts []ForkliftFact) []string {
	var ids []string
	for _, f := range forklifts {
		if f.Idle && !f.Offline {
			ids = append(ids, f.ForkliftID)
		}
	}
	return ids
}
