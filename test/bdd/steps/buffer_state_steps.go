package steps

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"

	"github.com/wareflow/wareflow-go/internal/domain/buffer"
)

type bufferStateContext struct {
	machine *buffer.StateMachine
}

func (bc *bufferStateContext) reset() {
	bc.machine = nil
}

func (bc *bufferStateContext) aBufferStateMachineWithThresholds(table *godog.Table) error {
	var thresholds buffer.Thresholds
	for i, row := range table.Rows {
		if i == 0 {
			continue // Skip header
		}
		var err error
		if thresholds.Critical, err = strconv.ParseFloat(row.Cells[0].Value, 64); err != nil {
			return err
		}
		if thresholds.Low, err = strconv.ParseFloat(row.Cells[1].Value, 64); err != nil {
			return err
		}
		if thresholds.High, err = strconv.ParseFloat(row.Cells[2].Value, 64); err != nil {
			return err
		}
		if thresholds.DeadBand, err = strconv.ParseFloat(row.Cells[3].Value, 64); err != nil {
			return err
		}
	}

	machine, err := buffer.NewStateMachine(thresholds, nil)
	if err != nil {
		return err
	}
	bc.machine = machine
	return nil
}

func (bc *bufferStateContext) theFillLevelBecomes(level string) error {
	if bc.machine == nil {
		return fmt.Errorf("no state machine configured")
	}
	value, err := strconv.ParseFloat(level, 64)
	if err != nil {
		return err
	}
	bc.machine.Update(value)
	return nil
}

func (bc *bufferStateContext) theBufferStateShouldBe(expected string) error {
	if bc.machine == nil {
		return fmt.Errorf("no state machine configured")
	}
	if got := string(bc.machine.State()); got != expected {
		return fmt.Errorf("expected state %s, got %s", expected, got)
	}
	return nil
}

func (bc *bufferStateContext) theRecommendedForkliftCountShouldBe(total, expected int) error {
	if got := bc.machine.RecommendedForkliftCount(total); got != expected {
		return fmt.Errorf("expected %d forklifts out of %d, got %d", expected, total, got)
	}
	return nil
}

func (bc *bufferStateContext) theDeliveryPriorityShouldBe(expected int) error {
	if got := bc.machine.DeliveryPriority(); got != expected {
		return fmt.Errorf("expected delivery priority %d, got %d", expected, got)
	}
	return nil
}

func InitializeBufferStateScenario(sc *godog.ScenarioContext) {
	bc := &bufferStateContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		bc.reset()
		return ctx, nil
	})

	sc.Step(`^a buffer state machine with thresholds:$`, bc.aBufferStateMachineWithThresholds)
	sc.Step(`^the fill level becomes (\d+(?:\.\d+)?)$`, bc.theFillLevelBecomes)
	sc.Step(`^the buffer state should be "([^"]*)"$`, bc.theBufferStateShouldBe)
	sc.Step(`^the recommended forklift count out of (\d+) should be (\d+)$`, bc.theRecommendedForkliftCountShouldBe)
	sc.Step(`^the delivery priority should be (\d+)$`, bc.theDeliveryPriorityShouldBe)
}
