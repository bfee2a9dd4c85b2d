/*
simulator.go - Multi-scenario what-if projections

PURPOSE:
  Runs the rebate calculator over a list of named turnover scenarios and
  produces comparable results with effective rates. Used by the what-if
  screen ("Pessimiste / Realiste / Optimiste") to project a contract before
  the period closes.

GUARANTEES:
  - Order-preserving: result i corresponds to scenario i
  - Independent: each scenario is a fresh Calculate call; scenarios share no
    mutable state and their relative order has no effect on any result.
    Batches are embarrassingly parallel; callers may fan out freely.
  - Pure and repeatable: identical inputs give identical outputs, so two
    simulations can be compared side by side.

DEGENERATE INPUTS:
  A zero-turnover scenario is legal: its effective rate is reported as 0
  instead of dividing by zero, and the case is surfaced in the Warnings
  side channel so callers can log it. Negative turnover is a validation
  error and fails the whole batch.
*/
package rfa

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SCENARIO SHAPES
// =============================================================================

// Scenario is a hypothetical turnover value used for projection. Ephemeral
// input, never persisted.
type Scenario struct {
	Name           string
	TurnoverAmount decimal.Decimal
}

// SimulationResult is one projected outcome.
type SimulationResult struct {
	ScenarioName   string
	TurnoverAmount decimal.Decimal
	RFAAmount      decimal.Decimal
	EffectiveRate  decimal.Decimal
	TierReached    *int // index of the highest tier reached, nil outside Progressive
	Breakdown      []TierBreakdown
}

// DegenerateInputWarning flags a numeric edge case that produced a documented
// fallback instead of an error.
type DegenerateInputWarning struct {
	ScenarioName string
	Reason       string
}

// SimulationOutput bundles the per-scenario results with any degenerate-input
// warnings encountered along the way.
type SimulationOutput struct {
	Results  []SimulationResult
	Warnings []DegenerateInputWarning
}

// =============================================================================
// SIMULATE
// =============================================================================

// Simulate evaluates every scenario independently against the configuration.
// Results come back in scenario order.
func Simulate(config DiscountConfig, scenarios []Scenario) (*SimulationOutput, error) {
	out := &SimulationOutput{Results: make([]SimulationResult, 0, len(scenarios))}

	for i, scenario := range scenarios {
		result, err := Calculate(scenario.TurnoverAmount, config)
		if err != nil {
			return nil, fmt.Errorf("scenario %d (%s): %w", i, scenario.Name, err)
		}

		if scenario.TurnoverAmount.IsZero() {
			out.Warnings = append(out.Warnings, DegenerateInputWarning{
				ScenarioName: scenario.Name,
				Reason:       "zero turnover: effective rate reported as 0",
			})
		}

		var tierReached *int
		if len(result.Breakdown) > 0 {
			idx := result.Breakdown[len(result.Breakdown)-1].TierIndex
			tierReached = &idx
		}

		out.Results = append(out.Results, SimulationResult{
			ScenarioName:   scenario.Name,
			TurnoverAmount: scenario.TurnoverAmount,
			RFAAmount:      result.RFAAmount,
			EffectiveRate:  EffectiveRate(result.RFAAmount, scenario.TurnoverAmount),
			TierReached:    tierReached,
			Breakdown:      result.Breakdown,
		})
	}

	return out, nil
}
