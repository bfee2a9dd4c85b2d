/*
calculator.go - The rebate calculation

PURPOSE:
  Pure function: (turnover, discount configuration) -> (rebate amount,
  per-tier breakdown). Deterministic, no side effects, no I/O. Safe to call
  from any number of goroutines concurrently as long as the caller does not
  mutate the configuration mid-batch.

ALGORITHM BY VARIANT:
  FixedAmount:  rebate = amount. Scenario-invariant: the result does not
                depend on turnover at all.
  FixedPercent: rebate = turnover * rate.
  Progressive:  bracket-style, like a progressive tax schedule. Each tier
                the turnover reaches contributes (portion in tier) * rate.

BOUNDARY SEMANTICS (discrete tiers):
  A tier applies only when turnover > tier.Min (strict). Because Min is the
  first currency unit INSIDE the tier, the portion attributed to a reached
  tier is min(turnover, max) - (min - 1), with the base tier (min = 0)
  attributed from zero. This keeps the breakdown partition exact: the tier
  amounts sum back to the turnover consumed by the schedule.

  Consequences worth knowing:
  - turnover == tier.Min contributes nothing to that tier (strict >)
  - turnover == 0 reaches no tier at all, including a min = 0 tier;
    zero turnover yields a zero rebate with an empty breakdown

INVARIANTS:
  - sum(breakdown[i].TierAmount) == min(turnover, last reached tier max)
  - sum(breakdown[i].RFAAmount)  == RFAAmount, exactly (decimal arithmetic)
  - monotone: more turnover never yields a smaller rebate
*/
package rfa

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RESULT SHAPE
// =============================================================================

// TierBreakdown is the per-tier decomposition of a computed rebate, kept for
// auditability. Pure derived data owned by the calculation that produced it.
type TierBreakdown struct {
	TierIndex  int
	TierMin    decimal.Decimal
	TierMax    *decimal.Decimal
	TierRate   decimal.Decimal
	TierAmount decimal.Decimal // portion of turnover attributed to this tier
	RFAAmount  decimal.Decimal // rebate contributed by this tier
}

// CalculationResult is the output of Calculate. Breakdown is empty for the
// fixed variants.
type CalculationResult struct {
	RFAAmount decimal.Decimal
	Breakdown []TierBreakdown
}

// =============================================================================
// CALCULATE
// =============================================================================

// Calculate computes the rebate for a realized turnover under the given
// configuration. Turnover must be non-negative; the configuration is assumed
// validated at construction.
func Calculate(turnover decimal.Decimal, config DiscountConfig) (*CalculationResult, error) {
	if turnover.IsNegative() {
		return nil, newValidationError(ErrInvalidTurnover, "turnover_amount",
			fmt.Sprintf("turnover %s is negative", turnover))
	}

	switch config.Type {
	case TypeFixedAmount:
		return &CalculationResult{RFAAmount: config.Amount, Breakdown: []TierBreakdown{}}, nil

	case TypeFixedPercent:
		return &CalculationResult{RFAAmount: turnover.Mul(config.Rate), Breakdown: []TierBreakdown{}}, nil

	case TypeProgressive:
		return calculateProgressive(turnover, config.Tiers)

	default:
		return nil, newValidationError(ErrConfigMismatch, "type",
			fmt.Sprintf("unknown discount type %q", config.Type))
	}
}

func calculateProgressive(turnover decimal.Decimal, tiers []Tier) (*CalculationResult, error) {
	if len(tiers) == 0 {
		return nil, newValidationError(ErrEmptyTierSet, "tiers", "at least one tier required")
	}

	one := decimal.NewFromInt(1)
	total := decimal.Zero
	breakdown := []TierBreakdown{}

	for i, tier := range tiers {
		// Tiers are sorted ascending; once the turnover no longer exceeds a
		// tier's lower bound, no further tier is reached.
		if !turnover.GreaterThan(tier.Min) {
			break
		}

		upper := turnover
		if tier.Max != nil && tier.Max.LessThan(turnover) {
			upper = *tier.Max
		}

		// Min is the first unit inside the tier, so attribution starts one
		// unit below it. The base tier is attributed from zero.
		lower := tier.Min
		if lower.IsPositive() {
			lower = lower.Sub(one)
		}

		tierAmount := upper.Sub(lower)
		tierRFA := tierAmount.Mul(tier.Rate)
		total = total.Add(tierRFA)

		breakdown = append(breakdown, TierBreakdown{
			TierIndex:  i,
			TierMin:    tier.Min,
			TierMax:    tier.Max,
			TierRate:   tier.Rate,
			TierAmount: tierAmount,
			RFAAmount:  tierRFA,
		})

		// The turnover has been fully consumed by tiers up to this one.
		if tier.Max != nil && !turnover.GreaterThan(*tier.Max) {
			break
		}
	}

	return &CalculationResult{RFAAmount: total, Breakdown: breakdown}, nil
}

// =============================================================================
// DERIVED QUERIES
// =============================================================================

// EffectiveRate is the blended rate actually achieved: rebate / turnover.
// Zero turnover reports a zero rate rather than dividing by zero; callers
// treat that case as a degenerate-input warning, not an error.
func EffectiveRate(rfaAmount, turnover decimal.Decimal) decimal.Decimal {
	if turnover.IsZero() {
		return decimal.Zero
	}
	return rfaAmount.Div(turnover)
}

// NextTier returns the first tier the turnover has not yet reached, if any.
// Only meaningful for progressive configurations; used for tier-approaching
// alerts.
func NextTier(config DiscountConfig, turnover decimal.Decimal) (Tier, bool) {
	if config.Type != TypeProgressive {
		return Tier{}, false
	}
	for _, tier := range config.Tiers {
		if turnover.LessThan(tier.Min) {
			return tier, true
		}
	}
	return Tier{}, false
}
