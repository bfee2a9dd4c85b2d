/*
Package rfa provides the core rebate calculation engine.

PURPOSE:
  This package contains the types and algorithms for computing year-end
  rebates (RFA - "Remise de Fin d'Annee"): turning a client's realized
  turnover plus a contract's discount configuration into a concrete rebate
  amount, a per-tier breakdown, what-if projections, and portfolio-level
  aggregates.

KEY CONCEPTS IN THIS FILE (types.go):
  - Period: The evaluation window for a calculation ([start, end))
  - RFASettings: Explicit configuration for aggregation and alerting
  - Contract/Client/Calculation IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Purity: Every exposed operation is a pure function over its arguments.
     The engine holds no state, performs no I/O, and never blocks.
  2. Precision: Uses decimal.Decimal to avoid floating-point drift; the
     per-tier breakdown must reconstruct the total exactly.
  3. Construction-time validation: A malformed discount configuration can
     never reach the calculator.
  4. Graceful aggregation: Bad records degrade to warnings, never abort a
     portfolio-wide report.

USAGE:
  config, err := rfa.NewProgressive([]rfa.Tier{...})
  result, err := rfa.Calculate(decimal.NewFromInt(350000), config)

SEE ALSO:
  - discount.go: DiscountConfig tagged union and tier validation
  - calculator.go: The rebate calculation itself
  - simulator.go: Multi-scenario what-if projections
  - aggregate.go: Portfolio/dashboard aggregation
  - contract.go: Contract and calculation lifecycle
*/
package rfa

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ContractID string
type ClientID string
type CalculationID string
type EnterpriseID string

// Currency is an ISO 4217 code. Amounts never cross currencies inside the
// engine; conversion is a caller concern.
type Currency string

// =============================================================================
// PERIOD - Evaluation window for a calculation
// =============================================================================

// Period is a half-open evaluation window [Start, End).
// A calculation is always attached to exactly one period.
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod builds a period from dates, normalized to UTC midnight.
func NewPeriod(start, end time.Time) Period {
	return Period{Start: dateOnly(start), End: dateOnly(end)}
}

// MonthOf returns the calendar-month period containing t.
func MonthOf(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// YearOf returns the calendar-year period containing t.
func YearOf(t time.Time) Period {
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(1, 0, 0)}
}

// Contains reports whether t falls inside [Start, End).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// IsValid reports whether the period is non-empty.
func (p Period) IsValid() bool {
	return p.End.After(p.Start)
}

// MonthKey returns the bucket key used by the monthly series ("2026-01").
func (p Period) MonthKey() string {
	return p.Start.Format("2006-01")
}

func (p Period) String() string {
	return "[" + p.Start.Format("2006-01-02") + ", " + p.End.Format("2006-01-02") + ")"
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// SETTINGS - Explicit configuration, never ambient
// =============================================================================

// NotificationThresholds tunes when the aggregator emits alerts.
type NotificationThresholds struct {
	// TierApproachingPercentage fires a tierApproaching alert when a client's
	// rolling turnover is within this percentage of the next unreached tier's
	// lower bound. Expressed as a percentage (10 = within 10%).
	TierApproachingPercentage decimal.Decimal
}

// RFASettings carries every tunable the engine needs. It is passed explicitly
// into Aggregate; the engine never reads ambient or global state.
type RFASettings struct {
	NotificationThresholds NotificationThresholds

	// ContractExpiryDays is the look-ahead window for contractExpiring alerts.
	ContractExpiryDays int

	// RFAThresholdAmount fires an rfaThreshold alert when a single
	// calculation's rebate exceeds it.
	RFAThresholdAmount decimal.Decimal

	// DefaultCurrency is used when a record carries no currency of its own.
	DefaultCurrency Currency

	// RoundingPrecision is the number of decimal places for presented
	// amounts. The engine computes exactly; rounding is applied by callers
	// at the presentation boundary.
	RoundingPrecision int32
}

// DefaultSettings returns the settings the reference deployment ships with.
func DefaultSettings() RFASettings {
	return RFASettings{
		NotificationThresholds: NotificationThresholds{
			TierApproachingPercentage: decimal.NewFromInt(10),
		},
		ContractExpiryDays: 30,
		RFAThresholdAmount: decimal.NewFromInt(50000),
		DefaultCurrency:    "EUR",
		RoundingPrecision:  2,
	}
}
