/*
discount.go - Discount configuration model (tagged union)

PURPOSE:
  Describes how a rebate is computed. Exactly one variant is populated per
  instance:

    Progressive  - bracket-style tiers, like a tax schedule
    FixedPercent - flat fraction of turnover
    FixedAmount  - flat amount, independent of turnover

TAGGED UNION:
  The Type tag and the populated payload are kept in sync by the
  constructors. Contracts store the same tag as their ContractType; the two
  can never diverge because a Contract only accepts a validated config whose
  tag matches.

TIER CONVENTION:
  Tiers use discrete currency-unit boundaries, not continuous intervals.
  A tier's Min is the FIRST unit inside the tier, so consecutive tiers are
  stored with a one-unit gap:

    {min: 0,      max: 100000, rate: 0.01}
    {min: 100001, max: 500000, rate: 0.015}
    {min: 500001, max: nil,    rate: 0.02}

  Validation enforces min = previous max + 1 exactly; a wider or narrower
  gap would make the per-unit attribution drift from the schedule. At most
  one tier may be unbounded (Max == nil) and it must be last.

SEE ALSO:
  - calculator.go: How each variant is evaluated
  - factory/: JSON representation used by the record store and the API
*/
package rfa

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CONTRACT TYPE - Variant tag, shared with Contract
// =============================================================================

type ContractType string

const (
	TypeProgressive  ContractType = "progressive"
	TypeFixedPercent ContractType = "fixed_percent"
	TypeFixedAmount  ContractType = "fixed_amount"
)

// IsValid reports whether the tag is one of the known variants.
func (t ContractType) IsValid() bool {
	switch t {
	case TypeProgressive, TypeFixedPercent, TypeFixedAmount:
		return true
	}
	return false
}

// =============================================================================
// TIER - One turnover bracket with its own rate
// =============================================================================

// Tier is a turnover sub-range with its own rebate rate. Min is inclusive
// and Max is the inclusive upper bound; Max == nil means unbounded.
type Tier struct {
	Min         decimal.Decimal
	Max         *decimal.Decimal
	Rate        decimal.Decimal
	Description string
}

// IsUnbounded reports whether the tier has no upper bound.
func (t Tier) IsUnbounded() bool { return t.Max == nil }

// =============================================================================
// DISCOUNT CONFIG - Exactly one variant populated
// =============================================================================

// DiscountConfig is the tagged union describing how a rebate is computed.
// Build instances through the New* constructors so an invalid configuration
// can never reach the calculator.
type DiscountConfig struct {
	Type ContractType

	// Progressive only. Always sorted by ascending Min.
	Tiers []Tier

	// FixedPercent only. A fraction in [0, 1].
	Rate decimal.Decimal

	// FixedAmount only. Non-negative.
	Amount decimal.Decimal
}

// NewProgressive builds and validates a progressive (tiered) configuration.
// Tiers are sorted by ascending Min before validation.
func NewProgressive(tiers []Tier) (DiscountConfig, error) {
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Min.LessThan(sorted[j].Min)
	})

	cfg := DiscountConfig{Type: TypeProgressive, Tiers: sorted}
	if err := cfg.Validate(); err != nil {
		return DiscountConfig{}, err
	}
	return cfg, nil
}

// NewFixedPercent builds a flat-rate configuration. Rate is a fraction in [0, 1].
func NewFixedPercent(rate decimal.Decimal) (DiscountConfig, error) {
	cfg := DiscountConfig{Type: TypeFixedPercent, Rate: rate}
	if err := cfg.Validate(); err != nil {
		return DiscountConfig{}, err
	}
	return cfg, nil
}

// NewFixedAmount builds a flat-amount configuration. Amount must be non-negative.
func NewFixedAmount(amount decimal.Decimal) (DiscountConfig, error) {
	cfg := DiscountConfig{Type: TypeFixedAmount, Amount: amount}
	if err := cfg.Validate(); err != nil {
		return DiscountConfig{}, err
	}
	return cfg, nil
}

// Validate checks the variant invariants. The constructors call this; it is
// exported so configurations decoded from storage can be re-checked.
func (c DiscountConfig) Validate() error {
	switch c.Type {
	case TypeProgressive:
		return validateTiers(c.Tiers)

	case TypeFixedPercent:
		if c.Rate.IsNegative() || c.Rate.GreaterThan(decimal.NewFromInt(1)) {
			return newValidationError(ErrInvalidTier, "rate",
				fmt.Sprintf("rate %s outside [0, 1]", c.Rate))
		}
		return nil

	case TypeFixedAmount:
		if c.Amount.IsNegative() {
			return newValidationError(ErrInvalidTier, "amount",
				fmt.Sprintf("amount %s is negative", c.Amount))
		}
		return nil

	default:
		return newValidationError(ErrConfigMismatch, "type",
			fmt.Sprintf("unknown discount type %q", c.Type))
	}
}

func validateTiers(tiers []Tier) error {
	if len(tiers) == 0 {
		return newValidationError(ErrEmptyTierSet, "tiers", "at least one tier required")
	}

	one := decimal.NewFromInt(1)
	for i, tier := range tiers {
		field := fmt.Sprintf("tiers[%d]", i)

		if tier.Min.IsNegative() {
			return newValidationError(ErrInvalidTier, field+".min",
				fmt.Sprintf("min %s is negative", tier.Min))
		}
		if tier.Rate.IsNegative() || tier.Rate.GreaterThan(one) {
			return newValidationError(ErrInvalidTier, field+".rate",
				fmt.Sprintf("rate %s outside [0, 1]", tier.Rate))
		}
		if tier.Max != nil && tier.Max.LessThan(tier.Min) {
			return newValidationError(ErrInvalidTier, field+".max",
				fmt.Sprintf("max %s below min %s", tier.Max, tier.Min))
		}
		if tier.IsUnbounded() && i != len(tiers)-1 {
			return newValidationError(ErrInvalidTier, field+".max",
				"unbounded tier must be last")
		}
		if i > 0 {
			prev := tiers[i-1]
			if prev.IsUnbounded() {
				return newValidationError(ErrInvalidTier, field+".min",
					"tier follows an unbounded tier")
			}
			// Discrete convention: min is the first unit past the previous
			// max, exactly one unit above it.
			if !tier.Min.Equal(prev.Max.Add(one)) {
				return newValidationError(ErrInvalidTier, field+".min",
					fmt.Sprintf("min %s must be previous max %s plus one", tier.Min, prev.Max))
			}
		}
	}
	return nil
}
