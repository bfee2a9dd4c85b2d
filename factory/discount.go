/*
Package factory provides JSON to Go discount configuration conversion.

PURPOSE:
  Converts JSON discount definitions into rfa.DiscountConfig values. This
  enables contract configuration without code changes - account managers
  can define rebate schedules in JSON, and the factory creates the proper
  Go structs. The store persists configs in this form.

WHY JSON?
  - Non-developers can modify rebate schedules
  - Easy integration with the contracts UI
  - Version control for schedule definitions
  - Database storage of contract configs

JSON SCHEMA:
  {
    "type": "progressive",
    "tiers": [
      {"min": "0", "max": "100000", "rate": "0.01", "description": "Base"},
      {"min": "100001", "max": "500000", "rate": "0.015"},
      {"min": "500001", "max": null, "rate": "0.02"}
    ]
  }

  {"type": "fixed_percent", "rate": "0.012"}

  {"type": "fixed_amount", "amount": "10000"}

  Amounts and rates are JSON numbers or numeric strings; both decode into
  decimal.Decimal without float drift. A null or absent "max" marks the
  unbounded top tier.

KEY FEATURES:
  - Validates on parse: an invalid config never reaches the calculator
  - Round-trips: Marshal(Parse(x)) preserves the schedule exactly
  - Rejects payloads whose fields contradict the declared type

USAGE:
  config, err := factory.ParseDiscountConfig(raw)
  raw, err := factory.MarshalDiscountConfig(config)

SEE ALSO:
  - rfa/discount.go: DiscountConfig tagged union and tier validation
  - store/sqlite: persists the JSON form in the contracts table
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/rebate-engine/rfa"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// DiscountConfigJSON is the JSON representation of a discount configuration.
type DiscountConfigJSON struct {
	Type   string           `json:"type"`
	Tiers  []TierJSON       `json:"tiers,omitempty"`
	Rate   *decimal.Decimal `json:"rate,omitempty"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// TierJSON is one bracket of a progressive schedule. Max is null for the
// unbounded top tier.
type TierJSON struct {
	Min         decimal.Decimal  `json:"min"`
	Max         *decimal.Decimal `json:"max"`
	Rate        decimal.Decimal  `json:"rate"`
	Description string           `json:"description,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseDiscountConfig decodes and validates a JSON discount configuration.
// The returned config has passed the same validation as the rfa constructors.
func ParseDiscountConfig(raw []byte) (rfa.DiscountConfig, error) {
	var cj DiscountConfigJSON
	if err := json.Unmarshal(raw, &cj); err != nil {
		return rfa.DiscountConfig{}, fmt.Errorf("failed to parse discount config JSON: %w", err)
	}
	return FromJSON(cj)
}

// FromJSON converts DiscountConfigJSON to a validated rfa.DiscountConfig.
func FromJSON(cj DiscountConfigJSON) (rfa.DiscountConfig, error) {
	switch rfa.ContractType(cj.Type) {
	case rfa.TypeProgressive:
		if cj.Rate != nil || cj.Amount != nil {
			return rfa.DiscountConfig{}, fmt.Errorf("progressive config must not carry rate or amount fields")
		}
		tiers := make([]rfa.Tier, 0, len(cj.Tiers))
		for _, tj := range cj.Tiers {
			tier := rfa.Tier{Min: tj.Min, Rate: tj.Rate, Description: tj.Description}
			if tj.Max != nil {
				max := *tj.Max
				tier.Max = &max
			}
			tiers = append(tiers, tier)
		}
		return rfa.NewProgressive(tiers)

	case rfa.TypeFixedPercent:
		if len(cj.Tiers) > 0 || cj.Amount != nil {
			return rfa.DiscountConfig{}, fmt.Errorf("fixed_percent config must not carry tiers or amount fields")
		}
		if cj.Rate == nil {
			return rfa.DiscountConfig{}, fmt.Errorf("fixed_percent config requires a rate")
		}
		return rfa.NewFixedPercent(*cj.Rate)

	case rfa.TypeFixedAmount:
		if len(cj.Tiers) > 0 || cj.Rate != nil {
			return rfa.DiscountConfig{}, fmt.Errorf("fixed_amount config must not carry tiers or rate fields")
		}
		if cj.Amount == nil {
			return rfa.DiscountConfig{}, fmt.Errorf("fixed_amount config requires an amount")
		}
		return rfa.NewFixedAmount(*cj.Amount)

	default:
		return rfa.DiscountConfig{}, fmt.Errorf("unknown discount config type %q", cj.Type)
	}
}

// =============================================================================
// MARSHALING
// =============================================================================

// MarshalDiscountConfig encodes a config to its JSON form. The config is
// validated first so a corrupted value cannot be persisted.
func MarshalDiscountConfig(config rfa.DiscountConfig) ([]byte, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to marshal invalid config: %w", err)
	}
	return json.Marshal(ToJSON(config))
}

// ToJSON converts a DiscountConfig to its JSON representation.
func ToJSON(config rfa.DiscountConfig) DiscountConfigJSON {
	cj := DiscountConfigJSON{Type: string(config.Type)}

	switch config.Type {
	case rfa.TypeProgressive:
		cj.Tiers = make([]TierJSON, 0, len(config.Tiers))
		for _, tier := range config.Tiers {
			tj := TierJSON{Min: tier.Min, Rate: tier.Rate, Description: tier.Description}
			if tier.Max != nil {
				max := *tier.Max
				tj.Max = &max
			}
			cj.Tiers = append(cj.Tiers, tj)
		}
	case rfa.TypeFixedPercent:
		rate := config.Rate
		cj.Rate = &rate
	case rfa.TypeFixedAmount:
		amount := config.Amount
		cj.Amount = &amount
	}

	return cj
}
