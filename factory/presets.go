package factory

// Preset configurations matching the schedules the reference deployment
// ships with. Returned as JSON so they exercise the same parse path as
// user-supplied configs.

import "fmt"

// StandardProgressiveJSON is the default three-tier schedule:
// 1% up to 100k, 1.5% from 100k to 500k, 2% beyond.
func StandardProgressiveJSON() string {
	return `{
  "type": "progressive",
  "tiers": [
    {"min": "0", "max": "100000", "rate": "0.01", "description": "Tranche 1"},
    {"min": "100001", "max": "500000", "rate": "0.015", "description": "Tranche 2"},
    {"min": "500001", "max": null, "rate": "0.02", "description": "Tranche 3"}
  ]
}`
}

// FixedPercentJSON builds a flat-rate config, e.g. FixedPercentJSON("0.012").
func FixedPercentJSON(rate string) string {
	return fmt.Sprintf(`{"type": "fixed_percent", "rate": %q}`, rate)
}

// FixedAmountJSON builds a lump-sum config, e.g. FixedAmountJSON("10000").
func FixedAmountJSON(amount string) string {
	return fmt.Sprintf(`{"type": "fixed_amount", "amount": %q}`, amount)
}
