/*
contract.go - Contract and calculation lifecycle

PURPOSE:
  Data model and state machines for contracts and individual rebate
  calculations. The engine exposes pure transition-validation predicates;
  it never performs persistence itself. Whoever owns the record store calls
  CanTransitionTo before writing a status change.

CONTRACT STATES:
  Draft -> Active -> {Expired (automatic, end date passed), Archived (explicit)}
  Archive is a soft delete: archived contracts are excluded from active
  aggregates but never physically destroyed by this engine. No transition
  leaves Archived.

CALCULATION STATES:
  Pending -> Validated -> Paid
  Cancelled is reachable from Pending or Validated only.
  A calculation is never recomputed in place: if inputs change, a new
  calculation is created.
*/
package rfa

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CONTRACT STATUS MACHINE
// =============================================================================

type ContractStatus string

const (
	ContractDraft    ContractStatus = "draft"
	ContractActive   ContractStatus = "active"
	ContractExpired  ContractStatus = "expired"
	ContractArchived ContractStatus = "archived"
)

var contractTransitions = map[ContractStatus][]ContractStatus{
	ContractDraft:    {ContractActive, ContractArchived},
	ContractActive:   {ContractExpired, ContractArchived},
	ContractExpired:  {ContractArchived},
	ContractArchived: {},
}

// CanTransitionTo reports whether the status machine permits the move.
func (s ContractStatus) CanTransitionTo(to ContractStatus) bool {
	for _, allowed := range contractTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsValid reports whether the status is one of the known states.
func (s ContractStatus) IsValid() bool {
	_, ok := contractTransitions[s]
	return ok
}

// =============================================================================
// CONTRACT
// =============================================================================

// Contract binds a client to a discount configuration over a date range.
// ContractType always matches DiscountConfig.Type; NewContract enforces it
// and the two are never allowed to diverge afterwards.
type Contract struct {
	ID           ContractID
	EnterpriseID EnterpriseID
	ClientID     ClientID
	ClientName   string // denormalized for display

	Name           string
	ContractType   ContractType
	DiscountConfig DiscountConfig

	StartDate time.Time
	EndDate   *time.Time // nil = open-ended
	Currency  Currency
	Status    ContractStatus
	Notes     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewContract builds a contract around a validated discount configuration.
// The contract type is taken from the configuration tag so the two cannot
// diverge.
func NewContract(id ContractID, enterpriseID EnterpriseID, clientID ClientID, name string,
	config DiscountConfig, startDate time.Time, endDate *time.Time, currency Currency) (*Contract, error) {

	if err := config.Validate(); err != nil {
		return nil, err
	}
	if endDate != nil && !endDate.After(startDate) {
		return nil, newValidationError(ErrInvalidPeriod, "end_date",
			fmt.Sprintf("end date %s not after start date %s",
				endDate.Format("2006-01-02"), startDate.Format("2006-01-02")))
	}

	now := time.Now().UTC()
	return &Contract{
		ID:             id,
		EnterpriseID:   enterpriseID,
		ClientID:       clientID,
		Name:           name,
		ContractType:   config.Type,
		DiscountConfig: config,
		StartDate:      dateOnly(startDate),
		EndDate:        endDate,
		Currency:       currency,
		Status:         ContractDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// IsExpiredAt reports whether an active contract's end date has passed.
// Used by the scheduler for the automatic Active -> Expired transition.
func (c *Contract) IsExpiredAt(now time.Time) bool {
	return c.Status == ContractActive && c.EndDate != nil && c.EndDate.Before(now)
}

// DaysUntilExpiry returns the number of days until the end date, or false
// for open-ended contracts.
func (c *Contract) DaysUntilExpiry(now time.Time) (int, bool) {
	if c.EndDate == nil {
		return 0, false
	}
	days := int(c.EndDate.Sub(dateOnly(now)).Hours() / 24)
	return days, true
}

// =============================================================================
// CALCULATION STATUS MACHINE
// =============================================================================

type CalculationStatus string

const (
	CalculationPending   CalculationStatus = "pending"
	CalculationValidated CalculationStatus = "validated"
	CalculationPaid      CalculationStatus = "paid"
	CalculationCancelled CalculationStatus = "cancelled"
)

var calculationTransitions = map[CalculationStatus][]CalculationStatus{
	CalculationPending:   {CalculationValidated, CalculationCancelled},
	CalculationValidated: {CalculationPaid, CalculationCancelled},
	CalculationPaid:      {},
	CalculationCancelled: {},
}

// CanTransitionTo reports whether the status machine permits the move.
func (s CalculationStatus) CanTransitionTo(to CalculationStatus) bool {
	for _, allowed := range calculationTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s CalculationStatus) IsTerminal() bool {
	return len(calculationTransitions[s]) == 0
}

// IsValid reports whether the status is one of the known states.
func (s CalculationStatus) IsValid() bool {
	_, ok := calculationTransitions[s]
	return ok
}

// =============================================================================
// RFA CALCULATION - One per contract per evaluation period
// =============================================================================

// RFACalculation records a computed rebate for a contract over a period.
// Breakdown is empty unless the contract is progressive; when non-empty, the
// per-tier rebates sum back to RFAAmount exactly.
type RFACalculation struct {
	ID         CalculationID
	ContractID ContractID
	ClientID   ClientID

	ContractName string // denormalized for display
	ClientName   string

	Period         Period
	TurnoverAmount decimal.Decimal
	RFAAmount      decimal.Decimal
	Breakdown      []TierBreakdown

	Status   CalculationStatus
	Currency Currency

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCalculation computes a fresh calculation for the (contract, period,
// turnover) triple. The result starts Pending; it is the caller's job to
// persist it.
func NewCalculation(id CalculationID, contract *Contract, period Period, turnover decimal.Decimal) (*RFACalculation, error) {
	if !period.IsValid() {
		return nil, newValidationError(ErrInvalidPeriod, "period", period.String())
	}

	result, err := Calculate(turnover, contract.DiscountConfig)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &RFACalculation{
		ID:             id,
		ContractID:     contract.ID,
		ClientID:       contract.ClientID,
		ContractName:   contract.Name,
		ClientName:     contract.ClientName,
		Period:         period,
		TurnoverAmount: turnover,
		RFAAmount:      result.RFAAmount,
		Breakdown:      result.Breakdown,
		Status:         CalculationPending,
		Currency:       contract.Currency,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// EffectiveRate is the blended rate achieved by this calculation.
func (c *RFACalculation) EffectiveRate() decimal.Decimal {
	return EffectiveRate(c.RFAAmount, c.TurnoverAmount)
}
