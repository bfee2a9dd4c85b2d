/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

ROUNDING:
  The engine computes with exact decimals; rounding happens HERE and only
  here. Money amounts are rendered with the configured precision (2 by
  default), effective rates with 6 decimals. Tier bounds and configured
  rates are rendered verbatim - they are configuration, not results.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

SEE ALSO:
  - handlers.go: Uses these types
  - factory/discount.go: DiscountConfigJSON type
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/rebate-engine/factory"
	"github.com/warp/rebate-engine/rfa"
	"github.com/warp/rebate-engine/store/sqlite"
)

const rateDisplayPrecision = 6

// =============================================================================
// CONTRACT TYPES
// =============================================================================

// ContractDTO represents a contract in API responses.
type ContractDTO struct {
	ID             string                     `json:"id"`
	EnterpriseID   string                     `json:"enterprise_id"`
	ClientID       string                     `json:"client_id"`
	ClientName     string                     `json:"client_name"`
	Name           string                     `json:"name"`
	ContractType   string                     `json:"contract_type"`
	DiscountConfig factory.DiscountConfigJSON `json:"discount_config"`
	StartDate      string                     `json:"start_date"`
	EndDate        *string                    `json:"end_date,omitempty"`
	Currency       string                     `json:"currency"`
	Status         string                     `json:"status"`
	Notes          string                     `json:"notes,omitempty"`
	CreatedAt      string                     `json:"created_at,omitempty"`
	UpdatedAt      string                     `json:"updated_at,omitempty"`
}

// CreateContractRequest is the request to create a contract.
type CreateContractRequest struct {
	ID             string                     `json:"id,omitempty"` // generated when empty
	EnterpriseID   string                     `json:"enterprise_id"`
	ClientID       string                     `json:"client_id"`
	ClientName     string                     `json:"client_name"`
	Name           string                     `json:"name"`
	DiscountConfig factory.DiscountConfigJSON `json:"discount_config"`
	StartDate      string                     `json:"start_date"` // YYYY-MM-DD
	EndDate        *string                    `json:"end_date,omitempty"`
	Currency       string                     `json:"currency,omitempty"`
	Notes          string                     `json:"notes,omitempty"`
}

// UpdateContractRequest is the request to update a contract's mutable fields.
// Absent fields keep their current value; status is not updatable here.
type UpdateContractRequest struct {
	ClientName     *string                     `json:"client_name,omitempty"`
	Name           *string                     `json:"name,omitempty"`
	DiscountConfig *factory.DiscountConfigJSON `json:"discount_config,omitempty"`
	EndDate        *string                     `json:"end_date,omitempty"`
	Notes          *string                     `json:"notes,omitempty"`
}

// ContractStatusRequest is the request to move a contract through its
// lifecycle.
type ContractStatusRequest struct {
	Status string `json:"status"`
}

// =============================================================================
// CALCULATION TYPES
// =============================================================================

// TierBreakdownDTO is one row of a calculation's per-tier decomposition.
type TierBreakdownDTO struct {
	TierIndex  int     `json:"tier_index"`
	TierMin    string  `json:"tier_min"`
	TierMax    *string `json:"tier_max,omitempty"`
	TierRate   string  `json:"tier_rate"`
	TierAmount string  `json:"tier_amount"`
	RFAAmount  string  `json:"rfa_amount"`
}

// CalculationDTO represents a stored calculation.
type CalculationDTO struct {
	ID             string             `json:"id"`
	ContractID     string             `json:"contract_id"`
	ContractName   string             `json:"contract_name,omitempty"`
	ClientID       string             `json:"client_id"`
	ClientName     string             `json:"client_name,omitempty"`
	PeriodStart    string             `json:"period_start"`
	PeriodEnd      string             `json:"period_end"`
	TurnoverAmount string             `json:"turnover_amount"`
	RFAAmount      string             `json:"rfa_amount"`
	EffectiveRate  string             `json:"effective_rate"`
	Breakdown      []TierBreakdownDTO `json:"breakdown"`
	Status         string             `json:"status"`
	Currency       string             `json:"currency"`
	CreatedAt      string             `json:"created_at,omitempty"`
}

// CalculateRequest asks for a new calculation over a period.
type CalculateRequest struct {
	PeriodStart    string `json:"period_start"` // YYYY-MM-DD
	PeriodEnd      string `json:"period_end"`
	TurnoverAmount string `json:"turnover_amount"`
}

// CalculationStatusRequest moves a calculation through its lifecycle.
type CalculationStatusRequest struct {
	Status string `json:"status"`
}

// =============================================================================
// SIMULATION TYPES
// =============================================================================

// ScenarioInputDTO is one what-if scenario.
type ScenarioInputDTO struct {
	Name           string `json:"name"`
	TurnoverAmount string `json:"turnover_amount"`
}

// SimulateRequest is the request to run scenarios against a contract's
// configuration. An empty scenario list runs the default trio.
type SimulateRequest struct {
	Scenarios []ScenarioInputDTO `json:"scenarios,omitempty"`
}

// SimulationResultDTO is one scenario's projection.
type SimulationResultDTO struct {
	ScenarioName   string             `json:"scenario_name"`
	TurnoverAmount string             `json:"turnover_amount"`
	RFAAmount      string             `json:"rfa_amount"`
	EffectiveRate  string             `json:"effective_rate"`
	TierReached    *int               `json:"tier_reached,omitempty"`
	Breakdown      []TierBreakdownDTO `json:"breakdown"`
}

// SimulateResponse wraps the scenario projections plus degenerate-input
// warnings.
type SimulateResponse struct {
	ContractID string                `json:"contract_id"`
	Results    []SimulationResultDTO `json:"results"`
	Warnings   []string              `json:"warnings,omitempty"`
}

// =============================================================================
// DASHBOARD AND ALERT TYPES
// =============================================================================

// DashboardStatsDTO summarizes the portfolio.
type DashboardStatsDTO struct {
	TotalContracts    int    `json:"total_contracts"`
	ActiveContracts   int    `json:"active_contracts"`
	DraftContracts    int    `json:"draft_contracts"`
	ExpiredContracts  int    `json:"expired_contracts"`
	ArchivedContracts int    `json:"archived_contracts"`
	ClientCount       int    `json:"client_count"`
	TotalRFAPending   string `json:"total_rfa_pending"`
	TotalRFAPaid      string `json:"total_rfa_paid"`
	AverageRFARate    string `json:"average_rfa_rate"`
}

// ClientRankingDTO is one row of the top-clients table.
type ClientRankingDTO struct {
	ClientID         string `json:"client_id"`
	ClientName       string `json:"client_name"`
	TotalRFA         string `json:"total_rfa"`
	TotalTurnover    string `json:"total_turnover"`
	CalculationCount int    `json:"calculation_count"`
	AverageRate      string `json:"average_rate"`
}

// MonthlyPointDTO is one bucket of the monthly series.
type MonthlyPointDTO struct {
	Month            string `json:"month"`
	TotalRFA         string `json:"total_rfa"`
	TotalTurnover    string `json:"total_turnover"`
	ContractCount    int    `json:"contract_count"`
	CalculationCount int    `json:"calculation_count"`
}

// AlertDTO represents a persisted alert.
type AlertDTO struct {
	Key          string `json:"key"`
	Type         string `json:"type"`
	ContractID   string `json:"contract_id"`
	ClientName   string `json:"client_name,omitempty"`
	Message      string `json:"message"`
	Priority     string `json:"priority"`
	Acknowledged bool   `json:"acknowledged"`
	CreatedAt    string `json:"created_at,omitempty"`
}

// WarningDTO reports a data-quality issue found during aggregation.
type WarningDTO struct {
	Kind          string `json:"kind"`
	ContractID    string `json:"contract_id,omitempty"`
	CalculationID string `json:"calculation_id,omitempty"`
	Message       string `json:"message"`
}

// RenewalDTO is an active contract approaching its end date.
type RenewalDTO struct {
	ContractID string `json:"contract_id"`
	Name       string `json:"name"`
	ClientName string `json:"client_name"`
	EndDate    string `json:"end_date"`
	DaysLeft   int    `json:"days_left"`
}

// DashboardDTO is the full dashboard payload.
type DashboardDTO struct {
	Stats              DashboardStatsDTO  `json:"stats"`
	TopClients         []ClientRankingDTO `json:"top_clients"`
	MonthlySeries      []MonthlyPointDTO  `json:"monthly_series"`
	Alerts             []AlertDTO         `json:"alerts"`
	Warnings           []WarningDTO       `json:"warnings"`
	RecentCalculations []CalculationDTO   `json:"recent_calculations"`
	UpcomingRenewals   []RenewalDTO       `json:"upcoming_renewals"`
}

// =============================================================================
// MISC TYPES
// =============================================================================

// RecordTurnoverRequest records realized turnover for a period; the
// scheduler turns it into the current-month calculation.
type RecordTurnoverRequest struct {
	PeriodStart string `json:"period_start"` // YYYY-MM-DD
	PeriodEnd   string `json:"period_end"`
	Amount      string `json:"amount"`
}

// DemoScenarioDTO describes a loadable demo scenario.
type DemoScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func money(d decimal.Decimal, precision int32) string {
	return d.StringFixed(precision)
}

func rate(d decimal.Decimal) string {
	return d.StringFixed(rateDisplayPrecision)
}

func (h *Handler) toContractDTO(c *rfa.Contract) ContractDTO {
	dto := ContractDTO{
		ID:             string(c.ID),
		EnterpriseID:   string(c.EnterpriseID),
		ClientID:       string(c.ClientID),
		ClientName:     c.ClientName,
		Name:           c.Name,
		ContractType:   string(c.ContractType),
		DiscountConfig: factory.ToJSON(c.DiscountConfig),
		StartDate:      c.StartDate.Format("2006-01-02"),
		Currency:       string(c.Currency),
		Status:         string(c.Status),
		Notes:          c.Notes,
		CreatedAt:      c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      c.UpdatedAt.Format(time.RFC3339),
	}
	if c.EndDate != nil {
		end := c.EndDate.Format("2006-01-02")
		dto.EndDate = &end
	}
	return dto
}

func (h *Handler) toBreakdownDTOs(rows []rfa.TierBreakdown) []TierBreakdownDTO {
	precision := h.Settings.RoundingPrecision
	dtos := make([]TierBreakdownDTO, len(rows))
	for i, row := range rows {
		dtos[i] = TierBreakdownDTO{
			TierIndex:  row.TierIndex,
			TierMin:    row.TierMin.String(),
			TierRate:   row.TierRate.String(),
			TierAmount: money(row.TierAmount, precision),
			RFAAmount:  money(row.RFAAmount, precision),
		}
		if row.TierMax != nil {
			max := row.TierMax.String()
			dtos[i].TierMax = &max
		}
	}
	return dtos
}

func (h *Handler) toCalculationDTO(calc *rfa.RFACalculation) CalculationDTO {
	precision := h.Settings.RoundingPrecision
	return CalculationDTO{
		ID:             string(calc.ID),
		ContractID:     string(calc.ContractID),
		ContractName:   calc.ContractName,
		ClientID:       string(calc.ClientID),
		ClientName:     calc.ClientName,
		PeriodStart:    calc.Period.Start.Format("2006-01-02"),
		PeriodEnd:      calc.Period.End.Format("2006-01-02"),
		TurnoverAmount: money(calc.TurnoverAmount, precision),
		RFAAmount:      money(calc.RFAAmount, precision),
		EffectiveRate:  rate(calc.EffectiveRate()),
		Breakdown:      h.toBreakdownDTOs(calc.Breakdown),
		Status:         string(calc.Status),
		Currency:       string(calc.Currency),
		CreatedAt:      calc.CreatedAt.Format(time.RFC3339),
	}
}

func toAlertDTO(rec sqlite.AlertRecord) AlertDTO {
	return AlertDTO{
		Key:          rec.Key,
		Type:         string(rec.Type),
		ContractID:   string(rec.ContractID),
		ClientName:   rec.ClientName,
		Message:      rec.Message,
		Priority:     string(rec.Priority),
		Acknowledged: rec.Acknowledged,
		CreatedAt:    rec.CreatedAt.Format(time.RFC3339),
	}
}

func toWarningDTO(w rfa.AggregationWarning) WarningDTO {
	return WarningDTO{
		Kind:          w.Kind,
		ContractID:    string(w.ContractID),
		CalculationID: string(w.CalculationID),
		Message:       w.Message,
	}
}
