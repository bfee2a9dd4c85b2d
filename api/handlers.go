/*
handlers.go - HTTP API handlers for the rebate engine

PURPOSE:
  Exposes the rebate engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the engine and the record store.

ENDPOINTS:
  Contracts:
    GET    /api/contracts                    List contracts (?status=)
    POST   /api/contracts                    Create contract
    GET    /api/contracts/{id}               Get contract
    PUT    /api/contracts/{id}               Update mutable fields
    POST   /api/contracts/{id}/status        Lifecycle transition
    POST   /api/contracts/{id}/archive       Archive (soft delete)
    POST   /api/contracts/{id}/calculate     Compute + persist a calculation
    POST   /api/contracts/{id}/simulate      What-if scenario projections
    POST   /api/contracts/{id}/turnover      Record realized turnover
    GET    /api/contracts/{id}/calculations  Contract's calculations

  Calculations:
    GET    /api/calculations                 List all calculations
    GET    /api/calculations/{id}            Get one
    POST   /api/calculations/{id}/status     Lifecycle transition

  Dashboard / Alerts:
    GET    /api/dashboard                    Portfolio aggregation
    GET    /api/alerts                       List alerts (?include_acknowledged)
    POST   /api/alerts/{key}/acknowledge     Mark alert handled

  Scenarios:
    GET    /api/scenarios                    List demo scenarios
    POST   /api/scenarios/load               Load a demo scenario
    POST   /api/scenarios/reset              Wipe the database

ERROR HANDLING:
  Engine errors map to HTTP status by kind:
  - 400: validation errors (bad config, negative turnover, bad period)
  - 404: missing contract/calculation/alert
  - 409: illegal lifecycle transition
  - 500: everything else

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/rebate-engine/factory"
	"github.com/warp/rebate-engine/rfa"
	"github.com/warp/rebate-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Settings rfa.RFASettings

	// Track currently loaded scenario
	currentScenario string

	idSeq atomic.Int64
}

// NewHandler creates a new handler with the given store and default settings.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:    store,
		Settings: rfa.DefaultSettings(),
	}
}

// newID generates a process-unique identifier with a type prefix.
func (h *Handler) newID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), h.idSeq.Add(1))
}

// =============================================================================
// CONTRACT HANDLERS
// =============================================================================

// ListContracts returns all contracts, optionally filtered by status.
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	var (
		contracts []rfa.Contract
		err       error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		if !rfa.ContractStatus(status).IsValid() {
			writeError(w, http.StatusBadRequest, "Unknown contract status", nil)
			return
		}
		contracts, err = h.Store.ListContractsByStatus(r.Context(), rfa.ContractStatus(status))
	} else {
		contracts, err = h.Store.ListContracts(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list contracts", err)
		return
	}

	dtos := make([]ContractDTO, len(contracts))
	for i := range contracts {
		dtos[i] = h.toContractDTO(&contracts[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetContract returns a single contract.
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	id := rfa.ContractID(chi.URLParam(r, "id"))

	contract, err := h.Store.GetContract(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get contract", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toContractDTO(contract))
}

// CreateContract creates a new contract in draft state.
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req CreateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.ClientID == "" {
		writeError(w, http.StatusBadRequest, "client_id is required", nil)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	config, err := factory.FromJSON(req.DiscountConfig)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid discount config", err)
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}
	var endDate *time.Time
	if req.EndDate != nil {
		t, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
			return
		}
		endDate = &t
	}

	currency := rfa.Currency(req.Currency)
	if currency == "" {
		currency = h.Settings.DefaultCurrency
	}
	id := req.ID
	if id == "" {
		id = h.newID("ctr")
	}

	contract, err := rfa.NewContract(
		rfa.ContractID(id), rfa.EnterpriseID(req.EnterpriseID), rfa.ClientID(req.ClientID),
		req.Name, config, startDate, endDate, currency,
	)
	if err != nil {
		writeEngineError(w, "Failed to create contract", err)
		return
	}
	contract.ClientName = req.ClientName
	contract.Notes = req.Notes

	if err := h.Store.SaveContract(r.Context(), contract); err != nil {
		writeError(w, http.StatusConflict, "Failed to save contract", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toContractDTO(contract))
}

// UpdateContract rewrites a contract's mutable fields. A changed discount
// config re-validates and keeps the contract type in sync with the config
// tag.
func (h *Handler) UpdateContract(w http.ResponseWriter, r *http.Request) {
	id := rfa.ContractID(chi.URLParam(r, "id"))

	var req UpdateContractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	contract, err := h.Store.GetContract(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get contract", err)
		return
	}

	if req.ClientName != nil {
		contract.ClientName = *req.ClientName
	}
	if req.Name != nil {
		contract.Name = *req.Name
	}
	if req.Notes != nil {
		contract.Notes = *req.Notes
	}
	if req.EndDate != nil {
		t, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
			return
		}
		if !t.After(contract.StartDate) {
			writeError(w, http.StatusBadRequest, "end_date must be after start_date", rfa.ErrInvalidPeriod)
			return
		}
		contract.EndDate = &t
	}
	if req.DiscountConfig != nil {
		config, err := factory.FromJSON(*req.DiscountConfig)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid discount config", err)
			return
		}
		contract.DiscountConfig = config
		contract.ContractType = config.Type
	}

	if err := h.Store.UpdateContract(r.Context(), contract); err != nil {
		writeEngineError(w, "Failed to update contract", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toContractDTO(contract))
}

// UpdateContractStatus performs a lifecycle move on a contract.
func (h *Handler) UpdateContractStatus(w http.ResponseWriter, r *http.Request) {
	id := rfa.ContractID(chi.URLParam(r, "id"))

	var req ContractStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	contract, err := h.Store.UpdateContractStatus(r.Context(), id, rfa.ContractStatus(req.Status))
	if err != nil {
		writeEngineError(w, "Failed to update contract status", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toContractDTO(contract))
}

// ArchiveContract soft-deletes a contract. The record and its calculations
// remain readable; active aggregates exclude them.
func (h *Handler) ArchiveContract(w http.ResponseWriter, r *http.Request) {
	id := rfa.ContractID(chi.URLParam(r, "id"))

	contract, err := h.Store.UpdateContractStatus(r.Context(), id, rfa.ContractArchived)
	if err != nil {
		writeEngineError(w, "Failed to archive contract", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toContractDTO(contract))
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// Calculate computes and persists a new calculation for a contract over a
// period. Always a fresh row: prior calculations for the same period are
// left untouched, auditable history included.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	id := rfa.ContractID(chi.URLParam(r, "id"))

	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	period, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	turnover, err := decimal.NewFromString(req.TurnoverAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid turnover_amount", err)
		return
	}

	contract, err := h.Store.GetContract(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get contract", err)
		return
	}
	if contract.Status == rfa.ContractArchived {
		writeError(w, http.StatusConflict, "Cannot calculate for an archived contract", nil)
		return
	}

	calc, err := rfa.NewCalculation(rfa.CalculationID(h.newID("calc")), contract, period, turnover)
	if err != nil {
		writeEngineError(w, "Calculation failed", err)
		return
	}
	if err := h.Store.SaveCalculation(r.Context(), calc); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save calculation", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toCalculationDTO(calc))
}

// ListContractCalculations returns one contract's calculations.
func (h *Handler) ListContractCalculations(w http.ResponseWriter, r *http.Request) {
	id := rfa.ContractID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetContract(r.Context(), id); err != nil {
		writeEngineError(w, "Failed to get contract", err)
		return
	}
	calcs, err := h.Store.ListCalculationsByContract(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list calculations", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toCalculationDTOs(calcs))
}

// ListCalculations returns all calculations.
func (h *Handler) ListCalculations(w http.ResponseWriter, r *http.Request) {
	calcs, err := h.Store.ListCalculations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list calculations", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toCalculationDTOs(calcs))
}

// GetCalculation returns a single calculation.
func (h *Handler) GetCalculation(w http.ResponseWriter, r *http.Request) {
	id := rfa.CalculationID(chi.URLParam(r, "id"))

	calc, err := h.Store.GetCalculation(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get calculation", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toCalculationDTO(calc))
}

// UpdateCalculationStatus performs a lifecycle move on a calculation.
// Illegal moves (pending -> paid, anything out of a terminal state) come
// back as 409.
func (h *Handler) UpdateCalculationStatus(w http.ResponseWriter, r *http.Request) {
	id := rfa.CalculationID(chi.URLParam(r, "id"))

	var req CalculationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	calc, err := h.Store.UpdateCalculationStatus(r.Context(), id, rfa.CalculationStatus(req.Status))
	if err != nil {
		writeEngineError(w, "Failed to update calculation status", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toCalculationDTO(calc))
}

func (h *Handler) toCalculationDTOs(calcs []rfa.RFACalculation) []CalculationDTO {
	dtos := make([]CalculationDTO, len(calcs))
	for i := range calcs {
		dtos[i] = h.toCalculationDTO(&calcs[i])
	}
	return dtos
}

// =============================================================================
// SIMULATION HANDLER
// =============================================================================

// defaultScenarios is the trio offered when the client sends none.
var defaultScenarios = []rfa.Scenario{
	{Name: "Pessimiste", TurnoverAmount: decimal.NewFromInt(80000)},
	{Name: "Réaliste", TurnoverAmount: decimal.NewFromInt(150000)},
	{Name: "Optimiste", TurnoverAmount: decimal.NewFromInt(250000)},
}

// Simulate runs what-if scenarios against a contract's configuration.
// Nothing is persisted.
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	id := rfa.ContractID(chi.URLParam(r, "id"))

	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	contract, err := h.Store.GetContract(r.Context(), id)
	if err != nil {
		writeEngineError(w, "Failed to get contract", err)
		return
	}

	scenarios := defaultScenarios
	if len(req.Scenarios) > 0 {
		scenarios = make([]rfa.Scenario, len(req.Scenarios))
		for i, s := range req.Scenarios {
			turnover, err := decimal.NewFromString(s.TurnoverAmount)
			if err != nil {
				writeError(w, http.StatusBadRequest,
					fmt.Sprintf("Invalid turnover_amount in scenario %q", s.Name), err)
				return
			}
			scenarios[i] = rfa.Scenario{Name: s.Name, TurnoverAmount: turnover}
		}
	}

	out, err := rfa.Simulate(contract.DiscountConfig, scenarios)
	if err != nil {
		writeEngineError(w, "Simulation failed", err)
		return
	}

	precision := h.Settings.RoundingPrecision
	resp := SimulateResponse{
		ContractID: string(contract.ID),
		Results:    make([]SimulationResultDTO, len(out.Results)),
	}
	for i, result := range out.Results {
		resp.Results[i] = SimulationResultDTO{
			ScenarioName:   result.ScenarioName,
			TurnoverAmount: money(result.TurnoverAmount, precision),
			RFAAmount:      money(result.RFAAmount, precision),
			EffectiveRate:  rate(result.EffectiveRate),
			TierReached:    result.TierReached,
			Breakdown:      h.toBreakdownDTOs(result.Breakdown),
		}
	}
	for _, warning := range out.Warnings {
		resp.Warnings = append(resp.Warnings,
			fmt.Sprintf("scenario %q: %s", warning.ScenarioName, warning.Reason))
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// TURNOVER HANDLER
// =============================================================================

// RecordTurnover records (or revises) realized turnover for a contract over
// a period. The scheduler picks it up for the current-month calculation.
func (h *Handler) RecordTurnover(w http.ResponseWriter, r *http.Request) {
	id := rfa.ContractID(chi.URLParam(r, "id"))

	var req RecordTurnoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	period, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	if _, err := h.Store.GetContract(r.Context(), id); err != nil {
		writeEngineError(w, "Failed to get contract", err)
		return
	}
	if err := h.Store.RecordTurnover(r.Context(), id, period, amount); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record turnover", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// =============================================================================
// DASHBOARD HANDLERS
// =============================================================================

// GetDashboard aggregates the whole portfolio: stats, top clients, monthly
// series, alerts, data-quality warnings, recent calculations and upcoming
// renewals. Alert candidates are upserted so acknowledgements persist
// across reloads.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now().UTC()

	contracts, err := h.Store.ListContracts(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list contracts", err)
		return
	}
	calcs, err := h.Store.ListCalculations(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list calculations", err)
		return
	}

	data := rfa.Aggregate(rfa.AggregationInput{
		Contracts:    contracts,
		Calculations: calcs,
		Settings:     h.Settings,
		Now:          now,
	})

	for _, alert := range data.Alerts {
		if err := h.Store.UpsertAlert(ctx, alert); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to persist alerts", err)
			return
		}
	}
	stored, err := h.Store.ListAlerts(ctx, false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list alerts", err)
		return
	}

	precision := h.Settings.RoundingPrecision
	dto := DashboardDTO{
		Stats: DashboardStatsDTO{
			TotalContracts:    data.Stats.TotalContracts,
			ActiveContracts:   data.Stats.ActiveContracts,
			DraftContracts:    data.Stats.DraftContracts,
			ExpiredContracts:  data.Stats.ExpiredContracts,
			ArchivedContracts: data.Stats.ArchivedContracts,
			ClientCount:       data.Stats.ClientCount,
			TotalRFAPending:   money(data.Stats.TotalRFAPending, precision),
			TotalRFAPaid:      money(data.Stats.TotalRFAPaid, precision),
			AverageRFARate:    rate(data.Stats.AverageRFARate),
		},
		TopClients:         make([]ClientRankingDTO, len(data.TopClients)),
		MonthlySeries:      make([]MonthlyPointDTO, len(data.MonthlySeries)),
		Alerts:             make([]AlertDTO, len(stored)),
		Warnings:           make([]WarningDTO, len(data.Warnings)),
		RecentCalculations: h.toCalculationDTOs(firstN(calcs, 5)),
		UpcomingRenewals:   upcomingRenewals(contracts, now, h.Settings.ContractExpiryDays),
	}

	for i, client := range data.TopClients {
		dto.TopClients[i] = ClientRankingDTO{
			ClientID:         string(client.ClientID),
			ClientName:       client.ClientName,
			TotalRFA:         money(client.TotalRFA, precision),
			TotalTurnover:    money(client.TotalTurnover, precision),
			CalculationCount: client.CalculationCount,
			AverageRate:      rate(client.AverageRate),
		}
	}
	for i, point := range data.MonthlySeries {
		dto.MonthlySeries[i] = MonthlyPointDTO{
			Month:            point.Month,
			TotalRFA:         money(point.TotalRFA, precision),
			TotalTurnover:    money(point.TotalTurnover, precision),
			ContractCount:    point.ContractCount,
			CalculationCount: point.CalculationCount,
		}
	}
	for i, rec := range stored {
		dto.Alerts[i] = toAlertDTO(rec)
	}
	for i, warning := range data.Warnings {
		dto.Warnings[i] = toWarningDTO(warning)
	}

	writeJSON(w, http.StatusOK, dto)
}

// upcomingRenewals lists active contracts whose end date falls within the
// look-ahead window, soonest first, capped at 5.
func upcomingRenewals(contracts []rfa.Contract, now time.Time, windowDays int) []RenewalDTO {
	renewals := []RenewalDTO{}
	for i := range contracts {
		c := &contracts[i]
		if c.Status != rfa.ContractActive {
			continue
		}
		days, ok := c.DaysUntilExpiry(now)
		if !ok || days < 0 || days > windowDays {
			continue
		}
		renewals = append(renewals, RenewalDTO{
			ContractID: string(c.ID),
			Name:       c.Name,
			ClientName: c.ClientName,
			EndDate:    c.EndDate.Format("2006-01-02"),
			DaysLeft:   days,
		})
	}
	sort.Slice(renewals, func(i, j int) bool {
		if renewals[i].DaysLeft != renewals[j].DaysLeft {
			return renewals[i].DaysLeft < renewals[j].DaysLeft
		}
		return renewals[i].ContractID < renewals[j].ContractID
	})
	if len(renewals) > 5 {
		renewals = renewals[:5]
	}
	return renewals
}

func firstN(calcs []rfa.RFACalculation, n int) []rfa.RFACalculation {
	if len(calcs) > n {
		return calcs[:n]
	}
	return calcs
}

// =============================================================================
// ALERT HANDLERS
// =============================================================================

// ListAlerts returns persisted alerts. Acknowledged alerts are hidden
// unless ?include_acknowledged=true.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	include := r.URL.Query().Get("include_acknowledged") == "true"

	alerts, err := h.Store.ListAlerts(r.Context(), include)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list alerts", err)
		return
	}

	dtos := make([]AlertDTO, len(alerts))
	for i, rec := range alerts {
		dtos[i] = toAlertDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AcknowledgeAlert marks an alert handled. Re-aggregation will refresh its
// message but never un-acknowledge it.
func (h *Handler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	if err := h.Store.AcknowledgeAlert(r.Context(), key); err != nil {
		writeEngineError(w, "Failed to acknowledge alert", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}

// =============================================================================
// ADMIN
// =============================================================================

// ResetDatabase wipes all records (dev/demo only).
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

func parsePeriod(start, end string) (rfa.Period, error) {
	startDate, err := time.Parse("2006-01-02", start)
	if err != nil {
		return rfa.Period{}, fmt.Errorf("invalid period_start %q: %w", start, err)
	}
	endDate, err := time.Parse("2006-01-02", end)
	if err != nil {
		return rfa.Period{}, fmt.Errorf("invalid period_end %q: %w", end, err)
	}
	period := rfa.NewPeriod(startDate, endDate)
	if !period.IsValid() {
		return rfa.Period{}, rfa.ErrInvalidPeriod
	}
	return period, nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps engine error kinds to HTTP status codes.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	switch {
	case rfa.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, rfa.ErrInvalidTransition):
		writeError(w, http.StatusConflict, message, err)
	case rfa.IsValidation(err) || errors.Is(err, rfa.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
