/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates contracts,
	calculations and recorded turnover that demonstrate specific features.

AVAILABLE SCENARIOS:

	progressive-portfolio: Three clients on the standard tiered schedule,
	                       several months of calculations each
	fixed-rate:            One flat-percentage and one lump-sum contract
	expiring-contract:     A contract near its end date plus a rebate past
	                       the alert threshold (dashboard alerts fire)

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create contracts via the factory presets
 3. Activate them
 4. Add monthly calculations
 5. Record current-month turnover for the scheduler to pick up

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "progressive-portfolio"}

ADDING NEW SCENARIOS:
 1. Add to 'demoScenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
  - factory/presets.go: Discount config presets
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/rebate-engine/factory"
	"github.com/warp/rebate-engine/rfa"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var demoScenarios = []DemoScenarioDTO{
	{
		ID:          "progressive-portfolio",
		Name:        "Progressive Portfolio",
		Description: "Three clients on the standard tiered schedule with monthly calculations",
	},
	{
		ID:          "fixed-rate",
		Name:        "Fixed-Rate Contracts",
		Description: "Flat-percentage and lump-sum contracts side by side",
	},
	{
		ID:          "expiring-contract",
		Name:        "Expiring Contract",
		Description: "Contract near its end date plus a rebate over the alert threshold",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, demoScenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range demoScenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	// Scenario ID exists but not in list (shouldn't happen)
	writeJSON(w, http.StatusOK, DemoScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "progressive-portfolio":
		err = h.loadProgressivePortfolioScenario(ctx)
	case "fixed-rate":
		err = h.loadFixedRateScenario(ctx)
	case "expiring-contract":
		err = h.loadExpiringContractScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadProgressivePortfolioScenario(ctx context.Context) error {
	clients := []struct {
		id, clientID, clientName string
		monthlyTurnovers         []string
	}{
		{"ctr-demo-001", "client-durand", "Durand Distribution",
			[]string{"82000", "95000", "110000", "87000"}},
		{"ctr-demo-002", "client-petit", "Petit Négoce",
			[]string{"310000", "295000", "350000", "330000"}},
		{"ctr-demo-003", "client-moreau", "Moreau Grossiste",
			[]string{"45000", "52000", "48000", "61000"}},
	}

	year := time.Now().UTC().Year()
	for _, c := range clients {
		contract, err := h.seedContract(ctx, c.id, c.clientID, c.clientName,
			factory.StandardProgressiveJSON(),
			time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), nil)
		if err != nil {
			return err
		}

		for i, turnover := range c.monthlyTurnovers {
			month := time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
			if err := h.seedCalculation(ctx, contract, rfa.MonthOf(month), turnover); err != nil {
				return err
			}
		}

		// Current-month turnover for the scheduler to pick up.
		if err := h.Store.RecordTurnover(ctx, contract.ID,
			rfa.MonthOf(time.Now().UTC()), decimal.RequireFromString(c.monthlyTurnovers[0])); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadFixedRateScenario(ctx context.Context) error {
	year := time.Now().UTC().Year()
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)

	flat, err := h.seedContract(ctx, "ctr-demo-flat", "client-bernard", "Bernard & Fils",
		factory.FixedPercentJSON("0.012"), start, nil)
	if err != nil {
		return err
	}
	if err := h.seedCalculation(ctx, flat, rfa.MonthOf(start), "180000"); err != nil {
		return err
	}

	lump, err := h.seedContract(ctx, "ctr-demo-lump", "client-roux", "Roux SA",
		factory.FixedAmountJSON("10000"), start, nil)
	if err != nil {
		return err
	}
	return h.seedCalculation(ctx, lump, rfa.MonthOf(start), "420000")
}

func (h *Handler) loadExpiringContractScenario(ctx context.Context) error {
	now := time.Now().UTC()
	start := now.AddDate(-1, 0, 0)
	end := now.AddDate(0, 0, 20) // inside the default 30-day window

	contract, err := h.seedContract(ctx, "ctr-demo-expiring", "client-lefevre", "Lefèvre Import",
		factory.StandardProgressiveJSON(), start, &end)
	if err != nil {
		return err
	}

	// A rebate over the 50 000 threshold: both dashboard alerts fire.
	return h.seedCalculation(ctx, contract, rfa.YearOf(now), "5000000")
}

// =============================================================================
// SEEDING HELPERS
// =============================================================================

func (h *Handler) seedContract(ctx context.Context, id, clientID, clientName, configJSON string,
	start time.Time, end *time.Time) (*rfa.Contract, error) {

	config, err := factory.ParseDiscountConfig([]byte(configJSON))
	if err != nil {
		return nil, err
	}

	contract, err := rfa.NewContract(rfa.ContractID(id), "ent-demo", rfa.ClientID(clientID),
		clientName+" - RFA "+fmt.Sprint(start.Year()), config, start, end, h.Settings.DefaultCurrency)
	if err != nil {
		return nil, err
	}
	contract.ClientName = clientName

	if err := h.Store.SaveContract(ctx, contract); err != nil {
		return nil, err
	}
	activated, err := h.Store.UpdateContractStatus(ctx, contract.ID, rfa.ContractActive)
	if err != nil {
		return nil, err
	}
	return activated, nil
}

func (h *Handler) seedCalculation(ctx context.Context, contract *rfa.Contract,
	period rfa.Period, turnover string) error {

	calc, err := rfa.NewCalculation(
		rfa.CalculationID(h.newID("calc-demo")), contract, period,
		decimal.RequireFromString(turnover))
	if err != nil {
		return err
	}
	return h.Store.SaveCalculation(ctx, calc)
}
