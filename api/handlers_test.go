/*
handlers_test.go - Tests for API handlers

Tests for:
- Contract creation and lifecycle over HTTP
- Calculation endpoint, including the DTO-boundary rounding
- Simulation endpoint with default and custom scenarios
- Calculation status transitions (409 on illegal moves)
- Dashboard aggregation and alert acknowledgement
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/rebate-engine/factory"
	"github.com/warp/rebate-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *Handler) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	handler := NewHandler(store)
	server := httptest.NewServer(NewRouter(handler))
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})
	return server, handler
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func standardConfigJSON(t *testing.T) factory.DiscountConfigJSON {
	t.Helper()
	config, err := factory.ParseDiscountConfig([]byte(factory.StandardProgressiveJSON()))
	if err != nil {
		t.Fatalf("Failed to parse preset: %v", err)
	}
	return factory.ToJSON(config)
}

func createTestContract(t *testing.T, baseURL string) ContractDTO {
	t.Helper()
	var contract ContractDTO
	status := doJSON(t, http.MethodPost, baseURL+"/api/contracts", CreateContractRequest{
		ID:             "c-1",
		EnterpriseID:   "ent-1",
		ClientID:       "client-a",
		ClientName:     "Acme",
		Name:           "Acme RFA 2026",
		DiscountConfig: standardConfigJSON(t),
		StartDate:      "2026-01-01",
	}, &contract)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", status)
	}
	return contract
}

func activateContract(t *testing.T, baseURL, id string) {
	t.Helper()
	status := doJSON(t, http.MethodPost, baseURL+"/api/contracts/"+id+"/status",
		ContractStatusRequest{Status: "active"}, nil)
	if status != http.StatusOK {
		t.Fatalf("Failed to activate contract: %d", status)
	}
}

// =============================================================================
// CONTRACT ENDPOINTS
// =============================================================================

func TestCreateContract(t *testing.T) {
	server, _ := newTestServer(t)

	contract := createTestContract(t, server.URL)
	if contract.Status != "draft" {
		t.Errorf("New contracts start as draft, got %s", contract.Status)
	}
	if contract.ContractType != "progressive" {
		t.Errorf("Contract type should follow the config tag, got %s", contract.ContractType)
	}
	if contract.Currency != "EUR" {
		t.Errorf("Expected default currency EUR, got %s", contract.Currency)
	}
	if len(contract.DiscountConfig.Tiers) != 3 {
		t.Errorf("Expected 3 tiers in response, got %d", len(contract.DiscountConfig.Tiers))
	}
}

func TestCreateContract_InvalidConfigRejected(t *testing.T) {
	server, _ := newTestServer(t)

	status := doJSON(t, http.MethodPost, server.URL+"/api/contracts", map[string]any{
		"client_id":       "client-a",
		"name":            "Broken",
		"start_date":      "2026-01-01",
		"discount_config": map[string]any{"type": "fixed_percent", "rate": "2"},
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 for rate > 1, got %d", status)
	}
}

func TestCreateContract_RequiresIdentityFields(t *testing.T) {
	server, _ := newTestServer(t)

	base := CreateContractRequest{
		ClientID:       "client-a",
		ClientName:     "Acme",
		Name:           "Acme RFA",
		DiscountConfig: standardConfigJSON(t),
		StartDate:      "2026-01-01",
	}

	noClient := base
	noClient.ClientID = ""
	if status := doJSON(t, http.MethodPost, server.URL+"/api/contracts", noClient, nil); status != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank client_id, got %d", status)
	}

	noName := base
	noName.Name = ""
	if status := doJSON(t, http.MethodPost, server.URL+"/api/contracts", noName, nil); status != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank name, got %d", status)
	}
}

func TestGetContract_NotFound(t *testing.T) {
	server, _ := newTestServer(t)

	status := doJSON(t, http.MethodGet, server.URL+"/api/contracts/nope", nil, nil)
	if status != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", status)
	}
}

func TestContractLifecycle(t *testing.T) {
	server, _ := newTestServer(t)
	contract := createTestContract(t, server.URL)
	base := server.URL + "/api/contracts/" + contract.ID

	activateContract(t, server.URL, contract.ID)

	// Active -> draft is illegal: 409.
	status := doJSON(t, http.MethodPost, base+"/status", ContractStatusRequest{Status: "draft"}, nil)
	if status != http.StatusConflict {
		t.Errorf("Expected 409 for illegal transition, got %d", status)
	}

	// Archive, then verify nothing leaves archived.
	var archived ContractDTO
	if status := doJSON(t, http.MethodPost, base+"/archive", nil, &archived); status != http.StatusOK {
		t.Fatalf("Failed to archive: %d", status)
	}
	if archived.Status != "archived" {
		t.Errorf("Expected archived, got %s", archived.Status)
	}
	status = doJSON(t, http.MethodPost, base+"/status", ContractStatusRequest{Status: "active"}, nil)
	if status != http.StatusConflict {
		t.Errorf("Archived is terminal; expected 409, got %d", status)
	}

	// Soft delete: still readable.
	if status := doJSON(t, http.MethodGet, base, nil, &archived); status != http.StatusOK {
		t.Errorf("Archived contract should remain readable, got %d", status)
	}
}

func TestUpdateContract_ConfigKeepsTypeInSync(t *testing.T) {
	server, _ := newTestServer(t)
	contract := createTestContract(t, server.URL)

	newConfig, err := factory.ParseDiscountConfig([]byte(factory.FixedPercentJSON("0.012")))
	if err != nil {
		t.Fatalf("Failed to parse config: %v", err)
	}
	cj := factory.ToJSON(newConfig)

	var updated ContractDTO
	status := doJSON(t, http.MethodPut, server.URL+"/api/contracts/"+contract.ID,
		UpdateContractRequest{DiscountConfig: &cj}, &updated)
	if status != http.StatusOK {
		t.Fatalf("Update failed: %d", status)
	}
	if updated.ContractType != "fixed_percent" {
		t.Errorf("Contract type must follow the new config, got %s", updated.ContractType)
	}
}

// =============================================================================
// CALCULATION ENDPOINTS
// =============================================================================

func TestCalculate(t *testing.T) {
	// GIVEN: An active contract on the standard schedule
	// WHEN: Calculating for a 350 000 turnover
	// THEN: 4 750 rebate with a two-row breakdown, amounts rounded to 2dp

	server, _ := newTestServer(t)
	contract := createTestContract(t, server.URL)
	activateContract(t, server.URL, contract.ID)

	var calc CalculationDTO
	status := doJSON(t, http.MethodPost, server.URL+"/api/contracts/"+contract.ID+"/calculate",
		CalculateRequest{
			PeriodStart:    "2026-01-01",
			PeriodEnd:      "2027-01-01",
			TurnoverAmount: "350000",
		}, &calc)
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", status)
	}

	if calc.RFAAmount != "4750.00" {
		t.Errorf("Expected 4750.00, got %s", calc.RFAAmount)
	}
	if calc.Status != "pending" {
		t.Errorf("New calculations start pending, got %s", calc.Status)
	}
	if len(calc.Breakdown) != 2 {
		t.Fatalf("Expected 2 breakdown rows, got %d", len(calc.Breakdown))
	}
	if calc.Breakdown[1].TierAmount != "250000.00" || calc.Breakdown[1].RFAAmount != "3750.00" {
		t.Errorf("Tier 1: expected 250000.00 @ 3750.00, got %s @ %s",
			calc.Breakdown[1].TierAmount, calc.Breakdown[1].RFAAmount)
	}
	// 4750/350000 = 0.01357142857... -> 6 decimals
	if calc.EffectiveRate != "0.013571" {
		t.Errorf("Expected effective rate 0.013571, got %s", calc.EffectiveRate)
	}
}

func TestCalculate_NegativeTurnoverRejected(t *testing.T) {
	server, _ := newTestServer(t)
	contract := createTestContract(t, server.URL)

	status := doJSON(t, http.MethodPost, server.URL+"/api/contracts/"+contract.ID+"/calculate",
		CalculateRequest{PeriodStart: "2026-01-01", PeriodEnd: "2026-02-01", TurnoverAmount: "-5"}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", status)
	}
}

func TestCalculate_ArchivedContractRejected(t *testing.T) {
	server, _ := newTestServer(t)
	contract := createTestContract(t, server.URL)
	doJSON(t, http.MethodPost, server.URL+"/api/contracts/"+contract.ID+"/archive", nil, nil)

	status := doJSON(t, http.MethodPost, server.URL+"/api/contracts/"+contract.ID+"/calculate",
		CalculateRequest{PeriodStart: "2026-01-01", PeriodEnd: "2026-02-01", TurnoverAmount: "1000"}, nil)
	if status != http.StatusConflict {
		t.Errorf("Expected 409, got %d", status)
	}
}

func TestCalculationStatusTransitions(t *testing.T) {
	server, _ := newTestServer(t)
	contract := createTestContract(t, server.URL)
	activateContract(t, server.URL, contract.ID)

	var calc CalculationDTO
	doJSON(t, http.MethodPost, server.URL+"/api/contracts/"+contract.ID+"/calculate",
		CalculateRequest{PeriodStart: "2026-01-01", PeriodEnd: "2026-02-01", TurnoverAmount: "100000"}, &calc)

	statusURL := server.URL + "/api/calculations/" + calc.ID + "/status"

	// Pending -> paid skips validation: 409.
	if status := doJSON(t, http.MethodPost, statusURL, CalculationStatusRequest{Status: "paid"}, nil); status != http.StatusConflict {
		t.Errorf("Expected 409 for pending->paid, got %d", status)
	}

	var updated CalculationDTO
	if status := doJSON(t, http.MethodPost, statusURL, CalculationStatusRequest{Status: "validated"}, &updated); status != http.StatusOK {
		t.Fatalf("Expected 200 for pending->validated, got %d", status)
	}
	if updated.Status != "validated" {
		t.Errorf("Expected validated, got %s", updated.Status)
	}

	if status := doJSON(t, http.MethodPost, statusURL, CalculationStatusRequest{Status: "paid"}, &updated); status != http.StatusOK {
		t.Fatalf("Expected 200 for validated->paid, got %d", status)
	}

	// Paid is terminal.
	if status := doJSON(t, http.MethodPost, statusURL, CalculationStatusRequest{Status: "cancelled"}, nil); status != http.StatusConflict {
		t.Errorf("Expected 409 out of paid, got %d", status)
	}
}

// =============================================================================
// SIMULATION ENDPOINT
// =============================================================================

func TestSimulate_DefaultScenarios(t *testing.T) {
	server, _ := newTestServer(t)
	contract := createTestContract(t, server.URL)

	var resp SimulateResponse
	status := doJSON(t, http.MethodPost, server.URL+"/api/contracts/"+contract.ID+"/simulate",
		SimulateRequest{}, &resp)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}

	if len(resp.Results) != 3 {
		t.Fatalf("Expected the default trio, got %d results", len(resp.Results))
	}
	expected := map[string]string{
		"Pessimiste": "800.00",
		"Réaliste":   "1750.00",
		"Optimiste":  "3250.00",
	}
	for _, result := range resp.Results {
		if want := expected[result.ScenarioName]; result.RFAAmount != want {
			t.Errorf("%s: expected %s, got %s", result.ScenarioName, want, result.RFAAmount)
		}
	}
}

func TestSimulate_RoundsAtTheBoundary(t *testing.T) {
	// GIVEN: A flat 1.2% contract
	// WHEN: Simulating a turnover that produces a repeating rate
	// THEN: Amounts come back at 2 decimals, rates at 6

	server, _ := newTestServer(t)

	var contract ContractDTO
	doJSON(t, http.MethodPost, server.URL+"/api/contracts", CreateContractRequest{
		ID:       "c-flat",
		ClientID: "client-b", ClientName: "Flat", Name: "Flat RFA",
		DiscountConfig: factory.DiscountConfigJSON{Type: "fixed_percent", Rate: decPtrJSON(t, "0.012")},
		StartDate:      "2026-01-01",
	}, &contract)

	var resp SimulateResponse
	doJSON(t, http.MethodPost, server.URL+"/api/contracts/c-flat/simulate", SimulateRequest{
		Scenarios: []ScenarioInputDTO{{Name: "odd", TurnoverAmount: "100.505"}},
	}, &resp)

	// 100.505 * 0.012 = 1.20606 -> 1.21
	if resp.Results[0].RFAAmount != "1.21" {
		t.Errorf("Expected 1.21, got %s", resp.Results[0].RFAAmount)
	}
	if resp.Results[0].EffectiveRate != "0.012000" {
		t.Errorf("Expected rate 0.012000, got %s", resp.Results[0].EffectiveRate)
	}
}

func TestSimulate_ZeroTurnoverWarns(t *testing.T) {
	server, _ := newTestServer(t)
	contract := createTestContract(t, server.URL)

	var resp SimulateResponse
	doJSON(t, http.MethodPost, server.URL+"/api/contracts/"+contract.ID+"/simulate", SimulateRequest{
		Scenarios: []ScenarioInputDTO{{Name: "empty year", TurnoverAmount: "0"}},
	}, &resp)

	if len(resp.Warnings) != 1 {
		t.Errorf("Expected one degenerate-input warning, got %v", resp.Warnings)
	}
	if resp.Results[0].EffectiveRate != "0.000000" {
		t.Errorf("Expected zero rate, got %s", resp.Results[0].EffectiveRate)
	}
}

// =============================================================================
// DASHBOARD AND ALERTS
// =============================================================================

func TestDashboard(t *testing.T) {
	server, _ := newTestServer(t)
	contract := createTestContract(t, server.URL)
	activateContract(t, server.URL, contract.ID)

	// A rebate over the 50 000 threshold so an alert fires.
	doJSON(t, http.MethodPost, server.URL+"/api/contracts/"+contract.ID+"/calculate",
		CalculateRequest{PeriodStart: "2026-01-01", PeriodEnd: "2027-01-01", TurnoverAmount: "5000000"}, nil)

	var dash DashboardDTO
	if status := doJSON(t, http.MethodGet, server.URL+"/api/dashboard", nil, &dash); status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}

	if dash.Stats.TotalContracts != 1 || dash.Stats.ActiveContracts != 1 {
		t.Errorf("Unexpected stats: %+v", dash.Stats)
	}
	if dash.Stats.TotalRFAPending != "97000.00" {
		t.Errorf("Expected pending 97000.00, got %s", dash.Stats.TotalRFAPending)
	}
	if len(dash.TopClients) != 1 || dash.TopClients[0].ClientID != "client-a" {
		t.Errorf("Expected one top client, got %+v", dash.TopClients)
	}
	if len(dash.MonthlySeries) != 1 || dash.MonthlySeries[0].Month != "2026-01" {
		t.Errorf("Expected one monthly bucket for 2026-01, got %+v", dash.MonthlySeries)
	}

	found := false
	for _, alert := range dash.Alerts {
		if alert.Type == "rfa_threshold" && alert.ContractID == contract.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected an rfa_threshold alert, got %+v", dash.Alerts)
	}
}

func TestDashboard_EmptyPortfolio(t *testing.T) {
	server, _ := newTestServer(t)

	var dash DashboardDTO
	if status := doJSON(t, http.MethodGet, server.URL+"/api/dashboard", nil, &dash); status != http.StatusOK {
		t.Fatalf("Expected 200 on empty portfolio, got %d", status)
	}
	if dash.Stats.TotalRFAPending != "0.00" || dash.Stats.AverageRFARate != "0.000000" {
		t.Errorf("Expected zeroed stats, got %+v", dash.Stats)
	}
}

func TestAcknowledgeAlert(t *testing.T) {
	server, _ := newTestServer(t)
	contract := createTestContract(t, server.URL)
	activateContract(t, server.URL, contract.ID)
	doJSON(t, http.MethodPost, server.URL+"/api/contracts/"+contract.ID+"/calculate",
		CalculateRequest{PeriodStart: "2026-01-01", PeriodEnd: "2027-01-01", TurnoverAmount: "5000000"}, nil)
	doJSON(t, http.MethodGet, server.URL+"/api/dashboard", nil, nil)

	key := "rfa_threshold:" + contract.ID
	if status := doJSON(t, http.MethodPost, server.URL+"/api/alerts/"+key+"/acknowledge", nil, nil); status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}

	var open []AlertDTO
	doJSON(t, http.MethodGet, server.URL+"/api/alerts", nil, &open)
	for _, alert := range open {
		if alert.Key == key {
			t.Errorf("Acknowledged alert should be hidden by default")
		}
	}

	if status := doJSON(t, http.MethodPost, server.URL+"/api/alerts/no_such:key/acknowledge", nil, nil); status != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown alert, got %d", status)
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestLoadScenario(t *testing.T) {
	server, _ := newTestServer(t)

	for _, id := range []string{"progressive-portfolio", "fixed-rate", "expiring-contract"} {
		t.Run(id, func(t *testing.T) {
			status := doJSON(t, http.MethodPost, server.URL+"/api/scenarios/load",
				map[string]string{"scenario_id": id}, nil)
			if status != http.StatusOK {
				t.Fatalf("Failed to load scenario %s: %d", id, status)
			}

			var contracts []ContractDTO
			doJSON(t, http.MethodGet, server.URL+"/api/contracts", nil, &contracts)
			if len(contracts) == 0 {
				t.Error("Scenario should seed contracts")
			}

			var dash DashboardDTO
			if status := doJSON(t, http.MethodGet, server.URL+"/api/dashboard", nil, &dash); status != http.StatusOK {
				t.Errorf("Dashboard failed after scenario load: %d", status)
			}
		})
	}

	status := doJSON(t, http.MethodPost, server.URL+"/api/scenarios/load",
		map[string]string{"scenario_id": "nope"}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown scenario, got %d", status)
	}
}

func TestResetDatabase(t *testing.T) {
	server, _ := newTestServer(t)
	createTestContract(t, server.URL)

	if status := doJSON(t, http.MethodPost, server.URL+"/api/scenarios/reset", nil, nil); status != http.StatusOK {
		t.Fatalf("Reset failed: %d", status)
	}

	var contracts []ContractDTO
	doJSON(t, http.MethodGet, server.URL+"/api/contracts", nil, &contracts)
	if len(contracts) != 0 {
		t.Errorf("Expected empty store after reset, got %d contracts", len(contracts))
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func decPtrJSON(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return &d
}
