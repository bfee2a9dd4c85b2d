package rfa_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/rebate-engine/rfa"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var aggregationNow = time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)

func monthCalc(t *testing.T, id string, contract *rfa.Contract, month time.Month, turnover string) rfa.RFACalculation {
	t.Helper()
	period := rfa.MonthOf(time.Date(2026, month, 1, 0, 0, 0, 0, time.UTC))
	calc, err := rfa.NewCalculation(rfa.CalculationID(id), contract, period, dec(turnover))
	require.NoError(t, err)
	return *calc
}

func aggregate(contracts []rfa.Contract, calcs []rfa.RFACalculation, settings rfa.RFASettings) *rfa.DashboardData {
	return rfa.Aggregate(rfa.AggregationInput{
		Contracts:    contracts,
		Calculations: calcs,
		Settings:     settings,
		Now:          aggregationNow,
	})
}

// =============================================================================
// EMPTY AND DEGENERATE INPUTS
// =============================================================================

func TestAggregate_EmptyInput(t *testing.T) {
	// Aggregation over nothing: zeroed stats, empty lists, no panic.
	data := aggregate(nil, nil, rfa.DefaultSettings())

	assert.Equal(t, 0, data.Stats.TotalContracts)
	assert.True(t, data.Stats.TotalRFAPending.IsZero())
	assert.True(t, data.Stats.TotalRFAPaid.IsZero())
	assert.True(t, data.Stats.AverageRFARate.IsZero(), "no division by zero on empty input")
	assert.Empty(t, data.TopClients)
	assert.Empty(t, data.MonthlySeries)
	assert.Empty(t, data.Alerts)
	assert.Empty(t, data.Warnings)
}

func TestAggregate_DanglingCalculation_WarnsAndContinues(t *testing.T) {
	// GIVEN: One valid calculation and one referencing a missing contract
	// WHEN: Aggregating
	// THEN: The bad record becomes a warning; the good one is still counted

	contract := newTestContract(t, "c-1", "client-a")
	contract.Status = rfa.ContractActive

	good := monthCalc(t, "calc-1", contract, time.March, "200000")
	bad := good
	bad.ID = "calc-dangling"
	bad.ContractID = "c-missing"

	data := aggregate([]rfa.Contract{*contract}, []rfa.RFACalculation{good, bad}, rfa.DefaultSettings())

	require.Len(t, data.Warnings, 1)
	assert.Equal(t, "dangling_calculation", data.Warnings[0].Kind)
	assert.Equal(t, rfa.ContractID("c-missing"), data.Warnings[0].ContractID)
	assert.True(t, data.Stats.TotalRFAPending.Equal(good.RFAAmount),
		"valid calculation still aggregated")
}

func TestAggregate_ActiveContractWithoutCalculations_Warns(t *testing.T) {
	contract := newTestContract(t, "c-idle", "client-a")
	contract.Status = rfa.ContractActive

	data := aggregate([]rfa.Contract{*contract}, nil, rfa.DefaultSettings())

	require.Len(t, data.Warnings, 1)
	assert.Equal(t, "no_calculations", data.Warnings[0].Kind)
	assert.Equal(t, rfa.ContractID("c-idle"), data.Warnings[0].ContractID)
}

// =============================================================================
// STATS
// =============================================================================

func TestAggregate_Stats(t *testing.T) {
	active := newTestContract(t, "c-1", "client-a")
	active.Status = rfa.ContractActive
	draft := newTestContract(t, "c-2", "client-b")
	archived := newTestContract(t, "c-3", "client-c")
	archived.Status = rfa.ContractArchived

	pending := monthCalc(t, "calc-1", active, time.January, "350000") // 4750
	paid := monthCalc(t, "calc-2", active, time.February, "100000")   // 1000
	paid.Status = rfa.CalculationPaid
	validated := monthCalc(t, "calc-3", active, time.March, "150000") // 1750
	validated.Status = rfa.CalculationValidated
	ignored := monthCalc(t, "calc-4", archived, time.January, "900000") // archived contract

	data := aggregate(
		[]rfa.Contract{*active, *draft, *archived},
		[]rfa.RFACalculation{pending, paid, validated, ignored},
		rfa.DefaultSettings(),
	)

	assert.Equal(t, 3, data.Stats.TotalContracts)
	assert.Equal(t, 1, data.Stats.ActiveContracts)
	assert.Equal(t, 1, data.Stats.DraftContracts)
	assert.Equal(t, 1, data.Stats.ArchivedContracts)
	assert.Equal(t, 2, data.Stats.ClientCount, "archived contract's client not counted")

	assert.True(t, data.Stats.TotalRFAPending.Equal(dec("4750")), "got %s", data.Stats.TotalRFAPending)
	assert.True(t, data.Stats.TotalRFAPaid.Equal(dec("2750")), "got %s", data.Stats.TotalRFAPaid)

	// Mean of effective rates: (4750/350000 + 1000/100000 + 1750/150000) / 3
	expected := dec("4750").Div(dec("350000")).
		Add(dec("0.01")).
		Add(dec("1750").Div(dec("150000"))).
		Div(dec("3"))
	assert.True(t, data.Stats.AverageRFARate.Sub(expected).Abs().LessThan(dec("0.000000001")),
		"got %s, want %s", data.Stats.AverageRFARate, expected)
}

// =============================================================================
// TOP CLIENTS
// =============================================================================

func TestAggregate_TopClients_RankingAndTies(t *testing.T) {
	a := newTestContract(t, "c-a", "client-a")
	a.Status = rfa.ContractActive
	b := newTestContract(t, "c-b", "client-b")
	b.Status = rfa.ContractActive
	c := newTestContract(t, "c-c", "client-c")
	c.Status = rfa.ContractActive

	calcs := []rfa.RFACalculation{
		monthCalc(t, "calc-1", a, time.January, "150000"), // 1750
		monthCalc(t, "calc-2", b, time.January, "350000"), // 4750
		monthCalc(t, "calc-3", c, time.January, "150000"), // 1750, tie with client-a
	}

	data := aggregate([]rfa.Contract{*a, *b, *c}, calcs, rfa.DefaultSettings())

	require.Len(t, data.TopClients, 3)
	assert.Equal(t, rfa.ClientID("client-b"), data.TopClients[0].ClientID)
	assert.Equal(t, rfa.ClientID("client-a"), data.TopClients[1].ClientID,
		"ties broken by client id")
	assert.Equal(t, rfa.ClientID("client-c"), data.TopClients[2].ClientID)

	assert.True(t, data.TopClients[0].AverageRate.Equal(dec("4750").Div(dec("350000"))))
	assert.Equal(t, 1, data.TopClients[0].CalculationCount)
}

func TestAggregate_TopClients_CutoffAtTopN(t *testing.T) {
	var contracts []rfa.Contract
	var calcs []rfa.RFACalculation
	for _, suffix := range []string{"a", "b", "c"} {
		contract := newTestContract(t, "c-"+suffix, "client-"+suffix)
		contract.Status = rfa.ContractActive
		contracts = append(contracts, *contract)
		calcs = append(calcs, monthCalc(t, "calc-"+suffix, contract, time.January, "200000"))
	}

	data := rfa.Aggregate(rfa.AggregationInput{
		Contracts:    contracts,
		Calculations: calcs,
		Settings:     rfa.DefaultSettings(),
		Now:          aggregationNow,
		TopN:         2,
	})

	assert.Len(t, data.TopClients, 2)
}

// =============================================================================
// MONTHLY SERIES
// =============================================================================

func TestAggregate_MonthlySeries(t *testing.T) {
	a := newTestContract(t, "c-a", "client-a")
	a.Status = rfa.ContractActive
	b := newTestContract(t, "c-b", "client-b")
	b.Status = rfa.ContractActive

	calcs := []rfa.RFACalculation{
		monthCalc(t, "calc-1", a, time.January, "100000"),
		monthCalc(t, "calc-2", b, time.January, "100000"),
		monthCalc(t, "calc-3", a, time.March, "350000"),
	}

	data := aggregate([]rfa.Contract{*a, *b}, calcs, rfa.DefaultSettings())

	require.Len(t, data.MonthlySeries, 2)
	jan := data.MonthlySeries[0]
	assert.Equal(t, "2026-01", jan.Month)
	assert.True(t, jan.TotalTurnover.Equal(dec("200000")))
	assert.True(t, jan.TotalRFA.Equal(dec("2000")))
	assert.Equal(t, 2, jan.ContractCount)
	assert.Equal(t, 2, jan.CalculationCount)

	mar := data.MonthlySeries[1]
	assert.Equal(t, "2026-03", mar.Month)
	assert.Equal(t, 1, mar.ContractCount)
	assert.True(t, mar.TotalRFA.Equal(dec("4750")))
}

// =============================================================================
// ALERTS
// =============================================================================

func TestAggregate_ContractExpiringAlert(t *testing.T) {
	// GIVEN: An active contract ending 10 days from "now" and a 30-day window
	// WHEN: Aggregating
	// THEN: A high-priority expiring alert fires (10 days is inside half the window)

	contract := newTestContract(t, "c-exp", "client-a")
	contract.Status = rfa.ContractActive
	end := aggregationNow.AddDate(0, 0, 10)
	contract.EndDate = &end

	calc := monthCalc(t, "calc-1", contract, time.May, "50000")
	data := aggregate([]rfa.Contract{*contract}, []rfa.RFACalculation{calc}, rfa.DefaultSettings())

	require.Len(t, data.Alerts, 1)
	alert := data.Alerts[0]
	assert.Equal(t, rfa.AlertContractExpiring, alert.Type)
	assert.Equal(t, rfa.ContractID("c-exp"), alert.ContractID)
	assert.Equal(t, rfa.PriorityHigh, alert.Priority)
	assert.Equal(t, "contract_expiring:c-exp", alert.Key)
}

func TestAggregate_ContractExpiring_OutsideWindow_NoAlert(t *testing.T) {
	contract := newTestContract(t, "c-far", "client-a")
	contract.Status = rfa.ContractActive
	end := aggregationNow.AddDate(0, 3, 0)
	contract.EndDate = &end

	calc := monthCalc(t, "calc-1", contract, time.May, "50000")
	data := aggregate([]rfa.Contract{*contract}, []rfa.RFACalculation{calc}, rfa.DefaultSettings())

	assert.Empty(t, data.Alerts)
}

func TestAggregate_RFAThresholdAlert(t *testing.T) {
	contract := newTestContract(t, "c-big", "client-a")
	contract.Status = rfa.ContractActive

	// 5 000 000 turnover -> rebate 97 000, past the 50 000 default threshold.
	calc := monthCalc(t, "calc-1", contract, time.February, "5000000")

	data := aggregate([]rfa.Contract{*contract}, []rfa.RFACalculation{calc}, rfa.DefaultSettings())

	require.Len(t, data.Alerts, 1)
	assert.Equal(t, rfa.AlertRFAThreshold, data.Alerts[0].Type)
	assert.Equal(t, rfa.PriorityHigh, data.Alerts[0].Priority)
}

func TestAggregate_TierApproachingAlert(t *testing.T) {
	// GIVEN: Rolling 2026 turnover of 95 000, next tier at 100 001,
	//        approach window 10% (margin 10 000.1, gap 5 001)
	// WHEN: Aggregating
	// THEN: A tierApproaching alert fires

	contract := newTestContract(t, "c-near", "client-a")
	contract.Status = rfa.ContractActive

	calc := monthCalc(t, "calc-1", contract, time.April, "95000")
	data := aggregate([]rfa.Contract{*contract}, []rfa.RFACalculation{calc}, rfa.DefaultSettings())

	require.Len(t, data.Alerts, 1)
	alert := data.Alerts[0]
	assert.Equal(t, rfa.AlertTierApproaching, alert.Type)
	assert.Equal(t, "tier_approaching:c-near", alert.Key)
}

func TestAggregate_TierApproaching_FarFromTier_NoAlert(t *testing.T) {
	contract := newTestContract(t, "c-far", "client-a")
	contract.Status = rfa.ContractActive

	calc := monthCalc(t, "calc-1", contract, time.April, "40000")
	data := aggregate([]rfa.Contract{*contract}, []rfa.RFACalculation{calc}, rfa.DefaultSettings())

	assert.Empty(t, data.Alerts)
}

func TestAggregate_AnomalyAlert(t *testing.T) {
	// GIVEN: A stored calculation whose rebate exceeds its own turnover
	// WHEN: Aggregating
	// THEN: An anomaly alert fires (data corruption, not a legal result)

	contract := newTestContract(t, "c-odd", "client-a")
	contract.Status = rfa.ContractActive

	calc := monthCalc(t, "calc-1", contract, time.April, "1000")
	calc.RFAAmount = dec("2000") // tampered record

	data := aggregate([]rfa.Contract{*contract}, []rfa.RFACalculation{calc}, rfa.DefaultSettings())

	require.Len(t, data.Alerts, 1)
	assert.Equal(t, rfa.AlertAnomalyDetected, data.Alerts[0].Type)
}

func TestAggregate_AlertsIdempotentPerContract(t *testing.T) {
	// Two oversized calculations on the same contract emit ONE threshold
	// alert: alerts are keyed by (type, contract id).

	contract := newTestContract(t, "c-big", "client-a")
	contract.Status = rfa.ContractActive

	calcs := []rfa.RFACalculation{
		monthCalc(t, "calc-1", contract, time.January, "5000000"),
		monthCalc(t, "calc-2", contract, time.February, "6000000"),
	}

	data := aggregate([]rfa.Contract{*contract}, calcs, rfa.DefaultSettings())

	count := 0
	for _, alert := range data.Alerts {
		if alert.Type == rfa.AlertRFAThreshold {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

// =============================================================================
// DETERMINISM
// =============================================================================

func TestAggregate_Deterministic(t *testing.T) {
	var contracts []rfa.Contract
	var calcs []rfa.RFACalculation
	for _, suffix := range []string{"a", "b", "c", "d"} {
		contract := newTestContract(t, "c-"+suffix, "client-"+suffix)
		contract.Status = rfa.ContractActive
		contracts = append(contracts, *contract)
		calcs = append(calcs, monthCalc(t, "calc-"+suffix, contract, time.January, "5000000"))
	}

	first := aggregate(contracts, calcs, rfa.DefaultSettings())
	second := aggregate(contracts, calcs, rfa.DefaultSettings())

	require.Equal(t, len(first.Alerts), len(second.Alerts))
	for i := range first.Alerts {
		assert.Equal(t, first.Alerts[i].Key, second.Alerts[i].Key,
			"alert order must not depend on map iteration")
	}
	assert.Equal(t, first.TopClients, second.TopClients)
}

// =============================================================================
// SETTINGS
// =============================================================================

func TestDefaultSettings(t *testing.T) {
	settings := rfa.DefaultSettings()

	assert.Equal(t, 30, settings.ContractExpiryDays)
	assert.True(t, settings.NotificationThresholds.TierApproachingPercentage.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, rfa.Currency("EUR"), settings.DefaultCurrency)
	assert.EqualValues(t, 2, settings.RoundingPrecision)
}
