/*
aggregate.go - Portfolio aggregation for the contracts dashboard

PURPOSE:
  Folds a collection of contracts and their calculations into dashboard-level
  statistics: totals, top clients, monthly series, and threshold alerts.
  Read-only projection, recomputed on demand, never persisted as a source of
  truth.

FAILURE SEMANTICS:
  Aggregation never throws for data-quality issues. A malformed or
  inconsistent record (a calculation referencing a missing contract, a
  negative turnover) is skipped and reported in the Warnings side channel;
  one bad record cannot abort a portfolio-wide report.

ALERTS:
  tierApproaching  - rolling turnover is within a configurable percentage of
                     the next unreached tier's lower bound
  contractExpiring - end date falls inside the configured look-ahead window
  rfaThreshold     - a single calculation's rebate exceeds the configured
                     absolute threshold
  anomalyDetected  - a calculation's rebate exceeds its own turnover

  Alerts are idempotently keyed by (type, contract id): repeated aggregation
  runs emit the same candidates, and deduplication against already-persisted
  alerts is the store layer's job. The acknowledgement flag lives there too.

EXCLUSIONS:
  Archived contracts count in the status totals but their calculations are
  excluded from every other aggregate (archive is a soft delete).
*/
package rfa

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ALERTS
// =============================================================================

type AlertType string

const (
	AlertTierApproaching  AlertType = "tier_approaching"
	AlertContractExpiring AlertType = "contract_expiring"
	AlertRFAThreshold     AlertType = "rfa_threshold"
	AlertAnomalyDetected  AlertType = "anomaly_detected"
)

type AlertPriority string

const (
	PriorityLow    AlertPriority = "low"
	PriorityMedium AlertPriority = "medium"
	PriorityHigh   AlertPriority = "high"
)

// Alert is a candidate notification emitted by the aggregator. Key is the
// idempotency key; persisting layers upsert on it.
type Alert struct {
	Key        string
	Type       AlertType
	ContractID ContractID
	ClientName string
	Message    string
	Priority   AlertPriority
}

func alertKey(t AlertType, id ContractID) string {
	return string(t) + ":" + string(id)
}

// =============================================================================
// WARNINGS
// =============================================================================

// AggregationWarning reports an inconsistent record found during aggregation.
// Collected, never thrown.
type AggregationWarning struct {
	Kind          string // "dangling_calculation", "malformed_calculation", "no_calculations"
	ContractID    ContractID
	CalculationID CalculationID
	Message       string
}

// =============================================================================
// OUTPUT SHAPES
// =============================================================================

// DashboardStats summarizes the portfolio.
type DashboardStats struct {
	TotalContracts    int
	ActiveContracts   int
	DraftContracts    int
	ExpiredContracts  int
	ArchivedContracts int

	TotalRFAPending decimal.Decimal // calculations still pending
	TotalRFAPaid    decimal.Decimal // validated or paid
	AverageRFARate  decimal.Decimal // mean effective rate over turnover > 0
	ClientCount     int             // distinct clients with a live contract
}

// ClientRanking is one row of the top-clients table.
type ClientRanking struct {
	ClientID         ClientID
	ClientName       string
	TotalRFA         decimal.Decimal
	TotalTurnover    decimal.Decimal
	CalculationCount int
	AverageRate      decimal.Decimal
}

// MonthlyPoint is one bucket of the monthly series, keyed by the period
// start month.
type MonthlyPoint struct {
	Month            string // "2026-01"
	TotalRFA         decimal.Decimal
	TotalTurnover    decimal.Decimal
	ContractCount    int
	CalculationCount int
}

// AggregationInput is everything Aggregate needs, supplied by the caller.
// The engine assumes no query capability of its own.
type AggregationInput struct {
	Contracts    []Contract
	Calculations []RFACalculation
	Settings     RFASettings
	Now          time.Time
	TopN         int // top-clients cutoff; 0 means the default of 5
}

// DashboardData is the full dashboard projection.
type DashboardData struct {
	Stats         DashboardStats
	TopClients    []ClientRanking
	MonthlySeries []MonthlyPoint
	Alerts        []Alert
	Warnings      []AggregationWarning
}

// =============================================================================
// AGGREGATE
// =============================================================================

// Aggregate folds the portfolio into dashboard data. It never fails: bad
// records become warnings and whatever valid results remain are returned.
func Aggregate(input AggregationInput) *DashboardData {
	now := input.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	topN := input.TopN
	if topN <= 0 {
		topN = 5
	}

	out := &DashboardData{
		Stats: DashboardStats{
			TotalRFAPending: decimal.Zero,
			TotalRFAPaid:    decimal.Zero,
			AverageRFARate:  decimal.Zero,
		},
		TopClients:    []ClientRanking{},
		MonthlySeries: []MonthlyPoint{},
		Alerts:        []Alert{},
		Warnings:      []AggregationWarning{},
	}

	contractsByID := make(map[ContractID]*Contract, len(input.Contracts))
	clients := make(map[ClientID]bool)
	for i := range input.Contracts {
		c := &input.Contracts[i]
		contractsByID[c.ID] = c

		out.Stats.TotalContracts++
		switch c.Status {
		case ContractActive:
			out.Stats.ActiveContracts++
		case ContractDraft:
			out.Stats.DraftContracts++
		case ContractExpired:
			out.Stats.ExpiredContracts++
		case ContractArchived:
			out.Stats.ArchivedContracts++
		}
		if c.Status != ContractArchived {
			clients[c.ClientID] = true
		}
	}
	out.Stats.ClientCount = len(clients)

	// Single validation pass: everything downstream only sees valid records.
	valid := make([]*RFACalculation, 0, len(input.Calculations))
	hasCalculation := make(map[ContractID]bool)
	for i := range input.Calculations {
		calc := &input.Calculations[i]

		contract, ok := contractsByID[calc.ContractID]
		if !ok {
			out.Warnings = append(out.Warnings, AggregationWarning{
				Kind:          "dangling_calculation",
				ContractID:    calc.ContractID,
				CalculationID: calc.ID,
				Message:       fmt.Sprintf("calculation %s references unknown contract %s", calc.ID, calc.ContractID),
			})
			continue
		}
		if calc.TurnoverAmount.IsNegative() || !calc.Period.IsValid() {
			out.Warnings = append(out.Warnings, AggregationWarning{
				Kind:          "malformed_calculation",
				ContractID:    calc.ContractID,
				CalculationID: calc.ID,
				Message:       fmt.Sprintf("calculation %s has invalid turnover or period", calc.ID),
			})
			continue
		}
		hasCalculation[calc.ContractID] = true
		if contract.Status == ContractArchived {
			continue
		}
		valid = append(valid, calc)
	}

	aggregateStats(out, valid)
	aggregateTopClients(out, valid, topN)
	aggregateMonthly(out, valid)
	aggregateAlerts(out, contractsByID, valid, input.Settings, now)

	for i := range input.Contracts {
		c := &input.Contracts[i]
		if c.Status == ContractActive && !hasCalculation[c.ID] {
			out.Warnings = append(out.Warnings, AggregationWarning{
				Kind:       "no_calculations",
				ContractID: c.ID,
				Message:    fmt.Sprintf("active contract %s has no calculations", c.ID),
			})
		}
	}

	return out
}

func aggregateStats(out *DashboardData, calcs []*RFACalculation) {
	rateSum := decimal.Zero
	rated := 0

	for _, calc := range calcs {
		switch calc.Status {
		case CalculationPending:
			out.Stats.TotalRFAPending = out.Stats.TotalRFAPending.Add(calc.RFAAmount)
		case CalculationValidated, CalculationPaid:
			out.Stats.TotalRFAPaid = out.Stats.TotalRFAPaid.Add(calc.RFAAmount)
		}

		if calc.TurnoverAmount.IsPositive() {
			rateSum = rateSum.Add(calc.RFAAmount.Div(calc.TurnoverAmount))
			rated++
		}
	}

	if rated > 0 {
		out.Stats.AverageRFARate = rateSum.Div(decimal.NewFromInt(int64(rated)))
	}
}

func aggregateTopClients(out *DashboardData, calcs []*RFACalculation, topN int) {
	byClient := make(map[ClientID]*ClientRanking)
	for _, calc := range calcs {
		row, ok := byClient[calc.ClientID]
		if !ok {
			row = &ClientRanking{
				ClientID:      calc.ClientID,
				ClientName:    calc.ClientName,
				TotalRFA:      decimal.Zero,
				TotalTurnover: decimal.Zero,
			}
			byClient[calc.ClientID] = row
		}
		row.TotalRFA = row.TotalRFA.Add(calc.RFAAmount)
		row.TotalTurnover = row.TotalTurnover.Add(calc.TurnoverAmount)
		row.CalculationCount++
	}

	rankings := make([]ClientRanking, 0, len(byClient))
	for _, row := range byClient {
		if row.TotalTurnover.IsPositive() {
			row.AverageRate = row.TotalRFA.Div(row.TotalTurnover)
		}
		rankings = append(rankings, *row)
	}

	// Descending by total rebate; ties broken by client id for determinism.
	sort.Slice(rankings, func(i, j int) bool {
		if !rankings[i].TotalRFA.Equal(rankings[j].TotalRFA) {
			return rankings[i].TotalRFA.GreaterThan(rankings[j].TotalRFA)
		}
		return rankings[i].ClientID < rankings[j].ClientID
	})

	if len(rankings) > topN {
		rankings = rankings[:topN]
	}
	out.TopClients = rankings
}

func aggregateMonthly(out *DashboardData, calcs []*RFACalculation) {
	type bucket struct {
		point     MonthlyPoint
		contracts map[ContractID]bool
	}
	buckets := make(map[string]*bucket)

	for _, calc := range calcs {
		key := calc.Period.MonthKey()
		b, ok := buckets[key]
		if !ok {
			b = &bucket{
				point:     MonthlyPoint{Month: key, TotalRFA: decimal.Zero, TotalTurnover: decimal.Zero},
				contracts: make(map[ContractID]bool),
			}
			buckets[key] = b
		}
		b.point.TotalRFA = b.point.TotalRFA.Add(calc.RFAAmount)
		b.point.TotalTurnover = b.point.TotalTurnover.Add(calc.TurnoverAmount)
		b.point.CalculationCount++
		b.contracts[calc.ContractID] = true
	}

	series := make([]MonthlyPoint, 0, len(buckets))
	for _, b := range buckets {
		b.point.ContractCount = len(b.contracts)
		series = append(series, b.point)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Month < series[j].Month })
	out.MonthlySeries = series
}

func aggregateAlerts(out *DashboardData, contracts map[ContractID]*Contract,
	calcs []*RFACalculation, settings RFASettings, now time.Time) {

	emitted := make(map[string]bool)
	emit := func(a Alert) {
		if emitted[a.Key] {
			return
		}
		emitted[a.Key] = true
		out.Alerts = append(out.Alerts, a)
	}

	// Rolling turnover per contract for the current year, for tier alerts.
	year := YearOf(now)
	rolling := make(map[ContractID]decimal.Decimal)
	maxRFA := make(map[ContractID]decimal.Decimal)
	for _, calc := range calcs {
		if year.Contains(calc.Period.Start) {
			rolling[calc.ContractID] = rolling[calc.ContractID].Add(calc.TurnoverAmount)
		}
		if calc.RFAAmount.GreaterThan(maxRFA[calc.ContractID]) {
			maxRFA[calc.ContractID] = calc.RFAAmount
		}

		if calc.TurnoverAmount.IsPositive() && calc.RFAAmount.GreaterThan(calc.TurnoverAmount) {
			emit(Alert{
				Key:        alertKey(AlertAnomalyDetected, calc.ContractID),
				Type:       AlertAnomalyDetected,
				ContractID: calc.ContractID,
				ClientName: calc.ClientName,
				Message:    fmt.Sprintf("calculation %s: rebate %s exceeds turnover %s", calc.ID, calc.RFAAmount, calc.TurnoverAmount),
				Priority:   PriorityHigh,
			})
		}
	}

	hundred := decimal.NewFromInt(100)
	for _, contract := range contracts {
		if contract.Status == ContractArchived {
			continue
		}

		// Threshold on the largest single rebate.
		if settings.RFAThresholdAmount.IsPositive() && maxRFA[contract.ID].GreaterThan(settings.RFAThresholdAmount) {
			emit(Alert{
				Key:        alertKey(AlertRFAThreshold, contract.ID),
				Type:       AlertRFAThreshold,
				ContractID: contract.ID,
				ClientName: contract.ClientName,
				Message:    fmt.Sprintf("contract %q: rebate %s exceeds threshold %s", contract.Name, maxRFA[contract.ID], settings.RFAThresholdAmount),
				Priority:   PriorityHigh,
			})
		}

		// The remaining alerts only make sense for live contracts.
		if contract.Status != ContractActive {
			continue
		}

		// Expiring contracts.
		if days, ok := contract.DaysUntilExpiry(now); ok && days >= 0 && days <= settings.ContractExpiryDays {
			priority := PriorityMedium
			if days*2 <= settings.ContractExpiryDays {
				priority = PriorityHigh
			}
			emit(Alert{
				Key:        alertKey(AlertContractExpiring, contract.ID),
				Type:       AlertContractExpiring,
				ContractID: contract.ID,
				ClientName: contract.ClientName,
				Message:    fmt.Sprintf("contract %q expires in %d days", contract.Name, days),
				Priority:   priority,
			})
		}

		// Approaching the next tier.
		pct := settings.NotificationThresholds.TierApproachingPercentage
		turnover, tracked := rolling[contract.ID]
		if !tracked || !pct.IsPositive() {
			continue
		}
		next, ok := NextTier(contract.DiscountConfig, turnover)
		if !ok {
			continue
		}
		margin := next.Min.Mul(pct).Div(hundred)
		gap := next.Min.Sub(turnover)
		if gap.LessThanOrEqual(margin) {
			priority := PriorityMedium
			if gap.Add(gap).LessThanOrEqual(margin) {
				priority = PriorityHigh
			}
			emit(Alert{
				Key:        alertKey(AlertTierApproaching, contract.ID),
				Type:       AlertTierApproaching,
				ContractID: contract.ID,
				ClientName: contract.ClientName,
				Message: fmt.Sprintf("contract %q: turnover %s is %s away from the %s tier",
					contract.Name, turnover, gap, next.Min),
				Priority: priority,
			})
		}
	}

	// Deterministic order regardless of map iteration.
	sort.Slice(out.Alerts, func(i, j int) bool { return out.Alerts[i].Key < out.Alerts[j].Key })
}
