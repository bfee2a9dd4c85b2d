/*
scheduler.go - Automated calculation scheduler

PURPOSE:
  Periodically walks the active contracts and:
  1. Expires contracts whose end date has passed (active -> expired,
     the one automatic lifecycle transition)
  2. Creates the current-month calculation for contracts that have
     recorded turnover but no calculation for the month yet

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Idempotent: a month that already has a calculation is skipped, so
    repeated runs do not pile up duplicate rows
  - Contracts without recorded turnover are left alone; the engine never
    invents a turnover figure

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewCalculationScheduler(store)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: Calculate endpoint (manual calculation)
  - rfa/contract.go: IsExpiredAt, the expiry predicate
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/rebate-engine/rfa"
	"github.com/warp/rebate-engine/store/sqlite"
)

// CalculationScheduler handles automated monthly calculations and contract
// expiry.
type CalculationScheduler struct {
	Store         *sqlite.Store
	Settings      rfa.RFASettings
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewCalculationScheduler creates a new scheduler.
func NewCalculationScheduler(store *sqlite.Store) *CalculationScheduler {
	return &CalculationScheduler{
		Store:         store,
		Settings:      rfa.DefaultSettings(),
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
	}
}

// Start begins the scheduler.
func (cs *CalculationScheduler) Start() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if !cs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if cs.ticker != nil {
		// Already running.
		return
	}

	cs.stop = make(chan bool)
	cs.ticker = time.NewTicker(cs.CheckInterval)
	cs.wg.Add(1)

	go cs.run(cs.ticker, cs.stop)

	log.Printf("[Scheduler] Started with check interval: %v", cs.CheckInterval)
}

// Stop stops the scheduler. Safe to call more than once; the scheduler can
// be started again afterwards.
func (cs *CalculationScheduler) Stop() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.ticker == nil {
		return
	}
	cs.ticker.Stop()
	close(cs.stop)
	cs.wg.Wait()
	cs.ticker = nil
	log.Println("[Scheduler] Stopped")
}

func (cs *CalculationScheduler) run(ticker *time.Ticker, stop chan bool) {
	defer cs.wg.Done()

	// Run immediately on start
	cs.checkAndProcess()

	for {
		select {
		case <-ticker.C:
			cs.checkAndProcess()
		case <-stop:
			return
		}
	}
}

func (cs *CalculationScheduler) checkAndProcess() {
	ctx := context.Background()
	now := time.Now().UTC()

	log.Printf("[Scheduler] Checking active contracts at %v", now)

	contracts, err := cs.Store.ListContractsByStatus(ctx, rfa.ContractActive)
	if err != nil {
		log.Printf("[Scheduler] Error listing contracts: %v", err)
		return
	}

	expiredCount := 0
	calculatedCount := 0
	skippedCount := 0

	currentMonth := rfa.MonthOf(now)

	for i := range contracts {
		contract := &contracts[i]

		if contract.IsExpiredAt(now) {
			if _, err := cs.Store.UpdateContractStatus(ctx, contract.ID, rfa.ContractExpired); err != nil {
				log.Printf("[Scheduler] Error expiring contract %s: %v", contract.ID, err)
				continue
			}
			expiredCount++
			continue
		}

		done, err := cs.Store.HasCalculationForPeriod(ctx, contract.ID, currentMonth)
		if err != nil {
			log.Printf("[Scheduler] Error checking calculations for %s: %v", contract.ID, err)
			continue
		}
		if done {
			skippedCount++
			continue
		}

		turnover, found, err := cs.Store.GetTurnover(ctx, contract.ID, currentMonth)
		if err != nil {
			log.Printf("[Scheduler] Error reading turnover for %s: %v", contract.ID, err)
			continue
		}
		if !found {
			// Nothing recorded yet for this month.
			continue
		}

		if err := cs.createCalculation(ctx, contract, currentMonth, turnover); err != nil {
			log.Printf("[Scheduler] Error calculating %s: %v", contract.ID, err)
			continue
		}
		calculatedCount++
	}

	if expiredCount > 0 || calculatedCount > 0 || skippedCount > 0 {
		log.Printf("[Scheduler] Completed: %d calculated, %d expired, %d skipped (already done)",
			calculatedCount, expiredCount, skippedCount)
	}
}

func (cs *CalculationScheduler) createCalculation(ctx context.Context, contract *rfa.Contract,
	period rfa.Period, turnover decimal.Decimal) error {

	// Deterministic id: one auto-calculation per contract per month.
	id := rfa.CalculationID(
		"calc-auto-" + string(contract.ID) + "-" + period.MonthKey())

	calc, err := rfa.NewCalculation(id, contract, period, turnover)
	if err != nil {
		return err
	}
	if err := cs.Store.SaveCalculation(ctx, calc); err != nil {
		return err
	}

	log.Printf("[Scheduler] Calculated %s for %s: turnover=%s rebate=%s",
		period.MonthKey(), contract.ID, calc.TurnoverAmount, calc.RFAAmount)
	return nil
}

// RunNow triggers an immediate check (for testing/admin).
func (cs *CalculationScheduler) RunNow() {
	cs.checkAndProcess()
}

// GetNextRunTime returns when the next scheduled check will occur.
func (cs *CalculationScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(cs.CheckInterval)
}
