/*
Package sqlite provides the SQLite-backed record store for the rebate engine.

PURPOSE:
  Persists contracts, calculations, alerts and recorded turnover. In
  production the same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

KEY TABLES:
  contracts:        Contract records; discount_config stored as JSON
  rfa_calculations: One row per computed rebate; breakdown stored as JSON
  alerts:           Candidate notifications, idempotent on (type, contract_id)
  turnover_entries: Recorded turnover per contract per period

LIFECYCLE ENFORCEMENT:
  Status changes go through UpdateContractStatus / UpdateCalculationStatus,
  which check the engine's transition predicates before writing. An illegal
  move returns a TransitionError and leaves the row untouched.

  Contracts are never deleted: archiving is a status update. Calculations
  are never recomputed in place: a recalculation inserts a new row.

ALERT UPSERTS:
  The aggregator emits the same alert candidates on every run. UpsertAlert
  inserts on first sight and refreshes message/priority afterwards, keyed by
  the UNIQUE(type, contract_id) index. The acknowledged flag survives
  refreshes so a handled alert stays handled.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/rebate.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - rfa/contract.go: the lifecycle predicates enforced here
  - factory: the JSON form of discount_config
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/rebate-engine/factory"
	"github.com/warp/rebate-engine/rfa"
)

// Store is the SQLite-backed record store.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Contracts (never deleted; archive is a status update)
	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		enterprise_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		client_name TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		contract_type TEXT NOT NULL,
		discount_config TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		currency TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_client
		ON contracts(client_id);
	CREATE INDEX IF NOT EXISTS idx_contracts_status
		ON contracts(status);

	-- Calculations (one row per computed rebate; never updated in place
	-- except for status)
	CREATE TABLE IF NOT EXISTS rfa_calculations (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		contract_name TEXT NOT NULL DEFAULT '',
		client_name TEXT NOT NULL DEFAULT '',
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		turnover_amount TEXT NOT NULL,
		rfa_amount TEXT NOT NULL,
		breakdown_json TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'pending',
		currency TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_calculations_contract
		ON rfa_calculations(contract_id);
	CREATE INDEX IF NOT EXISTS idx_calculations_status
		ON rfa_calculations(status);
	CREATE INDEX IF NOT EXISTS idx_calculations_period
		ON rfa_calculations(contract_id, period_start, period_end);

	-- Alerts, idempotent per (type, contract)
	CREATE TABLE IF NOT EXISTS alerts (
		key TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		contract_id TEXT NOT NULL,
		client_name TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL,
		priority TEXT NOT NULL,
		acknowledged BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(type, contract_id)
	);

	CREATE INDEX IF NOT EXISTS idx_alerts_acknowledged
		ON alerts(acknowledged);

	-- Recorded turnover, one entry per contract per period
	CREATE TABLE IF NOT EXISTS turnover_entries (
		contract_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		amount TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (contract_id, period_start, period_end)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CONTRACTS
// =============================================================================

// SaveContract inserts a new contract.
func (s *Store) SaveContract(ctx context.Context, c *rfa.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	configJSON, err := factory.MarshalDiscountConfig(c.DiscountConfig)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO contracts
		(id, enterprise_id, client_id, client_name, name, contract_type, discount_config,
		 start_date, end_date, currency, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		c.ID, c.EnterpriseID, c.ClientID, c.ClientName, c.Name,
		c.ContractType, string(configJSON),
		c.StartDate.Format(time.RFC3339), nullTime(c.EndDate),
		c.Currency, c.Status, c.Notes,
		c.CreatedAt.Format(time.RFC3339), c.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("contract %s already exists", c.ID)
		}
		return fmt.Errorf("failed to save contract: %w", err)
	}
	return nil
}

// UpdateContract rewrites a contract's mutable fields. Status is not touched
// here; use UpdateContractStatus for lifecycle moves.
func (s *Store) UpdateContract(ctx context.Context, c *rfa.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	configJSON, err := factory.MarshalDiscountConfig(c.DiscountConfig)
	if err != nil {
		return err
	}

	query := `
		UPDATE contracts SET
			client_id = ?, client_name = ?, name = ?, contract_type = ?,
			discount_config = ?, start_date = ?, end_date = ?, currency = ?,
			notes = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		c.ClientID, c.ClientName, c.Name, c.ContractType,
		string(configJSON), c.StartDate.Format(time.RFC3339), nullTime(c.EndDate),
		c.Currency, c.Notes, time.Now().UTC().Format(time.RFC3339),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update contract: %w", err)
	}
	return requireRow(res, rfa.ErrContractNotFound)
}

// UpdateContractStatus performs a lifecycle move, enforcing the contract
// state machine. Returns the updated contract.
func (s *Store) UpdateContractStatus(ctx context.Context, id rfa.ContractID, to rfa.ContractStatus) (*rfa.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !to.IsValid() {
		return nil, &rfa.TransitionError{From: "?", To: string(to)}
	}

	contract, err := s.getContract(ctx, id)
	if err != nil {
		return nil, err
	}
	if !contract.Status.CanTransitionTo(to) {
		return nil, &rfa.TransitionError{From: string(contract.Status), To: string(to)}
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		"UPDATE contracts SET status = ?, updated_at = ? WHERE id = ?",
		to, now.Format(time.RFC3339), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update contract status: %w", err)
	}

	contract.Status = to
	contract.UpdatedAt = now
	return contract, nil
}

// GetContract retrieves a contract by id.
func (s *Store) GetContract(ctx context.Context, id rfa.ContractID) (*rfa.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getContract(ctx, id)
}

func (s *Store) getContract(ctx context.Context, id rfa.ContractID) (*rfa.Contract, error) {
	row := s.db.QueryRowContext(ctx, contractColumns+" FROM contracts WHERE id = ?", id)
	contract, err := scanContract(row)
	if err == sql.ErrNoRows {
		return nil, rfa.ErrContractNotFound
	}
	return contract, err
}

// ListContracts returns all contracts, newest first.
func (s *Store) ListContracts(ctx context.Context) ([]rfa.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryContracts(ctx, contractColumns+" FROM contracts ORDER BY created_at DESC, id")
}

// ListContractsByStatus returns contracts in one lifecycle state.
func (s *Store) ListContractsByStatus(ctx context.Context, status rfa.ContractStatus) ([]rfa.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryContracts(ctx,
		contractColumns+" FROM contracts WHERE status = ? ORDER BY created_at DESC, id", status)
}

const contractColumns = `
	SELECT id, enterprise_id, client_id, client_name, name, contract_type,
	       discount_config, start_date, end_date, currency, status, notes,
	       created_at, updated_at`

func (s *Store) queryContracts(ctx context.Context, query string, args ...any) ([]rfa.Contract, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []rfa.Contract
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, *contract)
	}
	return contracts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContract(row rowScanner) (*rfa.Contract, error) {
	var (
		c          rfa.Contract
		configJSON string
		startDate  string
		endDate    sql.NullString
		createdAt  string
		updatedAt  string
	)

	err := row.Scan(
		&c.ID, &c.EnterpriseID, &c.ClientID, &c.ClientName, &c.Name,
		&c.ContractType, &configJSON, &startDate, &endDate,
		&c.Currency, &c.Status, &c.Notes, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan contract: %w", err)
	}

	c.DiscountConfig, err = factory.ParseDiscountConfig([]byte(configJSON))
	if err != nil {
		return nil, fmt.Errorf("contract %s has corrupt discount config: %w", c.ID, err)
	}

	c.StartDate, _ = time.Parse(time.RFC3339, startDate)
	if endDate.Valid {
		t, _ := time.Parse(time.RFC3339, endDate.String)
		c.EndDate = &t
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &c, nil
}

// =============================================================================
// CALCULATIONS
// =============================================================================

// SaveCalculation inserts a new calculation row. There is no update path for
// computed amounts: a recalculation is a fresh row.
func (s *Store) SaveCalculation(ctx context.Context, calc *rfa.RFACalculation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	breakdownJSON, err := json.Marshal(calc.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to encode breakdown: %w", err)
	}

	query := `
		INSERT INTO rfa_calculations
		(id, contract_id, client_id, contract_name, client_name,
		 period_start, period_end, turnover_amount, rfa_amount, breakdown_json,
		 status, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		calc.ID, calc.ContractID, calc.ClientID, calc.ContractName, calc.ClientName,
		calc.Period.Start.Format(time.RFC3339), calc.Period.End.Format(time.RFC3339),
		calc.TurnoverAmount.String(), calc.RFAAmount.String(), string(breakdownJSON),
		calc.Status, calc.Currency,
		calc.CreatedAt.Format(time.RFC3339), calc.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("calculation %s already exists", calc.ID)
		}
		return fmt.Errorf("failed to save calculation: %w", err)
	}
	return nil
}

// GetCalculation retrieves a calculation by id.
func (s *Store) GetCalculation(ctx context.Context, id rfa.CalculationID) (*rfa.RFACalculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getCalculation(ctx, id)
}

func (s *Store) getCalculation(ctx context.Context, id rfa.CalculationID) (*rfa.RFACalculation, error) {
	row := s.db.QueryRowContext(ctx, calculationColumns+" FROM rfa_calculations WHERE id = ?", id)
	calc, err := scanCalculation(row)
	if err == sql.ErrNoRows {
		return nil, rfa.ErrCalculationNotFound
	}
	return calc, err
}

// ListCalculations returns all calculations, newest period first.
func (s *Store) ListCalculations(ctx context.Context) ([]rfa.RFACalculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryCalculations(ctx,
		calculationColumns+" FROM rfa_calculations ORDER BY period_start DESC, created_at DESC, id")
}

// ListCalculationsByContract returns one contract's calculations, newest
// period first.
func (s *Store) ListCalculationsByContract(ctx context.Context, contractID rfa.ContractID) ([]rfa.RFACalculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryCalculations(ctx,
		calculationColumns+" FROM rfa_calculations WHERE contract_id = ? ORDER BY period_start DESC, created_at DESC, id",
		contractID)
}

// HasCalculationForPeriod reports whether any calculation already covers the
// exact period. The scheduler uses it to keep auto-calculation idempotent.
func (s *Store) HasCalculationForPeriod(ctx context.Context, contractID rfa.ContractID, period rfa.Period) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM rfa_calculations WHERE contract_id = ? AND period_start = ? AND period_end = ?",
		contractID, period.Start.Format(time.RFC3339), period.End.Format(time.RFC3339),
	).Scan(&count)
	return count > 0, err
}

// UpdateCalculationStatus performs a lifecycle move, enforcing the
// calculation state machine. Returns the updated calculation.
func (s *Store) UpdateCalculationStatus(ctx context.Context, id rfa.CalculationID, to rfa.CalculationStatus) (*rfa.RFACalculation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !to.IsValid() {
		return nil, &rfa.TransitionError{From: "?", To: string(to)}
	}

	calc, err := s.getCalculation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !calc.Status.CanTransitionTo(to) {
		return nil, &rfa.TransitionError{From: string(calc.Status), To: string(to)}
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		"UPDATE rfa_calculations SET status = ?, updated_at = ? WHERE id = ?",
		to, now.Format(time.RFC3339), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update calculation status: %w", err)
	}

	calc.Status = to
	calc.UpdatedAt = now
	return calc, nil
}

const calculationColumns = `
	SELECT id, contract_id, client_id, contract_name, client_name,
	       period_start, period_end, turnover_amount, rfa_amount, breakdown_json,
	       status, currency, created_at, updated_at`

func (s *Store) queryCalculations(ctx context.Context, query string, args ...any) ([]rfa.RFACalculation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query calculations: %w", err)
	}
	defer rows.Close()

	var calcs []rfa.RFACalculation
	for rows.Next() {
		calc, err := scanCalculation(rows)
		if err != nil {
			return nil, err
		}
		calcs = append(calcs, *calc)
	}
	return calcs, rows.Err()
}

func scanCalculation(row rowScanner) (*rfa.RFACalculation, error) {
	var (
		calc          rfa.RFACalculation
		periodStart   string
		periodEnd     string
		turnover      string
		rfaAmount     string
		breakdownJSON string
		createdAt     string
		updatedAt     string
	)

	err := row.Scan(
		&calc.ID, &calc.ContractID, &calc.ClientID, &calc.ContractName, &calc.ClientName,
		&periodStart, &periodEnd, &turnover, &rfaAmount, &breakdownJSON,
		&calc.Status, &calc.Currency, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan calculation: %w", err)
	}

	start, _ := time.Parse(time.RFC3339, periodStart)
	end, _ := time.Parse(time.RFC3339, periodEnd)
	calc.Period = rfa.Period{Start: start, End: end}

	if calc.TurnoverAmount, err = decimal.NewFromString(turnover); err != nil {
		return nil, fmt.Errorf("calculation %s has corrupt turnover %q: %w", calc.ID, turnover, err)
	}
	if calc.RFAAmount, err = decimal.NewFromString(rfaAmount); err != nil {
		return nil, fmt.Errorf("calculation %s has corrupt amount %q: %w", calc.ID, rfaAmount, err)
	}
	if err := json.Unmarshal([]byte(breakdownJSON), &calc.Breakdown); err != nil {
		return nil, fmt.Errorf("calculation %s has corrupt breakdown: %w", calc.ID, err)
	}

	calc.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	calc.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &calc, nil
}

// =============================================================================
// ALERTS
// =============================================================================

// AlertRecord is a persisted alert: the aggregator's candidate plus the
// acknowledgement state that lives only in the store.
type AlertRecord struct {
	rfa.Alert
	Acknowledged bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UpsertAlert inserts a new alert or refreshes an existing one's message and
// priority. The acknowledged flag is preserved across refreshes.
func (s *Store) UpsertAlert(ctx context.Context, a rfa.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO alerts (key, type, contract_id, client_name, message, priority, acknowledged, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, FALSE, ?, ?)
		ON CONFLICT(type, contract_id) DO UPDATE SET
			client_name = excluded.client_name,
			message = excluded.message,
			priority = excluded.priority,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		a.Key, a.Type, a.ContractID, a.ClientName, a.Message, a.Priority, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert alert: %w", err)
	}
	return nil
}

// ListAlerts returns alerts, unacknowledged first, then by key.
func (s *Store) ListAlerts(ctx context.Context, includeAcknowledged bool) ([]AlertRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT key, type, contract_id, client_name, message, priority, acknowledged, created_at, updated_at
		FROM alerts`
	if !includeAcknowledged {
		query += " WHERE acknowledged = FALSE"
	}
	query += " ORDER BY acknowledged, key"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []AlertRecord
	for rows.Next() {
		var (
			rec       AlertRecord
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&rec.Key, &rec.Type, &rec.ContractID, &rec.ClientName,
			&rec.Message, &rec.Priority, &rec.Acknowledged, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		alerts = append(alerts, rec)
	}
	return alerts, rows.Err()
}

// AcknowledgeAlert marks an alert as handled.
func (s *Store) AcknowledgeAlert(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE alerts SET acknowledged = TRUE, updated_at = ? WHERE key = ?",
		time.Now().UTC().Format(time.RFC3339), key,
	)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	return requireRow(res, rfa.ErrAlertNotFound)
}

// =============================================================================
// TURNOVER ENTRIES
// =============================================================================

// RecordTurnover records (or revises) the turnover realized by a contract
// over a period. The scheduler reads these to build the current-month
// calculation.
func (s *Store) RecordTurnover(ctx context.Context, contractID rfa.ContractID, period rfa.Period, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO turnover_entries (contract_id, period_start, period_end, amount, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(contract_id, period_start, period_end) DO UPDATE SET
			amount = excluded.amount,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		contractID,
		period.Start.Format(time.RFC3339), period.End.Format(time.RFC3339),
		amount.String(), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record turnover: %w", err)
	}
	return nil
}

// GetTurnover returns the recorded turnover for a contract and period, or
// false if none was recorded.
func (s *Store) GetTurnover(ctx context.Context, contractID rfa.ContractID, period rfa.Period) (decimal.Decimal, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var amount string
	err := s.db.QueryRowContext(ctx,
		"SELECT amount FROM turnover_entries WHERE contract_id = ? AND period_start = ? AND period_end = ?",
		contractID, period.Start.Format(time.RFC3339), period.End.Format(time.RFC3339),
	).Scan(&amount)
	if err == sql.ErrNoRows {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("corrupt turnover entry for %s: %w", contractID, err)
	}
	return d, true, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"rfa_calculations", "alerts", "turnover_entries", "contracts"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
