// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/asrieldev/secureBank/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveTransaction stores a transaction with tenant isolation.
func (r *SQLRepository) SaveTransaction(ctx context.Context, tenantID string, tx *domain.TransactionRecord) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	flagged := 0
	if tx.Flagged {
		flagged = 1
	}

	query := `
		INSERT INTO transactions (
			id, tenant_id, account_id, recipient_account_id, kind,
			amount, description, location, ip_address,
			timestamp, created_at, fraud_score, flagged
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		tx.ID, tenantID, tx.AccountID, tx.RecipientAccountID, tx.Kind,
		tx.Amount, tx.Description, tx.Location, tx.IPAddress,
		tx.Timestamp, tx.CreatedAt, tx.FraudScore, flagged,
	)
	return err
}

// GetTransaction retrieves a transaction by ID with tenant isolation.
func (r *SQLRepository) GetTransaction(ctx context.Context, tenantID string, txID string) (*domain.TransactionRecord, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, account_id, recipient_account_id, kind,
			   amount, description, location, ip_address,
			   timestamp, created_at, fraud_score, flagged
		FROM transactions
		WHERE tenant_id = ? AND id = ?
	`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, r.rebind(query), tenantID, txID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return tx, err
}

// ListTransactionsByAccount retrieves an account's transactions since a
// cutoff, newest first.
func (r *SQLRepository) ListTransactionsByAccount(ctx context.Context, tenantID string, accountID string, since time.Time) ([]*domain.TransactionRecord, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, account_id, recipient_account_id, kind,
			   amount, description, location, ip_address,
			   timestamp, created_at, fraud_score, flagged
		FROM transactions
		WHERE tenant_id = ? AND account_id = ? AND timestamp >= ?
		ORDER BY timestamp DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID, accountID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*domain.TransactionRecord
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}

	return transactions, rows.Err()
}

// CountTransactionsByAccount counts an account's transactions since a
// cutoff. Backs the transaction frequency feature.
func (r *SQLRepository) CountTransactionsByAccount(ctx context.Context, tenantID string, accountID string, since time.Time) (int64, error) {
	if tenantID == "" {
		return 0, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT COUNT(*) FROM transactions
		WHERE tenant_id = ? AND account_id = ? AND timestamp >= ?
	`

	var count int64
	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, accountID, since).Scan(&count)
	return count, err
}

// LastTransactionTime returns the timestamp of the account's most
// recent transaction strictly before the given instant. ErrNotFound
// means the account has no earlier transactions.
func (r *SQLRepository) LastTransactionTime(ctx context.Context, tenantID string, accountID string, before time.Time) (time.Time, error) {
	if tenantID == "" {
		return time.Time{}, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT timestamp FROM transactions
		WHERE tenant_id = ? AND account_id = ? AND timestamp < ?
		ORDER BY timestamp DESC
		LIMIT 1
	`

	var ts time.Time
	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, accountID, before).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	return ts, err
}

// UpdateTransactionScore records the scoring outcome on a transaction.
func (r *SQLRepository) UpdateTransactionScore(ctx context.Context, tenantID string, txID string, score float64, flagged bool) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	flaggedInt := 0
	if flagged {
		flaggedInt = 1
	}

	query := `
		UPDATE transactions
		SET fraud_score = ?, flagged = ?
		WHERE tenant_id = ? AND id = ?
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query), score, flaggedInt, tenantID, txID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// SaveAccount stores an account with tenant isolation.
func (r *SQLRepository) SaveAccount(ctx context.Context, tenantID string, acct *domain.Account) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO accounts (id, tenant_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id, tenant_id) DO UPDATE SET
			created_at = excluded.created_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query), acct.ID, tenantID, acct.CreatedAt)
	return err
}

// GetAccount retrieves an account by ID with tenant isolation.
func (r *SQLRepository) GetAccount(ctx context.Context, tenantID string, accountID string) (*domain.Account, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, created_at FROM accounts
		WHERE tenant_id = ? AND id = ?
	`

	var acct domain.Account
	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, accountID).Scan(
		&acct.ID, &acct.TenantID, &acct.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &acct, nil
}

// SaveAssessment stores an assessment result with tenant isolation.
func (r *SQLRepository) SaveAssessment(ctx context.Context, tenantID string, a *domain.Assessment) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	indicators, _ := json.Marshal(a.Indicators)
	metadata, _ := json.Marshal(a.Metadata)

	flagged := 0
	if a.Flagged {
		flagged = 1
	}

	query := `
		INSERT INTO assessments (
			id, tenant_id, tx_id, score, flagged, timestamp, indicators, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		a.ID, tenantID, a.TxID, a.Score, flagged, a.Timestamp,
		string(indicators), string(metadata),
	)
	return err
}

// GetAssessment retrieves an assessment by ID with tenant isolation.
func (r *SQLRepository) GetAssessment(ctx context.Context, tenantID string, assessmentID string) (*domain.Assessment, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, tx_id, score, flagged, timestamp, indicators, metadata
		FROM assessments
		WHERE tenant_id = ? AND id = ?
	`

	var a domain.Assessment
	var flagged int
	var indicators, metadata string

	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, assessmentID).Scan(
		&a.ID, &a.TenantID, &a.TxID, &a.Score, &flagged, &a.Timestamp,
		&indicators, &metadata,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	a.Flagged = flagged == 1
	if indicators != "" {
		json.Unmarshal([]byte(indicators), &a.Indicators)
	}
	json.Unmarshal([]byte(metadata), &a.Metadata)

	return &a, nil
}

// SaveAlert stores a fraud alert with tenant isolation.
func (r *SQLRepository) SaveAlert(ctx context.Context, tenantID string, alert *domain.FraudAlert) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	resolved := 0
	if alert.Resolved {
		resolved = 1
	}

	query := `
		INSERT INTO fraud_alerts (
			id, tenant_id, tx_id, alert_type, severity, description,
			resolved, created_at, resolved_at, resolved_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		alert.ID, tenantID, alert.TxID, alert.AlertType, alert.Severity,
		alert.Description, resolved, alert.CreatedAt, alert.ResolvedAt, alert.ResolvedBy,
	)
	return err
}

// GetAlert retrieves a fraud alert by ID with tenant isolation.
func (r *SQLRepository) GetAlert(ctx context.Context, tenantID string, alertID string) (*domain.FraudAlert, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, tx_id, alert_type, severity, description,
			   resolved, created_at, resolved_at, resolved_by
		FROM fraud_alerts
		WHERE tenant_id = ? AND id = ?
	`

	alert, err := scanAlert(r.db.QueryRowContext(ctx, r.rebind(query), tenantID, alertID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return alert, err
}

// ListAlerts retrieves a tenant's alerts, newest first. Resolved alerts
// are excluded unless includeResolved is set.
func (r *SQLRepository) ListAlerts(ctx context.Context, tenantID string, includeResolved bool) ([]*domain.FraudAlert, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, tx_id, alert_type, severity, description,
			   resolved, created_at, resolved_at, resolved_by
		FROM fraud_alerts
		WHERE tenant_id = ?
	`
	if !includeResolved {
		query += ` AND resolved = 0`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*domain.FraudAlert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}

// ResolveAlert marks an alert as resolved. Resolving an already
// resolved alert is a no-op that still succeeds.
func (r *SQLRepository) ResolveAlert(ctx context.Context, tenantID string, alertID string, resolvedBy string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		UPDATE fraud_alerts
		SET resolved = 1, resolved_at = ?, resolved_by = ?
		WHERE tenant_id = ? AND id = ?
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query), time.Now().UTC(), resolvedBy, tenantID, alertID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// SaveIndicatorRule stores an indicator rule with tenant isolation.
func (r *SQLRepository) SaveIndicatorRule(ctx context.Context, tenantID string, rule *domain.IndicatorRule) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	enabled := 0
	if rule.Enabled {
		enabled = 1
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO indicator_rules (
			id, tenant_id, type, severity, expression, description,
			value_field, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, tenant_id) DO UPDATE SET
			type = excluded.type,
			severity = excluded.severity,
			expression = excluded.expression,
			description = excluded.description,
			value_field = excluded.value_field,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, tenantID, rule.Type, rule.Severity, rule.Expression,
		rule.Description, rule.ValueField, enabled, now, now,
	)
	return err
}

// ListIndicatorRules retrieves all enabled indicator rules for a tenant.
func (r *SQLRepository) ListIndicatorRules(ctx context.Context, tenantID string) ([]*domain.IndicatorRule, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, tenant_id, type, severity, expression, description, value_field, enabled
		FROM indicator_rules
		WHERE tenant_id = ? AND enabled = 1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.IndicatorRule
	for rows.Next() {
		var rule domain.IndicatorRule
		var enabled int

		if err := rows.Scan(
			&rule.ID, &rule.TenantID, &rule.Type, &rule.Severity,
			&rule.Expression, &rule.Description, &rule.ValueField, &enabled,
		); err != nil {
			return nil, err
		}

		rule.Enabled = enabled == 1
		rules = append(rules, &rule)
	}

	return rules, rows.Err()
}

// GetReputation retrieves a location or IP risk score.
func (r *SQLRepository) GetReputation(ctx context.Context, tenantID string, kind string, key string) (float64, error) {
	if tenantID == "" {
		return 0, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT risk FROM reputation
		WHERE tenant_id = ? AND kind = ? AND ref_key = ?
	`

	var risk float64
	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, kind, key).Scan(&risk)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return risk, err
}

// SaveReputation upserts a location or IP risk score.
func (r *SQLRepository) SaveReputation(ctx context.Context, tenantID string, kind string, key string, risk float64) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO reputation (tenant_id, kind, ref_key, risk, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, kind, ref_key) DO UPDATE SET
			risk = excluded.risk,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query), tenantID, kind, key, risk, time.Now().UTC())
	return err
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// scanner abstracts sql.Row and sql.Rows for the shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (*domain.TransactionRecord, error) {
	var tx domain.TransactionRecord
	var flagged int

	if err := s.Scan(
		&tx.ID, &tx.TenantID, &tx.AccountID, &tx.RecipientAccountID, &tx.Kind,
		&tx.Amount, &tx.Description, &tx.Location, &tx.IPAddress,
		&tx.Timestamp, &tx.CreatedAt, &tx.FraudScore, &flagged,
	); err != nil {
		return nil, err
	}

	tx.Flagged = flagged == 1
	return &tx, nil
}

func scanAlert(s scanner) (*domain.FraudAlert, error) {
	var alert domain.FraudAlert
	var resolved int
	var resolvedAt sql.NullTime
	var resolvedBy sql.NullString

	if err := s.Scan(
		&alert.ID, &alert.TenantID, &alert.TxID, &alert.AlertType,
		&alert.Severity, &alert.Description, &resolved, &alert.CreatedAt,
		&resolvedAt, &resolvedBy,
	); err != nil {
		return nil, err
	}

	alert.Resolved = resolved == 1
	if resolvedAt.Valid {
		t := resolvedAt.Time
		alert.ResolvedAt = &t
	}
	if resolvedBy.Valid {
		alert.ResolvedBy = resolvedBy.String
	}

	return &alert, nil
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
