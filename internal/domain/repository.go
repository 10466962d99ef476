package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence.
// All methods require tenantID for strict multi-tenancy isolation.
type Repository interface {
	// Transaction operations
	SaveTransaction(ctx context.Context, tenantID string, tx *TransactionRecord) error
	GetTransaction(ctx context.Context, tenantID string, txID string) (*TransactionRecord, error)
	ListTransactionsByAccount(ctx context.Context, tenantID string, accountID string, since time.Time) ([]*TransactionRecord, error)
	CountTransactionsByAccount(ctx context.Context, tenantID string, accountID string, since time.Time) (int64, error)
	LastTransactionTime(ctx context.Context, tenantID string, accountID string, before time.Time) (time.Time, error)
	UpdateTransactionScore(ctx context.Context, tenantID string, txID string, score float64, flagged bool) error

	// Account operations
	SaveAccount(ctx context.Context, tenantID string, acct *Account) error
	GetAccount(ctx context.Context, tenantID string, accountID string) (*Account, error)

	// Assessment results
	SaveAssessment(ctx context.Context, tenantID string, a *Assessment) error
	GetAssessment(ctx context.Context, tenantID string, assessmentID string) (*Assessment, error)

	// Fraud alerts
	SaveAlert(ctx context.Context, tenantID string, alert *FraudAlert) error
	GetAlert(ctx context.Context, tenantID string, alertID string) (*FraudAlert, error)
	ListAlerts(ctx context.Context, tenantID string, includeResolved bool) ([]*FraudAlert, error)
	ResolveAlert(ctx context.Context, tenantID string, alertID string, resolvedBy string) error

	// Indicator rule configuration
	SaveIndicatorRule(ctx context.Context, tenantID string, rule *IndicatorRule) error
	ListIndicatorRules(ctx context.Context, tenantID string) ([]*IndicatorRule, error)

	// Location / IP reputation
	GetReputation(ctx context.Context, tenantID string, kind string, key string) (float64, error)
	SaveReputation(ctx context.Context, tenantID string, kind string, key string, risk float64) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// Reputation kinds.
const (
	ReputationLocation = "location"
	ReputationIP       = "ip"
)

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
