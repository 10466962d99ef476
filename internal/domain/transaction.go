package domain

import (
	"time"
)

// TransactionKind classifies a transaction.
type TransactionKind string

const (
	KindDeposit      TransactionKind = "deposit"
	KindWithdrawal   TransactionKind = "withdrawal"
	KindTransfer     TransactionKind = "transfer"
	KindSubscription TransactionKind = "subscription"
	KindOther        TransactionKind = "other"
)

// ValidKind reports whether k is one of the supported transaction kinds.
func ValidKind(k TransactionKind) bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindTransfer, KindSubscription, KindOther:
		return true
	}
	return false
}

// TransactionRecord is a financial transaction submitted for risk scoring.
// Amount is signed: negative values are debits, positive values credits.
type TransactionRecord struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`

	AccountID          string `json:"accountId"`
	RecipientAccountID string `json:"recipientAccountId,omitempty"`

	Kind        TransactionKind `json:"kind"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description,omitempty"`

	// Origin attributes used for reputation lookups
	Location  string `json:"location,omitempty"`
	IPAddress string `json:"ipAddress,omitempty"`

	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`

	// Scoring outcome, populated after assessment
	FraudScore float64 `json:"fraudScore"`
	Flagged    bool    `json:"flagged"`
}

// Account holds the minimal account attributes the risk engine needs.
// Full account management lives in the banking layer.
type Account struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	CreatedAt time.Time `json:"createdAt"`
}

// AgeDays returns the account age in days at the given instant.
func (a *Account) AgeDays(at time.Time) float64 {
	return at.Sub(a.CreatedAt).Hours() / 24
}

// FraudAlert is raised when an assessment crosses the alert threshold.
type FraudAlert struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenantId"`
	TxID        string     `json:"txId"`
	AlertType   string     `json:"alertType"`
	Severity    Severity   `json:"severity"`
	Description string     `json:"description"`
	Resolved    bool       `json:"resolved"`
	CreatedAt   time.Time  `json:"createdAt"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
	ResolvedBy  string     `json:"resolvedBy,omitempty"`
}
