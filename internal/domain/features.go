// Package domain defines the core types and interfaces for the secureBank
// risk engine.
package domain

import "context"

// Amount category buckets. Boundaries are half-open: small < 50,
// medium [50, 500), large >= 500, over the absolute amount.
const (
	CategorySmall  = "small"
	CategoryMedium = "medium"
	CategoryLarge  = "large"
)

// FeatureNames is the fixed feature schema, in order. The fitted scaler
// and encoder are bound to this exact order; drift between training and
// scoring is an artifact error.
func FeatureNames() []string {
	return []string{
		"amount",
		"hour_of_day",
		"day_of_week",
		"is_weekend",
		"amount_category",
		"transaction_frequency",
		"location_risk",
		"ip_risk",
		"time_since_last_transaction",
		"account_age_days",
	}
}

// NumFeatures is the width of the feature schema.
const NumFeatures = 10

// FeatureVector is a transaction expressed in the fixed feature schema.
// All fields are numeric except AmountCategory, which is encoded to an
// integer code by the fitted label encoder before model input.
type FeatureVector struct {
	Amount         float64 `json:"amount"`
	HourOfDay      int     `json:"hourOfDay"`
	DayOfWeek      int     `json:"dayOfWeek"` // Monday = 0 .. Sunday = 6
	IsWeekend      int     `json:"isWeekend"`
	AmountCategory string  `json:"amountCategory"`

	TransactionFrequency float64 `json:"transactionFrequency"`
	LocationRisk         float64 `json:"locationRisk"`
	IPRisk               float64 `json:"ipRisk"`
	TimeSinceLast        float64 `json:"timeSinceLastTransaction"` // hours
	AccountAgeDays       float64 `json:"accountAgeDays"`
}

// Raw returns the vector in schema order with the categorical feature
// replaced by the supplied integer code.
func (f *FeatureVector) Raw(categoryCode int) []float64 {
	return []float64{
		f.Amount,
		float64(f.HourOfDay),
		float64(f.DayOfWeek),
		float64(f.IsWeekend),
		float64(categoryCode),
		f.TransactionFrequency,
		f.LocationRisk,
		f.IPRisk,
		f.TimeSinceLast,
		f.AccountAgeDays,
	}
}

// AmountBucket maps an absolute amount to its category.
func AmountBucket(amount float64) string {
	switch {
	case amount < 50:
		return CategorySmall
	case amount < 500:
		return CategoryMedium
	default:
		return CategoryLarge
	}
}

// TransactionContext carries the historical signals that cannot be
// derived from the transaction record alone.
type TransactionContext struct {
	// Frequency is the number of transactions on the account in the
	// trailing 24 hours.
	Frequency float64

	// LocationRisk and IPRisk are reputation scores in [0, 1].
	LocationRisk float64
	IPRisk       float64

	// TimeSinceLast is hours since the account's previous transaction.
	TimeSinceLast float64

	// AccountAgeDays is the account age at the transaction instant.
	AccountAgeDays float64
}

// ContextSource supplies TransactionContext for a transaction. The
// production implementation reads account history and reputation data;
// a sampled implementation stands in when no history is available.
type ContextSource interface {
	Context(ctx context.Context, tenantID string, tx *TransactionRecord) (TransactionContext, error)
}
