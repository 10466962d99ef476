// Package features maps transaction records into the fixed numeric
// feature schema consumed by the risk models.
package features

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/asrieldev/secureBank/internal/domain"
)

// Extractor builds feature vectors. The first five fields are pure
// functions of the transaction; the contextual signals come from the
// injected ContextSource (account history and reputation data in
// production, sampled values as a bootstrap fallback).
type Extractor struct {
	source domain.ContextSource
}

// NewExtractor creates an extractor over the given context source.
func NewExtractor(source domain.ContextSource) *Extractor {
	return &Extractor{source: source}
}

// Extract produces the feature vector for a transaction.
func (e *Extractor) Extract(ctx context.Context, tx *domain.TransactionRecord) (domain.FeatureVector, error) {
	if tx == nil {
		return domain.FeatureVector{}, fmt.Errorf("transaction is required")
	}
	if math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) {
		return domain.FeatureVector{}, fmt.Errorf("transaction amount must be finite")
	}

	amount := math.Abs(tx.Amount)
	dayOfWeek := mondayIndex(tx.Timestamp.Weekday())
	isWeekend := 0
	if dayOfWeek >= 5 {
		isWeekend = 1
	}

	fv := domain.FeatureVector{
		Amount:         amount,
		HourOfDay:      tx.Timestamp.Hour(),
		DayOfWeek:      dayOfWeek,
		IsWeekend:      isWeekend,
		AmountCategory: domain.AmountBucket(amount),
	}

	txCtx, err := e.source.Context(ctx, tx.TenantID, tx)
	if err != nil {
		return domain.FeatureVector{}, fmt.Errorf("failed to resolve transaction context: %w", err)
	}
	fv.TransactionFrequency = txCtx.Frequency
	fv.LocationRisk = txCtx.LocationRisk
	fv.IPRisk = txCtx.IPRisk
	fv.TimeSinceLast = txCtx.TimeSinceLast
	fv.AccountAgeDays = txCtx.AccountAgeDays

	return fv, nil
}

// mondayIndex converts Go's Sunday-based weekday to the Monday=0
// convention the feature schema uses.
func mondayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}
