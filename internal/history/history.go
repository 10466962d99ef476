// Package history resolves the contextual feature signals (transaction
// frequency, reputation risk, time since last transaction, account
// age) from persisted account history instead of sampling them fresh
// per scoring call.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/asrieldev/secureBank/internal/domain"
	"github.com/asrieldev/secureBank/internal/repository"
)

// frequencyWindow is the trailing window for the transaction frequency
// signal.
const frequencyWindow = 24 * time.Hour

// reputationTTL bounds how long reputation lookups stay cached.
const reputationTTL = 15 * time.Minute

// Service computes TransactionContext from the repository, with
// reputation lookups going through the cache. Signals that have no
// recorded history fall back to the sampled source so scoring never
// stalls on a cold account.
type Service struct {
	repo     domain.Repository
	cache    domain.Cache
	fallback domain.ContextSource
}

// NewService creates a history-backed context source.
func NewService(repo domain.Repository, cache domain.Cache, fallback domain.ContextSource) *Service {
	return &Service{repo: repo, cache: cache, fallback: fallback}
}

// Context resolves the five contextual signals for a transaction.
func (s *Service) Context(ctx context.Context, tenantID string, tx *domain.TransactionRecord) (domain.TransactionContext, error) {
	if tenantID == "" {
		return domain.TransactionContext{}, fmt.Errorf("tenantID is required")
	}

	sampled, err := s.fallback.Context(ctx, tenantID, tx)
	if err != nil {
		return domain.TransactionContext{}, err
	}
	out := sampled

	if s.repo == nil {
		return out, nil
	}

	at := tx.Timestamp
	if at.IsZero() {
		at = time.Now().UTC()
	}

	if count, err := s.repo.CountTransactionsByAccount(ctx, tenantID, tx.AccountID, at.Add(-frequencyWindow)); err == nil {
		out.Frequency = float64(count)
	} else {
		slog.Debug("frequency lookup failed, using sampled value", "account_id", tx.AccountID, "error", err)
	}

	last, err := s.repo.LastTransactionTime(ctx, tenantID, tx.AccountID, at)
	switch {
	case err == nil:
		out.TimeSinceLast = at.Sub(last).Hours()
	case errors.Is(err, repository.ErrNotFound):
		// First transaction on the account: keep the sampled gap
	default:
		slog.Debug("last transaction lookup failed, using sampled value", "account_id", tx.AccountID, "error", err)
	}

	if acct, err := s.repo.GetAccount(ctx, tenantID, tx.AccountID); err == nil {
		out.AccountAgeDays = acct.AgeDays(at)
	} else if !errors.Is(err, repository.ErrNotFound) {
		slog.Debug("account lookup failed, using sampled value", "account_id", tx.AccountID, "error", err)
	}

	if tx.Location != "" {
		if risk, ok := s.reputation(ctx, tenantID, domain.ReputationLocation, tx.Location); ok {
			out.LocationRisk = risk
		}
	}
	if tx.IPAddress != "" {
		if risk, ok := s.reputation(ctx, tenantID, domain.ReputationIP, tx.IPAddress); ok {
			out.IPRisk = risk
		}
	}

	return out, nil
}

// reputation looks a risk score up in the cache first, then the
// repository, populating the cache on a hit.
func (s *Service) reputation(ctx context.Context, tenantID, kind, key string) (float64, bool) {
	if s.cache != nil {
		if entry, err := s.cache.GetReputation(ctx, tenantID, kind, key); err == nil && entry != nil {
			return entry.Risk, true
		}
	}

	if s.repo == nil {
		return 0, false
	}

	risk, err := s.repo.GetReputation(ctx, tenantID, kind, key)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Debug("reputation lookup failed", "kind", kind, "key", key, "error", err)
		}
		return 0, false
	}

	if s.cache != nil {
		entry := &domain.ReputationEntry{
			Kind:      kind,
			Key:       key,
			Risk:      risk,
			UpdatedAt: strconv.FormatInt(time.Now().Unix(), 10),
		}
		_ = s.cache.SetReputation(ctx, tenantID, entry, reputationTTL)
	}

	return risk, true
}
