package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/asrieldev/secureBank/internal/domain"
)

func newTestRepository(t *testing.T) domain.Repository {
	t.Helper()

	repo, err := New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return repo
}

func sampleTransaction(id, tenantID, accountID string, ts time.Time) *domain.TransactionRecord {
	return &domain.TransactionRecord{
		ID:        id,
		TenantID:  tenantID,
		AccountID: accountID,
		Kind:      domain.KindTransfer,
		Amount:    -150.25,
		Location:  "US-NYC",
		IPAddress: "198.51.100.4",
		Timestamp: ts,
		CreatedAt: time.Now().UTC(),
	}
}

func TestTransactionPersistence(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("SaveAndGet", func(t *testing.T) {
		tx := sampleTransaction("tx-001", "tenant-001", "acct-001", now)
		if err := repo.SaveTransaction(ctx, "tenant-001", tx); err != nil {
			t.Fatalf("failed to save transaction: %v", err)
		}

		got, err := repo.GetTransaction(ctx, "tenant-001", "tx-001")
		if err != nil {
			t.Fatalf("failed to get transaction: %v", err)
		}
		if got.AccountID != "acct-001" {
			t.Errorf("expected account acct-001, got %s", got.AccountID)
		}
		if got.Amount != -150.25 {
			t.Errorf("expected amount -150.25, got %f", got.Amount)
		}
		if got.Kind != domain.KindTransfer {
			t.Errorf("expected kind transfer, got %s", got.Kind)
		}
	})

	t.Run("TenantIsolation", func(t *testing.T) {
		_, err := repo.GetTransaction(ctx, "tenant-999", "tx-001")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for other tenant, got %v", err)
		}
	})

	t.Run("MissingTransaction", func(t *testing.T) {
		_, err := repo.GetTransaction(ctx, "tenant-001", "no-such-tx")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("EmptyTenantID", func(t *testing.T) {
		err := repo.SaveTransaction(ctx, "", sampleTransaction("tx-bad", "", "acct-001", now))
		if err == nil {
			t.Error("expected error for empty tenant ID")
		}
	})

	t.Run("UpdateScore", func(t *testing.T) {
		if err := repo.UpdateTransactionScore(ctx, "tenant-001", "tx-001", 0.83, true); err != nil {
			t.Fatalf("failed to update score: %v", err)
		}

		got, err := repo.GetTransaction(ctx, "tenant-001", "tx-001")
		if err != nil {
			t.Fatalf("failed to get transaction: %v", err)
		}
		if got.FraudScore != 0.83 {
			t.Errorf("expected score 0.83, got %f", got.FraudScore)
		}
		if !got.Flagged {
			t.Error("expected transaction to be flagged")
		}
	})

	t.Run("UpdateScoreMissing", func(t *testing.T) {
		err := repo.UpdateTransactionScore(ctx, "tenant-001", "no-such-tx", 0.5, false)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAccountHistory(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	// Three transactions in the last day, one older
	times := []time.Time{
		now.Add(-30 * time.Hour),
		now.Add(-20 * time.Hour),
		now.Add(-5 * time.Hour),
		now.Add(-2 * time.Hour),
	}
	for i, ts := range times {
		tx := sampleTransaction("hist-tx-"+string(rune('a'+i)), "tenant-001", "acct-hist", ts)
		if err := repo.SaveTransaction(ctx, "tenant-001", tx); err != nil {
			t.Fatalf("failed to save transaction %d: %v", i, err)
		}
	}

	t.Run("CountWithinWindow", func(t *testing.T) {
		count, err := repo.CountTransactionsByAccount(ctx, "tenant-001", "acct-hist", now.Add(-24*time.Hour))
		if err != nil {
			t.Fatalf("failed to count transactions: %v", err)
		}
		if count != 3 {
			t.Errorf("expected 3 transactions in window, got %d", count)
		}
	})

	t.Run("ListWithinWindow", func(t *testing.T) {
		txs, err := repo.ListTransactionsByAccount(ctx, "tenant-001", "acct-hist", now.Add(-24*time.Hour))
		if err != nil {
			t.Fatalf("failed to list transactions: %v", err)
		}
		if len(txs) != 3 {
			t.Fatalf("expected 3 transactions, got %d", len(txs))
		}
		// Newest first
		if !txs[0].Timestamp.After(txs[1].Timestamp) {
			t.Error("expected transactions ordered newest first")
		}
	})

	t.Run("LastTransactionTime", func(t *testing.T) {
		last, err := repo.LastTransactionTime(ctx, "tenant-001", "acct-hist", now)
		if err != nil {
			t.Fatalf("failed to get last transaction time: %v", err)
		}
		if !last.Equal(now.Add(-2 * time.Hour)) {
			t.Errorf("expected last transaction at %v, got %v", now.Add(-2*time.Hour), last)
		}
	})

	t.Run("LastTransactionTimeBefore", func(t *testing.T) {
		// Exclusive upper bound skips the newest entry
		last, err := repo.LastTransactionTime(ctx, "tenant-001", "acct-hist", now.Add(-2*time.Hour))
		if err != nil {
			t.Fatalf("failed to get last transaction time: %v", err)
		}
		if !last.Equal(now.Add(-5 * time.Hour)) {
			t.Errorf("expected last transaction at %v, got %v", now.Add(-5*time.Hour), last)
		}
	})

	t.Run("LastTransactionTimeEmpty", func(t *testing.T) {
		_, err := repo.LastTransactionTime(ctx, "tenant-001", "acct-empty", now)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("AccountUpsert", func(t *testing.T) {
		created := now.Add(-90 * 24 * time.Hour)
		acct := &domain.Account{ID: "acct-hist", TenantID: "tenant-001", CreatedAt: created}
		if err := repo.SaveAccount(ctx, "tenant-001", acct); err != nil {
			t.Fatalf("failed to save account: %v", err)
		}
		// Saving again must not fail
		if err := repo.SaveAccount(ctx, "tenant-001", acct); err != nil {
			t.Fatalf("failed to upsert account: %v", err)
		}

		got, err := repo.GetAccount(ctx, "tenant-001", "acct-hist")
		if err != nil {
			t.Fatalf("failed to get account: %v", err)
		}
		if !got.CreatedAt.Equal(created) {
			t.Errorf("expected createdAt %v, got %v", created, got.CreatedAt)
		}
	})
}

func TestAssessmentPersistence(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	a := &domain.Assessment{
		ID:       "assess-001",
		TenantID: "tenant-001",
		TxID:     "tx-001",
		Score:    0.912,
		Flagged:  true,
		Indicators: []domain.Indicator{
			{Type: "high_amount", Severity: domain.SeverityMedium, Description: "Transaction amount ($1500.00) is unusually high"},
		},
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Metadata: domain.AssessmentMetadata{
			TraceID:      "trace-001",
			ModelVersion: "abc123",
		},
	}

	if err := repo.SaveAssessment(ctx, "tenant-001", a); err != nil {
		t.Fatalf("failed to save assessment: %v", err)
	}

	got, err := repo.GetAssessment(ctx, "tenant-001", "assess-001")
	if err != nil {
		t.Fatalf("failed to get assessment: %v", err)
	}
	if got.Score != 0.912 {
		t.Errorf("expected score 0.912, got %f", got.Score)
	}
	if !got.Flagged {
		t.Error("expected assessment to be flagged")
	}
	if len(got.Indicators) != 1 {
		t.Fatalf("expected 1 indicator, got %d", len(got.Indicators))
	}
	if got.Indicators[0].Type != "high_amount" {
		t.Errorf("expected indicator type high_amount, got %s", got.Indicators[0].Type)
	}
	if got.Metadata.TraceID != "trace-001" {
		t.Errorf("expected traceId trace-001, got %s", got.Metadata.TraceID)
	}

	if _, err := repo.GetAssessment(ctx, "tenant-999", "assess-001"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for other tenant, got %v", err)
	}
}

func TestAlertLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	alert := &domain.FraudAlert{
		ID:          "alert-001",
		TenantID:    "tenant-001",
		TxID:        "tx-001",
		AlertType:   "High Fraud Score",
		Severity:    domain.SeverityHigh,
		Description: "Transaction flagged with fraud score: 0.912",
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := repo.SaveAlert(ctx, "tenant-001", alert); err != nil {
		t.Fatalf("failed to save alert: %v", err)
	}

	t.Run("Get", func(t *testing.T) {
		got, err := repo.GetAlert(ctx, "tenant-001", "alert-001")
		if err != nil {
			t.Fatalf("failed to get alert: %v", err)
		}
		if got.Severity != domain.SeverityHigh {
			t.Errorf("expected severity high, got %s", got.Severity)
		}
		if got.Resolved {
			t.Error("expected alert to be unresolved")
		}
	})

	t.Run("ListExcludesResolved", func(t *testing.T) {
		alerts, err := repo.ListAlerts(ctx, "tenant-001", false)
		if err != nil {
			t.Fatalf("failed to list alerts: %v", err)
		}
		if len(alerts) != 1 {
			t.Fatalf("expected 1 alert, got %d", len(alerts))
		}

		if err := repo.ResolveAlert(ctx, "tenant-001", "alert-001", "analyst-7"); err != nil {
			t.Fatalf("failed to resolve alert: %v", err)
		}

		alerts, err = repo.ListAlerts(ctx, "tenant-001", false)
		if err != nil {
			t.Fatalf("failed to list alerts: %v", err)
		}
		if len(alerts) != 0 {
			t.Errorf("expected 0 unresolved alerts, got %d", len(alerts))
		}

		alerts, err = repo.ListAlerts(ctx, "tenant-001", true)
		if err != nil {
			t.Fatalf("failed to list alerts: %v", err)
		}
		if len(alerts) != 1 {
			t.Fatalf("expected 1 alert with resolved included, got %d", len(alerts))
		}
		if alerts[0].ResolvedBy != "analyst-7" {
			t.Errorf("expected resolvedBy analyst-7, got %s", alerts[0].ResolvedBy)
		}
		if alerts[0].ResolvedAt == nil {
			t.Error("expected resolvedAt to be set")
		}
	})

	t.Run("ResolveMissing", func(t *testing.T) {
		err := repo.ResolveAlert(ctx, "tenant-001", "no-such-alert", "analyst-7")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestIndicatorRules(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	rule := &domain.IndicatorRule{
		ID:          "custom.weekend_large",
		TenantID:    "*",
		Type:        "weekend_large",
		Severity:    domain.SeverityMedium,
		Expression:  "is_weekend == 1.0 && amount > 500.0",
		Description: "Large weekend transaction",
		Enabled:     true,
	}
	if err := repo.SaveIndicatorRule(ctx, "*", rule); err != nil {
		t.Fatalf("failed to save rule: %v", err)
	}

	t.Run("ListEnabled", func(t *testing.T) {
		rules, err := repo.ListIndicatorRules(ctx, "*")
		if err != nil {
			t.Fatalf("failed to list rules: %v", err)
		}
		if len(rules) != 1 {
			t.Fatalf("expected 1 rule, got %d", len(rules))
		}
		if rules[0].Expression != rule.Expression {
			t.Errorf("expected expression %q, got %q", rule.Expression, rules[0].Expression)
		}
	})

	t.Run("UpsertDisables", func(t *testing.T) {
		rule.Enabled = false
		if err := repo.SaveIndicatorRule(ctx, "*", rule); err != nil {
			t.Fatalf("failed to upsert rule: %v", err)
		}

		rules, err := repo.ListIndicatorRules(ctx, "*")
		if err != nil {
			t.Fatalf("failed to list rules: %v", err)
		}
		if len(rules) != 0 {
			t.Errorf("expected 0 enabled rules after disabling, got %d", len(rules))
		}
	})
}

func TestReputation(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	t.Run("SaveAndGet", func(t *testing.T) {
		if err := repo.SaveReputation(ctx, "tenant-001", domain.ReputationLocation, "RU-MOW", 0.92); err != nil {
			t.Fatalf("failed to save reputation: %v", err)
		}

		risk, err := repo.GetReputation(ctx, "tenant-001", domain.ReputationLocation, "RU-MOW")
		if err != nil {
			t.Fatalf("failed to get reputation: %v", err)
		}
		if risk != 0.92 {
			t.Errorf("expected risk 0.92, got %f", risk)
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		if err := repo.SaveReputation(ctx, "tenant-001", domain.ReputationLocation, "RU-MOW", 0.4); err != nil {
			t.Fatalf("failed to upsert reputation: %v", err)
		}

		risk, err := repo.GetReputation(ctx, "tenant-001", domain.ReputationLocation, "RU-MOW")
		if err != nil {
			t.Fatalf("failed to get reputation: %v", err)
		}
		if risk != 0.4 {
			t.Errorf("expected risk 0.4 after upsert, got %f", risk)
		}
	})

	t.Run("KindIsolation", func(t *testing.T) {
		_, err := repo.GetReputation(ctx, "tenant-001", domain.ReputationIP, "RU-MOW")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for different kind, got %v", err)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := repo.GetReputation(ctx, "tenant-001", domain.ReputationIP, "203.0.113.7")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestPing(t *testing.T) {
	repo := newTestRepository(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("expected ping to succeed: %v", err)
	}
}
