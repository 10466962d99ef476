// Package worker provides async transaction scoring for the Pro tier.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/asrieldev/secureBank/internal/bus"
	"github.com/asrieldev/secureBank/internal/decision"
	"github.com/asrieldev/secureBank/internal/domain"
	"github.com/asrieldev/secureBank/internal/scoring"
)

// Worker scores transactions asynchronously from the EventBus.
type Worker struct {
	bus       domain.EventBus
	repo      domain.Repository
	engine    *scoring.Engine
	processor *decision.Processor

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// TenantIDs is the list of tenants to process (empty = all via wildcard if supported)
	TenantIDs []string

	// WorkerCount is the number of concurrent workers per tenant
	WorkerCount int
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, repo domain.Repository, engine *scoring.Engine, processor *decision.Processor) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:       bus,
		repo:      repo,
		engine:    engine,
		processor: processor,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins processing messages for the given tenants.
func (w *Worker) Start(cfg Config) error {
	if len(cfg.TenantIDs) == 0 {
		return w.startGlobalWorker()
	}

	for _, tenantID := range cfg.TenantIDs {
		if err := w.startTenantWorker(tenantID); err != nil {
			slog.Error("failed to start worker for tenant",
				"tenant_id", tenantID,
				"error", err,
			)
			continue
		}
	}

	slog.Info("workers started",
		"tenant_count", len(cfg.TenantIDs),
	)

	return nil
}

// startGlobalWorker starts a worker that processes all tenants (for testing/dev).
func (w *Worker) startGlobalWorker() error {
	// Subscribe using a special "global" tenant ID
	// In production, you'd want to subscribe with wildcards or JetStream
	sub, err := w.bus.Subscribe(w.ctx, "_global", domain.TopicTransactionIngested, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("global worker started")
	return nil
}

// startTenantWorker starts workers for a specific tenant.
func (w *Worker) startTenantWorker(tenantID string) error {
	sub, err := w.bus.Subscribe(w.ctx, tenantID, domain.TopicTransactionIngested, func(ctx context.Context, msg *domain.Message) error {
		return w.processTransaction(ctx, tenantID, msg)
	})
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("tenant worker started",
		"tenant_id", tenantID,
		"topic", domain.TopicTransactionIngested,
	)

	return nil
}

// handleMessage handles messages from global subscription.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	return w.processTransaction(ctx, msg.TenantID, msg)
}

// processTransaction runs a transaction through the scoring pipeline.
func (w *Worker) processTransaction(ctx context.Context, tenantID string, msg *domain.Message) error {
	start := time.Now()

	txMsg, err := bus.DecodeTransactionQueued(msg)
	if err != nil {
		slog.Error("failed to parse transaction message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	tx := &txMsg.Transaction
	if tx.TenantID != "" {
		tenantID = tx.TenantID
	} else {
		tx.TenantID = tenantID
	}

	traceID := txMsg.TraceID
	if traceID == "" {
		traceID = msg.ID
	}

	slog.Debug("scoring transaction",
		"tx_id", tx.ID,
		"tenant_id", tenantID,
		"trace_id", traceID,
	)

	// 1. Extract features once, shared by scorer and indicators
	extractStart := time.Now()
	fv, extractErr := w.engine.Extract(ctx, tx)
	extractMs := time.Since(extractStart).Milliseconds()

	var score float64
	var indicators []domain.Indicator
	var scoreMs int64

	if extractErr != nil {
		slog.Warn("feature extraction failed, using neutral score",
			"tx_id", tx.ID,
			"error", extractErr,
		)
		score = 0.5
		indicators = []domain.Indicator{}
	} else {
		scoreStart := time.Now()
		score = w.engine.ScoreFeatures(&fv, tx.ID)
		scoreMs = time.Since(scoreStart).Milliseconds()
		indicators = w.engine.IndicatorsFor(&fv)
	}

	// 2. Decide
	assessment := w.processor.Process(&decision.Input{
		TenantID:     tenantID,
		TxID:         tx.ID,
		TraceID:      traceID,
		Score:        score,
		Indicators:   indicators,
		ModelVersion: w.engine.ModelVersion(),
		ExtractMs:    extractMs,
		ScoreMs:      scoreMs,
		StartTime:    start,
	})

	// 3. Persist transaction, score, and assessment
	if w.repo != nil {
		tx.FraudScore = assessment.Score
		tx.Flagged = assessment.Flagged
		if err := w.repo.SaveTransaction(ctx, tenantID, tx); err != nil {
			slog.Error("failed to save transaction",
				"tx_id", tx.ID,
				"error", err,
			)
		}
		if err := w.repo.SaveAssessment(ctx, tenantID, assessment); err != nil {
			slog.Error("failed to save assessment",
				"tx_id", tx.ID,
				"error", err,
			)
		}
	}

	// 4. Publish scored result
	if err := bus.PublishAssessment(ctx, w.bus, tenantID, assessment); err != nil {
		slog.Error("failed to publish scored transaction",
			"tx_id", tx.ID,
			"error", err,
		)
	}

	// 5. Raise alert for flagged transactions
	if decision.ShouldAlert(assessment) {
		alert := decision.BuildAlert(assessment)
		if w.repo != nil {
			if err := w.repo.SaveAlert(ctx, tenantID, alert); err != nil {
				slog.Error("failed to save alert",
					"tx_id", tx.ID,
					"error", err,
				)
			}
		}
		if err := bus.PublishAlert(ctx, w.bus, tenantID, alert); err != nil {
			slog.Error("failed to publish alert",
				"tx_id", tx.ID,
				"error", err,
			)
		}
	}

	slog.Info("transaction scored",
		"tx_id", tx.ID,
		"tenant_id", tenantID,
		"score", assessment.Score,
		"flagged", assessment.Flagged,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops all workers.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("workers stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
