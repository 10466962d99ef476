package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/asrieldev/secureBank/internal/domain"
)

// Typed payloads for the scoring pipeline topics. Publishers and the
// async worker share these so the wire shapes cannot drift apart.

// TransactionQueued is the payload carried on transaction.ingested.
type TransactionQueued struct {
	TraceID     string                   `json:"traceId"`
	Transaction domain.TransactionRecord `json:"transaction"`
}

// ModelRetrained is the payload carried on model.retrained.
type ModelRetrained struct {
	ModelVersion string `json:"modelVersion"`
}

// PublishTransactionQueued queues a transaction for async scoring.
func PublishTransactionQueued(ctx context.Context, b domain.EventBus, tenantID string, ev *TransactionQueued) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal queued transaction: %w", err)
	}
	return b.Publish(ctx, tenantID, domain.TopicTransactionIngested, payload)
}

// DecodeTransactionQueued parses a transaction.ingested payload.
func DecodeTransactionQueued(msg *domain.Message) (*TransactionQueued, error) {
	var ev TransactionQueued
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return nil, fmt.Errorf("parse queued transaction: %w", err)
	}
	return &ev, nil
}

// PublishAssessment announces a scored transaction on transaction.scored.
func PublishAssessment(ctx context.Context, b domain.EventBus, tenantID string, a *domain.Assessment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	return b.Publish(ctx, tenantID, domain.TopicTransactionScored, payload)
}

// PublishAlert announces a fraud alert on alert.raised.
func PublishAlert(ctx context.Context, b domain.EventBus, tenantID string, alert *domain.FraudAlert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	return b.Publish(ctx, tenantID, domain.TopicAlertRaised, payload)
}

// PublishModelRetrained announces a model swap on model.retrained.
func PublishModelRetrained(ctx context.Context, b domain.EventBus, tenantID string, version string) error {
	payload, err := json.Marshal(ModelRetrained{ModelVersion: version})
	if err != nil {
		return fmt.Errorf("marshal retrain event: %w", err)
	}
	return b.Publish(ctx, tenantID, domain.TopicModelRetrained, payload)
}
