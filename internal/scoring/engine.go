// Package scoring combines the trained classifier and anomaly detector
// into a single fraud score per transaction.
package scoring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/asrieldev/secureBank/internal/dataset"
	"github.com/asrieldev/secureBank/internal/domain"
	"github.com/asrieldev/secureBank/internal/features"
	"github.com/asrieldev/secureBank/internal/indicators"
	"github.com/asrieldev/secureBank/internal/model"
)

// neutralScore is returned whenever scoring cannot complete. The caller
// never sees an error from PredictFraud; a broken model must not block
// transaction processing.
const neutralScore = 0.5

// Engine scores transactions against the current model bundle.
type Engine struct {
	store     *model.Store
	extractor *features.Extractor
	rules     *indicators.Engine
}

// NewEngine wires the scoring pipeline together.
func NewEngine(store *model.Store, extractor *features.Extractor, rules *indicators.Engine) *Engine {
	return &Engine{store: store, extractor: extractor, rules: rules}
}

// PredictFraud returns the combined fraud score for a transaction in
// [0, 1]. Any failure along the pipeline (no model loaded, extraction
// failure, category unseen at training time) degrades to the neutral
// score 0.5 rather than an error.
func (e *Engine) PredictFraud(ctx context.Context, tx *domain.TransactionRecord) float64 {
	fv, err := e.extractor.Extract(ctx, tx)
	if err != nil {
		slog.Warn("feature extraction failed, returning neutral score", "tx_id", txID(tx), "error", err)
		return neutralScore
	}
	return e.scoreVector(&fv, txID(tx))
}

// ScoreFeatures scores an already-extracted feature vector. Used by
// callers that need both the score and the indicators from one
// extraction pass.
func (e *Engine) ScoreFeatures(fv *domain.FeatureVector, txID string) float64 {
	return e.scoreVector(fv, txID)
}

func (e *Engine) scoreVector(fv *domain.FeatureVector, txID string) float64 {
	bundle, err := e.store.Bundle()
	if err != nil {
		slog.Warn("no model available, returning neutral score", "tx_id", txID, "error", err)
		return neutralScore
	}

	code, err := bundle.Encoder.Encode(fv.AmountCategory)
	if err != nil {
		slog.Warn("category encoding failed, returning neutral score", "tx_id", txID, "category", fv.AmountCategory, "error", err)
		return neutralScore
	}

	scaled, err := bundle.Scaler.Transform(fv.Raw(code))
	if err != nil {
		slog.Warn("feature scaling failed, returning neutral score", "tx_id", txID, "error", err)
		return neutralScore
	}

	p := bundle.Classifier.ScoreProbability(scaled)
	normality := bundle.Detector.ScoreNormality(scaled)

	return Combine(p, normality)
}

// Combine averages the classifier's fraud probability with the
// inverted normality score. Both inputs are in [0, 1], so the result
// is too.
func Combine(fraudProbability, normality float64) float64 {
	return (fraudProbability + (1 - normality)) / 2
}

// FraudIndicators returns the threshold indicators for a transaction.
// The list is empty, never nil-with-error, when extraction fails or no
// rule matches; indicators are advisory and independent of the score.
func (e *Engine) FraudIndicators(ctx context.Context, tx *domain.TransactionRecord) []domain.Indicator {
	fv, err := e.extractor.Extract(ctx, tx)
	if err != nil {
		slog.Warn("feature extraction failed, no indicators produced", "tx_id", txID(tx), "error", err)
		return []domain.Indicator{}
	}
	return e.IndicatorsFor(&fv)
}

// IndicatorsFor evaluates the threshold rules against an extracted
// feature vector.
func (e *Engine) IndicatorsFor(fv *domain.FeatureVector) []domain.Indicator {
	out := e.rules.Evaluate(fv)
	if out == nil {
		return []domain.Indicator{}
	}
	return out
}

// Extract exposes feature extraction so callers can reuse one vector
// for both scoring and indicators.
func (e *Engine) Extract(ctx context.Context, tx *domain.TransactionRecord) (domain.FeatureVector, error) {
	return e.extractor.Extract(ctx, tx)
}

// Retrain rebuilds the model from freshly synthesized data and swaps
// it in. Unlike PredictFraud this surfaces errors: a failed retrain
// leaves the previous bundle serving and the operator must know.
func (e *Engine) Retrain(ctx context.Context, newData []dataset.Sample) error {
	if err := e.store.Retrain(ctx, newData); err != nil {
		return fmt.Errorf("retrain failed: %w", err)
	}
	return nil
}

// Metrics returns the evaluation metrics from the most recent training
// run, or nil when the bundle was loaded from disk without retraining.
func (e *Engine) Metrics() *model.Metrics {
	return e.store.Metrics()
}

// ModelVersion reports the manifest version of the serving bundle, or
// empty when no bundle is loaded.
func (e *Engine) ModelVersion() string {
	bundle, err := e.store.Bundle()
	if err != nil {
		return ""
	}
	return bundle.Manifest.Version
}

func txID(tx *domain.TransactionRecord) string {
	if tx == nil {
		return ""
	}
	return tx.ID
}
