// Package decision turns a fraud score into the final assessment:
// flagged or not, plus the fraud alert raised for flagged transactions.
package decision

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/asrieldev/secureBank/internal/domain"
	"github.com/asrieldev/secureBank/internal/model"
)

// alertType is fixed for score-driven alerts.
const alertType = "High Fraud Score"

// Processor applies the flagging threshold and builds assessments.
type Processor struct {
	// AlertThreshold is the score above which a transaction is
	// flagged. The comparison is strict: a score exactly at the
	// threshold does not flag.
	AlertThreshold float64
}

// NewProcessor creates a processor with the default 0.7 threshold.
func NewProcessor() *Processor {
	return &Processor{AlertThreshold: 0.7}
}

// Input carries everything needed to build an assessment.
type Input struct {
	TenantID   string
	TxID       string
	TraceID    string
	Score      float64
	Indicators []domain.Indicator

	ModelVersion string
	ExtractMs    int64
	ScoreMs      int64
	StartTime    time.Time
}

// Process builds the assessment for a scored transaction.
func (p *Processor) Process(input *Input) *domain.Assessment {
	a := &domain.Assessment{
		ID:         uuid.New().String(),
		TenantID:   input.TenantID,
		TxID:       input.TxID,
		Score:      input.Score,
		Flagged:    input.Score > p.AlertThreshold,
		Indicators: input.Indicators,
		Timestamp:  time.Now().UTC(),
	}

	totalMs := int64(0)
	if !input.StartTime.IsZero() {
		totalMs = time.Since(input.StartTime).Milliseconds()
	}

	a.Metadata = domain.AssessmentMetadata{
		TraceID:       input.TraceID,
		ExtractMs:     input.ExtractMs,
		ScoreMs:       input.ScoreMs,
		TotalMs:       totalMs,
		ModelVersion:  input.ModelVersion,
		EngineVersion: model.EngineVersion,
	}

	return a
}

// ShouldAlert reports whether the assessment warrants a fraud alert.
func ShouldAlert(a *domain.Assessment) bool {
	return a.Flagged
}

// BuildAlert constructs the fraud alert for a flagged assessment.
func BuildAlert(a *domain.Assessment) *domain.FraudAlert {
	return &domain.FraudAlert{
		ID:          uuid.New().String(),
		TenantID:    a.TenantID,
		TxID:        a.TxID,
		AlertType:   alertType,
		Severity:    domain.SeverityHigh,
		Description: fmt.Sprintf("Transaction flagged with fraud score: %.3f", a.Score),
		CreatedAt:   time.Now().UTC(),
	}
}
