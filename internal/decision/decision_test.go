package decision

import (
	"testing"
	"time"

	"github.com/asrieldev/secureBank/internal/domain"
	"github.com/asrieldev/secureBank/internal/model"
)

func TestProcess(t *testing.T) {
	p := NewProcessor()

	t.Run("ThresholdIsStrict", func(t *testing.T) {
		cases := []struct {
			score   float64
			flagged bool
		}{
			{0.0, false},
			{0.5, false},
			{0.7, false}, // exactly at threshold does not flag
			{0.700001, true},
			{0.9, true},
			{1.0, true},
		}
		for _, tc := range cases {
			a := p.Process(&Input{TenantID: "tenant-001", TxID: "tx-001", Score: tc.score})
			if a.Flagged != tc.flagged {
				t.Errorf("score %f: expected flagged=%v, got %v", tc.score, tc.flagged, a.Flagged)
			}
		}
	})

	t.Run("AssessmentFields", func(t *testing.T) {
		inds := []domain.Indicator{
			{Type: "high_amount", Severity: domain.SeverityMedium, Description: "Transaction amount ($1500.00) is unusually high"},
		}
		a := p.Process(&Input{
			TenantID:     "tenant-001",
			TxID:         "tx-001",
			TraceID:      "trace-001",
			Score:        0.85,
			Indicators:   inds,
			ModelVersion: "v1",
			ExtractMs:    3,
			ScoreMs:      1,
			StartTime:    time.Now().Add(-10 * time.Millisecond),
		})

		if a.ID == "" {
			t.Error("expected assessment ID to be generated")
		}
		if a.TxID != "tx-001" || a.TenantID != "tenant-001" {
			t.Errorf("unexpected identifiers: %s / %s", a.TxID, a.TenantID)
		}
		if a.Score != 0.85 || !a.Flagged {
			t.Errorf("expected flagged score 0.85, got %f flagged=%v", a.Score, a.Flagged)
		}
		if len(a.Indicators) != 1 {
			t.Errorf("expected 1 indicator, got %d", len(a.Indicators))
		}
		if a.Metadata.TraceID != "trace-001" {
			t.Errorf("expected traceId trace-001, got %s", a.Metadata.TraceID)
		}
		if a.Metadata.ModelVersion != "v1" {
			t.Errorf("expected model version v1, got %s", a.Metadata.ModelVersion)
		}
		if a.Metadata.EngineVersion != model.EngineVersion {
			t.Errorf("expected engine version %s, got %s", model.EngineVersion, a.Metadata.EngineVersion)
		}
		if a.Metadata.TotalMs < 10 {
			t.Errorf("expected total elapsed of at least 10ms, got %d", a.Metadata.TotalMs)
		}
	})

	t.Run("CustomThreshold", func(t *testing.T) {
		strict := &Processor{AlertThreshold: 0.3}
		if a := strict.Process(&Input{Score: 0.31}); !a.Flagged {
			t.Error("expected 0.31 to flag at threshold 0.3")
		}
		if a := strict.Process(&Input{Score: 0.3}); a.Flagged {
			t.Error("expected 0.3 exactly to not flag at threshold 0.3")
		}
	})
}

func TestAlerts(t *testing.T) {
	p := NewProcessor()

	t.Run("ShouldAlertFollowsFlag", func(t *testing.T) {
		if ShouldAlert(p.Process(&Input{Score: 0.9})) != true {
			t.Error("expected alert for flagged assessment")
		}
		if ShouldAlert(p.Process(&Input{Score: 0.2})) != false {
			t.Error("expected no alert for unflagged assessment")
		}
	})

	t.Run("BuildAlert", func(t *testing.T) {
		a := p.Process(&Input{TenantID: "tenant-001", TxID: "tx-001", Score: 0.912})
		alert := BuildAlert(a)

		if alert.ID == "" {
			t.Error("expected alert ID to be generated")
		}
		if alert.TenantID != "tenant-001" || alert.TxID != "tx-001" {
			t.Errorf("unexpected identifiers: %s / %s", alert.TenantID, alert.TxID)
		}
		if alert.AlertType != "High Fraud Score" {
			t.Errorf("expected alert type 'High Fraud Score', got %q", alert.AlertType)
		}
		if alert.Severity != domain.SeverityHigh {
			t.Errorf("expected high severity, got %s", alert.Severity)
		}
		if alert.Description != "Transaction flagged with fraud score: 0.912" {
			t.Errorf("unexpected description: %q", alert.Description)
		}
		if alert.Resolved {
			t.Error("expected new alert to be unresolved")
		}
	})
}
