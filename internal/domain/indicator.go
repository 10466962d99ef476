package domain

import "time"

// Severity grades an indicator or alert.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Indicator is a human-readable risk signal produced by a threshold
// rule. Indicators are value objects built fresh per call and are
// independent of the combined fraud score.
type Indicator struct {
	Type        string   `json:"type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// IndicatorRule configures a single threshold rule. Expression is a CEL
// expression over the feature schema returning bool; Description is a
// format string applied to the feature named by ValueField so every
// emitted indicator embeds the concrete offending value.
type IndicatorRule struct {
	ID          string   `json:"id"`
	TenantID    string   `json:"tenantId"`
	Type        string   `json:"type"`
	Severity    Severity `json:"severity"`
	Expression  string   `json:"expression"`
	Description string   `json:"description"`
	ValueField  string   `json:"valueField"`
	Enabled     bool     `json:"enabled"`
}

// Assessment is the persisted outcome of scoring one transaction.
type Assessment struct {
	ID         string      `json:"id"`
	TenantID   string      `json:"tenantId"`
	TxID       string      `json:"txId"`
	Score      float64     `json:"score"`
	Flagged    bool        `json:"flagged"`
	Indicators []Indicator `json:"indicators,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`

	Metadata AssessmentMetadata `json:"metadata"`
}

// AssessmentMetadata carries processing diagnostics.
type AssessmentMetadata struct {
	TraceID       string `json:"traceId"`
	ExtractMs     int64  `json:"extractMs"`
	ScoreMs       int64  `json:"scoreMs"`
	TotalMs       int64  `json:"totalMs"`
	ModelVersion  string `json:"modelVersion"`
	EngineVersion string `json:"engineVersion"`
}
