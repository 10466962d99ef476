package api

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/asrieldev/secureBank/internal/bus"
	"github.com/asrieldev/secureBank/internal/decision"
	"github.com/asrieldev/secureBank/internal/domain"
	"github.com/asrieldev/secureBank/internal/indicators"
	"github.com/asrieldev/secureBank/internal/scoring"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo      domain.Repository
	cache     domain.Cache
	bus       domain.EventBus
	engine    *scoring.Engine
	rules     *indicators.Engine
	processor *decision.Processor
	version   string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, bus domain.EventBus, engine *scoring.Engine, rules *indicators.Engine, processor *decision.Processor, version string) *Handler {
	return &Handler{
		repo:      repo,
		cache:     cache,
		bus:       bus,
		engine:    engine,
		rules:     rules,
		processor: processor,
		version:   version,
	}
}

// TransactionRequest is the request body for POST /score and
// POST /transactions.
type TransactionRequest struct {
	AccountID          string  `json:"accountId"`
	RecipientAccountID string  `json:"recipientAccountId,omitempty"`
	Kind               string  `json:"kind"`
	Amount             float64 `json:"amount"`
	Description        string  `json:"description,omitempty"`
	Location           string  `json:"location,omitempty"`
	IPAddress          string  `json:"ipAddress,omitempty"`
	Timestamp          string  `json:"timestamp,omitempty"` // RFC 3339; defaults to now
}

// ScoreResponse is the response for POST /score.
type ScoreResponse struct {
	AssessmentID string             `json:"assessmentId"`
	TxID         string             `json:"txId"`
	Score        float64            `json:"score"`
	Flagged      bool               `json:"flagged"`
	Indicators   []domain.Indicator `json:"indicators"`
	Metadata     struct {
		TraceID string `json:"traceId"`
		TotalMs int64  `json:"totalMs"`
		Version string `json:"version"`
	} `json:"metadata"`
}

// buildTransaction validates a request and converts it to a record.
func (h *Handler) buildTransaction(tenantID string, req *TransactionRequest) (*domain.TransactionRecord, string) {
	if req.AccountID == "" {
		return nil, "accountId is required"
	}
	kind := domain.TransactionKind(req.Kind)
	if !domain.ValidKind(kind) {
		return nil, "kind must be one of: deposit, withdrawal, transfer, subscription, other"
	}
	if req.Amount == 0 || math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		return nil, "amount must be a non-zero finite number"
	}

	ts := time.Now().UTC()
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			return nil, "timestamp must be RFC 3339"
		}
		ts = parsed.UTC()
	}

	return &domain.TransactionRecord{
		ID:                 uuid.New().String(),
		TenantID:           tenantID,
		AccountID:          req.AccountID,
		RecipientAccountID: req.RecipientAccountID,
		Kind:               kind,
		Amount:             req.Amount,
		Description:        req.Description,
		Location:           req.Location,
		IPAddress:          req.IPAddress,
		Timestamp:          ts,
		CreatedAt:          time.Now().UTC(),
	}, ""
}

// Score handles POST /score requests: synchronous scoring.
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	traceID := GetTraceID(ctx)

	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	tx, problem := h.buildTransaction(tenantID, &req)
	if problem != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": problem})
		return
	}

	// Extract once, reuse for score and indicators
	extractStart := time.Now()
	fv, extractErr := h.engine.Extract(ctx, tx)
	extractMs := time.Since(extractStart).Milliseconds()

	var score float64
	var inds []domain.Indicator
	var scoreMs int64

	if extractErr != nil {
		slog.Warn("feature extraction failed, using neutral score",
			"tx_id", tx.ID,
			"error", extractErr,
		)
		score = 0.5
		inds = []domain.Indicator{}
	} else {
		scoreStart := time.Now()
		score = h.engine.ScoreFeatures(&fv, tx.ID)
		scoreMs = time.Since(scoreStart).Milliseconds()
		inds = h.engine.IndicatorsFor(&fv)
	}

	assessment := h.processor.Process(&decision.Input{
		TenantID:     tenantID,
		TxID:         tx.ID,
		TraceID:      traceID,
		Score:        score,
		Indicators:   inds,
		ModelVersion: h.engine.ModelVersion(),
		ExtractMs:    extractMs,
		ScoreMs:      scoreMs,
		StartTime:    start,
	})

	tx.FraudScore = assessment.Score
	tx.Flagged = assessment.Flagged

	if h.repo != nil {
		if err := h.repo.SaveTransaction(ctx, tenantID, tx); err != nil {
			slog.Error("failed to save transaction", "tx_id", tx.ID, "error", err)
		}
		if err := h.repo.SaveAssessment(ctx, tenantID, assessment); err != nil {
			slog.Error("failed to save assessment", "tx_id", tx.ID, "error", err)
		}
	}

	if h.bus != nil {
		if err := bus.PublishAssessment(ctx, h.bus, tenantID, assessment); err != nil {
			slog.Error("failed to publish scored transaction", "tx_id", tx.ID, "error", err)
		}
	}

	if decision.ShouldAlert(assessment) {
		alert := decision.BuildAlert(assessment)
		if h.repo != nil {
			if err := h.repo.SaveAlert(ctx, tenantID, alert); err != nil {
				slog.Error("failed to save alert", "tx_id", tx.ID, "error", err)
			}
		}
		if h.bus != nil {
			if err := bus.PublishAlert(ctx, h.bus, tenantID, alert); err != nil {
				slog.Error("failed to publish alert", "tx_id", tx.ID, "error", err)
			}
		}
	}

	resp := ScoreResponse{
		AssessmentID: assessment.ID,
		TxID:         tx.ID,
		Score:        assessment.Score,
		Flagged:      assessment.Flagged,
		Indicators:   assessment.Indicators,
	}
	if resp.Indicators == nil {
		resp.Indicators = []domain.Indicator{}
	}
	resp.Metadata.TraceID = traceID
	resp.Metadata.TotalMs = time.Since(start).Milliseconds()
	resp.Metadata.Version = h.version

	writeJSON(w, http.StatusOK, resp)
}

// IngestTransaction handles POST /transactions: the transaction is
// queued on the bus and scored asynchronously by the worker.
func (h *Handler) IngestTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	traceID := GetTraceID(ctx)

	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	tx, problem := h.buildTransaction(tenantID, &req)
	if problem != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": problem})
		return
	}

	if h.bus == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "event bus not available",
		})
		return
	}

	queued := &bus.TransactionQueued{
		TraceID:     traceID,
		Transaction: *tx,
	}
	if err := bus.PublishTransactionQueued(ctx, h.bus, tenantID, queued); err != nil {
		slog.Error("failed to publish transaction", "tx_id", tx.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to queue transaction",
		})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"txId":    tx.ID,
		"traceId": traceID,
		"status":  "queued",
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server can score traffic. Readiness
// requires a loaded model bundle.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.engine != nil && h.engine.ModelVersion() == "" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"ready": "false",
			"error": "model not loaded",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// GetAssessment retrieves an assessment by ID.
func (h *Handler) GetAssessment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	assessmentID := chi.URLParam(r, "id")

	if assessmentID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "assessment id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	a, err := h.repo.GetAssessment(ctx, tenantID, assessmentID)
	if err != nil {
		slog.Error("failed to get assessment", "id", assessmentID, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "assessment not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// GetTransaction retrieves a transaction by ID.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	txID := chi.URLParam(r, "id")

	if txID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "transaction id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	tx, err := h.repo.GetTransaction(ctx, tenantID, txID)
	if err != nil {
		slog.Error("failed to get transaction", "id", txID, "error", err)
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "transaction not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, tx)
}

// ListAccountTransactions returns an account's transactions, newest
// first. An optional ?since=<RFC 3339> query restricts the window.
func (h *Handler) ListAccountTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	accountID := chi.URLParam(r, "id")

	if accountID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "account id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "since must be RFC 3339",
			})
			return
		}
		since = parsed
	}

	txs, err := h.repo.ListTransactionsByAccount(ctx, tenantID, accountID, since)
	if err != nil {
		slog.Error("failed to list account transactions", "account_id", accountID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list transactions",
		})
		return
	}

	if txs == nil {
		txs = []*domain.TransactionRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// ListAlerts returns a tenant's fraud alerts. Resolved alerts are
// included with ?includeResolved=true.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	includeResolved := r.URL.Query().Get("includeResolved") == "true"

	alerts, err := h.repo.ListAlerts(ctx, tenantID, includeResolved)
	if err != nil {
		slog.Error("failed to list alerts", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to list alerts",
		})
		return
	}

	if alerts == nil {
		alerts = []*domain.FraudAlert{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// GetAlert retrieves a fraud alert by ID.
func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	alertID := chi.URLParam(r, "id")

	if alertID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "alert id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	alert, err := h.repo.GetAlert(ctx, tenantID, alertID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "alert not found",
		})
		return
	}

	writeJSON(w, http.StatusOK, alert)
}

// ResolveAlertRequest is the request body for resolving an alert.
type ResolveAlertRequest struct {
	ResolvedBy string `json:"resolvedBy"`
}

// ResolveAlert handles POST /alerts/{id}/resolve.
func (h *Handler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	alertID := chi.URLParam(r, "id")

	if alertID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "alert id is required",
		})
		return
	}

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	var req ResolveAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.ResolvedBy == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "resolvedBy is required",
		})
		return
	}

	if err := h.repo.ResolveAlert(ctx, tenantID, alertID, req.ResolvedBy); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "alert not found",
		})
		return
	}

	slog.Info("alert resolved", "id", alertID, "resolved_by", req.ResolvedBy)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "alert resolved",
	})
}

// CreateAccountRequest is the request body for registering an account.
type CreateAccountRequest struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt,omitempty"` // RFC 3339; defaults to now
}

// CreateAccount registers an account so history-based features can
// compute its age.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "id is required",
		})
		return
	}

	createdAt := time.Now().UTC()
	if req.CreatedAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.CreatedAt)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "createdAt must be RFC 3339",
			})
			return
		}
		createdAt = parsed.UTC()
	}

	acct := &domain.Account{
		ID:        req.ID,
		TenantID:  tenantID,
		CreatedAt: createdAt,
	}

	if err := h.repo.SaveAccount(ctx, tenantID, acct); err != nil {
		slog.Error("failed to save account", "id", acct.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to save account",
		})
		return
	}

	writeJSON(w, http.StatusCreated, acct)
}

// SaveReputationRequest is the request body for POST /reputation.
type SaveReputationRequest struct {
	Kind string  `json:"kind"` // "location" or "ip"
	Key  string  `json:"key"`
	Risk float64 `json:"risk"` // [0, 1]
}

// SaveReputation upserts a location or IP risk score.
func (h *Handler) SaveReputation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	var req SaveReputationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.Kind != domain.ReputationLocation && req.Kind != domain.ReputationIP {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "kind must be 'location' or 'ip'",
		})
		return
	}
	if req.Key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "key is required",
		})
		return
	}
	if req.Risk < 0 || req.Risk > 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "risk must be in [0, 1]",
		})
		return
	}

	if err := h.repo.SaveReputation(ctx, tenantID, req.Kind, req.Key, req.Risk); err != nil {
		slog.Error("failed to save reputation", "kind", req.Kind, "key", req.Key, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to save reputation",
		})
		return
	}

	// Drop any stale cached entry so the next lookup sees the new risk
	if h.cache != nil {
		_ = h.cache.InvalidateReputation(ctx, tenantID, req.Kind, req.Key)
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "reputation saved",
	})
}

// ListIndicatorRules returns all rules loaded in the engine.
func (h *Handler) ListIndicatorRules(w http.ResponseWriter, r *http.Request) {
	loaded := h.rules.GetLoadedRules()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rules": loaded,
		"count": len(loaded),
	})
}

// CreateIndicatorRuleRequest is the request body for creating a rule.
type CreateIndicatorRuleRequest struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Expression  string `json:"expression"`
	Description string `json:"description"`
	ValueField  string `json:"valueField,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// GlobalTenantID is used for rules that apply to all tenants.
const GlobalTenantID = "*"

// CreateIndicatorRule creates a custom threshold rule and saves it to
// the database. Rules are saved globally (tenant_id = "*") so they
// apply to all tenants. After saving, call POST /indicators/rules/reload
// to hot-reload into the engine.
func (h *Handler) CreateIndicatorRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateIndicatorRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if req.ID == "" || req.Type == "" || req.Expression == "" || req.Description == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "id, type, expression, and description are required",
		})
		return
	}

	severity := domain.Severity(req.Severity)
	switch severity {
	case domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh, domain.SeverityCritical:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "severity must be one of: low, medium, high, critical",
		})
		return
	}

	rule := &domain.IndicatorRule{
		ID:          req.ID,
		TenantID:    GlobalTenantID,
		Type:        req.Type,
		Severity:    severity,
		Expression:  req.Expression,
		Description: req.Description,
		ValueField:  req.ValueField,
		Enabled:     req.Enabled,
	}

	// Validate CEL expression before persisting
	if err := h.rules.ValidateRule(rule); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid CEL expression: " + err.Error(),
		})
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveIndicatorRule(ctx, GlobalTenantID, rule); err != nil {
			slog.Error("failed to save indicator rule", "id", rule.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to save rule",
			})
			return
		}
	}

	slog.Info("indicator rule created", "id", rule.ID, "type", rule.Type)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"rule":    rule,
		"message": "Rule created. Call POST /indicators/rules/reload to apply changes.",
	})
}

// ReloadIndicatorRules reloads builtin plus database rules into the
// engine. This enables hot-reloading without server restart.
func (h *Handler) ReloadIndicatorRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "repository not available",
		})
		return
	}

	dbRules, err := h.repo.ListIndicatorRules(ctx, GlobalTenantID)
	if err != nil {
		slog.Error("failed to list indicator rules from database", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to load rules from database",
		})
		return
	}

	// Builtins always stay loaded; database rules layer on top
	configs := indicators.BuiltinRules()
	configs = append(configs, dbRules...)

	if err := h.rules.ReloadRules(configs); err != nil {
		slog.Error("failed to reload indicator rules into engine", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload rules: " + err.Error(),
		})
		return
	}

	slog.Info("indicator rules reloaded", "database_count", len(dbRules))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "rules reloaded successfully",
		"count":   h.rules.RulesCount(),
	})
}

// Retrain handles POST /retrain: rebuilds the model from freshly
// synthesized training data and swaps it in atomically.
func (h *Handler) Retrain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	if err := h.engine.Retrain(ctx, nil); err != nil {
		slog.Error("retrain failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "retrain failed: " + err.Error(),
		})
		return
	}

	if h.bus != nil {
		if err := bus.PublishModelRetrained(ctx, h.bus, tenantID, h.engine.ModelVersion()); err != nil {
			slog.Error("failed to publish retrain event", "error", err)
		}
	}

	resp := map[string]interface{}{
		"message":      "model retrained",
		"modelVersion": h.engine.ModelVersion(),
	}
	if m := h.engine.Metrics(); m != nil {
		resp["metrics"] = m
	}

	writeJSON(w, http.StatusOK, resp)
}

// ModelMetrics returns evaluation metrics from the last training run.
func (h *Handler) ModelMetrics(w http.ResponseWriter, r *http.Request) {
	m := h.engine.Metrics()
	if m == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "no training metrics available; model was loaded from disk",
		})
		return
	}

	writeJSON(w, http.StatusOK, m)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
