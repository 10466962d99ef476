package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/asrieldev/secureBank/internal/bus"
	"github.com/asrieldev/secureBank/internal/decision"
	"github.com/asrieldev/secureBank/internal/domain"
	"github.com/asrieldev/secureBank/internal/features"
	"github.com/asrieldev/secureBank/internal/history"
	"github.com/asrieldev/secureBank/internal/indicators"
	"github.com/asrieldev/secureBank/internal/model"
	"github.com/asrieldev/secureBank/internal/repository"
	"github.com/asrieldev/secureBank/internal/scoring"
)

// createTestServer builds a server with a real SQLite repository and a
// small model trained from scratch. Training is kept cheap: few trees,
// few samples.
func createTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := domain.ServerConfig{
		Host:         "localhost",
		Port:         8080,
		ReadTimeout:  30,
		WriteTimeout: 30,
	}

	dir := t.TempDir()

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(dir, "test.db"),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	eventBus := bus.NewChannelBus(100)
	t.Cleanup(func() { eventBus.Close() })

	store := model.NewStore(domain.ModelConfig{
		ArtifactsDir:     filepath.Join(dir, "models"),
		SyntheticSamples: 400,
		Trees:            10,
		MaxDepth:         5,
		Contamination:    0.1,
		Seed:             42,
	})
	if _, err := store.Load(context.Background()); err != nil {
		t.Fatalf("failed to train test model: %v", err)
	}

	rules, err := indicators.NewEngine()
	if err != nil {
		t.Fatalf("failed to create indicator engine: %v", err)
	}
	if err := rules.LoadRules(indicators.BuiltinRules()); err != nil {
		t.Fatalf("failed to load builtin rules: %v", err)
	}

	extractor := features.NewExtractor(history.NewService(repo, nil, history.NewSampledSource(42)))
	engine := scoring.NewEngine(store, extractor, rules)
	processor := decision.NewProcessor()

	return NewServer(cfg, repo, nil, eventBus, engine, rules, processor, "test-v1")
}

func TestScoreEndpoint(t *testing.T) {
	server := createTestServer(t)

	t.Run("SuccessfulScore", func(t *testing.T) {
		reqBody := TransactionRequest{
			AccountID: "acct-001",
			Kind:      "transfer",
			Amount:    -120.50,
			Location:  "US-NYC",
			IPAddress: "203.0.113.7",
		}

		body, _ := json.Marshal(reqBody)
		req := httptest.NewRequest(http.MethodPost, "/score", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp ScoreResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}

		if resp.AssessmentID == "" {
			t.Error("expected assessmentId in response")
		}
		if resp.TxID == "" {
			t.Error("expected txId in response")
		}
		if resp.Score < 0 || resp.Score > 1 {
			t.Errorf("expected score in [0, 1], got %f", resp.Score)
		}
		if resp.Indicators == nil {
			t.Error("expected indicators array, got null")
		}
		if resp.Metadata.Version != "test-v1" {
			t.Errorf("expected version test-v1, got %s", resp.Metadata.Version)
		}
		if resp.Metadata.TraceID == "" {
			t.Error("expected traceId in metadata")
		}
	})

	t.Run("ScoredTransactionIsRetrievable", func(t *testing.T) {
		reqBody := TransactionRequest{
			AccountID: "acct-002",
			Kind:      "withdrawal",
			Amount:    -75.0,
		}

		body, _ := json.Marshal(reqBody)
		req := httptest.NewRequest(http.MethodPost, "/score", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		var resp ScoreResponse
		json.Unmarshal(rr.Body.Bytes(), &resp)

		// Assessment lookup
		req = httptest.NewRequest(http.MethodGet, "/assessments/"+resp.AssessmentID, nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")
		rr = httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200 for assessment, got %d", rr.Code)
		}

		var a domain.Assessment
		if err := json.Unmarshal(rr.Body.Bytes(), &a); err != nil {
			t.Fatalf("failed to parse assessment: %v", err)
		}
		if a.TxID != resp.TxID {
			t.Errorf("expected assessment txID %s, got %s", resp.TxID, a.TxID)
		}

		// Transaction lookup
		req = httptest.NewRequest(http.MethodGet, "/transactions/"+resp.TxID, nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")
		rr = httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200 for transaction, got %d", rr.Code)
		}
	})

	t.Run("AccountTransactionsListed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/accounts/acct-002/transactions", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var listing struct {
			Transactions []*domain.TransactionRecord `json:"transactions"`
			Count        int                         `json:"count"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &listing); err != nil {
			t.Fatalf("failed to parse listing: %v", err)
		}
		if listing.Count < 1 {
			t.Errorf("expected at least one transaction for acct-002, got %d", listing.Count)
		}
		for _, tx := range listing.Transactions {
			if tx.AccountID != "acct-002" {
				t.Errorf("expected only acct-002 transactions, got %s", tx.AccountID)
			}
		}
	})

	t.Run("AccountTransactionsBadSince", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/accounts/acct-002/transactions?since=yesterday", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400 for bad since, got %d", rr.Code)
		}
	})

	t.Run("TenantIsolationOnLookup", func(t *testing.T) {
		reqBody := TransactionRequest{
			AccountID: "acct-003",
			Kind:      "deposit",
			Amount:    50.0,
		}

		body, _ := json.Marshal(reqBody)
		req := httptest.NewRequest(http.MethodPost, "/score", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		var resp ScoreResponse
		json.Unmarshal(rr.Body.Bytes(), &resp)

		// Different tenant must not see the transaction
		req = httptest.NewRequest(http.MethodGet, "/transactions/"+resp.TxID, nil)
		req.Header.Set("X-Tenant-ID", "tenant-999")
		rr = httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404 for other tenant, got %d", rr.Code)
		}
	})

	t.Run("MissingTenantID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/score", bytes.NewBufferString("{}"))
		req.Header.Set("Content-Type", "application/json")
		// No X-Tenant-ID header

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/score", bytes.NewBufferString("not-json"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("MissingAccountID", func(t *testing.T) {
		reqBody := TransactionRequest{
			Kind:   "transfer",
			Amount: 100,
		}
		body, _ := json.Marshal(reqBody)
		req := httptest.NewRequest(http.MethodPost, "/score", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("InvalidKind", func(t *testing.T) {
		reqBody := TransactionRequest{
			AccountID: "acct-001",
			Kind:      "wire-fraud",
			Amount:    100,
		}
		body, _ := json.Marshal(reqBody)
		req := httptest.NewRequest(http.MethodPost, "/score", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("ZeroAmount", func(t *testing.T) {
		reqBody := TransactionRequest{
			AccountID: "acct-001",
			Kind:      "transfer",
			Amount:    0,
		}
		body, _ := json.Marshal(reqBody)
		req := httptest.NewRequest(http.MethodPost, "/score", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("ResponseHeaders", func(t *testing.T) {
		reqBody := TransactionRequest{
			AccountID: "acct-001",
			Kind:      "transfer",
			Amount:    100,
		}
		body, _ := json.Marshal(reqBody)
		req := httptest.NewRequest(http.MethodPost, "/score", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header in response")
		}
		if rr.Header().Get("X-Trace-ID") == "" {
			t.Error("expected X-Trace-ID header in response")
		}
		if rr.Header().Get("Content-Type") != "application/json" {
			t.Error("expected Content-Type: application/json")
		}
	})
}

func TestIngestEndpoint(t *testing.T) {
	server := createTestServer(t)

	t.Run("QueuesTransaction", func(t *testing.T) {
		reqBody := TransactionRequest{
			AccountID: "acct-async",
			Kind:      "transfer",
			Amount:    -300.0,
		}
		body, _ := json.Marshal(reqBody)
		req := httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusAccepted {
			t.Errorf("expected status 202, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp map[string]string
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp["txId"] == "" {
			t.Error("expected txId in response")
		}
		if resp["status"] != "queued" {
			t.Errorf("expected status 'queued', got '%s'", resp["status"])
		}
	})
}

func TestAlertEndpoints(t *testing.T) {
	server := createTestServer(t)
	repo := server.Handler().repo
	ctx := context.Background()

	// Seed an alert directly
	alert := &domain.FraudAlert{
		ID:          "alert-001",
		TenantID:    "tenant-001",
		TxID:        "tx-001",
		AlertType:   "High Fraud Score",
		Severity:    domain.SeverityHigh,
		Description: "Transaction flagged with fraud score: 0.912",
	}
	if err := repo.SaveAlert(ctx, "tenant-001", alert); err != nil {
		t.Fatalf("failed to seed alert: %v", err)
	}

	t.Run("ListAlerts", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/alerts", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var resp struct {
			Alerts []domain.FraudAlert `json:"alerts"`
			Count  int                 `json:"count"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp.Count != 1 {
			t.Errorf("expected 1 alert, got %d", resp.Count)
		}
	})

	t.Run("ResolveAlert", func(t *testing.T) {
		body, _ := json.Marshal(ResolveAlertRequest{ResolvedBy: "analyst-7"})
		req := httptest.NewRequest(http.MethodPost, "/alerts/alert-001/resolve", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		// Resolved alerts disappear from the default listing
		req = httptest.NewRequest(http.MethodGet, "/alerts", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")
		rr = httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		var resp struct {
			Count int `json:"count"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Count != 0 {
			t.Errorf("expected 0 unresolved alerts, got %d", resp.Count)
		}

		// But remain visible with includeResolved
		req = httptest.NewRequest(http.MethodGet, "/alerts?includeResolved=true", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")
		rr = httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Count != 1 {
			t.Errorf("expected 1 alert with includeResolved, got %d", resp.Count)
		}
	})

	t.Run("ResolveMissingAlert", func(t *testing.T) {
		body, _ := json.Marshal(ResolveAlertRequest{ResolvedBy: "analyst-7"})
		req := httptest.NewRequest(http.MethodPost, "/alerts/no-such-alert/resolve", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})
}

func TestIndicatorRuleEndpoints(t *testing.T) {
	server := createTestServer(t)

	t.Run("ListBuiltinRules", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/indicators/rules", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var resp struct {
			Count int `json:"count"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Count != 6 {
			t.Errorf("expected 6 builtin rules, got %d", resp.Count)
		}
	})

	t.Run("CreateAndReloadRule", func(t *testing.T) {
		body, _ := json.Marshal(CreateIndicatorRuleRequest{
			ID:          "custom.weekend_large",
			Type:        "weekend_large",
			Severity:    "medium",
			Expression:  "is_weekend == 1.0 && amount > 500.0",
			Description: "Large weekend transaction",
			Enabled:     true,
		})
		req := httptest.NewRequest(http.MethodPost, "/indicators/rules", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
		}

		// Reload folds database rules on top of builtins
		req = httptest.NewRequest(http.MethodPost, "/indicators/rules/reload", nil)
		req.Header.Set("X-Tenant-ID", "tenant-001")
		rr = httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp struct {
			Count int `json:"count"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Count != 7 {
			t.Errorf("expected 7 rules after reload, got %d", resp.Count)
		}
	})

	t.Run("RejectsInvalidExpression", func(t *testing.T) {
		body, _ := json.Marshal(CreateIndicatorRuleRequest{
			ID:          "custom.broken",
			Type:        "broken",
			Severity:    "low",
			Expression:  "no_such_feature > 1.0",
			Description: "broken",
			Enabled:     true,
		})
		req := httptest.NewRequest(http.MethodPost, "/indicators/rules", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Tenant-ID", "tenant-001")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	server := createTestServer(t)

	t.Run("HealthCheck", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}

		var resp map[string]string
		json.Unmarshal(rr.Body.Bytes(), &resp)

		if resp["status"] != "healthy" {
			t.Errorf("expected status 'healthy', got '%s'", resp["status"])
		}
		if resp["version"] != "test-v1" {
			t.Errorf("expected version 'test-v1', got '%s'", resp["version"])
		}
	})

	t.Run("ReadyCheck", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ready", nil)

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("TenantMiddlewareExtractsID", func(t *testing.T) {
		var capturedTenantID string

		handler := TenantMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			capturedTenantID = GetTenantID(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Tenant-ID", "my-tenant-123")

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if capturedTenantID != "my-tenant-123" {
			t.Errorf("expected tenant ID 'my-tenant-123', got '%s'", capturedTenantID)
		}
	})

	t.Run("TracingMiddlewareSetsRequestID", func(t *testing.T) {
		var capturedRequestID string

		handler := TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v, ok := r.Context().Value(RequestIDKey).(string); ok {
				capturedRequestID = v
			}
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if capturedRequestID == "" {
			t.Error("expected request ID to be set")
		}

		if rr.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID response header")
		}
	})

	t.Run("RecoverMiddlewareHandlesPanic", func(t *testing.T) {
		handler := RecoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("test panic")
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()

		// Should not panic
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rr.Code)
		}
	})
}
