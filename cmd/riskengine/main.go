// SecureBank Risk Engine - Transaction fraud scoring service.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/asrieldev/secureBank/internal/api"
	"github.com/asrieldev/secureBank/internal/bus"
	"github.com/asrieldev/secureBank/internal/cache"
	"github.com/asrieldev/secureBank/internal/decision"
	"github.com/asrieldev/secureBank/internal/domain"
	"github.com/asrieldev/secureBank/internal/features"
	"github.com/asrieldev/secureBank/internal/history"
	"github.com/asrieldev/secureBank/internal/indicators"
	"github.com/asrieldev/secureBank/internal/model"
	"github.com/asrieldev/secureBank/internal/repository"
	"github.com/asrieldev/secureBank/internal/scoring"
	"github.com/asrieldev/secureBank/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("RISKENGINE_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting risk engine",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("RISKENGINE_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}
	applyEnvOverrides(cfg)

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Load the model bundle, training from synthesized data when no
	// artifacts exist yet. Scoring cannot start without it.
	store := model.NewStore(cfg.Model)
	loadCtx := ctx
	if cfg.Model.RetrainTimeout > 0 {
		var loadCancel context.CancelFunc
		loadCtx, loadCancel = context.WithTimeout(ctx, time.Duration(cfg.Model.RetrainTimeout)*time.Second)
		defer loadCancel()
	}
	trained, err := store.Load(loadCtx)
	if err != nil {
		slog.Error("failed to load model", "error", err)
		os.Exit(1)
	}
	version := ""
	if b, err := store.Bundle(); err == nil {
		version = b.Manifest.Version
	}
	slog.Info("model ready", "trained", trained, "model_version", version)

	// Initialize Indicator Engine with builtin rules plus any custom
	// rules configured via POST /indicators/rules
	rulesEngine, err := indicators.NewEngine()
	if err != nil {
		slog.Error("failed to initialize indicator engine", "error", err)
		os.Exit(1)
	}
	if err := loadIndicatorRules(ctx, repo, rulesEngine); err != nil {
		slog.Error("failed to load indicator rules", "error", err)
		os.Exit(1)
	}
	slog.Info("indicator engine initialized", "rules_count", rulesEngine.RulesCount())

	// Initialize Feature Extractor backed by account history
	contextSource := history.NewService(repo, cacheImpl, history.NewSampledSource(cfg.Model.Seed))
	extractor := features.NewExtractor(contextSource)
	slog.Info("feature extractor initialized")

	// Initialize Scoring Engine
	engine := scoring.NewEngine(store, extractor, rulesEngine)

	// Initialize Decision Processor
	processor := decision.NewProcessor()
	if cfg.Model.AlertThreshold > 0 {
		processor.AlertThreshold = cfg.Model.AlertThreshold
	}
	slog.Info("decision processor initialized", "threshold", processor.AlertThreshold)

	// Initialize async Worker (Pro tier)
	var asyncWorker *worker.Worker
	if cfg.Tier == domain.TierPro || os.Getenv("RISKENGINE_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, repo, engine, processor)

		// Get tenant IDs to process (from environment or default)
		tenantIDs := []string{}
		if envTenants := os.Getenv("RISKENGINE_TENANTS"); envTenants != "" {
			for _, t := range strings.Split(envTenants, ",") {
				if t = strings.TrimSpace(t); t != "" {
					tenantIDs = append(tenantIDs, t)
				}
			}
		}

		workerCfg := worker.Config{
			TenantIDs:   tenantIDs,
			WorkerCount: 5,
		}

		if err := asyncWorker.Start(workerCfg); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started", "tenant_count", len(tenantIDs))
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, engine, rulesEngine, processor, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("risk engine is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("risk engine shutdown complete")
}

// applyEnvOverrides lets the most common settings be tuned without a
// config file.
func applyEnvOverrides(cfg *domain.Config) {
	if v := os.Getenv("RISKENGINE_SQLITE_PATH"); v != "" {
		cfg.Repository.SQLitePath = v
	}
	if v := os.Getenv("RISKENGINE_POSTGRES_HOST"); v != "" {
		cfg.Repository.PostgresHost = v
	}
	if v := os.Getenv("RISKENGINE_POSTGRES_USER"); v != "" {
		cfg.Repository.PostgresUser = v
	}
	if v := os.Getenv("RISKENGINE_POSTGRES_PASSWORD"); v != "" {
		cfg.Repository.PostgresPassword = v
	}
	if v := os.Getenv("RISKENGINE_POSTGRES_DB"); v != "" {
		cfg.Repository.PostgresDB = v
	}
	if v := os.Getenv("RISKENGINE_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("RISKENGINE_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}
	if v := os.Getenv("RISKENGINE_MODELS_DIR"); v != "" {
		cfg.Model.ArtifactsDir = v
	}
}

// GlobalTenantID is used for rules that apply to all tenants.
const GlobalTenantID = "*"

// loadIndicatorRules loads the builtin threshold rules and layers any
// database-configured rules on top.
func loadIndicatorRules(ctx context.Context, repo domain.Repository, engine *indicators.Engine) error {
	configs := indicators.BuiltinRules()

	dbRules, err := repo.ListIndicatorRules(ctx, GlobalTenantID)
	if err != nil {
		slog.Warn("failed to list indicator rules from database", "error", err)
	} else if len(dbRules) > 0 {
		slog.Info("loading indicator rules from database", "count", len(dbRules))
		configs = append(configs, dbRules...)
	}

	return engine.LoadRules(configs)
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  SecureBank Risk Engine")
	fmt.Println("  Fraud scoring for every transaction.")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /score                    - Score a transaction synchronously")
	fmt.Println("    POST /transactions             - Queue a transaction for async scoring")
	fmt.Println("    GET  /transactions/{id}        - Get transaction by ID")
	fmt.Println("    GET  /assessments/{id}         - Get assessment by ID")
	fmt.Println("    GET  /alerts                   - List fraud alerts")
	fmt.Println("    POST /alerts/{id}/resolve      - Resolve an alert")
	fmt.Println("    POST /accounts                 - Register an account")
	fmt.Println("    GET  /accounts/{id}/transactions - List an account's transactions")
	fmt.Println("    POST /reputation               - Set a location/IP risk score")
	fmt.Println("    GET  /indicators/rules         - List indicator rules")
	fmt.Println("    POST /indicators/rules         - Create an indicator rule")
	fmt.Println("    POST /indicators/rules/reload  - Hot-reload rules from database")
	fmt.Println("    POST /retrain                  - Retrain the model")
	fmt.Println("    GET  /model/metrics            - Training metrics")
	fmt.Println("    GET  /health                   - Health check")
	fmt.Println("    GET  /ready                    - Readiness check")
	fmt.Println()
}
