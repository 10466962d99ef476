// Package indicators provides the CEL-based threshold rule engine that
// turns a feature vector into human-readable fraud indicators.
package indicators

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/asrieldev/secureBank/internal/domain"
)

// Engine compiles indicator rules to CEL programs and evaluates them
// against feature vectors. Rules can be hot-reloaded from the database
// while scoring continues.
type Engine struct {
	mu       sync.RWMutex
	env      *cel.Env
	compiled map[string]*CompiledRule
	order    []string
}

// CompiledRule holds a rule config with its pre-compiled CEL program.
type CompiledRule struct {
	Config  *domain.IndicatorRule
	Program cel.Program
}

// NewEngine creates a rule engine with one CEL variable per feature in
// the schema.
func NewEngine() (*Engine, error) {
	opts := make([]cel.EnvOption, 0, domain.NumFeatures)
	for _, name := range domain.FeatureNames() {
		if name == "amount_category" {
			opts = append(opts, cel.Variable(name, cel.StringType))
			continue
		}
		opts = append(opts, cel.Variable(name, cel.DoubleType))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:      env,
		compiled: make(map[string]*CompiledRule),
	}, nil
}

// ValidateRule compiles a rule without loading it into the engine.
func (e *Engine) ValidateRule(cfg *domain.IndicatorRule) error {
	if cfg == nil {
		return fmt.Errorf("rule config is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compileRule(cfg)
	return err
}

// LoadRule compiles and loads a single rule.
func (e *Engine) LoadRule(cfg *domain.IndicatorRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compileRule(cfg)
	if err != nil {
		return err
	}

	if _, exists := e.compiled[cfg.ID]; !exists {
		e.order = append(e.order, cfg.ID)
	}
	e.compiled[cfg.ID] = compiled

	return nil
}

// LoadRules compiles and loads every enabled rule, preserving input
// order for evaluation.
func (e *Engine) LoadRules(configs []*domain.IndicatorRule) error {
	for _, cfg := range configs {
		if cfg.Enabled {
			if err := e.LoadRule(cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReloadRules atomically replaces all loaded rules. The builtin rules
// should be included in configs; anything absent is dropped.
func (e *Engine) ReloadRules(configs []*domain.IndicatorRule) error {
	newRules := make(map[string]*CompiledRule)
	newOrder := make([]string, 0, len(configs))

	e.mu.RLock()
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		compiled, err := e.compileRule(cfg)
		if err != nil {
			e.mu.RUnlock()
			return err
		}
		if _, seen := newRules[cfg.ID]; !seen {
			newOrder = append(newOrder, cfg.ID)
		}
		newRules[cfg.ID] = compiled
	}
	e.mu.RUnlock()

	e.mu.Lock()
	e.compiled = newRules
	e.order = newOrder
	e.mu.Unlock()

	return nil
}

// Evaluate runs every loaded rule against the feature vector and
// returns the indicators for the rules that matched, in load order.
// A rule whose evaluation errors is skipped; the remaining rules still
// run.
func (e *Engine) Evaluate(features *domain.FeatureVector) []domain.Indicator {
	e.mu.RLock()
	rules := make([]*CompiledRule, 0, len(e.order))
	for _, id := range e.order {
		if r, ok := e.compiled[id]; ok {
			rules = append(rules, r)
		}
	}
	e.mu.RUnlock()

	if len(rules) == 0 {
		return nil
	}

	activation := activationFor(features)

	var out []domain.Indicator
	for _, rule := range rules {
		val, _, err := rule.Program.Eval(activation)
		if err != nil {
			continue
		}
		if !isTrue(val) {
			continue
		}
		out = append(out, domain.Indicator{
			Type:        rule.Config.Type,
			Severity:    rule.Config.Severity,
			Description: describe(rule.Config, activation),
		})
	}

	return out
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiled)
}

// GetLoadedRules returns the loaded rule configurations sorted by ID.
func (e *Engine) GetLoadedRules() []*domain.IndicatorRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]*domain.IndicatorRule, 0, len(e.compiled))
	for _, compiled := range e.compiled {
		rules = append(rules, compiled.Config)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules
}

// Close clears all loaded rules.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiled = make(map[string]*CompiledRule)
	e.order = nil
	return nil
}

func (e *Engine) compileRule(cfg *domain.IndicatorRule) (*CompiledRule, error) {
	ast, issues := e.env.Compile(cfg.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", cfg.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %s: expression must return bool, got %s", cfg.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", cfg.ID, err)
	}

	return &CompiledRule{
		Config:  cfg,
		Program: program,
	}, nil
}

// activationFor maps a feature vector onto the CEL variable names.
func activationFor(f *domain.FeatureVector) map[string]any {
	return map[string]any{
		"amount":                      f.Amount,
		"hour_of_day":                 float64(f.HourOfDay),
		"day_of_week":                 float64(f.DayOfWeek),
		"is_weekend":                  float64(f.IsWeekend),
		"amount_category":             f.AmountCategory,
		"transaction_frequency":       f.TransactionFrequency,
		"location_risk":               f.LocationRisk,
		"ip_risk":                     f.IPRisk,
		"time_since_last_transaction": f.TimeSinceLast,
		"account_age_days":            f.AccountAgeDays,
	}
}

// describe renders the rule description, substituting the value of the
// rule's ValueField when the description is a format string.
func describe(cfg *domain.IndicatorRule, activation map[string]any) string {
	if cfg.ValueField == "" {
		return cfg.Description
	}
	val, ok := activation[cfg.ValueField]
	if !ok {
		return cfg.Description
	}
	return fmt.Sprintf(cfg.Description, val)
}

func isTrue(val ref.Val) bool {
	b, ok := val.(types.Bool)
	return ok && bool(b)
}
