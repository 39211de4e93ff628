// Package batch runs a rule manifest against one fund and collects the
// summary and breach rows of the report.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/fund-compliance/internal/common"
	"github.com/Veraticus/fund-compliance/internal/compliance"
	"github.com/Veraticus/fund-compliance/internal/model"
	"github.com/Veraticus/fund-compliance/internal/service"
)

// Runner evaluates manifests against a position store.
type Runner struct {
	store    service.PositionStore
	registry *compliance.Registry
	observer service.RunObserver
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithObserver reports per-rule progress to o.
func WithObserver(o service.RunObserver) Option {
	return func(r *Runner) {
		r.observer = o
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a runner over store using registry.
func NewRunner(store service.PositionStore, registry *compliance.Registry, opts ...Option) *Runner {
	r := &Runner{
		store:    store,
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates defs in order for fundID. Per-rule problems become ERROR or
// SKIPPED rows; the only error returned is context cancellation.
func (r *Runner) Run(ctx context.Context, defs []model.RuleDefinition, fundID int64, asOf time.Time) (*model.RunReport, error) {
	report := &model.RunReport{
		FundID:   fundID,
		AsOf:     asOf,
		Summary:  make([]model.SummaryRow, 0, len(defs)),
		Breaches: []model.BreachRow{},
	}

	fund, err := r.store.GetFund(ctx, fundID)
	switch {
	case err == nil:
		report.Fund = fund
	case errors.Is(err, common.ErrNotFound):
		r.logger.Warn("Fund not found in funds table", "fund_id", fundID)
	default:
		r.logger.Warn("Could not load fund details", "fund_id", fundID, "error", err)
	}

	for _, def := range defs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("compliance run interrupted: %w", err)
		}

		if r.observer != nil {
			r.observer.RuleStarted(def)
		}

		row, breaches := r.runRule(ctx, def, fundID, asOf)
		report.Summary = append(report.Summary, row)
		report.Breaches = append(report.Breaches, breaches...)

		if r.observer != nil {
			r.observer.RuleFinished(row)
		}
	}

	return report, nil
}

func (r *Runner) runRule(ctx context.Context, def model.RuleDefinition, fundID int64, asOf time.Time) (model.SummaryRow, []model.BreachRow) {
	ruleID := strings.TrimSpace(def.RuleID)

	if !def.Enabled {
		return model.SummaryRow{
			RuleID:   ruleID,
			RuleText: def.RuleText,
			Category: def.Category,
			Status:   model.StatusSkipped,
			Message:  "Rule disabled",
			Notes:    def.Notes,
		}, nil
	}

	rule, err := r.registry.Lookup(ruleID)
	if err != nil {
		r.logger.Warn("No compliance function for rule, recording ERROR", "rule_id", ruleID)
		return model.SummaryRow{
			RuleID:   ruleID,
			RuleText: def.RuleText,
			Category: def.Category,
			Status:   model.StatusError,
			Message:  err.Error(),
			Notes:    def.Notes,
		}, nil
	}

	threshold := r.resolveThreshold(ruleID, def.ThresholdOverride, rule.DefaultThreshold)
	result := r.evaluate(ctx, rule, compliance.Request{FundID: fundID, AsOf: asOf, Threshold: threshold})

	ruleText := def.RuleText
	if strings.TrimSpace(ruleText) == "" {
		ruleText = rule.Text
	}

	row := model.SummaryRow{
		RuleID:      ruleID,
		RuleText:    ruleText,
		Category:    def.Category,
		Status:      result.Status,
		MetricValue: result.Metric,
		Threshold:   result.Threshold,
		Unit:        result.Unit,
		Message:     result.Message,
		BreachCount: len(result.Breaches),
		Notes:       def.Notes,
	}

	breaches := make([]model.BreachRow, 0, len(result.Breaches))
	for _, b := range result.Breaches {
		breaches = append(breaches, model.BreachRow{
			RuleID:      ruleID,
			RuleText:    ruleText,
			Identifier:  b.Identifier,
			Description: b.Description,
			Value:       b.Value,
			Unit:        result.Unit,
		})
	}

	return row, breaches
}

// evaluate runs rule and converts a panic into an ERROR result.
func (r *Runner) evaluate(ctx context.Context, rule compliance.Rule, req compliance.Request) (result model.Result) {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("Compliance rule panicked", "rule_id", rule.ID, "panic", recovered)
			result = model.Result{
				RuleID:   rule.ID,
				RuleText: rule.Text,
				RuleType: rule.Type,
				FundID:   req.FundID,
				AsOf:     req.AsOf,
				Status:   model.StatusError,
				Message:  fmt.Sprintf("Uncaught exception: %v\n%s", recovered, debug.Stack()),
			}
		}
	}()

	result = rule.Evaluate(ctx, r.store, req)
	if result.Status != model.StatusFail {
		result.Breaches = nil
	}
	return result
}

// resolveThreshold applies a manifest override when it is a finite number.
func (r *Runner) resolveThreshold(ruleID, override string, fallback float64) float64 {
	value, ok, err := ParseThresholdOverride(override)
	if err != nil {
		r.logger.Warn("Non-numeric threshold_override, using default",
			"rule_id", ruleID,
			"threshold_override", override,
			"default", fallback)
		return fallback
	}
	if !ok {
		return fallback
	}
	return value
}

// ErrInvalidOverride is returned for overrides that are not finite numbers.
var ErrInvalidOverride = errors.New("invalid threshold override")

// ParseThresholdOverride parses a manifest threshold_override cell. Blank
// cells and spreadsheet null markers report ok=false with no error.
func ParseThresholdOverride(raw string) (value float64, ok bool, err error) {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "", "nan", "none", "null":
		return 0, false, nil
	}

	value, err = strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false, fmt.Errorf("%w: %q", ErrInvalidOverride, raw)
	}
	return value, true, nil
}
