// Package compliance holds the rule catalogue and the evaluators that judge
// a fund's positions against it.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/fund-compliance/internal/model"
	"github.com/Veraticus/fund-compliance/internal/service"
)

// ErrUnregisteredRule is returned by Lookup for ids outside the catalogue.
var ErrUnregisteredRule = errors.New("no function registered")

// ErrDuplicateRule is returned when two rules share an id.
var ErrDuplicateRule = errors.New("duplicate rule id")

// Request carries the inputs of one evaluation.
type Request struct {
	AsOf      time.Time
	FundID    int64
	Threshold float64
}

// EvaluateFunc computes a rule result. Store failures must be returned as
// ERROR results, never as panics.
type EvaluateFunc func(ctx context.Context, store service.PositionStore, rule Rule, req Request) model.Result

// Rule is a registered compliance check.
type Rule struct {
	evaluate         EvaluateFunc
	ID               string
	Text             string
	Type             model.RuleType
	Unit             string
	DefaultThreshold float64
}

// NewRule builds a rule around an evaluation function.
func NewRule(id, text string, ruleType model.RuleType, unit string, defaultThreshold float64, fn EvaluateFunc) Rule {
	return Rule{
		ID:               id,
		Text:             text,
		Type:             ruleType,
		Unit:             unit,
		DefaultThreshold: defaultThreshold,
		evaluate:         fn,
	}
}

// Evaluate runs the rule for req.
func (r Rule) Evaluate(ctx context.Context, store service.PositionStore, req Request) model.Result {
	return r.evaluate(ctx, store, r, req)
}

// Registry maps rule ids to rules.
type Registry struct {
	rules map[string]Rule
}

// NewRegistry builds a registry, rejecting duplicate ids.
func NewRegistry(rules ...Rule) (*Registry, error) {
	reg := &Registry{rules: make(map[string]Rule, len(rules))}
	for _, rule := range rules {
		if _, exists := reg.rules[rule.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRule, rule.ID)
		}
		if rule.evaluate == nil {
			return nil, fmt.Errorf("rule %s has no evaluator", rule.ID)
		}
		reg.rules[rule.ID] = rule
	}
	return reg, nil
}

// DefaultRegistry returns the built-in catalogue.
func DefaultRegistry() *Registry {
	reg, err := NewRegistry(Catalogue()...)
	if err != nil {
		panic(err) // catalogue is static
	}
	return reg
}

// Lookup returns the rule for id, or an error wrapping ErrUnregisteredRule.
func (r *Registry) Lookup(id string) (Rule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return Rule{}, fmt.Errorf("%w for rule_id '%s'", ErrUnregisteredRule, id)
	}
	return rule, nil
}

// Rules lists every registered rule ordered by id.
func (r *Registry) Rules() []Rule {
	rules := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].ID < rules[j].ID
	})
	return rules
}

// Len is the number of registered rules.
func (r *Registry) Len() int {
	return len(r.rules)
}
