package model

import "time"

// Status is the outcome of a single rule evaluation.
type Status string

// Evaluation statuses.
const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusError   Status = "ERROR"
	StatusSkipped Status = "SKIPPED"
)

// Breach is a position or group that violates a rule threshold.
type Breach struct {
	Identifier  string
	Description string
	Value       float64
}

// Result is the outcome of evaluating one rule against one fund.
// Metric is nil when the rule could not be evaluated. Breaches is only
// populated for StatusFail.
type Result struct {
	AsOf      time.Time
	Metric    *float64
	Threshold *float64
	RuleID    string
	RuleText  string
	RuleType  RuleType
	Status    Status
	Unit      string
	Message   string
	Breaches  []Breach
	FundID    int64
}

// Passed reports whether the rule passed.
func (r Result) Passed() bool {
	return r.Status == StatusPass
}
