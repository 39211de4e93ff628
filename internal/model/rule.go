package model

// RuleType names the evaluation pattern behind a rule.
type RuleType string

// Rule types.
const (
	RuleTypeMaxPctNAV     RuleType = "MAX_PCT_NAV"
	RuleTypeMinPctNAV     RuleType = "MIN_PCT_NAV"
	RuleTypeProhibited    RuleType = "PROHIBITED"
	RuleTypeConcentration RuleType = "CONCENTRATION"
	RuleTypeMinCount      RuleType = "MIN_COUNT"
)

// Units reported alongside metrics.
const (
	UnitPctNAV = "% of NAV"
	UnitCount  = "count"
)

// RuleDefinition is one row of a rule manifest. ThresholdOverride is kept
// verbatim; parsing happens when the rule is dispatched.
type RuleDefinition struct {
	RuleID            string
	RuleText          string
	Category          string
	ThresholdOverride string
	Notes             string
	Enabled           bool
}
