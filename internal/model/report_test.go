package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTallyRows(t *testing.T) {
	rows := []SummaryRow{
		{RuleID: "R001", Status: StatusFail, BreachCount: 1},
		{RuleID: "R002", Status: StatusPass},
		{RuleID: "R007", Status: StatusFail, BreachCount: 2},
		{RuleID: "R008", Status: StatusSkipped},
		{RuleID: "R099", Status: StatusError},
	}

	tally := TallyRows(rows)
	assert.Equal(t, Tally{Pass: 1, Fail: 2, Error: 1, Skipped: 1, Breaches: 3}, tally)
	assert.Equal(t, 5, tally.Total())
	assert.Equal(t, 4, tally.Enabled())

	report := &RunReport{Summary: rows}
	assert.Equal(t, tally, report.Tally())
}

func TestTallyRows_Empty(t *testing.T) {
	tally := TallyRows(nil)
	assert.Zero(t, tally.Total())
	assert.Zero(t, tally.Enabled())
}

func TestResult_Passed(t *testing.T) {
	assert.True(t, Result{Status: StatusPass}.Passed())
	assert.False(t, Result{Status: StatusFail}.Passed())
	assert.False(t, Result{Status: StatusError}.Passed())
}
