package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/fund-compliance/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var asOf = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

func evaluate(t *testing.T, store *memoryStore, id string, threshold *float64) model.Result {
	t.Helper()
	rule, err := DefaultRegistry().Lookup(id)
	require.NoError(t, err)

	req := Request{FundID: 1, AsOf: asOf, Threshold: rule.DefaultThreshold}
	if threshold != nil {
		req.Threshold = *threshold
	}
	return rule.Evaluate(context.Background(), store, req)
}

func ptr[T any](v T) *T {
	return &v
}

func assertInvariant(t *testing.T, res model.Result) {
	t.Helper()
	if res.Status != model.StatusFail {
		assert.Empty(t, res.Breaches, "breaches only allowed on FAIL")
	}
	if res.Status == model.StatusError {
		assert.Nil(t, res.Metric)
	} else {
		require.NotNil(t, res.Metric)
	}
}

func TestEvaluators_BalancedFundScenario(t *testing.T) {
	store := &memoryStore{positions: []model.Position{
		pos("EQ1", model.AssetEquity, 70),
		pos("BD1", model.AssetBond, 20),
		pos("CASH", model.AssetCash, 10),
	}}

	r001 := evaluate(t, store, "R001", nil)
	assert.Equal(t, model.StatusFail, r001.Status)
	assert.Equal(t, 70.0, *r001.Metric)
	require.Len(t, r001.Breaches, 1)
	assert.Equal(t, model.Breach{Identifier: "EQ1", Description: "EQ1 name", Value: 70}, r001.Breaches[0])
	assert.Equal(t, "Equity exposure is 70.00% of portfolio, exceeds max 60%.", r001.Message)
	assert.Equal(t, model.UnitPctNAV, r001.Unit)
	assert.Equal(t, 60.0, *r001.Threshold)
	assert.Equal(t, asOf, r001.AsOf)

	r006 := evaluate(t, store, "R006", nil)
	assert.Equal(t, model.StatusPass, r006.Status)
	assert.Equal(t, 10.0, *r006.Metric)
	assert.Equal(t, "Cash is 10.00% of portfolio, meets minimum 2%.", r006.Message)

	r011 := evaluate(t, store, "R011", nil)
	assert.Equal(t, model.StatusFail, r011.Status)
	assert.Equal(t, 3.0, *r011.Metric)
	assert.Empty(t, r011.Breaches)
	assert.Equal(t, model.UnitCount, r011.Unit)

	for _, id := range []string{"R001", "R002", "R003", "R004", "R005", "R006", "R007", "R008", "R009", "R010", "R011", "R012"} {
		assertInvariant(t, evaluate(t, store, id, nil))
	}
}

func TestEvaluators_BoundaryIsInclusive(t *testing.T) {
	store := &memoryStore{positions: []model.Position{
		pos("EQ1", model.AssetEquity, 30),
		pos("EQ2", model.AssetEquity, 30),
		pos("BD1", model.AssetBond, 38),
		pos("CASH", model.AssetCash, 2),
	}}

	assert.Equal(t, model.StatusPass, evaluate(t, store, "R001", nil).Status, "max rule at threshold")
	assert.Equal(t, model.StatusPass, evaluate(t, store, "R006", nil).Status, "min rule at threshold")
	assert.Equal(t, model.StatusPass, evaluate(t, store, "R005", ptr(38.0)).Status)
	assert.Equal(t, model.StatusPass, evaluate(t, store, "R011", ptr(4.0)).Status)
	assert.Equal(t, model.StatusPass, evaluate(t, store, "R012", ptr(100.0)).Status)
}

func TestEvaluators_BoundaryToleratesFloatNoise(t *testing.T) {
	store := &memoryStore{positions: []model.Position{
		pos("EQ1", model.AssetEquity, 20.1),
		pos("EQ2", model.AssetEquity, 9.9),
	}}

	res := evaluate(t, store, "R001", ptr(30.0))
	assert.Equal(t, model.StatusPass, res.Status)
	assert.Equal(t, 30.0, *res.Metric)
}

func TestEvaluators_ComparesRoundedMetric(t *testing.T) {
	tests := []struct {
		name   string
		ruleID string
		class  model.AssetClass
		weight float64
		want   model.Status
	}{
		{"max rule rounds down onto limit", "R001", model.AssetEquity, 60.00004, model.StatusPass},
		{"max rule rounds up past limit", "R001", model.AssetEquity, 60.00005, model.StatusFail},
		{"min rule rounds up onto limit", "R006", model.AssetCash, 1.99995, model.StatusPass},
		{"min rule rounds down below limit", "R006", model.AssetCash, 1.99994, model.StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryStore{positions: []model.Position{pos("P1", tt.class, tt.weight)}}
			res := evaluate(t, store, tt.ruleID, nil)
			assert.Equal(t, tt.want, res.Status)
		})
	}
}

func TestEvaluators_EmptyFund(t *testing.T) {
	store := &memoryStore{}

	tests := []struct {
		id         string
		wantStatus model.Status
		wantMetric float64
	}{
		{id: "R001", wantStatus: model.StatusPass},
		{id: "R002", wantStatus: model.StatusPass},
		{id: "R003", wantStatus: model.StatusPass},
		{id: "R004", wantStatus: model.StatusPass},
		{id: "R005", wantStatus: model.StatusPass},
		{id: "R006", wantStatus: model.StatusFail},
		{id: "R007", wantStatus: model.StatusPass},
		{id: "R008", wantStatus: model.StatusPass},
		{id: "R009", wantStatus: model.StatusPass},
		{id: "R010", wantStatus: model.StatusPass},
		{id: "R011", wantStatus: model.StatusFail},
		{id: "R012", wantStatus: model.StatusPass},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			res := evaluate(t, store, tt.id, nil)
			assert.Equal(t, tt.wantStatus, res.Status)
			require.NotNil(t, res.Metric)
			assert.Equal(t, tt.wantMetric, *res.Metric)
			assert.Empty(t, res.Breaches)
		})
	}

	assert.Equal(t, "No positions found.", evaluate(t, store, "R003", nil).Message)
	assert.Equal(t, "No positions found.", evaluate(t, store, "R007", nil).Message)
}

func TestEvaluators_StoreFailureBecomesError(t *testing.T) {
	store := &memoryStore{err: errors.New("no such table: positions")}

	for _, rule := range DefaultRegistry().Rules() {
		t.Run(rule.ID, func(t *testing.T) {
			res := evaluate(t, store, rule.ID, nil)
			assert.Equal(t, model.StatusError, res.Status)
			assert.Nil(t, res.Metric)
			assert.Empty(t, res.Breaches)
			assert.Equal(t, "Error during rule check: no such table: positions", res.Message)
			require.NotNil(t, res.Threshold)
			assert.Equal(t, rule.DefaultThreshold, *res.Threshold)
		})
	}
}

func TestMaxPctOfNAV_BreachesSortedDescending(t *testing.T) {
	store := &memoryStore{positions: []model.Position{
		pos("E-SMALL", model.AssetEquity, 5),
		pos("E-BIG", model.AssetEquity, 40),
		pos("ETF-MID", model.AssetETF, 20),
		pos("BOND", model.AssetBond, 35),
	}}

	res := evaluate(t, store, "R010", nil)
	require.Equal(t, model.StatusFail, res.Status)
	require.Len(t, res.Breaches, 3)
	assert.Equal(t, []string{"E-BIG", "ETF-MID", "E-SMALL"}, identifiers(res.Breaches))
	assert.Equal(t, 65.0, *res.Metric)
}

func TestMaxPctOfNAV_StatusFilter(t *testing.T) {
	review := pos("REV", model.AssetEquity, 25)
	review.ComplianceStatus = model.ComplianceReview
	store := &memoryStore{positions: []model.Position{review, pos("OK", model.AssetEquity, 75)}}

	res := evaluate(t, store, "R008", nil)
	assert.Equal(t, model.StatusFail, res.Status)
	assert.Equal(t, []string{"REV"}, identifiers(res.Breaches))
	assert.Equal(t, "Review-status exposure is 25.00% of portfolio, exceeds max 20%.", res.Message)
}

func TestProhibitedCount(t *testing.T) {
	bad1 := pos("SANCTIONED-1", model.AssetEquity, 3)
	bad1.ComplianceStatus = model.ComplianceRestricted
	bad2 := pos("SANCTIONED-2", model.AssetBond, 7)
	bad2.ComplianceStatus = model.ComplianceRestricted
	store := &memoryStore{positions: []model.Position{bad1, bad2, pos("CLEAN", model.AssetEquity, 90)}}

	res := evaluate(t, store, "R002", nil)
	assert.Equal(t, model.StatusFail, res.Status)
	assert.Equal(t, 2.0, *res.Metric)
	assert.Equal(t, []string{"SANCTIONED-2", "SANCTIONED-1"}, identifiers(res.Breaches))
	assert.Equal(t, "2 Restricted position(s) found, rule breached.", res.Message)

	clean := evaluate(t, &memoryStore{positions: []model.Position{pos("CLEAN", model.AssetEquity, 100)}}, "R002", nil)
	assert.Equal(t, model.StatusPass, clean.Status)
	assert.Equal(t, "No Restricted positions found.", clean.Message)

	// An override cannot relax a prohibition.
	relaxed := evaluate(t, store, "R002", ptr(5.0))
	assert.Equal(t, model.StatusFail, relaxed.Status)
}

func TestGroupConcentration_ListsEveryBreachingGroup(t *testing.T) {
	mk := func(isin, country string, weight float64) model.Position {
		p := pos(isin, model.AssetEquity, weight)
		p.Country = country
		return p
	}
	store := &memoryStore{positions: []model.Position{
		mk("US1", "US", 25), mk("US2", "US", 15),
		mk("JP1", "JP", 35),
		mk("DE1", "DE", 25),
	}}

	res := evaluate(t, store, "R003", nil)
	require.Equal(t, model.StatusFail, res.Status)
	assert.Equal(t, 40.0, *res.Metric)
	assert.Equal(t, []model.Breach{
		{Identifier: "US", Description: "Country: US", Value: 40},
		{Identifier: "JP", Description: "Country: JP", Value: 35},
	}, res.Breaches)
	assert.Equal(t, "Max country concentration is 40.00% (US), exceeds max 30%.", res.Message)
}

func TestGroupConcentration_Sector(t *testing.T) {
	store := &memoryStore{positions: []model.Position{
		pos("EQ1", model.AssetEquity, 25),
		pos("BD1", model.AssetBond, 25),
		pos("ETF", model.AssetETF, 25),
		pos("CASH", model.AssetCash, 25),
	}}

	res := evaluate(t, store, "R004", nil)
	assert.Equal(t, model.StatusPass, res.Status)
	assert.Equal(t, 25.0, *res.Metric)
	assert.Contains(t, res.Message, "within max 30%")
}

func TestSinglePosition(t *testing.T) {
	store := &memoryStore{positions: []model.Position{
		pos("A", model.AssetEquity, 18),
		pos("B", model.AssetEquity, 16),
		pos("C", model.AssetEquity, 15),
		pos("D", model.AssetEquity, 51),
	}}

	res := evaluate(t, store, "R007", nil)
	require.Equal(t, model.StatusFail, res.Status)
	assert.Equal(t, 51.0, *res.Metric)
	assert.Equal(t, []string{"D", "A", "B"}, identifiers(res.Breaches), "position at exactly 15% is not a breach")
	assert.Equal(t, "Largest position is 51.00% (D name), exceeds max 15%.", res.Message)
}

func TestTopN(t *testing.T) {
	var positions []model.Position
	for i, w := range []float64{30, 20, 15, 10, 10, 8, 7} {
		positions = append(positions, pos(string(rune('A'+i)), model.AssetEquity, w))
	}
	store := &memoryStore{positions: positions}

	res := evaluate(t, store, "R012", nil)
	require.Equal(t, model.StatusFail, res.Status)
	assert.Equal(t, 85.0, *res.Metric)
	assert.Len(t, res.Breaches, TopHoldingsCount)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, identifiers(res.Breaches))
	assert.Equal(t, "Top 5 holdings represent 85.00% of portfolio, exceeds max 80%.", res.Message)

	pass := evaluate(t, store, "R012", ptr(85.0))
	assert.Equal(t, model.StatusPass, pass.Status)
	assert.Empty(t, pass.Breaches)
}

func TestMinCount_Message(t *testing.T) {
	store := &memoryStore{positions: []model.Position{pos("A", model.AssetEquity, 100)}}

	res := evaluate(t, store, "R011", nil)
	assert.Equal(t, "Portfolio has 1 positions, below minimum of 10.", res.Message)
	assert.Equal(t, 10.0, *res.Threshold)
}

func identifiers(breaches []model.Breach) []string {
	ids := make([]string, len(breaches))
	for i, b := range breaches {
		ids[i] = b.Identifier
	}
	return ids
}
