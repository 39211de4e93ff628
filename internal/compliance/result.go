package compliance

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/Veraticus/fund-compliance/internal/model"
	"github.com/shopspring/decimal"
)

// metricPlaces is the precision of reported metrics.
const metricPlaces = 4

// RoundMetric rounds v half away from zero to four decimal places. Applying
// it twice yields the same value.
func RoundMetric(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(metricPlaces).InexactFloat64()
}

// FormatThreshold renders a threshold without trailing zeros.
func FormatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func newResult(rule Rule, req Request) model.Result {
	threshold := req.Threshold
	return model.Result{
		RuleID:    rule.ID,
		RuleText:  rule.Text,
		RuleType:  rule.Type,
		FundID:    req.FundID,
		AsOf:      req.AsOf,
		Threshold: &threshold,
		Unit:      rule.Unit,
	}
}

// judge finalises a result. Breaches are dropped unless the rule failed.
func judge(res model.Result, passed bool, metric float64, breaches []model.Breach, message string) model.Result {
	rounded := RoundMetric(metric)
	res.Metric = &rounded
	res.Message = message
	if passed {
		res.Status = model.StatusPass
		res.Breaches = nil
		return res
	}
	res.Status = model.StatusFail
	res.Breaches = breaches
	return res
}

// evaluationError converts a store failure into an ERROR result.
func evaluationError(res model.Result, err error) model.Result {
	res.Status = model.StatusError
	res.Metric = nil
	res.Breaches = nil
	res.Message = fmt.Sprintf("Error during rule check: %v", err)
	return res
}

func positionBreaches(positions []model.Position, keep func(model.Position) bool) []model.Breach {
	breaches := make([]model.Breach, 0, len(positions))
	for _, p := range positions {
		if keep != nil && !keep(p) {
			continue
		}
		breaches = append(breaches, model.Breach{
			Identifier:  p.ISIN,
			Description: p.SecurityName,
			Value:       p.WeightPct,
		})
	}
	sortBreaches(breaches)
	return breaches
}

// sortBreaches orders by value descending, keeping store order among ties.
func sortBreaches(breaches []model.Breach) {
	sort.SliceStable(breaches, func(i, j int) bool {
		return breaches[i].Value > breaches[j].Value
	})
}

func withinOrExceeds(passed bool) string {
	if passed {
		return "within"
	}
	return "exceeds"
}

func meetsOrBelow(passed bool) string {
	if passed {
		return "meets"
	}
	return "below"
}
