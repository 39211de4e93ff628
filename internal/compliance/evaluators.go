package compliance

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/fund-compliance/internal/model"
	"github.com/Veraticus/fund-compliance/internal/service"
)

// Comparisons use the rounded metric so that a sum landing on the threshold
// passes regardless of floating point noise in the aggregate.

// maxPctOfNAV passes when the filtered weight is at most the threshold and
// lists the matching positions on failure.
func maxPctOfNAV(subject string, filter service.Filter) EvaluateFunc {
	return func(ctx context.Context, store service.PositionStore, rule Rule, req Request) model.Result {
		res := newResult(rule, req)

		total, err := store.SumWeight(ctx, req.FundID, filter)
		if err != nil {
			return evaluationError(res, err)
		}
		passed := RoundMetric(total) <= req.Threshold

		var breaches []model.Breach
		if !passed {
			positions, err := store.ListPositions(ctx, req.FundID, filter, 0)
			if err != nil {
				return evaluationError(res, err)
			}
			breaches = positionBreaches(positions, nil)
		}

		message := fmt.Sprintf("%s is %.2f%% of portfolio, %s max %s%%.",
			subject, total, withinOrExceeds(passed), FormatThreshold(req.Threshold))
		return judge(res, passed, total, breaches, message)
	}
}

// minPctOfNAV passes when the filtered weight is at least the threshold.
// It is a single aggregate, so there is no breach enumeration.
func minPctOfNAV(subject string, filter service.Filter) EvaluateFunc {
	return func(ctx context.Context, store service.PositionStore, rule Rule, req Request) model.Result {
		res := newResult(rule, req)

		total, err := store.SumWeight(ctx, req.FundID, filter)
		if err != nil {
			return evaluationError(res, err)
		}
		passed := RoundMetric(total) >= req.Threshold

		message := fmt.Sprintf("%s is %.2f%% of portfolio, %s minimum %s%%.",
			subject, total, meetsOrBelow(passed), FormatThreshold(req.Threshold))
		return judge(res, passed, total, nil, message)
	}
}

// prohibitedCount passes only when no position matches. The threshold is
// reported but does not relax the rule.
func prohibitedCount(label string, filter service.Filter) EvaluateFunc {
	return func(ctx context.Context, store service.PositionStore, rule Rule, req Request) model.Result {
		res := newResult(rule, req)

		count, err := store.CountPositions(ctx, req.FundID, filter)
		if err != nil {
			return evaluationError(res, err)
		}
		passed := count == 0

		var breaches []model.Breach
		message := fmt.Sprintf("No %s positions found.", label)
		if !passed {
			positions, err := store.ListPositions(ctx, req.FundID, filter, 0)
			if err != nil {
				return evaluationError(res, err)
			}
			breaches = positionBreaches(positions, nil)
			message = fmt.Sprintf("%d %s position(s) found, rule breached.", count, label)
		}

		return judge(res, passed, float64(count), breaches, message)
	}
}

// groupConcentration passes when the heaviest group is within the threshold
// and lists every group above it on failure.
func groupConcentration(dim service.Dimension, label string) EvaluateFunc {
	return func(ctx context.Context, store service.PositionStore, rule Rule, req Request) model.Result {
		res := newResult(rule, req)

		groups, err := store.GroupWeights(ctx, req.FundID, dim)
		if err != nil {
			return evaluationError(res, err)
		}
		if len(groups) == 0 {
			return judge(res, true, 0, nil, "No positions found.")
		}
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].WeightPct > groups[j].WeightPct
		})

		largest := groups[0]
		passed := RoundMetric(largest.WeightPct) <= req.Threshold

		var breaches []model.Breach
		if !passed {
			for _, g := range groups {
				if RoundMetric(g.WeightPct) <= req.Threshold {
					continue
				}
				breaches = append(breaches, model.Breach{
					Identifier:  g.Key,
					Description: fmt.Sprintf("%s: %s", label, g.Key),
					Value:       g.WeightPct,
				})
			}
		}

		message := fmt.Sprintf("Max %s concentration is %.2f%% (%s), %s max %s%%.",
			strings.ToLower(label), largest.WeightPct, largest.Key, withinOrExceeds(passed), FormatThreshold(req.Threshold))
		return judge(res, passed, largest.WeightPct, breaches, message)
	}
}

// singlePosition passes when the largest holding is within the threshold
// and lists every holding above it on failure.
func singlePosition() EvaluateFunc {
	return func(ctx context.Context, store service.PositionStore, rule Rule, req Request) model.Result {
		res := newResult(rule, req)

		positions, err := store.ListPositions(ctx, req.FundID, service.Filter{}, 0)
		if err != nil {
			return evaluationError(res, err)
		}
		if len(positions) == 0 {
			return judge(res, true, 0, nil, "No positions found.")
		}
		sort.SliceStable(positions, func(i, j int) bool {
			return positions[i].WeightPct > positions[j].WeightPct
		})

		largest := positions[0]
		passed := RoundMetric(largest.WeightPct) <= req.Threshold

		var breaches []model.Breach
		if !passed {
			breaches = positionBreaches(positions, func(p model.Position) bool {
				return RoundMetric(p.WeightPct) > req.Threshold
			})
		}

		message := fmt.Sprintf("Largest position is %.2f%% (%s), %s max %s%%.",
			largest.WeightPct, largest.SecurityName, withinOrExceeds(passed), FormatThreshold(req.Threshold))
		return judge(res, passed, largest.WeightPct, breaches, message)
	}
}

// topN passes when the n largest holdings together are within the threshold
// and lists those holdings on failure.
func topN(n int) EvaluateFunc {
	return func(ctx context.Context, store service.PositionStore, rule Rule, req Request) model.Result {
		res := newResult(rule, req)

		positions, err := store.ListPositions(ctx, req.FundID, service.Filter{}, n)
		if err != nil {
			return evaluationError(res, err)
		}
		if len(positions) > n {
			positions = positions[:n]
		}

		var total float64
		for _, p := range positions {
			total += p.WeightPct
		}
		passed := RoundMetric(total) <= req.Threshold

		var breaches []model.Breach
		if !passed {
			breaches = positionBreaches(positions, nil)
		}

		message := fmt.Sprintf("Top %d holdings represent %.2f%% of portfolio, %s max %s%%.",
			n, total, withinOrExceeds(passed), FormatThreshold(req.Threshold))
		return judge(res, passed, total, breaches, message)
	}
}

// minCount passes when the fund holds at least threshold positions.
func minCount() EvaluateFunc {
	return func(ctx context.Context, store service.PositionStore, rule Rule, req Request) model.Result {
		res := newResult(rule, req)

		count, err := store.CountPositions(ctx, req.FundID, service.Filter{})
		if err != nil {
			return evaluationError(res, err)
		}
		passed := float64(count) >= req.Threshold

		message := fmt.Sprintf("Portfolio has %d positions, %s minimum of %s.",
			count, meetsOrBelow(passed), FormatThreshold(req.Threshold))
		return judge(res, passed, float64(count), nil, message)
	}
}
