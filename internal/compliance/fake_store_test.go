package compliance

import (
	"context"
	"slices"
	"sort"

	"github.com/Veraticus/fund-compliance/internal/common"
	"github.com/Veraticus/fund-compliance/internal/model"
	"github.com/Veraticus/fund-compliance/internal/service"
)

// memoryStore is an in-memory PositionStore. When err is set every read fails.
type memoryStore struct {
	err       error
	positions []model.Position
}

func (m *memoryStore) matching(fundID int64, filter service.Filter) []model.Position {
	var out []model.Position
	for _, p := range m.positions {
		if p.FundID != fundID {
			continue
		}
		if len(filter.AssetClasses) > 0 && !slices.Contains(filter.AssetClasses, p.AssetClass) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, p.ComplianceStatus) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].WeightPct > out[j].WeightPct })
	return out
}

func (m *memoryStore) SumWeight(_ context.Context, fundID int64, filter service.Filter) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	var total float64
	for _, p := range m.matching(fundID, filter) {
		total += p.WeightPct
	}
	return total, nil
}

func (m *memoryStore) CountPositions(_ context.Context, fundID int64, filter service.Filter) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return len(m.matching(fundID, filter)), nil
}

func (m *memoryStore) GroupWeights(_ context.Context, fundID int64, dim service.Dimension) ([]service.GroupWeight, error) {
	if m.err != nil {
		return nil, m.err
	}
	sums := map[string]float64{}
	var order []string
	for _, p := range m.matching(fundID, service.Filter{}) {
		key := p.Country
		if dim == service.DimensionSector {
			key = p.Sector
		}
		if _, ok := sums[key]; !ok {
			order = append(order, key)
		}
		sums[key] += p.WeightPct
	}
	groups := make([]service.GroupWeight, 0, len(order))
	for _, key := range order {
		groups = append(groups, service.GroupWeight{Key: key, WeightPct: sums[key]})
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].WeightPct > groups[j].WeightPct })
	return groups, nil
}

func (m *memoryStore) ListPositions(_ context.Context, fundID int64, filter service.Filter, limit int) ([]model.Position, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := m.matching(fundID, filter)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryStore) GetFund(_ context.Context, fundID int64) (*model.Fund, error) {
	if m.err != nil {
		return nil, m.err
	}
	return nil, common.ErrNotFound
}

func (m *memoryStore) Close() error { return nil }

func pos(isin string, class model.AssetClass, weight float64) model.Position {
	return model.Position{
		ISIN:             isin,
		SecurityName:     isin + " name",
		FundID:           1,
		AssetClass:       class,
		Country:          "US",
		Sector:           string(class),
		WeightPct:        weight,
		ComplianceStatus: model.ComplianceClear,
	}
}
