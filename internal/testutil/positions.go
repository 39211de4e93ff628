package testutil

import (
	"fmt"

	"github.com/Veraticus/fund-compliance/internal/model"
)

// FundBuilder assembles positions for a single fund.
type FundBuilder struct {
	positions []model.Position
	fundID    int64
}

// NewFund starts a builder for fundID.
func NewFund(fundID int64) *FundBuilder {
	return &FundBuilder{fundID: fundID}
}

// Add appends a fully specified position; FundID is filled in.
func (b *FundBuilder) Add(p model.Position) *FundBuilder {
	p.FundID = b.fundID
	if p.SecurityName == "" {
		p.SecurityName = p.ISIN + " holding"
	}
	if p.ComplianceStatus == "" {
		p.ComplianceStatus = model.ComplianceClear
	}
	if p.Country == "" {
		p.Country = "US"
	}
	if p.Sector == "" {
		p.Sector = string(p.AssetClass)
	}
	b.positions = append(b.positions, p)
	return b
}

// Equity appends a Clear equity position.
func (b *FundBuilder) Equity(isin string, weight float64) *FundBuilder {
	return b.Add(model.Position{ISIN: isin, AssetClass: model.AssetEquity, WeightPct: weight})
}

// Bond appends a Clear bond position.
func (b *FundBuilder) Bond(isin string, weight float64) *FundBuilder {
	return b.Add(model.Position{ISIN: isin, AssetClass: model.AssetBond, WeightPct: weight})
}

// Cash appends a Clear cash position.
func (b *FundBuilder) Cash(isin string, weight float64) *FundBuilder {
	return b.Add(model.Position{ISIN: isin, AssetClass: model.AssetCash, WeightPct: weight})
}

// Spread appends n equal-weight equity positions named <prefix>-<i>.
func (b *FundBuilder) Spread(prefix string, n int, weight float64) *FundBuilder {
	for i := 1; i <= n; i++ {
		b.Equity(fmt.Sprintf("%s-%02d", prefix, i), weight)
	}
	return b
}

// Positions returns the accumulated positions.
func (b *FundBuilder) Positions() []model.Position {
	out := make([]model.Position, len(b.positions))
	copy(out, b.positions)
	return out
}
