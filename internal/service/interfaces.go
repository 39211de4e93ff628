// Package service defines the interfaces shared by the compliance components.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/fund-compliance/internal/model"
)

// Filter narrows a position query. Empty sets impose no constraint; when
// both are set a position must match both.
type Filter struct {
	AssetClasses []model.AssetClass
	Statuses     []model.ComplianceStatus
}

// Dimension is a column positions can be grouped by.
type Dimension string

// Grouping dimensions.
const (
	DimensionCountry Dimension = "country"
	DimensionSector  Dimension = "sector"
)

// GroupWeight is the summed weight of one group.
type GroupWeight struct {
	Key       string
	WeightPct float64
}

// PositionStore is the read-only accessor over the positions snapshot.
// Every method is scoped to a single fund and returns zero values, not
// errors, when nothing matches.
type PositionStore interface {
	// SumWeight returns SUM(weight_pct) over matching positions.
	SumWeight(ctx context.Context, fundID int64, filter Filter) (float64, error)
	// CountPositions returns the number of matching positions.
	CountPositions(ctx context.Context, fundID int64, filter Filter) (int, error)
	// GroupWeights sums weight per group, largest first.
	GroupWeights(ctx context.Context, fundID int64, dim Dimension) ([]GroupWeight, error)
	// ListPositions returns matching positions by weight descending.
	// A limit of zero returns every match.
	ListPositions(ctx context.Context, fundID int64, filter Filter, limit int) ([]model.Position, error)
	// GetFund returns the fund row or common.ErrNotFound.
	GetFund(ctx context.Context, fundID int64) (*model.Fund, error)

	Close() error
}

// ReportWriter persists a finished run.
type ReportWriter interface {
	Write(ctx context.Context, report *model.RunReport, path string) error
}

// RunObserver is notified as the batch runner walks the manifest.
type RunObserver interface {
	RuleStarted(def model.RuleDefinition)
	RuleFinished(row model.SummaryRow)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
