// Package storage provides the position store implementations.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/fund-compliance/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrEmptySlice      = errors.New("slice cannot be empty")
	ErrInvalidPosition = errors.New("invalid position")
	ErrInvalidFund     = errors.New("invalid fund")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateFund(fund *model.Fund) error {
	if fund == nil {
		return fmt.Errorf("%w: fund", ErrNilParameter)
	}
	if fund.ID <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidFund)
	}
	if fund.AUMUSD < 0 {
		return fmt.Errorf("%w: negative AUM", ErrInvalidFund)
	}
	return nil
}

func validatePositions(positions []model.Position) error {
	if positions == nil {
		return fmt.Errorf("%w: positions", ErrNilParameter)
	}
	if len(positions) == 0 {
		return fmt.Errorf("%w: positions", ErrEmptySlice)
	}
	for i := range positions {
		if err := validatePosition(&positions[i]); err != nil {
			return fmt.Errorf("position at index %d: %w", i, err)
		}
	}
	return nil
}

func validatePosition(p *model.Position) error {
	if strings.TrimSpace(p.ISIN) == "" {
		return fmt.Errorf("%w: missing ISIN", ErrInvalidPosition)
	}
	if p.FundID <= 0 {
		return fmt.Errorf("%w: %s has no fund", ErrInvalidPosition, p.ISIN)
	}
	if p.WeightPct < 0 || p.WeightPct > 100 {
		return fmt.Errorf("%w: %s weight %.4f outside 0-100", ErrInvalidPosition, p.ISIN, p.WeightPct)
	}
	return nil
}
