package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/fund-compliance/internal/common"
	"github.com/Veraticus/fund-compliance/internal/model"
	"github.com/Veraticus/fund-compliance/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage implements service.PositionStore over a PostgreSQL
// database holding the same funds and positions tables.
type PostgresStorage struct {
	pool    *pgxpool.Pool
	queries positionQueries
}

var _ service.PositionStore = (*PostgresStorage)(nil)

// NewPostgresStorage creates a pool for databaseURL. The pool connects
// lazily, so an unreachable server surfaces on the first query.
func NewPostgresStorage(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	if err := validateString(databaseURL, "databaseURL"); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &PostgresStorage{
		pool:    pool,
		queries: positionQueries{ph: dollarN},
	}, nil
}

// Close releases the pool.
func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

// SumWeight implements service.PositionStore.
func (s *PostgresStorage) SumWeight(ctx context.Context, fundID int64, filter service.Filter) (float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	query, args := s.queries.sumWeight(fundID, filter)

	var total float64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum weights: %w", err)
	}
	return total, nil
}

// CountPositions implements service.PositionStore.
func (s *PostgresStorage) CountPositions(ctx context.Context, fundID int64, filter service.Filter) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	query, args := s.queries.countPositions(fundID, filter)

	var count int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count positions: %w", err)
	}
	return int(count), nil
}

// GroupWeights implements service.PositionStore.
func (s *PostgresStorage) GroupWeights(ctx context.Context, fundID int64, dim service.Dimension) ([]service.GroupWeight, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	query, args, err := s.queries.groupWeights(fundID, dim)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to group weights by %s: %w", dim, err)
	}
	defer rows.Close()

	var groups []service.GroupWeight
	for rows.Next() {
		var g service.GroupWeight
		if err := rows.Scan(&g.Key, &g.WeightPct); err != nil {
			return nil, fmt.Errorf("failed to scan group weight: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group weights: %w", err)
	}
	return groups, nil
}

// ListPositions implements service.PositionStore.
func (s *PostgresStorage) ListPositions(ctx context.Context, fundID int64, filter service.Filter, limit int) ([]model.Position, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	query, args := s.queries.listPositions(fundID, filter, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	var positions []model.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate positions: %w", err)
	}
	return positions, nil
}

// GetFund implements service.PositionStore.
func (s *PostgresStorage) GetFund(ctx context.Context, fundID int64) (*model.Fund, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var fund model.Fund
	err := s.pool.QueryRow(ctx, s.queries.getFund(), fundID).Scan(&fund.ID, &fund.Name, &fund.AUMUSD)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("fund %d: %w", fundID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fund: %w", err)
	}
	return &fund, nil
}
