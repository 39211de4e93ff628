package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/fund-compliance/internal/common"
	"github.com/Veraticus/fund-compliance/internal/model"
	"github.com/Veraticus/fund-compliance/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements service.PositionStore over a SQLite portfolio database.
type SQLiteStorage struct {
	db      *sql.DB
	dbPath  string
	queries positionQueries
}

var _ service.PositionStore = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens (creating if needed) a writable database. Used by
// migrations, seeding and tests.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:      db,
		dbPath:  dbPath,
		queries: positionQueries{ph: questionMark},
	}, nil
}

// OpenSQLiteReadOnly opens an existing database for a compliance run. The
// connection is lazy: a missing or unreadable file surfaces on the first
// query, so each rule reports it as an ERROR instead of aborting the batch.
func OpenSQLiteReadOnly(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		slog.Warn("Position database not found; rules will report errors", "path", dbPath)
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &SQLiteStorage{
		db:      db,
		dbPath:  dbPath,
		queries: positionQueries{ph: questionMark},
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// SumWeight implements service.PositionStore.
func (s *SQLiteStorage) SumWeight(ctx context.Context, fundID int64, filter service.Filter) (float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	query, args := s.queries.sumWeight(fundID, filter)

	var total float64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum weights: %w", err)
	}
	return total, nil
}

// CountPositions implements service.PositionStore.
func (s *SQLiteStorage) CountPositions(ctx context.Context, fundID int64, filter service.Filter) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	query, args := s.queries.countPositions(fundID, filter)

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count positions: %w", err)
	}
	return count, nil
}

// GroupWeights implements service.PositionStore.
func (s *SQLiteStorage) GroupWeights(ctx context.Context, fundID int64, dim service.Dimension) ([]service.GroupWeight, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	query, args, err := s.queries.groupWeights(fundID, dim)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to group weights by %s: %w", dim, err)
	}
	defer func() { _ = rows.Close() }()

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
func (s *SQLiteStorage) ListPositions(ctx context.Context, fundID int64, filter service.Filter, limit int) ([]model.Position, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	query, args := s.queries.listPositions(fundID, filter, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
func (s *SQLiteStorage) GetFund(ctx context.Context, fundID int64) (*model.Fund, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var fund model.Fund
	err := s.db.QueryRowContext(ctx, s.queries.getFund(), fundID).Scan(&fund.ID, &fund.Name, &fund.AUMUSD)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fund %d: %w", fundID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fund: %w", err)
	}
	return &fund, nil
}

// SaveFund inserts or replaces a fund row.
func (s *SQLiteStorage) SaveFund(ctx context.Context, fund *model.Fund) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateFund(fund); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO funds (id, name, aum_usd) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, aum_usd = excluded.aum_usd`,
		fund.ID, fund.Name, fund.AUMUSD)
	if err != nil {
		return fmt.Errorf("failed to save fund: %w", err)
	}
	return nil
}

// SavePositions inserts or replaces positions in a single transaction.
func (s *SQLiteStorage) SavePositions(ctx context.Context, positions []model.Position) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePositions(positions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO positions (isin, security_name, fund_id, asset_class, country, sector, weight_pct, compliance_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(isin, fund_id) DO UPDATE SET
			security_name = excluded.security_name,
			asset_class = excluded.asset_class,
			country = excluded.country,
			sector = excluded.sector,
			weight_pct = excluded.weight_pct,
			compliance_status = excluded.compliance_status`)
	if err != nil {
		return fmt.Errorf("failed to prepare position insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range positions {
		if _, err := stmt.ExecContext(ctx, p.ISIN, p.SecurityName, p.FundID, string(p.AssetClass),
			p.Country, p.Sector, p.WeightPct, string(p.ComplianceStatus)); err != nil {
			return fmt.Errorf("failed to save position %s: %w", p.ISIN, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit positions: %w", err)
	}
	return nil
}
