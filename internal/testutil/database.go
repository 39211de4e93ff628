// Package testutil provides test helpers for building seeded position databases.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/fund-compliance/internal/model"
	"github.com/Veraticus/fund-compliance/internal/storage"
)

// TestDB is an in-memory position database seeded for a test.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a migrated in-memory database and seeds it with the
// given funds and positions. Cleanup is registered on t.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		[]model.Fund{{ID: 1, Name: "Balanced"}},
//		testutil.NewFund(1).Equity("EQ1", 70).Bond("BD1", 20).Cash("CASH", 10).Positions(),
//	)
func SetupTestDB(t *testing.T, funds []model.Fund, positions []model.Position) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	db := &TestDB{Storage: store, t: t}
	for i := range funds {
		if err := store.SaveFund(ctx, &funds[i]); err != nil {
			t.Fatalf("failed to seed fund %d: %v", funds[i].ID, err)
		}
	}
	if len(positions) > 0 {
		db.ensureFunds(ctx, positions)
		if err := store.SavePositions(ctx, positions); err != nil {
			t.Fatalf("failed to seed positions: %v", err)
		}
	}

	return db
}

// ensureFunds creates placeholder fund rows so positions satisfy the foreign key.
func (db *TestDB) ensureFunds(ctx context.Context, positions []model.Position) {
	db.t.Helper()
	seen := make(map[int64]bool)
	for _, p := range positions {
		if seen[p.FundID] {
			continue
		}
		seen[p.FundID] = true
		if _, err := db.Storage.GetFund(ctx, p.FundID); err == nil {
			continue
		}
		fund := &model.Fund{ID: p.FundID, Name: fmt.Sprintf("Fund %d", p.FundID)}
		if err := db.Storage.SaveFund(ctx, fund); err != nil {
			db.t.Fatalf("failed to seed fund %d: %v", p.FundID, err)
		}
	}
}
