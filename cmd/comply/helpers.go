package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/Veraticus/fund-compliance/internal/common"
	"github.com/Veraticus/fund-compliance/internal/config"
	"github.com/Veraticus/fund-compliance/internal/service"
	"github.com/Veraticus/fund-compliance/internal/storage"
)

// openPositionStore opens the configured store read-only. A SQLite file that
// cannot be read shows up as per-rule errors, not here.
func openPositionStore(ctx context.Context) (service.PositionStore, error) {
	db, err := config.LoadDatabase(viper.GetViper())
	if err != nil {
		return nil, common.NewUserError("Invalid database configuration", err)
	}

	switch db.Driver {
	case config.DriverPostgres:
		store, err := storage.NewPostgresStorage(ctx, db.URL)
		if err != nil {
			return nil, common.NewUserError("Could not connect to the position database", err)
		}
		return store, nil
	default:
		store, err := storage.OpenSQLiteReadOnly(db.Path)
		if err != nil {
			return nil, common.NewUserError(fmt.Sprintf("Could not open position database %s", db.Path), err)
		}
		return store, nil
	}
}
