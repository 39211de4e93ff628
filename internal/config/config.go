package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/fund-compliance/internal/common"
)

// Supported position store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Defaults applied by SetDefaults.
const (
	DefaultDatabasePath = "~/.local/share/comply/portfolio.db"
	DefaultReportDir    = "."
)

// Database selects and locates the position store.
type Database struct {
	Driver string
	Path   string
	URL    string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("report.dir", DefaultReportDir)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("sheets.enabled", false)
}

// LoadDatabase reads and validates the database section.
func LoadDatabase(v *viper.Viper) (Database, error) {
	db := Database{
		Driver: strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		Path:   ExpandPath(v.GetString("database.path")),
		URL:    v.GetString("database.url"),
	}

	switch db.Driver {
	case "", DriverSQLite, "sqlite3":
		db.Driver = DriverSQLite
		if db.Path == "" {
			return db, fmt.Errorf("%w: database.path", common.ErrMissingConfig)
		}
	case DriverPostgres, "postgresql", "pgx":
		db.Driver = DriverPostgres
		if db.URL == "" {
			return db, fmt.Errorf("%w: database.url", common.ErrMissingConfig)
		}
	default:
		return db, fmt.Errorf("%w: %q", common.ErrUnsupportedDriver, db.Driver)
	}

	return db, nil
}

// ManifestPath is the configured manifest, or empty for the bundled sample.
func ManifestPath(v *viper.Viper) string {
	return ExpandPath(v.GetString("manifest.path"))
}

// ReportDir is where default-named reports are written.
func ReportDir(v *viper.Viper) string {
	if dir := ExpandPath(v.GetString("report.dir")); dir != "" {
		return dir
	}
	return DefaultReportDir
}
