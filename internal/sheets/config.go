// Package sheets publishes compliance run results to Google Sheets.
package sheets

import (
	"fmt"
	"os"
	"time"
)

// DefaultSpreadsheetName is used when creating a spreadsheet without a configured name.
const DefaultSpreadsheetName = "Compliance Results"

// Config holds the configuration for the Google Sheets publisher.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	RetryMaxDelay      time.Duration
	EnableFormatting   bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SpreadsheetName:  DefaultSpreadsheetName,
		EnableFormatting: true,
		TimeZone:         "UTC",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
		RetryMaxDelay:    30 * time.Second,
	}
}

// LoadFromEnv fills unset fields from GOOGLE_SHEETS_* environment variables.
func (c *Config) LoadFromEnv() {
	setIfEmpty := func(field *string, env string) {
		if *field == "" {
			*field = os.Getenv(env)
		}
	}

	setIfEmpty(&c.ClientID, "GOOGLE_SHEETS_CLIENT_ID")
	setIfEmpty(&c.ClientSecret, "GOOGLE_SHEETS_CLIENT_SECRET")
	setIfEmpty(&c.RefreshToken, "GOOGLE_SHEETS_REFRESH_TOKEN")
	setIfEmpty(&c.ServiceAccountPath, "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH")
	setIfEmpty(&c.SpreadsheetID, "GOOGLE_SHEETS_SPREADSHEET_ID")

	if c.SpreadsheetName == "" || c.SpreadsheetName == DefaultSpreadsheetName {
		if v := os.Getenv("GOOGLE_SHEETS_SPREADSHEET_NAME"); v != "" {
			c.SpreadsheetName = v
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	hasServiceAccount := c.ServiceAccountPath != ""

	if !hasOAuth && !hasServiceAccount {
		return fmt.Errorf("no authentication method configured")
	}

	if hasOAuth && hasServiceAccount {
		return fmt.Errorf("multiple authentication methods configured; use either OAuth2 or service account")
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}

	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts cannot be negative")
	}

	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}

	return nil
}
