package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/fund-compliance/internal/common"
	"github.com/Veraticus/fund-compliance/internal/model"
	"github.com/Veraticus/fund-compliance/internal/report"
	"github.com/Veraticus/fund-compliance/internal/service"
)

// Publisher writes run reports to a Google spreadsheet.
type Publisher struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewPublisher creates a publisher authenticated per config.
func NewPublisher(ctx context.Context, config Config, logger *slog.Logger) (*Publisher, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newPublisher(config, service, logger), nil
}

func newPublisher(config Config, srv *sheets.Service, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		config:  config,
		service: srv,
		logger:  logger,
	}
}

// Publish replaces the Summary and Breaches tabs with run and returns the
// spreadsheet id.
func (p *Publisher) Publish(ctx context.Context, run *model.RunReport) (string, error) {
	p.logger.Info("Publishing compliance results to Google Sheets",
		"fund_id", run.FundID,
		"rules", len(run.Summary),
		"breaches", len(run.Breaches))

	retryOpts := service.RetryOptions{
		MaxAttempts:  p.config.RetryAttempts,
		InitialDelay: p.config.RetryDelay,
		MaxDelay:     p.config.RetryMaxDelay,
		Multiplier:   2.0,
	}

	var spreadsheetID string
	var tabs map[string]int64
	err := common.WithRetry(ctx, func() error {
		var err error
		spreadsheetID, tabs, err = p.getOrCreateSpreadsheet(ctx)
		return classifyAPIError(err)
	}, retryOpts)
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	writes := []struct {
		tab    string
		values [][]any
	}{
		{report.SummarySheet, summaryValues(run.Summary)},
		{report.BreachesSheet, breachValues(run.Breaches)},
	}
	for _, w := range writes {
		err := common.WithRetry(ctx, func() error {
			if clearErr := p.clearTab(ctx, spreadsheetID, w.tab); clearErr != nil {
				return classifyAPIError(clearErr)
			}
			return classifyAPIError(p.writeData(ctx, spreadsheetID, w.tab, w.values))
		}, retryOpts)
		if err != nil {
			return "", fmt.Errorf("failed to write %s: %w", w.tab, err)
		}
	}

	if p.config.EnableFormatting {
		requests := formattingRequests(tabs[report.SummarySheet], tabs[report.BreachesSheet], run)
		err := common.WithRetry(ctx, func() error {
			_, err := p.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
				Requests: requests,
			}).Context(ctx).Do()
			return classifyAPIError(err)
		}, retryOpts)
		if err != nil {
			p.logger.Warn("Failed to apply formatting", "error", err)
		}
	}

	p.logger.Info("Published compliance results",
		"spreadsheet_id", spreadsheetID,
		"summary_rows", len(run.Summary),
		"breach_rows", len(run.Breaches))

	return spreadsheetID, nil
}

func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope},
		}
		tokenSource = client.TokenSource(ctx, &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		})
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return srv, nil
}

// getOrCreateSpreadsheet returns the spreadsheet id and the sheet id of each
// report tab, adding tabs that are missing.
func (p *Publisher) getOrCreateSpreadsheet(ctx context.Context) (string, map[string]int64, error) {
	if p.config.SpreadsheetID == "" {
		created, err := p.service.Spreadsheets.Create(&sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{
				Title:    p.config.SpreadsheetName,
				TimeZone: p.config.TimeZone,
			},
			Sheets: []*sheets.Sheet{
				{Properties: &sheets.SheetProperties{Title: report.SummarySheet}},
				{Properties: &sheets.SheetProperties{Title: report.BreachesSheet}},
			},
		}).Context(ctx).Do()
		if err != nil {
			return "", nil, fmt.Errorf("unable to create spreadsheet: %w", err)
		}

		p.logger.Info("Created new spreadsheet",
			"id", created.SpreadsheetId,
			"url", created.SpreadsheetUrl)
		p.config.SpreadsheetID = created.SpreadsheetId
		return created.SpreadsheetId, tabIDs(created.Sheets), nil
	}

	existing, err := p.service.Spreadsheets.Get(p.config.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to access spreadsheet %s: %w", p.config.SpreadsheetID, err)
	}

	tabs := tabIDs(existing.Sheets)
	var add []*sheets.Request
	for _, title := range []string{report.SummarySheet, report.BreachesSheet} {
		if _, ok := tabs[title]; !ok {
			add = append(add, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}},
			})
		}
	}
	if len(add) == 0 {
		return existing.SpreadsheetId, tabs, nil
	}

	resp, err := p.service.Spreadsheets.BatchUpdate(existing.SpreadsheetId, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: add,
	}).Context(ctx).Do()
	if err != nil {
		return "", nil, fmt.Errorf("unable to add report tabs: %w", err)
	}
	for _, reply := range resp.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			tabs[reply.AddSheet.Properties.Title] = reply.AddSheet.Properties.SheetId
		}
	}
	return existing.SpreadsheetId, tabs, nil
}

func tabIDs(list []*sheets.Sheet) map[string]int64 {
	tabs := make(map[string]int64, len(list))
	for _, s := range list {
		if s.Properties != nil {
			tabs[s.Properties.Title] = s.Properties.SheetId
		}
	}
	return tabs
}

func (p *Publisher) clearTab(ctx context.Context, spreadsheetID, tab string) error {
	_, err := p.service.Spreadsheets.Values.Clear(spreadsheetID, tab, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// writeData writes values in batches to avoid API limits.
func (p *Publisher) writeData(ctx context.Context, spreadsheetID, tab string, values [][]any) error {
	for i := 0; i < len(values); i += p.config.BatchSize {
		end := min(i+p.config.BatchSize, len(values))
		batch := values[i:end]

		rangeStr := fmt.Sprintf("%s!A%d", tab, i+1)
		_, err := p.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, &sheets.ValueRange{Values: batch}).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		p.logger.Debug("Wrote batch", "tab", tab, "start_row", i+1, "rows", len(batch))
	}
	return nil
}
