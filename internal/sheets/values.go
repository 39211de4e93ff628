package sheets

import (
	"fmt"
	"slices"
	"strconv"

	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/fund-compliance/internal/model"
	"github.com/Veraticus/fund-compliance/internal/report"
)

// summaryValues builds the Summary tab, header first. Missing numbers are
// written as empty strings so the cells stay blank.
func summaryValues(rows []model.SummaryRow) [][]any {
	values := make([][]any, 0, len(rows)+1)
	values = append(values, header(report.SummaryColumns))
	for _, row := range rows {
		values = append(values, []any{
			row.RuleID,
			row.RuleText,
			row.Category,
			string(row.Status),
			optional(row.MetricValue),
			optional(row.Threshold),
			row.Unit,
			row.Message,
			row.BreachCount,
			row.Notes,
		})
	}
	return values
}

func breachValues(rows []model.BreachRow) [][]any {
	values := make([][]any, 0, len(rows)+1)
	values = append(values, header(report.BreachColumns))
	for _, row := range rows {
		values = append(values, []any{
			row.RuleID,
			row.RuleText,
			row.Identifier,
			row.Description,
			row.Value,
			row.Unit,
		})
	}
	return values
}

func header(columns []string) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = c
	}
	return out
}

func optional(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

// hexColor converts an RRGGBB string to a Sheets colour.
func hexColor(hex string) (*sheets.Color, error) {
	if len(hex) != 6 {
		return nil, fmt.Errorf("invalid colour %q", hex)
	}
	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	return &sheets.Color{
		Red:   float64((rgb>>16)&0xFF) / 255,
		Green: float64((rgb>>8)&0xFF) / 255,
		Blue:  float64(rgb&0xFF) / 255,
	}, nil
}

// mustColor is for the fixed palette only.
func mustColor(hex string) *sheets.Color {
	c, err := hexColor(hex)
	if err != nil {
		panic(err)
	}
	return c
}

func backgroundRequest(sheetID int64, startRow, endRow, startCol, endCol int64, hex string, bold bool) *sheets.Request {
	format := &sheets.CellFormat{BackgroundColor: mustColor(hex)}
	fields := "userEnteredFormat.backgroundColor"
	if bold {
		format.TextFormat = &sheets.TextFormat{
			Bold:            true,
			ForegroundColor: mustColor(report.HeaderFontColor),
		}
		fields += ",userEnteredFormat.textFormat"
	}

	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    startRow,
				EndRowIndex:      endRow,
				StartColumnIndex: startCol,
				EndColumnIndex:   endCol,
			},
			Cell:   &sheets.CellData{UserEnteredFormat: format},
			Fields: fields,
		},
	}
}

func freezeHeaderRequest(sheetID int64) *sheets.Request {
	return &sheets.Request{
		UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
			Properties: &sheets.SheetProperties{
				SheetId:        sheetID,
				GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
			},
			Fields: "gridProperties.frozenRowCount",
		},
	}
}

func autoResizeRequest(sheetID int64, columns int64) *sheets.Request {
	return &sheets.Request{
		AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
			Dimensions: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "COLUMNS",
				StartIndex: 0,
				EndIndex:   columns,
			},
		},
	}
}

// formattingRequests styles both tabs the same way the xlsx report does.
func formattingRequests(summaryID, breachesID int64, run *model.RunReport) []*sheets.Request {
	summaryCols := int64(len(report.SummaryColumns))
	breachCols := int64(len(report.BreachColumns))

	requests := []*sheets.Request{
		backgroundRequest(summaryID, 0, 1, 0, summaryCols, report.SummaryHeaderColor, true),
		backgroundRequest(breachesID, 0, 1, 0, breachCols, report.BreachHeaderColor, true),
	}

	statusCol := int64(slices.Index(report.SummaryColumns, "status"))
	for i, row := range run.Summary {
		color, ok := report.StatusColors[row.Status]
		if !ok {
			continue
		}
		r := int64(i + 1)
		requests = append(requests, backgroundRequest(summaryID, r, r+1, statusCol, statusCol+1, color, false))
	}

	for i, color := range report.ZebraColors(run.Breaches) {
		r := int64(i + 1)
		requests = append(requests, backgroundRequest(breachesID, r, r+1, 0, breachCols, color, false))
	}

	return append(requests,
		freezeHeaderRequest(summaryID),
		freezeHeaderRequest(breachesID),
		autoResizeRequest(summaryID, summaryCols),
		autoResizeRequest(breachesID, breachCols),
	)
}
