package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/fund-compliance/internal/model"
)

// ExcelWriter writes run reports as xlsx workbooks.
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates a writer.
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger}
}

// Write renders report to path, replacing any existing file.
func (w *ExcelWriter) Write(ctx context.Context, report *model.RunReport, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			w.logger.Debug("Failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if _, err := f.NewSheet(BreachesSheet); err != nil {
		return fmt.Errorf("failed to add breaches sheet: %w", err)
	}

	if err := writeDocProps(f, report); err != nil {
		return err
	}
	if err := w.writeSummary(f, report.Summary); err != nil {
		return err
	}
	if err := w.writeBreaches(f, report.Breaches); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	w.logger.Info("Wrote compliance report",
		"path", path,
		"rules", len(report.Summary),
		"breaches", len(report.Breaches))
	return nil
}

func writeDocProps(f *excelize.File, report *model.RunReport) error {
	title := fmt.Sprintf("Compliance results for fund %d", report.FundID)
	if report.Fund != nil && report.Fund.Name != "" {
		title = fmt.Sprintf("Compliance results for %s", report.Fund.Name)
	}
	err := f.SetDocProps(&excelize.DocProperties{
		Title:    title,
		Subject:  "Compliance batch run",
		Keywords: fmt.Sprintf("fund_id=%d;as_of=%s", report.FundID, report.AsOf.Format(dateLayout)),
		Creator:  "comply",
	})
	if err != nil {
		return fmt.Errorf("failed to set document properties: %w", err)
	}
	return nil
}

func (w *ExcelWriter) writeSummary(f *excelize.File, rows []model.SummaryRow) error {
	headerStyle, err := headerStyle(f, SummaryHeaderColor)
	if err != nil {
		return err
	}
	if err := writeHeader(f, SummarySheet, SummaryColumns, headerStyle); err != nil {
		return err
	}

	statusStyles := make(map[model.Status]int, len(StatusColors))
	for status, color := range StatusColors {
		id, err := fillStyle(f, color)
		if err != nil {
			return err
		}
		statusStyles[status] = id
	}

	statusCol := columnIndex(SummaryColumns, "status")
	values := make([][]any, 0, len(rows))
	for i, row := range rows {
		vals := summaryValues(row)
		values = append(values, vals)
		if err := writeRow(f, SummarySheet, i+2, vals); err != nil {
			return err
		}

		style, ok := statusStyles[row.Status]
		if !ok {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(statusCol, i+2)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(SummarySheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to style status cell: %w", err)
		}
	}

	return finishSheet(f, SummarySheet, SummaryColumns, values)
}

func (w *ExcelWriter) writeBreaches(f *excelize.File, rows []model.BreachRow) error {
	headerStyle, err := headerStyle(f, BreachHeaderColor)
	if err != nil {
		return err
	}
	if err := writeHeader(f, BreachesSheet, BreachColumns, headerStyle); err != nil {
		return err
	}

	stripes := make(map[string]int, 2)
	for _, color := range []string{ZebraPlainColor, ZebraShadedColor} {
		id, err := fillStyle(f, color)
		if err != nil {
			return err
		}
		stripes[color] = id
	}

	lastCol, err := excelize.ColumnNumberToName(len(BreachColumns))
	if err != nil {
		return err
	}

	colors := ZebraColors(rows)
	values := make([][]any, 0, len(rows))
	for i, row := range rows {
		vals := breachValues(row)
		values = append(values, vals)
		if err := writeRow(f, BreachesSheet, i+2, vals); err != nil {
			return err
		}
		first := fmt.Sprintf("A%d", i+2)
		last := fmt.Sprintf("%s%d", lastCol, i+2)
		if err := f.SetCellStyle(BreachesSheet, first, last, stripes[colors[i]]); err != nil {
			return fmt.Errorf("failed to style breach row: %w", err)
		}
	}

	return finishSheet(f, BreachesSheet, BreachColumns, values)
}

func headerStyle(f *excelize.File, color string) (int, error) {
	id, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		Font: &excelize.Font{Bold: true, Color: HeaderFontColor},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create header style: %w", err)
	}
	return id, nil
}

func fillStyle(f *excelize.File, color string) (int, error) {
	id, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create fill style: %w", err)
	}
	return id, nil
}

func writeHeader(f *excelize.File, sheet string, columns []string, style int) error {
	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", lastCol+"1", style)
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []any) error {
	for col, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// finishSheet freezes the header row and sizes the columns.
func finishSheet(f *excelize.File, sheet string, columns []string, values [][]any) error {
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze %s header: %w", sheet, err)
	}

	for i, width := range columnWidths(columns, values) {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return fmt.Errorf("failed to size %s column %s: %w", sheet, name, err)
		}
	}
	return nil
}

func columnIndex(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i + 1
		}
	}
	return 0
}
