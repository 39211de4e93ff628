package report

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/fund-compliance/internal/model"
)

// ErrNotAReport is returned when a workbook lacks the report sheets.
var ErrNotAReport = errors.New("workbook is not a compliance report")

const dateLayout = "2006-01-02"

// Read loads a report written by ExcelWriter. Fund details beyond the id
// are not stored in the workbook.
func Read(path string) (*model.RunReport, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Debug("Failed to close report", "path", path, "error", closeErr)
		}
	}()

	summary, err := f.GetRows(SummarySheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAReport, err)
	}
	breaches, err := f.GetRows(BreachesSheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAReport, err)
	}

	report := &model.RunReport{}
	if props, err := f.GetDocProps(); err == nil {
		report.FundID, report.AsOf = parseKeywords(props.Keywords)
	}

	report.Summary, err = parseSummary(summary)
	if err != nil {
		return nil, err
	}
	report.Breaches, err = parseBreaches(breaches)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func parseKeywords(keywords string) (int64, time.Time) {
	var fundID int64
	var asOf time.Time
	for _, part := range strings.Split(keywords, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "fund_id":
			if id, err := strconv.ParseInt(value, 10, 64); err == nil {
				fundID = id
			}
		case "as_of":
			if t, err := time.Parse(dateLayout, value); err == nil {
				asOf = t
			}
		}
	}
	return fundID, asOf
}

// sheetRows maps each data row by header name.
func sheetRows(rows [][]string, want []string) ([]map[string]string, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty sheet", ErrNotAReport)
	}
	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		index[strings.TrimSpace(h)] = i
	}
	for _, name := range want {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%w: missing column %s", ErrNotAReport, name)
		}
	}

	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		values := make(map[string]string, len(want))
		for _, name := range want {
			if idx := index[name]; idx < len(row) {
				values[name] = row[idx]
			}
		}
		out = append(out, values)
	}
	return out, nil
}

func parseSummary(rows [][]string) ([]model.SummaryRow, error) {
	records, err := sheetRows(rows, SummaryColumns)
	if err != nil {
		return nil, err
	}

	summary := make([]model.SummaryRow, 0, len(records))
	for _, r := range records {
		count, _ := strconv.Atoi(r["breach_count"])
		summary = append(summary, model.SummaryRow{
			RuleID:      r["rule_id"],
			RuleText:    r["rule_text"],
			Category:    r["category"],
			Status:      model.Status(r["status"]),
			MetricValue: parseOptional(r["metric_value"]),
			Threshold:   parseOptional(r["threshold"]),
			Unit:        r["unit"],
			Message:     r["message"],
			BreachCount: count,
			Notes:       r["notes"],
		})
	}
	return summary, nil
}

func parseBreaches(rows [][]string) ([]model.BreachRow, error) {
	records, err := sheetRows(rows, BreachColumns)
	if err != nil {
		return nil, err
	}

	breaches := make([]model.BreachRow, 0, len(records))
	for _, r := range records {
		var value float64
		if v := parseOptional(r["value"]); v != nil {
			value = *v
		}
		breaches = append(breaches, model.BreachRow{
			RuleID:      r["rule_id"],
			RuleText:    r["rule_text"],
			Identifier:  r["identifier"],
			Description: r["description"],
			Value:       value,
			Unit:        r["unit"],
		})
	}
	return breaches, nil
}

func parseOptional(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
