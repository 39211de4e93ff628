// Package report renders a finished compliance run to an xlsx workbook with
// a Summary sheet and a Breaches sheet, and reads such workbooks back.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/fund-compliance/internal/model"
)

// Sheet names.
const (
	SummarySheet  = "Summary"
	BreachesSheet = "Breaches"
)

// Column headers, in sheet order.
var (
	SummaryColumns = []string{
		"rule_id", "rule_text", "category", "status",
		"metric_value", "threshold", "unit", "message", "breach_count", "notes",
	}
	BreachColumns = []string{"rule_id", "rule_text", "identifier", "description", "value", "unit"}
)

// Fill colours.
const (
	SummaryHeaderColor = "1F4E79"
	BreachHeaderColor  = "C00000"
	HeaderFontColor    = "FFFFFF"
	ZebraPlainColor    = "FFFFFF"
	ZebraShadedColor   = "FFE7E7"
)

// StatusColors maps a status to its Summary cell fill.
var StatusColors = map[model.Status]string{
	model.StatusPass:    "C6EFCE",
	model.StatusFail:    "FFC7CE",
	model.StatusError:   "FFEB9C",
	model.StatusSkipped: "D9D9D9",
}

const (
	minColumnPadding = 4
	maxColumnWidth   = 60
)

// FileName is the default report name for a fund and date.
func FileName(fundID int64, asOf string) string {
	return fmt.Sprintf("compliance_results_%d_%s.xlsx", fundID, strings.ReplaceAll(asOf, "-", ""))
}

func summaryValues(row model.SummaryRow) []any {
	return []any{
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
	}
}

func breachValues(row model.BreachRow) []any {
	return []any{
		row.RuleID,
		row.RuleText,
		row.Identifier,
		row.Description,
		row.Value,
		row.Unit,
	}
}

// optional turns a missing number into an empty cell.
func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func displayText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprint(val)
	}
}

// columnWidths sizes each column to its longest value plus padding, capped.
func columnWidths(header []string, rows [][]any) []float64 {
	widths := make([]float64, len(header))
	for i, h := range header {
		longest := utf8.RuneCountInString(h)
		for _, row := range rows {
			if i >= len(row) {
				continue
			}
			if n := utf8.RuneCountInString(displayText(row[i])); n > longest {
				longest = n
			}
		}
		widths[i] = float64(min(longest+minColumnPadding, maxColumnWidth))
	}
	return widths
}

// ZebraColors returns one fill per breach row. The stripe flips whenever the
// rule id changes, starting shaded.
func ZebraColors(rows []model.BreachRow) []string {
	colors := make([]string, len(rows))
	shaded := false
	current := ""
	for i, row := range rows {
		if i == 0 || row.RuleID != current {
			current = row.RuleID
			shaded = !shaded
		}
		if shaded {
			colors[i] = ZebraShadedColor
		} else {
			colors[i] = ZebraPlainColor
		}
	}
	return colors
}
