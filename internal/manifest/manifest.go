// Package manifest reads and writes rule manifests: xlsx workbooks with a
// Rules sheet listing which catalogue rules to run and how.
package manifest

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/fund-compliance/internal/model"
)

// SheetName is the worksheet a manifest must contain.
const SheetName = "Rules"

// Manifest column headers.
const (
	ColumnRuleID            = "rule_id"
	ColumnRuleText          = "rule_text"
	ColumnThresholdOverride = "threshold_override"
	ColumnEnabled           = "enabled"
	ColumnCategory          = "category"
	ColumnNotes             = "notes"
)

// Columns is the header order written by WriteSample.
var Columns = []string{
	ColumnRuleID,
	ColumnRuleText,
	ColumnThresholdOverride,
	ColumnEnabled,
	ColumnCategory,
	ColumnNotes,
}

// Manifest errors.
var (
	ErrManifestNotFound = errors.New("manifest file not found")
	ErrMissingSheet     = errors.New("manifest must contain a sheet named 'Rules'")
	ErrMissingColumn    = errors.New("manifest is missing a required column")
)

// Load reads the Rules sheet of the workbook at path. Headers are matched
// case-insensitively and unknown columns are ignored.
func Load(path string) ([]model.RuleDefinition, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat manifest: %w", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Debug("Failed to close manifest", "path", path, "error", closeErr)
		}
	}()

	if !slices.Contains(f.GetSheetList(), SheetName) {
		return nil, fmt.Errorf("%w: %s", ErrMissingSheet, path)
	}

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s sheet: %w", SheetName, err)
	}
	if err := normalizeBoolCells(f, rows); err != nil {
		return nil, err
	}

	return parseRows(rows)
}

// normalizeBoolCells rewrites boolean cells, which read raw as "1" or "0",
// to TRUE or FALSE.
func normalizeBoolCells(f *excelize.File, rows [][]string) error {
	for r, row := range rows {
		for c, v := range row {
			if v != "1" && v != "0" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			cellType, err := f.GetCellType(SheetName, name)
			if err != nil {
				return fmt.Errorf("failed to read %s!%s: %w", SheetName, name, err)
			}
			if cellType != excelize.CellTypeBool {
				continue
			}
			if v == "1" {
				rows[r][c] = "TRUE"
			} else {
				rows[r][c] = "FALSE"
			}
		}
	}
	return nil
}

// parseRows converts raw sheet rows, header first, into definitions.
func parseRows(rows [][]string) ([]model.RuleDefinition, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnRuleID)
	}

	index := headerIndex(rows[0])
	if _, ok := index[ColumnRuleID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnRuleID)
	}

	defs := make([]model.RuleDefinition, 0, len(rows)-1)
	for i, row := range rows[1:] {
		cell := func(column string) string {
			idx, ok := index[column]
			if !ok || idx >= len(row) {
				return ""
			}
			return row[idx]
		}

		ruleID := strings.TrimSpace(cell(ColumnRuleID))
		if ruleID == "" {
			if !blankRow(row) {
				slog.Warn("Skipping manifest row without rule_id", "row", i+2)
			}
			continue
		}

		defs = append(defs, model.RuleDefinition{
			RuleID:            ruleID,
			RuleText:          strings.TrimSpace(cell(ColumnRuleText)),
			Category:          strings.TrimSpace(cell(ColumnCategory)),
			ThresholdOverride: strings.TrimSpace(cell(ColumnThresholdOverride)),
			Notes:             strings.TrimSpace(cell(ColumnNotes)),
			Enabled:           ParseEnabled(cell(ColumnEnabled)),
		})
	}

	return defs, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	return index
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ParseEnabled interprets an enabled cell: blank means enabled, otherwise
// only TRUE (any case) enables the rule.
func ParseEnabled(raw string) bool {
	v := strings.TrimSpace(raw)
	if v == "" {
		return true
	}
	return strings.EqualFold(v, "TRUE")
}
