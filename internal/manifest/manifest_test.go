package manifest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/fund-compliance/internal/compliance"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.xlsx")

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.ErrorIs(t, err, ErrManifestNotFound)
}

func TestLoad_MissingSheet(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{{"rule_id"}, {"R001"}})
	_, err := Load(path)
	require.ErrorIs(t, err, ErrMissingSheet)
}

func TestLoad_MissingRuleIDColumn(t *testing.T) {
	path := writeWorkbook(t, SheetName, [][]any{{"rule_text", "enabled"}, {"max 60% of portfolio in Equity", "TRUE"}})
	_, err := Load(path)
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoad_ParsesRows(t *testing.T) {
	path := writeWorkbook(t, SheetName, [][]any{
		{"Rule_ID", "RULE_TEXT", "Threshold_Override", "Enabled", "Category", "Notes", "owner"},
		{"R001", "max 60% of portfolio in Equity", "", "TRUE", "Asset Class", "IPS", "alice"},
		{"R002", "no restricted", "", "false", "Regulatory", ""},
		{"R003", "country cap", 25, "", "Concentration"},
		{"", "orphan text", "", "TRUE"},
		{" R099 ", "unknown", "abc", "yes"},
	})

	defs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, defs, 4)

	assert.Equal(t, "R001", defs[0].RuleID)
	assert.Equal(t, "max 60% of portfolio in Equity", defs[0].RuleText)
	assert.Equal(t, "Asset Class", defs[0].Category)
	assert.Equal(t, "IPS", defs[0].Notes)
	assert.True(t, defs[0].Enabled)

	assert.False(t, defs[1].Enabled)

	assert.Equal(t, "25", defs[2].ThresholdOverride)
	assert.True(t, defs[2].Enabled, "blank enabled defaults to TRUE")

	assert.Equal(t, "R099", defs[3].RuleID)
	assert.Equal(t, "abc", defs[3].ThresholdOverride)
	assert.False(t, defs[3].Enabled, "only TRUE enables a rule")
}

func TestLoad_TypedCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", SheetName))
	header := []any{"rule_id", "threshold_override", "enabled"}
	require.NoError(t, f.SetSheetRow(SheetName, "A1", &header))

	require.NoError(t, f.SetCellValue(SheetName, "A2", "R001"))
	require.NoError(t, f.SetCellFloat(SheetName, "B2", 55.5, -1, 64))
	require.NoError(t, f.SetCellBool(SheetName, "C2", false))

	percent, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(SheetName, "A3", "R005"))
	require.NoError(t, f.SetCellFloat(SheetName, "B3", 0.35, -1, 64))
	require.NoError(t, f.SetCellStyle(SheetName, "B3", "B3", percent))
	require.NoError(t, f.SetCellBool(SheetName, "C3", true))

	thousands, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(SheetName, "A4", "R011"))
	require.NoError(t, f.SetCellInt(SheetName, "B4", 1500))
	require.NoError(t, f.SetCellStyle(SheetName, "B4", "B4", thousands))
	require.NoError(t, f.SetCellInt(SheetName, "C4", 1))

	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	defs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, defs, 3)

	assert.Equal(t, "55.5", defs[0].ThresholdOverride)
	assert.False(t, defs[0].Enabled)

	assert.Equal(t, "0.35", defs[1].ThresholdOverride, "percent format is display only")
	assert.True(t, defs[1].Enabled)

	assert.Equal(t, "1500", defs[2].ThresholdOverride)
	assert.False(t, defs[2].Enabled, "numeric 1 is not a boolean TRUE")
}

func TestLoad_WithoutEnabledColumn(t *testing.T) {
	path := writeWorkbook(t, SheetName, [][]any{{"rule_id"}, {"R001"}, {"R002"}})

	defs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	for _, def := range defs {
		assert.True(t, def.Enabled)
	}
}

func TestParseEnabled(t *testing.T) {
	tests := map[string]bool{
		"":       true,
		"  ":     true,
		"TRUE":   true,
		"true":   true,
		" True ": true,
		"FALSE":  false,
		"no":     false,
		"1":      false,
	}
	for raw, want := range tests {
		assert.Equal(t, want, ParseEnabled(raw), "ParseEnabled(%q)", raw)
	}
}

func TestSampleRules_CoverCatalogue(t *testing.T) {
	registry := compliance.DefaultRegistry()
	defs := SampleRules()
	require.Len(t, defs, registry.Len())

	for _, def := range defs {
		rule, err := registry.Lookup(def.RuleID)
		require.NoError(t, err, def.RuleID)
		assert.Equal(t, rule.Text, def.RuleText)
		assert.True(t, def.Enabled)
		assert.NotEmpty(t, def.Category)
	}
}

func TestWriteSample_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compliance_rules.xlsx")
	require.NoError(t, WriteSample(path, SampleRules()))

	defs, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, SampleRules(), defs)
}
