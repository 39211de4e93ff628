package manifest

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/fund-compliance/internal/model"
)

// SampleRules returns the bundled manifest covering the whole catalogue
// with default thresholds.
func SampleRules() []model.RuleDefinition {
	rule := func(id, text, category, notes string) model.RuleDefinition {
		return model.RuleDefinition{
			RuleID:   id,
			RuleText: text,
			Category: category,
			Notes:    notes,
			Enabled:  true,
		}
	}

	return []model.RuleDefinition{
		rule("R001", "max 60% of portfolio in Equity", "Asset Class", "Equity concentration limit per IPS"),
		rule("R002", "no positions with Restricted compliance status", "Regulatory", "Sanctions / restricted list requirement"),
		rule("R003", "max 30% of portfolio in any single country", "Concentration", ""),
		rule("R004", "max 30% of portfolio in any single sector", "Concentration", ""),
		rule("R005", "max 40% of portfolio in Bonds", "Asset Class", "Fixed income limit per mandate"),
		rule("R006", "min 2% of portfolio in Cash", "Liquidity", "Minimum liquidity buffer"),
		rule("R007", "no single position to exceed 15% of NAV", "Concentration", "Single-name concentration limit"),
		rule("R008", "max 20% of portfolio in Review status positions", "Regulatory", "Positions under compliance review"),
		rule("R009", "max 15% of portfolio in Commodity", "Asset Class", "Commodity exposure limit"),
		rule("R010", "max 50% of portfolio in Equity plus ETF combined", "Asset Class", "Equity-like instruments combined cap"),
		rule("R011", "minimum 10 positions in portfolio", "Diversification", "Minimum diversification requirement"),
		rule("R012", "top 5 holdings max 80% of portfolio", "Concentration", "Under review, threshold may be tightened"),
	}
}

// WriteSample writes defs as a manifest workbook at path.
func WriteSample(path string, defs []model.RuleDefinition) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, def := range defs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			def.RuleID,
			def.RuleText,
			def.ThresholdOverride,
			strings.ToUpper(fmt.Sprint(def.Enabled)),
			def.Category,
			def.Notes,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write rule %s: %w", def.RuleID, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}
