package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/fund-compliance/internal/compliance"
	"github.com/Veraticus/fund-compliance/internal/model"
)

const dateLayout = "2006-01-02"

// LoadedMessage reports how many manifest rows were loaded.
func LoadedMessage(defs []model.RuleDefinition) string {
	enabled := 0
	for _, def := range defs {
		if def.Enabled {
			enabled++
		}
	}
	return fmt.Sprintf("Loaded %d rules (%d enabled)", len(defs), enabled)
}

// FundLabel names the fund for display.
func FundLabel(report *model.RunReport) string {
	if report.Fund != nil && report.Fund.Name != "" {
		return fmt.Sprintf("%s (id %d)", report.Fund.Name, report.FundID)
	}
	return fmt.Sprintf("%d", report.FundID)
}

// RenderRunSummary renders the end-of-run counts box.
func RenderRunSummary(report *model.RunReport, outputPath string) string {
	tally := report.Tally()

	var b strings.Builder
	fmt.Fprintf(&b, "Fund:        %s\n", FundLabel(report))
	if report.Fund != nil && report.Fund.AUMUSD > 0 {
		fmt.Fprintf(&b, "AUM:         $%.1fm\n", report.Fund.AUMUSD)
	}
	fmt.Fprintf(&b, "As of date:  %s\n", report.AsOf.Format(dateLayout))
	fmt.Fprintf(&b, "Rules run:   %d  (%d enabled, %d skipped)\n", tally.Total(), tally.Enabled(), tally.Skipped)
	b.WriteString(SubtleStyle.Render(strings.Repeat("─", 40)) + "\n")
	fmt.Fprintf(&b, "%s  %d\n", padStatus(model.StatusPass), tally.Pass)
	fmt.Fprintf(&b, "%s  %d\n", padStatus(model.StatusFail), tally.Fail)
	fmt.Fprintf(&b, "%s  %d\n", padStatus(model.StatusError), tally.Error)
	fmt.Fprintf(&b, "%s  %d\n", padStatus(model.StatusSkipped), tally.Skipped)
	b.WriteString(SubtleStyle.Render(strings.Repeat("─", 40)) + "\n")
	fmt.Fprintf(&b, "Total breaches: %d\n", tally.Breaches)
	if outputPath != "" {
		fmt.Fprintf(&b, "Output file: %s", outputPath)
	}

	return RenderBox("Compliance Batch Run Complete", strings.TrimRight(b.String(), "\n"))
}

func padStatus(status model.Status) string {
	return FormatStatus(status) + strings.Repeat(" ", max(0, 9-len(status)))
}

// WriteResultsTable prints one line per summary row.
func WriteResultsTable(w io.Writer, rows []model.SummaryRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "RULE\tSTATUS\tMETRIC\tTHRESHOLD\tBREACHES\tMESSAGE"); err != nil {
		return err
	}
	for _, row := range rows {
		message := strings.SplitN(row.Message, "\n", 2)[0]
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			row.RuleID,
			row.Status,
			formatOptional(row.MetricValue),
			formatOptional(row.Threshold),
			row.BreachCount,
			message,
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteRulesTable prints the registered rule catalogue.
func WriteRulesTable(w io.Writer, rules []compliance.Rule) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tTYPE\tDEFAULT\tUNIT\tRULE"); err != nil {
		return err
	}
	for _, rule := range rules {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			rule.ID,
			rule.Type,
			compliance.FormatThreshold(rule.DefaultThreshold),
			rule.Unit,
			rule.Text,
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func formatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return compliance.FormatThreshold(*v)
}
