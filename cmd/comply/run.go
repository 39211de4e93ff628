package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/fund-compliance/internal/batch"
	"github.com/Veraticus/fund-compliance/internal/cli"
	"github.com/Veraticus/fund-compliance/internal/common"
	"github.com/Veraticus/fund-compliance/internal/compliance"
	"github.com/Veraticus/fund-compliance/internal/config"
	"github.com/Veraticus/fund-compliance/internal/manifest"
	"github.com/Veraticus/fund-compliance/internal/model"
	"github.com/Veraticus/fund-compliance/internal/report"
	"github.com/Veraticus/fund-compliance/internal/service"
	"github.com/Veraticus/fund-compliance/internal/sheets"
)

const dateLayout = "2006-01-02"

type runOptions struct {
	asOf    time.Time
	input   string
	output  string
	fundID  int64
	details bool
	publish bool
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the compliance rule batch for a fund",
		Long: `Evaluate every rule in the manifest against the fund's positions and
write the Summary and Breaches sheets to an xlsx report.

The command exits 0 whenever the report is written, even if rules FAIL
or ERROR. Without --input the configured manifest.path is used, and
without that the bundled sample catalogue.`,
		Example: `  comply run --fund-id 1
  comply run --fund-id 1 --date 2024-03-29 --input rules.xlsx --output out.xlsx`,
		RunE: runCompliance,
	}

	cmd.Flags().Int64("fund-id", 0, "fund id to check (required)")
	cmd.Flags().String("date", "", "as-of date YYYY-MM-DD (default: today)")
	cmd.Flags().String("input", "", "rule manifest xlsx (default: manifest.path or bundled sample)")
	cmd.Flags().String("output", "", "report path (default: <report.dir>/compliance_results_<fund>_<YYYYMMDD>.xlsx)")
	cmd.Flags().Bool("details", false, "print per-rule results after the summary")
	cmd.Flags().Bool("publish-sheets", false, "also publish results to Google Sheets")
	_ = cmd.MarkFlagRequired("fund-id")

	_ = viper.BindPFlag("sheets.enabled", cmd.Flags().Lookup("publish-sheets"))

	return cmd
}

func runCompliance(cmd *cobra.Command, _ []string) error {
	fundID, _ := cmd.Flags().GetInt64("fund-id")
	date, _ := cmd.Flags().GetString("date")
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	details, _ := cmd.Flags().GetBool("details")

	if fundID <= 0 {
		return common.NewUserError("--fund-id must be a positive integer", common.ErrInvalidFundID)
	}

	asOf, err := parseAsOf(date, time.Now())
	if err != nil {
		return err
	}

	if input == "" {
		input = config.ManifestPath(viper.GetViper())
	}

	opts := runOptions{
		fundID:  fundID,
		asOf:    asOf,
		input:   input,
		output:  resolveOutputPath(output, config.ReportDir(viper.GetViper()), fundID, asOf),
		details: details,
		publish: viper.GetBool("sheets.enabled"),
	}

	defs, err := loadManifest(cmd.OutOrStdout(), opts.input)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := openPositionStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Warn("Failed to close position store", "error", closeErr)
		}
	}()

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx = interrupts.HandleInterrupts(ctx)

	writer := report.NewExcelWriter(slog.Default())
	result, err := executeRun(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), store, writer, defs, opts)
	if err != nil {
		return err
	}

	if opts.publish {
		publishResults(ctx, cmd.OutOrStdout(), result)
	}
	return nil
}

// loadManifest reads the manifest at path, or returns the bundled sample.
func loadManifest(out io.Writer, path string) ([]model.RuleDefinition, error) {
	var defs []model.RuleDefinition
	if path == "" {
		fmt.Fprintln(out, cli.FormatInfo("Loading rules from: bundled sample catalogue"))
		defs = manifest.SampleRules()
	} else {
		fmt.Fprintln(out, cli.FormatInfo("Loading rules from: "+path))
		loaded, err := manifest.Load(path)
		if err != nil {
			return nil, common.NewUserError("Could not load rule manifest", err)
		}
		defs = loaded
	}
	fmt.Fprintln(out, cli.FormatSuccess(cli.LoadedMessage(defs)))
	return defs, nil
}

// executeRun evaluates defs and writes the report to opts.output.
func executeRun(ctx context.Context, out, progress io.Writer, store service.PositionStore, writer service.ReportWriter, defs []model.RuleDefinition, opts runOptions) (*model.RunReport, error) {
	fmt.Fprintf(out, "Running compliance checks for fund_id=%d, as_of=%s ...\n", opts.fundID, opts.asOf.Format(dateLayout))

	observer := cli.NewProgressObserver(progress, len(defs))
	runner := batch.NewRunner(store, compliance.DefaultRegistry(), batch.WithObserver(observer))

	result, err := runner.Run(ctx, defs, opts.fundID, opts.asOf)
	observer.Finish()
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(opts.output); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, common.NewUserError("Could not create report directory", err)
		}
	}

	if err := writer.Write(ctx, result, opts.output); err != nil {
		return nil, common.NewUserError("Could not write the compliance report", err)
	}

	fmt.Fprintln(out, cli.RenderRunSummary(result, opts.output))
	if opts.details {
		if err := cli.WriteResultsTable(out, result.Summary); err != nil {
			slog.Warn("Failed to print results table", "error", err)
		}
	}
	return result, nil
}

// publishResults never fails the run; a report has already been written.
func publishResults(ctx context.Context, out io.Writer, result *model.RunReport) {
	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		slog.Warn("Google Sheets publishing is not configured", "error", err)
		return
	}

	publisher, err := sheets.NewPublisher(ctx, *cfg, slog.Default())
	if err != nil {
		slog.Warn("Failed to create Google Sheets publisher", "error", err)
		return
	}

	id, err := publisher.Publish(ctx, result)
	if err != nil {
		slog.Warn("Failed to publish results to Google Sheets",
			"error", err,
			"retryable", common.IsRetryable(err))
		return
	}
	fmt.Fprintln(out, cli.FormatSuccess("Published to Google Sheets: https://docs.google.com/spreadsheets/d/"+id))
}

func parseAsOf(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("Invalid --date %q, expected YYYY-MM-DD", raw), err)
	}
	return t, nil
}

func resolveOutputPath(output, reportDir string, fundID int64, asOf time.Time) string {
	if output != "" {
		return output
	}
	return filepath.Join(reportDir, report.FileName(fundID, asOf.Format(dateLayout)))
}
