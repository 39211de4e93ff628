package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/fund-compliance/internal/common"
	"github.com/Veraticus/fund-compliance/internal/manifest"
	"github.com/Veraticus/fund-compliance/internal/model"
	"github.com/Veraticus/fund-compliance/internal/report"
	"github.com/Veraticus/fund-compliance/internal/testutil"
)

var testAsOf = time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC)

func TestParseAsOf(t *testing.T) {
	now := time.Date(2024, 5, 6, 15, 4, 5, 0, time.Local)

	got, err := parseAsOf("", now)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-06", got.Format(dateLayout))

	got, err = parseAsOf("2024-03-29", now)
	require.NoError(t, err)
	assert.True(t, got.Equal(testAsOf))

	_, err = parseAsOf("29/03/2024", now)
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.UserMessage, "YYYY-MM-DD")
}

func TestResolveOutputPath(t *testing.T) {
	assert.Equal(t, "out.xlsx", resolveOutputPath("out.xlsx", "/reports", 1, testAsOf))
	assert.Equal(t,
		filepath.Join("/reports", "compliance_results_7_20240329.xlsx"),
		resolveOutputPath("", "/reports", 7, testAsOf))
}

func TestLoadManifest(t *testing.T) {
	var out bytes.Buffer
	defs, err := loadManifest(&out, "")
	require.NoError(t, err)
	assert.Len(t, defs, 12)
	assert.Contains(t, out.String(), "bundled sample")
	assert.Contains(t, out.String(), "Loaded 12 rules (12 enabled)")

	_, err = loadManifest(&out, filepath.Join(t.TempDir(), "missing.xlsx"))
	require.ErrorIs(t, err, manifest.ErrManifestNotFound)
}

func TestExecuteRun_EndToEnd(t *testing.T) {
	db := testutil.SetupTestDB(t,
		[]model.Fund{{ID: 1, Name: "Balanced Fund", AUMUSD: 250}},
		testutil.NewFund(1).Equity("EQ1", 70).Bond("BD1", 20).Cash("CASH", 10).Positions(),
	)

	dir := t.TempDir()
	input := filepath.Join(dir, "rules.xlsx")
	defs := manifest.SampleRules()
	defs[0].ThresholdOverride = "abc"
	defs[1].Enabled = false
	defs = append(defs, model.RuleDefinition{RuleID: "R099", RuleText: "unknown rule", Enabled: true})
	require.NoError(t, manifest.WriteSample(input, defs))

	var out, progress bytes.Buffer
	loaded, err := loadManifest(&out, input)
	require.NoError(t, err)

	opts := runOptions{
		fundID: 1,
		asOf:   testAsOf,
		input:  input,
		output: filepath.Join(dir, "nested", report.FileName(1, "2024-03-29")),
	}
	result, err := executeRun(context.Background(), &out, &progress, db.Storage, report.NewExcelWriter(nil), loaded, opts)
	require.NoError(t, err)

	_, err = os.Stat(opts.output)
	require.NoError(t, err)

	tally := result.Tally()
	assert.Equal(t, 13, tally.Total())
	assert.Equal(t, 1, tally.Skipped)
	assert.Equal(t, 1, tally.Error)

	r001 := result.Summary[0]
	assert.Equal(t, model.StatusFail, r001.Status)
	require.NotNil(t, r001.Threshold)
	assert.InDelta(t, 60.0, *r001.Threshold, 1e-9)

	last := result.Summary[len(result.Summary)-1]
	assert.Equal(t, "no function registered for rule_id 'R099'", last.Message)

	written, err := report.Read(opts.output)
	require.NoError(t, err)
	assert.Equal(t, result.Tally(), written.Tally())
	assert.Len(t, written.Breaches, len(result.Breaches))

	assert.Contains(t, out.String(), "Compliance Batch Run Complete")
	assert.Contains(t, out.String(), "Balanced Fund (id 1)")
}

func TestExecuteRun_Cancelled(t *testing.T) {
	db := testutil.SetupTestDB(t, nil, testutil.NewFund(1).Equity("EQ1", 100).Positions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	output := filepath.Join(t.TempDir(), "never.xlsx")
	var out bytes.Buffer
	_, err := executeRun(ctx, &out, &out, db.Storage, report.NewExcelWriter(nil), manifest.SampleRules(), runOptions{
		fundID: 1, asOf: testAsOf, output: output,
	})
	require.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "no report is written on cancel")
}

type failingWriter struct {
	calls int
}

func (w *failingWriter) Write(context.Context, *model.RunReport, string) error {
	w.calls++
	return errors.New("disk full")
}

func TestExecuteRun_WriteFailure(t *testing.T) {
	db := testutil.SetupTestDB(t, nil, testutil.NewFund(1).Equity("EQ1", 100).Positions())

	writer := &failingWriter{}
	var out bytes.Buffer
	_, err := executeRun(context.Background(), &out, &out, db.Storage, writer, manifest.SampleRules(), runOptions{
		fundID: 1, asOf: testAsOf, output: filepath.Join(t.TempDir(), "out.xlsx"),
	})

	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "Could not write the compliance report", userErr.UserMessage)
	assert.Equal(t, 1, writer.calls)
	assert.NotContains(t, out.String(), "Compliance Batch Run Complete")
}

func TestCommands_Registered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "rules", "sample-rules", "migrate", "review", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRulesCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := rulesCmd()
	cmd.SetOut(&out)
	require.NoError(t, cmd.RunE(cmd, nil))
	assert.Contains(t, out.String(), "R012")
	assert.Contains(t, out.String(), "top 5 holdings max 80% of portfolio")
}

func TestSampleRulesCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.xlsx")
	var out bytes.Buffer
	cmd := sampleRulesCmd()
	cmd.SetOut(&out)
	require.NoError(t, cmd.RunE(cmd, []string{path}))

	defs, err := manifest.Load(path)
	require.NoError(t, err)
	assert.Len(t, defs, 12)
	assert.Contains(t, out.String(), "12 rules")
}
