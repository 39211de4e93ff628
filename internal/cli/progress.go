package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/fund-compliance/internal/model"
)

const maxDescriptionText = 60

// ProgressObserver drives a progress bar as the batch runner walks a manifest.
type ProgressObserver struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
}

// NewProgressObserver creates a bar sized for total rules.
func NewProgressObserver(writer io.Writer, total int) *ProgressObserver {
	o := &ProgressObserver{writer: writer}
	o.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Running compliance checks...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return o
}

// RuleStarted shows which rule is being checked.
func (o *ProgressObserver) RuleStarted(def model.RuleDefinition) {
	o.bar.Describe(RuleDescription(def))
}

// RuleFinished advances the bar.
func (o *ProgressObserver) RuleFinished(model.SummaryRow) {
	if err := o.bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Finish completes the bar even if rules were cut short.
func (o *ProgressObserver) Finish() {
	if err := o.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}

// RuleDescription is the progress label for a rule, text truncated to 60 runes.
func RuleDescription(def model.RuleDefinition) string {
	if !def.Enabled {
		return fmt.Sprintf("Skipping %s", def.RuleID)
	}
	text := []rune(def.RuleText)
	if len(text) > maxDescriptionText {
		text = text[:maxDescriptionText]
	}
	if len(text) == 0 {
		return fmt.Sprintf("Checking %s", def.RuleID)
	}
	return fmt.Sprintf("Checking %s: %s", def.RuleID, string(text))
}
