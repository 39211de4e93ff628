package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/fund-compliance/internal/model"
)

// Run shows the review UI until the user quits or ctx is canceled.
func Run(ctx context.Context, report *model.RunReport, title string, in io.Reader, out io.Writer) error {
	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}

	if _, err := tea.NewProgram(NewModel(report, title), opts...).Run(); err != nil {
		return fmt.Errorf("review UI failed: %w", err)
	}
	return nil
}
