package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/fund-compliance/internal/model"
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Title.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.theme.Subtitle.Render(m.subtitle()))
	b.WriteString("\n\n")

	if m.view == ViewSummary {
		b.WriteString(m.summary.View())
	} else {
		b.WriteString(m.breaches.View())
	}

	b.WriteString("\n")
	b.WriteString(m.theme.Footer.Render(m.help.View(m.keymap)))
	return b.String()
}

func (m Model) subtitle() string {
	if m.view == ViewBreaches {
		rows := len(BreachesFor(m.report, m.ruleID))
		if m.ruleID == "" {
			return fmt.Sprintf("All breaches (%d)", rows)
		}
		return fmt.Sprintf("Breaches for %s (%d)", m.ruleID, rows)
	}

	tally := m.report.Tally()
	parts := []string{
		m.theme.StatusPass.Render(fmt.Sprintf("%s %d", model.StatusPass, tally.Pass)),
		m.theme.StatusFail.Render(fmt.Sprintf("%s %d", model.StatusFail, tally.Fail)),
		m.theme.StatusError.Render(fmt.Sprintf("%s %d", model.StatusError, tally.Error)),
		m.theme.StatusSkip.Render(fmt.Sprintf("%s %d", model.StatusSkipped, tally.Skipped)),
		fmt.Sprintf("breaches %d", tally.Breaches),
	}
	return strings.Join(parts, "  ")
}
