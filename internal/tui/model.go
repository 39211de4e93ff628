// Package tui provides the interactive review of a written compliance report.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/fund-compliance/internal/compliance"
	"github.com/Veraticus/fund-compliance/internal/model"
	"github.com/Veraticus/fund-compliance/internal/tui/themes"
)

// View is the table currently on screen.
type View int

// Views.
const (
	ViewSummary View = iota
	ViewBreaches
)

const chromeHeight = 6

// Model is the bubbletea model for report review.
type Model struct {
	report   *model.RunReport
	theme    themes.Theme
	keymap   KeyMap
	help     help.Model
	summary  table.Model
	breaches table.Model
	ruleID   string
	title    string
	view     View
	width    int
	height   int
}

// NewModel builds a review model over report. title is shown in the header.
func NewModel(report *model.RunReport, title string) Model {
	theme := themes.Default
	m := Model{
		report: report,
		theme:  theme,
		keymap: DefaultKeyMap(),
		help:   help.New(),
		title:  title,
		view:   ViewSummary,
		width:  120,
		height: 30,
	}

	m.summary = newTable(theme, summaryColumns(), summaryRows(report.Summary))
	m.breaches = newTable(theme, breachColumns(), nil)
	m.breaches.Blur()
	m.resize()
	return m
}

func newTable(theme themes.Theme, columns []table.Column, rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	s := table.DefaultStyles()
	s.Header = theme.Header
	s.Selected = theme.Selected
	t.SetStyles(s)
	return t
}

func summaryColumns() []table.Column {
	return []table.Column{
		{Title: "Rule", Width: 6},
		{Title: "Status", Width: 8},
		{Title: "Metric", Width: 9},
		{Title: "Threshold", Width: 9},
		{Title: "Breaches", Width: 8},
		{Title: "Rule text", Width: 40},
		{Title: "Message", Width: 50},
	}
}

func breachColumns() []table.Column {
	return []table.Column{
		{Title: "Rule", Width: 6},
		{Title: "Identifier", Width: 14},
		{Title: "Description", Width: 36},
		{Title: "Value", Width: 9},
		{Title: "Unit", Width: 9},
	}
}

func summaryRows(rows []model.SummaryRow) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, table.Row{
			row.RuleID,
			string(row.Status),
			formatOptional(row.MetricValue),
			formatOptional(row.Threshold),
			fmt.Sprintf("%d", row.BreachCount),
			row.RuleText,
			firstLine(row.Message),
		})
	}
	return out
}

func breachRows(rows []model.BreachRow) []table.Row {
	out := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		out = append(out, table.Row{
			row.RuleID,
			row.Identifier,
			row.Description,
			compliance.FormatThreshold(row.Value),
			row.Unit,
		})
	}
	return out
}

// BreachesFor returns the breach rows of ruleID, or every row when ruleID is empty.
func BreachesFor(report *model.RunReport, ruleID string) []model.BreachRow {
	if ruleID == "" {
		return report.Breaches
	}
	var out []model.BreachRow
	for _, row := range report.Breaches {
		if row.RuleID == ruleID {
			out = append(out, row)
		}
	}
	return out
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return compliance.FormatThreshold(*v)
}

func firstLine(s string) string {
	return strings.SplitN(s, "\n", 2)[0]
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keymap.Select) && m.view == ViewSummary:
			if row := m.summary.SelectedRow(); row != nil {
				m.showBreaches(row[0])
			}
			return m, nil
		case key.Matches(msg, m.keymap.All) && m.view == ViewSummary:
			m.showBreaches("")
			return m, nil
		case key.Matches(msg, m.keymap.Back) && m.view == ViewBreaches:
			m.view = ViewSummary
			m.breaches.Blur()
			m.summary.Focus()
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.view == ViewSummary {
		m.summary, cmd = m.summary.Update(msg)
	} else {
		m.breaches, cmd = m.breaches.Update(msg)
	}
	return m, cmd
}

func (m *Model) showBreaches(ruleID string) {
	m.ruleID = ruleID
	m.breaches.SetRows(breachRows(BreachesFor(m.report, ruleID)))
	m.breaches.SetCursor(0)
	m.view = ViewBreaches
	m.summary.Blur()
	m.breaches.Focus()
}

func (m *Model) resize() {
	h := max(m.height-chromeHeight, 3)
	m.summary.SetHeight(h)
	m.breaches.SetHeight(h)
}

// CurrentView reports which table is shown.
func (m Model) CurrentView() View {
	return m.view
}

// SelectedRule is the rule whose breaches are shown; empty means all.
func (m Model) SelectedRule() string {
	return m.ruleID
}
