package model

import "time"

// SummaryRow is one line of the Summary sheet.
type SummaryRow struct {
	MetricValue *float64
	Threshold   *float64
	RuleID      string
	RuleText    string
	Category    string
	Status      Status
	Unit        string
	Message     string
	Notes       string
	BreachCount int
}

// BreachRow is one line of the Breaches sheet, tagged with its owning rule.
type BreachRow struct {
	RuleID      string
	RuleText    string
	Identifier  string
	Description string
	Unit        string
	Value       float64
}

// Tally counts rule outcomes for a run.
type Tally struct {
	Pass     int
	Fail     int
	Error    int
	Skipped  int
	Breaches int
}

// Total is the number of rules in the run.
func (t Tally) Total() int {
	return t.Pass + t.Fail + t.Error + t.Skipped
}

// Enabled is the number of rules that were not skipped.
func (t Tally) Enabled() int {
	return t.Total() - t.Skipped
}

// TallyRows counts statuses and breaches over summary rows.
func TallyRows(rows []SummaryRow) Tally {
	var t Tally
	for _, row := range rows {
		switch row.Status {
		case StatusPass:
			t.Pass++
		case StatusFail:
			t.Fail++
		case StatusError:
			t.Error++
		case StatusSkipped:
			t.Skipped++
		}
		t.Breaches += row.BreachCount
	}
	return t
}

// RunReport is everything a batch run produces.
type RunReport struct {
	AsOf     time.Time
	Fund     *Fund
	Summary  []SummaryRow
	Breaches []BreachRow
	FundID   int64
}

// Tally counts the outcomes in the report.
func (r *RunReport) Tally() Tally {
	return TallyRows(r.Summary)
}
