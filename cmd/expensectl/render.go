package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"smartexpense/internal/core"
)

const (
	barWidth        = 30
	msgNoExpenses   = "No expenses recorded."
	msgNoReportData = "No report data available for this month."
)

var timeNow = time.Now

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	nameStyle  = lipgloss.NewStyle().Width(16)
)

func renderCategories(cats []core.Category) string {
	t := table.New().Border(lipgloss.NormalBorder()).Headers("ID", "Name")
	for _, c := range cats {
		t.Row(strconv.FormatInt(c.ID, 10), c.Name)
	}
	return t.Render()
}

func renderExpenses(expenses []core.Expense, cats []core.Category) string {
	if len(expenses) == 0 {
		return mutedStyle.Render(msgNoExpenses)
	}
	t := table.New().Border(lipgloss.NormalBorder()).Headers("ID", "Date", "Category", "Amount", "Note")
	for _, e := range expenses {
		t.Row(
			strconv.FormatInt(e.ID, 10),
			e.Date,
			core.CategoryName(cats, e.CategoryID),
			core.FormatMoney(e.Amount),
			e.NoteText(),
		)
	}
	return t.Render()
}

// renderReport draws one bar per category, scaled to the largest total and
// coloured from the chart palette.
func renderReport(year, month int, r core.Report) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Report %d-%s", year, core.PadMonth(month))))
	b.WriteString("\n")
	if r.IsEmpty() {
		b.WriteString(mutedStyle.Render(msgNoReportData))
		return b.String()
	}

	peak := decimal.Zero
	for _, row := range r.ExpensesByCategory {
		if row.TotalAmount.GreaterThan(peak) {
			peak = row.TotalAmount
		}
	}
	for i, row := range r.ExpensesByCategory {
		b.WriteString(nameStyle.Render(row.CategoryName))
		b.WriteString(" ")
		if n := barLength(row.TotalAmount, peak); n > 0 {
			bar := lipgloss.NewStyle().Foreground(lipgloss.Color(core.ColorAt(i))).Render(strings.Repeat("█", n))
			b.WriteString(bar)
			b.WriteString(" ")
		}
		b.WriteString(core.FormatMoney(row.TotalAmount))
		b.WriteString("\n")
	}
	b.WriteString(titleStyle.Render("Total: " + core.FormatMoney(r.TotalExpenses)))
	return b.String()
}

func barLength(v, peak decimal.Decimal) int {
	if !v.IsPositive() || !peak.IsPositive() {
		return 0
	}
	n := int(v.Div(peak).Mul(decimal.NewFromInt(barWidth)).Round(0).IntPart())
	if n < 1 {
		n = 1
	}
	return n
}
