// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/liquidity-scanner/pkg/ui/theme"
)

// EvaluationRow is one token/venue evaluation, already formatted for display.
type EvaluationRow struct {
	Symbol    string
	Venue     string
	Price     string
	Bid       string
	Ask       string
	Forward   string
	Reverse   string
	Ratio     string
	Movable   string
	Liquidity string
}

func (r EvaluationRow) cells() table.Row {
	return table.Row{r.Symbol, r.Venue, r.Price, r.Bid, r.Ask, r.Forward, r.Reverse, r.Ratio, r.Movable, r.Liquidity}
}

var evaluationColumns = []table.Column{
	{Title: "Token", Width: 10},
	{Title: "Venue", Width: 8},
	{Title: "DEX $", Width: 12},
	{Title: "Bid", Width: 12},
	{Title: "Ask", Width: 12},
	{Title: "Fwd %", Width: 9},
	{Title: "Rev %", Width: 9},
	{Title: "Ratio", Width: 7},
	{Title: "Move", Width: 5},
	{Title: "Liq", Width: 8},
}

// EvaluationsComponent renders the ranked evaluation table.
type EvaluationsComponent struct {
	table table.Model
	total int
	debug bool
}

// NewEvaluationsComponent creates an empty table showing height rows.
func NewEvaluationsComponent(height int) *EvaluationsComponent {
	t := table.New(
		table.WithColumns(evaluationColumns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(true).
		Foreground(theme.Accent)
	s.Selected = s.Selected.
		Foreground(theme.Text).
		Background(theme.AccentDim).
		Bold(false)
	t.SetStyles(s)

	return &EvaluationsComponent{table: t}
}

// Update replaces the rows. total is the number of evaluations before the display filter.
func (e *EvaluationsComponent) Update(rows []EvaluationRow, total int, debug bool) {
	cells := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, r.cells())
	}
	e.table.SetRows(cells)
	e.total = total
	e.debug = debug
}

// Len returns the number of displayed rows.
func (e *EvaluationsComponent) Len() int {
	return len(e.table.Rows())
}

// SetHeight sets the visible row count.
func (e *EvaluationsComponent) SetHeight(h int) {
	if h < 3 {
		h = 3
	}
	e.table.SetHeight(h)
}

func (e *EvaluationsComponent) ScrollUp()   { e.table.MoveUp(1) }
func (e *EvaluationsComponent) ScrollDown() { e.table.MoveDown(1) }

// Clear removes all rows.
func (e *EvaluationsComponent) Clear() {
	e.table.SetRows(nil)
	e.total = 0
}

// View renders the component.
func (e *EvaluationsComponent) View() string {
	headerStyle := theme.Heading
	mutedStyle := theme.Dim

	title := "OPPORTUNITIES"
	if e.debug {
		title = "ALL EVALUATIONS (debug)"
	}
	header := headerStyle.Render(title) +
		mutedStyle.Render(fmt.Sprintf("  %d shown of %d", e.Len(), e.total))

	if e.Len() == 0 {
		return header + "\n\n" + mutedStyle.Render("  Nothing above threshold this tick...")
	}
	return header + "\n\n" + e.table.View()
}
