// Package render draws the statement for the terminal: subtotal rows
// emphasized, negatives bracketed.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/restated-dev/restated/internal/currency"
	"github.com/restated-dev/restated/internal/model"
)

const (
	nameWidth   = 50
	amountWidth = 20
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	nameStyle     = lipgloss.NewStyle().Width(nameWidth)
	amountStyle   = lipgloss.NewStyle().Align(lipgloss.Right).Width(amountWidth)
	negativeStyle = amountStyle.Foreground(lipgloss.Color("1"))
)

// Statement renders the full statement as styled terminal text.
func Statement(stmt model.Statement, currencyCode string) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Profit and Loss Statement ("+currencyCode+")") + "\n\n")

	for _, row := range stmt.Rows {
		name := nameStyle
		amt := amountStyle
		if row.Type == model.RowSubtotal {
			name = name.Bold(true)
			amt = amt.Bold(true)
		}
		if row.Amount.IsNegative() {
			amt = negativeStyle.Bold(row.Type == model.RowSubtotal)
		}

		amount := currency.FormatAccounting(row.Amount, currencyCode)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			name.Render(row.DisplayName), amt.Render(amount)) + "\n")

		if row.Type == model.RowSubtotal {
			b.WriteString("\n")
		}
	}
	return b.String()
}
