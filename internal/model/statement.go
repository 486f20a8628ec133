package model

import "github.com/shopspring/decimal"

// RowType distinguishes leaf lines from computed subtotal rows.
type RowType string

const (
	RowLine     RowType = "line"
	RowSubtotal RowType = "subtotal"
)

// StatementRow is one presented line of the P&L.
type StatementRow struct {
	CategoryKey string
	DisplayName string
	Amount      decimal.Decimal
	Type        RowType
}

// Statement is the derived IFRS 18 presentation: leaf rows interleaved with
// subtotal rows, ending in "Profit for the period". Never mutated directly;
// recomputed whenever classifications change.
type Statement struct {
	Rows []StatementRow
}

// Total returns the final "Profit for the period" amount.
func (s Statement) Total() decimal.Decimal {
	if len(s.Rows) == 0 {
		return decimal.Zero
	}
	return s.Rows[len(s.Rows)-1].Amount
}

// Row returns the first row with the given category key.
func (s Statement) Row(key string) (StatementRow, bool) {
	for _, r := range s.Rows {
		if r.CategoryKey == key {
			return r, true
		}
	}
	return StatementRow{}, false
}

// Equal reports whether two statements have identical rows and amounts.
func (s Statement) Equal(other Statement) bool {
	if len(s.Rows) != len(other.Rows) {
		return false
	}
	for i, r := range s.Rows {
		o := other.Rows[i]
		if r.CategoryKey != o.CategoryKey || r.DisplayName != o.DisplayName ||
			r.Type != o.Type || !r.Amount.Equal(o.Amount) {
			return false
		}
	}
	return true
}
