// Package statement derives the IFRS 18 P&L presentation from a
// classification set and a resolved taxonomy.
package statement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/restated-dev/restated/internal/model"
	"github.com/restated-dev/restated/internal/taxonomy"
)

// Compute aggregates leaf amounts and walks the taxonomy bottom-up to
// produce the ordered statement: every leaf appears (zero when nothing
// mapped to it) and every mandated subtotal row follows its section,
// ending in "Profit for the period".
//
// Amounts are signed (credits positive, debits negative), so each
// internal node's value is the plain sum of its children. Deterministic
// and side-effect free: identical inputs yield identical output.
func Compute(classifications []model.Classification, tax *taxonomy.Taxonomy) (model.Statement, error) {
	totals := make(map[string]decimal.Decimal)
	for _, c := range classifications {
		if !tax.IsLeaf(c.CategoryKey) {
			return model.Statement{}, fmt.Errorf("classification for line %q targets unknown or non-leaf category %q", c.SourceLineID, c.CategoryKey)
		}
		totals[c.CategoryKey] = totals[c.CategoryKey].Add(c.Amount)
	}

	var stmt model.Statement
	walk(tax, tax.Root().Key, totals, &stmt)
	return stmt, nil
}

// walk emits leaf rows in declaration order and subtotal rows post-order,
// returning the node's aggregated value.
func walk(tax *taxonomy.Taxonomy, key string, totals map[string]decimal.Decimal, stmt *model.Statement) decimal.Decimal {
	cat, _ := tax.Get(key)

	if tax.IsLeaf(key) {
		amount := totals[key]
		stmt.Rows = append(stmt.Rows, model.StatementRow{
			CategoryKey: key,
			DisplayName: cat.DisplayName,
			Amount:      amount,
			Type:        model.RowLine,
		})
		return amount
	}

	sum := decimal.Zero
	for _, child := range tax.Children(key) {
		sum = sum.Add(walk(tax, child, totals, stmt))
	}

	if cat.Role != "" {
		stmt.Rows = append(stmt.Rows, model.StatementRow{
			CategoryKey: key,
			DisplayName: cat.DisplayName,
			Amount:      sum,
			Type:        model.RowSubtotal,
		})
	}
	return sum
}
