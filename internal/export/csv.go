// Package export serializes the statement and ledger for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/restated-dev/restated/internal/ledger"
	"github.com/restated-dev/restated/internal/model"
)

// StatementHeader is the CSV header for the statement export.
const StatementHeader = "category_key,display_name,amount,row_type"

// WriteStatement writes the statement as flat CSV rows.
func WriteStatement(w io.Writer, stmt model.Statement) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(StatementHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range stmt.Rows {
		record := []string{
			row.CategoryKey,
			row.DisplayName,
			row.Amount.StringFixed(2),
			string(row.Type),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// WriteLedger writes the full audit ledger export.
func WriteLedger(w io.Writer, entries []model.LedgerEntry) error {
	return ledger.WriteEntries(w, entries)
}
