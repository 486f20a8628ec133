// Package ingest reads raw trial balance CSVs into normalized source
// lines for the engine.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/restated-dev/restated/internal/model"
)

// MaxFileSizeMB caps accepted trial balance uploads.
const MaxFileSizeMB = 20

const maxBytes = MaxFileSizeMB * 1024 * 1024

// Columns names the trial balance columns to read. Description is
// optional ("" means none).
type Columns struct {
	Account     string
	Debit       string
	Credit      string
	Description string
}

// GuessColumns infers account/debit/credit columns from a header row,
// preferring exact matches, then substring matches, then position.
func GuessColumns(header []string) Columns {
	find := func(patterns ...string) string {
		for _, p := range patterns {
			for _, c := range header {
				if strings.EqualFold(strings.TrimSpace(c), p) {
					return c
				}
			}
		}
		// Substring fallback, still pattern-major: "credit" must win over
		// an earlier column that merely contains "cr" (e.g. Description).
		for _, p := range patterns {
			for _, c := range header {
				if strings.Contains(strings.ToLower(c), p) {
					return c
				}
			}
		}
		return ""
	}

	at := func(i int) string {
		if i < len(header) {
			return header[i]
		}
		return header[0]
	}

	cols := Columns{
		Account:     find("account number", "account", "gl account", "gl", "ledger", "acct"),
		Debit:       find("debit", "dr"),
		Credit:      find("credit", "cr"),
		Description: find("description", "name", "label"),
	}
	if cols.Account == "" {
		cols.Account = at(0)
	}
	if cols.Debit == "" {
		cols.Debit = at(1)
	}
	if cols.Credit == "" {
		cols.Credit = at(2)
	}
	return cols
}

var strayChars = regexp.MustCompile(`[^0-9\-.,()]+`)

// CleanAmount parses a raw cell into a decimal: strips currency symbols
// and stray letters, treats parentheses as negation, and drops thousands
// separators. Empty cells parse as zero.
func CleanAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, nil
	}

	s = strayChars.ReplaceAllString(s, "")

	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	s = strings.NewReplacer("(", "", ")", "").Replace(s)

	s = strings.ReplaceAll(s, ",", "")

	// Collapse accidental extra dots, keeping the last as the decimal point.
	if parts := strings.Split(s, "."); len(parts) > 2 {
		s = strings.Join(parts[:len(parts)-1], "") + "." + parts[len(parts)-1]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", raw, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ReadTrialBalance reads a trial balance CSV into source lines. The
// signed amount is credit minus debit: credits positive, debits
// negative. The account number doubles as the line ID and GL prefix.
func ReadTrialBalance(r io.Reader, cols Columns) ([]model.SourceLine, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading trial balance CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("trial balance is empty")
	}

	header := records[0]
	idx := func(name string) (int, error) {
		for i, c := range header {
			if strings.TrimSpace(c) == name {
				return i, nil
			}
		}
		return 0, fmt.Errorf("column %q not found in header", name)
	}

	accountIdx, err := idx(cols.Account)
	if err != nil {
		return nil, err
	}
	debitIdx, err := idx(cols.Debit)
	if err != nil {
		return nil, err
	}
	creditIdx, err := idx(cols.Credit)
	if err != nil {
		return nil, err
	}
	descIdx := -1
	if cols.Description != "" {
		if descIdx, err = idx(cols.Description); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]bool)
	var lines []model.SourceLine
	for rowNo, rec := range records[1:] {
		account := strings.TrimSpace(rec[accountIdx])
		if account == "" {
			continue
		}
		if seen[account] {
			return nil, fmt.Errorf("row %d: duplicate account %q", rowNo+2, account)
		}
		seen[account] = true

		debit, err := CleanAmount(rec[debitIdx])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNo+2, err)
		}
		credit, err := CleanAmount(rec[creditIdx])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNo+2, err)
		}

		lineOut := model.SourceLine{
			ID:       account,
			GLPrefix: account,
			Amount:   credit.Sub(debit),
		}
		if descIdx >= 0 {
			lineOut.Description = strings.TrimSpace(rec[descIdx])
		}
		lines = append(lines, lineOut)
	}
	return lines, nil
}

// ReadTrialBalanceFile opens a trial balance CSV from disk, guessing
// columns from the header, and enforces the size cap.
func ReadTrialBalanceFile(path string) ([]model.SourceLine, Columns, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, Columns{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > maxBytes {
		return nil, Columns{}, fmt.Errorf("file too large: max %d MB", MaxFileSizeMB)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, Columns{}, fmt.Errorf("opening trial balance: %w", err)
	}
	defer f.Close()

	header, rest, err := peekHeader(f)
	if err != nil {
		return nil, Columns{}, err
	}
	cols := GuessColumns(header)

	lines, err := ReadTrialBalance(rest, cols)
	if err != nil {
		return nil, Columns{}, err
	}
	return lines, cols, nil
}

// peekHeader reads the header row and returns a reader replaying the
// whole file.
func peekHeader(f *os.File) ([]string, io.Reader, error) {
	header, err := csv.NewReader(f).Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, nil, fmt.Errorf("rewinding file: %w", err)
	}
	return header, f, nil
}
