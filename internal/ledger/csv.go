package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/restated-dev/restated/internal/model"
)

// Header is the CSV header for the ledger export.
const Header = "sequence_no,timestamp,action,source_line_id,supersedes,before,after"

const (
	numFields     = 7
	timeFormat    = time.RFC3339
	colSeq        = 0
	colTimestamp  = 1
	colAction     = 2
	colLineID     = 3
	colSupersedes = 4
	colBefore     = 5
	colAfter      = 6
)

// WriteEntries writes a full ledger export (including header).
func WriteEntries(w io.Writer, entries []model.LedgerEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// ReadEntries reads a ledger export back into entries.
func ReadEntries(r io.Reader) ([]model.LedgerEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var entries []model.LedgerEntry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// MarshalEntry converts a LedgerEntry to a CSV row.
func MarshalEntry(e model.LedgerEntry) []string {
	row := make([]string, numFields)
	row[colSeq] = strconv.Itoa(e.Seq)
	row[colTimestamp] = e.Timestamp.Format(timeFormat)
	row[colAction] = string(e.Action)
	row[colLineID] = e.SourceLineID
	if e.Supersedes != 0 {
		row[colSupersedes] = strconv.Itoa(e.Supersedes)
	}
	row[colBefore] = FormatState(e.Before)
	row[colAfter] = FormatState(e.After)
	return row
}

// UnmarshalEntry converts a CSV row to a LedgerEntry.
func UnmarshalEntry(record []string) (model.LedgerEntry, error) {
	if len(record) != numFields {
		return model.LedgerEntry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	seq, err := strconv.Atoi(record[colSeq])
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("parsing sequence_no %q: %w", record[colSeq], err)
	}

	ts, err := time.Parse(timeFormat, record[colTimestamp])
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	var supersedes int
	if record[colSupersedes] != "" {
		supersedes, err = strconv.Atoi(record[colSupersedes])
		if err != nil {
			return model.LedgerEntry{}, fmt.Errorf("parsing supersedes %q: %w", record[colSupersedes], err)
		}
	}

	lineID := record[colLineID]
	before, err := ParseState(lineID, record[colBefore])
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("parsing before state: %w", err)
	}
	after, err := ParseState(lineID, record[colAfter])
	if err != nil {
		return model.LedgerEntry{}, fmt.Errorf("parsing after state: %w", err)
	}

	return model.LedgerEntry{
		Seq:          seq,
		Timestamp:    ts,
		Action:       model.Action(record[colAction]),
		SourceLineID: lineID,
		Supersedes:   supersedes,
		Before:       before,
		After:        after,
	}, nil
}

// FormatState renders a classification snapshot as "key=amount;key=amount".
func FormatState(state []model.Classification) string {
	parts := make([]string, len(state))
	for i, c := range state {
		parts[i] = c.CategoryKey + "=" + c.Amount.StringFixed(2)
	}
	return strings.Join(parts, ";")
}

// ParseState parses the FormatState encoding back into classifications.
func ParseState(sourceLineID, s string) ([]model.Classification, error) {
	if s == "" {
		return nil, nil
	}
	var state []model.Classification
	for _, part := range strings.Split(s, ";") {
		key, amountStr, found := strings.Cut(part, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("malformed state part %q", part)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("parsing amount %q: %w", amountStr, err)
		}
		state = append(state, model.Classification{
			SourceLineID: sourceLineID,
			CategoryKey:  key,
			Amount:       amount,
		})
	}
	return state, nil
}
