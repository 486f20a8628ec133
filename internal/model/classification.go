package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Classification assigns part (or all) of a source line's amount to a leaf
// category. An unsplit line has exactly one Classification whose amount
// equals the SourceLine amount.
type Classification struct {
	SourceLineID string
	CategoryKey  string
	Amount       decimal.Decimal
}

// Action is the kind of transformation recorded in a ledger entry.
type Action string

const (
	ActionClassify   Action = "classify"
	ActionSplit      Action = "split"
	ActionReclassify Action = "reclassify"
)

// LedgerEntry is one row in the audit ledger. Entries are append-only and
// ordered by Seq; Before and After snapshot the line's classifications
// around the action.
type LedgerEntry struct {
	Seq          int
	Timestamp    time.Time
	Action       Action
	SourceLineID string
	Supersedes   int // Seq of the entry this one replaces, 0 if none
	Before       []Classification
	After        []Classification
}
