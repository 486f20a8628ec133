// Package ledger records every classification and redistribution action
// as an append-only, replayable audit trail.
package ledger

import (
	"time"

	"github.com/restated-dev/restated/internal/model"
)

// Ledger is an append-only log of transformation actions. Sequence
// numbers increase monotonically from 1; entries are never reordered or
// deleted.
type Ledger struct {
	entries []model.LedgerEntry
	now     func() time.Time
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{now: time.Now}
}

// NewWithClock creates a Ledger with a custom clock.
func NewWithClock(now func() time.Time) *Ledger {
	return &Ledger{now: now}
}

// Append records an action and returns the completed entry.
func (l *Ledger) Append(action model.Action, sourceLineID string, supersedes int, before, after []model.Classification) model.LedgerEntry {
	e := model.LedgerEntry{
		Seq:          len(l.entries) + 1,
		Timestamp:    l.now().UTC(),
		Action:       action,
		SourceLineID: sourceLineID,
		Supersedes:   supersedes,
		Before:       cloneState(before),
		After:        cloneState(after),
	}
	l.entries = append(l.entries, e)
	return e
}

// Entries returns all entries in sequence order.
func (l *Ledger) Entries() []model.LedgerEntry {
	out := make([]model.LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// LastFor returns the sequence number of the most recent entry for a
// source line, or 0 if none exists.
func (l *Ledger) LastFor(sourceLineID string) int {
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].SourceLineID == sourceLineID {
			return l.entries[i].Seq
		}
	}
	return 0
}

// Replay folds the ledger into the current classification set: entries
// apply in sequence order and the last entry per source line wins
// wholesale. Lines are emitted in the order given, so replaying against
// the original source lines reproduces the live classification set
// exactly.
func (l *Ledger) Replay(lines []model.SourceLine) []model.Classification {
	current := make(map[string][]model.Classification)
	for _, e := range l.entries {
		current[e.SourceLineID] = e.After
	}

	var out []model.Classification
	for _, line := range lines {
		out = append(out, cloneState(current[line.ID])...)
	}
	return out
}

func cloneState(state []model.Classification) []model.Classification {
	if state == nil {
		return nil
	}
	out := make([]model.Classification, len(state))
	copy(out, state)
	return out
}
