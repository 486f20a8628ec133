// Package engine is the allocation and reclassification core: it
// classifies source lines against the taxonomy, redistributes grouped
// amounts under balance conservation, and records every action in the
// audit ledger.
package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/restated-dev/restated/internal/ledger"
	"github.com/restated-dev/restated/internal/mapping"
	"github.com/restated-dev/restated/internal/model"
	"github.com/restated-dev/restated/internal/statement"
	"github.com/restated-dev/restated/internal/taxonomy"
)

// DefaultTolerance is the absolute balance tolerance: one smallest
// reporting unit.
var DefaultTolerance = decimal.New(1, -2) // 0.01

// Params holds everything needed to open a session.
type Params struct {
	Lines         []model.SourceLine
	BusinessModel model.BusinessModel
	Policy        model.AccountingPolicy
	Table         *mapping.Table
	Overrides     map[string]string // source line ID -> leaf category key
	Tolerance     *decimal.Decimal  // nil means DefaultTolerance; zero is honored
	ControlTotal  *decimal.Decimal  // optional stated trial balance total
}

// Session owns one user's in-memory workflow: the immutable source
// lines, the resolved taxonomy, the current classification set, and the
// audit ledger. Sessions share nothing; concurrent use of one Session
// is not supported.
type Session struct {
	id        uuid.UUID
	lines     []model.SourceLine
	byID      map[string]model.SourceLine
	tax       *taxonomy.Taxonomy
	table     *mapping.Table
	overrides map[string]string
	current   map[string][]model.Classification
	ledger    *ledger.Ledger
	tolerance decimal.Decimal
}

// NewSession resolves the taxonomy, re-validates reconciliation against
// the control total if one was stated, and opens a session. Fails fast
// with ReconciliationError before any classification happens.
func NewSession(params Params) (*Session, error) {
	tax, err := taxonomy.For(params.BusinessModel, params.Policy)
	if err != nil {
		return nil, err
	}

	tolerance := DefaultTolerance
	if params.Tolerance != nil {
		if params.Tolerance.IsNegative() {
			return nil, fmt.Errorf("tolerance must not be negative")
		}
		tolerance = *params.Tolerance
	}

	if params.ControlTotal != nil {
		actual := decimal.Zero
		for _, line := range params.Lines {
			actual = actual.Add(line.Amount)
		}
		if actual.Sub(*params.ControlTotal).Abs().GreaterThan(tolerance) {
			return nil, ReconciliationError{Stated: *params.ControlTotal, Actual: actual}
		}
	}

	byID := make(map[string]model.SourceLine, len(params.Lines))
	for _, line := range params.Lines {
		byID[line.ID] = line
	}

	return &Session{
		id:        uuid.New(),
		lines:     params.Lines,
		byID:      byID,
		tax:       tax,
		table:     params.Table,
		overrides: params.Overrides,
		current:   make(map[string][]model.Classification),
		ledger:    ledger.New(),
		tolerance: tolerance,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Taxonomy returns the session's resolved taxonomy.
func (s *Session) Taxonomy() *taxonomy.Taxonomy {
	return s.tax
}

// Ledger returns the session's audit ledger.
func (s *Session) Ledger() *ledger.Ledger {
	return s.ledger
}

// Tolerance returns the active balance tolerance.
func (s *Session) Tolerance() decimal.Decimal {
	return s.tolerance
}

// ClassifyAll assigns every unclassified source line to a leaf category
// using its override if present, otherwise longest-prefix-match. All or
// nothing: if any line resolves to no category, UnmappedLineError is
// returned and no classification or ledger entry is recorded.
func (s *Session) ClassifyAll() error {
	type planned struct {
		line model.SourceLine
		key  string
	}

	var work []planned
	for _, line := range s.lines {
		if _, done := s.current[line.ID]; done {
			continue
		}
		key, err := s.resolveCategory(line)
		if err != nil {
			return err
		}
		work = append(work, planned{line: line, key: key})
	}

	for _, p := range work {
		after := []model.Classification{{
			SourceLineID: p.line.ID,
			CategoryKey:  p.key,
			Amount:       p.line.Amount,
		}}
		s.current[p.line.ID] = after
		s.ledger.Append(model.ActionClassify, p.line.ID, 0, nil, after)
	}
	return nil
}

func (s *Session) resolveCategory(line model.SourceLine) (string, error) {
	if key, ok := s.overrides[line.ID]; ok {
		if !s.tax.IsLeaf(key) {
			return "", InvalidTargetError{CategoryKey: key, Reason: "override must target a leaf category"}
		}
		return key, nil
	}
	if s.table != nil {
		if key, _, ok := s.table.Match(line.GLPrefix); ok {
			return key, nil
		}
	}
	return "", UnmappedLineError{SourceLineID: line.ID, GLPrefix: line.GLPrefix}
}

// Split decomposes a grouped line into multiple leaf classifications per
// the plan. Validation order: targets first (InvalidTargetError), then
// percentage normalization, then the residual check
// (UnbalancedSplitError, state untouched). A balanced plan atomically
// replaces the line's classifications wholesale and appends a Split
// entry referencing the superseded one.
func (s *Session) Split(sourceLineID string, plan AllocationPlan) error {
	line, ok := s.byID[sourceLineID]
	if !ok {
		return fmt.Errorf("unknown source line %q", sourceLineID)
	}
	before, classified := s.current[sourceLineID]
	if !classified {
		return fmt.Errorf("line %q is not classified; classify before splitting", sourceLineID)
	}

	for _, entry := range plan {
		if _, known := s.tax.Get(entry.CategoryKey); !known {
			return InvalidTargetError{CategoryKey: entry.CategoryKey, Reason: "unknown category"}
		}
		if !s.tax.IsLeaf(entry.CategoryKey) {
			return InvalidTargetError{CategoryKey: entry.CategoryKey, Reason: "allocations must target leaf categories"}
		}
	}

	// An allocation is a set of (category, amount) pairs, so duplicate
	// targets merge.
	amounts := make(map[string]decimal.Decimal)
	var order []string
	for _, entry := range plan {
		resolved := entry.resolve(line.Amount)
		if _, seen := amounts[entry.CategoryKey]; !seen {
			order = append(order, entry.CategoryKey)
		}
		amounts[entry.CategoryKey] = amounts[entry.CategoryKey].Add(resolved)
	}

	allocated := decimal.Zero
	for _, key := range order {
		allocated = allocated.Add(amounts[key])
	}
	residual := line.Amount.Sub(allocated)
	if residual.Abs().GreaterThan(s.tolerance) {
		return UnbalancedSplitError{SourceLineID: sourceLineID, Residual: residual}
	}

	after := make([]model.Classification, 0, len(order))
	for _, key := range order {
		after = append(after, model.Classification{
			SourceLineID: sourceLineID,
			CategoryKey:  key,
			Amount:       amounts[key],
		})
	}

	supersedes := s.ledger.LastFor(sourceLineID)
	s.current[sourceLineID] = after
	s.ledger.Append(model.ActionSplit, sourceLineID, supersedes, before, after)
	return nil
}

// Reclassify moves an entire line to a different leaf category,
// replacing any prior classifications or allocations wholesale.
func (s *Session) Reclassify(sourceLineID, categoryKey string) error {
	line, ok := s.byID[sourceLineID]
	if !ok {
		return fmt.Errorf("unknown source line %q", sourceLineID)
	}
	before, classified := s.current[sourceLineID]
	if !classified {
		return fmt.Errorf("line %q is not classified; classify before reclassifying", sourceLineID)
	}
	if _, known := s.tax.Get(categoryKey); !known {
		return InvalidTargetError{CategoryKey: categoryKey, Reason: "unknown category"}
	}
	if !s.tax.IsLeaf(categoryKey) {
		return InvalidTargetError{CategoryKey: categoryKey, Reason: "reclassification must target a leaf category"}
	}

	after := []model.Classification{{
		SourceLineID: sourceLineID,
		CategoryKey:  categoryKey,
		Amount:       line.Amount,
	}}
	supersedes := s.ledger.LastFor(sourceLineID)
	s.current[sourceLineID] = after
	s.ledger.Append(model.ActionReclassify, sourceLineID, supersedes, before, after)
	return nil
}

// Classifications returns the current classification set in source line
// order.
func (s *Session) Classifications() []model.Classification {
	var out []model.Classification
	for _, line := range s.lines {
		out = append(out, s.current[line.ID]...)
	}
	return out
}

// Statement derives the current IFRS 18 presentation.
func (s *Session) Statement() (model.Statement, error) {
	return statement.Compute(s.Classifications(), s.tax)
}

// VerifyReplay folds the ledger over the original source lines and
// checks that the replayed statement is identical to the live one. This
// is the audit guarantee behind the exported changes ledger.
func (s *Session) VerifyReplay() error {
	live, err := s.Statement()
	if err != nil {
		return err
	}
	replayed, err := statement.Compute(s.ledger.Replay(s.lines), s.tax)
	if err != nil {
		return fmt.Errorf("replaying ledger: %w", err)
	}
	if !live.Equal(replayed) {
		return fmt.Errorf("replayed statement diverges from live statement")
	}
	return nil
}
