package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// UnmappedLineError reports a source line that matches no mapping rule
// and has no override. Recoverable: supply a mapping and retry.
type UnmappedLineError struct {
	SourceLineID string
	GLPrefix     string
}

func (e UnmappedLineError) Error() string {
	return fmt.Sprintf("line %q (GL %s) matches no mapping rule and has no override", e.SourceLineID, e.GLPrefix)
}

// InvalidTargetError reports an allocation or override targeting an
// unknown or non-leaf category.
type InvalidTargetError struct {
	CategoryKey string
	Reason      string
}

func (e InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid target category %q: %s", e.CategoryKey, e.Reason)
}

// UnbalancedSplitError reports an allocation plan whose amounts deviate
// from the source amount beyond tolerance. Residual is signed
// (source amount minus allocated sum) so callers can display it live.
type UnbalancedSplitError struct {
	SourceLineID string
	Residual     decimal.Decimal
}

func (e UnbalancedSplitError) Error() string {
	return fmt.Sprintf("allocation for line %q does not balance: residual %s", e.SourceLineID, e.Residual.StringFixed(2))
}

// ReconciliationError reports that the ingested lines do not sum to the
// stated control total. Fatal for the batch.
type ReconciliationError struct {
	Stated decimal.Decimal
	Actual decimal.Decimal
}

func (e ReconciliationError) Error() string {
	return fmt.Sprintf("trial balance does not reconcile: stated total %s, ingested total %s",
		e.Stated.StringFixed(2), e.Actual.StringFixed(2))
}
