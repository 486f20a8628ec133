package engine

import "github.com/shopspring/decimal"

// PlanEntry allocates part of a source amount to one leaf category,
// either as an absolute amount or as a percentage of the source amount.
type PlanEntry struct {
	CategoryKey string
	Amount      decimal.Decimal
	Percent     bool // when true, Amount is a percentage (e.g. 25 = 25%)
}

// AllocationPlan is a caller-supplied decomposition of one grouped
// source line into leaf categories.
type AllocationPlan []PlanEntry

// Absolute is a convenience constructor for an absolute-amount entry.
func Absolute(categoryKey string, amount decimal.Decimal) PlanEntry {
	return PlanEntry{CategoryKey: categoryKey, Amount: amount}
}

// Percentage is a convenience constructor for a percentage entry.
func Percentage(categoryKey string, percent decimal.Decimal) PlanEntry {
	return PlanEntry{CategoryKey: categoryKey, Amount: percent, Percent: true}
}

var hundred = decimal.NewFromInt(100)

// resolve converts a plan entry to an absolute amount against the source.
// Percentages round half-up to 2 places; the residual check downstream
// still applies, so rounding cannot hide an unbalanced plan.
func (p PlanEntry) resolve(source decimal.Decimal) decimal.Decimal {
	if !p.Percent {
		return p.Amount
	}
	return source.Mul(p.Amount).Div(hundred).Round(2)
}
