// Package mapping resolves GL account prefixes to taxonomy leaf categories.
package mapping

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/restated-dev/restated/internal/taxonomy"
)

// Rule maps a GL account prefix to a leaf category. PrefixLength, when
// positive, caps how many characters of Prefix are compared.
type Rule struct {
	Prefix       string `yaml:"prefix" validate:"required"`
	CategoryKey  string `yaml:"category_key" validate:"required"`
	PrefixLength int    `yaml:"prefix_length" validate:"gte=0,lte=32"`
}

// EffectivePrefix returns the prefix actually compared against accounts.
func (r Rule) EffectivePrefix() string {
	if r.PrefixLength > 0 && r.PrefixLength < len(r.Prefix) {
		return r.Prefix[:r.PrefixLength]
	}
	return r.Prefix
}

// AmbiguousMappingRuleError reports two rules with the same effective
// prefix targeting different categories. Surfaced when the table is
// built, never during per-line classification.
type AmbiguousMappingRuleError struct {
	Prefix     string
	Categories []string
}

func (e AmbiguousMappingRuleError) Error() string {
	return fmt.Sprintf("ambiguous mapping: prefix %q targets both %s", e.Prefix, strings.Join(e.Categories, " and "))
}

// Table is a validated, ordered set of mapping rules. Immutable after
// construction. Later rules win length ties, which is well defined
// because construction rejects duplicate effective prefixes.
type Table struct {
	rules []Rule
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewTable validates rules against a taxonomy and builds a Table.
// Every rule must target a known leaf; duplicate effective prefixes with
// differing categories fail with AmbiguousMappingRuleError. Identical
// duplicates collapse to a single rule.
func NewTable(rules []Rule, tax *taxonomy.Taxonomy) (*Table, error) {
	byPrefix := make(map[string]Rule)
	var kept []Rule

	for i, r := range rules {
		if err := validate.Struct(r); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		if !tax.IsLeaf(r.CategoryKey) {
			return nil, fmt.Errorf("rule %d: category %q is not a leaf category", i+1, r.CategoryKey)
		}

		p := r.EffectivePrefix()
		if prev, ok := byPrefix[p]; ok {
			if prev.CategoryKey != r.CategoryKey {
				return nil, AmbiguousMappingRuleError{
					Prefix:     p,
					Categories: []string{prev.CategoryKey, r.CategoryKey},
				}
			}
			continue
		}
		byPrefix[p] = r
		kept = append(kept, r)
	}

	return &Table{rules: kept}, nil
}

// Rules returns the retained rules in definition order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Match returns the category for a GL account using longest-prefix-match:
// the rule whose effective prefix is longest and matches the account wins;
// equal lengths resolve to the most recently defined rule.
func (t *Table) Match(account string) (categoryKey, matchedPrefix string, ok bool) {
	bestLen := -1
	for _, r := range t.rules {
		p := r.EffectivePrefix()
		if p == "" || !strings.HasPrefix(account, p) {
			continue
		}
		// >= keeps the most recently defined rule on a length tie.
		if len(p) >= bestLen {
			bestLen = len(p)
			categoryKey = r.CategoryKey
			matchedPrefix = p
			ok = true
		}
	}
	return categoryKey, matchedPrefix, ok
}
