package model

import "github.com/shopspring/decimal"

// BusinessModel selects the taxonomy variant for a reporting entity.
type BusinessModel string

const (
	ModelGeneralCorporate BusinessModel = "general_corporate"
	ModelInvestingEntity  BusinessModel = "investing_entity"
	ModelFinancingEntity  BusinessModel = "financing_entity"
)

// Valid reports whether m is one of the known business models.
func (m BusinessModel) Valid() bool {
	switch m {
	case ModelGeneralCorporate, ModelInvestingEntity, ModelFinancingEntity:
		return true
	}
	return false
}

// AccountingPolicy holds the policy toggles a FinancingEntity may elect.
// Toggles move leaves between parents; they never add or remove leaves.
type AccountingPolicy struct {
	CashEquivalentsAsOperating bool `yaml:"cash_equivalents_as_operating"`
}

// SourceLine is one normalized trial balance row. Immutable once ingested;
// Amount is the ground truth every downstream allocation reconciles against.
// Amount is signed: credits positive, debits negative.
type SourceLine struct {
	ID            string
	Description   string
	GLPrefix      string
	Amount        decimal.Decimal
	OriginalGroup string // set when the line came from ungrouping a parent line
}
