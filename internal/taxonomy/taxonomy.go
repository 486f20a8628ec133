package taxonomy

import (
	"fmt"

	"github.com/restated-dev/restated/internal/model"
)

// SubtotalRole marks an internal node whose value is a mandated IFRS 18
// subtotal. Role-bearing nodes are always emitted, even at zero.
type SubtotalRole string

const (
	RoleGrossProfit           SubtotalRole = "gross_profit"
	RoleOperatingProfit       SubtotalRole = "operating_profit"
	RoleProfitBeforeFinancing SubtotalRole = "profit_before_financing"
	RoleProfitBeforeTax       SubtotalRole = "profit_before_tax"
	RoleProfitForPeriod       SubtotalRole = "profit_for_period"
)

// Category is one node of the IFRS 18 presentation tree. Leaves receive
// classified amounts; internal nodes aggregate their children.
//
// Leaf is declared, not derived: a grouping node whose leaves have all
// been re-parented elsewhere (e.g. "Financing activities" for a
// financing entity) stays an internal node and never accepts amounts.
type Category struct {
	Key         string
	DisplayName string
	ParentKey   string // "" for the root
	Leaf        bool
	Role        SubtotalRole
}

// Taxonomy is the resolved category tree for one business model and policy
// election. Immutable after construction; sessions share it by reference.
type Taxonomy struct {
	businessModel model.BusinessModel
	cats          []Category
	index         map[string]int
	children      map[string][]string
}

// Leaf category keys. The set of leaves is identical across business
// models; only their placement in the tree varies.
const (
	KeyRevenue             = "revenue"
	KeyCostOfSales         = "cost_of_sales"
	KeySellingMarketing    = "selling_marketing"
	KeyGeneralAdmin        = "general_admin"
	KeyResearchDevelopment = "research_development"
	KeyImpairmentGoodwill  = "impairment_goodwill"
	KeyOtherOperating      = "other_operating"
	KeyShareOfAssociates   = "share_of_associates"
	KeyInvestmentIncome    = "investment_income"
	KeyCashEquivalents     = "cash_equivalents"
	KeyInterestExpense     = "interest_expense"
	KeyLeaseInterest       = "lease_interest"
	KeyIncomeTaxExpense    = "income_tax_expense"
	KeyDiscontinuedResult  = "discontinued_result"
)

// Internal node keys.
const (
	KeyProfitForPeriod       = "profit_for_period"
	KeyProfitBeforeTax       = "profit_before_tax"
	KeyProfitBeforeFinancing = "profit_before_financing"
	KeyOperatingProfit       = "operating_profit"
	KeyGrossProfit           = "gross_profit"
	KeyInvesting             = "investing"
	KeyFinancing             = "financing"
	KeyIncomeTax             = "income_tax"
	KeyDiscontinued          = "discontinued"
)

// For resolves the taxonomy for a business model and policy election.
// Pure function of its inputs: same model and policy always yield the
// same tree, and the policy moves leaves between parents without ever
// changing the leaf set.
func For(businessModel model.BusinessModel, policy model.AccountingPolicy) (*Taxonomy, error) {
	if !businessModel.Valid() {
		return nil, fmt.Errorf("unknown business model %q", businessModel)
	}

	cats := schema(businessModel, policy)

	t := &Taxonomy{
		businessModel: businessModel,
		cats:          cats,
		index:         make(map[string]int, len(cats)),
		children:      make(map[string][]string),
	}
	for i, c := range cats {
		t.index[c.Key] = i
	}
	for _, c := range cats {
		if c.ParentKey != "" {
			t.children[c.ParentKey] = append(t.children[c.ParentKey], c.Key)
		}
	}
	return t, nil
}

// schema returns the category nodes in declaration order of the fixed
// IFRS 18 line schema. Business model and policy choose parents for the
// movable leaves.
func schema(businessModel model.BusinessModel, policy model.AccountingPolicy) []Category {
	investingParent := KeyInvesting
	financingParent := KeyFinancing
	cashParent := KeyInvesting

	switch businessModel {
	case model.ModelInvestingEntity:
		// Returns on investments are the main business activity.
		investingParent = KeyOperatingProfit
		cashParent = KeyOperatingProfit
	case model.ModelFinancingEntity:
		// Financing customers is the main business activity.
		financingParent = KeyOperatingProfit
		if policy.CashEquivalentsAsOperating {
			cashParent = KeyOperatingProfit
		}
	}

	return []Category{
		{Key: KeyProfitForPeriod, DisplayName: "Profit for the period", Role: RoleProfitForPeriod},
		{Key: KeyProfitBeforeTax, DisplayName: "Profit before tax", ParentKey: KeyProfitForPeriod, Role: RoleProfitBeforeTax},
		{Key: KeyProfitBeforeFinancing, DisplayName: "Profit before financing and income tax", ParentKey: KeyProfitBeforeTax, Role: RoleProfitBeforeFinancing},
		{Key: KeyOperatingProfit, DisplayName: "Operating profit", ParentKey: KeyProfitBeforeFinancing, Role: RoleOperatingProfit},
		{Key: KeyGrossProfit, DisplayName: "Gross profit", ParentKey: KeyOperatingProfit, Role: RoleGrossProfit},
		{Key: KeyRevenue, DisplayName: "Revenue", ParentKey: KeyGrossProfit, Leaf: true},
		{Key: KeyCostOfSales, DisplayName: "Cost of sales", ParentKey: KeyGrossProfit, Leaf: true},
		{Key: KeySellingMarketing, DisplayName: "Selling and marketing expenses", ParentKey: KeyOperatingProfit, Leaf: true},
		{Key: KeyGeneralAdmin, DisplayName: "General and administrative expenses", ParentKey: KeyOperatingProfit, Leaf: true},
		{Key: KeyResearchDevelopment, DisplayName: "Research and development expenses", ParentKey: KeyOperatingProfit, Leaf: true},
		{Key: KeyImpairmentGoodwill, DisplayName: "Impairment of goodwill", ParentKey: KeyOperatingProfit, Leaf: true},
		{Key: KeyOtherOperating, DisplayName: "Other operating income and expenses", ParentKey: KeyOperatingProfit, Leaf: true},
		{Key: KeyInvesting, DisplayName: "Investing activities", ParentKey: KeyProfitBeforeFinancing},
		{Key: KeyShareOfAssociates, DisplayName: "Share of profit of associates and joint ventures", ParentKey: investingParent, Leaf: true},
		{Key: KeyInvestmentIncome, DisplayName: "Income from investments", ParentKey: investingParent, Leaf: true},
		{Key: KeyCashEquivalents, DisplayName: "Income from cash and cash equivalents", ParentKey: cashParent, Leaf: true},
		{Key: KeyFinancing, DisplayName: "Financing activities", ParentKey: KeyProfitBeforeTax},
		{Key: KeyInterestExpense, DisplayName: "Interest expense on borrowings", ParentKey: financingParent, Leaf: true},
		{Key: KeyLeaseInterest, DisplayName: "Interest on lease liabilities", ParentKey: financingParent, Leaf: true},
		{Key: KeyIncomeTax, DisplayName: "Income tax", ParentKey: KeyProfitForPeriod},
		{Key: KeyIncomeTaxExpense, DisplayName: "Income tax expense", ParentKey: KeyIncomeTax, Leaf: true},
		{Key: KeyDiscontinued, DisplayName: "Discontinued operations", ParentKey: KeyProfitForPeriod},
		{Key: KeyDiscontinuedResult, DisplayName: "Profit from discontinued operations", ParentKey: KeyDiscontinued, Leaf: true},
	}
}

// BusinessModel returns the model this taxonomy was resolved for.
func (t *Taxonomy) BusinessModel() model.BusinessModel {
	return t.businessModel
}

// Get returns a category by key.
func (t *Taxonomy) Get(key string) (Category, bool) {
	i, ok := t.index[key]
	if !ok {
		return Category{}, false
	}
	return t.cats[i], true
}

// IsLeaf reports whether key names a leaf category. Unknown keys are not
// leaves, and neither is a grouping node left childless by re-parenting.
func (t *Taxonomy) IsLeaf(key string) bool {
	c, ok := t.Get(key)
	return ok && c.Leaf
}

// Root returns the root node ("Profit for the period").
func (t *Taxonomy) Root() Category {
	return t.cats[0]
}

// Children returns the child keys of a node in declaration order.
func (t *Taxonomy) Children(key string) []string {
	kids := t.children[key]
	out := make([]string, len(kids))
	copy(out, kids)
	return out
}

// Leaves returns all leaf categories in declaration order.
func (t *Taxonomy) Leaves() []Category {
	var leaves []Category
	for _, c := range t.cats {
		if c.Leaf {
			leaves = append(leaves, c)
		}
	}
	return leaves
}

// SubtotalNodes returns all role-bearing internal nodes in declaration
// order.
func (t *Taxonomy) SubtotalNodes() []Category {
	var nodes []Category
	for _, c := range t.cats {
		if c.Role != "" {
			nodes = append(nodes, c)
		}
	}
	return nodes
}

// PathToRoot returns the keys from a node up to and including the root.
func (t *Taxonomy) PathToRoot(key string) ([]string, error) {
	c, ok := t.Get(key)
	if !ok {
		return nil, fmt.Errorf("unknown category %q", key)
	}
	path := []string{c.Key}
	for c.ParentKey != "" {
		c, ok = t.Get(c.ParentKey)
		if !ok {
			return nil, fmt.Errorf("broken parent link at %q", path[len(path)-1])
		}
		path = append(path, c.Key)
	}
	return path, nil
}
