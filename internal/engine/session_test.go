package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restated-dev/restated/internal/mapping"
	"github.com/restated-dev/restated/internal/model"
	"github.com/restated-dev/restated/internal/taxonomy"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func line(id, gl, amount string) model.SourceLine {
	return model.SourceLine{ID: id, GLPrefix: gl, Amount: dec(amount)}
}

func testTable(t *testing.T) *mapping.Table {
	t.Helper()
	tax, err := taxonomy.For(model.ModelGeneralCorporate, model.AccountingPolicy{})
	require.NoError(t, err)
	table, err := mapping.NewTable([]mapping.Rule{
		{Prefix: "4", CategoryKey: taxonomy.KeyRevenue},
		{Prefix: "5", CategoryKey: taxonomy.KeyCostOfSales},
		{Prefix: "6", CategoryKey: taxonomy.KeyOtherOperating},
		{Prefix: "61", CategoryKey: taxonomy.KeySellingMarketing},
		{Prefix: "62", CategoryKey: taxonomy.KeyGeneralAdmin},
	}, tax)
	require.NoError(t, err)
	return table
}

func openSession(t *testing.T, lines []model.SourceLine) *Session {
	t.Helper()
	s, err := NewSession(Params{
		Lines:         lines,
		BusinessModel: model.ModelGeneralCorporate,
		Table:         testTable(t),
	})
	require.NoError(t, err)
	return s
}

func TestNewSession_Reconciles(t *testing.T) {
	total := dec("60.00")
	_, err := NewSession(Params{
		Lines:         []model.SourceLine{line("L1", "4000", "100.00"), line("L2", "6200", "-40.00")},
		BusinessModel: model.ModelGeneralCorporate,
		Table:         testTable(t),
		ControlTotal:  &total,
	})
	assert.NoError(t, err)
}

func TestNewSession_ReconciliationFailure(t *testing.T) {
	total := dec("61.00")
	_, err := NewSession(Params{
		Lines:         []model.SourceLine{line("L1", "4000", "100.00"), line("L2", "6200", "-40.00")},
		BusinessModel: model.ModelGeneralCorporate,
		Table:         testTable(t),
		ControlTotal:  &total,
	})

	var recon ReconciliationError
	require.ErrorAs(t, err, &recon)
	assert.True(t, recon.Stated.Equal(dec("61.00")))
	assert.True(t, recon.Actual.Equal(dec("60.00")))
}

func TestClassifyAll_LongestPrefixMatch(t *testing.T) {
	s := openSession(t, []model.SourceLine{
		line("L1", "4000", "100.00"),
		line("L2", "6105", "-25.00"),
		line("L3", "6900", "-10.00"),
	})
	require.NoError(t, s.ClassifyAll())

	class := s.Classifications()
	require.Len(t, class, 3)
	assert.Equal(t, taxonomy.KeyRevenue, class[0].CategoryKey)
	assert.Equal(t, taxonomy.KeySellingMarketing, class[1].CategoryKey)
	assert.Equal(t, taxonomy.KeyOtherOperating, class[2].CategoryKey)

	// One classify entry per line.
	assert.Equal(t, 3, s.Ledger().Len())
}

func TestClassifyAll_UnmappedLineAllOrNothing(t *testing.T) {
	s := openSession(t, []model.SourceLine{
		line("L1", "4000", "100.00"),
		line("L2", "9999", "-25.00"),
	})
	err := s.ClassifyAll()

	var unmapped UnmappedLineError
	require.ErrorAs(t, err, &unmapped)
	assert.Equal(t, "L2", unmapped.SourceLineID)

	// Nothing committed, nothing logged.
	assert.Empty(t, s.Classifications())
	assert.Zero(t, s.Ledger().Len())
}

func TestClassifyAll_OverrideBeatsRules(t *testing.T) {
	s, err := NewSession(Params{
		Lines:         []model.SourceLine{line("L1", "9999", "-12.00")},
		BusinessModel: model.ModelGeneralCorporate,
		Table:         testTable(t),
		Overrides:     map[string]string{"L1": taxonomy.KeyIncomeTaxExpense},
	})
	require.NoError(t, err)
	require.NoError(t, s.ClassifyAll())

	class := s.Classifications()
	require.Len(t, class, 1)
	assert.Equal(t, taxonomy.KeyIncomeTaxExpense, class[0].CategoryKey)
}

func TestClassifyAll_SecondCallIsNoOp(t *testing.T) {
	s := openSession(t, []model.SourceLine{line("L1", "4000", "100.00")})
	require.NoError(t, s.ClassifyAll())
	require.NoError(t, s.ClassifyAll())
	assert.Equal(t, 1, s.Ledger().Len())
}

func TestSplit_Balanced(t *testing.T) {
	s := openSession(t, []model.SourceLine{line("L1", "6900", "-1000.00")})
	require.NoError(t, s.ClassifyAll())

	err := s.Split("L1", AllocationPlan{
		Absolute(taxonomy.KeyGeneralAdmin, dec("-600.00")),
		Absolute(taxonomy.KeySellingMarketing, dec("-400.00")),
	})
	require.NoError(t, err)

	class := s.Classifications()
	require.Len(t, class, 2)
	sum := class[0].Amount.Add(class[1].Amount)
	assert.True(t, sum.Equal(dec("-1000.00")))
}

func TestSplit_UnbalancedRejectedStateUnchanged(t *testing.T) {
	s := openSession(t, []model.SourceLine{line("L1", "4000", "1000.00")})
	require.NoError(t, s.ClassifyAll())

	err := s.Split("L1", AllocationPlan{
		Absolute(taxonomy.KeyRevenue, dec("600.00")),
		Absolute(taxonomy.KeyInvestmentIncome, dec("350.00")),
	})

	var unbalanced UnbalancedSplitError
	require.ErrorAs(t, err, &unbalanced)
	assert.True(t, unbalanced.Residual.Equal(dec("50.00")), "got %s", unbalanced.Residual)

	// Original single classification intact, no split entry logged.
	class := s.Classifications()
	require.Len(t, class, 1)
	assert.True(t, class[0].Amount.Equal(dec("1000.00")))
	assert.Equal(t, 1, s.Ledger().Len())
}

func TestSplit_NonLeafTargetRejected(t *testing.T) {
	s := openSession(t, []model.SourceLine{line("L1", "4000", "100.00")})
	require.NoError(t, s.ClassifyAll())

	err := s.Split("L1", AllocationPlan{
		Absolute(taxonomy.KeyOperatingProfit, dec("100.00")),
	})
	var invalid InvalidTargetError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, taxonomy.KeyOperatingProfit, invalid.CategoryKey)
}

func TestSplit_EmptiedGroupingNodeRejected(t *testing.T) {
	// Under a financing entity the "Financing activities" node has no
	// children left, but it is still not an allocation target.
	s, err := NewSession(Params{
		Lines:         []model.SourceLine{line("L1", "4000", "100.00")},
		BusinessModel: model.ModelFinancingEntity,
		Table:         testTable(t),
	})
	require.NoError(t, err)
	require.NoError(t, s.ClassifyAll())

	err = s.Split("L1", AllocationPlan{Absolute(taxonomy.KeyFinancing, dec("100.00"))})
	var invalid InvalidTargetError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, taxonomy.KeyFinancing, invalid.CategoryKey)

	err = s.Reclassify("L1", taxonomy.KeyFinancing)
	assert.ErrorAs(t, err, &InvalidTargetError{})
}

func TestSplit_UnknownTargetRejected(t *testing.T) {
	s := openSession(t, []model.SourceLine{line("L1", "4000", "100.00")})
	require.NoError(t, s.ClassifyAll())

	err := s.Split("L1", AllocationPlan{Absolute("sundries", dec("100.00"))})
	assert.ErrorAs(t, err, &InvalidTargetError{})
}

func TestSplit_Percentages(t *testing.T) {
	s := openSession(t, []model.SourceLine{line("L1", "6900", "-1000.00")})
	require.NoError(t, s.ClassifyAll())

	err := s.Split("L1", AllocationPlan{
		Percentage(taxonomy.KeyGeneralAdmin, dec("75")),
		Percentage(taxonomy.KeySellingMarketing, dec("25")),
	})
	require.NoError(t, err)

	class := s.Classifications()
	require.Len(t, class, 2)
	assert.True(t, class[0].Amount.Equal(dec("-750.00")))
	assert.True(t, class[1].Amount.Equal(dec("-250.00")))
}

func TestSplit_PercentRoundingWithinTolerance(t *testing.T) {
	s := openSession(t, []model.SourceLine{line("L1", "4000", "100.01")})
	require.NoError(t, s.ClassifyAll())

	// Thirds of 100.01 round to 33.34 each; residual 0.01 sits inside the
	// default tolerance.
	third := dec("33.3333")
	err := s.Split("L1", AllocationPlan{
		Percentage(taxonomy.KeyRevenue, third),
		Percentage(taxonomy.KeyInvestmentIncome, third),
		Percentage(taxonomy.KeyOtherOperating, third),
	})
	assert.NoError(t, err)
}

func TestSplit_MixedAbsoluteAndPercent(t *testing.T) {
	s := openSession(t, []model.SourceLine{line("L1", "6900", "-200.00")})
	require.NoError(t, s.ClassifyAll())

	err := s.Split("L1", AllocationPlan{
		Percentage(taxonomy.KeyGeneralAdmin, dec("50")),
		Absolute(taxonomy.KeySellingMarketing, dec("-100.00")),
	})
	require.NoError(t, err)
}

func TestSplit_CustomTolerance(t *testing.T) {
	tol := dec("1.00")
	s, err := NewSession(Params{
		Lines:         []model.SourceLine{line("L1", "4000", "100.00")},
		BusinessModel: model.ModelGeneralCorporate,
		Table:         testTable(t),
		Tolerance:     &tol,
	})
	require.NoError(t, err)
	require.NoError(t, s.ClassifyAll())

	err = s.Split("L1", AllocationPlan{Absolute(taxonomy.KeyRevenue, dec("99.50"))})
	assert.NoError(t, err)
}

func TestSplit_ZeroToleranceHonored(t *testing.T) {
	// An explicit zero is exact balance, not "use the default".
	tol := decimal.Zero
	s, err := NewSession(Params{
		Lines:         []model.SourceLine{line("L1", "4000", "100.00")},
		BusinessModel: model.ModelGeneralCorporate,
		Table:         testTable(t),
		Tolerance:     &tol,
	})
	require.NoError(t, err)
	require.NoError(t, s.ClassifyAll())
	assert.True(t, s.Tolerance().IsZero())

	err = s.Split("L1", AllocationPlan{Absolute(taxonomy.KeyRevenue, dec("99.99"))})
	var unbalanced UnbalancedSplitError
	require.ErrorAs(t, err, &unbalanced)
	assert.True(t, unbalanced.Residual.Equal(dec("0.01")))

	err = s.Split("L1", AllocationPlan{Absolute(taxonomy.KeyRevenue, dec("100.00"))})
	assert.NoError(t, err)
}

func TestSplit_UnclassifiedLine(t *testing.T) {
	s := openSession(t, []model.SourceLine{line("L1", "4000", "100.00")})
	err := s.Split("L1", AllocationPlan{Absolute(taxonomy.KeyRevenue, dec("100.00"))})
	assert.ErrorContains(t, err, "not classified")
}

func TestSplit_ResplitReplacesWholesale(t *testing.T) {
	s := openSession(t, []model.SourceLine{line("L1", "6900", "-100.00")})
	require.NoError(t, s.ClassifyAll())

	require.NoError(t, s.Split("L1", AllocationPlan{
		Absolute(taxonomy.KeyGeneralAdmin, dec("-60.00")),
		Absolute(taxonomy.KeySellingMarketing, dec("-40.00")),
	}))
	require.NoError(t, s.Split("L1", AllocationPlan{
		Absolute(taxonomy.KeyResearchDevelopment, dec("-100.00")),
	}))

	class := s.Classifications()
	require.Len(t, class, 1)
	assert.Equal(t, taxonomy.KeyResearchDevelopment, class[0].CategoryKey)

	// History preserved: classify, split, re-split; the re-split links the
	// superseded split entry.
	entries := s.Ledger().Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, model.ActionSplit, entries[2].Action)
	assert.Equal(t, 2, entries[2].Supersedes)
	require.Len(t, entries[2].Before, 2)
}

func TestReclassify(t *testing.T) {
	s := openSession(t, []model.SourceLine{line("L1", "6900", "-100.00")})
	require.NoError(t, s.ClassifyAll())

	require.NoError(t, s.Reclassify("L1", taxonomy.KeyImpairmentGoodwill))

	class := s.Classifications()
	require.Len(t, class, 1)
	assert.Equal(t, taxonomy.KeyImpairmentGoodwill, class[0].CategoryKey)
	assert.True(t, class[0].Amount.Equal(dec("-100.00")))

	err := s.Reclassify("L1", taxonomy.KeyOperatingProfit)
	assert.ErrorAs(t, err, &InvalidTargetError{})
}

func TestStatement_RecomputedAfterSplit(t *testing.T) {
	s := openSession(t, []model.SourceLine{
		line("L1", "4000", "100.00"),
		line("L2", "6900", "-30.00"),
	})
	require.NoError(t, s.ClassifyAll())

	before, err := s.Statement()
	require.NoError(t, err)
	assert.True(t, before.Total().Equal(dec("70.00")))

	require.NoError(t, s.Split("L2", AllocationPlan{
		Absolute(taxonomy.KeyGeneralAdmin, dec("-20.00")),
		Absolute(taxonomy.KeySellingMarketing, dec("-10.00")),
	}))

	after, err := s.Statement()
	require.NoError(t, err)
	assert.True(t, after.Total().Equal(dec("70.00")), "split must conserve the bottom line")

	admin, _ := after.Row(taxonomy.KeyGeneralAdmin)
	assert.True(t, admin.Amount.Equal(dec("-20.00")))
}

func TestVerifyReplay_AfterEveryAction(t *testing.T) {
	s := openSession(t, []model.SourceLine{
		line("L1", "4000", "250.00"),
		line("L2", "6900", "-90.00"),
	})

	require.NoError(t, s.ClassifyAll())
	require.NoError(t, s.VerifyReplay())

	require.NoError(t, s.Split("L2", AllocationPlan{
		Percentage(taxonomy.KeyGeneralAdmin, dec("50")),
		Percentage(taxonomy.KeySellingMarketing, dec("50")),
	}))
	require.NoError(t, s.VerifyReplay())

	require.NoError(t, s.Reclassify("L1", taxonomy.KeyInvestmentIncome))
	require.NoError(t, s.VerifyReplay())
}
