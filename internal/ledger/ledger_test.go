package ledger

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/restated-dev/restated/internal/model"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
}

func classified(lineID, key, amount string) []model.Classification {
	return []model.Classification{
		{SourceLineID: lineID, CategoryKey: key, Amount: dec(amount)},
	}
}

func TestAppend_MonotonicSequence(t *testing.T) {
	l := NewWithClock(fixedClock())

	e1 := l.Append(model.ActionClassify, "L1", 0, nil, classified("L1", "revenue", "100.00"))
	e2 := l.Append(model.ActionClassify, "L2", 0, nil, classified("L2", "cost_of_sales", "-40.00"))

	assert.Equal(t, 1, e1.Seq)
	assert.Equal(t, 2, e2.Seq)
	assert.Equal(t, 2, l.Len())
}

func TestAppend_SnapshotsAreIsolated(t *testing.T) {
	l := NewWithClock(fixedClock())
	after := classified("L1", "revenue", "100.00")
	l.Append(model.ActionClassify, "L1", 0, nil, after)

	// Mutating the caller's slice must not reach the recorded entry.
	after[0].Amount = dec("999.00")
	assert.True(t, l.Entries()[0].After[0].Amount.Equal(dec("100.00")))
}

func TestLastFor(t *testing.T) {
	l := NewWithClock(fixedClock())
	assert.Equal(t, 0, l.LastFor("L1"))

	l.Append(model.ActionClassify, "L1", 0, nil, classified("L1", "revenue", "100.00"))
	l.Append(model.ActionClassify, "L2", 0, nil, classified("L2", "revenue", "50.00"))
	l.Append(model.ActionReclassify, "L1", 1, classified("L1", "revenue", "100.00"), classified("L1", "other_operating", "100.00"))

	assert.Equal(t, 3, l.LastFor("L1"))
	assert.Equal(t, 2, l.LastFor("L2"))
}

func TestReplay_LastEntryPerLineWins(t *testing.T) {
	l := NewWithClock(fixedClock())
	lines := []model.SourceLine{
		{ID: "L1", Amount: dec("100.00")},
		{ID: "L2", Amount: dec("-60.00")},
	}

	l.Append(model.ActionClassify, "L1", 0, nil, classified("L1", "revenue", "100.00"))
	l.Append(model.ActionClassify, "L2", 0, nil, classified("L2", "general_admin", "-60.00"))
	l.Append(model.ActionSplit, "L2", 2,
		classified("L2", "general_admin", "-60.00"),
		[]model.Classification{
			{SourceLineID: "L2", CategoryKey: "general_admin", Amount: dec("-40.00")},
			{SourceLineID: "L2", CategoryKey: "selling_marketing", Amount: dec("-20.00")},
		})

	got := l.Replay(lines)
	require.Len(t, got, 3)
	assert.Equal(t, "revenue", got[0].CategoryKey)
	assert.Equal(t, "general_admin", got[1].CategoryKey)
	assert.True(t, got[1].Amount.Equal(dec("-40.00")))
	assert.Equal(t, "selling_marketing", got[2].CategoryKey)
}

func TestCSV_RoundTrip(t *testing.T) {
	l := NewWithClock(fixedClock())
	l.Append(model.ActionClassify, "L1", 0, nil, classified("L1", "revenue", "100.00"))
	l.Append(model.ActionSplit, "L1", 1,
		classified("L1", "revenue", "100.00"),
		[]model.Classification{
			{SourceLineID: "L1", CategoryKey: "revenue", Amount: dec("70.00")},
			{SourceLineID: "L1", CategoryKey: "other_operating", Amount: dec("30.00")},
		})

	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, l.Entries()))

	got, err := ReadEntries(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, l.Entries()[0].Seq, got[0].Seq)
	assert.Equal(t, model.ActionSplit, got[1].Action)
	assert.Equal(t, 1, got[1].Supersedes)
	require.Len(t, got[1].After, 2)
	assert.True(t, got[1].After[1].Amount.Equal(dec("30.00")))
}

func TestParseState_Malformed(t *testing.T) {
	_, err := ParseState("L1", "revenue")
	assert.Error(t, err)

	_, err = ParseState("L1", "revenue=abc")
	assert.Error(t, err)
}

func TestFormatState_Empty(t *testing.T) {
	assert.Equal(t, "", FormatState(nil))
}
