package workflow

import (
	"testing"

	"procurement/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func existingLine(seq int, opts ...func(*model.PurchaseRequestLine)) model.PurchaseRequestLine {
	loc := uuid.New()
	prod := uuid.New()
	ln := model.PurchaseRequestLine{
		ID:                uuid.New(),
		SequenceNo:        seq,
		LocationID:        &loc,
		LocationName:      "Main Store",
		ProductID:         &prod,
		ProductName:       "Rice 5kg",
		RequestedQty:      decimal.NewFromInt(10),
		RequestedUnitConv: decimal.NewFromInt(1),
		Price:             decimal.NewFromInt(4),
		Currency:          "USD",
	}
	for _, opt := range opts {
		opt(&ln)
	}
	return ln
}

func TestLedgerUpdatePrecedence(t *testing.T) {
	orig := existingLine(1)
	l := NewLedger([]model.PurchaseRequestLine{orig})

	ok := l.UpdateLine(orig.ID.String(), NewLinePatch().WithComment("urgent"))
	require.True(t, ok)

	got, found := l.EffectiveLine(orig.ID.String())
	require.True(t, found)
	// Patched field comes from the update bucket, untouched fields fall back
	// to the original.
	assert.Equal(t, "urgent", got.Comment)
	assert.Equal(t, "Rice 5kg", got.ProductName)
	assert.True(t, got.RequestedQty.Equal(orig.RequestedQty))

	// The snapshot itself is never mutated.
	fresh := NewLedger([]model.PurchaseRequestLine{orig})
	snap, _ := fresh.EffectiveLine(orig.ID.String())
	assert.Empty(t, snap.Comment)
}

func TestLedgerRemoveSupersedesUpdate(t *testing.T) {
	orig := existingLine(1)
	l := NewLedger([]model.PurchaseRequestLine{orig})

	require.True(t, l.UpdateLine(orig.ID.String(), NewLinePatch().WithComment("changed")))
	require.Equal(t, ClassModified, l.Classify(orig.ID.String()))

	require.True(t, l.RemoveLine(orig.ID.String()))
	require.True(t, l.RemoveLine(orig.ID.String())) // dedup, no second marker

	cs := l.Changes()
	assert.Empty(t, cs.Update, "removal must evict the pending update")
	require.Len(t, cs.Remove, 1)
	assert.Equal(t, orig.ID, cs.Remove[0])
	assert.Equal(t, ClassRemoved, l.Classify(orig.ID.String()))

	_, found := l.EffectiveLine(orig.ID.String())
	assert.False(t, found, "removed lines are hidden from projections")
}

func TestLedgerNewLineLifecycle(t *testing.T) {
	l := NewLedger(nil)

	key := l.AddLine(model.PurchaseRequestLine{})
	require.NotEmpty(t, key)
	assert.Equal(t, ClassNew, l.Classify(key))

	// New lines are mutated in place, not cloned into update.
	require.True(t, l.UpdateLine(key, NewLinePatch().
		WithRequestedQty(decimal.NewFromInt(3)).
		WithPrice(decimal.NewFromInt(5))))
	got, found := l.EffectiveLine(key)
	require.True(t, found)
	assert.True(t, got.TotalPrice.Equal(decimal.NewFromInt(15)), "monetary fields recompute on commit")

	// Removing a new line leaves no trace in any bucket.
	require.True(t, l.RemoveLine(key))
	cs := l.Changes()
	assert.True(t, cs.Empty())
	assert.False(t, l.Dirty())
}

func TestLedgerProjectedOrdering(t *testing.T) {
	first := existingLine(1)
	second := existingLine(2)
	third := existingLine(3)
	l := NewLedger([]model.PurchaseRequestLine{third, first, second})

	keyA := l.AddLine(model.PurchaseRequestLine{ProductName: "older new line"})
	keyB := l.AddLine(model.PurchaseRequestLine{ProductName: "newest line"})
	require.True(t, l.RemoveLine(second.ID.String()))

	lines := l.ProjectedLines()
	require.Len(t, lines, 4)
	assert.Equal(t, keyB, lines[0].LocalID, "newest first")
	assert.Equal(t, keyA, lines[1].LocalID)
	assert.Equal(t, first.ID, lines[2].ID, "originals sorted by sequence")
	assert.Equal(t, third.ID, lines[3].ID)
}

func TestLedgerAbsorbsUnknownKeys(t *testing.T) {
	l := NewLedger([]model.PurchaseRequestLine{existingLine(1)})

	assert.False(t, l.UpdateLine("not-a-key", NewLinePatch().WithComment("x")))
	assert.False(t, l.UpdateLine(uuid.NewString(), NewLinePatch().WithComment("x")))
	assert.False(t, l.RemoveLine(uuid.NewString()))
	assert.Equal(t, ClassUnknown, l.Classify(uuid.NewString()))
	assert.False(t, l.Dirty())
}

func TestLedgerUpdateBundleIsAtomic(t *testing.T) {
	orig := existingLine(1)
	l := NewLedger([]model.PurchaseRequestLine{orig})

	prod := uuid.New()
	unit := uuid.New()
	patch := NewLinePatch().WithProduct(prod, "Flour 1kg", &unit, "bag", decimal.NewFromInt(1))
	require.True(t, l.UpdateLine(orig.ID.String(), patch))

	got, _ := l.EffectiveLine(orig.ID.String())
	assert.Equal(t, "Flour 1kg", got.ProductName)
	// Product selection resets the sourcing fields in the same commit.
	assert.Nil(t, got.VendorID)
	assert.Nil(t, got.PricelistID)
	assert.True(t, got.Price.IsZero())
	assert.True(t, got.SubTotalPrice.IsZero())
}

func TestLedgerChangesStripsLocalKeys(t *testing.T) {
	l := NewLedger(nil)
	l.AddLine(model.PurchaseRequestLine{ProductName: "a"})
	l.AddLine(model.PurchaseRequestLine{ProductName: "b"})

	cs := l.Changes()
	require.Len(t, cs.Add, 2)
	for _, ln := range cs.Add {
		assert.Empty(t, ln.LocalID)
		assert.Equal(t, uuid.Nil, ln.ID)
	}
}
