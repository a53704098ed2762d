package workflow

import (
	"testing"

	"procurement/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTerminalForcesViewMode(t *testing.T) {
	doc := model.PurchaseRequest{Status: model.PRStatusApproved}
	s := NewSession(doc, ModeEdit)
	assert.Equal(t, ModeView, s.Mode())

	_, ok := s.AddLine(model.PurchaseRequestLine{})
	assert.False(t, ok)
	assert.False(t, s.UpdateLine(uuid.NewString(), NewLinePatch().WithComment("x")))
	assert.False(t, s.Dirty())
	assert.Nil(t, s.Actions())
}

func TestSessionAddModeOnlySaves(t *testing.T) {
	s := NewSession(model.PurchaseRequest{Status: model.PRStatusDraft}, ModeAdd)
	assert.Equal(t, []Action{ActionSave}, s.Actions())
}

func TestSessionDirtyTracking(t *testing.T) {
	orig := existingLine(1)
	doc := model.PurchaseRequest{Status: model.PRStatusDraft, Lines: []model.PurchaseRequestLine{orig}}
	s := NewSession(doc, ModeEdit)

	assert.False(t, s.Dirty())
	require.True(t, s.UpdateLine(orig.ID.String(), NewLinePatch().WithComment("note")))
	assert.True(t, s.Dirty(), "any ledger mutation marks the session dirty")
}

func TestSessionBatchCommitValidatesOnce(t *testing.T) {
	orig := existingLine(1)
	doc := model.PurchaseRequest{Status: model.PRStatusDraft, Lines: []model.PurchaseRequestLine{orig}}
	s := NewSession(doc, ModeEdit)

	// A bundled update that zeroes the qty and adds an incomplete line: the
	// commit applies everything first, validation sees only settled state.
	b := s.Begin().
		Update(orig.ID.String(), NewLinePatch().WithRequestedQty(decimal.Zero)).
		Add(model.PurchaseRequestLine{})
	errs := s.Commit(b)

	require.NotEmpty(t, errs)
	fields := make(map[string]bool)
	for _, e := range errs {
		fields[e.Field] = true
	}
	assert.True(t, fields["requested_qty"])
	assert.True(t, fields["location_id"])
	assert.True(t, fields["product_id"])
}

func TestSessionSummaryAndActions(t *testing.T) {
	a := historyLine(model.StageApproved)
	b := historyLine(model.StageApproved)
	doc := model.PurchaseRequest{
		Status: model.PRStatusSubmit,
		Lines:  []model.PurchaseRequestLine{a, b},
	}
	s := NewSession(doc, ModeEdit)

	sum := s.Summary()
	assert.Equal(t, 2, sum.Approved)
	assert.Equal(t, []Action{ActionApprove, ActionSubmit}, s.Actions())

	// Adding a line flips the summary to the mixed branch.
	_, ok := s.AddLine(model.PurchaseRequestLine{})
	require.True(t, ok)
	sum = s.Summary()
	assert.Equal(t, 1, sum.NewItems)
	assert.Contains(t, s.Actions(), ActionPurchaseApprove)
}

func TestSessionValidatePassesCompleteLines(t *testing.T) {
	orig := existingLine(1)
	doc := model.PurchaseRequest{Status: model.PRStatusDraft, Lines: []model.PurchaseRequestLine{orig}}
	s := NewSession(doc, ModeEdit)
	assert.Empty(t, s.Validate())
}
