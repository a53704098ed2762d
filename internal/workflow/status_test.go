package workflow

import (
	"encoding/json"
	"testing"

	"procurement/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyLine(statuses ...string) model.PurchaseRequestLine {
	ln := model.PurchaseRequestLine{ID: uuid.New()}
	for _, st := range statuses {
		ln.StagesStatus = AppendStageEvent(ln.StagesStatus, st, "")
	}
	return ln
}

func idSet(lines ...model.PurchaseRequestLine) map[uuid.UUID]struct{} {
	ids := make(map[uuid.UUID]struct{}, len(lines))
	for _, ln := range lines {
		ids[ln.ID] = struct{}{}
	}
	return ids
}

func TestCurrentStatus(t *testing.T) {
	assert.Equal(t, model.StagePending, CurrentStatus(nil))
	assert.Equal(t, model.StagePending, CurrentStatus(model.StageHistory{}))

	h := model.StageHistory{
		{Seq: 1, Status: model.StageApproved},
		{Seq: 2, Status: model.StageReview, Message: "check qty"},
	}
	assert.Equal(t, model.StageReview, CurrentStatus(h), "last entry wins")
}

func TestAppendStageEventAppendsNotReplaces(t *testing.T) {
	h := model.StageHistory{{Seq: 1, Status: model.StageApproved}}
	got := AppendStageEvent(h, model.StageRejected, "bad")

	require.Len(t, got, 2, "length increases by exactly 1")
	assert.Equal(t, model.StageEvent{Seq: 1, Status: model.StageApproved}, got[0], "prior entries unchanged")
	assert.Equal(t, model.StageEvent{Seq: 2, Status: model.StageRejected, Message: "bad"}, got[1])

	require.Len(t, h, 1, "input history not mutated")
}

func TestSummarizeCompleteness(t *testing.T) {
	approved := historyLine(model.StageApproved)
	reviewed := historyLine(model.StageApproved, model.StageReview)
	rejected := historyLine(model.StageRejected)
	pending := historyLine()
	odd := historyLine("weird_status") // lenient: unknown labels bucket as pending
	fresh := model.PurchaseRequestLine{LocalID: "abc123"}

	lines := []model.PurchaseRequestLine{approved, reviewed, rejected, pending, odd, fresh}
	sum := Summarize(lines, idSet(approved, reviewed, rejected, pending, odd))

	assert.Equal(t, 1, sum.Approved)
	assert.Equal(t, 1, sum.Review)
	assert.Equal(t, 1, sum.Rejected)
	assert.Equal(t, 2, sum.Pending)
	assert.Equal(t, 1, sum.NewItems)
	assert.Equal(t, len(lines), sum.Total)
	assert.Equal(t, sum.Total, sum.Approved+sum.Review+sum.Rejected+sum.Pending+sum.NewItems)
}

func TestStageHistoryLenientDecoding(t *testing.T) {
	// Legacy rows may carry a bare string instead of the event array; that
	// reads as no history, i.e. pending.
	var h model.StageHistory
	require.NoError(t, json.Unmarshal([]byte(`"approved"`), &h))
	assert.Empty(t, h)
	assert.Equal(t, model.StagePending, CurrentStatus(h))

	require.NoError(t, json.Unmarshal([]byte(`[{"seq":1,"status":"approved"}]`), &h))
	require.Len(t, h, 1)
	assert.Equal(t, model.StageApproved, CurrentStatus(h))
}

func TestLastStageMessage(t *testing.T) {
	assert.Empty(t, LastStageMessage(nil))
	h := AppendStageEvent(nil, model.StageReview, "recheck vendor")
	assert.Equal(t, "recheck vendor", LastStageMessage(h))
}
