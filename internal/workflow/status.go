package workflow

import (
	"procurement/internal/model"

	"github.com/google/uuid"
)

// CurrentStatus reads a line's current approval status: the last entry of
// its append-only history, or pending when there is no history.
func CurrentStatus(h model.StageHistory) string {
	if len(h) == 0 {
		return model.StagePending
	}
	return h[len(h)-1].Status
}

// LastStageMessage returns the message of the most recent history entry, or
// empty when there is none.
func LastStageMessage(h model.StageHistory) string {
	if len(h) == 0 {
		return ""
	}
	return h[len(h)-1].Message
}

// AppendStageEvent appends one history entry (seq = previous length + 1)
// without mutating the input. Prior entries are never edited; the full audit
// trail is preserved.
func AppendStageEvent(h model.StageHistory, status, message string) model.StageHistory {
	out := make(model.StageHistory, len(h), len(h)+1)
	copy(out, h)
	return append(out, model.StageEvent{Seq: len(h) + 1, Status: status, Message: message})
}

// Summary counts line statuses across a document. New lines carry no
// approval status by definition and are counted separately.
type Summary struct {
	Approved int `json:"approved"`
	Review   int `json:"review"`
	Rejected int `json:"rejected"`
	Pending  int `json:"pending"`
	NewItems int `json:"new_items"`
	Total    int `json:"total"`
}

// Summarize buckets every line by its current status. Lines whose id is not
// in the original snapshot count as new; unrecognized status labels count as
// pending rather than failing.
func Summarize(lines []model.PurchaseRequestLine, originalIDs map[uuid.UUID]struct{}) Summary {
	var s Summary
	for _, ln := range lines {
		s.Total++
		if _, known := originalIDs[ln.ID]; !known {
			s.NewItems++
			continue
		}
		switch CurrentStatus(ln.StagesStatus) {
		case model.StageApproved:
			s.Approved++
		case model.StageReview:
			s.Review++
		case model.StageRejected:
			s.Rejected++
		default:
			s.Pending++
		}
	}
	return s
}
