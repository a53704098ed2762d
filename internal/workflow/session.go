package workflow

import (
	"procurement/internal/model"
)

// Mode is the edit mode of a form session.
type Mode string

const (
	ModeAdd  Mode = "add"
	ModeEdit Mode = "edit"
	ModeView Mode = "view"
)

// Session owns the workflow state of one purchase request instance: the
// ledger over its server snapshot, the derived status summary, and the
// action eligibility the summary drives. It is an explicit value passed to
// whoever edits the document; nothing here is ambient.
//
// A session in view mode rejects all mutations. Reaching a terminal
// document status forces view mode.
type Session struct {
	doc    model.PurchaseRequest
	ledger *Ledger
	mode   Mode
}

// NewSession builds a session for one document. Terminal documents are
// always opened in view mode regardless of the requested mode.
func NewSession(doc model.PurchaseRequest, mode Mode) *Session {
	if model.IsTerminalStatus(doc.Status) {
		mode = ModeView
	}
	return &Session{
		doc:    doc,
		ledger: NewLedger(doc.Lines),
		mode:   mode,
	}
}

// Mode returns the session's edit mode.
func (s *Session) Mode() Mode { return s.mode }

// Document returns the document header the session was opened with.
func (s *Session) Document() model.PurchaseRequest { return s.doc }

// Ledger exposes the session's line-item ledger for read access.
func (s *Session) Ledger() *Ledger { return s.ledger }

// AddLine inserts a new line. Rejected in view mode.
func (s *Session) AddLine(seed model.PurchaseRequestLine) (string, bool) {
	if s.mode == ModeView {
		return "", false
	}
	return s.ledger.AddLine(seed), true
}

// UpdateLine applies a patch bundle to one line. Rejected in view mode.
func (s *Session) UpdateLine(key string, patch *LinePatch) bool {
	if s.mode == ModeView {
		return false
	}
	return s.ledger.UpdateLine(key, patch)
}

// RemoveLine deletes one line. Rejected in view mode.
func (s *Session) RemoveLine(key string) bool {
	if s.mode == ModeView {
		return false
	}
	return s.ledger.RemoveLine(key)
}

// Batch collects multi-line mutations so that validation runs exactly once
// over the fully settled state, never over a partial commit.
type Batch struct {
	ops []func(*Ledger)
}

// Begin starts a mutation batch.
func (s *Session) Begin() *Batch { return &Batch{} }

// Add queues a new line.
func (b *Batch) Add(seed model.PurchaseRequestLine) *Batch {
	b.ops = append(b.ops, func(l *Ledger) { l.AddLine(seed) })
	return b
}

// Update queues a patch for one line.
func (b *Batch) Update(key string, patch *LinePatch) *Batch {
	b.ops = append(b.ops, func(l *Ledger) { l.UpdateLine(key, patch) })
	return b
}

// Remove queues a line removal.
func (b *Batch) Remove(key string) *Batch {
	b.ops = append(b.ops, func(l *Ledger) { l.RemoveLine(key) })
	return b
}

// Commit applies every queued mutation in order, then validates the settled
// projection once. In view mode the batch is discarded and nothing runs.
func (s *Session) Commit(b *Batch) []LineValidationError {
	if s.mode == ModeView || b == nil {
		return nil
	}
	for _, op := range b.ops {
		op(s.ledger)
	}
	return s.Validate()
}

// Dirty reports whether the session holds unsaved changes; the UI uses it
// for the cancel-confirmation prompt.
func (s *Session) Dirty() bool { return s.ledger.Dirty() }

// Summary recomputes the document-level status summary over the current
// projection.
func (s *Session) Summary() Summary {
	return Summarize(s.ledger.ProjectedLines(), s.ledger.OriginalIDs())
}

// Actions returns the workflow actions currently legal for the document.
func (s *Session) Actions() []Action {
	if s.mode == ModeAdd {
		// An unsaved document only supports save.
		return []Action{ActionSave}
	}
	return VisibleActions(s.Summary(), s.doc.Status)
}

// Validate runs the required-field check over the current projection.
func (s *Session) Validate() []LineValidationError {
	return ValidateLines(s.ledger.ProjectedLines())
}

// Changes builds the three-bucket persistence payload.
func (s *Session) Changes() ChangeSet { return s.ledger.Changes() }
