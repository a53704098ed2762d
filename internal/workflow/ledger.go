package workflow

import (
	"sort"

	"procurement/internal/model"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/shopspring/decimal"
)

// Classification tags a line's relation to the server snapshot.
type Classification int

const (
	ClassUnknown Classification = iota
	ClassNew
	ClassModified
	ClassUnmodified
	ClassRemoved
)

func (c Classification) String() string {
	switch c {
	case ClassNew:
		return "new"
	case ClassModified:
		return "modified"
	case ClassUnmodified:
		return "unmodified"
	case ClassRemoved:
		return "removed"
	}
	return "unknown"
}

// ChangeSet is the three-bucket payload the ledger accumulates for the
// document store: full payloads for new lines, patched clones for modified
// ones, and ids of lines to delete.
type ChangeSet struct {
	Add    []model.PurchaseRequestLine `json:"add"`
	Update []model.PurchaseRequestLine `json:"update"`
	Remove []uuid.UUID                 `json:"remove"`
}

// Empty reports whether the change set carries no mutations.
func (c ChangeSet) Empty() bool {
	return len(c.Add) == 0 && len(c.Update) == 0 && len(c.Remove) == 0
}

// Ledger tracks per-line mutations against an immutable snapshot as three
// disjoint buckets. New lines live only in add; edits to existing lines
// clone the original into update on first touch; removals are recorded once
// in remove and supersede any pending update for the same id. None of the
// operations error: unknown keys are absorbed and reported via the bool
// return.
type Ledger struct {
	original     []model.PurchaseRequestLine
	originalByID map[uuid.UUID]int

	add        []model.PurchaseRequestLine // newest first
	updates    map[uuid.UUID]*model.PurchaseRequestLine
	removed    []uuid.UUID
	removedSet map[uuid.UUID]struct{}
}

// NewLedger snapshots the given lines. The snapshot is copied and never
// mutated afterwards.
func NewLedger(snapshot []model.PurchaseRequestLine) *Ledger {
	l := &Ledger{
		original:     make([]model.PurchaseRequestLine, len(snapshot)),
		originalByID: make(map[uuid.UUID]int, len(snapshot)),
		updates:      make(map[uuid.UUID]*model.PurchaseRequestLine),
		removedSet:   make(map[uuid.UUID]struct{}),
	}
	copy(l.original, snapshot)
	for i, ln := range l.original {
		l.originalByID[ln.ID] = i
	}
	return l
}

// AddLine prepends a new line seeded from the given defaults and returns its
// generated local key. The line has no server id until persisted.
func (l *Ledger) AddLine(seed model.PurchaseRequestLine) string {
	key, err := gonanoid.New()
	if err != nil {
		key = uuid.NewString()
	}
	seed.ID = uuid.Nil
	seed.LocalID = key
	if seed.RequestedUnitConv.IsZero() {
		seed.RequestedUnitConv = decimal.NewFromInt(1)
	}
	l.add = append([]model.PurchaseRequestLine{seed}, l.add...)
	return key
}

// UpdateLine applies all of the patch's field writes as one logical update.
// The key is either a local key from AddLine or the string form of a server
// line id. Lines already marked removed are hidden and cannot be updated.
// Monetary derivations are recomputed in the same commit when the patch
// touches a pricing field.
func (l *Ledger) UpdateLine(key string, patch *LinePatch) bool {
	if patch == nil {
		return false
	}
	if idx, ok := l.addIndex(key); ok {
		patch.apply(&l.add[idx])
		if patch.money {
			Recalculate(&l.add[idx])
		}
		return true
	}
	id, err := uuid.Parse(key)
	if err != nil {
		return false
	}
	if _, gone := l.removedSet[id]; gone {
		return false
	}
	entry, ok := l.updates[id]
	if !ok {
		idx, found := l.originalByID[id]
		if !found {
			return false
		}
		clone := l.original[idx]
		clone.StagesStatus = append(model.StageHistory(nil), clone.StagesStatus...)
		l.updates[id] = &clone
		entry = &clone
	}
	patch.apply(entry)
	if patch.money {
		Recalculate(entry)
	}
	return true
}

// RemoveLine deletes a line. New lines are spliced out with no trace;
// existing lines are evicted from the update bucket and recorded exactly
// once in remove.
func (l *Ledger) RemoveLine(key string) bool {
	if idx, ok := l.addIndex(key); ok {
		l.add = append(l.add[:idx], l.add[idx+1:]...)
		return true
	}
	id, err := uuid.Parse(key)
	if err != nil {
		return false
	}
	if _, found := l.originalByID[id]; !found {
		return false
	}
	delete(l.updates, id)
	if _, dup := l.removedSet[id]; !dup {
		l.removedSet[id] = struct{}{}
		l.removed = append(l.removed, id)
	}
	return true
}

// EffectiveLine resolves the current view of a line: add entry first, then
// patched clone, then the untouched original. Removed lines resolve to
// nothing.
func (l *Ledger) EffectiveLine(key string) (model.PurchaseRequestLine, bool) {
	if idx, ok := l.addIndex(key); ok {
		return l.add[idx], true
	}
	id, err := uuid.Parse(key)
	if err != nil {
		return model.PurchaseRequestLine{}, false
	}
	if _, gone := l.removedSet[id]; gone {
		return model.PurchaseRequestLine{}, false
	}
	if entry, ok := l.updates[id]; ok {
		return *entry, true
	}
	if idx, ok := l.originalByID[id]; ok {
		return l.original[idx], true
	}
	return model.PurchaseRequestLine{}, false
}

// Classify answers which bucket a line currently belongs to.
func (l *Ledger) Classify(key string) Classification {
	if _, ok := l.addIndex(key); ok {
		return ClassNew
	}
	id, err := uuid.Parse(key)
	if err != nil {
		return ClassUnknown
	}
	if _, gone := l.removedSet[id]; gone {
		return ClassRemoved
	}
	if _, ok := l.updates[id]; ok {
		return ClassModified
	}
	if _, ok := l.originalByID[id]; ok {
		return ClassUnmodified
	}
	return ClassUnknown
}

// ProjectedLines is the list the UI and the recalculation engine iterate
// over: new lines first (newest first), then surviving originals with any
// pending updates applied, ordered by sequence number.
func (l *Ledger) ProjectedLines() []model.PurchaseRequestLine {
	out := make([]model.PurchaseRequestLine, 0, len(l.add)+len(l.original))
	out = append(out, l.add...)

	rest := make([]model.PurchaseRequestLine, 0, len(l.original))
	for _, ln := range l.original {
		if _, gone := l.removedSet[ln.ID]; gone {
			continue
		}
		if entry, ok := l.updates[ln.ID]; ok {
			rest = append(rest, *entry)
			continue
		}
		rest = append(rest, ln)
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].SequenceNo < rest[j].SequenceNo })
	return append(out, rest...)
}

// OriginalIDs returns the set of server line ids present in the snapshot.
func (l *Ledger) OriginalIDs() map[uuid.UUID]struct{} {
	ids := make(map[uuid.UUID]struct{}, len(l.original))
	for _, ln := range l.original {
		ids[ln.ID] = struct{}{}
	}
	return ids
}

// Changes builds the persistence payload. Transient local keys are stripped
// from add entries; update entries are full patched clones keyed by their
// original id.
func (l *Ledger) Changes() ChangeSet {
	cs := ChangeSet{}
	for _, ln := range l.add {
		ln.LocalID = ""
		cs.Add = append(cs.Add, ln)
	}
	for _, ln := range l.original {
		if entry, ok := l.updates[ln.ID]; ok {
			cs.Update = append(cs.Update, *entry)
		}
	}
	cs.Remove = append(cs.Remove, l.removed...)
	return cs
}

// Dirty reports whether any bucket holds a pending mutation.
func (l *Ledger) Dirty() bool {
	return len(l.add) > 0 || len(l.updates) > 0 || len(l.removed) > 0
}

func (l *Ledger) addIndex(key string) (int, bool) {
	if key == "" {
		return 0, false
	}
	for i := range l.add {
		if l.add[i].LocalID == key {
			return i, true
		}
	}
	return 0, false
}
