package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. Each test builds the fixture state it needs
// and asserts against the maps afterwards; no database is involved.

type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakePRRepo struct {
	docs    map[uuid.UUID]*model.PurchaseRequest
	history []model.WorkflowHistory
	numbers int
}

func newFakePRRepo() *fakePRRepo {
	return &fakePRRepo{docs: make(map[uuid.UUID]*model.PurchaseRequest)}
}

func (r *fakePRRepo) put(doc *model.PurchaseRequest) {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	for i := range doc.Lines {
		if doc.Lines[i].ID == uuid.Nil {
			doc.Lines[i].ID = uuid.New()
		}
		doc.Lines[i].PurchaseRequestID = doc.ID
	}
	r.docs[doc.ID] = doc
}

func (r *fakePRRepo) Create(_ context.Context, pr *model.PurchaseRequest) error {
	clone := *pr
	clone.Lines = append([]model.PurchaseRequestLine(nil), pr.Lines...)
	r.put(&clone)
	*pr = clone
	return nil
}

func (r *fakePRRepo) Save(_ context.Context, pr *model.PurchaseRequest) error {
	stored, ok := r.docs[pr.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	lines := stored.Lines
	clone := *pr
	clone.Lines = lines
	r.docs[pr.ID] = &clone
	return nil
}

func (r *fakePRRepo) FindByID(_ context.Context, buCode string, id uuid.UUID) (*model.PurchaseRequest, error) {
	stored, ok := r.docs[id]
	if !ok || stored.BuCode != buCode {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *stored
	clone.Lines = append([]model.PurchaseRequestLine(nil), stored.Lines...)
	sort.Slice(clone.Lines, func(i, j int) bool { return clone.Lines[i].SequenceNo < clone.Lines[j].SequenceNo })
	return &clone, nil
}

func (r *fakePRRepo) List(_ context.Context, buCode string, _ repository.ListPRParams) ([]model.PurchaseRequest, int64, error) {
	var out []model.PurchaseRequest
	for _, d := range r.docs {
		if d.BuCode == buCode {
			out = append(out, *d)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakePRRepo) ApplyChanges(_ context.Context, prID uuid.UUID, cs workflow.ChangeSet) error {
	stored, ok := r.docs[prID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	maxSeq := 0
	for _, ln := range stored.Lines {
		if ln.SequenceNo > maxSeq {
			maxSeq = ln.SequenceNo
		}
	}
	for _, ln := range cs.Add {
		maxSeq++
		ln.ID = uuid.New()
		ln.PurchaseRequestID = prID
		ln.SequenceNo = maxSeq
		stored.Lines = append(stored.Lines, ln)
	}
	for _, upd := range cs.Update {
		for i := range stored.Lines {
			if stored.Lines[i].ID == upd.ID {
				upd.PurchaseRequestID = prID
				upd.SequenceNo = stored.Lines[i].SequenceNo
				stored.Lines[i] = upd
			}
		}
	}
	for _, id := range cs.Remove {
		kept := stored.Lines[:0]
		for _, ln := range stored.Lines {
			if ln.ID != id {
				kept = append(kept, ln)
			}
		}
		stored.Lines = kept
	}
	return nil
}

func (r *fakePRRepo) SaveLine(_ context.Context, line *model.PurchaseRequestLine) error {
	stored, ok := r.docs[line.PurchaseRequestID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range stored.Lines {
		if stored.Lines[i].ID == line.ID {
			stored.Lines[i] = *line
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakePRRepo) UpdateStatus(_ context.Context, id uuid.UUID, status, currentStage string) error {
	stored, ok := r.docs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = status
	stored.CurrentStage = currentStage
	return nil
}

func (r *fakePRRepo) AppendHistory(_ context.Context, entry *model.WorkflowHistory) error {
	r.history = append(r.history, *entry)
	return nil
}

func (r *fakePRRepo) NextNumber(_ context.Context) (string, error) {
	r.numbers++
	return fmt.Sprintf("PR-20260829-%05d", r.numbers), nil
}

func (r *fakePRRepo) CountByStatus(_ context.Context, buCode string) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, d := range r.docs {
		if d.BuCode == buCode {
			out[d.Status]++
		}
	}
	return out, nil
}

type fakeProductRepo struct {
	products map[uuid.UUID]model.Product
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *fakeProductRepo) List(_ context.Context, _, _ int, _ string) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

type fakeLocationRepo struct {
	locations map[uuid.UUID]model.Location
}

func (r *fakeLocationRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Location, error) {
	l, ok := r.locations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &l, nil
}

func (r *fakeLocationRepo) List(_ context.Context, _ string) ([]model.Location, error) {
	var out []model.Location
	for _, l := range r.locations {
		out = append(out, l)
	}
	return out, nil
}

type fakeVendorRepo struct {
	vendors    map[uuid.UUID]model.Vendor
	pricelists []model.Pricelist
}

func (r *fakeVendorRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Vendor, error) {
	v, ok := r.vendors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &v, nil
}

func (r *fakeVendorRepo) List(_ context.Context, _, _ string) ([]model.Vendor, error) {
	var out []model.Vendor
	for _, v := range r.vendors {
		out = append(out, v)
	}
	return out, nil
}

func (r *fakeVendorRepo) FindActivePricelist(_ context.Context, vendorID, productID uuid.UUID, _ time.Time) (*model.Pricelist, error) {
	for _, pl := range r.pricelists {
		if pl.VendorID == vendorID && pl.ProductID == productID {
			found := pl
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeTaxProfileRepo struct {
	profiles map[uuid.UUID]model.TaxProfile
}

func (r *fakeTaxProfileRepo) FindByID(_ context.Context, id uuid.UUID) (*model.TaxProfile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *fakeTaxProfileRepo) ListActive(_ context.Context, _ time.Time) ([]model.TaxProfile, error) {
	var out []model.TaxProfile
	for _, p := range r.profiles {
		out = append(out, p)
	}
	return out, nil
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _, _ int, _ string) ([]model.AuditLog, int64, error) {
	return r.entries, int64(len(r.entries)), nil
}

type fakeWorkflowRepo struct {
	workflows map[uuid.UUID]model.Workflow
}

func (r *fakeWorkflowRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Workflow, error) {
	wf, ok := r.workflows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &wf, nil
}

func (r *fakeWorkflowRepo) ListActive(_ context.Context, _ string) ([]model.Workflow, error) {
	var out []model.Workflow
	for _, wf := range r.workflows {
		out = append(out, wf)
	}
	return out, nil
}

func (r *fakeWorkflowRepo) PreviousStages(_ context.Context, workflowID uuid.UUID, currentStage string) ([]model.WorkflowStage, error) {
	wf, ok := r.workflows[workflowID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	current := -1
	for _, st := range wf.Stages {
		if st.Name == currentStage {
			current = st.SequenceNo
		}
	}
	if current < 0 {
		return nil, nil
	}
	var out []model.WorkflowStage
	for _, st := range wf.Stages {
		if st.SequenceNo < current {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNo < out[j].SequenceNo })
	return out, nil
}

type notifyCall struct {
	RecipientID uuid.UUID
	Title       string
	Type        string
}

type fakeNotifier struct {
	calls []notifyCall
}

func (f *fakeNotifier) Notify(_ context.Context, recipientID uuid.UUID, title, _, ntype, _ string) {
	f.calls = append(f.calls, notifyCall{RecipientID: recipientID, Title: title, Type: ntype})
}

func (f *fakeNotifier) ListForUser(_ context.Context, _ uuid.UUID, _, _ int) ([]model.Notification, int64, error) {
	return nil, 0, nil
}

func (f *fakeNotifier) MarkRead(_ context.Context, _, _ uuid.UUID) error { return nil }
