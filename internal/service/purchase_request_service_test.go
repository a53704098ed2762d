package service

import (
	"context"
	"errors"
	"testing"

	"procurement/internal/model"
	"procurement/internal/workflow"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type prFixture struct {
	svc       PurchaseRequestService
	prs       *fakePRRepo
	audit     *fakeAuditRepo
	productID uuid.UUID
	location  uuid.UUID
	vendorID  uuid.UUID
	priceList uuid.UUID
}

func newPRFixture(t *testing.T) *prFixture {
	t.Helper()

	productID := uuid.New()
	locationID := uuid.New()
	vendorID := uuid.New()
	pricelistID := uuid.New()

	products := &fakeProductRepo{products: map[uuid.UUID]model.Product{
		productID: {ID: productID, SKU: "SKU-001", Name: "Paper A4", InventoryUnit: "box"},
	}}
	locations := &fakeLocationRepo{locations: map[uuid.UUID]model.Location{
		locationID: {ID: locationID, BuCode: "BU1", Name: "Main Store", Type: model.LocationTypeInventory},
	}}
	vendors := &fakeVendorRepo{
		vendors: map[uuid.UUID]model.Vendor{
			vendorID: {ID: vendorID, BuCode: "BU1", Name: "Acme Supplies"},
		},
		pricelists: []model.Pricelist{
			{ID: pricelistID, VendorID: vendorID, ProductID: productID, Price: decimal.NewFromFloat(12.5), Currency: "USD"},
		},
	}
	taxes := &fakeTaxProfileRepo{profiles: map[uuid.UUID]model.TaxProfile{}}
	audit := &fakeAuditRepo{}
	prs := newFakePRRepo()

	svc := NewPurchaseRequestService(prs, products, locations, vendors, taxes, audit, fakeTxManager{}, nil, zerolog.Nop())
	return &prFixture{
		svc:       svc,
		prs:       prs,
		audit:     audit,
		productID: productID,
		location:  locationID,
		vendorID:  vendorID,
		priceList: pricelistID,
	}
}

func float64Ptr(v float64) *float64    { return &v }
func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }

func TestCreatePurchaseRequest(t *testing.T) {
	f := newPRFixture(t)
	userID := uuid.New()

	doc, err := f.svc.Create(context.Background(), "BU1", userID, SavePRDTO{
		Description: "Office restock",
		Items: ItemsDTO{
			Add: []LineFieldsDTO{{
				LocationID:   uuidPtr(f.location),
				ProductID:    uuidPtr(f.productID),
				RequestedQty: float64Ptr(4),
				VendorID:     uuidPtr(f.vendorID),
				PricelistID:  uuidPtr(f.priceList),
			}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "PR-20260829-00001", doc.PRNo)
	assert.Equal(t, model.PRStatusDraft, doc.Status)
	require.Len(t, doc.Lines, 1)

	ln := doc.Lines[0]
	assert.Equal(t, "Paper A4", ln.ProductName)
	assert.Equal(t, "Main Store", ln.LocationName)
	assert.Equal(t, "Acme Supplies", ln.VendorName)
	assert.True(t, ln.Price.Equal(decimal.NewFromFloat(12.5)), "pricelist selection seeds the price")
	assert.True(t, ln.TotalPrice.Equal(decimal.NewFromInt(50)), "got %s", ln.TotalPrice)
	assert.Empty(t, ln.LocalID, "client-side keys must not persist")

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, model.ActionCreatePR, f.audit.entries[0].Action)
	assert.Equal(t, doc.PRNo, f.audit.entries[0].EntityName)
}

func TestCreateRejectsIncompleteLines(t *testing.T) {
	f := newPRFixture(t)

	_, err := f.svc.Create(context.Background(), "BU1", uuid.New(), SavePRDTO{
		Items: ItemsDTO{
			Add: []LineFieldsDTO{{
				LocationID:   uuidPtr(f.location),
				RequestedQty: float64Ptr(1),
			}},
		},
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Lines, 1)
	assert.Equal(t, "product_id", verr.Lines[0].Field)
	assert.Empty(t, f.audit.entries, "nothing must be written on validation failure")
}

func TestCreateRejectsUnknownReference(t *testing.T) {
	f := newPRFixture(t)

	_, err := f.svc.Create(context.Background(), "BU1", uuid.New(), SavePRDTO{
		Items: ItemsDTO{
			Add: []LineFieldsDTO{{
				LocationID:   uuidPtr(f.location),
				ProductID:    uuidPtr(uuid.New()),
				RequestedQty: float64Ptr(1),
			}},
		},
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "product", verr.Lines[0].Field)
}

func seedDoc(f *prFixture, status string) *model.PurchaseRequest {
	line := model.PurchaseRequestLine{
		ID:           uuid.New(),
		SequenceNo:   1,
		LocationID:   uuidPtr(f.location),
		LocationName: "Main Store",
		ProductID:    uuidPtr(f.productID),
		ProductName:  "Paper A4",
		RequestedQty: decimal.NewFromInt(2),
		Price:        decimal.NewFromInt(10),
		Currency:     "USD",
	}
	workflow.Recalculate(&line)
	doc := &model.PurchaseRequest{
		PRNo:   "PR-20260810-00042",
		BuCode: "BU1",
		Status: status,
		Lines:  []model.PurchaseRequestLine{line},
	}
	f.prs.put(doc)
	return doc
}

func TestSaveAppliesChangeSet(t *testing.T) {
	f := newPRFixture(t)
	doc := seedDoc(f, model.PRStatusDraft)
	lineID := doc.Lines[0].ID

	saved, err := f.svc.Save(context.Background(), "BU1", doc.ID, uuid.New(), SavePRDTO{
		Items: ItemsDTO{
			Update: []LineUpdateDTO{{
				ID:            lineID,
				LineFieldsDTO: LineFieldsDTO{Price: float64Ptr(20)},
			}},
			Add: []LineFieldsDTO{{
				LocationID:   uuidPtr(f.location),
				ProductID:    uuidPtr(f.productID),
				RequestedQty: float64Ptr(3),
			}},
		},
	})
	require.NoError(t, err)
	require.Len(t, saved.Lines, 2)

	assert.Equal(t, lineID, saved.Lines[0].ID)
	assert.True(t, saved.Lines[0].TotalPrice.Equal(decimal.NewFromInt(40)), "price edit must recalculate totals")
	assert.Equal(t, 2, saved.Lines[1].SequenceNo, "new lines append after existing ones")

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, model.ActionSavePR, f.audit.entries[0].Action)
}

func TestSaveRemoveSupersedesUpdate(t *testing.T) {
	f := newPRFixture(t)
	doc := seedDoc(f, model.PRStatusDraft)
	lineID := doc.Lines[0].ID

	saved, err := f.svc.Save(context.Background(), "BU1", doc.ID, uuid.New(), SavePRDTO{
		Items: ItemsDTO{
			Update: []LineUpdateDTO{{ID: lineID, LineFieldsDTO: LineFieldsDTO{Price: float64Ptr(99)}}},
			Remove: []LineRemoveDTO{{ID: lineID}},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, saved.Lines)
}

func TestSaveLockedDocument(t *testing.T) {
	f := newPRFixture(t)
	doc := seedDoc(f, model.PRStatusCompleted)

	_, err := f.svc.Save(context.Background(), "BU1", doc.ID, uuid.New(), SavePRDTO{})
	assert.True(t, errors.Is(err, ErrLocked))
}

func TestGetUnknownDocument(t *testing.T) {
	f := newPRFixture(t)

	_, err := f.svc.Get(context.Background(), "BU1", uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetScopedByBusinessUnit(t *testing.T) {
	f := newPRFixture(t)
	doc := seedDoc(f, model.PRStatusDraft)

	_, err := f.svc.Get(context.Background(), "BU2", doc.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBulkLineStatusAppendsEvents(t *testing.T) {
	f := newPRFixture(t)
	doc := seedDoc(f, model.PRStatusInProgress)
	lineID := doc.Lines[0].ID

	updated, err := f.svc.ApplyBulkLineStatus(context.Background(), "BU1", doc.ID, uuid.New(), BulkLineStatusDTO{
		LineIDs: []uuid.UUID{lineID},
		Status:  model.StageApproved,
	})
	require.NoError(t, err)

	history := updated.Lines[0].StagesStatus
	require.Len(t, history, 1)
	assert.Equal(t, model.StageApproved, history[0].Status)
	assert.Equal(t, 1, history[0].Seq)

	// A second decision appends rather than overwrites.
	updated, err = f.svc.ApplyBulkLineStatus(context.Background(), "BU1", doc.ID, uuid.New(), BulkLineStatusDTO{
		LineIDs: []uuid.UUID{lineID},
		Status:  model.StageReview,
		Message: "double-check vendor quote",
	})
	require.NoError(t, err)
	history = updated.Lines[0].StagesStatus
	require.Len(t, history, 2)
	assert.Equal(t, model.StageReview, history[1].Status)
	assert.Equal(t, "double-check vendor quote", history[1].Message)
}

func TestBulkLineStatusRequiresReason(t *testing.T) {
	f := newPRFixture(t)
	doc := seedDoc(f, model.PRStatusInProgress)

	_, err := f.svc.ApplyBulkLineStatus(context.Background(), "BU1", doc.ID, uuid.New(), BulkLineStatusDTO{
		LineIDs: []uuid.UUID{doc.Lines[0].ID},
		Status:  model.StageRejected,
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestBulkLineStatusUnknownLines(t *testing.T) {
	f := newPRFixture(t)
	doc := seedDoc(f, model.PRStatusInProgress)

	_, err := f.svc.ApplyBulkLineStatus(context.Background(), "BU1", doc.ID, uuid.New(), BulkLineStatusDTO{
		LineIDs: []uuid.UUID{uuid.New()},
		Status:  model.StageApproved,
	})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestActionsResponse(t *testing.T) {
	f := newPRFixture(t)
	doc := seedDoc(f, model.PRStatusDraft)

	resp, err := f.svc.Actions(context.Background(), "BU1", doc.ID)
	require.NoError(t, err)

	assert.Equal(t, []workflow.Action{workflow.ActionSave, workflow.ActionSubmit}, resp.Actions)
	assert.False(t, resp.DocumentIsLocked)
	assert.False(t, resp.WorkflowSelected)
	assert.True(t, resp.PurchaseBlocked, "unsourced lines block purchase approval")
}
