package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"procurement/internal/cache"
	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/internal/workflow"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

// LineFieldsDTO is the field bag a client may set on a line. Absent fields
// are left untouched; absent numeric inputs coerce to zero when the field
// itself is present. Reference ids are resolved server-side into their
// display names and dependent values (product -> unit, pricelist -> price,
// tax profile -> rate).
type LineFieldsDTO struct {
	LocationID           *uuid.UUID `json:"location_id"`
	ProductID            *uuid.UUID `json:"product_id"`
	RequestedQty         *float64   `json:"requested_qty"`
	ApprovedQty          *float64   `json:"approved_qty"`
	FocQty               *float64   `json:"foc_qty"`
	VendorID             *uuid.UUID `json:"vendor_id"`
	PricelistID          *uuid.UUID `json:"pricelist_id"`
	Price                *float64   `json:"price"`
	DiscountRate         *float64   `json:"discount_rate"`
	DiscountAmount       *float64   `json:"discount_amount"`
	IsDiscountAdjustment *bool      `json:"is_discount_adjustment"`
	TaxRate              *float64   `json:"tax_rate"`
	TaxAmount            *float64   `json:"tax_amount"`
	IsTaxAdjustment      *bool      `json:"is_tax_adjustment"`
	TaxProfileID         *uuid.UUID `json:"tax_profile_id"`
	DeliveryDate         *time.Time `json:"delivery_date"`
	DeliveryPointID      *uuid.UUID `json:"delivery_point_id"`
	Comment              *string    `json:"comment"`
}

// LineUpdateDTO patches one existing line by id.
type LineUpdateDTO struct {
	ID uuid.UUID `json:"id" binding:"required"`
	LineFieldsDTO
}

// LineRemoveDTO marks one existing line for deletion.
type LineRemoveDTO struct {
	ID uuid.UUID `json:"id" binding:"required"`
}

// ItemsDTO is the three-bucket changeset submitted against the last-known
// server snapshot.
type ItemsDTO struct {
	Add    []LineFieldsDTO `json:"add"`
	Update []LineUpdateDTO `json:"update"`
	Remove []LineRemoveDTO `json:"remove"`
}

// SavePRDTO creates or updates one purchase request.
type SavePRDTO struct {
	WorkflowID     *uuid.UUID `json:"workflow_id"`
	DepartmentID   *uuid.UUID `json:"department_id"`
	DepartmentName string     `json:"department_name"`
	PRDate         *time.Time `json:"pr_date"`
	Description    string     `json:"description"`
	Note           string     `json:"note"`
	Items          ItemsDTO   `json:"items"`
}

// BulkLineStatusDTO applies one approval decision to a set of lines.
type BulkLineStatusDTO struct {
	LineIDs []uuid.UUID `json:"line_ids" binding:"required,min=1"`
	Status  string      `json:"status" binding:"required,oneof=approved review rejected"`
	Message string      `json:"message"`
}

// ActionsResponse describes what the current user may do with a document.
type ActionsResponse struct {
	Summary           workflow.Summary  `json:"summary"`
	Actions           []workflow.Action `json:"actions"`
	PurchaseBlocked   bool              `json:"purchase_blocked"`
	WorkflowSelected  bool              `json:"workflow_selected"`
	DocumentStatus    string            `json:"document_status"`
	DocumentIsLocked  bool              `json:"document_is_locked"`
	CurrentStageLabel string            `json:"current_stage"`
}

// --- Interface ---

type PurchaseRequestService interface {
	Create(ctx context.Context, buCode string, userID uuid.UUID, req SavePRDTO) (*model.PurchaseRequest, error)
	Save(ctx context.Context, buCode string, id uuid.UUID, userID uuid.UUID, req SavePRDTO) (*model.PurchaseRequest, error)
	Get(ctx context.Context, buCode string, id uuid.UUID) (*model.PurchaseRequest, error)
	List(ctx context.Context, buCode string, p repository.ListPRParams) ([]model.PurchaseRequest, int64, error)
	Actions(ctx context.Context, buCode string, id uuid.UUID) (*ActionsResponse, error)
	ApplyBulkLineStatus(ctx context.Context, buCode string, id uuid.UUID, userID uuid.UUID, req BulkLineStatusDTO) (*model.PurchaseRequest, error)
	CountByStatus(ctx context.Context, buCode string) (map[string]int64, error)
}

type purchaseRequestService struct {
	repo      repository.PurchaseRequestRepository
	products  repository.ProductRepository
	locations repository.LocationRepository
	vendors   repository.VendorRepository
	taxes     repository.TaxProfileRepository
	audit     repository.AuditRepository
	tx        repository.TransactionManager
	docs      *cache.DocumentCache
	log       zerolog.Logger
}

func NewPurchaseRequestService(
	repo repository.PurchaseRequestRepository,
	products repository.ProductRepository,
	locations repository.LocationRepository,
	vendors repository.VendorRepository,
	taxes repository.TaxProfileRepository,
	audit repository.AuditRepository,
	tx repository.TransactionManager,
	docs *cache.DocumentCache,
	log zerolog.Logger,
) PurchaseRequestService {
	return &purchaseRequestService{
		repo:      repo,
		products:  products,
		locations: locations,
		vendors:   vendors,
		taxes:     taxes,
		audit:     audit,
		tx:        tx,
		docs:      docs,
		log:       log,
	}
}

// --- Implementation ---

func (s *purchaseRequestService) Create(ctx context.Context, buCode string, userID uuid.UUID, req SavePRDTO) (*model.PurchaseRequest, error) {
	doc := model.PurchaseRequest{
		BuCode:      buCode,
		Status:      model.PRStatusDraft,
		RequestorID: &userID,
		PRDate:      time.Now(),
	}
	s.applyHeader(&doc, req)

	sess := workflow.NewSession(doc, workflow.ModeAdd)
	if err := s.replayItems(ctx, sess, req.Items); err != nil {
		return nil, err
	}
	if verrs := sess.Validate(); len(verrs) > 0 {
		return nil, &ValidationError{Lines: verrs}
	}

	lines := sess.Ledger().ProjectedLines()
	for i := range lines {
		lines[i].LocalID = ""
		lines[i].SequenceNo = i + 1
	}
	doc.Lines = lines

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		number, err := s.repo.NextNumber(txCtx)
		if err != nil {
			return fmt.Errorf("failed to generate document number: %w", err)
		}
		doc.PRNo = number
		if err := s.repo.Create(txCtx, &doc); err != nil {
			return fmt.Errorf("failed to create purchase request: %w", err)
		}
		return s.writeAudit(txCtx, &userID, model.ActionCreatePR, doc.ID.String(), doc.PRNo, map[string]interface{}{
			"lines": len(doc.Lines),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, buCode, doc.ID)
}

func (s *purchaseRequestService) Save(ctx context.Context, buCode string, id uuid.UUID, userID uuid.UUID, req SavePRDTO) (*model.PurchaseRequest, error) {
	doc, err := s.load(ctx, buCode, id)
	if err != nil {
		return nil, err
	}

	sess := workflow.NewSession(*doc, workflow.ModeEdit)
	if sess.Mode() == workflow.ModeView {
		return nil, ErrLocked
	}
	if err := s.replayItems(ctx, sess, req.Items); err != nil {
		return nil, err
	}
	if verrs := sess.Validate(); len(verrs) > 0 {
		return nil, &ValidationError{Lines: verrs}
	}

	changes := sess.Changes()
	s.applyHeader(doc, req)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Save(txCtx, doc); err != nil {
			return fmt.Errorf("failed to save purchase request: %w", err)
		}
		if !changes.Empty() {
			if err := s.repo.ApplyChanges(txCtx, doc.ID, changes); err != nil {
				return err
			}
		}
		return s.writeAudit(txCtx, &userID, model.ActionSavePR, doc.ID.String(), doc.PRNo, map[string]interface{}{
			"added":   len(changes.Add),
			"updated": len(changes.Update),
			"removed": len(changes.Remove),
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, buCode, id)
	return s.reload(ctx, buCode, id)
}

func (s *purchaseRequestService) Get(ctx context.Context, buCode string, id uuid.UUID) (*model.PurchaseRequest, error) {
	if doc, hit := s.docs.GetDocument(ctx, buCode, id); hit {
		return doc, nil
	}
	doc, err := s.load(ctx, buCode, id)
	if err != nil {
		return nil, err
	}
	if err := s.docs.SetDocument(ctx, doc); err != nil {
		s.log.Warn().Err(err).Str("pr_no", doc.PRNo).Msg("failed to cache document")
	}
	return doc, nil
}

func (s *purchaseRequestService) List(ctx context.Context, buCode string, p repository.ListPRParams) ([]model.PurchaseRequest, int64, error) {
	return s.repo.List(ctx, buCode, p)
}

func (s *purchaseRequestService) Actions(ctx context.Context, buCode string, id uuid.UUID) (*ActionsResponse, error) {
	doc, err := s.Get(ctx, buCode, id)
	if err != nil {
		return nil, err
	}
	ledger := workflow.NewLedger(doc.Lines)
	sum := workflow.Summarize(doc.Lines, ledger.OriginalIDs())
	return &ActionsResponse{
		Summary:           sum,
		Actions:           workflow.VisibleActions(sum, doc.Status),
		PurchaseBlocked:   workflow.PurchaseApproveBlocked(doc.Lines),
		WorkflowSelected:  doc.WorkflowID != nil,
		DocumentStatus:    doc.Status,
		DocumentIsLocked:  model.IsTerminalStatus(doc.Status),
		CurrentStageLabel: doc.CurrentStage,
	}, nil
}

// ApplyBulkLineStatus appends one approval event to each selected line,
// preserving the full history. Review and reject require a reason.
func (s *purchaseRequestService) ApplyBulkLineStatus(ctx context.Context, buCode string, id uuid.UUID, userID uuid.UUID, req BulkLineStatusDTO) (*model.PurchaseRequest, error) {
	if req.Message == "" && (req.Status == model.StageReview || req.Status == model.StageRejected) {
		return nil, &ValidationError{Lines: []workflow.LineValidationError{
			{Field: "message", Reason: "required for " + req.Status},
		}}
	}

	doc, err := s.load(ctx, buCode, id)
	if err != nil {
		return nil, err
	}
	if model.IsTerminalStatus(doc.Status) {
		return nil, ErrLocked
	}

	selected := make(map[uuid.UUID]struct{}, len(req.LineIDs))
	for _, lid := range req.LineIDs {
		selected[lid] = struct{}{}
	}

	message := req.Message
	if req.Status == model.StageApproved {
		message = ""
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		touched := 0
		for i := range doc.Lines {
			if _, ok := selected[doc.Lines[i].ID]; !ok {
				continue
			}
			doc.Lines[i].StagesStatus = workflow.AppendStageEvent(doc.Lines[i].StagesStatus, req.Status, message)
			if err := s.repo.SaveLine(txCtx, &doc.Lines[i]); err != nil {
				return fmt.Errorf("failed to update line %s: %w", doc.Lines[i].ID, err)
			}
			touched++
		}
		if touched == 0 {
			return ErrNotFound
		}
		return s.writeAudit(txCtx, &userID, model.ActionBulkLineStatus, doc.ID.String(), doc.PRNo, map[string]interface{}{
			"status": req.Status,
			"lines":  touched,
		})
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, buCode, id)
	return s.reload(ctx, buCode, id)
}

func (s *purchaseRequestService) CountByStatus(ctx context.Context, buCode string) (map[string]int64, error) {
	return s.repo.CountByStatus(ctx, buCode)
}

// --- Helpers ---

func (s *purchaseRequestService) applyHeader(doc *model.PurchaseRequest, req SavePRDTO) {
	if req.WorkflowID != nil {
		doc.WorkflowID = req.WorkflowID
	}
	if req.DepartmentID != nil {
		doc.DepartmentID = req.DepartmentID
		doc.DepartmentName = req.DepartmentName
	}
	if req.PRDate != nil {
		doc.PRDate = *req.PRDate
	}
	if req.Description != "" {
		doc.Description = req.Description
	}
	if req.Note != "" {
		doc.Note = req.Note
	}
}

// replayItems feeds the three-bucket changeset through the session ledger
// as one batch, so validation runs once over the settled projection.
func (s *purchaseRequestService) replayItems(ctx context.Context, sess *workflow.Session, items ItemsDTO) error {
	for _, f := range items.Add {
		key, ok := sess.AddLine(model.PurchaseRequestLine{Currency: "USD"})
		if !ok {
			return ErrLocked
		}
		patch, err := s.patchFromDTO(ctx, f)
		if err != nil {
			return err
		}
		sess.UpdateLine(key, patch)
	}
	for _, u := range items.Update {
		patch, err := s.patchFromDTO(ctx, u.LineFieldsDTO)
		if err != nil {
			return err
		}
		sess.UpdateLine(u.ID.String(), patch)
	}
	for _, r := range items.Remove {
		sess.RemoveLine(r.ID.String())
	}
	return nil
}

// patchFromDTO resolves reference ids into a typed patch bundle. Dependent
// fields travel together: a product carries its unit, a pricelist carries
// its price, a tax profile carries its rate.
func (s *purchaseRequestService) patchFromDTO(ctx context.Context, f LineFieldsDTO) (*workflow.LinePatch, error) {
	patch := workflow.NewLinePatch()

	if f.LocationID != nil {
		loc, err := s.locations.FindByID(ctx, *f.LocationID)
		if err != nil {
			return nil, refError("location", *f.LocationID, err)
		}
		patch.WithLocation(loc.ID, loc.Name)
	}
	if f.ProductID != nil {
		product, err := s.products.FindByID(ctx, *f.ProductID)
		if err != nil {
			return nil, refError("product", *f.ProductID, err)
		}
		patch.WithProduct(product.ID, product.Name, product.UnitID, product.InventoryUnit, decimal.NewFromInt(1))
	}
	if f.VendorID != nil {
		vendor, err := s.vendors.FindByID(ctx, *f.VendorID)
		if err != nil {
			return nil, refError("vendor", *f.VendorID, err)
		}
		patch.WithVendor(vendor.ID, vendor.Name)
	}
	if f.PricelistID != nil && f.VendorID != nil && f.ProductID != nil {
		pl, err := s.vendors.FindActivePricelist(ctx, *f.VendorID, *f.ProductID, time.Now())
		if err != nil {
			return nil, refError("pricelist", *f.PricelistID, err)
		}
		patch.WithPricelist(pl.ID, pl.Price, pl.Currency)
	}
	if f.TaxProfileID != nil {
		profile, err := s.taxes.FindByID(ctx, *f.TaxProfileID)
		if err != nil {
			return nil, refError("tax profile", *f.TaxProfileID, err)
		}
		patch.WithTaxProfile(profile.ID, profile.Name, profile.Rate)
	}

	if f.RequestedQty != nil {
		patch.WithRequestedQty(workflow.QtyValue(f.RequestedQty))
	}
	if f.ApprovedQty != nil {
		patch.WithApprovedQty(workflow.QtyValue(f.ApprovedQty), nil, "")
	}
	if f.FocQty != nil {
		patch.WithFocQty(workflow.QtyValue(f.FocQty), nil, "")
	}
	if f.Price != nil {
		patch.WithPrice(decimal.NewFromFloat(*f.Price))
	}
	if f.DiscountRate != nil {
		patch.WithDiscountRate(decimal.NewFromFloat(*f.DiscountRate))
	}
	if f.DiscountAmount != nil {
		patch.WithDiscountAmount(decimal.NewFromFloat(*f.DiscountAmount))
	}
	if f.IsDiscountAdjustment != nil {
		patch.WithDiscountAdjustment(*f.IsDiscountAdjustment)
	}
	if f.TaxRate != nil {
		patch.WithTaxRate(decimal.NewFromFloat(*f.TaxRate))
	}
	if f.TaxAmount != nil {
		patch.WithTaxAmount(decimal.NewFromFloat(*f.TaxAmount))
	}
	if f.IsTaxAdjustment != nil {
		patch.WithTaxAdjustment(*f.IsTaxAdjustment)
	}
	if f.DeliveryDate != nil {
		patch.WithDeliveryDate(*f.DeliveryDate)
	}
	if f.DeliveryPointID != nil {
		loc, err := s.locations.FindByID(ctx, *f.DeliveryPointID)
		if err != nil {
			return nil, refError("delivery point", *f.DeliveryPointID, err)
		}
		patch.WithDeliveryPoint(loc.ID, loc.Name)
	}
	if f.Comment != nil {
		patch.WithComment(*f.Comment)
	}
	return patch, nil
}

func refError(kind string, id uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ValidationError{Lines: []workflow.LineValidationError{
			{Field: kind, Reason: "unknown reference " + id.String()},
		}}
	}
	return fmt.Errorf("failed to resolve %s %s: %w", kind, id, err)
}

func (s *purchaseRequestService) load(ctx context.Context, buCode string, id uuid.UUID) (*model.PurchaseRequest, error) {
	doc, err := s.repo.FindByID(ctx, buCode, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load purchase request: %w", err)
	}
	return doc, nil
}

func (s *purchaseRequestService) reload(ctx context.Context, buCode string, id uuid.UUID) (*model.PurchaseRequest, error) {
	doc, err := s.load(ctx, buCode, id)
	if err != nil {
		return nil, err
	}
	if err := s.docs.SetDocument(ctx, doc); err != nil {
		s.log.Warn().Err(err).Str("pr_no", doc.PRNo).Msg("failed to cache document")
	}
	return doc, nil
}

func (s *purchaseRequestService) invalidate(ctx context.Context, buCode string, id uuid.UUID) {
	if err := s.docs.Invalidate(ctx, buCode, id); err != nil {
		s.log.Warn().Err(err).Str("id", id.String()).Msg("failed to invalidate document cache")
	}
}

func (s *purchaseRequestService) writeAudit(ctx context.Context, userID *uuid.UUID, action, entityID, entityName string, details map[string]interface{}) error {
	raw, _ := json.Marshal(details)
	entry := model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(raw),
	}
	if err := s.audit.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
