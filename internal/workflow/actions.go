package workflow

import (
	"procurement/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Action names the workflow transitions a document exposes.
type Action string

const (
	ActionSave            Action = "save"
	ActionSubmit          Action = "submit"
	ActionApprove         Action = "approve"
	ActionPurchaseApprove Action = "purchase_approve"
	ActionReview          Action = "review"
	ActionReject          Action = "reject"
	ActionSendBack        Action = "send_back"
)

// Role tags sent to the document store with a transition payload.
const (
	RoleCreate   = "create"
	RolePurchase = "purchase"
)

// Role returns the role tag a transition is dispatched under.
func (a Action) Role() string {
	if a == ActionPurchaseApprove {
		return RolePurchase
	}
	return RoleCreate
}

// StageStatus maps an action to the per-line stage status it records.
func (a Action) StageStatus() string {
	switch a {
	case ActionSubmit:
		return model.StageSubmit
	case ActionApprove, ActionPurchaseApprove:
		return model.StageApproved
	case ActionReview:
		return model.StageReview
	case ActionReject:
		return model.StageRejected
	case ActionSendBack:
		return model.StageSendBack
	}
	return ""
}

// VisibleActions is the eligibility decision table. The branches are
// strictly ordered; the first matching condition wins: pending-gate, then
// draft, then review, then only-approved, then only-rejected, then mixed.
// Submit is additionally shown on every non-draft branch unless the document
// is already mid-approval.
func VisibleActions(sum Summary, docStatus string) []Action {
	if model.IsTerminalStatus(docStatus) {
		return nil
	}
	isDraft := docStatus == model.PRStatusDraft
	if sum.Pending > 0 && !isDraft {
		// Pending lines must be resolved before any document-level action.
		return nil
	}
	if isDraft {
		return []Action{ActionSave, ActionSubmit}
	}

	// New lines have no approval status yet, so their presence forces the
	// mixed branch.
	onlyApproved := sum.Approved > 0 && sum.Approved == sum.Total
	onlyRejected := sum.Rejected > 0 && sum.Rejected == sum.Total

	var acts []Action
	switch {
	case sum.Review > 0:
		acts = []Action{ActionReview}
	case onlyApproved:
		acts = []Action{ActionApprove}
	case onlyRejected:
		acts = []Action{ActionReject}
	default:
		acts = []Action{ActionReject, ActionSendBack, ActionReview, ActionApprove, ActionPurchaseApprove}
	}
	if docStatus != model.PRStatusInProgress {
		acts = append(acts, ActionSubmit)
	}
	return acts
}

// PurchaseApproveBlocked reports whether any line lacks a vendor or a
// pricelist price. An unsourced or unpriced line cannot be purchase-approved.
func PurchaseApproveBlocked(lines []model.PurchaseRequestLine) bool {
	for _, ln := range lines {
		if ln.VendorID == nil || !ln.PricelistPrice.IsPositive() {
			return true
		}
	}
	return false
}

// CanDispatch checks a named transition against the eligibility table and,
// for purchase approval, the per-line sourcing gate.
func CanDispatch(action Action, sum Summary, docStatus string, lines []model.PurchaseRequestLine) bool {
	for _, a := range VisibleActions(sum, docStatus) {
		if a != action {
			continue
		}
		if action == ActionPurchaseApprove && PurchaseApproveBlocked(lines) {
			return false
		}
		return true
	}
	return false
}

// LineStagePayload is the per-line payload for submit, reject, send-back and
// review transitions.
type LineStagePayload struct {
	LineID       uuid.UUID `json:"id"`
	StageStatus  string    `json:"stage_status"`
	StageMessage string    `json:"stage_message"`
}

// BuildStagePayload derives one payload entry per persisted line, carrying
// the line's last stage message or the supplied default. Lines not yet
// persisted have no approval history and are skipped.
func BuildStagePayload(lines []model.PurchaseRequestLine, stageStatus, defaultMessage string) []LineStagePayload {
	out := make([]LineStagePayload, 0, len(lines))
	for _, ln := range lines {
		if ln.ID == uuid.Nil {
			continue
		}
		msg := LastStageMessage(ln.StagesStatus)
		if msg == "" {
			msg = defaultMessage
		}
		out = append(out, LineStagePayload{LineID: ln.ID, StageStatus: stageStatus, StageMessage: msg})
	}
	return out
}

// ApprovalLineDetail is the full-detail payload for approve and
// purchase-approve transitions, snapshotting the pricing of each line.
type ApprovalLineDetail struct {
	LineID               uuid.UUID       `json:"id"`
	ProductID            *uuid.UUID      `json:"product_id"`
	ProductName          string          `json:"product_name"`
	Qty                  decimal.Decimal `json:"qty"`
	UnitName             string          `json:"unit_name"`
	VendorID             *uuid.UUID      `json:"vendor_id"`
	VendorName           string          `json:"vendor_name"`
	PricelistID          *uuid.UUID      `json:"pricelist_id"`
	PricelistPrice       decimal.Decimal `json:"pricelist_price"`
	Currency             string          `json:"currency"`
	Price                decimal.Decimal `json:"price"`
	DiscountRate         decimal.Decimal `json:"discount_rate"`
	DiscountAmount       decimal.Decimal `json:"discount_amount"`
	IsDiscountAdjustment bool            `json:"is_discount_adjustment"`
	TaxRate              decimal.Decimal `json:"tax_rate"`
	TaxAmount            decimal.Decimal `json:"tax_amount"`
	IsTaxAdjustment      bool            `json:"is_tax_adjustment"`
	SubTotalPrice        decimal.Decimal `json:"sub_total_price"`
	NetAmount            decimal.Decimal `json:"net_amount"`
	TotalPrice           decimal.Decimal `json:"total_price"`
}

// BuildApprovePayload snapshots every persisted line for an approval
// transition. The approved quantity takes precedence over the requested one,
// matching the recalculation rule.
func BuildApprovePayload(lines []model.PurchaseRequestLine) []ApprovalLineDetail {
	out := make([]ApprovalLineDetail, 0, len(lines))
	for _, ln := range lines {
		if ln.ID == uuid.Nil {
			continue
		}
		qty := ln.RequestedQty
		unit := ln.RequestedUnitName
		if ln.ApprovedQty.IsPositive() {
			qty = ln.ApprovedQty
			if ln.ApprovedUnitName != "" {
				unit = ln.ApprovedUnitName
			}
		}
		out = append(out, ApprovalLineDetail{
			LineID:               ln.ID,
			ProductID:            ln.ProductID,
			ProductName:          ln.ProductName,
			Qty:                  qty,
			UnitName:             unit,
			VendorID:             ln.VendorID,
			VendorName:           ln.VendorName,
			PricelistID:          ln.PricelistID,
			PricelistPrice:       ln.PricelistPrice,
			Currency:             ln.Currency,
			Price:                ln.Price,
			DiscountRate:         ln.DiscountRate,
			DiscountAmount:       ln.DiscountAmount,
			IsDiscountAdjustment: ln.IsDiscountAdjustment,
			TaxRate:              ln.TaxRate,
			TaxAmount:            ln.TaxAmount,
			IsTaxAdjustment:      ln.IsTaxAdjustment,
			SubTotalPrice:        ln.SubTotalPrice,
			NetAmount:            ln.NetAmount,
			TotalPrice:           ln.TotalPrice,
		})
	}
	return out
}
